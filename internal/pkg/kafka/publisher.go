package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/config"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher streams committed ledger events to a Kafka topic, keyed by employee
// so each employee's events stay ordered within a partition.
type Publisher struct {
	writer  messageWriter
	logger  *slog.Logger
	timeout time.Duration
}

func NewPublisher(cfg config.KafkaConfig, logger *slog.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return newPublisher(writer, logger)
}

func newPublisher(writer messageWriter, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		writer:  writer,
		logger:  logger.With(slog.String("component", "kafka-publisher")),
		timeout: 5 * time.Second,
	}
}

// Publish implements attendance.EventPublisher.
func (p *Publisher) Publish(ctx context.Context, event attendance.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.EmployeeID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(event.Kind)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write %s event to kafka: %w", event.Kind, err)
	}

	p.logger.Debug("Event published", "kind", event.Kind, "employee_id", event.EmployeeID)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
