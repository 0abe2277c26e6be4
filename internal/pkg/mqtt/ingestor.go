package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/config"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/validator"
	paho "github.com/eclipse/paho.mqtt.golang"
)

// Submitter is the part of the attendance service the ingestor drives.
type Submitter interface {
	Submit(ctx context.Context, req attendance.ScanRequest) (attendance.ScanResult, error)
}

// Ingestor accepts scans published by readers over MQTT and answers each one on
// ResultTopic/<serial> with the same JSON the HTTP endpoint returns.
type Ingestor struct {
	cfg       config.MQTTConfig
	submitter Submitter
	logger    *slog.Logger
	client    paho.Client
	timeout   time.Duration
}

func NewIngestor(cfg config.MQTTConfig, submitter Submitter, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		cfg:       cfg,
		submitter: submitter,
		logger:    logger.With(slog.String("component", "mqtt-ingestor")),
		timeout:   10 * time.Second,
	}
}

// Start connects to the broker and subscribes to the scan topic. The subscription
// is restored on every reconnect.
func (i *Ingestor) Start() error {
	i.client = paho.NewClient(i.clientOptions())
	token := i.client.Connect()
	if !token.WaitTimeout(i.timeout) {
		i.logger.Warn("MQTT broker not reachable yet, retrying in background", "broker", i.cfg.BrokerURL)
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}
	return nil
}

// clientOptions lets scans from different readers be handled concurrently;
// the service serializes scans of the same employee and day itself.
func (i *Ingestor) clientOptions() *paho.ClientOptions {
	return paho.NewClientOptions().
		AddBroker(i.cfg.BrokerURL).
		SetClientID(i.cfg.ClientID).
		SetUsername(i.cfg.Username).
		SetPassword(i.cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOrderMatters(false).
		SetOnConnectHandler(func(c paho.Client) {
			token := c.Subscribe(i.cfg.ScanTopic, i.cfg.QoS, i.handle)
			if token.Wait() && token.Error() != nil {
				i.logger.Error("Failed to subscribe", "topic", i.cfg.ScanTopic, "error", token.Error())
				return
			}
			i.logger.Info("Subscribed to scan topic", "topic", i.cfg.ScanTopic)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			i.logger.Warn("MQTT connection lost", "error", err)
		})
}

func (i *Ingestor) Stop() {
	if i.client != nil {
		i.client.Disconnect(250)
	}
}

func (i *Ingestor) handle(c paho.Client, msg paho.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
	defer cancel()

	topic, body := i.process(ctx, msg.Payload())
	token := c.Publish(topic, i.cfg.QoS, false, body)
	// Waiting for the ack here would stall the client's message router.
	go func() {
		if token.WaitTimeout(i.timeout) && token.Error() != nil {
			i.logger.Error("Failed to publish scan result", "topic", topic, "error", token.Error())
		}
	}()
}

// process submits one payload and returns where to publish the reply and what to publish.
func (i *Ingestor) process(ctx context.Context, payload []byte) (string, []byte) {
	var req attendance.ScanRequest
	var result attendance.ScanResult

	if err := json.Unmarshal(payload, &req); err != nil {
		result = attendance.ScanResultFromError("", attendance.MalformedInput("payload must be a JSON object"))
	} else if res, err := i.submitter.Submit(ctx, req); err != nil {
		result = attendance.ScanResultFromError(req.Serial, err)
		if result.Status == attendance.ScanStatusError && ctx.Err() == nil {
			i.logger.Error("Scan failed", "serial", req.Serial, "error", err)
		}
	} else {
		result = res
	}

	body, _ := json.Marshal(result)
	return i.resultTopic(req.Serial), body
}

func (i *Ingestor) resultTopic(serial string) string {
	serial = employee.NormalizeSerial(serial)
	if !validator.IsValidCardSerial(serial) {
		return i.cfg.ResultTopic
	}
	return i.cfg.ResultTopic + "/" + serial
}
