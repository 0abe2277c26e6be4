package attendance

import (
	"context"
	"errors"
	"time"
)

// EventKind is the ledger transition an accepted scan or closure produced.
type EventKind string

const (
	EventArrival    EventKind = "arrival"
	EventDeparture  EventKind = "departure"
	EventAutoClosed EventKind = "auto_closed"
)

// Event is emitted after a ledger mutation has been committed.
type Event struct {
	Kind         EventKind `json:"kind"`
	EmployeeID   string    `json:"employee_id"`
	EmployeeName string    `json:"employee_name"`
	CardSerial   string    `json:"card_serial,omitempty"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// EventPublisher delivers committed ledger events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// UnknownCardNotifier alerts an administrator about a card that is not registered.
type UnknownCardNotifier interface {
	NotifyUnknownCard(ctx context.Context, serial string, at time.Time) error
}

// Publishers fans an event out to every publisher and joins their errors.
type Publishers []EventPublisher

func (p Publishers) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, pub := range p {
		if err := pub.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
