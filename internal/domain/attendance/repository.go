package attendance

import (
	"context"
	"time"
)

// AttendanceRepository stores one DailyRecord per (employee, date).
type AttendanceRepository interface {
	// GetByEmployeeAndDate returns nil, nil when no record exists yet
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*DailyRecord, error)

	// Save inserts or replaces the record for (EmployeeID, Date)
	Save(ctx context.Context, record DailyRecord) (DailyRecord, error)

	GetByID(ctx context.Context, id string) (DailyRecord, error)

	// List retrieves records with filters and pagination
	List(ctx context.Context, filter RecordFilter) ([]DailyRecord, int64, error)

	// ListOpenByDate returns records of date that have an arrival but no departure
	ListOpenByDate(ctx context.Context, date time.Time) ([]DailyRecord, error)

	// ListByPeriod returns all records with start <= date <= end
	ListByPeriod(ctx context.Context, start, end time.Time) ([]DailyRecord, error)
}

// DebounceRepository keeps the last accepted scan per (card serial, date).
type DebounceRepository interface {
	GetLastAccepted(ctx context.Context, serial string, date time.Time) (*time.Time, error)
	SetLastAccepted(ctx context.Context, serial string, date time.Time, at time.Time) error
	// PurgeBefore deletes entries dated strictly before date
	PurgeBefore(ctx context.Context, date time.Time) (int64, error)
}

// Transactor runs units of work against the ledger stores.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// WithinScanLock runs fn in one transaction while holding an exclusive
	// lock on (key, date). Scans sharing a key and date are serialized.
	WithinScanLock(ctx context.Context, key string, date time.Time, fn func(ctx context.Context) error) error
}
