package attendance

import (
	"context"
)

// AttendanceService defines business logic for the attendance ledger
type AttendanceService interface {
	// Submit ingests one scanner event. Ignored scans are reported in the result, not as errors.
	Submit(ctx context.Context, req ScanRequest) (ScanResult, error)

	// CloseUnfinishedDays completes every open day of the requested date at the default end time
	CloseUnfinishedDays(ctx context.Context, req CloseDayRequest) (CloseDayResponse, error)

	ListRecords(ctx context.Context, filter RecordFilter) (ListRecordsResponse, error)

	GetRecord(ctx context.Context, id string) (RecordResponse, error)

	// CorrectRecord overwrites a day's arrival and departure (admin fix for wrong data)
	CorrectRecord(ctx context.Context, req CorrectRecordRequest) (RecordResponse, error)

	// PurgeDebounce drops debounce entries of past days
	PurgeDebounce(ctx context.Context) (int64, error)
}
