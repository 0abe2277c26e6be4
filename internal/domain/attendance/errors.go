package attendance

import "errors"

// Attendance domain errors
var (
	// Scan errors
	ErrUnknownDevice  = errors.New("unknown card serial")
	ErrMalformedInput = errors.New("malformed scan event")

	// Ledger errors
	ErrRecordNotFound          = errors.New("attendance record not found")
	ErrDepartureWithoutArrival = errors.New("departure cannot be set without an arrival")
	ErrDepartureBeforeDate     = errors.New("departure must not be earlier than the record date")
)
