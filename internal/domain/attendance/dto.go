package attendance

import (
	"errors"
	"fmt"

	"github.com/cmlabs-hris/skud-attendance/internal/pkg/clock"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/validator"
)

// ========================================
// SCAN DTOs
// ========================================

// ScanRequest is the payload scanners post: {"serial": "...", "time": "2025-06-25 08:00"}.
type ScanRequest struct {
	Serial string `json:"serial"`
	Time   string `json:"time"`
}

func (r *ScanRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Serial) {
		errs = append(errs, validator.ValidationError{
			Field:   "serial",
			Message: "serial is required",
		})
	}

	if validator.IsEmpty(r.Time) {
		errs = append(errs, validator.ValidationError{
			Field:   "time",
			Message: "time is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ScanStatus string

const (
	ScanStatusSuccess ScanStatus = "success"
	ScanStatusIgnored ScanStatus = "ignored"
	ScanStatusUnknown ScanStatus = "unknown"
	ScanStatusError   ScanStatus = "error"
)

// ScanResult is returned verbatim to scanners, so its shape is flat and stable.
type ScanResult struct {
	Status   ScanStatus `json:"status"`
	Message  string     `json:"message"`
	Employee string     `json:"employee,omitempty"`
	Event    EventKind  `json:"event,omitempty"`
	Time     string     `json:"time,omitempty"`
	Date     string     `json:"date,omitempty"`
	LastTime string     `json:"lastTime,omitempty"`
}

// ScanResultFromError converts a Submit error into the reply a scanner expects.
func ScanResultFromError(serial string, err error) ScanResult {
	switch {
	case errors.Is(err, ErrUnknownDevice):
		return ScanResult{Status: ScanStatusUnknown, Message: "Unknown key: " + serial}
	case errors.Is(err, ErrMalformedInput):
		return ScanResult{Status: ScanStatusError, Message: err.Error()}
	default:
		return ScanResult{Status: ScanStatusError, Message: "Internal server error"}
	}
}

// ========================================
// RECORD DTOs
// ========================================

type RecordResponse struct {
	ID            string   `json:"id"`
	EmployeeID    string   `json:"employee_id"`
	EmployeeName  string   `json:"employee_name"`
	Date          string   `json:"date"`
	DayOfWeek     string   `json:"day_of_week"`
	State         string   `json:"state"`
	ArrivalTime   *string  `json:"arrival_time,omitempty"`
	DepartureTime *string  `json:"departure_time,omitempty"`
	WorkedHours   *float64 `json:"worked_hours,omitempty"`
	AutoClosed    bool     `json:"auto_closed"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

type RecordFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Date       *string `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *RecordFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.EmployeeID != nil && !validator.IsValidUUID(*f.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid id",
		})
	}

	for field, value := range map[string]*string{"date": f.Date, "start_date": f.StartDate, "end_date": f.EndDate} {
		if value != nil && *value != "" {
			if _, valid := validator.IsValidDate(*value); !valid {
				errs = append(errs, validator.ValidationError{
					Field:   field,
					Message: field + " must be in YYYY-MM-DD format",
				})
			}
		}
	}

	if f.StartDate != nil && f.EndDate != nil && *f.StartDate != "" && *f.EndDate != "" {
		start, okStart := validator.IsValidDate(*f.StartDate)
		end, okEnd := validator.IsValidDate(*f.EndDate)
		if okStart && okEnd && end.Before(start) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must not be before start_date",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListRecordsResponse struct {
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
	Records    []RecordResponse `json:"records"`
}

// CorrectRecordRequest overwrites a day's times. Times are HH:MM on the record's date.
type CorrectRecordRequest struct {
	ID        string  `json:"-"`
	Arrival   *string `json:"arrival"`
	Departure *string `json:"departure"`
}

func (r *CorrectRecordRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id must be a valid id",
		})
	}

	if r.Arrival != nil {
		if _, err := clock.Parse(*r.Arrival); err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "arrival",
				Message: "arrival must be in HH:MM format",
			})
		}
	}

	if r.Departure != nil {
		if _, err := clock.Parse(*r.Departure); err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "departure",
				Message: "departure must be in HH:MM format",
			})
		} else if r.Arrival == nil {
			errs = append(errs, validator.ValidationError{
				Field:   "departure",
				Message: ErrDepartureWithoutArrival.Error(),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// DAY CLOSURE DTOs
// ========================================

type CloseDayRequest struct {
	// Date defaults to today in the attendance time zone
	Date string `json:"date"`
}

func (r *CloseDayRequest) Validate() error {
	if r.Date == "" {
		return nil
	}
	if _, valid := validator.IsValidDate(r.Date); !valid {
		return validator.ValidationErrors{{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		}}
	}
	return nil
}

type CloseDayResponse struct {
	Date   string `json:"date"`
	Closed int    `json:"closed"`
}

// MalformedInput wraps ErrMalformedInput with the reason the scan was rejected.
func MalformedInput(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, reason)
}
