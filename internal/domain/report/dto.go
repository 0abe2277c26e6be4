package report

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/pkg/validator"
)

// ========================================
// MONTHLY ATTENDANCE REPORT
// ========================================

type MonthlyReportRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (r *MonthlyReportRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}

	currentYear := time.Now().Year()
	if r.Year < 2000 || r.Year > currentYear+1 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: fmt.Sprintf("year must be between 2000 and %d", currentYear+1),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type MonthlyReport struct {
	PeriodMonth int    `json:"period_month"`
	PeriodYear  int    `json:"period_year"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	GeneratedAt string `json:"generated_at"`

	Rows []MonthlyReportRow `json:"rows"`
}

// MonthlyReportRow holds one employee's totals. Hour values are rounded to one decimal.
type MonthlyReportRow struct {
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	TotalHours   float64 `json:"total_hours"`
	WeekendHours float64 `json:"weekend_hours"`
	WorkDays     int     `json:"work_days"`
	AverageHours float64 `json:"average_hours"`

	Days []DailyLog `json:"days"`
}

// DailyLog is one completed day that contributed to a row.
type DailyLog struct {
	Date          string  `json:"date"`
	DayOfWeek     string  `json:"day_of_week"`
	ArrivalTime   string  `json:"arrival_time"`
	DepartureTime string  `json:"departure_time"`
	Hours         float64 `json:"hours"`
	Weekend       bool    `json:"weekend"`
	AutoClosed    bool    `json:"auto_closed"`
}

// ExportFile is a rendered report ready to be served as a download.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}
