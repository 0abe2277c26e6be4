package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/report"
)

type ReportServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	employeeRepo   employee.EmployeeRepository
	location       *time.Location
	now            func() time.Time
	logger         *slog.Logger
}

func NewReportService(
	attendanceRepo attendance.AttendanceRepository,
	employeeRepo employee.EmployeeRepository,
	location *time.Location,
	logger *slog.Logger,
) report.ReportService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportServiceImpl{
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		location:       location,
		now:            time.Now,
		logger:         logger,
	}
}

// MonthlyReport implements report.ReportService.
func (s *ReportServiceImpl) MonthlyReport(ctx context.Context, req report.MonthlyReportRequest) (report.MonthlyReport, error) {
	if err := req.Validate(); err != nil {
		return report.MonthlyReport{}, err
	}

	start := time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	employees, err := s.employeeRepo.List(ctx)
	if err != nil {
		return report.MonthlyReport{}, fmt.Errorf("failed to list employees: %w", err)
	}

	records, err := s.attendanceRepo.ListByPeriod(ctx, start, end)
	if err != nil {
		return report.MonthlyReport{}, fmt.Errorf("failed to list attendances for %d-%02d: %w", req.Year, req.Month, err)
	}

	return report.MonthlyReport{
		PeriodMonth: req.Month,
		PeriodYear:  req.Year,
		PeriodStart: start.Format("2006-01-02"),
		PeriodEnd:   end.Format("2006-01-02"),
		GeneratedAt: s.now().In(s.location).Format(time.RFC3339),
		Rows:        BuildMonthlyRows(employees, records, s.location),
	}, nil
}

type accumulator struct {
	row            report.MonthlyReportRow
	totalMinutes   int
	weekendMinutes int
}

// BuildMonthlyRows aggregates completed days per employee. Every employee gets a
// row, in the order given. Sums are kept in minutes and rounded only for display.
func BuildMonthlyRows(employees []employee.Employee, records []attendance.DailyRecord, loc *time.Location) []report.MonthlyReportRow {
	byEmployee := make(map[string]*accumulator, len(employees))
	ordered := make([]*accumulator, 0, len(employees))
	for _, emp := range employees {
		acc := &accumulator{row: report.MonthlyReportRow{
			EmployeeID:   emp.ID,
			EmployeeName: emp.FullName,
			Days:         []report.DailyLog{},
		}}
		byEmployee[emp.ID] = acc
		ordered = append(ordered, acc)
	}

	for _, record := range records {
		acc, ok := byEmployee[record.EmployeeID]
		if !ok {
			continue
		}
		minutes, complete := record.State.WorkedMinutes(loc)
		if !complete {
			continue
		}

		weekday := record.Date.Weekday()
		weekend := weekday == time.Saturday || weekday == time.Sunday

		acc.totalMinutes += minutes
		if weekend {
			acc.weekendMinutes += minutes
		}
		acc.row.WorkDays++

		arrival, _ := record.State.Arrival()
		departure, _ := record.State.Departure()
		acc.row.Days = append(acc.row.Days, report.DailyLog{
			Date:          record.Date.Format("2006-01-02"),
			DayOfWeek:     weekday.String(),
			ArrivalTime:   arrival.In(loc).Format("15:04"),
			DepartureTime: departure.In(loc).Format("15:04"),
			Hours:         attendance.Hours(minutes),
			Weekend:       weekend,
			AutoClosed:    record.AutoClosed,
		})
	}

	rows := make([]report.MonthlyReportRow, 0, len(ordered))
	for _, acc := range ordered {
		acc.row.TotalHours = attendance.Hours(acc.totalMinutes)
		acc.row.WeekendHours = attendance.Hours(acc.weekendMinutes)
		if acc.row.WorkDays > 0 {
			acc.row.AverageHours = attendance.Hours(acc.totalMinutes / acc.row.WorkDays)
		}
		rows = append(rows, acc.row)
	}

	return rows
}
