package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/report"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Monthly Report"
	dailySheet   = "Daily Log"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExportMonthlyReport implements report.ReportService.
func (s *ReportServiceImpl) ExportMonthlyReport(ctx context.Context, req report.MonthlyReportRequest) (report.ExportFile, error) {
	monthly, err := s.MonthlyReport(ctx, req)
	if err != nil {
		return report.ExportFile{}, err
	}

	content, err := renderWorkbook(monthly)
	if err != nil {
		return report.ExportFile{}, fmt.Errorf("%w: %v", report.ErrReportGenerationFailed, err)
	}

	return report.ExportFile{
		FileName:    fmt.Sprintf("attendance_%04d_%02d.xlsx", monthly.PeriodYear, monthly.PeriodMonth),
		ContentType: xlsxContentType,
		Content:     content,
	}, nil
}

func renderWorkbook(monthly report.MonthlyReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(dailySheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Attendance report %s .. %s", monthly.PeriodStart, monthly.PeriodEnd)
	if err := f.SetCellValue(summarySheet, "A1", title); err != nil {
		return nil, err
	}
	if err := f.MergeCell(summarySheet, "A1", "E1"); err != nil {
		return nil, err
	}

	summaryHeader := []any{"Employee", "Total hours", "Weekend hours", "Work days", "Average hours"}
	if err := writeRow(f, summarySheet, 3, summaryHeader); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(summarySheet, "A3", "E3", headerStyle); err != nil {
		return nil, err
	}

	dailyHeader := []any{"Employee", "Date", "Day", "Arrival", "Departure", "Hours", "Auto-closed"}
	if err := writeRow(f, dailySheet, 1, dailyHeader); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(dailySheet, "A1", "G1", headerStyle); err != nil {
		return nil, err
	}

	dailyRow := 2
	for i, row := range monthly.Rows {
		values := []any{row.EmployeeName, row.TotalHours, row.WeekendHours, row.WorkDays, row.AverageHours}
		if err := writeRow(f, summarySheet, 4+i, values); err != nil {
			return nil, err
		}

		for _, day := range row.Days {
			autoClosed := ""
			if day.AutoClosed {
				autoClosed = "yes"
			}
			values := []any{row.EmployeeName, day.Date, day.DayOfWeek, day.ArrivalTime, day.DepartureTime, day.Hours, autoClosed}
			if err := writeRow(f, dailySheet, dailyRow, values); err != nil {
				return nil, err
			}
			dailyRow++
		}
	}

	if err := f.SetColWidth(summarySheet, "A", "A", 30); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(summarySheet, "B", "E", 15); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(dailySheet, "A", "A", 30); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(dailySheet, "B", "G", 12); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return nil
}
