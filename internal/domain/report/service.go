package report

import "context"

// ReportService defines the interface for report generation
type ReportService interface {
	// MonthlyReport aggregates completed days of the month for every registered employee
	MonthlyReport(ctx context.Context, req MonthlyReportRequest) (MonthlyReport, error)

	// ExportMonthlyReport renders MonthlyReport as an xlsx workbook
	ExportMonthlyReport(ctx context.Context, req MonthlyReportRequest) (ExportFile, error)
}
