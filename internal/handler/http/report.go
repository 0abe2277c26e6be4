package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/report"
	"github.com/cmlabs-hris/skud-attendance/internal/handler/http/response"
)

type ReportHandler interface {
	GetMonthlyReport(w http.ResponseWriter, r *http.Request)
	ExportMonthlyReport(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

// GetMonthlyReport handles GET /reports/monthly
func (h *reportHandlerImpl) GetMonthlyReport(w http.ResponseWriter, r *http.Request) {
	req, ok := parseMonthlyReportRequest(w, r)
	if !ok {
		return
	}

	result, err := h.reportService.MonthlyReport(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ExportMonthlyReport handles GET /reports/monthly/export
func (h *reportHandlerImpl) ExportMonthlyReport(w http.ResponseWriter, r *http.Request) {
	req, ok := parseMonthlyReportRequest(w, r)
	if !ok {
		return
	}

	file, err := h.reportService.ExportMonthlyReport(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Content)
}

func parseMonthlyReportRequest(w http.ResponseWriter, r *http.Request) (report.MonthlyReportRequest, bool) {
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		response.BadRequest(w, "invalid month parameter", nil)
		return report.MonthlyReportRequest{}, false
	}

	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		response.BadRequest(w, "invalid year parameter", nil)
		return report.MonthlyReportRequest{}, false
	}

	return report.MonthlyReportRequest{Month: month, Year: year}, true
}
