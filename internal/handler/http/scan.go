package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/skud-attendance/internal/handler/http/response"
)

type ScanHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
}

type scanHandlerImpl struct {
	attendanceService attendance.AttendanceService
	logger            *slog.Logger
}

func NewScanHandler(attendanceService attendance.AttendanceService, logger *slog.Logger) ScanHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &scanHandlerImpl{
		attendanceService: attendanceService,
		logger:            logger,
	}
}

// Submit handles POST /api/attendance. Replies are flat so embedded readers can parse them.
func (h *scanHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	var req attendance.ScanRequest

	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusBadRequest, attendance.ScanResult{
			Status:  attendance.ScanStatusError,
			Message: "Invalid request format",
		})
		return
	}

	result, err := h.attendanceService.Submit(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, attendance.ErrUnknownDevice):
			status = http.StatusNotFound
		case errors.Is(err, attendance.ErrMalformedInput):
			status = http.StatusBadRequest
		default:
			h.logger.Error("Scan submit error", "serial", req.Serial, "error", err)
		}
		response.JSON(w, status, attendance.ScanResultFromError(req.Serial, err))
		return
	}

	response.JSON(w, http.StatusOK, result)
}
