package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/auth"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/report"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")
	case errors.Is(err, auth.ErrInvalidAPIKey):
		Unauthorized(w, "Invalid scanner API key")
	case errors.Is(err, auth.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrCardNotFound):
		NotFound(w, "Card not found")
	case errors.Is(err, employee.ErrCardAlreadyAssigned):
		Conflict(w, "Card is already assigned to an employee")
	case errors.Is(err, employee.ErrNameExists):
		Conflict(w, "Employee with this name already exists")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrRecordNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrMalformedInput):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, attendance.ErrUnknownDevice):
		NotFound(w, "Unknown card")
	case errors.Is(err, attendance.ErrDepartureWithoutArrival),
		errors.Is(err, attendance.ErrDepartureBeforeDate):
		BadRequest(w, err.Error(), nil)

	// Report domain errors
	case errors.Is(err, report.ErrReportGenerationFailed):
		InternalServerError(w, "Failed to generate report")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
