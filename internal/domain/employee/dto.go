package employee

import (
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/validator"
)

type CreateEmployeeRequest struct {
	FullName    string   `json:"full_name"`
	CardSerials []string `json:"card_serials"`
}

func (r *CreateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.FullName) {
		errs = append(errs, validator.ValidationError{
			Field:   "full_name",
			Message: "full_name is required",
		})
	} else if len(r.FullName) > 255 {
		errs = append(errs, validator.ValidationError{
			Field:   "full_name",
			Message: "full_name must not exceed 255 characters",
		})
	}

	seen := make(map[string]struct{}, len(r.CardSerials))
	for _, serial := range r.CardSerials {
		normalized := NormalizeSerial(serial)
		if !validator.IsValidCardSerial(normalized) {
			errs = append(errs, validator.ValidationError{
				Field:   "card_serials",
				Message: "card serial " + serial + " is invalid",
			})
			continue
		}
		if _, dup := seen[normalized]; dup {
			errs = append(errs, validator.ValidationError{
				Field:   "card_serials",
				Message: "card serial " + serial + " is listed twice",
			})
		}
		seen[normalized] = struct{}{}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type AssignCardRequest struct {
	EmployeeID string `json:"-"`
	Serial     string `json:"serial"`
}

func (r *AssignCardRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid id",
		})
	}

	if !validator.IsValidCardSerial(NormalizeSerial(r.Serial)) {
		errs = append(errs, validator.ValidationError{
			Field:   "serial",
			Message: "serial is required and may only contain letters, digits, ':' and '-'",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type EmployeeResponse struct {
	ID        string   `json:"id"`
	FullName  string   `json:"full_name"`
	Cards     []string `json:"cards"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

type ListEmployeeResponse struct {
	TotalCount int                `json:"total_count"`
	Employees  []EmployeeResponse `json:"employees"`
}
