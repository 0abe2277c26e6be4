package employee

import "errors"

var (
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrCardNotFound        = errors.New("card is not assigned to any employee")
	ErrCardAlreadyAssigned = errors.New("card is already assigned to an employee")
	ErrNameExists          = errors.New("employee with this name already exists")
)
