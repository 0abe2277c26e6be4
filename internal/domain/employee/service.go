package employee

import "context"

type EmployeeService interface {
	ListEmployees(ctx context.Context) (ListEmployeeResponse, error)
	GetEmployee(ctx context.Context, id string) (EmployeeResponse, error)

	// CreateEmployee registers an employee together with their initial cards
	CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (EmployeeResponse, error)

	AssignCard(ctx context.Context, req AssignCardRequest) (EmployeeResponse, error)
	RevokeCard(ctx context.Context, serial string) error
}
