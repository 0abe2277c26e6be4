package employee

import "context"

// EmployeeRepository is the card registry. Card serials are stored normalized.
type EmployeeRepository interface {
	// GetByCardSerial returns ErrCardNotFound when no employee holds the serial
	GetByCardSerial(ctx context.Context, serial string) (Employee, error)
	GetByID(ctx context.Context, id string) (Employee, error)
	List(ctx context.Context) ([]Employee, error)
	Create(ctx context.Context, newEmployee Employee) (Employee, error)
	AddCard(ctx context.Context, employeeID string, serial string) error
	RemoveCard(ctx context.Context, serial string) error
}
