package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeSelect = `
	SELECT e.id, e.full_name,
		COALESCE(array_agg(c.serial ORDER BY c.serial) FILTER (WHERE c.serial IS NOT NULL), '{}') AS cards,
		e.created_at, e.updated_at
	FROM employees e
	LEFT JOIN employee_cards c ON c.employee_id = e.id
`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var emp employee.Employee
	err := row.Scan(&emp.ID, &emp.FullName, &emp.Cards, &emp.CreatedAt, &emp.UpdatedAt)
	return emp, err
}

// GetByCardSerial implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByCardSerial(ctx context.Context, serial string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := employeeSelect + `
		WHERE e.id = (SELECT employee_id FROM employee_cards WHERE serial = $1)
		GROUP BY e.id
	`

	emp, err := scanEmployee(q.QueryRow(ctx, query, serial))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrCardNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee by card %s: %w", serial, err)
	}

	return emp, nil
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := employeeSelect + `
		WHERE e.id = $1
		GROUP BY e.id
	`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee with id %s: %w", id, err)
	}

	return emp, nil
}

// List implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) List(ctx context.Context) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := employeeSelect + `
		GROUP BY e.id
		ORDER BY e.full_name ASC
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}

	return employees, nil
}

// Create implements employee.EmployeeRepository. Cards are added separately.
func (e *employeeRepositoryImpl) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	if newEmployee.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return employee.Employee{}, fmt.Errorf("failed to generate employee id: %w", err)
		}
		newEmployee.ID = id.String()
	}

	query := `
		INSERT INTO employees (id, full_name)
		VALUES ($1, $2)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query, newEmployee.ID, newEmployee.FullName).Scan(&newEmployee.CreatedAt, &newEmployee.UpdatedAt)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgUniqueViolation {
			return employee.Employee{}, employee.ErrNameExists
		}
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}

	newEmployee.Cards = []string{}
	return newEmployee, nil
}

// AddCard implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) AddCard(ctx context.Context, employeeID string, serial string) error {
	q := GetQuerier(ctx, e.db)

	_, err := q.Exec(ctx, `INSERT INTO employee_cards (serial, employee_id) VALUES ($1, $2)`, serial, employeeID)
	if err != nil {
		switch code, _ := pgErrorCode(err); code {
		case pgUniqueViolation:
			return employee.ErrCardAlreadyAssigned
		case pgForeignKeyViolation:
			return employee.ErrEmployeeNotFound
		}
		return fmt.Errorf("failed to assign card %s: %w", serial, err)
	}

	if _, err := q.Exec(ctx, `UPDATE employees SET updated_at = NOW() WHERE id = $1`, employeeID); err != nil {
		return fmt.Errorf("failed to touch employee %s: %w", employeeID, err)
	}

	return nil
}

// RemoveCard implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) RemoveCard(ctx context.Context, serial string) error {
	q := GetQuerier(ctx, e.db)

	tag, err := q.Exec(ctx, `DELETE FROM employee_cards WHERE serial = $1`, serial)
	if err != nil {
		return fmt.Errorf("failed to revoke card %s: %w", serial, err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrCardNotFound
	}

	return nil
}
