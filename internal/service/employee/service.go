package employee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/validator"
)

type EmployeeServiceImpl struct {
	tx           attendance.Transactor
	employeeRepo employee.EmployeeRepository
	logger       *slog.Logger
}

func NewEmployeeService(tx attendance.Transactor, employeeRepo employee.EmployeeRepository, logger *slog.Logger) employee.EmployeeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmployeeServiceImpl{
		tx:           tx,
		employeeRepo: employeeRepo,
		logger:       logger,
	}
}

// ListEmployees implements employee.EmployeeService.
func (s *EmployeeServiceImpl) ListEmployees(ctx context.Context) (employee.ListEmployeeResponse, error) {
	employees, err := s.employeeRepo.List(ctx)
	if err != nil {
		return employee.ListEmployeeResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	responses := make([]employee.EmployeeResponse, 0, len(employees))
	for _, emp := range employees {
		responses = append(responses, mapEmployeeToResponse(emp))
	}

	return employee.ListEmployeeResponse{
		TotalCount: len(responses),
		Employees:  responses,
	}, nil
}

// GetEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) GetEmployee(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	if !validator.IsValidUUID(id) {
		return employee.EmployeeResponse{}, employee.ErrEmployeeNotFound
	}

	emp, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	return mapEmployeeToResponse(emp), nil
}

// CreateEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) CreateEmployee(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	var created employee.Employee
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		emp, err := s.employeeRepo.Create(txCtx, employee.Employee{FullName: req.FullName})
		if err != nil {
			return err
		}

		for _, serial := range req.CardSerials {
			if err := s.employeeRepo.AddCard(txCtx, emp.ID, employee.NormalizeSerial(serial)); err != nil {
				return err
			}
		}

		created, err = s.employeeRepo.GetByID(txCtx, emp.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, employee.ErrNameExists) || errors.Is(err, employee.ErrCardAlreadyAssigned) {
			return employee.EmployeeResponse{}, err
		}
		return employee.EmployeeResponse{}, fmt.Errorf("failed to create employee: %w", err)
	}

	s.logger.InfoContext(ctx, "employee registered",
		slog.String("employee_id", created.ID),
		slog.Int("cards", len(created.Cards)),
	)

	return mapEmployeeToResponse(created), nil
}

// AssignCard implements employee.EmployeeService.
func (s *EmployeeServiceImpl) AssignCard(ctx context.Context, req employee.AssignCardRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	serial := employee.NormalizeSerial(req.Serial)
	if err := s.employeeRepo.AddCard(ctx, req.EmployeeID, serial); err != nil {
		return employee.EmployeeResponse{}, err
	}

	s.logger.InfoContext(ctx, "card assigned",
		slog.String("employee_id", req.EmployeeID),
		slog.String("serial", serial),
	)

	return s.GetEmployee(ctx, req.EmployeeID)
}

// RevokeCard implements employee.EmployeeService.
func (s *EmployeeServiceImpl) RevokeCard(ctx context.Context, serial string) error {
	serial = employee.NormalizeSerial(serial)
	if !validator.IsValidCardSerial(serial) {
		return employee.ErrCardNotFound
	}

	if err := s.employeeRepo.RemoveCard(ctx, serial); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "card revoked", slog.String("serial", serial))
	return nil
}

func mapEmployeeToResponse(emp employee.Employee) employee.EmployeeResponse {
	cards := emp.Cards
	if cards == nil {
		cards = []string{}
	}
	return employee.EmployeeResponse{
		ID:        emp.ID,
		FullName:  emp.FullName,
		Cards:     cards,
		CreatedAt: emp.CreatedAt.Format(time.RFC3339),
		UpdatedAt: emp.UpdatedAt.Format(time.RFC3339),
	}
}
