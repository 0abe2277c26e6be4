package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/employee"
)

type employeeRepository struct {
	s *Store
}

// withCards returns a copy of the employee carrying its current serials.
func (r *employeeRepository) withCards(emp employee.Employee) employee.Employee {
	cards := []string{}
	for serial, id := range r.s.cards {
		if id == emp.ID {
			cards = append(cards, serial)
		}
	}
	sort.Strings(cards)
	emp.Cards = cards
	return emp
}

func (r *employeeRepository) GetByCardSerial(ctx context.Context, serial string) (employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.cards[serial]
	if !ok {
		return employee.Employee{}, employee.ErrCardNotFound
	}
	return r.withCards(r.s.employees[id]), nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	emp, ok := r.s.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return r.withCards(emp), nil
}

func (r *employeeRepository) List(ctx context.Context) ([]employee.Employee, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	employees := make([]employee.Employee, 0, len(r.s.employees))
	for _, emp := range r.s.employees {
		employees = append(employees, r.withCards(emp))
	}
	slices.SortFunc(employees, func(a, b employee.Employee) int {
		if a.FullName < b.FullName {
			return -1
		}
		if a.FullName > b.FullName {
			return 1
		}
		return 0
	})
	return employees, nil
}

func (r *employeeRepository) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, emp := range r.s.employees {
		if emp.FullName == newEmployee.FullName {
			return employee.Employee{}, employee.ErrNameExists
		}
	}

	if newEmployee.ID == "" {
		id, err := newID()
		if err != nil {
			return employee.Employee{}, fmt.Errorf("failed to generate employee id: %w", err)
		}
		newEmployee.ID = id
	}
	now := r.s.now()
	newEmployee.CreatedAt = now
	newEmployee.UpdatedAt = now
	newEmployee.Cards = nil

	r.s.employees[newEmployee.ID] = newEmployee
	return r.withCards(newEmployee), nil
}

func (r *employeeRepository) AddCard(ctx context.Context, employeeID string, serial string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	emp, ok := r.s.employees[employeeID]
	if !ok {
		return employee.ErrEmployeeNotFound
	}
	if _, taken := r.s.cards[serial]; taken {
		return employee.ErrCardAlreadyAssigned
	}

	r.s.cards[serial] = employeeID
	emp.UpdatedAt = r.s.now()
	r.s.employees[employeeID] = emp
	return nil
}

func (r *employeeRepository) RemoveCard(ctx context.Context, serial string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.cards[serial]; !ok {
		return employee.ErrCardNotFound
	}
	delete(r.s.cards, serial)
	return nil
}
