// Package memory keeps the ledger in process memory. It backs STORE_DRIVER=memory
// and the service tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/employee"
	"github.com/google/uuid"
)

// Store holds every table. Writes are applied immediately, so a failed unit
// of work is not rolled back.
type Store struct {
	mu sync.RWMutex

	employees map[string]employee.Employee
	cards     map[string]string // serial -> employee id

	records       map[string]attendance.DailyRecord
	recordByDay   map[string]string // employee id|date -> record id
	debounceState map[string]time.Time

	locks keyedMutex
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		employees:     make(map[string]employee.Employee),
		cards:         make(map[string]string),
		records:       make(map[string]attendance.DailyRecord),
		recordByDay:   make(map[string]string),
		debounceState: make(map[string]time.Time),
		locks:         keyedMutex{locks: make(map[string]*refLock)},
		now:           time.Now,
	}
}

func (s *Store) Employees() employee.EmployeeRepository {
	return &employeeRepository{s: s}
}

func (s *Store) Attendance() attendance.AttendanceRepository {
	return &attendanceRepository{s: s}
}

func (s *Store) Debounce() attendance.DebounceRepository {
	return &debounceRepository{s: s}
}

// WithinTransaction implements attendance.Transactor.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// WithinScanLock implements attendance.Transactor.
func (s *Store) WithinScanLock(ctx context.Context, key string, date time.Time, fn func(ctx context.Context) error) error {
	unlock := s.locks.lock(dayKey(key, date))
	defer unlock()
	return fn(ctx)
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func dayKey(key string, date time.Time) string {
	return key + "|" + date.Format("2006-01-02")
}

type refLock struct {
	sync.Mutex
	refs int
}

// keyedMutex hands out one mutex per key and forgets it when nobody holds it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
