package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
)

type attendanceRepository struct {
	s *Store
}

// withName fills the joined employee name the way the SQL store does.
func (r *attendanceRepository) withName(rec attendance.DailyRecord) attendance.DailyRecord {
	rec.EmployeeName = r.s.employees[rec.EmployeeID].FullName
	return rec
}

func (r *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.DailyRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.recordByDay[dayKey(employeeID, date)]
	if !ok {
		return nil, nil
	}
	rec := r.withName(r.s.records[id])
	return &rec, nil
}

func (r *attendanceRepository) Save(ctx context.Context, record attendance.DailyRecord) (attendance.DailyRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.employees[record.EmployeeID]; !ok {
		return attendance.DailyRecord{}, fmt.Errorf("failed to save attendance: unknown employee %s", record.EmployeeID)
	}

	record.Date = attendance.CivilDate(record.Date)
	key := dayKey(record.EmployeeID, record.Date)
	now := r.s.now()

	if existingID, ok := r.s.recordByDay[key]; ok {
		existing := r.s.records[existingID]
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
	} else {
		if record.ID == "" {
			id, err := newID()
			if err != nil {
				return attendance.DailyRecord{}, fmt.Errorf("failed to generate attendance id: %w", err)
			}
			record.ID = id
		}
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	r.s.records[record.ID] = record
	r.s.recordByDay[key] = record.ID
	return r.withName(record), nil
}

func (r *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.DailyRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.records[id]
	if !ok {
		return attendance.DailyRecord{}, attendance.ErrRecordNotFound
	}
	return r.withName(rec), nil
}

func (r *attendanceRepository) List(ctx context.Context, filter attendance.RecordFilter) ([]attendance.DailyRecord, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	bound := func(value *string) (time.Time, bool) {
		if value == nil || *value == "" {
			return time.Time{}, false
		}
		t, err := time.Parse("2006-01-02", *value)
		return t, err == nil
	}
	day, hasDay := bound(filter.Date)
	start, hasStart := bound(filter.StartDate)
	end, hasEnd := bound(filter.EndDate)

	var matched []attendance.DailyRecord
	for _, rec := range r.s.records {
		switch {
		case filter.EmployeeID != nil && *filter.EmployeeID != "" && rec.EmployeeID != *filter.EmployeeID:
			continue
		case hasDay && !rec.Date.Equal(day):
			continue
		case hasStart && rec.Date.Before(start):
			continue
		case hasEnd && rec.Date.After(end):
			continue
		}
		matched = append(matched, r.withName(rec))
	}

	slices.SortFunc(matched, func(a, b attendance.DailyRecord) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return strings.Compare(a.EmployeeName, b.EmployeeName)
	})

	total := int64(len(matched))
	offset := (filter.Page - 1) * filter.Limit
	if offset < 0 || offset >= len(matched) {
		return []attendance.DailyRecord{}, total, nil
	}
	return matched[offset:min(offset+filter.Limit, len(matched))], total, nil
}

func (r *attendanceRepository) ListOpenByDate(ctx context.Context, date time.Time) ([]attendance.DailyRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	date = attendance.CivilDate(date)
	var open []attendance.DailyRecord
	for _, rec := range r.s.records {
		if rec.Date.Equal(date) && rec.State.Kind() == attendance.StateArrivalOnly {
			open = append(open, r.withName(rec))
		}
	}
	slices.SortFunc(open, func(a, b attendance.DailyRecord) int {
		return strings.Compare(a.EmployeeName, b.EmployeeName)
	})
	return open, nil
}

func (r *attendanceRepository) ListByPeriod(ctx context.Context, start, end time.Time) ([]attendance.DailyRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var records []attendance.DailyRecord
	for _, rec := range r.s.records {
		if rec.Date.Before(start) || rec.Date.After(end) {
			continue
		}
		records = append(records, r.withName(rec))
	}
	slices.SortFunc(records, func(a, b attendance.DailyRecord) int {
		if c := strings.Compare(a.EmployeeID, b.EmployeeID); c != 0 {
			return c
		}
		return a.Date.Compare(b.Date)
	})
	return records, nil
}
