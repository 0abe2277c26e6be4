package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const recordSelect = `
	SELECT a.id, a.employee_id, e.full_name, a.work_date, a.arrival, a.departure,
		   a.auto_closed, a.created_at, a.updated_at
	FROM daily_attendances a
	JOIN employees e ON e.id = a.employee_id
`

func scanRecord(row pgx.Row) (attendance.DailyRecord, error) {
	var (
		rec                attendance.DailyRecord
		arrival, departure *time.Time
	)
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.EmployeeName, &rec.Date, &arrival, &departure,
		&rec.AutoClosed, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return attendance.DailyRecord{}, err
	}

	rec.Date = attendance.CivilDate(rec.Date)
	rec.State, err = attendance.StateFromTimes(arrival, departure)
	if err != nil {
		return attendance.DailyRecord{}, fmt.Errorf("record %s: %w", rec.ID, err)
	}

	return rec, nil
}

func collectRecords(rows pgx.Rows) ([]attendance.DailyRecord, error) {
	defer rows.Close()

	var records []attendance.DailyRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance records: %w", err)
	}

	return records, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.DailyRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := recordSelect + `WHERE a.employee_id = $1 AND a.work_date = $2`

	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance of %s on %s: %w", employeeID, date.Format("2006-01-02"), err)
	}

	return &rec, nil
}

// Save implements attendance.AttendanceRepository.
func (a *attendanceRepository) Save(ctx context.Context, record attendance.DailyRecord) (attendance.DailyRecord, error) {
	q := GetQuerier(ctx, a.db)

	if record.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.DailyRecord{}, fmt.Errorf("failed to generate attendance id: %w", err)
		}
		record.ID = id.String()
	}

	arrival, departure := record.State.Times()

	query := `
		INSERT INTO daily_attendances (id, employee_id, work_date, arrival, departure, auto_closed)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (employee_id, work_date) DO UPDATE
		SET arrival = EXCLUDED.arrival,
			departure = EXCLUDED.departure,
			auto_closed = EXCLUDED.auto_closed,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		record.ID,
		record.EmployeeID,
		record.Date,
		arrival,
		departure,
		record.AutoClosed,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return attendance.DailyRecord{}, fmt.Errorf("failed to save attendance: %w", err)
	}

	return record, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.DailyRecord, error) {
	q := GetQuerier(ctx, a.db)

	rec, err := scanRecord(q.QueryRow(ctx, recordSelect+`WHERE a.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.DailyRecord{}, attendance.ErrRecordNotFound
		}
		return attendance.DailyRecord{}, fmt.Errorf("failed to get attendance by id: %w", err)
	}

	return rec, nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.RecordFilter) ([]attendance.DailyRecord, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	baseWhere := "TRUE"
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND a.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}

	if filter.Date != nil && *filter.Date != "" {
		baseWhere += fmt.Sprintf(" AND a.work_date = $%d", argIdx)
		args = append(args, *filter.Date)
		argIdx++
	}

	// Date range filters
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND a.work_date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND a.work_date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM daily_attendances a WHERE ` + baseWhere
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	selectQuery := recordSelect + fmt.Sprintf(`
		WHERE %s
		ORDER BY a.work_date DESC, e.full_name ASC
		LIMIT $%d OFFSET $%d
	`, baseWhere, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendances: %w", err)
	}

	records, err := collectRecords(rows)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// ListOpenByDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListOpenByDate(ctx context.Context, date time.Time) ([]attendance.DailyRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := recordSelect + `
		WHERE a.work_date = $1 AND a.arrival IS NOT NULL AND a.departure IS NULL
		ORDER BY e.full_name ASC
	`

	rows, err := q.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list open attendances: %w", err)
	}

	return collectRecords(rows)
}

// ListByPeriod implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByPeriod(ctx context.Context, start, end time.Time) ([]attendance.DailyRecord, error) {
	q := GetQuerier(ctx, a.db)

	query := recordSelect + `
		WHERE a.work_date BETWEEN $1 AND $2
		ORDER BY a.employee_id, a.work_date
	`

	rows, err := q.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances by period: %w", err)
	}

	return collectRecords(rows)
}
