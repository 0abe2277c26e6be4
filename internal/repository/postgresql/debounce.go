package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type debounceRepository struct {
	db *database.DB
}

func NewDebounceRepository(db *database.DB) attendance.DebounceRepository {
	return &debounceRepository{db: db}
}

// GetLastAccepted implements attendance.DebounceRepository.
func (d *debounceRepository) GetLastAccepted(ctx context.Context, serial string, date time.Time) (*time.Time, error) {
	q := GetQuerier(ctx, d.db)

	var last time.Time
	err := q.QueryRow(ctx,
		`SELECT last_accepted FROM scan_debounce WHERE card_serial = $1 AND work_date = $2`,
		serial, date,
	).Scan(&last)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get debounce state for %s: %w", serial, err)
	}

	return &last, nil
}

// SetLastAccepted implements attendance.DebounceRepository.
func (d *debounceRepository) SetLastAccepted(ctx context.Context, serial string, date time.Time, at time.Time) error {
	q := GetQuerier(ctx, d.db)

	query := `
		INSERT INTO scan_debounce (card_serial, work_date, last_accepted)
		VALUES ($1, $2, $3)
		ON CONFLICT (card_serial, work_date) DO UPDATE SET last_accepted = EXCLUDED.last_accepted
	`
	if _, err := q.Exec(ctx, query, serial, date, at); err != nil {
		return fmt.Errorf("failed to set debounce state for %s: %w", serial, err)
	}

	return nil
}

// PurgeBefore implements attendance.DebounceRepository.
func (d *debounceRepository) PurgeBefore(ctx context.Context, date time.Time) (int64, error) {
	q := GetQuerier(ctx, d.db)

	tag, err := q.Exec(ctx, `DELETE FROM scan_debounce WHERE work_date < $1`, date)
	if err != nil {
		return 0, fmt.Errorf("failed to purge debounce state: %w", err)
	}

	return tag.RowsAffected(), nil
}
