package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/skud-attendance/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var msk = time.FixedZone("MSK", 3*60*60)

func TestEmployeeRepository_Cards(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewEmployeeRepository(setup.DB)

	emp, err := repo.Create(ctx, employee.Employee{FullName: "Smith"})
	require.NoError(t, err)
	require.NotEmpty(t, emp.ID)

	_, err = repo.Create(ctx, employee.Employee{FullName: "Smith"})
	assert.ErrorIs(t, err, employee.ErrNameExists)

	require.NoError(t, repo.AddCard(ctx, emp.ID, "ABC"))
	require.NoError(t, repo.AddCard(ctx, emp.ID, "0001"))
	assert.ErrorIs(t, repo.AddCard(ctx, emp.ID, "ABC"), employee.ErrCardAlreadyAssigned)

	found, err := repo.GetByCardSerial(ctx, "ABC")
	require.NoError(t, err)
	assert.Equal(t, emp.ID, found.ID)
	assert.Equal(t, "Smith", found.FullName)
	assert.Equal(t, []string{"0001", "ABC"}, found.Cards)

	_, err = repo.GetByCardSerial(ctx, "NOPE")
	assert.ErrorIs(t, err, employee.ErrCardNotFound)

	require.NoError(t, repo.RemoveCard(ctx, "ABC"))
	assert.ErrorIs(t, repo.RemoveCard(ctx, "ABC"), employee.ErrCardNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"0001"}, list[0].Cards)
}

func TestAttendanceRepository_SaveAndQuery(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	employees := postgresql.NewEmployeeRepository(setup.DB)
	records := postgresql.NewAttendanceRepository(setup.DB)

	emp, err := employees.Create(ctx, employee.Employee{FullName: "Smith"})
	require.NoError(t, err)

	date := time.Date(2025, 6, 25, 0, 0, 0, 0, time.UTC)
	arrival := time.Date(2025, 6, 25, 8, 0, 0, 0, msk)

	none, err := records.GetByEmployeeAndDate(ctx, emp.ID, date)
	require.NoError(t, err)
	assert.Nil(t, none)

	saved, err := records.Save(ctx, attendance.DailyRecord{
		EmployeeID: emp.ID,
		Date:       date,
		State:      attendance.ArrivedAt(arrival),
	})
	require.NoError(t, err)

	open, err := records.ListOpenByDate(ctx, date)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, saved.ID, open[0].ID)
	assert.Equal(t, "Smith", open[0].EmployeeName)

	// Upsert keeps the row identity.
	departure := time.Date(2025, 6, 25, 17, 0, 0, 0, msk)
	saved.State = attendance.CompletedAt(arrival, departure)
	updated, err := records.Save(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)

	got, err := records.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, attendance.StateComplete, got.State.Kind())
	assert.Equal(t, date, got.Date)
	d, _ := got.State.Departure()
	assert.True(t, d.Equal(departure))

	open, err = records.ListOpenByDate(ctx, date)
	require.NoError(t, err)
	assert.Empty(t, open)

	period, err := records.ListByPeriod(ctx, date.AddDate(0, 0, -1), date)
	require.NoError(t, err)
	assert.Len(t, period, 1)

	page, total, err := records.List(ctx, attendance.RecordFilter{Page: 1, Limit: 10, EmployeeID: &emp.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, page, 1)

	_, err = records.GetByID(ctx, "0190a5e2-7b8c-7b4a-8a2b-6b8b8b8b8b8b")
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestDebounceRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewDebounceRepository(setup.DB)

	day1 := time.Date(2025, 6, 24, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 25, 0, 0, 0, 0, time.UTC)
	at := time.Date(2025, 6, 25, 8, 0, 0, 0, msk)

	last, err := repo.GetLastAccepted(ctx, "ABC", day2)
	require.NoError(t, err)
	assert.Nil(t, last)

	require.NoError(t, repo.SetLastAccepted(ctx, "ABC", day1, at.AddDate(0, 0, -1)))
	require.NoError(t, repo.SetLastAccepted(ctx, "ABC", day2, at))
	require.NoError(t, repo.SetLastAccepted(ctx, "ABC", day2, at.Add(time.Hour)))

	last, err = repo.GetLastAccepted(ctx, "ABC", day2)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Equal(at.Add(time.Hour)))

	purged, err := repo.PurgeBefore(ctx, day2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	tr := postgresql.NewTransactor(setup.DB)
	debounce := postgresql.NewDebounceRepository(setup.DB)
	date := time.Date(2025, 6, 25, 0, 0, 0, 0, time.UTC)
	boom := errors.New("boom")

	err := tr.WithinScanLock(ctx, "ABC", date, func(txCtx context.Context) error {
		require.NoError(t, debounce.SetLastAccepted(txCtx, "ABC", date, time.Now()))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	last, err := debounce.GetLastAccepted(ctx, "ABC", date)
	require.NoError(t, err)
	assert.Nil(t, last)
}
