package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/employee"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Employees()

	smith, err := repo.Create(ctx, employee.Employee{FullName: "Smith"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, employee.Employee{FullName: "Smith"})
	assert.ErrorIs(t, err, employee.ErrNameExists)

	require.NoError(t, repo.AddCard(ctx, smith.ID, "ABC"))
	assert.ErrorIs(t, repo.AddCard(ctx, smith.ID, "ABC"), employee.ErrCardAlreadyAssigned)
	assert.ErrorIs(t, repo.AddCard(ctx, "missing", "XYZ"), employee.ErrEmployeeNotFound)

	got, err := repo.GetByCardSerial(ctx, "ABC")
	require.NoError(t, err)
	assert.Equal(t, smith.ID, got.ID)
	assert.Equal(t, []string{"ABC"}, got.Cards)

	require.NoError(t, repo.RemoveCard(ctx, "ABC"))
	_, err = repo.GetByCardSerial(ctx, "ABC")
	assert.ErrorIs(t, err, employee.ErrCardNotFound)
}

func TestAttendanceRepository_SaveUpserts(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	emp, err := store.Employees().Create(ctx, employee.Employee{FullName: "Smith"})
	require.NoError(t, err)

	repo := store.Attendance()
	date := time.Date(2025, 6, 25, 0, 0, 0, 0, time.UTC)
	at := time.Date(2025, 6, 25, 8, 0, 0, 0, time.UTC)

	first, err := repo.Save(ctx, attendance.DailyRecord{EmployeeID: emp.ID, Date: date, State: attendance.ArrivedAt(at)})
	require.NoError(t, err)
	assert.Equal(t, "Smith", first.EmployeeName)

	second, err := repo.Save(ctx, attendance.DailyRecord{EmployeeID: emp.ID, Date: date, State: attendance.CompletedAt(at, at.Add(9*time.Hour))})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	rec, err := repo.GetByEmployeeAndDate(ctx, emp.ID, date)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, attendance.StateComplete, rec.State.Kind())

	open, err := repo.ListOpenByDate(ctx, date)
	require.NoError(t, err)
	assert.Empty(t, open)

	_, err = repo.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestAttendanceRepository_ListPaginates(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	emp, err := store.Employees().Create(ctx, employee.Employee{FullName: "Smith"})
	require.NoError(t, err)

	repo := store.Attendance()
	for day := 1; day <= 5; day++ {
		date := time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC)
		_, err := repo.Save(ctx, attendance.DailyRecord{EmployeeID: emp.ID, Date: date, State: attendance.ArrivedAt(date.Add(8 * time.Hour))})
		require.NoError(t, err)
	}

	start, end := "2025-06-02", "2025-06-05"
	page, total, err := repo.List(ctx, attendance.RecordFilter{StartDate: &start, EndDate: &end, Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
	require.Len(t, page, 1)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), page[0].Date)

	page, _, err = repo.List(ctx, attendance.RecordFilter{Page: 9, Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestDebounceRepository_PurgeBefore(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Debounce()
	june24 := time.Date(2025, 6, 24, 0, 0, 0, 0, time.UTC)
	june25 := time.Date(2025, 6, 25, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SetLastAccepted(ctx, "ABC", june24, june24.Add(8*time.Hour)))
	require.NoError(t, repo.SetLastAccepted(ctx, "ABC", june25, june25.Add(8*time.Hour)))

	purged, err := repo.PurgeBefore(ctx, june25)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	last, err := repo.GetLastAccepted(ctx, "ABC", june24)
	require.NoError(t, err)
	assert.Nil(t, last)

	last, err = repo.GetLastAccepted(ctx, "ABC", june25)
	require.NoError(t, err)
	require.NotNil(t, last)
}

func TestStore_WithinScanLockSerializesSameKey(t *testing.T) {
	store := NewStore()
	date := time.Date(2025, 6, 25, 0, 0, 0, 0, time.UTC)

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.WithinScanLock(context.Background(), "ABC", date, func(ctx context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, maxInside)
	assert.Empty(t, store.locks.locks)
}
