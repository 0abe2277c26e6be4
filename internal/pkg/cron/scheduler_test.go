package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/config"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var msk = time.FixedZone("MSK", 3*60*60)

func TestDailyAt_Next(t *testing.T) {
	schedule := DailyAt{At: clock.Clock{Hour: 23, Minute: 59}, Location: msk}

	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"earlier the same day", time.Date(2025, 6, 25, 9, 0, 0, 0, msk), time.Date(2025, 6, 25, 23, 59, 0, 0, msk)},
		{"exactly at run time", time.Date(2025, 6, 25, 23, 59, 0, 0, msk), time.Date(2025, 6, 26, 23, 59, 0, 0, msk)},
		{"after run time", time.Date(2025, 6, 25, 23, 59, 30, 0, msk), time.Date(2025, 6, 26, 23, 59, 0, 0, msk)},
		{"month boundary", time.Date(2025, 6, 30, 23, 59, 1, 0, msk), time.Date(2025, 7, 1, 23, 59, 0, 0, msk)},
		{"now in another zone", time.Date(2025, 6, 25, 21, 0, 0, 0, time.UTC), time.Date(2025, 6, 26, 23, 59, 0, 0, msk)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.True(t, schedule.Next(c.now).Equal(c.want), "got %v", schedule.Next(c.now))
		})
	}
}

func TestEvery_Next(t *testing.T) {
	now := time.Date(2025, 6, 25, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(time.Hour), Every(time.Hour).Next(now))
}

func TestScheduler_RunOnStartAndStop(t *testing.T) {
	s := NewScheduler(nil)
	ran := make(chan struct{}, 1)
	s.AddJob(Job{
		Name:       "probe",
		Schedule:   Every(time.Hour),
		RunOnStart: true,
		Fn: func(ctx context.Context) error {
			ran <- struct{}{}
			return nil
		},
	})

	s.Start()
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}
	s.Stop()
}

type stubAttendanceService struct {
	attendance.AttendanceService
	closeCalls int
	purgeCalls int
	closeErr   error
}

func (s *stubAttendanceService) CloseUnfinishedDays(ctx context.Context, req attendance.CloseDayRequest) (attendance.CloseDayResponse, error) {
	s.closeCalls++
	if s.closeErr != nil {
		return attendance.CloseDayResponse{}, s.closeErr
	}
	return attendance.CloseDayResponse{Date: "2025-06-25", Closed: 2}, nil
}

func (s *stubAttendanceService) PurgeDebounce(ctx context.Context) (int64, error) {
	s.purgeCalls++
	return 3, nil
}

func TestAttendanceJobs_RegisterJobs(t *testing.T) {
	svc := &stubAttendanceService{}
	cfg := config.AttendanceConfig{Location: msk, AutoCloseEnabled: true, AutoCloseAt: clock.Clock{Hour: 23, Minute: 59}}

	s := NewScheduler(nil)
	NewAttendanceJobs(svc, cfg, nil).RegisterJobs(s)
	assert.Equal(t, []string{JobCloseUnfinishedDays, JobPurgeDebounce}, s.Jobs())

	s.RunOnce(context.Background())
	assert.Equal(t, 1, svc.closeCalls)
	assert.Equal(t, 1, svc.purgeCalls)
}

func TestAttendanceJobs_AutoCloseDisabled(t *testing.T) {
	s := NewScheduler(nil)
	NewAttendanceJobs(&stubAttendanceService{}, config.AttendanceConfig{Location: msk}, nil).RegisterJobs(s)
	assert.Equal(t, []string{JobPurgeDebounce}, s.Jobs())
}

func TestAttendanceJobs_CloseUnfinishedDaysError(t *testing.T) {
	boom := errors.New("boom")
	jobs := NewAttendanceJobs(&stubAttendanceService{closeErr: boom}, config.AttendanceConfig{}, nil)

	err := jobs.CloseUnfinishedDays(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
