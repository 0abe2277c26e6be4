package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/config"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
)

const (
	JobCloseUnfinishedDays = "close_unfinished_days"
	JobPurgeDebounce       = "purge_debounce_state"
)

type AttendanceJobs struct {
	attendanceService attendance.AttendanceService
	cfg               config.AttendanceConfig
	logger            *slog.Logger
}

func NewAttendanceJobs(attendanceService attendance.AttendanceService, cfg config.AttendanceConfig, logger *slog.Logger) *AttendanceJobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceJobs{
		attendanceService: attendanceService,
		cfg:               cfg,
		logger:            logger,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	if j.cfg.AutoCloseEnabled {
		scheduler.AddJob(Job{
			Name:     JobCloseUnfinishedDays,
			Schedule: DailyAt{At: j.cfg.AutoCloseAt, Location: j.cfg.Location},
			Fn:       j.CloseUnfinishedDays,
		})
	}
	scheduler.AddJob(Job{
		Name:       JobPurgeDebounce,
		Schedule:   Every(time.Hour),
		RunOnStart: true,
		Fn:         j.PurgeDebounce,
	})
}

// CloseUnfinishedDays closes today's open days at the default end time.
func (j *AttendanceJobs) CloseUnfinishedDays(ctx context.Context) error {
	resp, err := j.attendanceService.CloseUnfinishedDays(ctx, attendance.CloseDayRequest{})
	if err != nil {
		return err
	}
	j.logger.Info("Cron: Closed unfinished days", "date", resp.Date, "count", resp.Closed)
	return nil
}

func (j *AttendanceJobs) PurgeDebounce(ctx context.Context) error {
	purged, err := j.attendanceService.PurgeDebounce(ctx)
	if err != nil {
		return err
	}
	if purged > 0 {
		j.logger.Info("Cron: Purged debounce state", "count", purged)
	}
	return nil
}
