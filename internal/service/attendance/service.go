package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/domain/attendance"
	"github.com/cmlabs-hris/skud-attendance/internal/domain/employee"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/clock"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/metrics"
	"github.com/cmlabs-hris/skud-attendance/internal/pkg/validator"
)

// Options holds the ledger rules.
type Options struct {
	Location       *time.Location
	MinInterval    time.Duration
	DefaultEndTime clock.Clock
	Now            func() time.Time
}

type AttendanceServiceImpl struct {
	tx attendance.Transactor
	attendance.AttendanceRepository
	attendance.DebounceRepository
	employee.EmployeeRepository
	publisher attendance.EventPublisher
	notifier  attendance.UnknownCardNotifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
	opts      Options
}

func NewAttendanceService(
	tx attendance.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	debounceRepo attendance.DebounceRepository,
	employeeRepo employee.EmployeeRepository,
	publisher attendance.EventPublisher,
	notifier attendance.UnknownCardNotifier,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts Options,
) attendance.AttendanceService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AttendanceServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepo,
		DebounceRepository:   debounceRepo,
		EmployeeRepository:   employeeRepo,
		publisher:            publisher,
		notifier:             notifier,
		metrics:              m,
		logger:               logger,
		opts:                 opts,
	}
}

// Submit implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) Submit(ctx context.Context, req attendance.ScanRequest) (attendance.ScanResult, error) {
	result, err := a.submit(ctx, req)
	if err != nil {
		a.metrics.ScanProcessed(string(attendance.ScanResultFromError(req.Serial, err).Status))
		return attendance.ScanResult{}, err
	}
	a.metrics.ScanProcessed(string(result.Status))
	return result, nil
}

func (a *AttendanceServiceImpl) submit(ctx context.Context, req attendance.ScanRequest) (attendance.ScanResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.ScanResult{}, attendance.MalformedInput(err.Error())
	}

	// The timestamp is checked before anything is looked up.
	scannedAt, ok := validator.ParseLocalDateTime(req.Time, a.opts.Location)
	if !ok {
		return attendance.ScanResult{}, attendance.MalformedInput(fmt.Sprintf("time %q is not a valid timestamp", req.Time))
	}

	// Any serial a reader sends is looked up; the registry alone decides whether it is known.
	serial := employee.NormalizeSerial(req.Serial)
	emp, err := a.EmployeeRepository.GetByCardSerial(ctx, serial)
	if err != nil {
		if errors.Is(err, employee.ErrCardNotFound) {
			a.notifyUnknownCard(ctx, serial, scannedAt)
			return attendance.ScanResult{}, attendance.ErrUnknownDevice
		}
		return attendance.ScanResult{}, fmt.Errorf("failed to resolve card %s: %w", serial, err)
	}

	date := attendance.CivilDate(scannedAt)

	var (
		result attendance.ScanResult
		event  *attendance.Event
	)
	err = a.tx.WithinScanLock(ctx, emp.ID, date, func(txCtx context.Context) error {
		last, err := a.DebounceRepository.GetLastAccepted(txCtx, serial, date)
		if err != nil {
			return err
		}
		// Out-of-order timestamps give a negative gap and are ignored as well.
		if last != nil && scannedAt.Sub(*last) < a.opts.MinInterval {
			lastTime := last.In(a.opts.Location).Format("15:04:05")
			result = attendance.ScanResult{
				Status:   attendance.ScanStatusIgnored,
				Message:  "Repeated scan ignored, last accepted at " + lastTime,
				Employee: emp.FullName,
				LastTime: lastTime,
			}
			return nil
		}

		record, err := a.AttendanceRepository.GetByEmployeeAndDate(txCtx, emp.ID, date)
		if err != nil {
			return err
		}
		if record == nil {
			record = &attendance.DailyRecord{EmployeeID: emp.ID, Date: date}
		}

		next, kind := record.State.Next(scannedAt)
		record.State = next
		if kind == attendance.EventArrival {
			record.AutoClosed = false
		}
		if _, err := a.AttendanceRepository.Save(txCtx, *record); err != nil {
			return err
		}

		// Debounce is committed only together with the ledger write.
		if err := a.DebounceRepository.SetLastAccepted(txCtx, serial, date, scannedAt); err != nil {
			return err
		}

		result = attendance.ScanResult{
			Status:   attendance.ScanStatusSuccess,
			Message:  eventMessage(kind),
			Employee: emp.FullName,
			Event:    kind,
			Time:     scannedAt.Format("15:04"),
			Date:     date.Format("2006-01-02"),
		}
		event = &attendance.Event{
			Kind:         kind,
			EmployeeID:   emp.ID,
			EmployeeName: emp.FullName,
			CardSerial:   serial,
			Date:         result.Date,
			Time:         result.Time,
			OccurredAt:   scannedAt,
		}
		return nil
	})
	if err != nil {
		return attendance.ScanResult{}, fmt.Errorf("failed to record scan of %s: %w", serial, err)
	}

	if event != nil {
		a.publish(ctx, *event)
	}

	return result, nil
}

func eventMessage(kind attendance.EventKind) string {
	if kind == attendance.EventDeparture {
		return "Departure recorded"
	}
	return "Arrival recorded"
}

func (a *AttendanceServiceImpl) publishAll(ctx context.Context, events []attendance.Event) {
	for _, event := range events {
		a.publish(ctx, event)
	}
}

func (a *AttendanceServiceImpl) publish(ctx context.Context, event attendance.Event) {
	if a.publisher == nil {
		return
	}
	err := a.publisher.Publish(ctx, event)
	a.metrics.EventPublished(err)
	if err != nil {
		a.logger.WarnContext(ctx, "failed to publish attendance event",
			slog.String("kind", string(event.Kind)),
			slog.String("employee_id", event.EmployeeID),
			slog.Any("error", err),
		)
	}
}

func (a *AttendanceServiceImpl) notifyUnknownCard(ctx context.Context, serial string, at time.Time) {
	a.logger.InfoContext(ctx, "scan from unknown card", slog.String("serial", serial))
	if a.notifier == nil {
		return
	}
	if err := a.notifier.NotifyUnknownCard(ctx, serial, at); err != nil {
		a.logger.WarnContext(ctx, "failed to notify about unknown card",
			slog.String("serial", serial),
			slog.Any("error", err),
		)
	}
}

func (a *AttendanceServiceImpl) today() time.Time {
	return attendance.CivilDate(a.opts.Now().In(a.opts.Location))
}

// CloseUnfinishedDays implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CloseUnfinishedDays(ctx context.Context, req attendance.CloseDayRequest) (attendance.CloseDayResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.CloseDayResponse{}, err
	}

	date := a.today()
	if req.Date != "" {
		date, _ = validator.IsValidDate(req.Date)
	}
	endOfDay := a.opts.DefaultEndTime.On(date, a.opts.Location)

	open, err := a.AttendanceRepository.ListOpenByDate(ctx, date)
	if err != nil {
		return attendance.CloseDayResponse{}, fmt.Errorf("failed to list open days of %s: %w", date.Format("2006-01-02"), err)
	}

	// Each day is closed under the same lock a scan takes, and re-read there,
	// so a departure accepted after the listing is never overwritten.
	var events []attendance.Event
	for _, listed := range open {
		var (
			event  attendance.Event
			closed bool
		)
		err := a.tx.WithinScanLock(ctx, listed.EmployeeID, date, func(txCtx context.Context) error {
			record, err := a.AttendanceRepository.GetByEmployeeAndDate(txCtx, listed.EmployeeID, date)
			if err != nil || record == nil {
				return err
			}

			arrival, ok := record.State.Arrival()
			if !ok {
				return nil
			}
			// Someone who arrived after the default end time gets an empty day, not a 23h one.
			departure := endOfDay
			if arrival.After(departure) {
				departure = arrival
			}

			state, changed := record.State.Close(departure)
			if !changed {
				return nil
			}
			record.State = state
			record.AutoClosed = true
			if _, err := a.AttendanceRepository.Save(txCtx, *record); err != nil {
				return err
			}

			closed = true
			event = attendance.Event{
				Kind:         attendance.EventAutoClosed,
				EmployeeID:   record.EmployeeID,
				EmployeeName: record.EmployeeName,
				Date:         date.Format("2006-01-02"),
				Time:         departure.In(a.opts.Location).Format("15:04"),
				OccurredAt:   a.opts.Now(),
			}
			return nil
		})
		if err != nil {
			a.metrics.DaysAutoClosed(len(events))
			a.publishAll(ctx, events)
			return attendance.CloseDayResponse{}, fmt.Errorf("failed to close day of employee %s on %s: %w", listed.EmployeeID, date.Format("2006-01-02"), err)
		}
		if closed {
			events = append(events, event)
		}
	}

	a.metrics.DaysAutoClosed(len(events))
	a.publishAll(ctx, events)

	return attendance.CloseDayResponse{
		Date:   date.Format("2006-01-02"),
		Closed: len(events),
	}, nil
}

// ListRecords implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListRecords(ctx context.Context, filter attendance.RecordFilter) (attendance.ListRecordsResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListRecordsResponse{}, err
	}

	records, total, err := a.AttendanceRepository.List(ctx, filter)
	if err != nil {
		return attendance.ListRecordsResponse{}, fmt.Errorf("failed to list attendances: %w", err)
	}

	responses := make([]attendance.RecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, a.mapRecordToResponse(record))
	}

	return attendance.ListRecordsResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Records:    responses,
	}, nil
}

// GetRecord implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetRecord(ctx context.Context, id string) (attendance.RecordResponse, error) {
	if !validator.IsValidUUID(id) {
		return attendance.RecordResponse{}, attendance.ErrRecordNotFound
	}

	record, err := a.AttendanceRepository.GetByID(ctx, id)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	return a.mapRecordToResponse(record), nil
}

// CorrectRecord implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CorrectRecord(ctx context.Context, req attendance.CorrectRecordRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	target, err := a.AttendanceRepository.GetByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, attendance.ErrRecordNotFound) {
			return attendance.RecordResponse{}, err
		}
		return attendance.RecordResponse{}, fmt.Errorf("failed to correct attendance %s: %w", req.ID, err)
	}

	var saved attendance.DailyRecord
	err = a.tx.WithinScanLock(ctx, target.EmployeeID, target.Date, func(txCtx context.Context) error {
		record, err := a.AttendanceRepository.GetByID(txCtx, req.ID)
		if err != nil {
			return err
		}

		state := attendance.EmptyDay()
		if req.Arrival != nil {
			arrivalClock, _ := clock.Parse(*req.Arrival)
			arrival := arrivalClock.On(record.Date, a.opts.Location)
			state = attendance.ArrivedAt(arrival)

			if req.Departure != nil {
				departureClock, _ := clock.Parse(*req.Departure)
				departure := departureClock.On(record.Date, a.opts.Location)
				if departure.Before(arrival) {
					departure = departure.AddDate(0, 0, 1)
				}
				state = attendance.CompletedAt(arrival, departure)
			}
		}

		record.State = state
		record.AutoClosed = false
		saved, err = a.AttendanceRepository.Save(txCtx, record)
		return err
	})
	if err != nil {
		if errors.Is(err, attendance.ErrRecordNotFound) {
			return attendance.RecordResponse{}, err
		}
		return attendance.RecordResponse{}, fmt.Errorf("failed to correct attendance %s: %w", req.ID, err)
	}

	a.logger.InfoContext(ctx, "attendance corrected",
		slog.String("id", saved.ID),
		slog.String("state", saved.State.Kind().String()),
	)

	return a.mapRecordToResponse(saved), nil
}

// PurgeDebounce implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) PurgeDebounce(ctx context.Context) (int64, error) {
	purged, err := a.DebounceRepository.PurgeBefore(ctx, a.today())
	if err != nil {
		return 0, fmt.Errorf("failed to purge debounce state: %w", err)
	}
	return purged, nil
}

// mapRecordToResponse converts a DailyRecord to RecordResponse in the attendance time zone
func (a *AttendanceServiceImpl) mapRecordToResponse(record attendance.DailyRecord) attendance.RecordResponse {
	resp := attendance.RecordResponse{
		ID:           record.ID,
		EmployeeID:   record.EmployeeID,
		EmployeeName: record.EmployeeName,
		Date:         record.Date.Format("2006-01-02"),
		DayOfWeek:    record.Date.Weekday().String(),
		State:        record.State.Kind().String(),
		AutoClosed:   record.AutoClosed,
		CreatedAt:    record.CreatedAt.In(a.opts.Location).Format(time.RFC3339),
		UpdatedAt:    record.UpdatedAt.In(a.opts.Location).Format(time.RFC3339),
	}

	if arrival, ok := record.State.Arrival(); ok {
		s := arrival.In(a.opts.Location).Format("15:04")
		resp.ArrivalTime = &s
	}
	if departure, ok := record.State.Departure(); ok {
		s := departure.In(a.opts.Location).Format("15:04")
		resp.DepartureTime = &s
	}
	if minutes, ok := record.State.WorkedMinutes(a.opts.Location); ok {
		hours := attendance.Hours(minutes)
		resp.WorkedHours = &hours
	}

	return resp
}
