package attendance

import (
	"math"
	"time"

	"github.com/cmlabs-hris/skud-attendance/internal/pkg/clock"
)

// StateKind tags the three shapes a day can be in.
type StateKind int

const (
	StateEmpty StateKind = iota
	StateArrivalOnly
	StateComplete
)

func (k StateKind) String() string {
	switch k {
	case StateArrivalOnly:
		return "arrival_only"
	case StateComplete:
		return "complete"
	default:
		return "empty"
	}
}

// DayState is Empty | ArrivalOnly(arrival) | Complete(arrival, departure).
// The zero value is Empty.
type DayState struct {
	kind      StateKind
	arrival   time.Time
	departure time.Time
}

func EmptyDay() DayState {
	return DayState{}
}

func ArrivedAt(arrival time.Time) DayState {
	return DayState{kind: StateArrivalOnly, arrival: arrival}
}

func CompletedAt(arrival, departure time.Time) DayState {
	return DayState{kind: StateComplete, arrival: arrival, departure: departure}
}

// StateFromTimes rebuilds a state from nullable columns.
func StateFromTimes(arrival, departure *time.Time) (DayState, error) {
	switch {
	case arrival == nil && departure == nil:
		return EmptyDay(), nil
	case arrival == nil:
		return DayState{}, ErrDepartureWithoutArrival
	case departure == nil:
		return ArrivedAt(*arrival), nil
	default:
		return CompletedAt(*arrival, *departure), nil
	}
}

func (s DayState) Kind() StateKind {
	return s.kind
}

func (s DayState) Arrival() (time.Time, bool) {
	return s.arrival, s.kind != StateEmpty
}

func (s DayState) Departure() (time.Time, bool) {
	return s.departure, s.kind == StateComplete
}

// Times returns the state as nullable columns.
func (s DayState) Times() (arrival, departure *time.Time) {
	if a, ok := s.Arrival(); ok {
		arrival = &a
	}
	if d, ok := s.Departure(); ok {
		departure = &d
	}
	return arrival, departure
}

// Next applies one accepted scan. A completed day is re-opened with the new
// scan as its arrival; earlier pairs are overwritten, not appended.
func (s DayState) Next(at time.Time) (DayState, EventKind) {
	if s.kind == StateArrivalOnly {
		return CompletedAt(s.arrival, at), EventDeparture
	}
	return ArrivedAt(at), EventArrival
}

// Close completes an open day at the given departure. Other states are returned unchanged.
func (s DayState) Close(departure time.Time) (DayState, bool) {
	if s.kind != StateArrivalOnly {
		return s, false
	}
	return CompletedAt(s.arrival, departure), true
}

// WorkedMinutes is the length of a completed day on wall-clock time in loc.
// A departure whose clock reading is earlier than the arrival's is taken to be
// after midnight.
func (s DayState) WorkedMinutes(loc *time.Location) (int, bool) {
	if s.kind != StateComplete {
		return 0, false
	}
	minutes := clock.Of(s.departure.In(loc)).MinutesOfDay() - clock.Of(s.arrival.In(loc)).MinutesOfDay()
	if minutes < 0 {
		minutes += 24 * 60
	}
	return minutes, true
}

// Hours converts minutes to hours rounded to one decimal place.
func Hours(minutes int) float64 {
	return math.Round(float64(minutes)/60*10) / 10
}

// DailyRecord is the ledger entry for one employee on one calendar date.
type DailyRecord struct {
	ID           string
	EmployeeID   string
	EmployeeName string
	// Date is the calendar date in the attendance time zone, stored as UTC midnight.
	Date       time.Time
	State      DayState
	AutoClosed bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CivilDate returns the calendar date of t (read in t's own location) as UTC midnight.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
