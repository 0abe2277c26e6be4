package clock

import (
	"fmt"
	"time"
)

// Clock is a wall-clock time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// Parse parses "HH:MM".
func Parse(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid clock %q: expected HH:MM", s)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On returns the instant at this clock time on the calendar day of date, in loc.
func (c Clock) On(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), c.Hour, c.Minute, 0, 0, loc)
}

// Of returns the clock reading of t in its own location.
func Of(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}

// MinutesOfDay returns minutes elapsed since midnight.
func (c Clock) MinutesOfDay() int {
	return c.Hour*60 + c.Minute
}
