package storage

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time without a date, bound to TIME columns.
type TimeOfDay struct {
	Hour, Minute, Second, Nanosecond int
}

// TimeOfDayOf extracts the clock part of t.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}
}

// String renders HH:MM:SS with a fractional part only when non-zero.
func (t TimeOfDay) String() string {
	s := fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if t.Nanosecond != 0 {
		s += fmt.Sprintf(".%06d", t.Nanosecond/1000)
	}
	return s
}

// Duration is the offset from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t.Hour)*time.Hour +
		time.Duration(t.Minute)*time.Minute +
		time.Duration(t.Second)*time.Second +
		time.Duration(t.Nanosecond)
}

// Value implements driver.Valuer; database/sql drivers receive the text form.
func (t TimeOfDay) Value() (driver.Value, error) { return t.String(), nil }
