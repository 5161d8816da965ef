// Package dbtime provides the UTC wall-clock timestamp type used for every
// created/modified/accessed field in the database.
package dbtime

import "time"

// TimeStamp is a UTC wall-clock snapshot. It always carries time.UTC
// location so comparisons and formatting are deterministic regardless of
// the host's local zone.
type TimeStamp struct {
	t time.Time
}

// Now returns the current instant as a TimeStamp.
func Now() TimeStamp {
	return TimeStamp{t: time.Now().UTC()}
}

// FromTime converts an arbitrary time.Time into a TimeStamp, normalising it
// to UTC.
func FromTime(t time.Time) TimeStamp {
	return TimeStamp{t: t.UTC()}
}

// Zero is the default, unset TimeStamp.
var Zero = TimeStamp{}

// IsZero reports whether ts has never been set.
func (ts TimeStamp) IsZero() bool {
	return ts.t.IsZero()
}

// Time returns the underlying time.Time, always in UTC.
func (ts TimeStamp) Time() time.Time {
	return ts.t
}

// Before reports whether ts occurs before other.
func (ts TimeStamp) Before(other TimeStamp) bool {
	return ts.t.Before(other.t)
}

// After reports whether ts occurs after other.
func (ts TimeStamp) After(other TimeStamp) bool {
	return ts.t.After(other.t)
}

// Equal reports whether ts and other name the same instant.
func (ts TimeStamp) Equal(other TimeStamp) bool {
	return ts.t.Equal(other.t)
}

// String renders ts in RFC3339 with nanosecond precision.
func (ts TimeStamp) String() string {
	if ts.IsZero() {
		return "unset"
	}

	return ts.t.Format(time.RFC3339Nano)
}

// MarshalText implements encoding.TextMarshaler. The zero TimeStamp
// marshals to empty text.
func (ts TimeStamp) MarshalText() ([]byte, error) {
	if ts.IsZero() {
		return []byte{}, nil
	}

	return ts.t.MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (ts *TimeStamp) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*ts = Zero

		return nil
	}

	var t time.Time
	if err := t.UnmarshalText(data); err != nil {
		return err
	}

	ts.t = t.UTC()

	return nil
}
