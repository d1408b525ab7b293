package countdown

import (
	"time"
)

// TimeLeft is the decomposed remaining duration until an event's instant.
// All components are zero once the instant has passed.
type TimeLeft struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// IsZero reports whether the countdown has reached its target.
func (t TimeLeft) IsZero() bool {
	return t.Days == 0 && t.Hours == 0 && t.Minutes == 0 && t.Seconds == 0
}

// Seconds per unit, in milliseconds
const (
	msPerSecond = int64(1000)
	msPerMinute = 60 * msPerSecond
	msPerHour   = 60 * msPerMinute
	msPerDay    = 24 * msPerHour
)

// Compute decomposes the duration between now and target into
// days/hours/minutes/seconds, truncating the sub-second part. A target at
// or before now yields the zero value, never negative components.
func Compute(now, target time.Time) TimeLeft {
	delta := target.Sub(now).Milliseconds()
	if delta <= 0 {
		return TimeLeft{}
	}

	return TimeLeft{
		Days:    int(delta / msPerDay),
		Hours:   int((delta % msPerDay) / msPerHour),
		Minutes: int((delta % msPerHour) / msPerMinute),
		Seconds: int((delta % msPerMinute) / msPerSecond),
	}
}
