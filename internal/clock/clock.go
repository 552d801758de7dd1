package clock

import (
	"fmt"
	"time"
)

// Clock supplies wall-clock time to callers that must be testable
type Clock interface {
	Now() time.Time
}

// Real reads the system clock in UTC
type Real struct{}

// Now returns the current UTC time
func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always reports the same instant
type Fixed time.Time

// Now returns the fixed instant
func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// TimeRemaining is the countdown until an auction ends, split into units
type TimeRemaining struct {
	Days    int  `json:"days"`
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Seconds int  `json:"seconds"`
	Ended   bool `json:"ended"`
}

// ComputeTimeRemaining derives the countdown from now to endTime.
// Once now reaches endTime the result is zero and Ended is set.
func ComputeTimeRemaining(now, endTime time.Time) TimeRemaining {
	if !now.Before(endTime) {
		return TimeRemaining{Ended: true}
	}

	remaining := endTime.Sub(now)
	total := int64(remaining / time.Second)

	return TimeRemaining{
		Days:    int(total / 86400),
		Hours:   int(total % 86400 / 3600),
		Minutes: int(total % 3600 / 60),
		Seconds: int(total % 60),
	}
}

// Duration converts the countdown back into a time.Duration
func (t TimeRemaining) Duration() time.Duration {
	return time.Duration(t.Days)*24*time.Hour +
		time.Duration(t.Hours)*time.Hour +
		time.Duration(t.Minutes)*time.Minute +
		time.Duration(t.Seconds)*time.Second
}

// String renders the countdown, dropping leading zero units
func (t TimeRemaining) String() string {
	switch {
	case t.Ended:
		return "Auction ended"
	case t.Days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", t.Days, t.Hours, t.Minutes, t.Seconds)
	case t.Hours > 0:
		return fmt.Sprintf("%dh %dm %ds", t.Hours, t.Minutes, t.Seconds)
	case t.Minutes > 0:
		return fmt.Sprintf("%dm %ds", t.Minutes, t.Seconds)
	default:
		return fmt.Sprintf("%ds", t.Seconds)
	}
}
