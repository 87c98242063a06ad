package timeutil

import (
	"sync"
	"time"
)

// TimeUTC is a small helper type representing Unix time (in seconds) in UTC.
// Using a dedicated type prevents confusion between local and UTC timestamps.
type TimeUTC struct{ T int64 }

func NowUTC() TimeUTC {
	return TimeUTC{T: time.Now().UTC().Unix()}
}

func (t TimeUTC) After(other TimeUTC) bool { return t.T > other.T }
func (t TimeUTC) AddSeconds(sec int64) TimeUTC {
	return TimeUTC{T: t.T + sec}
}

func (t TimeUTC) Time() time.Time { return time.Unix(t.T, 0).UTC() }

// Clock returns the current instant. Components take a Clock so tests can
// pin record timestamps.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }

// Monotonic wraps a clock so it never goes backwards, even when the wall
// clock is stepped.
func Monotonic(c Clock) Clock {
	var (
		mu   sync.Mutex
		last time.Time
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := c()
		if now.Before(last) {
			now = last
		}
		last = now
		return now
	}
}
