// Package polling decides how long to wait between cloud status polls.
//
// The selector is a pure function of wall-clock time, configuration and
// observed blanket activity, so it can be tested in isolation from the
// poller loop that applies it. Three tiers, first match wins:
//
//  1. idle blanket: base interval by time of day (peak vs. off-peak);
//  2. heating blanket with active polling enabled: progressive interval
//     keyed to time since the last command (15s / 30s / 60s);
//  3. heating blanket with active polling disabled: same as tier 1.
package polling

import (
	"fmt"
	"time"
)

// Defaults match the vendor app's behavior and keep the service well
// under the cloud API's rate limits.
const (
	DefaultPeakStart       = "20:00"
	DefaultPeakEnd         = "08:00"
	DefaultOffPeakInterval = 10 * time.Minute
	DefaultPeakInterval    = 5 * time.Minute
)

// Progressive tiers while the blanket is heating. A fresh command gets
// the tightest interval so the snapshot converges with what the user
// just did; once the device has settled, 60s is enough.
const (
	freshInterval  = 15 * time.Second
	recentInterval = 30 * time.Second
	steadyInterval = 60 * time.Second

	freshWindow  = time.Minute
	recentWindow = 5 * time.Minute
)

// ClockTime is a time of day expressed as minutes since midnight.
type ClockTime int

// ParseClock parses "HH:MM".
func ParseClock(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return ClockTime(h*60 + m), nil
}

// ClockOf extracts the time of day from t.
func ClockOf(t time.Time) ClockTime {
	return ClockTime(t.Hour()*60 + t.Minute())
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Config holds the polling tuning knobs.
type Config struct {
	PeakStart       ClockTime
	PeakEnd         ClockTime
	OffPeakInterval time.Duration
	PeakInterval    time.Duration
	ActivePolling   bool
}

// Activity is what the poller observed about the blanket.
type Activity struct {
	Heating      bool
	CommandSeen  bool          // a command was issued this process lifetime
	SinceCommand time.Duration // elapsed since the last command; valid when CommandSeen
}

// InPeak reports whether t falls within [PeakStart, PeakEnd). The window
// is circular: PeakStart > PeakEnd means it wraps midnight, e.g. the
// default 20:00-08:00 covers 23:00 but not 12:00.
func (cfg Config) InPeak(t ClockTime) bool {
	start, end := cfg.PeakStart, cfg.PeakEnd
	if start > end {
		return t >= start || t < end
	}
	return t >= start && t < end
}

// baseInterval is the idle-blanket interval for the given time of day.
func (cfg Config) baseInterval(now time.Time) time.Duration {
	if cfg.InPeak(ClockOf(now)) {
		return cfg.PeakInterval
	}
	return cfg.OffPeakInterval
}

// NextInterval returns how long to wait before the next poll.
func NextInterval(now time.Time, cfg Config, act Activity) time.Duration {
	if !act.Heating || !cfg.ActivePolling {
		return cfg.baseInterval(now)
	}
	if !act.CommandSeen {
		// Heating was observed without a command from us (physical
		// remote, schedule on the device); steady interval is enough.
		return steadyInterval
	}
	switch {
	case act.SinceCommand < freshWindow:
		return freshInterval
	case act.SinceCommand < recentWindow:
		return recentInterval
	default:
		return steadyInterval
	}
}
