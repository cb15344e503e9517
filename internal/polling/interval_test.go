package polling

import (
	"testing"
	"time"
)

// defaultConfig mirrors the shipped configuration: 20:00-08:00 peak
// window, 10/5 minute base intervals, active polling on.
func defaultConfig(t *testing.T) Config {
	t.Helper()
	start, err := ParseClock(DefaultPeakStart)
	if err != nil {
		t.Fatalf("parse peak start: %v", err)
	}
	end, err := ParseClock(DefaultPeakEnd)
	if err != nil {
		t.Fatalf("parse peak end: %v", err)
	}
	return Config{
		PeakStart:       start,
		PeakEnd:         end,
		OffPeakInterval: DefaultOffPeakInterval,
		PeakInterval:    DefaultPeakInterval,
		ActivePolling:   true,
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 8, 25, hour, minute, 0, 0, time.UTC)
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "20:00", want: 20 * 60},
		{in: "08:30", want: 8*60 + 30},
		{in: "23:59", want: 23*60 + 59},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "-1:00", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClock(%q): want %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestClockTime_String(t *testing.T) {
	t.Parallel()

	if got := ClockTime(20 * 60).String(); got != "20:00" {
		t.Errorf("want 20:00, got %s", got)
	}
	if got := ClockTime(8*60 + 5).String(); got != "08:05" {
		t.Errorf("want 08:05, got %s", got)
	}
}

func TestInPeak_WrapsMidnight(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig(t) // 20:00-08:00

	cases := []struct {
		clock string
		want  bool
	}{
		{clock: "23:00", want: true},
		{clock: "20:00", want: true}, // start inclusive
		{clock: "00:00", want: true},
		{clock: "07:59", want: true},
		{clock: "08:00", want: false}, // end exclusive
		{clock: "12:00", want: false},
		{clock: "19:59", want: false},
	}
	for _, tc := range cases {
		c, err := ParseClock(tc.clock)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.clock, err)
		}
		if got := cfg.InPeak(c); got != tc.want {
			t.Errorf("InPeak(%s): want %v, got %v", tc.clock, tc.want, got)
		}
	}
}

func TestInPeak_SameDayWindow(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig(t)
	cfg.PeakStart, _ = ParseClock("09:00")
	cfg.PeakEnd, _ = ParseClock("17:00")

	cases := []struct {
		clock string
		want  bool
	}{
		{clock: "09:00", want: true},
		{clock: "12:00", want: true},
		{clock: "16:59", want: true},
		{clock: "17:00", want: false},
		{clock: "08:59", want: false},
		{clock: "23:00", want: false},
	}
	for _, tc := range cases {
		c, _ := ParseClock(tc.clock)
		if got := cfg.InPeak(c); got != tc.want {
			t.Errorf("InPeak(%s): want %v, got %v", tc.clock, tc.want, got)
		}
	}
}

func TestNextInterval_IdleFollowsTimeOfDay(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig(t)
	idle := Activity{}

	if got := NextInterval(at(12, 0), cfg, idle); got != cfg.OffPeakInterval {
		t.Errorf("idle off-peak: want %v, got %v", cfg.OffPeakInterval, got)
	}
	if got := NextInterval(at(23, 0), cfg, idle); got != cfg.PeakInterval {
		t.Errorf("idle peak: want %v, got %v", cfg.PeakInterval, got)
	}
	if got := NextInterval(at(7, 30), cfg, idle); got != cfg.PeakInterval {
		t.Errorf("idle peak (wrapped morning): want %v, got %v", cfg.PeakInterval, got)
	}
}

func TestNextInterval_ActiveProgressiveTiers(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig(t)

	cases := []struct {
		name    string
		elapsed time.Duration
		want    time.Duration
	}{
		{name: "immediately after command", elapsed: 0, want: 15 * time.Second},
		{name: "59s after command", elapsed: 59 * time.Second, want: 15 * time.Second},
		{name: "60s after command", elapsed: 60 * time.Second, want: 30 * time.Second},
		{name: "299s after command", elapsed: 299 * time.Second, want: 30 * time.Second},
		{name: "300s after command", elapsed: 300 * time.Second, want: 60 * time.Second},
		{name: "an hour after command", elapsed: time.Hour, want: 60 * time.Second},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			act := Activity{Heating: true, CommandSeen: true, SinceCommand: tc.elapsed}
			if got := NextInterval(at(12, 0), cfg, act); got != tc.want {
				t.Errorf("want %v, got %v", tc.want, got)
			}
		})
	}
}

func TestNextInterval_ActiveWithoutCommandUsesSteadyInterval(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig(t)
	act := Activity{Heating: true, CommandSeen: false}

	if got := NextInterval(at(12, 0), cfg, act); got != 60*time.Second {
		t.Errorf("want 60s, got %v", got)
	}
}

func TestNextInterval_ActivePollingDisabledFallsBackToBase(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig(t)
	cfg.ActivePolling = false
	act := Activity{Heating: true, CommandSeen: true, SinceCommand: 5 * time.Second}

	if got := NextInterval(at(12, 0), cfg, act); got != cfg.OffPeakInterval {
		t.Errorf("off-peak fallback: want %v, got %v", cfg.OffPeakInterval, got)
	}
	if got := NextInterval(at(22, 0), cfg, act); got != cfg.PeakInterval {
		t.Errorf("peak fallback: want %v, got %v", cfg.PeakInterval, got)
	}
}
