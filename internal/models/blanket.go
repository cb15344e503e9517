package models

import "time"

// Intensity and timer bounds enforced at the command boundary.
const (
	MinIntensity = 0
	MaxIntensity = 9

	MinDurationHours  = 0.5
	MaxDurationHours  = 12.0
	DurationStepHours = 0.5
)

// BlanketStatus is the latest snapshot of one blanket, as reported by the
// cloud API plus local bookkeeping (stale, updated_at).
type BlanketStatus struct {
	DeviceID       string    `json:"device_id"`
	Name           string    `json:"name"`
	BodySetting    int       `json:"body_setting"` // 0..9
	FeetSetting    int       `json:"feet_setting"` // 0..9
	TimerSeconds   int       `json:"timer_seconds"`
	Heartbeat      int       `json:"heartbeat"`
	Active         bool      `json:"active"`
	RequiresUpdate bool      `json:"requires_update"`
	Stale          bool      `json:"stale"` // last poll failed; snapshot may be outdated
	UpdatedAt      time.Time `json:"updated_at"`
}

// Heating reports whether the blanket is actively heating: the device
// timer is running or at least one zone is set above zero.
func (s BlanketStatus) Heating() bool {
	return s.TimerSeconds > 0 || s.BodySetting > 0 || s.FeetSetting > 0
}
