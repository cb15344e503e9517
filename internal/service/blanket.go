package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"cosynight_bridge/internal/cosynight"
	"cosynight_bridge/internal/models"
	"cosynight_bridge/internal/repository"
)

// Command validation errors. Handlers map these to 400s.
var (
	ErrInvalidIntensity = errors.New("invalid intensity: zone settings must be between 0 and 9")
	ErrInvalidDuration  = fmt.Errorf("invalid duration: must be %.1f-%.1f hours in %.1f steps",
		models.MinDurationHours, models.MaxDurationHours, models.DurationStepHours)
	ErrNoSnapshot = errors.New("no status snapshot for device yet; wait for the first poll")
)

const defaultDurationHours = 1.0

// CommandNotifier is how command services tell the poller a command went
// out. Satisfied by *PollerService.
type CommandNotifier interface {
	CommandSent(deviceID string)
}

// BlanketService sends zone/duration/stop commands to the cloud, logs
// them and nudges the poller so the snapshot converges quickly.
type BlanketService struct {
	hub        Hub
	statusRepo repository.StatusRepo
	eventRepo  repository.EventRepo
	notifier   CommandNotifier

	mu        sync.Mutex
	durations map[string]float64 // per-device duration preference, hours
}

func NewBlanketService(hub Hub, statusRepo repository.StatusRepo, eventRepo repository.EventRepo, notifier CommandNotifier) *BlanketService {
	return &BlanketService{
		hub:        hub,
		statusRepo: statusRepo,
		eventRepo:  eventRepo,
		notifier:   notifier,
		durations:  make(map[string]float64),
	}
}

// SetZones sets both zone intensities, applying the device's duration
// preference (default 1h) as the timer span.
func (s *BlanketService) SetZones(ctx context.Context, deviceID string, body, feet int) error {
	if !validIntensity(body) || !validIntensity(feet) {
		return ErrInvalidIntensity
	}

	timespan := int(s.duration(deviceID) * 3600)
	err := s.hub.Quickstart(ctx, cosynight.Quickstart{
		ID:          deviceID,
		BodySetting: body,
		FeetSetting: feet,
		Timespan:    timespan,
	})
	if err != nil {
		return err
	}

	s.commandDone(ctx, deviceID, models.BlanketEvent{
		Type:        models.EventZonesSet,
		Description: fmt.Sprintf("Zones set to body=%d feet=%d", body, feet),
		Metadata: map[string]any{
			"body_setting": body,
			"feet_setting": feet,
			"timespan_s":   timespan,
		},
	})
	return nil
}

// SetDuration stores the duration preference and applies it immediately
// with the blanket's current zone settings, mirroring what the vendor
// app does when the timer slider moves.
func (s *BlanketService) SetDuration(ctx context.Context, deviceID string, hours float64) error {
	if !validDuration(hours) {
		return ErrInvalidDuration
	}

	st, err := s.statusRepo.Load(ctx, deviceID)
	if err != nil {
		return err
	}
	if st.DeviceID == "" {
		return ErrNoSnapshot
	}

	timespan := int(hours * 3600)
	err = s.hub.Quickstart(ctx, cosynight.Quickstart{
		ID:          deviceID,
		BodySetting: st.BodySetting,
		FeetSetting: st.FeetSetting,
		Timespan:    timespan,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.durations[deviceID] = hours
	s.mu.Unlock()

	s.commandDone(ctx, deviceID, models.BlanketEvent{
		Type:        models.EventDurationSet,
		Description: fmt.Sprintf("Duration set to %.1fh", hours),
		Metadata: map[string]any{
			"hours":      hours,
			"timespan_s": timespan,
		},
	})
	return nil
}

// Stop turns both zones off by sending an all-zeros quickstart.
func (s *BlanketService) Stop(ctx context.Context, deviceID string) error {
	err := s.hub.Quickstart(ctx, cosynight.Quickstart{ID: deviceID})
	if err != nil {
		return err
	}

	s.commandDone(ctx, deviceID, models.BlanketEvent{
		Type:        models.EventStop,
		Description: "Blanket stopped",
	})
	return nil
}

// commandDone records the event and pokes the poller. Logging failures
// don't fail the command; the device already accepted it.
func (s *BlanketService) commandDone(ctx context.Context, deviceID string, e models.BlanketEvent) {
	e.DeviceID = deviceID
	e.OccurredAt = time.Now().UTC()
	_ = s.eventRepo.Append(ctx, e)
	if s.notifier != nil {
		s.notifier.CommandSent(deviceID)
	}
}

// duration returns the stored preference for a device, defaulting to 1h.
func (s *BlanketService) duration(deviceID string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.durations[deviceID]; ok {
		return h
	}
	return defaultDurationHours
}

func validIntensity(v int) bool {
	return v >= models.MinIntensity && v <= models.MaxIntensity
}

func validDuration(hours float64) bool {
	if hours < models.MinDurationHours || hours > models.MaxDurationHours {
		return false
	}
	// must land on a half-hour step
	steps := hours / models.DurationStepHours
	return math.Abs(steps-math.Round(steps)) < 1e-9
}
