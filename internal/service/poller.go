package service

import (
	"context"
	"sync"
	"time"

	"cosynight_bridge/internal/cosynight"
	"cosynight_bridge/internal/logger"
	"cosynight_bridge/internal/models"
	"cosynight_bridge/internal/polling"
	"cosynight_bridge/internal/repository"
)

// PollerService refreshes blanket snapshots from the cloud. The wait
// between cycles comes from the interval selector: base intervals keyed
// to the peak window while idle, progressive 15/30/60s tiers after a
// command while heating. A failed poll keeps the previous snapshot and
// flags it stale; one ERROR event is logged per outage, one RECOVERED
// when the device answers again.
type PollerService struct {
	hub        Hub
	statusRepo repository.StatusRepo
	eventRepo  repository.EventRepo
	devices    []cosynight.Device
	cfg        polling.Config
	log        *logger.Logger

	now func() time.Time // swapped in tests

	refresh chan struct{}

	mu          sync.Mutex
	commandSeen bool
	lastCommand time.Time
	failing     map[string]bool // device id -> currently in an outage
}

func NewPollerService(hub Hub, statusRepo repository.StatusRepo, eventRepo repository.EventRepo, devices []cosynight.Device, cfg polling.Config, log *logger.Logger) *PollerService {
	return &PollerService{
		hub:        hub,
		statusRepo: statusRepo,
		eventRepo:  eventRepo,
		devices:    devices,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
		refresh:    make(chan struct{}, 1),
		failing:    make(map[string]bool),
	}
}

var _ Poller = (*PollerService)(nil)

// Run polls until ctx is canceled. The first cycle fires immediately;
// every later wait is recomputed from what the cycle observed. A
// CommandSent wakes the loop without waiting out the current interval.
func (s *PollerService) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-s.refresh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}

		act := s.pollOnce(ctx)
		next := polling.NextInterval(s.now(), s.cfg, act)
		if s.log != nil {
			s.log.Debugw("poll cycle done", "heating", act.Heating, "next_poll_in", next)
		}
		timer.Reset(next)
	}
}

// CommandSent resets the activation clock and triggers an immediate
// refresh. Called by the command services after every accepted command,
// including repeat commands while already heating.
func (s *PollerService) CommandSent(deviceID string) {
	s.mu.Lock()
	s.commandSeen = true
	s.lastCommand = s.now()
	s.mu.Unlock()

	select {
	case s.refresh <- struct{}{}:
	default: // a refresh is already pending
	}
}

// pollOnce fetches every device's status, persists snapshots and returns
// the activity picture the interval selector needs.
func (s *PollerService) pollOnce(ctx context.Context) polling.Activity {
	heating := false
	now := s.now().UTC()

	for _, d := range s.devices {
		raw, err := s.hub.GetStatus(ctx, d.ID)
		if err != nil {
			s.pollFailed(ctx, d, now, err)
			continue
		}

		st := snapshotFrom(raw, d, now)
		if st.Heating() {
			heating = true
		}
		if err := s.statusRepo.Save(ctx, st); err != nil {
			if s.log != nil {
				s.log.Errorw("save snapshot failed", "device", d.ID, "err", err)
			}
			continue
		}
		s.pollRecovered(ctx, d, now)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !heating {
		// Blanket went idle: a later activation starts its tiers fresh.
		s.commandSeen = false
	}
	act := polling.Activity{Heating: heating, CommandSeen: s.commandSeen}
	if s.commandSeen {
		act.SinceCommand = s.now().Sub(s.lastCommand)
	}
	return act
}

// pollFailed marks the stored snapshot stale and opens an outage if this
// is the first failure in a row for the device.
func (s *PollerService) pollFailed(ctx context.Context, d cosynight.Device, now time.Time, cause error) {
	if s.log != nil {
		s.log.Errorw("status poll failed", "device", d.ID, "err", cause)
	}
	if err := s.statusRepo.MarkStale(ctx, d.ID, now); err != nil && s.log != nil {
		s.log.Errorw("mark snapshot stale failed", "device", d.ID, "err", err)
	}

	s.mu.Lock()
	opening := !s.failing[d.ID]
	s.failing[d.ID] = true
	s.mu.Unlock()

	if opening {
		_ = s.eventRepo.Append(ctx, models.BlanketEvent{
			OccurredAt:  now,
			DeviceID:    d.ID,
			Type:        models.EventError,
			Description: "Status poll failed; snapshot marked stale",
			Metadata:    map[string]any{"error": cause.Error()},
		})
	}
}

// pollRecovered closes an outage after a successful poll.
func (s *PollerService) pollRecovered(ctx context.Context, d cosynight.Device, now time.Time) {
	s.mu.Lock()
	closing := s.failing[d.ID]
	s.failing[d.ID] = false
	s.mu.Unlock()

	if closing {
		_ = s.eventRepo.Append(ctx, models.BlanketEvent{
			OccurredAt:  now,
			DeviceID:    d.ID,
			Type:        models.EventRecovered,
			Description: "Status polling recovered",
		})
	}
}

// snapshotFrom maps a vendor status onto the stored snapshot.
func snapshotFrom(raw cosynight.Status, d cosynight.Device, now time.Time) models.BlanketStatus {
	name := raw.Name
	if name == "" {
		name = d.Name
	}
	return models.BlanketStatus{
		DeviceID:       d.ID,
		Name:           name,
		BodySetting:    raw.BodySetting,
		FeetSetting:    raw.FeetSetting,
		TimerSeconds:   raw.Timer,
		Heartbeat:      raw.Heartbeat,
		Active:         raw.Active,
		RequiresUpdate: raw.RequiresUpdate,
		Stale:          false,
		UpdatedAt:      now,
	}
}
