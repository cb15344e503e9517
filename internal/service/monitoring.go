package service

import (
	"context"
	"errors"
	"time"

	"cosynight_bridge/internal/models"
	"cosynight_bridge/internal/repository"
)

// ErrUnknownDevice is returned when no snapshot exists for the device.
var ErrUnknownDevice = errors.New("unknown device: no snapshot recorded")

type MonitoringService struct {
	statusRepo repository.StatusRepo
}

func NewMonitoringService(statusRepo repository.StatusRepo) *MonitoringService {
	return &MonitoringService{statusRepo: statusRepo}
}

// GetStatus returns the latest persisted snapshot for one blanket.
func (s *MonitoringService) GetStatus(ctx context.Context, deviceID string) (models.BlanketStatus, error) {
	st, err := s.statusRepo.Load(ctx, deviceID)
	if err != nil {
		return models.BlanketStatus{}, err
	}
	if st.DeviceID == "" {
		return models.BlanketStatus{}, ErrUnknownDevice
	}
	st.UpdatedAt = toUTC(st.UpdatedAt)
	return st, nil
}

// ListStatuses returns the latest snapshot of every known blanket.
func (s *MonitoringService) ListStatuses(ctx context.Context) ([]models.BlanketStatus, error) {
	statuses, err := s.statusRepo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range statuses {
		statuses[i].UpdatedAt = toUTC(statuses[i].UpdatedAt)
	}
	return statuses, nil
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
