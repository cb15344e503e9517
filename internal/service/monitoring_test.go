package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cosynight_bridge/internal/models"
)

func TestMonitoringService_GetStatus(t *testing.T) {
	t.Parallel()

	t.Run("propagates repository error", func(t *testing.T) {
		t.Parallel()
		repo := newFakeStatusRepo()
		repo.loadErr = errors.New("db down")
		svc := NewMonitoringService(repo)

		_, err := svc.GetStatus(context.Background(), "d1")
		if err == nil {
			t.Fatalf("expected error, got nil")
		}
	})

	t.Run("unknown device", func(t *testing.T) {
		t.Parallel()
		svc := NewMonitoringService(newFakeStatusRepo())

		_, err := svc.GetStatus(context.Background(), "ghost")
		if !errors.Is(err, ErrUnknownDevice) {
			t.Fatalf("want ErrUnknownDevice, got %v", err)
		}
	})

	t.Run("normalizes UpdatedAt to UTC", func(t *testing.T) {
		t.Parallel()
		repo := newFakeStatusRepo()
		repo.byID["d1"] = models.BlanketStatus{
			DeviceID:     "d1",
			Name:         "Bedroom",
			BodySetting:  3,
			TimerSeconds: 600,
			UpdatedAt:    time.Date(2026, 8, 25, 3, 4, 5, 0, time.FixedZone("X", -3*3600)), // UTC-3
		}
		svc := NewMonitoringService(repo)

		got, err := svc.GetStatus(context.Background(), "d1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.BodySetting != 3 || got.TimerSeconds != 600 {
			t.Errorf("unexpected status fields: %+v", got)
		}
		if got.UpdatedAt.Location() != time.UTC {
			t.Errorf("UpdatedAt must be UTC, got %v", got.UpdatedAt.Location())
		}
		wantUTC := time.Date(2026, 8, 25, 6, 4, 5, 0, time.UTC)
		if !got.UpdatedAt.Equal(wantUTC) {
			t.Errorf("UpdatedAt: want %v, got %v", wantUTC, got.UpdatedAt)
		}
	})
}

func TestMonitoringService_ListStatuses(t *testing.T) {
	t.Parallel()

	repo := newFakeStatusRepo()
	repo.byID["d1"] = models.BlanketStatus{DeviceID: "d1", UpdatedAt: time.Now()}
	repo.byID["d2"] = models.BlanketStatus{DeviceID: "d2", Stale: true, UpdatedAt: time.Now()}
	svc := NewMonitoringService(repo)

	got, err := svc.ListStatuses(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 statuses, got %d", len(got))
	}
	for _, s := range got {
		if s.UpdatedAt.Location() != time.UTC {
			t.Errorf("UpdatedAt must be UTC for %s", s.DeviceID)
		}
	}
}

func TestToUTC(t *testing.T) {
	t.Parallel()

	t.Run("zero time is preserved", func(t *testing.T) {
		t.Parallel()
		var z time.Time
		if got := toUTC(z); !got.IsZero() {
			t.Fatalf("expected zero time, got %v", got)
		}
	})

	t.Run("non-zero converted to UTC", func(t *testing.T) {
		t.Parallel()
		local := time.Date(2026, 2, 3, 10, 0, 0, 0, time.FixedZone("Z+2", 2*3600))
		got := toUTC(local)
		want := time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC)
		if got.Location() != time.UTC {
			t.Fatalf("expected UTC location, got %v", got.Location())
		}
		if !got.Equal(want) {
			t.Fatalf("want %v, got %v", want, got)
		}
	})
}
