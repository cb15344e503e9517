package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"cosynight_bridge/internal/models"
)

func TestEventLogService_List_NormalizesFilter(t *testing.T) {
	t.Parallel()

	repo := &fakeEventRepo{}
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	repo.events = []models.BlanketEvent{
		{EventID: "1", OccurredAt: base, DeviceID: "d1", Type: models.EventZonesSet},
		{EventID: "2", OccurredAt: base.Add(time.Hour), DeviceID: "d1", Type: models.EventStop},
		{EventID: "3", OccurredAt: base.Add(2 * time.Hour), DeviceID: "d2", Type: models.EventStop},
	}
	svc := NewEventLogService(repo)

	got, err := svc.List(context.Background(), LogFilter{
		Type:     " stop ",
		DeviceID: " d1 ",
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].EventID != "2" {
		t.Fatalf("unexpected results: %+v", got)
	}
}

func TestEventLogService_List_TimeRange(t *testing.T) {
	t.Parallel()

	repo := &fakeEventRepo{}
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	repo.events = []models.BlanketEvent{
		{EventID: "1", OccurredAt: base},
		{EventID: "2", OccurredAt: base.Add(time.Hour)},
		{EventID: "3", OccurredAt: base.Add(2 * time.Hour)},
	}
	svc := NewEventLogService(repo)

	got, err := svc.List(context.Background(), LogFilter{
		From: base.Add(30 * time.Minute),
		To:   base.Add(90 * time.Minute),
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].EventID != "2" {
		t.Fatalf("unexpected results: %+v", got)
	}
}

func TestEventLogService_List_RejectsInvertedRange(t *testing.T) {
	t.Parallel()

	svc := NewEventLogService(&fakeEventRepo{})

	from := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.List(context.Background(), LogFilter{From: from, To: to})
	if !errors.Is(err, errInvalidTimeRange) {
		t.Fatalf("want errInvalidTimeRange, got %v", err)
	}
}
