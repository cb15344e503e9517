package service

import (
	"context"
	"sync"
	"time"

	"cosynight_bridge/internal/cosynight"
	"cosynight_bridge/internal/models"
)

// Shared test doubles for the service package.

type fakeStatusRepo struct {
	mu      sync.Mutex
	byID    map[string]models.BlanketStatus
	loadErr error
	saveErr error
	saved   []models.BlanketStatus
	staled  []string
}

func newFakeStatusRepo() *fakeStatusRepo {
	return &fakeStatusRepo{byID: make(map[string]models.BlanketStatus)}
}

func (f *fakeStatusRepo) Load(ctx context.Context, deviceID string) (models.BlanketStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return models.BlanketStatus{}, f.loadErr
	}
	return f.byID[deviceID], nil
}

func (f *fakeStatusRepo) LoadAll(ctx context.Context) ([]models.BlanketStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	out := make([]models.BlanketStatus, 0, len(f.byID))
	for _, s := range f.byID {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStatusRepo) Save(ctx context.Context, s models.BlanketStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, s)
	f.byID[s.DeviceID] = s
	return nil
}

func (f *fakeStatusRepo) MarkStale(ctx context.Context, deviceID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staled = append(f.staled, deviceID)
	if s, ok := f.byID[deviceID]; ok {
		s.Stale = true
		f.byID[deviceID] = s
	}
	return nil
}

type fakeEventRepo struct {
	mu        sync.Mutex
	appendErr error
	events    []models.BlanketEvent
}

func (f *fakeEventRepo) Append(ctx context.Context, e models.BlanketEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return f.appendErr
}

func (f *fakeEventRepo) List(ctx context.Context, from, to time.Time, typ, deviceID string) ([]models.BlanketEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.BlanketEvent
	for _, e := range f.events {
		if !from.IsZero() && e.OccurredAt.Before(from) {
			continue
		}
		if !to.IsZero() && e.OccurredAt.After(to) {
			continue
		}
		if typ != "" && e.Type != typ {
			continue
		}
		if deviceID != "" && e.DeviceID != deviceID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventRepo) byType(typ string) []models.BlanketEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.BlanketEvent
	for _, e := range f.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type fakeHub struct {
	mu          sync.Mutex
	devices     []cosynight.Device
	statuses    map[string]cosynight.Status
	statusErr   map[string]error
	quickErr    error
	quickstarts []cosynight.Quickstart
	statusCalls int
}

func newFakeHub() *fakeHub {
	return &fakeHub{
		statuses:  make(map[string]cosynight.Status),
		statusErr: make(map[string]error),
	}
}

func (f *fakeHub) ListDevices(ctx context.Context) ([]cosynight.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.devices, nil
}

func (f *fakeHub) GetStatus(ctx context.Context, deviceID string) (cosynight.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if err := f.statusErr[deviceID]; err != nil {
		return cosynight.Status{}, err
	}
	return f.statuses[deviceID], nil
}

func (f *fakeHub) Quickstart(ctx context.Context, q cosynight.Quickstart) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.quickErr != nil {
		return f.quickErr
	}
	f.quickstarts = append(f.quickstarts, q)
	return nil
}

func (f *fakeHub) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

func (f *fakeHub) lastQuickstart() (cosynight.Quickstart, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.quickstarts) == 0 {
		return cosynight.Quickstart{}, false
	}
	return f.quickstarts[len(f.quickstarts)-1], true
}

type fakeNotifier struct {
	mu       sync.Mutex
	notified []string
}

func (f *fakeNotifier) CommandSent(deviceID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, deviceID)
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notified)
}
