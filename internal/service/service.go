package service

import (
	"context"
	"time"

	"cosynight_bridge/internal/cosynight"
	"cosynight_bridge/internal/logger"
	"cosynight_bridge/internal/models"
	"cosynight_bridge/internal/polling"
	"cosynight_bridge/internal/repository"
)

// Hub is the cloud-side surface the services need. Satisfied by
// *cosynight.Client.
type Hub interface {
	ListDevices(ctx context.Context) ([]cosynight.Device, error)
	GetStatus(ctx context.Context, deviceID string) (cosynight.Status, error)
	Quickstart(ctx context.Context, q cosynight.Quickstart) error
}

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Blanket exposes control operations: zone intensities, duration, stop.
type Blanket interface {
	SetZones(ctx context.Context, deviceID string, body, feet int) error
	SetDuration(ctx context.Context, deviceID string, hours float64) error
	Stop(ctx context.Context, deviceID string) error
}

// Monitoring exposes read-only snapshots (zones, remaining time, staleness).
type Monitoring interface {
	GetStatus(ctx context.Context, deviceID string) (models.BlanketStatus, error)
	ListStatuses(ctx context.Context) ([]models.BlanketStatus, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.BlanketEvent, error)
}

// Poller runs the background loop that refreshes snapshots from the
// cloud at adaptive intervals. Stop via context cancellation in main()
// for graceful shutdown. CommandSent resets the activation clock and
// triggers an immediate refresh.
type Poller interface {
	Run(ctx context.Context)
	CommandSent(deviceID string)
}

// LogFilter supports history filtering by time range, type and device.
type LogFilter struct {
	From     time.Time // inclusive; zero means no lower bound
	To       time.Time // inclusive; zero means no upper bound
	Type     string    // "", ZONES_SET, DURATION_SET, STOP, ERROR, RECOVERED
	DeviceID string    // "" means all devices
}

// Config carries the service-level settings read from the config file.
type Config struct {
	Polling    polling.Config
	SigningKey string
}

// Service aggregates all sub-services.
type Service struct {
	Blanket
	Monitoring
	EventLog
	Poller
	Authorization
}

// NewService wires the repository layer and cloud hub into concrete
// services. devices is the account's blanket list, discovered once at
// startup.
func NewService(repos *repository.Repository, hub Hub, devices []cosynight.Device, cfg Config, log *logger.Logger) *Service {
	poller := NewPollerService(hub, repos.StatusRepo, repos.EventRepo, devices, cfg.Polling, log)
	return &Service{
		Blanket:       NewBlanketService(hub, repos.StatusRepo, repos.EventRepo, poller),
		Monitoring:    NewMonitoringService(repos.StatusRepo),
		EventLog:      NewEventLogService(repos.EventRepo),
		Poller:        poller,
		Authorization: NewAuthService(repos.Auth, cfg.SigningKey),
	}
}
