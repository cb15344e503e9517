package repository

import (
	"context"
	"database/sql"
	"time"

	"cosynight_bridge/internal/models"
	dbinit "cosynight_bridge/internal/repository/db"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.User, error)
}

// StatusRepo persists the latest snapshot per blanket.
type StatusRepo interface {
	Save(ctx context.Context, s models.BlanketStatus) error
	Load(ctx context.Context, deviceID string) (models.BlanketStatus, error)
	LoadAll(ctx context.Context) ([]models.BlanketStatus, error)
	MarkStale(ctx context.Context, deviceID string, at time.Time) error
}

// EventRepo is the append-only command/error log.
type EventRepo interface {
	Append(ctx context.Context, e models.BlanketEvent) error
	List(ctx context.Context, from, to time.Time, typ, deviceID string) ([]models.BlanketEvent, error)
}

type Repository struct {
	StatusRepo StatusRepo
	EventRepo  EventRepo
	Auth       Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		StatusRepo: NewStatusSQLite(db),
		EventRepo:  NewEventSQLite(db),
		Auth:       NewUserRepository(db),
	}
}

// InitDB opens the SQLite file and applies the schema.
func InitDB(path string) (*sql.DB, error) {
	return dbinit.InitDB(path)
}
