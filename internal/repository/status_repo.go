package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cosynight_bridge/internal/models"
)

type StatusSQLite struct {
	db *sql.DB
}

func NewStatusSQLite(db *sql.DB) *StatusSQLite {
	return &StatusSQLite{db: db}
}

var _ StatusRepo = (*StatusSQLite)(nil)

const (
	upsertStatusSQL = `
		INSERT INTO blanket_status (device_id, name, body_setting, feet_setting, timer_s, heartbeat, active, requires_update, stale, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			name=excluded.name,
			body_setting=excluded.body_setting,
			feet_setting=excluded.feet_setting,
			timer_s=excluded.timer_s,
			heartbeat=excluded.heartbeat,
			active=excluded.active,
			requires_update=excluded.requires_update,
			stale=excluded.stale,
			updated_at=excluded.updated_at
	`

	selectStatusSQL = `
		SELECT device_id, name, body_setting, feet_setting, timer_s, heartbeat, active, requires_update, stale, updated_at
		FROM blanket_status WHERE device_id=?
	`

	selectAllStatusSQL = `
		SELECT device_id, name, body_setting, feet_setting, timer_s, heartbeat, active, requires_update, stale, updated_at
		FROM blanket_status ORDER BY name ASC
	`

	markStaleSQL = `UPDATE blanket_status SET stale=1, updated_at=? WHERE device_id=?`
)

// Save upserts the snapshot for one blanket.
func (r *StatusSQLite) Save(ctx context.Context, s models.BlanketStatus) error {
	// ensure UpdatedAt is always persisted as UTC; set if zero
	tsUTC := s.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	_, err := r.db.ExecContext(ctx, upsertStatusSQL,
		s.DeviceID,
		s.Name,
		s.BodySetting,
		s.FeetSetting,
		s.TimerSeconds,
		s.Heartbeat,
		s.Active,
		s.RequiresUpdate,
		s.Stale,
		tsUTC,
	)
	return err
}

// Load fetches the snapshot for one blanket. Returns a zero value (empty
// DeviceID) when no snapshot exists yet.
func (r *StatusSQLite) Load(ctx context.Context, deviceID string) (models.BlanketStatus, error) {
	row := r.db.QueryRowContext(ctx, selectStatusSQL, deviceID)

	s, err := scanStatus(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BlanketStatus{}, nil // no snapshot yet
		}
		return models.BlanketStatus{}, err
	}
	return s, nil
}

// LoadAll returns every known snapshot, ordered by blanket name.
func (r *StatusSQLite) LoadAll(ctx context.Context) ([]models.BlanketStatus, error) {
	rows, err := r.db.QueryContext(ctx, selectAllStatusSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.BlanketStatus, 0, 4)
	for rows.Next() {
		s, err := scanStatus(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkStale flags the snapshot after a failed poll without touching the
// last known readings. No-op when no snapshot exists.
func (r *StatusSQLite) MarkStale(ctx context.Context, deviceID string, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.ExecContext(ctx, markStaleSQL, at.UTC(), deviceID)
	return err
}

func scanStatus(scan func(dest ...any) error) (models.BlanketStatus, error) {
	var s models.BlanketStatus
	if err := scan(
		&s.DeviceID,
		&s.Name,
		&s.BodySetting,
		&s.FeetSetting,
		&s.TimerSeconds,
		&s.Heartbeat,
		&s.Active,
		&s.RequiresUpdate,
		&s.Stale,
		&s.UpdatedAt,
	); err != nil {
		return models.BlanketStatus{}, err
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
