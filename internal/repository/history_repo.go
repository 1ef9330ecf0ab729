package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roksva123/taskbridge/internal/model"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// HistoryRepo stores job runs. The SQL is portable between postgres and sqlite3.
type HistoryRepo struct {
	DB *sql.DB
}

// Open connects and pings the database.
func Open(ctx context.Context, driver, dsn string) (*HistoryRepo, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	// ping
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s: %w", driver, err)
	}
	return &HistoryRepo{DB: db}, nil
}

func (r *HistoryRepo) Close() error {
	return r.DB.Close()
}

func (r *HistoryRepo) RunMigrations(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sync_history (
            id TEXT PRIMARY KEY,
            job TEXT NOT NULL,
            status TEXT NOT NULL,
            started_at TIMESTAMP NOT NULL,
            duration_ms BIGINT NOT NULL DEFAULT 0,
            details TEXT
        );`,
		`CREATE INDEX IF NOT EXISTS idx_sync_history_started_at ON sync_history (started_at);`,
	}
	for _, q := range queries {
		if _, err := r.DB.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// CreateSyncHistory inserts one finished run.
func (r *HistoryRepo) CreateSyncHistory(ctx context.Context, h *model.SyncHistory) error {
	var details sql.NullString
	if len(h.Details) > 0 {
		details = sql.NullString{String: string(h.Details), Valid: true}
	}

	_, err := r.DB.ExecContext(ctx, `
        INSERT INTO sync_history (id, job, status, started_at, duration_ms, details)
        VALUES ($1, $2, $3, $4, $5, $6)`,
		h.ID, h.Job, h.Status, h.StartedAt.UTC(), h.DurationMs, details,
	)
	return err
}

// GetSyncHistory returns the latest runs, newest first. The limit is clamped
// to [1, MaxHistoryLimit]; zero or negative means DefaultHistoryLimit.
func (r *HistoryRepo) GetSyncHistory(ctx context.Context, limit int) ([]model.SyncHistory, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	rows, err := r.DB.QueryContext(ctx, `
        SELECT id, job, status, started_at, duration_ms, details
        FROM sync_history
        ORDER BY started_at DESC
        LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []model.SyncHistory{}
	for rows.Next() {
		var (
			h       model.SyncHistory
			details sql.NullString
		)
		if err := rows.Scan(&h.ID, &h.Job, &h.Status, &h.StartedAt, &h.DurationMs, &details); err != nil {
			return nil, err
		}
		if details.Valid && details.String != "" {
			h.Details = json.RawMessage(details.String)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
