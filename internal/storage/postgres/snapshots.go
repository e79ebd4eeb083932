package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

// ReportSnapshot is one day's frozen report payload for a scope
// ("executive", "dashboard"). One row per scope per as_of date.
type ReportSnapshot struct {
	ID        string          `json:"id"`
	Scope     string          `json:"scope"`
	AsOf      time.Time       `json:"as_of"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SnapshotStore persists report snapshots for trend queries.
type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Upsert writes the payload for (scope, as_of date). Rebuilding the
// same day overwrites in place, so a day never has two rows.
func (s *SnapshotStore) Upsert(ctx context.Context, scope string, asOf time.Time, payload any) (*ReportSnapshot, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot payload: %w", err)
	}

	const query = `
		INSERT INTO report_snapshots (id, scope, as_of, payload)
		VALUES ($1, $2, $3::date, $4)
		ON CONFLICT (scope, as_of) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = NOW()
		RETURNING id, as_of, created_at, updated_at
	`

	snap := ReportSnapshot{Scope: scope, Payload: data}
	err = s.db.QueryRowContext(ctx, query, uuid.New().String(), scope, asOf.UTC(), data).
		Scan(&snap.ID, &snap.AsOf, &snap.CreatedAt, &snap.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	return &snap, nil
}

// Latest returns the most recent snapshot for a scope.
func (s *SnapshotStore) Latest(ctx context.Context, scope string) (*ReportSnapshot, error) {
	const query = `
		SELECT id, scope, as_of, payload, created_at, updated_at
		FROM report_snapshots
		WHERE scope = $1
		ORDER BY as_of DESC
		LIMIT 1
	`

	var snap ReportSnapshot
	err := s.db.QueryRowContext(ctx, query, scope).Scan(
		&snap.ID, &snap.Scope, &snap.AsOf, &snap.Payload, &snap.CreatedAt, &snap.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest snapshot: %w", err)
	}

	return &snap, nil
}

// List returns snapshots for a scope, newest first, for trend charts.
func (s *SnapshotStore) List(ctx context.Context, scope string, limit int) ([]ReportSnapshot, error) {
	if limit <= 0 || limit > 365 {
		limit = 30
	}

	const query = `
		SELECT id, scope, as_of, payload, created_at, updated_at
		FROM report_snapshots
		WHERE scope = $1
		ORDER BY as_of DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]ReportSnapshot, 0, limit)
	for rows.Next() {
		var snap ReportSnapshot
		if err := rows.Scan(&snap.ID, &snap.Scope, &snap.AsOf, &snap.Payload, &snap.CreatedAt, &snap.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
