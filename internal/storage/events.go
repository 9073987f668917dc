package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrInvalidStatus indicates an unknown fault event status.
	ErrInvalidStatus = errors.New("storage: invalid event status")
)

const (
	createEventsTableSQL = `CREATE TABLE IF NOT EXISTS fault_events (
        id                    UUID PRIMARY KEY,
        window_id             TEXT NOT NULL DEFAULT '',
        feeder_id             TEXT NOT NULL DEFAULT '',
        substation_id         TEXT NOT NULL DEFAULT '',
        fault_type            TEXT NOT NULL,
        severity              TEXT NOT NULL,
        confidence            DOUBLE PRECISION NOT NULL,
        estimated_location_km DOUBLE PRECISION NOT NULL,
        detection_time_ms     DOUBLE PRECISION NOT NULL,
        strategy              TEXT NOT NULL,
        status                TEXT NOT NULL DEFAULT 'detected',
        captured_at           TIMESTAMPTZ,
        detected_at           TIMESTAMPTZ NOT NULL,
        updated_at            TIMESTAMPTZ NOT NULL DEFAULT now()
    );`

	createEventsIndexSQL = `CREATE INDEX IF NOT EXISTS fault_events_feeder_detected_idx
        ON fault_events (feeder_id, detected_at DESC);`

	insertEventSQL = `INSERT INTO fault_events (
        id,
        window_id,
        feeder_id,
        substation_id,
        fault_type,
        severity,
        confidence,
        estimated_location_km,
        detection_time_ms,
        strategy,
        status,
        captured_at,
        detected_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13
    )
    ON CONFLICT (id) DO NOTHING;`

	updateEventStatusSQL = `UPDATE fault_events
    SET status = $2, updated_at = now()
    WHERE id = $1;`

	listRecentEventsSQL = `SELECT
        id::text,
        window_id,
        feeder_id,
        substation_id,
        fault_type,
        severity,
        confidence,
        estimated_location_km,
        detection_time_ms,
        strategy,
        status,
        captured_at,
        detected_at
    FROM fault_events
    WHERE ($1 = '' OR feeder_id = $1)
    ORDER BY detected_at DESC
    LIMIT $2;`
)

// DB is the subset of pgxpool.Pool the event store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// EventStore persists detected fault events.
type EventStore struct {
	db DB
}

// NewEventStore wires a database handle into an EventStore.
func NewEventStore(db DB) *EventStore {
	return &EventStore{db: db}
}

func (s *EventStore) getDB() (DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotConfigured
	}
	return s.db, nil
}

// EnsureSchema creates the fault_events table when missing.
func (s *EventStore) EnsureSchema(ctx context.Context) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	for _, stmt := range []string{createEventsTableSQL, createEventsIndexSQL} {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// InsertEvent persists a new event. Inserting the same ID twice is a no-op.
func (s *EventStore) InsertEvent(ctx context.Context, event models.FaultEvent) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	status := event.Status
	if status == "" {
		status = models.EventStatusDetected
	}

	var captured interface{}
	if !event.CapturedAt.IsZero() {
		captured = event.CapturedAt
	}

	_, execErr := db.Exec(ctx, insertEventSQL,
		event.ID,
		event.WindowID,
		event.FeederID,
		event.SubstationID,
		string(event.FaultType),
		string(event.Severity),
		event.Confidence,
		event.EstimatedLocationKm,
		event.DetectionTimeMs,
		event.Strategy,
		status,
		captured,
		event.DetectedAt,
	)
	if execErr != nil {
		return fmt.Errorf("insert fault event: %w", execErr)
	}
	return nil
}

// UpdateStatus moves an event through its lifecycle.
func (s *EventStore) UpdateStatus(ctx context.Context, id, status string) error {
	switch status {
	case models.EventStatusDetected, models.EventStatusAcknowledged, models.EventStatusResolved:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	db, err := s.getDB()
	if err != nil {
		return err
	}
	cmdTag, execErr := db.Exec(ctx, updateEventStatusSQL, id, status)
	if execErr != nil {
		return fmt.Errorf("update event status: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListRecent lists the newest events, optionally restricted to one feeder.
func (s *EventStore) ListRecent(ctx context.Context, feederID string, limit int) ([]models.FaultEvent, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, queryErr := db.Query(ctx, listRecentEventsSQL, feederID, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent events: %w", queryErr)
	}
	defer rows.Close()

	events := make([]models.FaultEvent, 0, limit)
	for rows.Next() {
		event, scanErr := scanEvent(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		events = append(events, event)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return events, nil
}

func scanEvent(row pgx.Row) (models.FaultEvent, error) {
	var (
		event     models.FaultEvent
		faultType string
		severity  string
		captured  *time.Time
	)
	if err := row.Scan(
		&event.ID,
		&event.WindowID,
		&event.FeederID,
		&event.SubstationID,
		&faultType,
		&severity,
		&event.Confidence,
		&event.EstimatedLocationKm,
		&event.DetectionTimeMs,
		&event.Strategy,
		&event.Status,
		&captured,
		&event.DetectedAt,
	); err != nil {
		return models.FaultEvent{}, fmt.Errorf("scan fault event: %w", err)
	}

	event.FaultType = models.FaultType(faultType)
	event.Severity = models.Severity(severity)
	if captured != nil {
		event.CapturedAt = *captured
	}
	return event, nil
}
