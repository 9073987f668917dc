package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanna-karuppasamy/smart-grid-fault-detector/internal/models"
)

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	execs    []execCall
	affected int64
	execErr  error
	rows     [][]any
	queryErr error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", f.affected)), nil
}

func (f *fakeDB) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{data: f.rows, idx: -1}, nil
}

// fakeRows replays canned rows through pgx.Rows
type fakeRows struct {
	data [][]any
	idx  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.data[r.idx], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.data)
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.idx]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: want %d columns, got %d", len(row), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = row[i].(string)
		case *float64:
			*p = row[i].(float64)
		case *time.Time:
			*p = row[i].(time.Time)
		case **time.Time:
			if row[i] == nil {
				*p = nil
			} else {
				t := row[i].(time.Time)
				*p = &t
			}
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

func sampleEvent() models.FaultEvent {
	return models.FaultEvent{
		ID:                  "5f0c3f5e-8d1c-4b8e-9d55-8ad9f3a2b6c1",
		WindowID:            "w-1",
		FeederID:            "F-7",
		SubstationID:        "SS-2",
		FaultType:           models.FaultShortCircuit,
		Severity:            models.SeverityCritical,
		Confidence:          0.97,
		EstimatedLocationKm: 1.8,
		DetectionTimeMs:     0.6,
		Strategy:            "rules",
		DetectedAt:          time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestInsertEventDefaultsStatus(t *testing.T) {
	db := &fakeDB{affected: 1}
	store := NewEventStore(db)

	require.NoError(t, store.InsertEvent(context.Background(), sampleEvent()))
	require.Len(t, db.execs, 1)

	args := db.execs[0].args
	require.Len(t, args, 13)
	assert.Equal(t, "SHORT_CIRCUIT", args[4])
	assert.Equal(t, "critical", args[5])
	assert.Equal(t, models.EventStatusDetected, args[10])
	assert.Nil(t, args[11], "zero capture time is stored as NULL")
}

func TestInsertEventWrapsError(t *testing.T) {
	boom := errors.New("connection reset")
	store := NewEventStore(&fakeDB{execErr: boom})
	err := store.InsertEvent(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, boom)
}

func TestUpdateStatus(t *testing.T) {
	db := &fakeDB{affected: 1}
	store := NewEventStore(db)

	require.NoError(t, store.UpdateStatus(context.Background(), "id-1", models.EventStatusAcknowledged))
	assert.Equal(t, []any{"id-1", models.EventStatusAcknowledged}, db.execs[0].args)

	err := store.UpdateStatus(context.Background(), "id-1", "closed")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.Len(t, db.execs, 1)
}

func TestUpdateStatusMissingEvent(t *testing.T) {
	store := NewEventStore(&fakeDB{affected: 0})
	err := store.UpdateStatus(context.Background(), "nope", models.EventStatusResolved)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, NewEventStore(db).EnsureSchema(context.Background()))
	require.Len(t, db.execs, 2)
	assert.True(t, strings.Contains(db.execs[0].sql, "CREATE TABLE IF NOT EXISTS fault_events"))
}

func TestListRecent(t *testing.T) {
	detected := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	captured := detected.Add(-time.Second)
	db := &fakeDB{rows: [][]any{
		{"id-2", "w-2", "F-7", "SS-2", "LINE_BREAK", "critical", 0.93, 0.97, 1.1, "rules", "detected", captured, detected},
		{"id-1", "w-1", "F-7", "SS-2", "OVERLOAD", "medium", 0.8, 2.5, 0.9, "model", "resolved", nil, detected.Add(-time.Minute)},
	}}

	events, err := NewEventStore(db).ListRecent(context.Background(), "F-7", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, models.FaultLineBreak, events[0].FaultType)
	assert.Equal(t, models.SeverityCritical, events[0].Severity)
	assert.Equal(t, captured, events[0].CapturedAt)
	assert.Equal(t, models.EventStatusResolved, events[1].Status)
	assert.True(t, events[1].CapturedAt.IsZero())
}

func TestUnconfiguredStore(t *testing.T) {
	var store *EventStore
	assert.ErrorIs(t, store.EnsureSchema(context.Background()), ErrNotConfigured)
	assert.ErrorIs(t, NewEventStore(nil).InsertEvent(context.Background(), sampleEvent()), ErrNotConfigured)
	_, err := NewEventStore(nil).ListRecent(context.Background(), "", 5)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
