package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sentientiq/pulse/internal/domain"
	"github.com/sentientiq/pulse/internal/shared"
)

// SQLiteSink implements Sink using SQLite.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLite creates a SQLite-backed sink at dbPath, creating the schema on
// first use.
func NewSQLite(dbPath string) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for better concurrency between event writes and reads.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	sink := &SQLiteSink{db: db}
	if err := sink.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return sink, nil
}

func (s *SQLiteSink) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS emotion_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		emotion TEXT NOT NULL,
		confidence REAL NOT NULL,
		section TEXT NOT NULL,
		signals_json TEXT NOT NULL,
		occurred_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_emotion_events_occurred ON emotion_events(occurred_at);
	CREATE INDEX IF NOT EXISTS idx_emotion_events_session ON emotion_events(session_id);

	CREATE TABLE IF NOT EXISTS intervention_events (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		intervention_type TEXT NOT NULL,
		emotion TEXT NOT NULL,
		confidence REAL NOT NULL,
		occurred_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_intervention_events_occurred ON intervention_events(occurred_at);
	CREATE INDEX IF NOT EXISTS idx_intervention_events_session ON intervention_events(session_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteSink) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// SaveEmotionEvent appends one emotion event row, retrying briefly on
// SQLITE_BUSY.
func (s *SQLiteSink) SaveEmotionEvent(ctx context.Context, ev *domain.EmotionEvent) error {
	signals, err := json.Marshal(ev.Signals)
	if err != nil {
		return fmt.Errorf("marshal signals: %w", err)
	}
	return withBusyRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO emotion_events (session_id, tenant_id, emotion, confidence, section, signals_json, occurred_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ev.SessionID, ev.TenantID, ev.Emotion, ev.Confidence, ev.Section, string(signals), ev.Timestamp.UnixMilli())
		if err != nil {
			return fmt.Errorf("insert emotion event: %w", err)
		}
		return nil
	})
}

// SaveInterventionEvent appends one intervention event row. Replaying the
// same event id is a no-op, keeping at-least-once delivery idempotent.
func (s *SQLiteSink) SaveInterventionEvent(ctx context.Context, ev *domain.InterventionEvent) error {
	return withBusyRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO intervention_events (id, session_id, tenant_id, intervention_type, emotion, confidence, occurred_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ev.ID, ev.SessionID, ev.TenantID, ev.Type, ev.Emotion, ev.Confidence, ev.Timestamp.UnixMilli())
		if err != nil {
			return fmt.Errorf("insert intervention event: %w", err)
		}
		return nil
	})
}

// EventCounts returns total stored emotion and intervention events.
func (s *SQLiteSink) EventCounts(ctx context.Context) (int64, int64, error) {
	var emotions, interventions int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM emotion_events`).Scan(&emotions); err != nil {
		return 0, 0, fmt.Errorf("count emotion events: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM intervention_events`).Scan(&interventions); err != nil {
		return 0, 0, fmt.Errorf("count intervention events: %w", err)
	}
	return emotions, interventions, nil
}

// PurgeOlderThan deletes events recorded before cutoff.
func (s *SQLiteSink) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"emotion_events", "intervention_events"} {
		res, err := s.db.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE occurred_at < ?`, table), cutoff.UnixMilli())
		if err != nil {
			return total, fmt.Errorf("purge %s: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	return total, nil
}

// withBusyRetry runs fn with exponential backoff on SQLite concurrency
// errors: 50ms, 100ms, 200ms.
func withBusyRetry(ctx context.Context, fn func() error) error {
	maxRetries := 3
	baseDelay := 50 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) || i == maxRetries-1 {
			return err
		}
		delay := baseDelay * time.Duration(1<<i)
		slog.Debug("sqlite busy, retrying write", "attempt", i+1, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
