// Package tracedb provides SQLite-based storage for Director step
// traces: one row per tick describing what fired (if anything), plus an
// append-only soft-error log and running counters (§7: "observable via
// counters, optional trace hook"). Step-time soft errors never propagate
// to the caller; this is where they go to be inspected after the fact.
package tracedb

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/syn-director/internal/director"
	"github.com/talgya/syn-director/internal/ids"
)

// DB wraps a SQLite connection for Director trace storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS steps (
		tick INTEGER PRIMARY KEY,
		fired_key INTEGER,
		forced INTEGER NOT NULL DEFAULT 0,
		source INTEGER,
		is_from_queue INTEGER NOT NULL DEFAULT 0,
		phase_changed INTEGER NOT NULL DEFAULT 0,
		soft_error_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS soft_errors (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		detail TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS counters (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_soft_errors_tick ON soft_errors(tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// counter names tracked across the life of a trace database.
const (
	CounterTotalSteps      = "total_steps"
	CounterTotalFired      = "total_fired"
	CounterTotalForced     = "total_forced_fired"
	CounterTotalSoftErrors = "total_soft_errors"
	CounterPhaseChanges    = "total_phase_changes"
)

func sourceCounterName(source ids.EventSource) string {
	return "fired_by_source_" + source.String()
}

// RecordStep appends one step's outcome to the trace and bumps running
// counters, in a single transaction.
func (db *DB) RecordStep(result director.StepResult) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var firedKey *uint32
	var forced bool
	var source *uint8
	var isFromQueue bool
	if result.Fired != nil {
		k := uint32(result.Fired.Key)
		firedKey = &k
		forced = result.Fired.Forced
		s := uint8(result.Fired.Source)
		source = &s
		isFromQueue = result.Fired.IsFromQueue
	}

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO steps (tick, fired_key, forced, source, is_from_queue, phase_changed, soft_error_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uint64(result.Tick), firedKey, forced, source, isFromQueue, result.PhaseChanged, len(result.SoftErrors),
	)
	if err != nil {
		return fmt.Errorf("insert step: %w", err)
	}

	for _, detail := range result.SoftErrors {
		if _, err := tx.Exec("INSERT INTO soft_errors (tick, detail) VALUES (?, ?)", uint64(result.Tick), detail); err != nil {
			return fmt.Errorf("insert soft error: %w", err)
		}
	}

	if err := bumpCounter(tx, CounterTotalSteps, 1); err != nil {
		return err
	}
	if len(result.SoftErrors) > 0 {
		if err := bumpCounter(tx, CounterTotalSoftErrors, int64(len(result.SoftErrors))); err != nil {
			return err
		}
	}
	if result.PhaseChanged {
		if err := bumpCounter(tx, CounterPhaseChanges, 1); err != nil {
			return err
		}
	}
	if result.Fired != nil {
		if err := bumpCounter(tx, CounterTotalFired, 1); err != nil {
			return err
		}
		if result.Fired.Forced {
			if err := bumpCounter(tx, CounterTotalForced, 1); err != nil {
				return err
			}
		}
		if err := bumpCounter(tx, sourceCounterName(result.Fired.Source), 1); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	if len(result.SoftErrors) > 0 {
		slog.Warn("tracedb: step recorded with soft errors", "tick", result.Tick, "count", len(result.SoftErrors))
	}
	return nil
}

func bumpCounter(tx *sqlx.Tx, name string, delta int64) error {
	_, err := tx.Exec(
		`INSERT INTO counters (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = value + excluded.value`,
		name, delta,
	)
	return err
}

// Counters returns every counter currently tracked.
func (db *DB) Counters() (map[string]int64, error) {
	type row struct {
		Name  string `db:"name"`
		Value int64  `db:"value"`
	}
	var rows []row
	if err := db.conn.Select(&rows, "SELECT name, value FROM counters"); err != nil {
		return nil, fmt.Errorf("load counters: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Name] = r.Value
	}
	return out, nil
}

// Counter returns a single named counter's current value.
func (db *DB) Counter(name string) (int64, error) {
	var value int64
	err := db.conn.Get(&value, "SELECT value FROM counters WHERE name = ?", name)
	if err != nil {
		return 0, nil // uninitialized counters read as zero
	}
	return value, nil
}

// StepRow is one recorded step, as read back from the trace database.
type StepRow struct {
	Tick           uint64  `db:"tick"`
	FiredKey       *uint32 `db:"fired_key"`
	Forced         bool    `db:"forced"`
	Source         *uint8  `db:"source"`
	IsFromQueue    bool    `db:"is_from_queue"`
	PhaseChanged   bool    `db:"phase_changed"`
	SoftErrorCount int     `db:"soft_error_count"`
}

// RecentSteps returns the most recently recorded steps, newest first.
func (db *DB) RecentSteps(limit int) ([]StepRow, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []StepRow
	err := db.conn.Select(&rows, "SELECT tick, fired_key, forced, source, is_from_queue, phase_changed, soft_error_count FROM steps ORDER BY tick DESC LIMIT ?", limit)
	return rows, err
}

// SoftErrorRow is one recorded soft error.
type SoftErrorRow struct {
	Tick   uint64 `db:"tick"`
	Detail string `db:"detail"`
}

// RecentSoftErrors returns the most recently recorded soft errors, newest first.
func (db *DB) RecentSoftErrors(limit int) ([]SoftErrorRow, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []SoftErrorRow
	err := db.conn.Select(&rows, "SELECT tick, detail FROM soft_errors ORDER BY id DESC LIMIT ?", limit)
	return rows, err
}
