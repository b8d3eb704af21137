package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/spigell/meetmatch/internal/matching"
)

// ErrNotFound is returned when a run id is unknown.
var ErrNotFound = errors.New("run not found")

// Run is one archived matching run.
type Run struct {
	ID        string
	CreatedAt time.Time
	Summary   matching.Summary
	Warnings  []matching.Warning
	Matches   []*matching.Match
}

// RunInfo is the listing view of a run.
type RunInfo struct {
	ID           string           `json:"id"`
	CreatedAt    time.Time        `json:"createdAt"`
	Method       string           `json:"method"`
	Attendees    int              `json:"attendees"`
	Matches      int              `json:"matches"`
	AverageScore float64          `json:"averageScore"`
	Summary      matching.Summary `json:"summary"`
}

// DB stores runs in a sqlite file.
type DB struct {
	conn *sql.DB
}

func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init archive schema: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		method TEXT NOT NULL,
		attendees INTEGER NOT NULL,
		matches INTEGER NOT NULL,
		average_score REAL NOT NULL,
		summary TEXT NOT NULL,
		warnings TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

	CREATE TABLE IF NOT EXISTS matches (
		run_id TEXT NOT NULL REFERENCES runs(id),
		position INTEGER NOT NULL,
		attendee_id TEXT NOT NULL,
		match_id TEXT NOT NULL,
		score REAL NOT NULL,
		confidence TEXT NOT NULL,
		payload TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// SaveRun writes a run and its matches in one transaction. Saving the same
// run id twice replaces it.
func (db *DB) SaveRun(ctx context.Context, run *Run) error {
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	warnings, err := json.Marshal(nonNilWarnings(run.Warnings))
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("clear matches: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, created_at, method, attendees, matches, average_score, summary, warnings)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		created_at = excluded.created_at,
		method = excluded.method,
		attendees = excluded.attendees,
		matches = excluded.matches,
		average_score = excluded.average_score,
		summary = excluded.summary,
		warnings = excluded.warnings
	`,
		run.ID,
		run.CreatedAt.UTC(),
		run.Summary.Method,
		run.Summary.TotalAttendees,
		len(run.Matches),
		run.Summary.AverageScore,
		string(summary),
		string(warnings),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, m := range run.Matches {
		payload, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal match %s/%s: %w", m.AttendeeID, m.MatchID, err)
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO matches (run_id, position, attendee_id, match_id, score, confidence, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`, run.ID, i, m.AttendeeID, m.MatchID, m.Score, string(m.Confidence), string(payload))
		if err != nil {
			return fmt.Errorf("insert match: %w", err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs first. limit <= 0 means no limit.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.conn.QueryContext(ctx, `
	SELECT id, created_at, method, attendees, matches, average_score, summary
	FROM runs ORDER BY created_at DESC, id ASC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var info RunInfo
		var summary string
		if err := rows.Scan(&info.ID, &info.CreatedAt, &info.Method, &info.Attendees,
			&info.Matches, &info.AverageScore, &summary); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(summary), &info.Summary); err != nil {
			return nil, fmt.Errorf("unmarshal summary of %s: %w", info.ID, err)
		}
		runs = append(runs, info)
	}

	return runs, rows.Err()
}

// LoadRun returns a stored run with its matches in their original order.
func (db *DB) LoadRun(ctx context.Context, id string) (*Run, error) {
	run := &Run{ID: id}
	var summary, warnings string

	err := db.conn.QueryRowContext(ctx,
		`SELECT created_at, summary, warnings FROM runs WHERE id = ?`, id,
	).Scan(&run.CreatedAt, &summary, &warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(summary), &run.Summary); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	if err := json.Unmarshal([]byte(warnings), &run.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshal warnings: %w", err)
	}

	run.Matches, err = db.loadMatches(ctx, id)
	if err != nil {
		return nil, err
	}

	return run, nil
}

// LoadMatches returns the matches of one run.
func (db *DB) LoadMatches(ctx context.Context, id string) ([]*matching.Match, error) {
	var exists int
	err := db.conn.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return db.loadMatches(ctx, id)
}

func (db *DB) loadMatches(ctx context.Context, id string) ([]*matching.Match, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT payload FROM matches WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := []*matching.Match{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var m matching.Match
		if err := json.Unmarshal([]byte(payload), &m); err != nil {
			return nil, fmt.Errorf("unmarshal match: %w", err)
		}
		matches = append(matches, &m)
	}

	return matches, rows.Err()
}

func nonNilWarnings(w []matching.Warning) []matching.Warning {
	if w == nil {
		return []matching.Warning{}
	}
	return w
}
