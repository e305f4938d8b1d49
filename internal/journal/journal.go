// Package journal records every tool invocation twice: as an append-only
// JSONL stream under logs/ for grepping, and in a sqlite table for
// retention sweeps and ad-hoc queries. Recording is best-effort; a journal
// failure never fails the operation it describes.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/basket/taskmd/internal/shared"
)

const schema = `
CREATE TABLE IF NOT EXISTS operations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	tool TEXT NOT NULL,
	project TEXT,
	outcome TEXT NOT NULL,
	detail TEXT,
	trace_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_operations_timestamp ON operations(timestamp);
`

// Entry is one recorded tool invocation.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Tool      string `json:"tool"`
	Project   string `json:"project,omitempty"`
	Outcome   string `json:"outcome"`
	Detail    string `json:"detail,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// Journal persists operation entries. Safe for concurrent use.
type Journal struct {
	mu     sync.Mutex
	file   *os.File
	db     *sql.DB
	logger *slog.Logger
}

// Open creates logs/journal.jsonl and journal.db under homeDir.
func Open(homeDir string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logDir := filepath.Join(homeDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(filepath.Join(logDir, "journal.jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal file: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(homeDir, "journal.db")+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		file.Close()
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}

	return &Journal{file: file, db: db, logger: logger}, nil
}

// Record persists one entry. The timestamp is filled in when empty and the
// detail is redacted before it is written. Failures are logged and dropped.
func (j *Journal) Record(ctx context.Context, e Entry) {
	if e.Timestamp == "" {
		e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	e.Detail = shared.Redact(e.Detail)

	j.mu.Lock()
	defer j.mu.Unlock()

	if b, err := json.Marshal(e); err == nil {
		if _, err := j.file.Write(append(b, '\n')); err != nil {
			j.logger.Warn("journal file write failed", "error", err)
		}
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO operations (timestamp, tool, project, outcome, detail, trace_id)
		VALUES (?, ?, ?, ?, ?, ?);
	`, e.Timestamp, e.Tool, e.Project, e.Outcome, e.Detail, e.TraceID)
	if err != nil {
		j.logger.Warn("journal db write failed", "error", err)
	}
}

// Sweep deletes entries older than the given age from the database and
// returns how many were removed. The JSONL stream is append-only and left
// to external log rotation.
func (j *Journal) Sweep(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339Nano)
	res, err := j.db.ExecContext(ctx, `DELETE FROM operations WHERE timestamp < ?;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("journal sweep: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		j.logger.Info("journal swept", "removed", n, "older_than", olderThan.String())
	}
	return n, nil
}

// Count returns the number of stored entries.
func (j *Journal) Count(ctx context.Context) (int64, error) {
	var n int64
	err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM operations;`).Scan(&n)
	return n, err
}

// Close flushes and closes the file and database.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	fErr := j.file.Close()
	dErr := j.db.Close()
	if fErr != nil {
		return fErr
	}
	return dErr
}
