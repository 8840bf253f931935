// Package history keeps a local ledger of past builds in a SQLite
// file so users can answer "what did I build last week, with what".
package history

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kforge/kforge/src/common/errors"
	"github.com/kforge/kforge/src/common/logs"
	"github.com/kforge/kforge/src/common/paths"
)

var log = logs.NewDefault()

// SetLogger replaces the package logger.
func SetLogger(logger *logs.Logger) {
	log = logger
}

// Record is one build ledger row.
type Record struct {
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"started_at"`
	DurationMs    int64     `json:"duration_ms"`
	Arch          string    `json:"arch"`
	Compiler      string    `json:"compiler"`
	Defconfigs    []string  `json:"defconfigs"`
	KernelRelease string    `json:"kernel_release"`
	ImagePath     string    `json:"image_path"`
	Revision      string    `json:"revision"`
	Status        string    `json:"status"`
	ExitCode      int       `json:"exit_code"`
}

// Ledger wraps the SQLite connection holding the build history.
type Ledger struct {
	db   *sql.DB
	path string
}

// Open opens, creating when needed, the ledger database at path and
// ensures the schema exists.
func Open(path string) (*Ledger, error) {
	if err := paths.EnsureDir(path); err != nil {
		return nil, errors.ErrHistoryOpen.WithCause(err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.ErrHistoryOpen.WithCause(err)
	}

	ledger := &Ledger{db: db, path: path}
	if err := ledger.initSchema(); err != nil {
		db.Close()
		return nil, errors.ErrHistoryOpen.WithCause(err)
	}
	return ledger, nil
}

// Close releases the database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		arch TEXT NOT NULL,
		compiler TEXT NOT NULL,
		defconfigs TEXT NOT NULL,
		kernel_release TEXT,
		image_path TEXT,
		revision TEXT,
		status TEXT NOT NULL,
		exit_code INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at);
	`

	_, err := l.db.Exec(schema)
	return err
}

// Append inserts one build record, generating its id when empty.
func (l *Ledger) Append(rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	query := `
	INSERT INTO builds (id, started_at, duration_ms, arch, compiler, defconfigs,
		kernel_release, image_path, revision, status, exit_code)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := l.db.Exec(query,
		rec.ID, rec.StartedAt.UTC(), rec.DurationMs, rec.Arch, rec.Compiler,
		strings.Join(rec.Defconfigs, ","), rec.KernelRelease, rec.ImagePath,
		rec.Revision, rec.Status, rec.ExitCode)
	if err != nil {
		return errors.ErrHistoryQuery.WithCause(err)
	}
	return nil
}

// List returns the most recent records, newest first.
func (l *Ledger) List(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
	SELECT id, started_at, duration_ms, arch, compiler, defconfigs,
		kernel_release, image_path, revision, status, exit_code
	FROM builds ORDER BY started_at DESC LIMIT ?`

	rows, err := l.db.Query(query, limit)
	if err != nil {
		return nil, errors.ErrHistoryQuery.WithCause(err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var defconfigs string
		if err := rows.Scan(&rec.ID, &rec.StartedAt, &rec.DurationMs, &rec.Arch,
			&rec.Compiler, &defconfigs, &rec.KernelRelease, &rec.ImagePath,
			&rec.Revision, &rec.Status, &rec.ExitCode); err != nil {
			return nil, errors.ErrHistoryQuery.WithCause(err)
		}
		if defconfigs != "" {
			rec.Defconfigs = strings.Split(defconfigs, ",")
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// RecordBuild appends a record to the ledger at path, opening and
// closing it around the single insert. Ledger problems are logged and
// swallowed: the build result must never depend on bookkeeping.
func RecordBuild(path string, rec *Record) {
	ledger, err := Open(path)
	if err != nil {
		log.Warn("Cannot open build history", "path", path, "error", err)
		return
	}
	defer ledger.Close()

	if err := ledger.Append(rec); err != nil {
		log.Warn("Cannot record build history", "error", err)
	}
}

// StatusFor renders the ledger status string for an exit code.
func StatusFor(exitCode int) string {
	switch exitCode {
	case 0:
		return "ok"
	case errors.ExitArtifactNotFound:
		return "no-artifact"
	default:
		return "failed"
	}
}
