package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	_ "modernc.org/sqlite"
)

// SQLite is the embedded backend, reading the database file the mobile app
// syncs.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens or creates the SQLite database at the given path.
// It creates the parent directory if it does not exist.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	// Connection-scoped pragmas go in the DSN so every pooled connection
	// gets them.
	conn, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("enabling WAL: %w", err)
	}

	return &SQLite{conn: conn}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// Conn returns the underlying sql.DB for advanced queries.
func (s *SQLite) Conn() *sql.DB {
	return s.conn
}

func (s *SQLite) query(ctx context.Context, q string, args ...any) (rowIter, func(), error) {
	rows, err := s.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, nil, err
	}
	return rows, func() { _ = rows.Close() }, nil
}

func (s *SQLite) exec(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := s.conn.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLite) dialect() dialect { return sqliteDialect }

// sqliteTx runs the shared statements inside a database/sql transaction.
type sqliteTx struct {
	tx *sql.Tx
}

func (t sqliteTx) query(ctx context.Context, q string, args ...any) (rowIter, func(), error) {
	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, nil, err
	}
	return rows, func() { _ = rows.Close() }, nil
}

func (t sqliteTx) exec(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := t.tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (sqliteTx) dialect() dialect { return sqliteDialect }

// FinishedSessions lists completed sessions matching f.
func (s *SQLite) FinishedSessions(ctx context.Context, f SessionFilter) ([]models.WorkoutSession, error) {
	return querySessions(ctx, s, f)
}

// GetSession returns the session with the given id, finished or not.
func (s *SQLite) GetSession(ctx context.Context, id string) (*models.WorkoutSession, error) {
	return getSession(ctx, s, id)
}

// QuerySetFacts returns one row per set matching f.
func (s *SQLite) QuerySetFacts(ctx context.Context, f SetFilter) ([]models.SetFact, error) {
	return querySetFacts(ctx, s, f)
}

// QueryExerciseUsage counts the exercise logs per exercise matching f.
func (s *SQLite) QueryExerciseUsage(ctx context.Context, f SetFilter) ([]ExerciseUsage, error) {
	return queryExerciseUsage(ctx, s, f)
}

// GetDataStats returns aggregate counts over the stored data.
func (s *SQLite) GetDataStats(ctx context.Context) (*DataStats, error) {
	return getDataStats(ctx, s)
}

// ListExercises returns the exercise catalog ordered by name.
func (s *SQLite) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	return listExercises(ctx, s)
}

// ImportBackup applies a backup in a single transaction.
func (s *SQLite) ImportBackup(ctx context.Context, data *models.Export, mode ImportMode) (*ImportResult, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := importBackup(ctx, sqliteTx{tx: tx}, data, mode)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}
	return res, nil
}

// ExportBackup reads the whole store in the backup format.
func (s *SQLite) ExportBackup(ctx context.Context, now time.Time) (*models.Export, error) {
	return exportBackup(ctx, s, now)
}

// InsertImportLog creates a new import log entry and returns its ID.
func (s *SQLite) InsertImportLog(ctx context.Context, l ImportLog) (int64, error) {
	return insertImportLog(ctx, s, l)
}

// UpdateImportLog updates an existing import log entry.
func (s *SQLite) UpdateImportLog(ctx context.Context, id int64, l ImportLog) error {
	return updateImportLog(ctx, s, id, l)
}

// QueryImportLogs returns the most recent import logs.
func (s *SQLite) QueryImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	return queryImportLogs(ctx, s, limit)
}
