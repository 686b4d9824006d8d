package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meltforce/liftlog/internal/models"
)

// DB wraps a pgxpool.Pool and provides the Postgres implementation of the
// read queries.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new DB with a connection pool.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}

func (db *DB) query(ctx context.Context, sql string, args ...any) (rowIter, func(), error) {
	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, nil, err
	}
	return rows, rows.Close, nil
}

func (db *DB) exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (db *DB) dialect() dialect { return postgresDialect }

// pgTx runs the shared statements inside a pgx transaction.
type pgTx struct {
	tx pgx.Tx
}

func (t pgTx) query(ctx context.Context, sql string, args ...any) (rowIter, func(), error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, nil, err
	}
	return rows, rows.Close, nil
}

func (t pgTx) exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := t.tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (pgTx) dialect() dialect { return postgresDialect }

// FinishedSessions lists completed sessions matching f.
func (db *DB) FinishedSessions(ctx context.Context, f SessionFilter) ([]models.WorkoutSession, error) {
	return querySessions(ctx, db, f)
}

// GetSession returns the session with the given id, finished or not.
func (db *DB) GetSession(ctx context.Context, id string) (*models.WorkoutSession, error) {
	return getSession(ctx, db, id)
}

// QuerySetFacts returns one row per set matching f.
func (db *DB) QuerySetFacts(ctx context.Context, f SetFilter) ([]models.SetFact, error) {
	return querySetFacts(ctx, db, f)
}

// QueryExerciseUsage counts the exercise logs per exercise matching f.
func (db *DB) QueryExerciseUsage(ctx context.Context, f SetFilter) ([]ExerciseUsage, error) {
	return queryExerciseUsage(ctx, db, f)
}

// GetDataStats returns aggregate counts over the stored data.
func (db *DB) GetDataStats(ctx context.Context) (*DataStats, error) {
	return getDataStats(ctx, db)
}

// ListExercises returns the exercise catalog ordered by name.
func (db *DB) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	return listExercises(ctx, db)
}

// ImportBackup applies a backup in a single transaction.
func (db *DB) ImportBackup(ctx context.Context, data *models.Export, mode ImportMode) (*ImportResult, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning import: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res, err := importBackup(ctx, pgTx{tx: tx}, data, mode)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}
	return res, nil
}

// ExportBackup reads the whole store in the backup format.
func (db *DB) ExportBackup(ctx context.Context, now time.Time) (*models.Export, error) {
	return exportBackup(ctx, db, now)
}

// InsertImportLog creates a new import log entry and returns its ID.
func (db *DB) InsertImportLog(ctx context.Context, l ImportLog) (int64, error) {
	return insertImportLog(ctx, db, l)
}

// UpdateImportLog updates an existing import log entry.
func (db *DB) UpdateImportLog(ctx context.Context, id int64, l ImportLog) error {
	return updateImportLog(ctx, db, id, l)
}

// QueryImportLogs returns the most recent import logs.
func (db *DB) QueryImportLogs(ctx context.Context, limit int) ([]ImportLog, error) {
	return queryImportLogs(ctx, db, limit)
}
