package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Import log statuses.
const (
	ImportRunning = "running"
	ImportSuccess = "success"
	ImportError   = "error"
)

// ImportLog represents a single backup import's outcome.
type ImportLog struct {
	ID                int64      `json:"id"`
	CreatedAt         time.Time  `json:"created_at"`
	Source            string     `json:"source"`
	Mode              ImportMode `json:"mode"`
	Status            string     `json:"status"`
	ExercisesReceived int        `json:"exercises_received"`
	ExercisesInserted int        `json:"exercises_inserted"`
	SessionsReceived  int        `json:"sessions_received"`
	SessionsInserted  int        `json:"sessions_inserted"`
	SetsReceived      int        `json:"sets_received"`
	SetsInserted      int        `json:"sets_inserted"`
	DurationMs        *int       `json:"duration_ms"`
	ErrorMessage      *string    `json:"error_message"`
}

func insertImportLog(ctx context.Context, q querier, l ImportLog) (int64, error) {
	d := q.dialect()
	sql := insertSQL(d, "import_logs", []string{
		"source", "mode", "status", "exercises_received", "exercises_inserted",
		"sessions_received", "sessions_inserted", "sets_received", "sets_inserted",
		"duration_ms", "error_message",
	}, false) + " RETURNING id"

	var id int64
	err := queryRowArgs(ctx, q, sql, []any{
		l.Source, string(l.Mode), l.Status, l.ExercisesReceived, l.ExercisesInserted,
		l.SessionsReceived, l.SessionsInserted, l.SetsReceived, l.SetsInserted,
		l.DurationMs, l.ErrorMessage,
	}, &id)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return id, nil
}

// updateImportLog overwrites the outcome columns, typically moving a log from
// running to success or error.
func updateImportLog(ctx context.Context, q execQuerier, id int64, l ImportLog) error {
	d := q.dialect()
	cols := []string{
		"status", "exercises_received", "exercises_inserted", "sessions_received",
		"sessions_inserted", "sets_received", "sets_inserted", "duration_ms", "error_message",
	}
	set := make([]string, len(cols))
	for i, c := range cols {
		set[i] = c + " = " + d.placeholder(i+1)
	}
	sql := fmt.Sprintf("UPDATE import_logs SET %s WHERE id = %s", strings.Join(set, ", "), d.placeholder(len(cols)+1))

	_, err := q.exec(ctx, sql,
		l.Status, l.ExercisesReceived, l.ExercisesInserted, l.SessionsReceived,
		l.SessionsInserted, l.SetsReceived, l.SetsInserted, l.DurationMs, l.ErrorMessage,
		id,
	)
	if err != nil {
		return fmt.Errorf("updating import log %d: %w", id, err)
	}
	return nil
}

// queryImportLogs returns the most recent import logs, newest first.
func queryImportLogs(ctx context.Context, q querier, limit int) ([]ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, done, err := q.query(ctx,
		`SELECT id, created_at, source, mode, status, exercises_received, exercises_inserted,
		 sessions_received, sessions_inserted, sets_received, sets_inserted, duration_ms, error_message
		 FROM import_logs
		 ORDER BY id DESC
		 LIMIT `+q.dialect().placeholder(1),
		limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer done()

	var result []ImportLog
	for rows.Next() {
		var (
			l       ImportLog
			created nullTime
			mode    string
		)
		if err := rows.Scan(&l.ID, &created, &l.Source, &mode, &l.Status,
			&l.ExercisesReceived, &l.ExercisesInserted, &l.SessionsReceived, &l.SessionsInserted,
			&l.SetsReceived, &l.SetsInserted, &l.DurationMs, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		l.CreatedAt = created.Time
		l.Mode = ImportMode(mode)
		result = append(result, l)
	}
	return result, rows.Err()
}
