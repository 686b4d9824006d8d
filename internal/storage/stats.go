package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about all stored data.
type DataStats struct {
	TotalExercises     int64             `json:"total_exercises"`
	TotalSessions      int64             `json:"total_sessions"`
	InProgressSessions int64             `json:"in_progress_sessions"`
	TotalExerciseLogs  int64             `json:"total_exercise_logs"`
	TotalSets          int64             `json:"total_sets"`
	EarliestSession    *time.Time        `json:"earliest_session"`
	LatestSession      *time.Time        `json:"latest_session"`
	SessionsByType     []SessionTypeStat `json:"sessions_by_type"`
}

// SessionTypeStat holds the finished session count for one workout type.
type SessionTypeStat struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

func getDataStats(ctx context.Context, q querier) (*DataStats, error) {
	stats := &DataStats{}

	counts := []struct {
		dest  *int64
		what  string
		query string
	}{
		{&stats.TotalExercises, "exercises", `SELECT COUNT(*) FROM exercises`},
		{&stats.TotalSessions, "sessions", `SELECT COUNT(*) FROM workout_sessions WHERE finished_at IS NOT NULL`},
		{&stats.InProgressSessions, "in-progress sessions", `SELECT COUNT(*) FROM workout_sessions WHERE finished_at IS NULL`},
		{&stats.TotalExerciseLogs, "exercise logs", `SELECT COUNT(*) FROM exercise_logs`},
		{&stats.TotalSets, "sets", `SELECT COUNT(*) FROM sets`},
	}
	for _, c := range counts {
		if err := queryRow(ctx, q, c.query, c.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", c.what, err)
		}
	}

	var err error
	if stats.EarliestSession, err = boundarySession(ctx, q, "ASC"); err != nil {
		return nil, fmt.Errorf("querying earliest session: %w", err)
	}
	if stats.LatestSession, err = boundarySession(ctx, q, "DESC"); err != nil {
		return nil, fmt.Errorf("querying latest session: %w", err)
	}

	rows, done, err := q.query(ctx,
		`SELECT type, COUNT(*) FROM workout_sessions
		 WHERE finished_at IS NOT NULL
		 GROUP BY type ORDER BY COUNT(*) DESC, type ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions by type: %w", err)
	}
	defer done()

	for rows.Next() {
		var s SessionTypeStat
		if err := rows.Scan(&s.Type, &s.Count); err != nil {
			return nil, fmt.Errorf("scanning session type stat: %w", err)
		}
		stats.SessionsByType = append(stats.SessionsByType, s)
	}
	return stats, rows.Err()
}

// boundarySession returns the start of the first (ASC) or last (DESC)
// finished session. Text timestamps may carry different offsets, so ordering
// goes through the dialect rather than MIN/MAX.
func boundarySession(ctx context.Context, q querier, dir string) (*time.Time, error) {
	var t nullTime
	err := queryRow(ctx, q, fmt.Sprintf(
		`SELECT started_at FROM workout_sessions WHERE finished_at IS NOT NULL ORDER BY %s %s LIMIT 1`,
		q.dialect().timeExpr("started_at"), dir), &t)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t.ptr(), nil
}

// queryRow scans the first row of sql into dest.
func queryRow(ctx context.Context, q querier, sql string, dest ...any) error {
	return queryRowArgs(ctx, q, sql, nil, dest...)
}

// queryRowArgs is queryRow with bind arguments.
func queryRowArgs(ctx context.Context, q querier, sql string, args []any, dest ...any) error {
	rows, done, err := q.query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer done()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return ErrNotFound
	}
	if err := rows.Scan(dest...); err != nil {
		return err
	}
	return rows.Err()
}
