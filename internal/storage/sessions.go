package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/meltforce/liftlog/internal/models"
)

const sessionColumns = `id, type, label, started_at, finished_at, rating,
	avg_heart_rate, max_heart_rate, calories`

func querySessions(ctx context.Context, q querier, f SessionFilter) ([]models.WorkoutSession, error) {
	w := newWhere(q.dialect())
	w.raw("finished_at IS NOT NULL")
	if f.Since != nil {
		w.compareTime("started_at", ">=", *f.Since)
	}
	if f.Until != nil {
		w.compareTime("started_at", "<", *f.Until)
	}
	if f.Type != "" {
		w.eq("type", string(f.Type))
	}

	dir := "ASC"
	if f.Newest {
		dir = "DESC"
	}
	sql := `SELECT ` + sessionColumns + ` FROM workout_sessions` + w.String() +
		fmt.Sprintf(" ORDER BY %s %s, id %s", w.d.timeExpr("started_at"), dir, dir)
	if f.Limit > 0 {
		sql += " LIMIT " + w.bind(f.Limit)
	}

	rows, done, err := q.query(ctx, sql, w.args...)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer done()

	return scanSessionRows(rows)
}

func getSession(ctx context.Context, q querier, id string) (*models.WorkoutSession, error) {
	w := newWhere(q.dialect())
	w.eq("id", id)

	rows, done, err := q.query(ctx, `SELECT `+sessionColumns+` FROM workout_sessions`+w.String(), w.args...)
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	defer done()

	sessions, err := scanSessionRows(rows)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return &sessions[0], nil
}

func scanSessionRows(rows rowIter) ([]models.WorkoutSession, error) {
	var result []models.WorkoutSession
	for rows.Next() {
		var (
			s                 models.WorkoutSession
			typ               string
			started, finished nullTime
		)
		if err := rows.Scan(&s.ID, &typ, &s.Label, &started, &finished, &s.Rating,
			&s.AvgHeartRate, &s.MaxHeartRate, &s.Calories); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		t, err := models.ParseWorkoutType(typ)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", s.ID, err)
		}
		if !started.Valid {
			return nil, fmt.Errorf("session %s: missing started_at", s.ID)
		}
		s.Type = t
		s.StartedAt = started.Time
		s.FinishedAt = finished.ptr()
		result = append(result, s)
	}
	return result, rows.Err()
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
