package storage

import (
	"context"
	"fmt"

	"github.com/meltforce/liftlog/internal/models"
)

// setFilterWhere applies f to the ws (session) and el (exercise log) aliases.
func setFilterWhere(d dialect, f SetFilter) *whereBuilder {
	w := newWhere(d)
	if !f.IncludeUnfinished {
		w.raw("ws.finished_at IS NOT NULL")
	}
	if f.Since != nil {
		w.compareTime("ws.started_at", ">=", *f.Since)
	}
	if f.Until != nil {
		w.compareTime("ws.started_at", "<", *f.Until)
	}
	if f.Type != "" {
		w.eq("ws.type", string(f.Type))
	}
	if f.ExerciseID != "" {
		w.eq("el.exercise_id", f.ExerciseID)
	}
	if f.SessionID != "" {
		w.eq("ws.id", f.SessionID)
	}
	return w
}

func querySetFacts(ctx context.Context, q querier, f SetFilter) ([]models.SetFact, error) {
	w := setFilterWhere(q.dialect(), f)
	sql := `SELECT ws.id, ws.type, ws.label, ws.started_at, ws.finished_at,
		 el.id, el."order", el.weight_factor,
		 e.id, e.name, e.muscle_group,
		 s.id, s.weight, s.reps, s.status, s."order", s.muscle_failure
		 FROM sets s
		 JOIN exercise_logs el ON s.exercise_log_id = el.id
		 JOIN workout_sessions ws ON el.session_id = ws.id
		 JOIN exercises e ON el.exercise_id = e.id` + w.String() +
		fmt.Sprintf(` ORDER BY %s ASC, ws.id ASC, el."order" ASC, el.id ASC, s."order" ASC, s.id ASC`,
			w.d.timeExpr("ws.started_at"))

	rows, done, err := q.query(ctx, sql, w.args...)
	if err != nil {
		return nil, fmt.Errorf("querying set facts: %w", err)
	}
	defer done()

	return scanSetFactRows(rows)
}

func scanSetFactRows(rows rowIter) ([]models.SetFact, error) {
	var result []models.SetFact
	for rows.Next() {
		var (
			f                 models.SetFact
			typ, status       string
			muscle            *string
			started, finished nullTime
		)
		if err := rows.Scan(&f.SessionID, &typ, &f.SessionLabel, &started, &finished,
			&f.LogID, &f.LogOrder, &f.WeightFactor,
			&f.ExerciseID, &f.ExerciseName, &muscle,
			&f.SetID, &f.Weight, &f.Reps, &status, &f.SetOrder, &f.MuscleFailure); err != nil {
			return nil, fmt.Errorf("scanning set fact: %w", err)
		}

		var err error
		if f.SessionType, err = models.ParseWorkoutType(typ); err != nil {
			return nil, fmt.Errorf("session %s: %w", f.SessionID, err)
		}
		if f.Status, err = models.ParseSetStatus(status); err != nil {
			return nil, fmt.Errorf("set %s: %w", f.SetID, err)
		}
		if muscle != nil && *muscle != "" {
			g, err := models.ParseMuscleGroup(*muscle)
			if err != nil {
				return nil, fmt.Errorf("exercise %s: %w", f.ExerciseID, err)
			}
			f.MuscleGroup = &g
		}
		f.StartedAt = started.Time
		f.FinishedAt = finished.ptr()
		result = append(result, f)
	}
	return result, rows.Err()
}

// queryExerciseUsage counts exercise logs per exercise, including logs with no
// sets.
func queryExerciseUsage(ctx context.Context, q querier, f SetFilter) ([]ExerciseUsage, error) {
	w := setFilterWhere(q.dialect(), f)
	sql := `SELECT e.id, e.name, e.muscle_group, COUNT(DISTINCT el.id)
		 FROM exercise_logs el
		 JOIN workout_sessions ws ON el.session_id = ws.id
		 JOIN exercises e ON el.exercise_id = e.id` + w.String() +
		` GROUP BY e.id, e.name, e.muscle_group ORDER BY e.id ASC`

	rows, done, err := q.query(ctx, sql, w.args...)
	if err != nil {
		return nil, fmt.Errorf("querying exercise usage: %w", err)
	}
	defer done()

	var result []ExerciseUsage
	for rows.Next() {
		var (
			u      ExerciseUsage
			muscle *string
		)
		if err := rows.Scan(&u.ExerciseID, &u.ExerciseName, &muscle, &u.Logs); err != nil {
			return nil, fmt.Errorf("scanning exercise usage: %w", err)
		}
		if muscle != nil && *muscle != "" {
			g, err := models.ParseMuscleGroup(*muscle)
			if err != nil {
				return nil, fmt.Errorf("exercise %s: %w", u.ExerciseID, err)
			}
			u.MuscleGroup = &g
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func listExercises(ctx context.Context, q querier) ([]models.Exercise, error) {
	rows, done, err := q.query(ctx,
		`SELECT id, name, muscle_group, is_cable, created_at FROM exercises ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer done()

	var result []models.Exercise
	for rows.Next() {
		var (
			e       models.Exercise
			muscle  *string
			created nullTime
		)
		if err := rows.Scan(&e.ID, &e.Name, &muscle, &e.IsCable, &created); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		if muscle != nil && *muscle != "" {
			g, err := models.ParseMuscleGroup(*muscle)
			if err != nil {
				return nil, fmt.Errorf("exercise %s: %w", e.ID, err)
			}
			e.MuscleGroup = &g
		}
		e.CreatedAt = created.Time
		result = append(result, e)
	}
	return result, rows.Err()
}
