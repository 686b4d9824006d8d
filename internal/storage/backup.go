package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/meltforce/liftlog/internal/models"
)

// ImportMode selects how a backup is applied to the store.
type ImportMode string

const (
	// ImportMerge keeps existing rows, skips rows whose id already exists and
	// reuses local exercises with the same name and muscle group.
	ImportMerge ImportMode = "merge"
	// ImportReplace empties every table before inserting the backup.
	ImportReplace ImportMode = "replace"
)

// ErrInvalidImportMode is returned for an unknown import mode token.
var ErrInvalidImportMode = errors.New("invalid import mode")

// ParseImportMode converts a user-supplied token. The empty string means merge.
func ParseImportMode(s string) (ImportMode, error) {
	switch m := ImportMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ImportMerge, nil
	case ImportMerge, ImportReplace:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidImportMode, s)
}

// ImportResult counts the rows written by one backup import.
type ImportResult struct {
	ExercisesInserted   int `json:"exercises_inserted"`
	ExercisesRemapped   int `json:"exercises_remapped"`
	CustomTypesInserted int `json:"custom_types_inserted"`
	SessionsInserted    int `json:"sessions_inserted"`
	LogsInserted        int `json:"logs_inserted"`
	SetsInserted        int `json:"sets_inserted"`
}

// execQuerier is a querier that can also write.
type execQuerier interface {
	querier
	exec(ctx context.Context, sql string, args ...any) (int64, error)
}

// Tables in foreign key order. Deletes walk it backwards.
var backupTables = []string{"exercises", "custom_workout_types", "workout_sessions", "exercise_logs", "sets"}

func insertSQL(d dialect, table string, cols []string, skipExisting bool) string {
	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = d.placeholder(i + 1)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), strings.Join(ph, ", "))
	if skipExisting {
		q += " ON CONFLICT (id) DO NOTHING"
	}
	return q
}

// exerciseKey identifies an exercise across devices for merge imports.
func exerciseKey(name string, group *string) string {
	if group == nil {
		return name + "\x00"
	}
	return name + "|" + *group
}

// ParseTimestamp parses a timestamp as written in backups or by either
// backend.
func ParseTimestamp(s string) (time.Time, error) {
	var n nullTime
	if err := n.parse(s); err != nil {
		return time.Time{}, err
	}
	return n.Time, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func timestampArg(d dialect, s string) (any, error) {
	t, err := ParseTimestamp(s)
	if err != nil {
		return nil, err
	}
	return d.timeArg(t), nil
}

func optionalTimestampArg(d dialect, s *string) (any, error) {
	if s == nil {
		return nil, nil
	}
	return timestampArg(d, *s)
}

// importBackup writes data through q, which must be scoped to a single
// transaction.
func importBackup(ctx context.Context, q execQuerier, data *models.Export, mode ImportMode) (*ImportResult, error) {
	d := q.dialect()
	merge := mode == ImportMerge
	res := &ImportResult{}

	if !merge {
		for i := len(backupTables) - 1; i >= 0; i-- {
			if _, err := q.exec(ctx, "DELETE FROM "+backupTables[i]); err != nil {
				return nil, fmt.Errorf("clearing %s: %w", backupTables[i], err)
			}
		}
	}

	known := map[string]string{}
	if merge {
		var err error
		if known, err = exerciseKeys(ctx, q); err != nil {
			return nil, err
		}
	}

	remap := make(map[string]string, len(data.Exercises))
	insertExercise := insertSQL(d, "exercises",
		[]string{"id", "name", "muscle_group", "is_cable", "created_at"}, merge)
	for _, e := range data.Exercises {
		key := exerciseKey(e.Name, e.MuscleGroup)
		if id, ok := known[key]; ok && merge {
			remap[e.ID] = id
			res.ExercisesRemapped++
			continue
		}
		created, err := timestampArg(d, e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("exercise %s: %w", e.ID, err)
		}
		n, err := q.exec(ctx, insertExercise, e.ID, e.Name, e.MuscleGroup, e.IsCable != 0, created)
		if err != nil {
			return nil, fmt.Errorf("inserting exercise %s: %w", e.ID, err)
		}
		remap[e.ID] = e.ID
		known[key] = e.ID
		res.ExercisesInserted += int(n)
	}

	insertType := insertSQL(d, "custom_workout_types", []string{"id", "name", "created_at"}, merge)
	for _, ct := range data.CustomWorkoutTypes {
		created, err := timestampArg(d, ct.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("custom workout type %s: %w", ct.ID, err)
		}
		n, err := q.exec(ctx, insertType, ct.ID, ct.Name, created)
		if err != nil {
			return nil, fmt.Errorf("inserting custom workout type %s: %w", ct.ID, err)
		}
		res.CustomTypesInserted += int(n)
	}

	insertSession := insertSQL(d, "workout_sessions", []string{
		"id", "type", "label", "started_at", "finished_at", "rating",
		"avg_heart_rate", "max_heart_rate", "calories",
	}, merge)
	for _, s := range data.WorkoutSessions {
		started, err := timestampArg(d, s.StartedAt)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", s.ID, err)
		}
		finished, err := optionalTimestampArg(d, s.FinishedAt)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", s.ID, err)
		}
		n, err := q.exec(ctx, insertSession, s.ID, s.Type, s.Label, started, finished, s.Rating,
			s.AvgHeartRate, s.MaxHeartRate, s.Calories)
		if err != nil {
			return nil, fmt.Errorf("inserting session %s: %w", s.ID, err)
		}
		res.SessionsInserted += int(n)
	}

	insertLog := insertSQL(d, "exercise_logs", []string{
		"id", "session_id", "exercise_id", "target_reps", `"order"`, "comment", "weight_factor",
	}, merge)
	for _, l := range data.ExerciseLogs {
		exerciseID := l.ExerciseID
		if id, ok := remap[exerciseID]; ok {
			exerciseID = id
		}
		n, err := q.exec(ctx, insertLog, l.ID, l.SessionID, exerciseID, l.TargetReps, l.Order, l.Comment, l.WeightFactor)
		if err != nil {
			return nil, fmt.Errorf("inserting exercise log %s: %w", l.ID, err)
		}
		res.LogsInserted += int(n)
	}

	insertSet := insertSQL(d, "sets", []string{
		"id", "exercise_log_id", "weight", "reps", "status", `"order"`, "muscle_failure",
	}, merge)
	for _, s := range data.Sets {
		n, err := q.exec(ctx, insertSet, s.ID, s.ExerciseLogID, s.Weight, s.Reps, s.Status, s.Order, s.MuscleFailure != 0)
		if err != nil {
			return nil, fmt.Errorf("inserting set %s: %w", s.ID, err)
		}
		res.SetsInserted += int(n)
	}

	return res, nil
}

// exerciseKeys maps name and muscle group to the local exercise id.
func exerciseKeys(ctx context.Context, q querier) (map[string]string, error) {
	rows, done, err := q.query(ctx, `SELECT id, name, muscle_group FROM exercises ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying exercise keys: %w", err)
	}
	defer done()

	keys := map[string]string{}
	for rows.Next() {
		var (
			id, name string
			group    *string
		)
		if err := rows.Scan(&id, &name, &group); err != nil {
			return nil, fmt.Errorf("scanning exercise key: %w", err)
		}
		key := exerciseKey(name, group)
		if _, ok := keys[key]; !ok {
			keys[key] = id
		}
	}
	return keys, rows.Err()
}

// exportBackup reads every table into the backup format. Slices are never
// nil so the result is always importable.
func exportBackup(ctx context.Context, q querier, now time.Time) (*models.Export, error) {
	out := &models.Export{
		Version:            models.ExportVersion,
		ExportedAt:         formatTimestamp(now),
		Exercises:          []models.ExportExercise{},
		WorkoutSessions:    []models.ExportSession{},
		ExerciseLogs:       []models.ExportLog{},
		Sets:               []models.ExportSet{},
		CustomWorkoutTypes: []models.ExportCustomType{},
	}

	err := eachRow(ctx, q, "exercises",
		`SELECT id, name, muscle_group, is_cable, created_at FROM exercises ORDER BY id ASC`,
		func(scan func(...any) error) error {
			var (
				e       models.ExportExercise
				cable   bool
				created nullTime
			)
			if err := scan(&e.ID, &e.Name, &e.MuscleGroup, &cable, &created); err != nil {
				return err
			}
			e.IsCable = boolInt(cable)
			e.CreatedAt = formatTimestamp(created.Time)
			out.Exercises = append(out.Exercises, e)
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = eachRow(ctx, q, "custom workout types",
		`SELECT id, name, created_at FROM custom_workout_types ORDER BY id ASC`,
		func(scan func(...any) error) error {
			var (
				ct      models.ExportCustomType
				created nullTime
			)
			if err := scan(&ct.ID, &ct.Name, &created); err != nil {
				return err
			}
			ct.CreatedAt = formatTimestamp(created.Time)
			out.CustomWorkoutTypes = append(out.CustomWorkoutTypes, ct)
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = eachRow(ctx, q, "sessions",
		`SELECT id, type, label, started_at, finished_at, rating, avg_heart_rate, max_heart_rate, calories
		 FROM workout_sessions ORDER BY id ASC`,
		func(scan func(...any) error) error {
			var (
				s                 models.ExportSession
				started, finished nullTime
			)
			if err := scan(&s.ID, &s.Type, &s.Label, &started, &finished, &s.Rating,
				&s.AvgHeartRate, &s.MaxHeartRate, &s.Calories); err != nil {
				return err
			}
			s.StartedAt = formatTimestamp(started.Time)
			if finished.Valid {
				f := formatTimestamp(finished.Time)
				s.FinishedAt = &f
			}
			out.WorkoutSessions = append(out.WorkoutSessions, s)
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = eachRow(ctx, q, "exercise logs",
		`SELECT id, session_id, exercise_id, target_reps, "order", comment, weight_factor
		 FROM exercise_logs ORDER BY id ASC`,
		func(scan func(...any) error) error {
			var l models.ExportLog
			if err := scan(&l.ID, &l.SessionID, &l.ExerciseID, &l.TargetReps, &l.Order, &l.Comment, &l.WeightFactor); err != nil {
				return err
			}
			out.ExerciseLogs = append(out.ExerciseLogs, l)
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = eachRow(ctx, q, "sets",
		`SELECT id, exercise_log_id, weight, reps, status, "order", muscle_failure
		 FROM sets ORDER BY id ASC`,
		func(scan func(...any) error) error {
			var (
				s       models.ExportSet
				failure bool
			)
			if err := scan(&s.ID, &s.ExerciseLogID, &s.Weight, &s.Reps, &s.Status, &s.Order, &failure); err != nil {
				return err
			}
			s.MuscleFailure = boolInt(failure)
			out.Sets = append(out.Sets, s)
			return nil
		})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// eachRow runs sql and hands every row's Scan to fn.
func eachRow(ctx context.Context, q querier, what, sql string, fn func(scan func(...any) error) error) error {
	rows, done, err := q.query(ctx, sql)
	if err != nil {
		return fmt.Errorf("querying %s: %w", what, err)
	}
	defer done()

	for rows.Next() {
		if err := fn(rows.Scan); err != nil {
			return fmt.Errorf("scanning %s: %w", what, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating %s: %w", what, err)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
