package importer

import (
	"errors"
	"fmt"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

var (
	// ErrInvalidBackup is returned for files that are not a well-formed backup.
	ErrInvalidBackup = errors.New("invalid backup")
	// ErrUnsupportedVersion is returned for backups of another format version.
	ErrUnsupportedVersion = errors.New("unsupported backup version")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidBackup, fmt.Sprintf(format, args...))
}

// Validate checks the version, that every table is present, and that rows
// reference each other and use known enum tokens. Timestamps must parse.
func Validate(data *models.Export) error {
	if data.Version != models.ExportVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, data.Version)
	}

	tables := []struct {
		name    string
		present bool
	}{
		{"exercises", data.Exercises != nil},
		{"workout_sessions", data.WorkoutSessions != nil},
		{"exercise_logs", data.ExerciseLogs != nil},
		{"sets", data.Sets != nil},
		{"custom_workout_types", data.CustomWorkoutTypes != nil},
	}
	for _, t := range tables {
		if !t.present {
			return invalid("missing %s", t.name)
		}
	}

	exercises := make(map[string]bool, len(data.Exercises))
	for _, e := range data.Exercises {
		if e.ID == "" || e.Name == "" {
			return invalid("exercise %q: id and name are required", e.ID)
		}
		if exercises[e.ID] {
			return invalid("duplicate exercise %s", e.ID)
		}
		exercises[e.ID] = true
		if e.MuscleGroup != nil && *e.MuscleGroup != "" {
			if _, err := models.ParseMuscleGroup(*e.MuscleGroup); err != nil {
				return invalid("exercise %s: %v", e.ID, err)
			}
		}
		if _, err := storage.ParseTimestamp(e.CreatedAt); err != nil {
			return invalid("exercise %s: %v", e.ID, err)
		}
	}

	for _, ct := range data.CustomWorkoutTypes {
		if _, err := storage.ParseTimestamp(ct.CreatedAt); err != nil {
			return invalid("custom workout type %s: %v", ct.ID, err)
		}
	}

	sessions := make(map[string]bool, len(data.WorkoutSessions))
	for _, s := range data.WorkoutSessions {
		if sessions[s.ID] {
			return invalid("duplicate session %s", s.ID)
		}
		sessions[s.ID] = true
		if _, err := models.ParseWorkoutType(s.Type); err != nil {
			return invalid("session %s: %v", s.ID, err)
		}
		started, err := storage.ParseTimestamp(s.StartedAt)
		if err != nil {
			return invalid("session %s: %v", s.ID, err)
		}
		if s.FinishedAt != nil {
			finished, err := storage.ParseTimestamp(*s.FinishedAt)
			if err != nil {
				return invalid("session %s: %v", s.ID, err)
			}
			if finished.Before(started) {
				return invalid("session %s: finished before it started", s.ID)
			}
		}
		if s.Rating != nil && (*s.Rating < 1 || *s.Rating > 5) {
			return invalid("session %s: rating %d out of range", s.ID, *s.Rating)
		}
	}

	logs := make(map[string]bool, len(data.ExerciseLogs))
	for _, l := range data.ExerciseLogs {
		if logs[l.ID] {
			return invalid("duplicate exercise log %s", l.ID)
		}
		logs[l.ID] = true
		if !sessions[l.SessionID] {
			return invalid("exercise log %s: unknown session %q", l.ID, l.SessionID)
		}
		if !exercises[l.ExerciseID] {
			return invalid("exercise log %s: unknown exercise %q", l.ID, l.ExerciseID)
		}
		if l.WeightFactor <= 0 {
			return invalid("exercise log %s: weight factor must be positive", l.ID)
		}
	}

	seen := make(map[string]bool, len(data.Sets))
	for _, s := range data.Sets {
		if seen[s.ID] {
			return invalid("duplicate set %s", s.ID)
		}
		seen[s.ID] = true
		if !logs[s.ExerciseLogID] {
			return invalid("set %s: unknown exercise log %q", s.ID, s.ExerciseLogID)
		}
		if _, err := models.ParseSetStatus(s.Status); err != nil {
			return invalid("set %s: %v", s.ID, err)
		}
	}

	return nil
}
