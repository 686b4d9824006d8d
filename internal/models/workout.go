package models

import "time"

// Exercise is a catalog entry.
type Exercise struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	MuscleGroup *MuscleGroup `json:"muscle_group,omitempty"`
	IsCable     bool         `json:"is_cable"`
	CreatedAt   time.Time    `json:"created_at"`
}

// WorkoutSession is one training session. FinishedAt is nil while the
// session is in progress.
type WorkoutSession struct {
	ID           string      `json:"id"`
	Type         WorkoutType `json:"type"`
	Label        *string     `json:"label,omitempty"`
	StartedAt    time.Time   `json:"started_at"`
	FinishedAt   *time.Time  `json:"finished_at,omitempty"`
	Rating       *int        `json:"rating,omitempty"`
	AvgHeartRate *float64    `json:"avg_heart_rate,omitempty"`
	MaxHeartRate *float64    `json:"max_heart_rate,omitempty"`
	Calories     *float64    `json:"calories,omitempty"`
}

// Finished reports whether the session has been completed.
func (s WorkoutSession) Finished() bool {
	return s.FinishedAt != nil
}

// DurationMinutes returns the minutes between start and finish, or 0 for an
// in-progress session.
func (s WorkoutSession) DurationMinutes() float64 {
	if s.FinishedAt == nil {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt).Minutes()
}

// ExerciseLog is one exercise performed within one session.
type ExerciseLog struct {
	ID           string
	SessionID    string
	ExerciseID   string
	Order        int
	Comment      *string
	WeightFactor float64
}

// Set is one performed set. Weight is the raw recorded weight.
type Set struct {
	ID            string
	ExerciseLogID string
	Weight        float64
	Reps          float64
	Status        SetStatus
	Order         int
	MuscleFailure bool
}

// SetFact is one set joined with its exercise log, exercise and session.
// It is the unit every report reduces over.
type SetFact struct {
	SessionID    string
	SessionType  WorkoutType
	SessionLabel *string
	StartedAt    time.Time
	FinishedAt   *time.Time

	LogID        string
	LogOrder     int
	WeightFactor float64

	ExerciseID   string
	ExerciseName string
	MuscleGroup  *MuscleGroup

	SetID         string
	Weight        float64
	Reps          float64
	Status        SetStatus
	SetOrder      int
	MuscleFailure bool
}

// EffectiveWeight is the recorded weight scaled by the log's weight factor.
func (f SetFact) EffectiveWeight() float64 {
	return f.Weight * f.WeightFactor
}

// Volume is effective weight times reps.
func (f SetFact) Volume() float64 {
	return f.EffectiveWeight() * f.Reps
}
