package models

// ExportVersion is the backup format version written and accepted.
const ExportVersion = 1

// Export is the JSON backup produced by the mobile app's export screen.
// Timestamps are kept as the ISO-8601 strings found in the file.
type Export struct {
	Version            int                `json:"version"`
	ExportedAt         string             `json:"exported_at"`
	Exercises          []ExportExercise   `json:"exercises"`
	WorkoutSessions    []ExportSession    `json:"workout_sessions"`
	ExerciseLogs       []ExportLog        `json:"exercise_logs"`
	Sets               []ExportSet        `json:"sets"`
	CustomWorkoutTypes []ExportCustomType `json:"custom_workout_types"`
}

// ExportExercise is one exercises row. IsCable is 0 or 1.
type ExportExercise struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	MuscleGroup *string `json:"muscle_group"`
	IsCable     int     `json:"is_cable"`
	CreatedAt   string  `json:"created_at"`
}

// ExportSession is one workout_sessions row. The health columns are only
// present in backups written by this server.
type ExportSession struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Label        *string  `json:"label"`
	StartedAt    string   `json:"started_at"`
	FinishedAt   *string  `json:"finished_at"`
	Rating       *int     `json:"rating"`
	AvgHeartRate *float64 `json:"avg_heart_rate,omitempty"`
	MaxHeartRate *float64 `json:"max_heart_rate,omitempty"`
	Calories     *float64 `json:"calories,omitempty"`
}

// ExportLog is one exercise_logs row.
type ExportLog struct {
	ID           string  `json:"id"`
	SessionID    string  `json:"session_id"`
	ExerciseID   string  `json:"exercise_id"`
	TargetReps   *int    `json:"target_reps"`
	Order        int     `json:"order"`
	Comment      *string `json:"comment"`
	WeightFactor float64 `json:"weight_factor"`
}

// ExportSet is one sets row. MuscleFailure is 0 or 1.
type ExportSet struct {
	ID            string  `json:"id"`
	ExerciseLogID string  `json:"exercise_log_id"`
	Weight        float64 `json:"weight"`
	Reps          float64 `json:"reps"`
	Status        string  `json:"status"`
	Order         int     `json:"order"`
	MuscleFailure int     `json:"muscle_failure"`
}

// ExportCustomType is one custom_workout_types row.
type ExportCustomType struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}
