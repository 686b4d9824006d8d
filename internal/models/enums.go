package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidWorkoutType = errors.New("invalid workout type")
	ErrInvalidMuscleGroup = errors.New("invalid muscle group")
	ErrInvalidSetStatus   = errors.New("invalid set status")
)

// WorkoutType is the category of a workout session.
type WorkoutType string

const (
	WorkoutPush   WorkoutType = "push"
	WorkoutPull   WorkoutType = "pull"
	WorkoutLegs   WorkoutType = "legs"
	WorkoutCustom WorkoutType = "custom"
)

// WorkoutTypes lists every workout type in display order.
var WorkoutTypes = []WorkoutType{WorkoutPush, WorkoutPull, WorkoutLegs, WorkoutCustom}

// ParseWorkoutType converts a persisted or user-supplied token.
func ParseWorkoutType(s string) (WorkoutType, error) {
	t := WorkoutType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case WorkoutPush, WorkoutPull, WorkoutLegs, WorkoutCustom:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidWorkoutType, s)
}

// MuscleGroup is the closed set of muscle groups an exercise can target.
type MuscleGroup string

const (
	MuscleChest     MuscleGroup = "chest"
	MuscleTriceps   MuscleGroup = "triceps"
	MuscleShoulders MuscleGroup = "shoulders"
	MuscleBiceps    MuscleGroup = "biceps"
	MuscleLegs      MuscleGroup = "legs"
	MuscleBack      MuscleGroup = "back"
)

// MuscleGroups lists every muscle group in display order.
var MuscleGroups = []MuscleGroup{MuscleChest, MuscleTriceps, MuscleShoulders, MuscleBack, MuscleBiceps, MuscleLegs}

// muscleAliases maps the tokens written by the mobile app's first schema.
var muscleAliases = map[string]MuscleGroup{
	"pecs":    MuscleChest,
	"epaules": MuscleShoulders,
	"dos":     MuscleBack,
	"jambes":  MuscleLegs,
}

// ParseMuscleGroup converts a persisted token, accepting the legacy aliases.
func ParseMuscleGroup(s string) (MuscleGroup, error) {
	token := strings.ToLower(strings.TrimSpace(s))
	if g, ok := muscleAliases[token]; ok {
		return g, nil
	}
	switch g := MuscleGroup(token); g {
	case MuscleChest, MuscleTriceps, MuscleShoulders, MuscleBiceps, MuscleLegs, MuscleBack:
		return g, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMuscleGroup, s)
}

// SetStatus records how a set went.
type SetStatus string

const (
	SetSuccess SetStatus = "success"
	SetPartial SetStatus = "partial"
	SetFail    SetStatus = "fail"
)

// ParseSetStatus converts a persisted token.
func ParseSetStatus(s string) (SetStatus, error) {
	switch st := SetStatus(s); st {
	case SetSuccess, SetPartial, SetFail:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSetStatus, s)
}
