package stats

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

// FatigueLevel buckets a muscle group's share of the week's heaviest group.
type FatigueLevel string

const (
	FatigueRest         FatigueLevel = "rest"
	FatigueFresh        FatigueLevel = "fresh"
	FatigueLight        FatigueLevel = "light"
	FatigueModerate     FatigueLevel = "moderate"
	FatigueFatigued     FatigueLevel = "fatigued"
	FatigueVeryFatigued FatigueLevel = "very_fatigued"
)

// MuscleVolume is the week-to-date load of one muscle group.
type MuscleVolume struct {
	MuscleGroup models.MuscleGroup `json:"muscle_group"`
	Volume      float64            `json:"volume"`
	Sets        int                `json:"sets"`
	Ratio       float64            `json:"ratio"`
	Fatigue     FatigueLevel       `json:"fatigue"`
}

// MuscleWeek is the MuscleVolumeThisWeek result.
type MuscleWeek struct {
	WeekStart time.Time      `json:"week_start"`
	Groups    []MuscleVolume `json:"groups"`
}

// MuscleVolumeThisWeek totals volume and sets per muscle group from Monday
// 00:00 local time through now. Every group is listed, in display order, with
// zero totals when untrained. Exercises without a muscle group are skipped.
func (e *Engine) MuscleVolumeThisWeek(ctx context.Context) (*MuscleWeek, error) {
	ctx, span := e.startReport(ctx, "muscle_volume_week")
	now := e.now()
	weekStart := startOfWeek(now)

	facts, err := e.store.QuerySetFacts(ctx, storage.SetFilter{Since: &weekStart})
	if err != nil {
		return nil, e.finish(span, "muscle_volume_week", 0, fmt.Errorf("loading sets: %w", err))
	}

	totals := make(map[models.MuscleGroup]*MuscleVolume, len(models.MuscleGroups))
	groups := make([]MuscleVolume, len(models.MuscleGroups))
	for i, g := range models.MuscleGroups {
		groups[i].MuscleGroup = g
		totals[g] = &groups[i]
	}
	for _, f := range facts {
		if f.MuscleGroup == nil {
			continue
		}
		mv := totals[*f.MuscleGroup]
		mv.Volume += f.Volume()
		mv.Sets++
	}

	var maxVolume float64
	for _, mv := range groups {
		maxVolume = math.Max(maxVolume, mv.Volume)
	}
	for i := range groups {
		groups[i].Ratio, groups[i].Fatigue = ClassifyFatigue(groups[i].Volume, maxVolume)
	}

	return &MuscleWeek{WeekStart: weekStart, Groups: groups}, e.finish(span, "muscle_volume_week", len(facts), nil)
}

// ClassifyFatigue returns volume as a share of maxVolume (capped at 1, with a
// floor of 1 on the divisor) and its fatigue bucket.
func ClassifyFatigue(volume, maxVolume float64) (float64, FatigueLevel) {
	if volume <= 0 {
		return 0, FatigueRest
	}
	ratio := math.Min(volume/math.Max(maxVolume, 1), 1)
	switch {
	case ratio < 0.3:
		return ratio, FatigueFresh
	case ratio < 0.5:
		return ratio, FatigueLight
	case ratio < 0.7:
		return ratio, FatigueModerate
	case ratio < 0.85:
		return ratio, FatigueFatigued
	default:
		return ratio, FatigueVeryFatigued
	}
}
