package stats

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
	"go.opentelemetry.io/otel/attribute"
)

// InsightKind classifies an insight.
type InsightKind string

const (
	InsightRecord      InsightKind = "record"
	InsightProgression InsightKind = "progression"
	InsightStagnation  InsightKind = "stagnation"
)

// Thresholds for trend classification, in the weight unit.
const (
	progressionThreshold = 2.5
	stagnationTolerance  = 1.0
	minInsightUsage      = 2
)

// Insight is a classified trend for one exercise within a period. The
// numeric fields carry everything needed to format Message differently.
type Insight struct {
	Kind          InsightKind `json:"type"`
	ExerciseID    string      `json:"exercise_id"`
	ExerciseName  string      `json:"exercise_name"`
	Message       string      `json:"message"`
	UsageCount    int         `json:"usage_count"`
	MaxWeight     float64     `json:"max_weight"`
	FirstHalfMax  float64     `json:"first_half_max"`
	SecondHalfMax float64     `json:"second_half_max"`
	AllTimeMax    float64     `json:"all_time_max"`
	Delta         float64     `json:"delta"`
}

// TopExercise ranks an exercise by how often it was logged within a period.
type TopExercise struct {
	ExerciseID    string              `json:"exercise_id"`
	ExerciseName  string              `json:"exercise_name"`
	MuscleGroup   *models.MuscleGroup `json:"muscle_group,omitempty"`
	UsageCount    int                 `json:"usage_count"`
	MaxWeight     float64             `json:"max_weight"`
	PrevMaxWeight float64             `json:"prev_max_weight"`
}

// DefaultTopExercises is the TopExercises limit when none is given.
const DefaultTopExercises = 10

// exerciseWindow holds the per-exercise maxima of one period.
type exerciseWindow struct {
	id, name      string
	muscle        *models.MuscleGroup
	usage         int
	max           float64
	firstHalfMax  float64
	secondHalfMax float64
}

// Insights classifies every exercise logged at least twice within p as a new
// record, a progression or a stagnation. Exercises matching no rule are
// omitted. Results are ordered by usage, most used first.
func (e *Engine) Insights(ctx context.Context, p Period) ([]Insight, error) {
	ctx, span := e.startReport(ctx, "insights", periodAttr(p))
	out, err := e.insights(ctx, p)
	return out, e.finish(span, "insights", len(out), err)
}

func (e *Engine) insights(ctx context.Context, p Period) ([]Insight, error) {
	now := e.now()
	filter := storage.SetFilter{Since: p.Since(now)}
	usage, err := e.store.QueryExerciseUsage(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("loading exercise usage: %w", err)
	}
	if len(usage) == 0 {
		return []Insight{}, nil
	}
	facts, err := e.store.QuerySetFacts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("loading sets: %w", err)
	}

	history, err := e.store.QuerySetFacts(ctx, storage.SetFilter{})
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	allTime := make(map[string]float64)
	for _, f := range history {
		if w := f.EffectiveWeight(); w > allTime[f.ExerciseID] {
			allTime[f.ExerciseID] = w
		}
	}

	insights := []Insight{}
	for _, w := range exerciseWindows(usage, facts, periodMidpoint(p, now, facts)) {
		if w.usage < minInsightUsage {
			continue
		}
		if in, ok := classify(w, allTime[w.id]); ok {
			insights = append(insights, in)
		}
	}
	return insights, nil
}

// classify applies the rules in precedence order: record, progression,
// stagnation.
func classify(w exerciseWindow, allTimeMax float64) (Insight, bool) {
	in := Insight{
		ExerciseID:    w.id,
		ExerciseName:  w.name,
		UsageCount:    w.usage,
		MaxWeight:     w.max,
		FirstHalfMax:  w.firstHalfMax,
		SecondHalfMax: w.secondHalfMax,
		AllTimeMax:    allTimeMax,
		Delta:         w.secondHalfMax - w.firstHalfMax,
	}

	switch {
	case w.max > 0 && w.max >= allTimeMax && w.firstHalfMax < w.max:
		in.Kind = InsightRecord
		in.Message = fmt.Sprintf("New record: %skg!", formatWeight(w.max))
	case in.Delta > progressionThreshold:
		in.Kind = InsightProgression
		in.Message = fmt.Sprintf("+%skg (%s → %skg)",
			formatWeight(math.Round(in.Delta)), formatWeight(w.firstHalfMax), formatWeight(w.secondHalfMax))
	case w.firstHalfMax > 0 && math.Abs(in.Delta) <= stagnationTolerance:
		in.Kind = InsightStagnation
		in.Message = fmt.Sprintf("Stagnating at %skg", formatWeight(w.max))
	default:
		return Insight{}, false
	}
	return in, true
}

// TopExercises ranks the exercises logged within p by usage. PrevMaxWeight is
// the best effective weight of the first half of the period, or of the whole
// window for PeriodAll. Exercises whose logs have no sets are listed with zero
// weights. t optionally restricts to one workout type; limit <= 0 means
// DefaultTopExercises.
func (e *Engine) TopExercises(ctx context.Context, p Period, limit int, t models.WorkoutType) ([]TopExercise, error) {
	ctx, span := e.startReport(ctx, "top_exercises", periodAttr(p), attribute.Int("limit", limit))
	if limit <= 0 {
		limit = DefaultTopExercises
	}

	now := e.now()
	filter := storage.SetFilter{Since: p.Since(now), Type: t}
	usage, err := e.store.QueryExerciseUsage(ctx, filter)
	if err != nil {
		return nil, e.finish(span, "top_exercises", 0, fmt.Errorf("loading exercise usage: %w", err))
	}
	facts, err := e.store.QuerySetFacts(ctx, filter)
	if err != nil {
		return nil, e.finish(span, "top_exercises", 0, fmt.Errorf("loading sets: %w", err))
	}

	mid := p.Midpoint(now)
	split := now
	if mid != nil {
		split = *mid
	}

	out := []TopExercise{}
	for _, w := range exerciseWindows(usage, facts, split) {
		if len(out) == limit {
			break
		}
		te := TopExercise{
			ExerciseID:    w.id,
			ExerciseName:  w.name,
			MuscleGroup:   w.muscle,
			UsageCount:    w.usage,
			MaxWeight:     w.max,
			PrevMaxWeight: w.firstHalfMax,
		}
		if mid == nil {
			te.PrevMaxWeight = w.max
		}
		out = append(out, te)
	}
	return out, e.finish(span, "top_exercises", len(out), nil)
}

// periodMidpoint resolves the split instant for p. For PeriodAll it bisects
// the span between the earliest loaded session and now.
func periodMidpoint(p Period, now time.Time, facts []models.SetFact) time.Time {
	if mid := p.Midpoint(now); mid != nil {
		return *mid
	}
	earliest := now
	for _, f := range facts {
		if f.StartedAt.Before(earliest) {
			earliest = f.StartedAt
		}
	}
	return allTimeMidpoint(earliest, now)
}

// exerciseWindows reduces facts to per-exercise maxima, splitting at mid.
// Usage is the exercise log count from usage, so logs without sets still
// count. The result is ordered by usage descending, then by name.
func exerciseWindows(usage []storage.ExerciseUsage, facts []models.SetFact, mid time.Time) []exerciseWindow {
	byID := make(map[string]*exerciseWindow)
	var order []string

	for _, u := range usage {
		byID[u.ExerciseID] = &exerciseWindow{id: u.ExerciseID, name: u.ExerciseName, muscle: u.MuscleGroup, usage: u.Logs}
		order = append(order, u.ExerciseID)
	}

	for _, f := range facts {
		w, ok := byID[f.ExerciseID]
		if !ok {
			w = &exerciseWindow{id: f.ExerciseID, name: f.ExerciseName, muscle: f.MuscleGroup}
			byID[f.ExerciseID] = w
			order = append(order, f.ExerciseID)
		}

		ew := f.EffectiveWeight()
		if ew > w.max {
			w.max = ew
		}
		if f.StartedAt.Before(mid) {
			if ew > w.firstHalfMax {
				w.firstHalfMax = ew
			}
		} else if ew > w.secondHalfMax {
			w.secondHalfMax = ew
		}
	}

	out := make([]exerciseWindow, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].usage != out[j].usage {
			return out[i].usage > out[j].usage
		}
		return out[i].name < out[j].name
	})
	return out
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}
