package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/liftlog/internal/storage"
	"go.opentelemetry.io/otel/attribute"
)

// HeatmapDay is one local calendar day with at least one finished session.
// Level is 1-4 relative to the busiest day of the year.
type HeatmapDay struct {
	Date         string  `json:"date"`
	Volume       float64 `json:"volume"`
	SessionCount int     `json:"sessionCount"`
	Level        int     `json:"level"`
}

// HeatmapData returns the days of year (in the engine's location) that have
// finished sessions, ascending. Days without sessions are omitted.
func (e *Engine) HeatmapData(ctx context.Context, year int) ([]HeatmapDay, error) {
	ctx, span := e.startReport(ctx, "heatmap", attribute.Int("year", year))
	out, err := e.heatmap(ctx, year)
	return out, e.finish(span, "heatmap", len(out), err)
}

func (e *Engine) heatmap(ctx context.Context, year int) ([]HeatmapDay, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, e.loc)
	end := start.AddDate(1, 0, 0)

	sessions, err := e.store.FinishedSessions(ctx, storage.SessionFilter{Since: &start, Until: &end})
	if err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}
	facts, err := e.store.QuerySetFacts(ctx, storage.SetFilter{Since: &start, Until: &end})
	if err != nil {
		return nil, fmt.Errorf("loading sets: %w", err)
	}

	// Sessions arrive oldest first, so days are appended in ascending order.
	days := []HeatmapDay{}
	index := make(map[string]int)
	for _, s := range sessions {
		key := dayKey(s.StartedAt, e.loc)
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, HeatmapDay{Date: key})
		}
		days[i].SessionCount++
	}
	for _, f := range facts {
		if i, ok := index[dayKey(f.StartedAt, e.loc)]; ok {
			days[i].Volume += f.Volume()
		}
	}

	var maxVolume float64
	for _, d := range days {
		if d.Volume > maxVolume {
			maxVolume = d.Volume
		}
	}
	for i := range days {
		days[i].Level = intensityLevel(days[i].Volume, maxVolume)
	}
	return days, nil
}

// intensityLevel buckets a day's volume into quartiles of the year's maximum.
// A session day without volume still shows as level 1.
func intensityLevel(volume, maxVolume float64) int {
	if volume <= 0 || maxVolume <= 0 {
		return 1
	}
	r := volume / maxVolume
	switch {
	case r < 0.25:
		return 1
	case r < 0.5:
		return 2
	case r < 0.75:
		return 3
	default:
		return 4
	}
}
