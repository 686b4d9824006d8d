package stats

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
	"go.opentelemetry.io/otel/attribute"
)

// OverviewStats aggregates the finished sessions of a period.
type OverviewStats struct {
	TotalSessions  int     `json:"total_sessions"`
	TotalVolume    float64 `json:"total_volume"`
	AvgDurationMin int     `json:"avg_duration_min"`
	TotalSets      int     `json:"total_sets"`
}

// SessionTypeStats is OverviewStats scoped to one workout type.
type SessionTypeStats struct {
	Type models.WorkoutType `json:"type"`
	OverviewStats
}

// SessionDurationPoint is the rounded duration of one finished session.
type SessionDurationPoint struct {
	SessionID   string    `json:"session_id"`
	Date        time.Time `json:"date"`
	DurationMin int       `json:"duration_min"`
}

// Overview aggregates all finished sessions started within p.
func (e *Engine) Overview(ctx context.Context, p Period) (*OverviewStats, error) {
	ctx, span := e.startReport(ctx, "overview", periodAttr(p))
	out, err := e.overview(ctx, p, "")
	return out, e.finish(span, "overview", statsRows(out), err)
}

// SessionTypeStats aggregates the finished sessions of type t within p.
func (e *Engine) SessionTypeStats(ctx context.Context, t models.WorkoutType, p Period) (*SessionTypeStats, error) {
	ctx, span := e.startReport(ctx, "session_type_stats", periodAttr(p), attribute.String("type", string(t)))
	out, err := e.overview(ctx, p, t)
	if err != nil {
		return nil, e.finish(span, "session_type_stats", 0, err)
	}
	return &SessionTypeStats{Type: t, OverviewStats: *out}, e.finish(span, "session_type_stats", statsRows(out), nil)
}

// SessionTypeDurations lists the duration of every finished session of type t
// within p, oldest first.
func (e *Engine) SessionTypeDurations(ctx context.Context, t models.WorkoutType, p Period) ([]SessionDurationPoint, error) {
	ctx, span := e.startReport(ctx, "session_type_durations", periodAttr(p), attribute.String("type", string(t)))
	sessions, err := e.store.FinishedSessions(ctx, storage.SessionFilter{Since: p.Since(e.now()), Type: t})
	if err != nil {
		return nil, e.finish(span, "session_type_durations", 0, fmt.Errorf("loading sessions: %w", err))
	}

	points := make([]SessionDurationPoint, 0, len(sessions))
	for _, s := range sessions {
		points = append(points, SessionDurationPoint{
			SessionID:   s.ID,
			Date:        s.StartedAt,
			DurationMin: int(math.Round(s.DurationMinutes())),
		})
	}
	return points, e.finish(span, "session_type_durations", len(points), nil)
}

func (e *Engine) overview(ctx context.Context, p Period, t models.WorkoutType) (*OverviewStats, error) {
	since := p.Since(e.now())

	sessions, err := e.store.FinishedSessions(ctx, storage.SessionFilter{Since: since, Type: t})
	if err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}
	facts, err := e.store.QuerySetFacts(ctx, storage.SetFilter{Since: since, Type: t})
	if err != nil {
		return nil, fmt.Errorf("loading sets: %w", err)
	}

	out := &OverviewStats{TotalSessions: len(sessions), TotalSets: len(facts)}
	if len(sessions) > 0 {
		var minutes float64
		for _, s := range sessions {
			minutes += s.DurationMinutes()
		}
		out.AvgDurationMin = int(math.Round(minutes / float64(len(sessions))))
	}
	for _, f := range facts {
		out.TotalVolume += f.Volume()
	}
	return out, nil
}

func statsRows(s *OverviewStats) int {
	if s == nil {
		return 0
	}
	return s.TotalSets
}
