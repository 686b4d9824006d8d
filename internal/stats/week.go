package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/liftlog/internal/storage"
)

// WeekDay is one day of the current week strip.
type WeekDay struct {
	Date       string `json:"date"`
	Weekday    string `json:"weekday"`
	HasSession bool   `json:"has_session"`
	IsToday    bool   `json:"is_today"`
}

// WeekActivity summarizes training in the current local week.
type WeekActivity struct {
	Days                 []WeekDay `json:"days"`
	SessionCount         int       `json:"session_count"`
	DaysSinceLastSession *int      `json:"days_since_last_session"`
}

// WeekActivity returns Monday through Sunday of the current week with the
// days that saw a finished session, plus whole days elapsed since the most
// recent finished session (nil when there is none).
func (e *Engine) WeekActivity(ctx context.Context) (*WeekActivity, error) {
	ctx, span := e.startReport(ctx, "week_activity")
	out, err := e.weekActivity(ctx)
	n := 0
	if out != nil {
		n = out.SessionCount
	}
	return out, e.finish(span, "week_activity", n, err)
}

func (e *Engine) weekActivity(ctx context.Context) (*WeekActivity, error) {
	now := e.now()
	monday := startOfWeek(now)

	sessions, err := e.store.FinishedSessions(ctx, storage.SessionFilter{Since: &monday})
	if err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}
	trained := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		trained[dayKey(s.StartedAt, e.loc)] = true
	}

	today := now.Format("2006-01-02")
	out := &WeekActivity{Days: make([]WeekDay, 7), SessionCount: len(sessions)}
	for i := range out.Days {
		d := monday.AddDate(0, 0, i)
		key := d.Format("2006-01-02")
		out.Days[i] = WeekDay{
			Date:       key,
			Weekday:    d.Weekday().String(),
			HasSession: trained[key],
			IsToday:    key == today,
		}
	}

	last, err := e.store.FinishedSessions(ctx, storage.SessionFilter{Newest: true, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("loading last session: %w", err)
	}
	if len(last) > 0 {
		days := int(now.Sub(last[0].StartedAt) / (24 * time.Hour))
		out.DaysSinceLastSession = &days
	}
	return out, nil
}
