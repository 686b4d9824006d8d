package stats

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Dashboard bundles the reports shown on the stats home screen.
type Dashboard struct {
	Period          Period           `json:"period"`
	Overview        *OverviewStats   `json:"overview"`
	Insights        []Insight        `json:"insights"`
	PersonalRecords []PersonalRecord `json:"personal_records"`
	Muscles         *MuscleWeek      `json:"muscles"`
	Week            *WeekActivity    `json:"week"`
}

// Dashboard computes its reports concurrently. Any failure fails the whole
// dashboard.
func (e *Engine) Dashboard(ctx context.Context, p Period) (*Dashboard, error) {
	ctx, span := e.startReport(ctx, "dashboard", periodAttr(p))

	d := &Dashboard{Period: p}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Overview, err = e.Overview(gctx, p)
		return err
	})
	g.Go(func() (err error) {
		d.Insights, err = e.Insights(gctx, p)
		return err
	})
	g.Go(func() (err error) {
		d.PersonalRecords, err = e.PersonalRecords(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Muscles, err = e.MuscleVolumeThisWeek(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Week, err = e.WeekActivity(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, e.finish(span, "dashboard", 0, err)
	}
	return d, e.finish(span, "dashboard", len(d.Insights)+len(d.PersonalRecords), nil)
}
