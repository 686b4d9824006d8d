package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/meltforce/liftlog/internal/stats"
	"github.com/spf13/cobra"
)

func (a *app) overviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Sessions, volume, duration and sets for the period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.period()
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, r Reports, w io.Writer) error {
				ov, err := r.Overview(ctx, p)
				if err != nil {
					return fmt.Errorf("overview: %w", err)
				}
				if done, err := a.emit(w, ov); done {
					return err
				}
				renderOverview(w, p, ov)
				return nil
			})
		},
	}
}

func (a *app) insightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Records, progressions and plateaus for the period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.period()
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, r Reports, w io.Writer) error {
				insights, err := r.Insights(ctx, p)
				if err != nil {
					return fmt.Errorf("insights: %w", err)
				}
				if done, err := a.emit(w, insights); done {
					return err
				}
				renderInsights(w, p, insights)
				return nil
			})
		},
	}
}

func (a *app) recordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "records",
		Short: "All-time personal record per exercise",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, r Reports, w io.Writer) error {
				records, err := r.PersonalRecords(ctx)
				if err != nil {
					return fmt.Errorf("personal records: %w", err)
				}
				if done, err := a.emit(w, records); done {
					return err
				}
				renderRecords(w, records)
				return nil
			})
		},
	}
}

func (a *app) progressCmd() *cobra.Command {
	var oneRM bool
	cmd := &cobra.Command{
		Use:   "progress <exercise-id>",
		Short: "Per-session max weight and volume for one exercise",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.period()
			if err != nil {
				return err
			}
			id := args[0]
			return a.run(cmd, func(ctx context.Context, r Reports, w io.Writer) error {
				if oneRM {
					points, err := r.OneRMProgression(ctx, id, p)
					if err != nil {
						return fmt.Errorf("one rep max progression: %w", err)
					}
					if done, err := a.emit(w, points); done {
						return err
					}
					renderOneRM(w, id, p, points)
					return nil
				}
				points, err := r.ExerciseProgress(ctx, id, p)
				if err != nil {
					return fmt.Errorf("exercise progress: %w", err)
				}
				if done, err := a.emit(w, points); done {
					return err
				}
				renderProgress(w, id, p, points)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&oneRM, "one-rm", false, "Show estimated one rep max instead")
	return cmd
}

func (a *app) heatmapCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "heatmap",
		Short: "Training days of a year by intensity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if year == 0 {
				year = time.Now().Year()
			}
			return a.run(cmd, func(ctx context.Context, r Reports, w io.Writer) error {
				days, err := r.HeatmapData(ctx, year)
				if err != nil {
					return fmt.Errorf("heatmap: %w", err)
				}
				if done, err := a.emit(w, days); done {
					return err
				}
				renderHeatmap(w, year, days)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Calendar year (default: current year)")
	return cmd
}

func (a *app) musclesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "muscles",
		Short: "Volume and fatigue per muscle group this week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, r Reports, w io.Writer) error {
				week, err := r.MuscleVolumeThisWeek(ctx)
				if err != nil {
					return fmt.Errorf("muscle volume: %w", err)
				}
				if done, err := a.emit(w, week); done {
					return err
				}
				renderMuscles(w, week)
				return nil
			})
		},
	}
}

func (a *app) compareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <session-a> <session-b>",
		Short: "Compare session b against session a",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, r Reports, w io.Writer) error {
				c, err := r.CompareSessions(ctx, args[0], args[1])
				if errors.Is(err, stats.ErrSessionTypeMismatch) {
					return err
				}
				if err != nil {
					return fmt.Errorf("compare sessions: %w", err)
				}
				if c == nil {
					return fmt.Errorf("session not found: %s or %s", args[0], args[1])
				}
				if done, err := a.emit(w, c); done {
					return err
				}
				renderComparison(w, c)
				return nil
			})
		},
	}
}

func itoa(n int) string { return strconv.Itoa(n) }
