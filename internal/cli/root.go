// Package cli contains the cobra command tree for liftlog-report.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/meltforce/liftlog/internal/output"
	"github.com/meltforce/liftlog/internal/stats"
	"github.com/spf13/cobra"
)

// Reports is what the commands render. *stats.Engine and the REST client
// both satisfy it.
type Reports interface {
	Overview(ctx context.Context, p stats.Period) (*stats.OverviewStats, error)
	Insights(ctx context.Context, p stats.Period) ([]stats.Insight, error)
	PersonalRecords(ctx context.Context) ([]stats.PersonalRecord, error)
	ExerciseProgress(ctx context.Context, exerciseID string, p stats.Period) ([]stats.ProgressPoint, error)
	OneRMProgression(ctx context.Context, exerciseID string, p stats.Period) ([]stats.OneRMPoint, error)
	HeatmapData(ctx context.Context, year int) ([]stats.HeatmapDay, error)
	MuscleVolumeThisWeek(ctx context.Context) (*stats.MuscleWeek, error)
	CompareSessions(ctx context.Context, aID, bID string) (*stats.Comparison, error)
}

var _ Reports = (*stats.Engine)(nil)

// Options are the global flags.
type Options struct {
	ConfigPath string
	URL        string
	APIKey     string
	Period     string
	JSON       bool
	NoColor    bool
}

// Opener connects to the data, either a local database from ConfigPath or a
// remote server at URL. The returned close func releases it.
type Opener func(ctx context.Context, opts *Options) (Reports, func() error, error)

type app struct {
	opts Options
	open Opener
}

// NewRootCommand builds the command tree.
func NewRootCommand(open Opener, version string) *cobra.Command {
	a := &app{open: open}

	root := &cobra.Command{
		Use:   "liftlog-report",
		Short: "Training reports from your LiftLog history",
		Long: `liftlog-report prints training reports computed from a LiftLog
database: period overview, progression insights, personal records,
per-exercise progress, the yearly heatmap, this week's muscle load and
session comparisons.

Reports read a local database (--config) or a running liftlog server (--url).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetNoColor(a.opts.NoColor || !output.IsTerminal(os.Stdout))
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.opts.ConfigPath, "config", "config.yaml", "Config file path")
	pf.StringVar(&a.opts.URL, "url", "", "Read from a liftlog server instead of the local database")
	pf.StringVar(&a.opts.APIKey, "api-key", os.Getenv("LIFTLOG_API_KEY"), "API key for --url")
	pf.StringVar(&a.opts.Period, "period", string(stats.DefaultPeriod), "Period: 1W, 1M, 3M, 6M, 1Y or ALL")
	pf.BoolVar(&a.opts.JSON, "json", false, "Output as JSON")
	pf.BoolVar(&a.opts.NoColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		a.overviewCmd(),
		a.insightsCmd(),
		a.recordsCmd(),
		a.progressCmd(),
		a.heatmapCmd(),
		a.musclesCmd(),
		a.compareCmd(),
	)
	return root
}

// Execute is the entry point called from main.
func Execute(open Opener, version string) {
	if err := NewRootCommand(open, version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) period() (stats.Period, error) {
	return stats.ParsePeriod(a.opts.Period)
}

// run opens the reports, calls fn and closes them again.
func (a *app) run(cmd *cobra.Command, fn func(ctx context.Context, r Reports, w io.Writer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	r, closeFn, err := a.open(ctx, &a.opts)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()
	return fn(ctx, r, cmd.OutOrStdout())
}

// emit writes v as indented JSON when --json is set and reports whether it did.
func (a *app) emit(w io.Writer, v any) (bool, error) {
	if !a.opts.JSON {
		return false, nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return true, enc.Encode(v)
}
