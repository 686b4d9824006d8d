package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/meltforce/liftlog/internal/output"
	"github.com/meltforce/liftlog/internal/stats"
)

func renderOverview(w io.Writer, p stats.Period, ov *stats.OverviewStats) {
	fmt.Fprintln(w, output.Section("Overview ("+string(p)+")"))
	fmt.Fprintln(w, output.KeyValue("Sessions", itoa(ov.TotalSessions)))
	fmt.Fprintln(w, output.KeyValue("Total volume", output.Volume(ov.TotalVolume)+" kg"))
	fmt.Fprintln(w, output.KeyValue("Avg duration", itoa(ov.AvgDurationMin)+" min"))
	fmt.Fprintln(w, output.KeyValue("Sets", itoa(ov.TotalSets)))
	fmt.Fprintln(w)
}

func renderInsights(w io.Writer, p stats.Period, insights []stats.Insight) {
	fmt.Fprintln(w, output.Section("Insights ("+string(p)+")"))
	if len(insights) == 0 {
		fmt.Fprintln(w, " "+output.StyleMuted.Render("Not enough training in this period."))
		fmt.Fprintln(w)
		return
	}
	for _, in := range insights {
		var tag string
		switch in.Kind {
		case stats.InsightRecord:
			tag = output.StyleSuccess.Render("RECORD  ")
		case stats.InsightProgression:
			tag = output.StyleSuccess.Render("PROGRESS")
		default:
			tag = output.StyleWarning.Render("PLATEAU ")
		}
		fmt.Fprintf(w, " %s %s %s\n", tag, output.StyleBold.Render(in.ExerciseName), in.Message)
	}
	fmt.Fprintln(w)
}

func renderRecords(w io.Writer, records []stats.PersonalRecord) {
	fmt.Fprintln(w, output.Section("Personal records"))
	if len(records) == 0 {
		fmt.Fprintln(w, " "+output.StyleMuted.Render("No finished sessions yet."))
		fmt.Fprintln(w)
		return
	}
	t := output.NewTable("Exercise", "Muscle", "Weight", "Reps", "Est. 1RM", "Date").AlignRight(2, 3, 4)
	for _, r := range records {
		muscle := "-"
		if r.MuscleGroup != nil {
			muscle = string(*r.MuscleGroup)
		}
		t.AddRow(r.ExerciseName, muscle, output.Weight(r.BestWeight), output.Number(r.BestRepsAtWeight),
			output.Weight(r.Estimated1RM), r.Date.Format(time.DateOnly))
	}
	t.Fprint(w)
	fmt.Fprintln(w)
}

func renderProgress(w io.Writer, id string, p stats.Period, points []stats.ProgressPoint) {
	fmt.Fprintln(w, output.Section("Progress "+id+" ("+string(p)+")"))
	if len(points) == 0 {
		fmt.Fprintln(w, " "+output.StyleMuted.Render("No sessions with this exercise in the period."))
		fmt.Fprintln(w)
		return
	}
	t := output.NewTable("Date", "Max", "Reps@max", "Volume", "Change").AlignRight(1, 2, 3)
	for i, pt := range points {
		change := ""
		if i > 0 {
			change = output.Delta(pt.MaxWeight-points[i-1].MaxWeight, output.Weight)
		}
		t.AddRow(pt.Date.Format(time.DateOnly), output.Weight(pt.MaxWeight), output.Number(pt.RepsAtMax),
			output.Volume(pt.TotalVolume), change)
	}
	t.Fprint(w)
	fmt.Fprintln(w)
}

func renderOneRM(w io.Writer, id string, p stats.Period, points []stats.OneRMPoint) {
	fmt.Fprintln(w, output.Section("Estimated 1RM "+id+" ("+string(p)+")"))
	if len(points) == 0 {
		fmt.Fprintln(w, " "+output.StyleMuted.Render("No sessions with this exercise in the period."))
		fmt.Fprintln(w)
		return
	}
	t := output.NewTable("Date", "1RM", "Change").AlignRight(1)
	for i, pt := range points {
		change := ""
		if i > 0 {
			change = output.Delta(pt.Estimated1RM-points[i-1].Estimated1RM, output.Weight)
		}
		t.AddRow(pt.Date.Format(time.DateOnly), output.Weight(pt.Estimated1RM), change)
	}
	t.Fprint(w)
	fmt.Fprintln(w)
}

// renderHeatmap draws one row per month, one cell per day of the month.
func renderHeatmap(w io.Writer, year int, days []stats.HeatmapDay) {
	fmt.Fprintln(w, output.Section(fmt.Sprintf("Heatmap %d", year)))

	levels := make(map[string]int, len(days))
	var volume float64
	sessions := 0
	for _, d := range days {
		levels[d.Date] = d.Level
		volume += d.Volume
		sessions += d.SessionCount
	}

	for m := time.January; m <= time.December; m++ {
		first := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
		var sb strings.Builder
		for d := first; d.Month() == m; d = d.AddDate(0, 0, 1) {
			sb.WriteString(output.HeatCell(levels[d.Format(time.DateOnly)]))
		}
		fmt.Fprintf(w, " %s %s\n", output.StyleMuted.Render(m.String()[:3]), sb.String())
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, output.KeyValue("Training days", itoa(len(days))))
	fmt.Fprintln(w, output.KeyValue("Sessions", itoa(sessions)))
	fmt.Fprintln(w, output.KeyValue("Total volume", output.Volume(volume)+" kg"))
	fmt.Fprintln(w)
}

func renderMuscles(w io.Writer, week *stats.MuscleWeek) {
	fmt.Fprintln(w, output.Section("Muscle load since "+week.WeekStart.Format("Mon 2 Jan")))
	t := output.NewTable("Muscle", "Volume", "Sets", "Load", "Fatigue").AlignRight(1, 2)
	for _, g := range week.Groups {
		t.AddRow(string(g.MuscleGroup), output.Volume(g.Volume), itoa(g.Sets),
			output.Bar(g.Ratio, 20), fatigueLabel(g.Fatigue))
	}
	t.Fprint(w)
	fmt.Fprintln(w)
}

func fatigueLabel(f stats.FatigueLevel) string {
	label := strings.ReplaceAll(string(f), "_", " ")
	switch f {
	case stats.FatigueFatigued, stats.FatigueVeryFatigued:
		return output.StyleError.Render(label)
	case stats.FatigueModerate:
		return output.StyleWarning.Render(label)
	case stats.FatigueRest:
		return output.StyleMuted.Render(label)
	default:
		return output.StyleSuccess.Render(label)
	}
}

func renderComparison(w io.Writer, c *stats.Comparison) {
	title := fmt.Sprintf("%s %s vs %s", c.B.Type, c.A.StartedAt.Format(time.DateOnly), c.B.StartedAt.Format(time.DateOnly))
	fmt.Fprintln(w, output.Section(title))

	minutes := func(v float64) string { return output.Number(v) + " min" }
	count := func(v float64) string { return output.Number(v) }
	vol := func(v float64) string { return output.Volume(v) + " kg" }

	fmt.Fprintf(w, "%s %s\n", output.KeyValue("Duration", itoa(c.B.DurationMin)+" min"), output.Delta(float64(c.DurationDelta), minutes))
	fmt.Fprintf(w, "%s %s\n", output.KeyValue("Volume", output.Volume(c.B.TotalVolume)), output.Delta(c.VolumeDelta, vol))
	fmt.Fprintf(w, "%s %s\n", output.KeyValue("Sets", itoa(c.B.TotalSets)), output.Delta(float64(c.SetsDelta), count))
	fmt.Fprintf(w, "%s %s\n", output.KeyValue("Reps", output.Number(c.B.TotalReps)), output.Delta(c.RepsDelta, count))
	fmt.Fprintln(w)

	t := output.NewTable("Exercise", "Volume", "Change", "Max", "Change").AlignRight(1, 3)
	for _, ex := range c.Exercises {
		volChange, maxChange := output.StyleSuccess.Render("new"), ""
		if !ex.IsNew {
			volChange, maxChange = "", ""
			if ex.VolumeDelta != nil {
				volChange = output.Delta(*ex.VolumeDelta, output.Volume)
			}
			if ex.MaxWeightDelta != nil {
				maxChange = output.Delta(*ex.MaxWeightDelta, output.Weight)
			}
		}
		t.AddRow(ex.Name, output.Volume(ex.Volume), volChange, output.Weight(ex.MaxWeight), maxChange)
	}
	t.Fprint(w)
	fmt.Fprintln(w)
}
