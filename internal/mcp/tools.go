package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/stats"
)

var periodEnum = mcp.Enum("1W", "1M", "3M", "6M", "1Y", "ALL")

func periodArg() mcp.ToolOption {
	return mcp.WithString("period", mcp.Description("Look-back window ending now. Defaults to 1M."), periodEnum)
}

func exerciseArg() mcp.ToolOption {
	return mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise id as returned by list_exercises"))
}

// parsePeriod reads the optional period argument.
func parsePeriod(req mcp.CallToolRequest) (stats.Period, error) {
	raw := req.GetString("period", "")
	if raw == "" {
		return stats.DefaultPeriod, nil
	}
	return stats.ParsePeriod(raw)
}

// parseType reads a workout type argument; empty is allowed unless required.
func parseType(req mcp.CallToolRequest, required bool) (models.WorkoutType, error) {
	raw := req.GetString("type", "")
	if raw == "" {
		if required {
			return "", errors.New("type parameter is required")
		}
		return "", nil
	}
	return models.ParseWorkoutType(raw)
}

// --- Tool definitions ---

var toolGetOverview = mcp.NewTool("get_overview",
	mcp.WithDescription("Headline numbers over finished sessions in a period: session count, total volume (kg x reps, weight factor applied), average duration in minutes and total sets."),
	periodArg(),
)

var toolGetSessionTypeStats = mcp.NewTool("get_session_type_stats",
	mcp.WithDescription("Overview numbers restricted to one workout type (push, pull, legs or custom)."),
	mcp.WithString("type", mcp.Required(), mcp.Description("Workout type"), mcp.Enum("push", "pull", "legs", "custom")),
	periodArg(),
)

var toolGetTopExercises = mcp.NewTool("get_top_exercises",
	mcp.WithDescription("Most used exercises in a period, ranked by number of sessions they were logged in, with their heaviest effective weight."),
	periodArg(),
	mcp.WithNumber("limit", mcp.Description("Maximum number of exercises. Defaults to 10.")),
	mcp.WithString("type", mcp.Description("Restrict to one workout type"), mcp.Enum("push", "pull", "legs", "custom")),
)

var toolGetInsights = mcp.NewTool("get_insights",
	mcp.WithDescription("Per-exercise trend classification for a period: new record, progressing or stagnating, comparing the max weight of the first and second half of the window."),
	periodArg(),
)

var toolGetPersonalRecords = mcp.NewTool("get_personal_records",
	mcp.WithDescription("All-time heaviest set per exercise, with reps at that weight, the session it happened in and the estimated one-rep max."),
)

var toolGetExerciseProgress = mcp.NewTool("get_exercise_progress",
	mcp.WithDescription("Per-session progression for one exercise: max weight, reps at max weight and volume. Set one_rm to get the estimated one-rep max series instead."),
	exerciseArg(),
	periodArg(),
	mcp.WithBoolean("one_rm", mcp.Description("Return estimated one-rep max per session (Epley). Defaults to false.")),
)

var toolGetExerciseHistory = mcp.NewTool("get_exercise_history",
	mcp.WithDescription("Every set of one exercise grouped by session, newest session first."),
	exerciseArg(),
	periodArg(),
)

var toolGetLastPerformance = mcp.NewTool("get_last_performance",
	mcp.WithDescription("The sets from the most recent finished session that included the exercise."),
	exerciseArg(),
)

var toolGetMuscleVolume = mcp.NewTool("get_muscle_volume",
	mcp.WithDescription("Volume per muscle group since Monday of the current week, with a fatigue level relative to the busiest group."),
)

var toolGetHeatmap = mcp.NewTool("get_heatmap",
	mcp.WithDescription("Training calendar for a year: volume, session count and intensity level (1-4) per training day."),
	mcp.WithNumber("year", mcp.Description("Calendar year. Defaults to the current year.")),
)

var toolGetWeekActivity = mcp.NewTool("get_week_activity",
	mcp.WithDescription("Monday to Sunday of the current week with training days flagged, plus days since the last session."),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("The exercise catalog with ids, names and muscle groups."),
)

var toolListComparableSessions = mcp.NewTool("list_comparable_sessions",
	mcp.WithDescription("Recent finished sessions of one workout type, newest first, for picking a comparison."),
	mcp.WithString("type", mcp.Required(), mcp.Description("Workout type"), mcp.Enum("push", "pull", "legs", "custom")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions. Defaults to 30.")),
)

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("One session with per-exercise volume, sets and max weight, plus rating and heart rate when recorded."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id")),
)

var toolCompareSessions = mcp.NewTool("compare_sessions",
	mcp.WithDescription("Compare session b against session a of the same workout type. Deltas are b minus a; exercises only in b are flagged new."),
	mcp.WithString("a", mcp.Required(), mcp.Description("Baseline session id")),
	mcp.WithString("b", mcp.Required(), mcp.Description("Session id to compare")),
)

// --- Tool handlers ---

// result serializes v, or reports err as a tool error.
func (h *handlers) result(tool string, v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		h.log.Error("mcp "+tool, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getOverview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := parsePeriod(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := h.ds.Overview(ctx, p)
	return h.result("get_overview", out, err)
}

func (h *handlers) getSessionTypeStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := parseType(req, true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := parsePeriod(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := h.ds.SessionTypeStats(ctx, t, p)
	return h.result("get_session_type_stats", out, err)
}

func (h *handlers) getTopExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := parsePeriod(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := parseType(req, false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", stats.DefaultTopExercises)
	out, err := h.ds.TopExercises(ctx, p, limit, t)
	return h.result("get_top_exercises", out, err)
}

func (h *handlers) getInsights(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := parsePeriod(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := h.ds.Insights(ctx, p)
	return h.result("get_insights", out, err)
}

func (h *handlers) getPersonalRecords(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := h.ds.PersonalRecords(ctx)
	return h.result("get_personal_records", out, err)
}

func (h *handlers) getExerciseProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	p, err := parsePeriod(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.GetBool("one_rm", false) {
		out, err := h.ds.OneRMProgression(ctx, id, p)
		return h.result("get_exercise_progress", out, err)
	}
	out, err := h.ds.ExerciseProgress(ctx, id, p)
	return h.result("get_exercise_progress", out, err)
}

func (h *handlers) getExerciseHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	p, err := parsePeriod(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := h.ds.ExerciseHistory(ctx, id, p)
	return h.result("get_exercise_history", out, err)
}

func (h *handlers) getLastPerformance(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	out, err := h.ds.LastPerformance(ctx, id)
	return h.result("get_last_performance", out, err)
}

func (h *handlers) getMuscleVolume(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := h.ds.MuscleVolumeThisWeek(ctx)
	return h.result("get_muscle_volume", out, err)
}

func (h *handlers) getHeatmap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	year := req.GetInt("year", h.now().Year())
	if year < 1970 || year > 9999 {
		return mcp.NewToolResultError(fmt.Sprintf("invalid year %d", year)), nil
	}
	out, err := h.ds.HeatmapData(ctx, year)
	return h.result("get_heatmap", out, err)
}

func (h *handlers) getWeekActivity(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := h.ds.WeekActivity(ctx)
	return h.result("get_week_activity", out, err)
}

func (h *handlers) listExercises(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := h.ds.ListExercises(ctx)
	return h.result("list_exercises", out, err)
}

func (h *handlers) listComparableSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := parseType(req, true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", stats.DefaultComparableSessions)
	out, err := h.ds.ComparableSessions(ctx, t, limit)
	return h.result("list_comparable_sessions", out, err)
}

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("session_id parameter is required"), nil
	}
	out, err := h.ds.SessionForComparison(ctx, id)
	if err == nil && out == nil {
		return mcp.NewToolResultError("session not found: " + id), nil
	}
	return h.result("get_session", out, err)
}

func (h *handlers) compareSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := req.RequireString("a")
	if err != nil {
		return mcp.NewToolResultError("a parameter is required"), nil
	}
	b, err := req.RequireString("b")
	if err != nil {
		return mcp.NewToolResultError("b parameter is required"), nil
	}
	out, err := h.ds.CompareSessions(ctx, a, b)
	if errors.Is(err, stats.ErrSessionTypeMismatch) {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err == nil && out == nil {
		return mcp.NewToolResultError("session not found"), nil
	}
	return h.result("compare_sessions", out, err)
}
