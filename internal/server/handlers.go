package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/stats"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	exercises, err := s.catalog.ListExercises(r.Context())
	if err != nil {
		s.serverError(w, "list exercises", err)
		return
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleDataStats(w http.ResponseWriter, r *http.Request) {
	ds, err := s.catalog.GetDataStats(r.Context())
	if err != nil {
		s.serverError(w, "data stats", err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	p, ok := periodParam(w, r)
	if !ok {
		return
	}
	out, err := s.reports.Overview(r.Context(), p)
	if err != nil {
		s.serverError(w, "overview", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSessionTypeStats(w http.ResponseWriter, r *http.Request) {
	t, ok := typeParam(w, r)
	if !ok {
		return
	}
	p, ok := periodParam(w, r)
	if !ok {
		return
	}
	out, err := s.reports.SessionTypeStats(r.Context(), t, p)
	if err != nil {
		s.serverError(w, "session type stats", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSessionTypeDurations(w http.ResponseWriter, r *http.Request) {
	t, ok := typeParam(w, r)
	if !ok {
		return
	}
	p, ok := periodParam(w, r)
	if !ok {
		return
	}
	out, err := s.reports.SessionTypeDurations(r.Context(), t, p)
	if err != nil {
		s.serverError(w, "session type durations", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTopExercises(w http.ResponseWriter, r *http.Request) {
	p, ok := periodParam(w, r)
	if !ok {
		return
	}
	limit, ok := intParam(w, r, "limit", stats.DefaultTopExercises)
	if !ok {
		return
	}
	var t models.WorkoutType
	if raw := r.URL.Query().Get("type"); raw != "" {
		parsed, err := models.ParseWorkoutType(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		t = parsed
	}
	out, err := s.reports.TopExercises(r.Context(), p, limit, t)
	if err != nil {
		s.serverError(w, "top exercises", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	p, ok := periodParam(w, r)
	if !ok {
		return
	}
	out, err := s.reports.Insights(r.Context(), p)
	if err != nil {
		s.serverError(w, "insights", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePersonalRecords(w http.ResponseWriter, r *http.Request) {
	out, err := s.reports.PersonalRecords(r.Context())
	if err != nil {
		s.serverError(w, "personal records", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExerciseProgress(w http.ResponseWriter, r *http.Request) {
	p, ok := periodParam(w, r)
	if !ok {
		return
	}
	out, err := s.reports.ExerciseProgress(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		s.serverError(w, "exercise progress", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleOneRMProgression(w http.ResponseWriter, r *http.Request) {
	p, ok := periodParam(w, r)
	if !ok {
		return
	}
	out, err := s.reports.OneRMProgression(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		s.serverError(w, "one rm progression", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExerciseHistory(w http.ResponseWriter, r *http.Request) {
	p, ok := periodParam(w, r)
	if !ok {
		return
	}
	out, err := s.reports.ExerciseHistory(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		s.serverError(w, "exercise history", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLastPerformance(w http.ResponseWriter, r *http.Request) {
	out, err := s.reports.LastPerformance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.serverError(w, "last performance", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMuscleVolume(w http.ResponseWriter, r *http.Request) {
	out, err := s.reports.MuscleVolumeThisWeek(r.Context())
	if err != nil {
		s.serverError(w, "muscle volume", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1970 || y > 9999 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid year %q", raw))
			return
		}
		year = y
	}
	if year == 0 {
		year = s.now().Year()
	}
	out, err := s.reports.HeatmapData(r.Context(), year)
	if err != nil {
		s.serverError(w, "heatmap", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleWeekActivity(w http.ResponseWriter, r *http.Request) {
	out, err := s.reports.WeekActivity(r.Context())
	if err != nil {
		s.serverError(w, "week activity", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := periodParam(w, r)
	if !ok {
		return
	}
	out, err := s.reports.Dashboard(r.Context(), p)
	if err != nil {
		s.serverError(w, "dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleComparableSessions(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("type")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "type parameter required")
		return
	}
	t, err := models.ParseWorkoutType(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, ok := intParam(w, r, "limit", stats.DefaultComparableSessions)
	if !ok {
		return
	}
	out, err := s.reports.ComparableSessions(r.Context(), t, limit)
	if err != nil {
		s.serverError(w, "comparable sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSessionForComparison(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	out, err := s.reports.SessionForComparison(r.Context(), id)
	if err != nil {
		s.serverError(w, "session for comparison", err)
		return
	}
	if out == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCompareSessions(w http.ResponseWriter, r *http.Request) {
	a, b := r.URL.Query().Get("a"), r.URL.Query().Get("b")
	if a == "" || b == "" {
		writeError(w, http.StatusBadRequest, "a and b parameters required")
		return
	}
	out, err := s.reports.CompareSessions(r.Context(), a, b)
	if errors.Is(err, stats.ErrSessionTypeMismatch) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		s.serverError(w, "compare sessions", err)
		return
	}
	if out == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// periodParam reads ?period=, defaulting to stats.DefaultPeriod. It writes a
// 400 and returns false on an unknown token.
func periodParam(w http.ResponseWriter, r *http.Request) (stats.Period, bool) {
	raw := r.URL.Query().Get("period")
	if strings.TrimSpace(raw) == "" {
		return stats.DefaultPeriod, true
	}
	p, err := stats.ParsePeriod(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return p, true
}

func typeParam(w http.ResponseWriter, r *http.Request) (models.WorkoutType, bool) {
	t, err := models.ParseWorkoutType(chi.URLParam(r, "type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return t, true
}

func intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s %q", name, raw))
		return 0, false
	}
	return n, true
}

func (s *Server) serverError(w http.ResponseWriter, what string, err error) {
	s.log.Error(what+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
