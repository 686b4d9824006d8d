package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/liftlog/internal/importer"
	"github.com/meltforce/liftlog/internal/metrics"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/stats"
	"github.com/meltforce/liftlog/internal/storage"
)

// Reports is the report surface served over HTTP. *stats.Engine implements it.
type Reports interface {
	Overview(ctx context.Context, p stats.Period) (*stats.OverviewStats, error)
	SessionTypeStats(ctx context.Context, t models.WorkoutType, p stats.Period) (*stats.SessionTypeStats, error)
	SessionTypeDurations(ctx context.Context, t models.WorkoutType, p stats.Period) ([]stats.SessionDurationPoint, error)
	TopExercises(ctx context.Context, p stats.Period, limit int, t models.WorkoutType) ([]stats.TopExercise, error)
	Insights(ctx context.Context, p stats.Period) ([]stats.Insight, error)
	PersonalRecords(ctx context.Context) ([]stats.PersonalRecord, error)
	ExerciseProgress(ctx context.Context, exerciseID string, p stats.Period) ([]stats.ProgressPoint, error)
	OneRMProgression(ctx context.Context, exerciseID string, p stats.Period) ([]stats.OneRMPoint, error)
	ExerciseHistory(ctx context.Context, exerciseID string, p stats.Period) ([]stats.HistorySession, error)
	LastPerformance(ctx context.Context, exerciseID string) ([]stats.LastPerformanceSet, error)
	MuscleVolumeThisWeek(ctx context.Context) (*stats.MuscleWeek, error)
	HeatmapData(ctx context.Context, year int) ([]stats.HeatmapDay, error)
	WeekActivity(ctx context.Context) (*stats.WeekActivity, error)
	Dashboard(ctx context.Context, p stats.Period) (*stats.Dashboard, error)
	ComparableSessions(ctx context.Context, t models.WorkoutType, limit int) ([]stats.ComparableSession, error)
	SessionForComparison(ctx context.Context, id string) (*stats.ComparisonSession, error)
	CompareSessions(ctx context.Context, aID, bID string) (*stats.Comparison, error)
}

var _ Reports = (*stats.Engine)(nil)

// Catalog exposes the raw catalog and store counters.
type Catalog interface {
	ListExercises(ctx context.Context) ([]models.Exercise, error)
	GetDataStats(ctx context.Context) (*storage.DataStats, error)
}

// Backups is the backup import and export surface. *storage.SQLite and
// *storage.DB implement it.
type Backups interface {
	importer.Store
	ExportBackup(ctx context.Context, now time.Time) (*models.Export, error)
	QueryImportLogs(ctx context.Context, limit int) ([]storage.ImportLog, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	reports Reports
	catalog Catalog
	backups Backups
	metrics *metrics.Manager
	log     *slog.Logger
	apiKey  string
	whois   WhoIsFunc
	router  chi.Router

	// Now is the clock used for the default heatmap year.
	Now func() time.Time
}

// New creates a new Server with all routes configured. An empty apiKey
// disables API key checks; tsnet then handles access.
func New(reports Reports, catalog Catalog, m *metrics.Manager, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		reports: reports,
		catalog: catalog,
		metrics: m,
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
		Now:     time.Now,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetIdentity installs the tailnet identity lookup used by /api/v1/me.
func (s *Server) SetIdentity(whois WhoIsFunc) {
	s.whois = whois
}

// SetBackups enables the backup endpoints. Without it they answer 501.
func (s *Server) SetBackups(b Backups) {
	s.backups = b
}

func (s *Server) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Server) routes() {
	s.router.Use(RequestID)
	s.router.Use(RequestLogging(s.log))
	if s.metrics != nil {
		s.router.Use(RequestMetrics(s.metrics))
	}
	s.router.Use(CORS)

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}
		r.Use(s.identity)

		r.Get("/me", s.handleMe)
		r.Get("/exercises", s.handleListExercises)

		r.Route("/stats", func(r chi.Router) {
			r.Get("/overview", s.handleOverview)
			r.Get("/types/{type}", s.handleSessionTypeStats)
			r.Get("/types/{type}/durations", s.handleSessionTypeDurations)
			r.Get("/top", s.handleTopExercises)
			r.Get("/insights", s.handleInsights)
			r.Get("/records", s.handlePersonalRecords)
			r.Get("/exercises/{id}/progress", s.handleExerciseProgress)
			r.Get("/exercises/{id}/one-rm", s.handleOneRMProgression)
			r.Get("/exercises/{id}/history", s.handleExerciseHistory)
			r.Get("/exercises/{id}/last", s.handleLastPerformance)
			r.Get("/muscles/week", s.handleMuscleVolume)
			r.Get("/heatmap", s.handleHeatmap)
			r.Get("/week", s.handleWeekActivity)
			r.Get("/dashboard", s.handleDashboard)
			r.Get("/data", s.handleDataStats)
		})

		r.Post("/import", s.handleImport)
		r.Get("/imports", s.handleImportLogs)
		r.Get("/export", s.handleExport)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/comparable", s.handleComparableSessions)
			r.Get("/compare", s.handleCompareSessions)
			r.Get("/{id}/comparison", s.handleSessionForComparison)
		})
	})
}
