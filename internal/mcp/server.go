package mcp

import (
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog strength training server. Query workout volume, progression, personal records, muscle fatigue and session comparisons. Weights are in kilograms; periods are 1W, 1M, 3M, 6M, 1Y or ALL."),
	)

	h := &handlers{ds: ds, log: log, now: time.Now}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetOverview, Handler: h.getOverview},
		server.ServerTool{Tool: toolGetSessionTypeStats, Handler: h.getSessionTypeStats},
		server.ServerTool{Tool: toolGetTopExercises, Handler: h.getTopExercises},
		server.ServerTool{Tool: toolGetInsights, Handler: h.getInsights},
		server.ServerTool{Tool: toolGetPersonalRecords, Handler: h.getPersonalRecords},
		server.ServerTool{Tool: toolGetExerciseProgress, Handler: h.getExerciseProgress},
		server.ServerTool{Tool: toolGetExerciseHistory, Handler: h.getExerciseHistory},
		server.ServerTool{Tool: toolGetLastPerformance, Handler: h.getLastPerformance},
		server.ServerTool{Tool: toolGetMuscleVolume, Handler: h.getMuscleVolume},
		server.ServerTool{Tool: toolGetHeatmap, Handler: h.getHeatmap},
		server.ServerTool{Tool: toolGetWeekActivity, Handler: h.getWeekActivity},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolListComparableSessions, Handler: h.listComparableSessions},
		server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
		server.ServerTool{Tool: toolCompareSessions, Handler: h.compareSessions},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resDashboard, Handler: h.dashboard},
		server.ServerResource{Resource: resPersonalRecords, Handler: h.personalRecords},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
	now func() time.Time
}

// --- Resource definitions ---

var resDashboard = mcp.NewResource(
	"liftlog://dashboard",
	"Dashboard",
	mcp.WithResourceDescription("Last month's overview, insights, personal records, muscle fatigue and this week's activity"),
	mcp.WithMIMEType("application/json"),
)

var resPersonalRecords = mcp.NewResource(
	"liftlog://personal_records",
	"Personal Records",
	mcp.WithResourceDescription("Heaviest set ever lifted per exercise with estimated one-rep max"),
	mcp.WithMIMEType("application/json"),
)
