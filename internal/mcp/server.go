package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/movecoach/internal/catalog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, cat *catalog.Catalog, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("MoveCoach", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("MoveCoach physical therapy server. Lists the supported exercises and queries recorded exercise results, per-exercise statistics and progress reports. All data is scoped to the authenticated patient."),
	)

	h := &handlers{ds: ds, catalog: cat, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolQueryResults, Handler: h.queryResults},
		server.ServerTool{Tool: toolGetExerciseStats, Handler: h.getExerciseStats},
		server.ServerTool{Tool: toolGetProgressReport, Handler: h.getProgressReport},
		server.ServerTool{Tool: toolComparePeriods, Handler: h.comparePeriods},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
		server.ServerResource{Resource: resRecentResults, Handler: h.recentResults},
		server.ServerResource{Resource: resWeeklyReport, Handler: h.weeklyReport},
	)

	return s
}

// HTTPHandler serves s over streamable HTTP. The user ID is taken from the
// request context, where the API's identity middleware placed it via
// WithUserID.
func HTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s,
		server.WithStateLess(true),
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return WithUserID(ctx, UserIDFromContext(r.Context()))
		}),
	)
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds      DataSource
	catalog *catalog.Catalog
	log     *slog.Logger
}

// --- Resource definitions ---

var resExerciseCatalog = mcp.NewResource(
	"movecoach://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("All supported exercises with their repetition, set and duration targets"),
	mcp.WithMIMEType("application/json"),
)

var resRecentResults = mcp.NewResource(
	"movecoach://recent_results",
	"Recent Results",
	mcp.WithResourceDescription("Exercise results from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

var resWeeklyReport = mcp.NewResource(
	"movecoach://weekly_report",
	"Weekly Report",
	mcp.WithResourceDescription("Completion rating and feedback over the last 7 days"),
	mcp.WithMIMEType("application/json"),
)
