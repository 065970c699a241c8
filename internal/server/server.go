package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/movecoach/internal/catalog"
	"github.com/claude/movecoach/internal/exercise"
	"github.com/claude/movecoach/internal/mcp"
	"github.com/claude/movecoach/internal/metrics"
	"github.com/claude/movecoach/internal/models"
	"github.com/claude/movecoach/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
)

// ResultStore persists session results and resolves users.
type ResultStore interface {
	InsertSessionResult(ctx context.Context, row models.SessionResult) (bool, error)
	QuerySessionResults(ctx context.Context, userID int, start, end time.Time, exerciseKey string) ([]models.SessionResult, error)
	GetExerciseStats(ctx context.Context, userID int, start, end time.Time) ([]storage.ExerciseStat, error)
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)
	Ping(ctx context.Context) error
}

// Compile-time check that *storage.DB implements ResultStore.
var _ ResultStore = (*storage.DB)(nil)

// Options configures the live-session side of the server.
type Options struct {
	Engine      exercise.Options
	Tick        time.Duration
	APIKey      string
	MaxSessions int
	// IdleTimeout ends sessions without requests for this long.
	IdleTimeout time.Duration
	Metrics     *metrics.Manager
	Gatherer    prometheus.Gatherer
	// MCP, when set, is served at /api/v1/mcp for the identified user.
	MCP http.Handler
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    ResultStore
	catalog  *catalog.Catalog
	opts     Options
	metrics  *metrics.Manager
	log      *slog.Logger
	apiKey   string
	router   chi.Router
	sessions *registry
	whois    whoIser
}

// New creates a new Server with all routes configured.
func New(store ResultStore, cat *catalog.Catalog, opts Options, log *slog.Logger) *Server {
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewTestManager()
	}
	if opts.MaxSessions == 0 {
		opts.MaxSessions = 64
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = 10 * time.Minute
	}
	s := &Server{
		store:    store,
		catalog:  cat,
		opts:     opts,
		metrics:  opts.Metrics,
		log:      log,
		apiKey:   opts.APIKey,
		router:   chi.NewRouter(),
		sessions: newRegistry(opts.MaxSessions),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(RequestMetrics(s.metrics))
	s.router.Use(CORS)

	s.router.Get("/health", s.handleHealth)
	if s.opts.Gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Use(s.identify)

		r.Get("/me", s.handleMe)
		r.Get("/exercises", s.handleExercises)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleEndSession)
			r.Post("/frames", s.handleFrames)
			r.Post("/instructed", s.handleInstructed)
			r.Post("/reset", s.handleReset)
			r.Get("/feedback", s.handleFeedback)
		})

		r.Post("/results", s.handleInsertResult)
		r.Get("/results", s.handleQueryResults)
		r.Get("/results/stats", s.handleResultStats)
		r.Get("/results/report", s.handleResultReport)

		if s.opts.MCP != nil {
			r.Handle("/mcp", s.withMCPUser(s.opts.MCP))
		}
	})
}

// withMCPUser hands the identified user to MCP tool handlers.
func (s *Server) withMCPUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := mcp.WithUserID(r.Context(), userIDFromContext(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetTailscale resolves request identities through the tailnet.
func (s *Server) SetTailscale(lc whoIser) {
	s.whois = lc
}

// Shutdown ends every live session, storing the results of those that
// completed at least one repetition. It returns the errors of all sessions
// that could not be ended cleanly.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	for _, ls := range s.sessions.drain() {
		if _, _, endErr := s.endSession(ctx, ls); endErr != nil {
			err = multierr.Append(err, fmt.Errorf("ending session %s: %w", ls.id, endErr))
		}
	}
	return err
}
