package http

import (
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"dictionary/app/internal/dictionary"
	"dictionary/app/internal/history"
	"dictionary/app/internal/lookup"
)

const defaultHistoryLimit = 5

// Options configures the HTTP server wiring.
type Options struct {
	Lookuper     dictionary.Lookuper
	History      history.Repository
	Database     *gorm.DB
	Ordering     lookup.Ordering
	Logger       *logrus.Logger
	SentryHub    *sentry.Hub
	RateLimiter  RateLimiterSettings
	SessionTTL   time.Duration
	HistoryLimit int
}

// RateLimiterSettings configures the HTTP rate limiter behaviour.
type RateLimiterSettings struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

// Server wires the HTTP transport layer via Huma and templ components.
type Server struct {
	api          huma.API
	mux          *stdhttp.ServeMux
	lookuper     dictionary.Lookuper
	history      history.Repository
	db           *gorm.DB
	ordering     lookup.Ordering
	logger       *logrus.Logger
	sentry       *sentry.Hub
	rateLimiter  *RateLimiter
	sessions     *sessionStore
	historyLimit int
}

// NewServer constructs the HTTP server. History and Database are optional.
func NewServer(opts Options) (*Server, error) {
	if opts.Lookuper == nil {
		return nil, eris.New("dictionary lookuper is required")
	}
	if opts.SessionTTL <= 0 {
		return nil, eris.New("session TTL must be greater than zero")
	}

	settings := opts.RateLimiter
	if settings.Burst <= 0 {
		return nil, eris.New("rate limiter burst must be greater than zero")
	}
	if settings.RequestsPerSecond <= 0 {
		return nil, eris.New("rate limiter requests per second must be greater than zero")
	}
	if settings.ClientTTL <= 0 {
		return nil, eris.New("rate limiter client TTL must be greater than zero")
	}

	historyLimit := opts.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig("Dictionary", "1.0.0")
	config.Info.Description = "Single-page dictionary lookup backed by a remote definition service."

	api := humago.New(mux, config)

	srv := &Server{
		api:          api,
		mux:          mux,
		lookuper:     opts.Lookuper,
		history:      opts.History,
		db:           opts.Database,
		ordering:     opts.Ordering,
		logger:       opts.Logger,
		sentry:       opts.SentryHub,
		historyLimit: historyLimit,
	}

	srv.rateLimiter = NewRateLimiter(settings.Burst, settings.RequestsPerSecond, settings.ClientTTL)
	srv.sessions = newSessionStore(opts.SessionTTL, srv.newController)

	srv.registerMiddlewares()
	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.mux
}

// API exposes the underlying Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background pruning and waits for outstanding lookups to finish.
func (s *Server) Close() {
	s.rateLimiter.Stop()
	s.sessions.Close()
}

func (s *Server) newController(sessionID string) (*lookup.Controller, error) {
	opts := lookup.Options{
		Lookuper:  s.lookuper,
		Ordering:  s.ordering,
		Logger:    s.logger,
		SentryHub: s.sentry,
	}

	if s.history != nil {
		recorder, err := history.NewSessionRecorder(s.history, sessionID)
		if err != nil {
			return nil, eris.Wrap(err, "creating session recorder")
		}
		opts.Recorder = recorder
	}

	return lookup.NewController(opts)
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.rateLimitMiddleware(),
		s.sessionMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) registerRoutes() {
	s.registerStaticRoute()

	s.registerHomeRoute()
	s.registerSearchRoute()
	s.registerThemeRoute()
	s.registerAPIRoutes()
	s.registerHealthRoute()
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.mux.ServeHTTP(w, r)
}
