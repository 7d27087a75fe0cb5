package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/skinstric/internal/config"
	"github.com/kozaktomas/skinstric/internal/database"
	"github.com/kozaktomas/skinstric/internal/web/handlers"
	"github.com/kozaktomas/skinstric/internal/web/middleware"
	"go.uber.org/zap"
)

// Options carries the collaborators of the web server.
type Options struct {
	Port          int
	Host          string
	SessionSecret string
	// SessionRepo persists visitor sessions; nil keeps them in memory.
	SessionRepo middleware.SessionRepository
	Store       database.KV
	// Analyzer calls Phase Two; nil makes every submission fail with a visible error.
	Analyzer handlers.Analyzer
	Logger   *zap.Logger
}

// Server represents the web server
type Server struct {
	config         *config.Config
	router         *chi.Mux
	httpServer     *http.Server
	sessionManager *middleware.SessionManager
	store          database.KV
	analyzer       handlers.Analyzer
	logger         *zap.Logger
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Store == nil {
		return nil, errors.New("storage backend is required")
	}

	r := chi.NewRouter()

	// Expired visitors lose their stored profile, image and result.
	sessionManager := middleware.NewSessionManager(opts.SessionSecret, opts.SessionRepo,
		middleware.WithLogger(logger),
		middleware.OnExpire(func(ctx context.Context, id string) {
			if err := database.ClearVisitor(ctx, opts.Store, id); err != nil {
				logger.Warn("failed to clear expired visitor", zap.Error(err))
			}
		}),
	)

	s := &Server{
		config:         cfg,
		router:         r,
		sessionManager: sessionManager,
		store:          opts.Store,
		analyzer:       opts.Analyzer,
		logger:         logger,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(cfg.Analysis.Timeout + 30*time.Second))
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	if err := s.setupRoutes(); err != nil {
		sessionManager.Stop()
		return nil, err
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.Analysis.Timeout + time.Minute, // analysis requests wait on Phase Two
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting web server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down web server")

	// Stop the session cleanup goroutine
	if s.sessionManager != nil {
		s.sessionManager.Stop()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
