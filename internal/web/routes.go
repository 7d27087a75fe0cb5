package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/skinstric/internal/fileserver"
	"github.com/kozaktomas/skinstric/internal/metrics"
	"github.com/kozaktomas/skinstric/internal/web/handlers"
	"github.com/kozaktomas/skinstric/internal/web/middleware"
	"github.com/kozaktomas/skinstric/internal/web/static"
)

func (s *Server) setupRoutes() error {
	pagesHandler, err := handlers.NewPagesHandler(s.config, s.store, s.analyzer, s.logger)
	if err != nil {
		return err
	}
	stateHandler := handlers.NewStateHandler(s.config, s.store, s.analyzer, s.sessionManager, s.logger)
	configHandler := handlers.NewConfigHandler(s.config)
	limiter := middleware.NewRateLimiter(s.config.Web.AnalysisRatePerMinute)

	// Health check, metrics and assets (no session required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)
	s.router.Handle("/metrics", metrics.Handler())
	s.router.Handle("/static/*", http.StripPrefix("/static", fileserver.New(static.FS(), s.logger)))

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.WithVisitor(s.sessionManager, s.logger))

		// Pages
		r.Get("/", pagesHandler.Home)
		r.Route("/analysis", func(r chi.Router) {
			r.Get("/introduce", pagesHandler.Introduce)
			r.Post("/introduce", pagesHandler.SubmitIntroduce)
			r.Get("/city", pagesHandler.City)
			r.Post("/city", pagesHandler.SubmitCity)
			r.Get("/permissions", pagesHandler.Permissions)
			r.Get("/image", pagesHandler.Image)
			r.With(limiter.Handler).Post("/image", pagesHandler.SubmitImage)
			r.Get("/selfie", pagesHandler.Selfie)
			r.With(limiter.Handler).Post("/selfie", pagesHandler.SubmitSelfie)
			r.Get("/demographics", pagesHandler.Demographics)
		})
		r.Get("/summary", pagesHandler.Summary)

		// API routes
		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/config", configHandler.Get)
			r.Get("/state", stateHandler.Get)
			r.Delete("/state", stateHandler.Delete)
			r.With(limiter.Handler).Post("/analysis", stateHandler.Analyze)
		})
	})

	return nil
}
