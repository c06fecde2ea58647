// Package server is the composition root: it opens the store and the
// aggregate cache, builds the services and handlers, and mounts the routes.
//
// Dependency flow:
//
//	config.Config → repository.Store (sqlite | mongo)
//	              → cache.Aggregates (redis | in-process)
//	              → insight.Provider (optional)
//	              → services → handlers → chi router
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sakif/mindspace/internal/auth"
	"github.com/sakif/mindspace/internal/cache"
	"github.com/sakif/mindspace/internal/config"
	"github.com/sakif/mindspace/internal/handler"
	"github.com/sakif/mindspace/internal/insight"
	"github.com/sakif/mindspace/internal/middleware"
	"github.com/sakif/mindspace/internal/repository"
	mongoRepo "github.com/sakif/mindspace/internal/repository/mongo"
	sqliteRepo "github.com/sakif/mindspace/internal/repository/sqlite"
	"github.com/sakif/mindspace/internal/service"
)

// Server owns the router and every resource that must be released on
// shutdown.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  zerolog.Logger
	store   repository.Store
	closers []io.Closer
}

// New wires the whole application from cfg. Anything opened before a
// failure is closed again.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *Server, err error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	s.store, err = openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, s.store)

	cacheStore, err := s.openCache(cfg)
	if err != nil {
		return nil, err
	}
	aggregates := cache.NewAggregates(cacheStore, logger)

	provider, err := insight.New(insight.Settings{
		Kind:     cfg.AIProvider,
		APIKey:   cfg.AIAPIKey,
		Model:    cfg.AIModel,
		Endpoint: cfg.AIEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("creating insight provider: %w", err)
	}
	if provider == nil {
		logger.Warn().Msg("no AI provider configured, /api/moods/insight will return 503")
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	opts := []service.Option{
		service.WithLocation(loc),
		service.WithStreakHorizon(cfg.StreakHorizonDays),
	}
	moods := service.NewMoodService(s.store, aggregates, logger, opts...)
	trends := service.NewTrendService(s.store, aggregates, logger, opts...)
	stats := service.NewStatsService(s.store, aggregates, logger, opts...)
	insights := service.NewInsightService(trends, stats, provider, logger)
	authService := service.NewAuthService(s.store, tokens, auth.NewPasswordService(), logger)

	s.setupRoutes(routes{
		moods:   handler.NewMoodHandler(moods, trends, stats, insights),
		auth:    handler.NewAuthHandler(authService, tokens, cfg.Environment == config.EnvProduction),
		health:  handler.NewHealthHandler(s.store),
		require: auth.RequireOwner(tokens, s.store, logger),
	})

	return s, nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.DBDriver {
	case config.DriverMongo:
		store, err := mongoRepo.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("opening mongo store: %w", err)
		}
		return store, nil
	default:
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite database: %w", err)
		}
		return db, nil
	}
}

// openCache picks Redis when a URL is configured so that every replica sees
// the same invalidations, and an in-process cache otherwise.
func (s *Server) openCache(cfg *config.Config) (cache.Store, error) {
	if cfg.RedisURL == "" {
		return cache.NewMemory(cfg.CacheTTL), nil
	}
	r, err := cache.NewRedis(cfg.RedisURL, cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	s.closers = append(s.closers, r)
	return r, nil
}

type routes struct {
	moods   *handler.MoodHandler
	auth    *handler.AuthHandler
	health  *handler.HealthHandler
	require func(http.Handler) http.Handler
}

// setupRoutes mounts:
//
//	GET    /healthz
//	GET    /metrics
//	POST   /api/auth/register
//	POST   /api/auth/login
//	POST   /api/auth/logout
//	GET    /api/me                 (auth)
//	DELETE /api/me                 (auth)
//	POST   /api/moods              (auth)
//	GET    /api/moods              (auth)
//	GET    /api/moods/trend        (auth)
//	GET    /api/moods/stats        (auth)
//	GET    /api/moods/insight      (auth)
//	PUT    /api/moods/{id}         (auth)
//	DELETE /api/moods/{id}         (auth)
//
// Middleware order matters: RequestID must run before Logger so the
// request-scoped logger can pick the id up.
func (s *Server) setupRoutes(h routes) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", h.health.HandleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.auth.HandleRegister)
		r.Post("/auth/login", h.auth.HandleLogin)
		r.Post("/auth/logout", h.auth.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(h.require)

			r.Get("/me", h.auth.HandleMe)
			r.Delete("/me", h.auth.HandleDeactivate)

			r.Route("/moods", func(r chi.Router) {
				r.Post("/", h.moods.HandleCreate)
				r.Get("/", h.moods.HandleList)
				r.Get("/trend", h.moods.HandleTrend)
				r.Get("/stats", h.moods.HandleStats)
				r.Get("/insight", h.moods.HandleInsight)
				r.Put("/{id}", h.moods.HandleUpdate)
				r.Delete("/{id}", h.moods.HandleDelete)
			})
		})
	})
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and releases the store and cache.
func (s *Server) Start() error {
	defer s.close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().
			Int("port", s.config.Port).
			Str("url", fmt.Sprintf("http://localhost:%d", s.config.Port)).
			Str("db_driver", s.config.DBDriver).
			Msg("server starting")
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info().Msg("server stopped gracefully")
	}

	return nil
}

// close releases resources in reverse order of acquisition.
func (s *Server) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			s.logger.Warn().Err(err).Msg("closing resource")
		}
	}
	s.closers = nil
}
