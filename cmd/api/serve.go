package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/maroonxv/travel-sharing/internal/config"
	"github.com/maroonxv/travel-sharing/internal/domain"
	"github.com/maroonxv/travel-sharing/internal/events"
	"github.com/maroonxv/travel-sharing/internal/geo"
	"github.com/maroonxv/travel-sharing/internal/handler"
	"github.com/maroonxv/travel-sharing/internal/itinerary"
	"github.com/maroonxv/travel-sharing/internal/middleware"
	"github.com/maroonxv/travel-sharing/internal/repo"
	"github.com/maroonxv/travel-sharing/internal/service"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long:  `serve starts the trip planning API and blocks until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := newLogger(cfg.LogLevel)

	// --- Database ---------------------------------------------------------
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("create database pool: %w", err)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("database connection established")

	// --- Geo --------------------------------------------------------------
	provider, closeGeo, err := newGeoProvider(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeGeo()

	mode := domain.TransportMode("")
	if cfg.DefaultTransportMode != "auto" {
		if mode, err = domain.ParseTransportMode(cfg.DefaultTransportMode); err != nil {
			return fmt.Errorf("DEFAULT_TRANSPORT_MODE: %w", err)
		}
	}
	planCfg := itinerary.DefaultConfig()
	planCfg.DefaultMode = mode
	planCfg.Currency = cfg.DefaultCurrency
	planner := itinerary.NewService(provider, planCfg, logger)

	// --- Events -----------------------------------------------------------
	publisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	// --- Service & router -------------------------------------------------
	svc := service.NewTravelService(repo.NewTripRepo(pool), provider, planner, publisher, logger)
	api := handler.NewServer(svc, cfg.DefaultCurrency, logger)

	// Middleware is applied in order: RequestID → RealIP → Actor → Logger →
	// Recoverer → CORS → body limit.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// Actor copies X-User-ID into the context before the logger reads it.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewActorHandler())
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Mount("/", api.Routes())

	// --- HTTP Server ------------------------------------------------------
	// Explicit timeouts prevent slowloris and resource exhaustion attacks.
	// WriteTimeout leaves room for routing calls to the geo provider.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// newGeoProvider picks the OpenRouteService client when an API key is set,
// else straight-line estimates, and wraps it in the Redis cache when
// REDIS_URL is set. The returned func releases the Redis client.
func newGeoProvider(ctx context.Context, cfg config.Config, logger *slog.Logger) (geo.Provider, func(), error) {
	var provider geo.Provider = geo.StraightLine{}
	if cfg.ORSAPIKey != "" {
		opts := []geo.ORSOption{geo.WithLogger(logger)}
		if cfg.ORSBaseURL != "" {
			opts = append(opts, geo.WithBaseURL(cfg.ORSBaseURL))
		}
		ors, err := geo.NewORSProvider(cfg.ORSAPIKey, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("configure geo provider: %w", err)
		}
		provider = ors
		logger.Info("geo provider configured", "provider", "openrouteservice")
	} else {
		logger.Warn("ORS_API_KEY not set; using straight-line route estimates")
	}

	if cfg.RedisURL == "" {
		return provider, func() {}, nil
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("route cache enabled", "ttl", cfg.RouteCacheTTL.String())
	return geo.NewCache(provider, rdb, cfg.RouteCacheTTL, logger), func() { _ = rdb.Close() }, nil
}

// newPublisher returns the configured event publisher. The in-memory bus gets
// one subscriber that logs every event at debug level.
func newPublisher(cfg config.Config, logger *slog.Logger) (events.Publisher, error) {
	if cfg.EventBus == config.EventBusRabbitMQ {
		pub, err := events.Dial(cfg.RabbitMQURL, events.DefaultExchange)
		if err != nil {
			return nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}
		logger.Info("event bus configured", "bus", cfg.EventBus, "exchange", events.DefaultExchange)
		return pub, nil
	}

	bus := events.NewChannelBus(0)
	_, ch, err := bus.Subscribe()
	if err != nil {
		return nil, fmt.Errorf("subscribe event log: %w", err)
	}
	go func() {
		for ev := range ch {
			logger.Debug("trip event", "event", ev.EventName(), "trip_id", ev.AggregateID())
		}
	}()
	logger.Info("event bus configured", "bus", cfg.EventBus)
	return bus, nil
}
