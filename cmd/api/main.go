package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"langpredict/internal/api"
	"langpredict/internal/api/handlers"
	apimiddleware "langpredict/internal/api/middleware"
	"langpredict/internal/config"
	"langpredict/internal/detection/profile"
	"langpredict/internal/domain/services"
	"langpredict/internal/grpc/langid"
	"langpredict/internal/infrastructure/cache"
	"langpredict/internal/infrastructure/database"
	"langpredict/internal/infrastructure/database/repository"
	"langpredict/internal/metrics"
	"langpredict/internal/streaming"
	"langpredict/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load(os.Getenv("LANGPREDICT_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logCfg := logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		TimeFormat: cfg.Logger.TimeFormat,
	}
	if cfg.App.Debug {
		logCfg.Level = "debug"
	}
	if cfg.IsProduction() {
		logCfg.Format = "json"
	}
	log := logger.New(logCfg)
	logger.SetGlobal(log)

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Environment).
		Str("version", cfg.App.Version).
		Msg("starting langpredict")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize infrastructure
	db, redisCache, err := initInfrastructure(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize infrastructure")
	}
	defer func() {
		if db != nil {
			db.Close()
		}
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	// Metrics
	metricsRegistry := metrics.NewRegistry()
	detectionMetrics := metrics.NewDetection(metricsRegistry)

	// Initialize streaming infrastructure
	var natsPublisher *streaming.NATSPublisher
	if cfg.NATS.Enabled {
		natsPublisher, err = streaming.NewNATSPublisher(ctx, cfg.NATS, log)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to NATS, continuing with local streaming only")
			natsPublisher = nil
		}
	}
	eventBus := streaming.NewEventBus(natsPublisher, log)
	defer eventBus.Close()
	log.Info().Bool("nats_enabled", natsPublisher != nil).Msg("event bus initialized")

	wsHub := streaming.NewWebSocketHub(eventBus, log)
	go wsHub.Run(ctx)

	// Load language profiles
	source, sourceName, err := profileSource(ctx, cfg, db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure profile source")
	}
	var setOpts []profile.SetOption
	if cfg.Detector.Seed != nil {
		setOpts = append(setOpts, profile.WithSeed(*cfg.Detector.Seed))
	}
	registry := services.NewProfileRegistry(source, sourceName, detectionMetrics, log, setOpts...)
	registry.SetPublisher(eventBus)
	scheduler := services.NewScheduler(registry, cfg.Profiles.ReloadInterval, log)
	if _, err := scheduler.RunNow(ctx, "startup"); err != nil {
		log.Fatal().Err(err).Msg("failed to load language profiles")
	}
	go func() {
		if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("scheduler stopped unexpectedly")
		}
	}()

	// Initialize services
	resultCache, err := newResultCache(cfg, redisCache)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create result cache")
	}
	detectionService := services.NewDetectionService(registry, cfg.Detector, resultCache, eventBus, detectionMetrics, log)

	// Readiness checks shared by /ready and the gRPC health service
	checks := map[string]handlers.ReadinessCheck{}
	if db != nil {
		checks["postgres"] = db.Ping
	}
	if redisCache != nil {
		checks["redis"] = redisCache.Ping
	}
	if natsPublisher != nil {
		checks["nats"] = func(context.Context) error {
			if !natsPublisher.IsConnected() {
				return errors.New("not connected")
			}
			return nil
		}
	}

	// Create handlers and router
	h := handlers.NewHandlers(handlers.Dependencies{
		Detection:    detectionService,
		Registry:     registry,
		Scheduler:    scheduler,
		Hub:          wsHub,
		EventBus:     eventBus,
		Checks:       checks,
		Version:      cfg.App.Version,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Logger:       log,
	})

	var limiter apimiddleware.Limiter
	if redisCache != nil {
		limiter = redisCache
	}
	router := api.NewRouter(*cfg, h, limiter, metricsRegistry.Handler(), log)

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Start gRPC server
	grpcListener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gRPC listener")
	}

	grpcServer := grpc.NewServer()
	langid.NewServer(detectionService, registry, eventBus, log).Register(grpcServer)

	grpcChecks := make([]langid.Check, 0, len(checks))
	for _, check := range checks {
		grpcChecks = append(grpcChecks, langid.Check(check))
	}
	langid.RegisterHealthServer(ctx, grpcServer, registry, grpcChecks...)

	go func() {
		log.Info().
			Str("addr", grpcListener.Addr().String()).
			Msg("starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			log.Fatal().Err(err).Msg("gRPC server failed")
		}
	}()

	// Reload profiles on SIGHUP, stop on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range quit {
		if sig != syscall.SIGHUP {
			break
		}
		log.Info().Msg("SIGHUP received, reloading profiles")
		if _, err := scheduler.RunNow(ctx, "sighup"); err != nil {
			log.Error().Err(err).Msg("profile reload failed, keeping current set")
		}
	}

	log.Info().Msg("shutting down...")

	// Cancel context to stop background services
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	grpcServer.GracefulStop()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("shutdown complete")
}

// initInfrastructure initializes the enabled database and cache connections
func initInfrastructure(ctx context.Context, cfg *config.Config, log *logger.Logger) (*database.PostgresDB, *cache.RedisCache, error) {
	var db *database.PostgresDB
	if cfg.Database.Enabled {
		var err error
		db, err = database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
	}

	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		var err error
		redisCache, err = cache.NewRedis(ctx, cfg.Redis, log)
		if err != nil {
			if db != nil {
				db.Close()
			}
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
	}

	return db, redisCache, nil
}

// profileSource returns the configured profile source and its display name
func profileSource(ctx context.Context, cfg *config.Config, db *database.PostgresDB, log *logger.Logger) (profile.Source, string, error) {
	switch cfg.Profiles.Source {
	case config.ProfileSourcePostgres:
		repo := repository.NewProfileRepository(db.Pool())
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, "", err
		}
		return repo, "postgres", nil
	default:
		return profile.NewLoader(log).Directory(cfg.Profiles.Dir), "dir:" + cfg.Profiles.Dir, nil
	}
}

// newResultCache builds the configured result cache, or nil when caching is off
func newResultCache(cfg *config.Config, redisCache *cache.RedisCache) (services.ResultCache, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisResultCache(redisCache, cfg.Cache.TTL), nil
	case "lru":
		lru, err := cache.NewLRUResultCache(cfg.Cache.Size, cfg.Cache.TTL)
		if err != nil {
			return nil, err
		}
		return lru, nil
	default:
		return nil, nil
	}
}
