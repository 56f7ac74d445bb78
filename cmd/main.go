package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-itinerary/internal/config"
	"github.com/KasumiMercury/primind-itinerary/internal/handler"
	"github.com/KasumiMercury/primind-itinerary/internal/health"
	"github.com/KasumiMercury/primind-itinerary/internal/infra/repository"
	"github.com/KasumiMercury/primind-itinerary/internal/observability/logging"
	"github.com/KasumiMercury/primind-itinerary/internal/observability/metrics"
	"github.com/KasumiMercury/primind-itinerary/internal/observability/middleware"
	"github.com/KasumiMercury/primind-itinerary/internal/service/autosave"
	"github.com/KasumiMercury/primind-itinerary/internal/service/itinerary"
)

// Version is set via ldflags at build time
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	obs, err := initObservability(ctx)
	if err != nil {
		slog.Error("failed to initialize observability", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			slog.Warn("observability shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.SetDefault(obs.Logger())

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		return 1
	}

	if err := config.ValidateForRun(cfg); err != nil {
		slog.Error("configuration validation error", slog.String("error", err.Error()))
		return 1
	}

	obs.SetLogLevel(cfg.LogLevel)

	httpMetrics, err := metrics.NewHTTPMetrics()
	if err != nil {
		slog.Error("failed to initialize HTTP metrics", slog.String("error", err.Error()))
		return 1
	}

	scheduleMetrics, err := metrics.NewScheduleMetrics()
	if err != nil {
		slog.Error("failed to initialize schedule metrics", slog.String("error", err.Error()))
		return 1
	}

	redisClient := redis.NewClient(cfg.Redis.Options())

	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		slog.Error("failed to instrument redis tracing",
			slog.String("event", "redis.otel.tracing.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		slog.Error("failed to instrument redis metrics",
			slog.String("event", "redis.otel.metrics.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect redis",
			slog.String("event", "redis.connect.fail"),
			slog.String("error", err.Error()),
		)
		return 1
	}

	defer func() {
		if err := redisClient.Close(); err != nil {
			slog.Warn("failed to close redis client", slog.String("error", err.Error()))
		}
	}()

	slog.Info("redis connected",
		slog.String("addr", cfg.Redis.Addr),
	)

	scheduleRepo := repository.NewScheduleRepository(redisClient, cfg.Trip.ID)

	trip := cfg.Trip.ToDomain()
	itineraryService := itinerary.NewService(trip, scheduleRepo,
		itinerary.WithMetrics(scheduleMetrics),
		itinerary.WithPersistTimeout(cfg.PersistTimeout),
	)

	if err := itineraryService.Load(ctx); err != nil {
		slog.Error("failed to load itinerary",
			slog.String("trip_id", cfg.Trip.ID),
			slog.String("error", err.Error()),
		)
		return 1
	}

	// Flush outstanding saves and write one final snapshot after the server
	// has stopped accepting requests.
	defer func() {
		itineraryService.Wait()

		saveCtx, saveCancel := context.WithTimeout(context.Background(), cfg.PersistTimeout)
		defer saveCancel()
		if err := itineraryService.Autosave(saveCtx); err != nil {
			slog.Error("final autosave failed", slog.String("error", err.Error()))
		}
	}()

	if cfg.Autosave.Enabled {
		scheduler, err := autosave.NewScheduler(itineraryService, cfg.Autosave.Schedule,
			autosave.WithTimeout(cfg.Autosave.Timeout),
			autosave.WithLocation(cfg.Autosave.Location),
		)
		if err != nil {
			slog.Error("invalid autosave schedule",
				slog.String("schedule", cfg.Autosave.Schedule),
				slog.String("error", err.Error()),
			)
			return 1
		}

		if err := scheduler.Start(ctx); err != nil {
			slog.Error("failed to start autosave scheduler", slog.String("error", err.Error()))
			return 1
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Autosave.Timeout)
			defer stopCancel()
			scheduler.Stop(stopCtx)
		}()
	} else {
		slog.Warn("autosave disabled")
	}

	scheduleHandler := handler.NewScheduleHandler(itineraryService)
	syncHandler := handler.NewSyncHandler(itineraryService)

	r := gin.New()
	r.Use(middleware.Gin(middleware.GinConfig{
		SkipPaths:   []string{"/health", "/health/live", "/health/ready"},
		Module:      logging.Module("itinerary"),
		TracerName:  "github.com/KasumiMercury/primind-itinerary/internal/observability/middleware",
		HTTPMetrics: httpMetrics,
	}))
	r.Use(middleware.PanicRecoveryGin())

	healthChecker := health.NewChecker(Version).
		Register("redis", scheduleRepo).
		WithBacklog(func() int { return len(itineraryService.Failures()) })
	r.GET("/health/live", healthChecker.LiveHandler())
	r.GET("/health/ready", healthChecker.ReadyHandler())
	r.GET("/health", healthChecker.Handler())

	v1 := r.Group("/api/v1")
	scheduleHandler.RegisterRoutes(v1)
	syncHandler.RegisterRoutes(v1)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Port),
			slog.String("trip_id", trip.ID),
			slog.String("start_date", cfg.Trip.StartDate),
			slog.String("end_date", cfg.Trip.EndDate),
			slog.Bool("autosave", cfg.Autosave.Enabled),
		)
		serverErr <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shutdown server", slog.String("error", err.Error()))
			return 1
		}

		slog.Info("server exited properly")
		return 0

	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return 0
		}
		slog.Error("server exited with error", slog.String("error", err.Error()))
		return 1
	}
}
