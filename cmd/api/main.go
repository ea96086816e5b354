package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dejobratic/catalog/internal/breaker"
	"github.com/dejobratic/catalog/internal/cache"
	"github.com/dejobratic/catalog/internal/catalog/adapters"
	cataloghttp "github.com/dejobratic/catalog/internal/catalog/adapters/http"
	catalogpostgres "github.com/dejobratic/catalog/internal/catalog/adapters/postgres"
	catalogapp "github.com/dejobratic/catalog/internal/catalog/app"
	"github.com/dejobratic/catalog/internal/config"
	"github.com/dejobratic/catalog/internal/database"
	"github.com/dejobratic/catalog/internal/events"
	"github.com/dejobratic/catalog/internal/feed"
	"github.com/dejobratic/catalog/internal/idempotency"
	"github.com/dejobratic/catalog/internal/metrics"
	"github.com/dejobratic/catalog/internal/oauth"
	"github.com/dejobratic/catalog/internal/ratelimit"
	"github.com/dejobratic/catalog/internal/telemetry"
	"github.com/dejobratic/catalog/internal/webhooks"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(parseLogLevel(cfg.Telemetry.LogLevel))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := initTelemetry(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()
	meter := tel.MeterProvider().Meter(cfg.Service.Name)

	pool, err := database.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		logger.Info("running database migrations", "path", cfg.Database.MigrationsPath)
		if err := database.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations completed successfully")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	sharedCache := cache.NewRedisStore(rdb)
	localCache, err := cache.NewLocal(cfg.Cache.LocalMaxEntries)
	if err != nil {
		logger.Error("failed to create local cache", "error", err)
		os.Exit(1)
	}
	tieredCache := cache.NewTiered(localCache, sharedCache)

	registry := metrics.NewRegistry()

	brk := breaker.New(breaker.Config{
		ErrorThresholdPct: cfg.Breaker.ErrorThresholdPct,
		MinRequests:       cfg.Breaker.MinRequests,
		WindowInterval:    cfg.Breaker.WindowInterval,
		OpenTimeout:       cfg.Breaker.OpenTimeout,
		OnStateChange: func(from, to breaker.State) {
			registry.SetCircuitStatus(to.String())
			logger.Warn("circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	})

	tokens := oauth.NewClient(oauth.Config{
		TokenURL:     cfg.OAuth.TokenURL,
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		SafetyMargin: cfg.OAuth.SafetyMargin,
		Timeout:      cfg.OAuth.Timeout,
		MaxAttempts:  cfg.OAuth.MaxAttempts,
		BaseDelay:    cfg.OAuth.BaseDelay,
	}, sharedCache, registry, logger)

	feedClient := feed.NewClient(feed.Config{
		BaseURL:       cfg.Feed.BaseURL,
		CallTimeout:   cfg.Feed.CallTimeout,
		ClientTimeout: cfg.Feed.ClientTimeout,
		MaxAttempts:   cfg.Feed.MaxAttempts,
		BaseDelay:     cfg.Feed.BaseDelay,
		MaxDelay:      cfg.Feed.MaxDelay,
	}, tokens, brk, registry, logger)

	dbMetrics, err := database.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create database metrics", "error", err)
		os.Exit(1)
	}
	repo := adapters.NewObservableRepository(catalogpostgres.NewRepository(pool), dbMetrics)

	catalogService := catalogapp.NewService(repo, tieredCache, feedClient, registry, logger, catalogapp.Config{
		ListTTL:      cfg.Cache.ListTTL,
		DetailTTL:    cfg.Cache.DetailTTL,
		DefaultLimit: cfg.Pagination.DefaultLimit,
		MaxLimit:     cfg.Pagination.MaxLimit,
	})

	eventMetrics, err := events.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create event metrics", "error", err)
		os.Exit(1)
	}
	bus := events.NewObservableEventBus(events.NewNoopEventBus(), eventMetrics)

	webhookService := webhooks.NewService(
		idempotency.NewRedisStore(rdb),
		bus,
		catalogService,
		registry,
		logger,
		cfg.Webhook.Retention,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := database.CheckHealth(r.Context(), pool); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	metrics.NewHandler(registry).Register(mux)
	cataloghttp.NewHandler(catalogService).Register(mux)
	webhooks.NewHandler(webhookService).Register(mux)

	limiter := ratelimit.NewRedisLimiter(rdb, ratelimit.Config{
		Points:        cfg.RateLimit.Points,
		Window:        cfg.RateLimit.Window,
		BlockDuration: cfg.RateLimit.BlockDuration,
	})
	limited := ratelimit.Middleware(limiter, registry, logger, mux)

	// Health probes and the metrics endpoint bypass admission control.
	routed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") {
			limited.ServeHTTP(w, r)
			return
		}
		mux.ServeHTTP(w, r)
	})

	httpMetrics, err := cataloghttp.NewMetrics(meter)
	if err != nil {
		logger.Error("failed to create http metrics", "error", err)
		os.Exit(1)
	}
	handler := withRecovery(withLogging(cataloghttp.WithMetrics(routed, httpMetrics, registry)))

	if cfg.Feed.CallbackURL != "" {
		registerCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		if err := feedClient.RegisterWebhook(registerCtx, cfg.Feed.CallbackURL); err != nil {
			logger.Warn("webhook registration with provider failed", "error", err)
		}
		cancel()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	} else {
		logger.Info("http server stopped")
	}
}

func initTelemetry(ctx context.Context, cfg *config.Config) (*telemetry.Telemetry, error) {
	telCfg := telemetry.Config{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTelEndpoint,
		EnableTracing:  cfg.Telemetry.EnableTracing,
		EnableMetrics:  cfg.Telemetry.EnableMetrics,
		SampleRate:     cfg.Telemetry.SampleRate,
	}

	// Without a collector endpoint the providers still run, so meters and
	// spans stay usable, but nothing leaves the process.
	if cfg.Telemetry.OTelEndpoint == "" {
		return telemetry.Initialize(ctx, telCfg,
			telemetry.WithTraceExporter(telemetry.NewNoopTraceExporter()),
			telemetry.WithMetricExporter(telemetry.NewNoopMetricExporter()),
		)
	}
	return telemetry.Initialize(ctx, telCfg)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		slog.InfoContext(r.Context(), "http request", "method", r.Method, "path", r.URL.Path, "status", rw.status, "duration", time.Since(start))
	})
}

func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered", "error", rec)
				respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
