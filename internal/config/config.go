package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config captures runtime configuration for the catalog service.
type Config struct {
	HTTP       HTTPConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Cache      CacheConfig
	Pagination PaginationConfig
	RateLimit  RateLimitConfig
	Breaker    BreakerConfig
	OAuth      OAuthConfig
	Feed       FeedConfig
	Webhook    WebhookConfig
	Telemetry  TelemetryConfig
	Service    ServiceConfig
}

type HTTPConfig struct {
	Port          int
	ShutdownGrace int
}

type DatabaseConfig struct {
	URL            string
	AutoMigrate    bool
	MigrationsPath string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CacheConfig struct {
	ListTTL         time.Duration
	DetailTTL       time.Duration
	LocalMaxEntries int64
}

type PaginationConfig struct {
	DefaultLimit int
	MaxLimit     int
}

type RateLimitConfig struct {
	Points        int
	Window        time.Duration
	BlockDuration time.Duration
}

type BreakerConfig struct {
	ErrorThresholdPct int
	MinRequests       int
	WindowInterval    time.Duration
	OpenTimeout       time.Duration
}

type OAuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	SafetyMargin time.Duration
	Timeout      time.Duration
	MaxAttempts  int
	BaseDelay    time.Duration
}

type FeedConfig struct {
	BaseURL       string
	CallTimeout   time.Duration
	ClientTimeout time.Duration
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	CallbackURL   string
}

type WebhookConfig struct {
	Retention time.Duration
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	defaultHTTPPort       = 8080
	defaultShutdownGrace  = 15
	defaultMigrationsPath = "migrations"
	defaultAutoMigrate    = true
	defaultServiceName    = "catalog-api"
	defaultServiceVersion = "0.1.0"
	defaultEnvironment    = "development"
	defaultLogLevel       = "info"
	defaultOTelSampleRate = 1.0
)

// Load reads configuration from environment variables, applying defaults when needed.
func Load() (*Config, error) {
	httpCfg, err := loadHTTPConfig()
	if err != nil {
		return nil, fmt.Errorf("loading HTTP config: %w", err)
	}

	cacheCfg, err := loadCacheConfig()
	if err != nil {
		return nil, fmt.Errorf("loading cache config: %w", err)
	}

	paginationCfg, err := loadPaginationConfig()
	if err != nil {
		return nil, fmt.Errorf("loading pagination config: %w", err)
	}

	rateLimitCfg, err := loadRateLimitConfig()
	if err != nil {
		return nil, fmt.Errorf("loading rate limit config: %w", err)
	}

	breakerCfg, err := loadBreakerConfig()
	if err != nil {
		return nil, fmt.Errorf("loading breaker config: %w", err)
	}

	oauthCfg, err := loadOAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("loading oauth config: %w", err)
	}

	feedCfg, err := loadFeedConfig()
	if err != nil {
		return nil, fmt.Errorf("loading feed config: %w", err)
	}

	webhookCfg, err := loadWebhookConfig()
	if err != nil {
		return nil, fmt.Errorf("loading webhook config: %w", err)
	}

	telCfg, err := loadTelemetryConfig()
	if err != nil {
		return nil, fmt.Errorf("loading telemetry config: %w", err)
	}

	return &Config{
		HTTP:       httpCfg,
		Database:   loadDatabaseConfig(),
		Redis:      loadRedisConfig(),
		Cache:      cacheCfg,
		Pagination: paginationCfg,
		RateLimit:  rateLimitCfg,
		Breaker:    breakerCfg,
		OAuth:      oauthCfg,
		Feed:       feedCfg,
		Webhook:    webhookCfg,
		Telemetry:  telCfg,
		Service:    loadServiceConfig(),
	}, nil
}

func loadHTTPConfig() (HTTPConfig, error) {
	port, err := getIntEnv("API_HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return HTTPConfig{}, err
	}

	shutdownGrace, err := getIntEnv("API_SHUTDOWN_GRACE_SECONDS", defaultShutdownGrace)
	if err != nil {
		return HTTPConfig{}, err
	}

	return HTTPConfig{
		Port:          port,
		ShutdownGrace: shutdownGrace,
	}, nil
}

func loadDatabaseConfig() DatabaseConfig {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		databaseURL = buildDatabaseURL()
	}

	autoMigrate := defaultAutoMigrate
	if value, ok := os.LookupEnv("AUTO_MIGRATE"); ok {
		autoMigrate = value == "true"
	}

	migrationsPath := getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath)

	return DatabaseConfig{
		URL:            databaseURL,
		AutoMigrate:    autoMigrate,
		MigrationsPath: migrationsPath,
	}
}

func loadRedisConfig() RedisConfig {
	db := 0
	if value, ok := os.LookupEnv("REDIS_DB"); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			db = parsed
		}
	}

	return RedisConfig{
		Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}
}

func loadCacheConfig() (CacheConfig, error) {
	listTTL, err := getDurationEnv("CACHE_LIST_TTL", 60*time.Second)
	if err != nil {
		return CacheConfig{}, err
	}

	detailTTL, err := getDurationEnv("CACHE_DETAIL_TTL", 5*time.Minute)
	if err != nil {
		return CacheConfig{}, err
	}

	maxEntries, err := getIntEnv("CACHE_LOCAL_MAX_ENTRIES", 10000)
	if err != nil {
		return CacheConfig{}, err
	}

	return CacheConfig{
		ListTTL:         listTTL,
		DetailTTL:       detailTTL,
		LocalMaxEntries: int64(maxEntries),
	}, nil
}

func loadPaginationConfig() (PaginationConfig, error) {
	defaultLimit, err := getIntEnv("PAGINATION_DEFAULT_LIMIT", 20)
	if err != nil {
		return PaginationConfig{}, err
	}

	maxLimit, err := getIntEnv("PAGINATION_MAX_LIMIT", 100)
	if err != nil {
		return PaginationConfig{}, err
	}

	return PaginationConfig{
		DefaultLimit: defaultLimit,
		MaxLimit:     maxLimit,
	}, nil
}

func loadRateLimitConfig() (RateLimitConfig, error) {
	points, err := getIntEnv("RATE_LIMIT_POINTS", 100)
	if err != nil {
		return RateLimitConfig{}, err
	}

	window, err := getDurationEnv("RATE_LIMIT_WINDOW", time.Minute)
	if err != nil {
		return RateLimitConfig{}, err
	}

	blockDuration, err := getDurationEnv("RATE_LIMIT_BLOCK_DURATION", 0)
	if err != nil {
		return RateLimitConfig{}, err
	}

	return RateLimitConfig{
		Points:        points,
		Window:        window,
		BlockDuration: blockDuration,
	}, nil
}

func loadBreakerConfig() (BreakerConfig, error) {
	threshold, err := getIntEnv("BREAKER_ERROR_THRESHOLD_PCT", 50)
	if err != nil {
		return BreakerConfig{}, err
	}

	minRequests, err := getIntEnv("BREAKER_MIN_REQUESTS", 5)
	if err != nil {
		return BreakerConfig{}, err
	}

	windowInterval, err := getDurationEnv("BREAKER_WINDOW_INTERVAL", time.Minute)
	if err != nil {
		return BreakerConfig{}, err
	}

	openTimeout, err := getDurationEnv("BREAKER_OPEN_TIMEOUT", 30*time.Second)
	if err != nil {
		return BreakerConfig{}, err
	}

	return BreakerConfig{
		ErrorThresholdPct: threshold,
		MinRequests:       minRequests,
		WindowInterval:    windowInterval,
		OpenTimeout:       openTimeout,
	}, nil
}

func loadOAuthConfig() (OAuthConfig, error) {
	safetyMargin, err := getDurationEnv("OAUTH_SAFETY_MARGIN", time.Minute)
	if err != nil {
		return OAuthConfig{}, err
	}

	timeout, err := getDurationEnv("OAUTH_TIMEOUT", 10*time.Second)
	if err != nil {
		return OAuthConfig{}, err
	}

	maxAttempts, err := getIntEnv("OAUTH_MAX_ATTEMPTS", 3)
	if err != nil {
		return OAuthConfig{}, err
	}

	baseDelay, err := getDurationEnv("OAUTH_RETRY_BASE_DELAY", 500*time.Millisecond)
	if err != nil {
		return OAuthConfig{}, err
	}

	return OAuthConfig{
		TokenURL:     getEnvOrDefault("OAUTH_TOKEN_URL", "http://localhost:9000/oauth/token"),
		ClientID:     os.Getenv("OAUTH_CLIENT_ID"),
		ClientSecret: os.Getenv("OAUTH_CLIENT_SECRET"),
		SafetyMargin: safetyMargin,
		Timeout:      timeout,
		MaxAttempts:  maxAttempts,
		BaseDelay:    baseDelay,
	}, nil
}

func loadFeedConfig() (FeedConfig, error) {
	callTimeout, err := getDurationEnv("FEED_CALL_TIMEOUT", 5*time.Second)
	if err != nil {
		return FeedConfig{}, err
	}

	clientTimeout, err := getDurationEnv("FEED_CLIENT_TIMEOUT", 10*time.Second)
	if err != nil {
		return FeedConfig{}, err
	}

	maxAttempts, err := getIntEnv("FEED_MAX_ATTEMPTS", 3)
	if err != nil {
		return FeedConfig{}, err
	}

	baseDelay, err := getDurationEnv("FEED_RETRY_BASE_DELAY", 500*time.Millisecond)
	if err != nil {
		return FeedConfig{}, err
	}

	maxDelay, err := getDurationEnv("FEED_RETRY_MAX_DELAY", 5*time.Second)
	if err != nil {
		return FeedConfig{}, err
	}

	return FeedConfig{
		BaseURL:       getEnvOrDefault("FEED_BASE_URL", "http://localhost:9001"),
		CallTimeout:   callTimeout,
		ClientTimeout: clientTimeout,
		MaxAttempts:   maxAttempts,
		BaseDelay:     baseDelay,
		MaxDelay:      maxDelay,
		CallbackURL:   os.Getenv("FEED_CALLBACK_URL"),
	}, nil
}

func loadWebhookConfig() (WebhookConfig, error) {
	retention, err := getDurationEnv("WEBHOOK_RETENTION", 24*time.Hour)
	if err != nil {
		return WebhookConfig{}, err
	}

	return WebhookConfig{Retention: retention}, nil
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	logLevel := getEnvOrDefault("LOG_LEVEL", defaultLogLevel)
	otelEndpoint := getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	enableTracing := getBoolEnv("OTEL_ENABLE_TRACING", true)
	enableMetrics := getBoolEnv("OTEL_ENABLE_METRICS", true)

	sampleRate := defaultOTelSampleRate
	if value, ok := os.LookupEnv("OTEL_SAMPLE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return TelemetryConfig{}, fmt.Errorf("invalid OTEL_SAMPLE_RATE: %w", err)
		}
		sampleRate = parsed
	}

	return TelemetryConfig{
		LogLevel:      logLevel,
		OTelEndpoint:  otelEndpoint,
		EnableTracing: enableTracing,
		EnableMetrics: enableMetrics,
		SampleRate:    sampleRate,
	}, nil
}

func loadServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:        getEnvOrDefault("API_SERVICE_NAME", defaultServiceName),
		Version:     getEnvOrDefault("SERVICE_VERSION", defaultServiceVersion),
		Environment: getEnvOrDefault("ENVIRONMENT", defaultEnvironment),
	}
}

func buildDatabaseURL() string {
	host := getEnvOrDefault("DB_HOST", "localhost")
	port := getEnvOrDefault("DB_PORT", "5432")
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "postgres")
	dbName := getEnvOrDefault("DB_NAME", "catalog")
	sslMode := getEnvOrDefault("DB_SSLMODE", "disable")

	maxConns := getEnvOrDefault("DB_MAX_CONNS", "25")
	minConns := getEnvOrDefault("DB_MIN_CONNS", "5")
	maxLifetime := getEnvOrDefault("DB_MAX_CONN_LIFETIME", "5m")

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%s&pool_min_conns=%s&pool_max_conn_lifetime=%s",
		user, password, host, port, dbName, sslMode, maxConns, minConns, maxLifetime,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		return value == "true"
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
