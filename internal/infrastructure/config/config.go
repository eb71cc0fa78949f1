package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
	FakeStore FakeStoreConfig
	Shopify   ShopifyConfig
	Import    ImportConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool    // Export import metrics
	LogsEnabled       bool    // Bridge zap logs to OTEL logs
	LogLevel          string  // Minimum level exported through the bridge
}

// FakeStoreConfig holds settings for the external product source
type FakeStoreConfig struct {
	BaseURL string
	Timeout time.Duration
	MinID   int64
	MaxID   int64
}

// ShopifyConfig holds settings for the Shopify Admin API
type ShopifyConfig struct {
	ShopDomain  string
	AccessToken string
	APIVersion  string
	Timeout     time.Duration
}

// ImportConfig holds catalog import workflow settings
type ImportConfig struct {
	AutoPublish         bool
	InitialStatus       string // DRAFT, ACTIVE
	VariantMode         string // CREATE, UPDATE
	Vendor              string
	PublicationName     string
	PublicationPageSize int
	SkipPublishPolicy   string // SILENT, WARN
	CleanupOnFailure    bool
	StepTimeout         time.Duration
	InFlightTTL         time.Duration
	RunRetention        time.Duration
	GuardBackend        string // memory, redis, auto
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with STOREBRIDGE_ prefix (e.g., STOREBRIDGE_SHOPIFY_ACCESS_TOKEN)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	// Set config file settings
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("STOREBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans that default to true cannot be detected as unset after reading
	v.SetDefault("import.auto_publish", true)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			LogLevel:          v.GetString("telemetry.log_level"),
		},
		FakeStore: FakeStoreConfig{
			BaseURL: v.GetString("fakestore.base_url"),
			Timeout: v.GetDuration("fakestore.timeout"),
			MinID:   v.GetInt64("fakestore.min_id"),
			MaxID:   v.GetInt64("fakestore.max_id"),
		},
		Shopify: ShopifyConfig{
			ShopDomain:  v.GetString("shopify.shop_domain"),
			AccessToken: v.GetString("shopify.access_token"),
			APIVersion:  v.GetString("shopify.api_version"),
			Timeout:     v.GetDuration("shopify.timeout"),
		},
		Import: ImportConfig{
			AutoPublish:         v.GetBool("import.auto_publish"),
			InitialStatus:       v.GetString("import.initial_status"),
			VariantMode:         v.GetString("import.variant_mode"),
			Vendor:              v.GetString("import.vendor"),
			PublicationName:     v.GetString("import.publication_name"),
			PublicationPageSize: v.GetInt("import.publication_page_size"),
			SkipPublishPolicy:   v.GetString("import.skip_publish_policy"),
			CleanupOnFailure:    v.GetBool("import.cleanup_on_failure"),
			StepTimeout:         v.GetDuration("import.step_timeout"),
			InFlightTTL:         v.GetDuration("import.in_flight_ttl"),
			RunRetention:        v.GetDuration("import.run_retention"),
			GuardBackend:        v.GetString("import.guard_backend"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storebridge"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// A synchronous import spans several outbound calls
		cfg.HTTP.WriteTimeout = 90 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 60
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// NOTE: CORS origins are not given a default fallback to "*".
	// An empty list means no cross-origin requests are allowed until explicitly configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}

	// Telemetry defaults
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0 // 100% in development
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "storebridge"
	}
	if cfg.Telemetry.LogLevel == "" {
		cfg.Telemetry.LogLevel = "info"
	}

	// Fake Store defaults
	if cfg.FakeStore.BaseURL == "" {
		cfg.FakeStore.BaseURL = "https://fakestoreapi.com"
	}
	if cfg.FakeStore.Timeout == 0 {
		cfg.FakeStore.Timeout = 10 * time.Second
	}
	if cfg.FakeStore.MinID == 0 {
		cfg.FakeStore.MinID = 1
	}
	if cfg.FakeStore.MaxID == 0 {
		cfg.FakeStore.MaxID = 20
	}

	// Shopify defaults
	if cfg.Shopify.APIVersion == "" {
		cfg.Shopify.APIVersion = "2025-01"
	}
	if cfg.Shopify.Timeout == 0 {
		cfg.Shopify.Timeout = 15 * time.Second
	}

	// Import workflow defaults
	if cfg.Import.InitialStatus == "" {
		cfg.Import.InitialStatus = "DRAFT"
	}
	if cfg.Import.VariantMode == "" {
		cfg.Import.VariantMode = "CREATE"
	}
	if cfg.Import.Vendor == "" {
		cfg.Import.Vendor = "Fake Store API"
	}
	if cfg.Import.PublicationName == "" {
		cfg.Import.PublicationName = "Online Store"
	}
	if cfg.Import.PublicationPageSize == 0 {
		cfg.Import.PublicationPageSize = 5
	}
	if cfg.Import.SkipPublishPolicy == "" {
		cfg.Import.SkipPublishPolicy = "WARN"
	}
	if cfg.Import.StepTimeout == 0 {
		cfg.Import.StepTimeout = 20 * time.Second
	}
	if cfg.Import.InFlightTTL == 0 {
		cfg.Import.InFlightTTL = 5 * time.Minute
	}
	if cfg.Import.RunRetention == 0 {
		cfg.Import.RunRetention = time.Hour
	}
	if cfg.Import.GuardBackend == "" {
		cfg.Import.GuardBackend = "memory"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	// Production-specific validations
	if c.App.Env == "production" {
		if c.Shopify.AccessToken == "" {
			return fmt.Errorf("shopify.access_token is required in production")
		}
		if c.Shopify.ShopDomain == "" {
			return fmt.Errorf("shopify.shop_domain is required in production")
		}
		// CORS must not use wildcard in production
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.FakeStore.MinID < 1 || c.FakeStore.MinID > c.FakeStore.MaxID {
		return fmt.Errorf("fakestore.min_id (%d) must be positive and not exceed fakestore.max_id (%d)",
			c.FakeStore.MinID, c.FakeStore.MaxID)
	}

	switch c.Import.InitialStatus {
	case "DRAFT", "ACTIVE":
	default:
		return fmt.Errorf("import.initial_status must be DRAFT or ACTIVE, got %q", c.Import.InitialStatus)
	}
	switch c.Import.VariantMode {
	case "CREATE", "UPDATE":
	default:
		return fmt.Errorf("import.variant_mode must be CREATE or UPDATE, got %q", c.Import.VariantMode)
	}
	switch c.Import.SkipPublishPolicy {
	case "SILENT", "WARN":
	default:
		return fmt.Errorf("import.skip_publish_policy must be SILENT or WARN, got %q", c.Import.SkipPublishPolicy)
	}
	switch c.Import.GuardBackend {
	case "memory", "redis", "auto":
	default:
		return fmt.Errorf("import.guard_backend must be memory, redis or auto, got %q", c.Import.GuardBackend)
	}
	if c.Import.PublicationPageSize < 1 || c.Import.PublicationPageSize > 250 {
		return fmt.Errorf("import.publication_page_size must be between 1 and 250, got %d", c.Import.PublicationPageSize)
	}

	// Validate telemetry configuration (all environments)
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
