package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Trigger   TriggerConfig   `mapstructure:"trigger"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// DatabaseConfig selects postgres (server deployments) or sqlite (local runs)
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Path            string `mapstructure:"path"` // sqlite file, ":memory:" for ephemeral
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return r.Host + ":" + strconv.Itoa(r.Port)
}

// JWTConfig holds JWT settings.
// Tokens are issued by the account service; this service only verifies them.
type JWTConfig struct {
	Secret                string        `mapstructure:"secret"`
	AccessTokenExpiration time.Duration `mapstructure:"access_token_expiration"`
	Issuer                string        `mapstructure:"issuer"`
	ClockSkew             time.Duration `mapstructure:"clock_skew"`
}

type HTTPConfig struct {
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	MaxBodySize       int64         `mapstructure:"max_body_size"`
	RateLimitEnabled  bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
	// An empty origin list allows no cross-origin requests.
	CORSAllowOrigins []string `mapstructure:"cors_allow_origins"`
	CORSAllowMethods []string `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string `mapstructure:"cors_allow_headers"`
	TrustedProxies   []string `mapstructure:"trusted_proxies"`
	// Serves the OpenAPI UI at /swagger/
	SwaggerEnabled bool `mapstructure:"swagger_enabled"`
}

// TelemetryConfig holds OpenTelemetry export settings
type TelemetryConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"` // OTLP gRPC, e.g. localhost:4317
	SamplingRatio     float64 `mapstructure:"sampling_ratio"`
	ServiceName       string  `mapstructure:"service_name"`
	Insecure          bool    `mapstructure:"insecure"`
	MetricsEnabled    bool    `mapstructure:"metrics_enabled"`
	LogsEnabled       bool    `mapstructure:"logs_enabled"`

	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"` // development only
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`

	// Pyroscope continuous profiling
	ProfilingEnabled       bool   `mapstructure:"profiling_enabled"`
	ProfilingServerAddress string `mapstructure:"profiling_server_address"`
}

// SyncConfig holds integration sync settings
type SyncConfig struct {
	ProviderTimeout   time.Duration `mapstructure:"provider_timeout"`
	DefaultWindowDays int           `mapstructure:"default_window_days"`
	LockBackend       string        `mapstructure:"lock_backend"` // memory or redis
	// A crashed holder frees the integration after LockTTL
	LockTTL time.Duration `mapstructure:"lock_ttl"`
	// Static bearer token for the scheduled-sync endpoints
	SystemToken string `mapstructure:"system_token"`
	// HMAC-SHA256 secret; empty disables signature checks
	WebhookSecret          string        `mapstructure:"webhook_secret"`
	WebhookDedupTTL        time.Duration `mapstructure:"webhook_dedup_ttl"`
	MaxIntegrationsPerUser int           `mapstructure:"max_integrations_per_user"` // 0 = unlimited
	BatchConcurrency       int           `mapstructure:"batch_concurrency"`
	CandidateLimit         int           `mapstructure:"candidate_limit"`
	MetricsNamespace       string        `mapstructure:"metrics_namespace"`
	// Requests per second keyed by provider type
	ProviderRateLimits map[string]float64 `mapstructure:"provider_rate_limits"`
}

// StorageConfig points at the S3-compatible bucket export archives go to
type StorageConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Endpoint          string        `mapstructure:"endpoint"`
	Region            string        `mapstructure:"region"`
	Bucket            string        `mapstructure:"bucket"`
	AccessKey         string        `mapstructure:"access_key"`
	SecretKey         string        `mapstructure:"secret_key"`
	UseSSL            bool          `mapstructure:"use_ssl"`
	UsePathStyle      bool          `mapstructure:"use_path_style"`
	PresignExpiration time.Duration `mapstructure:"presign_expiration"`
	ExportPrefix      string        `mapstructure:"export_prefix"`
}

// TriggerConfig drives cmd/synctrigger
type TriggerConfig struct {
	Schedule       string        `mapstructure:"schedule"` // cron spec with a seconds field
	BaseURL        string        `mapstructure:"base_url"` // e.g. http://localhost:8080/api/v1
	Token          string        `mapstructure:"token"`    // defaults to sync.system_token
	Limit          int           `mapstructure:"limit"`
	Force          bool          `mapstructure:"force"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// defaults registers every key with viper. Keys without a default would be
// invisible to AutomaticEnv during Unmarshal, so secrets get "" here.
var defaults = map[string]any{
	"app.name": "insight-backend",
	"app.env":  "development",
	"app.port": "8080",

	"database.driver":             "postgres",
	"database.path":               "insight.db",
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "insight",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"jwt.secret":                  "",
	"jwt.access_token_expiration": 15 * time.Minute,
	"jwt.issuer":                  "insight-backend",
	"jwt.clock_skew":              30 * time.Second,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout": 15 * time.Second,
	// a batch sync can run several provider calls back to back
	"http.write_timeout":       5 * time.Minute,
	"http.idle_timeout":        60 * time.Second,
	"http.max_header_bytes":    1 << 20,
	"http.max_body_size":       1 << 20,
	"http.rate_limit_enabled":  false,
	"http.rate_limit_requests": 100,
	"http.rate_limit_window":   time.Minute,
	"http.cors_allow_origins":  []string{},
	"http.cors_allow_methods":  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	"http.cors_allow_headers":  []string{"Content-Type", "Authorization", "X-Request-ID", "X-Webhook-Signature", "X-Webhook-Delivery"},
	"http.trusted_proxies":     []string{},
	"http.swagger_enabled":     true,

	"telemetry.enabled":                  false,
	"telemetry.collector_endpoint":       "localhost:4317",
	"telemetry.sampling_ratio":           1.0,
	"telemetry.service_name":             "insight-backend",
	"telemetry.insecure":                 false,
	"telemetry.metrics_enabled":          false,
	"telemetry.logs_enabled":             false,
	"telemetry.db_trace_enabled":         false,
	"telemetry.db_log_full_sql":          false,
	"telemetry.db_slow_query_threshold":  200 * time.Millisecond,
	"telemetry.profiling_enabled":        false,
	"telemetry.profiling_server_address": "http://localhost:4040",

	"sync.provider_timeout":          30 * time.Second,
	"sync.default_window_days":       30,
	"sync.lock_backend":              "memory",
	"sync.lock_ttl":                  10 * time.Minute,
	"sync.system_token":              "",
	"sync.webhook_secret":            "",
	"sync.webhook_dedup_ttl":         24 * time.Hour,
	"sync.max_integrations_per_user": 0,
	"sync.batch_concurrency":         4,
	"sync.candidate_limit":           50,
	"sync.metrics_namespace":         "insight",

	"storage.enabled":            false,
	"storage.endpoint":           "",
	"storage.region":             "us-east-1",
	"storage.bucket":             "",
	"storage.access_key":         "",
	"storage.secret_key":         "",
	"storage.use_ssl":            true,
	"storage.use_path_style":     false,
	"storage.presign_expiration": 15 * time.Minute,
	"storage.export_prefix":      "exports",

	"trigger.schedule":        "0 0 * * * *", // hourly
	"trigger.base_url":        "",
	"trigger.token":           "",
	"trigger.limit":           0,
	"trigger.force":           false,
	"trigger.request_timeout": 10 * time.Minute,
}

// Load reads config.toml from ".", "./config" or "/app" when present and
// lets INSIGHT_<SECTION>_<KEY> environment variables override any key,
// e.g. INSIGHT_DATABASE_PASSWORD.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	for _, dir := range []string{".", "./config", "/app"} {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("INSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	cfg.derive()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// derive fills settings whose defaults depend on other settings
func (c *Config) derive() {
	// viper lowercases map keys; provider types are upper case
	if len(c.Sync.ProviderRateLimits) > 0 {
		limits := make(map[string]float64, len(c.Sync.ProviderRateLimits))
		for provider, qps := range c.Sync.ProviderRateLimits {
			limits[strings.ToUpper(provider)] = qps
		}
		c.Sync.ProviderRateLimits = limits
	}

	if c.Trigger.BaseURL == "" {
		c.Trigger.BaseURL = "http://localhost:" + c.App.Port + "/api/v1"
	}
	if c.Trigger.Token == "" {
		c.Trigger.Token = c.Sync.SystemToken
	}
	if c.Trigger.Limit == 0 {
		c.Trigger.Limit = c.Sync.CandidateLimit
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return errors.New("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return errors.New("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Sync.LockBackend {
	case "memory":
	case "redis":
		if !c.Redis.Enabled {
			return errors.New("sync.lock_backend=redis requires redis.enabled")
		}
	default:
		return fmt.Errorf("sync.lock_backend must be memory or redis, got %q", c.Sync.LockBackend)
	}
	if c.Sync.MaxIntegrationsPerUser < 0 {
		return errors.New("sync.max_integrations_per_user cannot be negative")
	}
	if c.Sync.BatchConcurrency < 1 {
		return errors.New("sync.batch_concurrency must be positive")
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return errors.New("storage.bucket is required when storage is enabled")
	}
	if r := c.Telemetry.SamplingRatio; r < 0 || r > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", r)
	}
	if c.Telemetry.ProfilingEnabled && c.Telemetry.ProfilingServerAddress == "" {
		return errors.New("telemetry.profiling_server_address is required when profiling is enabled")
	}

	if c.IsProduction() {
		return c.validateProduction()
	}
	return nil
}

func (c *Config) validateProduction() error {
	switch {
	case c.JWT.Secret == "":
		return errors.New("jwt.secret is required in production")
	case len(c.JWT.Secret) < 32:
		return errors.New("jwt.secret must be at least 32 characters in production")
	case c.Database.Driver != "postgres":
		return errors.New("database.driver must be postgres in production")
	case c.Database.Password == "":
		return errors.New("database.password is required in production")
	case c.Database.SSLMode == "disable":
		return errors.New("database.sslmode cannot be 'disable' in production")
	case c.Sync.SystemToken == "":
		return errors.New("sync.system_token is required in production")
	case c.Sync.WebhookSecret == "":
		return errors.New("sync.webhook_secret is required in production")
	case c.Telemetry.DBLogFullSQL:
		return errors.New("telemetry.db_log_full_sql must be false in production")
	}
	for _, origin := range c.HTTP.CORSAllowOrigins {
		if origin == "*" {
			return errors.New("http.cors_allow_origins cannot be '*' in production")
		}
	}
	return nil
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the postgres connection URL with user info escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}
