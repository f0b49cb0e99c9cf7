package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/novaflow/console/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Session configuration
	Session SessionConfig `yaml:"session"`

	// Google sign-in configuration
	Google GoogleConfig `yaml:"google"`

	// Upstream platform API configuration
	Upstream UpstreamConfig `yaml:"upstream"`

	// Audit store configuration
	Audit AuditConfig `yaml:"audit"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"observability"`

	// DevMode enables the demo login endpoint. Never enable in production.
	DevMode bool `yaml:"dev_mode"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// SessionConfig holds session token and store configuration
type SessionConfig struct {
	// SigningSecret signs session JWTs. Required.
	SigningSecret string `yaml:"signing_secret"`
	// TTL is the session lifetime
	TTL time.Duration `yaml:"ttl"`
	// CookieName carries the bearer token for the edge guard
	CookieName string `yaml:"cookie_name"`
	// CookieSecure marks the session cookie Secure
	CookieSecure bool `yaml:"cookie_secure"`
	// RedisURL enables the Redis-backed session store when set
	RedisURL string `yaml:"redis_url"`
	// SweepInterval is the cron schedule for expired-session cleanup
	SweepInterval string `yaml:"sweep_interval"`
}

// GoogleConfig holds Google OIDC sign-in configuration
type GoogleConfig struct {
	IssuerURL    string   `yaml:"issuer_url"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	RedirectURL  string   `yaml:"redirect_url"`
	Scopes       []string `yaml:"scopes"`
}

// UpstreamConfig holds the platform API location
type UpstreamConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// AuditConfig holds the audit trail store configuration
type AuditConfig struct {
	// PostgresURL enables the Postgres audit logger when set
	PostgresURL string `yaml:"postgres_url"`
	// RetentionDays bounds how long audit events are kept
	RetentionDays int `yaml:"retention_days"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`

	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"`
}

// LoadConfig loads configuration from an optional YAML file, then applies
// environment variable overrides, then validates.
func LoadConfig(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Session: SessionConfig{
			TTL:           12 * time.Hour,
			CookieName:    "novaflow_session",
			SweepInterval: "@every 10m",
		},
		Google: GoogleConfig{
			IssuerURL: "https://accounts.google.com",
			Scopes:    []string{"openid", "profile", "email"},
		},
		Upstream: UpstreamConfig{
			Timeout: 30 * time.Second,
		},
		Audit: AuditConfig{
			RetentionDays: 90,
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "novaflow-console",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("NOVAFLOW_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnv("NOVAFLOW_PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvDuration("NOVAFLOW_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("NOVAFLOW_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvDuration("NOVAFLOW_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = getEnvDuration("NOVAFLOW_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	cfg.Server.HealthPort = getEnv("NOVAFLOW_HEALTH_PORT", cfg.Server.HealthPort)

	cfg.Session.SigningSecret = getEnv("NOVAFLOW_SESSION_SECRET", cfg.Session.SigningSecret)
	cfg.Session.TTL = getEnvDuration("NOVAFLOW_SESSION_TTL", cfg.Session.TTL)
	cfg.Session.CookieName = getEnv("NOVAFLOW_SESSION_COOKIE", cfg.Session.CookieName)
	cfg.Session.CookieSecure = getEnvBool("NOVAFLOW_SESSION_COOKIE_SECURE", cfg.Session.CookieSecure)
	cfg.Session.RedisURL = getEnv("NOVAFLOW_REDIS_URL", cfg.Session.RedisURL)
	cfg.Session.SweepInterval = getEnv("NOVAFLOW_SESSION_SWEEP_INTERVAL", cfg.Session.SweepInterval)

	cfg.Google.IssuerURL = getEnv("NOVAFLOW_GOOGLE_ISSUER_URL", cfg.Google.IssuerURL)
	cfg.Google.ClientID = getEnv("NOVAFLOW_GOOGLE_CLIENT_ID", cfg.Google.ClientID)
	cfg.Google.ClientSecret = getEnv("NOVAFLOW_GOOGLE_CLIENT_SECRET", cfg.Google.ClientSecret)
	cfg.Google.RedirectURL = getEnv("NOVAFLOW_GOOGLE_REDIRECT_URL", cfg.Google.RedirectURL)
	if scopes := getEnv("NOVAFLOW_GOOGLE_SCOPES", ""); scopes != "" {
		cfg.Google.Scopes = strings.Split(scopes, ",")
	}

	cfg.Upstream.BaseURL = getEnv("NOVAFLOW_UPSTREAM_URL", cfg.Upstream.BaseURL)
	cfg.Upstream.Timeout = getEnvDuration("NOVAFLOW_UPSTREAM_TIMEOUT", cfg.Upstream.Timeout)

	cfg.Audit.PostgresURL = getEnv("NOVAFLOW_AUDIT_POSTGRES_URL", cfg.Audit.PostgresURL)
	cfg.Audit.RetentionDays = getEnvInt("NOVAFLOW_AUDIT_RETENTION_DAYS", cfg.Audit.RetentionDays)

	cfg.Observability.LogLevel = getEnv("NOVAFLOW_LOG_LEVEL", cfg.Observability.LogLevel)
	cfg.Observability.MetricsEnabled = getEnvBool("NOVAFLOW_METRICS_ENABLED", cfg.Observability.MetricsEnabled)
	cfg.Observability.OTelEnabled = getEnvBool("NOVAFLOW_OTEL_ENABLED", cfg.Observability.OTelEnabled)
	cfg.Observability.OTelEndpoint = getEnv("NOVAFLOW_OTEL_ENDPOINT", cfg.Observability.OTelEndpoint)
	cfg.Observability.OTelServiceName = getEnv("NOVAFLOW_OTEL_SERVICE_NAME", cfg.Observability.OTelServiceName)
	cfg.Observability.OTelServiceVersion = getEnv("NOVAFLOW_OTEL_SERVICE_VERSION", cfg.Observability.OTelServiceVersion)
	cfg.Observability.OTelInsecure = getEnvBool("NOVAFLOW_OTEL_INSECURE", cfg.Observability.OTelInsecure)

	cfg.DevMode = getEnvBool("NOVAFLOW_DEV_MODE", cfg.DevMode)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Session.SigningSecret == "" {
		return fmt.Errorf("session signing secret is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}

	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream base URL is required")
	}

	// Google sign-in is required outside dev mode; dev mode can run on the
	// demo login alone.
	if !c.DevMode {
		if c.Google.ClientID == "" {
			return fmt.Errorf("google client ID is required")
		}
		if c.Google.ClientSecret == "" {
			return fmt.Errorf("google client secret is required")
		}
		if c.Google.RedirectURL == "" {
			return fmt.Errorf("google redirect URL is required")
		}
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// LogLevel returns the parsed observability log level
func (c *Config) LogLevel() observability.LogLevel {
	return observability.ParseLogLevel(c.Observability.LogLevel)
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
