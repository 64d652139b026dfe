package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Security  SecurityConfig  `json:"security"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Auth      AuthConfig      `json:"auth"`
	Mail      MailConfig      `json:"mail"`
	Tracing   TracingConfig   `json:"tracing"`
	Features  FeaturesConfig  `json:"features"`
	Org       OrgConfig       `json:"org"`
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port      string `json:"port"`
	Host      string `json:"host"`
	EnableTLS bool   `json:"enable_tls"`
	CertFile  string `json:"cert_file"`
	KeyFile   string `json:"key_file"`
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	Path string `json:"path"`
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	// Max request body size in bytes (default: 1MB)
	MaxRequestBodySize int64 `json:"max_request_body_size"`
	// Allowed CORS origins (comma-separated)
	AllowedOrigins string `json:"allowed_origins"`
}

// RateLimitConfig holds rate limiting configuration. Each limited endpoint
// gets its own max per window.
type RateLimitConfig struct {
	Enabled       bool   `json:"enabled"`
	Window        int    `json:"window"` // in seconds
	SubmitMax     int    `json:"submit_max"`
	PaymentMax    int    `json:"payment_max"`
	LoginMax      int    `json:"login_max"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`
}

// WindowDuration returns the window as a time.Duration.
func (r RateLimitConfig) WindowDuration() time.Duration {
	return time.Duration(r.Window) * time.Second
}

// AuthConfig configures supervisor tokens.
type AuthConfig struct {
	JWTSecret string `json:"jwt_secret"`
	Issuer    string `json:"issuer"`
	TokenTTL  int    `json:"token_ttl"` // in minutes
}

// TokenDuration returns the token lifetime.
func (a AuthConfig) TokenDuration() time.Duration {
	return time.Duration(a.TokenTTL) * time.Minute
}

// MailConfig holds the outbound SMTP settings. An empty host disables mail.
type MailConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	From       string `json:"from"`
	AdminEmail string `json:"admin_email"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled        bool   `json:"enabled"`
	JaegerEndpoint string `json:"jaeger_endpoint"`
	Environment    string `json:"environment"`
}

// FeaturesConfig holds initial feature flag values.
type FeaturesConfig struct {
	AutoVerification   bool    `json:"auto_verification"`
	EmailNotifications bool    `json:"email_notifications"`
	CardSuccessRate    float64 `json:"card_success_rate"`
}

// OrgConfig holds organization-specific values.
type OrgConfig struct {
	Name            string `json:"name"`
	ReceiptPrefix   string `json:"receipt_prefix"`
	DefaultCurrency string `json:"default_currency"`
	AppEnv          string `json:"app_env"`
}

// LoadConfig loads configuration from environment variables and/or config file.
// A .env file in the working directory is read first; real environment
// variables win over it. Environment variables take precedence over config
// file values.
func LoadConfig(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:      getEnv("SERVER_PORT", "8000"),
			Host:      getEnv("SERVER_HOST", ""),
			EnableTLS: getEnvBool("SERVER_ENABLE_TLS", false),
			CertFile:  getEnv("SERVER_CERT_FILE", ""),
			KeyFile:   getEnv("SERVER_KEY_FILE", ""),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./ypg.db"),
		},
		Security: SecurityConfig{
			MaxRequestBodySize: getEnvInt64("MAX_REQUEST_BODY_SIZE", 1<<20),
			AllowedOrigins:     getEnv("ALLOWED_ORIGINS", "*"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getEnvBool("RATE_LIMIT_ENABLED", true),
			Window:        getEnvInt("RATE_LIMIT_WINDOW", 3600),
			SubmitMax:     getEnvInt("RATE_LIMIT_SUBMIT_MAX", 10),
			PaymentMax:    getEnvInt("RATE_LIMIT_PAYMENT_MAX", 10),
			LoginMax:      getEnvInt("RATE_LIMIT_LOGIN_MAX", 5),
			RedisAddr:     getEnv("REDIS_ADDR", ""),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			Issuer:    getEnv("JWT_ISSUER", "ypg-admin-api"),
			TokenTTL:  getEnvInt("JWT_TTL_MINUTES", 12*60),
		},
		Mail: MailConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvInt("SMTP_PORT", 587),
			Username:   getEnv("SMTP_USERNAME", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			From:       getEnv("SMTP_FROM", "noreply@ypg.local"),
			AdminEmail: getEnv("ADMIN_EMAIL", ""),
		},
		Tracing: TracingConfig{
			Enabled:        getEnvBool("TRACING_ENABLED", false),
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
			Environment:    getEnv("TRACING_ENVIRONMENT", "development"),
		},
		Features: FeaturesConfig{
			AutoVerification:   getEnvBool("FEATURE_AUTO_VERIFICATION", true),
			EmailNotifications: getEnvBool("FEATURE_EMAIL_NOTIFICATIONS", true),
			CardSuccessRate:    getEnvFloat("CARD_SUCCESS_RATE", 0.8),
		},
		Org: OrgConfig{
			Name:            getEnv("ORG_NAME", "YPG District"),
			ReceiptPrefix:   getEnv("RECEIPT_PREFIX", "YPG"),
			DefaultCurrency: getEnv("DEFAULT_CURRENCY", "GHS"),
			AppEnv:          getEnv("APP_ENV", "production"),
		},
	}

	// Load from config file if provided
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with environment variables (they take precedence)
	overrideFromEnv(cfg)

	return cfg, nil
}

// loadFromFile loads configuration from a JSON file.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, cfg)
}

// overrideFromEnv overrides configuration with environment variables.
func overrideFromEnv(cfg *Config) {
	setString(&cfg.Server.Port, "SERVER_PORT")
	setString(&cfg.Server.Host, "SERVER_HOST")
	setBool(&cfg.Server.EnableTLS, "SERVER_ENABLE_TLS")
	setString(&cfg.Server.CertFile, "SERVER_CERT_FILE")
	setString(&cfg.Server.KeyFile, "SERVER_KEY_FILE")

	setString(&cfg.Database.Path, "DATABASE_PATH")

	if maxBodySize := os.Getenv("MAX_REQUEST_BODY_SIZE"); maxBodySize != "" {
		if size, err := strconv.ParseInt(maxBodySize, 10, 64); err == nil {
			cfg.Security.MaxRequestBodySize = size
		}
	}
	setString(&cfg.Security.AllowedOrigins, "ALLOWED_ORIGINS")

	setBool(&cfg.RateLimit.Enabled, "RATE_LIMIT_ENABLED")
	setInt(&cfg.RateLimit.Window, "RATE_LIMIT_WINDOW")
	setInt(&cfg.RateLimit.SubmitMax, "RATE_LIMIT_SUBMIT_MAX")
	setInt(&cfg.RateLimit.PaymentMax, "RATE_LIMIT_PAYMENT_MAX")
	setInt(&cfg.RateLimit.LoginMax, "RATE_LIMIT_LOGIN_MAX")
	setString(&cfg.RateLimit.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RateLimit.RedisPassword, "REDIS_PASSWORD")
	setInt(&cfg.RateLimit.RedisDB, "REDIS_DB")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Auth.Issuer, "JWT_ISSUER")
	setInt(&cfg.Auth.TokenTTL, "JWT_TTL_MINUTES")

	setString(&cfg.Mail.Host, "SMTP_HOST")
	setInt(&cfg.Mail.Port, "SMTP_PORT")
	setString(&cfg.Mail.Username, "SMTP_USERNAME")
	setString(&cfg.Mail.Password, "SMTP_PASSWORD")
	setString(&cfg.Mail.From, "SMTP_FROM")
	setString(&cfg.Mail.AdminEmail, "ADMIN_EMAIL")

	setBool(&cfg.Tracing.Enabled, "TRACING_ENABLED")
	setString(&cfg.Tracing.JaegerEndpoint, "JAEGER_ENDPOINT")
	setString(&cfg.Tracing.Environment, "TRACING_ENVIRONMENT")

	setBool(&cfg.Features.AutoVerification, "FEATURE_AUTO_VERIFICATION")
	setBool(&cfg.Features.EmailNotifications, "FEATURE_EMAIL_NOTIFICATIONS")
	if rate := os.Getenv("CARD_SUCCESS_RATE"); rate != "" {
		if f, err := strconv.ParseFloat(rate, 64); err == nil {
			cfg.Features.CardSuccessRate = f
		}
	}

	setString(&cfg.Org.Name, "ORG_NAME")
	setString(&cfg.Org.ReceiptPrefix, "RECEIPT_PREFIX")
	setString(&cfg.Org.DefaultCurrency, "DEFAULT_CURRENCY")
	setString(&cfg.Org.AppEnv, "APP_ENV")
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func setBool(dst *bool, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = parseBool(value)
	}
}

func setInt(dst *int, key string) {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			*dst = i
		}
	}
}

func parseBool(value string) bool {
	return strings.ToLower(value) == "true" || value == "1"
}

// getEnv gets an environment variable or returns the default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns the default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return parseBool(value)
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvInt64 gets an int64 environment variable or returns the default value.
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Org.AppEnv, "development")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Server.EnableTLS && (c.Server.CertFile == "" || c.Server.KeyFile == "") {
		return fmt.Errorf("tls requires cert_file and key_file")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate limit window must be positive")
		}
		if c.RateLimit.SubmitMax <= 0 || c.RateLimit.PaymentMax <= 0 || c.RateLimit.LoginMax <= 0 {
			return fmt.Errorf("rate limit maximums must be positive")
		}
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("jwt ttl must be positive")
	}
	if c.Features.CardSuccessRate < 0 || c.Features.CardSuccessRate > 1 {
		return fmt.Errorf("card success rate must be between 0 and 1")
	}
	return nil
}
