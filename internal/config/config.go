// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// AssetStoreConfig holds the object-store settings for white-label branding
// assets. Provider selects the backend; the matching field group must be set.
type AssetStoreConfig struct {
	Provider string // "s3", "azure", "gcs", or "" (asset store disabled)

	// S3-compatible storage
	S3KeyID    string
	S3Secret   string
	S3Endpoint string // optional, for non-AWS S3-compatible endpoints
	S3Region   string
	S3Bucket   string

	// Azure Blob Storage
	AzureAccountName string
	AzureAccountKey  string
	AzureContainer   string

	// Google Cloud Storage
	GCSKeyFilePath string
	GCSBucket      string
}

// Enabled returns true when an asset store backend is configured.
func (a *AssetStoreConfig) Enabled() bool { return a.Provider != "" }

// Validate checks that the selected provider's fields are set.
func (a *AssetStoreConfig) Validate() error {
	switch a.Provider {
	case "":
		return nil
	case "s3":
		if a.S3KeyID == "" || a.S3Secret == "" || a.S3Region == "" || a.S3Bucket == "" {
			return fmt.Errorf("ASSET_S3_KEY_ID, ASSET_S3_SECRET, ASSET_S3_REGION and ASSET_S3_BUCKET are required for the s3 asset store")
		}
	case "azure":
		if a.AzureAccountName == "" || a.AzureAccountKey == "" || a.AzureContainer == "" {
			return fmt.Errorf("ASSET_AZURE_ACCOUNT_NAME, ASSET_AZURE_ACCOUNT_KEY and ASSET_AZURE_CONTAINER are required for the azure asset store")
		}
	case "gcs":
		if a.GCSKeyFilePath == "" || a.GCSBucket == "" {
			return fmt.Errorf("ASSET_GCS_KEY_FILE and ASSET_GCS_BUCKET are required for the gcs asset store")
		}
	default:
		return fmt.Errorf("unknown asset store provider %q: must be s3, azure or gcs", a.Provider)
	}
	return nil
}

// Config holds the configuration for the HTTP API, control-plane database,
// and tenant storage.
type Config struct {
	ListenAddr    string // HTTP listen address (default ":8080")
	ControlDBPath string // path to the control-plane SQLite file
	DataDir       string // directory holding per-tenant SQLite namespaces
	BaseDomain    string // base domain for tenant subdomains (default "auditdna.com")
	JWTSecret     string // HS256 secret for bearer-token tenant claims
	LogLevel      string // log level: debug, info, warn, error (default "info")
	Env           string // environment: "development" (default) or "production"

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 100)
	RateLimitBurst int     // burst capacity (default 200)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// External call bound. Notification and asset-store calls are given this
	// deadline and fall back to log-and-continue on expiry.
	ExternalCallTimeout time.Duration

	// AssetStore holds white-label asset storage configuration.
	AssetStore AssetStoreConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the server is running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr:    os.Getenv("LISTEN_ADDR"),
		ControlDBPath: os.Getenv("CONTROL_DB_PATH"),
		DataDir:       os.Getenv("DATA_DIR"),
		BaseDomain:    os.Getenv("BASE_DOMAIN"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		LogLevel:      os.Getenv("LOG_LEVEL"),
		Env:           os.Getenv("ENV"),
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = origins
	}

	if v := os.Getenv("EXTERNAL_CALL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ExternalCallTimeout = d
		}
	}

	// Asset store
	cfg.AssetStore = AssetStoreConfig{
		Provider:         strings.ToLower(os.Getenv("ASSET_STORE_PROVIDER")),
		S3KeyID:          os.Getenv("ASSET_S3_KEY_ID"),
		S3Secret:         os.Getenv("ASSET_S3_SECRET"),
		S3Endpoint:       os.Getenv("ASSET_S3_ENDPOINT"),
		S3Region:         os.Getenv("ASSET_S3_REGION"),
		S3Bucket:         os.Getenv("ASSET_S3_BUCKET"),
		AzureAccountName: os.Getenv("ASSET_AZURE_ACCOUNT_NAME"),
		AzureAccountKey:  os.Getenv("ASSET_AZURE_ACCOUNT_KEY"),
		AzureContainer:   os.Getenv("ASSET_AZURE_CONTAINER"),
		GCSKeyFilePath:   os.Getenv("ASSET_GCS_KEY_FILE"),
		GCSBucket:        os.Getenv("ASSET_GCS_BUCKET"),
	}
	if err := cfg.AssetStore.Validate(); err != nil {
		return nil, err
	}
	if !cfg.AssetStore.Enabled() {
		cfg.Warnings = append(cfg.Warnings, "no asset store configured, branding uploads are disabled (set ASSET_STORE_PROVIDER)")
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.ControlDBPath == "" {
		cfg.ControlDBPath = "auditdna.sqlite"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.BaseDomain == "" {
		cfg.BaseDomain = "auditdna.com"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.ExternalCallTimeout == 0 {
		cfg.ExternalCallTimeout = 10 * time.Second
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production"
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set, using insecure default. Set JWT_SECRET in production!")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.JWTSecret == "dev-secret-change-in-production" {
			return nil, fmt.Errorf("JWT_SECRET must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Only set if not already in the environment (env vars take precedence)
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
