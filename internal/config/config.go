package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	CORSAllowedOrigins []string
	RateLimitPerMinute int
	// TrustedProxies are CIDRs, beyond loopback and private ranges, whose
	// X-Forwarded-For is believed.
	TrustedProxies []string
	// DevAccountID serves requests without X-Account-ID as this account.
	DevAccountID    string
	ShutdownTimeout time.Duration

	// Ledger and properties
	DataBackend  string
	SQLiteDBPath string
	SeedFile     string

	// Report records; empty keeps them next to the ledger
	RecordBackend      string
	FirestoreProjectID string

	// Artifacts
	ArtifactBackend    string
	ArtifactDir        string
	GCSBucket          string
	GCSCredentialsFile string
	ArtifactCacheSize  int
	ArtifactCacheTTL   time.Duration

	// Batch generation
	BatchConcurrency int

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8081"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		TrustedProxies:     getEnvList("TRUSTED_PROXIES"),
		DevAccountID:       getEnv("DEV_ACCOUNT_ID", ""),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/rentaltax.db"),
		SeedFile:     getEnv("SEED_FILE", ""),

		RecordBackend:      getEnv("RECORD_BACKEND", ""),
		FirestoreProjectID: getEnv("FIRESTORE_PROJECT_ID", ""),

		ArtifactBackend:    getEnv("ARTIFACT_BACKEND", "memory"),
		ArtifactDir:        getEnv("ARTIFACT_DIR", "./data/artifacts"),
		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		ArtifactCacheSize:  getEnvInt("ARTIFACT_CACHE_SIZE", 64),
		ArtifactCacheTTL:   getEnvDuration("ARTIFACT_CACHE_TTL", 10*time.Minute),

		BatchConcurrency: getEnvInt("BATCH_CONCURRENCY", 4),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "rentaltax"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "batch_reports"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !oneOf(c.DataBackend, "memory", "sqlite") {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of [memory sqlite]", c.DataBackend))
	}
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}
	if c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); err != nil {
			errs = append(errs, fmt.Sprintf("seed file '%s' is not readable: %v", c.SeedFile, err))
		}
	}

	switch c.RecordBackend {
	case "":
	case "firestore":
		if c.FirestoreProjectID == "" {
			errs = append(errs, "FIRESTORE_PROJECT_ID is required when RECORD_BACKEND is firestore")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid record backend '%s': must be empty or 'firestore'", c.RecordBackend))
	}

	switch c.ArtifactBackend {
	case "memory":
	case "local":
		if c.ArtifactDir == "" {
			errs = append(errs, "ARTIFACT_DIR is required when ARTIFACT_BACKEND is local")
		}
	case "gcs":
		if c.GCSBucket == "" {
			errs = append(errs, "GCS_BUCKET is required when ARTIFACT_BACKEND is gcs")
		}
		if c.GCSCredentialsFile != "" {
			if _, err := os.Stat(c.GCSCredentialsFile); errors.Is(err, os.ErrNotExist) {
				errs = append(errs, fmt.Sprintf("GCS credentials file does not exist: %s", c.GCSCredentialsFile))
			}
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid artifact backend '%s': must be one of [memory local gcs]", c.ArtifactBackend))
	}
	if c.ArtifactCacheSize < 0 {
		errs = append(errs, fmt.Sprintf("invalid artifact cache size %d: must not be negative", c.ArtifactCacheSize))
	}

	if c.BatchConcurrency < 1 || c.BatchConcurrency > 64 {
		errs = append(errs, fmt.Sprintf("invalid batch concurrency %d: must be between 1 and 64", c.BatchConcurrency))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must not be negative", c.RateLimitPerMinute))
	}
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errs = append(errs, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if !oneOf(strings.ToLower(c.LogFormat), "text", "json") {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ValidateWorker additionally requires the queue the worker consumes and
// stores the API process can read back.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	var errs []string
	if c.AMQPURL == "" {
		errs = append(errs, "AMQP_URL is required for the report worker")
	}
	if c.DataBackend != "sqlite" && c.RecordBackend == "" {
		errs = append(errs, "the report worker needs DATA_BACKEND=sqlite or RECORD_BACKEND=firestore")
	}
	if c.ArtifactBackend == "memory" {
		errs = append(errs, "the report worker needs ARTIFACT_BACKEND=local or gcs")
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
