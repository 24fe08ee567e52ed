package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment    string
	Port           string
	AllowedOrigins []string

	MobilizeAPIURL         string
	MobilizeAPIKey         string
	MobilizeOrganizationID string
	MobilizePageSize       int

	OutputDir string

	DBUrl    string
	DBSchema string

	KafkaBrokers []string
	KafkaTopic   string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioSecure    bool
	RawBucket      string

	EmailProvider      string
	EmailFromAddress   string
	EmailFromName      string
	ReportRecipients   []string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	JWTSecret         string
	AdminPasswordHash string
	TokenExpiry       time.Duration

	IngestTimeout   time.Duration
	NormalizeChunks int
}

// Load loads configuration from environment variables
// It attempts to load from .env file if not in production
func Load() (*Config, error) {
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// In production there is usually no .env; system environment is used.
	if env != "production" {
		if err := godotenv.Load(); err != nil {
			slog.Debug(".env file not found or couldn't be loaded", "error", err)
		}
	}

	cfg := &Config{
		Environment: env,
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),

		MobilizeAPIURL:         getEnv("MOBILIZE_API_URL", "https://api.mobilize.us/v1/"),
		MobilizeAPIKey:         os.Getenv("MOBILIZE_API_KEY"),
		MobilizeOrganizationID: os.Getenv("MOBILIZE_ORGANIZATION_ID"),

		OutputDir: getEnv("OUTPUT_DIR", "output"),

		DBUrl:    os.Getenv("DATABASE_URL"),
		DBSchema: getEnv("DATABASE_SCHEMA", "public"),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "mobilize.rows.v1"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		RawBucket:      getEnv("RAW_BUCKET", "mobilize-raw"),

		EmailProvider:      getEnv("EMAIL_PROVIDER", "noop"),
		EmailFromAddress:   os.Getenv("EMAIL_FROM_ADDRESS"),
		EmailFromName:      getEnv("EMAIL_FROM_NAME", "Mobilize Warehouse"),
		ReportRecipients:   splitList(os.Getenv("REPORT_RECIPIENTS")),
		AWSRegion:          os.Getenv("AWS_REGION"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
	}

	var errs []error
	var err error
	if cfg.MobilizePageSize, err = getInt("MOBILIZE_PAGE_SIZE", 100); err != nil {
		errs = append(errs, err)
	}
	if cfg.NormalizeChunks, err = getInt("NORMALIZE_CHUNK_SIZE", 0); err != nil {
		errs = append(errs, err)
	}
	if cfg.MinioSecure, err = getBool("MINIO_SECURE", false); err != nil {
		errs = append(errs, err)
	}
	if cfg.IngestTimeout, err = getDuration("INGEST_TIMEOUT", 10*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.TokenExpiry, err = getDuration("TOKEN_EXPIRY", 12*time.Hour); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// ArchiveEnabled reports whether raw payloads go to object storage.
func (c *Config) ArchiveEnabled() bool { return c.MinioEndpoint != "" }

// WarehouseEnabled reports whether the Postgres sink is configured.
func (c *Config) WarehouseEnabled() bool { return c.DBUrl != "" }

// StreamEnabled reports whether the Kafka sink is configured.
func (c *Config) StreamEnabled() bool { return len(c.KafkaBrokers) > 0 }

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
