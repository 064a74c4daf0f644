package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Auth modes.
const (
	AuthAPIKey = "apikey"
	AuthJWT    = "jwt"
)

type Config struct {
	Port string `yaml:"port"`

	// Storage
	DatabasePath string `yaml:"database_path"`

	// Auth
	AuthMode   string `yaml:"auth_mode"`
	APIKey     string `yaml:"api_key"`
	JWTSecret  string `yaml:"jwt_secret"`
	JWTIssuer  string `yaml:"jwt_issuer"`
	APIKeyUser string `yaml:"api_key_user"`

	// Worker pool
	WorkerCount  int `yaml:"worker_count"`
	MaxQueueSize int `yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`

	// PDF
	PDFExtractImages bool    `yaml:"pdf_extract_images"`
	PDFRowTolerance  float64 `yaml:"pdf_row_tolerance"`
	PDFBlockGap      float64 `yaml:"pdf_block_gap"`
}

func defaults() Config {
	return Config{
		Port:             "8000",
		DatabasePath:     "docs.db",
		AuthMode:         AuthAPIKey,
		APIKeyUser:       "local",
		WorkerCount:      4,
		MaxQueueSize:     100,
		MaxUploadBytes:   52428800, // 50MB
		JobTTL:           1 * time.Hour,
		PDFExtractImages: true,
		PDFRowTolerance:  3,
		PDFBlockGap:      1.5,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// PDFREAD_CONFIG (if any), then environment variables.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("PDFREAD_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.DatabasePath = envOr("DATABASE_PATH", cfg.DatabasePath)

	cfg.AuthMode = envOr("AUTH_MODE", cfg.AuthMode)
	cfg.APIKey = envOr("PDFREAD_API_KEY", cfg.APIKey)
	cfg.JWTSecret = envOr("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = envOr("JWT_ISSUER", cfg.JWTIssuer)
	cfg.APIKeyUser = envOr("PDFREAD_API_KEY_USER", cfg.APIKeyUser)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)

	cfg.PDFExtractImages = envBool("PDF_EXTRACT_IMAGES", cfg.PDFExtractImages)
	cfg.PDFRowTolerance = envFloat("PDF_ROW_TOLERANCE", cfg.PDFRowTolerance)
	cfg.PDFBlockGap = envFloat("PDF_BLOCK_GAP", cfg.PDFBlockGap)

	d := defaults()
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = d.WorkerCount
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = d.MaxQueueSize
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = d.MaxUploadBytes
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = d.JobTTL
	}
	if cfg.PDFRowTolerance <= 0 {
		cfg.PDFRowTolerance = d.PDFRowTolerance
	}
	if cfg.PDFBlockGap <= 0 {
		cfg.PDFBlockGap = d.PDFBlockGap
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.AuthMode {
	case AuthAPIKey:
		if c.APIKey == "" {
			return fmt.Errorf("PDFREAD_API_KEY is required when AUTH_MODE=%s", AuthAPIKey)
		}
	case AuthJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_MODE=%s", AuthJWT)
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q (want %s or %s)", c.AuthMode, AuthAPIKey, AuthJWT)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
