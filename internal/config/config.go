package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the FieldLog API.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	MinIO    MinIOConfig
	Auth     AuthConfig
	Media    MediaConfig
	Metrics  MetricsConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
}

// AuthConfig groups authentication-related settings.
type AuthConfig struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	BcryptCost         int
}

// CompressionPolicy bounds the output of the compression stage for one
// MIME family.
type CompressionPolicy struct {
	MaxWidth  int
	MaxHeight int
	Quality   float64 // 0..1, higher means better quality / larger output
	MaxSizeMB int
}

// CeilingBytes returns the hard size ceiling in bytes.
func (p CompressionPolicy) CeilingBytes() int64 {
	return int64(p.MaxSizeMB) * 1024 * 1024
}

// MediaConfig parameterizes the attachment pipeline.
type MediaConfig struct {
	FFmpegBinary string
	Video        CompressionPolicy
	Image        CompressionPolicy
	Workers      int
	URLExpiry    time.Duration
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:         getString("FIELDLOG_API_HOST", "0.0.0.0"),
			Port:         getInt("FIELDLOG_API_PORT", 8080),
			ReadTimeout:  getDuration("FIELDLOG_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("FIELDLOG_API_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:  getDuration("FIELDLOG_API_IDLE_TIMEOUT", 60*time.Second),
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getString("POSTGRES_USER", "fieldlog_app"),
			Password: getString("POSTGRES_PASSWORD", "change-me"),
			Database: getString("POSTGRES_DB", "fieldlog"),
			SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
		},
		MinIO: MinIOConfig{
			Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getString("MINIO_ROOT_USER", "fieldlog"),
			SecretAccessKey: getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
			Bucket:          getString("MINIO_BUCKET", "fieldlog-media"),
			UseSSL:          getBool("MINIO_USE_SSL", false),
			Region:          getString("MINIO_REGION", ""),
		},
		Auth:  loadAuthConfig(),
		Media: loadMediaConfig(),
		Metrics: MetricsConfig{
			PrometheusPath: getString("FIELDLOG_METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.Media.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadMediaConfig() MediaConfig {
	workers := getInt("FIELDLOG_MEDIA_WORKERS", 1)
	if workers < 1 {
		workers = 1
	}

	return MediaConfig{
		FFmpegBinary: getString("FIELDLOG_FFMPEG_BINARY", "ffmpeg"),
		Video: CompressionPolicy{
			MaxWidth:  getInt("FIELDLOG_VIDEO_MAX_WIDTH", 1280),
			MaxHeight: getInt("FIELDLOG_VIDEO_MAX_HEIGHT", 720),
			Quality:   getFloat("FIELDLOG_VIDEO_QUALITY", 0.6),
			MaxSizeMB: getInt("FIELDLOG_VIDEO_MAX_SIZE_MB", 50),
		},
		Image: CompressionPolicy{
			MaxWidth:  getInt("FIELDLOG_IMAGE_MAX_WIDTH", 1920),
			MaxHeight: getInt("FIELDLOG_IMAGE_MAX_HEIGHT", 1920),
			Quality:   getFloat("FIELDLOG_IMAGE_QUALITY", 0.8),
			MaxSizeMB: getInt("FIELDLOG_IMAGE_MAX_SIZE_MB", 10),
		},
		Workers:   workers,
		URLExpiry: getDuration("FIELDLOG_MEDIA_URL_EXPIRY", 24*time.Hour),
	}
}

func (m MediaConfig) validate() error {
	for _, policy := range []struct {
		name string
		p    CompressionPolicy
	}{{"video", m.Video}, {"image", m.Image}} {
		if policy.p.Quality < 0 || policy.p.Quality > 1 {
			return fmt.Errorf("media %s quality must be within [0,1], got %v", policy.name, policy.p.Quality)
		}
		if policy.p.MaxSizeMB <= 0 {
			return fmt.Errorf("media %s max size must be positive, got %d", policy.name, policy.p.MaxSizeMB)
		}
		if policy.p.MaxWidth <= 0 || policy.p.MaxHeight <= 0 {
			return fmt.Errorf("media %s dimensions must be positive", policy.name)
		}
	}
	return nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func loadAuthConfig() AuthConfig {
	cost := getInt("FIELDLOG_AUTH_BCRYPT_COST", 12)
	if cost < 4 || cost > 31 {
		cost = 12
	}

	return AuthConfig{
		AccessTokenSecret:  getString("FIELDLOG_JWT_SECRET", "change-me-to-a-32-byte-secret"),
		RefreshTokenSecret: getString("FIELDLOG_JWT_REFRESH_SECRET", "change-me-to-a-64-byte-secret"),
		AccessTokenTTL:     getDuration("FIELDLOG_AUTH_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:    getDuration("FIELDLOG_AUTH_REFRESH_TOKEN_TTL", 720*time.Hour),
		BcryptCost:         cost,
	}
}
