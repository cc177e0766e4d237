package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	Auth      AuthConfig
	Engine    EngineConfig
	Delivery  DeliveryConfig
	Worker    WorkerConfig
	Archive   ArchiveConfig
	Retention RetentionConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name  string
	Env   string
	Debug bool
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodySize     int64
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration, shared by the task substrate and
// the subscription cache.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// Addr returns the host:port address.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// AuthConfig holds management API authentication configuration.
type AuthConfig struct {
	// JWTSecret signs and verifies management API bearer tokens. Empty
	// disables auth (development only).
	JWTSecret string
}

// EngineConfig holds dispatch engine configuration.
type EngineConfig struct {
	// Active is the engine-wide activation gate. When false every entry
	// point is a no-op that returns its previous value unchanged.
	Active bool
}

// DeliveryConfig holds outbound webhook delivery configuration.
type DeliveryConfig struct {
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int

	// CompressThreshold is the payload size in bytes above which task
	// payloads are zstd-compressed before enqueueing.
	CompressThreshold int
}

// WorkerConfig holds the background worker configuration.
type WorkerConfig struct {
	Concurrency    int
	FanOutParallel int
	MaxRetry       int
	TaskTimeout    time.Duration
}

// ArchiveConfig holds the optional S3 payload archive configuration.
type ArchiveConfig struct {
	Enabled  bool
	Bucket   string
	Region   string
	Endpoint string
	Prefix   string
}

// RetentionConfig holds delivery-log retention configuration.
type RetentionConfig struct {
	// MaxAge is how long delivery records are kept.
	MaxAge time.Duration
	// CronSpec schedules the cleanup job.
	CronSpec string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:  getEnv("APP_NAME", "shopmesh-events"),
			Env:   getEnv("APP_ENV", "development"),
			Debug: getEnvBool("APP_DEBUG", false),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			MaxBodySize:     getEnvInt64("SERVER_MAX_BODY_SIZE", 1<<20),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "shopmesh"),
			Password:        getEnv("DB_PASSWORD", "secret"),
			Name:            getEnv("DB_NAME", "shopmesh_events"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		Engine: EngineConfig{
			Active: getEnvBool("ENGINE_ACTIVE", true),
		},
		Delivery: DeliveryConfig{
			Timeout:           getEnvDuration("DELIVERY_TIMEOUT", 10*time.Second),
			RequestsPerSec:    getEnvFloat("DELIVERY_REQUESTS_PER_SEC", 20),
			Burst:             getEnvInt("DELIVERY_BURST", 40),
			CompressThreshold: getEnvInt("DELIVERY_COMPRESS_THRESHOLD", 32*1024),
		},
		Worker: WorkerConfig{
			Concurrency:    getEnvInt("WORKER_CONCURRENCY", 10),
			FanOutParallel: getEnvInt("WORKER_FANOUT_PARALLEL", 8),
			MaxRetry:       getEnvInt("WORKER_MAX_RETRY", 5),
			TaskTimeout:    getEnvDuration("WORKER_TASK_TIMEOUT", 2*time.Minute),
		},
		Archive: ArchiveConfig{
			Enabled:  getEnvBool("ARCHIVE_ENABLED", false),
			Bucket:   getEnv("ARCHIVE_S3_BUCKET", ""),
			Region:   getEnv("ARCHIVE_S3_REGION", "us-east-1"),
			Endpoint: getEnv("ARCHIVE_S3_ENDPOINT", ""),
			Prefix:   getEnv("ARCHIVE_S3_PREFIX", "webhook-deliveries"),
		},
		Retention: RetentionConfig{
			MaxAge:   getEnvDuration("RETENTION_MAX_AGE", 30*24*time.Hour),
			CronSpec: getEnv("RETENTION_CRON", "0 3 * * *"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Delivery.Timeout <= 0 {
		return fmt.Errorf("delivery timeout must be positive")
	}
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("worker concurrency must be at least 1")
	}
	if c.Archive.Enabled && c.Archive.Bucket == "" {
		return fmt.Errorf("archive enabled but ARCHIVE_S3_BUCKET is empty")
	}
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required in production")
	}
	return nil
}

// IsProduction returns true when running in production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.App.Env, "production")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
