package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"

	NotificationMemory = "memory"
	NotificationAsynq  = "asynq"
)

// Config holds all configuration for our application
type Config struct {
	Server       ServerConfig       `mapstructure:",squash"`
	Storage      StorageConfig      `mapstructure:",squash"`
	Database     DatabaseConfig     `mapstructure:",squash"`
	Mongo        MongoConfig        `mapstructure:",squash"`
	Redis        RedisConfig        `mapstructure:",squash"`
	Notification NotificationConfig `mapstructure:",squash"`
	Scheduler    SchedulerConfig    `mapstructure:",squash"`
	Logging      LoggingConfig      `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type StorageConfig struct {
	Backend string `mapstructure:"STORAGE_BACKEND"`
	Key     string `mapstructure:"STORAGE_KEY"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"DATABASE_URL"`
}

type MongoConfig struct {
	URI        string `mapstructure:"MONGO_URI"`
	Database   string `mapstructure:"MONGO_DATABASE"`
	Collection string `mapstructure:"MONGO_COLLECTION"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"REDIS_ADDR"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	QueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`
}

type NotificationConfig struct {
	Backend     string `mapstructure:"NOTIFICATION_BACKEND"`
	Queue       string `mapstructure:"NOTIFICATION_QUEUE"`
	Concurrency int    `mapstructure:"NOTIFICATION_CONCURRENCY"`
}

type SchedulerConfig struct {
	Timezone       string `mapstructure:"SCHEDULER_TIMEZONE"`
	ReminderHour   int    `mapstructure:"REMINDER_HOUR"`
	UpcomingLimit  int    `mapstructure:"UPCOMING_LIMIT"`
	DashboardLimit int    `mapstructure:"DASHBOARD_UPCOMING_LIMIT"`
	AuditSchedule  string `mapstructure:"REMINDER_AUDIT_CRON"`
	DigestSchedule string `mapstructure:"FOLLOWUP_DIGEST_CRON"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	v.SetDefault("STORAGE_BACKEND", StorageMemory)
	v.SetDefault("STORAGE_KEY", "@fincorp_clients")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "fincorp")
	v.SetDefault("MONGO_COLLECTION", "blobs")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("NOTIFICATION_BACKEND", NotificationMemory)
	v.SetDefault("NOTIFICATION_QUEUE", "followups")
	v.SetDefault("NOTIFICATION_CONCURRENCY", 5)
	v.SetDefault("SCHEDULER_TIMEZONE", "Local")
	v.SetDefault("REMINDER_HOUR", 9)
	v.SetDefault("UPCOMING_LIMIT", 7)
	v.SetDefault("DASHBOARD_UPCOMING_LIMIT", 3)
	v.SetDefault("REMINDER_AUDIT_CRON", "0 5 0 * * *")
	v.SetDefault("FOLLOWUP_DIGEST_CRON", "0 0 9 * * *")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "")

	v.AutomaticEnv()

	// Try to read from .env file (optional)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./deployments")
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Storage.Backend {
	case StorageMemory, StorageRedis, StorageMongo:
	case StoragePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres storage backend")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND %q is not supported", c.Storage.Backend)
	}

	if c.Storage.Key == "" {
		return fmt.Errorf("STORAGE_KEY is required")
	}

	switch c.Notification.Backend {
	case NotificationMemory, NotificationAsynq:
	default:
		return fmt.Errorf("NOTIFICATION_BACKEND %q is not supported", c.Notification.Backend)
	}

	if c.Notification.Queue == "" {
		return fmt.Errorf("NOTIFICATION_QUEUE is required")
	}

	if c.Notification.Concurrency <= 0 {
		return fmt.Errorf("NOTIFICATION_CONCURRENCY must be greater than 0")
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid IANA zone: %w", err)
	}

	if c.Scheduler.ReminderHour < 0 || c.Scheduler.ReminderHour > 23 {
		return fmt.Errorf("REMINDER_HOUR must be between 0 and 23")
	}

	if c.Scheduler.UpcomingLimit <= 0 || c.Scheduler.DashboardLimit <= 0 {
		return fmt.Errorf("UPCOMING_LIMIT and DASHBOARD_UPCOMING_LIMIT must be greater than 0")
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(c.Scheduler.AuditSchedule); err != nil {
		return fmt.Errorf("REMINDER_AUDIT_CRON must be a valid cron spec: %w", err)
	}
	if _, err := parser.Parse(c.Scheduler.DigestSchedule); err != nil {
		return fmt.Errorf("FOLLOWUP_DIGEST_CRON must be a valid cron spec: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// LogFormat returns LOG_FORMAT, defaulting to console output in development and json elsewhere.
func (c *Config) LogFormat() string {
	if c.Logging.Format != "" {
		return c.Logging.Format
	}
	if c.IsDevelopment() {
		return "console"
	}
	return "json"
}

// Location returns the timezone follow-up days are computed in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
