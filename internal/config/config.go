package config

import "time"

// Store backends supported by the settings and contacts layers.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Store    StoreConfig    `mapstructure:"store" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Import   ImportConfig   `mapstructure:"import" validate:"required"`
	Device   DeviceConfig   `mapstructure:"device" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// LogFile enables a rotating file sink next to stdout when set.
	LogFile string `mapstructure:"log_file"`
}

// StoreConfig selects the persistence backend for settings and contacts.
type StoreConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=memory postgres redis"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// RedisConfig configures the Redis settings backend.
type RedisConfig struct {
	Addr   string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	DB     int    `mapstructure:"db" validate:"gte=0"`
	Prefix string `mapstructure:"prefix"`
}

// ImportConfig contains the contact import settings.
type ImportConfig struct {
	// FeedbackDelay is the minimum time between pipeline completion and the
	// UI transition, so the overlay does not flash.
	FeedbackDelay time.Duration `mapstructure:"feedback_delay" validate:"gte=0"`
	// SDCardRoot is the mount point scanned for vCard files.
	SDCardRoot string `mapstructure:"sdcard_root" validate:"required"`
	// MaxRetries is how many times a failed import is retried when no user
	// is present to answer the retry dialog.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=0,lte=5"`
}

// DeviceConfig describes the emulated radio.
type DeviceConfig struct {
	ServiceClass int    `mapstructure:"service_class" validate:"gt=0"`
	DefaultICC   string `mapstructure:"default_icc"`
}
