package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. HANDSET_SERVER_PORT.
const EnvPrefix = "HANDSET"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files, and
// a .env file in the working directory is loaded first when present.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	// A missing .env file is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without defaults must be bound explicitly for AutomaticEnv to see them.
	for _, key := range []string{"database.url", "redis.addr", "server.log_file", "device.default_icc"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags plus the rules that span groups, such as the
// postgres backend requiring a database URL.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	switch cfg.Store.Backend {
	case BackendPostgres:
		if cfg.Database.URL == "" {
			return errors.New("config validation failed: database.url is required for the postgres backend")
		}
	case BackendRedis:
		if cfg.Redis.Addr == "" {
			return errors.New("config validation failed: redis.addr is required for the redis backend")
		}
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "handset:")
	v.SetDefault("import.feedback_delay", "200ms")
	v.SetDefault("import.sdcard_root", "/sdcard")
	v.SetDefault("import.max_retries", 1)
	v.SetDefault("device.service_class", 1)
}
