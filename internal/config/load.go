package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables only.
func Load() (*Config, error) {
	return LoadFromFile("")
}

// LoadFromFile reads configuration from the given file (yaml), overlaid with
// environment variables carrying the BGBRIDGE_ prefix. An empty path skips
// the file entirely. Returns a validated Config or an error describing what
// failed to load or validate.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("database.url", "")
	v.SetDefault("auth.admin_token_secret", "")
	v.SetDefault("scheduler.tick_interval", "100ms")
	v.SetDefault("scheduler.grant_window", "30s")
	v.SetDefault("events.buffer_size", 256)

	v.SetEnvPrefix("BGBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
