package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Events    EventsConfig    `mapstructure:"events"    validate:"required"`
}

// ServerConfig contains the admin HTTP server settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains the optional grant event audit database settings.
// When URL is empty, auditing is disabled.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// AuthConfig contains admin API authentication settings. When the secret is
// empty, the admin API is unauthenticated (suitable for local use only).
type AuthConfig struct {
	AdminTokenSecret string `mapstructure:"admin_token_secret" validate:"omitempty,min=32"`
}

// SchedulerConfig contains the simulated scheduler's tuning knobs.
type SchedulerConfig struct {
	// TickInterval is how often due execution requests become grants.
	TickInterval time.Duration `mapstructure:"tick_interval" validate:"required,gt=0"`

	// GrantWindow is how long a granted task has before its deadline.
	GrantWindow time.Duration `mapstructure:"grant_window" validate:"required,gt=0"`
}

// EventsConfig contains lifecycle event bus settings.
type EventsConfig struct {
	// BufferSize is the event bus queue depth; emission drops (with a
	// warning) once the buffer is full.
	BufferSize int `mapstructure:"buffer_size" validate:"required,gt=0"`
}
