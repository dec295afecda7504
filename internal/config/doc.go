// Package config defines the application configuration and its loading
// logic. Values come from defaults, an optional config file, and
// environment variables with the BGBRIDGE_ prefix, with the environment
// taking precedence. Loaded configuration is validated before use so
// misconfiguration fails startup deterministically.
package config
