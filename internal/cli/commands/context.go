// Package commands implements the schemalift subcommands.
package commands

import (
	"context"
	"log/slog"

	"github.com/schemalift-labs/schemalift/internal/config"
)

// configKey is used to store config in context.
type configKey struct{}

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// ConfigKey returns the context key the root command stores the loaded
// configuration under.
func ConfigKey() interface{} { return configKey{} }

// LoggerKey returns the context key the root command stores the logger
// under.
func LoggerKey() interface{} { return loggerKey{} }

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	return cfg
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
