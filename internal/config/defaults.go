package config

import (
	"runtime"
	"time"
)

// Default values applied when neither file, environment nor flags set a
// field.
const (
	DefaultOutputDir        = "out"
	DefaultStateFile        = ".schemalift/state.db"
	DefaultRepoTimeout      = 5 * time.Minute
	DefaultStatementTimeout = time.Second
)

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.StatePath == "" {
		c.StatePath = DefaultStateFile
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.RepoTimeout == 0 {
		c.RepoTimeout = DefaultRepoTimeout
	}
	if c.StatementTimeout == 0 {
		c.StatementTimeout = DefaultStatementTimeout
	}
}
