// Package config provides configuration for schemalift, loaded from a
// yaml file, environment variables and command line flags in that order
// of increasing precedence.
package config

import (
	"fmt"
	"time"
)

// Config holds the full runtime configuration.
type Config struct {
	// Input is a directory tree of SQL files; each immediate
	// subdirectory becomes one repository.
	Input string `koanf:"input"`

	// Manifest is an optional tab-separated index (path, repo URL,
	// raw URL) that overrides Input when set.
	Manifest string `koanf:"manifest"`

	// OutputDir receives columns.csv, joins.csv and diagnostics.csv.
	OutputDir string `koanf:"output_dir"`

	// StatePath is the SQLite results database. Empty disables the store.
	StatePath string `koanf:"state_path"`

	// Workers bounds how many repositories run concurrently.
	Workers int `koanf:"workers"`

	// MaxRepos caps how many repositories are loaded; zero means all.
	MaxRepos int `koanf:"max_repos"`

	// RepoTimeout abandons a repository that runs longer than this.
	RepoTimeout time.Duration `koanf:"repo_timeout"`

	// StatementTimeout skips a single statement that parses longer
	// than this.
	StatementTimeout time.Duration `koanf:"statement_timeout"`

	Verbose bool `koanf:"verbose"`
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.Input == "" && c.Manifest == "" {
		return fmt.Errorf("either input or manifest must be set")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if c.MaxRepos < 0 {
		return fmt.Errorf("max_repos must not be negative")
	}
	return nil
}
