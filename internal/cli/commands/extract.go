package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/schemalift-labs/schemalift/internal/config"
	"github.com/schemalift-labs/schemalift/internal/export"
	"github.com/schemalift-labs/schemalift/internal/input"
	"github.com/schemalift-labs/schemalift/internal/state"
	"github.com/schemalift-labs/schemalift/pkg/repoparse"
)

// ExtractOptions holds options for the extract command.
type ExtractOptions struct {
	NoState bool
}

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	opts := &ExtractOptions{}

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Recover schemas and joins from SQL files",
		Long: `Parse every repository's SQL files, recover table schemas from DDL
statements, and mine the remaining statements for join conditions.

Results are written as CSV files to the output directory and recorded in
the results database unless --no-state is given.`,
		Example: `  # Extract from a directory tree (one repository per subdirectory)
  schemalift extract --input ./repos

  # Extract the files listed in a manifest, 16 repositories at a time
  schemalift extract --manifest files.tsv --workers 16

  # Limit the run to the first 100 repositories
  schemalift extract --input ./repos --max-repos 100`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NoState, "no-state", false, "Do not record the run in the results database")

	return cmd
}

func runExtract(cmd *cobra.Command, opts *ExtractOptions) error {
	ctx := cmd.Context()
	cfg := GetConfig(ctx)
	logger := GetLogger(ctx)

	if err := cfg.Validate(); err != nil {
		return err
	}

	repos, err := loadRepositories(cfg, logger)
	if err != nil {
		return err
	}
	if len(repos) == 0 {
		return fmt.Errorf("no SQL files found")
	}
	logger.Info("loaded repositories", "count", len(repos))

	var store *state.SQLiteStore
	var run *state.Run
	if !opts.NoState && cfg.StatePath != "" {
		store, run, err = openStore(cfg.StatePath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	start := time.Now()
	pipeline := repoparse.NewPipeline(logger, cfg.StatementTimeout)
	runner := repoparse.NewRunner(pipeline, logger, cfg.Workers, cfg.RepoTimeout)

	results, summary, err := runner.RunAll(ctx, repos)
	if err != nil {
		if store != nil {
			_ = store.CompleteRun(run.ID, state.RunStatusFailed, err.Error())
		}
		return fmt.Errorf("extraction failed: %w", err)
	}

	if err := writeOutputs(cfg.OutputDir, results); err != nil {
		if store != nil {
			_ = store.CompleteRun(run.ID, state.RunStatusFailed, err.Error())
		}
		return err
	}

	if store != nil {
		for _, res := range results {
			if err := store.SaveResult(run.ID, res); err != nil {
				logger.Warn("failed to save result", "repository", res.Repository, "error", err)
			}
		}
		if err := store.CompleteRun(run.ID, state.RunStatusCompleted, ""); err != nil {
			logger.Warn("failed to complete run", "error", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s\n", run.ID)
	}

	export.WriteSummary(cmd.OutOrStdout(), summary)
	fmt.Fprintf(cmd.OutOrStdout(), "Completed in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// loadRepositories loads input repositories; an explicit manifest wins
// over the input directory.
func loadRepositories(cfg *config.Config, logger *slog.Logger) ([]*repoparse.Repository, error) {
	if cfg.Manifest != "" {
		repos, err := input.LoadManifest(cfg.Manifest, cfg.MaxRepos, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load manifest: %w", err)
		}
		return repos, nil
	}
	repos, err := input.LoadTree(cfg.Input, cfg.MaxRepos, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load input: %w", err)
	}
	return repos, nil
}

// openStore opens the results database and starts a run in it.
func openStore(path string) (*state.SQLiteStore, *state.Run, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewSQLiteStore()
	if err := store.Open(path); err != nil {
		return nil, nil, err
	}
	if err := store.InitSchema(); err != nil {
		store.Close()
		return nil, nil, err
	}
	run, err := store.CreateRun()
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, run, nil
}

// writeOutputs writes the three CSV files into the output directory.
func writeOutputs(dir string, results []*repoparse.Result) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	writers := []struct {
		name  string
		write func(io.Writer, []*repoparse.Result) error
	}{
		{"columns.csv", export.WriteColumns},
		{"joins.csv", export.WriteJoins},
		{"diagnostics.csv", export.WriteDiagnostics},
	}
	for _, w := range writers {
		f, err := os.Create(filepath.Join(dir, w.name))
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", w.name, err)
		}
		if err := w.write(f, results); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", w.name, err)
		}
	}
	return nil
}
