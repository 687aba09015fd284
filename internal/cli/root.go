// Package cli provides the command-line interface for schemalift.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/schemalift-labs/schemalift/internal/cli/commands"
	"github.com/schemalift-labs/schemalift/internal/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "schemalift",
		Short: "schemalift - SQL schema recovery",
		Long: `schemalift recovers table schemas and join relationships from raw SQL
files scraped out of source repositories.

It extracts column definitions, keys and foreign keys from DDL statements,
resolves references across files, and mines SELECT statements for the join
conditions that connect the recovered tables.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

			ctx := context.WithValue(cmd.Context(), commands.ConfigKey(), cfg)
			ctx = context.WithValue(ctx, commands.LoggerKey(), logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	// Global persistent flags; names map onto config keys with dashes
	// replaced by underscores.
	rootCmd.PersistentFlags().StringP("input", "i", "", "Directory tree of SQL files (one repository per subdirectory)")
	rootCmd.PersistentFlags().String("manifest", "", "Tab-separated manifest of SQL files and their repositories")
	rootCmd.PersistentFlags().StringP("output-dir", "o", "", "Directory for CSV output")
	rootCmd.PersistentFlags().String("state", "", "Path to the results database")
	rootCmd.PersistentFlags().IntP("workers", "w", 0, "Repositories processed concurrently (default: number of CPUs)")
	rootCmd.PersistentFlags().Int("max-repos", 0, "Cap on repositories loaded (0 = all)")
	rootCmd.PersistentFlags().Duration("repo-timeout", 0, "Abandon a repository after this long")
	rootCmd.PersistentFlags().Duration("statement-timeout", 0, "Skip a statement after this long")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(commands.NewExtractCommand())
	rootCmd.AddCommand(commands.NewRunsCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// newLogger builds the process logger. Verbose enables debug output.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for schemalift.

To load completions:

Bash:
  $ source <(schemalift completion bash)

Zsh:
  $ schemalift completion zsh > "${fpath[1]}/_schemalift"

Fish:
  $ schemalift completion fish | source

PowerShell:
  PS> schemalift completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
	return cmd
}
