package commands

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/schemalift-labs/schemalift/internal/state"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs <run-id>",
		Short: "Inspect a recorded extraction run",
		Long:  `Show a run from the results database and the repositories it processed.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd, args[0])
		},
	}
	return cmd
}

func runRuns(cmd *cobra.Command, runID string) error {
	cfg := GetConfig(cmd.Context())
	if cfg.StatePath == "" {
		return fmt.Errorf("no results database configured")
	}

	store := state.NewSQLiteStore()
	if err := store.Open(cfg.StatePath); err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %s (started %s)\n", run.ID, run.Status, run.StartedAt.Format("2006-01-02 15:04:05"))
	if run.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", run.Error)
	}

	repos, err := store.ListRepositories(runID)
	if err != nil {
		return err
	}
	if len(repos) == 0 {
		fmt.Fprintln(out, "No repositories recorded.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"Repository", "Tables", "Queries"})
	for _, r := range repos {
		t.AppendRow(table.Row{r.Name, strconv.Itoa(r.Tables), strconv.Itoa(r.Queries)})
	}
	t.Render()
	return nil
}
