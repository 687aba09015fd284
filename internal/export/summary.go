package export

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/schemalift-labs/schemalift/pkg/repoparse"
)

// WriteSummary renders the aggregated run counters as a table.
func WriteSummary(w io.Writer, summary repoparse.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Metric", "Value"})

	rows := []struct {
		name  string
		value int
	}{
		{"Repositories", summary.Repositories},
		{"Completed", summary.Completed},
		{"Abandoned (timeout)", summary.Abandoned},
		{"Statements", summary.Report.Statements},
		{"Oversize statements dropped", summary.Report.LongStatements},
		{"Statement timeouts", summary.Report.StatementTimeouts},
		{"Clauses parsed", summary.Report.ClausesParsed},
		{"Clauses skipped", summary.Report.ClausesSkipped},
		{"Foreign keys deferred", summary.Report.DeferredFKs},
		{"Foreign keys resolved", summary.Report.ResolvedFKs},
		{"Foreign keys unresolved", summary.Report.UnresolvedFKs},
		{"Queries with joins", summary.Report.Queries},
		{"Conditions dropped", summary.Report.FailedConditions},
	}
	for _, r := range rows {
		t.AppendRow(table.Row{r.name, strconv.Itoa(r.value)})
	}
	t.Render()
}
