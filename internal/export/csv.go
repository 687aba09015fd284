// Package export serializes extraction results: flat CSV files for
// downstream consumers and a human-readable run summary.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/schemalift-labs/schemalift/pkg/query"
	"github.com/schemalift-labs/schemalift/pkg/repoparse"
	"github.com/schemalift-labs/schemalift/pkg/schema"
)

var columnsHeader = []string{"repository", "hashid", "table", "column", "label"}
var joinsHeader = []string{"repository", "table_a", "column_a", "op", "table_b", "column_b", "join_type"}

// WriteColumns writes one row per recovered column across all results.
// Rows with extraction-damaged names were already dropped by Records.
func WriteColumns(w io.Writer, results []*repoparse.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columnsHeader); err != nil {
		return fmt.Errorf("write columns header: %w", err)
	}

	for _, res := range results {
		for _, rec := range res.Model.Records() {
			row := []string{res.Repository, rec.HashID, rec.Table, rec.Column, string(rec.Label)}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write column row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJoins writes one row per join condition across all results.
func WriteJoins(w io.Writer, results []*repoparse.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(joinsHeader); err != nil {
		return fmt.Errorf("write joins header: %w", err)
	}

	for _, res := range results {
		for _, q := range res.Queries {
			for _, join := range q.Joins {
				for _, cond := range join.Conditions {
					row := joinRow(res.Repository, join, cond)
					if err := cw.Write(row); err != nil {
						return fmt.Errorf("write join row: %w", err)
					}
				}
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func joinRow(repo string, join *query.BinaryJoin, cond *query.Condition) []string {
	return []string{
		repo,
		schema.CleanName(cond.LeftTable.Name),
		schema.CleanName(cond.LeftColumn.Name),
		cond.Op.String(),
		schema.CleanName(cond.RightTable.Name),
		schema.CleanName(cond.RightColumn.Name),
		join.Type.String(),
	}
}

// WriteDiagnostics writes the conditions dropped during query binding,
// one row per diagnostic, for offline inspection of extraction misses.
func WriteDiagnostics(w io.Writer, results []*repoparse.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"repository", "kind", "name", "statement"}); err != nil {
		return fmt.Errorf("write diagnostics header: %w", err)
	}

	for _, res := range results {
		for _, d := range res.Diagnostics {
			row := []string{res.Repository, d.Kind.String(), d.Name, d.Statement}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write diagnostic row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
