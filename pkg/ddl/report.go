package ddl

// ClauseOutcome records what happened to one clause of one statement.
// Every clause ends up either parsed or skipped with a reason; a skipped
// clause never aborts the statement it belongs to.
type ClauseOutcome struct {
	Clause string
	Parsed bool
	Reason string
}

// Parsed returns a successful outcome for the clause.
func parsed(clause string) ClauseOutcome {
	return ClauseOutcome{Clause: clause, Parsed: true}
}

// skipped returns a failed outcome carrying the reason.
func skipped(clause string, err error) ClauseOutcome {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return ClauseOutcome{Clause: clause, Reason: reason}
}

// Report accumulates extraction counters. Stages merge their per-file
// reports upward, so the counters are owned by whoever runs the
// extraction instead of living in shared globals.
type Report struct {
	Statements        int
	LongStatements    int
	StatementTimeouts int

	ClausesParsed  int
	ClausesSkipped int

	TablesCreated int
	PhantomTables int
	ColumnsAdded  int

	DeferredFKs   int
	ResolvedFKs   int
	UnresolvedFKs int

	Queries          int
	FailedConditions int
	FilesFailed      int
}

// Observe folds a clause outcome into the counters.
func (r *Report) Observe(o ClauseOutcome) {
	if o.Parsed {
		r.ClausesParsed++
	} else {
		r.ClausesSkipped++
	}
}

// Merge adds the counters of another report into this one.
func (r *Report) Merge(other Report) {
	r.Statements += other.Statements
	r.LongStatements += other.LongStatements
	r.StatementTimeouts += other.StatementTimeouts
	r.ClausesParsed += other.ClausesParsed
	r.ClausesSkipped += other.ClausesSkipped
	r.TablesCreated += other.TablesCreated
	r.PhantomTables += other.PhantomTables
	r.ColumnsAdded += other.ColumnsAdded
	r.DeferredFKs += other.DeferredFKs
	r.ResolvedFKs += other.ResolvedFKs
	r.UnresolvedFKs += other.UnresolvedFKs
	r.Queries += other.Queries
	r.FailedConditions += other.FailedConditions
	r.FilesFailed += other.FilesFailed
}
