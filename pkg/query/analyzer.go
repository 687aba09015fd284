package query

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/schemalift-labs/schemalift/pkg/schema"
	"github.com/schemalift-labs/schemalift/pkg/sqltok"
)

var (
	selectWordRe = regexp.MustCompile(`(?i)\bselect\b`)
	fromWordRe   = regexp.MustCompile(`(?i)\bfrom\b`)
	joinWordRe   = regexp.MustCompile(`(?i)\bjoin\b`)
	whereWordRe  = regexp.MustCompile(`(?i)\bwhere\b`)
)

// IsCandidate reports whether a statement is worth analyzing for joins:
// it must read from somewhere, and either join explicitly or filter a
// multi-table FROM with a WHERE clause.
func IsCandidate(stmt string) bool {
	if !selectWordRe.MatchString(stmt) || !fromWordRe.MatchString(stmt) {
		return false
	}
	if joinWordRe.MatchString(stmt) {
		return true
	}
	if !whereWordRe.MatchString(stmt) {
		return false
	}
	return multiTableFrom(stmt)
}

// multiTableFrom reports whether the top-level FROM clause lists more
// than one table. Subqueries are masked out first so their commas and
// keywords cannot confuse the check.
func multiTableFrom(stmt string) bool {
	masked := maskParens(stmt)
	from := fromWordRe.FindStringIndex(masked)
	if from == nil {
		return false
	}
	rest := masked[from[1]:]
	if where := whereWordRe.FindStringIndex(rest); where != nil {
		rest = rest[:where[0]]
	}
	return strings.Contains(rest, ",")
}

// maskParens blanks out every parenthesized region of s.
func maskParens(s string) string {
	out := []byte(s)
	depth := 0
	for i := 0; i < len(out); i++ {
		switch out[i] {
		case '(':
			depth++
			out[i] = ' '
		case ')':
			if depth > 0 {
				depth--
			}
			out[i] = ' '
		default:
			if depth > 0 {
				out[i] = ' '
			}
		}
	}
	return string(out)
}

// Analyzer extracts join relationships from SELECT statements, binding
// every condition against the repository's recovered schema.
type Analyzer struct {
	model  *schema.Model
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer over the given model.
func NewAnalyzer(model *schema.Model, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{model: model, logger: logger}
}

// Analyze builds the scope tree of one statement, resolves every raw
// condition to concrete tables and columns, and groups the survivors by
// unordered table pair. A statement where nothing survives returns a nil
// Query. Diagnostics record each dropped condition.
func (a *Analyzer) Analyze(ctx context.Context, stmt string) (*Query, []Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	tree := sqltok.Parse(stmt)
	b := &scopeBuilder{tree: tree}
	b.build(tree.Root, -1)

	var diags []Diagnostic
	type pairKey struct{ a, b *schema.Table }
	joinsByPair := make(map[pairKey]*BinaryJoin)
	var joins []*BinaryJoin

	for _, rc := range b.conds {
		if err := ctx.Err(); err != nil {
			return nil, diags, err
		}

		cond, diag := a.bindCondition(b, rc)
		if diag != nil {
			diag.Statement = stmt
			diags = append(diags, *diag)
			continue
		}
		if cond == nil {
			// Both sides landed on the same table: a filter, not a join.
			continue
		}

		key := pairKey{cond.LeftTable, cond.RightTable}
		flippedKey := pairKey{cond.RightTable, cond.LeftTable}
		if existing, ok := joinsByPair[key]; ok {
			existing.Conditions = append(existing.Conditions, cond)
			continue
		}
		if existing, ok := joinsByPair[flippedKey]; ok {
			existing.Conditions = append(existing.Conditions, cond.Flip())
			continue
		}
		bj := &BinaryJoin{
			TableA:     cond.LeftTable,
			TableB:     cond.RightTable,
			Conditions: []*Condition{cond},
			Type:       b.nodes[rc.node].joinType(),
		}
		joinsByPair[key] = bj
		joins = append(joins, bj)
	}

	if len(joins) == 0 {
		return nil, diags, nil
	}
	return &Query{Statement: stmt, Joins: joins}, diags, nil
}

// bindCondition resolves both sides of a raw condition through the scope
// tree and then through the schema model. A nil condition with nil
// diagnostic means the condition was a same-table filter.
func (a *Analyzer) bindCondition(b *scopeBuilder, rc rawCond) (*Condition, *Diagnostic) {
	scope := b.nodes[rc.node]
	if !scope.limitCols[lastSegmentLower(rc.left)] || !scope.limitCols[lastSegmentLower(rc.right)] {
		return nil, &Diagnostic{Kind: FailedColumn, Name: rc.left + "/" + rc.right}
	}

	leftTable, leftCol, ok := a.resolveRef(b, rc.node, rc.left)
	if !ok {
		return nil, &Diagnostic{Kind: FailedTable, Name: rc.left}
	}
	rightTable, rightCol, ok := a.resolveRef(b, rc.node, rc.right)
	if !ok {
		return nil, &Diagnostic{Kind: FailedTable, Name: rc.right}
	}

	lt, ok := a.model.Resolve(leftTable)
	if !ok {
		return nil, &Diagnostic{Kind: FailedTable, Name: leftTable}
	}
	rt, ok := a.model.Resolve(rightTable)
	if !ok {
		return nil, &Diagnostic{Kind: FailedTable, Name: rightTable}
	}
	if lt == rt {
		return nil, nil
	}

	lc, ok := lt.Column(leftCol)
	if !ok {
		return nil, &Diagnostic{Kind: FailedColumn, Name: leftTable + "." + leftCol}
	}
	rcol, ok := rt.Column(rightCol)
	if !ok {
		return nil, &Diagnostic{Kind: FailedColumn, Name: rightTable + "." + rightCol}
	}

	return &Condition{
		LeftTable:   lt,
		LeftColumn:  lc,
		Op:          rc.op,
		RightTable:  rt,
		RightColumn: rcol,
	}, nil
}

// resolveRef maps a dotted reference to (table name, column name) through
// the scope chain. Qualified references follow alias maps and subquery
// projections outward through parent scopes; unqualified references use
// single-table inference first, then search every table in scope for one
// that defines the column.
func (a *Analyzer) resolveRef(b *scopeBuilder, nodeIdx int, ref string) (string, string, bool) {
	qual, col := splitRef(ref)

	if qual != "" {
		for walk := nodeIdx; walk != -1; walk = b.nodes[walk].parent {
			scope := b.nodes[walk]
			for _, candidate := range schema.NormalizeCandidates(qual) {
				if t, ok := scope.aliases[candidate]; ok {
					return t, col, true
				}
				if sub, ok := scope.subqueries[candidate]; ok {
					return a.resolveInSubquery(b, sub, col)
				}
			}
		}
		return "", "", false
	}

	for walk := nodeIdx; walk != -1; walk = b.nodes[walk].parent {
		scope := b.nodes[walk]
		if len(scope.tables) == 1 {
			return scope.tables[0], col, true
		}
		for _, t := range scope.tables {
			if tab, ok := a.model.Resolve(t); ok {
				if _, ok := tab.Column(col); ok {
					return t, col, true
				}
			}
		}
	}
	return "", "", false
}

// resolveInSubquery follows a column through a derived table's projection
// list into the subquery's own scope.
func (a *Analyzer) resolveInSubquery(b *scopeBuilder, subIdx int, col string) (string, string, bool) {
	scope := b.nodes[subIdx]
	source, ok := scope.projections[strings.ToLower(col)]
	if !ok || source == "" {
		// Unknown output or a computed expression: nothing to bind.
		return "", "", false
	}
	return a.resolveRef(b, subIdx, source)
}

// splitRef splits a dotted reference into qualifier and column. Multi-part
// qualifiers like db.schema.table keep everything before the last dot.
func splitRef(ref string) (qual, col string) {
	if k := strings.LastIndexByte(ref, '.'); k >= 0 {
		return ref[:k], ref[k+1:]
	}
	return "", ref
}
