package ddl

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/schemalift-labs/schemalift/pkg/schema"
	"github.com/schemalift-labs/schemalift/pkg/sqltok"
	"github.com/schemalift-labs/schemalift/pkg/token"
)

// StatementKind classifies a statement for stage routing.
type StatementKind int

const (
	KindOther StatementKind = iota
	KindCreateTable
	KindCreateAsSelect
	KindAlterTable
	KindCreateIndex
	KindInsert
)

// Classify determines which extraction path handles a statement.
func Classify(stmt string) StatementKind {
	switch {
	case createAsSelectRe.MatchString(stmt):
		return KindCreateAsSelect
	case createTableRe.MatchString(stmt):
		return KindCreateTable
	case createIndexRe.MatchString(stmt):
		return KindCreateIndex
	case alterTableRe.MatchString(stmt):
		return KindAlterTable
	case insertRe.MatchString(stmt):
		return KindInsert
	}
	return KindOther
}

// DeferredFK is a foreign key whose referenced table was not in the model
// when the owning statement was extracted. It is retried exactly once,
// after every file of the repository has contributed its tables.
type DeferredFK struct {
	Owner      *schema.Table
	Columns    []string
	RefTable   string
	RefColumns []string
}

// Extractor mutates a schema model from classified DDL statements.
// One extractor serves one repository; it is not safe for concurrent use.
type Extractor struct {
	model    *schema.Model
	logger   *slog.Logger
	deferred []DeferredFK
}

// NewExtractor creates an extractor over the given model.
func NewExtractor(model *schema.Model, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{model: model, logger: logger}
}

// Deferred returns the foreign keys still waiting for their referenced
// tables.
func (e *Extractor) Deferred() []DeferredFK {
	return e.deferred
}

// ExtractCreateTable processes a CREATE TABLE statement, adding the table
// with its columns, keys, foreign keys and indexes to the model. Returns
// one outcome per clause of the statement body.
func (e *Extractor) ExtractCreateTable(ctx context.Context, stmt, hashID string) ([]ClauseOutcome, error) {
	m := createTableRe.FindStringSubmatch(stmt)
	if m == nil {
		return nil, fmt.Errorf("create table: %w", ErrClauseMismatch)
	}
	name := schema.CleanName(m[1])
	if name == "" {
		return nil, fmt.Errorf("create table: empty name: %w", ErrClauseMismatch)
	}

	table := e.model.Put(schema.NewTable(name, hashID))

	body, ok := outerGroup(cleanStatement(stmt))
	if !ok {
		// CREATE TABLE without a column list defines nothing further.
		return nil, nil
	}

	var outcomes []ClauseOutcome
	for _, clause := range splitClauses(body) {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, e.extractTableClause(table, clause))
	}
	return outcomes, nil
}

// extractTableClause handles one comma-separated clause of a CREATE TABLE
// body. Classification order matters: constraint words are checked before
// the clause is treated as a column definition.
func (e *Extractor) extractTableClause(table *schema.Table, clause string) ClauseOutcome {
	lower := strings.ToLower(clause)

	switch {
	case strings.HasPrefix(lower, "constraint"):
		m := namedConstraintRe.FindStringSubmatch(clause)
		if m == nil {
			return skipped(clause, fmt.Errorf("constraint: %w", ErrClauseMismatch))
		}
		return e.extractConstraintBody(table, m[1], clause)

	case primaryKeyClauseRe.MatchString(clause):
		return e.applyKeyClause(table, clause, primaryKeyClauseRe, schema.PrimaryKey)

	case foreignKeyClauseRe.MatchString(clause):
		return e.applyForeignKeyClause(table, clause)

	case uniqueKeyClauseRe.MatchString(clause):
		return e.applyKeyClause(table, clause, uniqueKeyClauseRe, schema.UniqueKey)

	case strings.HasPrefix(lower, "key"):
		return e.applyKeyClause(table, clause, keyClauseRe, schema.CandidateKey)

	case strings.HasPrefix(lower, "index"):
		return e.applyKeyClause(table, clause, indexClauseRe, schema.IndexKey)

	case checkClauseRe.MatchString(clause):
		// CHECK constraints carry no structural information.
		return parsed(clause)

	case dataCompression.MatchString(clause):
		return parsed(clause)

	default:
		return e.extractColumnDef(table, clause)
	}
}

// extractConstraintBody routes the body of a named CONSTRAINT clause.
func (e *Extractor) extractConstraintBody(table *schema.Table, body, original string) ClauseOutcome {
	switch {
	case primaryKeyClauseRe.MatchString(body):
		return e.applyKeyClause(table, body, primaryKeyClauseRe, schema.PrimaryKey)
	case foreignKeyClauseRe.MatchString(body):
		return e.applyForeignKeyClause(table, body)
	case uniqueKeyClauseRe.MatchString(body):
		return e.applyKeyClause(table, body, uniqueKeyClauseRe, schema.UniqueKey)
	case checkClauseRe.MatchString(body):
		return parsed(original)
	}
	return skipped(original, fmt.Errorf("constraint body: %w", ErrUnknownVariant))
}

// applyKeyClause parses a key column list and attaches a key of the given
// kind. Every named column must already exist on the table.
func (e *Extractor) applyKeyClause(table *schema.Table, clause string, re *regexp.Regexp, kind schema.KeyKind) ClauseOutcome {
	m := re.FindStringSubmatch(clause)
	if m == nil {
		return skipped(clause, fmt.Errorf("%s: %w", kind, ErrClauseMismatch))
	}
	cols, err := e.lookupColumns(table, m[1])
	if err != nil {
		return skipped(clause, err)
	}
	if kind == schema.IndexKey {
		table.AddIndex(&schema.Index{Kind: schema.IndexKey, Columns: cols})
	} else {
		table.AddKey(&schema.Key{Kind: kind, Columns: cols})
		if kind == schema.PrimaryKey {
			for _, c := range cols {
				c.SetNotNull()
			}
		}
	}
	return parsed(clause)
}

// applyForeignKeyClause parses a FOREIGN KEY ... REFERENCES clause. When
// the referenced table is not yet in the model the link is deferred.
func (e *Extractor) applyForeignKeyClause(table *schema.Table, clause string) ClauseOutcome {
	m := foreignKeyClauseRe.FindStringSubmatch(clause)
	if m == nil {
		return skipped(clause, fmt.Errorf("foreign key: %w", ErrClauseMismatch))
	}
	ownCols, err := e.lookupColumns(table, m[1])
	if err != nil {
		return skipped(clause, err)
	}
	ownNames := make([]string, len(ownCols))
	for i, c := range ownCols {
		ownNames[i] = c.Name
	}
	return e.linkForeignKey(table, ownNames, m[2], splitColumnNames(m[3]), clause)
}

// linkForeignKey attaches a foreign key when the referenced table is
// resolvable, otherwise records it for the fixup stage.
func (e *Extractor) linkForeignKey(table *schema.Table, ownNames []string, refName string, refNames []string, clause string) ClauseOutcome {
	ref, ok := e.model.Resolve(refName)
	if !ok {
		e.deferred = append(e.deferred, DeferredFK{
			Owner:      table,
			Columns:    ownNames,
			RefTable:   refName,
			RefColumns: refNames,
		})
		return parsed(clause)
	}

	fk, err := e.buildForeignKey(table, ownNames, ref, refNames)
	if err != nil {
		return skipped(clause, err)
	}
	table.AddForeignKey(fk)
	return parsed(clause)
}

// buildForeignKey resolves column names on both sides and constructs the
// link. When the referencing side names no referenced columns, columns of
// the same names are assumed on the referenced table.
func (e *Extractor) buildForeignKey(table *schema.Table, ownNames []string, ref *schema.Table, refNames []string) (*schema.ForeignKey, error) {
	ownCols := make([]*schema.Column, 0, len(ownNames))
	for _, n := range ownNames {
		c, ok := table.Column(n)
		if !ok {
			return nil, fmt.Errorf("column %q: %w", n, ErrUnknownColumn)
		}
		ownCols = append(ownCols, c)
	}

	if len(refNames) == 0 {
		refNames = ownNames
	}
	refCols := make([]*schema.Column, 0, len(refNames))
	for _, n := range refNames {
		c, ok := ref.Column(n)
		if !ok {
			return nil, fmt.Errorf("referenced column %q on %s: %w", n, ref.Name, ErrUnknownColumn)
		}
		refCols = append(refCols, c)
	}

	return schema.NewForeignKey(table, ownCols, ref, refCols)
}

// ResolveDeferred retries every deferred foreign key exactly once against
// the now-complete model. Entries that still fail stay unresolved; there
// is no second retry.
func (e *Extractor) ResolveDeferred() (resolved, unresolved int) {
	pending := e.deferred
	e.deferred = nil

	for _, d := range pending {
		ref, ok := e.model.Resolve(d.RefTable)
		if !ok {
			unresolved++
			continue
		}
		fk, err := e.buildForeignKey(d.Owner, d.Columns, ref, d.RefColumns)
		if err != nil {
			e.logger.Debug("deferred foreign key failed",
				"table", d.Owner.Name, "ref", d.RefTable, "error", err)
			unresolved++
			continue
		}
		d.Owner.AddForeignKey(fk)
		resolved++
	}
	return resolved, unresolved
}

// extractColumnDef parses an ordinary column definition clause.
func (e *Extractor) extractColumnDef(table *schema.Table, clause string) ClauseOutcome {
	m := columnDefRe.FindStringSubmatch(clause)
	if m == nil {
		return skipped(clause, fmt.Errorf("column def: %w", ErrClauseMismatch))
	}
	name := schema.CleanName(m[1])
	typ, ok := schema.InferType(m[2])
	if !ok {
		return skipped(clause, fmt.Errorf("type %q: %w", m[2], ErrUnrecognizedType))
	}

	col := table.AddColumn(schema.NewColumn(name, typ))
	rest := m[3]

	if notNullRe.MatchString(rest) {
		col.SetNotNull()
	}
	if uniqueFlagRe.MatchString(rest) {
		col.SetUnique()
	}
	if primaryFlagRe.MatchString(rest) {
		table.AddKey(&schema.Key{Kind: schema.PrimaryKey, Columns: []*schema.Column{col}})
		col.SetNotNull()
	}
	if rm := referencesRe.FindStringSubmatch(rest); rm != nil {
		return e.linkForeignKey(table, []string{name}, rm[1], splitColumnNames(rm[2]), clause)
	}
	return parsed(clause)
}

// ExtractAlterTable processes an ALTER TABLE statement. An unknown target
// table is created as a phantom so later clauses have somewhere to land.
func (e *Extractor) ExtractAlterTable(ctx context.Context, stmt, hashID string) ([]ClauseOutcome, error) {
	m := alterTableRe.FindStringSubmatch(cleanStatement(stmt))
	if m == nil {
		return nil, fmt.Errorf("alter table: %w", ErrClauseMismatch)
	}

	table, ok := e.model.Resolve(m[1])
	if !ok {
		table = e.model.Put(schema.NewPhantomTable(schema.CleanName(m[1]), hashID))
	}

	var outcomes []ClauseOutcome
	for _, clause := range splitClauses(m[2]) {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, e.extractAlterClause(table, clause))
	}
	return outcomes, nil
}

// extractAlterClause handles one clause of an ALTER TABLE statement.
func (e *Extractor) extractAlterClause(table *schema.Table, clause string) ClauseOutcome {
	if m := addConstraintRe.FindStringSubmatch(clause); m != nil {
		return e.extractConstraintBody(table, m[1], clause)
	}
	if m := alterEmbeddedIndexRe.FindStringSubmatch(clause); m != nil {
		kind := schema.IndexKey
		if strings.TrimSpace(m[1]) != "" {
			kind = schema.UniqueIndex
		}
		return e.applyIndexColumns(table, clause, kind, m[2])
	}
	if m := addClauseRe.FindStringSubmatch(clause); m != nil {
		body := strings.TrimSpace(m[1])
		switch {
		case primaryKeyClauseRe.MatchString(body):
			return e.applyKeyClause(table, body, primaryKeyClauseRe, schema.PrimaryKey)
		case foreignKeyClauseRe.MatchString(body):
			return e.applyForeignKeyClause(table, body)
		case uniqueKeyClauseRe.MatchString(body):
			return e.applyKeyClause(table, body, uniqueKeyClauseRe, schema.UniqueKey)
		case keyClauseRe.MatchString(body):
			return e.applyKeyClause(table, body, keyClauseRe, schema.CandidateKey)
		default:
			if len(body) > 7 && strings.EqualFold(body[:7], "column ") {
				body = strings.TrimSpace(body[7:])
			}
			return e.extractColumnDef(table, body)
		}
	}
	// DROP, MODIFY, RENAME and friends do not add schema information.
	return skipped(clause, fmt.Errorf("alter: %w", ErrUnknownVariant))
}

// ExtractCreateIndex processes a standalone CREATE [UNIQUE] INDEX
// statement. An index on a table the model does not hold is skipped.
func (e *Extractor) ExtractCreateIndex(ctx context.Context, stmt string) ([]ClauseOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := createIndexRe.FindStringSubmatch(cleanStatement(stmt))
	if m == nil {
		return []ClauseOutcome{skipped(stmt, fmt.Errorf("create index: %w", ErrClauseMismatch))}, nil
	}

	table, ok := e.model.Resolve(m[2])
	if !ok {
		return []ClauseOutcome{skipped(stmt, fmt.Errorf("table %q: %w", m[2], ErrUnknownTable))}, nil
	}

	kind := schema.IndexKey
	if strings.TrimSpace(m[1]) != "" {
		kind = schema.UniqueIndex
	}
	return []ClauseOutcome{e.applyIndexColumns(table, stmt, kind, m[3])}, nil
}

// applyIndexColumns attaches an index (and for unique indexes also a key)
// over the named columns.
func (e *Extractor) applyIndexColumns(table *schema.Table, clause string, kind schema.KeyKind, colList string) ClauseOutcome {
	cols, err := e.lookupColumns(table, colList)
	if err != nil {
		return skipped(clause, err)
	}
	table.AddIndex(&schema.Index{Kind: kind, Columns: cols})
	if kind == schema.UniqueIndex {
		table.AddKey(&schema.Key{Kind: schema.UniqueIndex, Columns: cols})
	}
	return parsed(clause)
}

// ExtractInsert processes an INSERT statement. The statement is the
// weakest evidence of schema: an unknown table becomes a phantom, and
// listed columns missing from the table are added untyped.
func (e *Extractor) ExtractInsert(ctx context.Context, stmt, hashID string) ([]ClauseOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := insertRe.FindStringSubmatch(stmt)
	if m == nil {
		return []ClauseOutcome{skipped(stmt, fmt.Errorf("insert: %w", ErrClauseMismatch))}, nil
	}

	table, ok := e.model.Resolve(m[1])
	if !ok {
		table = e.model.Put(schema.NewPhantomTable(schema.CleanName(m[1]), hashID))
	}

	for _, name := range splitColumnNames(m[2]) {
		if _, exists := table.Column(name); !exists {
			table.AddColumn(schema.NewColumn(name, schema.TypeUnknown))
		}
	}
	return []ClauseOutcome{parsed(firstLine(stmt))}, nil
}

// ExtractCreateAsSelect processes CREATE TABLE ... AS SELECT and
// CREATE VIEW ... AS SELECT, recovering output columns from the
// projection list.
func (e *Extractor) ExtractCreateAsSelect(ctx context.Context, stmt, hashID string) ([]ClauseOutcome, error) {
	m := createAsSelectRe.FindStringSubmatch(stmt)
	if m == nil {
		return nil, fmt.Errorf("create as select: %w", ErrClauseMismatch)
	}
	name := schema.CleanName(m[1])
	table := e.model.Put(schema.NewTable(name, hashID))
	selectText := m[2]

	projection, fromTable := splitProjection(selectText)

	var outcomes []ClauseOutcome
	for _, item := range projection {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, e.extractProjectionItem(table, item, fromTable))
	}
	return outcomes, nil
}

// extractProjectionItem adds one projected expression as an output column.
func (e *Extractor) extractProjectionItem(table *schema.Table, item, fromTable string) ClauseOutcome {
	item = strings.TrimSpace(item)
	if item == "" {
		return skipped(item, ErrClauseMismatch)
	}

	// Star projections copy the referenced table's columns wholesale.
	if item == "*" || strings.HasSuffix(item, ".*") {
		src := fromTable
		if item != "*" {
			src = strings.TrimSuffix(item, ".*")
		}
		ref, ok := e.model.Resolve(src)
		if !ok {
			return skipped(item, fmt.Errorf("star source %q: %w", src, ErrUnknownTable))
		}
		for _, c := range ref.Columns() {
			table.AddColumn(schema.NewColumn(c.Name, c.Type))
		}
		return parsed(item)
	}

	name := projectionName(item)
	if name == "" {
		return skipped(item, fmt.Errorf("projection: %w", ErrClauseMismatch))
	}
	table.AddColumn(schema.NewColumn(name, schema.TypeUnknown))
	return parsed(item)
}

// splitProjection splits the projection list of a SELECT and returns the
// first table named in its FROM clause.
func splitProjection(selectText string) (items []string, fromTable string) {
	mask := maskGroups(selectText)

	sel := selectWordRe.FindStringIndex(mask.masked)
	if sel == nil {
		return nil, ""
	}
	start := sel[1]

	end := len(mask.masked)
	afterStart := end
	if loc := fromWordRe.FindStringIndex(mask.masked[start:]); loc != nil {
		end = start + loc[0]
		afterStart = start + loc[1]
	}

	for _, piece := range strings.Split(mask.masked[start:end], ",") {
		restored := strings.TrimSpace(mask.restore(piece))
		if restored != "" {
			items = append(items, restored)
		}
	}

	if afterStart < len(mask.masked) {
		after := strings.TrimSpace(mask.masked[afterStart:])
		fields := strings.FieldsFunc(after, func(r rune) bool {
			return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == ',' || r == ';'
		})
		if len(fields) > 0 {
			fromTable = fields[0]
		}
	}
	return items, fromTable
}

// projectionName derives the output column name of a projected expression:
// an AS alias when present, otherwise the last identifier in the item.
func projectionName(item string) string {
	toks := sqltok.Tokenize(item)
	for i := len(toks) - 1; i >= 0; i-- {
		if toks[i].Type == token.AS && i+1 < len(toks) {
			return schema.CleanName(toks[i+1].Literal)
		}
	}
	// Trailing bare identifier is an implicit alias; otherwise fall back
	// to the last identifier anywhere in the expression.
	for i := len(toks) - 1; i >= 0; i-- {
		if toks[i].Type == token.IDENT {
			return schema.CleanName(toks[i].Literal)
		}
	}
	return ""
}

// lookupColumns resolves a comma-separated column list against the table.
func (e *Extractor) lookupColumns(table *schema.Table, colList string) ([]*schema.Column, error) {
	names := splitColumnNames(colList)
	if len(names) == 0 {
		return nil, fmt.Errorf("empty column list: %w", ErrClauseMismatch)
	}
	cols := make([]*schema.Column, 0, len(names))
	for _, n := range names {
		c, ok := table.Column(n)
		if !ok {
			return nil, fmt.Errorf("column %q: %w", n, ErrUnknownColumn)
		}
		cols = append(cols, c)
	}
	return cols, nil
}

// splitColumnNames splits a raw column list, dropping order keywords and
// quoting.
func splitColumnNames(colList string) []string {
	if strings.TrimSpace(colList) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(colList, ",") {
		name := schema.CleanName(stripOrderKeywords(part))
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// outerGroup returns the content of the first top-level parenthesized
// group of the statement.
func outerGroup(stmt string) (string, bool) {
	mask := maskGroups(stmt)
	if len(mask.groups) == 0 {
		return "", false
	}
	g := mask.groups[0]
	g = strings.TrimPrefix(g, "(")
	g = strings.TrimSuffix(g, ")")
	return g, true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
