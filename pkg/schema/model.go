package schema

import "strings"

// CleanName strips quoting characters and surrounding whitespace from an
// identifier: 'name', "name", `name` and [name] all become name.
func CleanName(name string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case '\'', '"', '`', '[', ']':
			return -1
		}
		return r
	}, name))
}

// NormalizeCandidates returns the lookup candidates for a table name, most
// specific first. SQL scripts reference the same table under many spellings:
// quoted, schema-qualified (dbo.Users, public.users, mydb.users), as a temp
// table (#users) or variable (@users). Every candidate is lowercased.
func NormalizeCandidates(name string) []string {
	cleaned := strings.ToLower(CleanName(name))
	if cleaned == "" {
		return nil
	}

	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	add(cleaned)
	for _, prefix := range []string{"dbo.", "public.", "mydb."} {
		add(strings.TrimPrefix(cleaned, prefix))
	}
	add(strings.TrimPrefix(strings.TrimPrefix(cleaned, "#"), "#"))
	add(strings.TrimPrefix(cleaned, "@"))
	if i := strings.LastIndexByte(cleaned, '.'); i >= 0 && i+1 < len(cleaned) {
		add(cleaned[i+1:])
	}
	return out
}

// Model is the recovered schema of one repository: every table found in any
// of its SQL files, keyed by normalized name.
type Model struct {
	tables map[string]*Table
	names  []string // insertion order of table keys
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{tables: make(map[string]*Table)}
}

// Put registers a table under its normalized name. When a table with the
// same name already exists the existing table is returned unchanged: the
// first definition wins, as with columns.
func (m *Model) Put(t *Table) *Table {
	key := strings.ToLower(CleanName(t.Name))
	if existing, ok := m.tables[key]; ok {
		return existing
	}
	m.tables[key] = t
	m.names = append(m.names, key)
	return t
}

// Get looks up a table by exact normalized name.
func (m *Model) Get(name string) (*Table, bool) {
	t, ok := m.tables[strings.ToLower(CleanName(name))]
	return t, ok
}

// Resolve looks up a table trying every normalization candidate of the
// given name in order.
func (m *Model) Resolve(name string) (*Table, bool) {
	for _, candidate := range NormalizeCandidates(name) {
		if t, ok := m.tables[candidate]; ok {
			return t, true
		}
	}
	return nil, false
}

// Tables returns the tables in registration order.
func (m *Model) Tables() []*Table {
	out := make([]*Table, 0, len(m.names))
	for _, key := range m.names {
		out = append(out, m.tables[key])
	}
	return out
}

// Len returns the number of tables in the model.
func (m *Model) Len() int {
	return len(m.tables)
}

// ColumnLabel is the constraint summary attached to an exported column.
type ColumnLabel string

const (
	LabelNone    ColumnLabel = ""
	LabelNotNull ColumnLabel = "NOTNULL"
	LabelUnique  ColumnLabel = "UNIQUE"
)

// Record is one flat export row: a single column of a single table with
// its provenance and constraint label. Uniqueness outranks NOT NULL when
// both hold.
type Record struct {
	HashID string
	Table  string
	Column string
	Label  ColumnLabel
}

// Records flattens the model into one record per column, in table
// registration order and column definition order. Rows whose cleaned
// names still contain spaces or commas were damaged during extraction
// and are skipped.
func (m *Model) Records() []Record {
	var out []Record
	for _, t := range m.Tables() {
		tableName := CleanName(t.Name)
		if malformedName(tableName) {
			continue
		}
		unique := t.UniqueColumns()
		for _, c := range t.Columns() {
			colName := CleanName(c.Name)
			if malformedName(colName) {
				continue
			}
			label := LabelNone
			switch {
			case unique[c]:
				label = LabelUnique
			case c.NotNull():
				label = LabelNotNull
			}
			out = append(out, Record{
				HashID: t.HashID,
				Table:  tableName,
				Column: colName,
				Label:  label,
			})
		}
	}
	return out
}

func malformedName(name string) bool {
	return name == "" || strings.ContainsAny(name, " ,")
}
