// Package schema holds the recovered relational schema for one repository:
// tables with ordered columns, key constraints, foreign keys and indexes.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNilReference is returned when a foreign key is built without a
// resolved target table.
var ErrNilReference = errors.New("foreign key requires a resolved referenced table")

// KeyKind classifies a key constraint.
type KeyKind int

const (
	PrimaryKey KeyKind = iota
	CandidateKey
	UniqueKey
	UniqueIndex
	UniqueColumn
	IndexKey
)

// String returns the key kind name.
func (k KeyKind) String() string {
	switch k {
	case PrimaryKey:
		return "primary_key"
	case CandidateKey:
		return "candidate_key"
	case UniqueKey:
		return "unique_key"
	case UniqueIndex:
		return "unique_index"
	case UniqueColumn:
		return "unique_column"
	case IndexKey:
		return "index"
	}
	return fmt.Sprintf("key(%d)", int(k))
}

// IsUnique returns true when the key kind implies uniqueness of its columns.
func (k KeyKind) IsUnique() bool {
	switch k {
	case PrimaryKey, UniqueKey, UniqueIndex, UniqueColumn:
		return true
	}
	return false
}

// Column is a single table column.
type Column struct {
	Name    string
	Type    BaseType
	notNull bool
	unique  bool
}

// NewColumn creates a column with the given name and type category.
func NewColumn(name string, typ BaseType) *Column {
	return &Column{Name: name, Type: typ}
}

// SetNotNull marks the column as NOT NULL. The flag only ever moves from
// false to true, so repeated definitions cannot erase a constraint seen
// earlier.
func (c *Column) SetNotNull() {
	c.notNull = true
}

// NotNull reports whether the column carries a NOT NULL constraint.
func (c *Column) NotNull() bool {
	return c.notNull
}

// SetUnique marks the column as UNIQUE. Like NotNull, the flag is monotonic.
func (c *Column) SetUnique() {
	c.unique = true
}

// Unique reports whether the column carries a column-level UNIQUE constraint.
func (c *Column) Unique() bool {
	return c.unique
}

// Key is a key constraint over one or more columns of a table.
type Key struct {
	Kind    KeyKind
	Columns []*Column
}

// ForeignKey links columns of the owning table to columns of a referenced
// table. The referenced table is always a concrete *Table: unresolved
// references are held elsewhere until they can be completed.
type ForeignKey struct {
	Table      *Table
	Columns    []*Column
	RefTable   *Table
	RefColumns []*Column
}

// NewForeignKey builds a foreign key, rejecting a nil referenced table.
func NewForeignKey(owner *Table, cols []*Column, ref *Table, refCols []*Column) (*ForeignKey, error) {
	if ref == nil {
		return nil, ErrNilReference
	}
	return &ForeignKey{Table: owner, Columns: cols, RefTable: ref, RefColumns: refCols}, nil
}

// Index is a secondary index over columns of a table.
type Index struct {
	Kind    KeyKind // IndexKey or UniqueIndex
	Columns []*Column
}

// Table is a recovered table definition.
type Table struct {
	Name    string
	HashID  string // provenance of the file that defined the table
	Phantom bool   // synthesized from ALTER/INSERT rather than CREATE

	columns []*Column          // in definition order
	byName  map[string]*Column // normalized name -> column

	Keys        []*Key
	ForeignKeys []*ForeignKey
	Indexes     []*Index
}

// NewTable creates an empty table.
func NewTable(name, hashID string) *Table {
	return &Table{
		Name:   name,
		HashID: hashID,
		byName: make(map[string]*Column),
	}
}

// NewPhantomTable creates a table synthesized from a reference rather than
// a CREATE TABLE statement.
func NewPhantomTable(name, hashID string) *Table {
	t := NewTable(name, hashID)
	t.Phantom = true
	return t
}

// AddColumn inserts a column, preserving definition order. When a column
// with the same name already exists the first definition wins and the
// duplicate is a no-op.
func (t *Table) AddColumn(col *Column) *Column {
	key := strings.ToLower(col.Name)
	if existing, ok := t.byName[key]; ok {
		return existing
	}
	t.byName[key] = col
	t.columns = append(t.columns, col)
	return col
}

// Column looks up a column by name, case-insensitively.
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.byName[strings.ToLower(CleanName(name))]
	return c, ok
}

// Columns returns the columns in definition order.
func (t *Table) Columns() []*Column {
	return t.columns
}

// AddKey appends a key constraint.
func (t *Table) AddKey(k *Key) {
	t.Keys = append(t.Keys, k)
}

// AddForeignKey appends a foreign key.
func (t *Table) AddForeignKey(fk *ForeignKey) {
	t.ForeignKeys = append(t.ForeignKeys, fk)
}

// AddIndex appends an index.
func (t *Table) AddIndex(idx *Index) {
	t.Indexes = append(t.Indexes, idx)
}

// primaryKeyCount returns the number of primary key constraints on the table.
func (t *Table) primaryKeyCount() int {
	n := 0
	for _, k := range t.Keys {
		if k.Kind == PrimaryKey {
			n++
		}
	}
	return n
}

// UniqueColumns returns the set of columns that are provably unique:
// columns that are the sole member of a unique key, plus columns flagged
// UNIQUE at definition time. When the table carries more than one primary
// key constraint the definition is inconsistent, so single-column primary
// keys are not trusted for uniqueness.
func (t *Table) UniqueColumns() map[*Column]bool {
	unique := make(map[*Column]bool)
	trustPK := t.primaryKeyCount() <= 1

	for _, c := range t.columns {
		if c.Unique() {
			unique[c] = true
		}
	}
	for _, k := range t.Keys {
		if len(k.Columns) != 1 || !k.Kind.IsUnique() {
			continue
		}
		if k.Kind == PrimaryKey && !trustPK {
			continue
		}
		unique[k.Columns[0]] = true
	}
	for _, idx := range t.Indexes {
		if idx.Kind == UniqueIndex && len(idx.Columns) == 1 {
			unique[idx.Columns[0]] = true
		}
	}
	return unique
}
