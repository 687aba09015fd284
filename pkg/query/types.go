// Package query analyzes SELECT statements against a recovered schema and
// extracts join relationships between concrete tables. Conditions that
// cannot be bound to known tables and columns are dropped and reported;
// precision is preferred over recall throughout.
package query

import (
	"fmt"

	"github.com/schemalift-labs/schemalift/pkg/schema"
)

// Operator is a comparison operator retained in join conditions.
// Inequality operators != and <> are discarded during extraction: they
// never express a join.
type Operator int

const (
	OpEq Operator = iota
	OpLt
	OpGt
	OpLtEq
	OpGtEq
)

// String returns the SQL spelling of the operator.
func (o Operator) String() string {
	switch o {
	case OpEq:
		return "="
	case OpLt:
		return "<"
	case OpGt:
		return ">"
	case OpLtEq:
		return "<="
	case OpGtEq:
		return ">="
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// JoinType is the join flavor of the scope a condition was found in.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
	JoinFull
	JoinCross
)

// String returns the join type name.
func (j JoinType) String() string {
	switch j {
	case JoinInner:
		return "inner"
	case JoinLeft:
		return "left"
	case JoinRight:
		return "right"
	case JoinFull:
		return "full"
	case JoinCross:
		return "cross"
	}
	return fmt.Sprintf("join(%d)", int(j))
}

// Condition is one bound comparison between columns of two tables.
type Condition struct {
	LeftTable   *schema.Table
	LeftColumn  *schema.Column
	Op          Operator
	RightTable  *schema.Table
	RightColumn *schema.Column
}

// Flip returns the condition with sides exchanged and the operator
// mirrored.
func (c *Condition) Flip() *Condition {
	op := c.Op
	switch op {
	case OpLt:
		op = OpGt
	case OpGt:
		op = OpLt
	case OpLtEq:
		op = OpGtEq
	case OpGtEq:
		op = OpLtEq
	}
	return &Condition{
		LeftTable:   c.RightTable,
		LeftColumn:  c.RightColumn,
		Op:          op,
		RightTable:  c.LeftTable,
		RightColumn: c.LeftColumn,
	}
}

// BinaryJoin groups every condition between one unordered pair of tables.
// All conditions are stored with their left side on TableA; a condition
// discovered with the pair reversed is flipped before being appended.
type BinaryJoin struct {
	TableA     *schema.Table
	TableB     *schema.Table
	Conditions []*Condition
	Type       JoinType
}

// Query is the analysis result for one statement. A statement in which no
// condition survived binding produces no Query at all.
type Query struct {
	Statement string
	Joins     []*BinaryJoin
}

// DiagnosticKind says which binding step failed for a dropped condition.
type DiagnosticKind int

const (
	FailedTable DiagnosticKind = iota
	FailedColumn
)

// String returns the diagnostic kind name.
func (k DiagnosticKind) String() string {
	if k == FailedTable {
		return "failed_table"
	}
	return "failed_column"
}

// Diagnostic records a condition dropped during schema binding, with the
// statement it came from for later inspection.
type Diagnostic struct {
	Kind      DiagnosticKind
	Name      string
	Statement string
}
