package ddl

import (
	"errors"
	"fmt"
)

var (
	// ErrStatementTooLong marks a statement over the size ceiling.
	ErrStatementTooLong = errors.New("statement exceeds size limit")

	// ErrClauseMismatch marks a clause whose text did not match any
	// known shape.
	ErrClauseMismatch = errors.New("clause did not match expected shape")

	// ErrUnknownVariant marks a clause of a recognized family whose
	// variant is not handled.
	ErrUnknownVariant = errors.New("unhandled clause variant")

	// ErrUnrecognizedType marks a column definition with a type outside
	// the allow-list.
	ErrUnrecognizedType = errors.New("unrecognized column type")

	// ErrUnknownColumn marks a constraint referencing a column the table
	// does not define.
	ErrUnknownColumn = errors.New("constraint references unknown column")

	// ErrUnknownTable marks a statement referencing a table the model
	// does not hold.
	ErrUnknownTable = errors.New("reference to unknown table")
)

// ClauseError wraps a clause-level failure with the clause text that
// caused it, truncated for log hygiene.
type ClauseError struct {
	Clause string
	Err    error
}

func (e *ClauseError) Error() string {
	return fmt.Sprintf("clause %q: %v", truncate(e.Clause, 80), e.Err)
}

func (e *ClauseError) Unwrap() error {
	return e.Err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
