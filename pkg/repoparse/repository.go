// Package repoparse runs schema extraction over whole repositories: every
// SQL file of one repository feeds a single shared model, processed in
// fixed stages with a global barrier between them.
package repoparse

import "fmt"

// SQLFile is one SQL script of a repository, already decoded to UTF-8.
type SQLFile struct {
	Path    string
	HashID  string // provenance identifier carried into every table
	Content string
}

// Repository is the unit of work and of parallelism: files of the same
// repository describe one logical database and are never processed
// concurrently with each other.
type Repository struct {
	Name  string
	URL   string
	Files []SQLFile
}

// Stage is one phase of the cross-file resolution pipeline. All files
// finish a stage before any file enters the next, so an ALTER in one file
// can rely on a CREATE in another regardless of file order.
type Stage int

const (
	StageCreate Stage = iota
	StageAlter
	StageInsert
	StageFkFixup
	StageQuery
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageCreate:
		return "create"
	case StageAlter:
		return "alter"
	case StageInsert:
		return "insert"
	case StageFkFixup:
		return "fk_fixup"
	case StageQuery:
		return "query"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Stages lists the pipeline stages in execution order.
func Stages() []Stage {
	return []Stage{StageCreate, StageAlter, StageInsert, StageFkFixup, StageQuery}
}
