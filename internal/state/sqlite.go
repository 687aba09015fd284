package state

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/schemalift-labs/schemalift/pkg/repoparse"
	"github.com/schemalift-labs/schemalift/pkg/schema"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore persists runs and their results in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	} else {
		dsn = ":memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema initializes the database schema.
func (s *SQLiteStore) InitSchema() error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// CreateRun records the start of an extraction run.
func (s *SQLiteStore) CreateRun() (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:        generateID(),
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished with the given status.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	result, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		status, now, errorPtr, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := s.db.QueryRow(
		`SELECT id, status, started_at, completed_at, error FROM runs WHERE id = ?`,
		id,
	).Scan(&run.ID, &run.Status, &run.StartedAt, &completedAt, &errMsg)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return run, nil
}

// SaveResult stores one repository's extraction output under a run. The
// whole repository is written in a single transaction.
func (s *SQLiteStore) SaveResult(runID string, res *repoparse.Result) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	repoID := generateID()
	_, err = tx.Exec(
		`INSERT INTO repositories (id, run_id, name, tables, queries) VALUES (?, ?, ?, ?, ?)`,
		repoID, runID, res.Repository, res.Model.Len(), len(res.Queries),
	)
	if err != nil {
		return fmt.Errorf("failed to insert repository: %w", err)
	}

	for _, rec := range res.Model.Records() {
		_, err = tx.Exec(
			`INSERT INTO columns (repository_id, hashid, table_name, column_name, label) VALUES (?, ?, ?, ?, ?)`,
			repoID, rec.HashID, rec.Table, rec.Column, string(rec.Label),
		)
		if err != nil {
			return fmt.Errorf("failed to insert column: %w", err)
		}
	}

	for _, q := range res.Queries {
		for _, join := range q.Joins {
			for _, cond := range join.Conditions {
				_, err = tx.Exec(
					`INSERT INTO joins (repository_id, table_a, column_a, op, table_b, column_b, join_type)
					 VALUES (?, ?, ?, ?, ?, ?, ?)`,
					repoID,
					schema.CleanName(cond.LeftTable.Name), schema.CleanName(cond.LeftColumn.Name),
					cond.Op.String(),
					schema.CleanName(cond.RightTable.Name), schema.CleanName(cond.RightColumn.Name),
					join.Type.String(),
				)
				if err != nil {
					return fmt.Errorf("failed to insert join: %w", err)
				}
			}
		}
	}

	for _, d := range res.Diagnostics {
		_, err = tx.Exec(
			`INSERT INTO diagnostics (repository_id, kind, name, statement) VALUES (?, ?, ?, ?)`,
			repoID, d.Kind.String(), d.Name, d.Statement,
		)
		if err != nil {
			return fmt.Errorf("failed to insert diagnostic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListRepositories retrieves the stored repository summaries for a run.
func (s *SQLiteStore) ListRepositories(runID string) ([]*RepositorySummary, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, name, tables, queries FROM repositories WHERE run_id = ? ORDER BY name`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	defer rows.Close()

	var out []*RepositorySummary
	for rows.Next() {
		r := &RepositorySummary{}
		if err := rows.Scan(&r.ID, &r.RunID, &r.Name, &r.Tables, &r.Queries); err != nil {
			return nil, fmt.Errorf("failed to scan repository: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
