package ddl

import (
	"strings"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	text := `
-- schema
CREATE TABLE a (id int);
CREATE TABLE b (id int);

INSERT INTO a VALUES (1);
`
	stmts, dropped := SplitStatements(text)
	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
	if len(stmts) != 3 {
		t.Fatalf("statements = %d, want 3: %v", len(stmts), stmts)
	}
	if !strings.HasPrefix(stmts[0], "CREATE TABLE a") {
		t.Errorf("first statement = %q", stmts[0])
	}
}

func TestSplitStatementsIgnoresQuotedSemicolons(t *testing.T) {
	stmts, _ := SplitStatements("INSERT INTO t VALUES ('a;b');INSERT INTO t VALUES ('c')")
	if len(stmts) != 2 {
		t.Fatalf("statements = %d, want 2: %v", len(stmts), stmts)
	}
}

func TestSplitStatementsSyntheticBoundaries(t *testing.T) {
	// No semicolons anywhere: boundaries are cut before statement keywords.
	text := "CREATE TABLE a (id int) CREATE TABLE b (id int) INSERT INTO a VALUES (1)"
	stmts, _ := SplitStatements(text)
	if len(stmts) != 3 {
		t.Fatalf("statements = %d, want 3: %v", len(stmts), stmts)
	}
}

func TestSplitStatementsDropsOversize(t *testing.T) {
	big := "INSERT INTO t VALUES " + strings.Repeat("(1),", StatementSizeLimit/4+1) + "(1)"
	stmts, dropped := SplitStatements(big + "; CREATE TABLE a (id int);")
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if len(stmts) != 1 {
		t.Errorf("statements = %d, want 1", len(stmts))
	}
}

func TestSplitClauses(t *testing.T) {
	body := "id int not null, name varchar(20), primary key (id, name), foreign key (id) references other (id)"
	clauses := splitClauses(body)
	want := []string{
		"id int not null",
		"name varchar(20)",
		"primary key (id, name)",
		"foreign key (id) references other (id)",
	}
	if len(clauses) != len(want) {
		t.Fatalf("clauses = %d, want %d: %v", len(clauses), len(want), clauses)
	}
	for i := range want {
		if clauses[i] != want[i] {
			t.Errorf("clause %d = %q, want %q", i, clauses[i], want[i])
		}
	}
}

func TestMaskGroupsRestore(t *testing.T) {
	mask := maskGroups("a (x, y) b (z)")
	if strings.Contains(mask.masked, "(") {
		t.Errorf("mask still contains parens: %q", mask.masked)
	}
	if len(mask.groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(mask.groups))
	}
	if got := mask.restore(mask.masked); got != "a (x, y) b (z)" {
		t.Errorf("restore = %q", got)
	}
}

func TestMaskGroupsUnclosed(t *testing.T) {
	mask := maskGroups("a (x, y")
	if len(mask.groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(mask.groups))
	}
	if mask.groups[0] != "(x, y" {
		t.Errorf("unclosed group = %q", mask.groups[0])
	}
}

func TestCleanStatement(t *testing.T) {
	in := "CREATE TABLE t (price decimal(10,2) COMMENT 'unit price', name varchar(50))"
	out := cleanStatement(in)
	if strings.Contains(out, "(10,2)") {
		t.Errorf("type size not removed: %q", out)
	}
	if strings.Contains(out, "unit price") {
		t.Errorf("comment literal not removed: %q", out)
	}
	if !strings.Contains(out, "decimal") || !strings.Contains(out, "varchar") {
		t.Errorf("types damaged: %q", out)
	}
}

func TestStripOrderKeywords(t *testing.T) {
	if got := stripOrderKeywords("id ASC"); got != "id" {
		t.Errorf("got %q", got)
	}
	if got := stripOrderKeywords("name desc"); got != "name" {
		t.Errorf("got %q", got)
	}
	if got := stripOrderKeywords("description"); got != "description" {
		t.Errorf("asc/desc inside a word must not be stripped: %q", got)
	}
}
