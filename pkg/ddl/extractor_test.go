package ddl

import (
	"context"
	"testing"

	"github.com/schemalift-labs/schemalift/pkg/schema"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		stmt string
		want StatementKind
	}{
		{"CREATE TABLE users (id int)", KindCreateTable},
		{"create temporary table t (id int)", KindCreateTable},
		{"CREATE TABLE t AS SELECT * FROM users", KindCreateAsSelect},
		{"CREATE VIEW v AS SELECT id FROM users", KindCreateAsSelect},
		{"ALTER TABLE users ADD COLUMN age int", KindAlterTable},
		{"CREATE INDEX idx ON users (email)", KindCreateIndex},
		{"CREATE UNIQUE INDEX idx ON users (email)", KindCreateIndex},
		{"INSERT INTO users (id) VALUES (1)", KindInsert},
		{"SELECT * FROM users", KindOther},
		{"DROP TABLE users", KindOther},
	}
	for _, tt := range tests {
		if got := Classify(tt.stmt); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.stmt, got, tt.want)
		}
	}
}

func newTestExtractor() (*Extractor, *schema.Model) {
	model := schema.NewModel()
	return NewExtractor(model, nil), model
}

func TestExtractCreateTable(t *testing.T) {
	e, model := newTestExtractor()

	stmt := `CREATE TABLE users (
		id INT NOT NULL,
		email VARCHAR(255) UNIQUE,
		name VARCHAR(100),
		PRIMARY KEY (id),
		CHECK (id > 0)
	)`
	outcomes, err := e.ExtractCreateTable(context.Background(), stmt, "h1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, o := range outcomes {
		if !o.Parsed {
			t.Errorf("clause %q skipped: %s", o.Clause, o.Reason)
		}
	}

	tab, ok := model.Get("users")
	if !ok {
		t.Fatal("users not in model")
	}
	if len(tab.Columns()) != 3 {
		t.Fatalf("columns = %d, want 3", len(tab.Columns()))
	}

	id, _ := tab.Column("id")
	if !id.NotNull() {
		t.Error("id should be not null (explicit and via primary key)")
	}
	email, _ := tab.Column("email")
	if !email.Unique() {
		t.Error("email should be unique")
	}
	if len(tab.Keys) != 1 || tab.Keys[0].Kind != schema.PrimaryKey {
		t.Errorf("keys = %v", tab.Keys)
	}
}

func TestExtractCreateTableSkipsUnknownType(t *testing.T) {
	e, model := newTestExtractor()

	stmt := "CREATE TABLE t (id int, weird frobnicator, name text)"
	outcomes, err := e.ExtractCreateTable(context.Background(), stmt, "h1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var skippedCount int
	for _, o := range outcomes {
		if !o.Parsed {
			skippedCount++
		}
	}
	if skippedCount != 1 {
		t.Errorf("skipped clauses = %d, want 1", skippedCount)
	}

	tab, _ := model.Get("t")
	if len(tab.Columns()) != 2 {
		t.Errorf("columns = %d, want 2 (unknown type dropped)", len(tab.Columns()))
	}
}

func TestExtractCreateTableForeignKey(t *testing.T) {
	e, model := newTestExtractor()
	ctx := context.Background()

	if _, err := e.ExtractCreateTable(ctx, "CREATE TABLE users (id int PRIMARY KEY)", "h1"); err != nil {
		t.Fatal(err)
	}
	stmt := `CREATE TABLE orders (
		id int PRIMARY KEY,
		user_id int NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users (id)
	)`
	if _, err := e.ExtractCreateTable(ctx, stmt, "h2"); err != nil {
		t.Fatal(err)
	}

	orders, _ := model.Get("orders")
	if len(orders.ForeignKeys) != 1 {
		t.Fatalf("foreign keys = %d, want 1", len(orders.ForeignKeys))
	}
	fk := orders.ForeignKeys[0]
	if fk.RefTable.Name != "users" {
		t.Errorf("ref table = %q", fk.RefTable.Name)
	}
	if len(fk.Columns) != 1 || fk.Columns[0].Name != "user_id" {
		t.Errorf("fk columns = %v", fk.Columns)
	}
}

func TestDeferredForeignKey(t *testing.T) {
	e, model := newTestExtractor()
	ctx := context.Background()

	// orders references users before users exists anywhere.
	stmt := `CREATE TABLE orders (
		id int PRIMARY KEY,
		user_id int,
		CONSTRAINT fk_user FOREIGN KEY (user_id) REFERENCES users (id)
	)`
	if _, err := e.ExtractCreateTable(ctx, stmt, "h1"); err != nil {
		t.Fatal(err)
	}
	if len(e.Deferred()) != 1 {
		t.Fatalf("deferred = %d, want 1", len(e.Deferred()))
	}

	if _, err := e.ExtractCreateTable(ctx, "CREATE TABLE users (id int PRIMARY KEY)", "h2"); err != nil {
		t.Fatal(err)
	}

	resolved, unresolved := e.ResolveDeferred()
	if resolved != 1 || unresolved != 0 {
		t.Errorf("resolved = %d, unresolved = %d", resolved, unresolved)
	}
	orders, _ := model.Get("orders")
	if len(orders.ForeignKeys) != 1 {
		t.Errorf("foreign keys = %d, want 1", len(orders.ForeignKeys))
	}
}

func TestResolveDeferredSingleRetry(t *testing.T) {
	e, _ := newTestExtractor()
	ctx := context.Background()

	stmt := "CREATE TABLE orders (id int, user_id int REFERENCES ghosts (id))"
	if _, err := e.ExtractCreateTable(ctx, stmt, "h1"); err != nil {
		t.Fatal(err)
	}

	resolved, unresolved := e.ResolveDeferred()
	if resolved != 0 || unresolved != 1 {
		t.Errorf("resolved = %d, unresolved = %d", resolved, unresolved)
	}
	if len(e.Deferred()) != 0 {
		t.Error("failed entries must not be retried again")
	}
}

func TestExtractAlterTable(t *testing.T) {
	e, model := newTestExtractor()
	ctx := context.Background()

	if _, err := e.ExtractCreateTable(ctx, "CREATE TABLE users (id int, email text)", "h1"); err != nil {
		t.Fatal(err)
	}

	outcomes, err := e.ExtractAlterTable(ctx, "ALTER TABLE users ADD CONSTRAINT pk_users PRIMARY KEY (id)", "h2")
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 1 || !outcomes[0].Parsed {
		t.Fatalf("outcomes = %+v", outcomes)
	}

	users, _ := model.Get("users")
	if len(users.Keys) != 1 || users.Keys[0].Kind != schema.PrimaryKey {
		t.Errorf("keys = %v", users.Keys)
	}

	// ADD COLUMN lands as an ordinary column definition.
	if _, err := e.ExtractAlterTable(ctx, "ALTER TABLE users ADD COLUMN age int NOT NULL", "h2"); err != nil {
		t.Fatal(err)
	}
	age, ok := users.Column("age")
	if !ok {
		t.Fatal("age column missing")
	}
	if !age.NotNull() {
		t.Error("age should be not null")
	}
}

func TestExtractAlterTablePhantom(t *testing.T) {
	e, model := newTestExtractor()

	if _, err := e.ExtractAlterTable(context.Background(), "ALTER TABLE mystery ADD id int", "h1"); err != nil {
		t.Fatal(err)
	}
	tab, ok := model.Get("mystery")
	if !ok {
		t.Fatal("phantom table not created")
	}
	if !tab.Phantom {
		t.Error("table should be marked phantom")
	}
	if _, ok := tab.Column("id"); !ok {
		t.Error("id column missing on phantom")
	}
}

func TestExtractAlterTableUnknownVariant(t *testing.T) {
	e, _ := newTestExtractor()

	outcomes, err := e.ExtractAlterTable(context.Background(), "ALTER TABLE t DROP COLUMN junk", "h1")
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 1 || outcomes[0].Parsed {
		t.Errorf("DROP should be skipped, got %+v", outcomes)
	}
}

func TestExtractCreateIndex(t *testing.T) {
	e, model := newTestExtractor()
	ctx := context.Background()

	if _, err := e.ExtractCreateTable(ctx, "CREATE TABLE users (id int, email text)", "h1"); err != nil {
		t.Fatal(err)
	}

	outcomes, err := e.ExtractCreateIndex(ctx, "CREATE UNIQUE INDEX ux_email ON users (email)")
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 1 || !outcomes[0].Parsed {
		t.Fatalf("outcomes = %+v", outcomes)
	}

	users, _ := model.Get("users")
	if len(users.Indexes) != 1 || users.Indexes[0].Kind != schema.UniqueIndex {
		t.Errorf("indexes = %v", users.Indexes)
	}
	email, _ := users.Column("email")
	if !users.UniqueColumns()[email] {
		t.Error("unique index should imply email uniqueness")
	}
}

func TestExtractCreateIndexUnknownTable(t *testing.T) {
	e, _ := newTestExtractor()

	outcomes, err := e.ExtractCreateIndex(context.Background(), "CREATE INDEX idx ON ghosts (id)")
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 1 || outcomes[0].Parsed {
		t.Errorf("index on unknown table should be skipped, got %+v", outcomes)
	}
}

func TestExtractInsert(t *testing.T) {
	e, model := newTestExtractor()
	ctx := context.Background()

	if _, err := e.ExtractInsert(ctx, "INSERT INTO logs (ts, msg) VALUES (1, 'x')", "h1"); err != nil {
		t.Fatal(err)
	}

	logs, ok := model.Get("logs")
	if !ok {
		t.Fatal("phantom table not created from insert")
	}
	if !logs.Phantom {
		t.Error("table should be phantom")
	}
	if len(logs.Columns()) != 2 {
		t.Errorf("columns = %d, want 2", len(logs.Columns()))
	}
	ts, _ := logs.Column("ts")
	if ts.Type != schema.TypeUnknown {
		t.Error("insert-derived columns carry no type")
	}

	// A second insert naming an extra column only fills the gap.
	if _, err := e.ExtractInsert(ctx, "INSERT INTO logs (ts, level) VALUES (2, 3)", "h2"); err != nil {
		t.Fatal(err)
	}
	if len(logs.Columns()) != 3 {
		t.Errorf("columns = %d, want 3", len(logs.Columns()))
	}
}

func TestExtractCreateAsSelect(t *testing.T) {
	e, model := newTestExtractor()
	ctx := context.Background()

	if _, err := e.ExtractCreateTable(ctx, "CREATE TABLE users (id int, email text, name text)", "h1"); err != nil {
		t.Fatal(err)
	}

	stmt := "CREATE TABLE report AS SELECT u.id, count(*) AS total, name FROM users u GROUP BY u.id"
	if _, err := e.ExtractCreateAsSelect(ctx, stmt, "h2"); err != nil {
		t.Fatal(err)
	}

	report, ok := model.Get("report")
	if !ok {
		t.Fatal("report not in model")
	}
	for _, want := range []string{"id", "total", "name"} {
		if _, ok := report.Column(want); !ok {
			t.Errorf("column %q missing", want)
		}
	}
}

func TestExtractCreateAsSelectStar(t *testing.T) {
	e, model := newTestExtractor()
	ctx := context.Background()

	if _, err := e.ExtractCreateTable(ctx, "CREATE TABLE users (id int, email text)", "h1"); err != nil {
		t.Fatal(err)
	}

	if _, err := e.ExtractCreateAsSelect(ctx, "CREATE VIEW v AS SELECT * FROM users", "h2"); err != nil {
		t.Fatal(err)
	}

	v, _ := model.Get("v")
	if len(v.Columns()) != 2 {
		t.Errorf("star copy produced %d columns, want 2", len(v.Columns()))
	}
}

func TestExtractCancelled(t *testing.T) {
	e, _ := newTestExtractor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ExtractCreateTable(ctx, "CREATE TABLE t (id int)", "h1")
	if err == nil {
		t.Error("cancelled context should surface as an error")
	}
}
