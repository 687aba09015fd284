package query

import (
	"context"
	"testing"

	"github.com/schemalift-labs/schemalift/pkg/schema"
)

func TestIsCandidate(t *testing.T) {
	tests := []struct {
		name string
		stmt string
		want bool
	}{
		{"explicit join", "SELECT * FROM a JOIN b ON a.id = b.id", true},
		{"implicit join", "SELECT * FROM a, b WHERE a.id = b.a_id", true},
		{"single table", "SELECT * FROM a WHERE id = 1", false},
		{"no from", "SELECT 1", false},
		{"no where on comma list", "SELECT * FROM a, b", false},
		{"subquery commas ignored", "SELECT * FROM a WHERE id IN (SELECT x, y FROM b)", false},
		{"not a select", "DELETE FROM a", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCandidate(tt.stmt); got != tt.want {
				t.Errorf("IsCandidate(%q) = %v, want %v", tt.stmt, got, tt.want)
			}
		})
	}
}

// testModel builds a two-table model: users(id, name) and orders(id,
// user_id, total).
func testModel() *schema.Model {
	m := schema.NewModel()

	users := m.Put(schema.NewTable("users", "h1"))
	users.AddColumn(schema.NewColumn("id", schema.TypeNumeric))
	users.AddColumn(schema.NewColumn("name", schema.TypeString))

	orders := m.Put(schema.NewTable("orders", "h2"))
	orders.AddColumn(schema.NewColumn("id", schema.TypeNumeric))
	orders.AddColumn(schema.NewColumn("user_id", schema.TypeNumeric))
	orders.AddColumn(schema.NewColumn("total", schema.TypeCurrency))

	return m
}

func analyze(t *testing.T, stmt string) (*Query, []Diagnostic) {
	t.Helper()
	a := NewAnalyzer(testModel(), nil)
	q, diags, err := a.Analyze(context.Background(), stmt)
	if err != nil {
		t.Fatalf("Analyze(%q) error: %v", stmt, err)
	}
	return q, diags
}

func TestAnalyzeExplicitJoin(t *testing.T) {
	q, diags := analyze(t, "SELECT u.name FROM users u JOIN orders o ON u.id = o.user_id")
	if len(diags) != 0 {
		t.Fatalf("diagnostics: %v", diags)
	}
	if q == nil || len(q.Joins) != 1 {
		t.Fatalf("joins = %v", q)
	}

	j := q.Joins[0]
	if j.TableA.Name != "users" || j.TableB.Name != "orders" {
		t.Errorf("pair = %s/%s", j.TableA.Name, j.TableB.Name)
	}
	if j.Type != JoinInner {
		t.Errorf("type = %v, want inner", j.Type)
	}
	if len(j.Conditions) != 1 {
		t.Fatalf("conditions = %d", len(j.Conditions))
	}
	c := j.Conditions[0]
	if c.LeftColumn.Name != "id" || c.RightColumn.Name != "user_id" || c.Op != OpEq {
		t.Errorf("condition = %s.%s %s %s.%s",
			c.LeftTable.Name, c.LeftColumn.Name, c.Op, c.RightTable.Name, c.RightColumn.Name)
	}
}

func TestAnalyzeImplicitJoin(t *testing.T) {
	q, diags := analyze(t, "SELECT * FROM users, orders WHERE users.id = orders.user_id")
	if len(diags) != 0 {
		t.Fatalf("diagnostics: %v", diags)
	}
	if q == nil || len(q.Joins) != 1 {
		t.Fatalf("joins = %v", q)
	}
}

func TestAnalyzeLeftJoinType(t *testing.T) {
	q, _ := analyze(t, "SELECT * FROM users u LEFT OUTER JOIN orders o ON u.id = o.user_id")
	if q == nil || len(q.Joins) != 1 {
		t.Fatalf("joins = %v", q)
	}
	if q.Joins[0].Type != JoinLeft {
		t.Errorf("type = %v, want left", q.Joins[0].Type)
	}
}

func TestAnalyzeDedupAndFlip(t *testing.T) {
	stmt := `SELECT * FROM users u
		JOIN orders o ON u.id = o.user_id AND o.id = u.id
		WHERE u.id = o.user_id`
	q, _ := analyze(t, stmt)
	if q == nil || len(q.Joins) != 1 {
		t.Fatalf("expected one deduplicated pair, got %v", q)
	}
	j := q.Joins[0]
	if len(j.Conditions) != 3 {
		t.Fatalf("conditions = %d, want 3", len(j.Conditions))
	}
	// Every stored condition keeps its left side on TableA.
	for _, c := range j.Conditions {
		if c.LeftTable != j.TableA {
			t.Errorf("condition not normalized: left = %s", c.LeftTable.Name)
		}
	}
}

func TestAnalyzeSameTableFilter(t *testing.T) {
	// Self-comparison binds both sides to one table: a filter, not a join.
	q, diags := analyze(t, "SELECT * FROM users u JOIN orders o ON u.id = users.id")
	if q != nil {
		t.Errorf("expected no query, got %v", q)
	}
	if len(diags) != 0 {
		t.Errorf("same-table filters are not diagnostics: %v", diags)
	}
}

func TestAnalyzeLiteralsIgnored(t *testing.T) {
	q, diags := analyze(t, "SELECT * FROM users u JOIN orders o ON u.id = o.user_id WHERE o.total > 100 AND u.name = 'bob'")
	if q == nil || len(q.Joins) != 1 {
		t.Fatalf("joins = %v", q)
	}
	if len(q.Joins[0].Conditions) != 1 {
		t.Errorf("literal comparisons must not become conditions: %v", q.Joins[0].Conditions)
	}
	if len(diags) != 0 {
		t.Errorf("literal comparisons are not diagnostics: %v", diags)
	}
}

func TestAnalyzeInequalityDiscarded(t *testing.T) {
	q, _ := analyze(t, "SELECT * FROM users u JOIN orders o ON u.id <> o.user_id")
	if q != nil {
		t.Errorf("<> must be discarded, got %v", q)
	}
}

func TestAnalyzeRangeOperators(t *testing.T) {
	q, _ := analyze(t, "SELECT * FROM users u JOIN orders o ON u.id <= o.user_id")
	if q == nil || len(q.Joins) != 1 {
		t.Fatalf("joins = %v", q)
	}
	if q.Joins[0].Conditions[0].Op != OpLtEq {
		t.Errorf("op = %v, want <=", q.Joins[0].Conditions[0].Op)
	}
}

func TestAnalyzeUnknownTableDiagnostic(t *testing.T) {
	q, diags := analyze(t, "SELECT * FROM users u JOIN ghosts g ON u.id = g.user_id")
	if q != nil {
		t.Errorf("expected no query, got %v", q)
	}
	if len(diags) != 1 || diags[0].Kind != FailedTable {
		t.Fatalf("diagnostics = %v", diags)
	}
	if diags[0].Statement == "" {
		t.Error("diagnostic should carry the statement")
	}
}

func TestAnalyzeUnknownColumnDiagnostic(t *testing.T) {
	q, diags := analyze(t, "SELECT * FROM users u JOIN orders o ON u.shoe_size = o.user_id")
	if q != nil {
		t.Errorf("expected no query, got %v", q)
	}
	if len(diags) != 1 || diags[0].Kind != FailedColumn {
		t.Fatalf("diagnostics = %v", diags)
	}
}

func TestAnalyzeSchemaQualified(t *testing.T) {
	q, diags := analyze(t, "SELECT * FROM dbo.users JOIN dbo.orders ON dbo.users.id = dbo.orders.user_id")
	if len(diags) != 0 {
		t.Fatalf("diagnostics: %v", diags)
	}
	if q == nil || len(q.Joins) != 1 {
		t.Fatalf("joins = %v", q)
	}
}

func TestAnalyzeDerivedTable(t *testing.T) {
	stmt := `SELECT * FROM users u
		JOIN (SELECT user_id FROM orders) recent ON u.id = recent.user_id`
	q, diags := analyze(t, stmt)
	if len(diags) != 0 {
		t.Fatalf("diagnostics: %v", diags)
	}
	if q == nil || len(q.Joins) != 1 {
		t.Fatalf("joins = %v", q)
	}
	j := q.Joins[0]
	if j.TableA.Name != "users" || j.TableB.Name != "orders" {
		t.Errorf("derived table should resolve to orders, got %s/%s", j.TableA.Name, j.TableB.Name)
	}
}

func TestAnalyzeDerivedTableExpressionColumn(t *testing.T) {
	// A computed projection cannot be traced to a source column.
	stmt := `SELECT * FROM users u
		JOIN (SELECT max(user_id) AS user_id FROM orders) m ON u.id = m.user_id`
	q, diags := analyze(t, stmt)
	if q != nil {
		t.Errorf("expected no query, got %v", q)
	}
	if len(diags) != 1 || diags[0].Kind != FailedTable {
		t.Errorf("diagnostics = %v", diags)
	}
}

func TestAnalyzeNoJoins(t *testing.T) {
	q, diags := analyze(t, "SELECT name FROM users WHERE id = 5")
	if q != nil || len(diags) != 0 {
		t.Errorf("plain select should produce nothing, got %v %v", q, diags)
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	a := NewAnalyzer(testModel(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := a.Analyze(ctx, "SELECT * FROM users"); err == nil {
		t.Error("cancelled context should surface as an error")
	}
}
