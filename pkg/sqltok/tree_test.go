package sqltok

import (
	"strings"
	"testing"

	"github.com/schemalift-labs/schemalift/pkg/token"
)

func TestParseGroupsByParens(t *testing.T) {
	tree := Parse("f(a, (b))")

	if len(tree.Root) != 2 {
		t.Fatalf("expected 2 root nodes, got %d", len(tree.Root))
	}
	if tree.Root[0].IsGroup() || tree.Root[0].Tok.Literal != "f" {
		t.Errorf("first node should be the identifier f")
	}
	group := tree.Root[1]
	if !group.IsGroup() {
		t.Fatal("second node should be a group")
	}
	// a, comma, inner group
	if len(group.Children) != 3 {
		t.Fatalf("group children = %d, want 3", len(group.Children))
	}
	if !group.Children[2].IsGroup() {
		t.Error("third child should be the nested group")
	}
}

func TestParseUnbalanced(t *testing.T) {
	// Stray closer is dropped.
	tree := Parse("a ) b")
	if len(tree.Root) != 2 {
		t.Errorf("stray closer: %d root nodes, want 2", len(tree.Root))
	}

	// Unclosed group extends to end of input.
	tree = Parse("a (b c")
	if len(tree.Root) != 2 {
		t.Fatalf("unclosed group: %d root nodes, want 2", len(tree.Root))
	}
	g := tree.Root[1]
	if !g.IsGroup() {
		t.Fatal("second node should be a group")
	}
	if g.End != len(tree.Input) {
		t.Errorf("unclosed group End = %d, want %d", g.End, len(tree.Input))
	}
}

func TestNodeText(t *testing.T) {
	input := "select (a + b) from t"
	tree := Parse(input)

	var group *Node
	for _, n := range tree.Root {
		if n.IsGroup() {
			group = n
		}
	}
	if group == nil {
		t.Fatal("no group found")
	}
	if got := group.Text(input); got != "(a + b)" {
		t.Errorf("group text = %q, want %q", got, "(a + b)")
	}
}

func TestFlattenAndFirstToken(t *testing.T) {
	tree := Parse("(select id) x")
	toks := Flatten(tree.Root)
	if len(toks) != 3 {
		t.Fatalf("flattened to %d tokens, want 3", len(toks))
	}

	tok, ok := FirstToken(tree.Root)
	if !ok || tok.Type != token.SELECT {
		t.Errorf("first token = %v, want SELECT", tok.Type)
	}

	if _, ok := FirstToken(nil); ok {
		t.Error("FirstToken of nothing should report false")
	}
}

func TestStripComments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "line comment",
			input: "select 1 -- trailing\nfrom t",
			want:  "select 1 \nfrom t",
		},
		{
			name:  "block comment",
			input: "select/* gone */1",
			want:  "select 1",
		},
		{
			name:  "comment marker inside string",
			input: "select '--not a comment' from t",
			want:  "select '--not a comment' from t",
		},
		{
			name:  "comment marker inside quoted identifier",
			input: `select "a--b" from t`,
			want:  `select "a--b" from t`,
		},
		{
			name:  "doubled quote escape",
			input: "select 'it''s -- fine'",
			want:  "select 'it''s -- fine'",
		},
		{
			name:  "unterminated block comment",
			input: "select 1 /* runs off",
			want:  "select 1  ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripComments(tt.input); got != tt.want {
				t.Errorf("StripComments(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSurvivesGarbage(t *testing.T) {
	// Arbitrary non-SQL input must still produce a tree.
	tree := Parse("!!! ??? ((((")
	if tree == nil {
		t.Fatal("nil tree")
	}
	if !strings.Contains(tree.Input, "???") {
		t.Error("input not preserved")
	}
}
