package sqltok

import (
	"strings"

	"github.com/schemalift-labs/schemalift/pkg/token"
)

// Node is one element of a token tree: either a single token or a
// parenthesized group of child nodes. Start and End are byte offsets into
// the original input, with End pointing one past the last byte.
type Node struct {
	Tok      token.Token
	Children []*Node
	Group    bool
	Start    int
	End      int
}

// IsGroup returns true if the node is a parenthesized group.
func (n *Node) IsGroup() bool {
	return n.Group
}

// Text returns the raw input slice covered by the node.
func (n *Node) Text(input string) string {
	if n.Start < 0 || n.End > len(input) || n.Start >= n.End {
		return ""
	}
	return input[n.Start:n.End]
}

// Tree is a token hierarchy over one statement or script.
type Tree struct {
	Input string
	Root  []*Node
}

// Parse tokenizes the input and groups tokens by parenthesis nesting.
// Unbalanced input is tolerated: a stray closer is dropped and an
// unclosed group extends to the end of input.
func Parse(input string) *Tree {
	l := NewLexer(input)

	root := make([]*Node, 0, 16)
	var stack []*Node

	appendNode := func(n *Node) {
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			top.Children = append(top.Children, n)
		} else {
			root = append(root, n)
		}
	}

	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			break
		}
		end := l.pos

		switch tok.Type {
		case token.LPAREN:
			group := &Node{Group: true, Start: tok.Pos.Offset}
			appendNode(group)
			stack = append(stack, group)
		case token.RPAREN:
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				top.End = end
				stack = stack[:len(stack)-1]
			}
		default:
			appendNode(&Node{Tok: tok, Start: tok.Pos.Offset, End: end})
		}
	}

	// Close any groups left open at EOF.
	for _, g := range stack {
		g.End = len(input)
	}

	return &Tree{Input: input, Root: root}
}

// Flatten returns the leaf tokens of the given nodes in order,
// descending into groups.
func Flatten(nodes []*Node) []token.Token {
	var out []token.Token
	for _, n := range nodes {
		if n.IsGroup() {
			out = append(out, Flatten(n.Children)...)
		} else {
			out = append(out, n.Tok)
		}
	}
	return out
}

// FirstToken returns the first leaf token under the node list, or false
// when there is none.
func FirstToken(nodes []*Node) (token.Token, bool) {
	for _, n := range nodes {
		if n.IsGroup() {
			if tok, ok := FirstToken(n.Children); ok {
				return tok, true
			}
			continue
		}
		return n.Tok, true
	}
	return token.Token{}, false
}

// StripComments removes line comments (-- ...) and block comments
// (/* ... */) from SQL text while preserving quoted strings and
// quoted identifiers. Line comments are replaced by the newline that
// terminated them, block comments by a single space.
func StripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	i := 0
	for i < len(s) {
		ch := s[i]
		switch ch {
		case '\'', '"', '`':
			quote := ch
			b.WriteByte(ch)
			i++
			for i < len(s) {
				b.WriteByte(s[i])
				if s[i] == quote {
					// Doubled quote is an escape, not a terminator.
					if i+1 < len(s) && s[i+1] == quote {
						b.WriteByte(s[i+1])
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
		case '-':
			if i+1 < len(s) && s[i+1] == '-' {
				for i < len(s) && s[i] != '\n' {
					i++
				}
				continue
			}
			b.WriteByte(ch)
			i++
		case '/':
			if i+1 < len(s) && s[i+1] == '*' {
				i += 2
				for i < len(s) {
					if s[i] == '*' && i+1 < len(s) && s[i+1] == '/' {
						i += 2
						break
					}
					i++
				}
				b.WriteByte(' ')
				continue
			}
			b.WriteByte(ch)
			i++
		default:
			b.WriteByte(ch)
			i++
		}
	}
	return b.String()
}
