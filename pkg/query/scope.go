package query

import (
	"strings"

	"github.com/schemalift-labs/schemalift/pkg/sqltok"
	"github.com/schemalift-labs/schemalift/pkg/token"
)

// rawCond is a comparison lifted from the token stream before any schema
// binding: both sides are dotted references as written.
type rawCond struct {
	left  string
	op    Operator
	right string
	node  int // scope node the condition was found in
}

// scopeNode is one SELECT scope. Parent linkage is by index into the
// builder's node slice, so the whole scope tree lives in one flat stack.
type scopeNode struct {
	parent      int
	aliases     map[string]string // lowercased alias -> table name as written
	tables      []string          // table names in FROM order, as written
	subqueries  map[string]int    // lowercased alias -> scope node index
	projections map[string]string // lowercased output name -> underlying ref ("" for expressions)
	limitCols   map[string]bool   // lowercased column names seen in JOIN/WHERE
	joinCounts  map[JoinType]int
}

func newScopeNode(parent int) *scopeNode {
	return &scopeNode{
		parent:      parent,
		aliases:     make(map[string]string),
		subqueries:  make(map[string]int),
		projections: make(map[string]string),
		limitCols:   make(map[string]bool),
		joinCounts:  make(map[JoinType]int),
	}
}

// joinType returns the dominant join flavor of the scope: the most
// frequent join keyword counted in the scope's own text, inner by default.
func (n *scopeNode) joinType() JoinType {
	best := JoinInner
	bestCount := 0
	for _, jt := range []JoinType{JoinInner, JoinLeft, JoinRight, JoinFull, JoinCross} {
		if c := n.joinCounts[jt]; c > bestCount {
			best = jt
			bestCount = c
		}
	}
	return best
}

// scopeBuilder turns a token tree into a scope tree plus the raw
// conditions found in each scope.
type scopeBuilder struct {
	tree  *sqltok.Tree
	nodes []*scopeNode
	conds []rawCond
}

// isSelectGroup reports whether a group node opens a nested SELECT.
func isSelectGroup(n *sqltok.Node) bool {
	if !n.IsGroup() {
		return false
	}
	tok, ok := sqltok.FirstToken(n.Children)
	return ok && tok.Type == token.SELECT
}

// clause boundaries that terminate a FROM or condition segment.
func endsConditionSegment(t token.Type) bool {
	switch t {
	case token.JOIN, token.WHERE, token.GROUP, token.ORDER, token.HAVING,
		token.LIMIT, token.OFFSET, token.UNION, token.SEMI,
		token.LEFT, token.RIGHT, token.FULL, token.CROSS, token.INNER:
		return true
	}
	return false
}

// build walks one scope's node list, creating child scopes for nested
// SELECT groups, and returns the new scope's index.
func (b *scopeBuilder) build(children []*sqltok.Node, parent int) int {
	idx := len(b.nodes)
	scope := newScopeNode(parent)
	b.nodes = append(b.nodes, scope)

	type context int
	const (
		ctxNone context = iota
		ctxProjection
		ctxFrom
	)
	ctx := ctxNone
	var joinPrefix token.Type
	var projItem []*sqltok.Node

	flushProjection := func() {
		if len(projItem) > 0 {
			b.recordProjection(scope, projItem)
			projItem = nil
		}
	}

	i := 0
	for i < len(children) {
		n := children[i]

		if n.IsGroup() {
			if isSelectGroup(n) {
				childIdx := b.build(n.Children, idx)
				if ctx == ctxFrom {
					// Derived table: register its alias when present.
					if alias, consumed := aliasAfter(children, i+1); alias != "" {
						scope.subqueries[strings.ToLower(alias)] = childIdx
						i += consumed
					}
				}
			} else if ctx == ctxProjection {
				projItem = append(projItem, n)
			}
			i++
			continue
		}

		tok := n.Tok
		switch tok.Type {
		case token.SELECT:
			flushProjection()
			ctx = ctxProjection
		case token.FROM:
			flushProjection()
			ctx = ctxFrom
		case token.LEFT, token.RIGHT, token.FULL, token.CROSS, token.INNER:
			joinPrefix = tok.Type
		case token.OUTER:
			// LEFT OUTER JOIN etc.: prefix already captured.
		case token.JOIN:
			scope.joinCounts[joinTypeFor(joinPrefix)]++
			joinPrefix = 0
			ctx = ctxFrom
		case token.ON:
			next := b.scanConditions(children, i+1, idx)
			ctx = ctxNone
			i = next
			continue
		case token.WHERE:
			next := b.scanConditions(children, i+1, idx)
			ctx = ctxNone
			i = next
			continue
		case token.GROUP, token.ORDER, token.HAVING, token.LIMIT,
			token.OFFSET, token.UNION, token.SEMI, token.INTO:
			flushProjection()
			ctx = ctxNone
		case token.COMMA:
			if ctx == ctxProjection {
				flushProjection()
			}
		default:
			switch ctx {
			case ctxProjection:
				projItem = append(projItem, n)
			case ctxFrom:
				if tok.Type == token.IDENT {
					consumed := b.recordTableRef(scope, children, i)
					i += consumed
					continue
				}
			}
		}
		i++
	}
	flushProjection()
	return idx
}

func joinTypeFor(prefix token.Type) JoinType {
	switch prefix {
	case token.LEFT:
		return JoinLeft
	case token.RIGHT:
		return JoinRight
	case token.FULL:
		return JoinFull
	case token.CROSS:
		return JoinCross
	}
	return JoinInner
}

// aliasAfter reads an optional [AS] alias following a derived table and
// returns the alias plus how many nodes were consumed.
func aliasAfter(children []*sqltok.Node, i int) (string, int) {
	consumed := 0
	if i < len(children) && !children[i].IsGroup() && children[i].Tok.Type == token.AS {
		i++
		consumed++
	}
	if i < len(children) && !children[i].IsGroup() && children[i].Tok.Type == token.IDENT {
		return children[i].Tok.Literal, consumed + 1
	}
	return "", 0
}

// recordTableRef parses one table reference in a FROM segment: a dotted
// name followed by an optional alias. Returns the number of nodes
// consumed.
func (b *scopeBuilder) recordTableRef(scope *scopeNode, children []*sqltok.Node, i int) int {
	name, consumed := dottedRef(children, i)
	if name == "" {
		return 1
	}
	j := i + consumed

	alias := ""
	if j < len(children) && !children[j].IsGroup() {
		switch children[j].Tok.Type {
		case token.AS:
			if j+1 < len(children) && !children[j+1].IsGroup() && children[j+1].Tok.Type == token.IDENT {
				alias = children[j+1].Tok.Literal
				consumed += 2
			}
		case token.IDENT:
			alias = children[j].Tok.Literal
			consumed++
		}
	}

	scope.tables = append(scope.tables, name)
	if alias != "" {
		scope.aliases[strings.ToLower(alias)] = name
	}
	// A table is always addressable by its own name and last segment.
	scope.aliases[strings.ToLower(name)] = name
	if k := strings.LastIndexByte(name, '.'); k >= 0 {
		scope.aliases[strings.ToLower(name[k+1:])] = name
	}
	return consumed
}

// dottedRef assembles an IDENT(.IDENT)* run starting at i, returning the
// raw dotted string and the node count consumed. Returns "" when the run
// is immediately followed by a group, which makes it a function call.
func dottedRef(children []*sqltok.Node, i int) (string, int) {
	if i >= len(children) || children[i].IsGroup() || children[i].Tok.Type != token.IDENT {
		return "", 0
	}
	parts := []string{children[i].Tok.Literal}
	consumed := 1
	j := i + 1
	for j+1 < len(children) &&
		!children[j].IsGroup() && children[j].Tok.Type == token.DOT &&
		!children[j+1].IsGroup() && (children[j+1].Tok.Type == token.IDENT || children[j+1].Tok.Type == token.STAR) {
		parts = append(parts, children[j+1].Tok.Literal)
		consumed += 2
		j += 2
	}
	if j < len(children) && children[j].IsGroup() && !isSelectGroup(children[j]) {
		// Function call, not a column reference.
		return "", 0
	}
	return strings.Join(parts, "."), consumed
}

// recordProjection registers one projected item of the scope: its output
// name and, when the item is a plain column reference, the underlying ref.
func (b *scopeBuilder) recordProjection(scope *scopeNode, item []*sqltok.Node) {
	name := ""
	source := ""

	// AS alias wins as the output name.
	for k := 0; k < len(item); k++ {
		if !item[k].IsGroup() && item[k].Tok.Type == token.AS && k+1 < len(item) &&
			!item[k+1].IsGroup() && item[k+1].Tok.Type == token.IDENT {
			name = item[k+1].Tok.Literal
		}
	}

	ref, consumed := dottedRef(item, 0)
	if ref != "" && consumed == len(item) {
		// Plain column reference, possibly qualified.
		source = ref
		if name == "" {
			if k := strings.LastIndexByte(ref, '.'); k >= 0 {
				name = ref[k+1:]
			} else {
				name = ref
			}
		}
	} else if ref != "" && name == "" && consumed == len(item)-1 &&
		!item[len(item)-1].IsGroup() && item[len(item)-1].Tok.Type == token.IDENT {
		// Implicit alias: ref followed by a bare identifier.
		source = ref
		name = item[len(item)-1].Tok.Literal
	}

	if name == "" {
		// Expression without alias: fall back to the last identifier.
		for k := len(item) - 1; k >= 0; k-- {
			if !item[k].IsGroup() && item[k].Tok.Type == token.IDENT {
				name = item[k].Tok.Literal
				break
			}
		}
	}
	if name == "" || name == "*" {
		return
	}
	scope.projections[strings.ToLower(name)] = source
}

// scanConditions reads comparisons from a condition segment (after ON or
// WHERE) until a clause boundary, recursing into plain groups so that
// parenthesized and function-wrapped comparisons are found too. It
// returns the index of the terminating node.
func (b *scopeBuilder) scanConditions(children []*sqltok.Node, start, nodeIdx int) int {
	i := start
	for i < len(children) {
		n := children[i]
		if !n.IsGroup() && endsConditionSegment(n.Tok.Type) {
			return i
		}
		if n.IsGroup() {
			if isSelectGroup(n) {
				b.build(n.Children, nodeIdx)
			} else {
				b.scanGroupConditions(n.Children, nodeIdx)
			}
			i++
			continue
		}

		if next, ok := b.tryCondition(children, i, nodeIdx); ok {
			i = next
			continue
		}
		i++
	}
	return i
}

// scanGroupConditions scans an entire group body for comparisons, without
// clause boundaries.
func (b *scopeBuilder) scanGroupConditions(children []*sqltok.Node, nodeIdx int) {
	i := 0
	for i < len(children) {
		n := children[i]
		if n.IsGroup() {
			if isSelectGroup(n) {
				b.build(n.Children, nodeIdx)
			} else {
				b.scanGroupConditions(n.Children, nodeIdx)
			}
			i++
			continue
		}
		if next, ok := b.tryCondition(children, i, nodeIdx); ok {
			i = next
			continue
		}
		i++
	}
}

// tryCondition attempts to read `ref OP ref` starting at i. Both sides
// must be column-shaped: quoted literals, numbers and function calls
// disqualify a side, and inequality comparisons are discarded outright.
func (b *scopeBuilder) tryCondition(children []*sqltok.Node, i, nodeIdx int) (int, bool) {
	left, lc := dottedRef(children, i)
	if left == "" {
		return 0, false
	}
	j := i + lc
	if j >= len(children) || children[j].IsGroup() {
		return 0, false
	}
	opTok := children[j].Tok.Type
	if !token.IsComparison(opTok) {
		return 0, false
	}
	if opTok == token.NE {
		// != and <> never express a join.
		return j + 1, true
	}
	right, rc := dottedRef(children, j+1)
	if right == "" {
		return j + 1, true
	}

	op := OpEq
	switch opTok {
	case token.LT:
		op = OpLt
	case token.GT:
		op = OpGt
	case token.LE:
		op = OpLtEq
	case token.GE:
		op = OpGtEq
	}

	scope := b.nodes[nodeIdx]
	scope.limitCols[lastSegmentLower(left)] = true
	scope.limitCols[lastSegmentLower(right)] = true
	b.conds = append(b.conds, rawCond{left: left, op: op, right: right, node: nodeIdx})
	return j + 1 + rc, true
}

func lastSegmentLower(ref string) string {
	if k := strings.LastIndexByte(ref, '.'); k >= 0 {
		ref = ref[k+1:]
	}
	return strings.ToLower(ref)
}
