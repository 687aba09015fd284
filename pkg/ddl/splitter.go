// Package ddl extracts schema definitions from raw SQL statements:
// CREATE TABLE, ALTER TABLE, CREATE INDEX, INSERT and CREATE ... AS SELECT.
// Extraction is regex-shaped and permissive; a clause that cannot be
// understood is skipped and reported, never fatal.
package ddl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/schemalift-labs/schemalift/pkg/sqltok"
)

// StatementSizeLimit is the ceiling above which a statement is dropped.
// Machine-generated dumps routinely contain INSERT statements of hundreds
// of kilobytes that carry no schema information worth the parse cost.
const StatementSizeLimit = 50000

// statementStartRe matches the keywords that open a statement we care
// about, used to cut synthetic boundaries into scripts without semicolons.
var statementStartRe = regexp.MustCompile(
	`(?i)\b(create\s+table|alter\s+table|create\s+unique\s+index|create\s+index|create\s+view|insert\s+into|insert\s+)`)

// SplitStatements cuts raw SQL text into individual statements. Comments
// are stripped first. When the text has no semicolons at all, synthetic
// boundaries are inserted before each statement-opening keyword so that
// dump files written as one long line still split. Statements above
// StatementSizeLimit are dropped and counted in the returned count.
func SplitStatements(text string) (stmts []string, dropped int) {
	cleaned := sqltok.StripComments(text)

	if !strings.Contains(cleaned, ";") {
		cleaned = insertBoundaries(cleaned)
	}

	for _, raw := range splitOutsideQuotes(cleaned, ';') {
		stmt := strings.TrimSpace(raw)
		if stmt == "" {
			continue
		}
		if len(stmt) > StatementSizeLimit {
			dropped++
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts, dropped
}

// insertBoundaries places semicolons before statement-opening keywords.
// The first match gets no boundary so the leading statement survives.
func insertBoundaries(text string) string {
	first := true
	return statementStartRe.ReplaceAllStringFunc(text, func(m string) string {
		if first {
			first = false
			return m
		}
		return ";" + m
	})
}

// splitOutsideQuotes splits on sep, ignoring separators inside single or
// double quoted runs.
func splitOutsideQuotes(s string, sep byte) []string {
	var parts []string
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"' || ch == '`':
			quote = ch
		case ch == sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// groupMask is the result of replacing every top-level parenthesized group
// with a placeholder. Placeholders keep clause commas separable from the
// commas inside column lists like PRIMARY KEY (a, b).
type groupMask struct {
	masked string
	groups []string
}

const groupPlaceholder = "\x00G%d\x00"

var placeholderRe = regexp.MustCompile("\x00G(\\d+)\x00")

// maskGroups captures every top-level (...) group of s, in order, and
// replaces each with an indexed placeholder.
func maskGroups(s string) groupMask {
	var b strings.Builder
	var groups []string
	depth := 0
	groupStart := 0
	var quote byte

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			if depth == 0 {
				b.WriteByte(ch)
			}
			continue
		}
		switch ch {
		case '\'', '"', '`':
			quote = ch
			if depth == 0 {
				b.WriteByte(ch)
			}
		case '(':
			if depth == 0 {
				groupStart = i
			}
			depth++
		case ')':
			if depth > 0 {
				depth--
				if depth == 0 {
					groups = append(groups, s[groupStart:i+1])
					fmt.Fprintf(&b, groupPlaceholder, len(groups)-1)
				}
			} else {
				b.WriteByte(ch)
			}
		default:
			if depth == 0 {
				b.WriteByte(ch)
			}
		}
	}

	// Unclosed group at end of input: keep what we have.
	if depth > 0 {
		groups = append(groups, s[groupStart:])
		fmt.Fprintf(&b, groupPlaceholder, len(groups)-1)
	}

	return groupMask{masked: b.String(), groups: groups}
}

// restore substitutes the captured groups back into a masked fragment,
// preserving their original order and content.
func (g groupMask) restore(s string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		var idx int
		if _, err := fmt.Sscanf(m, groupPlaceholder, &idx); err != nil {
			return m
		}
		if idx < 0 || idx >= len(g.groups) {
			return m
		}
		return g.groups[idx]
	})
}

// splitClauses splits a statement body on commas that sit outside any
// parenthesized group, restoring the groups into each piece afterwards.
func splitClauses(body string) []string {
	mask := maskGroups(body)
	raw := strings.Split(mask.masked, ",")
	out := make([]string, 0, len(raw))
	for _, piece := range raw {
		restored := strings.TrimSpace(mask.restore(piece))
		if restored != "" {
			out = append(out, restored)
		}
	}
	return out
}

var (
	commentClauseRe = regexp.MustCompile(`(?i)\bcomment\s+('[^']*'|"[^"]*")`)
	typeSizeRe      = regexp.MustCompile(`\(\s*\d+\s*(?:,\s*\d+)?\s*\)`)
	ascDescRe       = regexp.MustCompile(`(?i)\b(asc|desc)\b`)
)

// cleanStatement normalizes a DDL statement before clause extraction:
// trailing COMMENT literals and type size parentheses like (10,2) are
// removed so they cannot be mistaken for column lists.
func cleanStatement(stmt string) string {
	out := commentClauseRe.ReplaceAllString(stmt, " ")
	out = typeSizeRe.ReplaceAllString(out, " ")
	return out
}

// stripOrderKeywords removes ASC/DESC markers from a key column item.
func stripOrderKeywords(col string) string {
	return strings.TrimSpace(ascDescRe.ReplaceAllString(col, " "))
}
