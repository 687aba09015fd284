package ddl

import "regexp"

// Statement and clause patterns. All are case-insensitive; (?s) lets a
// pattern cross line boundaries inside multi-line statements.
var (
	createTableRe = regexp.MustCompile(
		`(?is)^\s*create\s+(?:global\s+temporary\s+|temporary\s+|temp\s+)?table\s+(?:if\s+not\s+exists\s+)?([^\s(]+)`)
	createAsSelectRe = regexp.MustCompile(
		`(?is)^\s*create\s+(?:or\s+replace\s+)?(?:table|view)\s+(?:if\s+not\s+exists\s+)?([^\s(]+)[\s\S]*?\bas\b\s*\(?\s*(select\b[\s\S]*)$`)
	alterTableRe = regexp.MustCompile(
		`(?is)^\s*alter\s+table\s+(?:only\s+)?(?:if\s+exists\s+)?([^\s(,]+)\s*([\s\S]*)$`)
	createIndexRe = regexp.MustCompile(
		`(?is)^\s*create\s+(unique\s+)?index\s+(?:concurrently\s+)?(?:if\s+not\s+exists\s+)?[^\s(]*\s+on\s+([^\s(]+)\s*(?:using\s+\w+\s*)?\(([^)]*)\)`)
	insertRe = regexp.MustCompile(
		`(?is)^\s*insert\s+(?:into\s+)?([^\s(]+)\s*(?:\(([^)]*)\))?`)

	namedConstraintRe = regexp.MustCompile(
		`(?is)^constraint\s+\S+\s+([\s\S]*)$`)
	primaryKeyClauseRe = regexp.MustCompile(
		`(?is)^primary\s+key\s*(?:\w+\s*)?\(([^)]*)\)`)
	foreignKeyClauseRe = regexp.MustCompile(
		`(?is)^foreign\s+key\s*(?:\w+\s*)?\(([^)]*)\)\s*references\s+([^\s(]+)\s*(?:\(([^)]*)\))?`)
	uniqueKeyClauseRe = regexp.MustCompile(
		`(?is)^unique(?:\s+key|\s+index)?\s*(?:\S+\s*)?\(([^)]*)\)`)
	keyClauseRe = regexp.MustCompile(
		`(?is)^key\s+(?:\S+\s*)?\(([^)]*)\)`)
	indexClauseRe = regexp.MustCompile(
		`(?is)^index\s+(?:\S+\s*)?\(([^)]*)\)`)
	checkClauseRe = regexp.MustCompile(
		`(?is)^check\s*\(`)
	columnDefRe = regexp.MustCompile(
		`(?is)^("[^"]+"|` + "`[^`]+`" + `|\[[^\]]+\]|[^\s(]+)\s+([^\s(,]+)\s*([\s\S]*)$`)
	referencesRe = regexp.MustCompile(
		`(?is)\breferences\s+([^\s(]+)\s*(?:\(([^)]*)\))?`)

	addConstraintRe = regexp.MustCompile(
		`(?is)^add\s+constraint\s+\S+\s+([\s\S]*)$`)
	addClauseRe = regexp.MustCompile(
		`(?is)^add\s+([\s\S]*)$`)
	alterEmbeddedIndexRe = regexp.MustCompile(
		`(?is)\badd\s+(unique\s+)?index\s+(?:\S+\s*)?\(([^)]*)\)`)

	selectWordRe = regexp.MustCompile(`(?i)\bselect\b`)
	fromWordRe   = regexp.MustCompile(`(?i)\bfrom\b`)

	notNullRe       = regexp.MustCompile(`(?is)\bnot\s+null\b`)
	uniqueFlagRe    = regexp.MustCompile(`(?is)^unique\b|\s+unique\b`)
	primaryFlagRe   = regexp.MustCompile(`(?is)\bprimary\s+key\b`)
	dataCompression = regexp.MustCompile(`(?is)\bdata_compression\b`)
)
