// Package token defines the lexical token types for SQL scanning.
package token

import "fmt"

// Type represents the type of a lexical token.
type Type int32

const (
	// Special tokens
	EOF Type = iota
	ILLEGAL

	// Literals
	IDENT  // identifier
	NUMBER // 123, 45.67, 1e10
	STRING // 'hello'

	// Operators and punctuation
	PLUS     // +
	MINUS    // -
	STAR     // *
	SLASH    // /
	PERCENT  // %
	DPIPE    // ||
	EQ       // =
	NE       // != or <>
	LT       // <
	GT       // >
	LE       // <=
	GE       // >=
	DOT      // .
	COMMA    // ,
	SEMI     // ;
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]

	// Keywords
	ADD
	ALL
	ALTER
	AND
	AS
	ASC
	BETWEEN
	BY
	CASE
	CHECK
	CONSTRAINT
	CREATE
	CROSS
	DEFAULT
	DELETE
	DESC
	DISTINCT
	DROP
	ELSE
	END
	EXISTS
	FOREIGN
	FROM
	FULL
	GROUP
	HAVING
	IF
	IN
	INDEX
	INNER
	INSERT
	INTO
	IS
	JOIN
	KEY
	LEFT
	LIKE
	LIMIT
	NOT
	NULL
	OFFSET
	ON
	OR
	ORDER
	OUTER
	PRIMARY
	REFERENCES
	RIGHT
	SELECT
	SET
	TABLE
	THEN
	UNION
	UNIQUE
	UPDATE
	USING
	VALUES
	VIEW
	WHEN
	WHERE
	WITH
)

// String returns a human-readable representation of the token type.
func (t Type) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// tokenNames maps token types to their string representations.
var tokenNames = map[Type]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",

	IDENT:  "IDENT",
	NUMBER: "NUMBER",
	STRING: "STRING",

	PLUS:     "+",
	MINUS:    "-",
	STAR:     "*",
	SLASH:    "/",
	PERCENT:  "%",
	DPIPE:    "||",
	EQ:       "=",
	NE:       "!=",
	LT:       "<",
	GT:       ">",
	LE:       "<=",
	GE:       ">=",
	DOT:      ".",
	COMMA:    ",",
	SEMI:     ";",
	LPAREN:   "(",
	RPAREN:   ")",
	LBRACKET: "[",
	RBRACKET: "]",

	ADD:        "ADD",
	ALL:        "ALL",
	ALTER:      "ALTER",
	AND:        "AND",
	AS:         "AS",
	ASC:        "ASC",
	BETWEEN:    "BETWEEN",
	BY:         "BY",
	CASE:       "CASE",
	CHECK:      "CHECK",
	CONSTRAINT: "CONSTRAINT",
	CREATE:     "CREATE",
	CROSS:      "CROSS",
	DEFAULT:    "DEFAULT",
	DELETE:     "DELETE",
	DESC:       "DESC",
	DISTINCT:   "DISTINCT",
	DROP:       "DROP",
	ELSE:       "ELSE",
	END:        "END",
	EXISTS:     "EXISTS",
	FOREIGN:    "FOREIGN",
	FROM:       "FROM",
	FULL:       "FULL",
	GROUP:      "GROUP",
	HAVING:     "HAVING",
	IF:         "IF",
	IN:         "IN",
	INDEX:      "INDEX",
	INNER:      "INNER",
	INSERT:     "INSERT",
	INTO:       "INTO",
	IS:         "IS",
	JOIN:       "JOIN",
	KEY:        "KEY",
	LEFT:       "LEFT",
	LIKE:       "LIKE",
	LIMIT:      "LIMIT",
	NOT:        "NOT",
	NULL:       "NULL",
	OFFSET:     "OFFSET",
	ON:         "ON",
	OR:         "OR",
	ORDER:      "ORDER",
	OUTER:      "OUTER",
	PRIMARY:    "PRIMARY",
	REFERENCES: "REFERENCES",
	RIGHT:      "RIGHT",
	SELECT:     "SELECT",
	SET:        "SET",
	TABLE:      "TABLE",
	THEN:       "THEN",
	UNION:      "UNION",
	UNIQUE:     "UNIQUE",
	UPDATE:     "UPDATE",
	USING:      "USING",
	VALUES:     "VALUES",
	VIEW:       "VIEW",
	WHEN:       "WHEN",
	WHERE:      "WHERE",
	WITH:       "WITH",
}

// keywords maps lowercase keyword strings to their token types.
var keywords = map[string]Type{
	"add":        ADD,
	"all":        ALL,
	"alter":      ALTER,
	"and":        AND,
	"as":         AS,
	"asc":        ASC,
	"between":    BETWEEN,
	"by":         BY,
	"case":       CASE,
	"check":      CHECK,
	"constraint": CONSTRAINT,
	"create":     CREATE,
	"cross":      CROSS,
	"default":    DEFAULT,
	"delete":     DELETE,
	"desc":       DESC,
	"distinct":   DISTINCT,
	"drop":       DROP,
	"else":       ELSE,
	"end":        END,
	"exists":     EXISTS,
	"foreign":    FOREIGN,
	"from":       FROM,
	"full":       FULL,
	"group":      GROUP,
	"having":     HAVING,
	"if":         IF,
	"in":         IN,
	"index":      INDEX,
	"inner":      INNER,
	"insert":     INSERT,
	"into":       INTO,
	"is":         IS,
	"join":       JOIN,
	"key":        KEY,
	"left":       LEFT,
	"like":       LIKE,
	"limit":      LIMIT,
	"not":        NOT,
	"null":       NULL,
	"offset":     OFFSET,
	"on":         ON,
	"or":         OR,
	"order":      ORDER,
	"outer":      OUTER,
	"primary":    PRIMARY,
	"references": REFERENCES,
	"right":      RIGHT,
	"select":     SELECT,
	"set":        SET,
	"table":      TABLE,
	"then":       THEN,
	"union":      UNION,
	"unique":     UNIQUE,
	"update":     UPDATE,
	"using":      USING,
	"values":     VALUES,
	"view":       VIEW,
	"when":       WHEN,
	"where":      WHERE,
	"with":       WITH,
}

// LookupIdent returns the token type for the given lowercase identifier.
// If the identifier is a keyword, the keyword token type is returned.
// Otherwise, IDENT is returned.
func LookupIdent(ident string) Type {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword returns true if the token type is a keyword.
func IsKeyword(t Type) bool {
	return t >= ADD && t <= WITH
}

// IsOperator returns true if the token type is an operator or punctuation.
func IsOperator(t Type) bool {
	return t >= PLUS && t <= RBRACKET
}

// IsComparison returns true if the token type is a comparison operator.
func IsComparison(t Type) bool {
	switch t {
	case EQ, NE, LT, GT, LE, GE:
		return true
	}
	return false
}

// Token represents a lexical token with position information.
type Token struct {
	Type    Type
	Literal string
	Pos     Position
}
