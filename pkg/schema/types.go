package schema

import "strings"

// BaseType is the coarse category a column type is folded into. Exact
// dialect types are not preserved; only the category survives extraction.
type BaseType int

const (
	TypeUnknown BaseType = iota
	TypeNumeric
	TypeBoolean
	TypeCurrency
	TypeString
	TypeSet
	TypeBinary
	TypeID
	TypeDateTime
	TypeOther
)

// String returns the category name.
func (b BaseType) String() string {
	switch b {
	case TypeNumeric:
		return "numeric"
	case TypeBoolean:
		return "boolean"
	case TypeCurrency:
		return "currency"
	case TypeString:
		return "string"
	case TypeSet:
		return "set"
	case TypeBinary:
		return "binary"
	case TypeID:
		return "id"
	case TypeDateTime:
		return "datetime"
	case TypeOther:
		return "other"
	}
	return "unknown"
}

// typeKeyword pairs a type-name fragment with its category. The list is
// ordered: matching stops at the first fragment contained in the declared
// type, so broader fragments like "int" sit late enough not to shadow
// narrower ones.
type typeKeyword struct {
	fragment string
	category BaseType
}

var typeKeywords = []typeKeyword{
	{"varchar", TypeString},
	{"serial", TypeNumeric},
	{"long", TypeNumeric},
	{"uuid", TypeID},
	{"bytea", TypeBinary},
	{"json", TypeString},
	{"string", TypeString},
	{"char", TypeString},
	{"binary", TypeBinary},
	{"blob", TypeBinary},
	{"clob", TypeString},
	{"text", TypeString},
	{"enum", TypeString},
	{"set", TypeSet},
	{"number", TypeNumeric},
	{"numeric", TypeNumeric},
	{"bit", TypeNumeric},
	{"int", TypeNumeric},
	{"bool", TypeBoolean},
	{"float", TypeNumeric},
	{"double", TypeNumeric},
	{"decimal", TypeNumeric},
	{"date", TypeDateTime},
	{"time", TypeDateTime},
	{"year", TypeDateTime},
	{"image", TypeBinary},
	{"real", TypeNumeric},
	{"identifier", TypeID},
	{"raw", TypeBinary},
	{"graphic", TypeBinary},
	{"money", TypeCurrency},
	{"geography", TypeOther},
	{"cursor", TypeOther},
	{"rowversion", TypeBinary},
	{"hierarchyid", TypeID},
	{"uniqueidentifier", TypeID},
	{"sql_variant", TypeOther},
	{"xml", TypeString},
	{"inet", TypeOther},
	{"cidr", TypeOther},
	{"macaddr", TypeOther},
	{"point", TypeOther},
	{"line", TypeOther},
	{"lseg", TypeOther},
	{"box", TypeOther},
	{"path", TypeOther},
	{"polygon", TypeOther},
	{"circle", TypeOther},
	{"regproc", TypeOther},
	{"tsvector", TypeOther},
	{"sysname", TypeString},
}

// InferType folds a declared column type into its category. The declared
// type is matched case-insensitively against the fragment list, so
// "BIGINT", "int4" and "integer" all land on numeric. A type that matches
// no fragment yields TypeUnknown and false: column definitions with
// unrecognized types are dropped rather than guessed at.
func InferType(declared string) (BaseType, bool) {
	lowered := strings.ToLower(strings.TrimSpace(declared))
	if lowered == "" {
		return TypeUnknown, false
	}
	for _, kw := range typeKeywords {
		if strings.Contains(lowered, kw.fragment) {
			return kw.category, true
		}
	}
	return TypeUnknown, false
}
