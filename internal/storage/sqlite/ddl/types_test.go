package ddl

import (
	"testing"

	"carcrash/internal/table"
)

func TestMapType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   table.Type
		want string
	}{
		{table.TypeText, "TEXT"},
		{table.TypeInteger, "INTEGER"},
		{table.TypeFloat, "REAL"},
		{table.TypeBoolean, "INTEGER"},
		{table.Type(42), "TEXT"},
	}
	for _, tt := range tests {
		if got := MapType(tt.in); got != tt.want {
			t.Errorf("MapType(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
