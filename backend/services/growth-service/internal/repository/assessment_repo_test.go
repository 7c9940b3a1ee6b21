package repository

import (
	"database/sql"
	"testing"
)

func TestClampLimit(t *testing.T) {
	cases := map[int]int{-1: DefaultListLimit, 0: DefaultListLimit, 5: 5, MaxListLimit: MaxListLimit, 10_000: MaxListLimit}
	for in, want := range cases {
		if got := ClampLimit(in); got != want {
			t.Fatalf("ClampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestNullableFloats(t *testing.T) {
	if nullFloat(nil).Valid {
		t.Fatalf("nil should map to NULL")
	}
	v := 1.5
	if got := nullFloat(&v); !got.Valid || got.Float64 != 1.5 {
		t.Fatalf("unexpected %+v", got)
	}
	if floatPtr(sql.NullFloat64{}) != nil {
		t.Fatalf("NULL should map to nil")
	}
	if p := floatPtr(sql.NullFloat64{Float64: 2, Valid: true}); p == nil || *p != 2 {
		t.Fatalf("unexpected pointer %v", p)
	}
}
