package vars_test

import (
	"testing"

	"github.com/brandygo/brandy/vars"
)

func TestGetOrCreate_IsLazyAndCaseInsensitive(t *testing.T) {
	s := vars.New()
	v1 := s.GetOrCreate("Count%", vars.KindScalarInt32)
	v1.Int32 = 42

	v2, ok := s.Lookup("count%")
	if !ok {
		t.Fatal("expected lookup to find variable by case-folded name")
	}
	if v2.Int32 != 42 {
		t.Errorf("got %d, want 42", v2.Int32)
	}
}

func TestGet_MissingRaisesVarMiss(t *testing.T) {
	s := vars.New()
	_, err := s.Get("nosuch%", 10)
	if err == nil {
		t.Fatal("expected error for undefined variable")
	}
}

func TestKindFromSuffix(t *testing.T) {
	tests := []struct {
		name string
		want vars.Kind
	}{
		{"a%", vars.KindScalarInt32},
		{"a%%", vars.KindScalarInt64},
		{"a&", vars.KindScalarUint8},
		{"a$", vars.KindScalarString},
		{"a", vars.KindScalarFloat},
	}
	for _, tt := range tests {
		if got := vars.KindFromSuffix(tt.name); got != tt.want {
			t.Errorf("KindFromSuffix(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestStaticIndex(t *testing.T) {
	if vars.StaticIndex('A') != 0 {
		t.Errorf("A should map to slot 0")
	}
	if vars.StaticIndex('Z') != 25 {
		t.Errorf("Z should map to slot 25")
	}
	if vars.StaticIndex('@') != 26 {
		t.Errorf("@ should map to slot 26")
	}
	if vars.StaticIndex('!') != -1 {
		t.Errorf("! should be out of range")
	}
}

func TestClear_ResetsStoreAndStatics(t *testing.T) {
	s := vars.New()
	s.GetOrCreate("x", vars.KindScalarFloat)
	s.Static[0] = 99

	s.Clear()

	if _, ok := s.Lookup("x"); ok {
		t.Error("expected variable table to be emptied")
	}
	if s.Static[0] != 0 {
		t.Error("expected static table to be reset")
	}
}

func TestDelete_RemovesBinding(t *testing.T) {
	s := vars.New()
	s.GetOrCreate("x$", vars.KindScalarString)
	s.Delete("x$")

	if _, ok := s.Lookup("x$"); ok {
		t.Error("expected variable to be removed")
	}
}
