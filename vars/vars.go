// Package vars implements the variable store of spec.md §4.4: a set of
// named bindings keyed by lower-cased identifier spelling, plus the fixed
// A%..Z% and @% static table of §3.6. Lookup is grounded on the teacher's
// map-backed SymbolTable (parser/symbols.go), generalized from assembler
// symbols to BASIC's five scalar kinds, arrays, and deferred procedure/
// function definitions.
package vars

import (
	"strings"

	"github.com/brandygo/brandy/errs"
	"github.com/brandygo/brandy/values"
)

// Kind distinguishes the shape of a Variable, independent of its suffix
// character (which only disambiguates at parse time).
type Kind int

const (
	KindScalarInt32 Kind = iota
	KindScalarInt64
	KindScalarUint8
	KindScalarFloat
	KindScalarString
	KindArray
	KindProcFunc
	KindLibrary
)

func (k Kind) String() string {
	switch k {
	case KindScalarInt32:
		return "INT32"
	case KindScalarInt64:
		return "INT64"
	case KindScalarUint8:
		return "UINT8"
	case KindScalarFloat:
		return "FLOAT"
	case KindScalarString:
		return "STRING"
	case KindArray:
		return "ARRAY"
	case KindProcFunc:
		return "PROC/FN"
	case KindLibrary:
		return "LIBRARY"
	default:
		return "UNKNOWN"
	}
}

// Variable is a single binding in the store. Exactly one of the payload
// fields is meaningful, selected by Kind.
type Variable struct {
	Name string
	Kind Kind

	Int32  int32
	Int64  int64
	Uint8  byte
	Float  float64
	Str    values.StringDescriptor
	Array  *values.ArrayDescriptor

	// DefLine and Params describe a lazily-parsed DEF PROC/FN entry: the
	// source line address of the DEF statement and its parameter suffix
	// kinds, filled in on first call (spec.md §4.4).
	DefLine int
	Params  []Kind

	// LibraryName and LibraryBase record a LIBRARY-mapped file's identity
	// and its base offset into the workspace.
	LibraryName string
	LibraryBase uint32
}

// Store is the hash-keyed variable table of component D plus the static
// A%..Z% / @% cells, which bypass hashing entirely since their index is
// known at parse time.
type Store struct {
	vars map[string]*Variable

	// Static holds A%..Z% (indices 0..25) and @% (index 26).
	Static [27]int32
}

// New creates an empty variable store.
func New() *Store {
	return &Store{vars: make(map[string]*Variable)}
}

// StaticIndex maps a single uppercase letter 'A'..'Z' to its static-table
// slot, or -1 if the letter is out of range. '@' maps to slot 26.
func StaticIndex(letter byte) int {
	switch {
	case letter == '@':
		return 26
	case letter >= 'A' && letter <= 'Z':
		return int(letter - 'A')
	case letter >= 'a' && letter <= 'z':
		return int(letter - 'a')
	default:
		return -1
	}
}

// key canonicalizes an identifier to the store's lookup form: lower-case,
// suffix preserved (suffix characters are never letters so case-folding the
// whole string is safe).
func key(name string) string {
	return strings.ToLower(name)
}

// Lookup finds an existing variable, without creating one and without
// raising VARMISS when it is absent.
func (s *Store) Lookup(name string) (*Variable, bool) {
	v, ok := s.vars[key(name)]
	return v, ok
}

// Get returns a variable for read access, raising VARMISS per spec.md §4.4
// if it has never been assigned.
func (s *Store) Get(name string, line int) (*Variable, error) {
	v, ok := s.vars[key(name)]
	if !ok {
		return nil, errs.Raise(errs.VarMiss, line, name)
	}
	return v, nil
}

// GetOrCreate returns the existing variable, or lazily creates one of the
// given kind — the assignment engine's entry point, since BASIC variables
// spring into existence on first store (spec.md §4.4).
func (s *Store) GetOrCreate(name string, kind Kind) *Variable {
	k := key(name)
	if v, ok := s.vars[k]; ok {
		return v
	}
	v := &Variable{Name: name, Kind: kind}
	s.vars[k] = v
	return v
}

// Delete removes a binding entirely (used by CLEAR/library unload paths).
func (s *Store) Delete(name string) {
	delete(s.vars, key(name))
}

// Clear empties the variable store and resets the static table, the
// variable-heap half of NEW/CLEAR (spec.md §4.2's clear_heap).
func (s *Store) Clear() {
	s.vars = make(map[string]*Variable)
	s.Static = [27]int32{}
}

// All returns every bound variable, for LVAR.
func (s *Store) All() []*Variable {
	out := make([]*Variable, 0, len(s.vars))
	for _, v := range s.vars {
		out = append(out, v)
	}
	return out
}

// KindFromSuffix derives a scalar Kind from an identifier's trailing
// sigil, per spec.md §4.4's suffix table. A name with no recognised suffix
// gives FLOAT; so does an array-suffixed name, since the trailing '(' hides
// the sigil, so callers strip the '(' first.
func KindFromSuffix(name string) Kind {
	switch {
	case strings.HasSuffix(name, "%%"):
		return KindScalarInt64
	case strings.HasSuffix(name, "%"):
		return KindScalarInt32
	case strings.HasSuffix(name, "&"):
		return KindScalarUint8
	case strings.HasSuffix(name, "$"):
		return KindScalarString
	default:
		return KindScalarFloat
	}
}

// DefineProc records a lazily-discovered PROC/FN entry the first time it is
// called, per spec.md §4.4.
func (s *Store) DefineProc(name string, defLine int, params []Kind) *Variable {
	v := s.GetOrCreate(name, KindProcFunc)
	v.DefLine = defLine
	v.Params = params
	return v
}
