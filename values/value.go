// Package values implements the typed evaluation stack of spec.md §3.3/§4.3:
// a tagged union of scalars, string descriptors and array descriptors, plus
// the coercion rules the assignment and expression engines share.
package values

import (
	"fmt"

	"github.com/brandygo/brandy/errs"
	"github.com/brandygo/brandy/workspace"
)

// Kind identifies a StackValue's variant. Numeric values follow spec.md
// §3.3's kind-code table so DestKind (package assign) can reuse them
// directly rather than inventing a second numbering.
type Kind int

const (
	KindInvalid Kind = iota
	KindInt32   Kind = 2
	KindFloat   Kind = 3
	KindString  Kind = 4
	KindStrTemp Kind = 5
	KindInt64   Kind = 6
	KindUint8   Kind = 7

	KindIntArray   Kind = 10
	KindFloatArray Kind = 11
	KindStrArray   Kind = 12
	KindInt64Array Kind = 14
	KindUint8Array Kind = 15

	// Array-temporary variants: the array-typed cousin of KindStrTemp,
	// produced by an array-valued expression. Ownership of the backing
	// storage transfers to whoever pops it.
	KindIntArrayTemp   Kind = 20
	KindFloatArrayTemp Kind = 21
	KindStrArrayTemp   Kind = 22
	KindInt64ArrayTemp Kind = 24
	KindUint8ArrayTemp Kind = 25
)

func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "INT32"
	case KindFloat:
		return "FLOAT"
	case KindString:
		return "STRING"
	case KindStrTemp:
		return "STRTEMP"
	case KindInt64:
		return "INT64"
	case KindUint8:
		return "UINT8"
	case KindIntArray:
		return "INTARRAY"
	case KindFloatArray:
		return "FLOATARRAY"
	case KindStrArray:
		return "STRARRAY"
	case KindInt64Array:
		return "INT64ARRAY"
	case KindUint8Array:
		return "UINT8ARRAY"
	case KindIntArrayTemp, KindFloatArrayTemp, KindStrArrayTemp, KindInt64ArrayTemp, KindUint8ArrayTemp:
		return "*ATEMP"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsArray reports whether the kind is any array or array-temporary variant.
func (k Kind) IsArray() bool {
	switch k {
	case KindIntArray, KindFloatArray, KindStrArray, KindInt64Array, KindUint8Array,
		KindIntArrayTemp, KindFloatArrayTemp, KindStrArrayTemp, KindInt64ArrayTemp, KindUint8ArrayTemp:
		return true
	default:
		return false
	}
}

// IsArrayTemp reports whether the kind is an owned array-temporary.
func (k Kind) IsArrayTemp() bool {
	switch k {
	case KindIntArrayTemp, KindFloatArrayTemp, KindStrArrayTemp, KindInt64ArrayTemp, KindUint8ArrayTemp:
		return true
	default:
		return false
	}
}

// StringDescriptor is a (address, length) reference into the string heap.
// It does not own its bytes unless Owned is set (the STRTEMP case).
type StringDescriptor struct {
	Addr  uint32
	Len   int
	Owned bool

	// freed is shared by every copy of a given owning descriptor (StackValue
	// and its StringDescriptor are plain structs, copied by value on every
	// push/pop), so a double Release is detectable no matter which copy
	// calls it. nil for non-owning descriptors.
	freed *bool
}

// ArrayDescriptor describes an array's shape and backing storage, shared by
// the five array element kinds and their *ATEMP counterparts.
type ArrayDescriptor struct {
	ElementKind Kind
	Dims        []int // per-dimension upper bound (inclusive, BASIC style)
	Data        interface{}
	Owned       bool // true for *ATEMP: the consumer must release Data

	// freed mirrors StringDescriptor.freed, guarding *ATEMP double release.
	freed *bool
}

// Count returns the total element count implied by Dims.
func (a *ArrayDescriptor) Count() int {
	n := 1
	for _, d := range a.Dims {
		n *= d + 1
	}
	return n
}

// StackValue is the tagged union pushed and popped by the evaluator and the
// assignment engine.
type StackValue struct {
	Kind   Kind
	Int32  int32
	Int64  int64
	Uint8  byte
	Float  float64
	Str    StringDescriptor
	Array  *ArrayDescriptor
}

// Int32Value constructs a plain INT32 stack value.
func Int32Value(v int32) StackValue { return StackValue{Kind: KindInt32, Int32: v} }

// Int64Value constructs a plain INT64 stack value.
func Int64Value(v int64) StackValue { return StackValue{Kind: KindInt64, Int64: v} }

// Uint8Value constructs a plain UINT8 stack value.
func Uint8Value(v byte) StackValue { return StackValue{Kind: KindUint8, Uint8: v} }

// FloatValue constructs a plain FLOAT stack value.
func FloatValue(v float64) StackValue { return StackValue{Kind: KindFloat, Float: v} }

// StringValue constructs a non-owning STRING stack value.
func StringValue(addr uint32, length int) StackValue {
	return StackValue{Kind: KindString, Str: StringDescriptor{Addr: addr, Len: length}}
}

// StrTempValue constructs an owning STRTEMP stack value: the consumer must
// call Release exactly once.
func StrTempValue(addr uint32, length int) StackValue {
	return StackValue{Kind: KindStrTemp, Str: StringDescriptor{Addr: addr, Len: length, Owned: true, freed: new(bool)}}
}

// IsNumeric reports whether the value is one of the scalar numeric kinds.
func (v StackValue) IsNumeric() bool {
	switch v.Kind {
	case KindInt32, KindInt64, KindUint8, KindFloat:
		return true
	default:
		return false
	}
}

// IsString reports whether the value is STRING or STRTEMP.
func (v StackValue) IsString() bool {
	return v.Kind == KindString || v.Kind == KindStrTemp
}

// Release frees the heap storage an owned STRTEMP or *ATEMP value holds,
// exactly once (spec.md §8.1's "no heap string is freed twice" invariant).
// Values that don't own heap storage (plain STRING aliases, numeric kinds)
// are a no-op. Passing a nil ws marks the value consumed without
// physically reclaiming its heap block — the case where ownership has
// moved somewhere else (a variable's own descriptor now aliases the same
// bytes) rather than ended.
func (v StackValue) Release(ws *workspace.Workspace) {
	switch {
	case v.Kind == KindStrTemp:
		if !v.Str.Owned || v.Str.freed == nil {
			return
		}
		if *v.Str.freed {
			panic(errs.Raise(errs.Broken, 0, "STRTEMP released twice"))
		}
		*v.Str.freed = true
		if ws != nil {
			ws.FreeString(v.Str.Addr, v.Str.Len)
		}
	case v.Kind.IsArrayTemp():
		if v.Array == nil || v.Array.freed == nil {
			return
		}
		if *v.Array.freed {
			panic(errs.Raise(errs.Broken, 0, "*ATEMP released twice"))
		}
		*v.Array.freed = true
	}
}
