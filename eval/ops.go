package eval

import (
	"math"

	"github.com/brandygo/brandy/errs"
	"github.com/brandygo/brandy/values"
)

// widestNumericKind picks the result kind for a binary numeric operation:
// FLOAT dominates, then INT64, then INT32/UINT8 fold to INT32 — matching
// the "any integer -> FLOAT is exact" and INT64-widens-INT32 rules of
// spec.md §4.3.
func widestNumericKind(a, b values.Kind) values.Kind {
	if a == values.KindFloat || b == values.KindFloat {
		return values.KindFloat
	}
	if a == values.KindInt64 || b == values.KindInt64 {
		return values.KindInt64
	}
	return values.KindInt32
}

func negate(v values.StackValue, line int) (values.StackValue, error) {
	switch v.Kind {
	case values.KindInt32:
		return values.Int32Value(-v.Int32), nil
	case values.KindInt64:
		return values.Int64Value(-v.Int64), nil
	case values.KindUint8:
		return values.Int32Value(-int32(v.Uint8)), nil
	case values.KindFloat:
		return values.FloatValue(-v.Float), nil
	default:
		return values.StackValue{}, errs.Raise(errs.TypeNum, line)
	}
}

func logicalNot(v values.StackValue, line int) (values.StackValue, error) {
	n, err := values.AnyNum32(v, line)
	if err != nil {
		return values.StackValue{}, err
	}
	return values.Int32Value(^n), nil
}

func power(base, exp values.StackValue, line int) (values.StackValue, error) {
	b, err := values.AnyNumFP(base, line)
	if err != nil {
		return values.StackValue{}, err
	}
	x, err := values.AnyNumFP(exp, line)
	if err != nil {
		return values.StackValue{}, err
	}
	return values.FloatValue(math.Pow(b, x)), nil
}

// applyBinary dispatches on whichever of numeric/string/comparison shape
// the operands present, mirroring spec.md §4.7's per-precedence-level
// result rules.
func (e *Evaluator) applyBinary(left, right values.StackValue, op string) (values.StackValue, error) {
	if left.IsString() && right.IsString() && op == "+" {
		return e.concatStrings(left, right)
	}

	switch op {
	case "=", "<>", "<", ">", "<=", ">=":
		return e.compare(left, right, op)
	}

	if !left.IsNumeric() || !right.IsNumeric() {
		return values.StackValue{}, errs.Raise(errs.TypeNum, e.line)
	}

	kind := widestNumericKind(left.Kind, right.Kind)
	switch op {
	case "AND", "OR", "EOR", "<<", ">>", ">>>":
		return bitwise(left, right, op, kind, e.line)
	case "DIV", "MOD":
		return intDivMod(left, right, op, kind, e.line)
	}

	if kind == values.KindFloat {
		a, err := values.AnyNumFP(left, e.line)
		if err != nil {
			return values.StackValue{}, err
		}
		b, err := values.AnyNumFP(right, e.line)
		if err != nil {
			return values.StackValue{}, err
		}
		switch op {
		case "+":
			return values.FloatValue(a + b), nil
		case "-":
			return values.FloatValue(a - b), nil
		case "*":
			return values.FloatValue(a * b), nil
		case "/":
			if b == 0 {
				return values.StackValue{}, errs.Raise(errs.DivZero, e.line)
			}
			return values.FloatValue(a / b), nil
		}
	}

	a, err := values.AnyNum64(left, e.line)
	if err != nil {
		return values.StackValue{}, err
	}
	b, err := values.AnyNum64(right, e.line)
	if err != nil {
		return values.StackValue{}, err
	}
	var r int64
	switch op {
	case "+":
		r = a + b
	case "-":
		r = a - b
	case "*":
		r = a * b
	case "/":
		if b == 0 {
			return values.StackValue{}, errs.Raise(errs.DivZero, e.line)
		}
		r = a / b
	default:
		return values.StackValue{}, errs.Raise(errs.BadOper, e.line, op)
	}
	if kind == values.KindInt32 {
		if r < values.MinInt32Val || r > values.MaxInt32Val {
			r = int64(int32(r)) // arithmetic overflow wraps modulo 2^32, per §4.8.3
		}
		return values.Int32Value(int32(r)), nil
	}
	return values.Int64Value(r), nil
}

// concatStrings implements string "+": reads both operands' real bytes,
// allocates a fresh STRTEMP holding the concatenation, and releases any
// owned source operand now that its bytes have been copied out rather than
// adopted (spec.md §9's "String heap aliasing" note — a source consumed by
// copy is freed, not adopted).
func (e *Evaluator) concatStrings(left, right values.StackValue) (values.StackValue, error) {
	a, err := e.vars.ReadStringBytes(left.Str, e.line)
	if err != nil {
		return values.StackValue{}, err
	}
	b, err := e.vars.ReadStringBytes(right.Str, e.line)
	if err != nil {
		return values.StackValue{}, err
	}
	e.vars.ReleaseValue(left)
	e.vars.ReleaseValue(right)
	desc, err := e.vars.AllocString(a+b, e.line)
	if err != nil {
		return values.StackValue{}, err
	}
	return values.StrTempValue(desc.Addr, desc.Len), nil
}

func (e *Evaluator) compare(left, right values.StackValue, op string) (values.StackValue, error) {
	line := e.line
	var lt, eq bool
	if left.IsString() && right.IsString() {
		a, err := e.vars.ReadStringBytes(left.Str, line)
		if err != nil {
			return values.StackValue{}, err
		}
		b, err := e.vars.ReadStringBytes(right.Str, line)
		if err != nil {
			return values.StackValue{}, err
		}
		e.vars.ReleaseValue(left)
		e.vars.ReleaseValue(right)
		lt = a < b
		eq = a == b
	} else {
		a, err := values.AnyNumFP(left, line)
		if err != nil {
			return values.StackValue{}, err
		}
		b, err := values.AnyNumFP(right, line)
		if err != nil {
			return values.StackValue{}, err
		}
		lt = a < b
		eq = a == b
	}
	var result bool
	switch op {
	case "=":
		result = eq
	case "<>":
		result = !eq
	case "<":
		result = lt
	case ">":
		result = !lt && !eq
	case "<=":
		result = lt || eq
	case ">=":
		result = !lt
	}
	if result {
		return values.Int32Value(-1), nil // BASIC TRUE is all-ones
	}
	return values.Int32Value(0), nil
}

func bitwise(left, right values.StackValue, op string, kind values.Kind, line int) (values.StackValue, error) {
	// Bitwise ops on FLOAT convert through INT64 and back, lossy above
	// 2^53 by design (spec.md §4.8.3).
	a, err := values.AnyNum64(left, line)
	if err != nil {
		return values.StackValue{}, err
	}
	b, err := values.AnyNum64(right, line)
	if err != nil {
		return values.StackValue{}, err
	}
	var r int64
	switch op {
	case "AND":
		r = a & b
	case "OR":
		r = a | b
	case "EOR":
		r = a ^ b
	case "<<":
		r = a << uint(b)
	case ">>":
		r = a >> uint(b)
	case ">>>":
		r = int64(uint64(a) >> uint(b))
	}
	switch kind {
	case values.KindFloat:
		return values.FloatValue(float64(r)), nil
	case values.KindInt64:
		return values.Int64Value(r), nil
	default:
		return values.Int32Value(int32(r)), nil
	}
}

func intDivMod(left, right values.StackValue, op string, kind values.Kind, line int) (values.StackValue, error) {
	a, err := values.AnyNum64(left, line)
	if err != nil {
		return values.StackValue{}, err
	}
	b, err := values.AnyNum64(right, line)
	if err != nil {
		return values.StackValue{}, err
	}
	if b == 0 {
		return values.StackValue{}, errs.Raise(errs.DivZero, line)
	}
	var r int64
	if op == "DIV" {
		r = a / b
	} else {
		r = a % b
	}
	if kind == values.KindFloat {
		return values.FloatValue(float64(r)), nil
	}
	if kind == values.KindInt32 {
		return values.Int32Value(int32(r)), nil
	}
	return values.Int64Value(r), nil
}
