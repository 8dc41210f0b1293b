package values

import "github.com/brandygo/brandy/errs"

// ValueStack is the typed LIFO of component C: a plain Go slice standing in
// for the teacher's workspace-backed register file, since BASIC's value
// stack holds variant-typed entries rather than fixed 32-bit words. The
// "grows downward toward VARTOP" geometry of spec.md §4.3 is modeled by
// limit, a capacity checked on every push exactly as the teacher's stack
// segment is checked against its bounds before a write.
type ValueStack struct {
	entries []StackValue
	limit   int
}

// NewValueStack creates an empty stack that raises STACKFULL once it would
// hold more than limit entries.
func NewValueStack(limit int) *ValueStack {
	return &ValueStack{entries: make([]StackValue, 0, 64), limit: limit}
}

// Len returns the number of values currently on the stack.
func (s *ValueStack) Len() int { return len(s.entries) }

// Empty reports whether the stack holds no values — the "safe stack"
// predicate of spec.md §4.3 that gates HIMEM resizing, and the condition
// checked by the stack-balance invariant of §8.1.
func (s *ValueStack) Empty() bool { return len(s.entries) == 0 }

// Push appends a value, raising STACKFULL if doing so would exceed limit.
func (s *ValueStack) Push(v StackValue) error {
	if len(s.entries) >= s.limit {
		return errs.Raise(errs.StackFull, 0)
	}
	s.entries = append(s.entries, v)
	return nil
}

// PushInt32, PushInt64, PushUint8, PushFloat are the typed push
// helpers named directly after the source's push_int/push_int64/... family
// (spec.md §4.3).
func (s *ValueStack) PushInt32(v int32) error  { return s.Push(Int32Value(v)) }
func (s *ValueStack) PushInt64(v int64) error  { return s.Push(Int64Value(v)) }
func (s *ValueStack) PushUint8(v byte) error   { return s.Push(Uint8Value(v)) }
func (s *ValueStack) PushFloat(v float64) error { return s.Push(FloatValue(v)) }

// PushArrayTemp pushes an array-temporary, marking it owned so the consumer must
// eventually call Release on the popped value.
func (s *ValueStack) PushArrayTemp(desc *ArrayDescriptor) error {
	desc.Owned = true
	if desc.freed == nil {
		desc.freed = new(bool)
	}
	kind := arrayTempKindFor(desc.ElementKind)
	return s.Push(StackValue{Kind: kind, Array: desc})
}

func arrayTempKindFor(elem Kind) Kind {
	switch elem {
	case KindIntArray:
		return KindIntArrayTemp
	case KindFloatArray:
		return KindFloatArrayTemp
	case KindStrArray:
		return KindStrArrayTemp
	case KindInt64Array:
		return KindInt64ArrayTemp
	case KindUint8Array:
		return KindUint8ArrayTemp
	default:
		return KindInvalid
	}
}

// Pop removes and returns the top value. Popping an empty stack is BROKEN:
// every caller in this interpreter knows, from the grammar, how many values
// it pushed and must pop exactly that many before returning.
func (s *ValueStack) Pop() (StackValue, error) {
	if len(s.entries) == 0 {
		return StackValue{}, errs.Raise(errs.Broken, 0, "pop from empty value stack")
	}
	n := len(s.entries) - 1
	v := s.entries[n]
	s.entries = s.entries[:n]
	return v, nil
}

// Peek returns the top value without removing it.
func (s *ValueStack) Peek() (StackValue, error) {
	if len(s.entries) == 0 {
		return StackValue{}, errs.Raise(errs.Broken, 0, "peek on empty value stack")
	}
	return s.entries[len(s.entries)-1], nil
}

// PopAnyNum32 pops the top value and coerces it to int32 per §4.3's table.
func (s *ValueStack) PopAnyNum32(line int) (int32, error) {
	v, err := s.Pop()
	if err != nil {
		return 0, err
	}
	return AnyNum32(v, line)
}

// PopAnyNum64 pops the top value and coerces it to int64.
func (s *ValueStack) PopAnyNum64(line int) (int64, error) {
	v, err := s.Pop()
	if err != nil {
		return 0, err
	}
	return AnyNum64(v, line)
}

// PopAnyNumFP pops the top value and coerces it to float64.
func (s *ValueStack) PopAnyNumFP(line int) (float64, error) {
	v, err := s.Pop()
	if err != nil {
		return 0, err
	}
	return AnyNumFP(v, line)
}

// Reset empties the stack without releasing any pending STRTEMP/*ATEMP
// ownership — callers that abandon a statement mid-evaluation (an error
// unwind) are responsible for releasing via the heap they came from; this
// mirrors the source dialect tolerating partial mutation on an aborted
// statement (spec.md §5).
func (s *ValueStack) Reset() {
	s.entries = s.entries[:0]
}
