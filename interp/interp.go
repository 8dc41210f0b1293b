// Package interp ties together the other components behind a single
// mutable context, replacing the source's process-wide `basicvars` global
// with an explicit struct threaded by reference to every handler (the port
// guidance of spec.md §9, "Global interpreter state"). Its field layout is
// grounded on the teacher's VM struct (vm/executor.go): CPU/Memory/State
// there become Vars/Workspace/Stack/Program here, and ExecutionTrace/
// LastError carry over directly as Trace/LastError.
package interp

import (
	"io"
	"os"
	"time"

	"github.com/brandygo/brandy/assign"
	"github.com/brandygo/brandy/errs"
	"github.com/brandygo/brandy/program"
	"github.com/brandygo/brandy/pseudovar"
	"github.com/brandygo/brandy/trace"
	"github.com/brandygo/brandy/values"
	"github.com/brandygo/brandy/vars"
	"github.com/brandygo/brandy/workspace"
)

// RunState mirrors the teacher's ExecutionState enum, generalized from
// ARM-emulator phases to the BASIC command/program split.
type RunState int

const (
	StateStopped RunState = iota
	StateRunning
	StateImmediate
)

// ErrorHandler records an installed ON ERROR target: the line to resume at
// and whether it is a LOCAL handler nested on the handler stack (spec.md
// §5's "ON ERROR LOCAL saves/restores handler state... LIFO").
type ErrorHandler struct {
	Line  int
	Local bool
}

// Interpreter is the single mutable context passed to every component,
// equivalent in role to the teacher's *vm.VM.
type Interpreter struct {
	Workspace *workspace.Workspace
	Vars      *vars.Store
	Stack     *values.ValueStack
	Program   *program.Program

	State RunState

	// CurLine is the line currently executing, or 0 in immediate mode —
	// substituted into error messages and consulted by COMMAND checks.
	CurLine int

	// LastError records the most recently raised error, readable via ERR/
	// REPORT$ after ON ERROR intercepts it (spec.md §7).
	LastError *errs.Error

	// ErrorHandlers is the LIFO stack of ON ERROR LOCAL targets; the
	// topmost entry is the active handler.
	ErrorHandlers []ErrorHandler

	// Escape is set by an OS-level signal or key poller and sampled at
	// statement boundaries (spec.md §5).
	Escape bool

	// Output is where PRINT and friends write; defaults to os.Stdout, the
	// same pattern as the teacher's VM.OutputWriter.
	Output io.Writer

	Trace *trace.Trace

	// LastSaveName supports get_savefile's priority order (spec.md §4.9.2).
	LastSaveName string

	FilePath string

	// BootTime anchors the TIME pseudo-variable's centisecond counter
	// (spec.md §4.8.9): TIME reads elapsed time since this moment.
	BootTime time.Time

	// FormatWord is @%'s current PRINT-format control word (spec.md §4.8.8).
	// It starts as the all-zero word, under which PRINT renders a float in
	// its shortest round-trip form.
	FormatWord pseudovar.FormatWord
}

// New creates an Interpreter over a freshly allocated workspace of the
// given size.
func New(workspaceSize int) (*Interpreter, error) {
	ws, err := workspace.New(workspaceSize)
	if err != nil {
		return nil, err
	}
	return &Interpreter{
		Workspace: ws,
		Vars:      vars.New(),
		Stack:     values.NewValueStack(1024),
		Program:   program.New(),
		Output:    os.Stdout,
		Trace:     trace.New(),
		BootTime:  time.Now(),
	}, nil
}

// ReadScalar implements eval.VarLookup: it resolves a source identifier
// (with its suffix sigil) to a StackValue, checking the pseudo-variable
// vocabulary first (spec.md §4.8.9/§4.8.8) before falling through to an
// ordinary user variable, raising VARMISS on first read of an unbound name
// (spec.md §4.4).
func (in *Interpreter) ReadScalar(name string, line int) (values.StackValue, error) {
	if name == "@%" {
		return values.Int32Value(in.Vars.Static[26]), nil
	}
	if pseudovar.IsPseudoVar(name) {
		return pseudovar.Read(in.Workspace, name, in.BootTime, in.FilePath)
	}
	v, err := in.Vars.Get(name, line)
	if err != nil {
		return values.StackValue{}, err
	}
	switch v.Kind {
	case vars.KindScalarInt32:
		return values.Int32Value(v.Int32), nil
	case vars.KindScalarInt64:
		return values.Int64Value(v.Int64), nil
	case vars.KindScalarUint8:
		return values.Uint8Value(v.Uint8), nil
	case vars.KindScalarFloat:
		return values.FloatValue(v.Float), nil
	case vars.KindScalarString:
		return values.StackValue{Kind: values.KindString, Str: v.Str}, nil
	default:
		return values.StackValue{}, errs.Raise(errs.VarNum, line, name)
	}
}

// ReadStringBytes implements eval.VarLookup: it reads a string descriptor's
// real bytes off the workspace heap, the primitive string concatenation and
// comparison need instead of comparing descriptor lengths alone.
func (in *Interpreter) ReadStringBytes(desc values.StringDescriptor, line int) (string, error) {
	s, err := in.Workspace.ReadBytes(desc.Addr, desc.Len)
	if err != nil {
		return "", errs.Raise(errs.Address, line, desc.Addr)
	}
	return s, nil
}

// AllocString implements eval.VarLookup: it materializes s on the string
// heap and returns a descriptor for it, backing every string literal and
// concatenation result (spec.md §4.8.4).
func (in *Interpreter) AllocString(s string, line int) (values.StringDescriptor, error) {
	addr, err := in.Workspace.AllocString(s)
	if err != nil {
		return values.StringDescriptor{}, err
	}
	return values.StringDescriptor{Addr: addr, Len: len(s)}, nil
}

// ReleaseValue implements eval.VarLookup: it releases a STRTEMP/*ATEMP
// value's heap storage through this interpreter's workspace.
func (in *Interpreter) ReleaseValue(v values.StackValue) {
	v.Release(in.Workspace)
}

// ExecuteAssignment is the single write-dispatcher shared by immediate mode
// and the RUN loop: it resolves name to either a pseudo-variable write or
// an ordinary scalar Store write, applying op against rhs (spec.md §4.8).
func (in *Interpreter) ExecuteAssignment(name string, op assign.Operator, rhs values.StackValue, line int) error {
	if name == "@%" {
		return in.assignFormatWord(op, rhs, line)
	}
	if pseudovar.IsPseudoVar(name) {
		return in.assignPseudoVar(name, op, rhs, line)
	}
	dest, err := in.destForKind(name, op, rhs, line)
	if err != nil {
		return err
	}
	return assign.Assign(in.Workspace, dest, op, rhs, line)
}

// assignFormatWord implements `@%=` (spec.md §4.8.8): a string RHS is
// parsed as a format specifier ("F6.2", "+E10.4", "G0") against the
// current word, a numeric RHS packs the raw 32-bit control word directly.
// Only `=` is meaningful; @% isn't an ordinary arithmetic destination.
func (in *Interpreter) assignFormatWord(op assign.Operator, rhs values.StackValue, line int) error {
	if op != assign.OpAssign {
		return errs.Raise(errs.BadArith, line)
	}
	if rhs.IsString() {
		s, err := in.ReadStringBytes(rhs.Str, line)
		if err != nil {
			return err
		}
		in.ReleaseValue(rhs)
		in.FormatWord = pseudovar.ParseFormatString(s, in.FormatWord)
		in.Vars.Static[26] = in.FormatWord.Encode()
		return nil
	}
	n, err := values.AnyNum32(rhs, line)
	if err != nil {
		return err
	}
	in.Vars.Static[26] = n
	in.FormatWord = pseudovar.DecodeFormatWord(n)
	return nil
}

// assignPseudoVar implements writes to HIMEM/LOMEM/PAGE (the only writable
// pseudo-variables; TOP/VARTOP/TIME/TIME$/FILEPATH$ are read-only, spec.md
// §4.8.9).
func (in *Interpreter) assignPseudoVar(name string, op assign.Operator, rhs values.StackValue, line int) error {
	if op != assign.OpAssign {
		return errs.Raise(errs.BadArith, line)
	}
	n, err := values.AnyNum32(rhs, line)
	if err != nil {
		return err
	}
	switch name {
	case "HIMEM":
		if !in.Stack.Empty() {
			return errs.Raise(errs.HimemFixed, line)
		}
		return pseudovar.WriteHimem(in.Workspace, n)
	case "LOMEM":
		return pseudovar.WriteLomem(in.Workspace, n)
	case "PAGE":
		return pseudovar.WritePage(in.Workspace, n)
	default:
		return errs.Raise(errs.Broken, line, "pseudo-variable is read-only: "+name)
	}
}

// destForKind resolves an ordinary variable name to an assign.Dest,
// auto-vivifying it to zero/empty on first assignment per spec.md §4.4 —
// the kind is derived from the identifier's suffix sigil, exactly as
// vars.KindFromSuffix does for the rest of the interpreter.
func (in *Interpreter) destForKind(name string, op assign.Operator, rhs values.StackValue, line int) (assign.Dest, error) {
	v := in.Vars.GetOrCreate(name, vars.KindFromSuffix(name))
	switch v.Kind {
	case vars.KindScalarInt32:
		return assign.Dest{Kind: assign.DestInt32, Scalar: v}, nil
	case vars.KindScalarInt64:
		return assign.Dest{Kind: assign.DestInt64, Scalar: v}, nil
	case vars.KindScalarUint8:
		return assign.Dest{Kind: assign.DestUint8, Scalar: v}, nil
	case vars.KindScalarFloat:
		return assign.Dest{Kind: assign.DestFloat, Scalar: v}, nil
	case vars.KindScalarString:
		return assign.Dest{Kind: assign.DestString, Scalar: v}, nil
	default:
		return assign.Dest{}, errs.Raise(errs.Broken, line, "unresolved variable kind: "+name)
	}
}

// RaiseAndCatch runs raise semantics against any installed ON ERROR
// handler: a true Error unwinds to the topmost handler if one is
// installed (returning its target line so the caller's statement loop can
// jump there) or propagates to the command loop if none is. Warnings never
// reach here — errs.Raise already returns a plain, non-unwinding *Error for
// those (spec.md §7).
func (in *Interpreter) RaiseAndCatch(err error) (handledAt int, caught bool) {
	e, ok := errs.AsError(err)
	if !ok {
		return 0, false
	}
	in.LastError = e
	if len(in.ErrorHandlers) == 0 {
		return 0, false
	}
	h := in.ErrorHandlers[len(in.ErrorHandlers)-1]
	return h.Line, true
}

// PushErrorHandler installs an ON ERROR [LOCAL] target.
func (in *Interpreter) PushErrorHandler(line int, local bool) {
	in.ErrorHandlers = append(in.ErrorHandlers, ErrorHandler{Line: line, Local: local})
}

// PopErrorHandler implements RESTORE ERROR: removes the most recently
// installed handler.
func (in *Interpreter) PopErrorHandler() {
	if len(in.ErrorHandlers) == 0 {
		return
	}
	in.ErrorHandlers = in.ErrorHandlers[:len(in.ErrorHandlers)-1]
}

// CheckStackBalance implements the stack-balance invariant of spec.md
// §8.1: after a top-level statement that did not raise, the value stack
// must be empty. Callers invoke this between statements in non-raising
// paths; a violation is BROKEN, an interpreter defect rather than a user
// error.
func (in *Interpreter) CheckStackBalance() error {
	if !in.Stack.Empty() {
		return errs.Raise(errs.Broken, in.CurLine, "value stack not empty at statement boundary")
	}
	return nil
}
