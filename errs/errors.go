package errs

import (
	"fmt"
	"strings"
)

// Error is a raised interpreter error or warning. It carries enough context
// to reproduce the source dialect's "<message> at line <n>" report and to
// answer ERR/REPORT$ once caught.
type Error struct {
	Kind    Kind
	Line    int // 0 if raised from the command line, not a running program
	Args    []interface{}
	Context string // optional extra text (e.g. the offending identifier)
}

// New creates an Error for kind, recording args for Message to report.
func New(kind Kind, line int, args ...interface{}) *Error {
	return &Error{Kind: kind, Line: line, Args: args}
}

// WithContext attaches free text to an error (e.g. the bad token spelling).
func (e *Error) WithContext(ctx string) *Error {
	e.Context = ctx
	return e
}

// Message formats the kind's template with Args, the equivalent of the
// source dialect's REPORT$.
func (e *Error) Message() string {
	tmpl := e.Kind.Template()
	if len(e.Args) == 0 {
		if e.Context != "" {
			return tmpl + ": " + e.Context
		}
		return tmpl
	}
	// Args are appended in parentheses after the template; templates name no
	// verbs of their own, which keeps the registry free of per-kind format
	// strings.
	msg := fmt.Sprintf(tmpl+" (%s)", joinArgs(e.Args))
	if e.Context != "" {
		msg += ": " + e.Context
	}
	return msg
}

func joinArgs(args []interface{}) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return strings.Join(parts, ", ")
}

// Error implements the error interface. User-visible form matches spec.md
// §7: "<message> at line <n>", or without the line clause when immediate.
func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at line %d", e.Message(), e.Line)
	}
	return e.Message()
}

// IsWarning reports whether this error should return control to the next
// statement instead of unwinding to the command loop.
func (e *Error) IsWarning() bool {
	return e.Kind.Severity() == Warning
}

// Signal is the form Raise gives every non-warning error: the non-local
// transfer of spec.md §4.1/§7 modeled as an ordinary Go error type instead
// of a longjmp (see DESIGN NOTES §9). It has the same fields as Error;
// AsError converts either form back to a *Error.
type Signal Error

// Error implements the error interface with the same text as the Error it
// was raised from.
func (s *Signal) Error() string { return (*Error)(s).Error() }

// Raise constructs the Signal form of an error, the direct analogue of the
// source's raise(kind, args...) — callers return its result exactly as they
// would return any other error; there is no actual non-local jump in the Go
// port, only the discipline of propagating it unmodified to the catch point.
func Raise(kind Kind, line int, args ...interface{}) error {
	e := New(kind, line, args...)
	if e.IsWarning() {
		return e
	}
	return (*Signal)(e)
}

// AsError extracts the *Error from any error produced by this package,
// unwrapping a Signal if necessary.
func AsError(err error) (*Error, bool) {
	switch v := err.(type) {
	case *Signal:
		return (*Error)(v), true
	case *Error:
		return v, true
	default:
		return nil, false
	}
}
