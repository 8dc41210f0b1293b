package errs_test

import (
	"strings"
	"testing"

	"github.com/brandygo/brandy/errs"
)

func TestErrorString_WithLine(t *testing.T) {
	e := errs.New(errs.DivZero, 120)
	got := e.Error()
	if !strings.Contains(got, "Division by zero") || !strings.Contains(got, "at line 120") {
		t.Errorf("unexpected error string: %q", got)
	}
}

func TestErrorString_Immediate(t *testing.T) {
	e := errs.New(errs.Syntax, 0)
	got := e.Error()
	if strings.Contains(got, "at line") {
		t.Errorf("immediate error should not carry a line clause: %q", got)
	}
}

func TestRaise_WarningDoesNotSignal(t *testing.T) {
	err := errs.Raise(errs.BadHimem, 0)
	if _, isSignal := err.(*errs.Signal); isSignal {
		t.Errorf("BadHimem is a warning and must not produce a Signal")
	}
	e, ok := errs.AsError(err)
	if !ok || e.Kind != errs.BadHimem {
		t.Errorf("expected BadHimem *Error, got %#v", err)
	}
}

func TestRaise_ErrorProducesSignal(t *testing.T) {
	err := errs.Raise(errs.DivZero, 10)
	sig, ok := err.(*errs.Signal)
	if !ok {
		t.Fatalf("expected *Signal, got %T", err)
	}
	if sig.Kind != errs.DivZero {
		t.Errorf("expected DivZero, got %v", sig.Kind)
	}
}

func TestKindCodes(t *testing.T) {
	cases := []struct {
		kind errs.Kind
		code int
	}{
		{errs.Escape, 17},
		{errs.StackFull, 50},
		{errs.Broken, 999},
	}
	for _, c := range cases {
		if got := c.kind.Code(); got != c.code {
			t.Errorf("kind %v: expected code %d, got %d", c.kind, c.code, got)
		}
	}
}
