package interp_test

import (
	"testing"

	"github.com/brandygo/brandy/interp"
	"github.com/brandygo/brandy/vars"
	"github.com/brandygo/brandy/workspace"
)

func TestReadScalar_MissingVariableRaisesVarMiss(t *testing.T) {
	in, err := interp.New(workspace.DefaultSize)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = in.ReadScalar("nosuch%", 5)
	if err == nil {
		t.Fatal("expected VARMISS error")
	}
}

func TestReadScalar_ReturnsBoundValue(t *testing.T) {
	in, _ := interp.New(workspace.DefaultSize)
	v := in.Vars.GetOrCreate("a%", vars.KindScalarInt32)
	v.Int32 = 99

	got, err := in.ReadScalar("a%", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Int32 != 99 {
		t.Errorf("got %d, want 99", got.Int32)
	}
}

func TestCheckStackBalance_EmptyStackOK(t *testing.T) {
	in, _ := interp.New(workspace.DefaultSize)
	if err := in.CheckStackBalance(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckStackBalance_NonEmptyStackIsBroken(t *testing.T) {
	in, _ := interp.New(workspace.DefaultSize)
	_ = in.Stack.PushInt32(1)
	if err := in.CheckStackBalance(); err == nil {
		t.Fatal("expected BROKEN error for unbalanced stack")
	}
}

func TestErrorHandlers_PushPopLIFO(t *testing.T) {
	in, _ := interp.New(workspace.DefaultSize)
	in.PushErrorHandler(100, false)
	in.PushErrorHandler(200, true)

	if len(in.ErrorHandlers) != 2 {
		t.Fatalf("expected 2 handlers, got %d", len(in.ErrorHandlers))
	}
	in.PopErrorHandler()
	if len(in.ErrorHandlers) != 1 || in.ErrorHandlers[0].Line != 100 {
		t.Errorf("unexpected handler stack after pop: %+v", in.ErrorHandlers)
	}
}

func TestRaiseAndCatch_NoHandlerPropagates(t *testing.T) {
	in, _ := interp.New(workspace.DefaultSize)
	_, err := in.Vars.Get("missing%", 1)

	_, caught := in.RaiseAndCatch(err)
	if caught {
		t.Error("expected no handler to catch with none installed")
	}
	if in.LastError == nil {
		t.Error("expected LastError to be recorded")
	}
}

func TestRaiseAndCatch_InstalledHandlerCatches(t *testing.T) {
	in, _ := interp.New(workspace.DefaultSize)
	in.PushErrorHandler(500, false)
	_, err := in.Vars.Get("missing%", 1)

	line, caught := in.RaiseAndCatch(err)
	if !caught || line != 500 {
		t.Errorf("expected catch at line 500, got caught=%v line=%d", caught, line)
	}
}
