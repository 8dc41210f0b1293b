package eval_test

import (
	"testing"

	"github.com/brandygo/brandy/eval"
	"github.com/brandygo/brandy/token"
	"github.com/brandygo/brandy/values"
)

type fakeVars map[string]values.StackValue

func (f fakeVars) ReadScalar(name string, line int) (values.StackValue, error) {
	return f[name], nil
}

func (f fakeVars) ReadStringBytes(desc values.StringDescriptor, line int) (string, error) {
	return "", nil
}

func (f fakeVars) AllocString(s string, line int) (values.StringDescriptor, error) {
	return values.StringDescriptor{Len: len(s)}, nil
}

func (f fakeVars) ReleaseValue(v values.StackValue) {}

func tokenize(t *testing.T, text string) []token.Token {
	t.Helper()
	line, err := token.Tokenize("10 "+text, token.HasLine, false)
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}
	return line.Tokens
}

func TestEvaluate_ArithmeticPrecedence(t *testing.T) {
	toks := tokenize(t, "2+3*4")
	e := eval.New(toks, 0, nil, 10)
	v, err := e.Evaluate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != values.KindInt32 || v.Int32 != 14 {
		t.Errorf("got %v/%d, want INT32/14", v.Kind, v.Int32)
	}
}

func TestEvaluate_Parentheses(t *testing.T) {
	toks := tokenize(t, "(2+3)*4")
	e := eval.New(toks, 0, nil, 10)
	v, err := e.Evaluate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int32 != 20 {
		t.Errorf("got %d, want 20", v.Int32)
	}
}

func TestEvaluate_DivisionByZeroRaises(t *testing.T) {
	toks := tokenize(t, "1/0")
	e := eval.New(toks, 0, nil, 10)
	_, err := e.Evaluate()
	if err == nil {
		t.Fatal("expected DIVZERO error")
	}
}

func TestEvaluate_VariableLookup(t *testing.T) {
	vars := fakeVars{"a%": values.Int32Value(7)}
	toks := tokenize(t, "a%+1")
	e := eval.New(toks, 0, vars, 10)
	v, err := e.Evaluate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int32 != 8 {
		t.Errorf("got %d, want 8", v.Int32)
	}
}

func TestEvaluate_ComparisonReturnsTrueFalse(t *testing.T) {
	toks := tokenize(t, "3>2")
	e := eval.New(toks, 0, nil, 10)
	v, err := e.Evaluate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int32 != -1 {
		t.Errorf("got %d, want -1 (TRUE)", v.Int32)
	}
}

func TestEvaluate_UnaryMinus(t *testing.T) {
	toks := tokenize(t, "-5+2")
	e := eval.New(toks, 0, nil, 10)
	v, err := e.Evaluate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int32 != -3 {
		t.Errorf("got %d, want -3", v.Int32)
	}
}

func TestEvaluate_FloatDivision(t *testing.T) {
	toks := tokenize(t, "1.0/4")
	e := eval.New(toks, 0, nil, 10)
	v, err := e.Evaluate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind != values.KindFloat || v.Float != 0.25 {
		t.Errorf("got %v/%f, want FLOAT/0.25", v.Kind, v.Float)
	}
}
