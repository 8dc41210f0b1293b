// Package eval implements the expression evaluator of spec.md §4.7: a
// classical recursive-descent parser over precedence levels, operating on
// a statement's decoded token.Token stream and producing values.StackValue
// results. The precedence-climbing shape is grounded on the teacher's
// debugger/expr_parser.go (ExprParser.parseExpression/parsePrimary), ported
// from a single uint32 result type to the typed StackValue union and
// generalized from a fixed five-level operator table to the source
// dialect's seven levels (spec.md §4.7).
package eval

import (
	"strconv"
	"strings"

	"github.com/brandygo/brandy/errs"
	"github.com/brandygo/brandy/pseudovar"
	"github.com/brandygo/brandy/token"
	"github.com/brandygo/brandy/values"
)

// VarLookup is the variable-read surface the evaluator needs; package
// interp's Interpreter satisfies it via its *vars.Store and *workspace.
// ReadStringBytes and AllocString give the evaluator access to the string
// heap directly, since string literals, concatenation and comparison all
// need real bytes rather than just a length (spec.md §4.8.4).
type VarLookup interface {
	ReadScalar(name string, line int) (values.StackValue, error)
	ReadStringBytes(desc values.StringDescriptor, line int) (string, error)
	AllocString(s string, line int) (values.StringDescriptor, error)
	ReleaseValue(v values.StackValue)
}

// Evaluator walks one statement's token stream, in the shape of the
// teacher's ExprParser: a token slice plus a position cursor.
type Evaluator struct {
	tokens []token.Token
	pos    int
	vars   VarLookup
	line   int
}

// New creates an Evaluator over toks, starting at position start.
func New(toks []token.Token, start int, vars VarLookup, line int) *Evaluator {
	return &Evaluator{tokens: toks, pos: start, vars: vars, line: line}
}

// Pos returns the evaluator's current token position, so callers (the
// assignment engine, statement dispatcher) can resume parsing after the
// expression that was just evaluated.
func (e *Evaluator) Pos() int { return e.pos }

func (e *Evaluator) current() token.Token {
	if e.pos >= len(e.tokens) {
		return token.Token{Kind: token.KindPunct, Text: ""}
	}
	return e.tokens[e.pos]
}

func (e *Evaluator) advance() { e.pos++ }

func (e *Evaluator) atEnd() bool { return e.pos >= len(e.tokens) }

// precedence levels, low to high, per spec.md §4.7.
const (
	precOr = iota + 1
	precAnd
	precCompare
	precShift
	precAdd
	precMul
	precUnary
	precPow
)

var binaryOps = map[string]int{
	"OR": precOr, "EOR": precOr,
	"AND": precAnd,
	"=": precCompare, "<>": precCompare, "<": precCompare, ">": precCompare, "<=": precCompare, ">=": precCompare,
	"<<": precShift, ">>": precShift, ">>>": precShift,
	"+": precAdd, "-": precAdd,
	"*": precMul, "/": precMul, "DIV": precMul, "MOD": precMul,
}

// Evaluate parses and evaluates a full expression starting at the
// evaluator's current position.
func (e *Evaluator) Evaluate() (values.StackValue, error) {
	return e.parseBinary(precOr)
}

func opText(tok token.Token) string {
	if tok.Kind == token.KindKeyword {
		return strings.ToUpper(tok.Text)
	}
	return tok.Text
}

func (e *Evaluator) parseBinary(minPrec int) (values.StackValue, error) {
	left, err := e.parseUnary()
	if err != nil {
		return values.StackValue{}, err
	}

	for {
		if e.atEnd() {
			break
		}
		op := opText(e.current())
		prec, ok := binaryOps[op]
		if !ok || prec < minPrec {
			break
		}
		e.advance()

		right, err := e.parseBinary(prec + 1)
		if err != nil {
			return values.StackValue{}, err
		}
		left, err = e.applyBinary(left, right, op)
		if err != nil {
			return values.StackValue{}, err
		}
	}
	return left, nil
}

func (e *Evaluator) parseUnary() (values.StackValue, error) {
	op := opText(e.current())
	if op == "-" || op == "+" || op == "NOT" {
		e.advance()
		v, err := e.parseUnary()
		if err != nil {
			return values.StackValue{}, err
		}
		switch op {
		case "-":
			return negate(v, e.line)
		case "NOT":
			return logicalNot(v, e.line)
		default:
			return v, nil
		}
	}
	return e.parsePow()
}

func (e *Evaluator) parsePow() (values.StackValue, error) {
	base, err := e.parsePrimary()
	if err != nil {
		return values.StackValue{}, err
	}
	if opText(e.current()) == "^" {
		e.advance()
		exp, err := e.parseUnary()
		if err != nil {
			return values.StackValue{}, err
		}
		return power(base, exp, e.line)
	}
	return base, nil
}

func (e *Evaluator) parsePrimary() (values.StackValue, error) {
	tok := e.current()
	switch tok.Kind {
	case token.KindNumberInt32:
		n, err := parseIntLiteral(tok.Text, 32)
		if err != nil {
			return values.StackValue{}, err
		}
		e.advance()
		return values.Int32Value(int32(n)), nil

	case token.KindNumberInt64:
		n, err := parseIntLiteral(tok.Text, 64)
		if err != nil {
			return values.StackValue{}, err
		}
		e.advance()
		return values.Int64Value(n), nil

	case token.KindNumberFloat:
		f, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return values.StackValue{}, errs.Raise(errs.ExpOflo, e.line, tok.Text)
		}
		e.advance()
		return values.FloatValue(f), nil

	case token.KindString:
		e.advance()
		if e.vars == nil {
			return values.StackValue{}, errs.Raise(errs.Broken, e.line, "no variable context")
		}
		desc, err := e.vars.AllocString(tok.Text, e.line)
		if err != nil {
			return values.StackValue{}, err
		}
		return values.StrTempValue(desc.Addr, desc.Len), nil

	case token.KindIdentifier:
		e.advance()
		if e.vars == nil {
			return values.StackValue{}, errs.Raise(errs.Broken, e.line, "no variable context")
		}
		return e.vars.ReadScalar(tok.Text, e.line)

	case token.KindKeyword:
		if pseudovar.IsPseudoVar(tok.Text) {
			e.advance()
			if e.vars == nil {
				return values.StackValue{}, errs.Raise(errs.Broken, e.line, "no variable context")
			}
			return e.vars.ReadScalar(tok.Text, e.line)
		}
		return values.StackValue{}, errs.Raise(errs.BadExpr, e.line, tok.Text)

	case token.KindPunct:
		if tok.Text == "(" {
			e.advance()
			v, err := e.parseBinary(precOr)
			if err != nil {
				return values.StackValue{}, err
			}
			if opText(e.current()) != ")" {
				return values.StackValue{}, errs.Raise(errs.RPMiss, e.line)
			}
			e.advance()
			return v, nil
		}
		return values.StackValue{}, errs.Raise(errs.BadExpr, e.line, tok.Text)

	default:
		return values.StackValue{}, errs.Raise(errs.BadExpr, e.line)
	}
}

func parseIntLiteral(text string, bits int) (int64, error) {
	switch {
	case strings.HasPrefix(text, "&"):
		return strconv.ParseInt(text[1:], 16, 64)
	case strings.HasPrefix(text, "%"):
		return strconv.ParseInt(text[1:], 2, 64)
	default:
		return strconv.ParseInt(text, 10, 64)
	}
}
