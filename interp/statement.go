// Package interp's statement.go implements the shared statement-level
// execution the command processor's immediate mode and the RUN loop
// (run.go) both drive: splitting a line's tokens into colon-separated
// statements, dispatching REM/PRINT/assignment/bare-expression, and
// formatting a value for output. The shape is grounded on the teacher's
// Debugger.executeInstruction (debugger/stepping.go): decode one unit,
// dispatch on its leading opcode, fall through to a default case for plain
// evaluation.
package interp

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/brandygo/brandy/assign"
	"github.com/brandygo/brandy/errs"
	"github.com/brandygo/brandy/eval"
	"github.com/brandygo/brandy/pseudovar"
	"github.com/brandygo/brandy/token"
	"github.com/brandygo/brandy/values"
	"github.com/brandygo/brandy/vars"
)

// SplitStatements splits one line's decoded tokens into individual
// statements at top-level ':' separators (not nested inside parentheses),
// the colon-joined multi-statement convention of spec.md §4.6.
func SplitStatements(toks []token.Token) [][]token.Token {
	var out [][]token.Token
	depth := 0
	start := 0
	for i, t := range toks {
		switch {
		case t.Kind == token.KindPunct && t.Text == "(":
			depth++
		case t.Kind == token.KindPunct && t.Text == ")":
			depth--
		case depth == 0 && t.Kind == token.KindPunct && t.Text == ":":
			out = append(out, toks[start:i])
			start = i + 1
		}
	}
	return append(out, toks[start:])
}

// ExecuteStatement runs every statement on one line as plain, non-jumping
// code: REM, PRINT, assignment (including LEFT$/MID$/RIGHT$ as an
// assignment target) or a bare expression echoed to out. This is
// immediate mode's entry point (package command's executeImmediate); the
// RUN loop uses the control-flow-aware dispatch in run.go instead, since
// only it can jump.
func (in *Interpreter) ExecuteStatement(toks []token.Token, out io.Writer) error {
	for _, stmt := range SplitStatements(toks) {
		if err := in.executeSimple(stmt, out); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) executeSimple(toks []token.Token, out io.Writer) error {
	if len(toks) == 0 {
		return nil
	}
	if toks[0].Kind == token.KindKeyword && toks[0].Text == "REM" {
		return nil
	}
	if toks[0].Kind == token.KindKeyword && toks[0].Text == "PRINT" {
		return in.execPrint(toks[1:], out)
	}
	if which, varName, args, eqPos, ok := parseLHSSubstring(toks); ok {
		return in.execSubstringAssign(which, varName, args, toks, eqPos)
	}
	if eqPos := findTopLevelAssignOp(toks); eqPos >= 0 {
		return in.execAssignment(toks, eqPos)
	}

	ev := eval.New(toks, 0, in, in.CurLine)
	v, err := ev.Evaluate()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, in.FormatValue(v))
	in.ReleaseValue(v)
	return nil
}

// execPrint evaluates a comma/semicolon-separated PRINT list: a comma
// emits a tab column separator, a semicolon just concatenates, matching
// BBC BASIC's two separators (spec.md §6.1).
func (in *Interpreter) execPrint(toks []token.Token, out io.Writer) error {
	if len(toks) == 0 {
		fmt.Fprintln(out)
		return nil
	}
	start := 0
	for start < len(toks) {
		ev := eval.New(toks, start, in, in.CurLine)
		v, err := ev.Evaluate()
		if err != nil {
			return err
		}
		fmt.Fprint(out, in.FormatValue(v))
		in.ReleaseValue(v)
		start = ev.Pos()
		if start < len(toks) && toks[start].Kind == token.KindPunct && (toks[start].Text == "," || toks[start].Text == ";") {
			if toks[start].Text == "," {
				fmt.Fprint(out, "\t")
			}
			start++
			continue
		}
		break
	}
	fmt.Fprintln(out)
	return nil
}

// FormatValue renders a popped value for PRINT, applying @%'s current
// format word to FLOAT results (spec.md §4.8.8, §6.3) and reading a
// string value's real bytes off the heap.
func (in *Interpreter) FormatValue(v values.StackValue) string {
	switch v.Kind {
	case values.KindInt32:
		return strconv.Itoa(int(v.Int32))
	case values.KindInt64:
		return strconv.FormatInt(v.Int64, 10)
	case values.KindUint8:
		return strconv.Itoa(int(v.Uint8))
	case values.KindFloat:
		return formatFloat(in.FormatWord, v.Float)
	case values.KindString, values.KindStrTemp:
		s, err := in.Workspace.ReadBytes(v.Str.Addr, v.Str.Len)
		if err != nil {
			return ""
		}
		return s
	default:
		return ""
	}
}

func formatFloat(fw pseudovar.FormatWord, f float64) string {
	var s string
	switch fw.Format {
	case 1: // E
		digits := fw.Digits
		if digits == 0 {
			digits = 9
		}
		s = strconv.FormatFloat(f, 'e', digits-1, 64)
	case 2: // F
		s = strconv.FormatFloat(f, 'f', fw.Digits, 64)
	default: // G
		if fw.Width == 0 && fw.Digits == 0 {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		digits := fw.Digits
		if digits == 0 {
			digits = 9
		}
		s = strconv.FormatFloat(f, 'g', digits, 64)
	}
	if fw.Width > len(s) {
		s = strings.Repeat(" ", fw.Width-len(s)) + s
	}
	return s
}

// findTopLevelAssignOp locates a bare or compound assignment operator
// ('=', '+=', '-=') that isn't nested inside parentheses, or -1 if none is
// present.
func findTopLevelAssignOp(toks []token.Token) int {
	depth := 0
	for i, t := range toks {
		switch {
		case t.Kind == token.KindPunct && t.Text == "(":
			depth++
		case t.Kind == token.KindPunct && t.Text == ")":
			depth--
		case depth == 0 && t.Kind == token.KindPunct && isAssignOpText(t.Text):
			return i
		}
	}
	return -1
}

func isAssignOpText(s string) bool {
	switch s {
	case "=", "+=", "-=":
		return true
	default:
		return false
	}
}

func assignOpFor(text string) assign.Operator {
	switch text {
	case "+=":
		return assign.OpAdd
	case "-=":
		return assign.OpSub
	default:
		return assign.OpAssign
	}
}

// execAssignment handles an ordinary (non-substring) assignment target:
// a plain identifier, @%, or a pseudo-variable (spec.md §4.8).
func (in *Interpreter) execAssignment(toks []token.Token, eqPos int) error {
	if eqPos == 0 || (toks[0].Kind != token.KindIdentifier && toks[0].Kind != token.KindKeyword) {
		return errs.Raise(errs.Syntax, in.CurLine)
	}
	name := toks[0].Text
	op := assignOpFor(toks[eqPos].Text)

	ev := eval.New(toks, eqPos+1, in, in.CurLine)
	rhs, err := ev.Evaluate()
	if err != nil {
		return err
	}
	return in.ExecuteAssignment(name, op, rhs, in.CurLine)
}

// parseLHSSubstring recognises `LEFT$(a$,n)=`, `MID$(a$,start[,len])=` and
// `RIGHT$(a$,n)=` — BBC BASIC's substring assignment forms (spec.md §4.8.4
// scenarios 3/4) — returning the keyword, the target variable name, the
// numeric-argument token slices (everything after the variable name inside
// the parens) and the position of the assignment operator.
func parseLHSSubstring(toks []token.Token) (which, varName string, args [][]token.Token, eqPos int, ok bool) {
	if len(toks) < 4 || toks[0].Kind != token.KindKeyword {
		return "", "", nil, 0, false
	}
	which = strings.ToUpper(toks[0].Text)
	if which != "LEFT$" && which != "MID$" && which != "RIGHT$" {
		return "", "", nil, 0, false
	}
	if toks[1].Kind != token.KindPunct || toks[1].Text != "(" {
		return "", "", nil, 0, false
	}
	depth := 1
	closeAt := -1
	for i := 2; i < len(toks); i++ {
		if toks[i].Kind != token.KindPunct {
			continue
		}
		switch toks[i].Text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				closeAt = i
			}
		}
		if closeAt >= 0 {
			break
		}
	}
	if closeAt < 0 || closeAt+1 >= len(toks) || !isAssignOpText(toks[closeAt+1].Text) {
		return "", "", nil, 0, false
	}
	inner := toks[2:closeAt]
	if len(inner) == 0 || inner[0].Kind != token.KindIdentifier {
		return "", "", nil, 0, false
	}
	varName = inner[0].Text

	var groups [][]token.Token
	depth = 0
	start := 1
	for i := 1; i < len(inner); i++ {
		t := inner[i]
		switch {
		case t.Kind == token.KindPunct && t.Text == "(":
			depth++
		case t.Kind == token.KindPunct && t.Text == ")":
			depth--
		case depth == 0 && t.Kind == token.KindPunct && t.Text == ",":
			groups = append(groups, inner[start:i])
			start = i + 1
		}
	}
	if start < len(inner) {
		groups = append(groups, inner[start:])
	}
	return which, varName, groups, closeAt + 1, true
}

// execSubstringAssign evaluates a LEFT$/MID$/RIGHT$ LHS's numeric
// argument(s), computes the byte range the assignment affects, and writes
// through assign.AssignSubstring.
func (in *Interpreter) execSubstringAssign(which, varName string, args [][]token.Token, toks []token.Token, eqPos int) error {
	line := in.CurLine
	v, err := in.Vars.Get(varName, line)
	if err != nil {
		return err
	}
	if v.Kind != vars.KindScalarString {
		return errs.Raise(errs.TypeStr, line)
	}

	nums := make([]int, len(args))
	for i, a := range args {
		ev := eval.New(a, 0, in, line)
		n, err := ev.Evaluate()
		if err != nil {
			return err
		}
		num, err := values.AnyNum32(n, line)
		if err != nil {
			return err
		}
		nums[i] = int(num)
	}

	var start, count int
	switch which {
	case "LEFT$":
		start, count = 0, nums[0]
	case "RIGHT$":
		count = nums[0]
		start = v.Str.Len - count
		if start < 0 {
			start = 0
		}
	case "MID$":
		start = nums[0] - 1
		if start < 0 {
			start = 0
		}
		if len(nums) > 1 {
			count = nums[1]
		} else {
			count = v.Str.Len - start
		}
	}

	ev := eval.New(toks, eqPos+1, in, line)
	rhs, err := ev.Evaluate()
	if err != nil {
		return err
	}
	return assign.AssignSubstring(in.Workspace, v, start, count, rhs, line)
}
