// run.go implements RUN's control-flow loop: GOTO/GOSUB/RETURN, ON...GOTO/
// GOSUB, single-line IF...THEN...ELSE, FOR...TO...STEP/NEXT, END/STOP, and
// skipping over a DEF body encountered by linear fallthrough. Grounded on
// the teacher's VM.Run fetch-decode-execute loop (vm/executor.go): step one
// unit, let the step report where to resume, advance the program counter
// accordingly.
package interp

import (
	"io"
	"strings"

	"github.com/brandygo/brandy/assign"
	"github.com/brandygo/brandy/errs"
	"github.com/brandygo/brandy/eval"
	"github.com/brandygo/brandy/token"
	"github.com/brandygo/brandy/values"
)

// pos addresses a single statement within the stored program: a line index
// (into Program.Lines(), not a line number) plus a statement index within
// that line's colon-separated statement list.
type pos struct {
	line int
	stmt int
}

// forFrame is one active FOR...NEXT loop, resumed at the statement right
// after its FOR (spec.md §4.6's multi-statement-line convention means NEXT
// must be able to land mid-line, not just at a line boundary).
type forFrame struct {
	varName string
	limit   float64
	step    float64
	resume  pos
}

// Run executes the stored program starting at line number start (or the
// first stored line if start is 0), writing PRINT output to out. It returns
// when the program reaches END/STOP, runs off the end of the program, or an
// unhandled error propagates past every installed ON ERROR handler.
func (in *Interpreter) Run(start int, out io.Writer) error {
	lines := in.Program.Lines()
	if len(lines) == 0 {
		return nil
	}
	p := pos{line: 0, stmt: 0}
	if start > 0 {
		idx, ok := indexOfLineNumber(lines, start)
		if !ok {
			return errs.Raise(errs.LineMiss, 0, start)
		}
		p.line = idx
	}

	in.State = StateRunning
	defer func() { in.State = StateStopped }()

	var gosubStack []pos
	var forStack []forFrame

	for p.line < len(lines) {
		line := lines[p.line]
		in.CurLine = line.Number
		stmts := SplitStatements(line.Tokens)
		if p.stmt >= len(stmts) {
			p.line++
			p.stmt = 0
			continue
		}

		next, stop, err := in.execControl(stmts[p.stmt], lines, p, out, &gosubStack, &forStack)
		if err != nil {
			if e, ok := errs.AsError(err); ok {
				in.LastError = e
				if handler, caught := in.popHandler(); caught {
					idx, ok := indexOfLineNumber(lines, handler.Line)
					if ok {
						p = pos{line: idx, stmt: 0}
						continue
					}
				}
			}
			return err
		}
		if stop {
			return nil
		}
		p = next
	}
	return nil
}

// popHandler pops the topmost ON ERROR handler, the LIFO discipline of
// spec.md §7 (a handler fires once; RESTORE ERROR or another ON ERROR is
// needed to catch a second failure at the same nesting level).
func (in *Interpreter) popHandler() (ErrorHandler, bool) {
	if len(in.ErrorHandlers) == 0 {
		return ErrorHandler{}, false
	}
	h := in.ErrorHandlers[len(in.ErrorHandlers)-1]
	in.ErrorHandlers = in.ErrorHandlers[:len(in.ErrorHandlers)-1]
	return h, true
}

func indexOfLineNumber(lines []token.Line, n int) (int, bool) {
	for i, l := range lines {
		if l.Number == n {
			return i, true
		}
	}
	return 0, false
}

// execControl dispatches one control-flow-aware statement, returning the
// position execution should resume at and whether the program should stop.
func (in *Interpreter) execControl(stmt []token.Token, lines []token.Line, here pos, out io.Writer, gosubStack *[]pos, forStack *[]forFrame) (pos, bool, error) {
	fallthroughPos := pos{line: here.line, stmt: here.stmt + 1}

	if len(stmt) == 0 {
		return fallthroughPos, false, nil
	}

	tok := stmt[0]
	kw := ""
	if tok.Kind == token.KindKeyword {
		kw = strings.ToUpper(tok.Text)
	}

	switch kw {
	case "REM":
		return fallthroughPos, false, nil

	case "PRINT":
		if err := in.execPrint(stmt[1:], out); err != nil {
			return pos{}, false, err
		}
		return fallthroughPos, false, nil

	case "END", "STOP":
		return pos{}, true, nil

	case "GOTO":
		target, err := in.evalLineNumber(stmt[1:])
		if err != nil {
			return pos{}, false, err
		}
		idx, ok := indexOfLineNumber(lines, target)
		if !ok {
			return pos{}, false, errs.Raise(errs.LineMiss, in.CurLine, target)
		}
		return pos{line: idx, stmt: 0}, false, nil

	case "GOSUB":
		target, err := in.evalLineNumber(stmt[1:])
		if err != nil {
			return pos{}, false, err
		}
		idx, ok := indexOfLineNumber(lines, target)
		if !ok {
			return pos{}, false, errs.Raise(errs.LineMiss, in.CurLine, target)
		}
		*gosubStack = append(*gosubStack, fallthroughPos)
		return pos{line: idx, stmt: 0}, false, nil

	case "RETURN":
		if len(*gosubStack) == 0 {
			return pos{}, false, errs.Raise(errs.ReturnMisuse, in.CurLine)
		}
		n := len(*gosubStack) - 1
		ret := (*gosubStack)[n]
		*gosubStack = (*gosubStack)[:n]
		return ret, false, nil

	case "ON":
		return in.execOn(stmt[1:], lines, fallthroughPos, gosubStack)

	case "IF":
		return in.execIf(stmt[1:], lines, here, out, gosubStack, forStack)

	case "FOR":
		return in.execFor(stmt[1:], fallthroughPos, forStack)

	case "NEXT":
		return in.execNext(stmt[1:], fallthroughPos, forStack)

	case "DEF":
		return in.skipDef(lines, here), false, nil
	}

	if which, varName, args, eqPos, ok := parseLHSSubstring(stmt); ok {
		if err := in.execSubstringAssign(which, varName, args, stmt, eqPos); err != nil {
			return pos{}, false, err
		}
		return fallthroughPos, false, nil
	}
	if eqPos := findTopLevelAssignOp(stmt); eqPos >= 0 {
		if err := in.execAssignment(stmt, eqPos); err != nil {
			return pos{}, false, err
		}
		return fallthroughPos, false, nil
	}

	ev := eval.New(stmt, 0, in, in.CurLine)
	v, err := ev.Evaluate()
	if err != nil {
		return pos{}, false, err
	}
	in.ReleaseValue(v)
	return fallthroughPos, false, nil
}

func (in *Interpreter) evalLineNumber(toks []token.Token) (int, error) {
	ev := eval.New(toks, 0, in, in.CurLine)
	v, err := ev.Evaluate()
	if err != nil {
		return 0, err
	}
	n, err := values.AnyNum32(v, in.CurLine)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// execOn implements ON <expr> GOTO/GOSUB n1,n2,... (spec.md §4.6): the
// selector's 1-based value picks a target from the comma list. An
// out-of-range selector falls through to the next statement rather than
// raising, matching ON's documented "no matching target: do nothing".
func (in *Interpreter) execOn(toks []token.Token, lines []token.Line, fallthroughPos pos, gosubStack *[]pos) (pos, bool, error) {
	depth := 0
	kwAt := -1
	for i, t := range toks {
		switch {
		case t.Kind == token.KindPunct && t.Text == "(":
			depth++
		case t.Kind == token.KindPunct && t.Text == ")":
			depth--
		case depth == 0 && t.Kind == token.KindKeyword && (t.Text == "GOTO" || t.Text == "GOSUB"):
			kwAt = i
		}
		if kwAt >= 0 {
			break
		}
	}
	if kwAt < 0 {
		return pos{}, false, errs.Raise(errs.Syntax, in.CurLine)
	}
	isGosub := toks[kwAt].Text == "GOSUB"

	ev := eval.New(toks, 0, in, in.CurLine)
	sel, err := ev.Evaluate()
	if err != nil {
		return pos{}, false, err
	}
	n, err := values.AnyNum32(sel, in.CurLine)
	if err != nil {
		return pos{}, false, err
	}

	var targets []int
	start := kwAt + 1
	for i := start; i <= len(toks); i++ {
		if i == len(toks) || (toks[i].Kind == token.KindPunct && toks[i].Text == ",") {
			if i > start {
				tv, err := in.evalLineNumber(toks[start:i])
				if err != nil {
					return pos{}, false, err
				}
				targets = append(targets, tv)
			}
			start = i + 1
		}
	}

	if int(n) < 1 || int(n) > len(targets) {
		return fallthroughPos, false, nil
	}
	target := targets[n-1]
	idx, ok := indexOfLineNumber(lines, target)
	if !ok {
		return pos{}, false, errs.Raise(errs.LineMiss, in.CurLine, target)
	}
	if isGosub {
		*gosubStack = append(*gosubStack, fallthroughPos)
	}
	return pos{line: idx, stmt: 0}, false, nil
}

// execIf implements single-line IF <expr> THEN <stmts> [ELSE <stmts>]
// (spec.md §4.6). The chosen branch's statements are dispatched through
// execControl recursively so a GOTO/GOSUB inside the branch can still jump;
// falling off the end of the branch resumes at the statement after IF.
func (in *Interpreter) execIf(toks []token.Token, lines []token.Line, here pos, out io.Writer, gosubStack *[]pos, forStack *[]forFrame) (pos, bool, error) {
	thenAt, elseAt := -1, -1
	depth := 0
	for i, t := range toks {
		switch {
		case t.Kind == token.KindPunct && t.Text == "(":
			depth++
		case t.Kind == token.KindPunct && t.Text == ")":
			depth--
		case depth == 0 && t.Kind == token.KindKeyword && t.Text == "THEN" && thenAt < 0:
			thenAt = i
		case depth == 0 && t.Kind == token.KindKeyword && t.Text == "ELSE" && thenAt >= 0 && elseAt < 0:
			elseAt = i
		}
	}
	condEnd := thenAt
	if condEnd < 0 {
		condEnd = len(toks)
	}
	ev := eval.New(toks[:condEnd], 0, in, in.CurLine)
	cond, err := ev.Evaluate()
	if err != nil {
		return pos{}, false, err
	}
	truthy, err := values.AnyNum32(cond, in.CurLine)
	if err != nil {
		return pos{}, false, err
	}

	var branch []token.Token
	switch {
	case truthy != 0 && thenAt >= 0:
		end := elseAt
		if end < 0 {
			end = len(toks)
		}
		branch = toks[thenAt+1 : end]
	case truthy != 0:
		// No THEN keyword ("IF x GOTO 100"): the condition expression
		// stops parsing on its own at the first non-operator token, so
		// the branch is whatever tokens evaluating the condition left
		// unconsumed.
		branch = toks[ev.Pos():]
	case truthy == 0 && elseAt >= 0:
		branch = toks[elseAt+1:]
	default:
		fallthroughPos := pos{line: here.line, stmt: here.stmt + 1}
		return fallthroughPos, false, nil
	}

	fallthroughPos := pos{line: here.line, stmt: here.stmt + 1}
	for _, inner := range SplitStatements(branch) {
		next, stop, err := in.execControl(inner, lines, here, out, gosubStack, forStack)
		if err != nil {
			return pos{}, false, err
		}
		if stop {
			return pos{}, true, nil
		}
		if next != (pos{line: here.line, stmt: here.stmt + 1}) {
			return next, false, nil
		}
	}
	return fallthroughPos, false, nil
}

// execFor implements FOR var = start TO limit [STEP step] (spec.md §4.6):
// assigns the loop variable its initial value and pushes a frame recording
// where NEXT should resume.
func (in *Interpreter) execFor(toks []token.Token, resume pos, forStack *[]forFrame) (pos, bool, error) {
	if len(toks) == 0 || toks[0].Kind != token.KindIdentifier {
		return pos{}, false, errs.Raise(errs.Syntax, in.CurLine)
	}
	varName := toks[0].Text
	if len(toks) < 2 || !(toks[1].Kind == token.KindPunct && toks[1].Text == "=") {
		return pos{}, false, errs.Raise(errs.EQMiss, in.CurLine)
	}

	toAt, stepAt := -1, -1
	for i := 2; i < len(toks); i++ {
		if toks[i].Kind == token.KindKeyword && toks[i].Text == "TO" && toAt < 0 {
			toAt = i
		}
		if toks[i].Kind == token.KindKeyword && toks[i].Text == "STEP" {
			stepAt = i
		}
	}
	if toAt < 0 {
		return pos{}, false, errs.Raise(errs.ToMiss, in.CurLine)
	}
	limitEnd := stepAt
	if limitEnd < 0 {
		limitEnd = len(toks)
	}

	startEv := eval.New(toks[2:toAt], 0, in, in.CurLine)
	startVal, err := startEv.Evaluate()
	if err != nil {
		return pos{}, false, err
	}
	limitEv := eval.New(toks[toAt+1:limitEnd], 0, in, in.CurLine)
	limitVal, err := limitEv.Evaluate()
	if err != nil {
		return pos{}, false, err
	}
	limit, err := values.AnyNumFP(limitVal, in.CurLine)
	if err != nil {
		return pos{}, false, err
	}

	step := 1.0
	if stepAt >= 0 {
		stepEv := eval.New(toks[stepAt+1:], 0, in, in.CurLine)
		stepVal, err := stepEv.Evaluate()
		if err != nil {
			return pos{}, false, err
		}
		step, err = values.AnyNumFP(stepVal, in.CurLine)
		if err != nil {
			return pos{}, false, err
		}
	}

	if err := in.ExecuteAssignment(varName, assign.OpAssign, startVal, in.CurLine); err != nil {
		return pos{}, false, err
	}

	*forStack = append(*forStack, forFrame{varName: varName, limit: limit, step: step, resume: resume})
	return resume, false, nil
}

// execNext implements NEXT [var]: advances the innermost (or named)
// active loop variable by its step and either loops back to the body or,
// once past the limit, falls through past the loop.
func (in *Interpreter) execNext(toks []token.Token, fallthroughPos pos, forStack *[]forFrame) (pos, bool, error) {
	if len(*forStack) == 0 {
		return pos{}, false, errs.Raise(errs.NotFor, in.CurLine)
	}
	n := len(*forStack) - 1
	frame := (*forStack)[n]
	if len(toks) > 0 && toks[0].Kind == token.KindIdentifier && toks[0].Text != frame.varName {
		return pos{}, false, errs.Raise(errs.NotFor, in.CurLine)
	}

	cur, err := in.ReadScalar(frame.varName, in.CurLine)
	if err != nil {
		return pos{}, false, err
	}
	curFP, err := values.AnyNumFP(cur, in.CurLine)
	if err != nil {
		return pos{}, false, err
	}
	next := curFP + frame.step
	if err := in.ExecuteAssignment(frame.varName, assign.OpAssign, values.FloatValue(next), in.CurLine); err != nil {
		return pos{}, false, err
	}

	continuing := (frame.step >= 0 && next <= frame.limit) || (frame.step < 0 && next >= frame.limit)
	if continuing {
		return frame.resume, false, nil
	}
	*forStack = (*forStack)[:n]
	return fallthroughPos, false, nil
}

// skipDef skips a DEF PROC/FN body reached by ordinary linear fallthrough
// (not a CALL): full PROC/FN invocation is out of scope (see DESIGN.md). For
// a DEF PROC, RUN scans forward from the DEF line to the first line holding
// an ENDPROC and resumes at the line after it (or at the program's end if
// none follows). Any other DEF, such as a DEF FN, resumes at the line after
// the DEF line.
func (in *Interpreter) skipDef(lines []token.Line, here pos) pos {
	isProc := false
	stmts := SplitStatements(lines[here.line].Tokens)
	if here.stmt < len(stmts) {
		for _, t := range stmts[here.stmt] {
			if t.Kind == token.KindKeyword && t.Text == "PROC" {
				isProc = true
				break
			}
		}
	}
	if !isProc {
		return pos{line: here.line + 1, stmt: 0}
	}
	for i := here.line; i < len(lines); i++ {
		for _, t := range lines[i].Tokens {
			if t.Kind == token.KindKeyword && t.Text == "ENDPROC" {
				return pos{line: i + 1, stmt: 0}
			}
		}
	}
	return pos{line: len(lines), stmt: 0}
}
