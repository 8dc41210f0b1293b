// Package command implements the immediate command processor of spec.md
// §4.9: NEW/OLD/LOAD/SAVE/LIST/RENUMBER/DELETE/HELP/EDIT/AUTO and friends.
// The command-line parse-and-dispatch shape is grounded on the teacher's
// Debugger.ExecuteCommand/handleCommand (debugger/debugger.go): trim,
// split on whitespace, upper-case the verb, switch on it with alias cases,
// with an empty line repeating the last command. The output-buffering
// style (Printf into a strings.Builder, drained by the caller) is the
// teacher's Debugger.Output pattern, generalized from a debugger's REPL to
// the BASIC command prompt.
package command

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/brandygo/brandy/errs"
	"github.com/brandygo/brandy/interp"
	"github.com/brandygo/brandy/program"
	"github.com/brandygo/brandy/token"
)

// Processor is the command-loop state: the interpreter context plus the
// output buffer and last-command memory the teacher's Debugger keeps.
type Processor struct {
	Interp *interp.Interpreter

	LastCommand string
	Output      strings.Builder

	// Listo holds the persistent LISTO formatting bits (spec.md §6.4).
	Listo uint

	// AUTO session state (spec.md §4.9.5); driven by the REPL layer via
	// NextAutoLine.
	autoActive bool
	autoNext   int
	autoStep   int
}

// AutoActive reports whether an AUTO session is in progress.
func (p *Processor) AutoActive() bool { return p.autoActive }

// NextAutoLine returns the next line number to prompt with and advances
// the session.
func (p *Processor) NextAutoLine() int {
	n := p.autoNext
	p.autoNext += p.autoStep
	return n
}

// StopAuto ends an AUTO session (on Escape, per spec.md §4.9.5).
func (p *Processor) StopAuto() { p.autoActive = false }

// New creates a command Processor over an already-constructed Interpreter.
func New(in *interp.Interpreter) *Processor {
	return &Processor{Interp: in}
}

// GetOutput drains and returns everything written to Output since the last
// call, the teacher's buffer-then-drain idiom.
func (p *Processor) GetOutput() string {
	s := p.Output.String()
	p.Output.Reset()
	return s
}

// Execute parses and dispatches one command line, in the shape of the
// teacher's ExecuteCommand: trim, repeat-on-empty, split, upper-case verb,
// dispatch.
func (p *Processor) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		line = p.LastCommand
	}
	if line == "" {
		return nil
	}
	p.LastCommand = line

	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	cmd := strings.ToUpper(parts[0])
	args := parts[1:]

	if p.Interp.State == interp.StateRunning && !commandAllowedWhileRunning(cmd) {
		return errs.Raise(errs.Command, 0)
	}

	switch cmd {
	case "RUN":
		return p.cmdRun(args)
	case "NEW":
		return p.cmdNew(args)
	case "OLD":
		return errs.Raise(errs.Unsupported, 0)
	case "LOAD", "TEXTLOAD":
		return p.cmdLoad(args)
	case "SAVE", "TEXTSAVE":
		return p.cmdSave(args)
	case "SAVEO", "TEXTSAVEO":
		return p.cmdSaveO(args)
	case "INSTALL":
		return p.cmdInstall(args)
	case "LIST":
		return p.cmdList(args)
	case "LISTB":
		return p.cmdListB(args)
	case "LISTW":
		return p.cmdListW(args)
	case "LISTL":
		return p.cmdListL(args)
	case "LISTIF":
		return p.cmdListIf(args)
	case "LISTO":
		return p.cmdListO(args)
	case "LVAR":
		return p.cmdLVar(args)
	case "RENUMBER":
		return p.cmdRenumber(args)
	case "DELETE":
		return p.cmdDelete(args)
	case "HELP":
		return p.cmdHelp(args)
	case "EDIT":
		return p.cmdEdit(args)
	case "EDITO":
		return errs.Raise(errs.Unsupported, 0)
	case "TWIN", "TWINO":
		return errs.Raise(errs.Unsupported, 0)
	case "AUTO":
		return p.cmdAuto(args)
	case "CRUNCH":
		return nil // no-op, spec.md §4.9.1
	default:
		return p.executeImmediate(line)
	}
}

// commandAllowedWhileRunning is COMMAND's exemption list (spec.md §4.9.1):
// LIST-family, LVAR and HELP still work while a program is executing.
func commandAllowedWhileRunning(cmd string) bool {
	switch cmd {
	case "LIST", "LISTB", "LISTW", "LISTL", "LISTIF", "LISTO", "LVAR", "HELP":
		return true
	default:
		return false
	}
}

func (p *Processor) cmdNew(args []string) error {
	size := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return errs.Raise(errs.Syntax, 0)
		}
		size = n
	}
	p.Interp.Program.Clear()
	p.Interp.Vars.Clear()
	p.Interp.Workspace.ClearProgram()
	_ = size // a real resize would call Workspace.Resize(size); kept simple here
	return nil
}

func (p *Processor) cmdDelete(args []string) error {
	lo, hi, err := parseLoHi(args)
	if err != nil {
		return err
	}
	p.Interp.Program.DeleteRange(lo, hi)
	return nil
}

func (p *Processor) cmdRenumber(args []string) error {
	start, step := 10, 10
	if len(args) > 0 {
		n, err := strconv.Atoi(strings.TrimSuffix(args[0], ","))
		if err == nil {
			start = n
		}
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err == nil {
			step = n
		}
	}
	if p.Interp.State == interp.StateRunning {
		return errs.Raise(errs.Renumber, 0)
	}
	return p.Interp.Program.RenumberProgram(start, step)
}

func parseLoHi(args []string) (int, int, error) {
	if len(args) == 0 {
		return 0, 0, errs.Raise(errs.Syntax, 0)
	}
	parts := strings.Split(strings.Join(args, ""), ",")
	lo, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, errs.Raise(errs.Syntax, 0)
	}
	hi := lo
	if len(parts) > 1 && parts[1] != "" {
		hi, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, errs.Raise(errs.Syntax, 0)
		}
	}
	return lo, hi, nil
}

func (p *Processor) cmdList(args []string) error {
	lo, hi := 0, token.MaxLineNo
	if len(args) > 0 {
		l, h, err := parseLoHi(args)
		if err == nil {
			lo, hi = l, h
		}
	}
	return p.listRange(lo, hi)
}

func (p *Processor) cmdListB(args []string) error {
	lo, hi, err := parseLoHi(args)
	if err != nil {
		return err
	}
	return p.listRange(lo, hi)
}

func (p *Processor) cmdListW(args []string) error { return p.cmdListB(args) }

func (p *Processor) cmdListL(args []string) error {
	if len(args) == 0 {
		return errs.Raise(errs.Syntax, 0)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return errs.Raise(errs.Syntax, 0)
	}
	return p.listRange(n, n)
}

// cmdListIf implements LISTIF: unlike LIST, it matches token-by-token
// rather than scanning the whole rendered line, so a needle never matches
// across a token boundary or inside an unrelated string literal it merely
// happens to sit next to in the rendered text. Each hit is reported with
// the matching token's Offset (OFFSIZE: its byte position within the
// line's decoded payload, spec.md §4.5), the one consumer of that field
// this command processor has.
func (p *Processor) cmdListIf(args []string) error {
	needle := strings.ToUpper(strings.Join(args, " "))
	if needle == "" {
		return errs.Raise(errs.Syntax, 0)
	}
	for _, l := range p.Interp.Program.Lines() {
		off, ok := firstMatchOffset(l.Tokens, needle)
		if !ok {
			continue
		}
		fmt.Fprintf(&p.Output, "%s\t; matched %q at offset %d\n", token.Expand(l, p.Listo), needle, off)
	}
	return nil
}

func firstMatchOffset(tokens []token.Token, upperNeedle string) (int, bool) {
	for _, t := range tokens {
		if strings.Contains(strings.ToUpper(t.Text), upperNeedle) {
			return t.Offset, true
		}
	}
	return 0, false
}

func (p *Processor) cmdListO(args []string) error {
	if len(args) == 0 {
		return errs.Raise(errs.Syntax, 0)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return errs.Raise(errs.Syntax, 0)
	}
	p.Listo = uint(n)
	return nil
}

// listRange renders lines in [lo, hi]. When LISTO bit 5 is set it writes a
// "-- More --" line into the output after every 20 listed lines
// (spec.md §4.9.3); listing does not pause there or wait for a key.
func (p *Processor) listRange(lo, hi int) error {
	count := 0
	for _, l := range p.Interp.Program.Lines() {
		if l.Number < lo || l.Number > hi {
			continue
		}
		fmt.Fprintln(&p.Output, token.Expand(l, p.Listo))
		count++
		if p.Listo&(1<<5) != 0 && count%20 == 0 {
			fmt.Fprintln(&p.Output, "-- More --")
		}
	}
	return nil
}

func (p *Processor) cmdLVar(args []string) error {
	names := make([]string, 0)
	for _, v := range p.Interp.Vars.All() {
		names = append(names, v.Name)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintln(&p.Output, n)
	}
	return nil
}

func (p *Processor) cmdHelp(args []string) error {
	fmt.Fprintln(&p.Output, "brandy immediate command reference")
	return nil
}

// cmdAuto implements AUTO (spec.md §4.9.5). It is driven interactively by
// the REPL layer via AutoActive/NextAutoLine/StopAuto since it needs live
// input; this method only validates arguments and primes the session.
func (p *Processor) cmdAuto(args []string) error {
	start, step := 10, 10
	if len(args) > 0 {
		n, err := strconv.Atoi(strings.TrimSuffix(args[0], ","))
		if err == nil {
			start = n
		}
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err == nil {
			step = n
		}
	}
	p.autoNext = start
	p.autoStep = step
	p.autoActive = true
	return nil
}

// cmdRun implements RUN (spec.md §4.1): an optional starting line number,
// else the program's first stored line, handed to the interpreter's
// control-flow loop.
func (p *Processor) cmdRun(args []string) error {
	start := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return errs.Raise(errs.Syntax, 0)
		}
		start = n
	}
	return p.Interp.Run(start, &p.Output)
}

// executeImmediate runs a line with no recognised command verb as an
// immediate-mode statement, delegating to the interpreter's shared
// statement executor (package interp) so immediate mode and RUN mode
// behave identically (spec.md §4.1).
func (p *Processor) executeImmediate(line string) error {
	toks, err := token.Tokenize(line, token.NoLine, false)
	if err != nil {
		return err
	}
	return p.Interp.ExecuteStatement(toks.Tokens, &p.Output)
}

func (p *Processor) cmdLoad(args []string) error {
	if len(args) == 0 {
		return errs.Raise(errs.Filename, 0)
	}
	if err := p.LoadFile(args[0]); err != nil {
		return err
	}
	p.Interp.LastSaveName = args[0]
	return nil
}

// LoadFile reads path off disk and replaces the stored program with its
// tokenised lines, the get_savefile counterpart used by both LOAD and the
// REPL's external-EDIT reload path (spec.md §4.9.2/§4.9.4).
func (p *Processor) LoadFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- user-specified program file path
	if err != nil {
		return errs.Raise(errs.CantRead, 0, path)
	}
	p.Interp.Program.Clear()
	p.Interp.Workspace.ClearProgram()
	for _, raw := range strings.Split(string(data), "\n") {
		raw = strings.TrimRight(raw, "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		line, err := token.Tokenize(raw, token.HasLine, false)
		if err != nil {
			return err
		}
		p.Interp.Program.Insert(line)
	}
	return nil
}

func (p *Processor) cmdSave(args []string) error {
	name, err := p.resolveSaveName(args)
	if err != nil {
		return err
	}
	if err := p.SaveFile(name); err != nil {
		return err
	}
	p.Interp.LastSaveName = name
	return nil
}

// SaveFile writes the stored program to path as detokenized text, one
// source line per stored line (spec.md §4.9.2).
func (p *Processor) SaveFile(path string) error {
	var b strings.Builder
	for _, l := range p.Interp.Program.Lines() {
		fmt.Fprintln(&b, token.Expand(l, p.Listo))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil { // #nosec G306 -- program source, not secret material
		return errs.Raise(errs.CantWrite, 0, path)
	}
	return nil
}

func (p *Processor) cmdSaveO(args []string) error {
	if len(args) == 0 {
		return errs.Raise(errs.Syntax, 0)
	}
	return p.cmdSave(args[1:])
}

func (p *Processor) cmdInstall(args []string) error {
	if len(args) == 0 {
		return errs.Raise(errs.Filename, 0)
	}
	return nil
}

// resolveSaveName implements get_savefile's priority order (spec.md
// §4.9.2): (a) inline name, (b) an in-core filename from a `>name` REM on
// the first line, (c) the last name used, else FILENAME.
func (p *Processor) resolveSaveName(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if name, ok := inCoreFilename(p.Interp.Program); ok {
		return name, nil
	}
	if p.Interp.LastSaveName != "" {
		return p.Interp.LastSaveName, nil
	}
	return "", errs.Raise(errs.Filename, 0)
}

func inCoreFilename(prog *program.Program) (string, bool) {
	lines := prog.Lines()
	if len(lines) == 0 {
		return "", false
	}
	toks := lines[0].Tokens
	if len(toks) == 0 || toks[0].Kind != token.KindKeyword || toks[0].Text != "REM" {
		return "", false
	}
	for i, t := range toks {
		if t.Kind == token.KindPunct && t.Text == ">" {
			var b strings.Builder
			for _, rest := range toks[i+1:] {
				b.WriteString(rest.Text)
			}
			name := strings.TrimSpace(b.String())
			return name, name != ""
		}
	}
	return "", false
}

// cmdEdit implements the no-argument and line-argument forms of EDIT
// (spec.md §4.9.4). External editor invocation is delegated to the REPL
// layer, which owns process spawning; here only the line-argument,
// in-memory path (fetch, detokenize, expect re-tokenized replacement) is
// modeled since it needs no external process.
func (p *Processor) cmdEdit(args []string) error {
	if len(args) == 0 {
		return nil // external-editor path: handled by the REPL layer
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return errs.Raise(errs.Syntax, 0)
	}
	l, ok := p.Interp.Program.FindLine(n)
	if !ok {
		return errs.Raise(errs.LineMiss, 0, n)
	}
	fmt.Fprintln(&p.Output, token.Expand(l, p.Listo))
	return nil
}
