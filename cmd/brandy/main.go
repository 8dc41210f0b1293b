// Command brandy is the interactive command-line front end: it wires
// together the tokeniser, line store, value stack, assignment engine,
// expression evaluator and immediate-command processor behind one REPL
// loop. Its flag set and loop shape are grounded on the teacher's main.go
// (flag.Bool/flag.String option parsing, verbose logging gated behind a
// single flag) and debugger/interface.go's RunCLI (bufio.Scanner prompt
// loop, ExecuteCommand dispatch, output buffer drained after every line).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/brandygo/brandy/command"
	"github.com/brandygo/brandy/config"
	"github.com/brandygo/brandy/errs"
	"github.com/brandygo/brandy/interp"
	"github.com/brandygo/brandy/token"
	"github.com/brandygo/brandy/workspace"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	var (
		showVersion    = flag.Bool("version", false, "Show version information")
		showHelp       = flag.Bool("help", false, "Show help information")
		workspaceSize  = flag.Int("workspace", 0, "Workspace size in bytes (default: from config)")
		searchPath     = flag.String("path", "", "Colon-separated program search path (overrides FILEPATH)")
		quitAfterRun   = flag.Bool("quit", false, "Exit after running the loaded program instead of entering the prompt")
		startupCommand = flag.String("exec", "", "Command to run immediately after startup, before the prompt")
		tuiMode        = flag.Bool("tui", false, "Start in the split-screen terminal UI instead of the plain prompt")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("brandy %s (%s)\n", Version, Commit)
		os.Exit(0)
	}
	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}

	size := cfg.Workspace.SizeBytes
	if *workspaceSize > 0 {
		size = *workspaceSize
	}
	in, err := interp.New(size)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	in.FilePath = os.Getenv("FILEPATH")
	if cfg.Paths.SearchPath != "" {
		in.FilePath = cfg.Paths.SearchPath
	}
	if *searchPath != "" {
		in.FilePath = *searchPath
	}

	proc := command.New(in)
	proc.Listo = uint(cfg.Listing.DefaultListo)

	if flag.NArg() > 0 {
		file := flag.Arg(0)
		if err := loadProgramFile(proc, file); err != nil {
			fmt.Fprintf(os.Stderr, "error loading %s: %v\n", file, err)
			os.Exit(1)
		}
		in.LastSaveName = file
	}

	startup := *startupCommand
	if startup == "" {
		startup = cfg.Repl.StartupCommand
	}
	if startup != "" {
		runLine(proc, cfg, startup)
		flushOutput(proc)
	}

	if *quitAfterRun {
		if flag.NArg() > 0 {
			if err := in.Run(0, os.Stdout); err != nil {
				reportError(proc, err)
			}
		}
		if in.LastError != nil && !in.LastError.IsWarning() {
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *tuiMode {
		if err := command.NewTUI(proc).Run(); err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	repl(proc, cfg)
}

// repl is the interactive command loop, grounded on debugger/interface.go's
// RunCLI: print a prompt, read one line, dispatch it, drain and print the
// output buffer, repeat until EOF.
func repl(proc *command.Processor, cfg *config.Config) {
	scanner := bufio.NewScanner(os.Stdin)
	prompt := cfg.Repl.Prompt
	if prompt == "" {
		prompt = ">"
	}

	for {
		if proc.AutoActive() {
			fmt.Printf("%5d", proc.NextAutoLine())
		} else {
			fmt.Print(prompt)
		}

		if !scanner.Scan() {
			break
		}
		text := scanner.Text()
		if cfg.Repl.EchoInput {
			fmt.Println(text)
		}

		if proc.AutoActive() {
			if strings.TrimSpace(text) == "" {
				proc.StopAuto()
				continue
			}
		}

		runLine(proc, cfg, text)
		flushOutput(proc)
	}
}

func flushOutput(proc *command.Processor) {
	if out := proc.GetOutput(); out != "" {
		fmt.Print(out)
	}
}

// runLine dispatches one line of input: a leading line number stores or
// replaces a program line (spec.md §4.6); EDIT with no argument spawns the
// external editor (spec.md §4.9.4, deferred here from the command package
// because only the REPL owns process spawning); everything else goes
// through the command processor, falling through to runImmediate for
// anything that isn't a recognised command verb.
func runLine(proc *command.Processor, cfg *config.Config, text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		if err := proc.Execute(""); err != nil {
			reportError(proc, err)
		}
		return
	}

	if n, ok := leadingLineNumber(trimmed); ok {
		storeOrDeleteLine(proc, n, trimmed)
		return
	}

	verb := strings.ToUpper(strings.Fields(trimmed)[0])
	if verb == "EDIT" && len(strings.Fields(trimmed)) == 1 {
		runExternalEditor(proc, cfg)
		return
	}

	if isCommandVerb(verb) {
		if err := proc.Execute(trimmed); err != nil {
			reportError(proc, err)
		}
		return
	}

	if err := runImmediate(proc.Interp, trimmed); err != nil {
		reportError(proc, err)
	}
}

func reportError(proc *command.Processor, err error) {
	if e, ok := errs.AsError(err); ok {
		proc.Interp.LastError = e
		fmt.Fprintln(os.Stderr, e.Error())
		return
	}
	fmt.Fprintln(os.Stderr, err.Error())
}

func leadingLineNumber(trimmed string) (int, bool) {
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(trimmed[:i])
	if err != nil {
		return 0, false
	}
	return n, true
}

func storeOrDeleteLine(proc *command.Processor, n int, trimmed string) {
	line, err := token.Tokenize(trimmed, token.HasLine, false)
	if err != nil {
		reportError(proc, err)
		return
	}
	proc.Interp.Program.Insert(line)
}

func isCommandVerb(verb string) bool {
	switch verb {
	case "RUN", "NEW", "OLD", "LOAD", "TEXTLOAD", "SAVE", "TEXTSAVE", "SAVEO", "TEXTSAVEO",
		"INSTALL", "LIST", "LISTB", "LISTW", "LISTL", "LISTIF", "LISTO", "LVAR",
		"RENUMBER", "DELETE", "HELP", "EDIT", "EDITO", "TWIN", "TWINO", "AUTO", "CRUNCH":
		return true
	default:
		return false
	}
}

// runImmediate executes one immediate-mode statement by delegating to the
// interpreter's shared statement executor (package interp), the same path
// RUN's program loop and the command processor's executeImmediate use.
func runImmediate(in *interp.Interpreter, trimmed string) error {
	line, err := token.Tokenize(trimmed, token.NoLine, false)
	if err != nil {
		return err
	}
	var out strings.Builder
	if err := in.ExecuteStatement(line.Tokens, &out); err != nil {
		return err
	}
	fmt.Print(out.String())
	return nil
}

// runExternalEditor implements EDIT's no-argument form (spec.md §4.9.4):
// dump the current program to a temp file, spawn the configured editor on
// it, reload on return. The editor-selection order (BRANDY_EDITOR, EDITOR,
// VISUAL, then config) is config.Config.ResolveEditor.
func runExternalEditor(proc *command.Processor, cfg *config.Config) {
	editor := cfg.ResolveEditor()
	if editor == "" {
		fmt.Fprintln(os.Stderr, "no editor configured: set BRANDY_EDITOR, EDITOR or VISUAL")
		return
	}

	tmp, err := os.CreateTemp("", "brandy-edit-*.bas")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	defer os.Remove(tmp.Name())

	for _, l := range proc.Interp.Program.Lines() {
		fmt.Fprintln(tmp, token.Expand(l, proc.Listo))
	}
	if err := tmp.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}

	cmd := exec.Command(editor, tmp.Name())
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "editor error: %v\n", err)
		return
	}

	if err := loadProgramFile(proc, tmp.Name()); err != nil {
		fmt.Fprintf(os.Stderr, "error reloading edited program: %v\n", err)
	}
}

func loadProgramFile(proc *command.Processor, path string) error {
	return proc.LoadFile(path)
}

func printHelp() {
	fmt.Printf(`brandy %s

Usage: brandy [options] [file]

Options:
  -help               Show this help message
  -version            Show version information
  -workspace N        Workspace size in bytes (default: %d)
  -path LIST          Colon-separated program search path
  -quit               Exit after running the loaded program
  -exec CMD           Run CMD immediately after startup

Commands (at the prompt): NEW, OLD, LOAD, SAVE, SAVEO, INSTALL, LIST,
LISTB, LISTW, LISTL, LISTIF, LISTO, LVAR, RENUMBER, DELETE, HELP, EDIT,
AUTO, CRUNCH. Lines beginning with a number are stored into the program;
anything else is executed immediately.
`, Version, workspace.DefaultSize)
}
