package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/brandygo/brandy/token"
)

// TUI is the terminal split-screen front end for the command processor, an
// alternative to the plain REPL launched with -tui exactly as the teacher's
// -tui flag launches its debugger TUI. The panel layout (source/listing on
// the left, a state-watch column plus output and a command line on the
// right) is grounded on the teacher's TUI (debugger/tui.go: initializeViews/
// buildLayout/setupKeyBindings), generalized from CPU register/memory/stack
// panels to a program listing, a variables watch and the interpreter's
// output stream.
type TUI struct {
	Proc *Processor
	App  *tview.Application

	MainLayout *tview.Flex

	ListingView   *tview.TextView
	VariablesView *tview.TextView
	OutputView    *tview.TextView
	CommandInput  *tview.InputField
}

// NewTUI builds a TUI over an already-constructed Processor.
func NewTUI(proc *Processor) *TUI {
	t := &TUI{
		Proc: proc,
		App:  tview.NewApplication(),
	}
	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()
	return t
}

func (t *TUI) initializeViews() {
	t.ListingView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.ListingView.SetBorder(true).SetTitle(" Program ")

	t.VariablesView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.VariablesView.SetBorder(true).SetTitle(" Variables ")

	t.OutputView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	rightPanel := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.VariablesView, 0, 1, false).
		AddItem(t.OutputView, 0, 1, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.ListingView, 0, 2, false).
		AddItem(rightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.CommandInput, 3, 0, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		case tcell.KeyEsc:
			t.Proc.Interp.Escape = true
			t.Proc.StopAuto()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	cmd := t.CommandInput.GetText()
	t.CommandInput.SetText("")
	if cmd == "" {
		return
	}

	if err := t.runLine(cmd); err != nil {
		fmt.Fprintf(t.OutputView, "[red]%s[-]\n", err.Error())
	}
	if out := t.Proc.GetOutput(); out != "" {
		fmt.Fprint(t.OutputView, out)
	}
	t.RefreshAll()
}

// runLine mirrors cmd/brandy's line-dispatch rule: a leading line number
// edits the program, everything else goes through the command processor.
func (t *TUI) runLine(line string) error {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return t.Proc.Execute("")
	}
	if n, rest, ok := splitLeadingNumber(trimmed); ok {
		tok, err := token.Tokenize(fmt.Sprintf("%d %s", n, rest), token.HasLine, false)
		if err != nil {
			return err
		}
		t.Proc.Interp.Program.Insert(tok)
		return nil
	}
	return t.Proc.Execute(trimmed)
}

func splitLeadingNumber(s string) (int, string, bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, "", false
	}
	var n int
	for _, c := range s[:i] {
		n = n*10 + int(c-'0')
	}
	return n, strings.TrimSpace(s[i:]), true
}

// RefreshAll repaints the listing and variables panels from current
// interpreter state.
func (t *TUI) RefreshAll() {
	t.refreshListing()
	t.refreshVariables()
}

func (t *TUI) refreshListing() {
	t.ListingView.Clear()
	for _, line := range t.Proc.Interp.Program.Lines() {
		fmt.Fprintln(t.ListingView, token.Expand(line, t.Proc.Listo))
	}
}

func (t *TUI) refreshVariables() {
	t.VariablesView.Clear()
	all := t.Proc.Interp.Vars.All()
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	for _, v := range all {
		fmt.Fprintf(t.VariablesView, "%-12s %v\n", v.Name, v.Kind)
	}
}

// Run starts the TUI event loop.
func (t *TUI) Run() error {
	t.RefreshAll()
	return t.App.SetRoot(t.MainLayout, true).SetFocus(t.CommandInput).Run()
}
