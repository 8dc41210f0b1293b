package command_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brandygo/brandy/command"
	"github.com/brandygo/brandy/interp"
	"github.com/brandygo/brandy/program"
	"github.com/brandygo/brandy/token"
	"github.com/brandygo/brandy/workspace"
)

func newProcessor(t *testing.T) *command.Processor {
	t.Helper()
	in, err := interp.New(workspace.DefaultSize)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return command.New(in)
}

func insertLine(t *testing.T, p *program.Program, n int, toks ...token.Token) {
	t.Helper()
	p.Insert(token.Line{Number: n, Tokens: toks})
}

func TestExecute_NewClearsProgramAndVars(t *testing.T) {
	p := newProcessor(t)
	insertLine(t, p.Interp.Program, 10, token.Token{Kind: token.KindKeyword, Text: "PRINT"})

	if err := p.Execute("NEW"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Interp.Program.Len() != 0 {
		t.Error("expected program cleared")
	}
}

func TestExecute_ListEmitsLines(t *testing.T) {
	p := newProcessor(t)
	insertLine(t, p.Interp.Program, 10, token.Token{Kind: token.KindKeyword, Text: "PRINT"})

	if err := p.Execute("LIST"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := p.GetOutput()
	if !strings.Contains(out, "10") {
		t.Errorf("expected output to mention line 10, got %q", out)
	}
}

func TestExecute_DeleteRemovesRange(t *testing.T) {
	p := newProcessor(t)
	insertLine(t, p.Interp.Program, 10, token.Token{Kind: token.KindKeyword, Text: "PRINT"})
	insertLine(t, p.Interp.Program, 20, token.Token{Kind: token.KindKeyword, Text: "PRINT"})

	if err := p.Execute("DELETE 10,20"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Interp.Program.Len() != 0 {
		t.Error("expected both lines deleted")
	}
}

func TestExecute_SaveWithoutNameOrHistoryRaisesFilename(t *testing.T) {
	p := newProcessor(t)
	err := p.Execute("SAVE")
	if err == nil {
		t.Fatal("expected FILENAME error")
	}
}

func TestExecute_SaveUsesLastName(t *testing.T) {
	p := newProcessor(t)
	path := filepath.Join(t.TempDir(), "prog.bas")
	if err := os.WriteFile(path, []byte("10 PRINT\n"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Execute("LOAD " + path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Execute("SAVE"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExecute_CommandRefusedWhileRunning(t *testing.T) {
	p := newProcessor(t)
	p.Interp.State = interp.StateRunning

	err := p.Execute("NEW")
	if err == nil {
		t.Fatal("expected COMMAND error while program running")
	}
}

func TestExecute_ListAllowedWhileRunning(t *testing.T) {
	p := newProcessor(t)
	p.Interp.State = interp.StateRunning

	if err := p.Execute("LIST"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExecute_EmptyLineRepeatsLastCommand(t *testing.T) {
	p := newProcessor(t)
	insertLine(t, p.Interp.Program, 10, token.Token{Kind: token.KindKeyword, Text: "PRINT"})
	_ = p.Execute("LIST")
	p.GetOutput()

	if err := p.Execute(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := p.GetOutput()
	if !strings.Contains(out, "10") {
		t.Errorf("expected repeated LIST output, got %q", out)
	}
}

func TestExecute_Auto_PrimesSession(t *testing.T) {
	p := newProcessor(t)
	if err := p.Execute("AUTO 10,10"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.AutoActive() {
		t.Fatal("expected AUTO session active")
	}
	if n := p.NextAutoLine(); n != 10 {
		t.Errorf("got %d, want 10", n)
	}
	if n := p.NextAutoLine(); n != 20 {
		t.Errorf("got %d, want 20", n)
	}
}
