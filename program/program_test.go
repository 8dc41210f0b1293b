package program_test

import (
	"testing"

	"github.com/brandygo/brandy/program"
	"github.com/brandygo/brandy/token"
)

func line(n int, toks ...token.Token) token.Line {
	return token.Line{Number: n, Tokens: toks}
}

// printTok gives a fixture line a body; Insert ignores a new line with no
// tokens.
var printTok = token.Token{Kind: token.KindKeyword, Text: "PRINT"}

func TestInsert_KeepsAscendingOrder(t *testing.T) {
	p := program.New()
	p.Insert(line(30, token.Token{Kind: token.KindIdentifier, Text: "x"}))
	p.Insert(line(10, token.Token{Kind: token.KindIdentifier, Text: "x"}))
	p.Insert(line(20, token.Token{Kind: token.KindIdentifier, Text: "x"}))

	lines := p.Lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	for i := 1; i < len(lines); i++ {
		if lines[i].Number <= lines[i-1].Number {
			t.Fatalf("lines not strictly ascending: %v", lines)
		}
	}
}

func TestInsert_EmptyTokensDeletesExistingLine(t *testing.T) {
	p := program.New()
	p.Insert(line(10, token.Token{Kind: token.KindIdentifier, Text: "x"}))
	p.Insert(token.Line{Number: 10})

	if _, ok := p.FindLine(10); ok {
		t.Error("expected line 10 to be deleted")
	}
}

func TestFindLine_ReturnsFirstGreaterOrEqual(t *testing.T) {
	p := program.New()
	p.Insert(line(10, printTok))
	p.Insert(line(30, printTok))

	got, exact := p.FindLine(20)
	if exact {
		t.Error("expected no exact match")
	}
	if got.Number != 30 {
		t.Errorf("got line %d, want 30", got.Number)
	}
}

func TestDeleteRange_RemovesInclusive(t *testing.T) {
	p := program.New()
	p.Insert(line(10, printTok))
	p.Insert(line(20, printTok))
	p.Insert(line(30, printTok))

	p.DeleteRange(15, 25)

	lines := p.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines remaining, got %d", len(lines))
	}
}

func TestRenumberProgram_RewritesNumbersAndTargets(t *testing.T) {
	p := program.New()
	p.Insert(line(10,
		token.Token{Kind: token.KindKeyword, Text: "GOTO"},
		token.Token{Kind: token.KindNumberInt32, Text: "20"},
	))
	p.Insert(line(20,
		token.Token{Kind: token.KindKeyword, Text: "PRINT"},
	))

	if err := p.RenumberProgram(100, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := p.Lines()
	if lines[0].Number != 100 || lines[1].Number != 200 {
		t.Fatalf("unexpected numbering: %+v", lines)
	}
	if lines[0].Tokens[1].Text != "200" {
		t.Errorf("GOTO target not rewritten: got %q, want 200", lines[0].Tokens[1].Text)
	}
}

func TestRenumberProgram_RejectsDanglingTarget(t *testing.T) {
	p := program.New()
	p.Insert(line(10,
		token.Token{Kind: token.KindKeyword, Text: "GOTO"},
		token.Token{Kind: token.KindNumberInt32, Text: "999"},
	))

	err := p.RenumberProgram(100, 100)
	if err == nil {
		t.Fatal("expected RENUMBER error for dangling target")
	}
	if p.Lines()[0].Number != 10 {
		t.Error("program should be left unchanged on failure")
	}
}

func TestValidate_AcceptsAscendingLines(t *testing.T) {
	p := program.New()
	p.Insert(line(10, printTok))
	p.Insert(line(20, printTok))
	if err := p.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
