package token_test

import (
	"testing"

	"github.com/brandygo/brandy/token"
)

func TestTokenize_SimpleAssignment(t *testing.T) {
	line, err := token.Tokenize(`10 A%=5`, token.HasLine, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.Number != 10 {
		t.Errorf("line number = %d, want 10", line.Number)
	}
	if len(line.Tokens) == 0 {
		t.Fatal("expected tokens")
	}
}

func TestTokenize_KeywordLongestMatch(t *testing.T) {
	line, err := token.Tokenize(`10 ENDWHILE`, token.HasLine, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, tok := range line.Tokens {
		if tok.Kind == token.KindKeyword && tok.Text == "ENDWHILE" {
			found = true
		}
		if tok.Text == "END" {
			t.Errorf("matched END instead of ENDWHILE")
		}
	}
	if !found {
		t.Error("expected ENDWHILE keyword token")
	}
}

func TestTokenize_StringLiteral(t *testing.T) {
	line, err := token.Tokenize(`10 PRINT "hello"`, token.HasLine, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got string
	for _, tok := range line.Tokens {
		if tok.Kind == token.KindString {
			got = tok.Text
		}
	}
	if got != "hello" {
		t.Errorf("string literal = %q, want %q", got, "hello")
	}
}

func TestTokenize_UnterminatedStringRaisesQuoteMiss(t *testing.T) {
	_, err := token.Tokenize(`10 PRINT "hello`, token.HasLine, false)
	if err == nil {
		t.Fatal("expected error for unterminated string")
	}
}

func TestTokenize_HexLiteralOverflowRaisesExpOflo(t *testing.T) {
	_, err := token.Tokenize(`10 A%=&FFFFFFFFFFFFFFFFF`, token.HasLine, false)
	if err == nil {
		t.Fatal("expected EXPOFLO for oversized hex literal")
	}
}

func TestTokenize_NoLineMode(t *testing.T) {
	line, err := token.Tokenize(`PRINT 1`, token.NoLine, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.Number != 0 {
		t.Errorf("expected no line number, got %d", line.Number)
	}
}

func TestExpand_RoundTripsSimpleLine(t *testing.T) {
	line, err := token.Tokenize(`10 GOTO20`, token.HasLine, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := token.Expand(line, 0)
	if out == "" {
		t.Fatal("expected non-empty expansion")
	}
}

func TestExpand_LowercaseKeywords(t *testing.T) {
	line, _ := token.Tokenize(`10 PRINT 1`, token.HasLine, false)
	out := token.Expand(line, 1<<4)
	if !containsLower(out, "print") {
		t.Errorf("expected lowercase keyword in %q", out)
	}
}

func containsLower(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
