package pseudovar_test

import (
	"testing"

	"github.com/brandygo/brandy/pseudovar"
	"github.com/brandygo/brandy/workspace"
)

func TestIsPseudoVar(t *testing.T) {
	if !pseudovar.IsPseudoVar("himem") {
		t.Error("expected HIMEM to be recognised case-insensitively")
	}
	if pseudovar.IsPseudoVar("a%") {
		t.Error("did not expect a user variable to be a pseudo-variable")
	}
}

func TestWritePage_PerformsImplicitNew(t *testing.T) {
	ws, _ := workspace.New(workspace.DefaultSize)
	ws.Top = 500

	if err := pseudovar.WritePage(ws, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ws.Page != 100 || ws.Top != 100 {
		t.Errorf("expected PAGE and TOP collapsed to 100, got PAGE=%d TOP=%d", ws.Page, ws.Top)
	}
}

func TestFormatWord_RoundTrip(t *testing.T) {
	f := pseudovar.FormatWord{Width: 6, Digits: 2, Format: 2}
	raw := f.Encode()
	got := pseudovar.DecodeFormatWord(raw)
	if got.Width != 6 || got.Digits != 2 || got.Format != 2 {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestParseFormatString_F62(t *testing.T) {
	cur := pseudovar.FormatWord{}
	got := pseudovar.ParseFormatString("F6.2", cur)
	if got.Format != 2 || got.Width != 6 || got.Digits != 2 {
		t.Errorf("unexpected parse result: %+v", got)
	}
}

func TestParseFormatString_InvalidPreservesOriginal(t *testing.T) {
	cur := pseudovar.FormatWord{Width: 1, Digits: 1, Format: 0}
	got := pseudovar.ParseFormatString("ZZZ", cur)
	if got != cur {
		t.Errorf("expected original preserved on parse failure, got %+v", got)
	}
}
