package trace_test

import (
	"strings"
	"testing"

	"github.com/brandygo/brandy/trace"
)

func TestRecord_NoOpWhenDisabled(t *testing.T) {
	tr := trace.New()
	tr.Record(10, "PRINT 1")
	if len(tr.Entries()) != 0 {
		t.Error("expected no entries while disabled")
	}
}

func TestRecord_AppendsWhenEnabled(t *testing.T) {
	var buf strings.Builder
	tr := trace.New()
	tr.Enabled = true
	tr.Writer = &buf

	tr.Record(10, "PRINT 1")
	tr.Record(20, "PRINT 2")

	if len(tr.Entries()) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(tr.Entries()))
	}
	if !strings.Contains(buf.String(), "[10]") {
		t.Errorf("expected trace output to mention line 10, got %q", buf.String())
	}
}

func TestReset_ClearsEntriesAndSequence(t *testing.T) {
	tr := trace.New()
	tr.Enabled = true
	tr.Writer = &strings.Builder{}
	tr.Record(1, "x")
	tr.Reset()

	if len(tr.Entries()) != 0 {
		t.Error("expected entries cleared after reset")
	}
}
