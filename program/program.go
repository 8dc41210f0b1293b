// Package program implements the line store of spec.md §4.6: an ordered
// sequence of decoded program lines with find/delete/renumber operations.
// Kept in ascending line-number order at all times (the invariant of
// spec.md §3.2), grounded on the teacher's SymbolTable's map-plus-slice
// bookkeeping style (parser/symbols.go) but ordered by key rather than
// insertion time, since BASIC programs are addressed by line number.
package program

import (
	"sort"
	"strings"

	"github.com/brandygo/brandy/errs"
	"github.com/brandygo/brandy/token"
)

// Program is the ordered line store.
type Program struct {
	lines []token.Line
}

// New creates an empty program.
func New() *Program {
	return &Program{}
}

// Len returns the number of stored lines.
func (p *Program) Len() int { return len(p.lines) }

// Lines returns the stored lines in ascending order. Callers must not
// mutate the returned slice.
func (p *Program) Lines() []token.Line { return p.lines }

// indexOf returns the position of the first line with number >= n, i.e.
// find_line's contract (spec.md §4.6), via binary search since lines are
// kept sorted.
func (p *Program) indexOf(n int) int {
	return sort.Search(len(p.lines), func(i int) bool { return p.lines[i].Number >= n })
}

// FindLine returns the first stored line with number >= n, and whether an
// exact match was found.
func (p *Program) FindLine(n int) (token.Line, bool) {
	i := p.indexOf(n)
	if i < len(p.lines) && p.lines[i].Number == n {
		return p.lines[i], true
	}
	if i < len(p.lines) {
		return p.lines[i], false
	}
	return token.Line{}, false
}

// Insert adds or replaces a line, keeping the store sorted. A Line with no
// tokens at a number that already exists deletes that line (spec's
// edit-by-retyping convention: entering a bare line number removes it).
func (p *Program) Insert(line token.Line) {
	i := p.indexOf(line.Number)
	if i < len(p.lines) && p.lines[i].Number == line.Number {
		if len(line.Tokens) == 0 {
			p.lines = append(p.lines[:i], p.lines[i+1:]...)
			return
		}
		p.lines[i] = line
		return
	}
	if len(line.Tokens) == 0 {
		return
	}
	p.lines = append(p.lines, token.Line{})
	copy(p.lines[i+1:], p.lines[i:])
	p.lines[i] = line
}

// DeleteRange removes every line with number in [lo, hi], compacting the
// store (spec.md §4.6). No back-references are rewritten at this layer.
func (p *Program) DeleteRange(lo, hi int) {
	out := p.lines[:0]
	for _, l := range p.lines {
		if l.Number < lo || l.Number > hi {
			out = append(out, l)
		}
	}
	p.lines = out
}

// Clear empties the program, the effect of NEW (spec.md §4.2).
func (p *Program) Clear() {
	p.lines = nil
}

// renumberTargetKeywords identifies which keywords carry a line-number
// operand that RenumberProgram must rewrite.
var renumberTargetKeywords = map[string]bool{
	"GOTO": true, "GOSUB": true, "RESTORE": true, "ON": true,
}

// RenumberProgram rewrites every line's number to start, start+step,
// start+2*step, … and rewrites GOTO/GOSUB/RESTORE/ON…GOTO targets to match,
// per spec.md §4.6 and the renumber-bijection invariant of §8.1. If any
// target references a line that does not exist in the program, RENUMBER is
// raised and the program is left unchanged.
func (p *Program) RenumberProgram(start, step int) error {
	if len(p.lines) == 0 {
		return nil
	}

	oldToNew := make(map[int]int, len(p.lines))
	n := start
	for _, l := range p.lines {
		oldToNew[l.Number] = n
		n += step
	}

	// Validate every target resolves before mutating anything, so a
	// failure leaves the program untouched.
	for _, l := range p.lines {
		for i, tok := range l.Tokens {
			if tok.Kind != token.KindKeyword || !renumberTargetKeywords[strings.ToUpper(tok.Text)] {
				continue
			}
			for _, j := range operandIndexes(l.Tokens, i) {
				target, ok := atoiOk(l.Tokens[j].Text)
				if !ok {
					continue
				}
				if _, exists := oldToNew[target]; !exists {
					return errs.Raise(errs.Renumber, l.Number, target)
				}
			}
		}
	}

	rewritten := make([]token.Line, len(p.lines))
	for idx, l := range p.lines {
		newLine := token.Line{Number: oldToNew[l.Number], Tokens: append([]token.Token(nil), l.Tokens...)}
		for i, tok := range l.Tokens {
			if tok.Kind != token.KindKeyword || !renumberTargetKeywords[strings.ToUpper(tok.Text)] {
				continue
			}
			for _, j := range operandIndexes(l.Tokens, i) {
				oldTarget, ok := atoiOk(l.Tokens[j].Text)
				if !ok {
					continue
				}
				newLine.Tokens[j].Text = itoa(oldToNew[oldTarget])
			}
		}
		rewritten[idx] = newLine
	}
	p.lines = rewritten
	return nil
}

// operandIndexes finds every comma-separated line-number-literal target
// following a renumber trigger keyword at kwIndex. GOTO/GOSUB/RESTORE carry
// exactly one target each in the general case, but ON...GOTO/GOSUB carries
// a comma-separated list (spec.md §4.6): when kwIndex is ON, the scan
// starts at the GOTO/GOSUB keyword that follows it on the same line
// instead, so ON's own targets are found by way of that keyword. A plain
// GOTO/GOSUB immediately governed by a preceding ON is skipped here (its
// targets are collected once, when the ON trigger is processed) so the two
// triggers never double-count the same comma list.
func operandIndexes(tokens []token.Token, kwIndex int) []int {
	start := kwIndex
	switch strings.ToUpper(tokens[kwIndex].Text) {
	case "GOTO", "GOSUB":
		if precededByOn(tokens, kwIndex) {
			return nil
		}
	case "ON":
		found := -1
		for j := kwIndex + 1; j < len(tokens); j++ {
			if tokens[j].Kind != token.KindKeyword {
				continue
			}
			up := strings.ToUpper(tokens[j].Text)
			if up == "GOTO" || up == "GOSUB" {
				found = j
				break
			}
		}
		if found < 0 {
			return nil
		}
		start = found
	}

	var out []int
	for j := start + 1; j < len(tokens); j++ {
		t := tokens[j]
		switch {
		case t.Kind == token.KindNumberInt32 || t.Kind == token.KindNumberInt64:
			out = append(out, j)
		case t.Kind == token.KindPunct && (t.Text == "," || t.Text == " "):
			continue
		default:
			return out
		}
	}
	return out
}

// precededByOn reports whether the nearest keyword token before idx is ON,
// skipping over the non-keyword tokens of ON's selector expression.
func precededByOn(tokens []token.Token, idx int) bool {
	for j := idx - 1; j >= 0; j-- {
		if tokens[j].Kind == token.KindKeyword {
			return strings.ToUpper(tokens[j].Text) == "ON"
		}
	}
	return false
}

func atoiOk(s string) (int, bool) {
	n := 0
	if s == "" {
		return 0, false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Validate checks that every stored line has a Renumber-able shape: line
// numbers strictly ascending. This is the cheap half of validate_program
// (spec.md §4.6); full re-parseability is checked by the caller, which owns
// the tokeniser.
func (p *Program) Validate() error {
	for i := 1; i < len(p.lines); i++ {
		if p.lines[i].Number <= p.lines[i-1].Number {
			return errs.Raise(errs.Broken, 0, "program lines out of order")
		}
	}
	return nil
}
