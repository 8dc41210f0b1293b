// Package pseudovar implements the interpreter's pseudo-variables (§4.8.9,
// §4.8.8): reads of HIMEM/LOMEM/PAGE/TOP/VARTOP, TIME/TIME$ and FILEPATH$,
// writes of HIMEM/LOMEM/PAGE, and the @% format word. PTR#/EXT# are not
// handled here, and LEFT$/MID$/RIGHT$ as an assignment LHS live in packages
// interp and assign. The switch-on-name
// dispatch is grounded on the teacher's evalRegister (debugger/
// expressions.go), which resolves a small fixed vocabulary of special
// names ("pc", "sp", "lr") before falling through to general registers —
// generalized here from three register aliases to BASIC's pseudo-variable
// set.
package pseudovar

import (
	"strconv"
	"strings"
	"time"

	"github.com/brandygo/brandy/errs"
	"github.com/brandygo/brandy/values"
	"github.com/brandygo/brandy/workspace"
)

// IsPseudoVar reports whether name (case-insensitive, sigil included)
// names a pseudo-variable rather than an ordinary user variable.
func IsPseudoVar(name string) bool {
	switch strings.ToUpper(name) {
	case "HIMEM", "LOMEM", "PAGE", "TOP", "VARTOP", "TIME", "TIME$", "FILEPATH$":
		return true
	default:
		return false
	}
}

// Read resolves a pseudo-variable for a read access (used by the
// expression evaluator's primary parser).
func Read(ws *workspace.Workspace, name string, bootTime time.Time, filepath string) (values.StackValue, error) {
	switch strings.ToUpper(name) {
	case "HIMEM":
		return values.Int32Value(int32(ws.HiMem)), nil
	case "LOMEM":
		return values.Int32Value(int32(ws.LoMem)), nil
	case "PAGE":
		return values.Int32Value(int32(ws.Page)), nil
	case "TOP":
		return values.Int32Value(int32(ws.Top)), nil
	case "VARTOP":
		return values.Int32Value(int32(ws.VarTop)), nil
	case "TIME":
		centis := time.Since(bootTime).Milliseconds() / 10
		return values.Int32Value(int32(centis)), nil
	case "TIME$":
		s := time.Now().Format("Mon, 02 Jan 2006 15:04:05")
		addr, err := ws.AllocString(s)
		if err != nil {
			return values.StackValue{}, err
		}
		return values.StrTempValue(addr, len(s)), nil
	case "FILEPATH$":
		addr, err := ws.AllocString(filepath)
		if err != nil {
			return values.StackValue{}, err
		}
		return values.StrTempValue(addr, len(filepath)), nil
	default:
		return values.StackValue{}, errs.Raise(errs.Broken, 0, "not a pseudo-variable: "+name)
	}
}

// WriteHimem implements `HIMEM = v` (spec.md §4.8.9). Callers must first
// check the value stack is empty (raising HIMEMFIXED otherwise) — that
// check needs the interpreter's value stack, which this function is not
// given.
func WriteHimem(ws *workspace.Workspace, v int32) error {
	return ws.SetHiMem(uint32(v))
}

// WriteLomem implements `LOMEM = v`. Callers must first check they are not
// inside a procedure (LOMEMFIXED).
func WriteLomem(ws *workspace.Workspace, v int32) error {
	return ws.SetLoMem(uint32(v))
}

// WritePage implements `PAGE = v`, which implicitly performs NEW.
func WritePage(ws *workspace.Workspace, v int32) error {
	return ws.SetPage(uint32(v))
}

// FormatWord decodes the bit layout of spec.md §6.3's @% print-format
// control word.
type FormatWord struct {
	Width   int  // bits 0-7
	Digits  int  // bits 8-15
	Format  byte // bits 16-17: 0=G, 1=E, 2=F
	Comma   bool // bit 23
	AlsoStr bool // bit 24
}

// DecodeFormatWord unpacks a raw @% value.
func DecodeFormatWord(raw int32) FormatWord {
	u := uint32(raw)
	return FormatWord{
		Width:   int(u & 0xFF),
		Digits:  int((u >> 8) & 0xFF),
		Format:  byte((u >> 16) & 0x3),
		Comma:   (u>>23)&1 != 0,
		AlsoStr: (u>>24)&1 != 0,
	}
}

// Encode packs a FormatWord back into its raw 32-bit form.
func (f FormatWord) Encode() int32 {
	var u uint32
	u |= uint32(f.Width) & 0xFF
	u |= (uint32(f.Digits) & 0xFF) << 8
	u |= (uint32(f.Format) & 0x3) << 16
	if f.Comma {
		u |= 1 << 23
	}
	if f.AlsoStr {
		u |= 1 << 24
	}
	return int32(u)
}

// ParseFormatString parses the string form of @%, e.g. "F6.2", "+E10.4",
// "G0". On any parse failure the original value is preserved — the caller
// passes it back as cur and gets it back unchanged (spec.md §4.8.8).
func ParseFormatString(s string, cur FormatWord) FormatWord {
	orig := cur
	i := 0
	if i < len(s) && s[i] == '+' {
		i++
	}
	if i >= len(s) {
		return orig
	}
	switch s[i] {
	case 'G', 'g':
		cur.Format = 0
	case 'E', 'e':
		cur.Format = 1
	case 'F', 'f':
		cur.Format = 2
	default:
		return orig
	}
	i++

	widthStart := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > widthStart {
		w, err := strconv.Atoi(s[widthStart:i])
		if err != nil {
			return orig
		}
		cur.Width = w
	}

	if i < len(s) && (s[i] == '.' || s[i] == ',') {
		i++
		digitsStart := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == digitsStart {
			return orig
		}
		d, err := strconv.Atoi(s[digitsStart:i])
		if err != nil || d < 1 || d > 19 {
			return orig
		}
		cur.Digits = d
	}

	if i != len(s) {
		return orig
	}
	return cur
}
