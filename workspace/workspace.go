// Package workspace implements the interpreter's single contiguous byte
// region (spec.md §3.1): one allocation hosting program text, the variable
// heap, the string heap and the evaluation stack, addressed by byte offset
// from the region's base.
package workspace

import (
	"encoding/binary"
	"fmt"

	"github.com/brandygo/brandy/errs"
)

// Size bounds, per spec.md §3.1.
const (
	MinSize = 64 * 1024
	// DefaultSize matches the teacher's default stack segment size scaled up
	// to a single-region workspace typical of a Brandy-class interpreter.
	DefaultSize = 1024 * 1024

	// StackSafetyBuffer is the minimum gap kept between VarTop and HiMem so
	// an in-flight evaluation always has room to push at least one value.
	StackSafetyBuffer = 1024
)

// Workspace is the allocator of component B. Addresses are plain offsets
// into Bytes; there is deliberately no segment/permission model (unlike the
// teacher's Memory, which partitions a fixed code/data/heap/stack layout) —
// BASIC's PAGE/TOP/LOMEM/VARTOP/HIMEM boundaries move at runtime within one
// region, so segmentation would only get in the way.
type Workspace struct {
	Bytes []byte

	Page   uint32 // start of program text
	Top    uint32 // end of program text / start of variable heap (derived)
	LoMem  uint32 // start of variable heap
	VarTop uint32 // current top of used heap (derived)
	HiMem  uint32 // top of stack-growing region
}

// New allocates a workspace of the given size, clamped to MinSize, with all
// boundaries collapsed to the bottom of the region (an empty program).
func New(size int) (*Workspace, error) {
	if size < MinSize {
		size = MinSize
	}
	w := &Workspace{Bytes: make([]byte, size)}
	w.resetBoundaries()
	return w, nil
}

func (w *Workspace) resetBoundaries() {
	w.Page = 0
	w.Top = 0
	w.LoMem = 0
	w.VarTop = 0
	w.HiMem = uint32(len(w.Bytes))
}

// End returns the address one past the last valid byte.
func (w *Workspace) End() uint32 { return uint32(len(w.Bytes)) }

// Release discards the workspace's backing storage. The Workspace must not
// be used again afterwards.
func (w *Workspace) Release() {
	w.Bytes = nil
	w.resetBoundaries()
}

// Resize replaces the backing buffer with one of newSize bytes. On failure
// (newSize too small, or allocation panics upstream) the old region is kept
// and NOMEMORY is raised, matching spec.md §4.2's destructive-resize
// contract.
func (w *Workspace) Resize(newSize int) (err error) {
	if newSize < MinSize {
		return errs.Raise(errs.NoMemory, 0, newSize)
	}
	old := w.Bytes
	defer func() {
		if r := recover(); r != nil {
			w.Bytes = old
			err = errs.Raise(errs.NoMemory, 0, newSize)
		}
	}()
	w.Bytes = make([]byte, newSize)
	if int(w.HiMem) > newSize {
		w.HiMem = uint32(newSize)
	}
	return nil
}

// ClearProgram implements NEW: collapses Top/LoMem/VarTop back to Page and
// clears the variable heap, string heap and stack in the same motion
// (spec.md §4.2).
func (w *Workspace) ClearProgram() {
	w.Top = w.Page
	w.LoMem = w.Top
	w.VarTop = w.LoMem
}

// ClearHeap resets the variable heap without touching program text.
func (w *Workspace) ClearHeap() {
	w.VarTop = w.LoMem
}

// ClearStrings resets the string heap by calling ClearHeap; the separate
// name marks the string-heap reset at the call site. In this single-region
// model both heaps share VarTop, so clearing one clears both.
func (w *Workspace) ClearStrings() {
	w.ClearHeap()
}

// ClearStack resets HiMem's stack-growing region to empty. Since the stack
// grows down from HiMem, "empty" just means "nothing has been pushed";
// callers track their own stack pointer (see package values).
func (w *Workspace) ClearStack() {}

// Validate checks the workspace partition invariant of spec.md §3.1:
// PAGE ≤ TOP ≤ LOMEM ≤ VARTOP ≤ (HIMEM − StackSafetyBuffer) ≤ HIMEM ≤ end.
func (w *Workspace) Validate() error {
	end := w.End()
	switch {
	case w.Page > w.Top:
	case w.Top > w.LoMem:
	case w.LoMem > w.VarTop:
	case w.HiMem > end:
	case w.VarTop+StackSafetyBuffer > w.HiMem:
		return errs.Raise(errs.Broken, 0, "workspace partition invariant violated")
	default:
		return nil
	}
	return errs.Raise(errs.Broken, 0, "workspace partition invariant violated")
}

// checkRange validates that [addr, addr+n) lies within the region.
func (w *Workspace) checkRange(addr uint32, n uint32) error {
	if uint64(addr)+uint64(n) > uint64(len(w.Bytes)) {
		return errs.Raise(errs.Address, 0, addr)
	}
	return nil
}

// ReadByte reads one byte at an absolute offset. No permission or bounds
// check beyond the region end is performed for in-range reads — the
// indirection operators of spec.md §4.8.6 are intentionally unchecked
// against PAGE/TOP/HIMEM, only against the region itself.
func (w *Workspace) ReadByte(addr uint32) (byte, error) {
	if err := w.checkRange(addr, 1); err != nil {
		return 0, err
	}
	return w.Bytes[addr], nil
}

// WriteByte writes one byte at an absolute offset.
func (w *Workspace) WriteByte(addr uint32, v byte) error {
	if err := w.checkRange(addr, 1); err != nil {
		return err
	}
	w.Bytes[addr] = v
	return nil
}

// ReadWord reads a little-endian 32-bit word (the `!` indirection operator).
func (w *Workspace) ReadWord(addr uint32) (uint32, error) {
	if err := w.checkRange(addr, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(w.Bytes[addr:]), nil
}

// WriteWord writes a little-endian 32-bit word.
func (w *Workspace) WriteWord(addr uint32, v uint32) error {
	if err := w.checkRange(addr, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(w.Bytes[addr:], v)
	return nil
}

// ReadFloat64 reads the 8-byte IEEE-754 double used by the `|` indirection
// operator.
func (w *Workspace) ReadFloat64(addr uint32) (uint64, error) {
	if err := w.checkRange(addr, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(w.Bytes[addr:]), nil
}

// WriteFloat64Bits writes the raw bit pattern of an IEEE-754 double.
func (w *Workspace) WriteFloat64Bits(addr uint32, bits uint64) error {
	if err := w.checkRange(addr, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(w.Bytes[addr:], bits)
	return nil
}

// ReadCRString reads bytes from addr up to (not including) the first CR
// (0x0D), the representation used by the `$` indirection operator.
func (w *Workspace) ReadCRString(addr uint32) (string, error) {
	end := addr
	for {
		if end >= w.End() {
			return "", errs.Raise(errs.Address, 0, addr)
		}
		if w.Bytes[end] == 0x0D {
			break
		}
		end++
	}
	return string(w.Bytes[addr:end]), nil
}

// WriteCRString writes s at addr followed by a terminating CR.
func (w *Workspace) WriteCRString(addr uint32, s string) error {
	if err := w.checkRange(addr, uint32(len(s))+1); err != nil {
		return err
	}
	copy(w.Bytes[addr:], s)
	w.Bytes[addr+uint32(len(s))] = 0x0D
	return nil
}

// ReadBytes reads exactly n bytes at addr, for callers (package values,
// package assign) that already know a string descriptor's length and don't
// need the CR-scanning of ReadCRString.
func (w *Workspace) ReadBytes(addr uint32, n int) (string, error) {
	if err := w.checkRange(addr, uint32(n)); err != nil {
		return "", err
	}
	return string(w.Bytes[addr : addr+uint32(n)]), nil
}

// AllocString reserves room for s on the string heap by bumping VarTop
// upward and writing s CR-terminated there, the same direction and
// terminator convention as WriteCRString. It is the backing allocator for
// every STRTEMP value (string literals, concatenation results, pseudo-
// variable string reads): a monotonically-increasing pointer used as a
// LIFO string stack, matching how the source dialect's temporary-string
// workspace behaves (spec.md §9's "String heap aliasing" note).
func (w *Workspace) AllocString(s string) (uint32, error) {
	need := uint32(len(s)) + 1
	if w.VarTop+need+StackSafetyBuffer > w.HiMem {
		return 0, errs.Raise(errs.NoMemory, 0)
	}
	addr := w.VarTop
	if err := w.WriteCRString(addr, s); err != nil {
		return 0, err
	}
	w.VarTop += need
	return addr, nil
}

// FreeString reclaims a previously allocated string's space if it sits at
// the current top of heap (VarTop immediately follows it); otherwise this
// is a no-op. Only the most-recently-allocated STRTEMP can be physically
// reclaimed without a general-purpose allocator — the same LIFO discipline
// real BASIC's temporary-string stack relies on.
func (w *Workspace) FreeString(addr uint32, length int) {
	need := uint32(length) + 1
	if addr+need == w.VarTop {
		w.VarTop = addr
	}
}

// SetPage implements the PAGE pseudo-variable's assignment contract: the
// new value must lie inside the workspace, and setting it performs an
// implicit NEW (spec.md §4.8.9).
func (w *Workspace) SetPage(addr uint32) error {
	if addr >= w.End() {
		return errs.Raise(errs.BadPage, 0, addr)
	}
	w.Page = addr
	w.ClearProgram()
	return nil
}

// SetLoMem implements LOMEM's assignment contract: at or above TOP, below
// HIMEM, and never while inside a procedure (checked by the caller, which
// knows the call-depth context LOMEM itself does not). The address is
// stored as given; it is not aligned.
func (w *Workspace) SetLoMem(addr uint32) error {
	if addr < w.Top || addr >= w.HiMem {
		return errs.Raise(errs.BadLomem, 0, addr)
	}
	w.LoMem = addr
	w.VarTop = addr
	return nil
}

// SetHiMem implements HIMEM's assignment contract: bounds-checked against
// VarTop+safety buffer and the region end; the address is stored as given,
// not aligned. Callers must ensure the
// value stack is empty before calling (spec.md §4.8.9's HIMEMFIXED rule is
// enforced one layer up, in package interp, which knows stack occupancy).
func (w *Workspace) SetHiMem(addr uint32) error {
	if addr > w.End() || addr < w.VarTop+StackSafetyBuffer {
		return errs.Raise(errs.BadHimem, 0, addr)
	}
	w.HiMem = addr
	return nil
}

// String renders the five boundaries for diagnostics, mirroring the
// teacher's habit of giving state structs a readable String().
func (w *Workspace) String() string {
	return fmt.Sprintf("PAGE=%#08x TOP=%#08x LOMEM=%#08x VARTOP=%#08x HIMEM=%#08x END=%#08x",
		w.Page, w.Top, w.LoMem, w.VarTop, w.HiMem, w.End())
}
