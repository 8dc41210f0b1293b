package workspace_test

import (
	"testing"

	"github.com/brandygo/brandy/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ClampsToMinSize(t *testing.T) {
	w, err := workspace.New(100)
	require.NoError(t, err)
	assert.Equal(t, workspace.MinSize, len(w.Bytes))
}

func TestNew_InitialBoundariesCollapsed(t *testing.T) {
	w, err := workspace.New(workspace.DefaultSize)
	require.NoError(t, err)

	assert.Equal(t, uint32(0), w.Page)
	assert.Equal(t, uint32(0), w.Top)
	assert.Equal(t, uint32(0), w.LoMem)
	assert.Equal(t, uint32(0), w.VarTop)
	assert.Equal(t, w.End(), w.HiMem)
	assert.NoError(t, w.Validate())
}

func TestWordRoundTrip(t *testing.T) {
	w, _ := workspace.New(workspace.DefaultSize)

	tests := []struct {
		name string
		addr uint32
		val  uint32
	}{
		{"zero", 0, 0},
		{"max", 16, 0xFFFFFFFF},
		{"mid", 1024, 0xDEADBEEF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, w.WriteWord(tt.addr, tt.val))
			got, err := w.ReadWord(tt.addr)
			require.NoError(t, err)
			assert.Equal(t, tt.val, got)
		})
	}
}

func TestReadWord_OutOfRange(t *testing.T) {
	w, _ := workspace.New(workspace.DefaultSize)
	_, err := w.ReadWord(w.End() - 1)
	assert.Error(t, err)
}

func TestCRString_RoundTrip(t *testing.T) {
	w, _ := workspace.New(workspace.DefaultSize)
	require.NoError(t, w.WriteCRString(100, "hello"))

	got, err := w.ReadCRString(100)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestSetPage_PerformsImplicitNew(t *testing.T) {
	w, _ := workspace.New(workspace.DefaultSize)
	w.Top = 500
	w.LoMem = 500
	w.VarTop = 500

	require.NoError(t, w.SetPage(200))
	assert.Equal(t, uint32(200), w.Page)
	assert.Equal(t, uint32(200), w.Top, "NEW should collapse TOP to PAGE")
	assert.Equal(t, uint32(200), w.LoMem)
	assert.Equal(t, uint32(200), w.VarTop)
}

func TestSetHiMem_RejectsBelowSafetyBuffer(t *testing.T) {
	w, _ := workspace.New(workspace.DefaultSize)
	w.VarTop = 1000

	err := w.SetHiMem(1000)
	assert.Error(t, err, "HIMEM must stay above VARTOP by the safety buffer")
}

func TestSetHiMem_AcceptsValidValue(t *testing.T) {
	w, _ := workspace.New(workspace.DefaultSize)
	w.VarTop = 1000

	newHimem := uint32(1000 + workspace.StackSafetyBuffer + 1)
	require.NoError(t, w.SetHiMem(newHimem))
	assert.Equal(t, newHimem, w.HiMem)
}

func TestValidate_DetectsBrokenInvariant(t *testing.T) {
	w, _ := workspace.New(workspace.DefaultSize)
	w.Top = 500
	w.Page = 600 // PAGE > TOP violates the partition order

	assert.Error(t, w.Validate())
}
