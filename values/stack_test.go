package values_test

import (
	"testing"

	"github.com/brandygo/brandy/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPop_RoundTrip(t *testing.T) {
	s := values.NewValueStack(8)
	require.NoError(t, s.PushInt32(42))
	require.NoError(t, s.PushFloat(3.5))

	v, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, values.KindFloat, v.Kind)
	assert.Equal(t, 3.5, v.Float)

	v, err = s.Pop()
	require.NoError(t, err)
	assert.Equal(t, values.KindInt32, v.Kind)
	assert.Equal(t, int32(42), v.Int32)

	assert.True(t, s.Empty())
}

func TestPush_RaisesStackFullAtLimit(t *testing.T) {
	s := values.NewValueStack(2)
	require.NoError(t, s.PushInt32(1))
	require.NoError(t, s.PushInt32(2))

	err := s.PushInt32(3)
	assert.Error(t, err)
}

func TestPop_EmptyStackIsBroken(t *testing.T) {
	s := values.NewValueStack(4)
	_, err := s.Pop()
	assert.Error(t, err)
}

func TestPeek_DoesNotRemove(t *testing.T) {
	s := values.NewValueStack(4)
	require.NoError(t, s.PushUint8(7))

	v, err := s.Peek()
	require.NoError(t, err)
	assert.Equal(t, byte(7), v.Uint8)
	assert.Equal(t, 1, s.Len())
}

func TestPopAnyNum32_CoercesFloat(t *testing.T) {
	s := values.NewValueStack(4)
	require.NoError(t, s.PushFloat(2.6))

	got, err := s.PopAnyNum32(10)
	require.NoError(t, err)
	assert.Equal(t, int32(3), got)
}

func TestPopAnyNumFP_CoercesInt64(t *testing.T) {
	s := values.NewValueStack(4)
	require.NoError(t, s.PushInt64(9000000000))

	got, err := s.PopAnyNumFP(1)
	require.NoError(t, err)
	assert.Equal(t, float64(9000000000), got)
}

func TestPushArrayTemp_MarksOwned(t *testing.T) {
	s := values.NewValueStack(4)
	desc := &values.ArrayDescriptor{ElementKind: values.KindIntArray, Dims: []int{2}, Data: []int32{0, 0, 0}}
	require.NoError(t, s.PushArrayTemp(desc))

	v, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, values.KindIntArrayTemp, v.Kind)
	assert.True(t, v.Array.Owned)
}

func TestReset_EmptiesStack(t *testing.T) {
	s := values.NewValueStack(4)
	require.NoError(t, s.PushInt32(1))
	require.NoError(t, s.PushInt32(2))

	s.Reset()
	assert.True(t, s.Empty())
}
