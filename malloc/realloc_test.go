package malloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReallocateNilActsAsAllocate(t *testing.T) {
	a, err := New(WithArenaSize(4096), WithRawSource(scatterRawSource{}))
	require.NoError(t, err)

	p := a.Reallocate(nil, 16)
	require.Len(t, p, 16)
}

func TestReallocateNonPositiveActsAsFree(t *testing.T) {
	a, err := New(WithArenaSize(4096), WithRawSource(scatterRawSource{}))
	require.NoError(t, err)

	p := a.Allocate(16)
	require.NotNil(t, p)

	got := a.Reallocate(p, 0)
	assert.Nil(t, got)

	assert.PanicsWithValue(t, ErrDoubleFree, func() { a.Free(p) })
}

func TestReallocateGrowPreservesContent(t *testing.T) {
	a, err := New(WithArenaSize(4096), WithRawSource(scatterRawSource{}))
	require.NoError(t, err)

	p := a.Allocate(8)
	require.NotNil(t, p)
	copy(p, "ABCDEFGH")

	grown := a.Reallocate(p, 64)
	require.Len(t, grown, 64)
	assert.Equal(t, []byte("ABCDEFGH"), grown[:8])
}

// This is the fix for the over-read bug named in the design notes: growing
// from a small region must only copy the bytes that actually belonged to
// it, never newSize bytes regardless of the old region's size.
func TestReallocateGrowDoesNotOverread(t *testing.T) {
	a, err := New(WithArenaSize(4096), WithRawSource(scatterRawSource{}))
	require.NoError(t, err)

	p := a.Allocate(4)
	require.NotNil(t, p)
	copy(p, "AB")

	grown := a.Reallocate(p, 4096-256)
	require.NotNil(t, grown)
	assert.Equal(t, byte('A'), grown[0])
	assert.Equal(t, byte('B'), grown[1])
}

func TestReallocateShrinkPreservesPrefix(t *testing.T) {
	a, err := New(WithArenaSize(4096), WithRawSource(scatterRawSource{}))
	require.NoError(t, err)

	p := a.Allocate(64)
	require.NotNil(t, p)
	copy(p, "0123456789")

	shrunk := a.Reallocate(p, 4)
	require.Len(t, shrunk, 4)
	assert.Equal(t, []byte("0123"), shrunk)
}
