//go:build linux || darwin

package malloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// With no WithRawSource override, New must exercise the real mmap-backed
// source, not just the deterministic test doubles used everywhere else in
// this package's tests.
func TestNewUsesMmapRawSourceByDefault(t *testing.T) {
	a, err := New(WithArenaSize(4096))
	require.NoError(t, err)

	_, ok := a.raw.(*mmapRawSource)
	require.True(t, ok, "default RawSource on this platform should be mmapRawSource")

	p := a.Allocate(256)
	require.Len(t, p, 256)
	for i := range p {
		p[i] = byte(i)
	}
	a.Free(p)

	ok2, err := a.Verify()
	require.NoError(t, err)
	require.True(t, ok2)
}

// Growth must also work against the real mmap source: successive chunks
// come out of the same reserved mapping and are bump-allocated, so they
// are always adjacent.
func TestMmapRawSourceGrowthStitchesAdjacentChunks(t *testing.T) {
	a, err := New(WithArenaSize(64))
	require.NoError(t, err)
	require.Equal(t, 1, a.chunks.Len())

	a.Allocate(16)
	a.Allocate(16)

	assert.Equal(t, 1, a.chunks.Len(), "mmap-backed chunks are contiguous, so growth should merge rather than register a new chunk")

	ok, err := a.Verify()
	require.NoError(t, err)
	require.True(t, ok)
}
