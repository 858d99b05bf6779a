package symbol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerationBumpsOnClear(t *testing.T) {
	r := NewResolver()
	require.Equal(t, uint64(0), r.CurrentGeneration())
	r.ClearSegments()
	require.Equal(t, uint64(1), r.CurrentGeneration())
	r.ClearSegments()
	require.Equal(t, uint64(2), r.CurrentGeneration())
}

func TestResolveStaleGenerationMisses(t *testing.T) {
	r := NewResolver()
	r.AddSegments("/bin/true", 0x400000, []Segment{{Vaddr: 0x1000, Memsz: 0x2000}})

	_, ok := r.Resolve(0x401000, 1).Get()
	require.False(t, ok)
}

func TestResolveOutsideAnySegmentMisses(t *testing.T) {
	r := NewResolver()
	r.AddSegments("/bin/true", 0x400000, []Segment{{Vaddr: 0x1000, Memsz: 0x2000}})

	_, ok := r.Resolve(0x1, r.CurrentGeneration()).Get()
	require.False(t, ok)
}

func TestResolveMissingELFStillReportsModule(t *testing.T) {
	r := NewResolver()
	r.AddSegments("/nonexistent/lib.so", 0x400000, []Segment{{Vaddr: 0x1000, Memsz: 0x2000}})

	frames, ok := r.Resolve(0x401000, r.CurrentGeneration()).Get()
	require.True(t, ok)
	require.Len(t, frames, 1)
	require.Equal(t, "/nonexistent/lib.so", frames[0].Filename)
	require.Empty(t, frames[0].Symbol)
}

func TestClearSegmentsDropsOldMap(t *testing.T) {
	r := NewResolver()
	r.AddSegments("/bin/true", 0x400000, []Segment{{Vaddr: 0x1000, Memsz: 0x2000}})
	gen := r.CurrentGeneration()
	_, ok := r.Resolve(0x401000, gen).Get()
	require.True(t, ok)

	r.ClearSegments()
	_, ok = r.Resolve(0x401000, gen).Get()
	require.False(t, ok, "stale generation must miss after clear")

	_, ok = r.Resolve(0x401000, r.CurrentGeneration()).Get()
	require.False(t, ok, "new generation has no segments until AddSegments is called again")
}
