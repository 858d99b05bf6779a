package frame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertAndLookup(t *testing.T) {
	in := NewInterner()
	f := Frame{FunctionName: "f", Filename: "a.py", ParentLineno: 10}
	require.NoError(t, in.Insert(1, f))

	got, ok := in.Lookup(1)
	require.True(t, ok)
	require.Equal(t, f, got)
}

func TestInsertDuplicateID(t *testing.T) {
	in := NewInterner()
	f := Frame{FunctionName: "f", Filename: "a.py", ParentLineno: 10}
	require.NoError(t, in.Insert(1, f))

	err := in.Insert(1, Frame{FunctionName: "g", Filename: "b.py", ParentLineno: 20})
	require.Error(t, err)
	var dup ErrDuplicateID
	require.ErrorAs(t, err, &dup)
	require.Equal(t, ID(1), dup.ID)
}

func TestGetOrAssignDedupesByValue(t *testing.T) {
	in := NewInterner()
	f := Frame{FunctionName: "f", Filename: "a.py", ParentLineno: 10, Lineno: 42}

	id1, isNew1 := in.GetOrAssign(f)
	require.True(t, isNew1)

	id2, isNew2 := in.GetOrAssign(f)
	require.False(t, isNew2)
	require.Equal(t, id1, id2)
}

func TestGetOrAssignDistinguishesLineno(t *testing.T) {
	in := NewInterner()
	base := Frame{FunctionName: "f", Filename: "a.py", ParentLineno: 10}

	id1, _ := in.GetOrAssign(func() Frame { f := base; f.Lineno = 42; return f }())
	id2, _ := in.GetOrAssign(func() Frame { f := base; f.Lineno = 43; return f }())
	require.NotEqual(t, id1, id2)
}

func TestGetOrAssignIDsAreDisjointFromTracerIDs(t *testing.T) {
	in := NewInterner()
	id, isNew := in.GetOrAssign(Frame{FunctionName: "f"})
	require.True(t, isNew)
	require.GreaterOrEqual(t, uint64(id), uint64(syntheticIDBase))
}

func TestGetOrAssignFramesAreFindableByLookup(t *testing.T) {
	in := NewInterner()
	f := Frame{FunctionName: "f", Filename: "a.py", Lineno: 1}
	id, _ := in.GetOrAssign(f)

	got, ok := in.Lookup(id)
	require.True(t, ok)
	require.Equal(t, f, got)
}
