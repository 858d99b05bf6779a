package stringcache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternReturnsEqualValue(t *testing.T) {
	c := New(16)
	require.Equal(t, "hello", c.Intern("hello"))
	require.Equal(t, "hello", c.Intern("hello"))
}

func TestInternDistinctValues(t *testing.T) {
	c := New(16)
	require.Equal(t, "a", c.Intern("a"))
	require.Equal(t, "b", c.Intern("b"))
}
