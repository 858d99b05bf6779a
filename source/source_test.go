package source

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBytesSourceReadFull(t *testing.T) {
	s := NewBytesSource([]byte{1, 2, 3, 4})
	buf := make([]byte, 2)
	require.NoError(t, s.ReadFull(buf))
	require.Equal(t, []byte{1, 2}, buf)
	require.NoError(t, s.ReadFull(buf))
	require.Equal(t, []byte{3, 4}, buf)

	err := s.ReadFull(buf)
	require.Error(t, err)
}

func TestBytesSourceReadCString(t *testing.T) {
	s := NewBytesSource([]byte("hello\x00world\x00"))
	str, err := s.ReadCString()
	require.NoError(t, err)
	require.Equal(t, "hello", str)

	str, err = s.ReadCString()
	require.NoError(t, err)
	require.Equal(t, "world", str)
}

func TestBytesSourceUnterminatedString(t *testing.T) {
	s := NewBytesSource([]byte("hello"))
	_, err := s.ReadCString()
	require.ErrorIs(t, err, ErrUnterminatedString)
}

func TestBytesSourceCloseIsOpen(t *testing.T) {
	s := NewBytesSource(nil)
	require.True(t, s.IsOpen())
	require.NoError(t, s.Close())
	require.False(t, s.IsOpen())
	// closing an already-closed source is not an error.
	require.NoError(t, s.Close())
}

func TestBytesSourceShortReadIsEOF(t *testing.T) {
	s := NewBytesSource([]byte{1, 2})
	buf := make([]byte, 4)
	err := s.ReadFull(buf)
	require.Error(t, err)
	require.True(t, err == io.ErrUnexpectedEOF || err == io.EOF)
}
