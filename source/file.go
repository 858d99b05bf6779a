package source

import (
	"bufio"
	"bytes"
	"io"
	"os"
)

// reader is the shared core of every Source that's backed by an io.Reader:
// buffered reads plus the open/closed bookkeeping every variant needs.
type reader struct {
	r      *bufio.Reader
	closer io.Closer
	open   bool
}

func newReader(r io.Reader, closer io.Closer) reader {
	return reader{
		r:      bufio.NewReader(r),
		closer: closer,
		open:   true,
	}
}

func (s *reader) ReadFull(buf []byte) error {
	_, err := io.ReadFull(s.r, buf)
	return err
}

func (s *reader) ReadCString() (string, error) {
	b, err := s.r.ReadBytes(0)
	if err != nil {
		return "", ErrUnterminatedString
	}
	return string(b[:len(b)-1]), nil
}

func (s *reader) Close() error {
	if !s.open {
		return nil
	}
	s.open = false
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func (s *reader) IsOpen() bool {
	return s.open
}

// FileSource reads a log directly from an os.File.
type FileSource struct {
	reader
}

// OpenFile opens path for sequential reading as a log source.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{reader: newReader(f, f)}, nil
}

// OpenFileRaw opens path without wrapping it in a Source, for the
// compressed-source variants that need the raw *os.File underneath a
// decoding layer.
func OpenFileRaw(path string) (*os.File, error) {
	return os.Open(path)
}

// BytesSource is an in-memory Source, used for tests and fuzzing.
type BytesSource struct {
	reader
}

// NewBytesSource wraps b as a Source. Closing it is a no-op beyond marking
// it closed.
func NewBytesSource(b []byte) *BytesSource {
	return &BytesSource{reader: newReader(bytes.NewReader(b), nil)}
}
