package source

import (
	"io"

	"github.com/golang/snappy"
)

// SnappySource decodes a snappy-framed compressed log on the fly.
type SnappySource struct {
	reader
	under io.Closer
}

// OpenSnappy opens path as a snappy-framed compressed log.
func OpenSnappy(path string) (*SnappySource, error) {
	f, err := OpenFileRaw(path)
	if err != nil {
		return nil, err
	}
	sr := snappy.NewReader(f)
	return &SnappySource{reader: newReader(sr, nil), under: f}, nil
}

func (s *SnappySource) Close() error {
	err := s.reader.Close()
	if cerr := s.under.Close(); err == nil {
		err = cerr
	}
	return err
}
