package source

import (
	"compress/gzip"
	"io"
)

// GzipSource decodes a gzip-compressed log on the fly. It wraps an
// underlying closer (typically the os.File the gzip stream was opened
// from) so Close releases both layers.
type GzipSource struct {
	reader
	under io.Closer
}

// OpenGzip opens path as a gzip-compressed log.
func OpenGzip(path string) (*GzipSource, error) {
	f, err := OpenFileRaw(path)
	if err != nil {
		return nil, err
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &GzipSource{reader: newReader(gz, gz), under: f}, nil
}

func (s *GzipSource) Close() error {
	err := s.reader.Close()
	if cerr := s.under.Close(); err == nil {
		err = cerr
	}
	return err
}
