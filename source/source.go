// Package source abstracts the sequential, blocking byte stream a log is
// read from. The record codec and replay engine only ever see this
// interface; file, compressed-file, and in-memory variants are
// interchangeable behind it.
package source

import "errors"

// ErrUnterminatedString is returned by ReadCString when the source reaches
// EOF before a NUL delimiter.
var ErrUnterminatedString = errors.New("source: unterminated string")

// Source is a single-consumer, one-way byte stream. Implementations are not
// required to be safe for concurrent use; the replay engine never calls a
// Source from more than one goroutine.
type Source interface {
	// ReadFull reads exactly len(buf) bytes into buf. It returns an error,
	// typically io.ErrUnexpectedEOF or io.EOF, if fewer bytes are
	// available.
	ReadFull(buf []byte) error
	// ReadCString reads bytes up to and including the next NUL byte and
	// returns them, excluding the NUL, as a string. It returns
	// ErrUnterminatedString if EOF is reached first.
	ReadCString() (string, error)
	// Close closes the underlying transport. Closing a source already at
	// EOF is not an error.
	Close() error
	// IsOpen reports whether the source has not yet been closed.
	IsOpen() bool
}
