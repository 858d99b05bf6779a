package replay

import (
	"fmt"

	"github.com/memtrace/memtrace/record"
	"github.com/pkg/errors"
)

// The four error kinds spec.md §7 names. HeaderError is returned directly
// by Open (wrapped with context); ErrMalformedLog is returned by
// NextAllocation and DumpAllRecords; ErrIO and ErrHost are never returned
// by the core (see each below).
var (
	// ErrHeader marks a bad magic or unsupported version. Fatal at Open.
	ErrHeader = errors.New("replay: invalid header")
	// ErrIO names a short read at a field boundary. NextAllocation does not
	// return it: a short read terminates the stream, is logged unless the
	// source is already closed or at a plain io.EOF, and is reported as a
	// clean end-of-stream either way.
	ErrIO = errors.New("replay: I/O error reading record")
	// ErrMalformedLog marks a structural violation of well-formed bytes:
	// duplicate FRAME_INDEX id, unknown record tag, or FRAME_POP on an
	// empty shadow stack.
	ErrMalformedLog = errors.New("replay: malformed log")
	// ErrHost marks a failure materializing host-language objects from a
	// query result. The core never returns this itself; it's reserved for
	// host-marshaling adapters built on top of Reader.
	ErrHost = errors.New("replay: host materialization error")
)

// errorsWrap attaches cause's message to sentinel while keeping sentinel as
// the error chain's root cause, so callers can still errors.Is against the
// sentinel, the way symtable.go's errors.Wrap(err, "...") keeps the
// original debug/elf error reachable through Unwrap.
func errorsWrap(sentinel, cause error) error {
	return errors.WithMessage(sentinel, cause.Error())
}

func errUnknownTag(tag record.Tag) error {
	return fmt.Errorf("unknown record tag %s", tag)
}

func errPopEmptyStack(tid uint64) error {
	return fmt.Errorf("frame pop on empty shadow stack for tid %d", tid)
}

func errBareSegmentTag() error {
	return fmt.Errorf("SEGMENT tag outside SEGMENT_HEADER")
}
