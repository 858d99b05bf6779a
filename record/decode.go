package record

import (
	"encoding/binary"
	"fmt"

	"github.com/memtrace/memtrace/source"
	myunsafe "github.com/memtrace/memtrace/unsafe"
)

// fieldReader centralizes the little-endian, native-width scalar reads
// every record decoder needs, the way perf2.File's u32/u64/str helpers do
// for the teacher's perf.data parser.
type fieldReader struct {
	src     source.Source
	scratch [8]byte
}

func newFieldReader(src source.Source) *fieldReader {
	return &fieldReader{src: src}
}

func (r *fieldReader) u32() (uint32, error) {
	if err := r.src.ReadFull(r.scratch[:4]); err != nil {
		return 0, fmt.Errorf("record: couldn't read u32: %w", err)
	}
	return binary.LittleEndian.Uint32(r.scratch[:4]), nil
}

func (r *fieldReader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

func (r *fieldReader) u64() (uint64, error) {
	if err := r.src.ReadFull(r.scratch[:8]); err != nil {
		return 0, fmt.Errorf("record: couldn't read u64: %w", err)
	}
	return binary.LittleEndian.Uint64(r.scratch[:8]), nil
}

func (r *fieldReader) i64() (int64, error) {
	v, err := r.u64()
	return int64(v), err
}

func (r *fieldReader) uintptr() (uintptr, error) {
	v, err := r.u64()
	return uintptr(v), err
}

func (r *fieldReader) bool() (bool, error) {
	if err := r.src.ReadFull(r.scratch[:1]); err != nil {
		return false, fmt.Errorf("record: couldn't read bool: %w", err)
	}
	return r.scratch[0] != 0, nil
}

func (r *fieldReader) cstring() (string, error) {
	s, err := r.src.ReadCString()
	if err != nil {
		return "", fmt.Errorf("record: couldn't read string: %w", err)
	}
	return s, nil
}

// ReadHeader reads and validates the fixed-layout header that precedes the
// tagged record stream. A magic or version mismatch is fatal and reported
// to the caller as-is; the caller (package replay) classifies it as
// ErrHeader.
func ReadHeader(src source.Source) (Header, error) {
	var magic [len(Magic)]byte
	if err := src.ReadFull(magic[:]); err != nil {
		return Header{}, fmt.Errorf("record: couldn't read magic: %w", err)
	}
	if magic != Magic {
		return Header{}, fmt.Errorf("record: bad magic %x, want %x", magic, Magic)
	}

	r := newFieldReader(src)
	version, err := r.u32()
	if err != nil {
		return Header{}, err
	}
	if version != CurrentHeaderVersion {
		return Header{}, fmt.Errorf("record: unsupported header version %d, want %d", version, CurrentHeaderVersion)
	}

	nativeTraces, err := r.bool()
	if err != nil {
		return Header{}, err
	}

	// Stats is four uniformly 8-byte fields with no trailing padding, so it
	// can be read in one shot the way perf2.go's File.init reads f.hdr,
	// instead of field-by-field.
	var stats Stats
	if err := src.ReadFull(myunsafe.AsBytes(&stats)); err != nil {
		return Header{}, fmt.Errorf("record: couldn't read stats: %w", err)
	}

	cmdline, err := r.cstring()
	if err != nil {
		return Header{}, err
	}

	pid, err := r.i64()
	if err != nil {
		return Header{}, err
	}

	return Header{
		Version:      version,
		NativeTraces: nativeTraces,
		Stats:        stats,
		CommandLine:  cmdline,
		Pid:          pid,
	}, nil
}

// ReadTag reads the one-byte tag that precedes every record.
func ReadTag(src source.Source) (Tag, error) {
	var buf [1]byte
	if err := src.ReadFull(buf[:]); err != nil {
		return 0, err
	}
	return Tag(buf[0]), nil
}

func DecodeAllocation(src source.Source) (Allocation, error) {
	r := newFieldReader(src)
	var a Allocation
	var err error
	if a.Tid, err = r.u64(); err != nil {
		return Allocation{}, err
	}
	if a.Address, err = r.uintptr(); err != nil {
		return Allocation{}, err
	}
	if a.Size, err = r.u64(); err != nil {
		return Allocation{}, err
	}
	allocator, err := r.u32()
	if err != nil {
		return Allocation{}, err
	}
	a.Allocator = Allocator(allocator)
	if a.PyLineno, err = r.i32(); err != nil {
		return Allocation{}, err
	}
	if a.NativeFrameID, err = r.u64(); err != nil {
		return Allocation{}, err
	}
	return a, nil
}

// DecodeFramePush decodes a FRAME_PUSH record. Both fields are 8-byte
// words with no trailing padding, so it's read in one shot the way
// perf2.go's File.init reads its fixed-layout structs, rather than field
// by field.
func DecodeFramePush(src source.Source) (FramePush, error) {
	var f FramePush
	if err := src.ReadFull(myunsafe.AsBytes(&f)); err != nil {
		return FramePush{}, fmt.Errorf("record: couldn't read frame push: %w", err)
	}
	return f, nil
}

func DecodeFramePop(src source.Source) (FramePop, error) {
	r := newFieldReader(src)
	var f FramePop
	var err error
	if f.Tid, err = r.u64(); err != nil {
		return FramePop{}, err
	}
	if f.Count, err = r.u32(); err != nil {
		return FramePop{}, err
	}
	return f, nil
}

func DecodeFrameIndex(src source.Source) (FrameIndex, error) {
	r := newFieldReader(src)
	var f FrameIndex
	var err error
	if f.FrameID, err = r.u64(); err != nil {
		return FrameIndex{}, err
	}
	if f.FunctionName, err = r.cstring(); err != nil {
		return FrameIndex{}, err
	}
	if f.Filename, err = r.cstring(); err != nil {
		return FrameIndex{}, err
	}
	if f.ParentLineno, err = r.i32(); err != nil {
		return FrameIndex{}, err
	}
	return f, nil
}

func DecodeNativeTraceIndex(src source.Source) (NativeTraceIndex, error) {
	r := newFieldReader(src)
	var n NativeTraceIndex
	var err error
	if n.InstructionPointer, err = r.uintptr(); err != nil {
		return NativeTraceIndex{}, err
	}
	parent, err := r.u32()
	if err != nil {
		return NativeTraceIndex{}, err
	}
	n.ParentNativeIndex = parent
	return n, nil
}

// DecodeSegment decodes one SEGMENT record. It does not read a leading tag
// byte: callers that expect one nested inside a SEGMENT_HEADER (as the
// on-disk format does) must read and check it themselves. Vaddr and Memsz
// are both 8-byte words with no trailing padding, so, as with FramePush,
// it's one bulk read rather than field by field.
func DecodeSegment(src source.Source) (Segment, error) {
	var s Segment
	if err := src.ReadFull(myunsafe.AsBytes(&s)); err != nil {
		return Segment{}, fmt.Errorf("record: couldn't read segment: %w", err)
	}
	return s, nil
}

// DecodeSegmentHeader decodes a SEGMENT_HEADER and its num_segments nested
// SEGMENT children, each of which is itself preceded by a SEGMENT tag byte
// on the wire.
func DecodeSegmentHeader(src source.Source) (SegmentHeader, error) {
	r := newFieldReader(src)
	var h SegmentHeader
	var err error
	if h.Filename, err = r.cstring(); err != nil {
		return SegmentHeader{}, err
	}
	numSegments, err := r.u64()
	if err != nil {
		return SegmentHeader{}, err
	}
	if h.BaseAddress, err = r.uintptr(); err != nil {
		return SegmentHeader{}, err
	}

	// numSegments comes off the wire, so it only bounds the preallocation
	// rather than sizing it; a corrupt count then fails at a short read.
	h.Segments = make([]Segment, 0, min(numSegments, 64))
	for i := uint64(0); i < numSegments; i++ {
		tag, err := ReadTag(src)
		if err != nil {
			return SegmentHeader{}, err
		}
		if tag != TagSegment {
			return SegmentHeader{}, fmt.Errorf("record: expected SEGMENT inside SEGMENT_HEADER, got %s", tag)
		}
		seg, err := DecodeSegment(src)
		if err != nil {
			return SegmentHeader{}, err
		}
		h.Segments = append(h.Segments, seg)
	}
	return h, nil
}

func DecodeThreadRecord(src source.Source) (ThreadRecord, error) {
	r := newFieldReader(src)
	var t ThreadRecord
	var err error
	if t.Tid, err = r.u64(); err != nil {
		return ThreadRecord{}, err
	}
	if t.Name, err = r.cstring(); err != nil {
		return ThreadRecord{}, err
	}
	return t, nil
}
