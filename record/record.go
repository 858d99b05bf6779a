// Package record decodes the tagged binary records that make up a log,
// after the fixed header. Each tag maps to exactly one fixed-shape decode
// function; decoding never allocates more than the record itself needs and
// never panics on malformed input — short reads are reported as errors for
// the caller to classify, and ReadTag returns any tag byte as-is, leaving
// unknown tags to the caller (see package replay).
package record

import "fmt"

// Tag identifies the shape of the record that follows it in the stream.
type Tag byte

const (
	TagAllocation Tag = iota + 1
	TagFramePush
	TagFramePop
	TagFrameIndex
	TagNativeTraceIndex
	TagMemoryMapStart
	TagSegmentHeader
	TagSegment
	TagThreadRecord
)

func (t Tag) String() string {
	switch t {
	case TagAllocation:
		return "ALLOCATION"
	case TagFramePush:
		return "FRAME_PUSH"
	case TagFramePop:
		return "FRAME_POP"
	case TagFrameIndex:
		return "FRAME_INDEX"
	case TagNativeTraceIndex:
		return "NATIVE_TRACE_INDEX"
	case TagMemoryMapStart:
		return "MEMORY_MAP_START"
	case TagSegmentHeader:
		return "SEGMENT_HEADER"
	case TagSegment:
		return "SEGMENT"
	case TagThreadRecord:
		return "THREAD_RECORD"
	default:
		return fmt.Sprintf("Tag(%d)", byte(t))
	}
}

// Allocator identifies which hook produced an Allocation record.
type Allocator uint8

const (
	AllocatorMalloc Allocator = iota + 1
	AllocatorFree
	AllocatorCalloc
	AllocatorRealloc
	AllocatorPosixMemalign
	AllocatorMemalign
	AllocatorValloc
	AllocatorPvalloc
	AllocatorMmap
	AllocatorMunmap
)

func (a Allocator) String() string {
	switch a {
	case AllocatorMalloc:
		return "malloc"
	case AllocatorFree:
		return "free"
	case AllocatorCalloc:
		return "calloc"
	case AllocatorRealloc:
		return "realloc"
	case AllocatorPosixMemalign:
		return "posix_memalign"
	case AllocatorMemalign:
		return "memalign"
	case AllocatorValloc:
		return "valloc"
	case AllocatorPvalloc:
		return "pvalloc"
	case AllocatorMmap:
		return "mmap"
	case AllocatorMunmap:
		return "munmap"
	default:
		return fmt.Sprintf("<unknown allocator %d>", uint8(a))
	}
}

// Allocation is the ALLOCATION record payload.
type Allocation struct {
	Tid           uint64
	Address       uintptr
	Size          uint64
	Allocator     Allocator
	PyLineno      int32
	NativeFrameID uint64
}

// FramePush is the FRAME_PUSH record payload.
type FramePush struct {
	Tid     uint64
	FrameID uint64
}

// FramePop is the FRAME_POP record payload.
type FramePop struct {
	Tid   uint64
	Count uint32
}

// FrameIndex is the FRAME_INDEX record payload.
type FrameIndex struct {
	FrameID      uint64
	FunctionName string
	Filename     string
	ParentLineno int32
}

// NativeTraceIndex is the NATIVE_TRACE_INDEX record payload.
type NativeTraceIndex struct {
	InstructionPointer uintptr
	ParentNativeIndex  uint32
}

// Segment is one (vaddr, memsz) pair nested inside a SEGMENT_HEADER.
type Segment struct {
	Vaddr uintptr
	Memsz uint64
}

// SegmentHeader is the SEGMENT_HEADER record payload, including its nested
// SEGMENT children.
type SegmentHeader struct {
	Filename    string
	BaseAddress uintptr
	Segments    []Segment
}

// ThreadRecord is the THREAD_RECORD record payload.
type ThreadRecord struct {
	Tid  uint64
	Name string
}
