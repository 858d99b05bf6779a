package replay

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/memtrace/memtrace/record"
	"github.com/memtrace/memtrace/source"
	"github.com/stretchr/testify/require"
)

// logBuilder assembles well-formed log bytes for tests.
type logBuilder struct {
	buf bytes.Buffer
}

func newLog() *logBuilder {
	b := &logBuilder{}
	b.buf.Write(record.Magic[:])
	b.u32(record.CurrentHeaderVersion)
	b.buf.WriteByte(0) // native_traces
	b.u64(0).u64(0).i64(0).i64(0)
	b.cstring("prog")
	b.i64(1234)
	return b
}

func (b *logBuilder) u32(v uint32) *logBuilder {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	b.buf.Write(buf[:])
	return b
}

func (b *logBuilder) u64(v uint64) *logBuilder {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	b.buf.Write(buf[:])
	return b
}

func (b *logBuilder) i32(v int32) *logBuilder { return b.u32(uint32(v)) }
func (b *logBuilder) i64(v int64) *logBuilder { return b.u64(uint64(v)) }

func (b *logBuilder) cstring(s string) *logBuilder {
	b.buf.WriteString(s)
	b.buf.WriteByte(0)
	return b
}

func (b *logBuilder) tag(t record.Tag) *logBuilder {
	b.buf.WriteByte(byte(t))
	return b
}

func (b *logBuilder) frameIndex(id uint64, fn, file string, parentLineno int32) *logBuilder {
	return b.tag(record.TagFrameIndex).u64(id).cstring(fn).cstring(file).i32(parentLineno)
}

func (b *logBuilder) framePush(tid, frameID uint64) *logBuilder {
	return b.tag(record.TagFramePush).u64(tid).u64(frameID)
}

func (b *logBuilder) framePop(tid uint64, count uint32) *logBuilder {
	return b.tag(record.TagFramePop).u64(tid).u32(count)
}

func (b *logBuilder) allocation(tid uint64, address, size uint64, allocator record.Allocator, pyLineno int32, nativeFrameID uint64) *logBuilder {
	return b.tag(record.TagAllocation).u64(tid).u64(address).u64(size).u32(uint32(allocator)).i32(pyLineno).u64(nativeFrameID)
}

func (b *logBuilder) threadRecord(tid uint64, name string) *logBuilder {
	return b.tag(record.TagThreadRecord).u64(tid).cstring(name)
}

func (b *logBuilder) memoryMapStart() *logBuilder {
	return b.tag(record.TagMemoryMapStart)
}

func (b *logBuilder) segmentHeader(filename string, baseAddress uint64, segments [][2]uint64) *logBuilder {
	b.tag(record.TagSegmentHeader).cstring(filename).u64(uint64(len(segments))).u64(baseAddress)
	for _, s := range segments {
		b.tag(record.TagSegment).u64(s[0]).u64(s[1])
	}
	return b
}

func (b *logBuilder) open(t *testing.T) *Reader {
	t.Helper()
	r, err := Open(source.NewBytesSource(b.buf.Bytes()))
	require.NoError(t, err)
	return r
}

func TestEmptyLogEndsCleanly(t *testing.T) {
	r := newLog().open(t)
	_, ok, err := r.NextAllocation()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSingleAllocationNoNative(t *testing.T) {
	b := newLog().
		frameIndex(1, "f", "a.x", 10).
		framePush(7, 1).
		allocation(7, 0x1, 8, record.AllocatorMalloc, 42, 0)
	r := b.open(t)

	a, ok, err := r.NextAllocation()
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, 0, int(a.FrameIndex))

	frames := r.StackFrames(a.FrameIndex, 10)
	require.Len(t, frames, 1)
	require.Equal(t, "f", frames[0].FunctionName)
	require.Equal(t, int32(42), frames[0].Lineno)
}

func TestTwoAllocationsSameStackDifferentLines(t *testing.T) {
	b := newLog().
		frameIndex(1, "f", "a.x", 10).
		framePush(7, 1).
		allocation(7, 0x1, 8, record.AllocatorMalloc, 42, 0).
		allocation(7, 0x2, 8, record.AllocatorMalloc, 42, 0).
		allocation(7, 0x3, 8, record.AllocatorMalloc, 43, 0)
	r := b.open(t)

	a1, _, err := r.NextAllocation()
	require.NoError(t, err)
	a2, _, err := r.NextAllocation()
	require.NoError(t, err)
	a3, _, err := r.NextAllocation()
	require.NoError(t, err)

	require.Equal(t, a1.FrameIndex, a2.FrameIndex)
	require.NotEqual(t, a2.FrameIndex, a3.FrameIndex)
}

func TestPopBeforeAllocation(t *testing.T) {
	b := newLog().
		frameIndex(1, "f", "a.x", 10).
		frameIndex(2, "g", "b.x", 20).
		framePush(1, 1).
		framePush(1, 2).
		framePop(1, 1).
		allocation(1, 0x1, 8, record.AllocatorMalloc, 5, 0)
	r := b.open(t)

	a, ok, err := r.NextAllocation()
	require.NoError(t, err)
	require.True(t, ok)

	frames := r.StackFrames(a.FrameIndex, 10)
	require.Len(t, frames, 1)
	require.Equal(t, "f", frames[0].FunctionName)
}

func TestMemoryMapChurnBumpsGeneration(t *testing.T) {
	b := newLog().
		segmentHeader("libfoo.so", 0x400000, [][2]uint64{{0x1000, 0x2000}}).
		allocation(1, 0x1, 8, record.AllocatorMalloc, 1, 0).
		memoryMapStart().
		segmentHeader("libbar.so", 0x500000, [][2]uint64{{0x1000, 0x2000}}).
		allocation(1, 0x2, 8, record.AllocatorMalloc, 2, 0)
	r := b.open(t)

	a1, _, err := r.NextAllocation()
	require.NoError(t, err)
	a2, _, err := r.NextAllocation()
	require.NoError(t, err)

	require.Less(t, a1.NativeSegmentGeneration, a2.NativeSegmentGeneration)
}

func TestNativeStackFramesSkipsUnresolvedWithoutTruncating(t *testing.T) {
	b := newLog().
		tag(record.TagNativeTraceIndex).u64(0xdead).u32(0)
	r := b.open(t)

	_, _, err := r.NextAllocation()
	require.NoError(t, err)

	frames := r.NativeStackFrames(1, r.currentGeneration(), 10)
	require.Empty(t, frames)

	// Walking the same unresolved ip again must not panic or grow
	// unboundedly; the dedup set just swallows the repeat warning.
	frames = r.NativeStackFrames(1, r.currentGeneration(), 10)
	require.Empty(t, frames)
}

func TestDuplicateFrameIndexIsMalformed(t *testing.T) {
	b := newLog().
		frameIndex(1, "f", "a.x", 10).
		frameIndex(1, "g", "b.x", 20)
	r := b.open(t)

	_, _, err := r.NextAllocation()
	require.ErrorIs(t, err, ErrMalformedLog)
}

func TestFramePopOnEmptyStackIsMalformed(t *testing.T) {
	b := newLog().framePop(1, 1)
	r := b.open(t)

	_, _, err := r.NextAllocation()
	require.ErrorIs(t, err, ErrMalformedLog)
}

func TestTruncatedLogEndsCleanlyWithoutPanic(t *testing.T) {
	full := newLog().
		frameIndex(1, "f", "a.x", 10).
		framePush(7, 1).
		allocation(7, 0x1, 8, record.AllocatorMalloc, 42, 0)

	raw := full.buf.Bytes()
	for n := 0; n <= len(raw); n++ {
		r, err := Open(source.NewBytesSource(raw[:n]))
		if err != nil {
			// A truncated header is the one case Open itself rejects.
			continue
		}
		require.NotPanics(t, func() {
			for {
				_, ok, err := r.NextAllocation()
				if !ok || err != nil {
					break
				}
			}
		})
	}
}

func TestThreadName(t *testing.T) {
	b := newLog().threadRecord(7, "worker-1")
	r := b.open(t)
	_, _, err := r.NextAllocation()
	require.NoError(t, err)
	require.Equal(t, "worker-1", r.ThreadName(7))
	require.Equal(t, "", r.ThreadName(999))
}

func TestHeaderReflectsWrittenFields(t *testing.T) {
	r := newLog().open(t)
	h := r.Header()
	require.Equal(t, record.CurrentHeaderVersion, h.Version)
	require.Equal(t, "prog", h.CommandLine)
	require.Equal(t, int64(1234), h.Pid)
}

func TestDumpAllRecords(t *testing.T) {
	b := newLog().
		frameIndex(1, "f", "a.x", 10).
		framePush(7, 1).
		allocation(7, 0x1, 8, record.AllocatorMalloc, 42, 0).
		threadRecord(7, "worker-1")
	r := b.open(t)

	var out bytes.Buffer
	err := r.DumpAllRecords(&out, nil)
	require.NoError(t, err)
	require.Contains(t, out.String(), "HEADER")
	require.Contains(t, out.String(), "FRAME_ID")
	require.Contains(t, out.String(), "ALLOCATION")
	require.Contains(t, out.String(), "THREAD")
}

func TestDumpAllRecordsInterrupted(t *testing.T) {
	b := newLog().
		frameIndex(1, "f", "a.x", 10).
		framePush(7, 1).
		allocation(7, 0x1, 8, record.AllocatorMalloc, 42, 0)
	r := b.open(t)

	interrupted := make(chan struct{})
	close(interrupted)

	var out bytes.Buffer
	err := r.DumpAllRecords(&out, interrupted)
	require.NoError(t, err)
	require.Contains(t, out.String(), "HEADER")
	require.NotContains(t, out.String(), "ALLOCATION")
}
