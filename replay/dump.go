package replay

import (
	"fmt"
	"io"

	"github.com/memtrace/memtrace/record"
)

// DumpAllRecords textually prints every record in the stream, in order,
// for diagnostic purposes. It is not part of the data-producing API: it
// doesn't intern frames, fold stacks, or touch the symbol resolver, it
// just decodes and prints. It stops early, returning nil, if interrupted
// is closed or ready to receive, mirroring the original's per-record
// PyErr_CheckSignals() poll so a caller can Ctrl-C a long dump cleanly.
func (r *Reader) DumpAllRecords(w io.Writer, interrupted <-chan struct{}) error {
	fmt.Fprintf(w, "HEADER version=%d native_traces=%t n_allocations=%d n_frames=%d"+
		" start_time=%d end_time=%d pid=%d command_line=%s\n",
		r.header.Version, r.header.NativeTraces,
		r.header.Stats.NAllocations, r.header.Stats.NFrames,
		r.header.Stats.StartTime, r.header.Stats.EndTime,
		r.header.Pid, r.header.CommandLine)

	for {
		select {
		case <-interrupted:
			return nil
		default:
		}

		tag, err := record.ReadTag(r.src)
		if err != nil {
			return nil
		}

		switch tag {
		case record.TagAllocation:
			a, err := record.DecodeAllocation(r.src)
			if err != nil {
				return nil
			}
			fmt.Fprintf(w, "ALLOCATION tid=%d address=%#x size=%d allocator=%s py_lineno=%d native_frame_id=%d\n",
				a.Tid, a.Address, a.Size, a.Allocator, a.PyLineno, a.NativeFrameID)

		case record.TagFramePush:
			f, err := record.DecodeFramePush(r.src)
			if err != nil {
				return nil
			}
			fmt.Fprintf(w, "FRAME_PUSH tid=%d frame_id=%d\n", f.Tid, f.FrameID)

		case record.TagFramePop:
			f, err := record.DecodeFramePop(r.src)
			if err != nil {
				return nil
			}
			fmt.Fprintf(w, "FRAME_POP tid=%d count=%d\n", f.Tid, f.Count)

		case record.TagFrameIndex:
			f, err := record.DecodeFrameIndex(r.src)
			if err != nil {
				return nil
			}
			fmt.Fprintf(w, "FRAME_ID frame_id=%d function_name=%s filename=%s parent_lineno=%d\n",
				f.FrameID, f.FunctionName, f.Filename, f.ParentLineno)

		case record.TagNativeTraceIndex:
			n, err := record.DecodeNativeTraceIndex(r.src)
			if err != nil {
				return nil
			}
			fmt.Fprintf(w, "NATIVE_FRAME_ID ip=%#x index=%d\n", n.InstructionPointer, n.ParentNativeIndex)

		case record.TagMemoryMapStart:
			fmt.Fprintln(w, "MEMORY_MAP_START")

		case record.TagSegmentHeader:
			sh, err := record.DecodeSegmentHeader(r.src)
			if err != nil {
				return nil
			}
			fmt.Fprintf(w, "SEGMENT_HEADER filename=%s num_segments=%d addr=%#x\n",
				sh.Filename, len(sh.Segments), sh.BaseAddress)
			for _, s := range sh.Segments {
				fmt.Fprintf(w, "SEGMENT %#x %d\n", s.Vaddr, s.Memsz)
			}

		case record.TagSegment:
			// A bare SEGMENT tag only makes sense nested inside
			// SEGMENT_HEADER, which consumes its children itself; seeing one
			// here is ambiguous in the original source and treated as
			// malformed, per spec.md §9.
			return errorsWrap(ErrMalformedLog, errBareSegmentTag())

		case record.TagThreadRecord:
			t, err := record.DecodeThreadRecord(r.src)
			if err != nil {
				return nil
			}
			fmt.Fprintf(w, "THREAD tid=%d name=%s\n", t.Tid, t.Name)

		default:
			fmt.Fprintf(w, "UNKNOWN RECORD TYPE %d\n", byte(tag))
			return nil
		}
	}
}
