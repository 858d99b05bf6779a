// Package replay is the replay engine: it consumes a tagged record stream,
// maintains per-thread shadow stacks, and emits call-stack-annotated
// Allocation events, exposing the stack-walk queries described in
// record_reader.cpp's RecordReader.
package replay

import (
	"io"

	"github.com/memtrace/memtrace/calltree"
	"github.com/memtrace/memtrace/container"
	"github.com/memtrace/memtrace/frame"
	"github.com/memtrace/memtrace/mem"
	"github.com/memtrace/memtrace/mysync"
	"github.com/memtrace/memtrace/record"
	"github.com/memtrace/memtrace/slices"
	"github.com/memtrace/memtrace/source"
	"github.com/memtrace/memtrace/symbol"
	"github.com/rs/zerolog"
)

// state is the engine's lifecycle per spec.md §4.F.
type state uint8

const (
	stateOpened state = iota
	stateStreaming
	stateClosed
)

// NativeIndex identifies an entry in the native frame table. 0 is the
// empty native stack.
type NativeIndex uint32

type nativeFrame struct {
	ip     uintptr
	parent NativeIndex
}

// Allocation is the one output event the engine produces.
type Allocation struct {
	Record                  record.Allocation
	FrameIndex              calltree.Index
	NativeFrameIndex        NativeIndex
	NativeSegmentGeneration uint64
}

// sharedState holds every table a concurrent query (StackFrames,
// NativeStackFrames, ThreadName) can touch, guarded by Reader.shared. The
// shadow-stack table below Reader is deliberately not part of this struct:
// it is only ever touched by the streaming goroutine, and never by a query
// (spec.md §5).
type sharedState struct {
	interner     *frame.Interner
	tree         *calltree.Tree
	threadNames  map[uint64]string
	resolver     *symbol.Resolver
	nativeFrames *mem.BucketSlice[nativeFrame]

	// unresolvedLogged tracks which instruction pointers NativeStackFrames
	// has already warned about, so a hot unresolved ip (one outside every
	// loaded segment, walked on every allocation) logs once instead of once
	// per walk.
	unresolvedLogged container.Set[uintptr]
}

// Reader is the replay engine. It is safe for NextAllocation to be called
// from one goroutine while StackFrames/NativeStackFrames/ThreadName/Header
// are called concurrently from others; NextAllocation itself must only
// ever be called from a single goroutine at a time.
type Reader struct {
	src    source.Source
	header record.Header
	logger zerolog.Logger

	shared *mysync.Mutex[sharedState]

	// shadowStacks is touched only by the goroutine driving NextAllocation.
	shadowStacks map[uint64][]frame.ID

	state state
}

// Option configures a Reader at Open time.
type Option func(*Reader)

// WithLogger sets the logger malformed-log and I/O conditions are reported
// through. The default is zerolog.Nop().
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// Open reads and validates the header from src and returns a Reader ready
// to stream. It fails with ErrHeader wrapping the underlying cause if the
// magic or version don't match.
func Open(src source.Source, opts ...Option) (*Reader, error) {
	hdr, err := record.ReadHeader(src)
	if err != nil {
		return nil, errorsWrap(ErrHeader, err)
	}

	r := &Reader{
		src:    src,
		header: hdr,
		logger: zerolog.Nop(),
		shared: mysync.NewMutex(sharedState{
			interner:         frame.NewInterner(),
			tree:             calltree.NewTree(),
			threadNames:      make(map[uint64]string),
			resolver:         symbol.NewResolver(),
			nativeFrames:     &mem.BucketSlice[nativeFrame]{},
			unresolvedLogged: make(container.Set[uintptr]),
		}),
		shadowStacks: make(map[uint64][]frame.ID),
		state:        stateOpened,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Header returns the log's decoded header.
func (r *Reader) Header() record.Header {
	return r.header
}

// IsOpen reports whether the underlying source has not yet been closed.
func (r *Reader) IsOpen() bool {
	return r.state != stateClosed && r.src.IsOpen()
}

// Close closes the underlying source. The engine never transitions out of
// Closed afterwards.
func (r *Reader) Close() error {
	r.state = stateClosed
	return r.src.Close()
}

// NextAllocation reads records until an ALLOCATION is decoded or the
// stream ends. It returns (Allocation{}, false, nil) at a clean
// end-of-stream (including a truncated log: per spec.md §7 that's
// forgiving, not an error), and (Allocation{}, false, err) for
// ErrMalformedLog.
func (r *Reader) NextAllocation() (Allocation, bool, error) {
	if r.state != stateClosed {
		r.state = stateStreaming
	}
	for {
		tag, err := record.ReadTag(r.src)
		if err != nil {
			return r.endOfStream(err)
		}

		switch tag {
		case record.TagAllocation:
			a, err := record.DecodeAllocation(r.src)
			if err != nil {
				return r.endOfStream(err)
			}
			frameIdx, err := r.allocationFrameIndex(a)
			if err != nil {
				return Allocation{}, false, err
			}
			gen := r.currentGeneration()
			return Allocation{
				Record:                  a,
				FrameIndex:              frameIdx,
				NativeFrameIndex:        NativeIndex(a.NativeFrameID),
				NativeSegmentGeneration: gen,
			}, true, nil

		case record.TagFramePush:
			push, err := record.DecodeFramePush(r.src)
			if err != nil {
				return r.endOfStream(err)
			}
			r.shadowStacks[push.Tid] = append(r.shadowStacks[push.Tid], frame.ID(push.FrameID))

		case record.TagFramePop:
			pop, err := record.DecodeFramePop(r.src)
			if err != nil {
				return r.endOfStream(err)
			}
			if err := r.popFrames(pop.Tid, pop.Count); err != nil {
				return Allocation{}, false, err
			}

		case record.TagFrameIndex:
			fi, err := record.DecodeFrameIndex(r.src)
			if err != nil {
				return r.endOfStream(err)
			}
			if err := r.insertFrameIndex(fi); err != nil {
				return Allocation{}, false, err
			}

		case record.TagNativeTraceIndex:
			nt, err := record.DecodeNativeTraceIndex(r.src)
			if err != nil {
				return r.endOfStream(err)
			}
			shared, unlock := r.shared.Lock()
			shared.nativeFrames.Append(nativeFrame{ip: nt.InstructionPointer, parent: NativeIndex(nt.ParentNativeIndex)})
			unlock.Unlock()

		case record.TagMemoryMapStart:
			shared, unlock := r.shared.Lock()
			shared.resolver.ClearSegments()
			unlock.Unlock()

		case record.TagSegmentHeader:
			sh, err := record.DecodeSegmentHeader(r.src)
			if err != nil {
				return r.endOfStream(err)
			}
			segs := make([]symbol.Segment, len(sh.Segments))
			for i, s := range sh.Segments {
				segs[i] = symbol.Segment{Vaddr: s.Vaddr, Memsz: s.Memsz}
			}
			shared, unlock := r.shared.Lock()
			shared.resolver.AddSegments(sh.Filename, sh.BaseAddress, segs)
			unlock.Unlock()

		case record.TagThreadRecord:
			tr, err := record.DecodeThreadRecord(r.src)
			if err != nil {
				return r.endOfStream(err)
			}
			shared, unlock := r.shared.Lock()
			shared.threadNames[tr.Tid] = tr.Name
			unlock.Unlock()

		default:
			r.logger.Error().Stringer("tag", tag).Msg("invalid record type")
			return Allocation{}, false, errorsWrap(ErrMalformedLog, errUnknownTag(tag))
		}
	}
}

// endOfStream classifies a short read: a clean end-of-stream if the
// source is already closed (or this is a plain io.EOF), otherwise a
// logged ErrIO. Either way NextAllocation reports "no more allocations"
// rather than propagating a raw I/O error — a truncated log is routine,
// not a domain error (spec.md §7).
func (r *Reader) endOfStream(cause error) (Allocation, bool, error) {
	if cause == io.EOF || !r.src.IsOpen() {
		return Allocation{}, false, nil
	}
	r.logger.Error().Err(cause).Msg("I/O error reading record")
	return Allocation{}, false, nil
}

func (r *Reader) currentGeneration() uint64 {
	shared, unlock := r.shared.RLock()
	defer unlock.RUnlock()
	return shared.resolver.CurrentGeneration()
}

func (r *Reader) insertFrameIndex(fi record.FrameIndex) error {
	shared, unlock := r.shared.Lock()
	defer unlock.Unlock()
	err := shared.interner.Insert(frame.ID(fi.FrameID), frame.Frame{
		FunctionName: fi.FunctionName,
		Filename:     fi.Filename,
		ParentLineno: fi.ParentLineno,
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("duplicate frame index")
		return errorsWrap(ErrMalformedLog, err)
	}
	return nil
}

func (r *Reader) popFrames(tid uint64, count uint32) error {
	stack := r.shadowStacks[tid]
	for i := uint32(0); i < count; i++ {
		var ok bool
		_, stack, ok = slices.Pop(stack)
		if !ok {
			r.logger.Error().Uint64("tid", tid).Msg("frame pop on empty shadow stack")
			r.shadowStacks[tid] = stack
			return errorsWrap(ErrMalformedLog, errPopEmptyStack(tid))
		}
	}
	r.shadowStacks[tid] = stack
	return nil
}

// allocationFrameIndex implements the innermost-frame line-number patching
// algorithm (spec.md §4.F): the top of tid's shadow stack is replaced
// in-place with a frame that carries record.PyLineno as its current line,
// interning that patched frame if it's new, before folding the stack into
// the call-stack tree.
func (r *Reader) allocationFrameIndex(a record.Allocation) (calltree.Index, error) {
	stack := r.shadowStacks[a.Tid]
	if len(stack) == 0 {
		return 0, nil
	}

	shared, unlock := r.shared.Lock()
	defer unlock.Unlock()

	top := stack[len(stack)-1]
	base, ok := shared.interner.Lookup(top)
	if !ok {
		// A native-only or otherwise unindexed frame id; fold the stack
		// as-is rather than failing the whole allocation.
		return shared.tree.GetTraceIndex(stack), nil
	}
	patched := frame.Frame{
		FunctionName: base.FunctionName,
		Filename:     base.Filename,
		ParentLineno: base.ParentLineno,
		Lineno:       a.PyLineno,
	}
	patchedID, _ := shared.interner.GetOrAssign(patched)
	stack[len(stack)-1] = patchedID
	r.shadowStacks[a.Tid] = stack

	return shared.tree.GetTraceIndex(stack), nil
}
