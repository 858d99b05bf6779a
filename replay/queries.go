package replay

import (
	"github.com/memtrace/memtrace/calltree"
	"github.com/memtrace/memtrace/frame"
	"github.com/memtrace/memtrace/symbol"
)

// StackFrames walks the call-stack tree from idx towards the root,
// collecting at most max frames. Each frame's displayed line is the call
// site recorded in its child (the frame one level further from the root),
// which is what "current line" means for anything but the frame that was
// actually live when the allocation happened; the innermost frame's own
// Lineno, set by the line-patching in allocationFrameIndex, serves that
// role with no child to borrow from.
func (r *Reader) StackFrames(idx calltree.Index, max int) []frame.Frame {
	shared, unlock := r.shared.RLock()
	defer unlock.RUnlock()

	var out []frame.Frame
	cur := idx
	haveChild := false
	var childParentLineno int32
	for cur != 0 && len(out) < max {
		id, parent := shared.tree.NextNode(cur)
		fr, ok := shared.interner.Lookup(id)
		if !ok {
			break
		}
		lineno := fr.Lineno
		if haveChild {
			lineno = childParentLineno
		}
		out = append(out, frame.Frame{
			FunctionName: fr.FunctionName,
			Filename:     fr.Filename,
			ParentLineno: fr.ParentLineno,
			Lineno:       lineno,
		})
		childParentLineno = fr.ParentLineno
		haveChild = true
		cur = parent
	}
	return out
}

// NativeStackFrames walks the native frame table from idx towards the
// root, bounded by max, resolving each instruction pointer under
// generation. Entries that fail to resolve (stale generation, ip outside
// every loaded segment) are skipped rather than truncating the walk; the
// first miss for a given ip is logged, and further misses for that same ip
// are suppressed (an ip outside every loaded segment gets walked on every
// allocation, so without the dedup this would warn once per allocation).
func (r *Reader) NativeStackFrames(idx NativeIndex, generation uint64, max int) []symbol.ResolvedFrame {
	shared, unlock := r.shared.Lock()
	defer unlock.Unlock()

	var out []symbol.ResolvedFrame
	cur := idx
	for i := 0; cur != 0 && i < max; i++ {
		nf := shared.nativeFrames.Get(int(cur) - 1)
		cur = nf.parent
		resolved, ok := shared.resolver.Resolve(nf.ip, generation).Get()
		if !ok {
			if _, alreadyLogged := shared.unresolvedLogged[nf.ip]; !alreadyLogged {
				r.logger.Warn().Uint64("ip", uint64(nf.ip)).Msg("native frame unresolved")
				shared.unresolvedLogged.Add(nf.ip)
			}
			continue
		}
		out = append(out, resolved...)
	}
	return out
}

// ThreadName returns the name last recorded for tid, or "" if none was
// ever seen.
func (r *Reader) ThreadName(tid uint64) string {
	shared, unlock := r.shared.RLock()
	defer unlock.RUnlock()
	return shared.threadNames[tid]
}
