// Package symbol resolves native instruction pointers to resolved, possibly
// demangled, frame chains, versioned by a monotonic "generation" that bumps
// whenever the segment map is cleared (record_reader.cpp's
// SymbolResolver/clearSegments/addSegments/resolve).
package symbol

import (
	"debug/elf"

	"github.com/ianlancetaylor/demangle"
	"github.com/memtrace/memtrace/container"
	"github.com/pkg/errors"
)

// ErrSymTableEmpty reports that no segments are loaded. Resolve does not
// return it: it reports that case as a None Option.
var ErrSymTableEmpty = errors.New("symbol: no segments loaded")

// Segment is one (vaddr, memsz) range within a loaded native binary.
type Segment struct {
	Vaddr uintptr
	Memsz uint64
}

// ResolvedFrame is one entry of a (possibly inlined) native symbolization.
type ResolvedFrame struct {
	Symbol   string
	Filename string
}

// segmentMap is the set of native objects loaded under one generation.
type segmentMap struct {
	tree *container.IntervalTree[uintptr, module]
}

type module struct {
	filename    string
	loadAddress uintptr
}

// Resolver maps (instruction pointer, generation) pairs to resolved
// symbols. It is not safe for concurrent use; callers serialize access
// themselves (see package replay's single critical section).
//
// Only the current generation's segment map is retained: resolving against
// a stale generation returns a None Option rather than the historical
// map. Archiving prior generations is a pure completeness/performance knob,
// flagged as an open design point rather than required (spec.md §4.E/§9).
type Resolver struct {
	generation uint64
	current    *segmentMap
}

// NewResolver returns a Resolver with no segments loaded, at generation 0.
func NewResolver() *Resolver {
	return &Resolver{}
}

// CurrentGeneration returns the generation that will be recorded against
// allocations decoded right now.
func (r *Resolver) CurrentGeneration() uint64 {
	return r.generation
}

// ClearSegments drops all segments and increments the generation, as a
// MEMORY_MAP_START record requires.
func (r *Resolver) ClearSegments() {
	r.generation++
	r.current = nil
}

// AddSegments appends segments, loaded at loadAddress from filename, under
// the current generation.
func (r *Resolver) AddSegments(filename string, loadAddress uintptr, segments []Segment) {
	if r.current == nil {
		r.current = &segmentMap{tree: container.NewIntervalTree[uintptr, module]()}
	}
	m := module{filename: filename, loadAddress: loadAddress}
	for _, seg := range segments {
		lo := loadAddress + seg.Vaddr
		hi := lo + uintptr(seg.Memsz)
		if hi == lo {
			continue
		}
		r.current.tree.Insert(lo, hi-1, m)
	}
}

// Resolve looks up which segment, under the map that was current at
// generation, contains ip, and returns its resolved (and demangled) frame
// chain. The Option is None if generation is stale or ip falls outside
// every segment.
func (r *Resolver) Resolve(ip uintptr, generation uint64) container.Option[[]ResolvedFrame] {
	if generation != r.generation || r.current == nil {
		return container.None[[]ResolvedFrame]()
	}
	nodes := r.current.tree.Find(ip, ip, nil)
	if len(nodes) == 0 {
		return container.None[[]ResolvedFrame]()
	}
	m := nodes[0].Value.Value
	return container.Some([]ResolvedFrame{resolveInModule(m, ip)})
}

// resolveInModule looks the symbol containing ip up in filename's ELF
// symbol table, demangling any C++ linker name it finds. A module whose
// ELF file can't be read, or that has no symbol covering ip, resolves to
// an unnamed frame rather than an error: a missing symbol is routine (a
// stripped binary, a JIT-generated page), not a malformed log.
func resolveInModule(m module, ip uintptr) ResolvedFrame {
	name, ok := lookupELFSymbol(m.filename, uint64(ip-m.loadAddress))
	if !ok {
		return ResolvedFrame{Filename: m.filename}
	}
	return ResolvedFrame{Symbol: demangle.Filter(name), Filename: m.filename}
}

func lookupELFSymbol(filename string, offset uint64) (string, bool) {
	f, err := elf.Open(filename)
	if err != nil {
		return "", false
	}
	defer f.Close()

	syms, err := f.Symbols()
	if err != nil {
		return "", false
	}
	for _, s := range syms {
		if offset >= s.Value && offset < s.Value+s.Size {
			return s.Name, true
		}
	}
	return "", false
}
