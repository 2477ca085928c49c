// Package region owns the static byte arena, the growable program-break
// region, and the three cursors (start/top/end) plus the optional gap
// between them. It knows nothing about blocks or free lists; it only
// answers "is this address live and outside the gap" and "give me more
// pages". internal/algo orchestrates what happens with what it returns.
package region

import (
	"fmt"
	"unsafe"

	"heapkeeper/internal/errs"
	"heapkeeper/internal/mmap"
)

// Region models a fixed-size static arena, plus zero or one program-break
// extension (separated from the arena by an inaccessible gap if the two
// mmap calls did not land adjacent to each other).
type Region struct {
	static []byte
	growth []byte // nil until the first growth call

	start uintptr
	top   uintptr
	end   uintptr

	gapStart uintptr
	gapEnd   uintptr
	hasGap   bool

	growthReservation uint64
	growthUsed        uint64
	pageSize          uint64
}

// New creates the static arena (one anonymous mapping of staticSize
// bytes) and reserves, but does not yet create, the growth region:
// growthReservation bounds how much the process data segment may ever be
// grown by. The growth region is a single mapping created lazily on first
// growth and only ever advanced by a cursor afterward, so no second gap
// can ever occur.
func New(staticSize uint64, growthReservation uint64) (*Region, error) {
	static, err := mmap.MapAnon(int(staticSize))
	if err != nil {
		return nil, fmt.Errorf("%w: static arena: %v", errs.ErrOutOfMemory, err)
	}
	base := addrOf(static)
	return &Region{
		static:            static,
		start:             base,
		top:               base,
		end:               base + uintptr(staticSize),
		growthReservation: growthReservation,
		pageSize:          uint64(mmap.PageSize()),
	}, nil
}

func addrOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

func (r *Region) Start() uintptr    { return r.start }
func (r *Region) Top() uintptr      { return r.top }
func (r *Region) End() uintptr      { return r.end }
func (r *Region) GapStart() uintptr { return r.gapStart }
func (r *Region) GapEnd() uintptr   { return r.gapEnd }
func (r *Region) HasGap() bool      { return r.hasGap }
func (r *Region) PageSize() uint64  { return r.pageSize }

func (r *Region) SetTop(v uintptr) { r.top = v }
func (r *Region) SetEnd(v uintptr) { r.end = v }

// SetGap records the gap bounds. Called at most once over the lifetime
// of a Region.
func (r *Region) SetGap(start, end uintptr) {
	r.gapStart = start
	r.gapEnd = end
	r.hasGap = true
}

// Addressable reports whether addr lies in [start, top) and is not inside
// the gap.
func (r *Region) Addressable(addr uintptr) bool {
	if addr < r.start || addr >= r.top {
		return false
	}
	if r.hasGap && addr >= r.gapStart && addr < r.gapEnd {
		return false
	}
	return true
}

// Grow asks the OS for at least total bytes, rounded up to a page, and
// returns the granted address and size. It performs the underlying mmap
// call only; it does not move top/end or record a gap — that bookkeeping
// is the caller's (internal/algo.GrowViaProgramBreak), since it depends on
// whether the granted address turned out to be contiguous with End().
//
// The growth region is created once, on the first call, sized to
// growthReservation; every later call merely advances a cursor inside the
// already-mapped region, so addresses handed out earlier are never
// invalidated and at most one gap is ever produced.
func (r *Region) Grow(total uint64) (addr uintptr, granted uint64, err error) {
	size := roundUpPage(total, r.pageSize)

	if r.growth == nil {
		if size > r.growthReservation {
			size = roundUpPage(r.growthReservation, r.pageSize)
		}
		if size < total {
			return 0, 0, fmt.Errorf("%w: requested %d exceeds reservation %d", errs.ErrRegionExhausted, total, r.growthReservation)
		}
		mem, merr := mmap.MapAnon(int(r.growthReservation))
		if merr != nil {
			return 0, 0, fmt.Errorf("%w: growth region: %v", errs.ErrOutOfMemory, merr)
		}
		r.growth = mem
		r.growthUsed = size
		return addrOf(r.growth), size, nil
	}

	if r.growthUsed+size > r.growthReservation {
		return 0, 0, fmt.Errorf("%w: used %d + requested %d exceeds reservation %d", errs.ErrRegionExhausted, r.growthUsed, size, r.growthReservation)
	}
	addr = addrOf(r.growth) + uintptr(r.growthUsed)
	r.growthUsed += size
	return addr, size, nil
}

func roundUpPage(n uint64, page uint64) uint64 {
	if page == 0 {
		page = 4096
	}
	if n < page {
		return page
	}
	return (n + page - 1) &^ (page - 1)
}

// Close unmaps both regions. Useful for tests and for any caller that
// wants to tear a Region down cleanly instead of leaking the mappings for
// process lifetime.
func (r *Region) Close() error {
	var firstErr error
	if r.static != nil {
		if err := mmap.Unmap(r.static); err != nil && firstErr == nil {
			firstErr = err
		}
		r.static = nil
	}
	if r.growth != nil {
		if err := mmap.Unmap(r.growth); err != nil && firstErr == nil {
			firstErr = err
		}
		r.growth = nil
	}
	return firstErr
}
