// Package algo implements the four core algorithms the allocation/release
// façade builds on: first-fit search, split, coalesce, and growth via the
// program-break emulation, expressed against internal/block's controlled
// unsafe façade.
package algo

import (
	"heapkeeper/internal/block"
	"heapkeeper/internal/freelist"
	"heapkeeper/internal/region"
)

// Align rounds n up to the machine word size.
func Align(n uint64) uint64 {
	return block.Align(n)
}

// FirstFit starts at bucket(size) and scans forward to the last bucket,
// returning the first free block whose size is at least size. The forward
// sweep past the "natural" bucket is required because splitting and
// coalescing can move a block across bucket boundaries without
// re-bucketing it until it is next inserted.
func FirstFit(fl *freelist.Table, size uint64) uintptr {
	start := freelist.Bucket(size)
	for i := start; i < freelist.NumBuckets; i++ {
		for cur := fl.Head(i); cur != 0; cur = block.GetNextFree(cur) {
			if block.SizeOf(cur) >= size {
				return cur
			}
		}
	}
	return 0
}

// Split divides addr into a used prefix of exactly needed bytes and a free
// suffix holding the remainder, if the remainder can stand on its own
// (header + two pointers + footer). addr must already have been removed
// from its free list and must not yet be marked used. If the block is too
// small to split, it is left whole and Split reports false: the leftover
// would be unusable as a block of its own, so the internal fragmentation
// is accepted and the caller is responsible for marking addr used itself.
// If Split does divide the block, it marks the used prefix itself and
// reports true.
func Split(fl *freelist.Table, addr uintptr, needed uint64) bool {
	current := block.SizeOf(addr)
	if current < needed+block.MinSize {
		return false
	}

	block.SetupBlock(addr, needed, true)

	remainder := addr + uintptr(needed)
	block.SetupBlock(remainder, current-needed, false)
	fl.Insert(remainder)
	return true
}

// Coalesce operates on a block whose USED bit has just been cleared and
// whose footer has already been refreshed. It merges with both physical
// neighbors that are free and addressable, and returns the (possibly
// relocated) survivor, which the caller must insert into the free list.
//
// A neighbor address is valid iff it lies in [start, top) and outside the
// gap. This guards against reading unrelated process data that happens to
// sit in the gap and mis-interpreting it as a block header, and against
// treating the first block of a region as if it had a physical
// predecessor.
func Coalesce(r *region.Region, fl *freelist.Table, addr uintptr) uintptr {
	newSize := block.SizeOf(addr)

	next := block.NextPhysical(addr)
	if r.Addressable(next) && !block.IsUsed(next) {
		fl.Remove(next)
		newSize += block.SizeOf(next)
	}

	survivor := addr
	if addr != r.Start() && addr != r.GapEnd() {
		prevFooterAddr := addr - block.WordSize
		if r.Addressable(prevFooterAddr) {
			prev := block.PrevPhysical(addr)
			if r.Addressable(prev) && !block.IsUsed(prev) {
				fl.Remove(prev)
				newSize += block.SizeOf(prev)
				survivor = prev
			}
		}
	}

	block.SetupBlock(survivor, newSize, false)
	return survivor
}

// GrowViaProgramBreak extends the region by at least total bytes via the
// OS growth primitive, carves a used block of exactly total bytes at the
// new top, and returns its payload address.
//
// If the OS hands back an address contiguous with the current End(), the
// extension simply advances end. Otherwise a gap is recorded: the
// residual end-top bytes of the previous region, if large enough to form
// a free block on their own, are turned into one and inserted into the
// free list, and the gap starts right after it. If the residual is too
// small to become a block, the gap is widened to start at the old Top()
// instead, so the unusable residual falls inside the excluded range
// rather than being left as addressable-but-unblocked memory. The
// region's own Grow() guarantees at most one such gap ever occurs: the
// growth mapping is created once and only ever advanced by cursor
// afterward, so a second gap cannot arise.
func GrowViaProgramBreak(r *region.Region, fl *freelist.Table, total uint64) (uintptr, error) {
	addr, granted, err := r.Grow(total)
	if err != nil {
		return 0, err
	}

	if addr == r.End() {
		r.SetEnd(r.End() + uintptr(granted))
	} else {
		gapStart := r.End()
		remaining := r.End() - r.Top()
		if remaining >= block.MinSize {
			rest := r.Top()
			block.SetupBlock(rest, uint64(remaining), false)
			fl.Insert(rest)
		} else {
			gapStart = r.Top()
		}
		r.SetGap(gapStart, addr)
		r.SetTop(addr)
		r.SetEnd(addr + uintptr(granted))
	}

	newBlock := r.Top()
	block.SetupBlock(newBlock, total, true)
	r.SetTop(r.Top() + uintptr(total))

	return block.PayloadOf(newBlock), nil
}
