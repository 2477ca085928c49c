// Package heapengine is the allocation/release façade: it orchestrates
// bucket lookup, split, header update, growth, and the large-block path on
// allocation, and flag-clear/coalesce/re-insert on release.
package heapengine

import (
	"fmt"

	"heapkeeper/internal/algo"
	"heapkeeper/internal/block"
	"heapkeeper/internal/errs"
	"heapkeeper/internal/freelist"
	"heapkeeper/internal/largeblock"
	"heapkeeper/internal/region"
)

// MmapThreshold is the default size at or above which an allocation is
// delegated to the large-block collaborator instead of the heap engine.
const MmapThreshold = 128 * 1024

// StaticArenaSize is the default size of the static byte arena.
const StaticArenaSize = 4096

// GrowthReservation is the default upper bound on how far the program
// break may be grown over the engine's lifetime.
const GrowthReservation = 64 * 1024 * 1024

// Engine holds one logical instance of allocator state: the region
// (static arena + growth region + cursors + gap), the free-list table,
// and the large-block collaborator.
type Engine struct {
	region    *region.Region
	freelist  freelist.Table
	large     *largeblock.Collaborator
	threshold uint64
}

// New constructs an Engine with the given static arena size, growth
// reservation, and large-block threshold. A zero value for any parameter
// falls back to its package default.
func New(staticSize, growthReservation, threshold uint64) (*Engine, error) {
	if staticSize == 0 {
		staticSize = StaticArenaSize
	}
	if growthReservation == 0 {
		growthReservation = GrowthReservation
	}
	if threshold == 0 {
		threshold = MmapThreshold
	}
	r, err := region.New(staticSize, growthReservation)
	if err != nil {
		return nil, err
	}
	return &Engine{
		region:    r,
		large:     largeblock.NewCollaborator(),
		threshold: threshold,
	}, nil
}

// Allocate implements the allocate(n) procedure:
//  1. n == 0 returns (0, nil).
//  2. aligned/total are computed and raised to the minimum block size.
//  3. aligned >= threshold delegates to the large-block collaborator.
//  4. first_fit is tried, then split; if split left the block whole, the
//     header/footer are written here instead (split already wrote them
//     on the blocks it actually carved).
//  5. failing that, carving at top if top+total <= end.
//  6. failing that, grow_via_program_break.
func (e *Engine) Allocate(n uint64) (uintptr, error) {
	if n == 0 {
		return 0, nil
	}

	aligned := algo.Align(n)
	total := block.WordSize + aligned + block.WordSize
	if total < block.MinSize {
		total = block.MinSize
	}

	if aligned >= e.threshold {
		return e.large.Alloc(aligned)
	}

	if b := algo.FirstFit(&e.freelist, total); b != 0 {
		e.freelist.Remove(b)
		if !algo.Split(&e.freelist, b, total) {
			block.SetHeader(b, block.SizeOf(b), true)
			block.WriteFooter(b)
		}
		return block.PayloadOf(b), nil
	}

	if e.region.Top()+uintptr(total) <= e.region.End() {
		b := e.region.Top()
		block.SetupBlock(b, total, true)
		e.region.SetTop(e.region.Top() + uintptr(total))
		return block.PayloadOf(b), nil
	}

	addr, err := algo.GrowViaProgramBreak(e.region, &e.freelist, total)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errs.ErrOutOfMemory, err)
	}
	return addr, nil
}

// Release implements the release(p) procedure: a no-op on a null
// pointer, a delegate-and-return on a mmaped block, otherwise
// clear-used/refresh-footer/coalesce/re-insert.
func (e *Engine) Release(ptr uintptr) error {
	if ptr == 0 {
		return nil
	}
	b := block.BlockOfPayload(ptr)

	if block.IsMmaped(b) {
		return e.large.Free(b)
	}

	block.SetHeader(b, block.SizeOf(b), false)
	block.WriteFooter(b)

	survivor := algo.Coalesce(e.region, &e.freelist, b)
	e.freelist.Insert(survivor)
	return nil
}

// Region exposes the underlying region for the debug dumper and tests.
func (e *Engine) Region() *region.Region { return e.region }

// Freelist exposes the underlying free-list table for the debug dumper
// and tests.
func (e *Engine) Freelist() *freelist.Table { return &e.freelist }

// LargeBlocks exposes the large-block collaborator for the debug dumper
// and tests.
func (e *Engine) LargeBlocks() *largeblock.Collaborator { return e.large }

// Close releases the OS mappings owned by the engine's region. Large
// blocks that were never freed are leaked on purpose: the heap only
// grows and performs no cleanup on process exit. Close exists only so
// tests are not mmap-leak-limited across many engine instances.
func (e *Engine) Close() error {
	return e.region.Close()
}
