// Package heapkeeper is a general-purpose dynamic memory allocator: two
// primitive operations, Alloc and Free, backed by a hybrid strategy of a
// small byte arena, on-demand growth via anonymous mmap (standing in for
// the OS program-break primitive), and direct page mappings for large
// requests.
package heapkeeper

import (
	"io"
	"unsafe"

	"heapkeeper/internal/debug"
	"heapkeeper/internal/errs"
	"heapkeeper/internal/heapengine"
)

func unsafeSlice(ptr uintptr, n int) []byte {
	if ptr == 0 || n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n)
}

// Sentinel errors re-exported so callers can errors.Is against them
// without reaching into internal/errs.
var (
	ErrOutOfMemory     = errs.ErrOutOfMemory
	ErrRegionExhausted = errs.ErrRegionExhausted
)

// Options configures a Heap. A zero Options uses the package defaults
// (4 KiB static arena, 64 MiB growth reservation, 128 KiB large-block
// threshold).
type Options struct {
	StaticArenaSize   uint64
	GrowthReservation uint64
	MmapThreshold     uint64
}

// Heap is one logical allocator instance: the static arena, the growth
// region, the free-list table, and the large-block collaborator.
type Heap struct {
	e *heapengine.Engine
}

// New constructs a Heap per opts.
func New(opts Options) (*Heap, error) {
	e, err := heapengine.New(opts.StaticArenaSize, opts.GrowthReservation, opts.MmapThreshold)
	if err != nil {
		return nil, err
	}
	return &Heap{e: e}, nil
}

// Alloc returns a word-aligned address for n bytes, or (0, nil) if n==0,
// or (0, ErrOutOfMemory) if the growth primitive could not satisfy the
// request. Writes to the returned region for the first n bytes are
// defined; use Write/Read to perform them, since a uintptr has no
// dereference syntax of its own in Go.
func (h *Heap) Alloc(n uint64) (uintptr, error) {
	if h == nil || h.e == nil {
		return 0, nil
	}
	return h.e.Allocate(n)
}

// Free returns a previously allocated region. Freeing 0 is a no-op.
func (h *Heap) Free(ptr uintptr) {
	if h == nil || h.e == nil {
		return
	}
	_ = h.e.Release(ptr)
}

// Write copies data into the payload starting at ptr. The caller is
// responsible for not writing past the block it was given; Write performs
// no bounds check against the allocation size.
func (h *Heap) Write(ptr uintptr, data []byte) {
	dst := unsafeSlice(ptr, len(data))
	copy(dst, data)
}

// Read returns a view of n bytes of payload starting at ptr.
func (h *Heap) Read(ptr uintptr, n int) []byte {
	return unsafeSlice(ptr, n)
}

// Dump writes a human-readable memory-state report to w: heap pointers,
// gap info, every live block, large-block mappings, and the six
// segregated free-list buckets.
func (h *Heap) Dump(w io.Writer) {
	if h == nil || h.e == nil {
		return
	}
	debug.Dump(w, h.e)
}

// Close unmaps the heap's OS-backed regions. Provided so tests and
// long-running hosts are not mmap-leak-limited.
func (h *Heap) Close() error {
	if h == nil || h.e == nil {
		return nil
	}
	return h.e.Close()
}

// defaultHeap is the package-level instance for callers who want a single
// process-wide allocator. It is lazily-initialized on first use via
// DefaultHeap.
var defaultHeap *Heap

// DefaultHeap returns the lazily-initialized package-level Heap,
// constructing it with default Options on first call.
func DefaultHeap() (*Heap, error) {
	if defaultHeap != nil {
		return defaultHeap, nil
	}
	h, err := New(Options{})
	if err != nil {
		return nil, err
	}
	defaultHeap = h
	return h, nil
}
