package main

import (
	"fmt"

	"heapkeeper"
	"heapkeeper/internal/block"
)

// scenarioAlignment allocates 1 byte, expects a non-null and 8-byte
// aligned pointer back, then releases it.
func scenarioAlignment(h *heapkeeper.Heap, p params) error {
	ptr, err := h.Alloc(1)
	if err != nil {
		return err
	}
	if ptr == 0 {
		return fmt.Errorf("alloc(1) returned null")
	}
	if ptr%8 != 0 {
		return fmt.Errorf("alloc(1) = 0x%x not 8-byte aligned", ptr)
	}
	h.Free(ptr)
	return nil
}

// scenarioReuse allocates, frees, then allocates the same size again with
// no intervening allocation; expects the same address back.
func scenarioReuse(h *heapkeeper.Heap, p params) error {
	n := p.uint64("size", 64)
	p1, err := h.Alloc(n)
	if err != nil {
		return err
	}
	h.Free(p1)
	p2, err := h.Alloc(n)
	if err != nil {
		return err
	}
	if p1 != p2 {
		return fmt.Errorf("reuse mismatch: p1=0x%x p2=0x%x", p1, p2)
	}
	return nil
}

// scenarioCoalesceReuse allocates a, b, c, frees them out of address order
// (a, c, b), then allocates something that needs the fully coalesced span
// and expects it to land within [a, c-block-end).
func scenarioCoalesceReuse(h *heapkeeper.Heap, p params) error {
	n := p.uint64("size", 4)
	a, err := h.Alloc(n)
	if err != nil {
		return err
	}
	b, err := h.Alloc(n)
	if err != nil {
		return err
	}
	c, err := h.Alloc(n)
	if err != nil {
		return err
	}

	h.Free(a)
	h.Free(c)
	h.Free(b)

	big, err := h.Alloc(12 * n)
	if err != nil {
		return err
	}
	if big == 0 {
		return fmt.Errorf("coalesced allocation returned null")
	}
	if big < a || big > c {
		return fmt.Errorf("coalesced allocation 0x%x outside span [0x%x, 0x%x]", big, a, c)
	}
	return nil
}

// scenarioLargeBlock allocates 256 KiB, expects a non-null pointer, a
// full-size write/read round trip, and the MMAPED flag set in the block
// header; release unmaps the backing mapping.
func scenarioLargeBlock(h *heapkeeper.Heap, p params) error {
	size := p.uint64("size", 256*1024)
	ptr, err := h.Alloc(size)
	if err != nil {
		return err
	}
	if ptr == 0 {
		return fmt.Errorf("large alloc returned null")
	}

	buf := make([]byte, size)
	for i := range buf {
		buf[i] = byte(i)
	}
	h.Write(ptr, buf)
	got := h.Read(ptr, int(size))
	for i := range buf {
		if got[i] != buf[i] {
			return fmt.Errorf("large block payload mismatch at byte %d", i)
		}
	}
	if !block.IsMmaped(block.BlockOfPayload(ptr)) {
		return fmt.Errorf("large block at 0x%x lacks the MMAPED flag", ptr)
	}

	h.Free(ptr)
	return nil
}

// scenarioGrowthGap allocates, with a 4 KiB static arena, ~70 blocks of
// 100 bytes each — more than the arena can hold — and expects every
// allocation to succeed, forcing at least one growth via the
// program-break emulation.
func scenarioGrowthGap(h *heapkeeper.Heap, p params) error {
	count := p.uint64("count", 70)
	size := p.uint64("size", 100)
	ptrs := make([]uintptr, 0, count)
	for i := uint64(0); i < count; i++ {
		ptr, err := h.Alloc(size)
		if err != nil {
			return fmt.Errorf("alloc #%d: %w", i, err)
		}
		if ptr == 0 {
			return fmt.Errorf("alloc #%d returned null", i)
		}
		ptrs = append(ptrs, ptr)
	}
	for _, ptr := range ptrs {
		h.Free(ptr)
	}
	return nil
}

// scenarioFragmentation repeats 10 times (alloc L=512, S=64, M=256, free
// M), then frees all L, then runs 10 rounds of alloc(256)+free — all must
// succeed despite the fragmented layout left behind.
func scenarioFragmentation(h *heapkeeper.Heap, p params) error {
	var ls []uintptr
	for i := 0; i < 10; i++ {
		l, err := h.Alloc(512)
		if err != nil || l == 0 {
			return fmt.Errorf("alloc L #%d failed: %v", i, err)
		}
		ls = append(ls, l)

		s, err := h.Alloc(64)
		if err != nil || s == 0 {
			return fmt.Errorf("alloc S #%d failed: %v", i, err)
		}
		_ = s

		m, err := h.Alloc(256)
		if err != nil || m == 0 {
			return fmt.Errorf("alloc M #%d failed: %v", i, err)
		}
		h.Free(m)
	}
	for _, l := range ls {
		h.Free(l)
	}
	for i := 0; i < 10; i++ {
		ptr, err := h.Alloc(256)
		if err != nil || ptr == 0 {
			return fmt.Errorf("post-fragmentation alloc #%d failed: %v", i, err)
		}
		h.Free(ptr)
	}
	return nil
}
