// Package largeblock is the large-block collaborator: direct page-mapped
// allocation for requests at or above the mmap threshold, independent of
// the heap engine. Each allocation gets its own anonymous mapping and is
// unmapped individually on release; a side list tracks live mappings for
// inspection.
package largeblock

import (
	"fmt"
	"unsafe"

	"heapkeeper/internal/block"
	"heapkeeper/internal/errs"
	"heapkeeper/internal/mmap"
)

// mapping is one live large-block allocation: its header address and the
// total bytes the OS granted for it (header + payload, page-rounded).
type mapping struct {
	addr uintptr
	mem  []byte
}

// Collaborator owns zero or more independent mmap regions, one per large
// allocation. It has no relationship to the heap engine's region/free-list
// state: each block it returns carries MMAPED and is released by
// unmapping the whole region, never by coalescing.
type Collaborator struct {
	live []mapping // optional side list, kept for inspection only
}

// NewCollaborator returns a Collaborator with no live mappings.
func NewCollaborator() *Collaborator {
	return &Collaborator{}
}

// Alloc maps sizeof(header)+size bytes (rounded up to a page) with
// read+write permission and private+anonymous backing, writes the header
// directly (size=mapped bytes, USED, MMAPED — no footer), and returns the
// payload address.
func (c *Collaborator) Alloc(size uint64) (uintptr, error) {
	page := uint64(mmap.PageSize())
	total := block.WordSize + size
	mapped := (total + page - 1) &^ (page - 1)

	mem, err := mmap.MapAnon(int(mapped))
	if err != nil {
		return 0, fmt.Errorf("%w: large block: %v", errs.ErrOutOfMemory, err)
	}

	addr := addrOf(mem)
	block.SetHeaderRaw(addr, mapped, true, true)

	c.live = append(c.live, mapping{addr: addr, mem: mem})
	return block.PayloadOf(addr), nil
}

// Free looks addr up in the live-mapping list and unmaps that whole
// mapping; an address not in the list is ignored. It is the caller's
// responsibility to only invoke this on blocks for which block.IsMmaped
// reports true.
func (c *Collaborator) Free(addr uintptr) error {
	for i, m := range c.live {
		if m.addr == addr {
			c.live = append(c.live[:i], c.live[i+1:]...)
			return mmap.Unmap(m.mem)
		}
	}
	return nil
}

// Sync flushes dirty pages of a live large block without unmapping it.
// An address not in the live-mapping list is ignored. Nothing else in
// this module calls it.
func (c *Collaborator) Sync(addr uintptr) error {
	for _, m := range c.live {
		if m.addr == addr {
			return mmap.Sync(m.mem)
		}
	}
	return nil
}

// Live returns the header addresses of all currently live large blocks,
// for the debug dumper's "large blocks" section.
func (c *Collaborator) Live() []uintptr {
	out := make([]uintptr, 0, len(c.live))
	for _, m := range c.live {
		out = append(out, m.addr)
	}
	return out
}

func addrOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}
