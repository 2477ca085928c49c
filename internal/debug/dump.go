// Package debug formats a human-readable memory-state dump: heap
// pointers, gap info, a per-block walk of the static arena and (if
// present) the growth region, the large-block list, and the six
// segregated free-list buckets.
package debug

import (
	"fmt"
	"io"

	"heapkeeper/internal/block"
	"heapkeeper/internal/heapengine"
)

// Dump writes a full memory-state report for e to w.
func Dump(w io.Writer, e *heapengine.Engine) {
	r := e.Region()

	fmt.Fprintln(w, "=== MEMORY STATE DUMP ===")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "-- heap pointers --")
	fmt.Fprintf(w, "start: 0x%x\n", r.Start())
	fmt.Fprintf(w, "top:   0x%x\n", r.Top())
	fmt.Fprintf(w, "end:   0x%x\n", r.End())
	fmt.Fprintln(w)

	fmt.Fprintln(w, "-- gap --")
	if r.HasGap() {
		fmt.Fprintf(w, "gap_start: 0x%x\n", r.GapStart())
		fmt.Fprintf(w, "gap_end:   0x%x\n", r.GapEnd())
		fmt.Fprintf(w, "size:      %d bytes\n", r.GapEnd()-r.GapStart())
	} else {
		fmt.Fprintln(w, "no gap")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "-- blocks --")
	n := 0
	walk := func(from, to uintptr) {
		for cur := from; cur < to; {
			size := block.SizeOf(cur)
			if size == 0 {
				fmt.Fprintf(w, "  [!] zero-size block at 0x%x, stopping\n", cur)
				return
			}
			status := "FREE"
			if block.IsUsed(cur) {
				status = "USED"
			}
			fmt.Fprintf(w, "  #%d addr=0x%x size=%d status=%s\n", n, cur, size, status)
			n++
			cur += uintptr(size)
		}
	}
	if r.HasGap() {
		walk(r.Start(), r.GapStart())
		fmt.Fprintf(w, "  -- gap: 0x%x..0x%x (unusable) --\n", r.GapStart(), r.GapEnd())
		walk(r.GapEnd(), r.Top())
	} else {
		walk(r.Start(), r.Top())
	}
	fmt.Fprintf(w, "total blocks: %d\n", n)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "-- large blocks --")
	live := e.LargeBlocks().Live()
	if len(live) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for i, addr := range live {
		fmt.Fprintf(w, "  #%d addr=0x%x size=%d mmaped=%v\n", i, addr, block.SizeOf(addr), block.IsMmaped(addr))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "-- free lists --")
	ranges := []string{"<=32", "33-64", "65-128", "129-256", "257-512", ">512"}
	fl := e.Freelist()
	for i, label := range ranges {
		fmt.Fprintf(w, "  bucket[%d] (%s):", i, label)
		cur := fl.Head(i)
		if cur == 0 {
			fmt.Fprintln(w, " (empty)")
			continue
		}
		fmt.Fprintln(w)
		count := 0
		for cur != 0 && count < 10 {
			fmt.Fprintf(w, "    -> 0x%x (size=%d)\n", cur, block.SizeOf(cur))
			cur = block.GetNextFree(cur)
			count++
		}
		if cur != 0 {
			fmt.Fprintln(w, "    ... (more)")
		}
	}
}
