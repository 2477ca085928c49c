package block

import (
	"testing"
	"unsafe"

	"heapkeeper/internal/mmap"
)

// newTestBlock allocates a real OS-backed anonymous mapping rather than a
// Go slice: the controlled unsafe façade operates on addresses the GC does
// not track through a uintptr, so tests exercise it the same way
// production code does.
func newTestBlock(t *testing.T, size int) uintptr {
	t.Helper()
	mem, err := mmap.MapAnon(size)
	if err != nil {
		t.Fatalf("MapAnon: %v", err)
	}
	t.Cleanup(func() { _ = mmap.Unmap(mem) })
	return uintptr(unsafe.Pointer(&mem[0]))
}

func TestAlign(t *testing.T) {
	cases := map[uint64]uint64{0: 0, 1: 8, 7: 8, 8: 8, 9: 16, 63: 64, 64: 64}
	for in, want := range cases {
		if got := Align(in); got != want {
			t.Errorf("Align(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestSetupBlockRoundTrip(t *testing.T) {
	addr := newTestBlock(t, 4096)
	SetupBlock(addr, 64, true)

	if got := SizeOf(addr); got != 64 {
		t.Errorf("SizeOf = %d, want 64", got)
	}
	if !IsUsed(addr) {
		t.Error("expected IsUsed true")
	}
	if IsMmaped(addr) {
		t.Error("expected IsMmaped false")
	}
	if readWord(addr) != readWord(FooterOf(addr)) {
		t.Error("footer does not mirror header")
	}
}

func TestSetHeaderDoesNotPreserveMmaped(t *testing.T) {
	addr := newTestBlock(t, 4096)
	SetHeaderRaw(addr, 64, true, true)
	if !IsMmaped(addr) {
		t.Fatal("expected MMAPED set")
	}
	SetHeader(addr, 64, true)
	if IsMmaped(addr) {
		t.Error("SetHeader must not preserve MMAPED")
	}
}

func TestNextPrevPhysical(t *testing.T) {
	base := newTestBlock(t, 4096)

	SetupBlock(base, 64, false)
	second := base + 64
	SetupBlock(second, 64, false)

	if got := NextPhysical(base); got != second {
		t.Errorf("NextPhysical = 0x%x, want 0x%x", got, second)
	}
	if got := PrevPhysical(second); got != base {
		t.Errorf("PrevPhysical = 0x%x, want 0x%x", got, base)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	addr := newTestBlock(t, 4096)
	SetupBlock(addr, 32, true)
	payload := PayloadOf(addr)
	if got := BlockOfPayload(payload); got != addr {
		t.Errorf("BlockOfPayload(PayloadOf(addr)) = 0x%x, want 0x%x", got, addr)
	}
}

func TestFreeListLinks(t *testing.T) {
	addr := newTestBlock(t, 4096)
	SetupBlock(addr, 64, false)

	SetNextFree(addr, 0x1000)
	SetPrevFree(addr, 0x2000)
	if GetNextFree(addr) != 0x1000 {
		t.Error("GetNextFree mismatch")
	}
	if GetPrevFree(addr) != 0x2000 {
		t.Error("GetPrevFree mismatch")
	}
}
