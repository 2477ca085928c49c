package heapengine

import "testing"

func newEngine(t *testing.T, staticSize, growth, threshold uint64) *Engine {
	t.Helper()
	e, err := New(staticSize, growth, threshold)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestAllocateZeroReturnsNull(t *testing.T) {
	e := newEngine(t, 4096, 1<<20, MmapThreshold)
	ptr, err := e.Allocate(0)
	if err != nil || ptr != 0 {
		t.Errorf("Allocate(0) = (0x%x, %v), want (0, nil)", ptr, err)
	}
}

func TestAllocateIsWordAligned(t *testing.T) {
	e := newEngine(t, 4096, 1<<20, MmapThreshold)
	ptr, err := e.Allocate(1)
	if err != nil {
		t.Fatalf("Allocate(1): %v", err)
	}
	if ptr == 0 {
		t.Fatal("expected non-null pointer")
	}
	if ptr%8 != 0 {
		t.Errorf("pointer 0x%x is not 8-byte aligned", ptr)
	}
}

func TestReleaseThenAllocateReusesAddress(t *testing.T) {
	e := newEngine(t, 4096, 1<<20, MmapThreshold)
	p1, err := e.Allocate(64)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if err := e.Release(p1); err != nil {
		t.Fatalf("Release: %v", err)
	}
	p2, err := e.Allocate(64)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if p1 != p2 {
		t.Errorf("p1=0x%x p2=0x%x, expected reuse", p1, p2)
	}
}

func TestReleaseNullIsNoop(t *testing.T) {
	e := newEngine(t, 4096, 1<<20, MmapThreshold)
	if err := e.Release(0); err != nil {
		t.Errorf("Release(0) should be a no-op, got %v", err)
	}
}

func TestLargeAllocationUsesCollaborator(t *testing.T) {
	e := newEngine(t, 4096, 1<<20, 4096) // lower the threshold for the test
	ptr, err := e.Allocate(8192)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if got := len(e.LargeBlocks().Live()); got != 1 {
		t.Fatalf("expected one live large block, got %d", got)
	}
	if err := e.Release(ptr); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if got := len(e.LargeBlocks().Live()); got != 0 {
		t.Errorf("expected no live large blocks after release, got %d", got)
	}
}

func TestGrowthAcrossManyAllocationsAllSucceed(t *testing.T) {
	e := newEngine(t, 4096, 1<<20, MmapThreshold)
	var ptrs []uintptr
	for i := 0; i < 70; i++ {
		ptr, err := e.Allocate(100)
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		if ptr == 0 {
			t.Fatalf("Allocate #%d returned null", i)
		}
		ptrs = append(ptrs, ptr)
	}
	for _, ptr := range ptrs {
		if err := e.Release(ptr); err != nil {
			t.Fatalf("Release: %v", err)
		}
	}
}
