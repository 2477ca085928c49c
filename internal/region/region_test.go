package region

import "testing"

func TestNewSetsCursors(t *testing.T) {
	r, err := New(4096, 1<<20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	if r.Start() != r.Top() {
		t.Error("expected Start == Top on a fresh region")
	}
	if r.End() != r.Start()+4096 {
		t.Errorf("End = 0x%x, want 0x%x", r.End(), r.Start()+4096)
	}
	if r.HasGap() {
		t.Error("expected no gap on a fresh region")
	}
}

func TestAddressableRespectsBoundsAndGap(t *testing.T) {
	r, err := New(4096, 1<<20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	r.SetTop(r.Start() + 256)
	if !r.Addressable(r.Start()) {
		t.Error("Start should be addressable")
	}
	if r.Addressable(r.Start() + 256) {
		t.Error("Top itself should not be addressable (half-open range)")
	}
	if r.Addressable(r.Start() - 8) {
		t.Error("address before Start should not be addressable")
	}

	r.SetGap(r.Start()+64, r.Start()+128)
	if r.Addressable(r.Start() + 64) {
		t.Error("gap start should not be addressable")
	}
	if r.Addressable(r.Start() + 100) {
		t.Error("inside gap should not be addressable")
	}
	if !r.Addressable(r.Start() + 128) {
		t.Error("gap end should be addressable again")
	}
}

func TestGrowFirstCallCreatesReservationThenAdvancesCursor(t *testing.T) {
	r, err := New(4096, 1<<20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	addr1, granted1, err := r.Grow(100)
	if err != nil {
		t.Fatalf("Grow: %v", err)
	}
	if granted1 < uint64(r.PageSize()) {
		t.Errorf("expected growth rounded up to a page, got %d", granted1)
	}

	addr2, _, err := r.Grow(100)
	if err != nil {
		t.Fatalf("second Grow: %v", err)
	}
	if addr2 != addr1+uintptr(granted1) {
		t.Errorf("expected second growth to advance cursor contiguously: addr1=0x%x granted1=%d addr2=0x%x", addr1, granted1, addr2)
	}
}

func TestGrowFailsWhenReservationExhausted(t *testing.T) {
	r, err := New(4096, 8192)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	if _, _, err := r.Grow(8192); err != nil {
		t.Fatalf("first Grow within reservation: %v", err)
	}
	if _, _, err := r.Grow(4096); err == nil {
		t.Error("expected error once reservation is exhausted")
	}
}
