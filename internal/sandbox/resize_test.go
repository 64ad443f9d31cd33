package sandbox

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestComputeLayoutHeightBound(t *testing.T) {
	got := ComputeLayout(800, 600, 1000, 500, ModeMobile)
	if got.W != 666 || got.H != 500 {
		t.Fatalf("layout = %dx%d, want 666x500", got.W, got.H)
	}
}

func TestComputeLayoutWidthBound(t *testing.T) {
	got := ComputeLayout(800, 600, 600, 2000, ModeMobile)
	if got.W != 600 || got.H != 450 {
		t.Fatalf("layout = %dx%d, want 600x450", got.W, got.H)
	}
}

func TestComputeLayoutFloors(t *testing.T) {
	embedded := ComputeLayout(800, 600, 100, 100, ModeEmbedded)
	if embedded.W != 400 || embedded.H != 300 {
		t.Fatalf("embedded floor = %dx%d, want 400x300", embedded.W, embedded.H)
	}
	mobile := ComputeLayout(800, 600, 100, 100, ModeMobile)
	if mobile.W != 320 || mobile.H != 240 {
		t.Fatalf("mobile floor = %dx%d, want 320x240", mobile.W, mobile.H)
	}
}

func TestComputeLayoutBadNaturalSize(t *testing.T) {
	got := ComputeLayout(0, 0, 1000, 1000, ModeEmbedded)
	if got.W <= 0 || got.H <= 0 {
		t.Fatalf("layout = %dx%d", got.W, got.H)
	}
}

func TestAvailable(t *testing.T) {
	w, h := Available(1000, 1000, ModeEmbedded)
	if w != 920 || h != 920 {
		t.Fatalf("embedded available = %dx%d, want 920x920", w, h)
	}
	w, h = Available(1000, 1000, ModeMobile)
	if w != 960 || h != 960 {
		t.Fatalf("mobile available = %dx%d, want 960x960", w, h)
	}
}

func TestDebouncerCoalesces(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	for i := 0; i < 10; i++ {
		d.Trigger(func() { calls.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestDebouncerStop(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(20 * time.Millisecond)
	d.Trigger(func() { calls.Add(1) })
	d.Stop()
	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Fatalf("calls = %d, want 0", got)
	}
}
