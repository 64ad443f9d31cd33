package sandbox

import (
	"sync"
	"time"
)

// Debounce windows for viewport changes. Orientation flips get a longer
// window because the browser reports intermediate sizes while rotating.
const (
	ResizeDebounce      = 150 * time.Millisecond
	OrientationDebounce = 500 * time.Millisecond
)

// Mode selects the layout floor for the embedding context.
type Mode int

const (
	// ModeEmbedded is a simulation hosted inside a page layout.
	ModeEmbedded Mode = iota
	// ModeMobile is a full-viewport mobile rendering.
	ModeMobile
)

// Fit factors: how much of the available viewport the canvas may claim.
const (
	embeddedFit = 0.92
	mobileFit   = 0.96
)

// Minimum canvas sizes. Below these the simulation becomes unusable, so the
// floor wins even when it overflows the viewport.
const (
	embeddedFloorW, embeddedFloorH = 400, 300
	mobileFloorW, mobileFloorH     = 320, 240
)

// Layout is a computed canvas size in CSS pixels.
type Layout struct {
	W, H int
}

// Available reduces a raw viewport to the space a canvas may occupy in the
// given mode.
func Available(viewportW, viewportH int, mode Mode) (int, int) {
	fit := embeddedFit
	if mode == ModeMobile {
		fit = mobileFit
	}
	return int(float64(viewportW) * fit), int(float64(viewportH) * fit)
}

// ComputeLayout scales a natural canvas size to fit the available space while
// preserving aspect ratio. Whichever axis binds determines the scale; the
// mode's floor is applied last.
func ComputeLayout(naturalW, naturalH, availW, availH int, mode Mode) Layout {
	if naturalW <= 0 || naturalH <= 0 {
		naturalW, naturalH = embeddedFloorW, embeddedFloorH
	}
	aspect := float64(naturalW) / float64(naturalH)

	w := float64(availW)
	h := w / aspect
	if h > float64(availH) {
		h = float64(availH)
		w = h * aspect
	}

	floorW, floorH := embeddedFloorW, embeddedFloorH
	if mode == ModeMobile {
		floorW, floorH = mobileFloorW, mobileFloorH
	}
	layout := Layout{W: int(w), H: int(h)}
	if layout.W < floorW {
		layout.W = floorW
	}
	if layout.H < floorH {
		layout.H = floorH
	}
	return layout
}

// Debouncer coalesces bursts of triggers into one callback after a quiet
// period. Each Trigger restarts the window.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer returns a debouncer with the given quiet window.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn to run once the window elapses with no further
// triggers. A pending callback is replaced, not stacked.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
