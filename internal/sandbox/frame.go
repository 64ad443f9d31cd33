package sandbox

import "sync"

// FrameState is the frame-side render state.
type FrameState string

const (
	FrameWaiting      FrameState = "waiting"
	FrameOriginLocked FrameState = "origin_locked"
	FrameRendered     FrameState = "rendered"
	FrameErrored      FrameState = "errored"
)

// Render statuses reported back to the host. Script failures are reported
// with a fixed label; the raw error text stays inside the frame.
const (
	StatusInteractive    = "interactive"
	StatusContentWarning = "content-warning"
	StatusScriptError    = "script error"
)

// placeholderMarkup is the neutral stage shown under a content warning when
// the delivery carries no markup of its own.
const placeholderMarkup = `<canvas id="simCanvas" width="400" height="300" style="width:100%; height:100%; display:block; background:#1a1a2e;"></canvas>`

// Renderer is the frame's view of its document. Markup injection and script
// execution are separate steps so a script failure leaves the injected
// markup visible.
type Renderer interface {
	Clear()
	InjectMarkup(html string) error
	ExecuteScript(js string) error
	ShowWarning(label string)
}

// Frame drives the frame side of the delivery protocol. The first message it
// receives pins the sender's origin; everything from any other origin is
// dropped silently with no state change. Each Frame pins independently.
type Frame struct {
	renderer Renderer
	reply    Conduit

	mu     sync.Mutex
	state  FrameState
	origin string
	seq    uint64
}

// NewFrame returns a frame that renders through renderer and confirms
// deliveries through reply.
func NewFrame(renderer Renderer, reply Conduit) *Frame {
	return &Frame{renderer: renderer, reply: reply, state: FrameWaiting}
}

// State reports the current render state.
func (f *Frame) State() FrameState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Origin reports the pinned sender origin, empty before first contact.
func (f *Frame) Origin() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.origin
}

// HandleMessage processes one message received from origin. The first
// message pins that origin; later messages from anywhere else are dropped
// before touching the document.
func (f *Frame) HandleMessage(msg Message, origin string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.origin == "" {
		f.origin = origin
		if f.state == FrameWaiting {
			f.state = FrameOriginLocked
		}
	}
	if origin != f.origin {
		return
	}
	if msg.Version != ProtocolVersion || msg.Type != MessageDeliver {
		return
	}
	f.seq = msg.Seq

	if msg.ContentWarning != "" {
		f.renderer.Clear()
		markup := msg.CanvasHTML
		if markup == "" {
			markup = placeholderMarkup
		}
		// An injection failure must not block the warning label.
		_ = f.renderer.InjectMarkup(markup)
		f.renderer.ShowWarning(msg.ContentWarning)
		f.state = FrameRendered
		f.confirmLocked(StatusContentWarning)
		return
	}

	f.renderer.Clear()
	if err := f.renderer.InjectMarkup(msg.CanvasHTML); err != nil {
		f.state = FrameErrored
		f.confirmLocked(StatusScriptError)
		return
	}
	if err := f.renderer.ExecuteScript(msg.JSCode); err != nil {
		// Markup stays in place; only the status leaves the frame.
		f.state = FrameErrored
		f.confirmLocked(StatusScriptError)
		return
	}
	f.state = FrameRendered
	f.confirmLocked(StatusInteractive)
}

// HandleGlobalError reports an asynchronous script failure observed after
// delivery. msg is the frame-local error text; it is never forwarded.
func (f *Frame) HandleGlobalError(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.origin == "" {
		return
	}
	f.state = FrameErrored
	f.confirmLocked(StatusScriptError)
}

func (f *Frame) confirmLocked(status string) {
	msg := Message{
		Version: ProtocolVersion,
		Type:    MessageReady,
		Status:  status,
		Seq:     f.seq,
	}
	// Confirmation failures are invisible to the frame; the host's
	// last-write-wins logic tolerates a lost READY.
	_ = f.reply.Post(msg, f.origin)
}
