package sandbox

import (
	"errors"
	"sync"

	"github.com/mindrender/mindrender/internal/model"
)

// HostState is the host-side delivery state.
type HostState string

const (
	HostIdle               HostState = "idle"
	HostAwaitingFrameReady HostState = "awaiting_frame_ready"
	HostDelivering         HostState = "delivering"
	HostDelivered          HostState = "delivered"
)

// ErrNoFrame is returned when a delivery is attempted with no frame attached.
var ErrNoFrame = errors.New("sandbox: no frame attached")

// Host drives the host side of the delivery protocol. It stages generated
// artifacts until the frame signals load, posts them with a monotonically
// increasing sequence number, and stays in Delivering until the frame
// confirms with a READY. Deliveries follow last-write-wins: a newer Submit
// supersedes an unconfirmed older one, and stale READY confirmations are
// ignored.
type Host struct {
	conduit     Conduit
	frameOrigin string

	mu         sync.Mutex
	state      HostState
	frameReady bool
	seq        uint64
	pending    *Message
	confirmed  uint64
	lastStatus string
}

// NewHost returns a host that posts to conduit, pinned to frameOrigin.
// READY messages from any other origin are dropped.
func NewHost(conduit Conduit, frameOrigin string) *Host {
	return &Host{conduit: conduit, frameOrigin: frameOrigin, state: HostIdle}
}

// State reports the current delivery state.
func (h *Host) State() HostState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// AttachFrame records that a frame element was created and is loading.
func (h *Host) AttachFrame() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = HostAwaitingFrameReady
	h.frameReady = false
}

// FrameLoaded marks the frame as loaded. If a payload was staged while the
// frame was still loading it is posted immediately.
func (h *Host) FrameLoaded() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frameReady = true
	if h.pending != nil {
		return h.postLocked()
	}
	return nil
}

// Submit stages artifact for delivery and posts it if the frame is loaded.
// contentWarning, when non-empty, tells the frame to render a warning
// placeholder instead of executing the script. The returned sequence number
// identifies this delivery in later confirmations.
func (h *Host) Submit(artifact *model.Artifact, contentWarning string) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == HostIdle {
		return 0, ErrNoFrame
	}
	h.seq++
	msg := Message{
		Version:        ProtocolVersion,
		Type:           MessageDeliver,
		ContentWarning: contentWarning,
		Seq:            h.seq,
	}
	if artifact != nil {
		msg.CanvasHTML = artifact.Markup
		msg.JSCode = artifact.Script
	}
	h.pending = &msg
	if !h.frameReady {
		return h.seq, nil
	}
	if err := h.postLocked(); err != nil {
		return h.seq, err
	}
	return h.seq, nil
}

func (h *Host) postLocked() error {
	msg := *h.pending
	h.pending = nil
	h.state = HostDelivering
	return h.conduit.Post(msg, h.frameOrigin)
}

// HandleReady processes a READY message from origin. Messages from the wrong
// origin, a different protocol version, or a superseded sequence number are
// dropped. An accepted confirmation completes the delivery.
// Returns true when the confirmation was accepted.
func (h *Host) HandleReady(msg Message, origin string) bool {
	if origin != h.frameOrigin {
		return false
	}
	if msg.Version != ProtocolVersion || msg.Type != MessageReady {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if msg.Seq != 0 && msg.Seq < h.seq {
		return false
	}
	h.confirmed = msg.Seq
	h.lastStatus = msg.Status
	if h.state == HostDelivering {
		h.state = HostDelivered
	}
	return true
}

// Confirmed reports the sequence number and status of the last accepted
// READY confirmation.
func (h *Host) Confirmed() (uint64, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.confirmed, h.lastStatus
}

// Reset tears the channel down, dropping any staged payload.
func (h *Host) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = HostIdle
	h.frameReady = false
	h.pending = nil
}
