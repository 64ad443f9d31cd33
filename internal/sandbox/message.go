// Package sandbox implements the delivery protocol between the host page and
// the isolated execution frame: a versioned, origin-pinned message channel
// with an explicit readiness handshake, plus the in-frame layout math.
//
// The two controllers model both sides of the boundary. Neither holds global
// state — origin pinning and sequence tracking are instance fields, so
// multiple frames in one process never share trust.
package sandbox

// ProtocolVersion is bumped when the wire payload changes shape.
// Frames drop messages from a different major version.
const ProtocolVersion = 1

// MessageType discriminates sandbox payloads.
type MessageType string

const (
	// MessageDeliver carries generated markup and script host → frame.
	MessageDeliver MessageType = "DELIVER"
	// MessageReady reports readiness or a sanitized error frame → host.
	MessageReady MessageType = "READY"
)

// Message is the wire payload exchanged across the isolation boundary.
// JSON tags match the browser side of the protocol.
type Message struct {
	Version        int         `json:"v"`
	Type           MessageType `json:"type"`
	CanvasHTML     string      `json:"canvasHtml,omitempty"`
	JSCode         string      `json:"jsCode,omitempty"`
	ContentWarning string      `json:"contentWarning,omitempty"`
	Status         string      `json:"status,omitempty"`
	Seq            uint64      `json:"seq,omitempty"`
}

// Conduit posts a message toward the other side of the boundary, bound to a
// target origin. Asynchronous message passing, no shared memory.
type Conduit interface {
	Post(msg Message, targetOrigin string) error
}
