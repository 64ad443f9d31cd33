package sandbox

import (
	"testing"

	"github.com/mindrender/mindrender/internal/model"
)

type capturingConduit struct {
	posts   []Message
	origins []string
	err     error
}

func (c *capturingConduit) Post(msg Message, targetOrigin string) error {
	if c.err != nil {
		return c.err
	}
	c.posts = append(c.posts, msg)
	c.origins = append(c.origins, targetOrigin)
	return nil
}

func TestHostStagesUntilFrameLoaded(t *testing.T) {
	conduit := &capturingConduit{}
	host := NewHost(conduit, "https://app.example")
	host.AttachFrame()

	seq, err := host.Submit(&model.Artifact{Markup: "<canvas></canvas>", Script: "draw();"}, "")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if seq != 1 {
		t.Fatalf("seq = %d, want 1", seq)
	}
	if len(conduit.posts) != 0 {
		t.Fatalf("posted before frame loaded")
	}
	if got := host.State(); got != HostAwaitingFrameReady {
		t.Fatalf("state = %q, want %q", got, HostAwaitingFrameReady)
	}

	if err := host.FrameLoaded(); err != nil {
		t.Fatalf("frame loaded: %v", err)
	}
	if len(conduit.posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(conduit.posts))
	}
	if got := host.State(); got != HostDelivering {
		t.Fatalf("state = %q, want %q", got, HostDelivering)
	}
	msg := conduit.posts[0]
	if msg.Type != MessageDeliver || msg.Version != ProtocolVersion {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.CanvasHTML != "<canvas></canvas>" || msg.JSCode != "draw();" {
		t.Fatalf("payload = %+v", msg)
	}
	if conduit.origins[0] != "https://app.example" {
		t.Fatalf("target origin = %q", conduit.origins[0])
	}

	if !host.HandleReady(Message{Version: ProtocolVersion, Type: MessageReady, Seq: seq, Status: StatusInteractive}, "https://app.example") {
		t.Fatal("confirmation rejected")
	}
	if got := host.State(); got != HostDelivered {
		t.Fatalf("state = %q, want %q", got, HostDelivered)
	}
}

func TestHostSubmitWithoutFrame(t *testing.T) {
	host := NewHost(&capturingConduit{}, "https://app.example")
	if _, err := host.Submit(&model.Artifact{}, ""); err != ErrNoFrame {
		t.Fatalf("err = %v, want ErrNoFrame", err)
	}
}

func TestHostLastWriteWins(t *testing.T) {
	conduit := &capturingConduit{}
	host := NewHost(conduit, "https://app.example")
	host.AttachFrame()

	// Two submissions while the frame loads: only the newest is posted.
	if _, err := host.Submit(&model.Artifact{Markup: "first"}, ""); err != nil {
		t.Fatal(err)
	}
	seq2, err := host.Submit(&model.Artifact{Markup: "second"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := host.FrameLoaded(); err != nil {
		t.Fatal(err)
	}
	if len(conduit.posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(conduit.posts))
	}
	if conduit.posts[0].CanvasHTML != "second" || conduit.posts[0].Seq != seq2 {
		t.Fatalf("posted %+v, want second delivery seq %d", conduit.posts[0], seq2)
	}
}

func TestHostIgnoresStaleReady(t *testing.T) {
	conduit := &capturingConduit{}
	host := NewHost(conduit, "https://app.example")
	host.AttachFrame()
	if err := host.FrameLoaded(); err != nil {
		t.Fatal(err)
	}
	if _, err := host.Submit(&model.Artifact{Markup: "a"}, ""); err != nil {
		t.Fatal(err)
	}
	seq2, err := host.Submit(&model.Artifact{Markup: "b"}, "")
	if err != nil {
		t.Fatal(err)
	}

	if host.HandleReady(Message{Version: ProtocolVersion, Type: MessageReady, Seq: 1, Status: StatusInteractive}, "https://app.example") {
		t.Fatal("stale confirmation accepted")
	}
	if !host.HandleReady(Message{Version: ProtocolVersion, Type: MessageReady, Seq: seq2, Status: StatusInteractive}, "https://app.example") {
		t.Fatal("current confirmation rejected")
	}
	confirmed, status := host.Confirmed()
	if confirmed != seq2 || status != StatusInteractive {
		t.Fatalf("confirmed = %d %q", confirmed, status)
	}
}

func TestHostDropsReadyFromWrongOrigin(t *testing.T) {
	host := NewHost(&capturingConduit{}, "https://app.example")
	host.AttachFrame()
	ok := host.HandleReady(Message{Version: ProtocolVersion, Type: MessageReady, Seq: 1}, "https://evil.example")
	if ok {
		t.Fatal("confirmation from wrong origin accepted")
	}
}

func TestHostContentWarningDelivery(t *testing.T) {
	conduit := &capturingConduit{}
	host := NewHost(conduit, "https://app.example")
	host.AttachFrame()
	if err := host.FrameLoaded(); err != nil {
		t.Fatal(err)
	}
	if _, err := host.Submit(nil, "Sensitive topic rendered as a static diagram."); err != nil {
		t.Fatal(err)
	}
	if len(conduit.posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(conduit.posts))
	}
	msg := conduit.posts[0]
	if msg.ContentWarning == "" || msg.JSCode != "" {
		t.Fatalf("warning delivery = %+v", msg)
	}
}

func TestHostReset(t *testing.T) {
	conduit := &capturingConduit{}
	host := NewHost(conduit, "https://app.example")
	host.AttachFrame()
	if _, err := host.Submit(&model.Artifact{Markup: "x"}, ""); err != nil {
		t.Fatal(err)
	}
	host.Reset()
	if got := host.State(); got != HostIdle {
		t.Fatalf("state = %q, want %q", got, HostIdle)
	}
	host.AttachFrame()
	if err := host.FrameLoaded(); err != nil {
		t.Fatal(err)
	}
	if len(conduit.posts) != 0 {
		t.Fatal("stale payload posted after reset")
	}
}
