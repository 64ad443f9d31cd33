package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mindrender/mindrender/internal/model"
	"github.com/mindrender/mindrender/internal/provider"
)

// fakeProvider returns a canned reply and records the request it saw.
type fakeProvider struct {
	reply *provider.Reply
	err   error
	got   provider.Request
}

func (f *fakeProvider) Complete(_ context.Context, req provider.Request) (*provider.Reply, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func TestGenerateWrapsAndStyles(t *testing.T) {
	fp := &fakeProvider{reply: &provider.Reply{
		Text:  wellFormedReply,
		Usage: model.Usage{InputTokens: 100, OutputTokens: 200},
	}}

	o := New(fp)
	artifact, usage, err := o.Generate(context.Background(), "Simulate a pendulum", model.SubjectPhysics)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if !strings.HasPrefix(artifact.Script, "(function(){\n") || !strings.Contains(artifact.Script, "})();") {
		t.Errorf("script not wrapped in IIFE: %q", artifact.Script)
	}
	if !strings.Contains(artifact.Markup, `style="width:100%; height:100%; display:block;"`) {
		t.Errorf("canvas not styled: %q", artifact.Markup)
	}
	if usage.Total() != 300 {
		t.Errorf("usage total = %d", usage.Total())
	}
}

func TestGeneratePromptEmbedsSubjectAndMarkers(t *testing.T) {
	fp := &fakeProvider{reply: &provider.Reply{Text: wellFormedReply}}
	o := New(fp)

	if _, _, err := o.Generate(context.Background(), "Simulate osmosis in a cell", model.SubjectBiology); err != nil {
		t.Fatalf("generate: %v", err)
	}

	for _, want := range []string{"Biology", "Simulate osmosis in a cell", "---CANVAS---", "---SCRIPT---", "---EXPLANATION---"} {
		if !strings.Contains(fp.got.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if fp.got.MaxTokens != MaxReplyTokens {
		t.Errorf("max tokens = %d", fp.got.MaxTokens)
	}
	if fp.got.Temperature != Temperature {
		t.Errorf("temperature = %v", fp.got.Temperature)
	}
}

func TestGenerateMalformedReply(t *testing.T) {
	fp := &fakeProvider{reply: &provider.Reply{
		Text:  "I'm sorry, I can't produce that simulation.",
		Usage: model.Usage{InputTokens: 50, OutputTokens: 10},
	}}
	o := New(fp)

	artifact, usage, err := o.Generate(context.Background(), "Simulate x", model.SubjectPhysics)
	var xerr *model.ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	if artifact != nil {
		t.Error("no artifact may be returned on extraction failure")
	}
	// Usage is still reported: tokens were spent even though parsing failed.
	if usage.Total() != 60 {
		t.Errorf("usage total = %d", usage.Total())
	}
}

func TestGeneratePropagatesProviderError(t *testing.T) {
	want := &model.ProviderError{Status: 500}
	fp := &fakeProvider{err: want}
	o := New(fp)

	_, _, err := o.Generate(context.Background(), "Simulate x", model.SubjectPhysics)
	var perr *model.ProviderError
	if !errors.As(err, &perr) || perr.Status != 500 {
		t.Fatalf("expected ProviderError(500), got %v", err)
	}
}
