// Package orchestrator turns a moderated prompt into a runnable simulation
// artifact: it builds the sectioned generation prompt, calls the model
// provider, and parses the free-form reply into markup, script, and
// explanation.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/mindrender/mindrender/internal/model"
	"github.com/mindrender/mindrender/internal/provider"
)

const (
	// MaxReplyTokens bounds the model reply. Output is machine-parsed, so
	// runaway replies are cut rather than streamed.
	MaxReplyTokens = 10000
	// Temperature favors determinism over creativity; the reply must parse.
	Temperature = 0.3
)

// Orchestrator drives one generation per call. Safe for concurrent use.
type Orchestrator struct {
	Provider    provider.Provider
	MaxTokens   int
	Temperature float64
}

// New creates an Orchestrator with the default token budget and temperature.
func New(p provider.Provider) *Orchestrator {
	return &Orchestrator{
		Provider:    p,
		MaxTokens:   MaxReplyTokens,
		Temperature: Temperature,
	}
}

// Generate builds the generation prompt, calls the provider, and extracts
// the artifact. The returned script is wrapped in an immediately-invoked
// closure so no identifiers leak into the frame's global scope, and the
// canvas tag carries the display styles the frame expects.
func (o *Orchestrator) Generate(ctx context.Context, promptText string, subject model.Subject) (*model.Artifact, model.Usage, error) {
	reply, err := o.Provider.Complete(ctx, provider.Request{
		Prompt:      buildPrompt(promptText, subject),
		MaxTokens:   o.MaxTokens,
		Temperature: o.Temperature,
	})
	if err != nil {
		return nil, model.Usage{}, err
	}

	artifact, err := Extract(reply.Text)
	if err != nil {
		return nil, reply.Usage, err
	}

	artifact.Markup = styleCanvas(artifact.Markup)
	artifact.Script = wrapScript(artifact.Script)

	return artifact, reply.Usage, nil
}

// buildPrompt embeds the subject and user prompt into the fixed template.
// The literal section markers are load-bearing: extraction keys on them.
func buildPrompt(prompt string, subject model.Subject) string {
	return fmt.Sprintf("You are an expert JavaScript engineer. Create a clean, runnable interactive %s simulation without any assumptions. Output must follow this format:\n\n```\n---CANVAS---\n<canvas id=\"sim\" width=\"800\" height=\"600\"></canvas>\n\n---SCRIPT---\n// 1. SETUP: grab canvas, get context, init data & listeners, console.log('initialized')\n// 2. ANIMATE: function animate(){ update; clear; draw; requestAnimationFrame(animate);} animate();\n// 3. HELPERS: optional helper functions\n---EXPLANATION---\n[Explain how this simulation demonstrates the %s concepts]\n\n> Prompt: %q\n```\n\nRequirements:\n- Draw all controls inside the canvas.\n- Use a coherent color palette and legible on-canvas text.\n- Keep complexity balanced—only essential math and interactivity.",
		subject, subject, prompt)
}

// wrapScript closes over the generated script so its identifiers stay out
// of the frame's global scope.
func wrapScript(js string) string {
	return "(function(){\n" + js + "\n})();\n"
}

// styleCanvas injects the display styles onto the first canvas tag so the
// frame can drive layout through CSS before the resize pass runs.
func styleCanvas(markup string) string {
	return strings.Replace(markup, "<canvas",
		`<canvas style="width:100%; height:100%; display:block;"`, 1)
}
