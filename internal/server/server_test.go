package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mindrender/mindrender/internal/config"
	"github.com/mindrender/mindrender/internal/identity"
	"github.com/mindrender/mindrender/internal/model"
	"github.com/mindrender/mindrender/internal/moderation"
	"github.com/mindrender/mindrender/internal/orchestrator"
	"github.com/mindrender/mindrender/internal/provider"
	"github.com/mindrender/mindrender/internal/quota"
)

const pendulumReply = `---CANVAS---
<canvas id="simCanvas" width="800" height="600"></canvas>
---SCRIPT---
const canvas = document.getElementById('simCanvas');
const ctx = canvas.getContext('2d');
let angle = Math.PI / 4;
function tick() { ctx.clearRect(0, 0, 800, 600); angle *= 0.999; requestAnimationFrame(tick); }
tick();
---EXPLANATION---
A pendulum converts potential energy to kinetic energy as it swings.`

type fakeProvider struct {
	reply string
	usage model.Usage
	err   error
	calls int
}

func (p *fakeProvider) Complete(_ context.Context, _ provider.Request) (*provider.Reply, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &provider.Reply{Text: p.reply, Usage: p.usage}, nil
}

type testEnv struct {
	srv      *Server
	ts       *httptest.Server
	store    *quota.MemoryStore
	provider *fakeProvider
}

func newTestEnv(t *testing.T, ceiling int) *testEnv {
	t.Helper()
	fake := &fakeProvider{
		reply: pendulumReply,
		usage: model.Usage{InputTokens: 120, OutputTokens: 340},
	}
	store := quota.NewMemoryStore()
	cfg := config.Default()

	auth := &identity.StaticAuthenticator{Users: map[string]model.User{
		"tok-alice": {ID: "alice", Email: "alice@example.com"},
		"tok-prof":  {ID: "prof", Email: "prof@example.com"},
	}}

	srv := New(cfg, Deps{
		Gate:   moderation.NewDefault(),
		Orch:   orchestrator.New(fake),
		Ledger: quota.NewLedger(store, ceiling),
		Auth:   auth,
		Roles:  identity.NewRoles([]string{"prof@example.com"}),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return &testEnv{srv: srv, ts: ts, store: store, provider: fake}
}

func (e *testEnv) simulate(t *testing.T, token, prompt, subject string) simulateResponse {
	t.Helper()
	body, _ := json.Marshal(simulateRequest{Prompt: prompt, Subject: subject})
	req, _ := http.NewRequest(http.MethodPost, e.ts.URL+"/simulate", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("simulate status = %d, want 200", resp.StatusCode)
	}
	var out simulateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestSimulatePendulum(t *testing.T) {
	env := newTestEnv(t, 0)

	out := env.simulate(t, "tok-alice", "Show me a pendulum swinging with adjustable length", "Physics")

	if out.Error != "" {
		t.Fatalf("error = %q", out.Error)
	}
	if !strings.Contains(out.CanvasHTML, "<canvas") {
		t.Fatalf("canvasHtml = %q", out.CanvasHTML)
	}
	if !strings.HasPrefix(out.JSCode, "(function(){") {
		t.Fatalf("jsCode not wrapped: %q", out.JSCode[:40])
	}
	if !strings.Contains(out.Explanation, "pendulum") {
		t.Fatalf("explanation = %q", out.Explanation)
	}
	if out.Usage.TotalTokens != 460 {
		t.Fatalf("totalTokens = %d, want 460", out.Usage.TotalTokens)
	}
	if out.RequestID == "" {
		t.Fatal("missing requestId")
	}
	if got := env.store.Events("alice"); len(got) != 1 || got[0].Tokens != 460 {
		t.Fatalf("usage events = %+v", got)
	}
}

func TestSimulateBlockedPromptIs200WithPlaceholder(t *testing.T) {
	env := newTestEnv(t, 0)

	out := env.simulate(t, "tok-alice", "simulate something sexual with physics", "Physics")

	if out.Error == "" {
		t.Fatal("expected error label")
	}
	if !strings.Contains(out.CanvasHTML, "<canvas") {
		t.Fatalf("placeholder canvas missing: %q", out.CanvasHTML)
	}
	if out.JSCode != "" {
		t.Fatal("blocked response carries script")
	}
	if !strings.Contains(out.Explanation, "overflow-y: auto") {
		t.Fatalf("explanation not scrollable: %q", out.Explanation)
	}
	if env.provider.calls != 0 {
		t.Fatal("provider called for blocked prompt")
	}
	if got := env.store.Events("alice"); len(got) != 0 {
		t.Fatalf("blocked prompt charged: %+v", got)
	}
}

func TestSimulateQuotaSoftOverflow(t *testing.T) {
	env := newTestEnv(t, 500)

	// First request lands under the ceiling and crosses it when charged.
	out := env.simulate(t, "tok-alice", "Show me a bouncing ball with gravity", "Physics")
	if out.Error != "" {
		t.Fatalf("first request rejected: %q", out.Error)
	}

	// Second request starts at 460 < 500, also allowed: 920 total.
	out = env.simulate(t, "tok-alice", "Show me a bouncing ball with gravity", "Physics")
	if out.Error != "" {
		t.Fatalf("second request rejected: %q", out.Error)
	}

	// Third starts at 920 >= 500: rejected, nothing charged.
	out = env.simulate(t, "tok-alice", "Show me a bouncing ball with gravity", "Physics")
	if out.Error != "Token limit exceeded" {
		t.Fatalf("error = %q", out.Error)
	}
	if !strings.Contains(out.Explanation, "920 of 500") {
		t.Fatalf("explanation = %q", out.Explanation)
	}
	if got := env.store.Events("alice"); len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
}

func TestSimulatePrivilegedBypassesQuota(t *testing.T) {
	env := newTestEnv(t, 500)

	for i := 0; i < 3; i++ {
		out := env.simulate(t, "tok-prof", "Show me a bouncing ball with gravity", "Physics")
		if out.Error != "" {
			t.Fatalf("request %d rejected: %q", i, out.Error)
		}
	}
	// Privileged usage is still recorded.
	if got := env.store.Events("prof"); len(got) != 3 {
		t.Fatalf("events = %d, want 3", len(got))
	}
}

func TestSimulateProviderFailureIs200(t *testing.T) {
	env := newTestEnv(t, 0)
	env.provider.err = &model.ProviderError{Status: http.StatusServiceUnavailable, Body: "upstream down"}

	out := env.simulate(t, "tok-alice", "Show me a bouncing ball with gravity", "Physics")

	if out.Error != "Generation failed" {
		t.Fatalf("error = %q", out.Error)
	}
	if strings.Contains(out.Explanation, "upstream down") {
		t.Fatal("raw provider body leaked to client")
	}
	if got := env.store.Events("alice"); len(got) != 0 {
		t.Fatal("failed generation charged")
	}
}

func TestSimulateRequiresAuth(t *testing.T) {
	env := newTestEnv(t, 0)

	body, _ := json.Marshal(simulateRequest{Prompt: "Show me a pendulum swinging"})
	resp, err := http.Post(env.ts.URL+"/simulate", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestSimulateRejectsEmptyPrompt(t *testing.T) {
	env := newTestEnv(t, 0)

	body := []byte(`{"prompt":"   "}`)
	req, _ := http.NewRequest(http.MethodPost, env.ts.URL+"/simulate", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer tok-alice")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestTokenTotal(t *testing.T) {
	env := newTestEnv(t, 0)
	env.simulate(t, "tok-alice", "Show me a pendulum swinging slowly", "Physics")

	req, _ := http.NewRequest(http.MethodGet, env.ts.URL+"/get_token_total", nil)
	req.Header.Set("Authorization", "Bearer tok-alice")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		Total int `json:"total"`
		Limit int `json:"limit"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Total != 460 || out.Limit != quota.DefaultCeiling {
		t.Fatalf("total/limit = %d/%d", out.Total, out.Limit)
	}
}

func TestTokenTotalRejectsOtherUser(t *testing.T) {
	env := newTestEnv(t, 0)

	req, _ := http.NewRequest(http.MethodGet, env.ts.URL+"/get_token_total?user_id=bob", nil)
	req.Header.Set("Authorization", "Bearer tok-alice")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestFrameAssetsServed(t *testing.T) {
	env := newTestEnv(t, 0)

	resp, err := http.Get(env.ts.URL + "/sim-frame")
	if err != nil {
		t.Fatal(err)
	}
	page, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(string(page), "sim-frame.js") {
		t.Fatal("frame page does not load its script")
	}

	resp, err = http.Get(env.ts.URL + "/sim-frame.js")
	if err != nil {
		t.Fatal(err)
	}
	script, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(script), "pinnedOrigin") {
		t.Fatal("frame script missing origin pinning")
	}
}

func TestCORSHeaders(t *testing.T) {
	env := newTestEnv(t, 0)

	req, _ := http.NewRequest(http.MethodOptions, env.ts.URL+"/simulate", nil)
	req.Header.Set("Origin", "https://app.example")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") == "" {
		t.Fatal("missing CORS header")
	}
}

func TestPatternReloadSwapsGate(t *testing.T) {
	env := newTestEnv(t, 0)

	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	if err := os.WriteFile(path, []byte("keywords: [\"show me\"]\nmin_length: 10\n"), 0644); err != nil {
		t.Fatal(err)
	}
	env.srv.reloadPatterns(path)
	verdict := env.srv.Gate().Evaluate("Show me a pendulum swinging", model.SubjectPhysics)
	if !verdict.Accepted {
		t.Fatalf("prompt rejected under first pattern set: %q", verdict.Reason)
	}

	// A new blocklist entry takes effect on the next request.
	if err := os.WriteFile(path, []byte("blocked: [pendulum]\nkeywords: [\"show me\"]\nmin_length: 10\n"), 0644); err != nil {
		t.Fatal(err)
	}
	env.srv.reloadPatterns(path)
	verdict = env.srv.Gate().Evaluate("Show me a pendulum swinging", model.SubjectPhysics)
	if verdict.Accepted {
		t.Fatal("reloaded blocklist not applied")
	}
}

func TestWatchPatternsReloadsOnWrite(t *testing.T) {
	env := newTestEnv(t, 0)

	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	if err := os.WriteFile(path, []byte("keywords: [\"show me\"]\nmin_length: 10\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- env.srv.WatchPatterns(ctx, path) }()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("blocked: [pendulum]\nkeywords: [\"show me\"]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		verdict := env.srv.Gate().Evaluate("Show me a pendulum swinging", model.SubjectPhysics)
		if !verdict.Accepted {
			cancel()
			if err := <-done; !errors.Is(err, context.Canceled) {
				t.Fatalf("watcher exit: %v", err)
			}
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("pattern change never applied")
}
