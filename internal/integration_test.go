// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package internal provides integration tests for the complete murmur system.
//
// These tests verify end-to-end functionality across package seams:
// - A full chat turn streamed over real HTTP
// - Interleaved transcript writes during a live stream
// - The spoken-reply pipeline from model stream to WAV bytes
// - The speech client against the synthesis sidecar's HTTP surface
// - Preference persistence across manager restarts
// - Configuration loading with environment overrides
package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/murmur/internal/config"
	"github.com/jeranaias/murmur/internal/model"
	"github.com/jeranaias/murmur/internal/ollama"
	"github.com/jeranaias/murmur/internal/prefs"
	"github.com/jeranaias/murmur/internal/session"
	"github.com/jeranaias/murmur/internal/speech"
	"github.com/jeranaias/murmur/internal/ttsd"
)

// =============================================================================
// TEST UTILITIES
// =============================================================================

// fakeModelServer serves /api/chat with the given NDJSON lines, flushing
// after each so the client sees them as separate chunks.
func fakeModelServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("test server does not support flushing")
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, line := range lines {
			fmt.Fprintln(w, line)
			flusher.Flush()
		}
	}))
}

// gatedModelServer streams one line per receive on step, closing the body
// when step closes. It lets a test hold a turn open mid-stream.
func gatedModelServer(t *testing.T, step <-chan string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Fatal("test server does not support flushing")
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		for line := range step {
			fmt.Fprintln(w, line)
			flusher.Flush()
		}
	}))
}

// newSession wires a session to the given server URL.
func newSession(url string, speaker session.Speaker) *session.Session {
	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      url,
		DefaultModel: "llama3.2",
	})
	return session.New(session.Config{Client: client, Model: "llama3.2", Speaker: speaker})
}

// waitUntil polls cond until it holds or the deadline passes.
func waitUntil(t *testing.T, d time.Duration, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// recordingSpeaker captures Say calls.
type recordingSpeaker struct {
	mu    sync.Mutex
	ids   []string
	texts []string
}

func (r *recordingSpeaker) Say(id, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
	r.texts = append(r.texts, text)
}

func (r *recordingSpeaker) spoken() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

// =============================================================================
// CHAT TURN OVER HTTP
// =============================================================================

// TestFullChatTurn streams a reply over real HTTP and checks the final
// transcript shape.
func TestFullChatTurn(t *testing.T) {
	srv := fakeModelServer(t,
		`{"message": {"role": "assistant", "content": "Hel"}, "done": false}`,
		`{"message": {"role": "assistant", "content": "lo"}, "done": false}`,
		`{"done": true}`,
	)
	defer srv.Close()

	sess := newSession(srv.URL, nil)
	if err := sess.Send(context.Background(), "hi there"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	msgs := sess.Conversation().Messages()
	if len(msgs) != 2 {
		t.Fatalf("message count = %d, want 2", len(msgs))
	}

	if msgs[0].Sender != model.SenderUser || msgs[0].Text != "hi there" {
		t.Errorf("first message = %+v, want the user turn", msgs[0])
	}

	if msgs[1].Sender != model.SenderAssistant || msgs[1].Text != "Hello" {
		t.Errorf("second message = %+v, want assistant 'Hello'", msgs[1])
	}

	if sess.Awaiting() {
		t.Error("awaiting flag should clear after the turn")
	}
}

// TestMalformedLineSurfacesDiagnostic checks a bad stream line becomes one
// transcript diagnostic while the turn keeps going.
func TestMalformedLineSurfacesDiagnostic(t *testing.T) {
	srv := fakeModelServer(t,
		`not-json`,
		`{"message": {"role": "assistant", "content": "ok"}, "done": false}`,
		`{"done": true}`,
	)
	defer srv.Close()

	sess := newSession(srv.URL, nil)
	if err := sess.Send(context.Background(), "hi"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	msgs := sess.Conversation().Messages()
	if len(msgs) != 3 {
		t.Fatalf("message count = %d, want 3 (user, diagnostic, reply)", len(msgs))
	}

	if msgs[1].Sender != model.SenderAssistant {
		t.Errorf("diagnostic sender = %v, want assistant", msgs[1].Sender)
	}

	if !strings.Contains(msgs[1].Text, "not-json") {
		t.Errorf("diagnostic %q should quote the offending line", msgs[1].Text)
	}

	if msgs[2].Text != "ok" {
		t.Errorf("reply = %q, want 'ok'", msgs[2].Text)
	}
}

// TestInterleavedWriteDuringStream holds a stream open mid-turn, injects a
// user message, and checks the resumed stream opens a fresh assistant
// message carrying the full accumulated text.
func TestInterleavedWriteDuringStream(t *testing.T) {
	step := make(chan string)
	srv := gatedModelServer(t, step)
	defer srv.Close()

	sess := newSession(srv.URL, nil)
	conv := sess.Conversation()

	done := make(chan error, 1)
	go func() {
		done <- sess.Send(context.Background(), "hi")
	}()

	step <- `{"message": {"role": "assistant", "content": "Hel"}, "done": false}`
	waitUntil(t, 2*time.Second, func() bool {
		msgs := conv.Messages()
		return len(msgs) == 2 && msgs[1].Text == "Hel"
	}, "first fragment to land")

	// Something else writes to the transcript while the reply streams.
	conv.Apply(model.Append{Msg: model.NewUserMessage("injected")})

	step <- `{"message": {"role": "assistant", "content": "lo"}, "done": false}`
	step <- `{"done": true}`
	close(step)

	if err := <-done; err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	msgs := conv.Messages()
	if len(msgs) != 4 {
		t.Fatalf("message count = %d, want 4", len(msgs))
	}

	if msgs[2].Text != "injected" || msgs[2].Sender != model.SenderUser {
		t.Errorf("injected message was disturbed: %+v", msgs[2])
	}

	// The open message moved to the end and carries the whole reply so far.
	if msgs[3].Sender != model.SenderAssistant || msgs[3].Text != "Hello" {
		t.Errorf("final message = %+v, want assistant 'Hello'", msgs[3])
	}
}

// TestServerErrorLeavesSessionUsable drives a failing turn and then a good
// one through the same session.
func TestServerErrorLeavesSessionUsable(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "model exploded"}`, http.StatusInternalServerError)
	}))

	sess := newSession(bad.URL, nil)
	if err := sess.Send(context.Background(), "hi"); err == nil {
		t.Error("Send() should report the failed turn")
	}
	bad.Close()

	msgs := sess.Conversation().Messages()
	if len(msgs) != 2 {
		t.Fatalf("message count = %d, want 2 (user, diagnostic)", len(msgs))
	}
	if sess.Awaiting() {
		t.Fatal("awaiting flag should clear after a failed turn")
	}

	good := fakeModelServer(t,
		`{"message": {"role": "assistant", "content": "recovered"}, "done": false}`,
		`{"done": true}`,
	)
	defer good.Close()

	sess2 := newSession(good.URL, nil)
	if err := sess2.Send(context.Background(), "again"); err != nil {
		t.Fatalf("Send() after failure error = %v", err)
	}
}

// =============================================================================
// SPOKEN REPLY PIPELINE
// =============================================================================

// TestSpokenReplyPipeline walks a reply from the model stream through the
// speaker hook and the synthesis sidecar down to WAV bytes.
func TestSpokenReplyPipeline(t *testing.T) {
	modelSrv := fakeModelServer(t,
		`{"message": {"role": "assistant", "content": "lights are "}, "done": false}`,
		`{"message": {"role": "assistant", "content": "dimmed"}, "done": false}`,
		`{"done": true}`,
	)
	defer modelSrv.Close()

	speaker := &recordingSpeaker{}
	sess := newSession(modelSrv.URL, speaker)
	if err := sess.Send(context.Background(), "dim the lights"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	spoken := speaker.spoken()
	if len(spoken) != 1 {
		t.Fatalf("spoken count = %d, want exactly 1", len(spoken))
	}
	if spoken[0] != "lights are dimmed" {
		t.Errorf("spoken text = %q, want the completed reply", spoken[0])
	}

	// Hand the reply to the sidecar the way the player would.
	sidecar := ttsd.NewServer(0).WithSynth(ttsd.NewToneSynth())
	sidecar.MarkReady()
	ts := httptest.NewServer(sidecar.Handler())
	defer ts.Close()

	synth := speech.NewHTTPSynthesizer(speech.SynthesizerConfig{BaseURL: ts.URL})
	wav, err := synth.Synthesize(context.Background(), spoken[0], "0")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if !bytes.HasPrefix(wav, []byte("RIFF")) {
		t.Error("synthesized audio should be WAV")
	}
}

// TestSynthesizerAgainstSidecarStates checks the speech client's view of the
// sidecar through its whole lifecycle.
func TestSynthesizerAgainstSidecarStates(t *testing.T) {
	sidecar := ttsd.NewServer(0).WithSynth(ttsd.NewToneSynth())
	ts := httptest.NewServer(sidecar.Handler())
	defer ts.Close()

	synth := speech.NewHTTPSynthesizer(speech.SynthesizerConfig{BaseURL: ts.URL})
	ctx := context.Background()

	// Still warming up: unavailable, not a hard failure.
	if err := synth.CheckReady(ctx); err == nil {
		t.Error("CheckReady() should fail while the sidecar loads")
	}
	if _, err := synth.Synthesize(ctx, "hello", "0"); !errors.Is(err, speech.ErrUnavailable) {
		t.Errorf("Synthesize() while loading = %v, want ErrUnavailable", err)
	}

	sidecar.MarkReady()

	if err := synth.CheckReady(ctx); err != nil {
		t.Errorf("CheckReady() after load error = %v", err)
	}
	wav, err := synth.Synthesize(ctx, "hello", "3")
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if len(wav) < 44 {
		t.Errorf("WAV too short: %d bytes", len(wav))
	}
}

// =============================================================================
// PREFERENCES
// =============================================================================

// TestPreferencesSurviveRestart writes preferences through one manager and
// reads them back through a fresh one on the same badger store.
func TestPreferencesSurviveRestart(t *testing.T) {
	store, err := prefs.OpenBadger(prefs.BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	mgr, err := prefs.NewManager(ctx, store)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	if err := mgr.SetModel(ctx, "mistral"); err != nil {
		t.Fatalf("SetModel() error = %v", err)
	}
	if err := mgr.SetSpeakReplies(ctx, true); err != nil {
		t.Fatalf("SetSpeakReplies() error = %v", err)
	}
	if err := mgr.SetVoice(ctx, "4"); err != nil {
		t.Fatalf("SetVoice() error = %v", err)
	}

	// A second manager simulates the next app start.
	mgr2, err := prefs.NewManager(ctx, store)
	if err != nil {
		t.Fatalf("NewManager() (restart) error = %v", err)
	}

	got := mgr2.Current()
	if got.Model != "mistral" {
		t.Errorf("Model = %q, want 'mistral'", got.Model)
	}
	if !got.SpeakReplies {
		t.Error("SpeakReplies should persist")
	}
	if got.Voice != "4" {
		t.Errorf("Voice = %q, want '4'", got.Voice)
	}
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// TestConfigFileWithEnvOverrides loads a TOML file and applies environment
// overrides on top, the order startup uses.
func TestConfigFileWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
version = "1"
default_model = "llama3.2"

[server]
url = "http://127.0.0.1:11434"

[speech]
enabled = true
voice = "0"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.DefaultModel != "llama3.2" {
		t.Errorf("DefaultModel = %q, want 'llama3.2'", cfg.DefaultModel)
	}

	t.Setenv("MURMUR_DEFAULT_MODEL", "mistral")
	t.Setenv("MURMUR_SPEECH_VOICE", "7")

	if err := cfg.ApplyEnvOverrides(); err != nil {
		t.Fatalf("ApplyEnvOverrides() error = %v", err)
	}

	if cfg.DefaultModel != "mistral" {
		t.Errorf("DefaultModel after override = %q, want 'mistral'", cfg.DefaultModel)
	}
	if cfg.Speech.Voice != "7" {
		t.Errorf("Speech.Voice after override = %q, want '7'", cfg.Speech.Voice)
	}
	if cfg.Server.URL != "http://127.0.0.1:11434" {
		t.Errorf("Server.URL = %q, file value should survive", cfg.Server.URL)
	}
}
