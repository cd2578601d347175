// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech provides the optional voice capabilities: microphone
// transcription and spoken playback of replies.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// nextEvent pulls one event with a deadline.
func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

// =============================================================================
// RECOGNIZER TESTS
// =============================================================================

var testUpgrader = websocket.Upgrader{}

// fakeDaemon runs a recognition daemon double: it consumes the config
// message and audio frames, then replies with a partial and a final result
// once the eof command arrives.
func fakeDaemon(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// First message is the JSON config.
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			t.Errorf("first message type = %d, want text config", msgType)
		}
		var cfg struct {
			Config struct {
				SampleRate int `json:"sample_rate"`
			} `json:"config"`
		}
		if err := json.Unmarshal(data, &cfg); err != nil || cfg.Config.SampleRate == 0 {
			t.Errorf("bad config message: %s", data)
		}

		// Drain audio until the eof command.
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if msgType == websocket.TextMessage && strings.Contains(string(data), "eof") {
				break
			}
		}

		conn.WriteJSON(map[string]string{"partial": "hel"})
		conn.WriteJSON(map[string]string{"text": "hello"})
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestRecognizerTranscribesSource(t *testing.T) {
	srv := fakeDaemon(t)
	defer srv.Close()

	pcm := bytes.Repeat([]byte{0x01, 0x02}, 4000)
	rec := NewStreamRecognizer(RecognizerConfig{
		URL:    wsURL(srv),
		Source: io.NopCloser(bytes.NewReader(pcm)),
	})

	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	ev := nextEvent(t, rec.Events())
	if ev.Type != EventStarted {
		t.Fatalf("first event = %v, want started", ev.Type)
	}

	ev = nextEvent(t, rec.Events())
	if ev.Type != EventTranscript || ev.Final || ev.Text != "hel" {
		t.Fatalf("second event = %+v, want partial 'hel'", ev)
	}

	ev = nextEvent(t, rec.Events())
	if ev.Type != EventTranscript || !ev.Final || ev.Text != "hello" {
		t.Fatalf("third event = %+v, want final 'hello'", ev)
	}

	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop returned error: %v", err)
	}
	ev = nextEvent(t, rec.Events())
	if ev.Type != EventStopped {
		t.Fatalf("post-stop event = %v, want stopped", ev.Type)
	}
}

func TestRecognizerMissingRecorder(t *testing.T) {
	rec := NewStreamRecognizer(RecognizerConfig{
		Recorder: "no-such-recorder-binary",
	})

	err := rec.Start(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Start = %v, want ErrUnavailable", err)
	}
}

func TestRecognizerDaemonUnreachable(t *testing.T) {
	rec := NewStreamRecognizer(RecognizerConfig{
		URL:    "ws://127.0.0.1:1",
		Source: io.NopCloser(bytes.NewReader(nil)),
	})

	err := rec.Start(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Start = %v, want ErrUnavailable", err)
	}
}

func TestRecognizerStopWithoutStart(t *testing.T) {
	rec := NewStreamRecognizer(RecognizerConfig{})
	if err := rec.Stop(); err != nil {
		t.Errorf("Stop on idle recognizer = %v", err)
	}
}

func TestNormalizeComposesText(t *testing.T) {
	// "e" + combining acute accent composes to a single rune.
	decomposed := "café"
	if got := normalize(decomposed); got != "café" {
		t.Errorf("normalize = %q, want %q", got, "café")
	}
}

// =============================================================================
// SYNTHESIZER TESTS
// =============================================================================

func TestSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tts" {
			t.Errorf("path = %q, want /tts", r.URL.Path)
		}
		var req synthesisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Text != "hello there" {
			t.Errorf("text = %q", req.Text)
		}
		if req.Speaker != 3 {
			t.Errorf("speaker = %d, want 3", req.Speaker)
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Write([]byte("RIFFfake-wav-bytes"))
	}))
	defer srv.Close()

	synth := NewHTTPSynthesizer(SynthesizerConfig{BaseURL: srv.URL})

	wav, err := synth.Synthesize(context.Background(), "hello there", "3")
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if !bytes.HasPrefix(wav, []byte("RIFF")) {
		t.Errorf("unexpected audio bytes: %q", wav)
	}
}

func TestSynthesizeNonNumericVoiceUsesDefaultSpeaker(t *testing.T) {
	var gotSpeaker int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req synthesisRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotSpeaker = req.Speaker
		w.Write([]byte("RIFF"))
	}))
	defer srv.Close()

	synth := NewHTTPSynthesizer(SynthesizerConfig{BaseURL: srv.URL, Speaker: 7})

	if _, err := synth.Synthesize(context.Background(), "hi", "alto"); err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if gotSpeaker != 7 {
		t.Errorf("speaker = %d, want default 7", gotSpeaker)
	}
}

func TestSynthesizeWhileLoading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"TTS model is still loading"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	synth := NewHTTPSynthesizer(SynthesizerConfig{BaseURL: srv.URL})

	_, err := synth.Synthesize(context.Background(), "hi", "")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestSynthesizeServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "synth exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	synth := NewHTTPSynthesizer(SynthesizerConfig{BaseURL: srv.URL})

	_, err := synth.Synthesize(context.Background(), "hi", "")
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Error("a synth failure is not an availability problem")
	}
}

func TestCheckReady(t *testing.T) {
	status := "loading"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q, want /health", r.URL.Path)
		}
		json.NewEncoder(w).Encode(healthResponse{Status: status})
	}))
	defer srv.Close()

	synth := NewHTTPSynthesizer(SynthesizerConfig{BaseURL: srv.URL})

	if err := synth.CheckReady(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("loading server: err = %v, want ErrUnavailable", err)
	}

	status = "ready"
	if err := synth.CheckReady(context.Background()); err != nil {
		t.Errorf("ready server: err = %v", err)
	}
}

// =============================================================================
// PLAYER TESTS
// =============================================================================

// countingSynth records synthesize calls and returns dummy audio.
type countingSynth struct {
	mu     sync.Mutex
	texts  []string
	voices []string
}

func (c *countingSynth) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, text)
	c.voices = append(c.voices, voice)
	return []byte("RIFF"), nil
}

func (c *countingSynth) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.texts)
}

// newTestPlayer builds a player whose external command is a no-op binary.
func newTestPlayer(t *testing.T, synth Synthesizer, enabled bool) *Player {
	t.Helper()
	p, err := NewPlayer(PlayerConfig{
		Synth:   synth,
		Command: "true",
		Enabled: enabled,
	})
	if err != nil {
		t.Fatalf("NewPlayer returned error: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestPlayerSpeaksOnce(t *testing.T) {
	synth := &countingSynth{}
	p := newTestPlayer(t, synth, true)

	p.Say("msg-1", "hello")
	p.Say("msg-1", "hello")
	p.Say("msg-1", "hello")

	waitFor(t, func() bool { return synth.count() >= 1 })
	// Give the worker a beat to (incorrectly) pick up duplicates.
	time.Sleep(50 * time.Millisecond)

	if n := synth.count(); n != 1 {
		t.Errorf("synthesized %d times, want 1", n)
	}
}

func TestPlayerDistinctMessages(t *testing.T) {
	synth := &countingSynth{}
	p := newTestPlayer(t, synth, true)

	p.Say("msg-1", "first")
	p.Say("msg-2", "second")

	waitFor(t, func() bool { return synth.count() == 2 })

	synth.mu.Lock()
	defer synth.mu.Unlock()
	if synth.texts[0] != "first" || synth.texts[1] != "second" {
		t.Errorf("playback order = %v", synth.texts)
	}
}

func TestPlayerDisabledIsSilent(t *testing.T) {
	synth := &countingSynth{}
	p := newTestPlayer(t, synth, false)

	p.Say("msg-1", "hello")
	time.Sleep(50 * time.Millisecond)

	if n := synth.count(); n != 0 {
		t.Errorf("disabled player synthesized %d times", n)
	}
}

func TestPlayerVoicePassedThrough(t *testing.T) {
	synth := &countingSynth{}
	p := newTestPlayer(t, synth, true)
	p.SetVoice("4")

	p.Say("msg-1", "hello")
	waitFor(t, func() bool { return synth.count() == 1 })

	synth.mu.Lock()
	defer synth.mu.Unlock()
	if synth.voices[0] != "4" {
		t.Errorf("voice = %q, want '4'", synth.voices[0])
	}
}

func TestPlayerMissingBinary(t *testing.T) {
	_, err := NewPlayer(PlayerConfig{
		Synth:   &countingSynth{},
		Command: "no-such-player-binary",
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("NewPlayer = %v, want ErrUnavailable", err)
	}
}

func TestPlayerToggle(t *testing.T) {
	synth := &countingSynth{}
	p := newTestPlayer(t, synth, false)

	if p.Enabled() {
		t.Error("player should start disabled")
	}
	p.SetEnabled(true)
	if !p.Enabled() {
		t.Error("SetEnabled(true) not applied")
	}

	p.Say("msg-1", "now audible")
	waitFor(t, func() bool { return synth.count() == 1 })
}
