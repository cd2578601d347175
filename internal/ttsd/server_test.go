// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ttsd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// TEST SYNTHS
// =============================================================================

// stubSynth returns canned bytes or a canned error.
type stubSynth struct {
	wav []byte
	err error
}

func (s stubSynth) Generate(ctx context.Context, req Request) ([]byte, error) {
	return s.wav, s.err
}

// panicSynth blows up, for recovery middleware tests.
type panicSynth struct{}

func (panicSynth) Generate(context.Context, Request) ([]byte, error) {
	panic("synth exploded")
}

// =============================================================================
// SERVER TESTS
// =============================================================================

func TestNewServer(t *testing.T) {
	s := NewServer(0)

	if s == nil {
		t.Fatal("NewServer(0) returned nil")
	}

	if s.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", s.Port(), DefaultPort)
	}

	if s.CurrentState() != StateLoading {
		t.Errorf("CurrentState() = %v, want loading", s.CurrentState())
	}
}

func TestNewServer_CustomPort(t *testing.T) {
	s := NewServer(9999)

	if s.Port() != 9999 {
		t.Errorf("Port() = %d, want 9999", s.Port())
	}
}

func TestServer_WithMethods(t *testing.T) {
	s := NewServer(0)

	s2 := s.WithSynth(stubSynth{})
	if s2 != s {
		t.Error("WithSynth should return same server")
	}

	s3 := s.WithWarmup(0)
	if s3 != s {
		t.Error("WithWarmup should return same server")
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateLoading, "loading"},
		{StateReady, "ready"},
		{StateError, "error"},
	}

	for _, tc := range tests {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("State(%d).String() = %q, want %q", tc.state, got, tc.want)
		}
	}
}

// =============================================================================
// STATUS ENDPOINT TESTS
// =============================================================================

func TestHandleRoot_Loading(t *testing.T) {
	s := NewServer(0)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	s.handleRoot(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp["status"] != "loading" {
		t.Errorf("status = %q, want 'loading'", resp["status"])
	}

	if resp["message"] == "" {
		t.Error("message should be set")
	}
}

func TestHandleRoot_Ready(t *testing.T) {
	s := NewServer(0)
	s.setState(StateReady)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	s.handleRoot(w, req)

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp["status"] != "ready" {
		t.Errorf("status = %q, want 'ready'", resp["status"])
	}
}

func TestHandleHealth(t *testing.T) {
	s := NewServer(0)
	s.setState(StateReady)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp["status"] != "ready" {
		t.Errorf("status = %q, want 'ready'", resp["status"])
	}

	// Probes key on status alone, no message here.
	if _, ok := resp["message"]; ok {
		t.Error("/health should not include a message field")
	}
}

func TestHandleHealth_ErrorState(t *testing.T) {
	s := NewServer(0)
	s.setState(StateError)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	s.handleHealth(w, req)

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp["status"] != "error" {
		t.Errorf("status = %q, want 'error'", resp["status"])
	}
}

// =============================================================================
// TTS ENDPOINT TESTS
// =============================================================================

func ttsRequest(body string) *http.Request {
	req := httptest.NewRequest("POST", "/tts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandleTTS_WhileLoading(t *testing.T) {
	s := NewServer(0)

	w := httptest.NewRecorder()
	s.handleTTS(w, ttsRequest(`{"text": "hello"}`))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp["error"] == "" {
		t.Error("error message should be set")
	}
}

func TestHandleTTS_ErrorState(t *testing.T) {
	s := NewServer(0)
	s.setState(StateError)

	w := httptest.NewRecorder()
	s.handleTTS(w, ttsRequest(`{"text": "hello"}`))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestHandleTTS_InvalidJSON(t *testing.T) {
	s := NewServer(0)
	s.setState(StateReady)

	w := httptest.NewRecorder()
	s.handleTTS(w, ttsRequest(`{not json`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleTTS_EmptyText(t *testing.T) {
	s := NewServer(0)
	s.setState(StateReady)

	w := httptest.NewRecorder()
	s.handleTTS(w, ttsRequest(`{"text": ""}`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleTTS_Success(t *testing.T) {
	s := NewServer(0).WithSynth(NewToneSynth())
	s.setState(StateReady)

	w := httptest.NewRecorder()
	s.handleTTS(w, ttsRequest(`{"text": "hello there"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	if ct := w.Header().Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("Content-Type = %q, want 'audio/wav'", ct)
	}

	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "tts_output.wav") {
		t.Errorf("Content-Disposition = %q, want the tts_output.wav filename", cd)
	}

	body := w.Body.Bytes()
	if !bytes.HasPrefix(body, []byte("RIFF")) {
		t.Error("body should start with a RIFF header")
	}
}

func TestHandleTTS_SynthFailure(t *testing.T) {
	s := NewServer(0).WithSynth(stubSynth{err: context.DeadlineExceeded})
	s.setState(StateReady)

	w := httptest.NewRecorder()
	s.handleTTS(w, ttsRequest(`{"text": "hello"}`))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if !strings.Contains(resp["error"], "generating speech") {
		t.Errorf("error = %q, want a generation error", resp["error"])
	}
}

func TestHandleTTS_DefaultsApplied(t *testing.T) {
	var captured Request
	s := NewServer(0).WithSynth(synthFunc(func(ctx context.Context, req Request) ([]byte, error) {
		captured = req
		return []byte("RIFF"), nil
	}))
	s.setState(StateReady)

	w := httptest.NewRecorder()
	s.handleTTS(w, ttsRequest(`{"text": "hi"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	if captured.Temperature != 0.8 {
		t.Errorf("Temperature = %f, want 0.8", captured.Temperature)
	}

	if captured.TopK != 50 {
		t.Errorf("TopK = %d, want 50", captured.TopK)
	}

	if captured.MaxAudioLengthMs != 10000 {
		t.Errorf("MaxAudioLengthMs = %d, want 10000", captured.MaxAudioLengthMs)
	}
}

// synthFunc adapts a function to the Synth interface.
type synthFunc func(ctx context.Context, req Request) ([]byte, error)

func (f synthFunc) Generate(ctx context.Context, req Request) ([]byte, error) {
	return f(ctx, req)
}

// =============================================================================
// ROUTING TESTS
// =============================================================================

func TestRouter_MethodNotAllowed(t *testing.T) {
	s := NewServer(0)
	s.setState(StateReady)

	req := httptest.NewRequest("GET", "/tts", nil)
	w := httptest.NewRecorder()

	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestRouter_UnknownPath(t *testing.T) {
	s := NewServer(0)

	req := httptest.NewRequest("GET", "/nope", nil)
	w := httptest.NewRecorder()

	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestHandler_RecoversPanic(t *testing.T) {
	s := NewServer(0).WithSynth(panicSynth{})
	s.setState(StateReady)

	req := ttsRequest(`{"text": "boom"}`)
	w := httptest.NewRecorder()

	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestChain_Order(t *testing.T) {
	var order []string

	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	chained := Chain(tag("first"), tag("second"))(final)
	chained.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := []string{"first", "second", "handler"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

// =============================================================================
// END TO END
// =============================================================================

// TestServer_SpeechClientContract walks the exact sequence the chat client's
// speech synthesizer performs: poll /health until ready, then POST /tts.
func TestServer_SpeechClientContract(t *testing.T) {
	s := NewServer(0).WithSynth(NewToneSynth())
	handler := s.Handler()

	// Warming up: health says loading, tts says come back later.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	var health map[string]string
	if err := json.NewDecoder(w.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode health: %v", err)
	}
	if health["status"] != "loading" {
		t.Errorf("status = %q, want 'loading'", health["status"])
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, ttsRequest(`{"text": "too early"}`))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}

	// Model loaded.
	s.setState(StateReady)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, ttsRequest(`{"text": "hello world", "speaker": 0, "max_audio_length_ms": 10000}`))
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("RIFF")) {
		t.Error("response should be WAV audio")
	}
}
