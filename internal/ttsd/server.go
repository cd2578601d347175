// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ttsd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultPort is the sidecar's default listen port.
	DefaultPort = 3001

	// MaxRequestBodySize caps the /tts request body (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024
)

// =============================================================================
// SERVER STATE
// =============================================================================

// State tracks model readiness, mirroring the lifecycle clients poll for.
type State int32

const (
	StateLoading State = iota
	StateReady
	StateError
)

// String returns the wire form of the state.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "loading"
	}
}

// =============================================================================
// SERVER
// =============================================================================

// Server is the synthesis sidecar. It speaks the same surface as the real
// speech model server so the chat client cannot tell them apart:
//
//	GET  /        - status with message
//	GET  /health  - bare status
//	POST /tts     - synthesis request, WAV response
type Server struct {
	port   int
	router *mux.Router
	server *http.Server
	synth  Synth
	warmup time.Duration

	state atomic.Int32
}

// NewServer creates a sidecar server. If port is 0, the default port
// (3001) is used.
func NewServer(port int) *Server {
	if port == 0 {
		port = DefaultPort
	}

	s := &Server{
		port:   port,
		router: mux.NewRouter(),
		synth:  NewToneSynth(),
	}
	s.state.Store(int32(StateLoading))
	s.setupRoutes()
	return s
}

// WithSynth sets a custom synthesizer.
func (s *Server) WithSynth(synth Synth) *Server {
	s.synth = synth
	return s
}

// WithWarmup delays readiness after Start, exercising the loading state
// the way the real model server does.
func (s *Server) WithWarmup(d time.Duration) *Server {
	s.warmup = d
	return s
}

// Port returns the server port.
func (s *Server) Port() int {
	return s.port
}

// CurrentState returns the advertised readiness.
func (s *Server) CurrentState() State {
	return State(s.state.Load())
}

// MarkReady advertises the synthesizer as loaded. Embedders that load a
// real model call this when the load finishes.
func (s *Server) MarkReady() {
	s.setState(StateReady)
	log.Printf("TTSD_READY | synthesis available")
}

// MarkFailed advertises a failed load. /tts answers 500 from here on.
func (s *Server) MarkFailed(err error) {
	s.setState(StateError)
	log.Printf("TTSD_LOAD_FAILED | error=%v", err)
}

// setState moves the readiness state.
func (s *Server) setState(st State) {
	s.state.Store(int32(st))
}

// =============================================================================
// ROUTES
// =============================================================================

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/tts", s.handleTTS).Methods(http.MethodPost)
}

// statusMessage is the human line for the root endpoint.
func statusMessage(st State) string {
	switch st {
	case StateReady:
		return "synthesis server is ready"
	case StateError:
		return "failed to load the synthesis model"
	default:
		return "the synthesis model is still loading"
	}
}

// handleRoot reports readiness with a message.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	st := s.CurrentState()
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  st.String(),
		"message": statusMessage(st),
	})
}

// handleHealth reports bare readiness for probes.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": s.CurrentState().String(),
	})
}

// handleTTS synthesizes one utterance.
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	switch s.CurrentState() {
	case StateLoading:
		s.writeError(w, http.StatusServiceUnavailable,
			"model is still loading, try again later")
		return
	case StateError:
		s.writeError(w, http.StatusInternalServerError,
			"model failed to load, check server logs")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Text == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	req.fillDefaults()

	wav, err := s.synth.Generate(r.Context(), req)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError,
			"error generating speech: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", `inline; filename="tts_output.wav"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(wav)))
	w.WriteHeader(http.StatusOK)
	w.Write(wav)
}

// =============================================================================
// SERVER LIFECYCLE
// =============================================================================

// Handler returns the fully composed handler: recovery, CORS for local web
// frontends, and access logging around the router.
func (s *Server) Handler() http.Handler {
	handler := Chain(
		RecoveryMiddleware(),
	)(s.router)

	handler = handlers.CORS(
		handlers.AllowedOrigins([]string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(handler)

	return handlers.LoggingHandler(os.Stderr, handler)
}

// Start warms up the synthesizer and serves until Shutdown.
func (s *Server) Start() error {
	go func() {
		if s.warmup > 0 {
			time.Sleep(s.warmup)
		}
		if s.synth == nil {
			s.MarkFailed(errors.New("no synthesizer configured"))
			return
		}
		s.MarkReady()
	}()

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("TTSD_START | addr=%s", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Printf("TTSD_SHUTDOWN | draining")
	return s.server.Shutdown(ctx)
}

// =============================================================================
// HELPERS
// =============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
