// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives chat turns against the model server and owns the
// awaiting-response gate.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/murmur/internal/model"
	"github.com/jeranaias/murmur/internal/ollama"
	"github.com/jeranaias/murmur/internal/util"
)

// ErrBusy is returned by Send while a previous turn is still in flight.
var ErrBusy = errors.New("a reply is already streaming")

// diagLineMax bounds how much of an offending stream line a diagnostic quotes.
const diagLineMax = 120

// =============================================================================
// SPEAKER
// =============================================================================

// Speaker queues completed replies for speech playback. Implementations
// decide whether speaking is enabled and whether the message was already
// spoken; Say never blocks the caller.
type Speaker interface {
	Say(id, text string)
}

// =============================================================================
// SESSION
// =============================================================================

// Session owns one conversation and drives its chat turns. It is safe for
// concurrent use: one goroutine streams a turn while UI goroutines read
// state and wait on Updates.
type Session struct {
	client  *ollama.Client
	conv    *model.Conversation
	speaker Speaker

	mu        sync.Mutex
	modelName string
	awaiting  bool

	id      string
	started time.Time
	updates chan struct{}
}

// Config holds configuration for a session.
type Config struct {
	// Client is the model server client. Required.
	Client *ollama.Client

	// Model is the starting model name. Empty falls back to the client's
	// default model.
	Model string

	// Speaker receives completed replies for playback. Optional.
	Speaker Speaker
}

// New creates a session with an empty conversation.
func New(cfg Config) *Session {
	modelName := cfg.Model
	if modelName == "" && cfg.Client != nil {
		modelName = cfg.Client.DefaultModel()
	}

	return &Session{
		client:    cfg.Client,
		conv:      model.NewConversation(),
		speaker:   cfg.Speaker,
		modelName: modelName,
		id:        generateSessionID(),
		started:   time.Now(),
		updates:   make(chan struct{}, 1),
	}
}

// =============================================================================
// STATE ACCESS
// =============================================================================

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Conversation returns the session's transcript.
func (s *Session) Conversation() *model.Conversation {
	return s.conv
}

// Model returns the active model name.
func (s *Session) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modelName
}

// SetModel switches the active model for subsequent turns.
func (s *Session) SetModel(name string) {
	if name == "" {
		return
	}
	s.mu.Lock()
	s.modelName = name
	s.mu.Unlock()
	s.notify()
}

// Awaiting reports whether a reply is currently streaming. While true, Send
// rejects new input and voice capture must not start a send.
func (s *Session) Awaiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaiting
}

// Updates returns a channel that receives a signal whenever the transcript
// or the awaiting state changes. Signals are coalesced; readers snapshot the
// conversation when woken.
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

// Reset clears the transcript. It refuses to run mid-turn.
func (s *Session) Reset() error {
	s.mu.Lock()
	if s.awaiting {
		s.mu.Unlock()
		return ErrBusy
	}
	s.mu.Unlock()

	s.conv.Clear()
	s.notify()
	return nil
}

// =============================================================================
// TURN DRIVER
// =============================================================================

// Send runs one full chat turn: append the user message, stream the reply
// into the conversation, and surface any failure as a diagnostic transcript
// entry. It blocks until the turn completes.
//
// Returns ErrBusy without touching the transcript if a turn is already in
// flight. Any other error has already been reported in the transcript; the
// return value is for flow control only.
func (s *Session) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if !s.begin() {
		return ErrBusy
	}
	// The gate must clear on every exit path, panics included.
	defer s.end()

	s.conv.Apply(model.Append{Msg: model.NewUserMessage(text)})
	s.notify()

	var acc Accumulator
	err := s.client.ChatStream(ctx, s.Model(), s.conv.ChatMessages(), func(chunk ollama.StreamChunk) {
		if chunk.Err != nil {
			// One diagnostic per unreadable line; the stream continues.
			s.conv.Apply(model.Append{Msg: model.NewDiagnosticMessage(decodeDiagnostic(chunk.Err))})
			s.notify()
			return
		}
		if acc.Apply(chunk.Fragment, s.conv) {
			s.notify()
		}
	})
	if err != nil {
		// One diagnostic per failed turn, whatever the transport failure
		// was (unreachable server, non-2xx status, empty body, mid-stream
		// server error).
		s.conv.Apply(model.Append{Msg: model.NewDiagnosticMessage(transportDiagnostic(err))})
		s.notify()
		return err
	}

	s.speakReply()
	return nil
}

// begin sets the awaiting gate. Reports false if a turn is already running.
func (s *Session) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.awaiting {
		return false
	}
	s.awaiting = true
	return true
}

// end clears the awaiting gate and wakes the UI.
func (s *Session) end() {
	s.mu.Lock()
	s.awaiting = false
	s.mu.Unlock()
	s.notify()
}

// notify wakes UI readers. Coalesced and non-blocking so the stream never
// stalls on a slow consumer.
func (s *Session) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

// speakReply queues the completed reply for playback, if a speaker is wired
// and the turn produced a spoken-worthy message.
func (s *Session) speakReply() {
	if s.speaker == nil {
		return
	}
	last, ok := s.conv.Last()
	if !ok || last.Sender != model.SenderAssistant || last.Diagnostic || last.Text == "" {
		return
	}
	s.speaker.Say(last.ID, last.Text)
}

// =============================================================================
// DIAGNOSTICS
// =============================================================================

// transportDiagnostic renders a transport failure as transcript text.
func transportDiagnostic(err error) string {
	return "Error: " + err.Error()
}

// decodeDiagnostic renders an unreadable stream line as transcript text,
// quoting the offending line.
func decodeDiagnostic(derr *ollama.DecodeError) string {
	return "Error: could not parse a response line: " + util.TruncateRunes(derr.Line, diagLineMax)
}

// =============================================================================
// SESSION STATUS
// =============================================================================

// Status is a point-in-time snapshot of the session.
type Status struct {
	SessionID    string
	StartTime    time.Time
	Model        string
	MessageCount int
	Awaiting     bool
}

// GetStatus returns the current session status.
func (s *Session) GetStatus() Status {
	s.mu.Lock()
	modelName := s.modelName
	awaiting := s.awaiting
	s.mu.Unlock()

	return Status{
		SessionID:    s.id,
		StartTime:    s.started,
		Model:        modelName,
		MessageCount: s.conv.Len(),
		Awaiting:     awaiting,
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateSessionID creates a unique session ID.
func generateSessionID() string {
	return "sess_" + time.Now().Format("20060102_150405")
}
