// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech provides the optional voice capabilities: microphone
// transcription and spoken playback of replies.
package speech

import (
	"context"
	"errors"
)

// ErrUnavailable marks a speech capability that cannot run on this host:
// a missing recorder or player binary, or an unreachable daemon. Callers
// log it and disable the feature silently; it never reaches the transcript.
var ErrUnavailable = errors.New("speech capability unavailable")

// =============================================================================
// EVENTS
// =============================================================================

// EventType identifies a recognizer event.
type EventType int

const (
	// EventStarted signals that audio capture began.
	EventStarted EventType = iota

	// EventTranscript carries recognized text. Partial results update the
	// same utterance; a final result closes it.
	EventTranscript

	// EventStopped signals that audio capture ended.
	EventStopped

	// EventError carries a runtime capture failure. The recognizer resets
	// to the stopped state after emitting it.
	EventError
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventStarted:
		return "started"
	case EventTranscript:
		return "transcript"
	case EventStopped:
		return "stopped"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one recognizer notification.
type Event struct {
	Type  EventType
	Text  string // transcript text, for EventTranscript
	Final bool   // true when Text is a final result, not a partial
	Err   error  // set for EventError
}

// =============================================================================
// CAPABILITY INTERFACES
// =============================================================================

// Recognizer captures microphone audio and emits transcript events.
// Implementations are toggled: Start begins a capture run, Stop ends it.
type Recognizer interface {
	// Start begins audio capture. It returns ErrUnavailable when the
	// capability cannot run on this host.
	Start(ctx context.Context) error

	// Stop ends the capture run. Safe to call when not capturing.
	Stop() error

	// Events returns the recognizer's event stream. The channel stays open
	// across capture runs.
	Events() <-chan Event
}

// Synthesizer converts text to audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// SynthesizeFunc is an adapter to allow the use of ordinary functions as
// Synthesizers.
type SynthesizeFunc func(ctx context.Context, text, voice string) ([]byte, error)

// Synthesize calls the underlying function.
func (f SynthesizeFunc) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	return f(ctx, text, voice)
}
