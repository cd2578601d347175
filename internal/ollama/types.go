// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"strconv"
	"time"
)

// =============================================================================
// MESSAGES
// =============================================================================

// Message represents a single chat message in a request.
type Message struct {
	Role    string `json:"role"`    // "user" or "assistant"
	Content string `json:"content"` // The message content
}

// NewUserMessage creates a message with the user role.
func NewUserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// NewAssistantMessage creates a message with the assistant role.
func NewAssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatRequest is the request body for /api/chat.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// =============================================================================
// STREAM TYPES
// =============================================================================

// Fragment is one decoded unit of an NDJSON chat stream.
//
// A fragment carries an optional text delta and/or a terminal marker.
// HasContent distinguishes a line whose message payload is present (even
// with an empty delta) from a line that carries only the done marker.
type Fragment struct {
	Content    string // Text delta to append
	HasContent bool   // Whether the line carried a message payload
	Done       bool   // Terminal marker for the response
}

// DecodeError reports a stream line that could not be decoded.
// The stream continues past the offending line; the caller decides how to
// surface the failure.
type DecodeError struct {
	Line string // The offending line, verbatim
	Err  error  // The underlying JSON error
}

func (e *DecodeError) Error() string {
	return "failed to parse stream line: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// StreamChunk is delivered to a StreamCallback once per candidate line.
// Exactly one of Fragment or Err is meaningful: Err is non-nil when the
// line failed to decode, otherwise Fragment holds the decoded unit.
type StreamChunk struct {
	Fragment Fragment
	Err      *DecodeError
}

// =============================================================================
// MODEL TYPES
// =============================================================================

// ModelInfo describes a model available on the server.
type ModelInfo struct {
	Name       string    `json:"name"`
	Model      string    `json:"model"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
	Digest     string    `json:"digest"`
}

// ID returns the stable identifier for the model (its digest when present,
// otherwise the name).
func (m ModelInfo) ID() string {
	if m.Digest != "" {
		return m.Digest
	}
	return m.Name
}

// ListModelsResponse is the response from /api/tags.
type ListModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ServerError is the error payload Ollama returns on failed requests.
type ServerError struct {
	Error string `json:"error"`
}

// =============================================================================
// HELPERS
// =============================================================================

// FormatSize formats a byte count as a human-readable string.
func FormatSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case bytes >= gb:
		return formatFloat(float64(bytes)/float64(gb)) + " GB"
	case bytes >= mb:
		return formatFloat(float64(bytes)/float64(mb)) + " MB"
	case bytes >= kb:
		return formatFloat(float64(bytes)/float64(kb)) + " KB"
	default:
		return strconv.FormatInt(bytes, 10) + " B"
	}
}

// formatFloat formats with one decimal place without pulling in fmt.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}
