// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives chat turns against the model server and owns the
// awaiting-response gate.
package session

import (
	"strings"

	"github.com/jeranaias/murmur/internal/model"
	"github.com/jeranaias/murmur/internal/ollama"
)

// =============================================================================
// RESPONSE ACCUMULATOR
// =============================================================================

// Accumulator folds stream fragments into the conversation. One accumulator
// serves one request/response cycle; the driver resets it on every send.
//
// The running text grows append-only across the cycle. Each content fragment
// either opens a fresh assistant message or replaces the text of the last
// message, so a user message or a diagnostic entry that lands mid-stream is
// never overwritten: the next fragment opens a new assistant message carrying
// the full running text after it.
type Accumulator struct {
	running strings.Builder
	open    bool
}

// Reset clears the accumulator for a new cycle.
func (a *Accumulator) Reset() {
	a.running.Reset()
	a.open = false
}

// Running returns the text accumulated so far in this cycle.
func (a *Accumulator) Running() string {
	return a.running.String()
}

// HasOpenMessage reports whether this cycle has opened an assistant message.
func (a *Accumulator) HasOpenMessage() bool {
	return a.open
}

// Apply folds one fragment into the conversation and reports whether the
// transcript changed. A done-only fragment changes nothing, and neither does
// an empty delta: termination lines carry a present-but-empty content field,
// and they must not open an empty assistant message on a content-free turn.
func (a *Accumulator) Apply(frag ollama.Fragment, conv *model.Conversation) bool {
	if !frag.HasContent || frag.Content == "" {
		return false
	}

	a.running.WriteString(frag.Content)

	last, ok := conv.Last()
	if !a.open || !ok || last.Sender != model.SenderAssistant || last.Diagnostic {
		conv.Apply(model.Append{Msg: model.NewAssistantMessage(a.running.String())})
		a.open = true
		return true
	}

	conv.Apply(model.ReplaceLast{Text: a.running.String()})
	return true
}
