// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"sync"
	"time"

	"github.com/jeranaias/murmur/internal/ollama"
)

// MaxMessages is the maximum number of messages to keep in conversation history.
// When exceeded, old messages are pruned to prevent unbounded memory growth.
const MaxMessages = 1000

// =============================================================================
// CONVERSATION OPS
// =============================================================================

// Op is a single conversation mutation. All mutations flow through
// Conversation.Apply, which is the only writer of the transcript.
type Op interface {
	isOp()
}

// Append adds a message to the end of the transcript.
type Append struct {
	Msg Message
}

// ReplaceLast replaces the text of the last message in the transcript. It
// only applies when the last message is assistant-sent; a user message is
// never overwritten.
type ReplaceLast struct {
	Text string
}

func (Append) isOp()      {}
func (ReplaceLast) isOp() {}

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the in-memory transcript for one session.
//
// It is safe for concurrent use: the streaming goroutine applies ops while
// the UI reads snapshots.
type Conversation struct {
	mu        sync.RWMutex
	messages  []Message
	updatedAt time.Time
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{
		messages:  make([]Message, 0),
		updatedAt: time.Now(),
	}
}

// =============================================================================
// REDUCER
// =============================================================================

// Apply executes one mutation against the transcript.
func (c *Conversation) Apply(op Op) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch op := op.(type) {
	case Append:
		c.messages = append(c.messages, op.Msg)
		c.pruneOldMessages()
	case ReplaceLast:
		n := len(c.messages)
		if n == 0 || c.messages[n-1].Sender != SenderAssistant || c.messages[n-1].Diagnostic {
			// Positional replace must never touch a user message or a
			// diagnostic entry. The accumulator opens a fresh assistant
			// message instead of emitting this op, so hitting the guard
			// means a caller bug.
			return
		}
		c.messages[n-1].Text = op.Text
	}

	c.updatedAt = time.Now()
}

// =============================================================================
// READERS
// =============================================================================

// Messages returns a snapshot copy of the transcript.
func (c *Conversation) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Last returns the most recent message, if any.
func (c *Conversation) Last() (Message, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// LastSender returns the sender of the most recent message, if any.
func (c *Conversation) LastSender() (Sender, bool) {
	last, ok := c.Last()
	if !ok {
		return "", false
	}
	return last.Sender, true
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return c.Len() == 0
}

// UpdatedAt returns the time of the last mutation.
func (c *Conversation) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

// Clear removes all messages from the conversation.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = c.messages[:0]
	c.updatedAt = time.Now()
}

// =============================================================================
// CHAT API CONVERSION
// =============================================================================

// ChatMessages converts the transcript to the chat API message format.
// Empty messages are skipped.
func (c *Conversation) ChatMessages() []ollama.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	messages := make([]ollama.Message, 0, len(c.messages))
	for _, msg := range c.messages {
		if msg.Text == "" {
			continue
		}
		messages = append(messages, ollama.Message{
			Role:    msg.Sender.Role(),
			Content: msg.Text,
		})
	}
	return messages
}

// =============================================================================
// TOKEN TRACKING
// =============================================================================

// EstimateTokens estimates the total token count of the conversation.
func (c *Conversation) EstimateTokens() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, msg := range c.messages {
		total += msg.EstimateTokens()
		// Overhead for message structure (~4 tokens per message)
		total += 4
	}
	return total
}

// =============================================================================
// PRUNING
// =============================================================================

// pruneOldMessages removes the oldest messages when the transcript exceeds
// MaxMessages. Callers hold the write lock.
func (c *Conversation) pruneOldMessages() {
	if len(c.messages) <= MaxMessages {
		return
	}
	keep := c.messages[len(c.messages)-MaxMessages:]
	c.messages = append(c.messages[:0], keep...)
}
