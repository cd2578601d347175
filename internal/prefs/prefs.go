// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prefs persists the handful of user selections that survive
// restarts: the chat model, the speak-replies toggle, and the voice.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("prefs: not found")

// recordKey is where the preference record lives in the store.
const recordKey = "preferences"

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is a flat key-value store. Implementations: Badger for the real
// preference directory, Memory for tests.
type Store interface {
	// Get retrieves the value for a key. Returns ErrNotFound if not present.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a key-value pair. Overwrites any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a key. No error if the key does not exist.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// =============================================================================
// PREFERENCE RECORD
// =============================================================================

// Preferences is the persisted record. Zero value is the first-run state.
type Preferences struct {
	// Model is the selected chat model name.
	Model string `msgpack:"model"`

	// SpeakReplies is the spoken-playback toggle.
	SpeakReplies bool `msgpack:"speak_replies"`

	// Voice is the synthesis voice.
	Voice string `msgpack:"voice"`
}

// Load reads the preference record. A store with no record yet returns the
// zero value without error.
func Load(ctx context.Context, store Store) (Preferences, error) {
	data, err := store.Get(ctx, recordKey)
	if errors.Is(err, ErrNotFound) {
		return Preferences{}, nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("load preferences: %w", err)
	}

	var p Preferences
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return Preferences{}, fmt.Errorf("decode preferences: %w", err)
	}
	return p, nil
}

// Save writes the preference record.
func Save(ctx context.Context, store Store, p Preferences) error {
	data, err := msgpack.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := store.Set(ctx, recordKey, data); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager caches the current preferences and writes through on every
// change. Loaded once at startup; safe for concurrent use.
type Manager struct {
	store Store

	mu  sync.Mutex
	cur Preferences
}

// NewManager loads the record and returns a write-through manager.
func NewManager(ctx context.Context, store Store) (*Manager, error) {
	cur, err := Load(ctx, store)
	if err != nil {
		return nil, err
	}
	return &Manager{store: store, cur: cur}, nil
}

// Current returns the cached preferences.
func (m *Manager) Current() Preferences {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur
}

// SetModel records the selected model and persists immediately.
func (m *Manager) SetModel(ctx context.Context, name string) error {
	return m.update(ctx, func(p *Preferences) { p.Model = name })
}

// SetSpeakReplies records the playback toggle and persists immediately.
func (m *Manager) SetSpeakReplies(ctx context.Context, on bool) error {
	return m.update(ctx, func(p *Preferences) { p.SpeakReplies = on })
}

// SetVoice records the synthesis voice and persists immediately.
func (m *Manager) SetVoice(ctx context.Context, voice string) error {
	return m.update(ctx, func(p *Preferences) { p.Voice = voice })
}

// update applies a mutation under the lock and writes the record through.
func (m *Manager) update(ctx context.Context, mutate func(*Preferences)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.cur
	mutate(&next)
	if err := Save(ctx, m.store, next); err != nil {
		return err
	}
	m.cur = next
	return nil
}

// Close releases the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}
