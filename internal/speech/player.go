// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech provides the optional voice capabilities: microphone
// transcription and spoken playback of replies.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
	"time"
)

// =============================================================================
// PLAYER CONFIGURATION
// =============================================================================

// PlayerConfig holds configuration for the playback queue.
type PlayerConfig struct {
	// Synth produces the audio. Required.
	Synth Synthesizer

	// Command is the external playback binary (default: "aplay").
	Command string

	// Args precede the WAV path on the playback command line.
	Args []string

	// Voice passed to the synthesizer.
	Voice string

	// Enabled sets the initial speak-replies state.
	Enabled bool

	// QueueSize bounds pending utterances (default: 16).
	QueueSize int
}

// fillDefaults populates zero values.
func (c *PlayerConfig) fillDefaults() {
	if c.Command == "" {
		c.Command = "aplay"
	}
	if c.QueueSize == 0 {
		c.QueueSize = 16
	}
}

// =============================================================================
// PLAYER
// =============================================================================

// seenLimit bounds the already-spoken guard set.
const seenLimit = 4096

// utterance is one queued playback item.
type utterance struct {
	id   string
	text string
}

// Player speaks completed replies through an external playback command.
// Say is fire-and-forget: it enqueues and returns; one worker synthesizes
// and plays utterances in order. The enablement toggle gates enqueue, and an
// already-spoken guard keyed by message ID makes each reply play at most
// once regardless of how often it is offered.
type Player struct {
	synth   Synthesizer
	command string
	args    []string

	mu      sync.Mutex
	voice   string
	enabled bool
	seen    map[string]struct{}

	queue     chan utterance
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewPlayer creates a playback queue and starts its worker. Returns
// ErrUnavailable when the playback binary is not installed.
func NewPlayer(cfg PlayerConfig) (*Player, error) {
	cfg.fillDefaults()

	if cfg.Synth == nil {
		return nil, errors.New("speech: player requires a synthesizer")
	}
	if _, err := exec.LookPath(cfg.Command); err != nil {
		return nil, fmt.Errorf("%w: player %q not found", ErrUnavailable, cfg.Command)
	}

	p := &Player{
		synth:   cfg.Synth,
		command: cfg.Command,
		args:    cfg.Args,
		voice:   cfg.Voice,
		enabled: cfg.Enabled,
		seen:    make(map[string]struct{}),
		queue:   make(chan utterance, cfg.QueueSize),
		done:    make(chan struct{}),
	}

	p.wg.Add(1)
	go p.worker()

	return p, nil
}

// =============================================================================
// TOGGLES
// =============================================================================

// Enabled reports whether replies are spoken.
func (p *Player) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// SetEnabled switches spoken replies on or off. Turning the player off does
// not cut off the utterance already playing.
func (p *Player) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

// Voice returns the active voice.
func (p *Player) Voice() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.voice
}

// SetVoice switches the synthesis voice for subsequent utterances.
func (p *Player) SetVoice(voice string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voice = voice
}

// =============================================================================
// PLAYBACK
// =============================================================================

// Say queues a reply for playback and returns immediately. Disabled players
// and already-spoken message IDs are no-ops; a full queue drops the
// utterance rather than block the caller.
func (p *Player) Say(id, text string) {
	if text == "" {
		return
	}

	p.mu.Lock()
	if !p.enabled {
		p.mu.Unlock()
		return
	}
	if _, spoken := p.seen[id]; spoken {
		p.mu.Unlock()
		return
	}
	if len(p.seen) >= seenLimit {
		p.seen = make(map[string]struct{})
	}
	p.seen[id] = struct{}{}
	p.mu.Unlock()

	select {
	case p.queue <- utterance{id: id, text: text}:
	default:
		log.Printf("speech: playback queue full, dropping utterance %s", id)
	}
}

// Close stops the worker after the current utterance and releases the queue.
func (p *Player) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
	return nil
}

// worker plays queued utterances in order.
func (p *Player) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.done:
			return
		case u := <-p.queue:
			if err := p.play(u); err != nil {
				// Playback failures are logged and never interrupt the
				// chat flow; the next utterance still plays.
				log.Printf("speech: playback failed: %v", err)
			}
		}
	}
}

// play synthesizes one utterance and hands the audio to the playback
// command through a temp file.
func (p *Player) play(u utterance) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	wav, err := p.synth.Synthesize(ctx, u.text, p.Voice())
	if err != nil {
		return err
	}

	f, err := os.CreateTemp("", "murmur-say-*.wav")
	if err != nil {
		return fmt.Errorf("temp audio file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(wav); err != nil {
		f.Close()
		return fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close audio file: %w", err)
	}

	args := append(append([]string(nil), p.args...), path)
	if out, err := exec.CommandContext(ctx, p.command, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w (%s)", p.command, err, string(out))
	}
	return nil
}
