// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech provides the optional voice capabilities: microphone
// transcription and spoken playback of replies.
package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// RECOGNIZER CONFIGURATION
// =============================================================================

// RecognizerConfig holds configuration for the websocket recognizer.
type RecognizerConfig struct {
	// URL is the recognition daemon endpoint (default: ws://127.0.0.1:2700)
	URL string

	// SampleRate for captured audio (default: 16000)
	SampleRate int

	// Recorder is the capture command (default: "arecord"). Ignored when
	// Source is set.
	Recorder string

	// RecorderArgs override the default capture arguments.
	RecorderArgs []string

	// Source supplies raw PCM directly instead of spawning the recorder.
	// For callers that capture audio themselves.
	Source io.ReadCloser
}

// fillDefaults populates zero values.
func (c *RecognizerConfig) fillDefaults() {
	if c.URL == "" {
		c.URL = "ws://127.0.0.1:2700"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 16000
	}
	if c.Recorder == "" {
		c.Recorder = "arecord"
	}
	if len(c.RecorderArgs) == 0 {
		c.RecorderArgs = []string{
			"-q",
			"-f", "S16_LE",
			"-r", strconv.Itoa(c.SampleRate),
			"-c", "1",
			"-t", "raw",
		}
	}
}

// =============================================================================
// WEBSOCKET RECOGNIZER
// =============================================================================

// audioChunkSize is the PCM read granularity sent per websocket frame.
const audioChunkSize = 8000

// StreamRecognizer transcribes microphone audio through a local recognition
// daemon speaking the vosk websocket protocol: a JSON config message, binary
// PCM frames, `{"eof": 1}` to finish; the daemon replies with
// `{"partial": ...}` updates and `{"text": ...}` final results.
type StreamRecognizer struct {
	cfg    RecognizerConfig
	events chan Event

	mu  sync.Mutex
	run *captureRun
}

// captureRun holds the moving parts of one Start/Stop cycle.
type captureRun struct {
	conn      *websocket.Conn
	rec       *exec.Cmd
	source    io.ReadCloser
	closeChan chan struct{}
	closeOnce sync.Once
}

var _ Recognizer = (*StreamRecognizer)(nil)

// NewStreamRecognizer creates a recognizer. No resources are acquired until
// Start.
func NewStreamRecognizer(cfg RecognizerConfig) *StreamRecognizer {
	cfg.fillDefaults()
	return &StreamRecognizer{
		cfg:    cfg,
		events: make(chan Event, 32),
	}
}

// Events returns the recognizer's event stream.
func (r *StreamRecognizer) Events() <-chan Event {
	return r.events
}

// Start begins a capture run: spawn the recorder (unless a Source is
// supplied), dial the daemon, and stream audio until Stop or a runtime
// failure. Returns ErrUnavailable when the recorder binary or the daemon
// cannot be reached.
func (r *StreamRecognizer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.run != nil {
		return nil
	}

	source := r.cfg.Source
	var rec *exec.Cmd
	if source == nil {
		if _, err := exec.LookPath(r.cfg.Recorder); err != nil {
			return fmt.Errorf("%w: recorder %q not found", ErrUnavailable, r.cfg.Recorder)
		}
		rec = exec.Command(r.cfg.Recorder, r.cfg.RecorderArgs...)
		pipe, err := rec.StdoutPipe()
		if err != nil {
			return fmt.Errorf("recorder pipe: %w", err)
		}
		source = pipe
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("%w: recognition daemon unreachable at %s", ErrUnavailable, r.cfg.URL)
	}

	configMsg := map[string]any{
		"config": map[string]any{
			"sample_rate": r.cfg.SampleRate,
		},
	}
	if err := conn.WriteJSON(configMsg); err != nil {
		conn.Close()
		return fmt.Errorf("send recognizer config: %w", err)
	}

	if rec != nil {
		if err := rec.Start(); err != nil {
			conn.Close()
			return fmt.Errorf("start recorder: %w", err)
		}
	}

	run := &captureRun{
		conn:      conn,
		rec:       rec,
		source:    source,
		closeChan: make(chan struct{}),
	}
	r.run = run

	r.emit(run, Event{Type: EventStarted})
	go r.sendLoop(run)
	go r.receiveLoop(run)

	return nil
}

// Stop ends the capture run. Safe to call when not capturing.
func (r *StreamRecognizer) Stop() error {
	r.mu.Lock()
	run := r.run
	r.run = nil
	r.mu.Unlock()

	if run == nil {
		return nil
	}

	r.teardown(run)
	r.emitFinal(Event{Type: EventStopped})
	return nil
}

// teardown releases a run's resources exactly once.
func (r *StreamRecognizer) teardown(run *captureRun) {
	run.closeOnce.Do(func() {
		close(run.closeChan)
		if run.rec != nil && run.rec.Process != nil {
			run.rec.Process.Kill()
			run.rec.Wait()
		}
		run.source.Close()
		run.conn.Close()
	})
}

// fail reports a runtime capture failure and resets to the stopped state.
func (r *StreamRecognizer) fail(run *captureRun, err error) {
	r.mu.Lock()
	if r.run == run {
		r.run = nil
	}
	r.mu.Unlock()

	r.teardown(run)
	r.emitFinal(Event{Type: EventError, Err: err})
}

// emit delivers an event without ever blocking past the run's close.
func (r *StreamRecognizer) emit(run *captureRun, ev Event) {
	select {
	case r.events <- ev:
	case <-run.closeChan:
	}
}

// emitFinal delivers a post-teardown event (stopped, error). It never
// blocks; with the run gone there is nothing to pace against.
func (r *StreamRecognizer) emitFinal(ev Event) {
	select {
	case r.events <- ev:
	default:
	}
}

// sendLoop streams PCM to the daemon until the source drains or the run
// closes. A drained source finishes the utterance with the eof command.
func (r *StreamRecognizer) sendLoop(run *captureRun) {
	buf := make([]byte, audioChunkSize)
	for {
		select {
		case <-run.closeChan:
			return
		default:
		}

		n, err := run.source.Read(buf)
		if n > 0 {
			if werr := run.conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				// The receive loop sees the same broken socket and
				// reports it.
				return
			}
		}
		if err != nil {
			run.conn.WriteMessage(websocket.TextMessage, []byte(`{"eof" : 1}`))
			return
		}
	}
}

// recognizerResult is the daemon's per-message reply shape.
type recognizerResult struct {
	Partial string `json:"partial"`
	Text    string `json:"text"`
}

// receiveLoop parses daemon replies into transcript events.
func (r *StreamRecognizer) receiveLoop(run *captureRun) {
	for {
		select {
		case <-run.closeChan:
			return
		default:
		}

		_, data, err := run.conn.ReadMessage()
		if err != nil {
			select {
			case <-run.closeChan:
				// Stop closed the socket; not a failure.
			default:
				r.fail(run, fmt.Errorf("recognition stream: %w", err))
			}
			return
		}

		var result recognizerResult
		if err := json.Unmarshal(data, &result); err != nil {
			continue
		}

		switch {
		case result.Text != "":
			r.emit(run, Event{Type: EventTranscript, Text: normalize(result.Text), Final: true})
		case result.Partial != "":
			r.emit(run, Event{Type: EventTranscript, Text: normalize(result.Partial)})
		}
	}
}

// normalize canonicalizes recognized text before it reaches the input
// buffer. Daemons differ in composed vs decomposed output.
func normalize(text string) string {
	return norm.NFC.String(text)
}
