// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech provides the optional voice capabilities: microphone
// transcription and spoken playback of replies.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// =============================================================================
// SYNTHESIZER CONFIGURATION
// =============================================================================

// SynthesizerConfig holds configuration for the HTTP synthesizer.
type SynthesizerConfig struct {
	// BaseURL is the synthesis server endpoint (default: http://127.0.0.1:3001)
	BaseURL string

	// Timeout per synthesis request (default: 30s)
	Timeout time.Duration

	// Speaker is the default speaker index when the voice name is not a
	// number.
	Speaker int

	// MaxAudioLengthMs caps generated audio length (default: 45000)
	MaxAudioLengthMs int
}

// fillDefaults populates zero values.
func (c *SynthesizerConfig) fillDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://127.0.0.1:3001"
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxAudioLengthMs == 0 {
		c.MaxAudioLengthMs = 45000
	}
}

// =============================================================================
// HTTP SYNTHESIZER
// =============================================================================

// synthesisRequest is the synthesis server's request body.
type synthesisRequest struct {
	Text             string `json:"text"`
	Speaker          int    `json:"speaker"`
	MaxAudioLengthMs int    `json:"max_audio_length_ms,omitempty"`
}

// healthResponse is the synthesis server's health payload.
type healthResponse struct {
	Status string `json:"status"` // "loading", "ready", or "error"
}

// HTTPSynthesizer synthesizes speech through the local synthesis server.
type HTTPSynthesizer struct {
	cfg        SynthesizerConfig
	httpClient *http.Client
}

var _ Synthesizer = (*HTTPSynthesizer)(nil)

// NewHTTPSynthesizer creates a synthesizer client.
func NewHTTPSynthesizer(cfg SynthesizerConfig) *HTTPSynthesizer {
	cfg.fillDefaults()
	return &HTTPSynthesizer{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Synthesize converts text to WAV bytes. The voice names a speaker index;
// non-numeric voices fall back to the configured default speaker.
//
// Returns ErrUnavailable while the server is still loading its model or
// cannot be reached.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	speaker := s.cfg.Speaker
	if voice != "" {
		if n, err := strconv.Atoi(voice); err == nil {
			speaker = n
		}
	}

	body, err := json.Marshal(synthesisRequest{
		Text:             text,
		Speaker:          speaker,
		MaxAudioLengthMs: s.cfg.MaxAudioLengthMs,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/tts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("synthesis timed out: %w", err)
		}
		return nil, fmt.Errorf("%w: synthesis server unreachable", ErrUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%w: synthesis model still loading", ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("synthesis failed: %s", resp.Status)
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesis response: %w", err)
	}
	if len(wav) == 0 {
		return nil, errors.New("synthesis returned no audio")
	}
	return wav, nil
}

// CheckReady probes the server's health endpoint. Returns ErrUnavailable
// when the server is unreachable or not yet ready.
func (s *HTTPSynthesizer) CheckReady(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: synthesis server unreachable", ErrUnavailable)
	}
	defer resp.Body.Close()

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}

	if health.Status != "ready" {
		return fmt.Errorf("%w: synthesis server status %q", ErrUnavailable, health.Status)
	}
	return nil
}
