// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the murmur TUI.
package styles

// =============================================================================
// SPINNER FRAMES
// =============================================================================

// SpinnerConfig pairs a frame set with its playback rate.
type SpinnerConfig struct {
	Frames []string
	FPS    int
}

// SpinnerDots is the default waiting spinner. Braille frames degrade to
// the ASCII set below on terminals that cannot render them.
var SpinnerDots = SpinnerConfig{
	Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	FPS:    10,
}

// SpinnerASCII is the fallback for ASCII-only terminals.
var SpinnerASCII = SpinnerConfig{
	Frames: []string{"|", "/", "-", "\\"},
	FPS:    8,
}

// SpinnerForProfile picks the spinner set for the theme's capabilities.
func SpinnerForProfile(t *Theme) SpinnerConfig {
	if t != nil && !t.SupportsColor() {
		return SpinnerASCII
	}
	return SpinnerDots
}

// =============================================================================
// LISTENING PULSE
// =============================================================================

// ListeningFrames animate the live-microphone indicator while the
// recognizer captures audio.
var ListeningFrames = []string{
	"(    )",
	"(.   )",
	"(..  )",
	"(... )",
	"(....)",
	"( ...)",
	"(  ..)",
	"(   .)",
}

// ListeningFrame returns the pulse frame for a tick counter.
func ListeningFrame(tick int) string {
	if tick < 0 {
		tick = -tick
	}
	return ListeningFrames[tick%len(ListeningFrames)]
}
