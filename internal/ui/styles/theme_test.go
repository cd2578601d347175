// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the murmur TUI.
package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// THEME CREATION TESTS
// =============================================================================

func TestNewTheme(t *testing.T) {
	theme := NewTheme()

	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}

	// Verify styles are initialized by rendering a test string
	if theme.App.Render("test") == "" {
		t.Error("NewTheme() should initialize App style")
	}
}

func TestThemeInitStyles(t *testing.T) {
	theme := NewTheme()

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"Title", theme.Title},
		{"UserBubble", theme.UserBubble},
		{"AssistantBubble", theme.AssistantBubble},
		{"DiagnosticBubble", theme.DiagnosticBubble},
		{"StatusBar", theme.StatusBar},
		{"ErrorBox", theme.ErrorBox},
		{"PickerBox", theme.PickerBox},
		{"CompletionBox", theme.CompletionBox},
		{"WelcomeBox", theme.WelcomeBox},
		{"ListeningBar", theme.ListeningBar},
	}

	for _, s := range styles {
		// An uninitialized style would render the input unchanged but never
		// empty; empty output means the style was never built.
		if s.style.Render("test") == "" {
			t.Errorf("%s style should be initialized", s.name)
		}
	}
}

// =============================================================================
// THEME SIZE TESTS
// =============================================================================

func TestThemeSetSize(t *testing.T) {
	theme := NewTheme()

	tests := []struct {
		width  int
		height int
	}{
		{80, 24},
		{120, 40},
		{40, 10},
	}

	for _, tc := range tests {
		theme.SetSize(tc.width, tc.height)
		if theme.Width != tc.width {
			t.Errorf("SetSize(%d, %d) Width = %d, want %d", tc.width, tc.height, theme.Width, tc.width)
		}
		if theme.Height != tc.height {
			t.Errorf("SetSize(%d, %d) Height = %d, want %d", tc.width, tc.height, theme.Height, tc.height)
		}
	}
}

func TestThemeGetLayoutMode(t *testing.T) {
	theme := NewTheme()

	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
		{200, LayoutWide},
	}

	for _, tc := range tests {
		theme.SetSize(tc.width, 24)
		if got := theme.GetLayoutMode(); got != tc.want {
			t.Errorf("GetLayoutMode() at width %d = %v, want %v", tc.width, got, tc.want)
		}
	}
}

func TestLayoutModeString(t *testing.T) {
	tests := []struct {
		mode LayoutMode
		want string
	}{
		{LayoutNarrow, "narrow"},
		{LayoutMedium, "medium"},
		{LayoutWide, "wide"},
		{LayoutMode(99), "unknown"},
	}

	for _, tc := range tests {
		if got := tc.mode.String(); got != tc.want {
			t.Errorf("LayoutMode(%d).String() = %q, want %q", tc.mode, got, tc.want)
		}
	}
}

// =============================================================================
// ANIMATION FRAME TESTS
// =============================================================================

func TestSpinnerForProfile(t *testing.T) {
	theme := NewTheme()

	cfg := SpinnerForProfile(theme)
	if len(cfg.Frames) == 0 {
		t.Error("SpinnerForProfile() returned no frames")
	}
	if cfg.FPS <= 0 {
		t.Errorf("SpinnerForProfile() FPS = %d, want > 0", cfg.FPS)
	}

	// Nil theme falls back to the default set
	cfg = SpinnerForProfile(nil)
	if len(cfg.Frames) == 0 {
		t.Error("SpinnerForProfile(nil) returned no frames")
	}
}

func TestListeningFrame(t *testing.T) {
	// Every tick maps to a frame, including negative and large values
	ticks := []int{0, 1, 7, 8, 100, -3}
	for _, tick := range ticks {
		frame := ListeningFrame(tick)
		if frame == "" {
			t.Errorf("ListeningFrame(%d) returned empty frame", tick)
		}
	}

	// The pulse wraps around
	if ListeningFrame(0) != ListeningFrame(len(ListeningFrames)) {
		t.Error("ListeningFrame should wrap around the frame set")
	}
}
