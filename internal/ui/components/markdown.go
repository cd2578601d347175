// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual building blocks for the murmur TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// Markdown renders completed assistant replies as formatted markdown.
// The glamour renderer is rebuilt only when the wrap width changes, since
// construction is expensive relative to rendering.
//
// Streaming text does not go through here: re-rendering markdown on every
// delta flickers badly, so the live path uses ParseCodeBlocks instead and
// the finished message gets the full treatment.
type Markdown struct {
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdown creates a markdown renderer for the given wrap width.
func NewMarkdown(width int) *Markdown {
	m := &Markdown{}
	m.SetWidth(width)
	return m
}

// SetWidth updates the wrap width, rebuilding the renderer if it changed.
func (m *Markdown) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	if width == m.width && m.renderer != nil {
		return
	}
	m.width = width

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		// Renderer construction only fails on invalid options; fall back
		// to plain text rendering.
		m.renderer = nil
		return
	}
	m.renderer = renderer
}

// Render renders markdown text, falling back to word-wrapped plain text
// when the renderer is unavailable or errors on the input.
func (m *Markdown) Render(text string) string {
	if m.renderer == nil {
		return wordWrap(text, m.width)
	}

	out, err := m.renderer.Render(text)
	if err != nil {
		return wordWrap(text, m.width)
	}

	// Glamour pads output with blank lines that waste transcript space.
	return strings.Trim(out, "\n")
}
