// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual building blocks for the murmur TUI.
package components

import (
	"strings"
	"testing"
)

// =============================================================================
// CODE BLOCK TESTS
// =============================================================================

func TestCodeBlockRender(t *testing.T) {
	cb := NewCodeBlock("go", "package main\n\nfunc main() {}")
	cb.SetMaxWidth(80)
	out := cb.Render()

	if out == "" {
		t.Fatal("Render() returned empty output")
	}
	if !strings.Contains(out, "main") {
		t.Errorf("rendered block missing code content: %q", out)
	}
	// Language badge
	if !strings.Contains(out, "go") {
		t.Errorf("rendered block missing language badge: %q", out)
	}
	// Line numbers in the gutter
	if !strings.Contains(out, "1") || !strings.Contains(out, "3") {
		t.Errorf("rendered block missing line numbers: %q", out)
	}
}

func TestCodeBlockUnknownLanguage(t *testing.T) {
	cb := NewCodeBlock("nosuchlang", "some plain content")
	cb.SetMaxWidth(60)
	out := cb.Render()

	if !strings.Contains(out, "some plain content") {
		t.Errorf("unknown language should fall back to plain rendering: %q", out)
	}
}

func TestCodeBlockNarrowWidth(t *testing.T) {
	cb := NewCodeBlock("go", "x := 1")
	cb.SetMaxWidth(4) // below the floor
	out := cb.Render()

	if out == "" {
		t.Error("Render() should clamp to a minimum width, not vanish")
	}
}

// =============================================================================
// FENCED BLOCK PARSER TESTS
// =============================================================================

func TestParseCodeBlocks(t *testing.T) {
	text := "Here is some code:\n```go\nx := 42\n```\nAnd more prose."
	out := ParseCodeBlocks(text, 80)

	if !strings.Contains(out, "Here is some code:") {
		t.Errorf("prose before the fence lost: %q", out)
	}
	if !strings.Contains(out, "x := 42") {
		t.Errorf("code content lost: %q", out)
	}
	if !strings.Contains(out, "And more prose.") {
		t.Errorf("prose after the fence lost: %q", out)
	}
	// Fence markers are consumed
	if strings.Contains(out, "```") {
		t.Errorf("fence markers should not survive rendering: %q", out)
	}
}

func TestParseCodeBlocksUnclosedFence(t *testing.T) {
	// A fence still open mid-stream renders what arrived so far
	text := "Look:\n```python\nprint('hi')"
	out := ParseCodeBlocks(text, 80)

	if !strings.Contains(out, "print") {
		t.Errorf("unclosed fence should render its lines: %q", out)
	}
}

func TestParseCodeBlocksNoFence(t *testing.T) {
	text := "just prose, nothing fancy"
	if out := ParseCodeBlocks(text, 80); out != text {
		t.Errorf("fence-free text should pass through unchanged, got %q", out)
	}
}

func TestHasCodeFence(t *testing.T) {
	if HasCodeFence("no fence here") {
		t.Error("HasCodeFence() = true for fence-free text")
	}
	if !HasCodeFence("prefix\n```go\ncode\n```") {
		t.Error("HasCodeFence() = false for fenced text")
	}
}

// =============================================================================
// MARKDOWN RENDERER TESTS
// =============================================================================

func TestMarkdownRender(t *testing.T) {
	md := NewMarkdown(60)
	out := md.Render("# Title\n\nSome **bold** text.")

	if out == "" {
		t.Fatal("Render() returned empty output")
	}
	if !strings.Contains(out, "Title") {
		t.Errorf("rendered markdown missing heading text: %q", out)
	}
}

func TestMarkdownSetWidthRebuilds(t *testing.T) {
	md := NewMarkdown(40)
	first := md.Render("a b c")

	md.SetWidth(100)
	second := md.Render("a b c")

	if first == "" || second == "" {
		t.Error("Render() should produce output at both widths")
	}
}

func TestMarkdownWidthFloor(t *testing.T) {
	md := NewMarkdown(3)
	if md.width < 20 {
		t.Errorf("width should clamp to the floor, got %d", md.width)
	}
}
