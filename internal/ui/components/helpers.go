// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual building blocks for the murmur TUI.
package components

import (
	"strings"

	"github.com/jeranaias/murmur/internal/util"
)

// =============================================================================
// SHARED HELPER FUNCTIONS
// =============================================================================

// wordWrap wraps text to fit within the given width, preserving existing
// newlines. Words longer than the width stay on their own line unbroken.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lines := strings.Split(text, "\n")

	for lineIdx, line := range lines {
		if lineIdx > 0 {
			result.WriteString("\n")
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		currentLine := words[0]
		for _, word := range words[1:] {
			if runeLen(currentLine)+1+runeLen(word) <= width {
				currentLine += " " + word
			} else {
				result.WriteString(currentLine)
				result.WriteString("\n")
				currentLine = word
			}
		}
		result.WriteString(currentLine)
	}

	return result.String()
}

// maxLineWidth returns the display width of the widest line.
func maxLineWidth(text string) int {
	maxWidth := 0
	for _, line := range strings.Split(text, "\n") {
		if w := util.StringWidth(line); w > maxWidth {
			maxWidth = w
		}
	}
	return maxWidth
}

// runeLen returns the number of runes in a string. len() would count
// bytes and overshoot on multi-byte text.
func runeLen(s string) int {
	return len([]rune(s))
}

// fmtCount formats a number with thousand separators for the status bar.
func fmtCount(n int) string {
	if n < 0 {
		return "-" + fmtCount(-n)
	}

	s := util.IntToString(n)
	if n < 1000 {
		return s
	}

	var result strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		result.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
