// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual building blocks for the murmur TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/murmur/internal/ui/styles"
)

// =============================================================================
// ERROR BANNER
// =============================================================================

// ErrorBanner is the overlay for command errors: unknown slash commands,
// invalid arguments, and the like. Turn failures never come through here;
// those land in the transcript as diagnostic entries.
type ErrorBanner struct {
	Title   string
	Message string
	Tip     string

	theme *styles.Theme
}

// NewErrorBanner creates an error banner.
func NewErrorBanner(title, message, tip string, theme *styles.Theme) ErrorBanner {
	return ErrorBanner{
		Title:   title,
		Message: message,
		Tip:     tip,
		theme:   theme,
	}
}

// View renders the banner centered in the given area.
func (e ErrorBanner) View(width, height int) string {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}

	boxWidth := 48
	if boxWidth > width-4 {
		boxWidth = width - 4
	}

	var sb strings.Builder
	sb.WriteString(e.theme.ErrorTitle.Render(styles.StatusIndicators.Error + " " + e.Title))
	sb.WriteString("\n\n")
	sb.WriteString(wordWrap(e.Message, boxWidth-6))
	if e.Tip != "" {
		sb.WriteString("\n\n")
		sb.WriteString(e.theme.ErrorTip.Render(wordWrap(e.Tip, boxWidth-6)))
	}
	sb.WriteString("\n\n")
	sb.WriteString(e.theme.HelpDesc.Render("Esc to dismiss"))

	box := e.theme.ErrorBox.Width(boxWidth).Render(sb.String())

	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
	)
}
