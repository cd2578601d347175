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
// WELCOME SCREEN
// =============================================================================

// Welcome is the empty-transcript screen: logo, session facts, and the
// keys that matter on first contact.
type Welcome struct {
	Version   string
	ModelName string
	ServerURL string
	SpeakOn   bool
	VoiceOK   bool

	width  int
	height int
	theme  *styles.Theme
}

// NewWelcome creates the welcome screen.
func NewWelcome(theme *styles.Theme) Welcome {
	return Welcome{
		Version: "dev",
		theme:   theme,
	}
}

// SetSize updates the dimensions.
func (w *Welcome) SetSize(width, height int) {
	w.width = width
	w.height = height
}

// View renders the welcome screen centered in the available area.
func (w Welcome) View() string {
	width := w.width
	if width <= 0 {
		width = 80
	}
	height := w.height
	if height <= 0 {
		height = 24
	}

	boxWidth := 56
	if boxWidth > width-4 {
		boxWidth = width - 4
	}
	if boxWidth < 36 {
		boxWidth = 36
	}

	var sb strings.Builder
	sb.WriteString(w.renderLogo())
	sb.WriteString("\n")
	sb.WriteString(w.theme.SenderLabel.Render("a talking terminal for local models · v" + w.Version))
	sb.WriteString("\n\n")
	sb.WriteString(w.renderFacts())
	sb.WriteString("\n\n")
	sb.WriteString(w.renderTips())

	box := w.theme.WelcomeBox.Width(boxWidth).Render(sb.String())

	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
	)
}

// renderLogo renders the wordmark. Pure ASCII so every terminal shows it.
func (w Welcome) renderLogo() string {
	if w.width >= 56 {
		return w.theme.WelcomeLogo.Render(` _ __ ___  _   _ _ __ _ __ ___  _   _ _ __
| '_ ' _ \| | | | '__| '_ ' _ \| | | | '__|
| | | | | | |_| | |  | | | | | | |_| | |
|_| |_| |_|\__,_|_|  |_| |_| |_|\__,_|_|`)
	}
	return w.theme.WelcomeLogo.Render("murmur")
}

// renderFacts renders the session facts block.
func (w Welcome) renderFacts() string {
	label := w.theme.WelcomeLabel
	value := w.theme.WelcomeValue

	modelName := w.ModelName
	if modelName == "" {
		modelName = "(not selected)"
	}

	speech := "off"
	if w.SpeakOn {
		speech = "speaking replies"
	}
	mic := "unavailable"
	if w.VoiceOK {
		mic = "ready"
	}

	lines := []string{
		label.Render("model:  ") + value.Render(modelName),
		label.Render("server: ") + value.Render(w.ServerURL),
		label.Render("speech: ") + value.Render(speech),
		label.Render("mic:    ") + value.Render(mic),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderTips renders the first-contact key hints.
func (w Welcome) renderTips() string {
	key := w.theme.HelpKey
	desc := w.theme.HelpDesc

	tips := []struct {
		key  string
		desc string
	}{
		{"Enter", "send a message"},
		{"Ctrl+T", "talk instead of typing"},
		{"Ctrl+S", "toggle spoken replies"},
		{"/help", "list commands"},
		{"Ctrl+C", "quit"},
	}

	lines := make([]string, len(tips))
	for i, tip := range tips {
		lines[i] = key.Render(padKey(tip.key)) + "  " + desc.Render(tip.desc)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// padKey pads a key label to a fixed column for alignment.
func padKey(s string) string {
	const col = 7
	for len(s) < col {
		s += " "
	}
	return s
}
