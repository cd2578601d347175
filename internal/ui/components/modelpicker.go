// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual building blocks for the murmur TUI.
package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/murmur/internal/ollama"
	"github.com/jeranaias/murmur/internal/ui/styles"
	"github.com/jeranaias/murmur/internal/util"
)

// =============================================================================
// MODEL PICKER
// =============================================================================

// ModelPicker is the overlay that lists the server's installed models.
// Selecting an entry switches the session model and persists the choice.
type ModelPicker struct {
	visible bool
	loading bool
	loadErr string

	models  []ollama.ModelInfo
	cursor  int
	current string

	width  int
	height int
	theme  *styles.Theme
}

// NewModelPicker creates a hidden picker.
func NewModelPicker(theme *styles.Theme) *ModelPicker {
	return &ModelPicker{theme: theme}
}

// =============================================================================
// STATE
// =============================================================================

// Show opens the picker in its loading state.
func (p *ModelPicker) Show(current string) {
	p.visible = true
	p.loading = true
	p.loadErr = ""
	p.current = current
	p.cursor = 0
}

// Hide closes the picker.
func (p *ModelPicker) Hide() {
	p.visible = false
}

// IsVisible reports whether the picker is open.
func (p *ModelPicker) IsVisible() bool {
	return p.visible
}

// SetModels installs the loaded model list and places the cursor on the
// active model.
func (p *ModelPicker) SetModels(models []ollama.ModelInfo) {
	p.loading = false
	p.loadErr = ""
	p.models = models
	p.cursor = 0
	for i, m := range models {
		if m.Name == p.current {
			p.cursor = i
			break
		}
	}
}

// SetError records a load failure to display in place of the list.
func (p *ModelPicker) SetError(msg string) {
	p.loading = false
	p.loadErr = msg
}

// SetSize updates the dimensions used for centering.
func (p *ModelPicker) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// MoveUp moves the cursor up one entry.
func (p *ModelPicker) MoveUp() {
	if p.cursor > 0 {
		p.cursor--
	}
}

// MoveDown moves the cursor down one entry.
func (p *ModelPicker) MoveDown() {
	if p.cursor < len(p.models)-1 {
		p.cursor++
	}
}

// Selected returns the entry under the cursor.
func (p *ModelPicker) Selected() (ollama.ModelInfo, bool) {
	if len(p.models) == 0 || p.cursor < 0 || p.cursor >= len(p.models) {
		return ollama.ModelInfo{}, false
	}
	return p.models[p.cursor], true
}

// =============================================================================
// RENDERING
// =============================================================================

// maxVisibleRows bounds the list so the picker fits small terminals.
const maxVisibleRows = 10

// View renders the centered picker overlay.
func (p *ModelPicker) View() string {
	width := p.width
	if width <= 0 {
		width = 80
	}
	height := p.height
	if height <= 0 {
		height = 24
	}

	boxWidth := 52
	if boxWidth > width-4 {
		boxWidth = width - 4
	}

	var sb strings.Builder
	sb.WriteString(p.theme.PickerTitle.Render("Models"))
	sb.WriteString("\n\n")

	switch {
	case p.loading:
		sb.WriteString(p.theme.PickerDetail.Render("Loading model list..."))
	case p.loadErr != "":
		sb.WriteString(p.theme.ErrorTitle.Render(styles.StatusIndicators.Error + " " + p.loadErr))
	case len(p.models) == 0:
		sb.WriteString(p.theme.PickerDetail.Render("No models installed. Try: ollama pull llama3.2"))
	default:
		sb.WriteString(p.renderList(boxWidth - 6))
	}

	sb.WriteString("\n\n")
	sb.WriteString(p.theme.PickerDetail.Render("Up/Down select | Enter switch | Esc close"))

	box := p.theme.PickerBox.Width(boxWidth).Render(sb.String())

	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		box,
	)
}

// renderList renders the scrolled model rows.
func (p *ModelPicker) renderList(rowWidth int) string {
	start := 0
	if p.cursor >= maxVisibleRows {
		start = p.cursor - maxVisibleRows + 1
	}
	end := start + maxVisibleRows
	if end > len(p.models) {
		end = len(p.models)
	}

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, p.renderRow(i, rowWidth))
	}

	if end < len(p.models) {
		rows = append(rows, p.theme.PickerDetail.Render("  ... "+util.IntToString(len(p.models)-end)+" more"))
	}

	return strings.Join(rows, "\n")
}

// renderRow renders one model entry with its size and age.
func (p *ModelPicker) renderRow(i, rowWidth int) string {
	m := p.models[i]

	marker := "  "
	if m.Name == p.current {
		marker = "* "
	}

	name := util.TruncateWidth(m.Name, rowWidth-18)
	detail := ollama.FormatSize(m.Size)
	if age := shortAge(m.ModifiedAt); age != "" {
		detail += " · " + age
	}

	row := marker + util.PadRight(name, rowWidth-16) + p.theme.PickerDetail.Render(detail)
	if i == p.cursor {
		return p.theme.PickerSelected.Render(row)
	}
	return p.theme.PickerItem.Render(row)
}

// shortAge renders a modification time as a compact age like "3d".
func shortAge(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Hour:
		return util.IntToString(int(d.Minutes())) + "m"
	case d < 24*time.Hour:
		return util.IntToString(int(d.Hours())) + "h"
	default:
		return util.IntToString(int(d.Hours()/24)) + "d"
	}
}
