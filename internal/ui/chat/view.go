// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/murmur/internal/ui/styles"
	"github.com/jeranaias/murmur/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen. Full-screen overlays replace the base
// layout while visible.
func (m Model) View() string {
	if !m.ready {
		return "\n  starting murmur..."
	}

	if m.errBox != nil {
		return m.errBox.View(m.width, m.height)
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	if m.picker.IsVisible() {
		return m.picker.View()
	}

	header := m.renderHeader()
	inputArea := m.renderInputArea()
	status := m.renderStatusBar()

	// The viewport gets whatever the chrome leaves over. Measuring the
	// rendered chrome keeps a styling change from pushing the layout
	// off-screen.
	chrome := lipgloss.Height(header) + lipgloss.Height(inputArea) + lipgloss.Height(status)
	bodyHeight := m.height - chrome
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	m.viewport.Height = bodyHeight

	body := m.viewport.View()
	if m.compState.Visible {
		body = overlayBottom(body, m.renderCompletions())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, inputArea, status)
}

// =============================================================================
// HEADER
// =============================================================================

// renderHeader draws the one-line title bar: name, model, and the
// session's activity state.
func (m Model) renderHeader() string {
	contentWidth := m.width - 2
	if contentWidth < 4 {
		contentWidth = 4
	}

	left := m.theme.Title.Render("murmur") + "  " +
		m.theme.StatusValue.Render(m.sess.Model())

	var right string
	switch {
	case !m.serverUp:
		right = m.theme.DiagnosticLabel.Render(styles.StatusIndicators.Error+" server down")
	case m.sess.Awaiting():
		right = m.spin.View() + m.theme.StatusMuted.Render(" replying")
	case m.listening:
		right = m.theme.ListeningBar.Render(styles.StatusIndicators.Recording)
	default:
		right = m.theme.StatusMuted.Render(styles.StatusIndicators.Idle)
	}

	gap := contentWidth - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		left = m.theme.Title.Render("murmur")
		gap = contentWidth - lipgloss.Width(left) - lipgloss.Width(right)
		if gap < 1 {
			gap = 1
		}
	}

	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// INPUT AREA
// =============================================================================

// renderInputArea draws the three-line input block: the border (or the
// listening bar while capturing), the prompt line, and the hint line.
func (m Model) renderInputArea() string {
	top := m.renderInputTop()
	prompt := lipgloss.NewStyle().Padding(0, 1).Render(m.input.View())
	hint := m.renderHintLine()
	return lipgloss.JoinVertical(lipgloss.Left, top, prompt, hint)
}

// renderInputTop is the horizontal rule above the prompt. While the mic
// is open it becomes the listening bar with the partial transcript.
func (m Model) renderInputTop() string {
	width := m.width
	if width < 4 {
		width = 4
	}

	if m.listening {
		frame := styles.ListeningFrame(m.listenTick)
		label := "listening... (ctrl+t to stop)"
		if m.partial != "" {
			label = util.TruncateWidth(m.partial, width-10)
		}
		return m.theme.ListeningBar.Render(" " + frame + " " + label)
	}

	rule := strings.Repeat("─", width)
	if m.sess.Awaiting() {
		return m.theme.InputBorderDim.Render(rule)
	}
	return m.theme.InputBorder.Render(rule)
}

// renderHintLine shows the notice when one is pending, otherwise the key
// hints, with the character count on the right.
func (m Model) renderHintLine() string {
	count := ""
	if n := len([]rune(m.input.Value())); n > 0 {
		count = util.IntToString(n) + "/4096"
	}

	var left string
	if m.notice != "" {
		left = m.theme.Notice.Render(m.notice)
	} else {
		var hints []string
		for _, b := range m.keys.ShortHelp() {
			hints = append(hints, b.Help().Key+" "+b.Help().Desc)
		}
		left = m.theme.InputHint.Render(" " + strings.Join(hints, " | "))
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(count) - 1
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + m.theme.StatusMuted.Render(count) + " "
}

// =============================================================================
// STATUS BAR
// =============================================================================

// statusConfig controls which segments the status bar includes. Segments
// drop off progressively as the terminal narrows.
type statusConfig struct {
	tokens bool
	count  bool
	speak  bool
	hints  bool
}

// renderStatusBar draws the bottom line, degrading until it fits.
func (m Model) renderStatusBar() string {
	configs := []statusConfig{
		{tokens: true, count: true, speak: true, hints: true},
		{tokens: true, count: true, speak: true},
		{count: true, speak: true},
		{},
	}
	for _, cfg := range configs {
		line := m.buildStatusLine(cfg)
		// An overwide candidate wraps rather than overflowing, so the real
		// fit test is that it stayed on one line.
		if lipgloss.Height(line) == 1 && lipgloss.Width(line) <= m.width {
			return line
		}
	}
	return m.theme.StatusBar.Width(m.width).
		Render(util.TruncateWidth(m.sess.Model(), m.width-2))
}

// buildStatusLine assembles one status bar candidate.
func (m Model) buildStatusLine(cfg statusConfig) string {
	st := m.sess.GetStatus()

	parts := []string{m.theme.StatusKey.Render(st.Model)}
	if cfg.tokens {
		tokens := m.sess.Conversation().EstimateTokens()
		parts = append(parts, m.theme.StatusValue.Render("~"+util.IntToString(tokens)+" tok"))
	}
	if cfg.count {
		parts = append(parts, m.theme.StatusValue.Render(util.IntToString(st.MessageCount)+" msgs"))
	}
	if cfg.speak {
		speak := styles.StatusIndicators.Speaking + " off"
		if m.speakOn {
			speak = styles.StatusIndicators.Speaking + " on"
		}
		parts = append(parts, m.theme.StatusMuted.Render(speak))
	}
	left := strings.Join(parts, m.theme.StatusMuted.Render(" | "))

	right := ""
	if cfg.hints {
		right = m.theme.StatusMuted.Render("f1 help | ctrl+c quit")
	}

	contentWidth := m.width - 2
	gap := contentWidth - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).
		Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// COMPLETION POPUP
// =============================================================================

// maxCompletionRows bounds the popup height.
const maxCompletionRows = 6

// renderCompletions draws the suggestion popup shown above the input.
func (m Model) renderCompletions() string {
	all := m.compState.Completions
	if len(all) == 0 {
		return ""
	}

	sel := m.compState.Selected
	start := 0
	if sel >= maxCompletionRows {
		start = sel - maxCompletionRows + 1
	}
	end := min(start+maxCompletionRows, len(all))

	nameWidth := 0
	for _, c := range all[start:end] {
		if w := util.StringWidth(c.Display); w > nameWidth {
			nameWidth = w
		}
	}

	rows := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		c := all[i]
		name := util.PadRight(c.Display, nameWidth)
		desc := m.theme.CompletionDesc.Render(util.TruncateWidth(c.Description, 40))
		if i == sel {
			rows = append(rows, m.theme.CompletionSelected.Render(name)+"  "+desc)
		} else {
			rows = append(rows, m.theme.CompletionItem.Render(name)+"  "+desc)
		}
	}
	if end < len(all) {
		rows = append(rows, m.theme.StatusMuted.Render(
			"... "+util.IntToString(len(all)-end)+" more"))
	}

	return m.theme.CompletionBox.Render(strings.Join(rows, "\n"))
}

// overlayBottom pins the overlay over the bottom lines of base so the
// popup never shifts the layout.
func overlayBottom(base, overlay string) string {
	if overlay == "" {
		return base
	}
	baseLines := strings.Split(base, "\n")
	overLines := strings.Split(overlay, "\n")
	if len(overLines) >= len(baseLines) {
		return overlay
	}
	copy(baseLines[len(baseLines)-len(overLines):], overLines)
	return strings.Join(baseLines, "\n")
}

// =============================================================================
// HELP OVERLAY
// =============================================================================

// renderHelpOverlay draws the centered help box: key bindings first, then
// the slash commands from the registry.
func (m Model) renderHelpOverlay() string {
	const keyCol = 14

	var b strings.Builder
	b.WriteString(m.theme.PickerTitle.Render("Help"))
	b.WriteString("\n\n")

	b.WriteString(m.theme.StatusKey.Render("Keys"))
	b.WriteString("\n")
	for _, group := range m.keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString("  " + m.theme.HelpKey.Render(util.PadRight(h.Key, keyCol)))
			b.WriteString(m.theme.HelpDesc.Render(h.Desc))
			b.WriteString("\n")
		}
	}

	cmds := m.registry.All()
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })

	b.WriteString("\n")
	b.WriteString(m.theme.StatusKey.Render("Commands"))
	b.WriteString("\n")
	for _, cmd := range cmds {
		if cmd.Hidden {
			continue
		}
		b.WriteString("  " + m.theme.HelpKey.Render(util.PadRight(cmd.Name, keyCol)))
		b.WriteString(m.theme.HelpDesc.Render(cmd.Description))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.theme.StatusMuted.Render("esc to close"))

	box := m.theme.HelpBox.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
