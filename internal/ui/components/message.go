// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual building blocks for the murmur TUI.
package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/murmur/internal/model"
	"github.com/jeranaias/murmur/internal/ui/styles"
	"github.com/jeranaias/murmur/internal/util"
)

// =============================================================================
// MESSAGE BUBBLE
// =============================================================================

// MessageBubble renders one transcript entry.
//
// User messages are right-aligned blue bubbles. Assistant messages are
// left-aligned: markdown-rendered when complete, plain text with live
// code-fence highlighting while streaming. Diagnostic entries render as a
// rose left-border block so a failed turn is unmistakable in the transcript.
type MessageBubble struct {
	Msg       model.Message
	Width     int
	Streaming bool

	theme    *styles.Theme
	markdown *Markdown
}

// NewMessageBubble creates a bubble for one message.
func NewMessageBubble(msg model.Message, theme *styles.Theme, markdown *Markdown) MessageBubble {
	return MessageBubble{
		Msg:      msg,
		Width:    80,
		theme:    theme,
		markdown: markdown,
	}
}

// SetWidth sets the terminal width the bubble lays out against.
func (b *MessageBubble) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	b.Width = width
}

// View renders the message.
func (b MessageBubble) View() string {
	if b.Msg.Diagnostic {
		return b.renderDiagnostic()
	}
	switch b.Msg.Sender {
	case model.SenderUser:
		return b.renderUser()
	case model.SenderAssistant:
		return b.renderAssistant()
	default:
		return b.Msg.Text
	}
}

// =============================================================================
// USER MESSAGES
// =============================================================================

func (b MessageBubble) renderUser() string {
	content := b.Msg.Text
	if content == "" {
		content = "..."
	}

	maxContentWidth := b.Width - 12
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	wrapped := wordWrap(content, maxContentWidth)

	contentWidth := maxLineWidth(wrapped) + 4
	if contentWidth > b.Width-8 {
		contentWidth = b.Width - 8
	}

	bubble := b.theme.UserBubble.Width(contentWidth).Render(wrapped)
	header := b.theme.SenderLabel.Render("you " + clockTime(b.Msg.Time))

	// Push right; the margin is what makes user turns scannable.
	marginLeft := b.Width - lipgloss.Width(bubble) - 4
	if marginLeft < 0 {
		marginLeft = 0
	}
	marginStyle := lipgloss.NewStyle().MarginLeft(marginLeft)

	return lipgloss.JoinVertical(lipgloss.Right,
		marginStyle.Render(header),
		marginStyle.Render(bubble),
	)
}

// =============================================================================
// ASSISTANT MESSAGES
// =============================================================================

func (b MessageBubble) renderAssistant() string {
	header := b.theme.SenderLabel.Render("assistant " + clockTime(b.Msg.Time))

	maxContentWidth := b.Width - 8
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}

	var body string
	if b.Streaming {
		body = b.renderStreamingBody(maxContentWidth)
	} else {
		body = b.renderCompleteBody(maxContentWidth)
	}

	indented := lipgloss.NewStyle().MarginLeft(2).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, indented)
}

// renderStreamingBody renders in-flight text: plain wrapping with live
// code-fence highlighting and a trailing cursor. The full markdown pass
// waits until the message completes.
func (b MessageBubble) renderStreamingBody(maxWidth int) string {
	content := b.Msg.Text

	cursor := lipgloss.NewStyle().
		Foreground(styles.Purple).
		Blink(true).
		Render("_")

	if content == "" {
		return cursor
	}

	if HasCodeFence(content) {
		return ParseCodeBlocks(content, maxWidth) + cursor
	}

	wrapWidth := maxWidth - 4
	if wrapWidth < 16 {
		wrapWidth = 16
	}
	return b.theme.AssistantBubble.MaxWidth(maxWidth).Render(wordWrap(content, wrapWidth)) + cursor
}

// renderCompleteBody renders a finished reply through the markdown pipeline.
func (b MessageBubble) renderCompleteBody(maxWidth int) string {
	if b.markdown != nil {
		b.markdown.SetWidth(maxWidth)
		return b.markdown.Render(b.Msg.Text)
	}

	wrapWidth := maxWidth - 4
	if wrapWidth < 16 {
		wrapWidth = 16
	}
	return b.theme.AssistantBubble.MaxWidth(maxWidth).Render(wordWrap(b.Msg.Text, wrapWidth))
}

// =============================================================================
// DIAGNOSTIC ENTRIES
// =============================================================================

func (b MessageBubble) renderDiagnostic() string {
	label := b.theme.DiagnosticLabel.Render(styles.StatusIndicators.Error + " turn failed")

	maxContentWidth := b.Width - 10
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	body := b.theme.DiagnosticBubble.
		MaxWidth(maxContentWidth).
		Render(wordWrap(b.Msg.Text, maxContentWidth-4))

	block := lipgloss.JoinVertical(lipgloss.Left, label, body)
	return lipgloss.NewStyle().MarginLeft(2).Render(block)
}

// =============================================================================
// MESSAGE LIST
// =============================================================================

// MessageList renders a conversation snapshot for the transcript viewport.
type MessageList struct {
	Width     int
	Streaming bool

	messages []model.Message
	theme    *styles.Theme
	markdown *Markdown
}

// NewMessageList creates a transcript renderer.
func NewMessageList(theme *styles.Theme) *MessageList {
	return &MessageList{
		Width:    80,
		theme:    theme,
		markdown: NewMarkdown(76),
	}
}

// SetMessages replaces the snapshot to render.
func (ml *MessageList) SetMessages(messages []model.Message) {
	ml.messages = messages
}

// SetWidth sets the layout width.
func (ml *MessageList) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	ml.Width = width
}

// SetStreaming marks whether a reply is currently in flight. The last
// assistant entry renders with a live cursor while true.
func (ml *MessageList) SetStreaming(streaming bool) {
	ml.Streaming = streaming
}

// Len returns the number of messages in the snapshot.
func (ml *MessageList) Len() int {
	return len(ml.messages)
}

// View renders the whole transcript.
func (ml *MessageList) View() string {
	if len(ml.messages) == 0 {
		return ""
	}

	parts := make([]string, 0, len(ml.messages))
	for i, msg := range ml.messages {
		bubble := NewMessageBubble(msg, ml.theme, ml.markdown)
		bubble.SetWidth(ml.Width)

		// Only the open assistant message carries the live cursor. A
		// diagnostic is never the open message.
		last := i == len(ml.messages)-1
		bubble.Streaming = ml.Streaming && last &&
			msg.Sender == model.SenderAssistant && !msg.Diagnostic

		parts = append(parts, bubble.View())
	}

	return strings.Join(parts, "\n\n")
}

// =============================================================================
// TIME FORMATTING
// =============================================================================

// clockTime formats a timestamp as "3:04 PM" for sender labels.
func clockTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}

	hour := ts.Hour()
	minute := ts.Minute()
	ampm := "AM"

	if hour >= 12 {
		ampm = "PM"
		if hour > 12 {
			hour -= 12
		}
	}
	if hour == 0 {
		hour = 12
	}

	minuteStr := util.IntToString(minute)
	if minute < 10 {
		minuteStr = "0" + minuteStr
	}

	return util.IntToString(hour) + ":" + minuteStr + " " + ampm
}
