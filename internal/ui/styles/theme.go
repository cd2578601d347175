// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the murmur TUI.
//
// The Theme carries every lipgloss style the chat view uses, initialized
// once at startup from the detected terminal capabilities. Components take
// a *Theme rather than building styles inline so the whole UI restyles
// consistently.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// LAYOUT MODE
// =============================================================================

// LayoutMode describes how much horizontal room the terminal offers.
type LayoutMode int

const (
	// LayoutNarrow is under 60 columns: single-column, compact labels.
	LayoutNarrow LayoutMode = iota

	// LayoutMedium is 60-99 columns: the default layout.
	LayoutMedium

	// LayoutWide is 100+ columns: full labels and wider bubbles.
	LayoutWide
)

// String returns the layout mode name.
func (m LayoutMode) String() string {
	switch m {
	case LayoutNarrow:
		return "narrow"
	case LayoutMedium:
		return "medium"
	case LayoutWide:
		return "wide"
	default:
		return "unknown"
	}
}

// =============================================================================
// THEME
// =============================================================================

// Theme holds the initialized styles for one terminal session.
type Theme struct {
	// Terminal capabilities detected at startup.
	ColorProfile      termenv.Profile
	HasDarkBackground bool

	// Current terminal dimensions, updated on resize.
	Width  int
	Height int

	// Application frame.
	App    lipgloss.Style
	Header lipgloss.Style
	Title  lipgloss.Style

	// Transcript bubbles.
	UserBubble       lipgloss.Style
	AssistantBubble  lipgloss.Style
	DiagnosticBubble lipgloss.Style
	DiagnosticLabel  lipgloss.Style
	SenderLabel      lipgloss.Style

	// Input area.
	InputBorder    lipgloss.Style
	InputBorderDim lipgloss.Style
	InputHint      lipgloss.Style

	// Status bar.
	StatusBar   lipgloss.Style
	StatusKey   lipgloss.Style
	StatusValue lipgloss.Style
	StatusMuted lipgloss.Style

	// Activity indicators.
	Spinner      lipgloss.Style
	ListeningBar lipgloss.Style
	Notice       lipgloss.Style

	// Overlays.
	HelpBox            lipgloss.Style
	HelpKey            lipgloss.Style
	HelpDesc           lipgloss.Style
	PickerBox          lipgloss.Style
	PickerTitle        lipgloss.Style
	PickerItem         lipgloss.Style
	PickerSelected     lipgloss.Style
	PickerDetail       lipgloss.Style
	ErrorBox           lipgloss.Style
	ErrorTitle         lipgloss.Style
	ErrorTip           lipgloss.Style
	CompletionBox      lipgloss.Style
	CompletionItem     lipgloss.Style
	CompletionSelected lipgloss.Style
	CompletionDesc     lipgloss.Style

	// Welcome screen.
	WelcomeBox   lipgloss.Style
	WelcomeLogo  lipgloss.Style
	WelcomeLabel lipgloss.Style
	WelcomeValue lipgloss.Style
}

// NewTheme creates a theme from the detected terminal capabilities.
func NewTheme() *Theme {
	t := &Theme{
		ColorProfile:      termenv.ColorProfile(),
		HasDarkBackground: termenv.HasDarkBackground(),
	}
	t.initStyles()
	return t
}

// SetSize records the terminal dimensions for layout decisions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the layout mode for the current width.
func (t *Theme) GetLayoutMode() LayoutMode {
	switch {
	case t.Width < 60:
		return LayoutNarrow
	case t.Width < 100:
		return LayoutMedium
	default:
		return LayoutWide
	}
}

// initStyles builds every style from the palette.
func (t *Theme) initStyles() {
	// Application frame
	t.App = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	// Transcript bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 2)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		Background(AssistantBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 2)

	t.DiagnosticBubble = lipgloss.NewStyle().
		Foreground(DiagnosticFg).
		Background(DiagnosticBg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(DiagnosticBorder).
		BorderLeft(true).
		BorderTop(false).
		BorderRight(false).
		BorderBottom(false).
		PaddingLeft(2)

	t.DiagnosticLabel = lipgloss.NewStyle().
		Foreground(DiagnosticBorder).
		Bold(true)

	t.SenderLabel = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Input area
	t.InputBorder = lipgloss.NewStyle().
		Foreground(FocusRing)

	t.InputBorderDim = lipgloss.NewStyle().
		Foreground(FocusRingDim)

	t.InputHint = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.StatusKey = lipgloss.NewStyle().
		Foreground(Amber)

	t.StatusValue = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.StatusMuted = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Activity indicators
	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.ListeningBar = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.Notice = lipgloss.NewStyle().
		Foreground(NoticeFg).
		Background(NoticeBg).
		Padding(0, 1)

	// Overlays
	t.HelpBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Foreground(TextPrimary).
		Background(Surface).
		Padding(1, 2)

	t.HelpKey = lipgloss.NewStyle().
		Foreground(Amber)

	t.HelpDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.PickerBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Background(Surface).
		Padding(1, 2)

	t.PickerTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.PickerItem = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.PickerSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true)

	t.PickerDetail = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ErrorBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Background(Surface).
		Padding(1, 2)

	t.ErrorTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)

	t.ErrorTip = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.CompletionBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Background(Surface).
		Padding(0, 1)

	t.CompletionItem = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.CompletionSelected = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg)

	t.CompletionDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Welcome screen
	t.WelcomeBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Purple).
		Padding(1, 4).
		Align(lipgloss.Center)

	t.WelcomeLogo = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.WelcomeLabel = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.WelcomeValue = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)
}

// =============================================================================
// CAPABILITY HELPERS
// =============================================================================

// SupportsTrueColor reports whether the terminal renders 24-bit color.
func (t *Theme) SupportsTrueColor() bool {
	return t.ColorProfile == termenv.TrueColor
}

// SupportsColor reports whether the terminal renders any color at all.
func (t *Theme) SupportsColor() bool {
	return t.ColorProfile != termenv.Ascii
}
