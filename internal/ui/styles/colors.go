// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the murmur TUI.
package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ACCENT COLORS
// =============================================================================
// Adaptive colors pick the light or dark variant based on the detected
// terminal background.

// Purple is the primary brand color.
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// PurpleDeep is a darker purple for backgrounds and borders.
var PurpleDeep = lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#4C1D95"}

// Cyan is the secondary accent.
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald marks success and ready states.
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Amber marks warnings and notices.
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Rose marks errors and the live-microphone indicator.
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// RoseDeep is a darker rose for diagnostic borders.
var RoseDeep = lipgloss.AdaptiveColor{Light: "#BE123C", Dark: "#881337"}

// =============================================================================
// SURFACES
// =============================================================================

// Surface is the base background for boxes and overlays.
var Surface = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// SurfaceDim is a dimmed background for bars and code blocks.
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

// Overlay is the border color for neutral containers.
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// OverlayDim is a stronger overlay tone for badges.
var OverlayDim = lipgloss.AdaptiveColor{Light: "#D4D4D4", Dark: "#45475A"}

// =============================================================================
// TEXT HIERARCHY
// =============================================================================

// TextPrimary is the main content color.
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary is for supporting text.
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted is for hints, timestamps, and labels.
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// TextInverse is for text on accent backgrounds.
var TextInverse = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1E1E2E"}

// =============================================================================
// MESSAGE BUBBLES
// =============================================================================

// User messages: blue family, right-aligned in the transcript.
var UserBubbleBg = lipgloss.AdaptiveColor{Light: "#DBEAFE", Dark: "#1D4ED8"}
var UserBubbleFg = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#E0F2FE"}
var UserBubbleBorder = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#3B82F6"}

// Assistant messages: purple family, left-aligned.
var AssistantBubbleBg = lipgloss.AdaptiveColor{Light: "#F5F3FF", Dark: "#3B3655"}
var AssistantBubbleFg = lipgloss.AdaptiveColor{Light: "#5B4B8A", Dark: "#E9E4F5"}
var AssistantBubbleBorder = lipgloss.AdaptiveColor{Light: "#C4B5FD", Dark: "#A78BFA"}

// Diagnostic entries: rose family. These are assistant-sender transcript
// entries that report a transport or decode failure.
var DiagnosticBg = lipgloss.AdaptiveColor{Light: "#FEE2E2", Dark: "#881337"}
var DiagnosticFg = lipgloss.AdaptiveColor{Light: "#991B1B", Dark: "#FECACA"}
var DiagnosticBorder = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}

// Notices: amber family, for command feedback shown outside the transcript.
var NoticeBg = lipgloss.AdaptiveColor{Light: "#FEF3C7", Dark: "#78350F"}
var NoticeFg = lipgloss.AdaptiveColor{Light: "#92400E", Dark: "#FEF3C7"}
var NoticeBorder = lipgloss.AdaptiveColor{Light: "#F59E0B", Dark: "#F59E0B"}

// =============================================================================
// FOCUS AND SELECTION
// =============================================================================

// FocusRing outlines the input area while it accepts text.
var FocusRing = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// FocusRingDim outlines the input area while a reply is streaming.
var FocusRingDim = lipgloss.AdaptiveColor{Light: "#D4D4D4", Dark: "#45475A"}

// SelectionBg highlights the selected row in lists and pickers.
var SelectionBg = lipgloss.AdaptiveColor{Light: "#BFDBFE", Dark: "#1E3A5F"}

// =============================================================================
// STATUS INDICATORS
// =============================================================================

// StatusIndicators are ASCII-safe icons used across the UI. Plain ASCII
// keeps narrow and capability-limited terminals readable.
var StatusIndicators = struct {
	Success   string
	Error     string
	Warning   string
	Info      string
	Recording string
	Speaking  string
	Idle      string
}{
	Success:   "[ok]",
	Error:     "[!!]",
	Warning:   "[warn]",
	Info:      "[i]",
	Recording: "[rec]",
	Speaking:  "[spk]",
	Idle:      "[--]",
}
