// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the murmur TUI:
// an adaptive color palette, a Theme carrying the initialized lipgloss
// styles, and the spinner and listening-pulse frame sets.
//
// Colors are lipgloss.AdaptiveColor pairs so the same palette reads well
// on light and dark backgrounds. Terminal capabilities are detected once
// via termenv when the Theme is created.
package styles
