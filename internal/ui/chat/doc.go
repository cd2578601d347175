// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the main conversational view: a scrolling
// transcript, a single-line prompt with slash-command completion, voice
// capture into the pending input, and overlays for help, model picking,
// and errors.
//
// The model never blocks the UI goroutine. Chat turns, server probes,
// and preference writes all run as Bubble Tea commands, and transcript
// redraws are coalesced onto a render tick so token deltas cannot
// saturate the terminal.
package chat
