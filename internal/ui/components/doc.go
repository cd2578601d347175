// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual building blocks for the murmur
// TUI: message bubbles, the markdown and code-block renderers, the model
// picker overlay, the welcome screen, and the error banner.
//
// Components are pure renderers where possible: they take state and a
// width and return a string. Stateful components (the model picker) keep
// their own cursor and expose Update-style mutators for the chat view to
// call.
package components
