// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system shared by the TUI and
// the plain-terminal REPL.
//
// This package handles parsing slash commands, validating their arguments,
// and providing tab completion. Handlers do not mutate application state;
// they return bubbletea commands that emit typed messages, which the calling
// frontend interprets.
//
// # Key Types
//
//   - Registry: Command registry with all available commands
//   - Parser: Turns raw input into a ParseResult
//   - ParseResult: Parsed command with name and arguments
//   - Completer: Tab completion for commands and arguments
//   - CompletionState: Selection state for the completion popup
//
// # Built-in Commands
//
//   - /help: Show available commands
//   - /quit: Exit
//   - /clear: Clear conversation
//   - /model: Switch or show the current model
//   - /models: List models on the server
//   - /voice: Switch or show the synthesis voice
//   - /speak: Toggle spoken replies
//   - /status: Show session and server status
//
// # Usage
//
// Parse and execute a command:
//
//	parser := commands.NewParser(commands.NewRegistry())
//	if cmd := commands.Execute(parser, ctx, input); cmd != nil {
//	    msg := cmd()
//	    // dispatch on the message type
//	}
//
// Get completions:
//
//	completions := completer.Complete("/mo", 3)
//	// Returns /model and /models
package commands
