// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line interface parsing and execution for murmur.
//
// This package implements all CLI commands for the murmur chat client,
// covering the non-TUI surfaces: one-shot questions, a readline-style REPL,
// and diagnostic commands for checking the local model server and the
// optional speech sidecars.
//
// # Key Types
//
//   - Command: Enumeration of all available CLI commands
//   - Args: Parsed command-line arguments with global and command-specific flags
//   - JSONResponse: Envelope for --json output across all commands
//
// # Usage
//
// Parse and execute commands:
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdAsk:
//	    return cli.HandleAskCommand(args)
//	case cli.CmdChat:
//	    return cli.HandleChatCommand(args)
//	// ... other commands
//	}
//
// # Commands Overview
//
// Core Commands:
//   - ask: Single question, streamed answer, then exit
//   - chat: Interactive chat session with history and completion
//   - models: List models installed on the server
//   - status: Server, speech, and preference status display
//   - doctor: Health checks with optional auto-fix
//
// All commands support the --json flag for scripting.
package cli
