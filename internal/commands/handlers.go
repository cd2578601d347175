// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// Handlers return tea.Cmd closures that emit these messages. The TUI and the
// REPL both interpret them, so handlers never mutate state themselves.

// ShowHelpMsg requests the help display.
type ShowHelpMsg struct {
	// Topic narrows help to one command or category (empty = overview)
	Topic string
}

// ClearConversationMsg requests clearing the conversation.
type ClearConversationMsg struct{}

// ModelSwitchMsg requests switching to a different model.
type ModelSwitchMsg struct {
	Model string
}

// ShowModelsMsg requests the model picker.
type ShowModelsMsg struct{}

// VoiceSwitchMsg requests switching the synthesis voice.
type VoiceSwitchMsg struct {
	Voice string
}

// SpeakToggleMsg requests enabling, disabling, or toggling spoken replies.
type SpeakToggleMsg struct {
	// Explicit is true when the user passed on/off rather than toggling
	Explicit bool
	On       bool
}

// ShowStatusMsg requests the status display.
type ShowStatusMsg struct{}

// SystemMessageMsg displays an informational line in the conversation.
type SystemMessageMsg struct {
	Content string
}

// ErrorMsg displays an error to the user.
type ErrorMsg struct {
	Title   string
	Message string
	Tip     string
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleHelp shows help information.
func HandleHelp(ctx *Context, args []string) tea.Cmd {
	topic := ""
	if len(args) > 0 {
		topic = args[0]
	}
	return func() tea.Msg {
		return ShowHelpMsg{Topic: topic}
	}
}

// HandleQuit exits the application.
func HandleQuit(ctx *Context, args []string) tea.Cmd {
	return tea.Quit
}

// HandleClear clears the conversation.
func HandleClear(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ClearConversationMsg{}
	}
}

// HandleModel switches the model, or reports the current one when called
// without arguments.
func HandleModel(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return func() tea.Msg {
			current := "(none)"
			if ctx != nil && ctx.Session != nil {
				if m := ctx.Session.Model(); m != "" {
					current = m
				}
			}
			return SystemMessageMsg{Content: "Current model: " + current}
		}
	}

	name := args[0]
	return func() tea.Msg {
		return ModelSwitchMsg{Model: name}
	}
}

// HandleModels opens the model picker.
func HandleModels(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ShowModelsMsg{}
	}
}

// HandleVoice switches the synthesis voice, or reports the current one when
// called without arguments.
func HandleVoice(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return func() tea.Msg {
			current := "(default)"
			if ctx != nil && ctx.Prefs != nil {
				if v := ctx.Prefs.Current().Voice; v != "" {
					current = v
				}
			}
			return SystemMessageMsg{Content: "Current voice: " + current}
		}
	}

	voice := args[0]
	return func() tea.Msg {
		return VoiceSwitchMsg{Voice: voice}
	}
}

// HandleSpeak toggles spoken replies. With an explicit on/off argument it
// sets the state; without one it flips it.
func HandleSpeak(ctx *Context, args []string) tea.Cmd {
	if len(args) == 0 {
		return func() tea.Msg {
			return SpeakToggleMsg{}
		}
	}

	on := strings.EqualFold(args[0], "on")
	return func() tea.Msg {
		return SpeakToggleMsg{Explicit: true, On: on}
	}
}

// HandleStatus shows session and server status.
func HandleStatus(ctx *Context, args []string) tea.Cmd {
	return func() tea.Msg {
		return ShowStatusMsg{}
	}
}

// =============================================================================
// EXECUTION
// =============================================================================

// Execute parses and runs a command line, returning the command to emit its
// message. Unknown commands and argument errors come back as ErrorMsg.
func Execute(parser *Parser, ctx *Context, input string) tea.Cmd {
	result := parser.Parse(input)
	if !result.IsCommand {
		return nil
	}

	if result.Command == nil {
		name := result.CommandName
		return func() tea.Msg {
			return ErrorMsg{
				Title:   "Unknown command",
				Message: name + " is not a recognized command",
				Tip:     "Type /help to see available commands",
			}
		}
	}

	if err := ValidateArgs(result.Command, result.Args); err != nil {
		msg := err.Error()
		return func() tea.Msg {
			return ErrorMsg{
				Title:   "Invalid arguments",
				Message: msg,
			}
		}
	}

	return result.Command.Handler(ctx, result.Args)
}
