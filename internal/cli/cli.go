// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for murmur.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdModels
	CmdStatus
	CmdDoctor
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet    bool
	Verbose  bool
	JSON     bool   // Output in JSON format
	NoSpeech bool   // Disable speech capture and playback for this run
	Model    string // Override the configured model

	// Command-specific
	Query      string
	File       string
	Plain      bool // ask: skip markdown rendering
	Subcommand string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `murmur - voice-capable chat for local language models

Murmur is a terminal chat client for a local Ollama server.

It provides:
  - Streaming replies rendered as they arrive
  - Optional speech capture (hold-to-talk) and spoken playback
  - A full-screen TUI plus one-shot and REPL modes
  - Per-user preferences that survive restarts

Usage:
  murmur                     Start TUI (default)
  murmur ask "question"      Ask a single question
  murmur chat                Interactive chat in the plain terminal
  murmur models, list        List models available on the server
  murmur status, s           Show system status
  murmur doctor [--fix]      System diagnostics
  murmur version             Show version information
  murmur help                Show this help

Ask Command:
  murmur ask "What is Go?"            Ask and stream the reply
    -m, --model NAME                  Use a specific model
    -f, --file PATH                   Include a file as context
    --plain                           Skip markdown rendering
    --json                            Emit the reply as JSON

Chat Command (REPL):
  murmur chat                         Start the line-mode chat loop
    -m, --model NAME                  Start with a specific model
  Inside the loop all slash commands work: /help, /model, /models,
  /voice, /speak, /clear, /status, /quit.

Doctor Command:
  murmur doctor                       Run health checks
  murmur doctor --fix                 Attempt safe auto-fixes
    --json                            Output results for scripting

Global Flags:
  -q, --quiet     Minimal output
  --verbose       Debug output
  --model NAME    Override the configured model
  --no-speech     Disable speech capture and playback
  --json          Output in JSON format

Examples:
  # Basic usage
  murmur                              Start TUI interface
  murmur ask "What is Rust?"          Ask a single question
  murmur chat                         Start interactive chat

  # Ask command with options
  murmur ask "Review this:" --file x.go     Include file with question
  murmur ask "List steps" --json            Output response as JSON
  murmur ask --plain "Explain this error"   Plain text, no markdown

  # Chat command options
  murmur chat --model qwen2.5:14b     Start chat with specific model
  murmur --no-speech chat             Chat without the speech subsystem

  # Models and status
  murmur models                       List models on the server
  murmur status                       Check system status (alias: s)
  murmur status --json                Machine-readable status

  # System diagnostics
  murmur doctor                       Run health checks
  murmur doctor --fix                 Attempt auto-fixes

Configuration lives at ~/.murmur/config.toml and preferences
(selected model, voice, speak toggle) are stored under ~/.murmur/prefs.

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("murmur version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// HandleVersion handles the "version" command, honoring --json.
func HandleVersion(args Args) error {
	if args.JSON {
		return NewJSONResponse("version", VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}).Print()
	}

	PrintVersion()
	return nil
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	args := os.Args[1:]

	// Parse global flags first
	remaining, parsedArgs := parseGlobalFlags(args)

	// If no remaining args, default to TUI
	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	// Check first argument for command
	first := remaining[0]
	cmd := strings.ToLower(first)
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "ask":
		parseAskArgs(&parsedArgs, remaining)
		return CmdAsk, parsedArgs

	case "chat":
		parseChatArgs(&parsedArgs, remaining)
		return CmdChat, parsedArgs

	case "models", "list":
		return CmdModels, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "doctor":
		parseDoctorArgs(&parsedArgs, remaining)
		return CmdDoctor, parsedArgs

	case "version", "-v", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		// Unknown command - could be a direct prompt, default to TUI.
		// Restore the original token, case intact, as it might be part
		// of the prompt text.
		parsedArgs.Raw = append([]string{first}, remaining...)
		return CmdTUI, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-q", "--quiet":
			parsedArgs.Quiet = true
		case "--verbose":
			parsedArgs.Verbose = true
		case "--json":
			parsedArgs.JSON = true
		case "--no-speech", "--mute":
			parsedArgs.NoSpeech = true
		case "--model":
			if i+1 < len(args) {
				i++
				parsedArgs.Model = args[i]
			}
		default:
			// Check for --model=value format
			if strings.HasPrefix(arg, "--model=") {
				parsedArgs.Model = strings.TrimPrefix(arg, "--model=")
			} else {
				remaining = append(remaining, arg)
			}
		}
		i++
	}

	return remaining, parsedArgs
}

// parseAskArgs parses ask command specific arguments.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	i := 0
	for i < len(remaining) {
		arg := remaining[i]

		switch arg {
		case "-f", "--file":
			if i+1 < len(remaining) {
				i++
				args.File = remaining[i]
			}
		case "-m", "--model":
			if i+1 < len(remaining) {
				i++
				args.Model = remaining[i]
			}
		case "--plain", "--no-markdown":
			args.Plain = true
		default:
			// Check for --file=value or --model=value format
			if strings.HasPrefix(arg, "--file=") {
				args.File = strings.TrimPrefix(arg, "--file=")
			} else if strings.HasPrefix(arg, "--model=") {
				args.Model = strings.TrimPrefix(arg, "--model=")
			} else if !strings.HasPrefix(arg, "-") {
				query = append(query, arg)
			}
		}
		i++
	}

	args.Query = strings.Join(query, " ")
}

// parseChatArgs parses chat command specific arguments.
func parseChatArgs(args *Args, remaining []string) {
	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "-m", "--model":
			if i+1 < len(remaining) {
				i++
				args.Model = remaining[i]
			}
		default:
			if strings.HasPrefix(arg, "--model=") {
				args.Model = strings.TrimPrefix(arg, "--model=")
			}
		}
	}
}

// parseDoctorArgs parses doctor command specific arguments.
func parseDoctorArgs(args *Args, remaining []string) {
	for _, arg := range remaining {
		if arg == "--fix" {
			args.Subcommand = "fix"
		}
	}
}
