// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strings"
)

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult contains the result of parsing user input.
type ParseResult struct {
	// IsCommand is true if the input starts with /
	IsCommand bool

	// Command is the matched command (nil if not found)
	Command *Command

	// CommandName is the raw command name (e.g., "/help")
	CommandName string

	// Args are the parsed arguments
	Args []string

	// RawInput is the original input string
	RawInput string
}

// =============================================================================
// PARSER
// =============================================================================

// Parser parses user input into commands.
type Parser struct {
	registry *Registry
}

// NewParser creates a new command parser.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse attempts to parse input as a command.
func (p *Parser) Parse(input string) *ParseResult {
	result := &ParseResult{RawInput: input}

	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") {
		return result
	}

	result.IsCommand = true

	parts := splitCommandLine(trimmed)
	if len(parts) == 0 {
		return result
	}

	result.CommandName = parts[0]
	result.Args = parts[1:]
	result.Command = p.registry.Get(result.CommandName)

	return result
}

// splitCommandLine splits input respecting quoted strings.
// Handles: /command "arg with spaces" simple-arg 'single quoted'
func splitCommandLine(input string) []string {
	var parts []string
	var current strings.Builder
	var inQuote rune

	for _, r := range input {
		switch {
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			inQuote = r
		case r == ' ' || r == '\t':
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

// IsCommand checks if input looks like a command.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// ExtractCommandName gets just the command name from input.
func ExtractCommandName(input string) string {
	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, "/") {
		return ""
	}

	spaceIdx := strings.IndexAny(trimmed, " \t")
	if spaceIdx == -1 {
		return trimmed
	}
	return trimmed[:spaceIdx]
}

// =============================================================================
// ARGUMENT VALIDATION
// =============================================================================

// ValidateArgs checks if provided arguments match the command definition.
func ValidateArgs(cmd *Command, args []string) error {
	if cmd == nil {
		return nil
	}

	requiredCount := 0
	for _, argDef := range cmd.Args {
		if argDef.Required {
			requiredCount++
		}
	}

	if len(args) < requiredCount {
		missing := cmd.Args[len(args)].Name
		return &ValidationError{
			Command: cmd.Name,
			Message: fmt.Sprintf("missing required argument: %s", missing),
			Usage:   cmd.Usage,
		}
	}

	// Validate enum arguments
	for i, arg := range args {
		if i >= len(cmd.Args) {
			break
		}
		argDef := cmd.Args[i]
		if argDef.Type == ArgTypeEnum && len(argDef.Values) > 0 {
			valid := false
			for _, v := range argDef.Values {
				if strings.EqualFold(arg, v) {
					valid = true
					break
				}
			}
			if !valid {
				return &ValidationError{
					Command: cmd.Name,
					Message: fmt.Sprintf("invalid value %q for %s (expected: %s)", arg, argDef.Name, strings.Join(argDef.Values, ", ")),
					Usage:   cmd.Usage,
				}
			}
		}
	}

	return nil
}

// ValidationError represents an argument validation failure.
type ValidationError struct {
	Command string
	Message string
	Usage   string
}

func (e *ValidationError) Error() string {
	if e.Usage != "" {
		return fmt.Sprintf("%s: %s (usage: %s)", e.Command, e.Message, e.Usage)
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}
