// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single query command handler for the murmur CLI.
//
// Handles the "murmur ask" command which sends a single question to the
// model server and streams the response to stdout.
//
// Command: ask [question]
// Short:   Ask a single question
//
// Examples:
//   murmur ask "What is the capital of France?"
//   murmur ask --json "List the steps to make tea"
//   murmur ask "Review this code:" --file main.go
//   echo "Explain this error" | murmur ask
//
// Flags:
//   -f, --file FILE     Include file content with the question
//   -m, --model NAME    Use specific model (overrides preference and config)
//   --plain             Skip markdown rendering
//   --json              Output response as JSON
//   -q, --quiet         Minimal output
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/murmur/internal/config"
	"github.com/jeranaias/murmur/internal/ollama"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// MaxFileSize is the maximum file size to include (50KB).
	MaxFileSize = 50 * 1024
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is the global glamour renderer for markdown output.
var markdownRenderer *glamour.TermRenderer

func init() {
	var err error
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fallback to plain text if renderer initialization fails
		markdownRenderer = nil
	}
}

// renderMarkdown renders markdown content for terminal display.
// Returns the original content if rendering fails or renderer is unavailable.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// displayResponse displays a response with markdown rendering when appropriate.
// Only renders markdown when stdout is a TTY to avoid corrupting piped output.
func displayResponse(response string) {
	if IsStdoutTTY() {
		fmt.Print(renderMarkdown(response))
	} else {
		fmt.Print(response)
	}
}

// =============================================================================
// STYLES
// =============================================================================

var (
	// Separator style
	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// Summary label style
	summaryLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	// Summary value style
	summaryValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("82"))

	// Error style
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// Stderr note marker style
	noteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))
)

// streamToStdout prints a content fragment directly to stdout.
func streamToStdout(content string) {
	fmt.Print(content)
}

// =============================================================================
// FILE READING
// =============================================================================

// readFileForContext reads a file and formats it for inclusion in a prompt.
// Returns the formatted content or an error.
// Files larger than MaxFileSize are rejected.
func readFileForContext(path string) (string, error) {
	// Check file info
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", path)
		}
		return "", fmt.Errorf("cannot access file: %w", err)
	}

	// Check size
	if info.Size() > MaxFileSize {
		return "", fmt.Errorf("file too large: %d bytes (max %d bytes)", info.Size(), MaxFileSize)
	}

	// Read content
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	// Format with header
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("\n--- File: %s ---\n", path))
	builder.Write(content)
	builder.WriteString("\n--- End of file ---\n")

	return builder.String(), nil
}

// =============================================================================
// ASK HANDLER
// =============================================================================

// HandleAskCommand handles the "ask" command with streaming output.
func HandleAskCommand(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}

	// Get the question from args.Query (built by parseAskArgs from positional args)
	question := args.Query

	// If no question from args, try reading from stdin (for piped input)
	if question == "" {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			// Stdin is a pipe, read from it
			reader := bufio.NewReader(os.Stdin)
			stdinData, err := io.ReadAll(reader)
			if err == nil && len(stdinData) > 0 {
				question = strings.TrimSpace(string(stdinData))
				if !args.Quiet {
					fmt.Fprintf(os.Stderr, "%s Read question from stdin (%d bytes)\n",
						noteStyle.Render("[+]"),
						len(stdinData))
				}
			}
		}
	}

	if question == "" {
		err := fmt.Errorf("no question provided. Usage: murmur ask \"your question\"")
		if args.JSON {
			resp := NewJSONErrorResponse("ask", err)
			resp.Print()
		}
		return err
	}

	// If file is specified, read and append to question
	if args.File != "" {
		fileContent, err := readFileForContext(args.File)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		question = question + "\n" + fileContent

		if !args.Quiet {
			fmt.Fprintf(os.Stderr, "%s Including file: %s\n",
				noteStyle.Render("[+]"),
				args.File)
		}
	}

	// Create client from config
	client := serverClient(cfg)

	// Check the server is up before streaming
	ctx := context.Background()
	if err := client.CheckRunning(ctx); err != nil {
		err := fmt.Errorf("Ollama is not running. Start it with: ollama serve")
		if args.JSON {
			resp := NewJSONErrorResponse("ask", err)
			resp.Print()
		}
		return err
	}

	// Determine model to use (CLI arg > saved preference > config > client default)
	model := args.Model
	if model == "" {
		if p, ok := loadPrefsSnapshot(ctx); ok {
			model = p.Model
		}
	}
	if model == "" {
		model = cfg.DefaultModel
	}
	if model == "" {
		model = client.DefaultModel()
	}

	messages := []ollama.Message{
		ollama.NewUserMessage(question),
	}

	// Markdown is collected and rendered at the end; plain mode streams as
	// fragments arrive.
	useMarkdown := IsStdoutTTY() && !args.JSON && !args.Plain

	var fullResponse strings.Builder
	fragments := 0
	startTime := time.Now()

	if !args.Quiet && !args.JSON {
		fmt.Println() // Space before response
	}

	err = client.ChatStream(ctx, model, messages, func(chunk ollama.StreamChunk) {
		if chunk.Err != nil {
			// Malformed line: report and keep consuming the stream
			if !args.JSON {
				fmt.Fprintf(os.Stderr, "\n%s %v\n",
					errorStyle.Render("[Error]"),
					chunk.Err)
			}
			return
		}

		if chunk.Fragment.HasContent {
			fragments++
			fullResponse.WriteString(chunk.Fragment.Content)

			if !args.JSON && !useMarkdown {
				streamToStdout(chunk.Fragment.Content)
			}
		}
	})

	duration := time.Since(startTime)

	if err != nil {
		if args.JSON {
			resp := NewJSONErrorResponse("ask", err)
			resp.Print()
		}
		return fmt.Errorf("streaming failed: %w", err)
	}

	// JSON output mode
	if args.JSON {
		data := AskData{
			Response:   fullResponse.String(),
			Model:      model,
			Fragments:  fragments,
			DurationMs: duration.Milliseconds(),
		}

		resp := NewJSONResponse("ask", data)
		return resp.Print()
	}

	// Render collected response as markdown on a TTY
	if useMarkdown {
		displayResponse(fullResponse.String())
	}

	// Ensure newline after response
	fmt.Println()

	// Show summary (unless --quiet)
	if !args.Quiet {
		displayAskSummary(model, fragments, duration)
	}

	return nil
}

// displayAskSummary shows a short summary line after the response.
// Written to stderr so piped stdout stays clean.
func displayAskSummary(model string, fragments int, duration time.Duration) {
	separator := strings.Repeat("─", 45)
	fmt.Fprintln(os.Stderr, separatorStyle.Render(separator))

	fmt.Fprintf(os.Stderr, "%s %s  %s %s  %s %d\n",
		summaryLabelStyle.Render("Model:"),
		summaryValueStyle.Render(model),
		summaryLabelStyle.Render("Time:"),
		summaryValueStyle.Render(formatDurationShort(duration)),
		summaryLabelStyle.Render("Fragments:"),
		fragments)
}
