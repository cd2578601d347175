// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// models.go - Models command implementation for murmur.
//
// Command: models
// Short:   List models available on the server
// Aliases: list
//
// Examples:
//   murmur models                 List installed models
//   murmur models --json          Model list in JSON format
//
// Output Columns:
//   Name       Model name with tag (e.g. llama3.2:latest)
//   Size       Download size on disk
//   Modified   How long ago the model was updated
//
// The model a new session would use is marked with an asterisk.
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/murmur/internal/config"
	"github.com/jeranaias/murmur/internal/ollama"
)

// HandleModels handles the "models" command.
func HandleModels(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}

	client := serverClient(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	models, err := client.ListModels(ctx)
	if err != nil {
		listErr := NewCommandError("models", "list", "server unreachable", err)
		if args.JSON {
			resp := NewJSONErrorResponse("models", listErr)
			resp.Print()
		}
		return listErr
	}

	selected := effectiveModel(cfg)

	// JSON output mode
	if args.JSON {
		entries := make([]ModelEntry, 0, len(models))
		for _, m := range models {
			entries = append(entries, ModelEntry{
				Name:     m.Name,
				Size:     ollama.FormatSize(m.Size),
				Modified: m.ModifiedAt.UTC().Format(time.RFC3339),
				Selected: m.Name == selected,
			})
		}

		resp := NewJSONResponse("models", ModelsData{
			Models: entries,
			Count:  len(entries),
		})
		return resp.Print()
	}

	// Human-readable output
	fmt.Println()
	fmt.Println(TitleStyle.Render("Models"))

	if len(models) == 0 {
		fmt.Println(DimStyle.Render("  No models installed."))
		fmt.Println(DimStyle.Render("  Pull one with: ollama pull llama3.2"))
		fmt.Println()
		return nil
	}

	fmt.Println(DimStyle.Render(fmt.Sprintf("  %-34s %10s  %s", "NAME", "SIZE", "MODIFIED")))

	for _, m := range models {
		marker := " "
		nameStr := ValueStyle.Render(fmt.Sprintf("%-34s", m.Name))
		if m.Name == selected {
			marker = HighlightStyle.Render("*")
			nameStr = HighlightStyle.Render(fmt.Sprintf("%-34s", m.Name))
		}

		fmt.Printf(" %s%s %10s  %s\n",
			marker,
			nameStr,
			ollama.FormatSize(m.Size),
			DimStyle.Render(formatModified(m.ModifiedAt)))
	}

	fmt.Println()
	fmt.Println(DimStyle.Render(fmt.Sprintf("  %d model(s), * = selected", len(models))))
	fmt.Println()

	return nil
}

// formatModified renders a model timestamp as a relative age.
func formatModified(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	age := time.Since(t)
	if age < 0 {
		age = 0
	}
	return strings.TrimSpace(formatDuration(age)) + " ago"
}
