// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sort"
	"strings"
)

// =============================================================================
// COMPLETER
// =============================================================================

// Completer handles tab completion for commands and arguments.
type Completer struct {
	registry *Registry

	// ModelsFn returns model names for ArgTypeModel completion. Set by the
	// application once the server has been listed.
	ModelsFn func() []string
}

// NewCompleter creates a completer for the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns completions for the given input at cursor position.
func (c *Completer) Complete(input string, cursorPos int) []Completion {
	if cursorPos > len(input) {
		cursorPos = len(input)
	}
	prefix := input[:cursorPos]

	trimmed := strings.TrimLeft(prefix, " \t")
	if !strings.HasPrefix(trimmed, "/") {
		return nil
	}

	// Completing the command name itself
	if !strings.ContainsAny(trimmed, " \t") {
		return c.completeCommands(trimmed)
	}

	// Completing an argument
	parts := splitCommandLine(trimmed)
	if len(parts) == 0 {
		return nil
	}

	cmd := c.registry.Get(parts[0])
	if cmd == nil {
		return nil
	}

	argIndex := len(parts) - 1
	partial := ""
	if !strings.HasSuffix(prefix, " ") && !strings.HasSuffix(prefix, "\t") {
		partial = parts[len(parts)-1]
	} else {
		argIndex = len(parts)
	}
	argIndex-- // parts[0] is the command name

	if argIndex < 0 || argIndex >= len(cmd.Args) {
		return nil
	}

	return c.completeArg(cmd.Args[argIndex], partial)
}

// completeCommands returns commands matching the partial name.
func (c *Completer) completeCommands(partial string) []Completion {
	var completions []Completion

	for _, cmd := range c.registry.All() {
		if cmd.Hidden {
			continue
		}

		score := calculateScore(cmd.Name, partial)
		if score > 0 {
			completions = append(completions, Completion{
				Value:       cmd.Name,
				Display:     cmd.Name,
				Description: cmd.Description,
				Score:       score,
			})
			continue
		}

		// Check aliases with a penalty so the primary name sorts first
		for _, alias := range cmd.Aliases {
			if s := calculateScore(alias, partial); s > 0 {
				completions = append(completions, Completion{
					Value:       cmd.Name,
					Display:     cmd.Name + " (" + alias + ")",
					Description: cmd.Description,
					Score:       s - 10,
				})
				break
			}
		}
	}

	sortCompletions(completions)
	return completions
}

// completeArg returns completions for a single argument definition.
func (c *Completer) completeArg(def ArgDef, partial string) []Completion {
	switch def.Type {
	case ArgTypeModel:
		if c.ModelsFn == nil {
			return nil
		}
		return completeFromList(c.ModelsFn(), partial)
	case ArgTypeEnum:
		return completeFromList(def.Values, partial)
	default:
		if def.Completer != nil {
			return completeFromList(def.Completer(), partial)
		}
		return nil
	}
}

// completeFromList scores each candidate against the partial input.
func completeFromList(values []string, partial string) []Completion {
	var completions []Completion
	for _, v := range values {
		if score := calculateScore(v, partial); score > 0 {
			completions = append(completions, Completion{
				Value:   v,
				Display: v,
				Score:   score,
			})
		}
	}
	sortCompletions(completions)
	return completions
}

// calculateScore ranks candidate against partial. Exact matches beat prefix
// matches, which beat substring matches; shorter candidates rank higher.
func calculateScore(candidate, partial string) int {
	if partial == "" {
		return 1
	}

	lc := strings.ToLower(candidate)
	lp := strings.ToLower(partial)

	switch {
	case lc == lp:
		return 100
	case strings.HasPrefix(lc, lp):
		score := 50 + (20 - len(candidate))
		if score < 50 {
			score = 50
		}
		return score
	case strings.Contains(lc, lp):
		score := 25 - len(candidate)/2
		if score < 1 {
			score = 1
		}
		return score
	default:
		return 0
	}
}

// sortCompletions orders by score descending, then value ascending.
func sortCompletions(completions []Completion) {
	sort.Slice(completions, func(i, j int) bool {
		if completions[i].Score != completions[j].Score {
			return completions[i].Score > completions[j].Score
		}
		return completions[i].Value < completions[j].Value
	})
}

// =============================================================================
// COMPLETION STATE
// =============================================================================

// CompletionState tracks active completion in the input UI.
type CompletionState struct {
	// Visible indicates the completion popup is showing
	Visible bool

	// Completions are the current suggestions
	Completions []Completion

	// Selected is the highlighted index
	Selected int

	// Prefix is the input that triggered completion
	Prefix string
}

// NewCompletionState creates an empty completion state.
func NewCompletionState() *CompletionState {
	return &CompletionState{}
}

// Update replaces the suggestions and resets the selection.
func (s *CompletionState) Update(prefix string, completions []Completion) {
	s.Prefix = prefix
	s.Completions = completions
	s.Selected = 0
	s.Visible = len(completions) > 0
}

// Next moves selection down, wrapping at the end.
func (s *CompletionState) Next() {
	if len(s.Completions) == 0 {
		return
	}
	s.Selected = (s.Selected + 1) % len(s.Completions)
}

// Prev moves selection up, wrapping at the start.
func (s *CompletionState) Prev() {
	if len(s.Completions) == 0 {
		return
	}
	s.Selected--
	if s.Selected < 0 {
		s.Selected = len(s.Completions) - 1
	}
}

// Accept returns the selected completion value, or empty if none.
func (s *CompletionState) Accept() string {
	if !s.Visible || s.Selected >= len(s.Completions) {
		return ""
	}
	return s.Completions[s.Selected].Value
}

// Clear hides the popup and drops the suggestions.
func (s *CompletionState) Clear() {
	s.Visible = false
	s.Completions = nil
	s.Selected = 0
	s.Prefix = ""
}

// Window returns up to max completions around the selection for rendering.
func (s *CompletionState) Window(max int) []Completion {
	if len(s.Completions) <= max {
		return s.Completions
	}

	start := 0
	if s.Selected >= max {
		start = s.Selected - max + 1
	}
	end := start + max
	if end > len(s.Completions) {
		end = len(s.Completions)
	}
	return s.Completions[start:end]
}
