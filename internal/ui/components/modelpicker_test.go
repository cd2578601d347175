// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual building blocks for the murmur TUI.
package components

import (
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/murmur/internal/ollama"
	"github.com/jeranaias/murmur/internal/ui/styles"
)

func testModels() []ollama.ModelInfo {
	return []ollama.ModelInfo{
		{Name: "llama3.2", Size: 2 * 1024 * 1024 * 1024, ModifiedAt: time.Now().Add(-48 * time.Hour)},
		{Name: "qwen2.5:14b", Size: 9 * 1024 * 1024 * 1024, ModifiedAt: time.Now().Add(-2 * time.Hour)},
		{Name: "mistral", Size: 4 * 1024 * 1024 * 1024, ModifiedAt: time.Now().Add(-30 * time.Minute)},
	}
}

// =============================================================================
// MODEL PICKER STATE TESTS
// =============================================================================

func TestModelPickerShowHide(t *testing.T) {
	p := NewModelPicker(styles.NewTheme())

	if p.IsVisible() {
		t.Error("new picker should start hidden")
	}

	p.Show("llama3.2")
	if !p.IsVisible() {
		t.Error("Show() should make the picker visible")
	}

	p.Hide()
	if p.IsVisible() {
		t.Error("Hide() should hide the picker")
	}
}

func TestModelPickerCursorOnCurrent(t *testing.T) {
	p := NewModelPicker(styles.NewTheme())
	p.Show("qwen2.5:14b")
	p.SetModels(testModels())

	selected, ok := p.Selected()
	if !ok {
		t.Fatal("Selected() should return an entry")
	}
	if selected.Name != "qwen2.5:14b" {
		t.Errorf("cursor should start on the active model, got %q", selected.Name)
	}
}

func TestModelPickerNavigation(t *testing.T) {
	p := NewModelPicker(styles.NewTheme())
	p.Show("llama3.2")
	p.SetModels(testModels())

	// Cursor starts at index 0; up from the top stays put
	p.MoveUp()
	if sel, _ := p.Selected(); sel.Name != "llama3.2" {
		t.Errorf("MoveUp at top moved the cursor to %q", sel.Name)
	}

	p.MoveDown()
	if sel, _ := p.Selected(); sel.Name != "qwen2.5:14b" {
		t.Errorf("MoveDown should land on the second entry, got %q", sel.Name)
	}

	// Down past the end clamps
	p.MoveDown()
	p.MoveDown()
	p.MoveDown()
	if sel, _ := p.Selected(); sel.Name != "mistral" {
		t.Errorf("MoveDown past the end should clamp to last entry, got %q", sel.Name)
	}
}

func TestModelPickerSelectedEmpty(t *testing.T) {
	p := NewModelPicker(styles.NewTheme())
	p.Show("")
	p.SetModels(nil)

	if _, ok := p.Selected(); ok {
		t.Error("Selected() should report no entry for an empty list")
	}
}

// =============================================================================
// MODEL PICKER RENDER TESTS
// =============================================================================

func TestModelPickerViewLoading(t *testing.T) {
	p := NewModelPicker(styles.NewTheme())
	p.Show("llama3.2")
	p.SetSize(80, 24)

	out := p.View()
	if !strings.Contains(out, "Loading") {
		t.Errorf("picker should show its loading state: %q", out)
	}
}

func TestModelPickerViewList(t *testing.T) {
	p := NewModelPicker(styles.NewTheme())
	p.Show("llama3.2")
	p.SetModels(testModels())
	p.SetSize(80, 24)

	out := p.View()
	for _, name := range []string{"llama3.2", "qwen2.5:14b", "mistral"} {
		if !strings.Contains(out, name) {
			t.Errorf("picker missing model %q: %q", name, out)
		}
	}
	// Sizes are displayed
	if !strings.Contains(out, "GB") {
		t.Errorf("picker should show model sizes: %q", out)
	}
	// Active model marker
	if !strings.Contains(out, "* llama3.2") {
		t.Errorf("picker should mark the active model: %q", out)
	}
}

func TestModelPickerViewError(t *testing.T) {
	p := NewModelPicker(styles.NewTheme())
	p.Show("llama3.2")
	p.SetError("server unreachable")
	p.SetSize(80, 24)

	out := p.View()
	if !strings.Contains(out, "server unreachable") {
		t.Errorf("picker should show the load error: %q", out)
	}
}

func TestModelPickerViewEmpty(t *testing.T) {
	p := NewModelPicker(styles.NewTheme())
	p.Show("")
	p.SetModels([]ollama.ModelInfo{})
	p.SetSize(80, 24)

	out := p.View()
	if !strings.Contains(out, "No models installed") {
		t.Errorf("picker should explain an empty list: %q", out)
	}
}

// =============================================================================
// AGE FORMAT TESTS
// =============================================================================

func TestShortAge(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{30 * time.Minute, "30m"},
		{3 * time.Hour, "3h"},
		{49 * time.Hour, "2d"},
	}

	for _, tc := range tests {
		got := shortAge(time.Now().Add(-tc.age))
		if got != tc.want {
			t.Errorf("shortAge(now-%v) = %q, want %q", tc.age, got, tc.want)
		}
	}

	if got := shortAge(time.Time{}); got != "" {
		t.Errorf("shortAge(zero) = %q, want empty", got)
	}
}
