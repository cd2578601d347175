// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Status command implementation for murmur.
//
// Command: status
// Short:   Display comprehensive system status
// Aliases: s
//
// Examples:
//   murmur status                 Show system status
//   murmur s                      Show status (short alias)
//   murmur status --json          Status in JSON format
//
// Status Sections:
//   Server:      Ollama reachability, version, effective model
//   Speech:      Recognizer/synthesizer endpoints, audio binaries
//   Preferences: Persisted model, voice, speak-replies toggle
//   Config:      Configuration file path
//
// Flags:
//   --json              Output in JSON format
package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/murmur/internal/config"
	"github.com/jeranaias/murmur/internal/ollama"
	"github.com/jeranaias/murmur/internal/prefs"
	"github.com/jeranaias/murmur/internal/speech"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	// Title style for the header
	statusTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")). // Cyan
				MarginBottom(1)

	// Section header style
	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")). // White
			MarginTop(1)

	// Label style for field names
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")). // Light gray
			Width(14)

	// Value styles
	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")) // White

	valueGreenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")) // Green

	valueYellowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("220")) // Yellow

	valueRedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // Red

	valueDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")) // Dim

	// Separator line
	statusSeparatorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))
)

// =============================================================================
// HANDLE STATUS
// =============================================================================

// HandleStatus handles the "status" command.
// Displays server, speech, and preference status.
func HandleStatus(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}

	// JSON output mode for scripting
	if args.JSON {
		return handleStatusJSON(cfg)
	}

	// Print header
	separator := strings.Repeat("=", 41)
	fmt.Println()
	fmt.Println(statusTitleStyle.Render("murmur Status"))
	fmt.Println(statusSeparatorStyle.Render(separator))
	fmt.Println()

	// Server section
	fmt.Println(sectionStyle.Render("Server"))
	fmt.Println(formatServerStatus(cfg))
	fmt.Println()

	// Speech section
	fmt.Println(sectionStyle.Render("Speech"))
	fmt.Println(formatSpeechStatus(cfg))
	fmt.Println()

	// Preferences section
	fmt.Println(sectionStyle.Render("Preferences"))
	fmt.Println(formatPrefsStatus(cfg))
	fmt.Println()

	// Config section
	fmt.Println(sectionStyle.Render("Config"))
	fmt.Println(formatConfigStatus())
	fmt.Println()

	return nil
}

// handleStatusJSON outputs status information in JSON format.
func handleStatusJSON(cfg *config.Config) error {
	data := StatusData{
		Server:      collectServerInfo(cfg),
		Speech:      collectSpeechInfo(cfg),
		Preferences: collectPrefsInfo(cfg),
	}

	if path, err := config.ConfigPathTOML(); err == nil {
		data.ConfigPath = path
	}

	resp := NewJSONResponse("status", data)
	return resp.Print()
}

// collectServerInfo gathers server information for JSON output.
func collectServerInfo(cfg *config.Config) StatusServerInfo {
	info := StatusServerInfo{URL: cfg.Server.URL}

	client := serverClient(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.CheckRunning(ctx); err == nil {
		info.Reachable = true
		if models, err := client.ListModels(ctx); err == nil {
			info.Models = len(models)
		}
	}

	info.Model = effectiveModel(cfg)
	return info
}

// collectSpeechInfo gathers speech subsystem information for JSON output.
func collectSpeechInfo(cfg *config.Config) StatusSpeechInfo {
	info := StatusSpeechInfo{
		Enabled:        cfg.Speech.Enabled,
		RecognizerURL:  cfg.Speech.RecognizerURL,
		SynthesizerURL: cfg.Speech.SynthesizerURL,
		Recorder:       cfg.Speech.Recorder,
		Player:         cfg.Speech.Player,
	}

	if _, err := exec.LookPath(info.Recorder); err == nil {
		info.RecorderFound = true
	}
	if _, err := exec.LookPath(info.Player); err == nil {
		info.PlayerFound = true
	}

	if cfg.Speech.Enabled {
		info.SynthesizerReady = synthesizerReady(cfg)
	}

	return info
}

// collectPrefsInfo gathers persisted preferences for JSON output.
func collectPrefsInfo(cfg *config.Config) StatusPrefsInfo {
	p, ok := loadPrefsSnapshot(context.Background())
	if !ok {
		return StatusPrefsInfo{Voice: cfg.Speech.Voice}
	}
	return StatusPrefsInfo{
		Model:        p.Model,
		Voice:        p.Voice,
		SpeakReplies: p.SpeakReplies,
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatServerStatus returns the formatted server section.
func formatServerStatus(cfg *config.Config) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("  %s%s",
		labelStyle.Render("URL:"),
		valueStyle.Render(cfg.Server.URL)))

	client := serverClient(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var running bool
	var statusStr string
	if err := client.CheckRunning(ctx); err != nil {
		statusStr = valueRedStyle.Render("Not running")
	} else {
		running = true
		if version := getOllamaVersion(); version != "" {
			statusStr = valueGreenStyle.Render(fmt.Sprintf("Running (v%s)", version))
		} else {
			statusStr = valueGreenStyle.Render("Running")
		}
	}
	lines = append(lines, fmt.Sprintf("  %s%s", labelStyle.Render("Ollama:"), statusStr))

	// Effective model and its availability
	modelName := effectiveModel(cfg)
	var modelStr string
	if running {
		models, err := client.ListModels(ctx)
		available := false
		if err == nil {
			for _, m := range models {
				if m.Name == modelName || strings.HasPrefix(m.Name, modelName+":") {
					available = true
					break
				}
			}
		}
		if available {
			modelStr = valueStyle.Render(fmt.Sprintf("%s (available)", modelName))
		} else {
			modelStr = valueYellowStyle.Render(fmt.Sprintf("%s (not downloaded)", modelName))
		}
		if err == nil {
			lines = append(lines, fmt.Sprintf("  %s%s",
				labelStyle.Render("Models:"),
				valueStyle.Render(fmt.Sprintf("%d available", len(models)))))
		}
	} else {
		modelStr = valueDimStyle.Render(modelName)
	}
	lines = append(lines, fmt.Sprintf("  %s%s", labelStyle.Render("Model:"), modelStr))

	return strings.Join(lines, "\n")
}

// formatSpeechStatus returns the formatted speech section.
func formatSpeechStatus(cfg *config.Config) string {
	var lines []string

	enabledStr := valueDimStyle.Render("Disabled")
	if cfg.Speech.Enabled {
		enabledStr = valueGreenStyle.Render("Enabled")
	}
	lines = append(lines, fmt.Sprintf("  %s%s", labelStyle.Render("Speech:"), enabledStr))

	if !cfg.Speech.Enabled {
		return strings.Join(lines, "\n")
	}

	lines = append(lines, fmt.Sprintf("  %s%s",
		labelStyle.Render("Recognizer:"),
		valueStyle.Render(cfg.Speech.RecognizerURL)))

	synthStr := valueYellowStyle.Render(fmt.Sprintf("%s (not ready)", cfg.Speech.SynthesizerURL))
	if synthesizerReady(cfg) {
		synthStr = valueGreenStyle.Render(fmt.Sprintf("%s (ready)", cfg.Speech.SynthesizerURL))
	}
	lines = append(lines, fmt.Sprintf("  %s%s", labelStyle.Render("Synthesizer:"), synthStr))

	lines = append(lines, fmt.Sprintf("  %s%s",
		labelStyle.Render("Recorder:"),
		formatBinaryStatus(cfg.Speech.Recorder)))
	lines = append(lines, fmt.Sprintf("  %s%s",
		labelStyle.Render("Player:"),
		formatBinaryStatus(cfg.Speech.Player)))

	return strings.Join(lines, "\n")
}

// formatPrefsStatus returns the formatted preferences section.
func formatPrefsStatus(cfg *config.Config) string {
	var lines []string

	p, ok := loadPrefsSnapshot(context.Background())
	if !ok {
		lines = append(lines, fmt.Sprintf("  %s%s",
			labelStyle.Render("Store:"),
			valueDimStyle.Render("unavailable (in use by a running murmur?)")))
		return strings.Join(lines, "\n")
	}

	modelStr := valueDimStyle.Render("(none saved)")
	if p.Model != "" {
		modelStr = valueStyle.Render(p.Model)
	}
	lines = append(lines, fmt.Sprintf("  %s%s", labelStyle.Render("Model:"), modelStr))

	voice := p.Voice
	if voice == "" {
		voice = cfg.Speech.Voice
	}
	voiceStr := valueDimStyle.Render("(default)")
	if voice != "" {
		voiceStr = valueStyle.Render(voice)
	}
	lines = append(lines, fmt.Sprintf("  %s%s", labelStyle.Render("Voice:"), voiceStr))

	speakStr := valueDimStyle.Render("Off")
	if p.SpeakReplies {
		speakStr = valueGreenStyle.Render("On")
	}
	lines = append(lines, fmt.Sprintf("  %s%s", labelStyle.Render("Speak:"), speakStr))

	return strings.Join(lines, "\n")
}

// formatConfigStatus returns the formatted config section.
func formatConfigStatus() string {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return fmt.Sprintf("  %s%s",
			labelStyle.Render("Path:"),
			valueDimStyle.Render("unknown"))
	}

	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return fmt.Sprintf("  %s%s",
			labelStyle.Render("Path:"),
			valueDimStyle.Render(fmt.Sprintf("%s (defaults)", path)))
	}

	return fmt.Sprintf("  %s%s",
		labelStyle.Render("Path:"),
		valueStyle.Render(path))
}

// formatBinaryStatus renders a binary name with a found/missing marker.
func formatBinaryStatus(name string) string {
	if name == "" {
		return valueDimStyle.Render("(not set)")
	}
	if _, err := exec.LookPath(name); err != nil {
		return valueYellowStyle.Render(fmt.Sprintf("%s (missing)", name))
	}
	return valueStyle.Render(fmt.Sprintf("%s (found)", name))
}

// serverClient builds an Ollama client from config with a short timeout.
func serverClient(cfg *config.Config) *ollama.Client {
	return ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      cfg.Server.URL,
		Timeout:      3 * time.Second,
		DefaultModel: cfg.DefaultModel,
	})
}

// effectiveModel resolves the model that a new session would use:
// the persisted preference first, then the configured default.
func effectiveModel(cfg *config.Config) string {
	if p, ok := loadPrefsSnapshot(context.Background()); ok && p.Model != "" {
		return p.Model
	}
	if cfg.DefaultModel != "" {
		return cfg.DefaultModel
	}
	return serverClient(cfg).DefaultModel()
}

// synthesizerReady probes the synthesis sidecar health endpoint.
func synthesizerReady(cfg *config.Config) bool {
	synth := speech.NewHTTPSynthesizer(speech.SynthesizerConfig{
		BaseURL: cfg.Speech.SynthesizerURL,
		Timeout: 3 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return synth.CheckReady(ctx) == nil
}

// getOllamaVersion attempts to get the Ollama version from the CLI.
func getOllamaVersion() string {
	cmd := exec.Command("ollama", "--version")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}

	// Parse version string - typically "ollama version 0.5.4"
	parts := strings.Fields(string(output))
	if len(parts) > 0 {
		return strings.TrimSpace(parts[len(parts)-1])
	}
	return ""
}

// loadPrefsSnapshot opens the preference store briefly and reads the
// persisted record. Returns false when the store cannot be opened, which
// usually means another murmur process holds it.
func loadPrefsSnapshot(ctx context.Context) (prefs.Preferences, bool) {
	dir, err := config.ConfigDir()
	if err != nil {
		return prefs.Preferences{}, false
	}

	store, err := prefs.OpenBadger(prefs.BadgerOptions{Dir: filepath.Join(dir, "prefs")})
	if err != nil {
		return prefs.Preferences{}, false
	}
	defer store.Close()

	p, err := prefs.Load(ctx, store)
	if err != nil {
		return prefs.Preferences{}, false
	}
	return p, true
}
