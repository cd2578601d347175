// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// doctor.go - Doctor command implementation for murmur.
//
// Command: doctor [subcommand]
// Short:   Run system health checks and diagnostics
//
// Subcommands:
//   (default)           Run all health checks
//   fix                 Run checks and attempt auto-fixes
//
// Examples:
//   murmur doctor                Run all health checks
//   murmur doctor --json         Health check results in JSON
//   murmur doctor --fix          Run checks and attempt auto-fixes
//
// Health Checks Performed:
//   1. Ollama Installed   - Checks if the Ollama CLI is available
//   2. Server Running     - Checks if the Ollama server is responding
//   3. Model Available    - Checks if the configured model is downloaded
//   4. Config Valid       - Validates the configuration file
//   5. Data Dir Writable  - Checks ~/.murmur permissions
//   6. Terminal           - Checks TTY and color support for the TUI
//   7. GPU Acceleration   - Reports the host GPU (warns on CPU-only)
//   8. Speech checks      - Recognizer, synthesizer, and audio binaries
//                           (only when speech is enabled in config)
//
// Auto-Fix Examples:
//   - Missing Ollama:     Suggests installation command
//   - Server not running: Suggests "ollama serve"
//   - Missing model:      Suggests "ollama pull <model>"
//
// Exit Codes:
//   0   All checks passed
//   1   One or more checks failed
package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"

	"github.com/jeranaias/murmur/internal/config"
	"github.com/jeranaias/murmur/internal/detect"
	"github.com/jeranaias/murmur/internal/ollama"
	"github.com/jeranaias/murmur/internal/speech"
)

// =============================================================================
// DOCTOR STYLES
// =============================================================================

var (
	// Doctor title style
	doctorTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")). // Cyan
				MarginBottom(1)

	// Check pass style (green)
	checkPassStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)

	// Check warn style (yellow)
	checkWarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	// Check fail style (red)
	checkFailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// Check message style
	checkMsgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	// Fix suggestion style
	fixStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true).
			PaddingLeft(2)

	// Summary style
	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// =============================================================================
// HEALTH CHECK TYPES
// =============================================================================

// CheckStatus represents the status of a health check.
type CheckStatus int

const (
	// CheckPass indicates the check passed successfully.
	CheckPass CheckStatus = iota
	// CheckWarn indicates the check passed with warnings.
	CheckWarn
	// CheckFail indicates the check failed.
	CheckFail
)

// String returns the string representation of the check status.
func (s CheckStatus) String() string {
	switch s {
	case CheckPass:
		return "Pass"
	case CheckWarn:
		return "Warn"
	case CheckFail:
		return "Fail"
	default:
		return "Unknown"
	}
}

// Symbol returns the styled symbol for the check status.
func (s CheckStatus) Symbol() string {
	switch s {
	case CheckPass:
		return checkPassStyle.Render("[OK]")
	case CheckWarn:
		return checkWarnStyle.Render("[!!]")
	case CheckFail:
		return checkFailStyle.Render("[FAIL]")
	default:
		return "?"
	}
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // Suggested fix command or instruction
}

// Render returns a formatted string representation of the health check.
func (c *HealthCheck) Render() string {
	result := fmt.Sprintf("%s %s", c.Status.Symbol(), checkMsgStyle.Render(c.Message))
	if c.Status != CheckPass && c.Fix != "" {
		result += "\n" + fixStyle.Render("-> "+c.Fix)
	}
	return result
}

// allowedFixCommands defines a whitelist of permitted fix commands.
// Each key is a fix pattern, and the value is the safe command to execute.
// This prevents command injection by only allowing predefined commands.
var allowedFixCommands = map[string][]string{
	// Ollama installation and service management
	"brew install ollama": {"brew", "install", "ollama"},
	"ollama serve":        {"ollama", "serve"},

	// Ollama install script (Linux/macOS)
	"curl -fsSL https://ollama.ai/install.sh | sh": {"sh", "-c", "curl -fsSL https://ollama.ai/install.sh | sh"},
}

// isAllowedFixCommand checks if a fix command matches a whitelisted pattern.
// Returns the safe command arguments if allowed, nil otherwise.
func isAllowedFixCommand(fixCmd string) []string {
	normalized := strings.TrimSpace(fixCmd)

	// Check for exact match in whitelist
	if args, ok := allowedFixCommands[normalized]; ok {
		return args
	}

	// Check for ollama pull commands (dynamic model names)
	if strings.HasPrefix(normalized, "ollama pull ") {
		modelName := strings.TrimPrefix(normalized, "ollama pull ")
		modelName = strings.TrimSpace(modelName)

		// Validate model name format: alphanumeric, dash, underscore, colon, dot only
		// This prevents command injection through model names
		for _, ch := range modelName {
			if !((ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
				(ch >= '0' && ch <= '9') || ch == '-' || ch == '_' ||
				ch == ':' || ch == '.') {
				return nil
			}
		}

		return []string{"ollama", "pull", modelName}
	}

	return nil
}

// TryFix attempts to automatically fix the issue if possible.
// Uses a whitelist approach to prevent command injection vulnerabilities.
func (c *HealthCheck) TryFix() error {
	if c.Fix == "" || c.Status == CheckPass {
		return nil
	}

	// Extract the actual command from the Fix string
	fixCmd := c.Fix

	// Check for "Run:" prefix and extract command
	if strings.HasPrefix(fixCmd, "Run: ") {
		fixCmd = strings.TrimPrefix(fixCmd, "Run: ")
	} else if strings.HasPrefix(fixCmd, "Restart Ollama: ") {
		fixCmd = strings.TrimPrefix(fixCmd, "Restart Ollama: ")
	} else {
		// Not an auto-fixable command (manual instructions only)
		return fmt.Errorf("manual fix required: %s", c.Fix)
	}

	fixCmd = strings.TrimSpace(fixCmd)

	// Check if command is in whitelist
	args := isAllowedFixCommand(fixCmd)
	if args == nil {
		return fmt.Errorf("fix command not permitted: %s", fixCmd)
	}

	fmt.Printf("  Attempting fix: %s\n", fixCmd)

	// Execute the whitelisted command
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("fix failed: %w", err)
	}

	return nil
}

// =============================================================================
// HANDLE DOCTOR
// =============================================================================

// HandleDoctor handles the "doctor" command.
// Runs system health checks and optionally attempts auto-fixes.
func HandleDoctor(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	if args.NoSpeech {
		cfg.Speech.Enabled = false
	}

	// Run all checks
	checks := runAllChecks(cfg)

	// Count results
	passed := 0
	warned := 0
	failed := 0
	for _, check := range checks {
		switch check.Status {
		case CheckPass:
			passed++
		case CheckWarn:
			warned++
		case CheckFail:
			failed++
		}
	}

	// JSON output mode for scripting
	if args.JSON {
		return handleDoctorJSON(checks, passed, warned, failed)
	}

	// Human-readable output
	separator := strings.Repeat("=", 41)
	fmt.Println()
	fmt.Println(doctorTitleStyle.Render("murmur Doctor"))
	fmt.Println(SeparatorStyle.Render(separator))
	fmt.Println()

	// Display results
	for _, check := range checks {
		fmt.Println(check.Render())
	}

	// Summary line
	fmt.Println()
	fmt.Println(SeparatorStyle.Render(strings.Repeat("-", 41)))

	summaryParts := []string{
		fmt.Sprintf("%d passed", passed),
	}
	if warned > 0 {
		summaryParts = append(summaryParts, checkWarnStyle.Render(fmt.Sprintf("%d warning", warned)))
	}
	if failed > 0 {
		summaryParts = append(summaryParts, checkFailStyle.Render(fmt.Sprintf("%d failed", failed)))
	}

	fmt.Println(summaryStyle.Render(strings.Join(summaryParts, ", ")))
	fmt.Println()

	// Auto-fix if requested
	if args.Subcommand == "fix" && (warned > 0 || failed > 0) {
		fmt.Println(doctorTitleStyle.Render("Attempting Auto-Fix..."))
		fmt.Println()

		for _, check := range checks {
			if check.Status != CheckPass && check.Fix != "" {
				if err := check.TryFix(); err != nil {
					fmt.Printf("  %s Could not fix %s: %s\n",
						checkWarnStyle.Render("[!!]"),
						check.Name,
						err)
				} else {
					fmt.Printf("  %s Fixed %s\n",
						checkPassStyle.Render("[OK]"),
						check.Name)
				}
			}
		}
		fmt.Println()
	}

	// Return error if there are failures
	if failed > 0 {
		return fmt.Errorf("%d health check(s) failed", failed)
	}

	return nil
}

// handleDoctorJSON outputs doctor results in JSON format.
func handleDoctorJSON(checks []*HealthCheck, passed, warned, failed int) error {
	// Convert checks to JSON-friendly format
	jsonChecks := make([]DoctorCheck, 0, len(checks))
	for _, check := range checks {
		status := "pass"
		switch check.Status {
		case CheckWarn:
			status = "warn"
		case CheckFail:
			status = "fail"
		}

		jsonChecks = append(jsonChecks, DoctorCheck{
			Name:    check.Name,
			Status:  status,
			Message: check.Message,
			Fix:     check.Fix,
		})
	}

	data := DoctorData{
		Checks: jsonChecks,
		Summary: DoctorSummary{
			Passed:  passed,
			Warned:  warned,
			Failed:  failed,
			Healthy: failed == 0,
		},
	}

	resp := NewJSONResponse("doctor", data)

	// If there are failures, mark as unsuccessful but still output data
	if failed > 0 {
		errMsg := fmt.Sprintf("%d health check(s) failed", failed)
		resp.Success = false
		resp.Error = &errMsg
	}

	return resp.Print()
}

// =============================================================================
// HEALTH CHECK FUNCTIONS
// =============================================================================

// runAllChecks runs all health checks and returns the results.
func runAllChecks(cfg *config.Config) []*HealthCheck {
	var checks []*HealthCheck

	// 1. Check Ollama installed
	checks = append(checks, checkOllamaInstalled())

	// 2. Check server running
	checks = append(checks, checkServerRunning(cfg))

	// 3. Check model available
	checks = append(checks, checkModelAvailable(cfg))

	// 4. Check config valid
	checks = append(checks, checkConfigValid())

	// 5. Check data directory writable
	checks = append(checks, checkDataDirWritable())

	// 6. Check terminal capabilities
	checks = append(checks, checkTerminal())

	// 7. Check GPU acceleration
	checks = append(checks, checkGPU())

	// 8. Speech checks (only when enabled)
	if cfg.Speech.Enabled {
		checks = append(checks, checkRecognizerReachable(cfg))
		checks = append(checks, checkSynthesizerReady(cfg))
		checks = append(checks, checkAudioBinaries(cfg))
	} else {
		checks = append(checks, &HealthCheck{
			Name:    "Speech",
			Status:  CheckPass,
			Message: "Speech disabled in config (checks skipped)",
		})
	}

	return checks
}

// checkOllamaInstalled checks if the Ollama CLI is installed.
func checkOllamaInstalled() *HealthCheck {
	check := &HealthCheck{
		Name: "Ollama Installed",
	}

	// Try to run ollama --version
	cmd := exec.Command("ollama", "--version")
	output, err := cmd.Output()

	if err != nil {
		check.Status = CheckFail
		check.Message = "Ollama not installed"
		if runtime.GOOS == "windows" {
			check.Fix = "Download from https://ollama.ai/download"
		} else if runtime.GOOS == "darwin" {
			check.Fix = "Run: brew install ollama"
		} else {
			check.Fix = "Run: curl -fsSL https://ollama.ai/install.sh | sh"
		}
		return check
	}

	// Parse version
	versionStr := strings.TrimSpace(string(output))
	parts := strings.Fields(versionStr)
	version := "unknown"
	if len(parts) > 0 {
		version = parts[len(parts)-1]
	}

	check.Status = CheckPass
	check.Message = fmt.Sprintf("Ollama installed (v%s)", version)
	return check
}

// checkServerRunning checks if the Ollama server is responding.
func checkServerRunning(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{
		Name: "Server Running",
	}

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL: cfg.Server.URL,
		Timeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.CheckRunning(ctx); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Server not responding at %s", cfg.Server.URL)
		check.Fix = "Run: ollama serve"
		return check
	}

	check.Status = CheckPass
	check.Message = fmt.Sprintf("Server running at %s", cfg.Server.URL)
	return check
}

// checkModelAvailable checks if the configured model is downloaded.
func checkModelAvailable(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{
		Name: "Model Available",
	}

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      cfg.Server.URL,
		Timeout:      5 * time.Second,
		DefaultModel: cfg.DefaultModel,
	})

	modelName := cfg.DefaultModel
	if modelName == "" {
		modelName = client.DefaultModel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	models, err := client.ListModels(ctx)
	if err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Could not check model: %s", err)
		check.Fix = fmt.Sprintf("Run: ollama pull %s", modelName)
		return check
	}

	// Check if model exists (exact name or same base with a tag)
	found := false
	for _, m := range models {
		if m.Name == modelName || strings.HasPrefix(m.Name, modelName+":") {
			found = true
			break
		}
	}

	if !found {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Model not downloaded: %s", modelName)
		check.Fix = fmt.Sprintf("Run: ollama pull %s", modelName)
		return check
	}

	check.Status = CheckPass
	check.Message = fmt.Sprintf("Model available: %s", modelName)
	return check
}

// checkConfigValid checks if the configuration file is valid.
func checkConfigValid() *HealthCheck {
	check := &HealthCheck{
		Name: "Config Valid",
	}

	path, err := config.ConfigPathTOML()
	if err != nil {
		check.Status = CheckWarn
		check.Message = "Could not determine config path"
		return check
	}

	// Check if config file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		check.Status = CheckPass
		check.Message = "Config valid (using defaults)"
		return check
	}

	// Try to load config
	if _, err := config.Load(); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Config invalid: %s", err)
		check.Fix = fmt.Sprintf("Edit %s or delete it to use defaults", path)
		return check
	}

	check.Status = CheckPass
	check.Message = "Config valid"
	return check
}

// checkDataDirWritable checks if ~/.murmur is writable.
func checkDataDirWritable() *HealthCheck {
	check := &HealthCheck{
		Name: "Data Dir Writable",
	}

	dir, err := config.ConfigDir()
	if err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Could not determine data directory: %s", err)
		return check
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Could not create data directory: %s", err)
		check.Fix = fmt.Sprintf("Create manually: mkdir -p %s", dir)
		return check
	}

	// Try to write a test file
	testFile := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		check.Status = CheckFail
		check.Message = fmt.Sprintf("Data directory not writable: %s", err)
		check.Fix = fmt.Sprintf("Check permissions: chmod 755 %s", dir)
		return check
	}
	os.Remove(testFile)

	check.Status = CheckPass
	check.Message = "Data directory writable"
	return check
}

// checkTerminal checks TTY and color support for the TUI.
func checkTerminal() *HealthCheck {
	check := &HealthCheck{
		Name: "Terminal",
	}

	caps := GetTerminalCapabilities()
	if !caps.IsTTY || !caps.IsStdoutTTY {
		check.Status = CheckWarn
		check.Message = "Not a terminal (TUI unavailable, ask/chat still work piped)"
		return check
	}

	colorDesc := "no color"
	switch {
	case caps.SupportsTrueColor:
		colorDesc = "true color"
	case caps.Supports256Color:
		colorDesc = "256 colors"
	case caps.ColorsEnabled:
		colorDesc = "basic colors"
	}

	check.Status = CheckPass
	check.Message = fmt.Sprintf("Terminal OK (%dx%d, %s)", caps.Width, caps.Height, colorDesc)
	return check
}

// checkGPU reports the host's acceleration. CPU-only is a warning, not a
// failure: inference works, just slowly.
func checkGPU() *HealthCheck {
	check := &HealthCheck{
		Name: "GPU Acceleration",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	gpu := detect.Probe(ctx)
	if gpu.Kind == detect.KindCPU {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("No GPU detected, %s (inference will be slow)", gpu)
		return check
	}

	check.Status = CheckPass
	check.Message = fmt.Sprintf("GPU found: %s", gpu)
	return check
}

// checkRecognizerReachable checks if the speech-to-text daemon accepts
// websocket connections.
func checkRecognizerReachable(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{
		Name: "Recognizer Reachable",
	}

	url := cfg.Speech.RecognizerURL
	if url == "" {
		url = "ws://127.0.0.1:2700"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Recognizer not reachable at %s", url)
		check.Fix = "Start the recognition daemon (vosk-server) and check speech.recognizer_url"
		return check
	}
	conn.Close()

	check.Status = CheckPass
	check.Message = fmt.Sprintf("Recognizer reachable at %s", url)
	return check
}

// checkSynthesizerReady checks if the text-to-speech sidecar reports ready.
func checkSynthesizerReady(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{
		Name: "Synthesizer Ready",
	}

	synth := speech.NewHTTPSynthesizer(speech.SynthesizerConfig{
		BaseURL: cfg.Speech.SynthesizerURL,
		Timeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := synth.CheckReady(ctx); err != nil {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Synthesizer not ready: %s", err)
		check.Fix = "Run: murmur-ttsd (or disable speak replies with /speak off)"
		return check
	}

	check.Status = CheckPass
	check.Message = "Synthesizer ready"
	return check
}

// checkAudioBinaries checks that the capture and playback binaries exist.
func checkAudioBinaries(cfg *config.Config) *HealthCheck {
	check := &HealthCheck{
		Name: "Audio Binaries",
	}

	recorder := cfg.Speech.Recorder
	if recorder == "" {
		recorder = "arecord"
	}
	player := cfg.Speech.Player
	if player == "" {
		player = "aplay"
	}

	var missing []string
	if _, err := exec.LookPath(recorder); err != nil {
		missing = append(missing, recorder)
	}
	if _, err := exec.LookPath(player); err != nil {
		missing = append(missing, player)
	}

	if len(missing) > 0 {
		check.Status = CheckWarn
		check.Message = fmt.Sprintf("Missing audio binaries: %s", strings.Join(missing, ", "))
		if runtime.GOOS == "darwin" {
			check.Fix = "Install sox (brew install sox) and set speech.recorder/player"
		} else {
			check.Fix = "Install alsa-utils (provides arecord and aplay)"
		}
		return check
	}

	check.Status = CheckPass
	check.Message = fmt.Sprintf("Audio binaries found (%s, %s)", recorder, player)
	return check
}
