// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// TestConfig_Default tests that Default() returns a valid config with defaults.
func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
	if cfg.Version == "" {
		t.Error("Default config should have a version")
	}
	if cfg.DefaultModel != "llama3.2" {
		t.Errorf("Expected default model 'llama3.2', got '%s'", cfg.DefaultModel)
	}
	if cfg.Server.URL == "" {
		t.Error("Default config should have a server URL")
	}
	if cfg.Speech.SampleRate == 0 {
		t.Error("Default config should have a sample rate")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() config failed validation: %v", err)
	}
}

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid default config",
			config:  Default(),
			wantErr: false,
		},
		{
			name: "invalid server url",
			config: func() *Config {
				c := Default()
				c.Server.URL = "not a url"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "timeout below minimum",
			config: func() *Config {
				c := Default()
				c.Server.TimeoutSecs = 0
				return c
			}(),
			wantErr: true,
		},
		{
			name: "timeout above maximum",
			config: func() *Config {
				c := Default()
				c.Server.TimeoutSecs = 700
				return c
			}(),
			wantErr: true,
		},
		{
			name: "recognizer url with http scheme",
			config: func() *Config {
				c := Default()
				c.Speech.RecognizerURL = "http://127.0.0.1:2700"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "synthesizer url with ws scheme",
			config: func() *Config {
				c := Default()
				c.Speech.SynthesizerURL = "ws://127.0.0.1:3001"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "sample rate too low",
			config: func() *Config {
				c := Default()
				c.Speech.SampleRate = 4000
				return c
			}(),
			wantErr: true,
		},
		{
			name: "invalid theme",
			config: func() *Config {
				c := Default()
				c.UI.Theme = "invalid"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "wrap width too narrow",
			config: func() *Config {
				c := Default()
				c.UI.WrapWidth = 10
				return c
			}(),
			wantErr: true,
		},
		{
			name: "wrap width zero means terminal width",
			config: func() *Config {
				c := Default()
				c.UI.WrapWidth = 0
				return c
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestConfig_LoadFromPathTOML tests loading a partial TOML file, with
// defaults filling the gaps.
func TestConfig_LoadFromPathTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
default_model = "mistral"

[server]
url = "http://127.0.0.1:9999"

[speech]
voice = "3"

[ui]
theme = "light"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if cfg.DefaultModel != "mistral" {
		t.Errorf("DefaultModel = %q, want 'mistral'", cfg.DefaultModel)
	}
	if cfg.Server.URL != "http://127.0.0.1:9999" {
		t.Errorf("Server.URL = %q, want override", cfg.Server.URL)
	}
	if cfg.Speech.Voice != "3" {
		t.Errorf("Speech.Voice = %q, want '3'", cfg.Speech.Voice)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("UI.Theme = %q, want 'light'", cfg.UI.Theme)
	}

	// Unset fields fall back to defaults.
	if cfg.Server.TimeoutSecs != 30 {
		t.Errorf("Server.TimeoutSecs = %d, want default 30", cfg.Server.TimeoutSecs)
	}
	if cfg.Speech.SampleRate != 16000 {
		t.Errorf("Speech.SampleRate = %d, want default 16000", cfg.Speech.SampleRate)
	}
}

// TestConfig_LoadFromPathJSON tests loading a JSON config file.
func TestConfig_LoadFromPathJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	content := `{"default_model": "gemma", "ui": {"theme": "auto"}}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.DefaultModel != "gemma" {
		t.Errorf("DefaultModel = %q, want 'gemma'", cfg.DefaultModel)
	}
	if cfg.UI.Theme != "auto" {
		t.Errorf("UI.Theme = %q, want 'auto'", cfg.UI.Theme)
	}
}

// TestConfig_LoadFromPathInvalid tests that a config failing validation is
// rejected.
func TestConfig_LoadFromPathInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[ui]
theme = "sepia"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := LoadFromPath(path); err == nil {
		t.Error("LoadFromPath() with invalid theme should return error")
	}
}

// TestConfig_EnvOverrides tests MURMUR_* environment variable overrides.
func TestConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MURMUR_DEFAULT_MODEL", "phi3")
	t.Setenv("MURMUR_SERVER_URL", "http://10.0.0.5:11434")
	t.Setenv("MURMUR_SPEECH_ENABLED", "false")
	t.Setenv("MURMUR_UI_THEME", "light")

	cfg := Default()
	if err := cfg.ApplyEnvOverrides(); err != nil {
		t.Fatalf("ApplyEnvOverrides() error = %v", err)
	}

	if cfg.DefaultModel != "phi3" {
		t.Errorf("DefaultModel = %q, want 'phi3'", cfg.DefaultModel)
	}
	if cfg.Server.URL != "http://10.0.0.5:11434" {
		t.Errorf("Server.URL = %q, want env override", cfg.Server.URL)
	}
	if cfg.Speech.Enabled {
		t.Error("Speech.Enabled = true, want false from env")
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("UI.Theme = %q, want 'light'", cfg.UI.Theme)
	}
}

// TestConfig_EnvOverrideBadValue tests that an unparseable override is an
// error rather than a silent default.
func TestConfig_EnvOverrideBadValue(t *testing.T) {
	t.Setenv("MURMUR_SERVER_TIMEOUT_SECS", "soon")

	cfg := Default()
	if err := cfg.ApplyEnvOverrides(); err == nil {
		t.Error("ApplyEnvOverrides() with bad int should return error")
	}
}

// TestConfig_SaveTOMLRoundTrip tests that SaveTOML output can be loaded back.
func TestConfig_SaveTOMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	want := Default()
	want.DefaultModel = "qwen2.5"
	want.Speech.Voice = "7"

	if err := SaveTOML(want, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	got, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if got.DefaultModel != "qwen2.5" {
		t.Errorf("DefaultModel = %q, want 'qwen2.5'", got.DefaultModel)
	}
	if got.Speech.Voice != "7" {
		t.Errorf("Speech.Voice = %q, want '7'", got.Speech.Voice)
	}
}

// TestConfig_ConcurrentAccess tests that Global(), SetGlobal(), and ReloadGlobal()
// can be safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()

	var wg sync.WaitGroup

	// 50 writers using SetGlobal, 50 readers using Global
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			c := Default()
			c.Version = "test"
			SetGlobal(c)
		}()

		go func() {
			defer wg.Done()
			if cfg := Global(); cfg == nil {
				t.Error("Global() returned nil")
			}
		}()
	}

	wg.Wait()
}

// TestConfig_SetGlobalOverwrites tests that SetGlobal properly overwrites
// the existing global config.
func TestConfig_SetGlobalOverwrites(t *testing.T) {
	ResetGlobalForTesting()

	_ = Global()

	customCfg := Default()
	customCfg.Version = "custom-version"
	customCfg.DefaultModel = "custom-model"
	SetGlobal(customCfg)

	result := Global()
	if result.Version != "custom-version" {
		t.Errorf("Expected version 'custom-version', got '%s'", result.Version)
	}
	if result.DefaultModel != "custom-model" {
		t.Errorf("Expected model 'custom-model', got '%s'", result.DefaultModel)
	}
}
