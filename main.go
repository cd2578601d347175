// murmur - a talking terminal for local language models.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/murmur/internal/cli"
	"github.com/jeranaias/murmur/internal/config"
	"github.com/jeranaias/murmur/internal/ollama"
	"github.com/jeranaias/murmur/internal/prefs"
	"github.com/jeranaias/murmur/internal/session"
	"github.com/jeranaias/murmur/internal/speech"
	"github.com/jeranaias/murmur/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with the cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		exitOn(cli.HandleAskCommand(args), args)
	case cli.CmdChat:
		exitOn(cli.HandleChatCommand(args), args)
	case cli.CmdModels:
		exitOn(cli.HandleModels(args), args)
	case cli.CmdStatus:
		exitOn(cli.HandleStatus(args), args)
	case cli.CmdDoctor:
		exitOn(cli.HandleDoctor(args), args)
	case cli.CmdVersion:
		exitOn(cli.HandleVersion(args), args)
	case cli.CmdHelp:
		cli.PrintUsage()
	default:
		runTUI(args)
	}
}

// exitOn reports a handler error and exits with its mapped code.
func exitOn(err error, args cli.Args) {
	if err == nil {
		return
	}
	cli.HandleErrorAndExit(err, args.JSON)
}

// =============================================================================
// TUI STARTUP
// =============================================================================

// runTUI wires the full stack and hands the terminal to Bubble Tea.
func runTUI(args cli.Args) {
	// stdout belongs to the TUI, so the standard logger either goes to a
	// file or nowhere.
	if os.Getenv("MURMUR_DEBUG") != "" {
		f, err := tea.LogToFile("murmur-debug.log", "murmur")
		if err != nil {
			fmt.Fprintf(os.Stderr, "debug log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v (using defaults)\n", err)
		cfg = config.Default()
	}
	if args.NoSpeech {
		cfg.Speech.Enabled = false
	}

	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      cfg.Server.URL,
		Timeout:      time.Duration(cfg.Server.TimeoutSecs) * time.Second,
		DefaultModel: cfg.DefaultModel,
	})

	prefMgr := openPrefs()
	if prefMgr != nil {
		defer prefMgr.Close()
	}
	var saved prefs.Preferences
	if prefMgr != nil {
		saved = prefMgr.Current()
	}

	// Model precedence: CLI flag, saved preference, config, client default.
	modelName := args.Model
	if modelName == "" {
		modelName = saved.Model
	}
	if modelName == "" {
		modelName = cfg.DefaultModel
	}
	if modelName == "" {
		modelName = client.DefaultModel()
	}

	player := buildPlayer(cfg, saved)
	if player != nil {
		defer player.Close()
	}
	recognizer := buildRecognizer(cfg)

	sessCfg := session.Config{Client: client, Model: modelName}
	if player != nil {
		sessCfg.Speaker = player
	}
	sess := session.New(sessCfg)

	m := chat.New(chat.Config{
		Session:    sess,
		Client:     client,
		AppConfig:  cfg,
		Prefs:      prefMgr,
		Player:     player,
		Recognizer: recognizer,
		Version:    Version,
	})

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// Config edits land in the running program without a restart.
	if watcher, err := config.NewWatcher(500*time.Millisecond, func(newCfg *config.Config) {
		config.SetGlobal(newCfg)
		p.Send(chat.ConfigReloadedMsg{Cfg: newCfg})
	}); err == nil {
		watcher.Watch()
		defer watcher.Close()
	} else {
		log.Printf("config: watcher unavailable: %v", err)
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running murmur: %v\n", err)
		os.Exit(1)
	}

	// Stop capture if the program quit mid-listen.
	if recognizer != nil {
		if err := recognizer.Stop(); err != nil {
			log.Printf("speech: stop capture: %v", err)
		}
	}
}

// =============================================================================
// DEPENDENCY WIRING
// =============================================================================

// openPrefs opens the preference store. Returns nil when the store is
// missing or held by another murmur process; selections then live for this
// run only.
func openPrefs() *prefs.Manager {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil
	}
	store, err := prefs.OpenBadger(prefs.BadgerOptions{Dir: filepath.Join(dir, "prefs")})
	if err != nil {
		fmt.Fprintf(os.Stderr, "[Note] preferences unavailable; selections will not be saved\n")
		return nil
	}
	mgr, err := prefs.NewManager(context.Background(), store)
	if err != nil {
		store.Close()
		return nil
	}
	return mgr
}

// buildPlayer wires the synthesizer and playback pipeline. Returns nil when
// speech output is disabled or the playback binary is missing; replies then
// stay text-only.
func buildPlayer(cfg *config.Config, saved prefs.Preferences) *speech.Player {
	if !cfg.Speech.Enabled {
		return nil
	}

	voice := saved.Voice
	if voice == "" {
		voice = cfg.Speech.Voice
	}

	synth := speech.NewHTTPSynthesizer(speech.SynthesizerConfig{
		BaseURL: cfg.Speech.SynthesizerURL,
	})

	player, err := speech.NewPlayer(speech.PlayerConfig{
		Synth:   synth,
		Command: cfg.Speech.Player,
		Voice:   voice,
		Enabled: saved.SpeakReplies,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "[Speech] playback unavailable: %v\n", err)
		return nil
	}
	return player
}

// buildRecognizer wires speech capture. The recognizer acquires nothing
// until the user starts talking, so construction never fails; a missing
// recorder or daemon surfaces when capture starts.
func buildRecognizer(cfg *config.Config) speech.Recognizer {
	if !cfg.Speech.Enabled {
		return nil
	}
	return speech.NewStreamRecognizer(speech.RecognizerConfig{
		URL:        cfg.Speech.RecognizerURL,
		SampleRate: cfg.Speech.SampleRate,
		Recorder:   cfg.Speech.Recorder,
	})
}
