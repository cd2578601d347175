// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main runs the murmur speech synthesis sidecar.
//
// It serves the same HTTP surface as the real synthesis model server, with
// a placeholder tone generator standing in for the model, so the chat
// client's playback path can be developed and tested on any machine.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/jeranaias/murmur/internal/ttsd"
)

const version = "0.1.0"

// settings are read from the environment with the TTS_SERVER prefix,
// matching the variables the real model server honors.
type settings struct {
	Port   int           `default:"3001"`
	Warmup time.Duration `default:"2s"`
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--help" || arg == "-h" {
			printHelp()
			return
		}
		if arg == "--version" || arg == "-v" {
			fmt.Printf("murmur-ttsd v%s\n", version)
			return
		}
	}

	var cfg settings
	if err := envconfig.Process("tts_server", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid environment: %v\n", err)
		os.Exit(1)
	}

	srv := ttsd.NewServer(cfg.Port).
		WithSynth(ttsd.NewToneSynth()).
		WithWarmup(cfg.Warmup)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	case s := <-sig:
		log.Printf("TTSD_SIGNAL | sig=%v", s)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
			os.Exit(1)
		}
	}
}

// printHelp shows usage information
func printHelp() {
	fmt.Println(`murmur-ttsd v` + version + `

Usage: murmur-ttsd [OPTIONS]

Options:
  --help, -h     Show this help
  --version, -v  Show version

Environment:
  TTS_SERVER_PORT    Listen port (default 3001)
  TTS_SERVER_WARMUP  Simulated model load time (default 2s)

Serves GET /, GET /health, and POST /tts on 127.0.0.1. POST /tts accepts
{"text": "..."} and answers with WAV audio. Point murmur's synthesizer_url
at it to exercise speech playback without the real model.`)
}
