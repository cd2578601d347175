// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package speech provides the optional voice capabilities: microphone
// transcription and spoken playback of replies.
//
// Both capabilities degrade silently. A missing recorder or player binary,
// or an unreachable daemon, surfaces as ErrUnavailable; callers log it and
// run text-only. A runtime capture failure resets the recognizer to the
// stopped state through an error event. Nothing in this package ever writes
// to the conversation.
//
// # Key Types
//
//   - Recognizer: Capture toggle emitting started/transcript/stopped/error events
//   - StreamRecognizer: Websocket implementation against a local daemon
//   - Synthesizer: Text to WAV bytes
//   - HTTPSynthesizer: Client for the local synthesis server
//   - Player: Fire-and-forget playback queue with an already-spoken guard
//
// # Usage
//
//	rec := speech.NewStreamRecognizer(speech.RecognizerConfig{})
//	if err := rec.Start(ctx); err != nil {
//	    if errors.Is(err, speech.ErrUnavailable) {
//	        log.Printf("voice input disabled: %v", err)
//	    }
//	}
//	for ev := range rec.Events() {
//	    if ev.Type == speech.EventTranscript && ev.Final {
//	        input.SetValue(ev.Text)
//	    }
//	}
//
// Playback hangs off the session as its Speaker:
//
//	player, err := speech.NewPlayer(speech.PlayerConfig{Synth: synth})
//	sess := session.New(session.Config{Client: client, Speaker: player})
package speech
