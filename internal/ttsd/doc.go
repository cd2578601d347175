// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ttsd implements a small speech synthesis sidecar for development.
//
// It exposes the same HTTP surface as the real synthesis model server, so
// the chat client's speech player works against either one unchanged:
//
//	GET  /        status and a human-readable message
//	GET  /health  bare status for readiness probes
//	POST /tts     synthesis request, answered with WAV audio
//
// While the backing synthesizer warms up, /tts answers 503 and the status
// endpoints report "loading". The built-in ToneSynth generates placeholder
// tones instead of speech, which is enough to exercise playback end to end
// without a GPU.
//
// The sidecar binds to 127.0.0.1 only. It carries no authentication and no
// rate limiting.
package ttsd
