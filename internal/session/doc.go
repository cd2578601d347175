// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives chat turns against the model server.
//
// A Session owns one in-memory conversation and runs one turn at a time:
// Send appends the user message, streams the reply fragment by fragment
// into the transcript, and reports failures as diagnostic transcript
// entries. The awaiting-response gate rejects overlapping sends and is
// cleared on every exit path.
//
// # Key Types
//
//   - Session: Turn driver with the awaiting gate and an update channel
//   - Accumulator: Folds stream fragments into conversation ops
//   - Speaker: Sink for completed replies (speech playback)
//
// # Usage
//
//	sess := session.New(session.Config{Client: client, Model: "llama3.2"})
//	go func() {
//	    _ = sess.Send(ctx, "why is the sky blue?")
//	}()
//	for range sess.Updates() {
//	    render(sess.Conversation().Messages(), sess.Awaiting())
//	}
//
// Failed turns never return without a transcript entry: transport failures
// and unreadable stream lines each append one diagnostic assistant message
// and the loading state always clears.
package session
