// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// This package implements a client for the Ollama local LLM server,
// supporting model listing and streaming chat completions over NDJSON.
//
// # Key Types
//
//   - Client: HTTP client for Ollama API communication
//   - Message: Chat message with role and content
//   - Fragment: One decoded unit of a streaming response
//   - StreamReader: Chunk-driven streaming decoder
//
// # Usage
//
// Create a client and stream a chat response:
//
//	client := ollama.NewClient()
//	err := client.ChatStream(ctx, "llama3.2", messages, func(chunk ollama.StreamChunk) {
//	    if chunk.Err != nil {
//	        // surface the malformed line; the stream continues
//	        return
//	    }
//	    fmt.Print(chunk.Fragment.Content)
//	})
//
// # Streaming
//
// The StreamReader decodes raw chunks incrementally: a multi-byte rune or a
// JSON line split across chunk boundaries is reassembled before decoding, so
// the decoded fragment sequence does not depend on how the transport chunks
// the body.
package ollama
