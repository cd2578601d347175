// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types used throughout the application
// for representing the chat transcript. State is in-memory only; nothing
// here is persisted beyond the session.
//
// # Key Types
//
//   - Conversation: Thread-safe transcript container with a single reducer
//   - Message: Single message with sender, text, and timestamp
//   - Op: Tagged mutation (Append or ReplaceLast) handled by the reducer
//   - Sender: Message sender enumeration (user, assistant)
//
// # Usage
//
// All transcript mutations go through the reducer:
//
//	conv := model.NewConversation()
//	conv.Apply(model.Append{Msg: model.NewUserMessage("Hello!")})
//	conv.Apply(model.Append{Msg: model.NewAssistantMessage("Hi")})
//	conv.Apply(model.ReplaceLast{Text: "Hi there"})
//
// ReplaceLast is positional and only ever touches an assistant message; the
// reducer refuses to overwrite a user message.
package model
