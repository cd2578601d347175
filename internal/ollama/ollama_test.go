// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("Hello")

	if msg.Role != "user" {
		t.Errorf("Role = %q, want 'user'", msg.Role)
	}

	if msg.Content != "Hello" {
		t.Errorf("Content = %q, want 'Hello'", msg.Content)
	}
}

func TestNewAssistantMessage(t *testing.T) {
	msg := NewAssistantMessage("Response")

	if msg.Role != "assistant" {
		t.Errorf("Role = %q, want 'assistant'", msg.Role)
	}

	if msg.Content != "Response" {
		t.Errorf("Content = %q, want 'Response'", msg.Content)
	}
}

// =============================================================================
// TEXT DECODER TESTS
// =============================================================================

func TestTextDecoderASCII(t *testing.T) {
	var d textDecoder

	if got := d.Write([]byte("hello")); got != "hello" {
		t.Errorf("Write = %q, want 'hello'", got)
	}
	if got := d.Flush(); got != "" {
		t.Errorf("Flush = %q, want empty", got)
	}
}

func TestTextDecoderSplitRune(t *testing.T) {
	// "héllo" with the two-byte é split across writes.
	raw := []byte("héllo")

	var d textDecoder
	first := d.Write(raw[:2]) // "h" + first byte of é
	if first != "h" {
		t.Errorf("first Write = %q, want 'h'", first)
	}
	second := d.Write(raw[2:])
	if second != "éllo" {
		t.Errorf("second Write = %q, want 'éllo'", second)
	}
}

func TestTextDecoderSplitRuneEveryBoundary(t *testing.T) {
	// Four-byte rune split at every possible position.
	raw := []byte("a\U0001F600b") // a, emoji, b

	for split := 1; split < len(raw); split++ {
		var d textDecoder
		got := d.Write(raw[:split]) + d.Write(raw[split:]) + d.Flush()
		if got != "a\U0001F600b" {
			t.Errorf("split at %d: got %q", split, got)
		}
	}
}

func TestTextDecoderFlushIncomplete(t *testing.T) {
	var d textDecoder

	if got := d.Write([]byte{0xE4, 0xB8}); got != "" {
		t.Errorf("Write = %q, want empty (incomplete rune held back)", got)
	}
	// Flush returns the raw tail even though it never completed.
	if got := d.Flush(); got == "" {
		t.Error("Flush returned empty, want buffered tail")
	}
}

// =============================================================================
// LINE BUFFER TESTS
// =============================================================================

func TestLineBufferCarriesPartialLine(t *testing.T) {
	var b lineBuffer

	if lines := b.Write(`{"a":`); lines != nil {
		t.Errorf("partial write produced lines: %v", lines)
	}
	lines := b.Write("1}\n")
	if len(lines) != 1 || lines[0] != `{"a":1}` {
		t.Errorf("lines = %v, want [{\"a\":1}]", lines)
	}
}

func TestLineBufferDropsBlankLines(t *testing.T) {
	var b lineBuffer

	lines := b.Write("one\n\n  \ntwo\n")
	if len(lines) != 2 || lines[0] != "one" || lines[1] != "two" {
		t.Errorf("lines = %v, want [one two]", lines)
	}
}

func TestLineBufferFlush(t *testing.T) {
	var b lineBuffer

	b.Write("tail without newline")
	line, ok := b.Flush()
	if !ok || line != "tail without newline" {
		t.Errorf("Flush = %q, %v", line, ok)
	}

	if _, ok := b.Flush(); ok {
		t.Error("second Flush reported a line, want none")
	}
}

// =============================================================================
// FRAGMENT DECODER TESTS
// =============================================================================

func TestDecodeLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Fragment
		wantErr bool
	}{
		{
			name: "content delta",
			line: `{"message":{"role":"assistant","content":"Hel"}}`,
			want: Fragment{Content: "Hel", HasContent: true},
		},
		{
			name: "done marker",
			line: `{"done":true}`,
			want: Fragment{Done: true},
		},
		{
			name: "content with done",
			line: `{"message":{"content":""},"done":true}`,
			want: Fragment{HasContent: true, Done: true},
		},
		{
			name:    "malformed",
			line:    `not-json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk := decodeLine(tt.line)
			if tt.wantErr {
				if chunk.Err == nil {
					t.Fatal("expected DecodeError, got none")
				}
				if chunk.Err.Line != tt.line {
					t.Errorf("DecodeError.Line = %q, want %q", chunk.Err.Line, tt.line)
				}
				return
			}
			if chunk.Err != nil {
				t.Fatalf("unexpected error: %v", chunk.Err)
			}
			if chunk.Fragment != tt.want {
				t.Errorf("Fragment = %+v, want %+v", chunk.Fragment, tt.want)
			}
		})
	}
}

// =============================================================================
// STREAM READER TESTS
// =============================================================================

// chunkReader delivers its chunks one Read call at a time.
type chunkReader struct {
	chunks [][]byte
	pos    int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.chunks) {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.pos])
	r.pos++
	return n, nil
}

// collect runs a StreamReader over the given chunks and gathers the results.
func collect(t *testing.T, chunks [][]byte) ([]Fragment, []*DecodeError, error) {
	t.Helper()

	var frags []Fragment
	var decodeErrs []*DecodeError
	reader := NewStreamReader(&chunkReader{chunks: chunks})
	err := reader.Process(context.Background(), func(chunk StreamChunk) {
		if chunk.Err != nil {
			decodeErrs = append(decodeErrs, chunk.Err)
			return
		}
		frags = append(frags, chunk.Fragment)
	})
	return frags, decodeErrs, err
}

func TestStreamReaderBasicSequence(t *testing.T) {
	frags, decodeErrs, err := collect(t, [][]byte{
		[]byte("{\"message\":{\"content\":\"Hel\"}}\n"),
		[]byte("{\"message\":{\"content\":\"lo\"}}\n"),
		[]byte("{\"done\":true}\n"),
	})
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if len(decodeErrs) != 0 {
		t.Fatalf("unexpected decode errors: %v", decodeErrs)
	}
	if len(frags) != 3 {
		t.Fatalf("got %d fragments, want 3", len(frags))
	}
	if frags[0].Content != "Hel" || frags[1].Content != "lo" {
		t.Errorf("content deltas = %q, %q", frags[0].Content, frags[1].Content)
	}
	if !frags[2].Done {
		t.Error("final fragment not marked done")
	}
}

func TestStreamReaderChunkingInvariance(t *testing.T) {
	// The same byte stream, however it is chunked, must decode to the same
	// fragment sequence. Includes a multi-byte rune to cover mid-rune splits.
	stream := []byte("{\"message\":{\"content\":\"héllo \"}}\n{\"message\":{\"content\":\"wörld\"}}\n{\"done\":true}\n")

	wantFrags, _, err := collect(t, [][]byte{stream})
	if err != nil {
		t.Fatalf("baseline Process error: %v", err)
	}

	for size := 1; size <= len(stream); size++ {
		var chunks [][]byte
		for i := 0; i < len(stream); i += size {
			end := i + size
			if end > len(stream) {
				end = len(stream)
			}
			chunks = append(chunks, stream[i:end])
		}

		frags, decodeErrs, err := collect(t, chunks)
		if err != nil {
			t.Fatalf("chunk size %d: Process error: %v", size, err)
		}
		if len(decodeErrs) != 0 {
			t.Fatalf("chunk size %d: decode errors: %v", size, decodeErrs)
		}
		if len(frags) != len(wantFrags) {
			t.Fatalf("chunk size %d: got %d fragments, want %d", size, len(frags), len(wantFrags))
		}
		for i := range frags {
			if frags[i] != wantFrags[i] {
				t.Errorf("chunk size %d: fragment %d = %+v, want %+v", size, i, frags[i], wantFrags[i])
			}
		}
	}
}

func TestStreamReaderMalformedLineContinues(t *testing.T) {
	frags, decodeErrs, err := collect(t, [][]byte{
		[]byte("not-json\n{\"message\":{\"content\":\"ok\"}}\n{\"done\":true}\n"),
	})
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if len(decodeErrs) != 1 {
		t.Fatalf("got %d decode errors, want 1", len(decodeErrs))
	}
	if decodeErrs[0].Line != "not-json" {
		t.Errorf("DecodeError.Line = %q, want 'not-json'", decodeErrs[0].Line)
	}
	if len(frags) != 2 || frags[0].Content != "ok" {
		t.Errorf("fragments after malformed line = %+v", frags)
	}
}

func TestStreamReaderEmptyBody(t *testing.T) {
	_, _, err := collect(t, nil)
	if !errors.Is(err, ErrEmptyStream) {
		t.Errorf("err = %v, want ErrEmptyStream", err)
	}

	// Whitespace-only bodies are empty too.
	_, _, err = collect(t, [][]byte{[]byte("\n  \n")})
	if !errors.Is(err, ErrEmptyStream) {
		t.Errorf("whitespace body err = %v, want ErrEmptyStream", err)
	}
}

func TestStreamReaderFinalLineWithoutNewline(t *testing.T) {
	frags, _, err := collect(t, [][]byte{
		[]byte("{\"message\":{\"content\":\"hi\"}}"),
	})
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if len(frags) != 1 || frags[0].Content != "hi" {
		t.Errorf("fragments = %+v, want one 'hi' delta", frags)
	}
}

func TestStreamReaderStopsAtDone(t *testing.T) {
	frags, _, err := collect(t, [][]byte{
		[]byte("{\"done\":true}\n{\"message\":{\"content\":\"late\"}}\n"),
	})
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if len(frags) != 1 || !frags[0].Done {
		t.Errorf("fragments = %+v, want only the done marker", frags)
	}
}

func TestStreamReaderServerError(t *testing.T) {
	_, _, err := collect(t, [][]byte{
		[]byte("{\"error\":\"model exploded\"}\n"),
	})
	if err == nil {
		t.Fatal("expected error for server error line")
	}
	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("err = %T, want *ClientError", err)
	}
	if !strings.Contains(clientErr.Message, "model exploded") {
		t.Errorf("error message = %q", clientErr.Message)
	}
}

// =============================================================================
// CLIENT TESTS
// =============================================================================

func TestChatStreamAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if !req.Stream {
			t.Error("request did not set stream:true")
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		io.WriteString(w, "{\"message\":{\"content\":\"Hel\"}}\n")
		io.WriteString(w, "{\"message\":{\"content\":\"lo\"}}\n")
		io.WriteString(w, "{\"done\":true}\n")
	}))
	defer srv.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})

	var got strings.Builder
	err := client.ChatStream(context.Background(), "test-model", []Message{NewUserMessage("hi")}, func(chunk StreamChunk) {
		if chunk.Err == nil {
			got.WriteString(chunk.Fragment.Content)
		}
	})
	if err != nil {
		t.Fatalf("ChatStream returned error: %v", err)
	}
	if got.String() != "Hello" {
		t.Errorf("accumulated = %q, want 'Hello'", got.String())
	}
}

func TestChatStreamHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})

	err := client.ChatStream(context.Background(), "m", nil, func(StreamChunk) {
		t.Error("callback invoked for failed request")
	})
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("err = %T, want *ClientError", err)
	}
	if clientErr.Message != "boom" {
		t.Errorf("Message = %q, want 'boom'", clientErr.Message)
	}
}

func TestChatStreamModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})

	err := client.ChatStream(context.Background(), "missing", nil, func(StreamChunk) {})
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("err = %v, want ErrModelNotFound", err)
	}
}

func TestChatStreamEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})

	err := client.ChatStream(context.Background(), "m", nil, func(StreamChunk) {})
	if !errors.Is(err, ErrEmptyStream) {
		t.Errorf("err = %v, want ErrEmptyStream", err)
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %q, want /api/tags", r.URL.Path)
		}
		io.WriteString(w, `{"models":[{"name":"llama3.2","size":2019393189,"digest":"a80c4f17acd5","modified_at":"2024-05-04T17:37:44Z"}]}`)
	}))
	defer srv.Close()

	client := NewClientWithConfig(&ClientConfig{BaseURL: srv.URL})

	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels returned error: %v", err)
	}
	if len(models) != 1 {
		t.Fatalf("got %d models, want 1", len(models))
	}
	if models[0].Name != "llama3.2" {
		t.Errorf("Name = %q", models[0].Name)
	}
	if models[0].ID() != "a80c4f17acd5" {
		t.Errorf("ID = %q, want digest", models[0].ID())
	}
}

func TestCheckRunningDown(t *testing.T) {
	client := NewClientWithConfig(&ClientConfig{BaseURL: "http://127.0.0.1:1"})

	err := client.CheckRunning(context.Background())
	if !errors.Is(err, ErrNotRunning) {
		t.Errorf("err = %v, want ErrNotRunning", err)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{4404019200, "4.1 GB"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.bytes); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
