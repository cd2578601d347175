// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// INCREMENTAL TEXT DECODER
// =============================================================================

// textDecoder converts a byte stream to text incrementally. A multi-byte
// rune split across chunk boundaries is buffered until its remaining bytes
// arrive, so no rune is ever mangled by chunking.
type textDecoder struct {
	buf []byte
}

// Write appends raw bytes and returns the longest prefix that decodes to
// complete runes. Up to three trailing bytes of an unfinished rune are held
// back for the next call.
func (d *textDecoder) Write(p []byte) string {
	d.buf = append(d.buf, p...)

	// Walk back to the start byte of the trailing rune; hold it back only
	// if the rune is incomplete. Anything further back than a rune can
	// reach is invalid input and passes through unchanged.
	end := len(d.buf)
	for i := len(d.buf) - 1; i >= 0 && len(d.buf)-i <= utf8.UTFMax; i-- {
		if utf8.RuneStart(d.buf[i]) {
			if !utf8.FullRune(d.buf[i:]) {
				end = i
			}
			break
		}
	}

	out := string(d.buf[:end])
	d.buf = append(d.buf[:0], d.buf[end:]...)
	return out
}

// Flush returns any buffered bytes as text. Called at end of stream, where
// an unfinished rune can no longer complete.
func (d *textDecoder) Flush() string {
	if len(d.buf) == 0 {
		return ""
	}
	out := string(d.buf)
	d.buf = d.buf[:0]
	return out
}

// =============================================================================
// LINE BUFFER
// =============================================================================

// lineBuffer splits incoming text into newline-delimited candidate lines,
// carrying a trailing partial line across chunk boundaries. Blank and
// whitespace-only lines are dropped.
type lineBuffer struct {
	pending strings.Builder
}

// Write appends a text chunk and returns the candidate lines it completed.
func (b *lineBuffer) Write(text string) []string {
	b.pending.WriteString(text)

	buffered := b.pending.String()
	idx := strings.LastIndexByte(buffered, '\n')
	if idx < 0 {
		return nil
	}

	complete := buffered[:idx]
	rest := buffered[idx+1:]
	b.pending.Reset()
	b.pending.WriteString(rest)

	return splitCandidates(complete)
}

// Flush returns the carried partial line, if non-blank, as a final candidate.
func (b *lineBuffer) Flush() (string, bool) {
	line := strings.TrimSpace(b.pending.String())
	b.pending.Reset()
	if line == "" {
		return "", false
	}
	return line, true
}

// splitCandidates splits complete text on newlines, discarding blanks.
func splitCandidates(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// =============================================================================
// FRAGMENT DECODER
// =============================================================================

// streamLine is the wire shape of one NDJSON line from /api/chat.
type streamLine struct {
	Message *struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

// decodeLine parses one candidate line into a stream chunk. A line that is
// not valid JSON yields a chunk carrying a DecodeError; the stream is not
// aborted by it.
func decodeLine(line string) StreamChunk {
	var wire streamLine
	if err := json.Unmarshal([]byte(line), &wire); err != nil {
		return StreamChunk{Err: &DecodeError{Line: line, Err: err}}
	}

	frag := Fragment{Done: wire.Done}
	if wire.Message != nil {
		frag.Content = wire.Message.Content
		frag.HasContent = true
	}
	return StreamChunk{Fragment: frag}
}

// serverErr extracts the error payload from a decoded line, if any. Ollama
// reports runtime failures mid-stream as {"error": "..."} lines.
func serverErr(line string) string {
	var wire streamLine
	if err := json.Unmarshal([]byte(line), &wire); err != nil {
		return ""
	}
	return wire.Error
}

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader drives line-by-line decoding of a streaming chat response.
// It reads raw chunks, decodes them to text incrementally, splits candidate
// lines, and hands each decoded chunk to the callback in arrival order.
type StreamReader struct {
	r       io.Reader
	buf     []byte
	text    textDecoder
	lines   lineBuffer
	sawLine bool
}

// readChunkSize is the read granularity for streaming responses.
const readChunkSize = 4096

// NewStreamReader creates a stream reader over an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		r:   r,
		buf: make([]byte, readChunkSize),
	}
}

// Process consumes the stream until the terminal marker, end of stream, or
// context cancellation. The callback runs synchronously for every candidate
// line, malformed ones included. Returns ErrEmptyStream if the stream ends
// before producing a single candidate line.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, readErr := s.r.Read(s.buf)
		if n > 0 {
			for _, line := range s.lines.Write(s.text.Write(s.buf[:n])) {
				done, err := s.emit(line, callback)
				if err != nil {
					return err
				}
				if done {
					return nil
				}
			}
		}

		if readErr != nil {
			if readErr != io.EOF {
				return &ClientError{Type: ErrTypeConnection, Message: "stream read failed", Cause: readErr}
			}
			// Process whatever the final chunk left behind.
			if tail := strings.TrimSpace(s.text.Flush()); tail != "" {
				s.lines.pending.WriteString(tail)
			}
			if tail, ok := s.lines.Flush(); ok {
				if _, err := s.emit(tail, callback); err != nil {
					return err
				}
			}
			if !s.sawLine {
				return ErrEmptyStream
			}
			return nil
		}
	}
}

// emit decodes one candidate line and delivers it. Reports whether the line
// carried the terminal marker.
func (s *StreamReader) emit(line string, callback StreamCallback) (bool, error) {
	s.sawLine = true

	if msg := serverErr(line); msg != "" {
		return false, &ClientError{Type: ErrTypeInvalidResponse, Message: msg}
	}

	chunk := decodeLine(line)
	callback(chunk)
	return chunk.Err == nil && chunk.Fragment.Done, nil
}
