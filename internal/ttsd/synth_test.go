// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ttsd

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"
)

// =============================================================================
// REQUEST TESTS
// =============================================================================

func TestRequest_FillDefaults(t *testing.T) {
	r := Request{Text: "hello"}
	r.fillDefaults()

	if r.Temperature != 0.8 {
		t.Errorf("Temperature = %f, want 0.8", r.Temperature)
	}

	if r.TopK != 50 {
		t.Errorf("TopK = %d, want 50", r.TopK)
	}

	if r.MaxAudioLengthMs != 10000 {
		t.Errorf("MaxAudioLengthMs = %d, want 10000", r.MaxAudioLengthMs)
	}
}

func TestRequest_FillDefaults_PreservesValues(t *testing.T) {
	r := Request{Text: "hello", Temperature: 1.2, TopK: 10, MaxAudioLengthMs: 500}
	r.fillDefaults()

	if r.Temperature != 1.2 {
		t.Errorf("Temperature = %f, want 1.2", r.Temperature)
	}

	if r.TopK != 10 {
		t.Errorf("TopK = %d, want 10", r.TopK)
	}

	if r.MaxAudioLengthMs != 500 {
		t.Errorf("MaxAudioLengthMs = %d, want 500", r.MaxAudioLengthMs)
	}
}

// =============================================================================
// TONE SYNTH TESTS
// =============================================================================

func TestToneSynth_Generate(t *testing.T) {
	synth := NewToneSynth()

	req := Request{Text: "hello world"}
	req.fillDefaults()

	wav, err := synth.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !bytes.HasPrefix(wav, []byte("RIFF")) {
		t.Error("output should start with RIFF")
	}

	if !bytes.Contains(wav[:12], []byte("WAVE")) {
		t.Error("output should be a WAVE container")
	}
}

func TestToneSynth_EmptyText(t *testing.T) {
	synth := NewToneSynth()

	_, err := synth.Generate(context.Background(), Request{})
	if err == nil {
		t.Error("Generate() with empty text should fail")
	}
}

func TestToneSynth_CancelledContext(t *testing.T) {
	synth := NewToneSynth()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := Request{Text: "hello"}
	req.fillDefaults()

	_, err := synth.Generate(ctx, req)
	if err == nil {
		t.Error("Generate() with cancelled context should fail")
	}
}

func TestToneSynth_DurationCappedByRequest(t *testing.T) {
	synth := NewToneSynth()

	// Text long enough to exceed the 500ms cap at speaking pace.
	req := Request{Text: "a very long sentence that would take seconds to speak aloud", MaxAudioLengthMs: 500}
	req.fillDefaults()

	wav, err := synth.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// 500ms of 16-bit mono at 24kHz plus the 44-byte header.
	wantSamples := SampleRate * 500 / 1000
	wantLen := 44 + wantSamples*2
	if len(wav) != wantLen {
		t.Errorf("len = %d, want %d", len(wav), wantLen)
	}
}

func TestToneSynth_MinimumDuration(t *testing.T) {
	synth := NewToneSynth()

	req := Request{Text: "a", MaxAudioLengthMs: 50}
	req.fillDefaults()

	wav, err := synth.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// Clamped up to 100ms so playback is audible.
	wantLen := 44 + (SampleRate*100/1000)*2
	if len(wav) != wantLen {
		t.Errorf("len = %d, want %d", len(wav), wantLen)
	}
}

func TestToneSynth_SpeakerChangesPitch(t *testing.T) {
	synth := NewToneSynth()

	req0 := Request{Text: "hello", Speaker: 0}
	req0.fillDefaults()
	req3 := Request{Text: "hello", Speaker: 3}
	req3.fillDefaults()

	wav0, err := synth.Generate(context.Background(), req0)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	wav3, err := synth.Generate(context.Background(), req3)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if bytes.Equal(wav0, wav3) {
		t.Error("different speakers should produce different audio")
	}
}

// =============================================================================
// WAV ENCODING TESTS
// =============================================================================

func TestEncodeWAV_Header(t *testing.T) {
	samples := []int16{0, 100, -100, 32000}
	wav := encodeWAV(samples, SampleRate)

	if len(wav) != 44+len(samples)*2 {
		t.Fatalf("len = %d, want %d", len(wav), 44+len(samples)*2)
	}

	if string(wav[0:4]) != "RIFF" {
		t.Errorf("bytes 0-4 = %q, want RIFF", wav[0:4])
	}

	riffLen := binary.LittleEndian.Uint32(wav[4:8])
	if riffLen != uint32(36+len(samples)*2) {
		t.Errorf("RIFF length = %d, want %d", riffLen, 36+len(samples)*2)
	}

	if string(wav[8:12]) != "WAVE" {
		t.Errorf("bytes 8-12 = %q, want WAVE", wav[8:12])
	}

	if string(wav[12:16]) != "fmt " {
		t.Errorf("bytes 12-16 = %q, want 'fmt '", wav[12:16])
	}

	if format := binary.LittleEndian.Uint16(wav[20:22]); format != 1 {
		t.Errorf("audio format = %d, want 1 (PCM)", format)
	}

	if channels := binary.LittleEndian.Uint16(wav[22:24]); channels != 1 {
		t.Errorf("channels = %d, want 1", channels)
	}

	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != SampleRate {
		t.Errorf("sample rate = %d, want %d", rate, SampleRate)
	}

	if byteRate := binary.LittleEndian.Uint32(wav[28:32]); byteRate != SampleRate*2 {
		t.Errorf("byte rate = %d, want %d", byteRate, SampleRate*2)
	}

	if bits := binary.LittleEndian.Uint16(wav[34:36]); bits != 16 {
		t.Errorf("bits per sample = %d, want 16", bits)
	}

	if string(wav[36:40]) != "data" {
		t.Errorf("bytes 36-40 = %q, want data", wav[36:40])
	}

	dataLen := binary.LittleEndian.Uint32(wav[40:44])
	if dataLen != uint32(len(samples)*2) {
		t.Errorf("data length = %d, want %d", dataLen, len(samples)*2)
	}
}

func TestEncodeWAV_SampleRoundTrip(t *testing.T) {
	samples := []int16{42, -42, 12345, -12345}
	wav := encodeWAV(samples, SampleRate)

	for i, want := range samples {
		got := int16(binary.LittleEndian.Uint16(wav[44+i*2 : 46+i*2]))
		if got != want {
			t.Errorf("sample %d = %d, want %d", i, got, want)
		}
	}
}
