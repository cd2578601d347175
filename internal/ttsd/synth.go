// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ttsd

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
)

// =============================================================================
// SYNTHESIS REQUEST
// =============================================================================

// Request is the /tts request body. Field defaults match the original
// speech model server so existing clients keep working.
type Request struct {
	Text             string  `json:"text"`
	Speaker          int     `json:"speaker"`
	Temperature      float64 `json:"temperature"`
	TopK             int     `json:"top_k"`
	MaxAudioLengthMs int     `json:"max_audio_length_ms"`
}

// fillDefaults populates zero values.
func (r *Request) fillDefaults() {
	if r.Temperature == 0 {
		r.Temperature = 0.8
	}
	if r.TopK == 0 {
		r.TopK = 50
	}
	if r.MaxAudioLengthMs == 0 {
		r.MaxAudioLengthMs = 10000
	}
}

// Synth turns a synthesis request into WAV bytes.
type Synth interface {
	Generate(ctx context.Context, req Request) ([]byte, error)
}

// =============================================================================
// TONE SYNTH
// =============================================================================

// SampleRate matches the speech model's output rate.
const SampleRate = 24000

// toneCapMs is the absolute ceiling on generated audio regardless of what
// the request asks for.
const toneCapMs = 45000

// ToneSynth is the development synthesizer: it renders a spoken-word-paced
// tone instead of speech, so the playback path can be exercised without the
// real model. The speaker index picks the pitch and the temperature adds
// vibrato.
type ToneSynth struct{}

var _ Synth = ToneSynth{}

// NewToneSynth creates the placeholder synthesizer.
func NewToneSynth() ToneSynth {
	return ToneSynth{}
}

// Generate renders the tone. Duration tracks text length at a rough
// speaking pace, capped by the request's max audio length.
func (ToneSynth) Generate(ctx context.Context, req Request) ([]byte, error) {
	if req.Text == "" {
		return nil, errors.New("empty text")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	durationMs := 250 + 55*len([]rune(req.Text))
	if durationMs > req.MaxAudioLengthMs {
		durationMs = req.MaxAudioLengthMs
	}
	if durationMs > toneCapMs {
		durationMs = toneCapMs
	}
	if durationMs < 100 {
		durationMs = 100
	}

	freq := 180.0 + 40.0*float64(req.Speaker%8)
	vibratoHz := 5.0
	vibratoDepth := req.Temperature * 6.0

	n := SampleRate * durationMs / 1000
	samples := make([]int16, n)
	fade := SampleRate / 100 // 10ms attack and release
	for i := range samples {
		t := float64(i) / SampleRate
		f := freq + vibratoDepth*math.Sin(2*math.Pi*vibratoHz*t)
		v := math.Sin(2 * math.Pi * f * t)

		gain := 0.4
		if i < fade {
			gain *= float64(i) / float64(fade)
		}
		if rem := n - 1 - i; rem < fade {
			gain *= float64(rem) / float64(fade)
		}
		samples[i] = int16(v * gain * math.MaxInt16)
	}

	return encodeWAV(samples, SampleRate), nil
}

// =============================================================================
// WAV ENCODING
// =============================================================================

// encodeWAV wraps 16-bit mono PCM samples in a RIFF/WAVE container.
func encodeWAV(samples []int16, sampleRate int) []byte {
	dataLen := len(samples) * 2
	buf := make([]byte, 0, 44+dataLen)

	buf = append(buf, "RIFF"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(36+dataLen))
	buf = append(buf, "WAVE"...)

	buf = append(buf, "fmt "...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM
	buf = binary.LittleEndian.AppendUint16(buf, 1) // mono
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate*2))
	buf = binary.LittleEndian.AppendUint16(buf, 2)  // block align
	buf = binary.LittleEndian.AppendUint16(buf, 16) // bits per sample

	buf = append(buf, "data"...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dataLen))
	for _, s := range samples {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(s))
	}
	return buf
}
