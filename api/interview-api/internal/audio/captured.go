// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_audio

import "time"

// CapturedAudio is an immutable snapshot of microphone bytes.
type CapturedAudio struct {
	data   []byte
	config *AudioConfig
}

// NewCapturedAudio copies data so later writes to the source never leak in.
func NewCapturedAudio(data []byte, config *AudioConfig) CapturedAudio {
	buf := make([]byte, len(data))
	copy(buf, data)
	return CapturedAudio{data: buf, config: config}
}

func (c CapturedAudio) Len() int {
	return len(c.data)
}

func (c CapturedAudio) IsEmpty() bool {
	return len(c.data) == 0
}

func (c CapturedAudio) Config() *AudioConfig {
	return c.config
}

// Bytes returns a copy of the raw captured bytes.
func (c CapturedAudio) Bytes() []byte {
	buf := make([]byte, len(c.data))
	copy(buf, c.data)
	return buf
}

// Duration is zero when the format carries no fixed byte rate.
func (c CapturedAudio) Duration() time.Duration {
	if c.config == nil {
		return 0
	}
	return c.config.Duration(len(c.data))
}

// Encode renders the audio into something a transcription service accepts:
// raw PCM gets a WAV header, containers pass through.
func (c CapturedAudio) Encode() []byte {
	if c.config == nil || c.config.Format == Container {
		return c.Bytes()
	}
	pcm, config, err := ToLinear16(c.data, c.config)
	if err != nil {
		return c.Bytes()
	}
	return EncodeWAV(pcm, config)
}
