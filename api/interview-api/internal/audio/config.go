// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_audio

import "time"

type AudioFormat string

const (
	// Linear16 is raw signed 16-bit little-endian PCM.
	Linear16 AudioFormat = "linear16"
	// MuLaw8 is raw G.711 µ-law, one byte per sample.
	MuLaw8 AudioFormat = "mulaw8"
	// Container is an already framed stream (wav, webm, ogg) passed through untouched.
	Container AudioFormat = "container"
)

type AudioConfig struct {
	Format     AudioFormat
	SampleRate uint32
	Channels   uint16
}

// INTERVIEW_AUDIO_CONFIG is the format microphone audio is captured in.
var INTERVIEW_AUDIO_CONFIG = &AudioConfig{
	Format:     Linear16,
	SampleRate: 16000,
	Channels:   1,
}

func NewLinear16Config(sampleRate uint32) *AudioConfig {
	return &AudioConfig{Format: Linear16, SampleRate: sampleRate, Channels: 1}
}

func (ac *AudioConfig) GetSampleRate() uint32 {
	return ac.SampleRate
}

func (ac *AudioConfig) BytesPerSample() int {
	if ac.Format == MuLaw8 {
		return 1
	}
	return 2
}

// BytesPerSecond is zero for container formats whose rate is unknown.
func (ac *AudioConfig) BytesPerSecond() int {
	if ac.Format == Container {
		return 0
	}
	return int(ac.SampleRate) * int(ac.Channels) * ac.BytesPerSample()
}

// FrameBytes returns a frame-aligned byte count covering d of audio.
func (ac *AudioConfig) FrameBytes(d time.Duration) int {
	frameSize := ac.BytesPerSample() * int(ac.Channels)
	raw := int(d.Seconds() * float64(ac.BytesPerSecond()))
	return (raw / frameSize) * frameSize
}

// Duration is the playing time of n bytes of audio in this format.
func (ac *AudioConfig) Duration(n int) time.Duration {
	bps := ac.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(float64(n) / float64(bps) * float64(time.Second))
}
