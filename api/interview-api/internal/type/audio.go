// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

import (
	"context"
	"io"

	internal_audio "github.com/rapidaai/interview/api/interview-api/internal/audio"
)

// Device is a source of microphone audio. Open acquires the device
// exclusively; closing the returned stream releases it.
type Device interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Config describes the bytes the stream yields.
	Config() *internal_audio.AudioConfig
}

// Capturer owns the microphone for the lifetime of one recording.
type Capturer interface {
	// Start acquires the device and begins buffering. Calling Start while
	// already active is a caller error.
	Start(ctx context.Context) error
	// Peek returns everything captured so far without interrupting capture.
	Peek() internal_audio.CapturedAudio
	// Stop finalizes capture, releases the device and hands over the audio.
	Stop() (internal_audio.CapturedAudio, error)
	IsActive() bool
	// Release frees the device and discards buffered audio. Idempotent.
	Release()
}

// Sink is where decoded prompt audio is written, frame by frame.
type Sink interface {
	Write(ctx context.Context, frame []byte) error
	// Drain blocks until everything written has actually been heard.
	Drain(ctx context.Context) error
	// Config is the PCM format the sink expects.
	Config() *internal_audio.AudioConfig
}

// Player plays one clip to completion.
type Player interface {
	Play(ctx context.Context, clip []byte) error
}

// AudioResampler re-encodes raw audio between formats and sample rates.
type AudioResampler interface {
	Resample(data []byte, from, to *internal_audio.AudioConfig) ([]byte, error)
}
