// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_playback

import (
	"context"
	"fmt"
	"time"

	internal_audio "github.com/rapidaai/interview/api/interview-api/internal/audio"
	internal_audio_resampler "github.com/rapidaai/interview/api/interview-api/internal/audio/resampler"
	internal_type "github.com/rapidaai/interview/api/interview-api/internal/type"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/types"
)

const DefaultFrameDuration = 20 * time.Millisecond

type Option func(*audioPlayer)

// WithFrameDuration sets the pacing interval between frames written to the sink.
func WithFrameDuration(d time.Duration) Option {
	return func(p *audioPlayer) {
		if d > 0 {
			p.frameDuration = d
		}
	}
}

// WithRawClipConfig describes clips that arrive without a WAV header.
// Defaults to the sink's own format.
func WithRawClipConfig(config *internal_audio.AudioConfig) Option {
	return func(p *audioPlayer) { p.rawConfig = config }
}

// WithResampler replaces the default resampler.
func WithResampler(resampler internal_type.AudioResampler) Option {
	return func(p *audioPlayer) { p.resampler = resampler }
}

type audioPlayer struct {
	logger        commons.Logger
	sink          internal_type.Sink
	resampler     internal_type.AudioResampler
	frameDuration time.Duration
	rawConfig     *internal_audio.AudioConfig
}

func NewAudioPlayer(logger commons.Logger, sink internal_type.Sink, opts ...Option) internal_type.Player {
	p := &audioPlayer{
		logger:        logger,
		sink:          sink,
		frameDuration: DefaultFrameDuration,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rawConfig == nil {
		p.rawConfig = sink.Config()
	}
	if p.resampler == nil {
		p.resampler = internal_audio_resampler.GetResampler(logger)
	}
	return p
}

// Play decodes the clip into the sink format and writes it one frame per
// tick, then waits for the sink to drain. Cancelling ctx stops playback and
// returns ctx.Err().
func (p *audioPlayer) Play(ctx context.Context, clip []byte) error {
	if len(clip) == 0 {
		return fmt.Errorf("playback: %w: empty clip", types.ErrPlayback)
	}

	start := time.Now()
	target := p.sink.Config()
	if target.Format == internal_audio.Container {
		return p.passthrough(ctx, clip, start)
	}

	source := p.rawConfig
	data := clip
	if internal_audio.IsWAV(clip) {
		pcm, config, err := internal_audio.DecodeWAV(clip)
		if err != nil {
			return fmt.Errorf("playback: %w: %v", types.ErrPlayback, err)
		}
		data, source = pcm, config
	}

	audio, err := p.resampler.Resample(data, source, target)
	if err != nil {
		return fmt.Errorf("playback: %w: %v", types.ErrPlayback, err)
	}
	frameSize := target.FrameBytes(p.frameDuration)
	if frameSize <= 0 {
		return fmt.Errorf("playback: %w: frame size is zero for %s", types.ErrPlayback, p.frameDuration)
	}

	ticker := time.NewTicker(p.frameDuration)
	defer ticker.Stop()

	frames := 0
	for offset := 0; offset < len(audio); offset += frameSize {
		end := min(offset+frameSize, len(audio))
		if err := p.sink.Write(ctx, audio[offset:end]); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("playback: %w: %v", types.ErrPlayback, err)
		}
		frames++
		if end == len(audio) {
			break
		}
		select {
		case <-ctx.Done():
			p.logger.Debugf("playback: interrupted after %d frames", frames)
			return ctx.Err()
		case <-ticker.C:
		}
	}

	if err := p.sink.Drain(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("playback: %w: %v", types.ErrPlayback, err)
	}
	p.logger.Benchmark("playback.Play", time.Since(start))
	p.logger.Debugf("playback: played %d frames (%.2fs)", frames, target.Duration(len(audio)).Seconds())
	return nil
}

// passthrough hands the clip over whole to a sink that decodes containers itself.
func (p *audioPlayer) passthrough(ctx context.Context, clip []byte, start time.Time) error {
	if err := p.sink.Write(ctx, clip); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("playback: %w: %v", types.ErrPlayback, err)
	}
	if err := p.sink.Drain(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("playback: %w: %v", types.ErrPlayback, err)
	}
	p.logger.Benchmark("playback.Play", time.Since(start))
	return nil
}
