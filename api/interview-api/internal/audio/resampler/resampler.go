// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_audio_resampler

import (
	"time"

	internal_audio "github.com/rapidaai/interview/api/interview-api/internal/audio"
	internal_type "github.com/rapidaai/interview/api/interview-api/internal/type"
	"github.com/rapidaai/interview/pkg/commons"
)

type audioResampler struct {
	logger commons.Logger
}

// GetResampler returns the resampler used between microphone, provider and
// speaker formats.
func GetResampler(logger commons.Logger) internal_type.AudioResampler {
	return &audioResampler{logger: logger}
}

func (r *audioResampler) Resample(data []byte, from, to *internal_audio.AudioConfig) ([]byte, error) {
	start := time.Now()
	out, err := internal_audio.Convert(data, from, to)
	if err != nil {
		r.logger.Debugf("resampler: %v", err)
		return nil, err
	}
	if from != nil && to != nil && from.SampleRate != to.SampleRate {
		r.logger.Benchmark("resampler.Resample", time.Since(start))
	}
	return out, nil
}
