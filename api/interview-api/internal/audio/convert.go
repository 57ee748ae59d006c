// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_audio

import (
	"encoding/binary"
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampler"
	"github.com/zaf/g711"
)

// speech prompts and answers do not need the studio presets
const resampleQuality = resampling.QualityMedium

// Convert re-encodes raw audio from one format into another. Channels are
// averaged down to mono and the sample rate is changed by a band-limited
// polyphase resampler.
func Convert(data []byte, from, to *AudioConfig) ([]byte, error) {
	if from == nil || to == nil {
		return nil, fmt.Errorf("convert: missing audio config")
	}
	if to.Format == Container {
		return nil, fmt.Errorf("convert: cannot encode into a container")
	}
	pcm, src, err := ToLinear16(data, from)
	if err != nil {
		return nil, err
	}
	samples := toSamples(pcm)
	if src.Channels > 1 {
		samples = downmix(samples, int(src.Channels))
	}
	if src.SampleRate != to.SampleRate {
		samples, err = resample(samples, src.SampleRate, to.SampleRate)
		if err != nil {
			return nil, err
		}
	}
	out := fromSamples(samples)
	if to.Format == MuLaw8 {
		return g711.EncodeUlaw(out), nil
	}
	return out, nil
}

func toSamples(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples
}

func fromSamples(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func downmix(samples []int16, channels int) []int16 {
	mono := make([]int16, len(samples)/channels)
	for i := range mono {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += int(samples[i*channels+c])
		}
		mono[i] = int16(sum / channels)
	}
	return mono
}

func resample(samples []int16, from, to uint32) ([]int16, error) {
	if len(samples) == 0 || from == 0 || to == 0 {
		return samples, nil
	}
	input := make([]float64, len(samples))
	for i, v := range samples {
		input[i] = float64(v) / math.MaxInt16
	}
	output, err := resampling.ResampleMono(input, float64(from), float64(to), resampleQuality)
	if err != nil {
		return nil, fmt.Errorf("convert: resample %d -> %d: %w", from, to, err)
	}
	out := make([]int16, len(output))
	for i, v := range output {
		out[i] = int16(math.Round(math.Max(-1, math.Min(1, v)) * math.MaxInt16))
	}
	return out, nil
}
