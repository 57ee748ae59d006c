// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq float64, rate uint32, seconds float64, amplitude float64) []int16 {
	n := int(float64(rate) * seconds)
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

// rms over the middle half, away from filter edges
func rms(samples []int16) float64 {
	lo, hi := len(samples)/4, len(samples)*3/4
	if hi <= lo {
		return 0
	}
	sum := 0.0
	for _, s := range samples[lo:hi] {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(hi-lo))
}

func TestConvert_SameFormat(t *testing.T) {
	pcm := fromSamples([]int16{1, 2, 3, 4})
	out, err := Convert(pcm, INTERVIEW_AUDIO_CONFIG, INTERVIEW_AUDIO_CONFIG)
	require.NoError(t, err)
	assert.Equal(t, pcm, out)
}

func TestConvert_UpsampleKeepsTone(t *testing.T) {
	in := sine(440, 8000, 0.5, 10000)
	out, err := Convert(fromSamples(in), NewLinear16Config(8000), NewLinear16Config(16000))
	require.NoError(t, err)

	samples := toSamples(out)
	assert.InDelta(t, 2*len(in), len(samples), 0.15*float64(2*len(in)))
	assert.InDelta(t, rms(in), rms(samples), 0.15*rms(in))
}

func TestConvert_DownsampleKeepsSpeechBand(t *testing.T) {
	in := sine(1000, 48000, 0.5, 10000)
	out, err := Convert(fromSamples(in), NewLinear16Config(48000), NewLinear16Config(16000))
	require.NoError(t, err)

	samples := toSamples(out)
	assert.InDelta(t, len(in)/3, len(samples), 0.15*float64(len(in)/3))
	assert.InDelta(t, rms(in), rms(samples), 0.15*rms(in))
}

func TestConvert_DownsampleRemovesContentAboveNyquist(t *testing.T) {
	// 12 kHz cannot be represented at 16 kHz and must not fold back as 4 kHz
	in := sine(12000, 48000, 0.5, 10000)
	require.Greater(t, rms(in), 7000.0)

	out, err := Convert(fromSamples(in), NewLinear16Config(48000), NewLinear16Config(16000))
	require.NoError(t, err)
	assert.Less(t, rms(toSamples(out)), 0.1*rms(in))
}

func TestConvert_Stereo(t *testing.T) {
	stereo := &AudioConfig{Format: Linear16, SampleRate: 16000, Channels: 2}
	pcm := fromSamples([]int16{100, 300, -100, -300})
	out, err := Convert(pcm, stereo, INTERVIEW_AUDIO_CONFIG)
	require.NoError(t, err)
	assert.Equal(t, []int16{200, -200}, toSamples(out))
}

func TestConvert_ToMuLaw(t *testing.T) {
	pcm := fromSamples([]int16{0, 1000, -1000, 0})
	mulaw := &AudioConfig{Format: MuLaw8, SampleRate: 16000, Channels: 1}
	out, err := Convert(pcm, INTERVIEW_AUDIO_CONFIG, mulaw)
	require.NoError(t, err)
	assert.Len(t, out, 4)
}

func TestConvert_Errors(t *testing.T) {
	_, err := Convert([]byte{0, 0}, nil, INTERVIEW_AUDIO_CONFIG)
	assert.Error(t, err)

	_, err = Convert([]byte{0, 0}, INTERVIEW_AUDIO_CONFIG, &AudioConfig{Format: Container})
	assert.Error(t, err)
}
