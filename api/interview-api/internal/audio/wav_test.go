// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_audio

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zaf/g711"
)

func pcm(val byte, length int) []byte {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = val
	}
	return buf
}

func TestEncodeWAVHeader(t *testing.T) {
	config := NewLinear16Config(16000)
	wav := EncodeWAV(pcm(0x01, 3200), config)

	require.Len(t, wav, wavHeaderSize+3200)
	assert.True(t, IsWAV(wav))
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(wav[28:32]), "byte rate")
	assert.Equal(t, uint32(3200), binary.LittleEndian.Uint32(wav[40:44]), "data size")
}

func TestDecodeWAVRoundTrip(t *testing.T) {
	config := NewLinear16Config(24000)
	data := pcm(0x2a, 480)

	decoded, decodedConfig, err := DecodeWAV(EncodeWAV(data, config))
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
	assert.Equal(t, uint32(24000), decodedConfig.SampleRate)
	assert.Equal(t, uint16(1), decodedConfig.Channels)
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	_, _, err := DecodeWAV([]byte("definitely not audio"))
	assert.Error(t, err)

	// header without a data chunk
	header := EncodeWAV(nil, NewLinear16Config(8000))[:36]
	_, _, err = DecodeWAV(header)
	assert.Error(t, err)
}

func TestToLinear16ExpandsMuLaw(t *testing.T) {
	ulaw := g711.EncodeUlaw(pcm(0x10, 320))
	out, config, err := ToLinear16(ulaw, &AudioConfig{Format: MuLaw8, SampleRate: 8000, Channels: 1})
	require.NoError(t, err)
	assert.Len(t, out, len(ulaw)*2)
	assert.Equal(t, Linear16, config.Format)
}

func TestAudioConfigDurations(t *testing.T) {
	config := NewLinear16Config(16000)
	assert.Equal(t, 32000, config.BytesPerSecond())
	assert.Equal(t, 640, config.FrameBytes(20*time.Millisecond))
	assert.Equal(t, time.Second, config.Duration(32000))

	container := &AudioConfig{Format: Container}
	assert.Equal(t, time.Duration(0), container.Duration(1000))
}

func TestCapturedAudioIsImmutable(t *testing.T) {
	source := pcm(0x05, 100)
	captured := NewCapturedAudio(source, INTERVIEW_AUDIO_CONFIG)
	source[0] = 0x00
	assert.Equal(t, byte(0x05), captured.Bytes()[0])

	out := captured.Bytes()
	out[1] = 0x00
	assert.Equal(t, byte(0x05), captured.Bytes()[1])
}

func TestCapturedAudioEncode(t *testing.T) {
	raw := NewCapturedAudio(pcm(0x01, 640), INTERVIEW_AUDIO_CONFIG)
	assert.True(t, IsWAV(raw.Encode()))

	webm := []byte{0x1a, 0x45, 0xdf, 0xa3}
	container := NewCapturedAudio(webm, &AudioConfig{Format: Container})
	assert.Equal(t, webm, container.Encode())
}
