// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/zaf/g711"
)

const (
	wavHeaderSize   = 44
	wavPCMFormat    = 1
	wavMuLawFormat  = 7
	wavBitsPerPCM16 = 16
)

var errNotWAV = errors.New("not a RIFF/WAVE stream")

// EncodeWAV wraps linear16 PCM in a canonical 44-byte WAV header.
func EncodeWAV(pcmData []byte, config *AudioConfig) []byte {
	var buf bytes.Buffer
	sampleRate := config.SampleRate
	channels := config.Channels
	blockAlign := uint16(2) * channels
	bps := sampleRate * uint32(blockAlign)

	buf.Grow(wavHeaderSize + len(pcmData))
	buf.Write([]byte("RIFF"))
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcmData)))
	buf.Write([]byte("WAVE"))

	buf.Write([]byte("fmt "))
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(wavPCMFormat))
	binary.Write(&buf, binary.LittleEndian, channels)
	binary.Write(&buf, binary.LittleEndian, sampleRate)
	binary.Write(&buf, binary.LittleEndian, bps)
	binary.Write(&buf, binary.LittleEndian, blockAlign)
	binary.Write(&buf, binary.LittleEndian, uint16(wavBitsPerPCM16))

	// data chunk
	buf.Write([]byte("data"))
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcmData)))
	buf.Write(pcmData)
	return buf.Bytes()
}

// IsWAV reports whether data starts with a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// DecodeWAV walks the RIFF chunks and returns linear16 PCM plus its config.
// µ-law payloads are expanded to linear16.
func DecodeWAV(data []byte) ([]byte, *AudioConfig, error) {
	if !IsWAV(data) {
		return nil, nil, errNotWAV
	}
	var (
		config    *AudioConfig
		format    uint16
		bitsPerSm uint16
	)
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		end := body + size
		if end > len(data) {
			// streamed WAVs often carry a bogus data size; clamp to what we have
			end = len(data)
		}
		switch id {
		case "fmt ":
			if end-body < 16 {
				return nil, nil, fmt.Errorf("wav: truncated fmt chunk")
			}
			format = binary.LittleEndian.Uint16(data[body : body+2])
			config = &AudioConfig{
				Format:     Linear16,
				Channels:   binary.LittleEndian.Uint16(data[body+2 : body+4]),
				SampleRate: binary.LittleEndian.Uint32(data[body+4 : body+8]),
			}
			bitsPerSm = binary.LittleEndian.Uint16(data[body+14 : body+16])
		case "data":
			if config == nil {
				return nil, nil, fmt.Errorf("wav: data chunk before fmt chunk")
			}
			payload := data[body:end]
			switch {
			case format == wavPCMFormat && bitsPerSm == wavBitsPerPCM16:
				return payload, config, nil
			case format == wavMuLawFormat:
				return g711.DecodeUlaw(payload), config, nil
			default:
				return nil, nil, fmt.Errorf("wav: unsupported encoding format=%d bits=%d", format, bitsPerSm)
			}
		}
		// chunks are word aligned
		offset = body + size + size%2
	}
	return nil, nil, fmt.Errorf("wav: missing data chunk")
}

// ToLinear16 normalises raw audio in config's format to linear16 PCM.
func ToLinear16(data []byte, config *AudioConfig) ([]byte, *AudioConfig, error) {
	switch config.Format {
	case Linear16:
		return data, config, nil
	case MuLaw8:
		return g711.DecodeUlaw(data), &AudioConfig{
			Format:     Linear16,
			SampleRate: config.SampleRate,
			Channels:   config.Channels,
		}, nil
	default:
		return DecodeWAV(data)
	}
}
