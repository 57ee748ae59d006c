// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_capture

import (
	"context"
	"io"

	internal_audio "github.com/rapidaai/interview/api/interview-api/internal/audio"
	internal_type "github.com/rapidaai/interview/api/interview-api/internal/type"
)

type funcDevice struct {
	config *internal_audio.AudioConfig
	open   func(ctx context.Context) (io.ReadCloser, error)
}

// NewDevice adapts an open function into a Device.
func NewDevice(config *internal_audio.AudioConfig, open func(ctx context.Context) (io.ReadCloser, error)) internal_type.Device {
	return &funcDevice{config: config, open: open}
}

func (d *funcDevice) Open(ctx context.Context) (io.ReadCloser, error) {
	return d.open(ctx)
}

func (d *funcDevice) Config() *internal_audio.AudioConfig {
	return d.config
}
