// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	internal_audio "github.com/rapidaai/interview/api/interview-api/internal/audio"
	internal_type "github.com/rapidaai/interview/api/interview-api/internal/type"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/types"
)

const (
	DefaultReadSize    = 3200 // 100ms at 16kHz linear16
	DefaultStopTimeout = 2 * time.Second
)

type Option func(*audioCapture)

// WithReadSize sets the size of a single device read.
func WithReadSize(n int) Option {
	return func(c *audioCapture) {
		if n > 0 {
			c.readSize = n
		}
	}
}

// WithStopTimeout bounds how long Stop waits for the device stream to drain.
func WithStopTimeout(d time.Duration) Option {
	return func(c *audioCapture) { c.stopTimeout = d }
}

// WithClock is injectable for testing; defaults to time.Now.
func WithClock(clock func() time.Time) Option {
	return func(c *audioCapture) { c.clock = clock }
}

type audioCapture struct {
	logger      commons.Logger
	device      internal_type.Device
	readSize    int
	stopTimeout time.Duration
	clock       func() time.Time

	mu        sync.Mutex
	started   bool
	active    bool
	stream    io.ReadCloser
	buffer    []byte
	reads     int
	startTime time.Time
	pumpDone  chan struct{}
}

func NewAudioCapture(logger commons.Logger, device internal_type.Device, opts ...Option) internal_type.Capturer {
	c := &audioCapture{
		logger:      logger,
		device:      device,
		readSize:    DefaultReadSize,
		stopTimeout: DefaultStopTimeout,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start opens the device and begins buffering on a pump goroutine.
func (c *audioCapture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return types.ErrAlreadyRecording
	}

	stream, err := c.device.Open(ctx)
	if err != nil {
		c.logger.Errorf("capture: unable to open device: %v", err)
		return fmt.Errorf("capture: %w: %v", types.ErrDevice, err)
	}

	c.started = true
	c.active = true
	c.stream = stream
	c.buffer = c.buffer[:0]
	c.reads = 0
	c.startTime = c.clock()
	c.pumpDone = make(chan struct{})
	go c.pump(stream, c.pumpDone)

	c.logger.Debugf("capture: started, format=%s sampleRate=%d", c.device.Config().Format, c.device.Config().SampleRate)
	return nil
}

// pump copies device reads into the buffer until the stream ends. Reads from
// a stream that has since been released are dropped.
func (c *audioCapture) pump(stream io.ReadCloser, done chan struct{}) {
	defer close(done)
	chunk := make([]byte, c.readSize)
	for {
		n, err := stream.Read(chunk)
		if n > 0 {
			c.mu.Lock()
			if c.stream == stream {
				c.buffer = append(c.buffer, chunk[:n]...)
				c.reads++
			}
			c.mu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				c.logger.Debugf("capture: device stream ended: %v", err)
			}
			return
		}
	}
}

func (c *audioCapture) Peek() internal_audio.CapturedAudio {
	c.mu.Lock()
	defer c.mu.Unlock()
	return internal_audio.NewCapturedAudio(c.buffer, c.device.Config())
}

func (c *audioCapture) Stop() (internal_audio.CapturedAudio, error) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return internal_audio.CapturedAudio{}, types.ErrNotRecording
	}
	stream, done := c.stream, c.pumpDone
	c.active = false
	c.mu.Unlock()

	stream.Close()
	select {
	case <-done:
	case <-time.After(c.stopTimeout):
		c.logger.Warnf("capture: device did not drain within %s, finalizing with what was buffered", c.stopTimeout)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	artifact := internal_audio.NewCapturedAudio(c.buffer, c.device.Config())
	c.logger.Info(fmt.Sprintf(
		"capture stop: audio=%d (%.2fs), wall=%.2fs, reads=%d",
		artifact.Len(), artifact.Duration().Seconds(),
		c.clock().Sub(c.startTime).Seconds(), c.reads,
	))
	c.stream = nil
	c.buffer = nil
	return artifact, nil
}

func (c *audioCapture) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *audioCapture) Release() {
	c.mu.Lock()
	stream := c.stream
	c.stream = nil
	c.active = false
	c.buffer = nil
	c.mu.Unlock()

	if stream != nil {
		stream.Close()
		c.logger.Debugf("capture: released device")
	}
}
