// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	internal_audio "github.com/rapidaai/interview/api/interview-api/internal/audio"
	internal_type "github.com/rapidaai/interview/api/interview-api/internal/type"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/types"
)

var errStreamerClosed = errors.New("websocket: streamer closed")

type Option func(*Streamer)

// WithInputConfig sets the format of the microphone frames the browser sends.
func WithInputConfig(config *internal_audio.AudioConfig) Option {
	return func(s *Streamer) { s.inputConfig = config }
}

// WithOutputConfig sets the format prompt audio is sent in.
func WithOutputConfig(config *internal_audio.AudioConfig) Option {
	return func(s *Streamer) { s.outputConfig = config }
}

func WithCommandBuffer(n int) Option {
	return func(s *Streamer) { s.commands = make(chan Command, n) }
}

// Streamer carries one browser connection. Binary frames from the browser are
// microphone audio, binary frames to the browser are prompt audio and text
// frames carry commands and events as JSON.
type Streamer struct {
	logger       commons.Logger
	conn         *websocket.Conn
	inputConfig  *internal_audio.AudioConfig
	outputConfig *internal_audio.AudioConfig

	writeMu sync.Mutex

	mu       sync.Mutex
	mic      *io.PipeWriter
	playing  chan struct{}
	commands chan Command
	done     chan struct{}
	closing  sync.Once
}

func NewStreamer(logger commons.Logger, conn *websocket.Conn, opts ...Option) *Streamer {
	s := &Streamer{
		logger:       logger,
		conn:         conn,
		inputConfig:  internal_audio.INTERVIEW_AUDIO_CONFIG,
		outputConfig: &internal_audio.AudioConfig{Format: internal_audio.Container},
		commands:     make(chan Command, 16),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Commands delivers every command except playback_ended, which the sink
// consumes itself. The channel is closed when the connection ends.
func (s *Streamer) Commands() <-chan Command {
	return s.commands
}

func (s *Streamer) Done() <-chan struct{} {
	return s.done
}

// Device exposes the inbound audio as a capture device.
func (s *Streamer) Device() internal_type.Device {
	return &device{streamer: s}
}

// Sink exposes the outbound audio path to the player.
func (s *Streamer) Sink() internal_type.Sink {
	return &sink{streamer: s}
}

// ReadLoop dispatches inbound frames until the connection ends or ctx is done.
func (s *Streamer) ReadLoop(ctx context.Context) error {
	defer s.shutdown()
	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer stop()

	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
			}
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debugf("websocket: connection closed by browser")
				return nil
			}
			return fmt.Errorf("websocket: read: %w", err)
		}
		switch kind {
		case websocket.BinaryMessage:
			s.onAudio(data)
		case websocket.TextMessage:
			var cmd Command
			if err := json.Unmarshal(data, &cmd); err != nil {
				s.logger.Warnf("websocket: illegal command %q: %v", string(data), err)
				continue
			}
			s.onCommand(cmd)
		}
	}
}

func (s *Streamer) onAudio(frame []byte) {
	s.mu.Lock()
	mic := s.mic
	s.mu.Unlock()
	if mic == nil {
		return
	}
	if _, err := mic.Write(frame); err != nil {
		s.mu.Lock()
		if s.mic == mic {
			s.mic = nil
		}
		s.mu.Unlock()
	}
}

func (s *Streamer) onCommand(cmd Command) {
	if cmd.Type == CommandPlaybackEnded {
		s.mu.Lock()
		if s.playing != nil {
			close(s.playing)
			s.playing = nil
		}
		s.mu.Unlock()
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.commands <- cmd:
	default:
		s.logger.Warnf("websocket: command buffer full, dropping %s", cmd.Type)
	}
}

// Send writes one JSON text frame.
func (s *Streamer) Send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.write(websocket.TextMessage, data)
}

func (s *Streamer) write(kind int, data []byte) error {
	select {
	case <-s.done:
		return errStreamerClosed
	default:
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteMessage(kind, data)
}

// Close says goodbye to the browser and closes the connection.
func (s *Streamer) Close() {
	s.shutdown()
	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()
	_ = s.conn.Close()
}

func (s *Streamer) shutdown() {
	s.closing.Do(func() {
		close(s.done)
		s.mu.Lock()
		if s.mic != nil {
			_ = s.mic.CloseWithError(types.ErrDevice)
			s.mic = nil
		}
		if s.playing != nil {
			close(s.playing)
			s.playing = nil
		}
		close(s.commands)
		s.mu.Unlock()
	})
}

type device struct {
	streamer *Streamer
}

// Open starts routing inbound audio into a fresh stream. A stream still open
// from an earlier question is closed first.
func (d *device) Open(ctx context.Context) (io.ReadCloser, error) {
	s := d.streamer
	select {
	case <-s.done:
		return nil, errStreamerClosed
	default:
	}
	reader, writer := io.Pipe()
	s.mu.Lock()
	previous := s.mic
	s.mic = writer
	s.mu.Unlock()
	if previous != nil {
		_ = previous.Close()
	}
	return reader, nil
}

func (d *device) Config() *internal_audio.AudioConfig {
	return d.streamer.inputConfig
}

type sink struct {
	streamer *Streamer
}

func (k *sink) Write(ctx context.Context, frame []byte) error {
	s := k.streamer
	s.mu.Lock()
	if s.playing == nil {
		s.playing = make(chan struct{})
	}
	s.mu.Unlock()
	return s.write(websocket.BinaryMessage, frame)
}

// Drain tells the browser the clip is complete and waits until it reports
// that playback ended.
func (k *sink) Drain(ctx context.Context) error {
	s := k.streamer
	s.mu.Lock()
	playing := s.playing
	s.mu.Unlock()
	if playing == nil {
		return nil
	}
	if err := s.Send(Message{Type: MessageAudioEnd}); err != nil {
		return err
	}
	select {
	case <-playing:
		select {
		case <-s.done:
			return errStreamerClosed
		default:
			return nil
		}
	case <-ctx.Done():
		s.mu.Lock()
		if s.playing == playing {
			s.playing = nil
		}
		s.mu.Unlock()
		return ctx.Err()
	}
}

func (k *sink) Config() *internal_audio.AudioConfig {
	return k.streamer.outputConfig
}
