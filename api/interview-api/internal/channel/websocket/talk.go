// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_websocket

import (
	"context"
	"errors"
	"fmt"

	internal_playback "github.com/rapidaai/interview/api/interview-api/internal/audio/playback"
	internal_interaction "github.com/rapidaai/interview/api/interview-api/internal/interaction"
	internal_interview "github.com/rapidaai/interview/api/interview-api/internal/interview"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/types"
	"github.com/rapidaai/interview/pkg/utils"
	"golang.org/x/sync/errgroup"
)

const eventBuffer = 256

// Talk runs the interview over the streamer until it completes, the browser
// leaves or ctx is done. The streamer is closed on return.
func Talk(ctx context.Context, logger commons.Logger, streamer *Streamer, interview *internal_interview.Interview) error {
	defer streamer.Close()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	// the browser leaving ends the interview run as well
	g.Go(func() error {
		defer cancel()
		return streamer.ReadLoop(gCtx)
	})

	g.Go(func() error {
		for cmd := range streamer.Commands() {
			cmd := cmd
			utils.Go(gCtx, func() { dispatch(gCtx, logger, streamer, interview, cmd) })
		}
		return nil
	})

	g.Go(func() error {
		media := internal_interview.Media{
			Device: streamer.Device(),
			Player: internal_playback.NewAudioPlayer(logger, streamer.Sink()),
		}
		results, err := interview.Run(gCtx, media, func(c *internal_interaction.Controller) {
			forward(gCtx, logger, streamer, c)
		})
		if err != nil {
			if gCtx.Err() == nil {
				_ = streamer.Send(errorMessage("", err))
			}
			streamer.Close()
			if errors.Is(err, types.ErrInteractionClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("talk: %w", err)
		}
		_ = streamer.Send(Message{Type: MessageCompleted, Data: results})
		streamer.Close()
		return nil
	})

	err := g.Wait()
	if err != nil {
		logger.Errorf("talk: session=%s ended: %v", interview.SessionID(), err)
	}
	return err
}

// forward announces a new question and relays its events until it is torn down.
func forward(ctx context.Context, logger commons.Logger, streamer *Streamer, c *internal_interaction.Controller) {
	events, _ := c.Subscribe(eventBuffer)
	_ = streamer.Send(Message{Type: MessageQuestion, Data: c.Snapshot()})
	utils.Go(ctx, func() {
		for ev := range events {
			if err := streamer.Send(eventMessage(ev)); err != nil {
				logger.Debugf("talk: event %s not delivered: %v", ev.Type(), err)
			}
		}
	})
}

func dispatch(ctx context.Context, logger commons.Logger, streamer *Streamer, interview *internal_interview.Interview, cmd Command) {
	if cmd.Type == CommandCancel {
		logger.Infof("talk: session=%s cancelled by candidate", interview.SessionID())
		interview.Cancel()
		return
	}
	current := interview.Current()
	if current == nil {
		_ = streamer.Send(errorMessage(cmd.Type, types.ErrInvalidPhase))
		return
	}

	var err error
	switch cmd.Type {
	case CommandRepeat:
		err = current.RequestRepeat(ctx)
	case CommandAdvance:
		err = current.Advance(ctx)
	case CommandStop:
		var stopped bool
		stopped, err = current.StopRecording(ctx)
		if err == nil && !stopped {
			_ = streamer.Send(Message{Type: MessageRejected, Data: map[string]string{"command": cmd.Type}})
			return
		}
	case CommandRetry:
		err = current.Retry(ctx)
	case CommandSnapshot:
		_ = streamer.Send(Message{Type: MessageSnapshot, Data: current.Snapshot()})
		return
	default:
		logger.Warnf("talk: unknown command %q", cmd.Type)
		return
	}
	if err != nil {
		logger.Debugf("talk: %s rejected: %v", cmd.Type, err)
		_ = streamer.Send(errorMessage(cmd.Type, err))
	}
}
