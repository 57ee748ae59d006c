// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_scheduler

import (
	"context"
	"sync"
	"time"

	internal_type "github.com/rapidaai/interview/api/interview-api/internal/type"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/utils"
)

type Option func(*scheduler)

func WithClock(clock Clock) Option {
	return func(s *scheduler) { s.clock = clock }
}

// scheduler runs every countdown and interval on its own goroutine. All of
// them hang off one generation context, so CancelAll is a single cancel and
// never waits for a callback to return.
type scheduler struct {
	logger commons.Logger
	clock  Clock

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(logger commons.Logger, opts ...Option) internal_type.Scheduler {
	s := &scheduler{
		logger: logger,
		clock:  RealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

func (s *scheduler) generation() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *scheduler) Countdown(total int, unit time.Duration, onTick func(remaining int), onExpire func()) {
	ctx := s.generation()
	utils.Go(ctx, func() {
		if total <= 0 {
			if ctx.Err() == nil {
				onExpire()
			}
			return
		}
		ticker := s.clock.NewTicker(unit)
		defer ticker.Stop()

		remaining := total
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				if ctx.Err() != nil {
					return
				}
				remaining--
				if remaining <= 0 {
					onExpire()
					return
				}
				onTick(remaining)
			}
		}
	})
}

func (s *scheduler) Interval(period time.Duration, onTick func(ctx context.Context)) {
	ctx := s.generation()
	utils.Go(ctx, func() {
		ticker := s.clock.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				if ctx.Err() != nil {
					return
				}
				onTick(ctx)
			}
		}
	})
}

// Delay blocks for d or until ctx is done, whichever comes first.
func (s *scheduler) Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.clock.After(d):
		return nil
	}
}

func (s *scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(context.Background())
}
