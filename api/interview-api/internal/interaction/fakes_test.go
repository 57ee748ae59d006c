// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_interaction

import (
	"context"
	"sync"
	"time"

	internal_audio "github.com/rapidaai/interview/api/interview-api/internal/audio"
	"github.com/rapidaai/interview/pkg/types"
)

// fakeScheduler records every timer and fires them only when the test asks,
// on the test goroutine.
type fakeScheduler struct {
	mu         sync.Mutex
	countdowns []*fakeCountdown
	intervals  []*fakeInterval
	delays     []time.Duration
	cancelAlls int
	// runs before a countdown is registered
	beforeCountdown func()
}

type fakeCountdown struct {
	total     int
	onTick    func(int)
	onExpire  func()
	cancelled bool
}

type fakeInterval struct {
	period    time.Duration
	onTick    func(context.Context)
	ctx       context.Context
	cancel    context.CancelFunc
	cancelled bool
}

func (s *fakeScheduler) Countdown(total int, unit time.Duration, onTick func(int), onExpire func()) {
	if s.beforeCountdown != nil {
		s.beforeCountdown()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countdowns = append(s.countdowns, &fakeCountdown{total: total, onTick: onTick, onExpire: onExpire})
}

func (s *fakeScheduler) Interval(period time.Duration, onTick func(context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, cancel := context.WithCancel(context.Background())
	s.intervals = append(s.intervals, &fakeInterval{period: period, onTick: onTick, ctx: ctx, cancel: cancel})
}

func (s *fakeScheduler) Delay(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *fakeScheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAlls++
	for _, c := range s.countdowns {
		c.cancelled = true
	}
	for _, i := range s.intervals {
		i.cancelled = true
		i.cancel()
	}
}

func (s *fakeScheduler) active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.countdowns {
		if !c.cancelled {
			n++
		}
	}
	for _, i := range s.intervals {
		if !i.cancelled {
			n++
		}
	}
	return n
}

func (s *fakeScheduler) activeCountdown() *fakeCountdown {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.countdowns {
		if !c.cancelled {
			return c
		}
	}
	return nil
}

// tickCountdown delivers one elapsed unit to the active countdown.
func (s *fakeScheduler) tickCountdown(remaining int) {
	if c := s.activeCountdown(); c != nil {
		c.onTick(remaining)
	}
}

func (s *fakeScheduler) expireCountdown() {
	c := s.activeCountdown()
	if c == nil {
		return
	}
	s.mu.Lock()
	c.cancelled = true
	s.mu.Unlock()
	c.onExpire()
}

// tick fires every live interval with the given period once.
func (s *fakeScheduler) tick(period time.Duration) {
	s.mu.Lock()
	due := make([]*fakeInterval, 0, len(s.intervals))
	for _, i := range s.intervals {
		if i.period == period {
			due = append(due, i)
		}
	}
	s.mu.Unlock()

	for _, i := range due {
		s.mu.Lock()
		live := !i.cancelled
		s.mu.Unlock()
		if live {
			i.onTick(i.ctx)
		}
	}
}

type fakeCapturer struct {
	mu       sync.Mutex
	startErr error
	stopErr  error
	active   bool
	started  int
	released int
	peeks    []int
	data     []byte
	// runs before Stop looks at the capture state
	beforeStop func()
}

func (c *fakeCapturer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		return c.startErr
	}
	if c.active {
		return types.ErrAlreadyRecording
	}
	c.active = true
	c.started++
	return nil
}

func (c *fakeCapturer) Peek() internal_audio.CapturedAudio {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.peeks) > 0 {
		size := c.peeks[0]
		c.peeks = c.peeks[1:]
		return internal_audio.NewCapturedAudio(make([]byte, size), internal_audio.INTERVIEW_AUDIO_CONFIG)
	}
	return internal_audio.NewCapturedAudio(c.data, internal_audio.INTERVIEW_AUDIO_CONFIG)
}

func (c *fakeCapturer) Stop() (internal_audio.CapturedAudio, error) {
	if c.beforeStop != nil {
		c.beforeStop()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopErr != nil {
		return internal_audio.CapturedAudio{}, c.stopErr
	}
	if !c.active {
		return internal_audio.CapturedAudio{}, types.ErrNotRecording
	}
	c.active = false
	return internal_audio.NewCapturedAudio(c.data, internal_audio.INTERVIEW_AUDIO_CONFIG), nil
}

func (c *fakeCapturer) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *fakeCapturer) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
	c.released++
}

func (c *fakeCapturer) releases() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

type fakeSynthesizer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *fakeSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return []byte("clip:" + text), nil
}

type fakePlayer struct {
	mu      sync.Mutex
	plays   int
	err     error
	block   chan struct{}
	playing chan struct{}
}

func (p *fakePlayer) Play(ctx context.Context, clip []byte) error {
	p.mu.Lock()
	p.plays++
	block, playing, err := p.block, p.playing, p.err
	p.mu.Unlock()

	if playing != nil {
		playing <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (p *fakePlayer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plays
}

type fakeTranscriber struct {
	mu      sync.Mutex
	sizes   []int
	respond func(call int, audio []byte) (string, error)
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	f.mu.Lock()
	f.sizes = append(f.sizes, len(audio))
	call := len(f.sizes)
	respond := f.respond
	f.mu.Unlock()
	if respond != nil {
		return respond(call, audio)
	}
	return "hello world", nil
}

func (f *fakeTranscriber) calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.sizes...)
}

type fakeScorer struct {
	mu          sync.Mutex
	submissions []types.AnswerSubmission
	respond     func(call int) (types.AnswerEvaluation, error)
	entered     chan struct{}
	block       chan struct{}
}

func (f *fakeScorer) SubmitAnswer(ctx context.Context, submission types.AnswerSubmission) (types.AnswerEvaluation, error) {
	f.mu.Lock()
	f.submissions = append(f.submissions, submission)
	call := len(f.submissions)
	respond, entered, block := f.respond, f.entered, f.block
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if respond != nil {
		return respond(call)
	}
	return types.AnswerEvaluation{Score: 7, Feedback: "solid"}, nil
}

func (f *fakeScorer) calls() []types.AnswerSubmission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.AnswerSubmission(nil), f.submissions...)
}
