// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_interaction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	internal_audio "github.com/rapidaai/interview/api/interview-api/internal/audio"
	internal_type "github.com/rapidaai/interview/api/interview-api/internal/type"
	"github.com/rapidaai/interview/config"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/types"
	"github.com/rapidaai/interview/pkg/utils"
)

// Dependencies are the collaborators a controller drives. The capturer and
// scheduler are owned exclusively by one controller.
type Dependencies struct {
	Synthesizer internal_type.Synthesizer
	Transcriber internal_type.Transcriber
	Scorer      internal_type.Scorer
	Player      internal_type.Player
	Capturer    internal_type.Capturer
	Scheduler   internal_type.Scheduler
}

func (d Dependencies) validate() error {
	switch {
	case d.Synthesizer == nil:
		return errors.New("synthesizer is required")
	case d.Transcriber == nil:
		return errors.New("transcriber is required")
	case d.Scorer == nil:
		return errors.New("scorer is required")
	case d.Player == nil:
		return errors.New("player is required")
	case d.Capturer == nil:
		return errors.New("capturer is required")
	case d.Scheduler == nil:
		return errors.New("scheduler is required")
	}
	return nil
}

type Option func(*Controller)

// OnEvaluated is called once, on the processing goroutine, with the evaluation.
func OnEvaluated(fn func(types.AnswerEvaluation)) Option {
	return func(c *Controller) { c.onEvaluated = fn }
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	SessionID             string                  `json:"session_id"`
	QuestionIndex         int                     `json:"question_number"`
	QuestionText          string                  `json:"question_text"`
	TotalQuestions        int                     `json:"total_questions"`
	Phase                 Phase                   `json:"phase"`
	RepeatsUsed           int                     `json:"repeats_used"`
	RepeatsRemaining      int                     `json:"repeats_remaining"`
	RepeatWindowRemaining int                     `json:"repeat_window_remaining"`
	RecordingSeconds      int                     `json:"recording_seconds"`
	CanStop               bool                    `json:"can_stop"`
	Preview               string                  `json:"preview,omitempty"`
	Processing            bool                    `json:"processing"`
	Error                 string                  `json:"error,omitempty"`
	Evaluation            *types.AnswerEvaluation `json:"evaluation,omitempty"`
	Closed                bool                    `json:"closed"`
}

type outcome struct {
	evaluation types.AnswerEvaluation
	err        error
}

// Controller runs the interaction for one question: speak it, hold the
// repeat window, record the answer and have it scored.
type Controller struct {
	logger      commons.Logger
	session     Session
	policy      config.Policy
	deps        Dependencies
	onEvaluated func(types.AnswerEvaluation)

	ctx      context.Context
	cancel   context.CancelFunc
	teardown sync.Once
	outcome  chan outcome

	mu              sync.Mutex
	token           string
	phase           Phase
	started         bool
	closed          bool
	repeatsUsed     int
	replaying       bool
	windowRemaining int
	advancing       bool
	recordingClock  int
	canStop         bool
	stopping        bool
	polling         bool
	preview         string
	artifact        internal_audio.CapturedAudio
	processing      bool
	lastErr         error
	evaluated       bool
	evaluation      types.AnswerEvaluation

	subMu       sync.Mutex
	subscribers map[int]chan Event
	nextSub     int
	subsClosed  bool
}

func NewController(logger commons.Logger, session Session, policy config.Policy, deps Dependencies, opts ...Option) (*Controller, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("interaction: %w", err)
	}
	if err := deps.validate(); err != nil {
		return nil, fmt.Errorf("interaction: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		logger:      logger,
		session:     session,
		policy:      policy,
		deps:        deps,
		ctx:         ctx,
		cancel:      cancel,
		outcome:     make(chan outcome, 1),
		token:       uuid.NewString(),
		phase:       PhaseQuestion,
		subscribers: make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Controller) Session() Session {
	return c.session
}

// Start speaks the question and opens the repeat window. It returns once
// the prompt has been delivered; a failed synthesis or playback still counts
// as delivered.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return types.ErrInteractionClosed
	}
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("interaction: already started: %w", types.ErrInvalidPhase)
	}
	c.started = true
	c.mu.Unlock()

	c.logger.Infof("interaction: session=%s question %d/%d", c.session.SessionID, c.session.QuestionIndex, c.session.TotalQuestions)
	if err := c.speak(ctx); err != nil {
		c.logger.Warnf("interaction: prompt not played, treating it as delivered: %v", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return types.ErrInteractionClosed
	}
	c.phase = PhaseRepeatWindow
	c.repeatsUsed = 0
	c.recordingClock = 0
	c.windowRemaining = c.policy.RepeatWindowSeconds
	c.mu.Unlock()

	c.emit(PhaseChangedEvent{From: PhaseQuestion, To: PhaseRepeatWindow})
	c.emit(RepeatWindowTickEvent{Remaining: c.policy.RepeatWindowSeconds})
	c.deps.Scheduler.Countdown(c.policy.RepeatWindowSeconds, time.Second, c.onWindowTick, c.onWindowExpired)

	// a Cancel racing the registration above has already run CancelAll
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		c.deps.Scheduler.CancelAll()
		return types.ErrInteractionClosed
	}
	return nil
}

// speak synthesizes and plays the question text. The call is bounded by
// both ctx and the controller lifetime.
func (c *Controller) speak(ctx context.Context) error {
	ctx, cancel := c.scoped(ctx)
	defer cancel()

	clip, err := c.deps.Synthesizer.Synthesize(ctx, c.session.QuestionText)
	if err != nil {
		return fmt.Errorf("interaction: synthesize prompt: %w", err)
	}
	if err := c.deps.Player.Play(ctx, clip); err != nil {
		return fmt.Errorf("interaction: play prompt: %w", err)
	}
	return nil
}

func (c *Controller) scoped(ctx context.Context) (context.Context, context.CancelFunc) {
	scoped, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	return scoped, func() {
		stop()
		cancel()
	}
}

func (c *Controller) onWindowTick(remaining int) {
	c.mu.Lock()
	if c.closed || c.phase != PhaseRepeatWindow || c.advancing {
		c.mu.Unlock()
		return
	}
	c.windowRemaining = remaining
	c.mu.Unlock()
	c.emit(RepeatWindowTickEvent{Remaining: remaining})
}

func (c *Controller) onWindowExpired() {
	c.mu.Lock()
	if !c.closed && c.phase == PhaseRepeatWindow {
		c.windowRemaining = 0
	}
	c.mu.Unlock()
	c.emit(RepeatWindowTickEvent{Remaining: 0})

	if err := c.beginRecording(); err != nil && !errors.Is(err, types.ErrInvalidPhase) {
		c.logger.Debugf("interaction: recording not started after repeat window: %v", err)
	}
}

// RequestRepeat replays the question. The repeat is consumed even if the
// replay fails; the failure is returned but is not fatal.
func (c *Controller) RequestRepeat(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return types.ErrInteractionClosed
	}
	if c.phase != PhaseRepeatWindow || c.advancing {
		c.mu.Unlock()
		return fmt.Errorf("interaction: repeat in %s: %w", c.phase, types.ErrInvalidPhase)
	}
	if c.repeatsUsed >= c.policy.MaxRepeats {
		c.mu.Unlock()
		return types.ErrRepeatLimitExceeded
	}
	if c.replaying {
		c.mu.Unlock()
		return fmt.Errorf("interaction: replay in progress: %w", types.ErrBusy)
	}
	c.repeatsUsed++
	c.replaying = true
	used := c.repeatsUsed
	c.mu.Unlock()

	c.emit(RepeatEvent{Used: used, Remaining: c.policy.MaxRepeats - used})
	err := c.speak(ctx)

	c.mu.Lock()
	c.replaying = false
	c.mu.Unlock()

	if err != nil {
		c.logger.Warnf("interaction: replay %d failed: %v", used, err)
		return err
	}
	return nil
}

// Advance ends the repeat window early.
func (c *Controller) Advance(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.beginRecording()
}

// beginRecording runs the pre-roll and opens the microphone. It commits the
// transition, so the pre-roll only stops when the controller is cancelled.
func (c *Controller) beginRecording() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return types.ErrInteractionClosed
	}
	if c.phase != PhaseRepeatWindow || c.advancing {
		c.mu.Unlock()
		return fmt.Errorf("interaction: advance in %s: %w", c.phase, types.ErrInvalidPhase)
	}
	c.advancing = true
	c.mu.Unlock()

	c.deps.Scheduler.CancelAll()
	c.emit(PreRollEvent{Seconds: c.policy.PreRecordDelaySeconds})
	if err := c.deps.Scheduler.Delay(c.ctx, c.policy.PreRecordDelay()); err != nil {
		return types.ErrInteractionClosed
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return types.ErrInteractionClosed
	}
	c.mu.Unlock()

	if err := c.deps.Capturer.Start(c.ctx); err != nil {
		err = fmt.Errorf("interaction: start capture: %w", err)
		c.fatal(err)
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.deps.Capturer.Release()
		return types.ErrInteractionClosed
	}
	c.phase = PhaseRecording
	c.recordingClock = 0
	c.canStop = false
	c.preview = ""
	c.mu.Unlock()

	c.logger.Debugf("interaction: recording question %d", c.session.QuestionIndex)
	c.emit(PhaseChangedEvent{From: PhaseRepeatWindow, To: PhaseRecording})
	c.emit(RecordingTickEvent{Elapsed: 0, CanStop: false})

	c.deps.Scheduler.Interval(time.Second, c.onRecordingTick)
	c.deps.Scheduler.Interval(c.policy.PollInterval(), c.onPoll)

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		c.deps.Scheduler.CancelAll()
	}
	return nil
}

func (c *Controller) onRecordingTick(ctx context.Context) {
	c.mu.Lock()
	if c.closed || c.phase != PhaseRecording || c.stopping {
		c.mu.Unlock()
		return
	}
	c.recordingClock++
	elapsed := c.recordingClock
	gateOpened := false
	if !c.canStop && elapsed >= c.policy.MinimumRecordingSeconds {
		c.canStop = true
		gateOpened = true
	}
	canStop := c.canStop
	preview := c.preview
	ceiling := elapsed >= c.policy.MaximumRecordingSeconds
	c.mu.Unlock()

	c.emit(RecordingTickEvent{Elapsed: elapsed, CanStop: canStop})
	if gateOpened && preview != "" {
		c.emit(PreviewEvent{Text: preview})
	}
	if ceiling {
		c.logger.Infof("interaction: recording ceiling of %ds reached, stopping", c.policy.MaximumRecordingSeconds)
		if _, err := c.stop(true); err != nil {
			c.logger.Warnf("interaction: auto stop failed: %v", err)
		}
	}
}

// onPoll transcribes what has been captured so far. Failures only matter to
// the log; the final transcription supersedes every preview.
func (c *Controller) onPoll(ctx context.Context) {
	c.mu.Lock()
	if c.closed || c.phase != PhaseRecording || c.stopping || c.polling {
		c.mu.Unlock()
		return
	}
	c.polling = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.polling = false
		c.mu.Unlock()
	}()

	audio := c.deps.Capturer.Peek()
	if audio.Len() < c.policy.MinimumPollableBytes {
		return
	}
	text, err := c.deps.Transcriber.Transcribe(ctx, audio.Encode())
	if err != nil {
		c.logger.Debugf("interaction: partial transcription skipped: %v", err)
		return
	}

	c.mu.Lock()
	if c.closed || c.phase != PhaseRecording || c.stopping {
		c.mu.Unlock()
		return
	}
	c.preview = text
	visible := c.canStop
	c.mu.Unlock()

	if visible {
		c.emit(PreviewEvent{Text: text})
	}
}

// StopRecording ends the answer. It reports false without error while the
// minimum recording duration has not passed yet.
func (c *Controller) StopRecording(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, types.ErrInteractionClosed
	}
	switch {
	case c.phase == PhaseProcessing:
		c.mu.Unlock()
		return false, nil
	case c.phase != PhaseRecording:
		phase := c.phase
		c.mu.Unlock()
		return false, fmt.Errorf("interaction: stop in %s: %w", phase, types.ErrInvalidPhase)
	case !c.canStop:
		c.mu.Unlock()
		return false, nil
	}
	c.mu.Unlock()
	return c.stop(false)
}

// stop finalizes the capture and starts processing. The ceiling bypasses
// the minimum duration gate.
func (c *Controller) stop(ceiling bool) (bool, error) {
	c.mu.Lock()
	if c.closed || c.phase != PhaseRecording || c.stopping || (!ceiling && !c.canStop) {
		c.mu.Unlock()
		return false, nil
	}
	c.stopping = true
	elapsed := c.recordingClock
	c.mu.Unlock()

	c.deps.Scheduler.CancelAll()
	artifact, err := c.deps.Capturer.Stop()
	if err != nil {
		c.mu.Lock()
		c.stopping = false
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return false, types.ErrInteractionClosed
		}
		err = fmt.Errorf("interaction: stop capture: %w", err)
		c.fatal(err)
		return false, err
	}

	c.mu.Lock()
	c.stopping = false
	if c.closed {
		c.mu.Unlock()
		return false, types.ErrInteractionClosed
	}
	c.phase = PhaseProcessing
	c.artifact = artifact
	token := c.token
	c.mu.Unlock()

	c.logger.Infof("interaction: answer captured after %s (%d bytes)", utils.FormatClock(elapsed), artifact.Len())
	c.emit(PhaseChangedEvent{From: PhaseRecording, To: PhaseProcessing})
	c.submit(token)
	return true, nil
}

// Retry resubmits the captured answer after a failed processing attempt.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return types.ErrInteractionClosed
	case c.evaluated:
		c.mu.Unlock()
		return types.ErrAlreadyEvaluated
	case c.phase != PhaseProcessing || c.lastErr == nil:
		c.mu.Unlock()
		return fmt.Errorf("interaction: nothing to retry: %w", types.ErrInvalidPhase)
	case c.processing:
		c.mu.Unlock()
		return fmt.Errorf("interaction: processing in progress: %w", types.ErrBusy)
	}
	select {
	case <-c.outcome:
	default:
	}
	c.lastErr = nil
	token := c.token
	c.mu.Unlock()

	c.logger.Infof("interaction: retrying submission for question %d", c.session.QuestionIndex)
	c.submit(token)
	return nil
}

func (c *Controller) submit(token string) {
	c.mu.Lock()
	if c.processing {
		c.mu.Unlock()
		return
	}
	c.processing = true
	artifact := c.artifact
	c.mu.Unlock()

	utils.Go(c.ctx, func() { c.attempt(token, artifact) })
}

// attempt runs the final transcription and scoring. Results that arrive
// after the controller was cancelled are dropped.
func (c *Controller) attempt(token string, artifact internal_audio.CapturedAudio) {
	start := time.Now()
	evaluation, err := c.evaluate(token, artifact)
	c.logger.Benchmark("interaction.attempt", time.Since(start))

	c.mu.Lock()
	c.processing = false
	if c.closed || c.token != token {
		c.mu.Unlock()
		c.logger.Debugf("interaction: discarding late result for question %d", c.session.QuestionIndex)
		return
	}
	if err != nil {
		c.lastErr = err
		c.mu.Unlock()
		c.logger.Errorf("interaction: processing failed: %v", err)
		c.emit(FailedEvent{Err: err, Recoverable: types.IsRecoverable(err)})
		c.deliver(outcome{err: err})
		return
	}
	c.evaluated = true
	c.evaluation = evaluation
	c.mu.Unlock()

	c.logger.Infof("interaction: question %d scored %.1f", c.session.QuestionIndex, evaluation.Score)
	c.emit(EvaluatedEvent{Evaluation: evaluation})
	if c.onEvaluated != nil {
		c.onEvaluated(evaluation)
	}
	c.deliver(outcome{evaluation: evaluation})
}

func (c *Controller) evaluate(token string, artifact internal_audio.CapturedAudio) (types.AnswerEvaluation, error) {
	transcript, err := c.deps.Transcriber.Transcribe(c.ctx, artifact.Encode())
	if err != nil {
		return types.AnswerEvaluation{}, wrapAs(types.ErrTranscription, "final transcription", err)
	}

	c.mu.Lock()
	current := !c.closed && c.token == token
	if current {
		c.preview = transcript
	}
	c.mu.Unlock()
	if current {
		c.emit(PreviewEvent{Text: transcript, Final: true})
	}

	evaluation, err := c.deps.Scorer.SubmitAnswer(c.ctx, types.AnswerSubmission{
		SessionID:      c.session.SessionID,
		QuestionNumber: c.session.QuestionIndex,
		QuestionText:   c.session.QuestionText,
		AnswerText:     transcript,
	})
	if err != nil {
		return types.AnswerEvaluation{}, wrapAs(types.ErrScoring, "submit answer", err)
	}
	return evaluation, nil
}

func wrapAs(sentinel error, op string, err error) error {
	if errors.Is(err, sentinel) {
		return fmt.Errorf("interaction: %s: %w", op, err)
	}
	return fmt.Errorf("interaction: %s: %w: %v", op, sentinel, err)
}

func (c *Controller) deliver(o outcome) {
	select {
	case c.outcome <- o:
	default:
		c.logger.Warnf("interaction: outcome already pending, dropping")
	}
}

// fatal tears the interaction down after a device failure.
func (c *Controller) fatal(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.lastErr = err
	c.mu.Unlock()

	c.logger.Errorf("interaction: fatal: %v", err)
	c.emit(FailedEvent{Err: err, Recoverable: false})
	c.deliver(outcome{err: err})
	c.release()
}

// Cancel abandons the interaction from any phase. Idempotent.
func (c *Controller) Cancel() {
	c.mu.Lock()
	wasClosed := c.closed
	c.closed = true
	c.mu.Unlock()

	if !wasClosed {
		c.logger.Debugf("interaction: cancelled in %s", c.Phase())
	}
	c.release()
}

func (c *Controller) release() {
	c.teardown.Do(func() {
		c.deps.Scheduler.CancelAll()
		c.deps.Capturer.Release()
		c.cancel()

		c.subMu.Lock()
		c.subsClosed = true
		for id, ch := range c.subscribers {
			close(ch)
			delete(c.subscribers, id)
		}
		c.subMu.Unlock()
	})
}

// Wait blocks until the current processing attempt finishes, the
// interaction fails or is cancelled, or ctx is done.
func (c *Controller) Wait(ctx context.Context) (types.AnswerEvaluation, error) {
	c.mu.Lock()
	if c.evaluated {
		evaluation := c.evaluation
		c.mu.Unlock()
		return evaluation, nil
	}
	c.mu.Unlock()

	select {
	case o := <-c.outcome:
		return o.evaluation, o.err
	case <-c.ctx.Done():
		select {
		case o := <-c.outcome:
			return o.evaluation, o.err
		default:
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.evaluated {
			return c.evaluation, nil
		}
		if c.lastErr != nil {
			return types.AnswerEvaluation{}, c.lastErr
		}
		return types.AnswerEvaluation{}, types.ErrInteractionClosed
	case <-ctx.Done():
		return types.AnswerEvaluation{}, ctx.Err()
	}
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{
		SessionID:             c.session.SessionID,
		QuestionIndex:         c.session.QuestionIndex,
		QuestionText:          c.session.QuestionText,
		TotalQuestions:        c.session.TotalQuestions,
		Phase:                 c.phase,
		RepeatsUsed:           c.repeatsUsed,
		RepeatsRemaining:      c.policy.MaxRepeats - c.repeatsUsed,
		RepeatWindowRemaining: c.windowRemaining,
		RecordingSeconds:      c.recordingClock,
		CanStop:               c.canStop,
		Processing:            c.processing,
		Closed:                c.closed,
	}
	if c.canStop || c.phase == PhaseProcessing {
		s.Preview = c.preview
	}
	if c.lastErr != nil {
		s.Error = c.lastErr.Error()
	}
	if c.evaluated {
		evaluation := c.evaluation
		s.Evaluation = &evaluation
	}
	return s
}

// Subscribe registers an event listener. Events are dropped for a listener
// whose buffer is full. The channel is closed when the interaction is torn
// down or unsubscribe is called.
func (c *Controller) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if c.subsClosed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subscribers[id] = ch
	return ch, func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if sub, ok := c.subscribers[id]; ok {
			close(sub)
			delete(c.subscribers, id)
		}
	}
}

func (c *Controller) emit(ev Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for id, ch := range c.subscribers {
		select {
		case ch <- ev:
		default:
			c.logger.Warnw("interaction: subscriber is full, dropping event",
				"subscriber", id,
				"event", ev.Type(),
			)
		}
	}
}
