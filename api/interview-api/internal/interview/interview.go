// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_interview

import (
	"context"
	"fmt"
	"sync"
	"time"

	internal_capture "github.com/rapidaai/interview/api/interview-api/internal/audio/capture"
	internal_history "github.com/rapidaai/interview/api/interview-api/internal/history"
	internal_interaction "github.com/rapidaai/interview/api/interview-api/internal/interaction"
	internal_scheduler "github.com/rapidaai/interview/api/interview-api/internal/scheduler"
	internal_type "github.com/rapidaai/interview/api/interview-api/internal/type"
	"github.com/rapidaai/interview/config"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/types"
	"github.com/rapidaai/interview/pkg/utils"
)

// Media is the candidate's audio endpoint, attached for one Run.
type Media struct {
	Device internal_type.Device
	Player internal_type.Player
}

// Interview walks one candidate through every question of a session. Each
// question gets its own controller; the previous one is torn down before the
// next one starts.
type Interview struct {
	logger      commons.Logger
	provider    internal_type.Provider
	synthesizer internal_type.Synthesizer
	store       internal_history.Store
	archiver    Archiver
	policy      config.Policy

	capturerOptions  []internal_capture.Option
	schedulerOptions []internal_scheduler.Option

	setup     types.InterviewSetup
	session   types.InterviewSession
	historyID string
	startTime time.Time

	mu          sync.Mutex
	running     bool
	current     *internal_interaction.Controller
	pending     *types.Question
	answers     []types.QAPair
	completedAt time.Time
}

func (i *Interview) SessionID() string {
	return i.session.SessionID
}

func (i *Interview) Session() types.InterviewSession {
	return i.session
}

func (i *Interview) Policy() config.Policy {
	return i.policy
}

// Current is the controller of the question being asked, nil between questions.
func (i *Interview) Current() *internal_interaction.Controller {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.current
}

func (i *Interview) Answers() []types.QAPair {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]types.QAPair(nil), i.answers...)
}

func (i *Interview) IsCompleted() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return !i.completedAt.IsZero()
}

// Run asks the remaining questions over media. onQuestion is called with every
// controller before it starts so the caller can subscribe to its events. A
// Run that ends early can be resumed with a later Run; answered questions are
// not asked again.
func (i *Interview) Run(ctx context.Context, media Media, onQuestion func(*internal_interaction.Controller)) (types.InterviewResults, error) {
	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return types.InterviewResults{}, fmt.Errorf("interview: %s already running: %w", i.SessionID(), types.ErrBusy)
	}
	i.running = true
	i.mu.Unlock()
	defer func() {
		i.setCurrent(nil)
		i.mu.Lock()
		i.running = false
		i.mu.Unlock()
	}()

	for {
		if err := ctx.Err(); err != nil {
			return types.InterviewResults{}, err
		}
		question, done, err := i.nextQuestion(ctx)
		if err != nil {
			return types.InterviewResults{}, err
		}
		if done {
			break
		}
		if err := i.ask(ctx, media, question, onQuestion); err != nil {
			return types.InterviewResults{}, err
		}
	}
	return i.complete(ctx)
}

// nextQuestion returns the question to ask next, fetching it when needed.
func (i *Interview) nextQuestion(ctx context.Context) (types.Question, bool, error) {
	i.mu.Lock()
	number := len(i.answers) + 1
	pending := i.pending
	i.mu.Unlock()

	if number > i.session.TotalQuestions {
		return types.Question{}, true, nil
	}
	if pending != nil && pending.QuestionNumber == number {
		return *pending, false, nil
	}
	question, err := i.provider.NextQuestion(ctx, i.SessionID(), number)
	if err != nil {
		return types.Question{}, false, fmt.Errorf("interview: question %d: %w", number, err)
	}
	question.QuestionNumber = number
	i.mu.Lock()
	i.pending = &question
	i.mu.Unlock()
	return question, false, nil
}

func (i *Interview) ask(ctx context.Context, media Media, question types.Question, onQuestion func(*internal_interaction.Controller)) error {
	session, err := internal_interaction.NewSession(i.SessionID(), question.QuestionNumber, question.QuestionText, i.session.TotalQuestions)
	if err != nil {
		return err
	}
	controller, err := internal_interaction.NewController(i.logger, session, i.policy, internal_interaction.Dependencies{
		Synthesizer: i.synthesizer,
		Transcriber: i.provider,
		Scorer:      i.provider,
		Player:      media.Player,
		Capturer:    internal_capture.NewAudioCapture(i.logger, media.Device, i.capturerOptions...),
		Scheduler:   internal_scheduler.NewScheduler(i.logger, i.schedulerOptions...),
	})
	if err != nil {
		return err
	}
	i.setCurrent(controller)
	if onQuestion != nil {
		onQuestion(controller)
	}

	if err := controller.Start(ctx); err != nil {
		return fmt.Errorf("interview: start question %d: %w", question.QuestionNumber, err)
	}
	evaluation, err := i.await(ctx, controller)
	if err != nil {
		return err
	}

	qa := types.QAPair{
		Number:   question.QuestionNumber,
		Question: question.QuestionText,
		Answer:   controller.Snapshot().Preview,
		Score:    evaluation.Score,
		Feedback: evaluation.Feedback,
	}
	i.mu.Lock()
	i.answers = append(i.answers, qa)
	i.pending = nil
	i.mu.Unlock()

	if i.store != nil && i.historyID != "" {
		if err := i.store.SaveAnswer(ctx, i.historyID, qa); err != nil {
			i.logger.Warnf("interview: answer %d not persisted: %v", qa.Number, err)
		}
	}
	i.logger.Infof("interview: session=%s answered %d/%d", i.SessionID(), qa.Number, i.session.TotalQuestions)
	return nil
}

// await waits for the evaluation. Recoverable failures keep the controller
// alive so the candidate can retry.
func (i *Interview) await(ctx context.Context, controller *internal_interaction.Controller) (types.AnswerEvaluation, error) {
	for {
		evaluation, err := controller.Wait(ctx)
		if err == nil {
			return evaluation, nil
		}
		if ctx.Err() != nil {
			return types.AnswerEvaluation{}, ctx.Err()
		}
		if !types.IsRecoverable(err) || controller.Snapshot().Closed {
			return types.AnswerEvaluation{}, err
		}
		i.logger.Warnf("interview: waiting for retry of question %d: %v", controller.Session().QuestionIndex, err)
	}
}

// setCurrent cancels the controller being replaced.
func (i *Interview) setCurrent(controller *internal_interaction.Controller) {
	i.mu.Lock()
	previous := i.current
	i.current = controller
	i.mu.Unlock()
	if previous != nil && previous != controller {
		previous.Cancel()
	}
}

func (i *Interview) complete(ctx context.Context) (types.InterviewResults, error) {
	i.mu.Lock()
	if i.completedAt.IsZero() {
		i.completedAt = time.Now()
	}
	i.mu.Unlock()

	results, err := i.Results()
	if err != nil {
		return types.InterviewResults{}, err
	}
	if i.store != nil && i.historyID != "" {
		if err := i.store.Complete(ctx, i.historyID, results.FinalScore); err != nil {
			i.logger.Warnf("interview: completion not persisted: %v", err)
		}
	}
	if i.archiver != nil {
		if id, err := i.archiver.SaveInterview(ctx, i.SessionID()); err != nil {
			i.logger.Warnf("interview: archive of %s failed: %v", i.SessionID(), err)
		} else {
			i.logger.Debugf("interview: archived %s as %s", i.SessionID(), id)
		}
	}
	i.logger.Infof("interview: session=%s completed with %.1f%%", i.SessionID(), results.Percentage)
	return results, nil
}

// Results summarises the answers given so far.
func (i *Interview) Results() (types.InterviewResults, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.answers) == 0 {
		return types.InterviewResults{}, fmt.Errorf("interview: %s: %w", i.SessionID(), types.ErrNoAnswers)
	}
	scores := make([]float64, 0, len(i.answers))
	for _, qa := range i.answers {
		scores = append(scores, qa.Score)
	}
	average := utils.AverageFloat64(scores)
	return types.InterviewResults{
		SessionID:     i.SessionID(),
		CandidateName: i.setup.CandidateName,
		JobTitle:      i.setup.JobTitle,
		InterviewType: string(i.setup.InterviewType),
		FinalScore:    average,
		Percentage:    average / 10 * 100,
		QAPairs:       append([]types.QAPair(nil), i.answers...),
		StartTime:     i.startTime,
		CompletedAt:   i.completedAt,
	}, nil
}

// Cancel abandons the question in progress. The interview can be resumed.
func (i *Interview) Cancel() {
	if current := i.Current(); current != nil {
		current.Cancel()
	}
}
