// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_interview

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	internal_audio "github.com/rapidaai/interview/api/interview-api/internal/audio"
	internal_capture "github.com/rapidaai/interview/api/interview-api/internal/audio/capture"
	internal_history "github.com/rapidaai/interview/api/interview-api/internal/history"
	internal_interaction "github.com/rapidaai/interview/api/interview-api/internal/interaction"
	internal_scheduler "github.com/rapidaai/interview/api/interview-api/internal/scheduler"
	"github.com/rapidaai/interview/config"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/connectors"
	"github.com/rapidaai/interview/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastClock runs every timer a thousand times faster than asked.
type fastClock struct{}

type fastTicker struct{ *time.Ticker }

func (t fastTicker) C() <-chan time.Time { return t.Ticker.C }

func (fastClock) NewTicker(d time.Duration) internal_scheduler.Ticker {
	return fastTicker{time.NewTicker(d / 1000)}
}

func (fastClock) After(d time.Duration) <-chan time.Time {
	return time.After(d / 1000)
}

type fakeProvider struct {
	mu        sync.Mutex
	total     int
	asked     []int
	submitted []types.AnswerSubmission
	failNext  int
	score     func(n int) float64
}

func (p *fakeProvider) StartInterview(ctx context.Context, setup types.InterviewSetup) (types.InterviewSession, error) {
	return types.InterviewSession{SessionID: "session-" + setup.CandidateName, FirstQuestion: "question 1", TotalQuestions: p.total}, nil
}

func (p *fakeProvider) NextQuestion(ctx context.Context, sessionID string, number int) (types.Question, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asked = append(p.asked, number)
	return types.Question{QuestionNumber: number, QuestionText: fmt.Sprintf("question %d", number)}, nil
}

func (p *fakeProvider) SubmitAnswer(ctx context.Context, submission types.AnswerSubmission) (types.AnswerEvaluation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failNext > 0 {
		p.failNext--
		return types.AnswerEvaluation{}, fmt.Errorf("%w: backend down", types.ErrScoring)
	}
	p.submitted = append(p.submitted, submission)
	score := 5.0
	if p.score != nil {
		score = p.score(submission.QuestionNumber)
	}
	return types.AnswerEvaluation{Score: score, Feedback: fmt.Sprintf("feedback %d", submission.QuestionNumber)}, nil
}

func (p *fakeProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return []byte(text), nil
}

func (p *fakeProvider) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return fmt.Sprintf("answer of %d bytes", len(audio)), nil
}

type nopPlayer struct{}

func (nopPlayer) Play(ctx context.Context, clip []byte) error { return nil }

func testPolicy(total int) config.Policy {
	return config.Policy{
		RepeatWindowSeconds:     1,
		MaxRepeats:              2,
		PreRecordDelaySeconds:   1,
		MinimumRecordingSeconds: 0,
		MaximumRecordingSeconds: 1,
		PollIntervalSeconds:     5,
		MinimumPollableBytes:    10000,
		TotalQuestions:          total,
	}
}

func testMedia() Media {
	device := internal_capture.NewDevice(internal_audio.INTERVIEW_AUDIO_CONFIG, func(ctx context.Context) (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(make([]byte, 3200))), nil
	})
	return Media{Device: device, Player: nopPlayer{}}
}

func newTestManager(t *testing.T, provider *fakeProvider, opts ...Option) Manager {
	t.Helper()
	opts = append(opts, WithSchedulerOptions(internal_scheduler.WithClock(fastClock{})))
	m, err := NewManager(commons.NewNopLogger(), provider, testPolicy(provider.total), opts...)
	require.NoError(t, err)
	return m
}

var testSetup = types.InterviewSetup{CandidateName: "ada", JobTitle: "Engineer", InterviewType: types.InterviewTypeHR}

func TestRun_AsksEveryQuestionOnce(t *testing.T) {
	provider := &fakeProvider{total: 3, score: func(n int) float64 { return float64(n * 2) }}
	m := newTestManager(t, provider)

	interview, err := m.Start(context.Background(), testSetup, nil)
	require.NoError(t, err)

	var seen []int
	var previous *internal_interaction.Controller
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	results, err := interview.Run(ctx, testMedia(), func(c *internal_interaction.Controller) {
		if previous != nil {
			assert.True(t, previous.Snapshot().Closed, "previous question is torn down first")
		}
		assert.Same(t, c, interview.Current())
		previous = c
		seen = append(seen, c.Session().QuestionIndex)
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.Equal(t, []int{2, 3}, provider.asked, "the first question comes with the session")
	assert.Equal(t, 4.0, results.FinalScore)
	assert.InDelta(t, 40.0, results.Percentage, 1e-9)
	require.Len(t, results.QAPairs, 3)
	assert.Equal(t, "question 2", results.QAPairs[1].Question)
	assert.Equal(t, "answer of 3244 bytes", results.QAPairs[1].Answer)
	assert.Equal(t, "feedback 3", results.QAPairs[2].Feedback)
	assert.True(t, interview.IsCompleted())
	assert.Nil(t, interview.Current())
}

func TestRun_WaitsForRetryAfterScoringFailure(t *testing.T) {
	provider := &fakeProvider{total: 1, failNext: 1}
	m := newTestManager(t, provider)
	interview, err := m.Start(context.Background(), testSetup, nil)
	require.NoError(t, err)

	var controller *internal_interaction.Controller
	var mu sync.Mutex
	done := make(chan error, 1)
	go func() {
		_, err := interview.Run(context.Background(), testMedia(), func(c *internal_interaction.Controller) {
			mu.Lock()
			controller = c
			mu.Unlock()
		})
		done <- err
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return controller != nil && controller.Snapshot().Error != ""
	}, 5*time.Second, time.Millisecond)
	mu.Lock()
	require.NoError(t, controller.Retry(context.Background()))
	mu.Unlock()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("interview did not finish after retry")
	}
	assert.Len(t, interview.Answers(), 1)
}

func TestRun_CancelledContextCanResume(t *testing.T) {
	provider := &fakeProvider{total: 2}
	m := newTestManager(t, provider)
	interview, err := m.Start(context.Background(), testSetup, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	_, err = interview.Run(ctx, testMedia(), func(c *internal_interaction.Controller) {
		if c.Session().QuestionIndex == 2 {
			cancel()
		}
	})
	require.Error(t, err)
	assert.Len(t, interview.Answers(), 1)

	results, err := interview.Run(context.Background(), testMedia(), nil)
	require.NoError(t, err)
	assert.Len(t, results.QAPairs, 2)
	assert.Equal(t, []int{2}, provider.asked, "a fetched question is not fetched again")
}

func TestRun_RejectsConcurrentRuns(t *testing.T) {
	provider := &fakeProvider{total: 1}
	m := newTestManager(t, provider)
	interview, err := m.Start(context.Background(), testSetup, nil)
	require.NoError(t, err)

	interview.mu.Lock()
	interview.running = true
	interview.mu.Unlock()

	_, err = interview.Run(context.Background(), testMedia(), nil)
	assert.ErrorIs(t, err, types.ErrBusy)
}

func TestResults_NoAnswers(t *testing.T) {
	m := newTestManager(t, &fakeProvider{total: 2})
	interview, err := m.Start(context.Background(), testSetup, nil)
	require.NoError(t, err)

	_, err = interview.Results()
	assert.ErrorIs(t, err, types.ErrNoAnswers)
}

func TestRun_PersistsHistory(t *testing.T) {
	ctx := context.Background()
	conn := connectors.NewDatabaseConnector(&config.DatabaseConfig{
		Driver:            "sqlite",
		Dsn:               "file:interview_history?mode=memory&cache=shared",
		MaxOpenConnection: 1,
	}, commons.NewNopLogger())
	require.NoError(t, conn.Connect(ctx))
	t.Cleanup(func() { _ = conn.Disconnect(ctx) })
	store := internal_history.NewStore(conn, commons.NewNopLogger())
	require.NoError(t, store.Migrate(ctx))

	provider := &fakeProvider{total: 2, score: func(n int) float64 { return 8 }}
	m := newTestManager(t, provider, WithStore(store))
	interview, err := m.Start(ctx, testSetup, nil)
	require.NoError(t, err)
	_, err = interview.Run(ctx, testMedia(), nil)
	require.NoError(t, err)

	list, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, interview.SessionID(), list[0].SessionID)
	assert.Equal(t, internal_history.StatusCompleted, list[0].Status)
	assert.Equal(t, 8.0, list[0].FinalScore)

	details, err := store.Get(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Len(t, details.Questions, 2)
}

type recordingArchiver struct {
	mu       sync.Mutex
	sessions []string
}

func (a *recordingArchiver) SaveInterview(ctx context.Context, sessionID string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessions = append(a.sessions, sessionID)
	return "archived-" + sessionID, nil
}

func TestRun_ArchivesCompletedInterview(t *testing.T) {
	archiver := &recordingArchiver{}
	m := newTestManager(t, &fakeProvider{total: 1}, WithArchiver(archiver))
	interview, err := m.Start(context.Background(), testSetup, nil)
	require.NoError(t, err)

	_, err = interview.Run(context.Background(), testMedia(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{interview.SessionID()}, archiver.sessions)
}
