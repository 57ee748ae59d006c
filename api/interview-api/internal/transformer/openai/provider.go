// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_transformer_openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	internal_type "github.com/rapidaai/interview/api/interview-api/internal/type"
	"github.com/rapidaai/interview/config"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/types"
	"github.com/rapidaai/interview/pkg/utils"
)

const fallbackFeedback = "Unable to provide detailed feedback at this time."

type sessionState struct {
	setup   types.InterviewSetup
	history []types.QAPair
	started time.Time
}

// openaiProvider runs the whole interview against OpenAI directly. It keeps
// the candidate context per session so questions can build on earlier answers.
type openaiProvider struct {
	logger commons.Logger
	client openai.Client
	cfg    config.OpenAIConfig
	total  int

	mu       sync.Mutex
	sessions map[string]*sessionState
}

func NewOpenAIProvider(logger commons.Logger, cfg *config.AppConfig, opts ...option.RequestOption) internal_type.Provider {
	requestOptions := []option.RequestOption{option.WithAPIKey(cfg.OpenAI.ApiKey)}
	if !utils.IsEmpty(cfg.OpenAI.BaseUrl) {
		requestOptions = append(requestOptions, option.WithBaseURL(cfg.OpenAI.BaseUrl))
	}
	requestOptions = append(requestOptions, opts...)
	return &openaiProvider{
		logger:   logger,
		client:   openai.NewClient(requestOptions...),
		cfg:      cfg.OpenAI,
		total:    cfg.Policy.TotalQuestions,
		sessions: make(map[string]*sessionState),
	}
}

func (p *openaiProvider) session(sessionID string) (*sessionState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("openai: %w: %s", types.ErrSessionNotFound, sessionID)
	}
	return s, nil
}

func (p *openaiProvider) StartInterview(ctx context.Context, setup types.InterviewSetup) (types.InterviewSession, error) {
	sessionID := uuid.NewString()
	p.mu.Lock()
	p.sessions[sessionID] = &sessionState{setup: setup, started: time.Now()}
	p.mu.Unlock()

	first, err := p.NextQuestion(ctx, sessionID, 1)
	if err != nil {
		return types.InterviewSession{}, err
	}
	p.logger.Infof("openai: started %s interview %s for %s", setup.InterviewType, sessionID, setup.CandidateName)
	return types.InterviewSession{
		SessionID:      sessionID,
		FirstQuestion:  first.QuestionText,
		TotalQuestions: p.total,
	}, nil
}

// NextQuestion generates question number n. A failing model falls back to a
// generic question instead of stalling the interview.
func (p *openaiProvider) NextQuestion(ctx context.Context, sessionID string, number int) (types.Question, error) {
	s, err := p.session(sessionID)
	if err != nil {
		return types.Question{}, err
	}
	p.mu.Lock()
	history := append([]types.QAPair(nil), s.history...)
	setup := s.setup
	p.mu.Unlock()

	prompt, err := renderQuestionPrompt(setup, history, number, p.total)
	if err != nil {
		return types.Question{}, err
	}
	text, err := p.complete(ctx, questionSystemPrompt, prompt, 0.7)
	if err != nil || utils.IsEmpty(cleanQuestion(text)) {
		p.logger.Warnf("openai: question %d generation failed, using fallback: %v", number, err)
		return types.Question{QuestionNumber: number, QuestionText: fallbackQuestion}, nil
	}
	return types.Question{QuestionNumber: number, QuestionText: cleanQuestion(text)}, nil
}

// SubmitAnswer scores the answer and records it in the session history.
// Transport failures surface as ErrScoring; a reply that cannot be parsed
// falls back to a neutral score.
func (p *openaiProvider) SubmitAnswer(ctx context.Context, submission types.AnswerSubmission) (types.AnswerEvaluation, error) {
	s, err := p.session(submission.SessionID)
	if err != nil {
		return types.AnswerEvaluation{}, fmt.Errorf("%w: %v", types.ErrScoring, err)
	}
	prompt, err := renderEvaluationPrompt(s.setup, submission.QuestionText, submission.AnswerText)
	if err != nil {
		return types.AnswerEvaluation{}, fmt.Errorf("%w: %v", types.ErrScoring, err)
	}
	text, err := p.complete(ctx, evaluationSystemPrompt, prompt, 0.5)
	if err != nil {
		return types.AnswerEvaluation{}, fmt.Errorf("%w: %v", types.ErrScoring, err)
	}

	evaluation, err := parseEvaluation(text)
	if err != nil {
		p.logger.Warnf("openai: %v, using fallback evaluation", err)
		evaluation = types.AnswerEvaluation{Score: 7, Feedback: fallbackFeedback}
	}

	p.mu.Lock()
	s.history = append(s.history, types.QAPair{
		Number:   submission.QuestionNumber,
		Question: submission.QuestionText,
		Answer:   submission.AnswerText,
		Score:    evaluation.Score,
		Feedback: evaluation.Feedback,
	})
	p.mu.Unlock()
	return evaluation, nil
}

func (p *openaiProvider) complete(ctx context.Context, system, prompt string, temperature float64) (string, error) {
	start := time.Now()
	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.cfg.ChatModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(300),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", err
	}
	p.logger.Benchmark("openai.Chat", time.Since(start))
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("openai: completion without choices")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

// Synthesize asks for WAV so the clip can be played frame by frame.
func (p *openaiProvider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	input := normalizeSpeech(text)
	if utils.IsEmpty(input) {
		return nil, fmt.Errorf("%w: nothing to say", types.ErrSynthesis)
	}
	start := time.Now()
	resp, err := p.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(p.cfg.SpeechModel),
		Voice:          openai.AudioSpeechNewParamsVoice(p.cfg.Voice),
		Input:          input,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatWAV,
	})
	if err != nil {
		p.logger.Errorf("openai: speech synthesis failed: %v", err)
		return nil, fmt.Errorf("%w: %v", types.ErrSynthesis, err)
	}
	defer resp.Body.Close()

	clip, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrSynthesis, err)
	}
	p.logger.Benchmark("openai.Synthesize", time.Since(start))
	return clip, nil
}

func (p *openaiProvider) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}
	start := time.Now()
	transcription, err := p.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(p.cfg.TranscribeModel),
		File:  openai.File(bytes.NewReader(audio), "audio.wav", "audio/wav"),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrTranscription, err)
	}
	p.logger.Benchmark("openai.Transcribe", time.Since(start))
	return strings.TrimSpace(transcription.Text), nil
}
