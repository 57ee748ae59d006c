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

	"github.com/go-playground/validator/v10"
	internal_capture "github.com/rapidaai/interview/api/interview-api/internal/audio/capture"
	internal_history "github.com/rapidaai/interview/api/interview-api/internal/history"
	internal_scheduler "github.com/rapidaai/interview/api/interview-api/internal/scheduler"
	internal_type "github.com/rapidaai/interview/api/interview-api/internal/type"
	"github.com/rapidaai/interview/config"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/types"
)

// How long the live transcript preview stays readable in the browser.
const previewTimeSeconds = 20

// Manager owns the interviews running in this process.
type Manager interface {
	// Start registers a new interview. overrides adjust the configured
	// policy for this interview only.
	Start(ctx context.Context, setup types.InterviewSetup, overrides map[string]interface{}) (*Interview, error)
	Get(sessionID string) (*Interview, error)
	// Remove cancels and forgets an interview.
	Remove(sessionID string)
	Config() types.ServiceConfig
}

// Archiver keeps a copy of finished interviews outside this process.
type Archiver interface {
	SaveInterview(ctx context.Context, sessionID string) (string, error)
}

type Option func(*manager)

// WithSynthesizer replaces the provider's synthesizer, typically with a cache.
func WithSynthesizer(synthesizer internal_type.Synthesizer) Option {
	return func(m *manager) { m.synthesizer = synthesizer }
}

func WithStore(store internal_history.Store) Option {
	return func(m *manager) { m.store = store }
}

// WithArchiver hands every completed interview to a remote archive as well.
func WithArchiver(archiver Archiver) Option {
	return func(m *manager) { m.archiver = archiver }
}

func WithCapturerOptions(opts ...internal_capture.Option) Option {
	return func(m *manager) { m.capturerOptions = opts }
}

func WithSchedulerOptions(opts ...internal_scheduler.Option) Option {
	return func(m *manager) { m.schedulerOptions = opts }
}

type manager struct {
	logger      commons.Logger
	provider    internal_type.Provider
	synthesizer internal_type.Synthesizer
	store       internal_history.Store
	archiver    Archiver
	policy      config.Policy
	validate    *validator.Validate

	capturerOptions  []internal_capture.Option
	schedulerOptions []internal_scheduler.Option

	mu         sync.RWMutex
	interviews map[string]*Interview
}

func NewManager(logger commons.Logger, provider internal_type.Provider, policy config.Policy, opts ...Option) (Manager, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	m := &manager{
		logger:      logger,
		provider:    provider,
		synthesizer: provider,
		policy:      policy,
		validate:    validator.New(),
		interviews:  make(map[string]*Interview),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *manager) Start(ctx context.Context, setup types.InterviewSetup, overrides map[string]interface{}) (*Interview, error) {
	if err := m.validate.Struct(&setup); err != nil {
		return nil, fmt.Errorf("interview: invalid setup: %w", err)
	}
	policy, err := m.policy.WithOverrides(overrides)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	session, err := m.provider.StartInterview(ctx, setup)
	if err != nil {
		return nil, fmt.Errorf("interview: start: %w", err)
	}
	if _, ok := overrides["total_questions"]; ok || session.TotalQuestions <= 0 {
		session.TotalQuestions = policy.TotalQuestions
	}

	interview := &Interview{
		logger:           m.logger,
		provider:         m.provider,
		synthesizer:      m.synthesizer,
		store:            m.store,
		archiver:         m.archiver,
		policy:           policy,
		capturerOptions:  m.capturerOptions,
		schedulerOptions: m.schedulerOptions,
		setup:            setup,
		session:          session,
		startTime:        startTime,
	}
	if session.FirstQuestion != "" {
		interview.pending = &types.Question{QuestionNumber: 1, QuestionText: session.FirstQuestion}
	}
	if m.store != nil {
		id, err := m.store.Save(ctx, session, setup, startTime)
		if err != nil {
			m.logger.Warnf("interview: history unavailable for %s: %v", session.SessionID, err)
		}
		interview.historyID = id
	}

	m.mu.Lock()
	m.interviews[session.SessionID] = interview
	m.mu.Unlock()
	m.logger.Infof("interview: registered session %s (%d questions)", session.SessionID, session.TotalQuestions)
	return interview, nil
}

func (m *manager) Get(sessionID string) (*Interview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	interview, ok := m.interviews[sessionID]
	if !ok {
		return nil, fmt.Errorf("interview: %w: %s", types.ErrSessionNotFound, sessionID)
	}
	return interview, nil
}

func (m *manager) Remove(sessionID string) {
	m.mu.Lock()
	interview, ok := m.interviews[sessionID]
	delete(m.interviews, sessionID)
	m.mu.Unlock()
	if ok {
		interview.Cancel()
		m.logger.Debugf("interview: removed session %s", sessionID)
	}
}

// Config is the service configuration the browser renders timers from.
func (m *manager) Config() types.ServiceConfig {
	return ServiceConfigOf(m.policy)
}

func ServiceConfigOf(policy config.Policy) types.ServiceConfig {
	return types.ServiceConfig{
		TotalQuestions:        policy.TotalQuestions,
		RepeatWindowSeconds:   policy.RepeatWindowSeconds,
		RecordMaxTimeSeconds:  policy.MaximumRecordingSeconds,
		StopButtonTimeSeconds: policy.MinimumRecordingSeconds,
		PreviewTimeSeconds:    previewTimeSeconds,
	}
}
