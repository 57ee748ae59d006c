// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_interview

import (
	"context"
	"testing"

	"github.com/rapidaai/interview/config"
	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_StartGetRemove(t *testing.T) {
	m := newTestManager(t, &fakeProvider{total: 4})

	interview, err := m.Start(context.Background(), testSetup, nil)
	require.NoError(t, err)
	assert.Equal(t, "session-ada", interview.SessionID())
	assert.Equal(t, 4, interview.Session().TotalQuestions)

	got, err := m.Get("session-ada")
	require.NoError(t, err)
	assert.Same(t, interview, got)

	m.Remove("session-ada")
	_, err = m.Get("session-ada")
	assert.ErrorIs(t, err, types.ErrSessionNotFound)
}

func TestManager_StartValidatesSetup(t *testing.T) {
	m := newTestManager(t, &fakeProvider{total: 4})
	_, err := m.Start(context.Background(), types.InterviewSetup{CandidateName: "ada", InterviewType: "panel"}, nil)
	assert.Error(t, err)
}

func TestManager_PolicyOverrides(t *testing.T) {
	m := newTestManager(t, &fakeProvider{total: 10})

	interview, err := m.Start(context.Background(), testSetup, map[string]interface{}{
		"max_repeats":     "0",
		"total_questions": 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, interview.Policy().MaxRepeats)
	assert.Equal(t, 3, interview.Session().TotalQuestions)

	_, err = m.Start(context.Background(), testSetup, map[string]interface{}{"maximum_recording_seconds": 0})
	assert.Error(t, err)
	_, err = m.Start(context.Background(), testSetup, map[string]interface{}{"unknown": 1})
	assert.Error(t, err)
}

func TestManager_RejectsInvalidPolicy(t *testing.T) {
	policy := config.DefaultPolicy()
	policy.MaximumRecordingSeconds = policy.MinimumRecordingSeconds
	_, err := NewManager(commons.NewNopLogger(), &fakeProvider{}, policy)
	assert.Error(t, err)
}

func TestServiceConfigOf(t *testing.T) {
	assert.Equal(t, types.ServiceConfig{
		TotalQuestions:        10,
		RepeatWindowSeconds:   120,
		RecordMaxTimeSeconds:  300,
		StopButtonTimeSeconds: 90,
		PreviewTimeSeconds:    20,
	}, ServiceConfigOf(config.DefaultPolicy()))
}
