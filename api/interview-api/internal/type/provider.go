// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_type

import (
	"context"

	"github.com/rapidaai/interview/pkg/types"
)

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Transcriber must tolerate short or partial buffers and return best effort
// text (possibly empty) rather than failing on them.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type Scorer interface {
	SubmitAnswer(ctx context.Context, submission types.AnswerSubmission) (types.AnswerEvaluation, error)
}

// QuestionSource produces the interview questions after the first one.
type QuestionSource interface {
	NextQuestion(ctx context.Context, sessionID string, number int) (types.Question, error)
}

// Provider bundles everything an interview needs from the outside world.
type Provider interface {
	Synthesizer
	Transcriber
	Scorer
	QuestionSource
	StartInterview(ctx context.Context, setup types.InterviewSetup) (types.InterviewSession, error)
}
