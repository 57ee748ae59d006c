// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_interaction

import "github.com/rapidaai/interview/pkg/types"

// Event is anything the controller reports to its subscribers.
type Event interface {
	Type() string
}

type PhaseChangedEvent struct {
	From Phase
	To   Phase
}

type RepeatWindowTickEvent struct {
	Remaining int
}

type RepeatEvent struct {
	Used      int
	Remaining int
}

// PreRollEvent announces the delay before the microphone opens.
type PreRollEvent struct {
	Seconds int
}

type RecordingTickEvent struct {
	Elapsed int
	CanStop bool
}

// PreviewEvent carries a partial transcript, or the final one once processing
// has transcribed the whole answer.
type PreviewEvent struct {
	Text  string
	Final bool
}

type EvaluatedEvent struct {
	Evaluation types.AnswerEvaluation
}

type FailedEvent struct {
	Err         error
	Recoverable bool
}

func (PhaseChangedEvent) Type() string     { return "phase" }
func (RepeatWindowTickEvent) Type() string { return "repeat_tick" }
func (RepeatEvent) Type() string           { return "repeat" }
func (PreRollEvent) Type() string          { return "pre_roll" }
func (RecordingTickEvent) Type() string    { return "recording_tick" }
func (PreviewEvent) Type() string          { return "preview" }
func (EvaluatedEvent) Type() string        { return "evaluated" }
func (FailedEvent) Type() string           { return "failed" }
