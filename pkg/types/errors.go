// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package types

import "errors"

var (
	// ErrDevice is fatal to the session: microphone denied or missing.
	ErrDevice = errors.New("audio device unavailable")
	// ErrPlayback is non-fatal; the prompt counts as delivered.
	ErrPlayback = errors.New("audio playback failed")
	// ErrSynthesis is returned by text-to-speech providers.
	ErrSynthesis = errors.New("speech synthesis failed")
	// ErrRepeatLimitExceeded rejects a repeat once the budget is spent.
	ErrRepeatLimitExceeded = errors.New("repeat limit exceeded")
	// ErrTranscription is returned by speech-to-text providers.
	ErrTranscription = errors.New("transcription failed")
	// ErrScoring is returned by the answer scoring call.
	ErrScoring = errors.New("answer scoring failed")

	ErrNotRecording     = errors.New("capture was never started")
	ErrAlreadyRecording = errors.New("capture already active")

	ErrInvalidPhase      = errors.New("action not permitted in current phase")
	ErrBusy              = errors.New("operation already in flight")
	ErrInteractionClosed = errors.New("interaction closed")
	ErrAlreadyEvaluated  = errors.New("answer already evaluated")

	ErrSessionNotFound = errors.New("session not found")
	ErrNoAnswers       = errors.New("no answers submitted")
)

// IsRecoverable reports whether a caller may retry the submission that
// produced err.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrTranscription) || errors.Is(err, ErrScoring)
}
