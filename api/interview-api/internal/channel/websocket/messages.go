// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_websocket

import (
	internal_interaction "github.com/rapidaai/interview/api/interview-api/internal/interaction"
	"github.com/rapidaai/interview/pkg/types"
)

// Commands the browser sends as text frames.
const (
	CommandRepeat        = "repeat"
	CommandAdvance       = "advance"
	CommandStop          = "stop"
	CommandRetry         = "retry"
	CommandCancel        = "cancel"
	CommandSnapshot      = "snapshot"
	CommandPlaybackEnded = "playback_ended"
)

// Messages the server sends besides the controller events.
const (
	MessageQuestion  = "question"
	MessageAudioEnd  = "audio_end"
	MessageSnapshot  = "snapshot"
	MessageCompleted = "completed"
	MessageError     = "error"
	MessageRejected  = "rejected"
)

type Command struct {
	Type string `json:"type"`
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type errorPayload struct {
	Command     string `json:"command,omitempty"`
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

// eventMessage renders a controller event for the browser.
func eventMessage(ev internal_interaction.Event) Message {
	var data interface{}
	switch e := ev.(type) {
	case internal_interaction.PhaseChangedEvent:
		data = map[string]string{"from": e.From.String(), "to": e.To.String()}
	case internal_interaction.RepeatWindowTickEvent:
		data = map[string]int{"remaining": e.Remaining}
	case internal_interaction.RepeatEvent:
		data = map[string]int{"used": e.Used, "remaining": e.Remaining}
	case internal_interaction.PreRollEvent:
		data = map[string]int{"seconds": e.Seconds}
	case internal_interaction.RecordingTickEvent:
		data = map[string]interface{}{"elapsed": e.Elapsed, "can_stop": e.CanStop}
	case internal_interaction.PreviewEvent:
		data = map[string]interface{}{"text": e.Text, "final": e.Final}
	case internal_interaction.EvaluatedEvent:
		data = e.Evaluation
	case internal_interaction.FailedEvent:
		data = errorPayload{Message: e.Err.Error(), Recoverable: e.Recoverable}
	}
	return Message{Type: ev.Type(), Data: data}
}

func errorMessage(command string, err error) Message {
	return Message{Type: MessageError, Data: errorPayload{
		Command:     command,
		Message:     err.Error(),
		Recoverable: types.IsRecoverable(err),
	}}
}
