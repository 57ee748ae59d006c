// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_interaction

import "fmt"

type Phase int

const (
	PhaseQuestion Phase = iota
	PhaseRepeatWindow
	PhaseRecording
	PhaseProcessing
)

func (p Phase) String() string {
	switch p {
	case PhaseQuestion:
		return "question"
	case PhaseRepeatWindow:
		return "repeat"
	case PhaseRecording:
		return "recording"
	case PhaseProcessing:
		return "processing"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
