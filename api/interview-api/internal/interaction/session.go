// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_interaction

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Session identifies the single question an interaction governs.
type Session struct {
	SessionID      string `json:"session_id" validate:"required"`
	QuestionIndex  int    `json:"question_number" validate:"gte=1,ltefield=TotalQuestions"`
	QuestionText   string `json:"question_text" validate:"required"`
	TotalQuestions int    `json:"total_questions" validate:"gte=1"`
}

func NewSession(sessionID string, index int, text string, total int) (Session, error) {
	s := Session{
		SessionID:      sessionID,
		QuestionIndex:  index,
		QuestionText:   text,
		TotalQuestions: total,
	}
	if err := validator.New().Struct(s); err != nil {
		return Session{}, fmt.Errorf("interaction: invalid session: %w", err)
	}
	return s, nil
}
