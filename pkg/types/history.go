// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package types

import "time"

// Interview is a completed interview as kept in the history store.
type Interview struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id"`
	CandidateName string    `json:"candidate_name"`
	JobTitle      string    `json:"job_title"`
	InterviewType string    `json:"interview_type"`
	FinalScore    float64   `json:"final_score"`
	Status        string    `json:"status"`
	StartTime     time.Time `json:"start_time"`
	CompletedAt   time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type InterviewQuestion struct {
	ID             string    `json:"id"`
	InterviewID    string    `json:"interview_id"`
	QuestionNumber int       `json:"question_number"`
	QuestionText   string    `json:"question_text"`
	Answer         string    `json:"answer"`
	Score          float64   `json:"score"`
	Feedback       string    `json:"feedback"`
	CreatedAt      time.Time `json:"created_at"`
}

type InterviewDetails struct {
	Interview Interview           `json:"interview"`
	Questions []InterviewQuestion `json:"questions"`
}

// ServiceConfig is what the browser needs to render the interview.
type ServiceConfig struct {
	TotalQuestions        int `json:"total_questions"`
	RepeatWindowSeconds   int `json:"repeat_window_seconds"`
	RecordMaxTimeSeconds  int `json:"record_max_time_seconds"`
	StopButtonTimeSeconds int `json:"stop_button_time_seconds"`
	PreviewTimeSeconds    int `json:"preview_time_seconds"`
}
