// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package types

import "time"

type InterviewType string

const (
	InterviewTypeTechnical InterviewType = "technical"
	InterviewTypeHR        InterviewType = "hr"
)

// InterviewSetup is the candidate metadata collected before an interview starts.
type InterviewSetup struct {
	CandidateName string        `json:"candidate_name" validate:"required"`
	JobTitle      string        `json:"job_title" validate:"required"`
	InterviewType InterviewType `json:"interview_type" validate:"required,oneof=technical hr"`
	ResumeText    string        `json:"resume_text"`
	JDText        string        `json:"jd_text"`
}

// InterviewSession is returned once the backend accepted an InterviewSetup.
type InterviewSession struct {
	SessionID      string `json:"session_id"`
	FirstQuestion  string `json:"first_question"`
	TotalQuestions int    `json:"total_questions"`
}

type Question struct {
	QuestionNumber int    `json:"question_number"`
	QuestionText   string `json:"question_text"`
}

// AnswerSubmission is what gets scored for one question.
type AnswerSubmission struct {
	SessionID      string `json:"session_id"`
	QuestionNumber int    `json:"question_number"`
	QuestionText   string `json:"question_text"`
	AnswerText     string `json:"answer_text"`
}

// AnswerEvaluation is the score (0..10) and feedback for one answer.
type AnswerEvaluation struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

type QAPair struct {
	Number   int     `json:"number"`
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// InterviewResults summarises a finished interview.
type InterviewResults struct {
	SessionID     string    `json:"session_id"`
	CandidateName string    `json:"candidate_name"`
	JobTitle      string    `json:"job_title"`
	InterviewType string    `json:"interview_type"`
	FinalScore    float64   `json:"final_score"`
	Percentage    float64   `json:"percentage"`
	QAPairs       []QAPair  `json:"qa_pairs"`
	StartTime     time.Time `json:"start_time"`
	CompletedAt   time.Time `json:"completed_at"`
}
