// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_history

import (
	"time"

	"github.com/google/uuid"
	"github.com/rapidaai/interview/pkg/types"
	"gorm.io/gorm"
)

const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

type InterviewRecord struct {
	Id            string     `gorm:"column:id;type:varchar(36);primaryKey"`
	SessionID     string     `gorm:"column:session_id;type:varchar(64);not null;uniqueIndex"`
	CandidateName string     `gorm:"column:candidate_name;type:varchar(200);not null"`
	JobTitle      string     `gorm:"column:job_title;type:varchar(200);not null"`
	InterviewType string     `gorm:"column:interview_type;type:varchar(20);not null"`
	FinalScore    float64    `gorm:"column:final_score;not null;default:0"`
	Status        string     `gorm:"column:status;type:varchar(20);not null;default:'in_progress'"`
	StartTime     time.Time  `gorm:"column:start_time;not null"`
	CompletedAt   *time.Time `gorm:"column:completed_at"`
	CreatedDate   time.Time  `gorm:"column:created_date;not null;<-:create"`
}

func (InterviewRecord) TableName() string {
	return "interviews"
}

func (r *InterviewRecord) BeforeCreate(tx *gorm.DB) error {
	if r.Id == "" {
		r.Id = uuid.NewString()
	}
	if r.CreatedDate.IsZero() {
		r.CreatedDate = time.Now()
	}
	if r.Status == "" {
		r.Status = StatusInProgress
	}
	return nil
}

func (r *InterviewRecord) ToInterview() types.Interview {
	out := types.Interview{
		ID:            r.Id,
		SessionID:     r.SessionID,
		CandidateName: r.CandidateName,
		JobTitle:      r.JobTitle,
		InterviewType: r.InterviewType,
		FinalScore:    r.FinalScore,
		Status:        r.Status,
		StartTime:     r.StartTime,
		CreatedAt:     r.CreatedDate,
	}
	if r.CompletedAt != nil {
		out.CompletedAt = *r.CompletedAt
	}
	return out
}

type QuestionRecord struct {
	Id             string    `gorm:"column:id;type:varchar(36);primaryKey"`
	InterviewID    string    `gorm:"column:interview_id;type:varchar(36);not null;index"`
	QuestionNumber int       `gorm:"column:question_number;not null"`
	QuestionText   string    `gorm:"column:question_text;type:text;not null"`
	Answer         string    `gorm:"column:answer;type:text;not null;default:''"`
	Score          float64   `gorm:"column:score;not null;default:0"`
	Feedback       string    `gorm:"column:feedback;type:text;not null;default:''"`
	CreatedDate    time.Time `gorm:"column:created_date;not null;<-:create"`
}

func (QuestionRecord) TableName() string {
	return "interview_questions"
}

func (r *QuestionRecord) BeforeCreate(tx *gorm.DB) error {
	if r.Id == "" {
		r.Id = uuid.NewString()
	}
	if r.CreatedDate.IsZero() {
		r.CreatedDate = time.Now()
	}
	return nil
}

func (r *QuestionRecord) ToQuestion() types.InterviewQuestion {
	return types.InterviewQuestion{
		ID:             r.Id,
		InterviewID:    r.InterviewID,
		QuestionNumber: r.QuestionNumber,
		QuestionText:   r.QuestionText,
		Answer:         r.Answer,
		Score:          r.Score,
		Feedback:       r.Feedback,
		CreatedAt:      r.CreatedDate,
	}
}
