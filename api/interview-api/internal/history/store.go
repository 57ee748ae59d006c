// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package internal_history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rapidaai/interview/pkg/commons"
	"github.com/rapidaai/interview/pkg/connectors"
	"github.com/rapidaai/interview/pkg/types"
	"gorm.io/gorm"
)

// Store keeps finished and running interviews so they can be reviewed later.
//
// An interview row is written when the interview starts, every answered
// question adds one row to interview_questions, and Complete stamps the final
// score.
type Store interface {
	Migrate(ctx context.Context) error

	// Save records a started interview and returns its id.
	Save(ctx context.Context, session types.InterviewSession, setup types.InterviewSetup, startTime time.Time) (string, error)
	SaveAnswer(ctx context.Context, interviewID string, qa types.QAPair) error
	Complete(ctx context.Context, interviewID string, finalScore float64) error

	Get(ctx context.Context, interviewID string) (*types.InterviewDetails, error)
	// List returns interviews newest first.
	List(ctx context.Context, limit int) ([]types.Interview, error)
}

type gormStore struct {
	db     connectors.DatabaseConnector
	logger commons.Logger
}

func NewStore(db connectors.DatabaseConnector, logger commons.Logger) Store {
	return &gormStore{db: db, logger: logger}
}

func (s *gormStore) Migrate(ctx context.Context) error {
	if err := s.db.DB(ctx).AutoMigrate(&InterviewRecord{}, &QuestionRecord{}); err != nil {
		return fmt.Errorf("history: migrate: %w", err)
	}
	return nil
}

func (s *gormStore) Save(ctx context.Context, session types.InterviewSession, setup types.InterviewSetup, startTime time.Time) (string, error) {
	record := &InterviewRecord{
		SessionID:     session.SessionID,
		CandidateName: setup.CandidateName,
		JobTitle:      setup.JobTitle,
		InterviewType: string(setup.InterviewType),
		StartTime:     startTime,
	}
	if err := s.db.DB(ctx).Create(record).Error; err != nil {
		return "", fmt.Errorf("history: save interview %s: %w", session.SessionID, err)
	}
	s.logger.Infof("history: saved interview %s for session %s", record.Id, session.SessionID)
	return record.Id, nil
}

func (s *gormStore) SaveAnswer(ctx context.Context, interviewID string, qa types.QAPair) error {
	record := &QuestionRecord{
		InterviewID:    interviewID,
		QuestionNumber: qa.Number,
		QuestionText:   qa.Question,
		Answer:         qa.Answer,
		Score:          qa.Score,
		Feedback:       qa.Feedback,
	}
	if err := s.db.DB(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("history: save answer %d of %s: %w", qa.Number, interviewID, err)
	}
	s.logger.Debugf("history: saved answer %d of interview %s", qa.Number, interviewID)
	return nil
}

func (s *gormStore) Complete(ctx context.Context, interviewID string, finalScore float64) error {
	result := s.db.DB(ctx).Model(&InterviewRecord{}).
		Where("id = ?", interviewID).
		Updates(map[string]interface{}{
			"final_score":  finalScore,
			"status":       StatusCompleted,
			"completed_at": time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("history: complete %s: %w", interviewID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("history: complete %s: %w", interviewID, types.ErrSessionNotFound)
	}
	s.logger.Infof("history: completed interview %s with score %.2f", interviewID, finalScore)
	return nil
}

func (s *gormStore) Get(ctx context.Context, interviewID string) (*types.InterviewDetails, error) {
	db := s.db.DB(ctx)
	var record InterviewRecord
	if err := db.Where("id = ?", interviewID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("history: interview %s: %w", interviewID, types.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("history: interview %s: %w", interviewID, err)
	}

	var questions []QuestionRecord
	if err := db.Where("interview_id = ?", interviewID).Order("question_number asc").Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("history: questions of %s: %w", interviewID, err)
	}
	details := &types.InterviewDetails{
		Interview: record.ToInterview(),
		Questions: make([]types.InterviewQuestion, 0, len(questions)),
	}
	for i := range questions {
		details.Questions = append(details.Questions, questions[i].ToQuestion())
	}
	return details, nil
}

func (s *gormStore) List(ctx context.Context, limit int) ([]types.Interview, error) {
	query := s.db.DB(ctx).Order("start_time desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []InterviewRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	out := make([]types.Interview, 0, len(records))
	for i := range records {
		out = append(out, records[i].ToInterview())
	}
	return out, nil
}
