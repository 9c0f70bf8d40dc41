package store

import (
	"context"

	"github.com/andrewpaige1/flashcards-ai/models"
	"gorm.io/gorm/clause"
)

func (s *Store) CreateGenerationSession(ctx context.Context, session *models.GenerationSession) error {
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(session).Error
	return translate("create generation session", err)
}

func (s *Store) GetGenerationSession(ctx context.Context, id int64) (models.GenerationSession, error) {
	var session models.GenerationSession
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	return session, translate("get generation session", err)
}

// ListGenerationSessions returns a page of the user's sessions, newest first, plus the total.
func (s *Store) ListGenerationSessions(ctx context.Context, userID string, offset, limit int) ([]models.GenerationSession, int64, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.GenerationSession{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return nil, 0, translate("count generation sessions", err)
	}

	sessions := make([]models.GenerationSession, 0)
	if total == 0 {
		return sessions, 0, nil
	}

	err = s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Scopes(paginate(offset, limit)).
		Order("created_at DESC").
		Order("id DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, 0, translate("list generation sessions", err)
	}

	return sessions, total, nil
}

func (s *Store) CreateGenerationErrorLog(ctx context.Context, entry *models.GenerationErrorLog) error {
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(entry).Error
	return translate("create generation error log", err)
}

// ListGenerationErrorLogs returns at most limit of the user's latest error logs.
func (s *Store) ListGenerationErrorLogs(ctx context.Context, userID string, limit int) ([]models.GenerationErrorLog, error) {
	logs := make([]models.GenerationErrorLog, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Scopes(paginate(0, limit)).
		Order("created_at DESC").
		Order("id DESC").
		Find(&logs).Error
	if err != nil {
		return nil, translate("list generation error logs", err)
	}
	return logs, nil
}
