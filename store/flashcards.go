package store

import (
	"context"

	"github.com/andrewpaige1/flashcards-ai/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FlashcardFilter selects one page of a user's flashcards.
// An empty Source matches every source.
type FlashcardFilter struct {
	UserID string
	Source models.Source
	Offset int
	Limit  int
}

func (f FlashcardFilter) scope(db *gorm.DB) *gorm.DB {
	db = db.Where("user_id = ?", f.UserID)
	if f.Source != "" {
		db = db.Where("source = ?", f.Source)
	}
	return db
}

// CreateFlashcards inserts all cards in one statement, filling their IDs and timestamps.
func (s *Store) CreateFlashcards(ctx context.Context, cards []models.Flashcard) error {
	if len(cards) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&cards).Error
	return translate("create flashcards", err)
}

// ListFlashcards returns the requested page, newest first, and the total number of matches.
func (s *Store) ListFlashcards(ctx context.Context, f FlashcardFilter) ([]models.Flashcard, int64, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&models.Flashcard{}).
		Scopes(f.scope).
		Count(&total).Error
	if err != nil {
		return nil, 0, translate("count flashcards", err)
	}

	cards := make([]models.Flashcard, 0)
	if total == 0 {
		return cards, 0, nil
	}

	err = s.db.WithContext(ctx).
		Scopes(f.scope, paginate(f.Offset, f.Limit)).
		Order("created_at DESC").
		Order("id DESC").
		Find(&cards).Error
	if err != nil {
		return nil, 0, translate("list flashcards", err)
	}

	return cards, total, nil
}

// GetFlashcard loads a card regardless of owner; callers check ownership.
func (s *Store) GetFlashcard(ctx context.Context, id int64) (models.Flashcard, error) {
	var card models.Flashcard
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&card).Error
	return card, translate("get flashcard", err)
}

func (s *Store) UpdateFlashcard(ctx context.Context, card *models.Flashcard) error {
	res := s.db.WithContext(ctx).Omit(clause.Associations).Save(card)
	return translate("update flashcard", res.Error)
}

func (s *Store) DeleteFlashcard(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&models.Flashcard{}, id)
	if res.Error != nil {
		return translate("delete flashcard", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
