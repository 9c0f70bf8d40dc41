package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/andrewpaige1/flashcards-ai/models"
	"github.com/andrewpaige1/flashcards-ai/store"
	"github.com/dgraph-io/ristretto/v2"
)

// CreateFlashcardCommand is one card to insert. GenerationID is required for AI sources
// and forbidden for manual ones.
type CreateFlashcardCommand struct {
	Front        string
	Back         string
	Source       models.Source
	GenerationID *int64
}

// UpdateFlashcardCommand changes the fields that are set.
type UpdateFlashcardCommand struct {
	Front *string
	Back  *string
}

// ListQuery selects a page of the user's flashcards. Source "" or "all" disables the filter.
type ListQuery struct {
	UserID string
	Page   int
	Limit  int
	Source models.Source
}

type FlashcardPage struct {
	Data       []models.Flashcard `json:"data"`
	Pagination Pagination         `json:"pagination"`
}

// FlashcardsService manages a user's flashcards.
type FlashcardsService struct {
	store    *store.Store
	sessions *ristretto.Cache[int64, string]
	logger   *slog.Logger
}

type FlashcardsServiceConfig struct {
	// SessionCacheKeys bounds how many verified generation sessions are remembered.
	SessionCacheKeys int64
}

func NewFlashcardsService(s *store.Store, cfg FlashcardsServiceConfig, logger *slog.Logger) (*FlashcardsService, error) {
	if cfg.SessionCacheKeys <= 0 {
		cfg.SessionCacheKeys = 10000
	}

	cache, err := ristretto.NewCache(&ristretto.Config[int64, string]{
		NumCounters: cfg.SessionCacheKeys * 10,
		MaxCost:     cfg.SessionCacheKeys,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &FlashcardsService{
		store:    s,
		sessions: cache,
		logger:   logger.With("component", "flashcards"),
	}, nil
}

// Close releases the session cache.
func (s *FlashcardsService) Close() {
	s.sessions.Close()
}

// Create inserts every command in one transaction and returns the stored cards.
func (s *FlashcardsService) Create(ctx context.Context, userID string, cmds []CreateFlashcardCommand) ([]models.Flashcard, error) {
	if userID == "" {
		return nil, unauthorizedError("authentication required")
	}
	if len(cmds) == 0 {
		return nil, validationError(nil, "at least one flashcard is required")
	}

	cards := make([]models.Flashcard, 0, len(cmds))
	var details []FieldError
	for i, cmd := range cmds {
		front, back := strings.TrimSpace(cmd.Front), strings.TrimSpace(cmd.Back)
		prefix := fmt.Sprintf("flashcards[%d].", i)

		details = append(details, checkText(prefix+"front", front, models.FrontMaxLength)...)
		details = append(details, checkText(prefix+"back", back, models.BackMaxLength)...)
		details = append(details, checkSource(prefix, cmd.Source, cmd.GenerationID)...)

		cards = append(cards, models.Flashcard{
			Front:        front,
			Back:         back,
			Source:       cmd.Source,
			GenerationID: cmd.GenerationID,
			UserID:       userID,
		})
	}
	if len(details) > 0 {
		return nil, validationError(details, "invalid flashcards")
	}

	err := s.store.WithinTx(ctx, func(tx *store.Store) error {
		checked := make(map[int64]struct{})
		for _, card := range cards {
			if card.GenerationID == nil {
				continue
			}
			id := *card.GenerationID
			if _, ok := checked[id]; ok {
				continue
			}
			if err := s.verifySession(ctx, tx, userID, id); err != nil {
				return err
			}
			checked[id] = struct{}{}
		}

		return tx.CreateFlashcards(ctx, cards)
	})
	if err != nil {
		var se *ServiceError
		if errors.As(err, &se) {
			return nil, se
		}
		if errors.Is(err, store.ErrConflict) {
			return nil, validationError(nil, "referenced generation session does not exist")
		}

		s.logger.Error("failed to create flashcards", "user_id", userID, "error", err)
		return nil, NewServiceError(err, http.StatusInternalServerError, CodeFlashcardOperationFailed, "failed to create flashcards")
	}

	return cards, nil
}

// verifySession checks that the generation session exists and belongs to userID.
// Sessions never change owner, so positive answers are cached.
func (s *FlashcardsService) verifySession(ctx context.Context, tx *store.Store, userID string, id int64) error {
	if owner, ok := s.sessions.Get(id); ok {
		if owner != userID {
			return sessionNotFound(id)
		}
		return nil
	}

	session, err := tx.GetGenerationSession(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return sessionNotFound(id)
		}
		return fmt.Errorf("get generation session: %w", err)
	}

	s.sessions.Set(id, session.UserID, 1)
	if session.UserID != userID {
		return sessionNotFound(id)
	}
	return nil
}

func sessionNotFound(id int64) *ServiceError {
	se := validationError([]FieldError{{
		Field:   "generation_id",
		Message: fmt.Sprintf("generation session %d does not exist", id),
	}}, "invalid flashcards")
	se.Env["generation_id"] = strconv.FormatInt(id, 10)
	return se
}

// List returns one page of the user's flashcards, newest first.
func (s *FlashcardsService) List(ctx context.Context, q ListQuery) (FlashcardPage, error) {
	if q.UserID == "" {
		return FlashcardPage{}, unauthorizedError("authentication required")
	}

	source := q.Source
	if source == "all" {
		source = ""
	}
	if source != "" && !source.Valid() {
		return FlashcardPage{}, validationError([]FieldError{{Field: "source", Message: "must be one of manual, ai, ai-edited, all"}}, "invalid query")
	}

	page, limit := normalizePage(q.Page, q.Limit)
	cards, total, err := s.store.ListFlashcards(ctx, store.FlashcardFilter{
		UserID: q.UserID,
		Source: source,
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		s.logger.Error("failed to list flashcards", "user_id", q.UserID, "error", err)
		return FlashcardPage{}, NewServiceError(err, http.StatusInternalServerError, CodeFlashcardOperationFailed, "failed to list flashcards")
	}

	return FlashcardPage{
		Data:       cards,
		Pagination: newPagination(page, limit, total),
	}, nil
}

// Get returns one card owned by userID.
func (s *FlashcardsService) Get(ctx context.Context, userID string, id int64) (models.Flashcard, error) {
	return s.owned(ctx, userID, id)
}

// Update applies cmd to the card once ownership is confirmed. Editing the text of an "ai" card turns it into "ai-edited".
func (s *FlashcardsService) Update(ctx context.Context, userID string, id int64, cmd UpdateFlashcardCommand) (models.Flashcard, error) {
	card, err := s.owned(ctx, userID, id)
	if err != nil {
		return models.Flashcard{}, err
	}

	if cmd.Front == nil && cmd.Back == nil {
		return models.Flashcard{}, validationError(nil, "at least one of front or back is required")
	}

	var details []FieldError
	if cmd.Front != nil {
		details = append(details, checkText("front", strings.TrimSpace(*cmd.Front), models.FrontMaxLength)...)
	}
	if cmd.Back != nil {
		details = append(details, checkText("back", strings.TrimSpace(*cmd.Back), models.BackMaxLength)...)
	}
	if len(details) > 0 {
		return models.Flashcard{}, validationError(details, "invalid flashcard")
	}

	changed := false
	if cmd.Front != nil {
		if front := strings.TrimSpace(*cmd.Front); front != card.Front {
			card.Front = front
			changed = true
		}
	}
	if cmd.Back != nil {
		if back := strings.TrimSpace(*cmd.Back); back != card.Back {
			card.Back = back
			changed = true
		}
	}
	if !changed {
		return card, nil
	}
	if card.Source == models.SourceAI {
		card.Source = models.SourceAIEdited
	}

	if err := s.store.UpdateFlashcard(ctx, &card); err != nil {
		s.logger.Error("failed to update flashcard", "flashcard_id", id, "error", err)
		return models.Flashcard{}, NewServiceError(err, http.StatusInternalServerError, CodeFlashcardOperationFailed, "failed to update flashcard")
	}

	return card, nil
}

// Delete removes a card. A card owned by someone else is forbidden, not missing.
func (s *FlashcardsService) Delete(ctx context.Context, userID string, id int64) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}

	if err := s.store.DeleteFlashcard(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return flashcardNotFound(err, id)
		}
		s.logger.Error("failed to delete flashcard", "flashcard_id", id, "error", err)
		return NewServiceError(err, http.StatusInternalServerError, CodeFlashcardOperationFailed, "failed to delete flashcard")
	}

	return nil
}

func (s *FlashcardsService) owned(ctx context.Context, userID string, id int64) (models.Flashcard, error) {
	if userID == "" {
		return models.Flashcard{}, unauthorizedError("authentication required")
	}

	card, err := s.store.GetFlashcard(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Flashcard{}, flashcardNotFound(err, id)
		}
		return models.Flashcard{}, NewServiceError(err, http.StatusInternalServerError, CodeFlashcardOperationFailed, "failed to load flashcard")
	}

	if card.UserID != userID {
		se := NewServiceError(nil, http.StatusForbidden, CodeFlashcardForbidden, "you do not have access to this flashcard")
		se.Env["flashcard_id"] = strconv.FormatInt(id, 10)
		se.Env["user_id"] = userID
		return models.Flashcard{}, se
	}

	return card, nil
}

func flashcardNotFound(err error, id int64) *ServiceError {
	se := NewServiceError(err, http.StatusNotFound, CodeFlashcardNotFound, "flashcard not found")
	se.Env["flashcard_id"] = strconv.FormatInt(id, 10)
	return se
}

func checkText(field, value string, max int) []FieldError {
	switch n := utf8.RuneCountInString(value); {
	case n == 0:
		return []FieldError{{Field: field, Message: "is required"}}
	case n > max:
		return []FieldError{{Field: field, Message: fmt.Sprintf("must be at most %d characters", max)}}
	}
	return nil
}

func checkSource(prefix string, source models.Source, generationID *int64) []FieldError {
	switch {
	case !source.Valid():
		return []FieldError{{Field: prefix + "source", Message: "must be one of manual, ai, ai-edited"}}
	case source.IsAI() && generationID == nil:
		return []FieldError{{Field: prefix + "generation_id", Message: "is required for AI flashcards"}}
	case !source.IsAI() && generationID != nil:
		return []FieldError{{Field: prefix + "generation_id", Message: "must be empty for manual flashcards"}}
	}
	return nil
}
