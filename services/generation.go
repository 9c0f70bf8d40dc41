package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/andrewpaige1/flashcards-ai/models"
	"github.com/andrewpaige1/flashcards-ai/openrouter"
	"github.com/andrewpaige1/flashcards-ai/store"
)

const (
	MinSourceTextLength = 1000
	MaxSourceTextLength = 10000

	DefaultErrorLogLimit = 50

	generationMaxTokens = 2048
	maxErrorMessageLen  = 1000
	errorLogTimeout     = 5 * time.Second
)

const systemPrompt = "You are a flashcard generation assistant. Your task is to create high-quality flashcards from the provided text. " +
	"Each flashcard should have a clear question on the front and a concise answer on the back. " +
	"The front should be max 200 characters and the back max 500 characters. " +
	"Focus on key concepts, definitions, and relationships in the text."

var flashcardsFormat = openrouter.NewJSONSchemaFormat("flashcards", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"flashcards": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"front": map[string]any{"type": "string"},
					"back":  map[string]any{"type": "string"},
				},
				"required":             []string{"front", "back"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"flashcards"},
	"additionalProperties": false,
})

// ChatClient is the part of the OpenRouter client the generation workflow needs.
type ChatClient interface {
	Complete(ctx context.Context, r openrouter.Request) (openrouter.Response, error)
	Model() string
}

// Proposal is an AI-generated card waiting for the user to accept it.
type Proposal struct {
	Front  string        `json:"front"`
	Back   string        `json:"back"`
	Source models.Source `json:"source"`
}

type GenerationResult struct {
	Session   models.GenerationSession `json:"generation_session"`
	Proposals []Proposal               `json:"flashcards_proposals"`
}

type SessionPage struct {
	Data       []models.GenerationSession `json:"data"`
	Pagination Pagination                 `json:"pagination"`
}

// GenerationService turns source text into flashcard proposals and records every attempt.
type GenerationService struct {
	store  *store.Store
	client ChatClient
	logger *slog.Logger
}

func NewGenerationService(s *store.Store, client ChatClient, logger *slog.Logger) *GenerationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationService{
		store:  s,
		client: client,
		logger: logger.With("component", "generation"),
	}
}

// HashSourceText is the key shared by a generation session and its error logs.
func HashSourceText(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Generate asks the AI for proposals and records a generation session.
// Any failure after the text is accepted is written to the error log before it is returned.
func (s *GenerationService) Generate(ctx context.Context, userID, text string) (GenerationResult, error) {
	if userID == "" {
		return GenerationResult{}, unauthorizedError("authentication required")
	}
	if n := utf8.RuneCountInString(text); n < MinSourceTextLength || n > MaxSourceTextLength {
		return GenerationResult{}, validationError([]FieldError{{
			Field:   "text",
			Message: fmt.Sprintf("must be between %d and %d characters", MinSourceTextLength, MaxSourceTextLength),
		}}, "invalid generation request")
	}

	hash := HashSourceText(text)
	result, err := s.generate(ctx, userID, text, hash)
	if err != nil {
		s.logFailure(ctx, userID, hash, err)
		return GenerationResult{}, err
	}

	s.logger.Info("generation finished",
		"user_id", userID,
		"session_id", result.Session.ID,
		"model", result.Session.Model,
		"generated", result.Session.GeneratedCount,
		"rejected", result.Session.RejectedCount)
	return result, nil
}

func (s *GenerationService) generate(ctx context.Context, userID, text, hash string) (GenerationResult, error) {
	resp, err := s.client.Complete(ctx, openrouter.Request{
		System:         systemPrompt,
		User:           text,
		ResponseFormat: flashcardsFormat,
		MaxTokens:      generationMaxTokens,
	})
	if err != nil {
		return GenerationResult{}, aiError(err)
	}

	proposals, rejected, err := parseProposals(resp.Content)
	if err != nil {
		return GenerationResult{}, aiError(err)
	}

	model := resp.Model
	if model == "" {
		model = s.client.Model()
	}

	session := models.GenerationSession{
		UserID:         userID,
		SourceTextHash: hash,
		Model:          model,
		GeneratedCount: len(proposals),
		RejectedCount:  rejected,
	}
	if err := s.store.CreateGenerationSession(ctx, &session); err != nil {
		return GenerationResult{}, NewServiceError(err, http.StatusInternalServerError, CodeGenerationSaveFailed, "failed to save generation session")
	}

	return GenerationResult{
		Session:   session,
		Proposals: proposals,
	}, nil
}

// parseProposals decodes the AI answer. Cards with empty or over-long sides are
// dropped and counted as rejected.
func parseProposals(content string) ([]Proposal, int, error) {
	var payload struct {
		Flashcards *[]struct {
			Front string `json:"front"`
			Back  string `json:"back"`
		} `json:"flashcards"`
	}

	if err := json.Unmarshal([]byte(stripCodeFence(content)), &payload); err != nil {
		return nil, 0, fmt.Errorf("%w: decode flashcards: %w", openrouter.ErrResponseFormat, err)
	}
	if payload.Flashcards == nil {
		return nil, 0, fmt.Errorf("%w: missing flashcards array", openrouter.ErrResponseFormat)
	}

	proposals := make([]Proposal, 0, len(*payload.Flashcards))
	rejected := 0
	for _, card := range *payload.Flashcards {
		front, back := strings.TrimSpace(card.Front), strings.TrimSpace(card.Back)
		if len(checkText("front", front, models.FrontMaxLength)) > 0 || len(checkText("back", back, models.BackMaxLength)) > 0 {
			rejected++
			continue
		}
		proposals = append(proposals, Proposal{Front: front, Back: back, Source: models.SourceAI})
	}

	return proposals, rejected, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func aiError(err error) *ServiceError {
	switch {
	case errors.Is(err, openrouter.ErrAuthentication):
		return NewServiceError(err, http.StatusBadGateway, CodeAIAuthentication, "AI service authentication failed")
	case errors.Is(err, openrouter.ErrRateLimit):
		return NewServiceError(err, http.StatusTooManyRequests, CodeAIRateLimit, "AI service rate limit exceeded, try again later")
	case errors.Is(err, openrouter.ErrNetwork):
		return NewServiceError(err, http.StatusServiceUnavailable, CodeAINetwork, "AI service is unreachable")
	case errors.Is(err, openrouter.ErrServer):
		return NewServiceError(err, http.StatusBadGateway, CodeAIServer, "AI service failed to respond")
	case errors.Is(err, openrouter.ErrResponseFormat):
		return NewServiceError(err, http.StatusBadGateway, CodeAIResponseFormat, "AI service returned an invalid response")
	case errors.Is(err, openrouter.ErrInvalidRequest):
		return NewServiceError(err, http.StatusBadGateway, CodeAIInvalidRequest, "AI service rejected the request")
	default:
		return NewServiceError(err, http.StatusInternalServerError, CodeInternal, "failed to generate flashcards")
	}
}

// logFailure stores an error log entry. It never fails the caller: a broken
// log insert is only reported through the logger.
func (s *GenerationService) logFailure(ctx context.Context, userID, hash string, cause error) {
	code := CodeInternal
	var se *ServiceError
	if errors.As(cause, &se) && se.Code != "" {
		code = se.Code
	}

	msg := cause.Error()
	if utf8.RuneCountInString(msg) > maxErrorMessageLen {
		msg = string([]rune(msg)[:maxErrorMessageLen])
	}

	s.logger.Warn("generation failed", "user_id", userID, "code", code, "error", cause)

	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), errorLogTimeout)
	defer cancel()

	err := s.store.CreateGenerationErrorLog(logCtx, &models.GenerationErrorLog{
		UserID:         userID,
		ErrorCode:      code,
		ErrorMessage:   msg,
		SourceTextHash: hash,
	})
	if err != nil {
		s.logger.Warn("failed to record generation error", "user_id", userID, "code", code, "error", err)
	}
}

// ListSessions returns one page of the user's generation sessions, newest first.
func (s *GenerationService) ListSessions(ctx context.Context, userID string, page, limit int) (SessionPage, error) {
	if userID == "" {
		return SessionPage{}, unauthorizedError("authentication required")
	}

	page, limit = normalizePage(page, limit)
	sessions, total, err := s.store.ListGenerationSessions(ctx, userID, (page-1)*limit, limit)
	if err != nil {
		return SessionPage{}, fmt.Errorf("list generation sessions: %w", err)
	}

	return SessionPage{
		Data:       sessions,
		Pagination: newPagination(page, limit, total),
	}, nil
}

// GetSession returns a session owned by userID. Sessions of other users look missing.
func (s *GenerationService) GetSession(ctx context.Context, userID string, id int64) (models.GenerationSession, error) {
	if userID == "" {
		return models.GenerationSession{}, unauthorizedError("authentication required")
	}

	session, err := s.store.GetGenerationSession(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return models.GenerationSession{}, fmt.Errorf("get generation session: %w", err)
	}
	if err != nil || session.UserID != userID {
		se := NewServiceError(err, http.StatusNotFound, CodeGenerationNotFound, "generation session not found")
		se.Env["session_id"] = strconv.FormatInt(id, 10)
		return models.GenerationSession{}, se
	}

	return session, nil
}

// ListErrorLogs returns the user's most recent generation failures.
func (s *GenerationService) ListErrorLogs(ctx context.Context, userID string, limit int) ([]models.GenerationErrorLog, error) {
	if userID == "" {
		return nil, unauthorizedError("authentication required")
	}
	if limit < 1 {
		limit = DefaultErrorLogLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	logs, err := s.store.ListGenerationErrorLogs(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list generation error logs: %w", err)
	}
	return logs, nil
}
