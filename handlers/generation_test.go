package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewpaige1/flashcards-ai/models"
	"github.com/andrewpaige1/flashcards-ai/services"
)

func TestPOSTGenerations(t *testing.T) {
	text := strings.Repeat("a", 1500)

	ta := newTestAPI()
	ta.generations.GenerateFunc = func(ctx context.Context, userID, got string) (services.GenerationResult, error) {
		assert.Equal(t, testUserID, userID)
		assert.Equal(t, text, got)
		return services.GenerationResult{
			Session: models.GenerationSession{ID: 4, Model: "openai/gpt-4o-mini", GeneratedCount: 1},
			Proposals: []services.Proposal{
				{Front: "Q", Back: "A", Source: models.SourceAI},
			},
		}, nil
	}

	rec := sendRequest(t, ta.mux(), "POST", "/api/generations", generateRequest{Text: text})
	require.Equal(t, http.StatusCreated, rec.Code)

	res := parseResponse[services.GenerationResult](t, rec)
	assert.Equal(t, int64(4), res.Session.ID)
	require.Len(t, res.Proposals, 1)
	assert.Equal(t, models.SourceAI, res.Proposals[0].Source)
}

func TestPOSTGenerations_TextLength(t *testing.T) {
	for _, n := range []int{0, 999, 10001} {
		ta := newTestAPI()

		rec := sendRequest(t, ta.mux(), "POST", "/api/generations", generateRequest{Text: strings.Repeat("a", n)})
		require.Equal(t, http.StatusBadRequest, rec.Code, "length %d", n)

		body := parseResponse[errorBody](t, rec)
		require.NotEmpty(t, body.Details)
		assert.Equal(t, "text", body.Details[0].Field)
	}
}

func TestPOSTGenerations_AIFailure(t *testing.T) {
	ta := newTestAPI()
	ta.generations.GenerateFunc = func(ctx context.Context, userID, text string) (services.GenerationResult, error) {
		return services.GenerationResult{}, services.NewServiceError(nil, http.StatusTooManyRequests, services.CodeAIRateLimit, "AI service rate limit exceeded")
	}

	rec := sendRequest(t, ta.mux(), "POST", "/api/generations", generateRequest{Text: strings.Repeat("b", 1000)})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, services.CodeAIRateLimit, parseResponse[errorBody](t, rec).Code)
}

func TestGETGenerations(t *testing.T) {
	ta := newTestAPI()
	ta.generations.ListSessionsFunc = func(ctx context.Context, userID string, page, limit int) (services.SessionPage, error) {
		assert.Equal(t, 3, page)
		assert.Equal(t, 10, limit)
		return services.SessionPage{
			Data:       []models.GenerationSession{{ID: 1}, {ID: 2}},
			Pagination: services.Pagination{Page: 3, TotalPages: 3, TotalItems: 22},
		}, nil
	}

	rec := sendRequest(t, ta.mux(), "GET", "/api/generations?page=3&limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, parseResponse[services.SessionPage](t, rec).Data, 2)
}

func TestGETGeneration(t *testing.T) {
	ta := newTestAPI()
	ta.generations.GetSessionFunc = func(ctx context.Context, userID string, id int64) (models.GenerationSession, error) {
		if id != 8 {
			return models.GenerationSession{}, services.NewServiceError(nil, http.StatusNotFound, services.CodeGenerationNotFound, "Generation session not found")
		}
		return models.GenerationSession{ID: 8, SourceTextHash: "abc"}, nil
	}
	mux := ta.mux()

	rec := sendRequest(t, mux, "GET", "/api/generations/8", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", parseResponse[models.GenerationSession](t, rec).SourceTextHash)

	rec = sendRequest(t, mux, "GET", "/api/generations/9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, services.CodeGenerationNotFound, parseResponse[errorBody](t, rec).Code)
}

func TestGETGenerationErrors(t *testing.T) {
	ta := newTestAPI()
	ta.generations.ListErrorLogsFunc = func(ctx context.Context, userID string, limit int) ([]models.GenerationErrorLog, error) {
		assert.Equal(t, services.DefaultErrorLogLimit, limit)
		return []models.GenerationErrorLog{{ID: 1, ErrorCode: services.CodeAIServer}}, nil
	}

	rec := sendRequest(t, ta.mux(), "GET", "/api/generation-errors", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	res := parseResponse[errorLogsResponse](t, rec)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, services.CodeAIServer, res.Errors[0].ErrorCode)
}

func TestGETGenerationErrors_InvalidLimit(t *testing.T) {
	ta := newTestAPI()

	rec := sendRequest(t, ta.mux(), "GET", "/api/generation-errors?limit=500", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
