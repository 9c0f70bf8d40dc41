package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewpaige1/flashcards-ai/config"
	"github.com/andrewpaige1/flashcards-ai/logger"
	"github.com/andrewpaige1/flashcards-ai/middleware"
	"github.com/andrewpaige1/flashcards-ai/models"
	"github.com/andrewpaige1/flashcards-ai/services"
	"github.com/andrewpaige1/flashcards-ai/utils"
)

const testUserID = "user-1"

type mockFlashcardsService struct {
	CreateFunc func(ctx context.Context, userID string, cmds []services.CreateFlashcardCommand) ([]models.Flashcard, error)
	ListFunc   func(ctx context.Context, q services.ListQuery) (services.FlashcardPage, error)
	GetFunc    func(ctx context.Context, userID string, id int64) (models.Flashcard, error)
	UpdateFunc func(ctx context.Context, userID string, id int64, cmd services.UpdateFlashcardCommand) (models.Flashcard, error)
	DeleteFunc func(ctx context.Context, userID string, id int64) error
}

func (m *mockFlashcardsService) Create(ctx context.Context, userID string, cmds []services.CreateFlashcardCommand) ([]models.Flashcard, error) {
	return m.CreateFunc(ctx, userID, cmds)
}

func (m *mockFlashcardsService) List(ctx context.Context, q services.ListQuery) (services.FlashcardPage, error) {
	return m.ListFunc(ctx, q)
}

func (m *mockFlashcardsService) Get(ctx context.Context, userID string, id int64) (models.Flashcard, error) {
	return m.GetFunc(ctx, userID, id)
}

func (m *mockFlashcardsService) Update(ctx context.Context, userID string, id int64, cmd services.UpdateFlashcardCommand) (models.Flashcard, error) {
	return m.UpdateFunc(ctx, userID, id, cmd)
}

func (m *mockFlashcardsService) Delete(ctx context.Context, userID string, id int64) error {
	return m.DeleteFunc(ctx, userID, id)
}

type mockGenerationService struct {
	GenerateFunc      func(ctx context.Context, userID, text string) (services.GenerationResult, error)
	ListSessionsFunc  func(ctx context.Context, userID string, page, limit int) (services.SessionPage, error)
	GetSessionFunc    func(ctx context.Context, userID string, id int64) (models.GenerationSession, error)
	ListErrorLogsFunc func(ctx context.Context, userID string, limit int) ([]models.GenerationErrorLog, error)
}

func (m *mockGenerationService) Generate(ctx context.Context, userID, text string) (services.GenerationResult, error) {
	return m.GenerateFunc(ctx, userID, text)
}

func (m *mockGenerationService) ListSessions(ctx context.Context, userID string, page, limit int) (services.SessionPage, error) {
	return m.ListSessionsFunc(ctx, userID, page, limit)
}

func (m *mockGenerationService) GetSession(ctx context.Context, userID string, id int64) (models.GenerationSession, error) {
	return m.GetSessionFunc(ctx, userID, id)
}

func (m *mockGenerationService) ListErrorLogs(ctx context.Context, userID string, limit int) ([]models.GenerationErrorLog, error) {
	return m.ListErrorLogsFunc(ctx, userID, limit)
}

type mockAuthService struct {
	RegisterFunc func(ctx context.Context, email, password string) (models.User, error)
	LoginFunc    func(ctx context.Context, email, password string) (services.LoginResult, error)
	LogoutFunc   func(ctx context.Context, tokenID string, expiresAt time.Time) error
}

func (m *mockAuthService) Register(ctx context.Context, email, password string) (models.User, error) {
	return m.RegisterFunc(ctx, email, password)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (services.LoginResult, error) {
	return m.LoginFunc(ctx, email, password)
}

func (m *mockAuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	return m.LogoutFunc(ctx, tokenID, expiresAt)
}

type errorBody struct {
	Error   string                `json:"error"`
	Code    string                `json:"code"`
	Details []services.FieldError `json:"details"`
}

// asUser stands in for the token and user middleware.
func asUser(userID string, claims *validator.ValidatedClaims) middleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID != "" {
				ctx = utils.WithUser(ctx, &models.User{ID: userID, Email: "user@example.com"})
			}
			if claims != nil {
				ctx = context.WithValue(ctx, jwtmiddleware.ContextKey{}, claims)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type testAPI struct {
	flashcards  *mockFlashcardsService
	generations *mockGenerationService
	auth        *mockAuthService
	opts        Options
	protect     middleware.Middleware
}

func newTestAPI() *testAPI {
	return &testAPI{
		flashcards:  &mockFlashcardsService{},
		generations: &mockGenerationService{},
		auth:        &mockAuthService{},
		opts:        Options{Env: config.NewEnvironment(""), Logger: logger.Discard()},
		protect:     asUser(testUserID, nil),
	}
}

func (ta *testAPI) mux() *http.ServeMux {
	api := NewAPI(ta.flashcards, ta.generations, ta.auth, ta.opts)

	mux := http.NewServeMux()
	api.Register(mux, ta.protect)
	return mux
}

func sendRequest(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var bodyRW strings.Builder
	if s, ok := body.(string); ok {
		bodyRW.WriteString(s)
	} else {
		require.NoError(t, json.NewEncoder(&bodyRW).Encode(body))
	}

	req, err := http.NewRequest(method, path, strings.NewReader(bodyRW.String()))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	return rec
}

func parseResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var resp T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	ta := newTestAPI()
	ta.opts.Ping = func(ctx context.Context) error { return nil }

	rec := sendRequest(t, ta.mux(), "GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", parseResponse[map[string]string](t, rec)["status"])
}

func TestHealth_Unavailable(t *testing.T) {
	ta := newTestAPI()
	ta.opts.Ping = func(ctx context.Context) error { return errors.New("db down") }

	rec := sendRequest(t, ta.mux(), "GET", "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProtectedRoute_NoUser(t *testing.T) {
	ta := newTestAPI()
	ta.protect = asUser("", nil)

	rec := sendRequest(t, ta.mux(), "GET", "/api/flashcards", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, services.CodeUnauthorized, parseResponse[errorBody](t, rec).Code)
}

func TestUnexpectedErrorIsInternal(t *testing.T) {
	ta := newTestAPI()
	ta.flashcards.GetFunc = func(ctx context.Context, userID string, id int64) (models.Flashcard, error) {
		return models.Flashcard{}, errors.New("connection reset")
	}

	rec := sendRequest(t, ta.mux(), "GET", "/api/flashcards/1", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	body := parseResponse[errorBody](t, rec)
	assert.Equal(t, services.CodeInternal, body.Code)
	assert.NotContains(t, body.Error, "connection reset")
}
