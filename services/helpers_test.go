package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/andrewpaige1/flashcards-ai/config"
	"github.com/andrewpaige1/flashcards-ai/logger"
	"github.com/andrewpaige1/flashcards-ai/models"
	"github.com/andrewpaige1/flashcards-ai/openrouter"
	"github.com/andrewpaige1/flashcards-ai/store"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	db, err := config.Connect(config.DatabaseConfig{Type: "sqlite", DSN: "file::memory:"})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return store.New(db)
}

func createUser(t *testing.T, s *store.Store, email string) models.User {
	t.Helper()

	u := models.User{Email: email, PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(context.Background(), &u))
	return u
}

func createSession(t *testing.T, s *store.Store, userID string) models.GenerationSession {
	t.Helper()

	session := models.GenerationSession{
		UserID:         userID,
		SourceTextHash: "hash",
		Model:          "openai/gpt-4o-mini",
		GeneratedCount: 1,
	}
	require.NoError(t, s.CreateGenerationSession(context.Background(), &session))
	return session
}

func requireServiceError(t *testing.T, err error, status int, code string) *ServiceError {
	t.Helper()

	var se *ServiceError
	require.ErrorAs(t, err, &se)
	require.Equal(t, status, se.StatusCode, "status of %v", err)
	require.Equal(t, code, se.Code)
	return se
}

type fakeChat struct {
	mu       sync.Mutex
	model    string
	complete func(ctx context.Context, r openrouter.Request) (openrouter.Response, error)
	requests []openrouter.Request
}

func (f *fakeChat) Complete(ctx context.Context, r openrouter.Request) (openrouter.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, r)
	f.mu.Unlock()

	return f.complete(ctx, r)
}

func (f *fakeChat) Model() string {
	return f.model
}

func (f *fakeChat) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func sourceText(n int) string {
	return strings.Repeat("a", n)
}

var quietLogger = logger.Discard()
