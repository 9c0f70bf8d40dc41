package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/andrewpaige1/flashcards-ai/config"
	"github.com/andrewpaige1/flashcards-ai/middleware"
	"github.com/andrewpaige1/flashcards-ai/models"
	"github.com/andrewpaige1/flashcards-ai/services"
	"github.com/andrewpaige1/flashcards-ai/utils"
)

type flashcardsService interface {
	Create(ctx context.Context, userID string, cmds []services.CreateFlashcardCommand) ([]models.Flashcard, error)
	List(ctx context.Context, q services.ListQuery) (services.FlashcardPage, error)
	Get(ctx context.Context, userID string, id int64) (models.Flashcard, error)
	Update(ctx context.Context, userID string, id int64, cmd services.UpdateFlashcardCommand) (models.Flashcard, error)
	Delete(ctx context.Context, userID string, id int64) error
}

type generationService interface {
	Generate(ctx context.Context, userID, text string) (services.GenerationResult, error)
	ListSessions(ctx context.Context, userID string, page, limit int) (services.SessionPage, error)
	GetSession(ctx context.Context, userID string, id int64) (models.GenerationSession, error)
	ListErrorLogs(ctx context.Context, userID string, limit int) ([]models.GenerationErrorLog, error)
}

type authService interface {
	Register(ctx context.Context, email, password string) (models.User, error)
	Login(ctx context.Context, email, password string) (services.LoginResult, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// Options configures the parts of the API that are not services.
type Options struct {
	Env        config.Environment
	CookieName string
	Logger     *slog.Logger
	// Ping reports whether the backing stores are reachable. Optional.
	Ping func(ctx context.Context) error
}

// API serves the JSON endpoints.
type API struct {
	flashcards  flashcardsService
	generations generationService
	auth        authService

	env        config.Environment
	cookieName string
	ping       func(ctx context.Context) error
	logger     *slog.Logger
	validate   *validator.Validate
}

func NewAPI(fs flashcardsService, gs generationService, as authService, opts Options) *API {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CookieName == "" {
		opts.CookieName = "auth_token"
	}

	return &API{
		flashcards:  fs,
		generations: gs,
		auth:        as,
		env:         opts.Env,
		cookieName:  opts.CookieName,
		ping:        opts.Ping,
		logger:      opts.Logger,
		validate:    newValidator(),
	}
}

// Register mounts every route on mux. protect guards the routes that need a logged-in user.
func (a *API) Register(mux *http.ServeMux, protect middleware.Middleware) {
	guard := func(h http.HandlerFunc) http.Handler {
		return protect(h)
	}

	mux.HandleFunc("GET /healthz", a.handleHealth)

	// Auth
	mux.HandleFunc("POST /api/auth/register", a.handleRegister)
	mux.HandleFunc("POST /api/auth/login", a.handleLogin)
	mux.Handle("POST /api/auth/logout", guard(a.handleLogout))

	// Flashcards
	mux.Handle("POST /api/flashcards", guard(a.handleCreateFlashcards))
	mux.Handle("GET /api/flashcards", guard(a.handleListFlashcards))
	mux.Handle("GET /api/flashcards/{id}", guard(a.handleGetFlashcard))
	mux.Handle("PUT /api/flashcards/{id}", guard(a.handleUpdateFlashcard))
	mux.Handle("DELETE /api/flashcards/{id}", guard(a.handleDeleteFlashcard))

	// Generations
	mux.Handle("POST /api/generations", guard(a.handleGenerate))
	mux.Handle("GET /api/generations", guard(a.handleListGenerations))
	mux.Handle("GET /api/generations/{id}", guard(a.handleGetGeneration))
	mux.Handle("GET /api/generation-errors", guard(a.handleListGenerationErrors))
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := a.ping(ctx); err != nil {
			a.logger.Error("health check failed", "error", err)
			utils.WriteJSON(a.logger, w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	utils.WriteJSON(a.logger, w, http.StatusOK, map[string]string{"status": "ok"})
}
