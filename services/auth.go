package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/andrewpaige1/flashcards-ai/auth"
	"github.com/andrewpaige1/flashcards-ai/models"
	"github.com/andrewpaige1/flashcards-ai/store"
)

const (
	MinPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	MaxPasswordLength = 72
)

type LoginResult struct {
	User  models.User `json:"user"`
	Token auth.Token  `json:"-"`
}

// AuthService registers users and issues or revokes their access tokens.
type AuthService struct {
	store    *store.Store
	issuer   *auth.Issuer
	denylist auth.Denylist
	logger   *slog.Logger
}

func NewAuthService(s *store.Store, issuer *auth.Issuer, denylist auth.Denylist, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		store:    s,
		issuer:   issuer,
		denylist: denylist,
		logger:   logger.With("component", "auth"),
	}
}

func (s *AuthService) Register(ctx context.Context, email, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if details := checkCredentials(email, password); len(details) > 0 {
		return models.User{}, validationError(details, "invalid registration request")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, fmt.Errorf("register: %w", err)
	}

	user := models.User{Email: email, PasswordHash: hash}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, store.ErrExists) {
			se := NewServiceError(err, http.StatusConflict, CodeConflict, "email is already registered")
			se.Env["email"] = email
			return models.User{}, se
		}
		return models.User{}, fmt.Errorf("register: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login checks the credentials and issues a token. Unknown email and wrong password
// produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return LoginResult{}, validationError(nil, "email and password are required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, unauthorizedError("invalid email or password")
		}
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return LoginResult{}, unauthorizedError("invalid email or password")
		}
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	token, err := s.issuer.CreateToken(user.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	return LoginResult{User: user, Token: token}, nil
}

// Logout revokes the token id until the token would expire on its own.
func (s *AuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" || s.denylist == nil {
		return nil
	}

	if err := s.denylist.Revoke(ctx, tokenID, expiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func checkCredentials(email, password string) []FieldError {
	var details []FieldError
	if email == "" || !strings.Contains(email, "@") {
		details = append(details, FieldError{Field: "email", Message: "must be a valid email address"})
	}
	switch {
	case len(password) < MinPasswordLength:
		details = append(details, FieldError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength)})
	case len(password) > MaxPasswordLength:
		details = append(details, FieldError{Field: "password", Message: fmt.Sprintf("must be at most %d bytes", MaxPasswordLength)})
	}
	return details
}
