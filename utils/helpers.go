package utils

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/andrewpaige1/flashcards-ai/models"
)

type contextKey string

const (
	userKey      contextKey = "user"
	requestIDKey contextKey = "request_id"
)

// GetClaims returns the validated token claims attached by the auth middleware.
func GetClaims(r *http.Request) (*validator.ValidatedClaims, bool) {
	claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	if !ok || claims == nil {
		return nil, false
	}
	return claims, true
}

// GetSubject returns the user id carried in the token subject.
func GetSubject(r *http.Request) (string, bool) {
	claims, ok := GetClaims(r)
	if !ok || claims.RegisteredClaims.Subject == "" {
		return "", false
	}
	return claims.RegisteredClaims.Subject, true
}

// GetTokenID returns the token's jti and expiry.
func GetTokenID(r *http.Request) (string, time.Time, bool) {
	claims, ok := GetClaims(r)
	if !ok || claims.RegisteredClaims.ID == "" {
		return "", time.Time{}, false
	}
	return claims.RegisteredClaims.ID, time.Unix(claims.RegisteredClaims.Expiry, 0), true
}

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func GetUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(userKey).(*models.User)
	return u, ok && u != nil
}

// GetUserID prefers the loaded user and falls back to the token subject.
func GetUserID(r *http.Request) (string, bool) {
	if u, ok := GetUser(r); ok {
		return u.ID, true
	}
	return GetSubject(r)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON writes v with the given status. Encoding failures are reported to l.
func WriteJSON(l *slog.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		l.Error("failed to encode response", "error", err, "status", status)
	}
}

func WriteError(l *slog.Logger, w http.ResponseWriter, status int, code, msg string, details any) {
	WriteJSON(l, w, status, ErrorResponse{Error: msg, Code: code, Details: details})
}
