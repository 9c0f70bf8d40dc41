package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/andrewpaige1/flashcards-ai/store"
	"github.com/andrewpaige1/flashcards-ai/utils"
)

// LoadUser makes sure the token subject is still a registered user and attaches it to the context.
func LoadUser(s *store.Store, logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := utils.GetSubject(r)
			if !ok {
				utils.WriteError(logger, w, http.StatusUnauthorized, "UNAUTHORIZED", "No subject found in token.", nil)
				return
			}

			user, err := s.GetUserByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					utils.WriteError(logger, w, http.StatusUnauthorized, "UNAUTHORIZED", "User no longer exists.", nil)
					return
				}
				logger.Error("failed to load user",
					"error", err,
					"user_id", userID,
					"request_id", utils.RequestID(r.Context()))
				utils.WriteError(logger, w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.WithUser(r.Context(), &user)))
		})
	}
}
