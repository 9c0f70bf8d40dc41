package middleware

import (
	"log/slog"
	"net/http"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/andrewpaige1/flashcards-ai/utils"
)

const RequestIDHeader = "X-Request-ID"

// RequestID reuses a well-formed incoming X-Request-ID or generates a nanoid.
func RequestID(l *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > 64 {
				generated, err := gonanoid.New()
				if err != nil {
					utils.WriteError(l, w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate request id", nil)
					return
				}
				id = generated
			}

			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(utils.WithRequestID(r.Context(), id)))
		})
	}
}
