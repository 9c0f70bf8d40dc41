package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/andrewpaige1/flashcards-ai/utils"
)

// Recover turns a panic into a 500. Aborted client connections are re-panicked
// so net/http can drop them quietly.
func Recover(l *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					l.Warn("client connection aborted", "url", r.URL.String())
					panic(rec)
				}

				l.Error("panic recovered",
					"error", rec,
					"method", r.Method,
					"url", r.URL.String(),
					"request_id", utils.RequestID(r.Context()),
					"stack_trace", string(debug.Stack()))
				utils.WriteError(l, w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
