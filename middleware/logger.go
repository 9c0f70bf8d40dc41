package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/andrewpaige1/flashcards-ai/utils"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(status int) {
	sw.status = status
	sw.ResponseWriter.WriteHeader(status)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if sw.status == 0 {
		sw.status = http.StatusOK
	}
	return sw.ResponseWriter.Write(b)
}

func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// Log writes one record per request after it completes.
func Log(l *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(sw, r)

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}
			l.Info("request handled",
				"method", r.Method,
				"url", r.URL.String(),
				"status", status,
				"duration", time.Since(start),
				"ip", r.RemoteAddr,
				"agent", r.UserAgent(),
				"request_id", utils.RequestID(r.Context()))
		})
	}
}
