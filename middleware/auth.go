package middleware

import (
	"log/slog"
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/andrewpaige1/flashcards-ai/auth"
	"github.com/andrewpaige1/flashcards-ai/utils"
)

// EnsureValidToken accepts a bearer token or the auth cookie, validates it and
// rejects tokens revoked on logout.
func EnsureValidToken(v *validator.Validator, denylist auth.Denylist, cookieName string, logger *slog.Logger) Middleware {
	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Warn("rejected token",
			"error", err,
			"method", r.Method,
			"url", r.URL.String(),
			"request_id", utils.RequestID(r.Context()))
		utils.WriteError(logger, w, http.StatusUnauthorized, "UNAUTHORIZED", "Failed to validate JWT.", nil)
	}

	jwtMw := jwtmiddleware.New(
		v.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
		jwtmiddleware.WithTokenExtractor(jwtmiddleware.MultiTokenExtractor(
			jwtmiddleware.AuthHeaderTokenExtractor,
			cookieTokenExtractor(cookieName),
		)),
	)

	return func(next http.Handler) http.Handler {
		return jwtMw.CheckJWT(rejectRevoked(next, denylist, logger))
	}
}

// cookieTokenExtractor treats a missing cookie as "no token" so the header extractor's
// answer stands.
func cookieTokenExtractor(name string) jwtmiddleware.TokenExtractor {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(name)
		if err != nil {
			return "", nil
		}
		return cookie.Value, nil
	}
}

func rejectRevoked(next http.Handler, denylist auth.Denylist, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if denylist == nil {
			next.ServeHTTP(w, r)
			return
		}

		jti, _, ok := utils.GetTokenID(r)
		if !ok {
			utils.WriteError(logger, w, http.StatusUnauthorized, "UNAUTHORIZED", "Token has no id.", nil)
			return
		}

		revoked, err := denylist.IsRevoked(r.Context(), jti)
		if err != nil {
			logger.Error("failed to check token denylist", "error", err, "request_id", utils.RequestID(r.Context()))
			utils.WriteError(logger, w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
			return
		}
		if revoked {
			utils.WriteError(logger, w, http.StatusUnauthorized, "UNAUTHORIZED", "Token has been revoked.", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
