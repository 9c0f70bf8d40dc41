package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewpaige1/flashcards-ai/auth"
	"github.com/andrewpaige1/flashcards-ai/config"
	"github.com/andrewpaige1/flashcards-ai/logger"
	"github.com/andrewpaige1/flashcards-ai/models"
	"github.com/andrewpaige1/flashcards-ai/store"
	"github.com/andrewpaige1/flashcards-ai/utils"
)

var quiet = logger.Discard()

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newIssuer(t *testing.T, secret string) *auth.Issuer {
	t.Helper()

	issuer, err := auth.NewIssuer(auth.TokenConfig{
		Secret:   secret,
		Issuer:   "flashcards-ai",
		Audience: "flashcards-ai-api",
		TTL:      time.Hour,
	})
	require.NoError(t, err)
	return issuer
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(), mark("a"), mark("b"), mark("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestRecover_Panic(t *testing.T) {
	h := Recover(quiet)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	}))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body utils.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_ERROR", body.Code)
}

func TestRecover_AbortHandler(t *testing.T) {
	h := Recover(quiet)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = utils.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, seen, 21)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "client-id", seen)
	assert.Equal(t, "client-id", rec.Header().Get(RequestIDHeader))
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter(&buf, false)

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), RequestID(l), Log(l))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew?x=1", nil))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "request handled", record["msg"])
	assert.Equal(t, "/brew?x=1", record["url"])
	assert.EqualValues(t, http.StatusTeapot, record["status"])
	assert.NotEmpty(t, record["request_id"])
}

func TestLog_DefaultStatus(t *testing.T) {
	var buf bytes.Buffer
	h := Log(logger.NewWithWriter(&buf, false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, buf.String(), `"status":200`)
}

func TestEnsureValidToken(t *testing.T) {
	issuer := newIssuer(t, "test_secret")
	v, err := issuer.Validator()
	require.NoError(t, err)
	denylist := auth.NewMemoryDenylist()

	var subject string
	h := EnsureValidToken(v, denylist, "auth_token", quiet)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, _ = utils.GetSubject(r)
		w.WriteHeader(http.StatusOK)
	}))

	tok, err := issuer.CreateToken("user-1")
	require.NoError(t, err)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok.Value)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", subject)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: tok.Value})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var body utils.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "UNAUTHORIZED", body.Code)
	})

	t.Run("foreign signature", func(t *testing.T) {
		forged, err := newIssuer(t, "other_secret").CreateToken("user-1")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+forged.Value)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("revoked", func(t *testing.T) {
		revokedTok, err := issuer.CreateToken("user-1")
		require.NoError(t, err)
		require.NoError(t, denylist.Revoke(context.Background(), revokedTok.ID, revokedTok.ExpiresAt))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+revokedTok.Value)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLoadUser(t *testing.T) {
	db, err := config.Connect(config.DatabaseConfig{Type: "sqlite", DSN: "file::memory:"})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	s := store.New(db)

	u := models.User{Email: "a@example.com", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(context.Background(), &u))

	issuer := newIssuer(t, "test_secret")
	v, err := issuer.Validator()
	require.NoError(t, err)

	var loaded *models.User
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loaded, _ = utils.GetUser(r)
		w.WriteHeader(http.StatusOK)
	}), EnsureValidToken(v, nil, "auth_token", quiet), LoadUser(s, quiet))

	serve := func(userID string) int {
		tok, err := issuer.CreateToken(userID)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok.Value)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve(u.ID))
	require.NotNil(t, loaded)
	assert.Equal(t, "a@example.com", loaded.Email)

	assert.Equal(t, http.StatusUnauthorized, serve("deleted-user"))

	rec := httptest.NewRecorder()
	LoadUser(s, quiet)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
