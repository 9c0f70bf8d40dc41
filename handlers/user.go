package handlers

import (
	"net/http"
	"time"

	"github.com/andrewpaige1/flashcards-ai/models"
	"github.com/andrewpaige1/flashcards-ai/services"
	"github.com/andrewpaige1/flashcards-ai/utils"
)

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	User models.User `json:"user"`
}

type loginResponse struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := a.decode(r, &req); err != nil {
		a.handleErr(w, r, err)
		return
	}

	user, err := a.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		a.handleErr(w, r, err)
		return
	}

	utils.WriteJSON(a.logger, w, http.StatusCreated, userResponse{User: user})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := a.decode(r, &req); err != nil {
		a.handleErr(w, r, err)
		return
	}

	res, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.handleErr(w, r, err)
		return
	}

	http.SetCookie(w, a.authCookie(res.Token.Value, res.Token.ExpiresAt))
	utils.WriteJSON(a.logger, w, http.StatusOK, loginResponse{User: res.User, Token: res.Token.Value})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	tokenID, expiresAt, ok := utils.GetTokenID(r)
	if !ok {
		utils.WriteError(a.logger, w, http.StatusUnauthorized, services.CodeUnauthorized, "Unauthorized", nil)
		return
	}

	if err := a.auth.Logout(r.Context(), tokenID, expiresAt); err != nil {
		a.handleErr(w, r, err)
		return
	}

	http.SetCookie(w, a.authCookie("", time.Unix(0, 0)))
	w.WriteHeader(http.StatusNoContent)
}

// authCookie builds the session cookie. An empty value clears it.
func (a *API) authCookie(value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     a.cookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   a.env.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		c.MaxAge = -1
	}
	if !a.env.IsDevelopment {
		c.Domain = a.env.Domain
	}
	return c
}
