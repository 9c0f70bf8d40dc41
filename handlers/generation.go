package handlers

import (
	"net/http"

	"github.com/andrewpaige1/flashcards-ai/models"
	"github.com/andrewpaige1/flashcards-ai/services"
	"github.com/andrewpaige1/flashcards-ai/utils"
)

type generateRequest struct {
	Text string `json:"text" validate:"required,min=1000,max=10000"`
}

type listGenerationsQuery struct {
	Page  int `json:"page" validate:"gte=1"`
	Limit int `json:"limit" validate:"gte=1,lte=100"`
}

type errorLogsQuery struct {
	Limit int `json:"limit" validate:"gte=1,lte=100"`
}

type errorLogsResponse struct {
	Errors []models.GenerationErrorLog `json:"errors"`
}

func (a *API) handleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}

	var req generateRequest
	if err := a.decode(r, &req); err != nil {
		a.handleErr(w, r, err)
		return
	}

	result, err := a.generations.Generate(r.Context(), userID, req.Text)
	if err != nil {
		a.handleErr(w, r, err)
		return
	}

	utils.WriteJSON(a.logger, w, http.StatusCreated, result)
}

func (a *API) handleListGenerations(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}

	page, err := queryInt(r, "page", 1)
	if err != nil {
		a.handleErr(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", services.DefaultPageLimit)
	if err != nil {
		a.handleErr(w, r, err)
		return
	}

	q := listGenerationsQuery{Page: page, Limit: limit}
	if err := a.check(q); err != nil {
		a.handleErr(w, r, err)
		return
	}

	result, err := a.generations.ListSessions(r.Context(), userID, q.Page, q.Limit)
	if err != nil {
		a.handleErr(w, r, err)
		return
	}

	utils.WriteJSON(a.logger, w, http.StatusOK, result)
}

func (a *API) handleGetGeneration(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		a.handleErr(w, r, err)
		return
	}

	session, err := a.generations.GetSession(r.Context(), userID, id)
	if err != nil {
		a.handleErr(w, r, err)
		return
	}

	utils.WriteJSON(a.logger, w, http.StatusOK, session)
}

func (a *API) handleListGenerationErrors(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit", services.DefaultErrorLogLimit)
	if err != nil {
		a.handleErr(w, r, err)
		return
	}

	q := errorLogsQuery{Limit: limit}
	if err := a.check(q); err != nil {
		a.handleErr(w, r, err)
		return
	}

	logs, err := a.generations.ListErrorLogs(r.Context(), userID, q.Limit)
	if err != nil {
		a.handleErr(w, r, err)
		return
	}

	utils.WriteJSON(a.logger, w, http.StatusOK, errorLogsResponse{Errors: logs})
}
