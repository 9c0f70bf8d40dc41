package handlers

import (
	"net/http"

	"github.com/andrewpaige1/flashcards-ai/models"
	"github.com/andrewpaige1/flashcards-ai/services"
	"github.com/andrewpaige1/flashcards-ai/utils"
)

type flashcardInput struct {
	Front        string        `json:"front" validate:"required,max=200"`
	Back         string        `json:"back" validate:"required,max=500"`
	Source       models.Source `json:"source" validate:"required,oneof=manual ai ai-edited"`
	GenerationID *int64        `json:"generation_id" validate:"omitempty,gt=0"`
}

type createFlashcardsRequest struct {
	Flashcards []flashcardInput `json:"flashcards" validate:"required,min=1,max=100,dive"`
}

type updateFlashcardRequest struct {
	Front *string `json:"front" validate:"omitempty,min=1,max=200"`
	Back  *string `json:"back" validate:"omitempty,min=1,max=500"`
}

type listFlashcardsQuery struct {
	Page   int    `json:"page" validate:"gte=1"`
	Limit  int    `json:"limit" validate:"gte=1,lte=100"`
	Source string `json:"source" validate:"omitempty,oneof=manual ai ai-edited all"`
}

func (a *API) handleCreateFlashcards(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}

	var req createFlashcardsRequest
	if err := a.decode(r, &req); err != nil {
		a.handleErr(w, r, err)
		return
	}

	cmds := make([]services.CreateFlashcardCommand, 0, len(req.Flashcards))
	for _, f := range req.Flashcards {
		cmds = append(cmds, services.CreateFlashcardCommand{
			Front:        f.Front,
			Back:         f.Back,
			Source:       f.Source,
			GenerationID: f.GenerationID,
		})
	}

	cards, err := a.flashcards.Create(r.Context(), userID, cmds)
	if err != nil {
		a.handleErr(w, r, err)
		return
	}

	utils.WriteJSON(a.logger, w, http.StatusCreated, cards)
}

func (a *API) handleListFlashcards(w http.ResponseWriter, r *http.Request) {
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

	q := listFlashcardsQuery{Page: page, Limit: limit, Source: r.URL.Query().Get("source")}
	if err := a.check(q); err != nil {
		a.handleErr(w, r, err)
		return
	}

	result, err := a.flashcards.List(r.Context(), services.ListQuery{
		UserID: userID,
		Page:   q.Page,
		Limit:  q.Limit,
		Source: models.Source(q.Source),
	})
	if err != nil {
		a.handleErr(w, r, err)
		return
	}

	utils.WriteJSON(a.logger, w, http.StatusOK, result)
}

func (a *API) handleGetFlashcard(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		a.handleErr(w, r, err)
		return
	}

	card, err := a.flashcards.Get(r.Context(), userID, id)
	if err != nil {
		a.handleErr(w, r, err)
		return
	}

	utils.WriteJSON(a.logger, w, http.StatusOK, card)
}

func (a *API) handleUpdateFlashcard(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		a.handleErr(w, r, err)
		return
	}

	var req updateFlashcardRequest
	if err := a.decode(r, &req); err != nil {
		a.handleErr(w, r, err)
		return
	}

	card, err := a.flashcards.Update(r.Context(), userID, id, services.UpdateFlashcardCommand{
		Front: req.Front,
		Back:  req.Back,
	})
	if err != nil {
		a.handleErr(w, r, err)
		return
	}

	utils.WriteJSON(a.logger, w, http.StatusOK, card)
}

func (a *API) handleDeleteFlashcard(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		a.handleErr(w, r, err)
		return
	}

	if err := a.flashcards.Delete(r.Context(), userID, id); err != nil {
		a.handleErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
