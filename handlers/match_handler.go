package handlers

import (
	"context"
	"net/http"

	"github.com/Dosada05/club-scoring/middleware"
	"github.com/Dosada05/club-scoring/models"
	"github.com/Dosada05/club-scoring/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

type setsInput struct {
	Sets []models.Set `json:"sets"`
}

// GetMatch godoc
// @Summary Get a match
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID"
// @Success 200 {object} map[string]interface{} "match"
// @Failure 404 {object} map[string]string
// @Router /matches/{matchID} [get]
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.GetMatch(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StartMatch godoc
// @Summary Start a scheduled match
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID"
// @Success 200 {object} map[string]interface{} "match"
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Match cannot be started"
// @Security BearerAuth
// @Router /matches/{matchID}/start [post]
func (h *MatchHandler) StartMatch(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.matchService.StartMatch)
}

// CompleteMatch godoc
// @Summary Record the final score of a match
// @Description Validates every set against the match format, stores the result and the rating delta.
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path string true "Match ID"
// @Param input body setsInput true "Final set scores"
// @Success 200 {object} map[string]interface{} "match, resolution and rating"
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Match already completed"
// @Failure 422 {object} map[string]string "Score rejected, see reason"
// @Security BearerAuth
// @Router /matches/{matchID}/complete [post]
func (h *MatchHandler) CompleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID, input, ok := h.readSets(w, r)
	if !ok {
		return
	}

	result, err := h.matchService.CompleteMatch(r.Context(), matchID, input.Sets)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RevertMatch godoc
// @Summary Send a match back to scheduled
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID"
// @Success 200 {object} map[string]interface{} "match"
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Match cannot be reverted"
// @Security BearerAuth
// @Router /matches/{matchID}/revert [post]
func (h *MatchHandler) RevertMatch(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.matchService.RevertMatch)
}

// UpdateLiveScore godoc
// @Summary Overwrite the live score of a match in progress
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path string true "Match ID"
// @Param input body setsInput true "Current set scores"
// @Success 200 {object} map[string]interface{} "match"
// @Failure 409 {object} map[string]string "Match not in progress"
// @Security BearerAuth
// @Router /matches/{matchID}/live [post]
func (h *MatchHandler) UpdateLiveScore(w http.ResponseWriter, r *http.Request) {
	matchID, input, ok := h.readSets(w, r)
	if !ok {
		return
	}

	match, err := h.matchService.UpdateLiveScore(r.Context(), matchID, input.Sets)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitProvisional godoc
// @Summary Submit a provisional final score for confirmation
// @Tags matches
// @Accept json
// @Produce json
// @Param matchID path string true "Match ID"
// @Param input body setsInput true "Proposed set scores"
// @Success 200 {object} map[string]interface{} "match"
// @Failure 409 {object} map[string]string "A submission is already pending"
// @Security BearerAuth
// @Router /matches/{matchID}/provisional [post]
func (h *MatchHandler) SubmitProvisional(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	matchID, input, ok := h.readSets(w, r)
	if !ok {
		return
	}

	match, err := h.matchService.SubmitProvisional(r.Context(), matchID, input.Sets, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ConfirmProvisional godoc
// @Summary Confirm the pending provisional score
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID"
// @Success 200 {object} map[string]interface{} "match, resolution and rating"
// @Failure 409 {object} map[string]string "Nothing pending"
// @Failure 422 {object} map[string]string "Pending score is invalid"
// @Security BearerAuth
// @Router /matches/{matchID}/provisional/confirm [post]
func (h *MatchHandler) ConfirmProvisional(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	result, err := h.matchService.ConfirmProvisional(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, result, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RejectProvisional godoc
// @Summary Discard the pending provisional score
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID"
// @Success 200 {object} map[string]interface{} "match"
// @Failure 409 {object} map[string]string "Nothing pending"
// @Security BearerAuth
// @Router /matches/{matchID}/provisional/reject [post]
func (h *MatchHandler) RejectProvisional(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, h.matchService.RejectProvisional)
}

func (h *MatchHandler) simpleTransition(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, matchID string) (*models.Match, error)) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := fn(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) readSets(w http.ResponseWriter, r *http.Request) (string, setsInput, bool) {
	var input setsInput
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return "", input, false
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return "", input, false
	}
	return matchID, input, true
}
