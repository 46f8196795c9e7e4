package handlers

import (
	"net/http"

	"github.com/Dosada05/club-scoring/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bs services.BracketService) *BracketHandler {
	return &BracketHandler{bracketService: bs}
}

// GetBracket godoc
// @Summary Get the knockout bracket of a tournament
// @Tags brackets
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Success 200 {object} services.Bracket
// @Failure 404 {object} map[string]string "No bracket generated yet"
// @Router /tournaments/{tournamentID}/bracket [get]
func (h *BracketHandler) GetBracket(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.bracketService.GetBracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, bracket, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateGroupMatches godoc
// @Summary Generate the round-robin matches of a group
// @Tags brackets
// @Accept json
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Param groupID path string true "Group ID"
// @Param input body services.GenerateGroupInput false "Format and legs"
// @Success 201 {object} map[string]interface{} "matches"
// @Failure 409 {object} map[string]string "Already generated"
// @Failure 422 {object} map[string]string "Not enough teams"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/groups/{groupID}/generate [post]
func (h *BracketHandler) GenerateGroupMatches(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.GenerateGroupInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.TournamentID, input.GroupID = tournamentID, groupID

	matches, err := h.bracketService.GenerateGroupMatches(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateKnockout godoc
// @Summary Generate the knockout bracket of a tournament
// @Description Teams listed in teamIds are seeded in list order; without a list every team enters with its stored seed.
// @Tags brackets
// @Accept json
// @Produce json
// @Param tournamentID path string true "Tournament ID"
// @Param input body services.GenerateKnockoutInput false "Format and seeding"
// @Success 201 {object} map[string]interface{} "matches"
// @Failure 409 {object} map[string]string "Already generated"
// @Failure 422 {object} map[string]string "Invalid team count"
// @Security BearerAuth
// @Router /tournaments/{tournamentID}/knockout/generate [post]
func (h *BracketHandler) GenerateKnockout(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.GenerateKnockoutInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.TournamentID = tournamentID

	matches, err := h.bracketService.GenerateKnockout(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
