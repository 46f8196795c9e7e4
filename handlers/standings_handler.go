package handlers

import (
	"net/http"

	"github.com/Dosada05/club-scoring/services"
)

type StandingsHandler struct {
	standingsService services.StandingsService
}

func NewStandingsHandler(ss services.StandingsService) *StandingsHandler {
	return &StandingsHandler{standingsService: ss}
}

// GetGroupStandings godoc
// @Summary Get the ranked table of a group
// @Tags standings
// @Produce json
// @Param groupID path string true "Group ID"
// @Success 200 {object} map[string]interface{} "standings"
// @Failure 404 {object} map[string]string
// @Router /groups/{groupID}/standings [get]
func (h *StandingsHandler) GetGroupStandings(w http.ResponseWriter, r *http.Request) {
	groupID, err := getIDFromURL(r, "groupID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	table, err := h.standingsService.GetGroupStandings(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"groupId": groupID, "standings": table}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
