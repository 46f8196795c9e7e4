package models

import "time"

// Player ratings are owned by the rating-history collaborator; nil means unknown.
type Player struct {
	ID     string   `json:"id" db:"id"`
	Name   string   `json:"name" db:"name"`
	Rating *float64 `json:"rating,omitempty" db:"rating"`
}

type Team struct {
	ID           string    `json:"id" db:"id"`
	TournamentID string    `json:"tournamentId" db:"tournament_id"`
	Name         *string   `json:"name,omitempty" db:"name"`
	Seed         *int      `json:"seed,omitempty" db:"seed"`
	GroupID      *string   `json:"groupId,omitempty" db:"group_id"`
	Players      []Player  `json:"players" db:"-"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// PlayerRating returns the rating of the player at index i, or def when missing.
func (t *Team) PlayerRating(i int, def float64) (float64, bool) {
	if t == nil || i >= len(t.Players) || t.Players[i].Rating == nil {
		return def, false
	}
	return *t.Players[i].Rating, true
}

// AverageRating is the mean over the first two player slots, missing players counted at def.
func (t *Team) AverageRating(def float64) float64 {
	r1, _ := t.PlayerRating(0, def)
	r2, _ := t.PlayerRating(1, def)
	return (r1 + r2) / 2
}
