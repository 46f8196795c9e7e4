package models

import "time"

// RatingDelta is the stored zero-sum adjustment produced by a completed match.
type RatingDelta struct {
	MatchID    string    `json:"matchId" db:"match_id"`
	TeamAID    string    `json:"teamAId" db:"team_a_id"`
	TeamBID    string    `json:"teamBId" db:"team_b_id"`
	DeltaA     int       `json:"deltaA" db:"delta_a"`
	DeltaB     int       `json:"deltaB" db:"delta_b"`
	Multiplier float64   `json:"multiplier" db:"multiplier"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// For returns the signed contribution of this delta to teamID.
func (d RatingDelta) For(teamID string) int {
	switch teamID {
	case d.TeamAID:
		return d.DeltaA
	case d.TeamBID:
		return d.DeltaB
	}
	return 0
}
