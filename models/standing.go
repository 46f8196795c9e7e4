package models

import "time"

// PointsSystem maps match outcomes to table points.
type PointsSystem struct {
	Win  int `json:"win"`
	Draw int `json:"draw"`
	Loss int `json:"loss"`
}

var DefaultPointsSystem = PointsSystem{Win: 3, Draw: 1, Loss: 0}

type Standing struct {
	GroupID         string    `json:"groupId" db:"group_id"`
	TeamID          string    `json:"teamId" db:"team_id"`
	MatchesPlayed   int       `json:"matchesPlayed" db:"matches_played"`
	MatchesWon      int       `json:"matchesWon" db:"matches_won"`
	MatchesDrawn    int       `json:"matchesDrawn" db:"matches_drawn"`
	MatchesLost     int       `json:"matchesLost" db:"matches_lost"`
	GamesWon        int       `json:"gamesWon" db:"games_won"`
	GamesLost       int       `json:"gamesLost" db:"games_lost"`
	GamesDifference int       `json:"gamesDifference" db:"games_difference"`
	Points          int       `json:"points" db:"points"`
	RatingPoints    int       `json:"ratingPoints" db:"rating_points"`
	AverageRating   float64   `json:"averageRating" db:"average_rating"`
	Position        int       `json:"position" db:"position"`
	UpdatedAt       time.Time `json:"updatedAt,omitempty" db:"updated_at"`
}
