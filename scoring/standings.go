package scoring

import (
	"cmp"
	"slices"

	"github.com/Dosada05/club-scoring/models"
)

type StandingsParams struct {
	GroupID string
	Matches []models.Match
	// Deltas are the stored rating adjustments; only those of completed matches in Matches count.
	Deltas []models.RatingDelta
	// Teams registered in the group. Teams without matches still get a zero row.
	Teams         []models.Team
	Points        models.PointsSystem
	DefaultRating float64
}

// ComputeStandings folds a group's completed matches into a ranked table.
// Ranking is points, then games difference, then rating points, then average player
// rating, then team id so that the order is total.
func ComputeStandings(p StandingsParams) []models.Standing {
	rows := make(map[string]*models.Standing)
	row := func(teamID string) *models.Standing {
		if s, ok := rows[teamID]; ok {
			return s
		}
		s := &models.Standing{GroupID: p.GroupID, TeamID: teamID}
		rows[teamID] = s
		return s
	}

	teams := make(map[string]*models.Team, len(p.Teams))
	for i := range p.Teams {
		t := &p.Teams[i]
		teams[t.ID] = t
		row(t.ID)
	}

	completed := make(map[string]bool)
	for _, m := range p.Matches {
		if m.Status != models.StatusCompleted || models.IsPlaceholderTeam(m.Team1ID) || models.IsPlaceholderTeam(m.Team2ID) {
			continue
		}
		if p.GroupID != "" && (m.GroupID == nil || *m.GroupID != p.GroupID) {
			continue
		}
		completed[m.ID] = true
		t1, t2 := row(m.Team1ID), row(m.Team2ID)
		t1.MatchesPlayed++
		t2.MatchesPlayed++

		for _, set := range m.Sets {
			t1.GamesWon += set.Team1Games
			t1.GamesLost += set.Team2Games
			t2.GamesWon += set.Team2Games
			t2.GamesLost += set.Team1Games
		}

		switch m.Winner() {
		case m.Team1ID:
			t1.MatchesWon++
			t2.MatchesLost++
			t1.Points += p.Points.Win
			t2.Points += p.Points.Loss
		case m.Team2ID:
			t2.MatchesWon++
			t1.MatchesLost++
			t2.Points += p.Points.Win
			t1.Points += p.Points.Loss
		default:
			t1.MatchesDrawn++
			t2.MatchesDrawn++
			t1.Points += p.Points.Draw
			t2.Points += p.Points.Draw
		}
	}

	for _, d := range p.Deltas {
		if !completed[d.MatchID] {
			continue
		}
		if s, ok := rows[d.TeamAID]; ok {
			s.RatingPoints += d.DeltaA
		}
		if s, ok := rows[d.TeamBID]; ok {
			s.RatingPoints += d.DeltaB
		}
	}

	out := make([]models.Standing, 0, len(rows))
	for id, s := range rows {
		s.GamesDifference = s.GamesWon - s.GamesLost
		if t, ok := teams[id]; ok {
			s.AverageRating = t.AverageRating(p.DefaultRating)
		} else {
			s.AverageRating = p.DefaultRating
		}
		out = append(out, *s)
	}

	slices.SortFunc(out, compareStandings)
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

func compareStandings(a, b models.Standing) int {
	if c := cmp.Compare(b.Points, a.Points); c != 0 {
		return c
	}
	if c := cmp.Compare(b.GamesDifference, a.GamesDifference); c != 0 {
		return c
	}
	if c := cmp.Compare(b.RatingPoints, a.RatingPoints); c != 0 {
		return c
	}
	if c := cmp.Compare(b.AverageRating, a.AverageRating); c != 0 {
		return c
	}
	return cmp.Compare(a.TeamID, b.TeamID)
}
