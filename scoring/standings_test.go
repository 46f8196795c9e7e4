package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/club-scoring/models"
)

func completed(id, t1, t2, winner string, s ...int) models.Match {
	g := "g1"
	w := winner
	return models.Match{
		ID: id, Team1ID: t1, Team2ID: t2,
		Format:   models.FormatBestOfThree,
		Sets:     sets(s...),
		Status:   models.StatusCompleted,
		WinnerID: &w,
		GroupID:  &g,
	}
}

func team(id string, ratings ...float64) models.Team {
	t := models.Team{ID: id}
	for _, r := range ratings {
		v := r
		t.Players = append(t.Players, models.Player{ID: id + "-p", Rating: &v})
	}
	return t
}

func TestComputeStandings_WinsBeatRatingPoints(t *testing.T) {
	matches := []models.Match{
		completed("m1", "A", "B", "A", 6, 4, 6, 4),
		completed("m2", "B", "A", "A", 4, 6, 3, 6),
	}
	deltas := []models.RatingDelta{
		{MatchID: "m1", TeamAID: "A", TeamBID: "B", DeltaA: -500, DeltaB: 500},
		{MatchID: "m2", TeamAID: "B", TeamBID: "A", DeltaA: 500, DeltaB: -500},
	}

	table := ComputeStandings(StandingsParams{
		GroupID: "g1", Matches: matches, Deltas: deltas,
		Points: models.DefaultPointsSystem,
	})

	require.Len(t, table, 2)
	assert.Equal(t, "A", table[0].TeamID)
	assert.Equal(t, 1, table[0].Position)
	assert.Equal(t, 2, table[0].MatchesWon)
	assert.Equal(t, 0, table[0].MatchesLost)
	assert.Equal(t, 2, table[1].MatchesLost)
	assert.Equal(t, -1000, table[0].RatingPoints)
	assert.Equal(t, 1000, table[1].RatingPoints)
}

func TestComputeStandings_Accumulates(t *testing.T) {
	matches := []models.Match{
		completed("m1", "A", "B", "A", 6, 4, 4, 6, 10, 8),
		completed("m2", "C", "A", "C", 6, 2, 6, 1),
		{ID: "m3", Team1ID: "B", Team2ID: "C", Status: models.StatusInProgress, Sets: sets(6, 0)},
	}
	deltas := []models.RatingDelta{
		{MatchID: "m1", TeamAID: "A", TeamBID: "B", DeltaA: 21, DeltaB: -21},
		{MatchID: "m2", TeamAID: "C", TeamBID: "A", DeltaA: 30, DeltaB: -30},
		{MatchID: "m3", TeamAID: "B", TeamBID: "C", DeltaA: 99, DeltaB: -99},
	}

	table := ComputeStandings(StandingsParams{
		GroupID: "g1", Matches: matches, Deltas: deltas,
		Teams:  []models.Team{team("A"), team("B"), team("C"), team("D")},
		Points: models.DefaultPointsSystem, DefaultRating: 1000,
	})

	byTeam := map[string]models.Standing{}
	for _, s := range table {
		byTeam[s.TeamID] = s
	}
	require.Len(t, byTeam, 4)

	a := byTeam["A"]
	assert.Equal(t, 2, a.MatchesPlayed)
	assert.Equal(t, 1, a.MatchesWon)
	assert.Equal(t, 1, a.MatchesLost)
	assert.Equal(t, 3, a.Points)
	assert.Equal(t, (20-18)+(3-12), a.GamesDifference)
	assert.Equal(t, 21-30, a.RatingPoints)

	b := byTeam["B"]
	assert.Equal(t, 1, b.MatchesPlayed)
	assert.Equal(t, -21, b.RatingPoints)

	d := byTeam["D"]
	assert.Zero(t, d.MatchesPlayed)
	assert.Zero(t, d.Points)
	assert.Equal(t, 1000.0, d.AverageRating)

	assert.Equal(t, "C", table[0].TeamID)
}

func TestComputeStandings_TieBreakCascade(t *testing.T) {
	// A and B both 1-1 on points; A has the better games difference.
	matches := []models.Match{
		completed("m1", "A", "B", "A", 6, 0, 6, 0),
		completed("m2", "B", "A", "B", 6, 4, 6, 4),
	}
	table := ComputeStandings(StandingsParams{GroupID: "g1", Matches: matches, Points: models.DefaultPointsSystem})
	assert.Equal(t, []string{"A", "B"}, ids(table))

	// Equal games difference: rating points decide.
	matches = []models.Match{
		completed("m1", "A", "B", "A", 6, 4, 6, 4),
		completed("m2", "B", "A", "B", 6, 4, 6, 4),
	}
	deltas := []models.RatingDelta{{MatchID: "m2", TeamAID: "B", TeamBID: "A", DeltaA: 5, DeltaB: -5}}
	table = ComputeStandings(StandingsParams{GroupID: "g1", Matches: matches, Deltas: deltas, Points: models.DefaultPointsSystem})
	assert.Equal(t, []string{"B", "A"}, ids(table))

	// Everything equal but average rating.
	table = ComputeStandings(StandingsParams{
		GroupID: "g1", Matches: matches, Points: models.DefaultPointsSystem,
		Teams: []models.Team{team("A", 1200, 1100), team("B", 1000)}, DefaultRating: 1000,
	})
	assert.Equal(t, []string{"A", "B"}, ids(table))
	assert.Equal(t, 1150.0, table[0].AverageRating)
	assert.Equal(t, 1000.0, table[1].AverageRating)
}

func TestComputeStandings_Idempotent(t *testing.T) {
	params := StandingsParams{
		GroupID: "g1",
		Matches: []models.Match{
			completed("m1", "A", "B", "A", 6, 4),
			completed("m2", "C", "D", "D", 4, 6),
			completed("m3", "A", "C", "C", 4, 6),
			completed("m4", "B", "D", "B", 7, 5),
		},
		Points: models.DefaultPointsSystem,
	}
	first := ComputeStandings(params)
	second := ComputeStandings(params)
	assert.Equal(t, first, second)
}

func TestComputeStandings_GamesDifferenceMonotonic(t *testing.T) {
	base := []models.Match{
		completed("m1", "A", "X", "A", 6, 4),
		completed("m2", "B", "Y", "B", 6, 3),
	}
	before := position(ComputeStandings(StandingsParams{GroupID: "g1", Matches: base, Points: models.DefaultPointsSystem}), "A")

	better := []models.Match{
		completed("m1", "A", "X", "A", 6, 0),
		completed("m2", "B", "Y", "B", 6, 3),
	}
	after := position(ComputeStandings(StandingsParams{GroupID: "g1", Matches: better, Points: models.DefaultPointsSystem}), "A")
	assert.LessOrEqual(t, after, before)
	assert.Equal(t, 1, after)
}

func TestComputeStandings_IgnoresOtherGroupsAndPlaceholders(t *testing.T) {
	other := completed("m9", "A", "B", "B", 0, 6)
	g := "g2"
	other.GroupID = &g
	bye := completed("m8", "A", models.TeamBYE, "A", 6, 0)

	table := ComputeStandings(StandingsParams{
		GroupID: "g1",
		Matches: []models.Match{completed("m1", "A", "B", "A", 6, 4), other, bye},
		Points:  models.DefaultPointsSystem,
	})
	require.Len(t, table, 2)
	assert.Equal(t, 1, table[0].MatchesPlayed)
	assert.Equal(t, 1, table[1].MatchesPlayed)
}

func TestComputeStandings_SkipsMatchesWithoutGroup(t *testing.T) {
	knockout := completed("k1", "A", "B", "B", 2, 6)
	knockout.GroupID = nil

	table := ComputeStandings(StandingsParams{
		GroupID: "g1",
		Matches: []models.Match{completed("m1", "A", "B", "A", 6, 4), knockout},
		Points:  models.DefaultPointsSystem,
	})
	require.Len(t, table, 2)
	assert.Equal(t, "A", table[0].TeamID)
	for _, row := range table {
		assert.Equal(t, 1, row.MatchesPlayed)
	}
	assert.Equal(t, 3, table[0].Points)
	assert.Equal(t, 0, table[1].Points)
}

func ids(table []models.Standing) []string {
	out := make([]string, len(table))
	for i, s := range table {
		out[i] = s.TeamID
	}
	return out
}

func position(table []models.Standing, teamID string) int {
	for _, s := range table {
		if s.TeamID == teamID {
			return s.Position
		}
	}
	return 0
}
