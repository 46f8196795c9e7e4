package brackets

import (
	"context"
	"fmt"
	"slices"

	"github.com/Dosada05/club-scoring/models"
)

// MaxKnockoutTeams is the largest bracket the canonical rounds can hold (round of 16).
const MaxKnockoutTeams = 16

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() MatchGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string {
	return "SingleElimination"
}

// Generate builds a seeded single-elimination bracket. Teams are ordered by seed (unseeded
// teams keep their input order after the seeded ones). Missing bracket positions become BYE
// matches which are completed on creation, their team already placed in the next match.
// Every other later-round slot is TBD until the feeding match is completed.
func (g *SingleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) ([]models.Match, error) {
	if err := checkTeams(params.Teams, 2); err != nil {
		return nil, fmt.Errorf("SingleEliminationGenerator: %w", err)
	}
	if len(params.Teams) > MaxKnockoutTeams {
		return nil, fmt.Errorf("SingleEliminationGenerator: %w (%d, max %d)", ErrTooManyTeams, len(params.Teams), MaxKnockoutTeams)
	}

	ordered := slices.Clone(params.Teams)
	slices.SortStableFunc(ordered, compareSeeds)

	size := 2
	for size < len(ordered) {
		size *= 2
	}
	levels := 0
	for s := size; s > 1; s /= 2 {
		levels++
	}
	firstRound := models.RoundFinal - models.Round(levels-1)

	// rounds[l] holds the matches of level l, first round at 0
	rounds := make([][]models.Match, levels)
	for l := 0; l < levels; l++ {
		count := size >> (l + 1)
		rounds[l] = make([]models.Match, count)
		for i := range rounds[l] {
			m := params.newMatch(models.TeamTBD, models.TeamTBD)
			r := firstRound + models.Round(l)
			m.Round = &r
			m.OrderInRound = i + 1
			rounds[l][i] = m
		}
	}
	for l := 0; l < levels-1; l++ {
		for i := range rounds[l] {
			next := rounds[l+1][i/2].ID
			slot := i%2 + 1
			rounds[l][i].NextMatchID = &next
			rounds[l][i].WinnerToSlot = &slot
		}
	}

	positions := seedPositions(size)
	for i := range rounds[0] {
		m := &rounds[0][i]
		m.Team1ID = seedTeam(ordered, positions[2*i])
		m.Team2ID = seedTeam(ordered, positions[2*i+1])
		if m.Team1ID == models.TeamBYE {
			m.Team1ID, m.Team2ID = m.Team2ID, m.Team1ID
		}
		if m.Team2ID != models.TeamBYE {
			continue
		}
		winner := m.Team1ID
		m.WinnerID = &winner
		m.Status = models.StatusCompleted
		if levels > 1 {
			placeTeam(&rounds[1][i/2], *m.WinnerToSlot, winner)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]models.Match, 0, size-1)
	for _, r := range rounds {
		out = append(out, r...)
	}
	return out, nil
}

// GenerateKnockout is a shorthand for the single-elimination generator.
func GenerateKnockout(ctx context.Context, params GenerateParams) ([]models.Match, error) {
	return NewSingleEliminationGenerator().Generate(ctx, params)
}

func compareSeeds(a, b models.Team) int {
	switch {
	case a.Seed == nil && b.Seed == nil:
		return 0
	case a.Seed == nil:
		return 1
	case b.Seed == nil:
		return -1
	}
	return *a.Seed - *b.Seed
}

// seedPositions lists 1-based seeds in bracket order so that seed 1 meets the last seed,
// and the top two seeds can only meet in the final.
func seedPositions(size int) []int {
	pos := []int{1}
	for len(pos) < size {
		n := len(pos) * 2
		next := make([]int, 0, n)
		for _, s := range pos {
			next = append(next, s, n+1-s)
		}
		pos = next
	}
	return pos
}

func seedTeam(ordered []models.Team, seed int) string {
	if seed > len(ordered) {
		return models.TeamBYE
	}
	return ordered[seed-1].ID
}

func placeTeam(m *models.Match, slot int, teamID string) {
	if slot == 1 {
		m.Team1ID = teamID
		return
	}
	m.Team2ID = teamID
}
