package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/club-scoring/models"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() MatchGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) Name() string {
	return "RoundRobin"
}

// Generate creates the group-stage matches. Every team meets every other team once per leg.
// Matches are ordered by match day using the circle method, so no team plays twice in a day.
func (g *RoundRobinGenerator) Generate(ctx context.Context, params GenerateParams) ([]models.Match, error) {
	if params.GroupID == "" {
		return nil, fmt.Errorf("RoundRobinGenerator: group id is required")
	}
	if err := checkTeams(params.Teams, 2); err != nil {
		return nil, fmt.Errorf("RoundRobinGenerator: %w", err)
	}
	legs := params.Legs
	if legs != 2 {
		legs = 1
	}

	ids := make([]string, 0, len(params.Teams)+1)
	for _, t := range params.Teams {
		ids = append(ids, t.ID)
	}
	if len(ids)%2 == 1 {
		ids = append(ids, "") // rest slot
	}

	var pairs [][2]string
	n := len(ids)
	for day := 0; day < n-1; day++ {
		for i := 0; i < n/2; i++ {
			a, b := ids[i], ids[n-1-i]
			if a == "" || b == "" {
				continue
			}
			if i == 0 && day%2 == 1 {
				a, b = b, a
			}
			pairs = append(pairs, [2]string{a, b})
		}
		// rotate everything but the first slot
		last := ids[n-1]
		copy(ids[2:], ids[1:n-1])
		ids[1] = last
	}

	matches := make([]models.Match, 0, len(pairs)*legs)
	order := 0
	for leg := 1; leg <= legs; leg++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, p := range pairs {
			order++
			a, b := p[0], p[1]
			if leg == 2 {
				a, b = b, a
			}
			m := params.newMatch(a, b)
			group := params.GroupID
			m.GroupID = &group
			m.OrderInRound = order
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// GenerateGroupMatches is a shorthand for the round-robin generator.
func GenerateGroupMatches(ctx context.Context, params GenerateParams) ([]models.Match, error) {
	return NewRoundRobinGenerator().Generate(ctx, params)
}
