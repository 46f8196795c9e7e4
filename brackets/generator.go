package brackets

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/club-scoring/models"
)

var (
	ErrNotEnoughTeams = errors.New("not enough teams to generate matches")
	ErrTooManyTeams   = errors.New("too many teams for a knockout bracket")
	ErrDuplicateTeam  = errors.New("team listed more than once")
)

type GenerateParams struct {
	TournamentID string
	// GroupID is set for group-stage generation only.
	GroupID string
	Format  models.MatchFormat
	Teams   []models.Team
	// Legs is 1 or 2 for round robin; ignored by the knockout generator.
	Legs int

	NewID func() string
	Now   func() time.Time
}

func (p GenerateParams) newID() string {
	if p.NewID != nil {
		return p.NewID()
	}
	return uuid.NewString()
}

func (p GenerateParams) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p GenerateParams) format() models.MatchFormat {
	if p.Format.Valid() {
		return p.Format
	}
	return models.FormatBestOfThree
}

func (p GenerateParams) newMatch(team1, team2 string) models.Match {
	now := p.now()
	return models.Match{
		ID:           p.newID(),
		TournamentID: p.TournamentID,
		Team1ID:      team1,
		Team2ID:      team2,
		Format:       p.format(),
		Sets:         models.Sets{},
		Status:       models.StatusScheduled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

type MatchGenerator interface {
	Generate(ctx context.Context, params GenerateParams) ([]models.Match, error)

	Name() string
}

func checkTeams(teams []models.Team, min int) error {
	if len(teams) < min {
		return ErrNotEnoughTeams
	}
	seen := make(map[string]struct{}, len(teams))
	for _, t := range teams {
		if models.IsPlaceholderTeam(t.ID) {
			return errors.New("team id is empty or reserved")
		}
		if _, ok := seen[t.ID]; ok {
			return ErrDuplicateTeam
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}
