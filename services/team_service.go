package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/club-scoring/models"
	"github.com/Dosada05/club-scoring/repositories"
	"github.com/Dosada05/club-scoring/scoring"
)

// TeamSummary is a team as the engine sees it: its players plus the average
// rating used for standings tie-breaks, with unrated players counted at the default.
type TeamSummary struct {
	Team          *models.Team `json:"team"`
	AverageRating float64      `json:"averageRating"`
	UnratedCount  int          `json:"unratedCount"`
}

type TeamService interface {
	GetTeam(ctx context.Context, teamID string) (*TeamSummary, error)
	ListTournamentTeams(ctx context.Context, tournamentID string) ([]TeamSummary, error)
}

type teamService struct {
	teamRepo      repositories.TeamRepository
	defaultRating float64
	logger        *slog.Logger
}

func NewTeamService(teamRepo repositories.TeamRepository, defaultRating float64, logger *slog.Logger) TeamService {
	if defaultRating == 0 {
		defaultRating = scoring.DefaultPlayerRating
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &teamService{
		teamRepo:      teamRepo,
		defaultRating: defaultRating,
		logger:        logger.With(slog.String("service", "team")),
	}
}

func (s *teamService) GetTeam(ctx context.Context, teamID string) (*TeamSummary, error) {
	if strings.TrimSpace(teamID) == "" {
		return nil, fmt.Errorf("%w: team id is required", ErrValidationFailed)
	}
	team, err := s.teamRepo.GetByID(ctx, nil, teamID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	summary := s.summarize(team)
	return &summary, nil
}

func (s *teamService) ListTournamentTeams(ctx context.Context, tournamentID string) ([]TeamSummary, error) {
	if strings.TrimSpace(tournamentID) == "" {
		return nil, fmt.Errorf("%w: tournament id is required", ErrValidationFailed)
	}
	teams, err := s.teamRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list teams", slog.String("tournament_id", tournamentID), slog.Any("error", err))
		return nil, wrapf(err, "list teams of tournament %s", tournamentID)
	}

	out := make([]TeamSummary, 0, len(teams))
	for i := range teams {
		out = append(out, s.summarize(&teams[i]))
	}
	return out, nil
}

func (s *teamService) summarize(team *models.Team) TeamSummary {
	unrated := 0
	for i := 0; i < 2; i++ {
		if _, ok := team.PlayerRating(i, s.defaultRating); !ok {
			unrated++
		}
	}
	return TeamSummary{
		Team:          team,
		AverageRating: team.AverageRating(s.defaultRating),
		UnratedCount:  unrated,
	}
}
