package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/club-scoring/brackets"
	"github.com/Dosada05/club-scoring/models"
	"github.com/Dosada05/club-scoring/repositories"
)

// Bracket is the knockout view of a tournament.
type Bracket struct {
	TournamentID string                  `json:"tournamentId"`
	Rounds       []brackets.RoundMatches `json:"rounds"`
	ChampionID   *string                 `json:"championId"`
}

type GenerateGroupInput struct {
	TournamentID string             `json:"-"`
	GroupID      string             `json:"-"`
	Format       models.MatchFormat `json:"format"`
	// Legs is 1 (default) or 2.
	Legs int `json:"legs"`
}

type GenerateKnockoutInput struct {
	TournamentID string             `json:"-"`
	Format       models.MatchFormat `json:"format"`
	// TeamIDs, when given, lists the qualified teams in seeding order. Otherwise every team
	// of the tournament enters with its stored seed.
	TeamIDs []string `json:"teamIds"`
}

type BracketService interface {
	GetBracket(ctx context.Context, tournamentID string) (*Bracket, error)
	// RefreshBracket rebuilds the bracket and pushes it to subscribers and the snapshot store.
	RefreshBracket(ctx context.Context, tournamentID string) (*Bracket, error)
	GenerateGroupMatches(ctx context.Context, input GenerateGroupInput) ([]models.Match, error)
	GenerateKnockout(ctx context.Context, input GenerateKnockoutInput) ([]models.Match, error)
}

type BracketServiceDeps struct {
	Tx        repositories.TxManager
	Matches   repositories.MatchRepository
	Teams     repositories.TeamRepository
	Standings StandingsService
	Notifier  Notifier
	Snapshots SnapshotPublisher
	// NewID overrides match id generation; nil uses random UUIDs.
	NewID func() string
}

type bracketService struct {
	tx        repositories.TxManager
	matchRepo repositories.MatchRepository
	teamRepo  repositories.TeamRepository
	standings StandingsService
	notifier  Notifier
	snapshots SnapshotPublisher
	newID     func() string
	logger    *slog.Logger
}

func NewBracketService(deps BracketServiceDeps, logger *slog.Logger) BracketService {
	notifier := deps.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &bracketService{
		tx:        deps.Tx,
		matchRepo: deps.Matches,
		teamRepo:  deps.Teams,
		standings: deps.Standings,
		notifier:  notifier,
		snapshots: deps.Snapshots,
		newID:     deps.NewID,
		logger:    logger.With(slog.String("component", "bracket_service")),
	}
}

func (s *bracketService) GetBracket(ctx context.Context, tournamentID string) (*Bracket, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, wrapf(err, "failed to list knockout matches of tournament %s", tournamentID)
	}
	if len(matches) == 0 {
		return nil, ErrNotFound
	}

	bracket := &Bracket{
		TournamentID: tournamentID,
		Rounds:       brackets.GroupByRound(matches),
	}
	if champion, ok := brackets.ChampionOf(matches); ok {
		bracket.ChampionID = &champion
	}
	return bracket, nil
}

func (s *bracketService) RefreshBracket(ctx context.Context, tournamentID string) (*Bracket, error) {
	bracket, err := s.GetBracket(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	s.notifier.Publish(tournamentID, brackets.EventBracketUpdated, bracket)
	if s.snapshots != nil {
		if err := s.snapshots.PublishBracket(ctx, tournamentID, bracket); err != nil {
			s.logger.Warn("failed to publish bracket snapshot", slog.String("tournament_id", tournamentID), slog.Any("error", err))
		}
	}
	return bracket, nil
}

func (s *bracketService) GenerateGroupMatches(ctx context.Context, input GenerateGroupInput) ([]models.Match, error) {
	if input.GroupID == "" || input.TournamentID == "" {
		return nil, fmt.Errorf("%w: tournament and group are required", ErrValidationFailed)
	}
	if input.Format != "" && !input.Format.Valid() {
		return nil, fmt.Errorf("%w: unknown match format %q", ErrValidationFailed, input.Format)
	}
	if input.Legs < 0 || input.Legs > 2 {
		return nil, fmt.Errorf("%w: legs must be 1 or 2", ErrValidationFailed)
	}

	var (
		existing []models.Match
		teams    []models.Team
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		existing, err = s.matchRepo.ListByGroup(gctx, nil, input.GroupID, nil)
		return wrapf(err, "failed to list matches of group %s", input.GroupID)
	})
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.ListByGroup(gctx, nil, input.GroupID)
		return wrapf(err, "failed to list teams of group %s", input.GroupID)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: group %s", ErrAlreadyGenerated, input.GroupID)
	}
	if err := checkTournament(teams, input.TournamentID); err != nil {
		return nil, err
	}

	matches, err := brackets.GenerateGroupMatches(ctx, brackets.GenerateParams{
		TournamentID: input.TournamentID,
		GroupID:      input.GroupID,
		Format:       input.Format,
		Teams:        teams,
		Legs:         input.Legs,
		NewID:        s.newID,
	})
	if err != nil {
		return nil, generationError(err)
	}
	if err := s.store(ctx, matches); err != nil {
		return nil, err
	}

	s.logger.Info("group matches generated",
		slog.String("tournament_id", input.TournamentID),
		slog.String("group_id", input.GroupID),
		slog.Int("matches", len(matches)),
	)
	s.notifier.Publish(input.TournamentID, brackets.EventMatchesCreated, matches)
	if s.standings != nil {
		if _, err := s.standings.RecomputeGroup(ctx, input.GroupID); err != nil {
			s.logger.Error("failed to seed standings", slog.String("group_id", input.GroupID), slog.Any("error", err))
		}
	}
	return matches, nil
}

func (s *bracketService) GenerateKnockout(ctx context.Context, input GenerateKnockoutInput) ([]models.Match, error) {
	if input.TournamentID == "" {
		return nil, fmt.Errorf("%w: tournament is required", ErrValidationFailed)
	}
	if input.Format != "" && !input.Format.Valid() {
		return nil, fmt.Errorf("%w: unknown match format %q", ErrValidationFailed, input.Format)
	}

	var (
		existing []models.Match
		teams    []models.Team
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		existing, err = s.matchRepo.ListByTournament(gctx, nil, input.TournamentID)
		return wrapf(err, "failed to list knockout matches of tournament %s", input.TournamentID)
	})
	g.Go(func() error {
		var err error
		teams, err = s.knockoutTeams(gctx, input)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: tournament %s already has a bracket", ErrAlreadyGenerated, input.TournamentID)
	}
	if err := checkTournament(teams, input.TournamentID); err != nil {
		return nil, err
	}

	matches, err := brackets.GenerateKnockout(ctx, brackets.GenerateParams{
		TournamentID: input.TournamentID,
		Format:       input.Format,
		Teams:        teams,
		NewID:        s.newID,
	})
	if err != nil {
		return nil, generationError(err)
	}
	if err := s.store(ctx, matches); err != nil {
		return nil, err
	}

	s.logger.Info("knockout bracket generated",
		slog.String("tournament_id", input.TournamentID),
		slog.Int("teams", len(teams)),
		slog.Int("matches", len(matches)),
	)
	if _, err := s.RefreshBracket(ctx, input.TournamentID); err != nil {
		s.logger.Error("failed to publish new bracket", slog.String("tournament_id", input.TournamentID), slog.Any("error", err))
	}
	return matches, nil
}

// knockoutTeams resolves the entrants. An explicit list overrides stored seeds with its order.
func (s *bracketService) knockoutTeams(ctx context.Context, input GenerateKnockoutInput) ([]models.Team, error) {
	if len(input.TeamIDs) == 0 {
		teams, err := s.teamRepo.ListByTournament(ctx, nil, input.TournamentID)
		return teams, wrapf(err, "failed to list teams of tournament %s", input.TournamentID)
	}

	byID, err := s.teamRepo.GetByIDs(ctx, nil, input.TeamIDs)
	if err != nil {
		return nil, wrapf(err, "failed to load knockout teams")
	}
	teams := make([]models.Team, 0, len(input.TeamIDs))
	for i, id := range input.TeamIDs {
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, id)
		}
		team := *t
		seed := i + 1
		team.Seed = &seed
		teams = append(teams, team)
	}
	return teams, nil
}

func (s *bracketService) store(ctx context.Context, matches []models.Match) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		return s.matchRepo.BatchCreate(ctx, exec, matches)
	})
	if errors.Is(err, repositories.ErrMatchConflict) {
		return fmt.Errorf("%w: %w", ErrAlreadyGenerated, err)
	}
	return wrapf(err, "failed to store generated matches")
}

func checkTournament(teams []models.Team, tournamentID string) error {
	for _, t := range teams {
		if t.TournamentID != "" && t.TournamentID != tournamentID {
			return fmt.Errorf("%w: team %s belongs to another tournament", ErrValidationFailed, t.ID)
		}
	}
	return nil
}

func generationError(err error) error {
	switch {
	case errors.Is(err, brackets.ErrNotEnoughTeams),
		errors.Is(err, brackets.ErrTooManyTeams),
		errors.Is(err, brackets.ErrDuplicateTeam):
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	return err
}
