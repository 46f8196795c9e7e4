package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/club-scoring/brackets"
	"github.com/Dosada05/club-scoring/models"
	"github.com/Dosada05/club-scoring/repositories"
	"github.com/Dosada05/club-scoring/scoring"
)

type MatchService interface {
	GetMatch(ctx context.Context, matchID string) (*models.Match, error)
	StartMatch(ctx context.Context, matchID string) (*models.Match, error)
	CompleteMatch(ctx context.Context, matchID string, sets []models.Set) (*MatchResult, error)
	RevertMatch(ctx context.Context, matchID string) (*models.Match, error)
	UpdateLiveScore(ctx context.Context, matchID string, sets []models.Set) (*models.Match, error)
	SubmitProvisional(ctx context.Context, matchID string, sets []models.Set, submittedBy string) (*models.Match, error)
	ConfirmProvisional(ctx context.Context, matchID string) (*MatchResult, error)
	RejectProvisional(ctx context.Context, matchID string) (*models.Match, error)
}

// MatchResult is returned by the operations that complete a match.
type MatchResult struct {
	Match      *models.Match         `json:"match"`
	Resolution scoring.Resolution    `json:"resolution"`
	Rating     *scoring.RatingResult `json:"rating,omitempty"`
}

type MatchServiceConfig struct {
	StrictSetRules bool
	// DefaultRating stands in for players without a rating. Zero means scoring.DefaultPlayerRating.
	DefaultRating float64
	// RatingMultiplier scales every award. Zero means 1.
	RatingMultiplier float64
}

type MatchServiceDeps struct {
	Tx        repositories.TxManager
	Matches   repositories.MatchRepository
	Teams     repositories.TeamRepository
	Deltas    repositories.RatingDeltaRepository
	Standings StandingsService
	// Brackets is optional; when set, knockout results refresh the published bracket.
	Brackets BracketService
	Notifier Notifier
}

type matchService struct {
	tx        repositories.TxManager
	matchRepo repositories.MatchRepository
	teamRepo  repositories.TeamRepository
	deltaRepo repositories.RatingDeltaRepository
	standings StandingsService
	brackets  BracketService
	notifier  Notifier
	lifecycle *scoring.Lifecycle
	cfg       MatchServiceConfig
	logger    *slog.Logger
}

func NewMatchService(deps MatchServiceDeps, cfg MatchServiceConfig, logger *slog.Logger) MatchService {
	if cfg.DefaultRating == 0 {
		cfg.DefaultRating = scoring.DefaultPlayerRating
	}
	if cfg.RatingMultiplier == 0 {
		cfg.RatingMultiplier = 1
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &matchService{
		tx:        deps.Tx,
		matchRepo: deps.Matches,
		teamRepo:  deps.Teams,
		deltaRepo: deps.Deltas,
		standings: deps.Standings,
		brackets:  deps.Brackets,
		notifier:  notifier,
		lifecycle: scoring.NewLifecycle(cfg.StrictSetRules),
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "match_service")),
	}
}

func (s *matchService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return m, nil
}

func (s *matchService) StartMatch(ctx context.Context, matchID string) (*models.Match, error) {
	m, err := s.transition(ctx, matchID, func(_ context.Context, _ repositories.SQLExecutor, current models.Match) (models.Match, error) {
		return s.lifecycle.Start(current)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("match started", slog.String("match_id", m.ID))
	s.afterWrite(ctx, m, false)
	return m, nil
}

func (s *matchService) CompleteMatch(ctx context.Context, matchID string, sets []models.Set) (*MatchResult, error) {
	return s.complete(ctx, matchID, func(current models.Match) (models.Match, scoring.Resolution, error) {
		return s.lifecycle.Complete(current, sets)
	})
}

func (s *matchService) ConfirmProvisional(ctx context.Context, matchID string) (*MatchResult, error) {
	return s.complete(ctx, matchID, s.lifecycle.ConfirmProvisional)
}

func (s *matchService) SubmitProvisional(ctx context.Context, matchID string, sets []models.Set, submittedBy string) (*models.Match, error) {
	m, err := s.transition(ctx, matchID, func(_ context.Context, _ repositories.SQLExecutor, current models.Match) (models.Match, error) {
		return s.lifecycle.SubmitProvisional(current, sets, submittedBy)
	})
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, m, false)
	return m, nil
}

func (s *matchService) RejectProvisional(ctx context.Context, matchID string) (*models.Match, error) {
	m, err := s.transition(ctx, matchID, func(_ context.Context, _ repositories.SQLExecutor, current models.Match) (models.Match, error) {
		return s.lifecycle.RejectProvisional(current)
	})
	if err != nil {
		return nil, err
	}
	s.afterWrite(ctx, m, false)
	return m, nil
}

func (s *matchService) RevertMatch(ctx context.Context, matchID string) (*models.Match, error) {
	cleared := false
	m, err := s.transition(ctx, matchID, func(ctx context.Context, exec repositories.SQLExecutor, current models.Match) (models.Match, error) {
		next, wasCompleted, err := s.lifecycle.Revert(current)
		if err != nil || !wasCompleted {
			return next, err
		}
		if err := s.retractWinner(ctx, exec, current); err != nil {
			return current, err
		}
		if err := s.deltaRepo.DeleteByMatch(ctx, exec, current.ID); err != nil {
			return current, fmt.Errorf("failed to delete rating delta of match %s: %w", current.ID, err)
		}
		cleared = true
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("match reverted", slog.String("match_id", m.ID), slog.Bool("result_cleared", cleared))
	s.afterWrite(ctx, m, cleared)
	return m, nil
}

// UpdateLiveScore overwrites the in-progress score without validation or locking.
func (s *matchService) UpdateLiveScore(ctx context.Context, matchID string, sets []models.Set) (*models.Match, error) {
	current, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	next, err := s.lifecycle.UpdateLiveScore(*current, sets)
	if err != nil {
		return nil, err
	}
	if err := s.matchRepo.UpdateLiveScore(ctx, nil, matchID, next.LiveScore); err != nil {
		if errors.Is(err, repositories.ErrMatchNotInProgress) {
			return nil, &scoring.InvalidTransitionError{
				From:   current.Status,
				Action: "update live score of",
				Reason: "match is no longer in progress",
			}
		}
		return nil, mapRepoError(err)
	}

	s.notifier.Publish(next.TournamentID, brackets.EventLiveScore, map[string]interface{}{
		"matchId":   next.ID,
		"liveScore": next.LiveScore,
	})
	return &next, nil
}

type transitionFunc func(ctx context.Context, exec repositories.SQLExecutor, current models.Match) (models.Match, error)

// transition locks the match row, applies fn and persists the result in one transaction.
func (s *matchService) transition(ctx context.Context, matchID string, fn transitionFunc) (*models.Match, error) {
	var out models.Match
	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		current, err := s.matchRepo.GetForUpdate(ctx, exec, matchID)
		if err != nil {
			return mapRepoError(err)
		}
		next, err := fn(ctx, exec, *current)
		if err != nil {
			return err
		}
		if err := s.matchRepo.Update(ctx, exec, &next); err != nil {
			return fmt.Errorf("failed to save match %s: %w", matchID, mapRepoError(err))
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *matchService) complete(ctx context.Context, matchID string, fn func(models.Match) (models.Match, scoring.Resolution, error)) (*MatchResult, error) {
	result := &MatchResult{}
	m, err := s.transition(ctx, matchID, func(ctx context.Context, exec repositories.SQLExecutor, current models.Match) (models.Match, error) {
		next, res, err := fn(current)
		result.Resolution = res
		if err != nil {
			return current, err
		}
		rating, err := s.recordRating(ctx, exec, next, res)
		if err != nil {
			return current, err
		}
		result.Rating = rating
		if err := s.advanceWinner(ctx, exec, next); err != nil {
			return current, err
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	result.Match = m

	s.logger.Info("match completed",
		slog.String("match_id", m.ID),
		slog.String("winner_id", m.Winner()),
		slog.Int("rating_points", result.Rating.Points),
	)
	s.afterWrite(ctx, m, true)
	return result, nil
}

func (s *matchService) recordRating(ctx context.Context, exec repositories.SQLExecutor, m models.Match, res scoring.Resolution) (*scoring.RatingResult, error) {
	teams, err := s.teamRepo.GetByIDs(ctx, exec, []string{m.Team1ID, m.Team2ID})
	if err != nil {
		return nil, fmt.Errorf("failed to load teams of match %s: %w", m.ID, err)
	}
	teamA, teamB := teams[m.Team1ID], teams[m.Team2ID]

	in := scoring.RatingInput{
		RatingA1: playerRating(teamA, 0),
		RatingA2: playerRating(teamA, 1),
		RatingB1: playerRating(teamB, 0),
		RatingB2: playerRating(teamB, 1),
		GamesA:   res.Games.Team1,
		GamesB:   res.Games.Team2,
		Winner:   res.Winner,
	}
	rating := scoring.CalcRatingDelta(in, s.cfg.DefaultRating).ApplyMultiplier(s.cfg.RatingMultiplier, res.Winner)
	for _, fb := range rating.Fallbacks {
		s.logger.Warn("player rating missing, using default",
			slog.String("match_id", m.ID),
			slog.String("slot", fb.Slot),
			slog.Float64("rating", fb.Rating),
		)
	}

	delta := &models.RatingDelta{
		MatchID:    m.ID,
		TeamAID:    m.Team1ID,
		TeamBID:    m.Team2ID,
		DeltaA:     rating.DeltaA,
		DeltaB:     rating.DeltaB,
		Multiplier: rating.Multiplier,
	}
	if err := s.deltaRepo.Upsert(ctx, exec, delta); err != nil {
		return nil, fmt.Errorf("failed to store rating delta of match %s: %w", m.ID, err)
	}
	return &rating, nil
}

func playerRating(t *models.Team, i int) *float64 {
	if t == nil || i >= len(t.Players) {
		return nil
	}
	return t.Players[i].Rating
}

// advanceWinner writes the winner of a knockout match into its slot of the next match.
func (s *matchService) advanceWinner(ctx context.Context, exec repositories.SQLExecutor, m models.Match) error {
	if !m.IsKnockout() || m.NextMatchID == nil || m.WinnerToSlot == nil {
		return nil
	}
	next, err := s.lockNext(ctx, exec, m)
	if err != nil {
		return err
	}
	if err := s.matchRepo.AssignSlot(ctx, exec, next.ID, *m.WinnerToSlot, m.Winner()); err != nil {
		return fmt.Errorf("failed to advance winner of match %s: %w", m.ID, mapRepoError(err))
	}
	return nil
}

// retractWinner puts TBD back into the next match's slot when it still holds the reverted winner.
func (s *matchService) retractWinner(ctx context.Context, exec repositories.SQLExecutor, m models.Match) error {
	if !m.IsKnockout() || m.NextMatchID == nil || m.WinnerToSlot == nil {
		return nil
	}
	next, err := s.lockNext(ctx, exec, m)
	if err != nil {
		return err
	}
	slotTeam := next.Team1ID
	if *m.WinnerToSlot == 2 {
		slotTeam = next.Team2ID
	}
	if slotTeam != m.Winner() {
		return nil
	}
	if err := s.matchRepo.AssignSlot(ctx, exec, next.ID, *m.WinnerToSlot, models.TeamTBD); err != nil {
		return fmt.Errorf("failed to clear slot of match %s: %w", next.ID, mapRepoError(err))
	}
	return nil
}

// lockNext locks the following knockout match and refuses to touch it once it is under way.
func (s *matchService) lockNext(ctx context.Context, exec repositories.SQLExecutor, m models.Match) (*models.Match, error) {
	next, err := s.matchRepo.GetForUpdate(ctx, exec, *m.NextMatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load next match %s: %w", *m.NextMatchID, mapRepoError(err))
	}
	if next.Status != models.StatusScheduled {
		return nil, &scoring.InvalidTransitionError{
			From:   m.Status,
			Action: "change the result of",
			Reason: fmt.Sprintf("next match %s is already %s", next.ID, next.Status),
		}
	}
	return next, nil
}

// afterWrite runs once the transaction has committed. Failures here are logged only; the
// match itself is already stored.
func (s *matchService) afterWrite(ctx context.Context, m *models.Match, resultChanged bool) {
	s.notifier.Publish(m.TournamentID, brackets.EventMatchUpdated, m)
	if !resultChanged {
		return
	}

	if m.GroupID != nil && s.standings != nil {
		if _, err := s.standings.RecomputeGroup(ctx, *m.GroupID); err != nil {
			s.logger.Error("failed to recompute standings",
				slog.String("group_id", *m.GroupID),
				slog.String("match_id", m.ID),
				slog.Any("error", err),
			)
		}
	}
	if m.IsKnockout() && s.brackets != nil {
		if _, err := s.brackets.RefreshBracket(ctx, m.TournamentID); err != nil {
			s.logger.Error("failed to refresh bracket",
				slog.String("tournament_id", m.TournamentID),
				slog.String("match_id", m.ID),
				slog.Any("error", err),
			)
		}
	}
}
