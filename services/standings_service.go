package services

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/club-scoring/brackets"
	"github.com/Dosada05/club-scoring/models"
	"github.com/Dosada05/club-scoring/repositories"
	"github.com/Dosada05/club-scoring/scoring"
)

type StandingsService interface {
	GetGroupStandings(ctx context.Context, groupID string) ([]models.Standing, error)
	// RecomputeGroup rebuilds the table from completed matches and stores it when it changed.
	RecomputeGroup(ctx context.Context, groupID string) ([]models.Standing, error)
	RecomputeGroups(ctx context.Context, groupIDs []string) (map[string][]models.Standing, error)
}

type StandingsConfig struct {
	Points        models.PointsSystem
	DefaultRating float64
	// Concurrency bounds RecomputeGroups. Zero means 4.
	Concurrency int
}

type StandingsServiceDeps struct {
	Tx        repositories.TxManager
	Matches   repositories.MatchRepository
	Teams     repositories.TeamRepository
	Deltas    repositories.RatingDeltaRepository
	Standings repositories.StandingRepository
	Notifier  Notifier
	// Snapshots is optional.
	Snapshots SnapshotPublisher
}

type standingsService struct {
	tx           repositories.TxManager
	matchRepo    repositories.MatchRepository
	teamRepo     repositories.TeamRepository
	deltaRepo    repositories.RatingDeltaRepository
	standingRepo repositories.StandingRepository
	notifier     Notifier
	snapshots    SnapshotPublisher
	cfg          StandingsConfig
	logger       *slog.Logger
}

func NewStandingsService(deps StandingsServiceDeps, cfg StandingsConfig, logger *slog.Logger) StandingsService {
	if cfg.DefaultRating == 0 {
		cfg.DefaultRating = scoring.DefaultPlayerRating
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &standingsService{
		tx:           deps.Tx,
		matchRepo:    deps.Matches,
		teamRepo:     deps.Teams,
		deltaRepo:    deps.Deltas,
		standingRepo: deps.Standings,
		notifier:     notifier,
		snapshots:    deps.Snapshots,
		cfg:          cfg,
		logger:       logger.With(slog.String("component", "standings_service")),
	}
}

// GetGroupStandings computes the table on read so it can never lag behind a result.
func (s *standingsService) GetGroupStandings(ctx context.Context, groupID string) ([]models.Standing, error) {
	return s.RecomputeGroup(ctx, groupID)
}

// RecomputeGroup folds the completed matches of a group into a table and stores it when it
// changed. Reads and the write happen under the group lock, so the last writer always
// stores a table computed from the latest committed results.
func (s *standingsService) RecomputeGroup(ctx context.Context, groupID string) ([]models.Standing, error) {
	completed := models.StatusCompleted
	var (
		matches []models.Match
		teams   []models.Team
		table   []models.Standing
		changed bool
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context, exec repositories.SQLExecutor) error {
		if err := s.standingRepo.LockGroup(ctx, exec, groupID); err != nil {
			return err
		}

		var err error
		if matches, err = s.matchRepo.ListByGroup(ctx, exec, groupID, &completed); err != nil {
			return wrapf(err, "failed to list matches of group %s", groupID)
		}
		if teams, err = s.teamRepo.ListByGroup(ctx, exec, groupID); err != nil {
			return wrapf(err, "failed to list teams of group %s", groupID)
		}
		if len(matches) == 0 && len(teams) == 0 {
			return ErrNotFound
		}

		matchIDs := make([]string, 0, len(matches))
		for _, m := range matches {
			matchIDs = append(matchIDs, m.ID)
		}
		deltas, err := s.deltaRepo.ListByMatches(ctx, exec, matchIDs)
		if err != nil {
			return wrapf(err, "failed to list rating deltas of group %s", groupID)
		}

		table = scoring.ComputeStandings(scoring.StandingsParams{
			GroupID:       groupID,
			Matches:       matches,
			Deltas:        deltas,
			Teams:         teams,
			Points:        s.cfg.Points,
			DefaultRating: s.cfg.DefaultRating,
		})

		stored, err := s.standingRepo.ListByGroup(ctx, exec, groupID)
		if err != nil {
			return wrapf(err, "failed to read standings of group %s", groupID)
		}
		if sameTable(stored, table) {
			return nil
		}
		changed = true
		return wrapf(s.standingRepo.ReplaceForGroup(ctx, exec, groupID, table), "failed to store standings of group %s", groupID)
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return table, nil
	}

	s.logger.Info("standings updated", slog.String("group_id", groupID), slog.Int("teams", len(table)))
	if tournamentID := tournamentOf(matches, teams); tournamentID != "" {
		s.notifier.Publish(tournamentID, brackets.EventStandingsUpdated, map[string]interface{}{
			"groupId":   groupID,
			"standings": table,
		})
	}
	if s.snapshots != nil {
		if err := s.snapshots.PublishStandings(ctx, groupID, table); err != nil {
			s.logger.Warn("failed to publish standings snapshot", slog.String("group_id", groupID), slog.Any("error", err))
		}
	}
	return table, nil
}

// RecomputeGroups refreshes several groups concurrently. The first failure cancels the rest.
func (s *standingsService) RecomputeGroups(ctx context.Context, groupIDs []string) (map[string][]models.Standing, error) {
	var mu sync.Mutex
	out := make(map[string][]models.Standing, len(groupIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, id := range groupIDs {
		id := id
		g.Go(func() error {
			table, err := s.RecomputeGroup(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			out[id] = table
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// sameTable compares two tables ignoring their timestamps.
func sameTable(a, b []models.Standing) bool {
	return slices.EqualFunc(a, b, func(x, y models.Standing) bool {
		x.UpdatedAt, y.UpdatedAt = time.Time{}, time.Time{}
		return x == y
	})
}

func tournamentOf(matches []models.Match, teams []models.Team) string {
	for _, m := range matches {
		if m.TournamentID != "" {
			return m.TournamentID
		}
	}
	for _, t := range teams {
		if t.TournamentID != "" {
			return t.TournamentID
		}
	}
	return ""
}
