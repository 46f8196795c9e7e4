package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Dosada05/club-scoring/models"
)

// StandingRepository caches computed group tables. Rows carry no state of their own and
// are always replaced wholesale from a fresh computation.
type StandingRepository interface {
	// LockGroup serializes writers of one group until the surrounding transaction ends.
	// It must be called with a transaction executor.
	LockGroup(ctx context.Context, exec SQLExecutor, groupID string) error
	ReplaceForGroup(ctx context.Context, exec SQLExecutor, groupID string, standings []models.Standing) error
	ListByGroup(ctx context.Context, exec SQLExecutor, groupID string) ([]models.Standing, error)
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) LockGroup(ctx context.Context, exec SQLExecutor, groupID string) error {
	if exec == nil {
		return fmt.Errorf("LockGroup for group %s: %w", groupID, ErrTxRequired)
	}
	if _, err := exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "standings:"+groupID); err != nil {
		return fmt.Errorf("LockGroup failed for group %s: %w", groupID, err)
	}
	return nil
}

// ReplaceForGroup upserts every row of the table and drops teams that left the group.
func (r *postgresStandingRepository) ReplaceForGroup(ctx context.Context, exec SQLExecutor, groupID string, standings []models.Standing) error {
	ex := executor(r.db, exec)

	teamIDs := make([]string, 0, len(standings))
	for _, s := range standings {
		teamIDs = append(teamIDs, s.TeamID)
	}
	if _, err := ex.ExecContext(ctx,
		`DELETE FROM standings WHERE group_id = $1 AND NOT (team_id = ANY($2))`,
		groupID, pq.Array(teamIDs),
	); err != nil {
		return fmt.Errorf("ReplaceForGroup failed to clear group %s: %w", groupID, err)
	}

	query := `
		INSERT INTO standings
			(group_id, team_id, matches_played, matches_won, matches_drawn, matches_lost,
			 games_won, games_lost, games_difference, points, rating_points, average_rating, position, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (group_id, team_id) DO UPDATE SET
			matches_played = EXCLUDED.matches_played,
			matches_won = EXCLUDED.matches_won,
			matches_drawn = EXCLUDED.matches_drawn,
			matches_lost = EXCLUDED.matches_lost,
			games_won = EXCLUDED.games_won,
			games_lost = EXCLUDED.games_lost,
			games_difference = EXCLUDED.games_difference,
			points = EXCLUDED.points,
			rating_points = EXCLUDED.rating_points,
			average_rating = EXCLUDED.average_rating,
			position = EXCLUDED.position,
			updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	for i := range standings {
		s := &standings[i]
		if s.UpdatedAt.IsZero() {
			s.UpdatedAt = now
		}
		_, err := ex.ExecContext(ctx, query,
			groupID, s.TeamID, s.MatchesPlayed, s.MatchesWon, s.MatchesDrawn, s.MatchesLost,
			s.GamesWon, s.GamesLost, s.GamesDifference, s.Points, s.RatingPoints, s.AverageRating,
			s.Position, s.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("ReplaceForGroup failed for team %s: %w", s.TeamID, err)
		}
	}
	return nil
}

func (r *postgresStandingRepository) ListByGroup(ctx context.Context, exec SQLExecutor, groupID string) ([]models.Standing, error) {
	query := `
		SELECT group_id, team_id, matches_played, matches_won, matches_drawn, matches_lost,
		       games_won, games_lost, games_difference, points, rating_points, average_rating, position, updated_at
		FROM standings
		WHERE group_id = $1
		ORDER BY position ASC`
	rows, err := executor(r.db, exec).QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]models.Standing, 0)
	for rows.Next() {
		var s models.Standing
		if err := rows.Scan(
			&s.GroupID, &s.TeamID, &s.MatchesPlayed, &s.MatchesWon, &s.MatchesDrawn, &s.MatchesLost,
			&s.GamesWon, &s.GamesLost, &s.GamesDifference, &s.Points, &s.RatingPoints, &s.AverageRating,
			&s.Position, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		standings = append(standings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return standings, nil
}
