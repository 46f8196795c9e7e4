package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/Dosada05/club-scoring/models"
)

var ErrRatingDeltaNotFound = errors.New("rating delta not found")

type RatingDeltaRepository interface {
	// Upsert stores the delta of a match, replacing a previous one.
	Upsert(ctx context.Context, exec SQLExecutor, delta *models.RatingDelta) error
	GetByMatch(ctx context.Context, exec SQLExecutor, matchID string) (*models.RatingDelta, error)
	DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID string) error
	ListByMatches(ctx context.Context, exec SQLExecutor, matchIDs []string) ([]models.RatingDelta, error)
}

type postgresRatingDeltaRepository struct {
	db *sql.DB
}

func NewPostgresRatingDeltaRepository(db *sql.DB) RatingDeltaRepository {
	return &postgresRatingDeltaRepository{db: db}
}

func (r *postgresRatingDeltaRepository) Upsert(ctx context.Context, exec SQLExecutor, delta *models.RatingDelta) error {
	query := `
		INSERT INTO rating_deltas (match_id, team_a_id, team_b_id, delta_a, delta_b, multiplier, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (match_id) DO UPDATE SET
			team_a_id = EXCLUDED.team_a_id, team_b_id = EXCLUDED.team_b_id,
			delta_a = EXCLUDED.delta_a, delta_b = EXCLUDED.delta_b,
			multiplier = EXCLUDED.multiplier, created_at = EXCLUDED.created_at`

	if delta.CreatedAt.IsZero() {
		delta.CreatedAt = time.Now().UTC()
	}
	_, err := executor(r.db, exec).ExecContext(ctx, query,
		delta.MatchID, delta.TeamAID, delta.TeamBID, delta.DeltaA, delta.DeltaB, delta.Multiplier, delta.CreatedAt,
	)
	return err
}

func (r *postgresRatingDeltaRepository) GetByMatch(ctx context.Context, exec SQLExecutor, matchID string) (*models.RatingDelta, error) {
	query := `
		SELECT match_id, team_a_id, team_b_id, delta_a, delta_b, multiplier, created_at
		FROM rating_deltas WHERE match_id = $1`
	d, err := scanRatingDelta(executor(r.db, exec).QueryRowContext(ctx, query, matchID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRatingDeltaNotFound
	}
	return d, err
}

// DeleteByMatch is a no-op when the match has no stored delta.
func (r *postgresRatingDeltaRepository) DeleteByMatch(ctx context.Context, exec SQLExecutor, matchID string) error {
	_, err := executor(r.db, exec).ExecContext(ctx, `DELETE FROM rating_deltas WHERE match_id = $1`, matchID)
	return err
}

func (r *postgresRatingDeltaRepository) ListByMatches(ctx context.Context, exec SQLExecutor, matchIDs []string) ([]models.RatingDelta, error) {
	deltas := make([]models.RatingDelta, 0, len(matchIDs))
	if len(matchIDs) == 0 {
		return deltas, nil
	}
	query := `
		SELECT match_id, team_a_id, team_b_id, delta_a, delta_b, multiplier, created_at
		FROM rating_deltas WHERE match_id = ANY($1)
		ORDER BY match_id`
	rows, err := executor(r.db, exec).QueryContext(ctx, query, pq.Array(matchIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		d, scanErr := scanRatingDelta(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		deltas = append(deltas, *d)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return deltas, nil
}

func scanRatingDelta(row rowScanner) (*models.RatingDelta, error) {
	var d models.RatingDelta
	if err := row.Scan(&d.MatchID, &d.TeamAID, &d.TeamBID, &d.DeltaA, &d.DeltaB, &d.Multiplier, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}
