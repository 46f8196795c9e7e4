package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/Dosada05/club-scoring/models"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchNotInProgress = errors.New("match is not in progress")
	ErrMatchConflict      = errors.New("match already exists")
	ErrMatchLinkInvalid   = errors.New("match links to an unknown match")
	ErrInvalidSlot        = errors.New("knockout slot must be 1 or 2")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	BatchCreate(ctx context.Context, exec SQLExecutor, matches []models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Match, error)
	// GetForUpdate locks the row until the surrounding transaction ends. exec must be a transaction.
	GetForUpdate(ctx context.Context, exec SQLExecutor, id string) (*models.Match, error)
	ListByGroup(ctx context.Context, exec SQLExecutor, groupID string, status *models.MatchStatus) ([]models.Match, error)
	// ListByTournament returns the knockout matches of a tournament.
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.Match, error)
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	UpdateLiveScore(ctx context.Context, exec SQLExecutor, id string, live *models.LiveScore) error
	AssignSlot(ctx context.Context, exec SQLExecutor, matchID string, slot int, teamID string) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, tournament_id, team1_id, team2_id, format, sets, score_team1, score_team2,
	winner_id, status, group_id, round, order_in_round, next_match_id, winner_to_slot,
	live_score, pending_confirmation, created_at, updated_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches (` + matchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	now := time.Now().UTC()
	if match.CreatedAt.IsZero() {
		match.CreatedAt = now
	}
	if match.UpdatedAt.IsZero() {
		match.UpdatedAt = now
	}
	_, err := executor(r.db, exec).ExecContext(ctx, query, matchArgs(match)...)
	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) BatchCreate(ctx context.Context, exec SQLExecutor, matches []models.Match) error {
	for i := range matches {
		if err := r.Create(ctx, exec, &matches[i]); err != nil {
			return fmt.Errorf("BatchCreate failed for match %s: %w", matches[i].ID, err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(executor(r.db, exec).QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetForUpdate(ctx context.Context, exec SQLExecutor, id string) (*models.Match, error) {
	if exec == nil {
		return nil, errors.New("GetForUpdate requires a transaction")
	}
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`
	return r.scanMatch(exec.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByGroup(ctx context.Context, exec SQLExecutor, groupID string, status *models.MatchStatus) ([]models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE group_id = $1`)
	args := []interface{}{groupID}
	if status != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(len(args) + 1))
		args = append(args, *status)
	}
	queryBuilder.WriteString(" ORDER BY order_in_round ASC, id ASC")
	return r.list(ctx, exec, queryBuilder.String(), args...)
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1 AND round IS NOT NULL
		ORDER BY order_in_round ASC, id ASC`
	return r.list(ctx, exec, query, tournamentID)
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches SET
			team1_id = $2, team2_id = $3, sets = $4, score_team1 = $5, score_team2 = $6,
			winner_id = $7, status = $8, live_score = $9, pending_confirmation = $10, updated_at = $11
		WHERE id = $1`

	if match.UpdatedAt.IsZero() {
		match.UpdatedAt = time.Now().UTC()
	}
	result, err := executor(r.db, exec).ExecContext(ctx, query,
		match.ID, match.Team1ID, match.Team2ID, match.Sets, match.Score.Team1, match.Score.Team2,
		match.WinnerID, match.Status, match.LiveScore, match.PendingConfirmation, match.UpdatedAt,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// UpdateLiveScore overwrites the live score. Last write wins; no row lock is taken.
func (r *postgresMatchRepository) UpdateLiveScore(ctx context.Context, exec SQLExecutor, id string, live *models.LiveScore) error {
	query := `UPDATE matches SET live_score = $2, updated_at = $3 WHERE id = $1 AND status = $4`
	result, err := executor(r.db, exec).ExecContext(ctx, query, id, live, time.Now().UTC(), models.StatusInProgress)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotInProgress)
}

func (r *postgresMatchRepository) AssignSlot(ctx context.Context, exec SQLExecutor, matchID string, slot int, teamID string) error {
	var query string
	switch slot {
	case 1:
		query = `UPDATE matches SET team1_id = $2, updated_at = $3 WHERE id = $1`
	case 2:
		query = `UPDATE matches SET team2_id = $2, updated_at = $3 WHERE id = $1`
	default:
		return ErrInvalidSlot
	}
	result, err := executor(r.db, exec).ExecContext(ctx, query, matchID, teamID, time.Now().UTC())
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Match, error) {
	rows, err := executor(r.db, exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		m, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, *m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) scanMatch(row rowScanner) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.Team1ID, &m.Team2ID, &m.Format, &m.Sets,
		&m.Score.Team1, &m.Score.Team2, &m.WinnerID, &m.Status, &m.GroupID, &m.Round,
		&m.OrderInRound, &m.NextMatchID, &m.WinnerToSlot, &m.LiveScore, &m.PendingConfirmation,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if m.Sets == nil {
		m.Sets = models.Sets{}
	}
	return &m, nil
}

func matchArgs(m *models.Match) []interface{} {
	return []interface{}{
		m.ID, m.TournamentID, m.Team1ID, m.Team2ID, m.Format, m.Sets, m.Score.Team1, m.Score.Team2,
		m.WinnerID, m.Status, m.GroupID, m.Round, m.OrderInRound, m.NextMatchID, m.WinnerToSlot,
		m.LiveScore, m.PendingConfirmation, m.CreatedAt, m.UpdatedAt,
	}
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return ErrMatchConflict
		case "23503": // foreign_key_violation
			return ErrMatchLinkInvalid
		}
	}
	return err
}
