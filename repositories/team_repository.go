package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/Dosada05/club-scoring/models"
)

var ErrTeamNotFound = errors.New("team not found")

type TeamRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Team, error)
	// GetByIDs returns the known teams keyed by id. Unknown ids are absent from the map.
	GetByIDs(ctx context.Context, exec SQLExecutor, ids []string) (map[string]*models.Team, error)
	ListByGroup(ctx context.Context, exec SQLExecutor, groupID string) ([]models.Team, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.Team, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamColumns = `id, tournament_id, name, seed, group_id, created_at`

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id string) (*models.Team, error) {
	teams, err := r.GetByIDs(ctx, exec, []string{id})
	if err != nil {
		return nil, err
	}
	t, ok := teams[id]
	if !ok {
		return nil, ErrTeamNotFound
	}
	return t, nil
}

func (r *postgresTeamRepository) GetByIDs(ctx context.Context, exec SQLExecutor, ids []string) (map[string]*models.Team, error) {
	out := make(map[string]*models.Team, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = ANY($1)`
	teams, err := r.list(ctx, exec, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	for i := range teams {
		out[teams[i].ID] = &teams[i]
	}
	return out, nil
}

func (r *postgresTeamRepository) ListByGroup(ctx context.Context, exec SQLExecutor, groupID string) ([]models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE group_id = $1 ORDER BY seed ASC NULLS LAST, id ASC`
	return r.list(ctx, exec, query, groupID)
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) ([]models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE tournament_id = $1 ORDER BY seed ASC NULLS LAST, id ASC`
	return r.list(ctx, exec, query, tournamentID)
}

func (r *postgresTeamRepository) list(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Team, error) {
	ex := executor(r.db, exec)
	rows, err := ex.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	index := make(map[string]int)
	for rows.Next() {
		var t models.Team
		if scanErr := rows.Scan(&t.ID, &t.TournamentID, &t.Name, &t.Seed, &t.GroupID, &t.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		index[t.ID] = len(teams)
		teams = append(teams, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return teams, nil
	}

	ids := make([]string, 0, len(teams))
	for _, t := range teams {
		ids = append(ids, t.ID)
	}
	if err := r.loadPlayers(ctx, ex, teams, index, ids); err != nil {
		return nil, err
	}
	return teams, nil
}

// loadPlayers fills Players in roster slot order.
func (r *postgresTeamRepository) loadPlayers(ctx context.Context, ex SQLExecutor, teams []models.Team, index map[string]int, ids []string) error {
	query := `
		SELECT tp.team_id, p.id, p.name, p.rating
		FROM team_players tp
		JOIN players p ON p.id = tp.player_id
		WHERE tp.team_id = ANY($1)
		ORDER BY tp.team_id, tp.slot`
	rows, err := ex.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var teamID string
		var p models.Player
		if err := rows.Scan(&teamID, &p.ID, &p.Name, &p.Rating); err != nil {
			return err
		}
		if i, ok := index[teamID]; ok {
			teams[i].Players = append(teams[i].Players, p)
		}
	}
	return rows.Err()
}
