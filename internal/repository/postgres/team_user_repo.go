package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/upfrom/backend/internal/domain"
)

type teamUserRepository struct {
	DB *sql.DB
}

func NewTeamUserRepository(db *sql.DB) domain.TeamUserRepository {
	return &teamUserRepository{
		DB: db,
	}
}

func (r *teamUserRepository) Add(ctx context.Context, teamID, userID, role string) error {
	query := `
		INSERT INTO team_users (team_id, user_id, role, created_at)
		VALUES ($1, $2, $3, NOW())
	`
	_, err := r.DB.ExecContext(ctx, query, teamID, userID, role)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (r *teamUserRepository) Remove(ctx context.Context, teamID, userID string) error {
	query := `DELETE FROM team_users WHERE team_id = $1 AND user_id = $2`
	result, err := r.DB.ExecContext(ctx, query, teamID, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *teamUserRepository) ListUserIDsByTeamID(ctx context.Context, teamID string) ([]string, error) {
	query := `SELECT user_id FROM team_users WHERE team_id = $1 ORDER BY user_id`
	return r.listIDs(ctx, query, teamID)
}

func (r *teamUserRepository) ListUserIDsByOrganizationID(ctx context.Context, organizationID string) ([]string, error) {
	query := `
		SELECT DISTINCT tu.user_id
		FROM team_users tu
		JOIN teams t ON t.id = tu.team_id
		WHERE t.organization_id = $1
		ORDER BY tu.user_id
	`
	return r.listIDs(ctx, query, organizationID)
}

func (r *teamUserRepository) listIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

