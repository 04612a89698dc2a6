package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/upfrom/backend/internal/domain"
)

type teamRepository struct {
	DB *sql.DB
}

func NewTeamRepository(db *sql.DB) domain.TeamRepository {
	return &teamRepository{
		DB: db,
	}
}

const teamColumns = `id, organization_id, name, description, image_url, is_disabled, created_at, updated_at`

func scanTeam(row eventScanner) (*domain.Team, error) {
	t := &domain.Team{}
	var imageNull sql.NullString
	err := row.Scan(
		&t.ID, &t.OrganizationID, &t.Name, &t.Description,
		&imageNull, &t.IsDisabled, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if imageNull.Valid {
		t.ImageURL = &imageNull.String
	}
	return t, nil
}

func (r *teamRepository) Create(ctx context.Context, t *domain.Team) error {
	query := `
		INSERT INTO teams (organization_id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, t.OrganizationID, t.Name, t.Description, t.CreatedAt, t.UpdatedAt).Scan(&t.ID)
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	t, err := scanTeam(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *teamRepository) ListByOrganizationID(ctx context.Context, organizationID string) ([]*domain.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE organization_id = $1 ORDER BY name`
	return r.list(ctx, query, organizationID)
}

func (r *teamRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Team, error) {
	query := `
		SELECT t.id, t.organization_id, t.name, t.description, t.image_url, t.is_disabled, t.created_at, t.updated_at
		FROM teams t
		JOIN team_users tu ON tu.team_id = t.id
		WHERE tu.user_id = $1
		ORDER BY t.name
	`
	return r.list(ctx, query, userID)
}

func (r *teamRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Team, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	teams := make([]*domain.Team, 0)
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
