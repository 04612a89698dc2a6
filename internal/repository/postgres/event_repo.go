package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/upfrom/backend/internal/domain"
)

const eventColumns = `id, title, description, starts_at, ends_at, address, location_lat, location_lng, team_id, owner_id, is_cancelled, image_url, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type eventScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row eventScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var latNull, lngNull sql.NullFloat64
	var teamNull, imageNull sql.NullString
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.StartsAt, &e.EndsAt, &e.Address,
		&latNull, &lngNull, &teamNull, &e.OwnerID, &e.IsCancelled, &imageNull,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if latNull.Valid {
		e.LocationLat = &latNull.Float64
	}
	if lngNull.Valid {
		e.LocationLng = &lngNull.Float64
	}
	if teamNull.Valid {
		e.TeamID = &teamNull.String
	}
	if imageNull.Valid {
		e.ImageURL = &imageNull.String
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, description, starts_at, ends_at, address, location_lat, location_lng, team_id, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.Title, e.Description, e.StartsAt, e.EndsAt, e.Address,
		e.LocationLat, e.LocationLng, e.TeamID, e.OwnerID, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE id = $1`, eventColumns)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Update(ctx context.Context, eventID string, upd domain.EventUpdate) (*domain.Event, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	n := 1
	if upd.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", n))
		args = append(args, *upd.Title)
		n++
	}
	if upd.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", n))
		args = append(args, *upd.Description)
		n++
	}
	if upd.StartsAt != nil {
		setClauses = append(setClauses, fmt.Sprintf("starts_at = $%d", n))
		args = append(args, *upd.StartsAt)
		n++
	}
	if upd.EndsAt != nil {
		setClauses = append(setClauses, fmt.Sprintf("ends_at = $%d", n))
		args = append(args, *upd.EndsAt)
		n++
	}
	if upd.Address != nil {
		setClauses = append(setClauses, fmt.Sprintf("address = $%d", n))
		args = append(args, *upd.Address)
		n++
	}
	if upd.LocationLat != nil {
		setClauses = append(setClauses, fmt.Sprintf("location_lat = $%d", n))
		args = append(args, *upd.LocationLat)
		n++
	}
	if upd.LocationLng != nil {
		setClauses = append(setClauses, fmt.Sprintf("location_lng = $%d", n))
		args = append(args, *upd.LocationLng)
		n++
	}
	if upd.OwnerID != nil {
		setClauses = append(setClauses, fmt.Sprintf("owner_id = $%d", n))
		args = append(args, *upd.OwnerID)
		n++
	}
	if n == 1 {
		// No fields to update; just fetch the current row.
		return r.GetByID(ctx, eventID)
	}
	args = append(args, eventID)
	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE id = $%d
		RETURNING %s
	`, strings.Join(setClauses, ", "), n, eventColumns)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) SetCancelled(ctx context.Context, eventID string, cancelled bool) (*domain.Event, error) {
	query := fmt.Sprintf(`
		UPDATE events SET is_cancelled = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING %s
	`, eventColumns)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, cancelled, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) SetImageURL(ctx context.Context, eventID string, imageURL *string) (*domain.Event, error) {
	query := fmt.Sprintf(`
		UPDATE events SET image_url = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING %s
	`, eventColumns)
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, imageURL, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE owner_id = $1 ORDER BY starts_at DESC`, eventColumns)
	return r.list(ctx, query, ownerID)
}

func (r *eventRepository) ListByTeamID(ctx context.Context, teamID string) ([]*domain.Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE team_id = $1 ORDER BY starts_at DESC`, eventColumns)
	return r.list(ctx, query, teamID)
}

func (r *eventRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) ListIDsBetween(ctx context.Context, from, to *time.Time) ([]string, error) {
	conds := []string{}
	args := []interface{}{}
	n := 1
	if from != nil {
		conds = append(conds, fmt.Sprintf("ends_at >= $%d", n))
		args = append(args, *from)
		n++
	}
	if to != nil {
		conds = append(conds, fmt.Sprintf("starts_at <= $%d", n))
		args = append(args, *to)
		n++
	}
	query := `SELECT id FROM events`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
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
