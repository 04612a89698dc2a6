package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/upfrom/backend/internal/domain"
)

type eventUserRepository struct {
	DB *sql.DB
}

func NewEventUserRepository(db *sql.DB) domain.EventUserRepository {
	return &eventUserRepository{
		DB: db,
	}
}

func (r *eventUserRepository) Create(ctx context.Context, eu *domain.EventUser) error {
	query := `
		INSERT INTO event_users (event_id, user_id, is_attending, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.DB.ExecContext(ctx, query, eu.EventID, eu.UserID, attendingArg(eu.IsAttending), eu.CreatedAt, eu.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrAlreadyInvited
		}
		return err
	}
	return nil
}

func (r *eventUserRepository) Get(ctx context.Context, eventID, userID string) (*domain.EventUser, error) {
	query := `
		SELECT event_id, user_id, is_attending, created_at, updated_at
		FROM event_users
		WHERE event_id = $1 AND user_id = $2
	`
	eu := &domain.EventUser{}
	var attending sql.NullBool
	err := r.DB.QueryRowContext(ctx, query, eventID, userID).Scan(
		&eu.EventID, &eu.UserID, &attending, &eu.CreatedAt, &eu.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if attending.Valid {
		eu.IsAttending = &attending.Bool
	}
	return eu, nil
}

func (r *eventUserRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.EventUser, error) {
	query := `
		SELECT event_id, user_id, is_attending, created_at, updated_at
		FROM event_users
		WHERE event_id = $1
		ORDER BY created_at
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	guests := make([]*domain.EventUser, 0)
	for rows.Next() {
		eu := &domain.EventUser{}
		var attending sql.NullBool
		if err := rows.Scan(&eu.EventID, &eu.UserID, &attending, &eu.CreatedAt, &eu.UpdatedAt); err != nil {
			return nil, err
		}
		if attending.Valid {
			eu.IsAttending = &attending.Bool
		}
		guests = append(guests, eu)
	}
	return guests, rows.Err()
}

func (r *eventUserRepository) ListUserIDsByEventID(ctx context.Context, eventID string) ([]string, error) {
	query := `SELECT user_id FROM event_users WHERE event_id = $1 ORDER BY created_at`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
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

func (r *eventUserRepository) UpdateAttendance(ctx context.Context, eventID, userID string, isAttending *bool) (*domain.EventUser, error) {
	query := `
		UPDATE event_users SET is_attending = $1, updated_at = NOW()
		WHERE event_id = $2 AND user_id = $3
		RETURNING event_id, user_id, is_attending, created_at, updated_at
	`
	eu := &domain.EventUser{}
	var attending sql.NullBool
	err := r.DB.QueryRowContext(ctx, query, attendingArg(isAttending), eventID, userID).Scan(
		&eu.EventID, &eu.UserID, &attending, &eu.CreatedAt, &eu.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if attending.Valid {
		eu.IsAttending = &attending.Bool
	}
	return eu, nil
}

func (r *eventUserRepository) Delete(ctx context.Context, eventID, userID string) error {
	query := `DELETE FROM event_users WHERE event_id = $1 AND user_id = $2`
	result, err := r.DB.ExecContext(ctx, query, eventID, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SyncGuests applies the remove and add sets in one transaction so a reader
// sees either the old or the new guest list, never an intermediate one.
func (r *eventUserRepository) SyncGuests(ctx context.Context, eventID string, addUserIDs, removeUserIDs []string) error {
	if len(addUserIDs) == 0 && len(removeUserIDs) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if len(removeUserIDs) > 0 {
		query := `DELETE FROM event_users WHERE event_id = $1 AND user_id = ANY($2)`
		if _, err := tx.ExecContext(ctx, query, eventID, pq.Array(removeUserIDs)); err != nil {
			return fmt.Errorf("remove guests: %w", err)
		}
	}
	if len(addUserIDs) > 0 {
		query := `
			INSERT INTO event_users (event_id, user_id, is_attending, created_at, updated_at)
			SELECT $1, unnest($2::text[]), NULL, NOW(), NOW()
		`
		if _, err := tx.ExecContext(ctx, query, eventID, pq.Array(addUserIDs)); err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return domain.ErrAlreadyInvited
			}
			return fmt.Errorf("add guests: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *eventUserRepository) CountAttendance(ctx context.Context, filter domain.AttendanceFilter) ([]*domain.UserAttendance, error) {
	conds := []string{}
	args := []interface{}{}
	n := 1
	if filter.UserIDs != nil {
		conds = append(conds, fmt.Sprintf("user_id = ANY($%d)", n))
		args = append(args, pq.Array(filter.UserIDs))
		n++
	}
	if filter.EventIDs != nil {
		conds = append(conds, fmt.Sprintf("event_id = ANY($%d)", n))
		args = append(args, pq.Array(filter.EventIDs))
		n++
	}
	query := `
		SELECT user_id,
			COUNT(*) FILTER (WHERE is_attending IS TRUE) AS accepted,
			COUNT(*) FILTER (WHERE is_attending IS FALSE) AS declined,
			COUNT(*) FILTER (WHERE is_attending IS NULL) AS pending,
			COUNT(*) AS total
		FROM event_users
	`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` GROUP BY user_id ORDER BY user_id`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.UserAttendance, 0)
	for rows.Next() {
		ua := &domain.UserAttendance{}
		if err := rows.Scan(&ua.UserID, &ua.Accepted, &ua.Declined, &ua.Pending, &ua.Total); err != nil {
			return nil, err
		}
		out = append(out, ua)
	}
	return out, rows.Err()
}

// attendingArg converts the tri-state into a driver-friendly nullable bool.
func attendingArg(isAttending *bool) sql.NullBool {
	if isAttending == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *isAttending, Valid: true}
}
