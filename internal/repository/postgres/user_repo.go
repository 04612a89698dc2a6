package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/upfrom/backend/internal/domain"
)

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{
		DB: db,
	}
}

const userColumns = `id, email, first_name, last_name, phone, avatar_url, is_disabled, created_at, updated_at`

func scanUser(row eventScanner) (*domain.User, error) {
	u := &domain.User{}
	var phoneNull, avatarNull sql.NullString
	err := row.Scan(
		&u.ID, &u.Email, &u.FirstName, &u.LastName,
		&phoneNull, &avatarNull, &u.IsDisabled, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if phoneNull.Valid {
		u.Phone = &phoneNull.String
	}
	if avatarNull.Valid {
		u.AvatarURL = &avatarNull.String
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (email, first_name, last_name, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, u.Email, u.FirstName, u.LastName, u.Phone, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users SET email = $1, first_name = $2, last_name = $3, phone = $4, avatar_url = $5, is_disabled = $6, updated_at = NOW()
		WHERE id = $7
	`
	result, err := r.DB.ExecContext(ctx, query, u.Email, u.FirstName, u.LastName, u.Phone, u.AvatarURL, u.IsDisabled, u.ID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) GetCredentials(ctx context.Context, email string) (string, string, string, error) {
	query := `
		SELECT u.id, c.password_hash, c.password_salt
		FROM users u
		JOIN admin_credentials c ON c.user_id = u.id
		WHERE u.email = $1
	`
	var userID, hash, salt string
	err := r.DB.QueryRowContext(ctx, query, email).Scan(&userID, &hash, &salt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", "", domain.ErrUserNotFound
		}
		return "", "", "", err
	}
	return userID, hash, salt, nil
}

func (r *userRepository) GetPreferences(ctx context.Context, userID string) (*domain.NotificationPreferences, error) {
	query := `
		SELECT user_id, new_events, event_updates, guest_list_changes, chat_messages
		FROM notification_preferences
		WHERE user_id = $1
	`
	p := &domain.NotificationPreferences{}
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.NewEvents, &p.EventUpdates, &p.GuestListChanges, &p.ChatMessages,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Every category defaults to on until the user opts out.
			return &domain.NotificationPreferences{
				UserID:           userID,
				NewEvents:        true,
				EventUpdates:     true,
				GuestListChanges: true,
				ChatMessages:     true,
			}, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *userRepository) ListPreferences(ctx context.Context, userIDs []string) ([]*domain.NotificationPreferences, error) {
	query := `
		SELECT user_id, new_events, event_updates, guest_list_changes, chat_messages
		FROM notification_preferences
		WHERE user_id = ANY($1)
	`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byID := make(map[string]*domain.NotificationPreferences, len(userIDs))
	for rows.Next() {
		p := &domain.NotificationPreferences{}
		if err := rows.Scan(&p.UserID, &p.NewEvents, &p.EventUpdates, &p.GuestListChanges, &p.ChatMessages); err != nil {
			return nil, err
		}
		byID[p.UserID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]*domain.NotificationPreferences, 0, len(userIDs))
	for _, id := range userIDs {
		if p, ok := byID[id]; ok {
			out = append(out, p)
			continue
		}
		out = append(out, &domain.NotificationPreferences{
			UserID:           id,
			NewEvents:        true,
			EventUpdates:     true,
			GuestListChanges: true,
			ChatMessages:     true,
		})
	}
	return out, nil
}

func (r *userRepository) SetPreferences(ctx context.Context, p *domain.NotificationPreferences) error {
	query := `
		INSERT INTO notification_preferences (user_id, new_events, event_updates, guest_list_changes, chat_messages)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			new_events = EXCLUDED.new_events,
			event_updates = EXCLUDED.event_updates,
			guest_list_changes = EXCLUDED.guest_list_changes,
			chat_messages = EXCLUDED.chat_messages
	`
	_, err := r.DB.ExecContext(ctx, query, p.UserID, p.NewEvents, p.EventUpdates, p.GuestListChanges, p.ChatMessages)
	return err
}
