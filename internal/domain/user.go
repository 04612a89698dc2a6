package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already in use")
)

// User represents a registered member of the platform
// swagger:model User
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Phone      *string   `json:"phone"`
	AvatarURL  *string   `json:"avatar_url"`
	IsDisabled bool      `json:"is_disabled"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewUser returns a new User with the given fields. ID is typically set by the repository on create.
func NewUser(email, firstName, lastName string, createdAt, updatedAt time.Time) *User {
	return &User{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// NotificationPreferences controls which notification categories a user
// receives. The notification worker consults these before sending; the domain
// layer publishes regardless and leaves filtering downstream.
// swagger:model NotificationPreferences
type NotificationPreferences struct {
	UserID           string `json:"user_id"`
	NewEvents        bool   `json:"new_events"`
	EventUpdates     bool   `json:"event_updates"`
	GuestListChanges bool   `json:"guest_list_changes"`
	ChatMessages     bool   `json:"chat_messages"`
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, roles []string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
	// GetCredentials returns the stored password hash and salt for the admin
	// login flow. Returns ErrUserNotFound if the user has no credential.
	GetCredentials(ctx context.Context, email string) (userID, hash, salt string, err error)
	GetPreferences(ctx context.Context, userID string) (*NotificationPreferences, error)
	ListPreferences(ctx context.Context, userIDs []string) ([]*NotificationPreferences, error)
	SetPreferences(ctx context.Context, prefs *NotificationPreferences) error
}

// UserService defines the business logic for user profiles.
type UserService interface {
	GetByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, user *User) error
	SetPreferences(ctx context.Context, prefs *NotificationPreferences) error
	GetPreferences(ctx context.Context, userID string) (*NotificationPreferences, error)
}

// AuthService handles admin sign-in and token issuance.
type AuthService interface {
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
}
