package domain

import (
	"context"
	"time"
)

// Team member roles.
const (
	TeamRoleMember = "member"
	TeamRoleMentor = "mentor"
)

// Team groups users within an organization. Events may be scoped to a team;
// an event with no team is visible to all teams ("all teams" event).
// swagger:model Team
type Team struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	ImageURL       *string   `json:"image_url"`
	IsDisabled     bool      `json:"is_disabled"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewTeam returns a new Team. ID is typically set by the repository on create.
func NewTeam(organizationID, name, description string, createdAt, updatedAt time.Time) *Team {
	return &Team{
		OrganizationID: organizationID,
		Name:           name,
		Description:    description,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
}

// TeamUser is the membership edge between a team and a user, carrying the
// member's role within the team.
// swagger:model TeamUser
type TeamUser struct {
	TeamID    string    `json:"team_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamRepository defines the interface for team storage
type TeamRepository interface {
	Create(ctx context.Context, team *Team) error
	GetByID(ctx context.Context, id string) (*Team, error)
	ListByOrganizationID(ctx context.Context, organizationID string) ([]*Team, error)
	ListByUserID(ctx context.Context, userID string) ([]*Team, error)
}

// TeamUserRepository defines storage operations for team membership edges.
type TeamUserRepository interface {
	Add(ctx context.Context, teamID, userID, role string) error
	Remove(ctx context.Context, teamID, userID string) error
	ListUserIDsByTeamID(ctx context.Context, teamID string) ([]string, error)
	ListUserIDsByOrganizationID(ctx context.Context, organizationID string) ([]string, error)
}

// TeamService defines team membership operations consumed by the admin surface
// and by attendance rollups.
type TeamService interface {
	GetByID(ctx context.Context, id string) (*Team, error)
	ListByOrganizationID(ctx context.Context, organizationID string) ([]*Team, error)
	AddMember(ctx context.Context, teamID, userID, role string) error
	RemoveMember(ctx context.Context, teamID, userID string) error
}
