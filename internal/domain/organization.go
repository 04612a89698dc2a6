package domain

import (
	"context"
	"time"
)

// Organization is the top-level tenant. Teams belong to exactly one organization.
// swagger:model Organization
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewOrganization returns a new Organization. ID is typically set by the repository on create.
func NewOrganization(name, details string, createdAt, updatedAt time.Time) *Organization {
	return &Organization{
		Name:      name,
		Details:   details,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// OrganizationRepository defines the interface for organization storage
type OrganizationRepository interface {
	Create(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id string) (*Organization, error)
	List(ctx context.Context) ([]*Organization, error)
}

// OrganizationService defines admin-facing organization operations.
type OrganizationService interface {
	Create(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id string) (*Organization, error)
	List(ctx context.Context) ([]*Organization, error)
}
