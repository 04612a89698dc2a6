package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/upfrom/backend/internal/domain"
)

type organizationService struct {
	orgRepo        domain.OrganizationRepository
	contextTimeout time.Duration
}

func NewOrganizationService(orgRepo domain.OrganizationRepository, timeout time.Duration) domain.OrganizationService {
	return &organizationService{
		orgRepo:        orgRepo,
		contextTimeout: timeout,
	}
}

func (s *organizationService) Create(ctx context.Context, org *domain.Organization) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	org.Name = strings.TrimSpace(org.Name)
	if org.Name == "" {
		return fmt.Errorf("organization name is required: %w", domain.ErrInvalidInput)
	}
	now := time.Now()
	org.CreatedAt = now
	org.UpdatedAt = now
	if err := s.orgRepo.Create(ctx, org); err != nil {
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}

func (s *organizationService) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	org, err := s.orgRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}
	return org, nil
}

func (s *organizationService) List(ctx context.Context) ([]*domain.Organization, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.orgRepo.List(ctx)
}
