package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/upfrom/backend/internal/domain"
)

type teamService struct {
	teamRepo       domain.TeamRepository
	teamUserRepo   domain.TeamUserRepository
	userRepo       domain.UserRepository
	contextTimeout time.Duration
}

func NewTeamService(teamRepo domain.TeamRepository,
	teamUserRepo domain.TeamUserRepository,
	userRepo domain.UserRepository,
	timeout time.Duration,
) domain.TeamService {
	return &teamService{
		teamRepo:       teamRepo,
		teamUserRepo:   teamUserRepo,
		userRepo:       userRepo,
		contextTimeout: timeout,
	}
}

func (s *teamService) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get team: %w", err)
	}
	return team, nil
}

func (s *teamService) ListByOrganizationID(ctx context.Context, organizationID string) ([]*domain.Team, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.teamRepo.ListByOrganizationID(ctx, organizationID)
}

func (s *teamService) AddMember(ctx context.Context, teamID, userID, role string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if role != domain.TeamRoleMember && role != domain.TeamRoleMentor {
		return fmt.Errorf("unknown role %q: %w", role, domain.ErrInvalidInput)
	}
	if _, err := s.teamRepo.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get team: %w", err)
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("get user: %w", err)
	}
	if err := s.teamUserRepo.Add(ctx, teamID, userID, role); err != nil {
		return fmt.Errorf("add team member: %w", err)
	}
	return nil
}

func (s *teamService) RemoveMember(ctx context.Context, teamID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.teamUserRepo.Remove(ctx, teamID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("remove team member: %w", err)
	}
	return nil
}
