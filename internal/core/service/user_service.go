package service

import (
	"context"
	"fmt"

	"github.com/rcastell/homestock/internal/core/domain"
	"github.com/rcastell/homestock/internal/port"
)

type UserService struct {
	profiles port.ProfileRepository
}

func NewUserService(profiles port.ProfileRepository) *UserService {
	return &UserService{profiles: profiles}
}

func (s *UserService) Create(ctx context.Context, p domain.Profile) error {
	if p.Email == "" || p.FullName == "" || p.DateOfBirth == "" {
		return ErrMissingFields
	}
	if err := s.profiles.CreateProfile(ctx, p); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *UserService) Get(ctx context.Context, email string) (domain.Profile, error) {
	p, err := s.profiles.FindProfile(ctx, email)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("find profile: %w", err)
	}
	if p == nil {
		return domain.Profile{}, ErrUserNotFound
	}
	return *p, nil
}

func (s *UserService) Update(ctx context.Context, p domain.Profile) error {
	if p.FullName == "" || p.DateOfBirth == "" {
		return ErrMissingFields
	}

	existing, err := s.profiles.FindProfile(ctx, p.Email)
	if err != nil {
		return fmt.Errorf("find profile: %w", err)
	}
	if existing == nil {
		return ErrUserNotFound
	}

	if err := s.profiles.ReplaceProfile(ctx, p); err != nil {
		return fmt.Errorf("replace profile: %w", err)
	}
	return nil
}
