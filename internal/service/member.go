package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/maroonxv/travel-sharing/internal/domain"
)

// AddMember adds userID to the trip. Admins only.
func (s *TravelService) AddMember(ctx context.Context, actor string, tripID uuid.UUID, userID, role, nickname string) (*domain.Trip, error) {
	r, err := domain.ParseMemberRole(role)
	if err != nil {
		return nil, err
	}
	return s.mutateAsAdmin(ctx, "AddMember", actor, tripID, func(t *domain.Trip) error {
		return t.AddMember(userID, r, actor, nickname)
	})
}

// RemoveMember removes userID from the trip. The aggregate enforces that the
// actor is an admin and that the creator stays.
func (s *TravelService) RemoveMember(ctx context.Context, actor string, tripID uuid.UUID, userID, reason string) (*domain.Trip, error) {
	trip, err := s.load(ctx, "RemoveMember", tripID)
	if err != nil {
		return nil, err
	}
	if err := trip.RemoveMember(userID, actor, reason); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, "RemoveMember", trip); err != nil {
		return nil, err
	}
	return trip, nil
}

// ChangeMemberRole promotes or demotes a member.
func (s *TravelService) ChangeMemberRole(ctx context.Context, actor string, tripID uuid.UUID, userID, role string) (*domain.Trip, error) {
	r, err := domain.ParseMemberRole(role)
	if err != nil {
		return nil, err
	}
	trip, err := s.load(ctx, "ChangeMemberRole", tripID)
	if err != nil {
		return nil, err
	}
	if err := trip.ChangeMemberRole(userID, r, actor); err != nil {
		return nil, err
	}
	if err := s.commit(ctx, "ChangeMemberRole", trip); err != nil {
		return nil, err
	}
	return trip, nil
}
