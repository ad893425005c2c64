package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/maroonxv/travel-sharing/internal/domain"
)

// ExportTrip returns the flat itinerary export of a trip the actor may see.
// Always returns a non-nil slice.
func (s *TravelService) ExportTrip(ctx context.Context, actor string, id uuid.UUID) ([]domain.ExportRow, error) {
	trip, err := s.GetTrip(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	rows := trip.ExportRows()
	if rows == nil {
		rows = []domain.ExportRow{}
	}
	return rows, nil
}
