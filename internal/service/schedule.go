package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/planificate/backend/internal/domain"
	"github.com/planificate/backend/internal/repo"
	"github.com/planificate/backend/internal/timeline"
)

// ScheduleService builds the day-by-day schedule view of a trip.
type ScheduleService struct {
	repos repo.Repos
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(repos repo.Repos) *ScheduleService {
	return &ScheduleService{repos: repos}
}

// AssembleSchedule loads the trip's POIs and items and assembles the view.
// Returns domain.ErrNotFound if the trip does not exist.
func (s *ScheduleService) AssembleSchedule(ctx context.Context, tripID uuid.UUID) (domain.ScheduleView, error) {
	if _, err := s.repos.Trips.GetByID(ctx, tripID); err != nil {
		return domain.ScheduleView{}, fmt.Errorf("service.ScheduleService.AssembleSchedule: %w", err)
	}
	pois, err := s.repos.POIs.ListByTripID(ctx, tripID)
	if err != nil {
		return domain.ScheduleView{}, fmt.Errorf("service.ScheduleService.AssembleSchedule: pois: %w", err)
	}
	items, err := s.repos.Items.ListByTripID(ctx, tripID)
	if err != nil {
		return domain.ScheduleView{}, fmt.Errorf("service.ScheduleService.AssembleSchedule: items: %w", err)
	}
	return timeline.Assemble(tripID, pois, items), nil
}
