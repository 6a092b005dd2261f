package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/planificate/backend/internal/domain"
	"github.com/planificate/backend/internal/repo"
)

// SyncAction is a change the sync manager applies to a POI.
type SyncAction string

const (
	SyncSchedule      SyncAction = "schedule"
	SyncKeep          SyncAction = "keep"
	SyncClearSchedule SyncAction = "clear_schedule"
	SyncDeletePOI     SyncAction = "delete_poi"
)

// SyncTrigger is the itinerary write that released a POI.
type SyncTrigger string

const (
	// TriggerItemDeleted: the item referencing the POI was deleted.
	TriggerItemDeleted SyncTrigger = "item_deleted"
	// TriggerItemReleased: the item was updated to point elsewhere, or
	// kept the POI but dropped its start_ts.
	TriggerItemReleased SyncTrigger = "item_released"
)

type syncState struct {
	trigger    SyncTrigger
	referenced bool // other items still reference the POI
	scheduled  bool // at least one of them has a start_ts
}

// syncTransitions is the full decision table. scheduled without referenced
// cannot occur and falls through to SyncKeep.
var syncTransitions = map[syncState]SyncAction{
	{TriggerItemDeleted, false, false}:  SyncDeletePOI,
	{TriggerItemDeleted, true, false}:   SyncClearSchedule,
	{TriggerItemDeleted, true, true}:    SyncKeep,
	{TriggerItemReleased, false, false}: SyncClearSchedule,
	{TriggerItemReleased, true, false}:  SyncClearSchedule,
	{TriggerItemReleased, true, true}:   SyncKeep,
}

// DecideSync looks up the action for a released POI given the items that
// still reference it.
func DecideSync(trigger SyncTrigger, remaining domain.POIBookings) SyncAction {
	state := syncState{
		trigger:    trigger,
		referenced: remaining.References > 0,
		scheduled:  remaining.Scheduled > 0,
	}
	if action, ok := syncTransitions[state]; ok {
		return action
	}
	return SyncKeep
}

// SyncEffect records one change applied to a POI.
type SyncEffect struct {
	POIID  uuid.UUID
	Action SyncAction
}

// SyncManager keeps POI scheduled_at and duration_minutes consistent with
// the itinerary items that reference the POI. It must run inside the same
// transaction as the item write.
type SyncManager struct {
	log *slog.Logger
}

// NewSyncManager constructs a SyncManager.
func NewSyncManager(log *slog.Logger) *SyncManager {
	return &SyncManager{log: log}
}

// Apply propagates an itinerary write to the POIs it touches. item is the
// state after the write (nil on delete); previous is the state before it
// (nil on create). rs must be bound to the transaction that made the write,
// so counts already reflect it.
func (m *SyncManager) Apply(ctx context.Context, rs repo.Repos, item, previous *domain.ItineraryItem) ([]SyncEffect, error) {
	var effects []SyncEffect

	if item != nil && item.POIID != nil && item.IsScheduled() {
		var duration *int
		if item.EndTS != nil {
			d := int(math.Round(item.EndTS.Sub(*item.StartTS).Minutes()))
			duration = &d
		}
		if err := rs.POIs.SetSchedule(ctx, *item.POIID, *item.StartTS, duration); err != nil {
			return nil, fmt.Errorf("service.SyncManager.Apply: schedule poi: %w", err)
		}
		effects = append(effects, SyncEffect{POIID: *item.POIID, Action: SyncSchedule})
	}

	if previous == nil || previous.POIID == nil {
		return effects, nil
	}
	prevPOI := *previous.POIID

	var trigger SyncTrigger
	switch {
	case item == nil:
		trigger = TriggerItemDeleted
	case !item.References(prevPOI):
		trigger = TriggerItemReleased
	case !item.IsScheduled() && previous.IsScheduled():
		trigger = TriggerItemReleased
	default:
		return effects, nil
	}

	remaining, err := rs.Items.CountByPOI(ctx, prevPOI)
	if err != nil {
		return nil, fmt.Errorf("service.SyncManager.Apply: count references: %w", err)
	}

	action := DecideSync(trigger, remaining)
	switch action {
	case SyncDeletePOI:
		if err := rs.POIs.Delete(ctx, previous.TripID, prevPOI); err != nil {
			return nil, fmt.Errorf("service.SyncManager.Apply: delete orphan poi: %w", err)
		}
	case SyncClearSchedule:
		if err := rs.POIs.ClearSchedule(ctx, prevPOI); err != nil {
			return nil, fmt.Errorf("service.SyncManager.Apply: clear poi schedule: %w", err)
		}
	}

	m.log.DebugContext(ctx, "itinerary sync",
		"poi_id", prevPOI,
		"trigger", trigger,
		"references", remaining.References,
		"scheduled", remaining.Scheduled,
		"action", action,
	)
	return append(effects, SyncEffect{POIID: prevPOI, Action: action}), nil
}
