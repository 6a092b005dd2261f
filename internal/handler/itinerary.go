package handler

import (
	"net/http"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/planificate/backend/internal/domain"
)

const itemNotFound = "itinerary item not found"

// CreateItineraryItem handles POST /trips/{tripId}/itinerary.
func (s *Server) CreateItineraryItem(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	var body ItineraryItemRequest
	if err := decodeJSON(r, &body); err != nil {
		requestError(w, err.Error())
		return
	}

	created, err := s.Itinerary.Create(r.Context(), requestToItem(tripID, uuid.Nil, body))
	if err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, itemToResponse(created))
}

// ListItineraryItems handles GET /trips/{tripId}/itinerary.
func (s *Server) ListItineraryItems(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	items, err := s.Itinerary.ListByTripID(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusOK, itemsToResponse(items))
}

// GetItineraryItem handles GET /trips/{tripId}/itinerary/{itemId}.
func (s *Server) GetItineraryItem(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemId")
	if !ok {
		return
	}
	item, err := s.Itinerary.GetByID(r.Context(), tripID, itemID)
	if err != nil {
		s.writeError(w, r, err, itemNotFound)
		return
	}
	writeJSON(w, http.StatusOK, itemToResponse(item))
}

// UpdateItineraryItem handles PUT /trips/{tripId}/itinerary/{itemId}.
func (s *Server) UpdateItineraryItem(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemId")
	if !ok {
		return
	}
	var body ItineraryItemRequest
	if err := decodeJSON(r, &body); err != nil {
		requestError(w, err.Error())
		return
	}

	updated, err := s.Itinerary.Update(r.Context(), requestToItem(tripID, itemID, body))
	if err != nil {
		s.writeError(w, r, err, itemNotFound)
		return
	}
	writeJSON(w, http.StatusOK, itemToResponse(updated))
}

// DeleteItineraryItem handles DELETE /trips/{tripId}/itinerary/{itemId}.
func (s *Server) DeleteItineraryItem(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	itemID, ok := pathUUID(w, r, "itemId")
	if !ok {
		return
	}
	if err := s.Itinerary.Delete(r.Context(), tripID, itemID); err != nil {
		s.writeError(w, r, err, itemNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSchedule handles GET /trips/{tripId}/itinerary/schedule.
func (s *Server) GetSchedule(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathUUID(w, r, "tripId")
	if !ok {
		return
	}
	view, err := s.Schedule.AssembleSchedule(r.Context(), tripID)
	if err != nil {
		s.writeError(w, r, err, tripNotFound)
		return
	}
	writeJSON(w, http.StatusOK, scheduleToResponse(view))
}

// --- mapping helpers --------------------------------------------------------

func requestToItem(tripID, itemID uuid.UUID, body ItineraryItemRequest) domain.ItineraryItem {
	return domain.ItineraryItem{
		ID:      itemID,
		TripID:  tripID,
		POIID:   body.PoiId,
		Name:    stringValue(body.Name),
		StartTS: body.StartTs.timePtr(),
		EndTS:   body.EndTs.timePtr(),
		Status:  stringValue(body.Status),
	}
}

func itemToResponse(it domain.ItineraryItem) ItineraryItem {
	return ItineraryItem{
		Id:        it.ID,
		TripId:    it.TripID,
		PoiId:     it.POIID,
		Name:      optionalString(it.Name),
		StartTs:   localTimePtr(it.StartTS),
		EndTs:     localTimePtr(it.EndTS),
		Status:    optionalString(it.Status),
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

func itemsToResponse(items []domain.ItineraryItem) []ItineraryItem {
	out := make([]ItineraryItem, len(items))
	for i, it := range items {
		out[i] = itemToResponse(it)
	}
	return out
}

func scheduleToResponse(v domain.ScheduleView) Schedule {
	days := make([]ScheduleDay, len(v.Days))
	for i, d := range v.Days {
		acts := make([]Activity, len(d.Activities))
		for j, a := range d.Activities {
			acts[j] = Activity{
				Id:              a.ID,
				Type:            string(a.Type),
				Name:            a.Name,
				Start:           LocalTime{Time: a.Start},
				End:             localTimePtr(a.End),
				DurationMinutes: a.DurationMinutes,
				PoiId:           a.POIID,
				ItemId:          a.ItemID,
				Address:         optionalString(a.Address),
				City:            optionalString(a.City),
				Country:         optionalString(a.Country),
				EstimatedCost:   a.EstimatedCost,
				Description:     optionalString(a.Description),
			}
		}
		free := make([]FreeTimeSlot, len(d.FreeTime))
		for j, f := range d.FreeTime {
			free[j] = FreeTimeSlot{
				Start:           LocalTime{Time: f.Start},
				End:             LocalTime{Time: f.End},
				DurationMinutes: f.DurationMinutes,
			}
		}
		days[i] = ScheduleDay{
			Date:       openapi_types.Date{Time: d.Date},
			Activities: acts,
			FreeTime:   free,
		}
	}
	return Schedule{
		TripId:           v.TripID,
		Days:             days,
		UnscheduledPois:  poisToResponse(v.UnscheduledPOIs),
		UnscheduledItems: itemsToResponse(v.UnscheduledItems),
	}
}
