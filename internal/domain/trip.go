// Package domain contains the core data types for the Planificate API.
// This package has no dependencies beyond uuid and is imported by every
// other internal package (repo, service, handler, engine components).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Trip is the top-level aggregate; POIs and itinerary items belong to a trip.
type Trip struct {
	ID          uuid.UUID
	Title       string
	Description string
	StartDate   time.Time
	EndDate     *time.Time // nil for open-ended trips
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
