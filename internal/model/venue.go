package model

import "time"

// Venue capacity bounds enforced on creation.  The seat pool on a venue is
// the authoritative capacity counter for every reservation made against it.
const (
    MinVenueCapacity = 100
    MaxVenueCapacity = 350
)

// Venue represents a bookable location owned by an organiser or admin.
// Capacity is fixed at creation; AvailableCapacity is mutated exclusively by
// the capacity ledger (atomic reserve/release in venue_repository.go) and
// always satisfies 0 <= AvailableCapacity <= Capacity.
type Venue struct {
    ID                uint64    // venues.id
    OwnerID           uint64    // venues.owner_id (organiser or admin)
    Name              string    // venues.name
    Address           string    // venues.address
    Capacity          uint32    // venues.capacity
    AvailableCapacity uint32    // venues.available_capacity
    CreatedAt         time.Time // venues.created_at
    UpdatedAt         time.Time // venues.updated_at
}
