package model

import "time"

// Event is a published happening at a venue.  PriceCents is the per-seat
// price charged when an invite to this event is accepted; zero means the
// event is free and acceptance needs no payment.  Registered mirrors the
// number of seats consumed from the venue pool by accepted invites; the
// venue's available_capacity is the authoritative counter and both are
// updated in the same transaction.
type Event struct {
    ID          uint64     // events.id
    VenueID     uint64     // events.venue_id
    OrganiserID uint64     // events.organiser_id
    Title       string     // events.title
    Description string     // events.description
    StartsAt    *time.Time // events.starts_at (nullable)
    PriceCents  uint32     // events.price_cents
    Registered  uint32     // events.registered
    CreatedAt   time.Time  // events.created_at
    UpdatedAt   time.Time  // events.updated_at
}
