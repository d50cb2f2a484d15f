package model

import "time"

// Guest is a named attendee attached to a paid event request.  Guests can
// only be created after the owning request's payment_status is COMPLETED.
// Each guest carries its own unique invite code for door check-in.
type Guest struct {
    ID             uint64    // guests.id
    EventRequestID uint64    // guests.event_request_id
    Name           string    // guests.name
    Phone          string    // guests.phone
    Email          *string   // guests.email (nullable)
    InviteCode     string    // guests.invite_code (unique)
    InviteSent     bool      // guests.invite_sent
    InviteAccepted bool      // guests.invite_accepted
    Attending      bool      // guests.attending
    CreatedAt      time.Time // guests.created_at
}
