package model

import "time"

// Invite statuses.  PENDING is the only non-terminal state: once an invite
// is accepted or declined it never transitions again.
const (
    InviteStatusPending  = "PENDING"
    InviteStatusAccepted = "ACCEPTED"
    InviteStatusDeclined = "DECLINED"
)

// Invite is a direct, code-addressed claim on a seat at an event.  The code
// is globally unique and acts as the credential when responding, so the
// respond endpoint needs no bearer token.  Paid flips to true only once a
// completed Payment row exists for the invite.
type Invite struct {
    ID           uint64     // invites.id
    Code         string     // invites.code (unique)
    EventID      uint64     // invites.event_id
    Email        string     // invites.email (unique together with event_id)
    Status       string     // invites.status
    SentBy       uint64     // invites.sent_by (user id)
    SentDate     time.Time  // invites.sent_date
    ResponseDate *time.Time // invites.response_date (nullable until responded)
    Paid         bool       // invites.paid
    CreatedAt    time.Time  // invites.created_at
    UpdatedAt    time.Time  // invites.updated_at
}

// InviteIsTerminal reports whether an invite status admits no further
// transition.
func InviteIsTerminal(status string) bool {
    return status == InviteStatusAccepted || status == InviteStatusDeclined
}
