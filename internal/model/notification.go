package model

import "time"

// NotificationCap bounds how many notifications are kept per user.  Pushing
// beyond the cap trims the oldest rows so the log cannot grow without bound.
const NotificationCap = 100

// Notification is one entry in a user's persisted notification log.
type Notification struct {
    ID        uint64    // notifications.id
    UserID    uint64    // notifications.user_id
    Kind      string    // notifications.kind (e.g. invite_accepted, payment_approved)
    Message   string    // notifications.message
    IsRead    bool      // notifications.is_read
    CreatedAt time.Time // notifications.created_at
}
