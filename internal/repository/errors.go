// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as handlers
// to distinguish between different failure scenarios and translate them
// into stable machine-readable HTTP responses. Business-rule violations
// (capacity exhausted, duplicate payments, terminal-state transitions) are
// all expressed here rather than as raw SQL errors.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting a venue that still has
// events or losing a status compare-and-set race. Handlers translate this
// into HTTP 409.
var ErrConflict = errors.New("conflict")

// Not-found sentinels, one per entity, mapped to HTTP 404.
var (
    ErrVenueNotFound        = errors.New("venue not found")
    ErrEventNotFound        = errors.New("event not found")
    ErrInviteNotFound       = errors.New("invite not found")
    ErrRequestNotFound      = errors.New("event request not found")
    ErrPaymentNotFound      = errors.New("payment not found")
    ErrNotificationNotFound = errors.New("notification not found")
)

// ErrVenueFull is returned by the capacity ledger when a reserve would
// drive available_capacity below zero. State is left untouched.
var ErrVenueFull = errors.New("venue has no available capacity")

// ErrDuplicateInvite is returned when an invite already exists for the
// same (event, email) pair. The existing invite's code accompanies the
// HTTP response so the client can reuse it instead of retrying.
var ErrDuplicateInvite = errors.New("invite already exists for this event and email")

// ErrAlreadyResponded is returned when a respond call targets an invite
// that already reached a terminal status.
var ErrAlreadyResponded = errors.New("invite has already been responded to")

// ErrDuplicatePayment is returned when a payment row already exists for
// the reservation (unique key on invite_id).
var ErrDuplicatePayment = errors.New("payment already exists for this reservation")

// ErrAlreadyApproved is returned by the payment approval compare-and-set
// when admin_approved was already true. The second approval is rejected,
// never re-applied.
var ErrAlreadyApproved = errors.New("payment already approved")

// ErrNoPendingPayment is returned when an event request payment approval
// finds payment_status != PENDING.
var ErrNoPendingPayment = errors.New("no pending payment on event request")

// ErrCodeExists signals a unique-key collision on a generated code; the
// creating caller retries with a fresh code up to utils.MaxCodeAttempts.
var ErrCodeExists = errors.New("generated code already exists")
