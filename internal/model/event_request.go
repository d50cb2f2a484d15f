package model

import "time"

// EventRequest statuses.  Unlike the invite track these form a richer
// machine driven mostly by admins; the allowed transitions are pinned down
// in requestTransitions below instead of accepting arbitrary strings.
const (
    RequestStatusPending        = "PENDING"
    RequestStatusApproved       = "APPROVED"
    RequestStatusRejected       = "REJECTED"
    RequestStatusCancelled      = "CANCELLED"
    RequestStatusCompleted      = "COMPLETED"
    RequestStatusPaymentPending = "PAYMENT_PENDING"
    RequestStatusPaid           = "PAID"
)

// Payment progress on an event request, independent of the request status
// itself.  PENDING until an admin approves the payment, COMPLETED after.
const (
    RequestPaymentPending   = "PENDING"
    RequestPaymentCompleted = "COMPLETED"
)

// EventRequest is a customer's custom booking of a venue.  Charges are held
// in integer cents; TaxBP carries the tax rate in basis points (10% = 1000)
// so the derived total stays integral.  TotalCostCents is recomputed in full
// through pricing.Total whenever any charge component changes and is never
// patched incrementally.
type EventRequest struct {
    ID                    uint64    // event_requests.id
    ClientEmail           string    // event_requests.client_email
    VenueID               uint64    // event_requests.venue_id
    Status                string    // event_requests.status
    EstimatedGuests       uint32    // event_requests.estimated_guests
    BudgetCents           uint64    // event_requests.budget_cents
    VenueChargeCents      uint64    // event_requests.venue_charge_cents
    ServiceChargeCents    uint64    // event_requests.service_charge_cents
    AdditionalChargeCents uint64    // event_requests.additional_charge_cents
    DiscountCents         uint64    // event_requests.discount_cents
    TaxBP                 uint32    // event_requests.tax_bp (basis points)
    TotalCostCents        uint64    // event_requests.total_cost_cents (derived)
    InviteCode            string    // event_requests.invite_code (unique)
    PaymentStatus         string    // event_requests.payment_status
    IsPaid                bool      // event_requests.is_paid
    PaidAt                *time.Time // event_requests.paid_at (nullable)
    ShareGuestList        bool      // event_requests.share_guest_list
    CreatedAt             time.Time // event_requests.created_at
    UpdatedAt             time.Time // event_requests.updated_at
}

// requestTransitions is the closed transition table for event request
// statuses.  Absent keys are terminal.
var requestTransitions = map[string][]string{
    RequestStatusPending:        {RequestStatusApproved, RequestStatusRejected, RequestStatusCancelled, RequestStatusPaymentPending},
    RequestStatusPaymentPending: {RequestStatusPaid, RequestStatusRejected, RequestStatusCancelled},
    RequestStatusPaid:           {RequestStatusApproved, RequestStatusCompleted, RequestStatusCancelled},
    RequestStatusApproved:       {RequestStatusCompleted, RequestStatusCancelled},
}

// RequestIsTerminal reports whether a request status admits no exit.
func RequestIsTerminal(status string) bool {
    _, ok := requestTransitions[status]
    return !ok && ValidRequestStatus(status)
}

// ValidRequestStatus reports whether s is one of the known statuses.
func ValidRequestStatus(s string) bool {
    switch s {
    case RequestStatusPending, RequestStatusApproved, RequestStatusRejected,
        RequestStatusCancelled, RequestStatusCompleted,
        RequestStatusPaymentPending, RequestStatusPaid:
        return true
    }
    return false
}

// CanTransitionRequest reports whether moving an event request from one
// status to another is permitted by the transition table.  Self transitions
// are rejected along with everything leaving a terminal status.
func CanTransitionRequest(from, to string) bool {
    for _, next := range requestTransitions[from] {
        if next == to {
            return true
        }
    }
    return false
}
