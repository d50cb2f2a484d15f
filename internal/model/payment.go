package model

import "time"

// Payment statuses.  The gateway is simulated, so a created payment goes
// straight to COMPLETED; FAILED and REFUNDED exist for bookkeeping parity
// with the payments table enum.
const (
    PaymentStatusPending   = "PENDING"
    PaymentStatusCompleted = "COMPLETED"
    PaymentStatusFailed    = "FAILED"
    PaymentStatusRefunded  = "REFUNDED"
)

// Payment records money taken for an accepted invite.  Exactly one payment
// may exist per invite (unique key on invite_id).  AdminApproved starts
// false and flips to true at most once; the flip is a compare-and-set in
// payment_repository.go so two concurrent approvals cannot both win.
type Payment struct {
    ID            uint64     // payments.id
    InviteID      uint64     // payments.invite_id (unique)
    AmountCents   uint32     // payments.amount_cents
    Method        string     // payments.method (e.g. CARD, TRANSFER)
    TransactionID string     // payments.transaction_id
    Status        string     // payments.status
    PaidBy        string     // payments.paid_by (payer email)
    AdminApproved bool       // payments.admin_approved
    ApprovedBy    *uint64    // payments.approved_by (nullable admin user id)
    ApprovalDate  *time.Time // payments.approval_date (nullable)
    Notes         string     // payments.notes
    CreatedAt     time.Time  // payments.created_at
}
