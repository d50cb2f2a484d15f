package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/iliyamo/event-venue-booking/internal/model"
)

// EventRequestRepo persists custom venue bookings.  Status changes go
// through guarded single-statement updates: the caller reads the current
// status, validates the move against the model transition table, then the
// UPDATE's WHERE clause re-checks the from-status so racing admins cannot
// both apply conflicting transitions.
type EventRequestRepo struct {
    db *sql.DB
}

// NewEventRequestRepo returns an EventRequestRepo bound to the database.
func NewEventRequestRepo(db *sql.DB) *EventRequestRepo { return &EventRequestRepo{db: db} }

// DB exposes the underlying handle for handlers that open transactions.
func (r *EventRequestRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a pending event request within a transaction (the same
// one that reserves a seat on the venue pool).  The generated invite code
// is protected by uq_event_requests_code; collisions surface as
// ErrCodeExists so the handler retries generation.
func (r *EventRequestRepo) CreateTx(ctx context.Context, tx *sql.Tx, req *model.EventRequest) error {
    res, err := tx.ExecContext(ctx,
        `INSERT INTO event_requests
            (client_email, venue_id, status, estimated_guests, budget_cents,
             venue_charge_cents, service_charge_cents, additional_charge_cents,
             discount_cents, tax_bp, total_cost_cents, invite_code, payment_status, share_guest_list)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        strings.ToLower(strings.TrimSpace(req.ClientEmail)), req.VenueID, model.RequestStatusPending,
        req.EstimatedGuests, req.BudgetCents,
        req.VenueChargeCents, req.ServiceChargeCents, req.AdditionalChargeCents,
        req.DiscountCents, req.TaxBP, req.TotalCostCents, req.InviteCode,
        model.RequestPaymentPending, req.ShareGuestList)
    if err != nil {
        if isDuplicateKey(err, "uq_event_requests_code") {
            return ErrCodeExists
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    req.ID = uint64(id)
    req.Status = model.RequestStatusPending
    req.PaymentStatus = model.RequestPaymentPending
    return nil
}

const selectRequest = `SELECT id, client_email, venue_id, status, estimated_guests, budget_cents,
    venue_charge_cents, service_charge_cents, additional_charge_cents, discount_cents, tax_bp,
    total_cost_cents, invite_code, payment_status, is_paid, paid_at, share_guest_list, created_at, updated_at
    FROM event_requests`

// GetByID fetches a single event request.  Returns ErrRequestNotFound when
// absent.
func (r *EventRequestRepo) GetByID(ctx context.Context, id uint64) (model.EventRequest, error) {
    return scanRequest(r.db.QueryRowContext(ctx, selectRequest+` WHERE id = ?`, id))
}

func scanRequest(row *sql.Row) (model.EventRequest, error) {
    var req model.EventRequest
    var paidAt sql.NullTime
    err := row.Scan(&req.ID, &req.ClientEmail, &req.VenueID, &req.Status, &req.EstimatedGuests, &req.BudgetCents,
        &req.VenueChargeCents, &req.ServiceChargeCents, &req.AdditionalChargeCents, &req.DiscountCents, &req.TaxBP,
        &req.TotalCostCents, &req.InviteCode, &req.PaymentStatus, &req.IsPaid, &paidAt, &req.ShareGuestList,
        &req.CreatedAt, &req.UpdatedAt)
    if err == sql.ErrNoRows {
        return model.EventRequest{}, ErrRequestNotFound
    }
    if err != nil {
        return model.EventRequest{}, err
    }
    if paidAt.Valid {
        t := paidAt.Time
        req.PaidAt = &t
    }
    return req, nil
}

// ListByClient returns a client's own requests, newest first.
func (r *EventRequestRepo) ListByClient(ctx context.Context, email string) ([]model.EventRequest, error) {
    return r.list(ctx, selectRequest+` WHERE client_email = ? ORDER BY created_at DESC`,
        strings.ToLower(strings.TrimSpace(email)))
}

// ListAll returns every request for admin review, newest first.
func (r *EventRequestRepo) ListAll(ctx context.Context) ([]model.EventRequest, error) {
    return r.list(ctx, selectRequest+` ORDER BY created_at DESC`)
}

func (r *EventRequestRepo) list(ctx context.Context, query string, args ...interface{}) ([]model.EventRequest, error) {
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.EventRequest, 0)
    for rows.Next() {
        var req model.EventRequest
        var paidAt sql.NullTime
        if err := rows.Scan(&req.ID, &req.ClientEmail, &req.VenueID, &req.Status, &req.EstimatedGuests, &req.BudgetCents,
            &req.VenueChargeCents, &req.ServiceChargeCents, &req.AdditionalChargeCents, &req.DiscountCents, &req.TaxBP,
            &req.TotalCostCents, &req.InviteCode, &req.PaymentStatus, &req.IsPaid, &paidAt, &req.ShareGuestList,
            &req.CreatedAt, &req.UpdatedAt); err != nil {
            return nil, err
        }
        if paidAt.Valid {
            t := paidAt.Time
            req.PaidAt = &t
        }
        out = append(out, req)
    }
    return out, rows.Err()
}

// UpdateStatusTx moves a request from one status to another inside the
// given transaction.  The WHERE clause re-checks the from-status; if a
// concurrent transition got there first the update affects nothing and
// ErrConflict is returned so the caller can re-read and re-validate.
func (r *EventRequestRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to string) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE event_requests SET status = ? WHERE id = ? AND status = ?`, to, id, from)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        var exists uint64
        if err := tx.QueryRowContext(ctx, `SELECT id FROM event_requests WHERE id = ?`, id).Scan(&exists); err == sql.ErrNoRows {
            return ErrRequestNotFound
        } else if err != nil {
            return err
        }
        return ErrConflict
    }
    return nil
}

// UpdateCharges overwrites the charge components and the freshly derived
// total in one statement.  The caller recomputes the total through
// pricing.Total before calling; this repository never derives it.
func (r *EventRequestRepo) UpdateCharges(ctx context.Context, id uint64,
    venueCents, serviceCents, additionalCents, discountCents uint64, taxBP uint32, totalCents uint64) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE event_requests
         SET venue_charge_cents = ?, service_charge_cents = ?, additional_charge_cents = ?,
             discount_cents = ?, tax_bp = ?, total_cost_cents = ?
         WHERE id = ?`,
        venueCents, serviceCents, additionalCents, discountCents, taxBP, totalCents, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        var exists uint64
        if err := r.db.QueryRowContext(ctx, `SELECT id FROM event_requests WHERE id = ?`, id).Scan(&exists); err == sql.ErrNoRows {
            return ErrRequestNotFound
        } else if err != nil {
            return err
        }
    }
    return nil
}

// ApprovePayment finalizes a pending payment on an event request.  The
// payment flip and the status coupling (payment approval implies request
// approval) happen in one guarded UPDATE: payment_status must still be
// PENDING and the request must not sit in a terminal status — a cancelled,
// rejected or completed request still carries payment_status=PENDING, and
// approving it would resurrect it into APPROVED with no seat behind it.
// On zero affected rows the current row is re-read to report which guard
// failed: ErrRequestNotFound, ErrConflict (terminal status) or
// ErrNoPendingPayment.  Two concurrent approvals resolve to one winner.
func (r *EventRequestRepo) ApprovePayment(ctx context.Context, id uint64) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE event_requests
         SET payment_status = ?, is_paid = 1, paid_at = UTC_TIMESTAMP(), status = ?
         WHERE id = ? AND payment_status = ? AND status NOT IN (?, ?, ?)`,
        model.RequestPaymentCompleted, model.RequestStatusApproved, id, model.RequestPaymentPending,
        model.RequestStatusRejected, model.RequestStatusCancelled, model.RequestStatusCompleted)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        var status string
        if err := r.db.QueryRowContext(ctx, `SELECT status FROM event_requests WHERE id = ?`, id).Scan(&status); err == sql.ErrNoRows {
            return ErrRequestNotFound
        } else if err != nil {
            return err
        }
        if model.RequestIsTerminal(status) {
            return ErrConflict
        }
        return ErrNoPendingPayment
    }
    return nil
}
