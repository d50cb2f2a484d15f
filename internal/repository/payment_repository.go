package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/event-venue-booking/internal/model"
)

// PaymentRepo persists invite payments.  One payment per reservation is
// enforced by the uq_payments_invite unique key, and the admin approval
// flag is a one-way gate flipped by a compare-and-set so a payment can
// never be approved twice.
type PaymentRepo struct {
    db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// DB exposes the underlying handle for handlers that open transactions.
func (r *PaymentRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a payment within the transaction that also marks the
// invite paid.  A second payment for the same invite violates
// uq_payments_invite and is reported as ErrDuplicatePayment without any
// state change.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
    res, err := tx.ExecContext(ctx,
        `INSERT INTO payments (invite_id, amount_cents, method, transaction_id, status, paid_by, admin_approved)
         VALUES (?, ?, ?, ?, ?, ?, 0)`,
        p.InviteID, p.AmountCents, p.Method, p.TransactionID, p.Status, p.PaidBy)
    if err != nil {
        if isDuplicateKey(err, "uq_payments_invite") {
            return ErrDuplicatePayment
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    p.AdminApproved = false
    return nil
}

const selectPayment = `SELECT id, invite_id, amount_cents, method, transaction_id, status, paid_by,
    admin_approved, approved_by, approval_date, notes, created_at FROM payments`

// GetByID fetches a payment.  Returns ErrPaymentNotFound when absent.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (model.Payment, error) {
    var p model.Payment
    var approvedBy sql.NullInt64
    var approvalDate sql.NullTime
    var notes sql.NullString
    err := r.db.QueryRowContext(ctx, selectPayment+` WHERE id = ?`, id).
        Scan(&p.ID, &p.InviteID, &p.AmountCents, &p.Method, &p.TransactionID, &p.Status, &p.PaidBy,
            &p.AdminApproved, &approvedBy, &approvalDate, &notes, &p.CreatedAt)
    if err == sql.ErrNoRows {
        return model.Payment{}, ErrPaymentNotFound
    }
    if err != nil {
        return model.Payment{}, err
    }
    if approvedBy.Valid {
        v := uint64(approvedBy.Int64)
        p.ApprovedBy = &v
    }
    if approvalDate.Valid {
        t := approvalDate.Time
        p.ApprovalDate = &t
    }
    if notes.Valid {
        p.Notes = notes.String
    }
    return p, nil
}

// Approve sets admin_approved in a single compare-and-set statement.  The
// WHERE clause requires admin_approved = 0, so of two concurrent approvers
// exactly one sees an affected row; the loser gets ErrAlreadyApproved and
// no state is re-applied.  ErrPaymentNotFound distinguishes a missing row.
func (r *PaymentRepo) Approve(ctx context.Context, paymentID, approverID uint64, notes string) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE payments
         SET admin_approved = 1, approved_by = ?, approval_date = UTC_TIMESTAMP(), notes = ?
         WHERE id = ? AND admin_approved = 0`,
        approverID, notes, paymentID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        var exists uint64
        if err := r.db.QueryRowContext(ctx, `SELECT id FROM payments WHERE id = ?`, paymentID).Scan(&exists); err == sql.ErrNoRows {
            return ErrPaymentNotFound
        } else if err != nil {
            return err
        }
        return ErrAlreadyApproved
    }
    return nil
}

// ListPending returns every payment still awaiting admin approval, oldest
// first so the review queue drains in order.
func (r *PaymentRepo) ListPending(ctx context.Context) ([]model.Payment, error) {
    rows, err := r.db.QueryContext(ctx, selectPayment+` WHERE admin_approved = 0 ORDER BY created_at ASC`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Payment, 0)
    for rows.Next() {
        var p model.Payment
        var approvedBy sql.NullInt64
        var approvalDate sql.NullTime
        var notes sql.NullString
        if err := rows.Scan(&p.ID, &p.InviteID, &p.AmountCents, &p.Method, &p.TransactionID, &p.Status, &p.PaidBy,
            &p.AdminApproved, &approvedBy, &approvalDate, &notes, &p.CreatedAt); err != nil {
            return nil, err
        }
        if notes.Valid {
            p.Notes = notes.String
        }
        out = append(out, p)
    }
    return out, rows.Err()
}
