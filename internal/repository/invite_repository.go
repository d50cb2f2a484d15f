package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/iliyamo/event-venue-booking/internal/model"
)

// InviteRepo persists invites.  An invite's status transition out of
// PENDING happens exactly once: the RespondTx update is guarded by the
// current status, so a second respond (or two racing ones) observes zero
// affected rows and is rejected with ErrAlreadyResponded.
type InviteRepo struct {
    db *sql.DB
}

// NewInviteRepo returns an InviteRepo bound to the given database.
func NewInviteRepo(db *sql.DB) *InviteRepo { return &InviteRepo{db: db} }

// Create inserts a pending invite.  Two unique keys guard the insert:
// uq_invites_code on the generated code and uq_invites_event_email on
// (event_id, email).  Collisions are surfaced as ErrCodeExists and
// ErrDuplicateInvite respectively so the handler can retry code generation
// or attach the existing code to its response.
func (r *InviteRepo) Create(ctx context.Context, inv *model.Invite) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO invites (code, event_id, email, status, sent_by, sent_date)
         VALUES (?, ?, ?, ?, ?, UTC_TIMESTAMP())`,
        inv.Code, inv.EventID, strings.ToLower(strings.TrimSpace(inv.Email)), model.InviteStatusPending, inv.SentBy)
    if err != nil {
        if isDuplicateKey(err, "uq_invites_event_email") {
            return ErrDuplicateInvite
        }
        if isDuplicateKey(err, "uq_invites_code") {
            return ErrCodeExists
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    inv.ID = uint64(id)
    inv.Status = model.InviteStatusPending
    return nil
}

// GetByCode fetches an invite by its unique code.  Returns
// ErrInviteNotFound when the code is unknown.
func (r *InviteRepo) GetByCode(ctx context.Context, code string) (model.Invite, error) {
    return r.scanOne(r.db.QueryRowContext(ctx, selectInvite+` WHERE code = ?`, code))
}

// GetByID fetches an invite by primary key.
func (r *InviteRepo) GetByID(ctx context.Context, id uint64) (model.Invite, error) {
    return r.scanOne(r.db.QueryRowContext(ctx, selectInvite+` WHERE id = ?`, id))
}

// GetByEventAndEmail returns the invite for an (event, email) pair if one
// exists.  Used to attach the existing code to duplicate-create responses.
func (r *InviteRepo) GetByEventAndEmail(ctx context.Context, eventID uint64, email string) (model.Invite, error) {
    email = strings.ToLower(strings.TrimSpace(email))
    return r.scanOne(r.db.QueryRowContext(ctx, selectInvite+` WHERE event_id = ? AND email = ?`, eventID, email))
}

const selectInvite = `SELECT id, code, event_id, email, status, sent_by, sent_date, response_date, paid, created_at, updated_at FROM invites`

func (r *InviteRepo) scanOne(row *sql.Row) (model.Invite, error) {
    var inv model.Invite
    var responseDate sql.NullTime
    err := row.Scan(&inv.ID, &inv.Code, &inv.EventID, &inv.Email, &inv.Status, &inv.SentBy,
        &inv.SentDate, &responseDate, &inv.Paid, &inv.CreatedAt, &inv.UpdatedAt)
    if err == sql.ErrNoRows {
        return model.Invite{}, ErrInviteNotFound
    }
    if err != nil {
        return model.Invite{}, err
    }
    if responseDate.Valid {
        t := responseDate.Time
        inv.ResponseDate = &t
    }
    return inv, nil
}

// RespondTx flips the invite out of PENDING into the given terminal status
// within the provided transaction.  The WHERE clause doubles as a
// compare-and-set: when the invite is no longer pending the update touches
// nothing and ErrAlreadyResponded is returned, which keeps terminal
// transitions idempotent-in-failure under concurrent responders.
func (r *InviteRepo) RespondTx(ctx context.Context, tx *sql.Tx, code, newStatus string) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE invites SET status = ?, response_date = UTC_TIMESTAMP() WHERE code = ? AND status = ?`,
        newStatus, code, model.InviteStatusPending)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        var exists uint64
        if err := tx.QueryRowContext(ctx, `SELECT id FROM invites WHERE code = ?`, code).Scan(&exists); err == sql.ErrNoRows {
            return ErrInviteNotFound
        } else if err != nil {
            return err
        }
        return ErrAlreadyResponded
    }
    return nil
}

// MarkPaidTx records that a completed payment exists for the invite.  Runs
// in the same transaction as the payment insert.
func (r *InviteRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, inviteID uint64) error {
    _, err := tx.ExecContext(ctx, `UPDATE invites SET paid = 1 WHERE id = ?`, inviteID)
    return err
}

// DeleteTx removes an invite inside the provided transaction.  Used by the
// admin revoke flow, which releases the reserved capacity in the same
// transaction before committing.
func (r *InviteRepo) DeleteTx(ctx context.Context, tx *sql.Tx, inviteID uint64) error {
    res, err := tx.ExecContext(ctx, `DELETE FROM invites WHERE id = ?`, inviteID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrInviteNotFound
    }
    return nil
}
