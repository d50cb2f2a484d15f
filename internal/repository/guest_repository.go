package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/event-venue-booking/internal/model"
)

// GuestRepo persists the guest roster attached to paid event requests.
// Guests are written once and never mutated afterwards.
type GuestRepo struct {
    db *sql.DB
}

// NewGuestRepo returns a GuestRepo bound to the given database.
func NewGuestRepo(db *sql.DB) *GuestRepo { return &GuestRepo{db: db} }

// CreateBulk inserts multiple guests in a single statement.  Each guest
// must already carry a generated invite code; a collision on
// uq_guests_code aborts the whole batch with ErrCodeExists so the caller
// can regenerate codes and retry.
func (r *GuestRepo) CreateBulk(ctx context.Context, guests []model.Guest) error {
    if len(guests) == 0 {
        return nil
    }
    query := `INSERT INTO guests (event_request_id, name, phone, email, invite_code) VALUES `
    args := make([]interface{}, 0, len(guests)*5)
    for i, g := range guests {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?)"
        args = append(args, g.EventRequestID, g.Name, g.Phone, g.Email, g.InviteCode)
    }
    if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
        if isDuplicateKey(err, "uq_guests_code") {
            return ErrCodeExists
        }
        return err
    }
    return nil
}

// ListByRequest returns all guests of an event request in insertion order.
func (r *GuestRepo) ListByRequest(ctx context.Context, requestID uint64) ([]model.Guest, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, event_request_id, name, phone, email, invite_code, invite_sent, invite_accepted, attending, created_at
         FROM guests WHERE event_request_id = ? ORDER BY id ASC`, requestID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Guest, 0)
    for rows.Next() {
        var g model.Guest
        var email sql.NullString
        if err := rows.Scan(&g.ID, &g.EventRequestID, &g.Name, &g.Phone, &email, &g.InviteCode,
            &g.InviteSent, &g.InviteAccepted, &g.Attending, &g.CreatedAt); err != nil {
            return nil, err
        }
        if email.Valid {
            e := email.String
            g.Email = &e
        }
        out = append(out, g)
    }
    return out, rows.Err()
}

// CountByRequest returns only the number of guests.  This is what admins
// see when the client has opted out of sharing the guest list.
func (r *GuestRepo) CountByRequest(ctx context.Context, requestID uint64) (int, error) {
    var n int
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM guests WHERE event_request_id = ?`, requestID).Scan(&n)
    return n, err
}
