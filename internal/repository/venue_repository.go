package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/iliyamo/event-venue-booking/internal/model"
)

// VenueRepo provides persistence for venues and implements the capacity
// ledger.  A venue's available_capacity column is the authoritative seat
// pool for every reservation against it; the events.registered counter is a
// denormalized mirror updated inside the same transaction.  All ledger
// mutations are single-statement atomic updates so two concurrent reservers
// can never both win the last seat.
type VenueRepo struct {
    db *sql.DB
}

// NewVenueRepo returns a new VenueRepo bound to the given database.
func NewVenueRepo(db *sql.DB) *VenueRepo { return &VenueRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions that
// span the ledger and the reservation tables.
func (r *VenueRepo) DB() *sql.DB { return r.db }

// Create inserts a venue.  AvailableCapacity is initialized to Capacity;
// the caller validates the capacity bounds beforehand.  The generated ID is
// populated on the passed record.
func (r *VenueRepo) Create(ctx context.Context, v *model.Venue) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO venues (owner_id, name, address, capacity, available_capacity) VALUES (?, ?, ?, ?, ?)`,
        v.OwnerID, v.Name, v.Address, v.Capacity, v.Capacity)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    v.ID = uint64(id)
    v.AvailableCapacity = v.Capacity
    return nil
}

// GetByID fetches a single venue.  Returns ErrVenueNotFound when absent.
func (r *VenueRepo) GetByID(ctx context.Context, id uint64) (model.Venue, error) {
    var v model.Venue
    err := r.db.QueryRowContext(ctx,
        `SELECT id, owner_id, name, address, capacity, available_capacity, created_at, updated_at
         FROM venues WHERE id = ?`, id).
        Scan(&v.ID, &v.OwnerID, &v.Name, &v.Address, &v.Capacity, &v.AvailableCapacity, &v.CreatedAt, &v.UpdatedAt)
    if err == sql.ErrNoRows {
        return model.Venue{}, ErrVenueNotFound
    }
    return v, err
}

// List returns all venues ordered by creation time descending.
func (r *VenueRepo) List(ctx context.Context) ([]model.Venue, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, owner_id, name, address, capacity, available_capacity, created_at, updated_at
         FROM venues ORDER BY created_at DESC`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Venue, 0)
    for rows.Next() {
        var v model.Venue
        if err := rows.Scan(&v.ID, &v.OwnerID, &v.Name, &v.Address, &v.Capacity, &v.AvailableCapacity, &v.CreatedAt, &v.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, v)
    }
    return out, rows.Err()
}

// Delete removes a venue owned by ownerID (admins bypass the ownership
// check).  A venue still referenced by events or event requests cannot be
// deleted; ErrConflict is returned instead.
func (r *VenueRepo) Delete(ctx context.Context, id, ownerID uint64, isAdmin bool) error {
    var actualOwner uint64
    err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM venues WHERE id = ?`, id).Scan(&actualOwner)
    if err == sql.ErrNoRows {
        return ErrVenueNotFound
    }
    if err != nil {
        return err
    }
    if !isAdmin && actualOwner != ownerID {
        return ErrForbidden
    }
    var refs int
    err = r.db.QueryRowContext(ctx,
        `SELECT (SELECT COUNT(*) FROM events WHERE venue_id = ?) +
                (SELECT COUNT(*) FROM event_requests WHERE venue_id = ?)`, id, id).Scan(&refs)
    if err != nil {
        return err
    }
    if refs > 0 {
        return ErrConflict
    }
    _, err = r.db.ExecContext(ctx, `DELETE FROM venues WHERE id = ?`, id)
    return err
}

// ReserveTx atomically claims amount seats from the venue pool within the
// given transaction.  The check and the decrement are a single UPDATE
// guarded by available_capacity >= amount, so a losing concurrent reserver
// observes zero affected rows and no state change.  Returns ErrVenueFull
// when the pool cannot cover the request and ErrVenueNotFound when the
// venue does not exist.
func (r *VenueRepo) ReserveTx(ctx context.Context, tx *sql.Tx, venueID uint64, amount uint32) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE venues SET available_capacity = available_capacity - ? WHERE id = ? AND available_capacity >= ?`,
        amount, venueID, amount)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        var exists uint64
        if err := tx.QueryRowContext(ctx, `SELECT id FROM venues WHERE id = ?`, venueID).Scan(&exists); err == sql.ErrNoRows {
            return ErrVenueNotFound
        } else if err != nil {
            return err
        }
        return ErrVenueFull
    }
    return nil
}

// ReleaseTx returns amount seats to the venue pool, clamped at the venue's
// fixed capacity.  A release that would overshoot (more releases than
// reserves, which is a programming error upstream) silently caps at
// capacity instead of corrupting the invariant 0 <= available <= capacity.
func (r *VenueRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, venueID uint64, amount uint32) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE venues SET available_capacity = LEAST(capacity, available_capacity + ?) WHERE id = ?`,
        amount, venueID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // MySQL reports zero affected rows both for a missing venue and for
        // an update that left the value unchanged; only the former is an
        // error worth surfacing.
        var exists uint64
        if err := tx.QueryRowContext(ctx, `SELECT id FROM venues WHERE id = ?`, venueID).Scan(&exists); err == sql.ErrNoRows {
            return ErrVenueNotFound
        } else if err != nil {
            return err
        }
    }
    return nil
}

// isDuplicateKey reports whether err is a MySQL duplicate-entry violation
// (error 1062), optionally narrowed to a specific key name.
func isDuplicateKey(err error, keyName string) bool {
    if err == nil {
        return false
    }
    msg := strings.ToLower(err.Error())
    if !strings.Contains(msg, "1062") && !strings.Contains(msg, "duplicate entry") {
        return false
    }
    if keyName == "" {
        return true
    }
    return strings.Contains(msg, strings.ToLower(keyName))
}
