package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/event-venue-booking/internal/model"
)

// EventRepo persists published events.  The registered column mirrors the
// seats consumed from the owning venue's pool by accepted invites; it is
// only ever touched inside the same transaction as the venue-side ledger
// update so the two counters cannot drift.
type EventRepo struct {
    db *sql.DB
}

// NewEventRepo returns an EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle for handlers that open transactions.
func (r *EventRepo) DB() *sql.DB { return r.db }

// Create inserts an event under an existing venue and populates the
// generated ID.  Venue existence is checked by the caller.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO events (venue_id, organiser_id, title, description, starts_at, price_cents) VALUES (?, ?, ?, ?, ?, ?)`,
        e.VenueID, e.OrganiserID, e.Title, e.Description, e.StartsAt, e.PriceCents)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    e.ID = uint64(id)
    return nil
}

// GetByID fetches a single event.  Returns ErrEventNotFound when absent.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
    var e model.Event
    err := r.db.QueryRowContext(ctx,
        `SELECT id, venue_id, organiser_id, title, description, starts_at, price_cents, registered, created_at, updated_at
         FROM events WHERE id = ?`, id).
        Scan(&e.ID, &e.VenueID, &e.OrganiserID, &e.Title, &e.Description, &e.StartsAt, &e.PriceCents, &e.Registered, &e.CreatedAt, &e.UpdatedAt)
    if err == sql.ErrNoRows {
        return model.Event{}, ErrEventNotFound
    }
    return e, err
}

// GetWithAvailability loads an event together with its venue's live seat
// availability in one query.  Invite creation uses it to reject invites to
// events whose venue is already full.
func (r *EventRepo) GetWithAvailability(ctx context.Context, id uint64) (model.Event, uint32, error) {
    var e model.Event
    var available uint32
    err := r.db.QueryRowContext(ctx,
        `SELECT e.id, e.venue_id, e.organiser_id, e.title, e.description, e.starts_at, e.price_cents, e.registered,
                e.created_at, e.updated_at, v.available_capacity
         FROM events e JOIN venues v ON v.id = e.venue_id
         WHERE e.id = ?`, id).
        Scan(&e.ID, &e.VenueID, &e.OrganiserID, &e.Title, &e.Description, &e.StartsAt, &e.PriceCents, &e.Registered,
            &e.CreatedAt, &e.UpdatedAt, &available)
    if err == sql.ErrNoRows {
        return model.Event{}, 0, ErrEventNotFound
    }
    return e, available, err
}

// List returns all events, newest first.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, venue_id, organiser_id, title, description, starts_at, price_cents, registered, created_at, updated_at
         FROM events ORDER BY created_at DESC`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Event, 0)
    for rows.Next() {
        var e model.Event
        if err := rows.Scan(&e.ID, &e.VenueID, &e.OrganiserID, &e.Title, &e.Description, &e.StartsAt, &e.PriceCents, &e.Registered, &e.CreatedAt, &e.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, e)
    }
    return out, rows.Err()
}

// UpdatePrice changes an event's seat price.  Only the organiser who owns
// the event (or an admin) may do so; ownership is verified here so the
// handler stays thin.
func (r *EventRepo) UpdatePrice(ctx context.Context, eventID, callerID uint64, isAdmin bool, priceCents uint32) error {
    var organiser uint64
    err := r.db.QueryRowContext(ctx, `SELECT organiser_id FROM events WHERE id = ?`, eventID).Scan(&organiser)
    if err == sql.ErrNoRows {
        return ErrEventNotFound
    }
    if err != nil {
        return err
    }
    if !isAdmin && organiser != callerID {
        return ErrForbidden
    }
    _, err = r.db.ExecContext(ctx, `UPDATE events SET price_cents = ? WHERE id = ?`, priceCents, eventID)
    return err
}

// IncrementRegisteredTx bumps the denormalized registration counter inside
// the transaction that also reserved venue capacity.
func (r *EventRepo) IncrementRegisteredTx(ctx context.Context, tx *sql.Tx, eventID uint64, n uint32) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE events SET registered = registered + ? WHERE id = ?`, n, eventID)
    return err
}

// DecrementRegisteredTx reverses the registration counter when an accepted
// invite is revoked, clamped at zero.
func (r *EventRepo) DecrementRegisteredTx(ctx context.Context, tx *sql.Tx, eventID uint64, n uint32) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE events SET registered = GREATEST(0, CAST(registered AS SIGNED) - ?) WHERE id = ?`, n, eventID)
    return err
}
