package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/event-venue-booking/internal/model"
)

// NotificationRepo is a bounded, persisted append-only log of per-user
// notifications.  Push trims a user's log down to model.NotificationCap
// rows so the table cannot grow without bound; readers page through unread
// entries and mark them read individually.
type NotificationRepo struct {
    db *sql.DB
}

// NewNotificationRepo returns a NotificationRepo bound to the database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Push appends a notification for a user and evicts the oldest rows past
// the cap.  The insert and the trim run in one transaction so a crash
// between them cannot leave the log over the cap permanently growing.
func (r *NotificationRepo) Push(ctx context.Context, userID uint64, kind, message string) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if _, err := tx.ExecContext(ctx,
        `INSERT INTO notifications (user_id, kind, message) VALUES (?, ?, ?)`,
        userID, kind, message); err != nil {
        return err
    }
    // Find the cap-th newest id; everything older gets evicted.
    var cutoff sql.NullInt64
    err = tx.QueryRowContext(ctx,
        `SELECT id FROM notifications WHERE user_id = ? ORDER BY id DESC LIMIT 1 OFFSET ?`,
        userID, model.NotificationCap-1).Scan(&cutoff)
    if err != nil && err != sql.ErrNoRows {
        return err
    }
    if err == nil && cutoff.Valid {
        if _, err := tx.ExecContext(ctx,
            `DELETE FROM notifications WHERE user_id = ? AND id < ?`,
            userID, cutoff.Int64); err != nil {
            return err
        }
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// ListUnread returns a user's unread notifications, oldest first.
func (r *NotificationRepo) ListUnread(ctx context.Context, userID uint64) ([]model.Notification, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT id, user_id, kind, message, is_read, created_at
         FROM notifications WHERE user_id = ? AND is_read = 0 ORDER BY id ASC`, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Notification, 0)
    for rows.Next() {
        var n model.Notification
        if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, n)
    }
    return out, rows.Err()
}

// MarkRead flags one of the user's notifications as read.  Returns
// ErrNotificationNotFound when the id does not exist or belongs to someone
// else; marking an already-read entry again is a no-op success.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uint64) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        var exists uint64
        if err := r.db.QueryRowContext(ctx,
            `SELECT id FROM notifications WHERE id = ? AND user_id = ?`, id, userID).Scan(&exists); err == sql.ErrNoRows {
            return ErrNotificationNotFound
        } else if err != nil {
            return err
        }
    }
    return nil
}
