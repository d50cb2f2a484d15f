package repository

import (
    "context"
    "database/sql"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/event-venue-booking/internal/model"
)

func TestRespondTxFlipsPendingInvite(t *testing.T) {
    db, mock, tx := newMockTx(t)
    mock.ExpectExec("UPDATE invites SET status = ").
        WithArgs(model.InviteStatusAccepted, "ABCD2345", model.InviteStatusPending).
        WillReturnResult(sqlmock.NewResult(0, 1))

    err := NewInviteRepo(db).RespondTx(context.Background(), tx, "ABCD2345", model.InviteStatusAccepted)
    assert.NoError(t, err)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondTxAlreadyResponded(t *testing.T) {
    // The compare-and-set misses because the invite already left PENDING;
    // the probe still finds the row, so the caller gets ErrAlreadyResponded
    // rather than a 404.
    db, mock, tx := newMockTx(t)
    mock.ExpectExec("UPDATE invites SET status = ").
        WithArgs(model.InviteStatusDeclined, "ABCD2345", model.InviteStatusPending).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery("SELECT id FROM invites WHERE code = ").
        WithArgs("ABCD2345").
        WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

    err := NewInviteRepo(db).RespondTx(context.Background(), tx, "ABCD2345", model.InviteStatusDeclined)
    assert.ErrorIs(t, err, ErrAlreadyResponded)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondTxUnknownCode(t *testing.T) {
    db, mock, tx := newMockTx(t)
    mock.ExpectExec("UPDATE invites SET status = ").
        WithArgs(model.InviteStatusAccepted, "NOPE2345", model.InviteStatusPending).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery("SELECT id FROM invites WHERE code = ").
        WithArgs("NOPE2345").
        WillReturnError(sql.ErrNoRows)

    err := NewInviteRepo(db).RespondTx(context.Background(), tx, "NOPE2345", model.InviteStatusAccepted)
    assert.ErrorIs(t, err, ErrInviteNotFound)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMapsDuplicateKeys(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectExec("INSERT INTO invites").
        WillReturnError(&fakeSQLError{"Error 1062 (23000): Duplicate entry '9-a@b.c' for key 'invites.uq_invites_event_email'"})
    mock.ExpectExec("INSERT INTO invites").
        WillReturnError(&fakeSQLError{"Error 1062 (23000): Duplicate entry 'ABCD2345' for key 'invites.uq_invites_code'"})

    repo := NewInviteRepo(db)
    inv := &model.Invite{Code: "ABCD2345", EventID: 9, Email: "a@b.c", SentBy: 1}

    err = repo.Create(context.Background(), inv)
    assert.ErrorIs(t, err, ErrDuplicateInvite)

    err = repo.Create(context.Background(), inv)
    assert.ErrorIs(t, err, ErrCodeExists)

    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusTxConcurrentLoser(t *testing.T) {
    // A racing admin moved the request first: the from-status re-check in
    // the WHERE clause fails, the row still exists, ErrConflict comes back.
    db, mock, tx := newMockTx(t)
    mock.ExpectExec("UPDATE event_requests SET status = ").
        WithArgs(model.RequestStatusApproved, uint64(8), model.RequestStatusPending).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery("SELECT id FROM event_requests WHERE id = ").
        WithArgs(uint64(8)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))

    err := NewEventRequestRepo(db).UpdateStatusTx(context.Background(), tx, 8,
        model.RequestStatusPending, model.RequestStatusApproved)
    assert.ErrorIs(t, err, ErrConflict)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovePaymentAlreadyCompleted(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectExec("UPDATE event_requests").
        WithArgs(model.RequestPaymentCompleted, model.RequestStatusApproved, uint64(8), model.RequestPaymentPending,
            model.RequestStatusRejected, model.RequestStatusCancelled, model.RequestStatusCompleted).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery("SELECT status FROM event_requests WHERE id = ").
        WithArgs(uint64(8)).
        WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.RequestStatusPaymentPending))

    err = NewEventRequestRepo(db).ApprovePayment(context.Background(), 8)
    assert.ErrorIs(t, err, ErrNoPendingPayment)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovePaymentTerminalRequest(t *testing.T) {
    // A cancelled request keeps its PENDING payment row, but approving the
    // payment must not resurrect the request: the guard excludes terminal
    // statuses and the re-read maps the miss to ErrConflict.
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectExec("UPDATE event_requests").
        WithArgs(model.RequestPaymentCompleted, model.RequestStatusApproved, uint64(4), model.RequestPaymentPending,
            model.RequestStatusRejected, model.RequestStatusCancelled, model.RequestStatusCompleted).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery("SELECT status FROM event_requests WHERE id = ").
        WithArgs(uint64(4)).
        WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.RequestStatusCancelled))

    err = NewEventRequestRepo(db).ApprovePayment(context.Background(), 4)
    assert.ErrorIs(t, err, ErrConflict)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovePaymentMissingRequest(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectExec("UPDATE event_requests").
        WithArgs(model.RequestPaymentCompleted, model.RequestStatusApproved, uint64(99), model.RequestPaymentPending,
            model.RequestStatusRejected, model.RequestStatusCancelled, model.RequestStatusCompleted).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery("SELECT status FROM event_requests WHERE id = ").
        WithArgs(uint64(99)).
        WillReturnError(sql.ErrNoRows)

    err = NewEventRequestRepo(db).ApprovePayment(context.Background(), 99)
    assert.ErrorIs(t, err, ErrRequestNotFound)
    assert.NoError(t, mock.ExpectationsWereMet())
}
