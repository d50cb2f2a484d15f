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

func TestApproveFlipsFlagOnce(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectExec("UPDATE payments").
        WithArgs(uint64(3), "looks good", uint64(12)).
        WillReturnResult(sqlmock.NewResult(0, 1))

    err = NewPaymentRepo(db).Approve(context.Background(), 12, 3, "looks good")
    assert.NoError(t, err)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveSecondApproverLoses(t *testing.T) {
    // The compare-and-set finds admin_approved already 1: zero affected
    // rows, the row exists, so the loser gets ErrAlreadyApproved and
    // nothing is overwritten.
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectExec("UPDATE payments").
        WithArgs(uint64(4), "", uint64(12)).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery("SELECT id FROM payments WHERE id = ").
        WithArgs(uint64(12)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

    err = NewPaymentRepo(db).Approve(context.Background(), 12, 4, "")
    assert.ErrorIs(t, err, ErrAlreadyApproved)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveMissingPayment(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectExec("UPDATE payments").
        WithArgs(uint64(4), "", uint64(999)).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery("SELECT id FROM payments WHERE id = ").
        WithArgs(uint64(999)).
        WillReturnError(sql.ErrNoRows)

    err = NewPaymentRepo(db).Approve(context.Background(), 999, 4, "")
    assert.ErrorIs(t, err, ErrPaymentNotFound)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTxDuplicatePayment(t *testing.T) {
    db, mock, tx := newMockTx(t)
    mock.ExpectExec("INSERT INTO payments").
        WillReturnError(&fakeSQLError{"Error 1062 (23000): Duplicate entry '5' for key 'payments.uq_payments_invite'"})

    p := &model.Payment{
        InviteID:      5,
        AmountCents:   60500,
        Method:        "CARD",
        TransactionID: "txn-1",
        Status:        model.PaymentStatusCompleted,
        PaidBy:        "guest@example.com",
    }
    err := NewPaymentRepo(db).CreateTx(context.Background(), tx, p)
    assert.ErrorIs(t, err, ErrDuplicatePayment)
    assert.NoError(t, mock.ExpectationsWereMet())
}
