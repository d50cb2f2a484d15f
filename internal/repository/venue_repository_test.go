package repository

import (
    "context"
    "database/sql"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func newMockTx(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *sql.Tx) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { _ = db.Close() })
    mock.ExpectBegin()
    tx, err := db.Begin()
    require.NoError(t, err)
    return db, mock, tx
}

func TestReserveTxClaimsSeats(t *testing.T) {
    db, mock, tx := newMockTx(t)
    mock.ExpectExec("UPDATE venues SET available_capacity = available_capacity - ").
        WithArgs(uint32(2), uint64(7), uint32(2)).
        WillReturnResult(sqlmock.NewResult(0, 1))

    err := NewVenueRepo(db).ReserveTx(context.Background(), tx, 7, 2)
    assert.NoError(t, err)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveTxVenueFull(t *testing.T) {
    // The guarded update touches nothing, and the follow-up existence probe
    // finds the venue, so the pool must be exhausted.
    db, mock, tx := newMockTx(t)
    mock.ExpectExec("UPDATE venues SET available_capacity = available_capacity - ").
        WithArgs(uint32(1), uint64(7), uint32(1)).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery("SELECT id FROM venues WHERE id = ").
        WithArgs(uint64(7)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

    err := NewVenueRepo(db).ReserveTx(context.Background(), tx, 7, 1)
    assert.ErrorIs(t, err, ErrVenueFull)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveTxVenueMissing(t *testing.T) {
    db, mock, tx := newMockTx(t)
    mock.ExpectExec("UPDATE venues SET available_capacity = available_capacity - ").
        WithArgs(uint32(1), uint64(99), uint32(1)).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery("SELECT id FROM venues WHERE id = ").
        WithArgs(uint64(99)).
        WillReturnError(sql.ErrNoRows)

    err := NewVenueRepo(db).ReserveTx(context.Background(), tx, 99, 1)
    assert.ErrorIs(t, err, ErrVenueNotFound)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseTxReturnsSeats(t *testing.T) {
    db, mock, tx := newMockTx(t)
    mock.ExpectExec(`UPDATE venues SET available_capacity = LEAST\(capacity, available_capacity \+ `).
        WithArgs(uint32(1), uint64(7)).
        WillReturnResult(sqlmock.NewResult(0, 1))

    err := NewVenueRepo(db).ReleaseTx(context.Background(), tx, 7, 1)
    assert.NoError(t, err)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseTxMissingVenue(t *testing.T) {
    db, mock, tx := newMockTx(t)
    mock.ExpectExec(`UPDATE venues SET available_capacity = LEAST\(capacity, available_capacity \+ `).
        WithArgs(uint32(1), uint64(42)).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery("SELECT id FROM venues WHERE id = ").
        WithArgs(uint64(42)).
        WillReturnError(sql.ErrNoRows)

    err := NewVenueRepo(db).ReleaseTx(context.Background(), tx, 42, 1)
    assert.ErrorIs(t, err, ErrVenueNotFound)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseTxAlreadyAtCapacity(t *testing.T) {
    // Zero affected rows with the venue still present means the LEAST()
    // clamp left the value unchanged; that is a success, not an error.
    db, mock, tx := newMockTx(t)
    mock.ExpectExec(`UPDATE venues SET available_capacity = LEAST\(capacity, available_capacity \+ `).
        WithArgs(uint32(1), uint64(7)).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery("SELECT id FROM venues WHERE id = ").
        WithArgs(uint64(7)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

    err := NewVenueRepo(db).ReleaseTx(context.Background(), tx, 7, 1)
    assert.NoError(t, err)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicateKey(t *testing.T) {
    dup := &fakeSQLError{"Error 1062 (23000): Duplicate entry 'ABCD2345' for key 'invites.uq_invites_code'"}
    assert.True(t, isDuplicateKey(dup, ""))
    assert.True(t, isDuplicateKey(dup, "uq_invites_code"))
    assert.False(t, isDuplicateKey(dup, "uq_invites_event_email"))
    assert.False(t, isDuplicateKey(nil, ""))
    assert.False(t, isDuplicateKey(&fakeSQLError{"connection refused"}, ""))
}

type fakeSQLError struct{ msg string }

func (e *fakeSQLError) Error() string { return e.msg }
