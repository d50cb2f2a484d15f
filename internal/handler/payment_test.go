package handler

import (
    "database/sql"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/event-venue-booking/internal/model"
    "github.com/iliyamo/event-venue-booking/internal/repository"
)

func newPaymentHandler(db *sql.DB) *PaymentHandler {
    return NewPaymentHandler(
        repository.NewPaymentRepo(db),
        repository.NewInviteRepo(db),
        repository.NewEventRepo(db),
        repository.NewNotificationRepo(db))
}

func newProcessContext(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    return c, rec
}

func TestProcessPaymentRejectsPendingInvite(t *testing.T) {
    // Payment only opens once the invite has been accepted. A pending
    // invite gets 409 before any event lookup or write happens.
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    expectInviteByCode(mock, "ABCD2345", model.InviteStatusPending)

    c, rec := newProcessContext(t, `{"code": "ABCD2345", "amount_cents": 60500}`)
    require.NoError(t, newPaymentHandler(db).Process(c))

    assert.Equal(t, http.StatusConflict, rec.Code)
    var body map[string]string
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, "invite not accepted", body["error"])
    assert.Equal(t, model.InviteStatusPending, body["status"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessPaymentAmountMismatch(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    expectInviteByCode(mock, "ABCD2345", model.InviteStatusAccepted)
    expectEventByID(mock)

    c, rec := newProcessContext(t, `{"code": "ABCD2345", "amount_cents": 100}`)
    require.NoError(t, newPaymentHandler(db).Process(c))

    assert.Equal(t, http.StatusBadRequest, rec.Code)
    var body map[string]interface{}
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, "amount_mismatch", body["error"])
    assert.Equal(t, float64(60500), body["expected_amount"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessPaymentAcceptedInvite(t *testing.T) {
    // Happy path: accepted, unpaid invite with an exact amount. The payment
    // row and the invite's paid flag commit in one transaction.
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    expectInviteByCode(mock, "ABCD2345", model.InviteStatusAccepted)
    expectEventByID(mock)
    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO payments").
        WithArgs(uint64(5), uint32(60500), "CARD", sqlmock.AnyArg(), model.PaymentStatusCompleted, "guest@example.com").
        WillReturnResult(sqlmock.NewResult(11, 1))
    mock.ExpectExec("UPDATE invites SET paid = 1").
        WithArgs(uint64(5)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    // Organiser notification after the commit.
    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO notifications").
        WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectQuery("SELECT id FROM notifications WHERE user_id = ").
        WillReturnError(sql.ErrNoRows)
    mock.ExpectCommit()

    c, rec := newProcessContext(t, `{"code": "ABCD2345", "amount_cents": 60500}`)
    require.NoError(t, newPaymentHandler(db).Process(c))

    assert.Equal(t, http.StatusCreated, rec.Code)
    var body map[string]interface{}
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, float64(11), body["id"])
    assert.Equal(t, model.PaymentStatusCompleted, body["status"])
    assert.NotEmpty(t, body["transaction_id"])
    assert.False(t, body["admin_approved"].(bool))
    assert.NoError(t, mock.ExpectationsWereMet())
}
