package handler

import (
    "database/sql"
    "encoding/json"
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/event-venue-booking/internal/config"
    "github.com/iliyamo/event-venue-booking/internal/model"
    "github.com/iliyamo/event-venue-booking/internal/repository"
)

func newInviteHandler(db *sql.DB) *InviteHandler {
    return NewInviteHandler(config.Config{InviteCodeLen: 8},
        repository.NewInviteRepo(db),
        repository.NewEventRepo(db),
        repository.NewVenueRepo(db),
        repository.NewNotificationRepo(db))
}

func newRespondContext(t *testing.T, code, body string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetParamNames("code")
    c.SetParamValues(code)
    return c, rec
}

func expectInviteByCode(mock sqlmock.Sqlmock, code, status string) {
    now := time.Now().UTC()
    mock.ExpectQuery("FROM invites WHERE code = ").
        WithArgs(code).
        WillReturnRows(sqlmock.NewRows([]string{
            "id", "code", "event_id", "email", "status", "sent_by",
            "sent_date", "response_date", "paid", "created_at", "updated_at",
        }).AddRow(5, code, 9, "guest@example.com", status, 2, now, nil, false, now, now))
}

func expectEventByID(mock sqlmock.Sqlmock) {
    now := time.Now().UTC()
    mock.ExpectQuery("FROM events WHERE id = ").
        WithArgs(uint64(9)).
        WillReturnRows(sqlmock.NewRows([]string{
            "id", "venue_id", "organiser_id", "title", "description",
            "starts_at", "price_cents", "registered", "created_at", "updated_at",
        }).AddRow(9, 3, 2, "Launch Night", "", nil, 60500, 10, now, now))
}

func TestCreateInviteDuplicateReturnsExistingCode(t *testing.T) {
    // A second invite for the same (event, email) pair trips
    // uq_invites_event_email; the handler answers 400 and attaches the code
    // of the invite that already exists instead of minting another one.
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    now := time.Now().UTC()
    mock.ExpectQuery("FROM events e JOIN venues v").
        WithArgs(uint64(9)).
        WillReturnRows(sqlmock.NewRows([]string{
            "id", "venue_id", "organiser_id", "title", "description",
            "starts_at", "price_cents", "registered", "created_at", "updated_at", "available_capacity",
        }).AddRow(9, 3, 2, "Launch Night", "", nil, 60500, 10, now, now, 5))
    mock.ExpectExec("INSERT INTO invites").
        WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '9-guest@example.com' for key 'uq_invites_event_email'"))
    mock.ExpectQuery("FROM invites WHERE event_id = ").
        WithArgs(uint64(9), "guest@example.com").
        WillReturnRows(sqlmock.NewRows([]string{
            "id", "code", "event_id", "email", "status", "sent_by",
            "sent_date", "response_date", "paid", "created_at", "updated_at",
        }).AddRow(5, "ZZZZ9999", 9, "guest@example.com", model.InviteStatusPending, 2, now, nil, false, now, now))

    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/",
        strings.NewReader(`{"event_id": 9, "email": "guest@example.com"}`))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.Set("user_id", uint64(2))

    require.NoError(t, newInviteHandler(db).Create(c))

    assert.Equal(t, http.StatusBadRequest, rec.Code)
    var body map[string]string
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, "invite already exists", body["error"])
    assert.Equal(t, "ZZZZ9999", body["code"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondAcceptClaimsSeat(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    expectInviteByCode(mock, "ABCD2345", model.InviteStatusPending)
    expectEventByID(mock)
    mock.ExpectBegin()
    mock.ExpectExec("UPDATE invites SET status = ").
        WithArgs(model.InviteStatusAccepted, "ABCD2345", model.InviteStatusPending).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("UPDATE venues SET available_capacity = available_capacity - ").
        WithArgs(uint32(1), uint64(3), uint32(1)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("UPDATE events SET registered = registered ").
        WithArgs(uint32(1), uint64(9)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    // Organiser notification after the commit.
    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO notifications").
        WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectQuery("SELECT id FROM notifications WHERE user_id = ").
        WillReturnError(sql.ErrNoRows)
    mock.ExpectCommit()

    c, rec := newRespondContext(t, "ABCD2345", `{"response":"ACCEPT"}`)
    require.NoError(t, newInviteHandler(db).Respond(c))

    assert.Equal(t, http.StatusOK, rec.Code)
    var body map[string]interface{}
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, model.InviteStatusAccepted, body["status"])
    assert.Equal(t, true, body["requires_payment"])
    assert.Equal(t, float64(60500), body["payment_due_cents"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondAcceptVenueFullRollsBack(t *testing.T) {
    // The invite status flip succeeds inside the transaction, but the seat
    // claim finds the pool empty. The whole transaction rolls back and the
    // invite stays pending.
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    expectInviteByCode(mock, "ABCD2345", model.InviteStatusPending)
    expectEventByID(mock)
    mock.ExpectBegin()
    mock.ExpectExec("UPDATE invites SET status = ").
        WithArgs(model.InviteStatusAccepted, "ABCD2345", model.InviteStatusPending).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectExec("UPDATE venues SET available_capacity = available_capacity - ").
        WithArgs(uint32(1), uint64(3), uint32(1)).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectQuery("SELECT id FROM venues WHERE id = ").
        WithArgs(uint64(3)).
        WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
    mock.ExpectRollback()

    c, rec := newRespondContext(t, "ABCD2345", `{"response":"ACCEPT"}`)
    require.NoError(t, newInviteHandler(db).Respond(c))

    assert.Equal(t, http.StatusConflict, rec.Code)
    var body map[string]string
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, "venue_full", body["error"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondDeclineSkipsCapacity(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    expectInviteByCode(mock, "ABCD2345", model.InviteStatusPending)
    expectEventByID(mock)
    mock.ExpectBegin()
    mock.ExpectExec("UPDATE invites SET status = ").
        WithArgs(model.InviteStatusDeclined, "ABCD2345", model.InviteStatusPending).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO notifications").
        WillReturnResult(sqlmock.NewResult(1, 1))
    mock.ExpectQuery("SELECT id FROM notifications WHERE user_id = ").
        WillReturnError(sql.ErrNoRows)
    mock.ExpectCommit()

    c, rec := newRespondContext(t, "ABCD2345", `{"response":"DECLINE"}`)
    require.NoError(t, newInviteHandler(db).Respond(c))

    assert.Equal(t, http.StatusOK, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondTerminalInviteConflict(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    expectInviteByCode(mock, "ABCD2345", model.InviteStatusAccepted)

    c, rec := newRespondContext(t, "ABCD2345", `{"response":"DECLINE"}`)
    require.NoError(t, newInviteHandler(db).Respond(c))

    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondRejectsUnknownVerb(t *testing.T) {
    db, _, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    c, rec := newRespondContext(t, "ABCD2345", `{"response":"MAYBE"}`)
    require.NoError(t, newInviteHandler(db).Respond(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}
