package handler

import (
    "encoding/json"
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

var requestColumns = []string{
    "id", "client_email", "venue_id", "status", "estimated_guests", "budget_cents",
    "venue_charge_cents", "service_charge_cents", "additional_charge_cents", "discount_cents", "tax_bp",
    "total_cost_cents", "invite_code", "payment_status", "is_paid", "paid_at", "share_guest_list",
    "created_at", "updated_at",
}

func requestRow(email string, share bool) *sqlmock.Rows {
    now := time.Now().UTC()
    return sqlmock.NewRows(requestColumns).AddRow(
        8, email, 3, model.RequestStatusApproved, 50, 100000,
        40000, 10000, 7500, 2500, 1000,
        60500, "ABCD2345", model.RequestPaymentCompleted, true, now, share,
        now, now)
}

func newGuestContext(t *testing.T, role, email, requestID string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetParamNames("id")
    c.SetParamValues(requestID)
    c.Set("role", role)
    c.Set("email", email)
    return c, rec
}

func TestGuestListAdminGetsCountOnlyWhenNotShared(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectQuery("FROM event_requests WHERE id = ").
        WithArgs(uint64(8)).
        WillReturnRows(requestRow("client@example.com", false))
    mock.ExpectQuery(`SELECT COUNT\(\*\) FROM guests WHERE event_request_id = `).
        WithArgs(uint64(8)).
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

    h := NewGuestHandler(config.Config{InviteCodeLen: 8},
        repository.NewGuestRepo(db), repository.NewEventRequestRepo(db))
    c, rec := newGuestContext(t, model.RoleAdmin, "admin@example.com", "8")

    require.NoError(t, h.List(c))
    assert.Equal(t, http.StatusOK, rec.Code)

    var body map[string]int
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, 3, body["count"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuestListAdminGetsFullListWhenShared(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    now := time.Now().UTC()
    mock.ExpectQuery("FROM event_requests WHERE id = ").
        WithArgs(uint64(8)).
        WillReturnRows(requestRow("client@example.com", true))
    mock.ExpectQuery("FROM guests WHERE event_request_id = ").
        WithArgs(uint64(8)).
        WillReturnRows(sqlmock.NewRows([]string{
            "id", "event_request_id", "name", "phone", "email", "invite_code",
            "invite_sent", "invite_accepted", "attending", "created_at",
        }).
            AddRow(1, 8, "Ada", "123", nil, "CODE2345", false, false, false, now).
            AddRow(2, 8, "Grace", "456", "g@example.com", "CODE6789", true, true, false, now))

    h := NewGuestHandler(config.Config{InviteCodeLen: 8},
        repository.NewGuestRepo(db), repository.NewEventRequestRepo(db))
    c, rec := newGuestContext(t, model.RoleAdmin, "admin@example.com", "8")

    require.NoError(t, h.List(c))
    assert.Equal(t, http.StatusOK, rec.Code)

    var body []map[string]interface{}
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    require.Len(t, body, 2)
    assert.Equal(t, "Ada", body[0]["name"])
    assert.Equal(t, "Grace", body[1]["name"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuestListOwnerAlwaysSeesRoster(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    now := time.Now().UTC()
    mock.ExpectQuery("FROM event_requests WHERE id = ").
        WithArgs(uint64(8)).
        WillReturnRows(requestRow("client@example.com", false))
    mock.ExpectQuery("FROM guests WHERE event_request_id = ").
        WithArgs(uint64(8)).
        WillReturnRows(sqlmock.NewRows([]string{
            "id", "event_request_id", "name", "phone", "email", "invite_code",
            "invite_sent", "invite_accepted", "attending", "created_at",
        }).AddRow(1, 8, "Ada", "123", nil, "CODE2345", false, false, false, now))

    h := NewGuestHandler(config.Config{InviteCodeLen: 8},
        repository.NewGuestRepo(db), repository.NewEventRequestRepo(db))
    c, rec := newGuestContext(t, model.RoleCustomer, "client@example.com", "8")

    require.NoError(t, h.List(c))
    assert.Equal(t, http.StatusOK, rec.Code)

    var body []map[string]interface{}
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    require.Len(t, body, 1)
    assert.Equal(t, "CODE2345", body[0]["invite_code"])
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuestAddAdminForbidden(t *testing.T) {
    // Add echoes the full roster back, so it is owner-only: an admin with a
    // valid guest payload is turned away before any rows are written, even
    // when the client keeps share_guest_list off.
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectQuery("FROM event_requests WHERE id = ").
        WithArgs(uint64(8)).
        WillReturnRows(requestRow("client@example.com", false))

    h := NewGuestHandler(config.Config{InviteCodeLen: 8},
        repository.NewGuestRepo(db), repository.NewEventRequestRepo(db))

    e := echo.New()
    body := strings.NewReader(`{"guests": [{"name": "Ada", "phone": "123"}]}`)
    req := httptest.NewRequest(http.MethodPost, "/", body)
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetParamNames("id")
    c.SetParamValues("8")
    c.Set("role", model.RoleAdmin)
    c.Set("email", "admin@example.com")

    require.NoError(t, h.Add(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuestListStrangerForbidden(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectQuery("FROM event_requests WHERE id = ").
        WithArgs(uint64(8)).
        WillReturnRows(requestRow("client@example.com", true))

    h := NewGuestHandler(config.Config{InviteCodeLen: 8},
        repository.NewGuestRepo(db), repository.NewEventRequestRepo(db))
    c, rec := newGuestContext(t, model.RoleCustomer, "other@example.com", "8")

    require.NoError(t, h.List(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.NoError(t, mock.ExpectationsWereMet())
}
