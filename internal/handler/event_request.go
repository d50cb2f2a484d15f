package handler

import (
    "context"
    "fmt"
    "log"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-venue-booking/internal/config"
    "github.com/iliyamo/event-venue-booking/internal/model"
    "github.com/iliyamo/event-venue-booking/internal/pricing"
    "github.com/iliyamo/event-venue-booking/internal/repository"
    emailer "github.com/iliyamo/event-venue-booking/internal/service"
    "github.com/iliyamo/event-venue-booking/internal/utils"
)

// defaultTaxBP is applied when a request does not specify its own tax rate
// (10% in basis points).
const defaultTaxBP uint32 = 1000

// EventRequestHandler runs the custom-booking track: clients file a request
// against a venue, admins move it through the status machine, adjust its
// charges and approve its payment.  Filing a request claims one seat from
// the venue pool; transitions into REJECTED or CANCELLED give it back.
type EventRequestHandler struct {
    Cfg           config.Config
    Requests      *repository.EventRequestRepo
    Venues        *repository.VenueRepo
    Users         *repository.UserRepo
    Notifications *repository.NotificationRepo
}

func NewEventRequestHandler(cfg config.Config, r *repository.EventRequestRepo,
    v *repository.VenueRepo, u *repository.UserRepo, n *repository.NotificationRepo) *EventRequestHandler {
    return &EventRequestHandler{Cfg: cfg, Requests: r, Venues: v, Users: u, Notifications: n}
}

type createRequestReq struct {
    VenueID               uint64  `json:"venue_id"`
    EstimatedGuests       uint32  `json:"estimated_guests"`
    BudgetCents           uint64  `json:"budget_cents"`
    VenueChargeCents      uint64  `json:"venue_charge_cents"`
    ServiceChargeCents    uint64  `json:"service_charge_cents"`
    AdditionalChargeCents uint64  `json:"additional_charge_cents"`
    DiscountCents         uint64  `json:"discount_cents"`
    TaxBP                 *uint32 `json:"tax_bp"`
    ShareGuestList        bool    `json:"share_guest_list"`
}

type updateStatusReq struct {
    Status string `json:"status"`
}

type updateChargesReq struct {
    VenueChargeCents      uint64  `json:"venue_charge_cents"`
    ServiceChargeCents    uint64  `json:"service_charge_cents"`
    AdditionalChargeCents uint64  `json:"additional_charge_cents"`
    DiscountCents         uint64  `json:"discount_cents"`
    TaxBP                 *uint32 `json:"tax_bp"`
}

type requestResp struct {
    ID                    uint64     `json:"id"`
    ClientEmail           string     `json:"client_email"`
    VenueID               uint64     `json:"venue_id"`
    Status                string     `json:"status"`
    EstimatedGuests       uint32     `json:"estimated_guests"`
    BudgetCents           uint64     `json:"budget_cents"`
    VenueChargeCents      uint64     `json:"venue_charge_cents"`
    ServiceChargeCents    uint64     `json:"service_charge_cents"`
    AdditionalChargeCents uint64     `json:"additional_charge_cents"`
    DiscountCents         uint64     `json:"discount_cents"`
    TaxBP                 uint32     `json:"tax_bp"`
    TotalCostCents        uint64     `json:"total_cost_cents"`
    InviteCode            string     `json:"invite_code"`
    PaymentStatus         string     `json:"payment_status"`
    IsPaid                bool       `json:"is_paid"`
    PaidAt                *time.Time `json:"paid_at,omitempty"`
    ShareGuestList        bool       `json:"share_guest_list"`
    CreatedAt             time.Time  `json:"created_at"`
}

func toRequestResp(r model.EventRequest) requestResp {
    return requestResp{
        ID:                    r.ID,
        ClientEmail:           r.ClientEmail,
        VenueID:               r.VenueID,
        Status:                r.Status,
        EstimatedGuests:       r.EstimatedGuests,
        BudgetCents:           r.BudgetCents,
        VenueChargeCents:      r.VenueChargeCents,
        ServiceChargeCents:    r.ServiceChargeCents,
        AdditionalChargeCents: r.AdditionalChargeCents,
        DiscountCents:         r.DiscountCents,
        TaxBP:                 r.TaxBP,
        TotalCostCents:        r.TotalCostCents,
        InviteCode:            r.InviteCode,
        PaymentStatus:         r.PaymentStatus,
        IsPaid:                r.IsPaid,
        PaidAt:                r.PaidAt,
        ShareGuestList:        r.ShareGuestList,
        CreatedAt:             r.CreatedAt,
    }
}

// canView reports whether the caller may see the given request: admins see
// everything, clients only their own.
func canView(c echo.Context, r model.EventRequest) bool {
    return isAdmin(c) || getEmail(c) == r.ClientEmail
}

// Create files a new request.  The derived total is computed here through
// the pricing rules (never stored piecemeal), and one seat is reserved on
// the venue pool in the same transaction as the insert — a full venue
// rejects the request outright.
func (h *EventRequestHandler) Create(c echo.Context) error {
    email := getEmail(c)
    if email == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createRequestReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.VenueID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "venue_id required"})
    }
    if req.EstimatedGuests == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "estimated_guests required"})
    }
    taxBP := defaultTaxBP
    if req.TaxBP != nil {
        taxBP = *req.TaxBP
    }

    ctx := c.Request().Context()
    venue, err := h.Venues.GetByID(ctx, req.VenueID)
    if err != nil {
        if err == repository.ErrVenueNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if req.EstimatedGuests > venue.Capacity {
        return c.JSON(http.StatusBadRequest, echo.Map{
            "error":    "estimated guests exceed venue capacity",
            "capacity": venue.Capacity,
        })
    }

    er := model.EventRequest{
        ClientEmail:           email,
        VenueID:               req.VenueID,
        EstimatedGuests:       req.EstimatedGuests,
        BudgetCents:           req.BudgetCents,
        VenueChargeCents:      req.VenueChargeCents,
        ServiceChargeCents:    req.ServiceChargeCents,
        AdditionalChargeCents: req.AdditionalChargeCents,
        DiscountCents:         req.DiscountCents,
        TaxBP:                 taxBP,
        ShareGuestList:        req.ShareGuestList,
    }
    er.TotalCostCents = pricing.Total(er.VenueChargeCents, er.ServiceChargeCents,
        er.AdditionalChargeCents, er.DiscountCents, er.TaxBP)

    for attempt := 0; attempt < utils.MaxCodeAttempts; attempt++ {
        code, err := utils.NewCode(h.Cfg.InviteCodeLen)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "code generation failed"})
        }
        er.InviteCode = code

        tx, err := h.Requests.DB().BeginTx(ctx, nil)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
        }
        if err := h.Venues.ReserveTx(ctx, tx, req.VenueID, 1); err != nil {
            _ = tx.Rollback()
            if err == repository.ErrVenueFull {
                return c.JSON(http.StatusConflict, echo.Map{"error": "venue_full"})
            }
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reserve failed"})
        }
        err = h.Requests.CreateTx(ctx, tx, &er)
        if err == repository.ErrCodeExists {
            _ = tx.Rollback()
            if attempt == utils.MaxCodeAttempts-1 {
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": utils.ErrCodeCollision.Error()})
            }
            continue
        }
        if err != nil {
            _ = tx.Rollback()
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create request failed"})
        }
        if err := tx.Commit(); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
        }
        break
    }

    go func(to, code string, total uint64) {
        ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        _ = emailer.Send(ctx, to,
            "Booking request received",
            fmt.Sprintf("Your booking request was received. Reference code %s, estimated total %d cents.", code, total),
            fmt.Sprintf("<p>Your booking request was received.</p><p>Reference code: <b>%s</b></p><p>Estimated total: %d cents</p>", code, total),
            "request_created")
    }(er.ClientEmail, er.InviteCode, er.TotalCostCents)

    return c.JSON(http.StatusCreated, toRequestResp(er))
}

// Get returns one request, visible to admins and the owning client only.
func (h *EventRequestHandler) Get(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    r, err := h.Requests.GetByID(c.Request().Context(), id)
    if err != nil {
        if err == repository.ErrRequestNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !canView(c, r) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your request"})
    }
    return c.JSON(http.StatusOK, toRequestResp(r))
}

// List returns the caller's requests; admins get everyone's.
func (h *EventRequestHandler) List(c echo.Context) error {
    ctx := c.Request().Context()
    var (
        requests []model.EventRequest
        err      error
    )
    if isAdmin(c) {
        requests, err = h.Requests.ListAll(ctx)
    } else {
        requests, err = h.Requests.ListByClient(ctx, getEmail(c))
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list requests failed"})
    }
    out := make([]requestResp, 0, len(requests))
    for _, r := range requests {
        out = append(out, toRequestResp(r))
    }
    return c.JSON(http.StatusOK, out)
}

// UpdateStatus moves a request through the status machine.  Admins may
// apply any legal transition; clients may only cancel their own request.
// Entering REJECTED or CANCELLED returns the reserved seat to the venue
// pool within the same transaction as the status flip.
func (h *EventRequestHandler) UpdateStatus(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req updateStatusReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    to := strings.ToUpper(strings.TrimSpace(req.Status))
    if !model.ValidRequestStatus(to) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
    }

    ctx := c.Request().Context()
    r, err := h.Requests.GetByID(ctx, id)
    if err != nil {
        if err == repository.ErrRequestNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !isAdmin(c) {
        // Clients can only cancel their own request.
        if getEmail(c) != r.ClientEmail || to != model.RequestStatusCancelled {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
    }
    if !model.CanTransitionRequest(r.Status, to) {
        return c.JSON(http.StatusConflict, echo.Map{
            "error": "illegal transition",
            "from":  r.Status,
            "to":    to,
        })
    }

    tx, err := h.Requests.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if err := h.Requests.UpdateStatusTx(ctx, tx, id, r.Status, to); err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "status changed concurrently"})
        }
        if err == repository.ErrRequestNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    if to == model.RequestStatusRejected || to == model.RequestStatusCancelled {
        if err := h.Venues.ReleaseTx(ctx, tx, r.VenueID, 1); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
        }
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
    }
    committed = true

    h.notifyClient(ctx, r.ClientEmail, "request_"+strings.ToLower(to),
        fmt.Sprintf("booking request %s is now %s", r.InviteCode, to))

    go func(to_, code, status string) {
        ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        _ = emailer.Send(ctx, to_,
            "Booking request "+strings.ToLower(status),
            fmt.Sprintf("Your booking request %s is now %s.", code, status),
            fmt.Sprintf("<p>Your booking request <b>%s</b> is now <b>%s</b>.</p>", code, status),
            "request_status")
    }(r.ClientEmail, r.InviteCode, to)

    return c.JSON(http.StatusOK, echo.Map{"id": id, "status": to})
}

// UpdateCharges overwrites the charge components; the total is always
// recomputed in full from the new components, never adjusted in place.
func (h *EventRequestHandler) UpdateCharges(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req updateChargesReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx := c.Request().Context()
    r, err := h.Requests.GetByID(ctx, id)
    if err != nil {
        if err == repository.ErrRequestNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if model.RequestIsTerminal(r.Status) {
        return c.JSON(http.StatusConflict, echo.Map{"error": "request is closed", "status": r.Status})
    }
    if r.IsPaid {
        return c.JSON(http.StatusConflict, echo.Map{"error": "request already paid"})
    }

    taxBP := r.TaxBP
    if req.TaxBP != nil {
        taxBP = *req.TaxBP
    }
    total := pricing.Total(req.VenueChargeCents, req.ServiceChargeCents,
        req.AdditionalChargeCents, req.DiscountCents, taxBP)
    if err := h.Requests.UpdateCharges(ctx, id, req.VenueChargeCents, req.ServiceChargeCents,
        req.AdditionalChargeCents, req.DiscountCents, taxBP, total); err != nil {
        if err == repository.ErrRequestNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }

    h.notifyClient(ctx, r.ClientEmail, "request_charges_updated",
        fmt.Sprintf("charges on booking request %s updated, new total %d cents", r.InviteCode, total))

    updated, err := h.Requests.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, toRequestResp(updated))
}

// ApprovePayment finalizes the client's payment on a request: the payment
// status flips to COMPLETED and the request itself moves to APPROVED in one
// guarded update.  A second approval gets 409, as does an approval against
// a request already in a terminal status.
func (h *EventRequestHandler) ApprovePayment(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx := c.Request().Context()
    switch err := h.Requests.ApprovePayment(ctx, id); err {
    case nil:
    case repository.ErrRequestNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
    case repository.ErrNoPendingPayment:
        return c.JSON(http.StatusConflict, echo.Map{"error": "no pending payment"})
    case repository.ErrConflict:
        return c.JSON(http.StatusConflict, echo.Map{"error": "illegal transition"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "approve failed"})
    }

    r, err := h.Requests.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    h.notifyClient(ctx, r.ClientEmail, "request_payment_approved",
        fmt.Sprintf("payment on booking request %s approved", r.InviteCode))

    go func(to, code string) {
        ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        _ = emailer.Send(ctx, to,
            "Payment approved",
            fmt.Sprintf("Payment on your booking request %s has been approved.", code),
            fmt.Sprintf("<p>Payment on your booking request <b>%s</b> has been approved.</p>", code),
            "request_payment_approved")
    }(r.ClientEmail, r.InviteCode)

    return c.JSON(http.StatusOK, toRequestResp(r))
}

// notifyClient pushes into the client's notification log when the email
// maps to a registered user.  Guests without accounts only get email.
func (h *EventRequestHandler) notifyClient(ctx context.Context, email, kind, message string) {
    u, err := h.Users.GetByEmail(ctx, email)
    if err != nil {
        return
    }
    if err := h.Notifications.Push(ctx, u.ID, kind, message); err != nil {
        log.Printf("notification push failed: %v", err)
    }
}
