package handler

import (
    "context"
    "fmt"
    "log"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-venue-booking/internal/model"
    "github.com/iliyamo/event-venue-booking/internal/repository"
    emailer "github.com/iliyamo/event-venue-booking/internal/service"
)

// PaymentHandler runs the invite payment gate.  The gateway is simulated:
// processing a payment records a COMPLETED row immediately under a
// generated transaction id, and a separate admin approval flips the
// one-way admin_approved flag.
type PaymentHandler struct {
    Payments      *repository.PaymentRepo
    Invites       *repository.InviteRepo
    Events        *repository.EventRepo
    Notifications *repository.NotificationRepo
}

func NewPaymentHandler(p *repository.PaymentRepo, i *repository.InviteRepo,
    e *repository.EventRepo, n *repository.NotificationRepo) *PaymentHandler {
    return &PaymentHandler{Payments: p, Invites: i, Events: e, Notifications: n}
}

type processPaymentReq struct {
    Code        string `json:"code"`
    AmountCents uint32 `json:"amount_cents"`
    Method      string `json:"method"`
}

type approvePaymentReq struct {
    Notes string `json:"notes"`
}

type paymentResp struct {
    ID            uint64     `json:"id"`
    InviteID      uint64     `json:"invite_id"`
    AmountCents   uint32     `json:"amount_cents"`
    Method        string     `json:"method"`
    TransactionID string     `json:"transaction_id"`
    Status        string     `json:"status"`
    PaidBy        string     `json:"paid_by"`
    AdminApproved bool       `json:"admin_approved"`
    ApprovedBy    *uint64    `json:"approved_by,omitempty"`
    ApprovalDate  *time.Time `json:"approval_date,omitempty"`
    Notes         string     `json:"notes,omitempty"`
    CreatedAt     time.Time  `json:"created_at"`
}

func toPaymentResp(p model.Payment) paymentResp {
    return paymentResp{
        ID:            p.ID,
        InviteID:      p.InviteID,
        AmountCents:   p.AmountCents,
        Method:        p.Method,
        TransactionID: p.TransactionID,
        Status:        p.Status,
        PaidBy:        p.PaidBy,
        AdminApproved: p.AdminApproved,
        ApprovedBy:    p.ApprovedBy,
        ApprovalDate:  p.ApprovalDate,
        Notes:         p.Notes,
        CreatedAt:     p.CreatedAt,
    }
}

// Process takes payment for an accepted invite.  The invite must be
// ACCEPTED, the event must carry a non-zero price, and the tendered amount
// must match it exactly — a mismatch reports the expected amount so the
// client can retry.  The payment insert and the invite's paid flag commit
// in one transaction; the unique key on invite_id makes a second payment
// impossible.
func (h *PaymentHandler) Process(c echo.Context) error {
    var req processPaymentReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Code = strings.TrimSpace(req.Code)
    req.Method = strings.ToUpper(strings.TrimSpace(req.Method))
    if req.Code == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
    }
    if req.Method == "" {
        req.Method = "CARD"
    }

    ctx := c.Request().Context()
    inv, err := h.Invites.GetByCode(ctx, req.Code)
    if err != nil {
        if err == repository.ErrInviteNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if inv.Status != model.InviteStatusAccepted {
        return c.JSON(http.StatusConflict, echo.Map{"error": "invite not accepted", "status": inv.Status})
    }
    if inv.Paid {
        return c.JSON(http.StatusConflict, echo.Map{"error": "already paid"})
    }
    event, err := h.Events.GetByID(ctx, inv.EventID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if event.PriceCents == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "no payment required"})
    }
    if req.AmountCents != event.PriceCents {
        return c.JSON(http.StatusBadRequest, echo.Map{
            "error":           "amount_mismatch",
            "expected_amount": event.PriceCents,
        })
    }

    tx, err := h.Payments.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    p := model.Payment{
        InviteID:      inv.ID,
        AmountCents:   req.AmountCents,
        Method:        req.Method,
        TransactionID: uuid.NewString(),
        Status:        model.PaymentStatusCompleted,
        PaidBy:        inv.Email,
    }
    if err := h.Payments.CreateTx(ctx, tx, &p); err != nil {
        if err == repository.ErrDuplicatePayment {
            return c.JSON(http.StatusConflict, echo.Map{"error": "already paid"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment failed"})
    }
    if err := h.Invites.MarkPaidTx(ctx, tx, inv.ID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment failed"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
    }
    committed = true

    if err := h.Notifications.Push(ctx, inv.SentBy, "payment_received",
        fmt.Sprintf("%s paid %d cents for invite %s", inv.Email, p.AmountCents, inv.Code)); err != nil {
        log.Printf("notification push failed: %v", err)
    }

    go func(to, txnID, title string, amount uint32) {
        ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        _ = emailer.Send(ctx, to,
            "Payment received",
            fmt.Sprintf("Payment of %d cents for %q received. Transaction %s.", amount, title, txnID),
            fmt.Sprintf("<p>Payment of <b>%d</b> cents for <b>%s</b> received.</p><p>Transaction: %s</p>", amount, title, txnID),
            "payment_received")
    }(inv.Email, p.TransactionID, event.Title, p.AmountCents)

    return c.JSON(http.StatusCreated, toPaymentResp(p))
}

// Approve flips the one-way admin approval flag on a payment.  Of two
// racing approvals exactly one wins; the loser gets 409 and no state is
// re-applied.
func (h *PaymentHandler) Approve(c echo.Context) error {
    adminID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req approvePaymentReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx := c.Request().Context()
    switch err := h.Payments.Approve(ctx, id, adminID, strings.TrimSpace(req.Notes)); err {
    case nil:
    case repository.ErrPaymentNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
    case repository.ErrAlreadyApproved:
        return c.JSON(http.StatusConflict, echo.Map{"error": "already approved"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "approve failed"})
    }

    p, err := h.Payments.GetByID(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if inv, err := h.Invites.GetByID(ctx, p.InviteID); err == nil {
        if err := h.Notifications.Push(ctx, inv.SentBy, "payment_approved",
            fmt.Sprintf("payment %d for invite %s approved", p.ID, inv.Code)); err != nil {
            log.Printf("notification push failed: %v", err)
        }
        go func(to, txnID string) {
            ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
            defer cancel()
            _ = emailer.Send(ctx, to,
                "Payment approved",
                fmt.Sprintf("Your payment (transaction %s) has been approved.", txnID),
                fmt.Sprintf("<p>Your payment (transaction %s) has been approved.</p>", txnID),
                "payment_approved")
        }(inv.Email, p.TransactionID)
    }

    return c.JSON(http.StatusOK, toPaymentResp(p))
}

// Get returns a single payment for admin review.
func (h *PaymentHandler) Get(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    p, err := h.Payments.GetByID(c.Request().Context(), id)
    if err != nil {
        if err == repository.ErrPaymentNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, toPaymentResp(p))
}

// ListPending returns the admin approval queue, oldest first.
func (h *PaymentHandler) ListPending(c echo.Context) error {
    payments, err := h.Payments.ListPending(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list payments failed"})
    }
    out := make([]paymentResp, 0, len(payments))
    for _, p := range payments {
        out = append(out, toPaymentResp(p))
    }
    return c.JSON(http.StatusOK, out)
}
