package handler

import (
    "context"
    "fmt"
    "log"
    "net/http"
    "net/mail"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-venue-booking/internal/config"
    "github.com/iliyamo/event-venue-booking/internal/model"
    "github.com/iliyamo/event-venue-booking/internal/repository"
    emailer "github.com/iliyamo/event-venue-booking/internal/service"
    "github.com/iliyamo/event-venue-booking/internal/utils"
)

// InviteHandler runs the direct-invite reservation track: create, verify,
// respond, revoke.  Accepting an invite is the contended path — it claims a
// seat from the venue pool inside one transaction, so two racing acceptors
// of the last seat resolve to exactly one winner.
type InviteHandler struct {
    Cfg           config.Config
    Invites       *repository.InviteRepo
    Events        *repository.EventRepo
    Venues        *repository.VenueRepo
    Notifications *repository.NotificationRepo
}

func NewInviteHandler(cfg config.Config, i *repository.InviteRepo, e *repository.EventRepo,
    v *repository.VenueRepo, n *repository.NotificationRepo) *InviteHandler {
    return &InviteHandler{Cfg: cfg, Invites: i, Events: e, Venues: v, Notifications: n}
}

type createInviteReq struct {
    EventID uint64 `json:"event_id"`
    Email   string `json:"email"`
}

type respondInviteReq struct {
    Response string `json:"response"` // ACCEPT | DECLINE
}

type inviteResp struct {
    ID           uint64     `json:"id"`
    Code         string     `json:"code"`
    EventID      uint64     `json:"event_id"`
    Email        string     `json:"email"`
    Status       string     `json:"status"`
    SentDate     time.Time  `json:"sent_date"`
    ResponseDate *time.Time `json:"response_date,omitempty"`
    Paid         bool       `json:"paid"`
}

func toInviteResp(inv model.Invite) inviteResp {
    return inviteResp{
        ID:           inv.ID,
        Code:         inv.Code,
        EventID:      inv.EventID,
        Email:        inv.Email,
        Status:       inv.Status,
        SentDate:     inv.SentDate,
        ResponseDate: inv.ResponseDate,
        Paid:         inv.Paid,
    }
}

// Create issues an invite for an event.  Rejected up front when the venue
// pool is already empty; a duplicate (event, email) pair returns the
// existing invite's code instead of minting a second one.  Code generation
// retries on the rare unique-key collision.
func (h *InviteHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createInviteReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.EventID == 0 || req.Email == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id and email required"})
    }
    if _, err := mail.ParseAddress(req.Email); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
    }

    ctx := c.Request().Context()
    event, available, err := h.Events.GetWithAvailability(ctx, req.EventID)
    if err != nil {
        if err == repository.ErrEventNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if available == 0 {
        return c.JSON(http.StatusConflict, echo.Map{"error": "venue_full"})
    }

    inv := model.Invite{EventID: req.EventID, Email: req.Email, SentBy: uid}
    for attempt := 0; attempt < utils.MaxCodeAttempts; attempt++ {
        code, err := utils.NewCode(h.Cfg.InviteCodeLen)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "code generation failed"})
        }
        inv.Code = code
        err = h.Invites.Create(ctx, &inv)
        if err == nil {
            break
        }
        if err == repository.ErrDuplicateInvite {
            existing, lookErr := h.Invites.GetByEventAndEmail(ctx, req.EventID, req.Email)
            resp := echo.Map{"error": "invite already exists"}
            if lookErr == nil {
                resp["code"] = existing.Code
            }
            return c.JSON(http.StatusBadRequest, resp)
        }
        if err == repository.ErrCodeExists {
            if attempt == utils.MaxCodeAttempts-1 {
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": utils.ErrCodeCollision.Error()})
            }
            continue
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create invite failed"})
    }

    go func(to, code, title string) {
        ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        _ = emailer.Send(ctx, to,
            "You are invited: "+title,
            fmt.Sprintf("You have been invited to %q. Use code %s to respond.", title, code),
            fmt.Sprintf("<p>You have been invited to <b>%s</b>.</p><p>Your invite code: <b>%s</b></p>", title, code),
            "invite_created")
    }(inv.Email, inv.Code, event.Title)

    return c.JSON(http.StatusCreated, toInviteResp(inv))
}

// Verify is the public lookup by code.  It returns the invite together
// with a small event summary so the invitee can decide without an account.
func (h *InviteHandler) Verify(c echo.Context) error {
    code := strings.TrimSpace(c.Param("code"))
    if code == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
    }
    ctx := c.Request().Context()
    inv, err := h.Invites.GetByCode(ctx, code)
    if err != nil {
        if err == repository.ErrInviteNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    event, available, err := h.Events.GetWithAvailability(ctx, inv.EventID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "invite": toInviteResp(inv),
        "event": echo.Map{
            "id":          event.ID,
            "title":       event.Title,
            "starts_at":   event.StartsAt,
            "price_cents": event.PriceCents,
        },
        "available_capacity": available,
    })
}

// Respond accepts or declines an invite by code.  An accept flips the
// invite out of PENDING and claims one seat from the venue pool in the same
// transaction; if the pool is empty the whole transaction rolls back and
// the invite stays pending so the invitee can decline later.  A decline
// touches no capacity.
func (h *InviteHandler) Respond(c echo.Context) error {
    code := strings.TrimSpace(c.Param("code"))
    var req respondInviteReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    var newStatus string
    switch strings.ToUpper(strings.TrimSpace(req.Response)) {
    case "ACCEPT", model.InviteStatusAccepted:
        newStatus = model.InviteStatusAccepted
    case "DECLINE", model.InviteStatusDeclined:
        newStatus = model.InviteStatusDeclined
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "response must be ACCEPT or DECLINE"})
    }

    ctx := c.Request().Context()
    inv, err := h.Invites.GetByCode(ctx, code)
    if err != nil {
        if err == repository.ErrInviteNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if model.InviteIsTerminal(inv.Status) {
        return c.JSON(http.StatusConflict, echo.Map{"error": "already responded", "status": inv.Status})
    }
    event, err := h.Events.GetByID(ctx, inv.EventID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    tx, err := h.Venues.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if err := h.Invites.RespondTx(ctx, tx, code, newStatus); err != nil {
        if err == repository.ErrAlreadyResponded {
            return c.JSON(http.StatusConflict, echo.Map{"error": "already responded"})
        }
        if err == repository.ErrInviteNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "respond failed"})
    }
    if newStatus == model.InviteStatusAccepted {
        if err := h.Venues.ReserveTx(ctx, tx, event.VenueID, 1); err != nil {
            if err == repository.ErrVenueFull {
                // Rollback leaves the invite pending.
                return c.JSON(http.StatusConflict, echo.Map{"error": "venue_full"})
            }
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reserve failed"})
        }
        if err := h.Events.IncrementRegisteredTx(ctx, tx, event.ID, 1); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reserve failed"})
        }
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
    }
    committed = true

    if err := h.Notifications.Push(ctx, inv.SentBy, "invite_"+strings.ToLower(newStatus),
        fmt.Sprintf("%s %s invite %s for %q", inv.Email, strings.ToLower(newStatus), inv.Code, event.Title)); err != nil {
        log.Printf("notification push failed: %v", err)
    }

    go func(to, status, title string) {
        ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        _ = emailer.Send(ctx, to,
            "Invite response recorded",
            fmt.Sprintf("Your response (%s) for %q has been recorded.", status, title),
            fmt.Sprintf("<p>Your response (<b>%s</b>) for <b>%s</b> has been recorded.</p>", status, title),
            "invite_responded")
    }(inv.Email, newStatus, event.Title)

    resp := echo.Map{"code": inv.Code, "status": newStatus}
    if newStatus == model.InviteStatusAccepted {
        // Free events accept without a payment step; the flag spares the
        // client from inferring that off an absent amount.
        resp["requires_payment"] = event.PriceCents > 0
        if event.PriceCents > 0 {
            resp["payment_due_cents"] = event.PriceCents
        }
    }
    return c.JSON(http.StatusOK, resp)
}

// Revoke deletes an invite.  When the invite had already been accepted its
// seat goes back to the venue pool and the event mirror is decremented in
// the same transaction.
func (h *InviteHandler) Revoke(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx := c.Request().Context()
    inv, err := h.Invites.GetByID(ctx, id)
    if err != nil {
        if err == repository.ErrInviteNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    event, err := h.Events.GetByID(ctx, inv.EventID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    tx, err := h.Venues.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if inv.Status == model.InviteStatusAccepted {
        if err := h.Venues.ReleaseTx(ctx, tx, event.VenueID, 1); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
        }
        if err := h.Events.DecrementRegisteredTx(ctx, tx, event.ID, 1); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release failed"})
        }
    }
    if err := h.Invites.DeleteTx(ctx, tx, inv.ID); err != nil {
        if err == repository.ErrInviteNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "invite not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "revoke failed"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
    }
    committed = true

    go func(to, title string) {
        ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        _ = emailer.Send(ctx, to,
            "Invite revoked",
            fmt.Sprintf("Your invite to %q has been revoked.", title),
            fmt.Sprintf("<p>Your invite to <b>%s</b> has been revoked.</p>", title),
            "invite_revoked")
    }(inv.Email, event.Title)

    return c.NoContent(http.StatusNoContent)
}
