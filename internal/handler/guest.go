package handler

import (
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-venue-booking/internal/config"
    "github.com/iliyamo/event-venue-booking/internal/model"
    "github.com/iliyamo/event-venue-booking/internal/repository"
    "github.com/iliyamo/event-venue-booking/internal/utils"
)

// GuestHandler manages the roster attached to a paid booking request.
// Admin visibility into the roster is gated by the client's
// share_guest_list flag: when the client opted out, admins only learn the
// head count.
type GuestHandler struct {
    Cfg      config.Config
    Guests   *repository.GuestRepo
    Requests *repository.EventRequestRepo
}

func NewGuestHandler(cfg config.Config, g *repository.GuestRepo, r *repository.EventRequestRepo) *GuestHandler {
    return &GuestHandler{Cfg: cfg, Guests: g, Requests: r}
}

type addGuestReq struct {
    Name  string  `json:"name"`
    Phone string  `json:"phone"`
    Email *string `json:"email"`
}

type addGuestsReq struct {
    Guests []addGuestReq `json:"guests"`
}

type guestResp struct {
    ID             uint64    `json:"id"`
    Name           string    `json:"name"`
    Phone          string    `json:"phone"`
    Email          *string   `json:"email,omitempty"`
    InviteCode     string    `json:"invite_code"`
    InviteSent     bool      `json:"invite_sent"`
    InviteAccepted bool      `json:"invite_accepted"`
    Attending      bool      `json:"attending"`
    CreatedAt      time.Time `json:"created_at"`
}

func toGuestResp(g model.Guest) guestResp {
    return guestResp{
        ID:             g.ID,
        Name:           g.Name,
        Phone:          g.Phone,
        Email:          g.Email,
        InviteCode:     g.InviteCode,
        InviteSent:     g.InviteSent,
        InviteAccepted: g.InviteAccepted,
        Attending:      g.Attending,
        CreatedAt:      g.CreatedAt,
    }
}

// Add attaches guests to a booking request.  Only allowed once the
// request's payment has completed, and only by the owning client — the
// response echoes the full roster, so letting anyone else in here would
// sidestep the share_guest_list gate that List enforces.  Every guest gets
// its own door code; a code collision regenerates the whole batch and
// retries.
func (h *GuestHandler) Add(c echo.Context) error {
    requestID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req addGuestsReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if len(req.Guests) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "guests required"})
    }
    for _, g := range req.Guests {
        if strings.TrimSpace(g.Name) == "" || strings.TrimSpace(g.Phone) == "" {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "guest name and phone required"})
        }
    }

    ctx := c.Request().Context()
    r, err := h.Requests.GetByID(ctx, requestID)
    if err != nil {
        if err == repository.ErrRequestNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if getEmail(c) != r.ClientEmail {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your request"})
    }
    if r.PaymentStatus != model.RequestPaymentCompleted {
        return c.JSON(http.StatusConflict, echo.Map{"error": "payment not completed"})
    }
    count, err := h.Guests.CountByRequest(ctx, requestID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if uint32(count)+uint32(len(req.Guests)) > r.EstimatedGuests {
        return c.JSON(http.StatusConflict, echo.Map{
            "error":            "guest list exceeds estimated guests",
            "estimated_guests": r.EstimatedGuests,
            "current":          count,
        })
    }

    guests := make([]model.Guest, len(req.Guests))
    for attempt := 0; attempt < utils.MaxCodeAttempts; attempt++ {
        for i, g := range req.Guests {
            code, err := utils.NewCode(h.Cfg.InviteCodeLen)
            if err != nil {
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "code generation failed"})
            }
            guests[i] = model.Guest{
                EventRequestID: requestID,
                Name:           strings.TrimSpace(g.Name),
                Phone:          strings.TrimSpace(g.Phone),
                Email:          g.Email,
                InviteCode:     code,
            }
        }
        err = h.Guests.CreateBulk(ctx, guests)
        if err == nil {
            break
        }
        if err == repository.ErrCodeExists {
            if attempt == utils.MaxCodeAttempts-1 {
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": utils.ErrCodeCollision.Error()})
            }
            continue
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add guests failed"})
    }

    saved, err := h.Guests.ListByRequest(ctx, requestID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]guestResp, 0, len(saved))
    for _, g := range saved {
        out = append(out, toGuestResp(g))
    }
    return c.JSON(http.StatusCreated, out)
}

// List returns the roster.  The owning client always sees the full list;
// admins see it only when the client shares it, and otherwise get the head
// count alone.
func (h *GuestHandler) List(c echo.Context) error {
    requestID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    ctx := c.Request().Context()
    r, err := h.Requests.GetByID(ctx, requestID)
    if err != nil {
        if err == repository.ErrRequestNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    owner := getEmail(c) == r.ClientEmail
    if !owner && !isAdmin(c) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your request"})
    }
    if !owner && !r.ShareGuestList {
        count, err := h.Guests.CountByRequest(ctx, requestID)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
        }
        return c.JSON(http.StatusOK, echo.Map{"count": count})
    }
    guests, err := h.Guests.ListByRequest(ctx, requestID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]guestResp, 0, len(guests))
    for _, g := range guests {
        out = append(out, toGuestResp(g))
    }
    return c.JSON(http.StatusOK, out)
}
