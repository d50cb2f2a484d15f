package handler

import (
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-venue-booking/internal/model"
    "github.com/iliyamo/event-venue-booking/internal/repository"
)

// EventHandler serves event CRUD for organisers plus the public browse
// endpoints.
type EventHandler struct {
    Events *repository.EventRepo
    Venues *repository.VenueRepo
}

func NewEventHandler(e *repository.EventRepo, v *repository.VenueRepo) *EventHandler {
    return &EventHandler{Events: e, Venues: v}
}

type createEventReq struct {
    VenueID     uint64     `json:"venue_id"`
    Title       string     `json:"title"`
    Description string     `json:"description"`
    StartsAt    *time.Time `json:"starts_at"`
    PriceCents  uint32     `json:"price_cents"`
}

type updatePriceReq struct {
    PriceCents uint32 `json:"price_cents"`
}

type eventResp struct {
    ID          uint64     `json:"id"`
    VenueID     uint64     `json:"venue_id"`
    OrganiserID uint64     `json:"organiser_id"`
    Title       string     `json:"title"`
    Description string     `json:"description"`
    StartsAt    *time.Time `json:"starts_at,omitempty"`
    PriceCents  uint32     `json:"price_cents"`
    Registered  uint32     `json:"registered"`
    CreatedAt   time.Time  `json:"created_at"`
}

func toEventResp(e model.Event) eventResp {
    return eventResp{
        ID:          e.ID,
        VenueID:     e.VenueID,
        OrganiserID: e.OrganiserID,
        Title:       e.Title,
        Description: e.Description,
        StartsAt:    e.StartsAt,
        PriceCents:  e.PriceCents,
        Registered:  e.Registered,
        CreatedAt:   e.CreatedAt,
    }
}

// Create publishes an event at an existing venue.
func (h *EventHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createEventReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Title = strings.TrimSpace(req.Title)
    if req.Title == "" || req.VenueID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and venue_id required"})
    }

    ctx := c.Request().Context()
    if _, err := h.Venues.GetByID(ctx, req.VenueID); err != nil {
        if err == repository.ErrVenueNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    e := model.Event{
        VenueID:     req.VenueID,
        OrganiserID: uid,
        Title:       req.Title,
        Description: strings.TrimSpace(req.Description),
        StartsAt:    req.StartsAt,
        PriceCents:  req.PriceCents,
    }
    if err := h.Events.Create(ctx, &e); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
    }
    return c.JSON(http.StatusCreated, toEventResp(e))
}

// List returns all events, newest first.
func (h *EventHandler) List(c echo.Context) error {
    events, err := h.Events.List(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list events failed"})
    }
    out := make([]eventResp, 0, len(events))
    for _, e := range events {
        out = append(out, toEventResp(e))
    }
    return c.JSON(http.StatusOK, out)
}

// Get returns one event together with the venue's remaining availability,
// which is what invitees care about when deciding whether to respond.
func (h *EventHandler) Get(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    e, available, err := h.Events.GetWithAvailability(c.Request().Context(), id)
    if err != nil {
        if err == repository.ErrEventNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "event":              toEventResp(e),
        "available_capacity": available,
    })
}

// UpdatePrice changes the per-seat price.  Ownership (or admin role) is
// checked by the repository.
func (h *EventHandler) UpdatePrice(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    var req updatePriceReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    switch err := h.Events.UpdatePrice(c.Request().Context(), id, uid, isAdmin(c), req.PriceCents); err {
    case nil:
        return c.JSON(http.StatusOK, echo.Map{"id": id, "price_cents": req.PriceCents})
    case repository.ErrEventNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
    case repository.ErrForbidden:
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not the event organiser"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
}
