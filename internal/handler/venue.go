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

// VenueHandler serves venue CRUD.  Creation and deletion are restricted to
// organisers and admins by the router; ownership on delete is enforced in
// the repository.
type VenueHandler struct {
    Venues *repository.VenueRepo
}

func NewVenueHandler(v *repository.VenueRepo) *VenueHandler { return &VenueHandler{Venues: v} }

type createVenueReq struct {
    Name     string `json:"name"`
    Address  string `json:"address"`
    Capacity uint32 `json:"capacity"`
}

type venueResp struct {
    ID                uint64    `json:"id"`
    OwnerID           uint64    `json:"owner_id"`
    Name              string    `json:"name"`
    Address           string    `json:"address"`
    Capacity          uint32    `json:"capacity"`
    AvailableCapacity uint32    `json:"available_capacity"`
    CreatedAt         time.Time `json:"created_at"`
}

func toVenueResp(v model.Venue) venueResp {
    return venueResp{
        ID:                v.ID,
        OwnerID:           v.OwnerID,
        Name:              v.Name,
        Address:           v.Address,
        Capacity:          v.Capacity,
        AvailableCapacity: v.AvailableCapacity,
        CreatedAt:         v.CreatedAt,
    }
}

// Create registers a venue.  Capacity must sit inside the fixed
// [100, 350] band; anything outside is rejected before touching the
// database.
func (h *VenueHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createVenueReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
    }
    if req.Capacity < model.MinVenueCapacity || req.Capacity > model.MaxVenueCapacity {
        return c.JSON(http.StatusBadRequest, echo.Map{
            "error": "capacity out of range",
            "min":   model.MinVenueCapacity,
            "max":   model.MaxVenueCapacity,
        })
    }

    v := model.Venue{OwnerID: uid, Name: req.Name, Address: strings.TrimSpace(req.Address), Capacity: req.Capacity}
    if err := h.Venues.Create(c.Request().Context(), &v); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create venue failed"})
    }
    return c.JSON(http.StatusCreated, toVenueResp(v))
}

// List returns all venues with live availability.
func (h *VenueHandler) List(c echo.Context) error {
    venues, err := h.Venues.List(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list venues failed"})
    }
    out := make([]venueResp, 0, len(venues))
    for _, v := range venues {
        out = append(out, toVenueResp(v))
    }
    return c.JSON(http.StatusOK, out)
}

// Get returns a single venue by id.
func (h *VenueHandler) Get(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    v, err := h.Venues.GetByID(c.Request().Context(), id)
    if err != nil {
        if err == repository.ErrVenueNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, toVenueResp(v))
}

// Delete removes a venue.  Only the owner or an admin may delete, and a
// venue that still backs events or requests is refused with 409.
func (h *VenueHandler) Delete(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    switch err := h.Venues.Delete(c.Request().Context(), id, uid, isAdmin(c)); err {
    case nil:
        return c.NoContent(http.StatusNoContent)
    case repository.ErrVenueNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
    case repository.ErrForbidden:
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not the venue owner"})
    case repository.ErrConflict:
        return c.JSON(http.StatusConflict, echo.Map{"error": "venue has events or requests"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
    }
}
