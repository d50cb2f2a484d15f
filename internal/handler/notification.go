package handler

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-venue-booking/internal/model"
    "github.com/iliyamo/event-venue-booking/internal/repository"
)

// NotificationHandler serves the caller's bounded notification log.
type NotificationHandler struct {
    Notifications *repository.NotificationRepo
}

func NewNotificationHandler(n *repository.NotificationRepo) *NotificationHandler {
    return &NotificationHandler{Notifications: n}
}

type notificationResp struct {
    ID        uint64    `json:"id"`
    Kind      string    `json:"kind"`
    Message   string    `json:"message"`
    IsRead    bool      `json:"is_read"`
    CreatedAt time.Time `json:"created_at"`
}

func toNotificationResp(n model.Notification) notificationResp {
    return notificationResp{ID: n.ID, Kind: n.Kind, Message: n.Message, IsRead: n.IsRead, CreatedAt: n.CreatedAt}
}

// ListUnread returns the caller's unread notifications, oldest first.
func (h *NotificationHandler) ListUnread(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, err := h.Notifications.ListUnread(c.Request().Context(), uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list notifications failed"})
    }
    out := make([]notificationResp, 0, len(items))
    for _, n := range items {
        out = append(out, toNotificationResp(n))
    }
    return c.JSON(http.StatusOK, out)
}

// MarkRead flags one of the caller's notifications as read.  Re-marking an
// already-read entry succeeds without change.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
    }
    switch err := h.Notifications.MarkRead(c.Request().Context(), id, uid); err {
    case nil:
        return c.JSON(http.StatusOK, echo.Map{"id": id, "read": true})
    case repository.ErrNotificationNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "notification not found"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark read failed"})
    }
}
