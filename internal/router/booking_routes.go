package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-venue-booking/internal/handler"
    "github.com/iliyamo/event-venue-booking/internal/middleware"
    "github.com/iliyamo/event-venue-booking/internal/model"
)

// RegisterOrganiser registers the venue/event management surface.  All
// routes require a valid token with the ORGANISER or ADMIN role.
func RegisterOrganiser(e *echo.Echo, v *handler.VenueHandler, ev *handler.EventHandler, jwtSecret string) {
    g := e.Group("/v1")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole(model.RoleOrganiser, model.RoleAdmin))

    g.POST("/venues", v.Create)
    g.DELETE("/venues/:id", v.Delete)

    g.POST("/events", ev.Create)
    g.PATCH("/events/:id/price", ev.UpdatePrice)
}

// RegisterBooking registers the reservation surface open to every
// authenticated role: invite issuing, invite payments, booking requests,
// guest rosters and the notification log.  Per-object ownership (a client
// sees only their own requests and roster) is enforced in the handlers,
// where admins also pass.
func RegisterBooking(e *echo.Echo, inv *handler.InviteHandler, pay *handler.PaymentHandler,
    req *handler.EventRequestHandler, g2 *handler.GuestHandler,
    n *handler.NotificationHandler, jwtSecret string) {
    g := e.Group("/v1")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole(model.RoleAdmin, model.RoleOrganiser, model.RoleCustomer))

    g.POST("/invites", inv.Create)
    g.POST("/payments", pay.Process)

    g.POST("/requests", req.Create)
    g.GET("/requests", req.List)
    g.GET("/requests/:id", req.Get)
    // Admins apply any legal transition; clients may only cancel their own.
    g.PATCH("/requests/:id/status", req.UpdateStatus)

    g.POST("/requests/:id/guests", g2.Add)
    g.GET("/requests/:id/guests", g2.List)

    g.GET("/notifications", n.ListUnread)
    g.POST("/notifications/:id/read", n.MarkRead)
}
