package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-venue-booking/internal/handler"
    "github.com/iliyamo/event-venue-booking/internal/middleware"
    "github.com/iliyamo/event-venue-booking/internal/model"
)

// RegisterAdmin registers the admin review surface: invite revocation, the
// payment approval queue and charge/payment administration on booking
// requests.
func RegisterAdmin(e *echo.Echo, inv *handler.InviteHandler, pay *handler.PaymentHandler,
    req *handler.EventRequestHandler, jwtSecret string) {
    g := e.Group("/v1/admin")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole(model.RoleAdmin))

    // Revoking an accepted invite returns its seat to the venue pool.
    g.DELETE("/invites/:id", inv.Revoke)

    g.GET("/payments/pending", pay.ListPending)
    g.GET("/payments/:id", pay.Get)
    g.POST("/payments/:id/approve", pay.Approve)

    g.PATCH("/requests/:id/charges", req.UpdateCharges)
    g.POST("/requests/:id/payment/approve", req.ApprovePayment)
}
