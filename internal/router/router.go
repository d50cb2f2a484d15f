package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // Echo web framework for routing

    "github.com/iliyamo/event-venue-booking/internal/handler"    // handlers implementing the business logic
    "github.com/iliyamo/event-venue-booking/internal/middleware" // JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Load balancers and monitoring systems use this endpoint to verify
    // the service is up.
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication‑related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // Rotates the refresh token.
    g.POST("/refresh", a.Refresh)
    // Issues a new access token without rotating the refresh token.
    g.POST("/refresh-access", a.RefreshAccess)
    // Logout accepts a JSON body with a `refresh_token` and invalidates it;
    // no access token required.
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated surface: venue and event
// browsing plus the code-addressed invite endpoints.  The invite code is
// the credential on verify and respond, so no JWT applies; the rate
// limiter shields these endpoints from code scanning and the cache
// middleware absorbs repeated reads of the browse endpoints.
func RegisterPublic(e *echo.Echo, v *handler.VenueHandler, ev *handler.EventHandler,
    inv *handler.InviteHandler, limiter, cache echo.MiddlewareFunc) {
    // Browse endpoints: cached, read-only.
    e.GET("/v1/venues", v.List, cache)
    e.GET("/v1/venues/:id", v.Get, cache)
    e.GET("/v1/events", ev.List, cache)
    e.GET("/v1/events/:id", ev.Get, cache)

    // Invite track: verify by code and respond.  Rate limited per IP.
    e.GET("/v1/invites/:code", inv.Verify, limiter)
    e.POST("/v1/invites/:code/respond", inv.Respond, limiter)
}
