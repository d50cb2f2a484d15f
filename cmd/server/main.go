package main // Entry point package

import (
    "log" // Logging library

    "github.com/joho/godotenv"    // Loads .env files into the environment
    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/iliyamo/event-venue-booking/internal/config"
    "github.com/iliyamo/event-venue-booking/internal/database"
    "github.com/iliyamo/event-venue-booking/internal/handler"
    "github.com/iliyamo/event-venue-booking/internal/middleware"
    "github.com/iliyamo/event-venue-booking/internal/queue"
    "github.com/iliyamo/event-venue-booking/internal/repository"
    "github.com/iliyamo/event-venue-booking/internal/router"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    _ = godotenv.Load()

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer func() { _ = db.Close() }()

    // Redis backs the rate limiter and the response cache; both degrade to
    // pass-through when it is unreachable.
    rdb := config.NewRedisClient()
    limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
    cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)
    venues := repository.NewVenueRepo(db)
    events := repository.NewEventRepo(db)
    invites := repository.NewInviteRepo(db)
    requests := repository.NewEventRequestRepo(db)
    payments := repository.NewPaymentRepo(db)
    guests := repository.NewGuestRepo(db)
    notifications := repository.NewNotificationRepo(db)

    authH := handler.NewAuthHandler(cfg, users, tokens)
    venueH := handler.NewVenueHandler(venues)
    eventH := handler.NewEventHandler(events, venues)
    inviteH := handler.NewInviteHandler(cfg, invites, events, venues, notifications)
    paymentH := handler.NewPaymentHandler(payments, invites, events, notifications)
    requestH := handler.NewEventRequestHandler(cfg, requests, venues, users, notifications)
    guestH := handler.NewGuestHandler(cfg, guests, requests)
    notificationH := handler.NewNotificationHandler(notifications)

    // Outbound mail drains from RabbitMQ in the background; the loop
    // reconnects on broker failures.
    go func() {
        if err := queue.StartEmailConsumer(); err != nil {
            log.Printf("email consumer stopped: %v", err)
        }
    }()

    e := echo.New()
    router.RegisterRoutes(e)
    router.RegisterAuth(e, authH, cfg.JWTSecret)
    router.RegisterPublic(e, venueH, eventH, inviteH, limiter, cache)
    router.RegisterOrganiser(e, venueH, eventH, cfg.JWTSecret)
    router.RegisterBooking(e, inviteH, paymentH, requestH, guestH, notificationH, cfg.JWTSecret)
    router.RegisterAdmin(e, inviteH, paymentH, requestH, cfg.JWTSecret)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
