// Package router wires HTTP routes to handlers and applies the
// authentication, role, cache and rate-limit middleware per group.
package router

import (
    "database/sql"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/foodbridge/foodshare/internal/config"
    "github.com/foodbridge/foodshare/internal/handler"
    "github.com/foodbridge/foodshare/internal/middleware"
    "github.com/foodbridge/foodshare/internal/model"
)

// Deps bundles everything route registration needs.  Redis is optional:
// a nil client disables caching and rate limiting but never the API.
type Deps struct {
    DB           *sql.DB
    JWTSecret    string
    Redis        *redis.Client
    CacheCfg     config.CacheConfig
    RateLimitCfg config.RateLimitConfig

    Listings     *handler.ListingHandler
    Search       *handler.SearchHandler
    Reservations *handler.ReservationHandler
    Lookup       *handler.LookupHandler
}

// Register mounts all routes on the Echo instance.
func Register(e *echo.Echo, d Deps) {
    e.GET("/healthz", handler.Health(d.DB))

    v1 := e.Group("/v1")
    v1.Use(middleware.JWTAuth(d.JWTSecret))
    v1.Use(middleware.NewTokenBucket(d.RateLimitCfg, d.Redis))

    cached := middleware.NewRedisCache(d.CacheCfg, d.Redis)

    // Discovery and detail, open to any authenticated user.  Search and
    // browse results are cacheable; the listing detail is not, because
    // donors see their reservations inline.
    v1.GET("/listings/search", d.Search.Search, cached)
    v1.GET("/listings/:id", d.Listings.Get)
    v1.GET("/categories", d.Lookup.Categories, cached)
    v1.GET("/my-addresses", d.Lookup.MyAddresses)

    // Donor-only listing management.
    donor := v1.Group("", middleware.RequireUserType(model.UserDonor))
    donor.POST("/listings", d.Listings.Create)
    donor.PUT("/listings/:id", d.Listings.Update)
    donor.DELETE("/listings/:id", d.Listings.Delete)
    donor.GET("/my-listings", d.Listings.MyListings)

    // Recipient-only reservation creation and history.
    recipient := v1.Group("", middleware.RequireUserType(model.UserRecipient))
    recipient.POST("/listings/:id/reservations", d.Reservations.Reserve)
    recipient.GET("/my-reservations", d.Reservations.MyReservations)

    // Status transitions are open to both sides; the repository decides
    // who may do what to a given reservation.
    v1.PATCH("/reservations/:id/status", d.Reservations.SetStatus)
}
