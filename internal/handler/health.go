package handler

import (
    "context"
    "database/sql"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Health reports liveness plus the state of the relational store.  The
// search index is deliberately absent from the check: the service keeps
// answering from the store when the index is down, so index health must
// not fail readiness.
func Health(db *sql.DB) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := db.PingContext(ctx); err != nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{
                "status":   "degraded",
                "database": "unreachable",
            })
        }
        return c.JSON(http.StatusOK, echo.Map{
            "status":   "ok",
            "database": "ok",
        })
    }
}
