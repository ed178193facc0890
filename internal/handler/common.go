package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/foodbridge/foodshare/internal/repository"
    "github.com/foodbridge/foodshare/internal/service"
)

// getUserID extracts the user_id set by the JWT middleware and converts
// it to uint64.  JSON numbers decode as float64, so several numeric
// representations have to be tolerated.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, false
    }
    return id, true
}

// writeError maps service and repository sentinel errors to HTTP
// responses.  Unknown errors become a generic 500 so internal details
// never leak to clients.
func writeError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, service.ErrValidation):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrInvalidAddress):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "address not found or not yours"})
    case errors.Is(err, repository.ErrOverRequested):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "requested quantity exceeds what is available"})
    case errors.Is(err, repository.ErrListingNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
    case errors.Is(err, repository.ErrReservationNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
    case errors.Is(err, repository.ErrNotAvailable):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "listing is not available"})
    case errors.Is(err, repository.ErrForbidden):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, repository.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting state"})
    default:
        c.Logger().Errorf("internal error: %v", err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
    }
}
