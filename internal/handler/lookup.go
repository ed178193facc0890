package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/foodbridge/foodshare/internal/repository"
)

// LookupHandler serves the small reference-data endpoints that the
// listing form depends on: food categories and the caller's addresses.
type LookupHandler struct {
    Lookup *repository.LookupRepo
}

// NewLookupHandler constructs a LookupHandler.
func NewLookupHandler(lookup *repository.LookupRepo) *LookupHandler {
    if lookup == nil {
        panic("nil repository passed to NewLookupHandler")
    }
    return &LookupHandler{Lookup: lookup}
}

// Categories handles GET /v1/categories.
func (h *LookupHandler) Categories(c echo.Context) error {
    items, err := h.Lookup.Categories(c.Request().Context())
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// MyAddresses handles GET /v1/my-addresses.  Default address first.
func (h *LookupHandler) MyAddresses(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, err := h.Lookup.AddressesByUser(c.Request().Context(), userID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}
