package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/foodbridge/foodshare/internal/search"
    "github.com/foodbridge/foodshare/internal/service"
)

// SearchHandler serves the recipient-facing discovery endpoints.  The
// heavy lifting lives in ListingService.Search; this layer only parses
// query parameters into criteria.
type SearchHandler struct {
    Listings *service.ListingService
}

// NewSearchHandler constructs a SearchHandler.
func NewSearchHandler(listings *service.ListingService) *SearchHandler {
    if listings == nil {
        panic("nil service passed to NewSearchHandler")
    }
    return &SearchHandler{Listings: listings}
}

// floatParam parses an optional float query parameter.  A missing
// parameter returns (nil, true); a malformed one returns (nil, false).
func floatParam(c echo.Context, name string) (*float64, bool) {
    raw := c.QueryParam(name)
    if raw == "" {
        return nil, true
    }
    f, err := strconv.ParseFloat(raw, 64)
    if err != nil {
        return nil, false
    }
    return &f, true
}

// Search handles GET /v1/listings/search.  Free text, geo radius,
// category and quantity-range filters combine; the index ranks and the
// relational store resolves.  With no parameters at all it behaves as a
// browse of available listings.
func (h *SearchHandler) Search(c echo.Context) error {
    cr := &search.Criteria{
        Text:     c.QueryParam("q"),
        Category: c.QueryParam("category"),
        Sort:     c.QueryParam("sort"),
    }

    var ok bool
    if cr.Latitude, ok = floatParam(c, "lat"); !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "lat must be a number"})
    }
    if cr.Longitude, ok = floatParam(c, "lon"); !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "lon must be a number"})
    }
    if cr.MinQuantity, ok = floatParam(c, "min_quantity_kg"); !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "min_quantity_kg must be a number"})
    }
    if cr.MaxQuantity, ok = floatParam(c, "max_quantity_kg"); !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_quantity_kg must be a number"})
    }
    if raw := c.QueryParam("radius_km"); raw != "" {
        r, err := strconv.ParseFloat(raw, 64)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "radius_km must be a number"})
        }
        cr.RadiusKm = r
    }
    if raw := c.QueryParam("limit"); raw != "" {
        n, err := strconv.Atoi(raw)
        if err != nil || n < 1 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a positive integer"})
        }
        cr.Size = n
    }

    res, err := h.Listings.Search(c.Request().Context(), cr)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "total": res.Total,
        "items": res.Listings,
    })
}
