package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/foodbridge/foodshare/internal/model"
    "github.com/foodbridge/foodshare/internal/service"
)

// ListingHandler serves donor-facing listing CRUD plus the public
// listing detail.  JWT authentication and user-type gating happen in
// middleware; handlers only read the identity the middleware left in
// the context.
type ListingHandler struct {
    Listings     *service.ListingService
    Reservations *service.ReservationService
}

// NewListingHandler constructs a ListingHandler.  Both services must be
// non-nil.
func NewListingHandler(listings *service.ListingService, reservations *service.ReservationService) *ListingHandler {
    if listings == nil || reservations == nil {
        panic("nil service passed to NewListingHandler")
    }
    return &ListingHandler{Listings: listings, Reservations: reservations}
}

// listingBody is the JSON payload shared by create and update.
type listingBody struct {
    Title       string  `json:"title"`
    Description string  `json:"description"`
    CategoryID  uint64  `json:"category_id"`
    AddressID   uint64  `json:"address_id"`
    QuantityKg  float64 `json:"quantity_kg"`
    FeedsPeople uint32  `json:"feeds_people"`
    BestBefore  string  `json:"best_before"`
}

// parseBestBefore accepts RFC3339 or a bare date.
func parseBestBefore(raw string) (time.Time, bool) {
    if raw == "" {
        return time.Time{}, true
    }
    if t, err := time.Parse(time.RFC3339, raw); err == nil {
        return t.UTC(), true
    }
    if t, err := time.Parse("2006-01-02", raw); err == nil {
        return t.UTC(), true
    }
    return time.Time{}, false
}

// Create handles POST /v1/listings.  Donors publish a new food listing;
// the row is the source of truth and the search document follows it.
func (h *ListingHandler) Create(c echo.Context) error {
    donorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body listingBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    bestBefore, ok := parseBestBefore(body.BestBefore)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "best_before must be RFC3339 or YYYY-MM-DD"})
    }
    detail, err := h.Listings.Create(c.Request().Context(), &model.NewListing{
        DonorID:     donorID,
        AddressID:   body.AddressID,
        CategoryID:  body.CategoryID,
        Title:       body.Title,
        Description: body.Description,
        QuantityKg:  body.QuantityKg,
        FeedsPeople: body.FeedsPeople,
        BestBefore:  bestBefore,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"item": detail})
}

// Get handles GET /v1/listings/:id.  Everyone authenticated sees the
// joined detail row; the owning donor additionally gets the listing's
// reservations so they can accept or decline them.
func (h *ListingHandler) Get(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    listingID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
    }
    ctx := c.Request().Context()
    detail, err := h.Listings.Get(ctx, listingID)
    if err != nil {
        return writeError(c, err)
    }
    resp := echo.Map{"item": detail}
    if detail.DonorID == userID {
        reservations, err := h.Reservations.ListForListing(ctx, listingID)
        if err != nil {
            return writeError(c, err)
        }
        resp["reservations"] = reservations
    }
    return c.JSON(http.StatusOK, resp)
}

// Update handles PUT /v1/listings/:id.  Full field replacement; only
// the owning donor may update, and quantity cannot drop below what
// active reservations already hold.
func (h *ListingHandler) Update(c echo.Context) error {
    donorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    listingID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
    }
    var body listingBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    bestBefore, ok := parseBestBefore(body.BestBefore)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "best_before must be RFC3339 or YYYY-MM-DD"})
    }
    detail, err := h.Listings.Update(c.Request().Context(), listingID, donorID, &model.ListingUpdate{
        AddressID:   body.AddressID,
        CategoryID:  body.CategoryID,
        Title:       body.Title,
        Description: body.Description,
        QuantityKg:  body.QuantityKg,
        FeedsPeople: body.FeedsPeople,
        BestBefore:  bestBefore,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

// Delete handles DELETE /v1/listings/:id.  The listing is expired, not
// erased, so closed reservation history stays readable.  Listings with
// pending or accepted reservations cannot be removed.
func (h *ListingHandler) Delete(c echo.Context) error {
    donorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    listingID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
    }
    if err := h.Listings.Delete(c.Request().Context(), listingID, donorID); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// MyListings handles GET /v1/my-listings.  Returns the donor's own
// listings, each with its reservation count.
func (h *ListingHandler) MyListings(c echo.Context) error {
    donorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, err := h.Listings.ListByDonor(c.Request().Context(), donorID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}
