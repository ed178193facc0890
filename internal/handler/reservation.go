package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/foodbridge/foodshare/internal/service"
)

// ReservationHandler serves reservation creation, status transitions
// and the recipient's own reservation list.
type ReservationHandler struct {
    Reservations *service.ReservationService
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(reservations *service.ReservationService) *ReservationHandler {
    if reservations == nil {
        panic("nil service passed to NewReservationHandler")
    }
    return &ReservationHandler{Reservations: reservations}
}

// Reserve handles POST /v1/listings/:id/reservations.  A recipient
// claims part or all of a listing's quantity.  The decrement happens
// under a row lock, so two racing claims for the last kilograms resolve
// to exactly one winner.
func (h *ReservationHandler) Reserve(c echo.Context) error {
    recipientID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    listingID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
    }
    var body struct {
        QuantityKg float64 `json:"quantity_kg"`
        PickupTime string  `json:"pickup_time"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    pickup, err := time.Parse(time.RFC3339, body.PickupTime)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "pickup_time must be RFC3339"})
    }
    res, err := h.Reservations.Reserve(c.Request().Context(), listingID, recipientID, body.QuantityKg, pickup.UTC())
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"item": res})
}

// SetStatus handles PATCH /v1/reservations/:id/status.  Donors accept,
// decline or complete; recipients may decline their own reservation.
// Declining returns the reserved quantity to the listing.
func (h *ReservationHandler) SetStatus(c echo.Context) error {
    actorID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    reservationID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    var body struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    res, err := h.Reservations.SetStatus(c.Request().Context(), reservationID, actorID, body.Status)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"item": res})
}

// MyReservations handles GET /v1/my-reservations.  Returns the
// recipient's reservations joined with listing, donor and pickup
// address details.
func (h *ReservationHandler) MyReservations(c echo.Context) error {
    recipientID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, err := h.Reservations.ListByRecipient(c.Request().Context(), recipientID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}
