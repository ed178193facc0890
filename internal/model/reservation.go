package model

import "time"

// Reservation status values.  Pending reservations await the donor's
// decision; declined reservations hand their quantity back to the
// listing.
const (
    ReservationPending   = "pending"
    ReservationAccepted  = "accepted"
    ReservationDeclined  = "declined"
    ReservationCompleted = "completed"
)

// Reservation records a recipient's claim on a portion of a listing's
// quantity.  QuantityReserved is fixed at creation time; only Status
// changes afterwards.
//
// Fields:
//  ID               – primary key identifier.
//  ListingID        – listing being reserved.
//  RecipientID      – user who made the reservation.
//  QuantityReserved – kilograms claimed (> 0, <= listing quantity at
//                     creation time).
//  Status           – pending, accepted, declined or completed.
//  PickupTime       – when the recipient intends to collect.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Reservation struct {
    ID               uint64    `json:"reservation_id"`    // reservations.reservation_id
    ListingID        uint64    `json:"listing_id"`        // reservations.listing_id
    RecipientID      uint64    `json:"recipient_id"`      // reservations.recipient_id
    QuantityReserved float64   `json:"quantity_reserved"` // reservations.quantity_reserved
    Status           string    `json:"status"`            // reservations.status
    PickupTime       time.Time `json:"pickup_time"`       // reservations.pickup_time
    CreatedAt        time.Time `json:"created_at"`        // reservations.created_at
    UpdatedAt        time.Time `json:"updated_at"`        // reservations.updated_at
}

// ReservationDetail joins a reservation with the listing it claims and
// the donor's name and pickup address, for display to recipients.
type ReservationDetail struct {
    Reservation
    ListingTitle       string `json:"title"`
    ListingDescription string `json:"description"`
    DonorName          string `json:"donor_name"`
    StreetAddress      string `json:"street_address"`
    City               string `json:"city"`
    State              string `json:"state"`
}

// ValidReservationTransition reports whether s is a status a caller may
// move a reservation to.  Pending is only ever set by the reserve
// operation itself.
func ValidReservationTransition(s string) bool {
    switch s {
    case ReservationAccepted, ReservationDeclined, ReservationCompleted:
        return true
    }
    return false
}
