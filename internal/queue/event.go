// Package queue defines message payloads exchanged over the message
// broker and the background consumer that processes them.
package queue

// ReservationCreatedEvent is published after a reservation transaction
// commits.  It carries enough information for downstream consumers to
// log or notify without querying the primary database.
type ReservationCreatedEvent struct {
    ReservationID    uint64  `json:"reservation_id"`
    ListingID        uint64  `json:"listing_id"`
    RecipientID      uint64  `json:"recipient_id"`
    DonorID          uint64  `json:"donor_id"`
    ListingTitle     string  `json:"listing_title"`
    QuantityReserved float64 `json:"quantity_reserved"`
    RemainingKg      float64 `json:"remaining_kg"`
    PickupTime       string  `json:"pickup_time"`
    CreatedAt        string  `json:"created_at"`
}
