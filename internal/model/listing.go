package model

import "time"

// Listing status values.  A listing is available while it still has
// unreserved quantity, reserved once a reservation drains it to zero,
// and expired after a soft delete or once its best-before has passed.
const (
    ListingAvailable = "available"
    ListingReserved  = "reserved"
    ListingExpired   = "expired"
)

// Listing represents a donor's surplus food posting.  The row in
// food_listings is the single source of truth for quantity and status;
// the search index only mirrors it.
//
// Fields:
//  ID          – primary key identifier.
//  DonorID     – user who posted the listing.
//  AddressID   – pickup address (resolves to lat/lon).
//  CategoryID  – food category.
//  Title       – short headline.
//  Description – free-form description.
//  QuantityKg  – remaining quantity in kilograms (never negative).
//  FeedsPeople – rough estimate of how many people the food feeds.
//  BestBefore  – expiry timestamp.
//  Status      – available, reserved or expired.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Listing struct {
    ID          uint64    `json:"listing_id"`   // food_listings.listing_id
    DonorID     uint64    `json:"donor_id"`     // food_listings.donor_id
    AddressID   uint64    `json:"address_id"`   // food_listings.address_id
    CategoryID  uint64    `json:"category_id"`  // food_listings.category_id
    Title       string    `json:"title"`        // food_listings.title
    Description string    `json:"description"`  // food_listings.description
    QuantityKg  float64   `json:"quantity_kg"`  // food_listings.quantity_kg
    FeedsPeople uint32    `json:"feeds_people"` // food_listings.feeds_people
    BestBefore  time.Time `json:"best_before"`  // food_listings.best_before
    Status      string    `json:"status"`       // food_listings.status
    CreatedAt   time.Time `json:"created_at"`   // food_listings.created_at
    UpdatedAt   time.Time `json:"updated_at"`   // food_listings.updated_at
}

// ListingDetail is a listing joined with the names and coordinates a
// client needs to render it: donor name, category name and the pickup
// address.  Latitude/Longitude are pointers because an address may be
// stored without coordinates.
type ListingDetail struct {
    Listing
    DonorName    string   `json:"donor_name"`
    CategoryName string   `json:"category_name"`
    City         string   `json:"city"`
    State        string   `json:"state"`
    Latitude     *float64 `json:"latitude,omitempty"`
    Longitude    *float64 `json:"longitude,omitempty"`
}

// DonorListing is the row shape returned for a donor's own listings,
// including how many reservations have been placed against each.
type DonorListing struct {
    Listing
    CategoryName     string `json:"category_name"`
    City             string `json:"city"`
    State            string `json:"state"`
    ReservationCount int64  `json:"reservation_count"`
}

// NewListing carries the caller-supplied fields for creating a listing.
type NewListing struct {
    DonorID     uint64
    AddressID   uint64
    CategoryID  uint64
    Title       string
    Description string
    QuantityKg  float64
    FeedsPeople uint32
    BestBefore  time.Time
}

// ListingUpdate carries the full replacement field set for an update.
// Quantity reductions below what active reservations hold are rejected
// by the repository.
type ListingUpdate struct {
    AddressID   uint64
    CategoryID  uint64
    Title       string
    Description string
    QuantityKg  float64
    FeedsPeople uint32
    BestBefore  time.Time
}
