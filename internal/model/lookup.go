package model

import "time"

// User identifies an account only to the extent the core needs it:
// authorization (donor vs recipient) and display names on joined rows.
// Registration, login and credential storage live outside this system.
//
// Fields:
//  ID       – primary key identifier.
//  Name     – display name joined into listing and reservation views.
//  UserType – "donor" or "recipient".
type User struct {
    ID       uint64 // users.user_id
    Name     string // users.name
    UserType string // users.user_type
}

// User types carried in the JWT user_type claim.
const (
    UserDonor     = "donor"
    UserRecipient = "recipient"
)

// Category is a food category lookup row.
type Category struct {
    ID   uint64 `json:"category_id"` // food_categories.category_id
    Name string `json:"name"`        // food_categories.name
}

// Address is a user's pickup address.  Latitude/Longitude feed the
// search index geo-point and may be absent.
type Address struct {
    ID            uint64    `json:"address_id"`     // addresses.address_id
    UserID        uint64    `json:"user_id"`        // addresses.user_id
    StreetAddress string    `json:"street_address"` // addresses.street_address
    City          string    `json:"city"`           // addresses.city
    State         string    `json:"state"`          // addresses.state
    Latitude      *float64  `json:"latitude"`       // addresses.latitude (nullable)
    Longitude     *float64  `json:"longitude"`      // addresses.longitude (nullable)
    IsDefault     bool      `json:"is_default"`     // addresses.is_default
    CreatedAt     time.Time `json:"created_at"`     // addresses.created_at
}
