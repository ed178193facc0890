package search

import (
	"time"

	"github.com/foodbridge/foodshare/internal/model"
)

// GeoPoint is the lat/lon pair stored in a document's location field.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Document is the denormalized projection of a listing stored in the
// index.  It is never authoritative: quantity and status here may lag
// the relational row between a reservation and the next listing
// mutation, which is why search results are always re-resolved against
// the store.
type Document struct {
	ListingID    uint64    `json:"listing_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	CategoryName string    `json:"category_name"`
	QuantityKg   float64   `json:"quantity_kg"`
	FeedsPeople  uint32    `json:"feeds_people"`
	BestBefore   time.Time `json:"best_before"`
	Status       string    `json:"status"`
	Location     *GeoPoint `json:"location,omitempty"`
	DonorName    string    `json:"donor_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// MapListing projects a joined listing row into its index document.
// Location is omitted entirely unless both coordinates are present and
// non-zero; a zero-valued geo point would sit at (0,0) in the Gulf of
// Guinea and match radius filters it has no business matching.
func MapListing(d *model.ListingDetail) Document {
	doc := Document{
		ListingID:    d.ID,
		Title:        d.Title,
		Description:  d.Description,
		CategoryName: d.CategoryName,
		QuantityKg:   d.QuantityKg,
		FeedsPeople:  d.FeedsPeople,
		BestBefore:   d.BestBefore,
		Status:       d.Status,
		DonorName:    d.DonorName,
		CreatedAt:    d.CreatedAt,
	}
	if d.Latitude != nil && d.Longitude != nil && *d.Latitude != 0 && *d.Longitude != 0 {
		doc.Location = &GeoPoint{Lat: *d.Latitude, Lon: *d.Longitude}
	}
	return doc
}
