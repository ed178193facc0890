package search

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/foodbridge/foodshare/internal/model"
)

func sampleDetail() *model.ListingDetail {
    return &model.ListingDetail{
        Listing: model.Listing{
            ID:          42,
            DonorID:     7,
            Title:       "Day-old sourdough",
            Description: "Six loaves from this morning's bake",
            QuantityKg:  4.5,
            FeedsPeople: 12,
            BestBefore:  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
            Status:      model.ListingAvailable,
            CreatedAt:   time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC),
        },
        DonorName:    "Corner Bakery",
        CategoryName: "Baked Goods",
    }
}

func TestMapListingProjectsFields(t *testing.T) {
    d := sampleDetail()
    lat, lon := 40.7128, -74.0060
    d.Latitude, d.Longitude = &lat, &lon

    doc := MapListing(d)
    assert.Equal(t, uint64(42), doc.ListingID)
    assert.Equal(t, "Day-old sourdough", doc.Title)
    assert.Equal(t, "Baked Goods", doc.CategoryName)
    assert.Equal(t, "Corner Bakery", doc.DonorName)
    assert.Equal(t, 4.5, doc.QuantityKg)
    assert.Equal(t, model.ListingAvailable, doc.Status)
    require.NotNil(t, doc.Location)
    assert.Equal(t, lat, doc.Location.Lat)
    assert.Equal(t, lon, doc.Location.Lon)
}

func TestMapListingOmitsMissingLocation(t *testing.T) {
    doc := MapListing(sampleDetail())
    assert.Nil(t, doc.Location)
}

func TestMapListingOmitsHalfLocation(t *testing.T) {
    d := sampleDetail()
    lat := 40.7128
    d.Latitude = &lat

    doc := MapListing(d)
    assert.Nil(t, doc.Location)
}

func TestMapListingOmitsZeroLocation(t *testing.T) {
    // (0,0) is a geocoding failure, not a pickup point in the ocean
    d := sampleDetail()
    zero := 0.0
    d.Latitude, d.Longitude = &zero, &zero

    doc := MapListing(d)
    assert.Nil(t, doc.Location)
}
