package service

import (
    "context"
    "log"

    "github.com/foodbridge/foodshare/internal/model"
    "github.com/foodbridge/foodshare/internal/repository"
    "github.com/foodbridge/foodshare/internal/search"
)

// ListingStore is the authoritative persistence the listing service
// depends on.  *repository.ListingRepo satisfies it.
type ListingStore interface {
    AddressBelongsTo(ctx context.Context, addressID, userID uint64) (bool, error)
    Create(ctx context.Context, in *model.NewListing) (*model.ListingDetail, error)
    GetDetail(ctx context.Context, listingID uint64) (*model.ListingDetail, error)
    ListAvailable(ctx context.Context) ([]model.ListingDetail, error)
    FetchRanked(ctx context.Context, ids []uint64, text string) ([]model.ListingDetail, error)
    Update(ctx context.Context, listingID, donorID uint64, in *model.ListingUpdate) (*model.ListingDetail, error)
    SoftDelete(ctx context.Context, listingID, donorID uint64) error
    ListByDonor(ctx context.Context, donorID uint64) ([]model.DonorListing, error)
}

// SearchIndex is the derived text/geo mirror.  *search.Client satisfies
// it.  The index is never part of a store transaction: it is mutated
// only after a relational commit, best-effort.
type SearchIndex interface {
    Index(ctx context.Context, doc search.Document) error
    Delete(ctx context.Context, listingID uint64) error
    Search(ctx context.Context, cr *search.Criteria) (*search.Result, error)
    Resync(ctx context.Context, listings []model.ListingDetail) (int, error)
}

// SearchResult is the merged payload of a hybrid search: the index's
// total match count and the authoritative rows for one page of hits.
type SearchResult struct {
    Total    int64                 `json:"total"`
    Listings []model.ListingDetail `json:"listings"`
}

// ListingService owns listing CRUD, the hybrid search pipeline and the
// store→index mirroring discipline.
type ListingService struct {
    store ListingStore
    index SearchIndex
}

// NewListingService constructs a ListingService.  Both dependencies
// must be non-nil.
func NewListingService(store ListingStore, index SearchIndex) *ListingService {
    if store == nil || index == nil {
        panic("nil dependency passed to NewListingService")
    }
    return &ListingService{store: store, index: index}
}

// mirror upserts a listing's document after a committed relational
// write.  Failures are downgraded to a logged drift warning; the
// committed row stays authoritative and the caller's operation has
// already succeeded.
func (s *ListingService) mirror(ctx context.Context, d *model.ListingDetail) {
    if err := s.index.Index(ctx, search.MapListing(d)); err != nil {
        log.Printf("search: index drift: listing %d not mirrored: %v", d.ID, err)
    }
}

// validateFields rejects obviously malformed listing input before any
// store round-trip.
func validateFields(title, description string, quantityKg float64, categoryID, addressID uint64) error {
    if title == "" {
        return invalidf("title is required")
    }
    if description == "" {
        return invalidf("description is required")
    }
    if quantityKg < 0 {
        return invalidf("quantity_kg must not be negative")
    }
    if categoryID == 0 {
        return invalidf("category_id is required")
    }
    if addressID == 0 {
        return invalidf("address_id is required")
    }
    return nil
}

// Create validates the input, verifies the pickup address belongs to
// the donor, inserts the listing and mirrors it into the search index.
func (s *ListingService) Create(ctx context.Context, in *model.NewListing) (*model.ListingDetail, error) {
    if err := validateFields(in.Title, in.Description, in.QuantityKg, in.CategoryID, in.AddressID); err != nil {
        return nil, err
    }
    if in.BestBefore.IsZero() {
        return nil, invalidf("best_before is required")
    }
    ok, err := s.store.AddressBelongsTo(ctx, in.AddressID, in.DonorID)
    if err != nil {
        return nil, err
    }
    if !ok {
        return nil, repository.ErrInvalidAddress
    }
    detail, err := s.store.Create(ctx, in)
    if err != nil {
        return nil, err
    }
    s.mirror(ctx, detail)
    return detail, nil
}

// Search runs the hybrid pipeline: the index decides which listings
// match and in roughly what order, then the store supplies the
// authoritative rows and the final deterministic ordering.  Zero index
// hits short-circuit without touching the store.
func (s *ListingService) Search(ctx context.Context, cr *search.Criteria) (*SearchResult, error) {
    if cr.Sort == "" {
        cr.Sort = search.SortBestBefore
    }
    switch cr.Sort {
    case search.SortDistance, search.SortBestBefore, search.SortRelevance:
    default:
        return nil, invalidf("unknown sort %q", cr.Sort)
    }
    if cr.RadiusKm < 0 {
        return nil, invalidf("radius must not be negative")
    }
    if (cr.Latitude == nil) != (cr.Longitude == nil) {
        return nil, invalidf("latitude and longitude must be supplied together")
    }

    res, err := s.index.Search(ctx, cr)
    if err != nil {
        return nil, err
    }
    if len(res.Hits) == 0 {
        return &SearchResult{Total: 0, Listings: []model.ListingDetail{}}, nil
    }
    listings, err := s.store.FetchRanked(ctx, res.IDs(), cr.Text)
    if err != nil {
        return nil, err
    }
    return &SearchResult{Total: res.Total, Listings: listings}, nil
}

// Get returns one listing's authoritative joined row.
func (s *ListingService) Get(ctx context.Context, listingID uint64) (*model.ListingDetail, error) {
    return s.store.GetDetail(ctx, listingID)
}

// Update replaces a donor's listing fields and re-mirrors the document.
// Quantity reductions below active reservations surface as
// repository.ErrConflict from the store.
func (s *ListingService) Update(ctx context.Context, listingID, donorID uint64, in *model.ListingUpdate) (*model.ListingDetail, error) {
    if err := validateFields(in.Title, in.Description, in.QuantityKg, in.CategoryID, in.AddressID); err != nil {
        return nil, err
    }
    detail, err := s.store.Update(ctx, listingID, donorID, in)
    if err != nil {
        return nil, err
    }
    s.mirror(ctx, detail)
    return detail, nil
}

// Delete soft-deletes a donor's listing and removes its search
// document.  A missing document is fine (the listing may never have
// been indexed); any other index failure is drift, logged and not
// surfaced.
func (s *ListingService) Delete(ctx context.Context, listingID, donorID uint64) error {
    if err := s.store.SoftDelete(ctx, listingID, donorID); err != nil {
        return err
    }
    if err := s.index.Delete(ctx, listingID); err != nil {
        log.Printf("search: index drift: listing %d not removed: %v", listingID, err)
    }
    return nil
}

// ListByDonor returns the donor's own listings with reservation counts.
func (s *ListingService) ListByDonor(ctx context.Context, donorID uint64) ([]model.DonorListing, error) {
    return s.store.ListByDonor(ctx, donorID)
}

// ResyncIndex re-reads every available listing from the store and
// re-indexes it, repairing divergence from prior downtime.  Called at
// startup.  The returned count is how many documents failed
// individually; a non-nil error means the sweep itself could not run.
func (s *ListingService) ResyncIndex(ctx context.Context) (int, error) {
    listings, err := s.store.ListAvailable(ctx)
    if err != nil {
        return 0, err
    }
    return s.index.Resync(ctx, listings)
}
