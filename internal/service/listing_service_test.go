package service

import (
    "context"
    "errors"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/foodbridge/foodshare/internal/model"
    "github.com/foodbridge/foodshare/internal/repository"
    "github.com/foodbridge/foodshare/internal/search"
)

// fakeListingStore is an in-memory ListingStore.  FetchRanked mimics
// the repository contract: rows come back in the order of the supplied
// IDs, skipping IDs it does not know (drift).
type fakeListingStore struct {
    listings   map[uint64]*model.ListingDetail
    addresses  map[uint64]uint64 // address id -> owner
    nextID     uint64
    createErr  error
    fetchCalls int
}

func newFakeListingStore() *fakeListingStore {
    return &fakeListingStore{
        listings:  map[uint64]*model.ListingDetail{},
        addresses: map[uint64]uint64{},
        nextID:    1,
    }
}

func (f *fakeListingStore) AddressBelongsTo(_ context.Context, addressID, userID uint64) (bool, error) {
    return f.addresses[addressID] == userID, nil
}

func (f *fakeListingStore) Create(_ context.Context, in *model.NewListing) (*model.ListingDetail, error) {
    if f.createErr != nil {
        return nil, f.createErr
    }
    d := &model.ListingDetail{
        Listing: model.Listing{
            ID:          f.nextID,
            DonorID:     in.DonorID,
            AddressID:   in.AddressID,
            CategoryID:  in.CategoryID,
            Title:       in.Title,
            Description: in.Description,
            QuantityKg:  in.QuantityKg,
            FeedsPeople: in.FeedsPeople,
            BestBefore:  in.BestBefore,
            Status:      model.ListingAvailable,
        },
    }
    f.listings[d.ID] = d
    f.nextID++
    return d, nil
}

func (f *fakeListingStore) GetDetail(_ context.Context, listingID uint64) (*model.ListingDetail, error) {
    d, ok := f.listings[listingID]
    if !ok {
        return nil, repository.ErrListingNotFound
    }
    return d, nil
}

func (f *fakeListingStore) ListAvailable(_ context.Context) ([]model.ListingDetail, error) {
    out := []model.ListingDetail{}
    for _, d := range f.listings {
        if d.Status == model.ListingAvailable {
            out = append(out, *d)
        }
    }
    return out, nil
}

func (f *fakeListingStore) FetchRanked(_ context.Context, ids []uint64, _ string) ([]model.ListingDetail, error) {
    f.fetchCalls++
    out := make([]model.ListingDetail, 0, len(ids))
    for _, id := range ids {
        if d, ok := f.listings[id]; ok {
            out = append(out, *d)
        }
    }
    return out, nil
}

func (f *fakeListingStore) Update(_ context.Context, listingID, donorID uint64, in *model.ListingUpdate) (*model.ListingDetail, error) {
    d, ok := f.listings[listingID]
    if !ok || d.DonorID != donorID {
        return nil, repository.ErrListingNotFound
    }
    d.Title = in.Title
    d.Description = in.Description
    d.QuantityKg = in.QuantityKg
    return d, nil
}

func (f *fakeListingStore) SoftDelete(_ context.Context, listingID, donorID uint64) error {
    d, ok := f.listings[listingID]
    if !ok || d.DonorID != donorID {
        return repository.ErrListingNotFound
    }
    d.Status = model.ListingExpired
    return nil
}

func (f *fakeListingStore) ListByDonor(_ context.Context, donorID uint64) ([]model.DonorListing, error) {
    out := []model.DonorListing{}
    for _, d := range f.listings {
        if d.DonorID == donorID {
            out = append(out, model.DonorListing{Listing: d.Listing})
        }
    }
    return out, nil
}

// fakeIndex records mirrored documents and returns canned search
// results.  Errors can be injected per operation to simulate an index
// outage.
type fakeIndex struct {
    docs      map[uint64]search.Document
    deleted   []uint64
    result    *search.Result
    indexErr  error
    deleteErr error
    searchErr error
}

func newFakeIndex() *fakeIndex {
    return &fakeIndex{docs: map[uint64]search.Document{}, result: &search.Result{}}
}

func (f *fakeIndex) Index(_ context.Context, doc search.Document) error {
    if f.indexErr != nil {
        return f.indexErr
    }
    f.docs[doc.ListingID] = doc
    return nil
}

func (f *fakeIndex) Delete(_ context.Context, listingID uint64) error {
    if f.deleteErr != nil {
        return f.deleteErr
    }
    f.deleted = append(f.deleted, listingID)
    return nil
}

func (f *fakeIndex) Search(_ context.Context, _ *search.Criteria) (*search.Result, error) {
    if f.searchErr != nil {
        return nil, f.searchErr
    }
    return f.result, nil
}

func (f *fakeIndex) Resync(_ context.Context, listings []model.ListingDetail) (int, error) {
    for _, d := range listings {
        f.docs[d.ID] = search.MapListing(&d)
    }
    return 0, nil
}

func validNewListing(donorID, addressID uint64) *model.NewListing {
    return &model.NewListing{
        DonorID:     donorID,
        AddressID:   addressID,
        CategoryID:  3,
        Title:       "Crate of apples",
        Description: "Slightly bruised but fine",
        QuantityKg:  20,
        FeedsPeople: 40,
        BestBefore:  time.Now().Add(72 * time.Hour),
    }
}

func TestListingCreateMirrorsDocument(t *testing.T) {
    store := newFakeListingStore()
    store.addresses[5] = 1
    idx := newFakeIndex()
    svc := NewListingService(store, idx)

    d, err := svc.Create(context.Background(), validNewListing(1, 5))
    require.NoError(t, err)
    require.NotNil(t, d)

    doc, ok := idx.docs[d.ID]
    require.True(t, ok, "created listing should be mirrored into the index")
    assert.Equal(t, "Crate of apples", doc.Title)
    assert.Equal(t, model.ListingAvailable, doc.Status)
}

func TestListingCreateValidation(t *testing.T) {
    store := newFakeListingStore()
    store.addresses[5] = 1
    svc := NewListingService(store, newFakeIndex())
    ctx := context.Background()

    in := validNewListing(1, 5)
    in.Title = ""
    _, err := svc.Create(ctx, in)
    assert.ErrorIs(t, err, ErrValidation)

    in = validNewListing(1, 5)
    in.QuantityKg = -1
    _, err = svc.Create(ctx, in)
    assert.ErrorIs(t, err, ErrValidation)

    in = validNewListing(1, 5)
    in.BestBefore = time.Time{}
    _, err = svc.Create(ctx, in)
    assert.ErrorIs(t, err, ErrValidation)

    assert.Empty(t, store.listings, "nothing should be stored on validation failure")
}

func TestListingCreateRejectsForeignAddress(t *testing.T) {
    store := newFakeListingStore()
    store.addresses[5] = 99 // owned by someone else
    svc := NewListingService(store, newFakeIndex())

    _, err := svc.Create(context.Background(), validNewListing(1, 5))
    assert.ErrorIs(t, err, repository.ErrInvalidAddress)
}

func TestListingCreateSurvivesIndexOutage(t *testing.T) {
    store := newFakeListingStore()
    store.addresses[5] = 1
    idx := newFakeIndex()
    idx.indexErr = errors.New("index unreachable")
    svc := NewListingService(store, idx)

    // the committed row wins; mirroring failure is drift, not an error
    d, err := svc.Create(context.Background(), validNewListing(1, 5))
    require.NoError(t, err)
    assert.Contains(t, store.listings, d.ID)
}

func TestSearchMergesInIndexOrder(t *testing.T) {
    store := newFakeListingStore()
    store.addresses[5] = 1
    idx := newFakeIndex()
    svc := NewListingService(store, idx)
    ctx := context.Background()

    for i := 0; i < 3; i++ {
        _, err := svc.Create(ctx, validNewListing(1, 5))
        require.NoError(t, err)
    }
    idx.result = &search.Result{
        Total: 3,
        Hits:  []search.Hit{{ID: 3, Score: 2.0}, {ID: 1, Score: 1.5}, {ID: 2, Score: 0.4}},
    }

    res, err := svc.Search(ctx, &search.Criteria{Text: "apples"})
    require.NoError(t, err)
    assert.Equal(t, int64(3), res.Total)
    require.Len(t, res.Listings, 3)
    assert.Equal(t, uint64(3), res.Listings[0].ID)
    assert.Equal(t, uint64(1), res.Listings[1].ID)
    assert.Equal(t, uint64(2), res.Listings[2].ID)
}

func TestSearchDriftedHitsDropOut(t *testing.T) {
    store := newFakeListingStore()
    store.addresses[5] = 1
    idx := newFakeIndex()
    svc := NewListingService(store, idx)
    ctx := context.Background()

    _, err := svc.Create(ctx, validNewListing(1, 5))
    require.NoError(t, err)

    // ID 77 exists only in the index; the store silently drops it
    idx.result = &search.Result{Total: 2, Hits: []search.Hit{{ID: 77}, {ID: 1}}}

    res, err := svc.Search(ctx, &search.Criteria{})
    require.NoError(t, err)
    require.Len(t, res.Listings, 1)
    assert.Equal(t, uint64(1), res.Listings[0].ID)
}

func TestSearchZeroHitsSkipsStore(t *testing.T) {
    store := newFakeListingStore()
    idx := newFakeIndex()
    svc := NewListingService(store, idx)

    res, err := svc.Search(context.Background(), &search.Criteria{Text: "nothing"})
    require.NoError(t, err)
    assert.Equal(t, int64(0), res.Total)
    assert.Empty(t, res.Listings)
    assert.Zero(t, store.fetchCalls, "zero index hits must not touch the store")
}

func TestSearchValidation(t *testing.T) {
    svc := NewListingService(newFakeListingStore(), newFakeIndex())
    ctx := context.Background()

    _, err := svc.Search(ctx, &search.Criteria{Sort: "price"})
    assert.ErrorIs(t, err, ErrValidation)

    _, err = svc.Search(ctx, &search.Criteria{RadiusKm: -1})
    assert.ErrorIs(t, err, ErrValidation)

    lat := 40.0
    _, err = svc.Search(ctx, &search.Criteria{Latitude: &lat})
    assert.ErrorIs(t, err, ErrValidation)
}

func TestSearchIndexFailureSurfaces(t *testing.T) {
    idx := newFakeIndex()
    idx.searchErr = errors.New("index unreachable")
    svc := NewListingService(newFakeListingStore(), idx)

    _, err := svc.Search(context.Background(), &search.Criteria{})
    assert.Error(t, err)
}

func TestListingDeleteRemovesDocument(t *testing.T) {
    store := newFakeListingStore()
    store.addresses[5] = 1
    idx := newFakeIndex()
    svc := NewListingService(store, idx)
    ctx := context.Background()

    d, err := svc.Create(ctx, validNewListing(1, 5))
    require.NoError(t, err)

    require.NoError(t, svc.Delete(ctx, d.ID, 1))
    assert.Equal(t, model.ListingExpired, store.listings[d.ID].Status)
    assert.Contains(t, idx.deleted, d.ID)
}

func TestListingDeleteSurvivesIndexOutage(t *testing.T) {
    store := newFakeListingStore()
    store.addresses[5] = 1
    idx := newFakeIndex()
    svc := NewListingService(store, idx)
    ctx := context.Background()

    d, err := svc.Create(ctx, validNewListing(1, 5))
    require.NoError(t, err)

    idx.deleteErr = errors.New("index unreachable")
    require.NoError(t, svc.Delete(ctx, d.ID, 1))
    assert.Equal(t, model.ListingExpired, store.listings[d.ID].Status)
}

func TestResyncIndexesAvailableListings(t *testing.T) {
    store := newFakeListingStore()
    store.addresses[5] = 1
    idx := newFakeIndex()
    svc := NewListingService(store, idx)
    ctx := context.Background()

    a, err := svc.Create(ctx, validNewListing(1, 5))
    require.NoError(t, err)
    b, err := svc.Create(ctx, validNewListing(1, 5))
    require.NoError(t, err)
    require.NoError(t, svc.Delete(ctx, b.ID, 1))

    idx.docs = map[uint64]search.Document{} // wipe, as after index downtime
    failed, err := svc.ResyncIndex(ctx)
    require.NoError(t, err)
    assert.Zero(t, failed)
    assert.Contains(t, idx.docs, a.ID)
    assert.NotContains(t, idx.docs, b.ID, "expired listings stay out of the index")
}
