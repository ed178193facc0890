package service

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/foodbridge/foodshare/internal/model"
    "github.com/foodbridge/foodshare/internal/queue"
    "github.com/foodbridge/foodshare/internal/repository"
)

// fakeReservationStore mimics the transactional repository: a mutex
// plays the role of the listing row lock, so concurrent Reserve calls
// serialize exactly as they would against the database.
type fakeReservationStore struct {
    mu           sync.Mutex
    listings     *fakeListingStore
    reservations map[uint64]*model.Reservation
    nextID       uint64
}

func newFakeReservationStore(listings *fakeListingStore) *fakeReservationStore {
    return &fakeReservationStore{
        listings:     listings,
        reservations: map[uint64]*model.Reservation{},
        nextID:       1,
    }
}

func (f *fakeReservationStore) Reserve(_ context.Context, listingID, recipientID uint64, quantityKg float64, pickupTime time.Time) (*model.Reservation, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    l, ok := f.listings.listings[listingID]
    if !ok || l.Status != model.ListingAvailable {
        return nil, repository.ErrNotAvailable
    }
    if quantityKg > l.QuantityKg {
        return nil, repository.ErrOverRequested
    }
    res := &model.Reservation{
        ID:               f.nextID,
        ListingID:        listingID,
        RecipientID:      recipientID,
        QuantityReserved: quantityKg,
        Status:           model.ReservationPending,
        PickupTime:       pickupTime,
        CreatedAt:        time.Now(),
    }
    f.reservations[res.ID] = res
    f.nextID++
    l.QuantityKg -= quantityKg
    if l.QuantityKg == 0 {
        l.Status = model.ListingReserved
    }
    return res, nil
}

func (f *fakeReservationStore) SetStatus(_ context.Context, reservationID, actorID uint64, newStatus string) (*model.Reservation, error) {
    f.mu.Lock()
    defer f.mu.Unlock()
    res, ok := f.reservations[reservationID]
    if !ok {
        return nil, repository.ErrReservationNotFound
    }
    l := f.listings.listings[res.ListingID]
    if actorID != l.DonorID && actorID != res.RecipientID {
        return nil, repository.ErrForbidden
    }
    if res.Status == newStatus {
        return nil, repository.ErrConflict
    }
    res.Status = newStatus
    if newStatus == model.ReservationDeclined {
        l.QuantityKg += res.QuantityReserved
        l.Status = model.ListingAvailable
    }
    return res, nil
}

func (f *fakeReservationStore) ListByRecipient(_ context.Context, recipientID uint64) ([]model.ReservationDetail, error) {
    out := []model.ReservationDetail{}
    for _, r := range f.reservations {
        if r.RecipientID == recipientID {
            out = append(out, model.ReservationDetail{Reservation: *r})
        }
    }
    return out, nil
}

func (f *fakeReservationStore) ListByListing(_ context.Context, listingID uint64) ([]model.Reservation, error) {
    out := []model.Reservation{}
    for _, r := range f.reservations {
        if r.ListingID == listingID {
            out = append(out, *r)
        }
    }
    return out, nil
}

// eventRecorder captures published events; safe for concurrent use.
type eventRecorder struct {
    mu     sync.Mutex
    events []queue.ReservationCreatedEvent
    err    error
}

func (r *eventRecorder) publish(_ context.Context, ev queue.ReservationCreatedEvent) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    if r.err != nil {
        return r.err
    }
    r.events = append(r.events, ev)
    return nil
}

func reservationFixture(t *testing.T) (*ReservationService, *fakeListingStore, *fakeReservationStore, *eventRecorder) {
    t.Helper()
    listings := newFakeListingStore()
    listings.addresses[5] = 1
    store := newFakeReservationStore(listings)
    rec := &eventRecorder{}
    svc := NewReservationService(store, listings, rec.publish)

    _, err := listings.Create(context.Background(), validNewListing(1, 5)) // listing 1, donor 1, 20kg
    require.NoError(t, err)
    return svc, listings, store, rec
}

func TestReserveHappyPath(t *testing.T) {
    svc, listings, _, rec := reservationFixture(t)
    pickup := time.Now().Add(4 * time.Hour)

    res, err := svc.Reserve(context.Background(), 1, 9, 8, pickup)
    require.NoError(t, err)
    assert.Equal(t, model.ReservationPending, res.Status)
    assert.Equal(t, 8.0, res.QuantityReserved)

    l := listings.listings[1]
    assert.Equal(t, 12.0, l.QuantityKg)
    assert.Equal(t, model.ListingAvailable, l.Status)

    require.Len(t, rec.events, 1)
    assert.Equal(t, res.ID, rec.events[0].ReservationID)
    assert.Equal(t, uint64(1), rec.events[0].DonorID)
    assert.Equal(t, 12.0, rec.events[0].RemainingKg)
}

func TestReserveDrainingFlipsStatus(t *testing.T) {
    svc, listings, _, _ := reservationFixture(t)
    pickup := time.Now().Add(time.Hour)

    _, err := svc.Reserve(context.Background(), 1, 9, 20, pickup)
    require.NoError(t, err)
    assert.Equal(t, model.ListingReserved, listings.listings[1].Status)

    // the drained listing is no longer reservable
    _, err = svc.Reserve(context.Background(), 1, 10, 1, pickup)
    assert.ErrorIs(t, err, repository.ErrNotAvailable)
}

func TestReserveOverRequested(t *testing.T) {
    svc, listings, _, rec := reservationFixture(t)

    _, err := svc.Reserve(context.Background(), 1, 9, 25, time.Now().Add(time.Hour))
    assert.ErrorIs(t, err, repository.ErrOverRequested)
    assert.Equal(t, 20.0, listings.listings[1].QuantityKg, "failed reserve must not touch stock")
    assert.Empty(t, rec.events)
}

func TestReserveValidation(t *testing.T) {
    svc, _, _, _ := reservationFixture(t)
    ctx := context.Background()
    pickup := time.Now().Add(time.Hour)

    _, err := svc.Reserve(ctx, 0, 9, 5, pickup)
    assert.ErrorIs(t, err, ErrValidation)

    _, err = svc.Reserve(ctx, 1, 9, 0, pickup)
    assert.ErrorIs(t, err, ErrValidation)

    _, err = svc.Reserve(ctx, 1, 9, -2, pickup)
    assert.ErrorIs(t, err, ErrValidation)

    _, err = svc.Reserve(ctx, 1, 9, 5, time.Time{})
    assert.ErrorIs(t, err, ErrValidation)
}

func TestReserveConcurrentLastKilograms(t *testing.T) {
    listings := newFakeListingStore()
    listings.addresses[5] = 1
    _, err := listings.Create(context.Background(), validNewListing(1, 5))
    require.NoError(t, err)
    // nil publisher: event enrichment reads listing rows outside the
    // store lock and would only add noise to a pure stock race
    svc := NewReservationService(newFakeReservationStore(listings), listings, nil)
    pickup := time.Now().Add(time.Hour)

    // 20kg on offer, ten racing claims of 15kg each: exactly one can win
    const racers = 10
    var wg sync.WaitGroup
    errs := make([]error, racers)
    for i := 0; i < racers; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, errs[i] = svc.Reserve(context.Background(), 1, uint64(100+i), 15, pickup)
        }(i)
    }
    wg.Wait()

    winners := 0
    for _, err := range errs {
        if err == nil {
            winners++
        } else {
            assert.ErrorIs(t, err, repository.ErrOverRequested)
        }
    }
    assert.Equal(t, 1, winners)
    assert.Equal(t, 5.0, listings.listings[1].QuantityKg)
}

func TestReserveSurvivesPublishFailure(t *testing.T) {
    svc, _, store, rec := reservationFixture(t)
    rec.err = errors.New("broker down")

    res, err := svc.Reserve(context.Background(), 1, 9, 5, time.Now().Add(time.Hour))
    require.NoError(t, err, "a committed reservation is never failed by the broker")
    assert.Contains(t, store.reservations, res.ID)
}

func TestSetStatusDecline(t *testing.T) {
    svc, listings, _, _ := reservationFixture(t)
    ctx := context.Background()

    res, err := svc.Reserve(ctx, 1, 9, 20, time.Now().Add(time.Hour))
    require.NoError(t, err)
    require.Equal(t, model.ListingReserved, listings.listings[1].Status)

    // donor declines: quantity comes back and the listing reopens
    updated, err := svc.SetStatus(ctx, res.ID, 1, model.ReservationDeclined)
    require.NoError(t, err)
    assert.Equal(t, model.ReservationDeclined, updated.Status)
    assert.Equal(t, 20.0, listings.listings[1].QuantityKg)
    assert.Equal(t, model.ListingAvailable, listings.listings[1].Status)

    // declining twice would inflate stock; the repeat is a conflict
    _, err = svc.SetStatus(ctx, res.ID, 1, model.ReservationDeclined)
    assert.ErrorIs(t, err, repository.ErrConflict)
    assert.Equal(t, 20.0, listings.listings[1].QuantityKg)
}

func TestSetStatusAuthorization(t *testing.T) {
    svc, _, _, _ := reservationFixture(t)
    ctx := context.Background()

    res, err := svc.Reserve(ctx, 1, 9, 5, time.Now().Add(time.Hour))
    require.NoError(t, err)

    // a bystander may not touch it
    _, err = svc.SetStatus(ctx, res.ID, 777, model.ReservationAccepted)
    assert.ErrorIs(t, err, repository.ErrForbidden)

    // the recipient may decline their own reservation
    _, err = svc.SetStatus(ctx, res.ID, 9, model.ReservationDeclined)
    assert.NoError(t, err)
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
    svc, _, _, _ := reservationFixture(t)
    ctx := context.Background()

    _, err := svc.SetStatus(ctx, 1, 1, "shipped")
    assert.ErrorIs(t, err, ErrValidation)

    // pending can only be set by the reserve operation itself
    _, err = svc.SetStatus(ctx, 1, 1, model.ReservationPending)
    assert.ErrorIs(t, err, ErrValidation)
}

func TestSetStatusUnknownReservation(t *testing.T) {
    svc, _, _, _ := reservationFixture(t)

    _, err := svc.SetStatus(context.Background(), 404, 1, model.ReservationAccepted)
    assert.ErrorIs(t, err, repository.ErrReservationNotFound)
}

func TestListByRecipient(t *testing.T) {
    svc, _, _, _ := reservationFixture(t)
    ctx := context.Background()

    _, err := svc.Reserve(ctx, 1, 9, 3, time.Now().Add(time.Hour))
    require.NoError(t, err)
    _, err = svc.Reserve(ctx, 1, 9, 4, time.Now().Add(2*time.Hour))
    require.NoError(t, err)

    mine, err := svc.ListByRecipient(ctx, 9)
    require.NoError(t, err)
    assert.Len(t, mine, 2)

    none, err := svc.ListByRecipient(ctx, 10)
    require.NoError(t, err)
    assert.Empty(t, none)
}
