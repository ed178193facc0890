package service

import (
    "context"
    "log"
    "time"

    "github.com/foodbridge/foodshare/internal/model"
    "github.com/foodbridge/foodshare/internal/queue"
)

// ReservationStore is the transactional persistence behind the
// reservation state machine.  *repository.ReservationRepo satisfies
// it; implementations must serialize concurrent Reserve calls on the
// same listing.
type ReservationStore interface {
    Reserve(ctx context.Context, listingID, recipientID uint64, quantityKg float64, pickupTime time.Time) (*model.Reservation, error)
    SetStatus(ctx context.Context, reservationID, actorID uint64, newStatus string) (*model.Reservation, error)
    ListByRecipient(ctx context.Context, recipientID uint64) ([]model.ReservationDetail, error)
    ListByListing(ctx context.Context, listingID uint64) ([]model.Reservation, error)
}

// ListingReader is the slice of the listing store the reservation
// service needs to enrich domain events.
type ListingReader interface {
    GetDetail(ctx context.Context, listingID uint64) (*model.ListingDetail, error)
}

// EventPublisher sends a reservation event to the broker.  Publishing
// is best-effort: a committed reservation is never failed because the
// broker was down.
type EventPublisher func(ctx context.Context, ev queue.ReservationCreatedEvent) error

// ReservationService exposes reserve and lifecycle operations.
type ReservationService struct {
    store    ReservationStore
    listings ListingReader
    publish  EventPublisher // optional; nil disables events
}

// NewReservationService constructs a ReservationService.  The store and
// listing reader must be non-nil; publish may be nil to disable
// event publishing.
func NewReservationService(store ReservationStore, listings ListingReader, publish EventPublisher) *ReservationService {
    if store == nil || listings == nil {
        panic("nil dependency passed to NewReservationService")
    }
    return &ReservationService{store: store, listings: listings, publish: publish}
}

// Reserve claims quantityKg from a listing on behalf of a recipient.
// Availability and stock checks run inside the store's transaction
// under the listing row lock; this method only validates shape and, on
// success, emits the reservation.created event.
func (s *ReservationService) Reserve(ctx context.Context, listingID, recipientID uint64, quantityKg float64, pickupTime time.Time) (*model.Reservation, error) {
    if listingID == 0 {
        return nil, invalidf("listing_id is required")
    }
    if quantityKg <= 0 {
        return nil, invalidf("quantity_requested must be positive")
    }
    if pickupTime.IsZero() {
        return nil, invalidf("pickup_time is required")
    }
    res, err := s.store.Reserve(ctx, listingID, recipientID, quantityKg, pickupTime)
    if err != nil {
        return nil, err
    }
    s.emitCreated(ctx, res)
    return res, nil
}

// emitCreated publishes the reservation.created event, enriched with
// listing and donor information.  Failures are logged only.
func (s *ReservationService) emitCreated(ctx context.Context, res *model.Reservation) {
    if s.publish == nil {
        return
    }
    ev := queue.ReservationCreatedEvent{
        ReservationID:    res.ID,
        ListingID:        res.ListingID,
        RecipientID:      res.RecipientID,
        QuantityReserved: res.QuantityReserved,
        PickupTime:       res.PickupTime.UTC().Format(time.RFC3339),
        CreatedAt:        res.CreatedAt.UTC().Format(time.RFC3339),
    }
    if detail, err := s.listings.GetDetail(ctx, res.ListingID); err == nil {
        ev.DonorID = detail.DonorID
        ev.ListingTitle = detail.Title
        ev.RemainingKg = detail.QuantityKg
    }
    if err := s.publish(ctx, ev); err != nil {
        log.Printf("rabbitmq: reservation.created publish failed for reservation %d: %v", res.ID, err)
    }
}

// SetStatus moves a reservation to accepted, declined or completed on
// behalf of an actor.  Authorization (donor or recipient only) and the
// decline replenishment run inside the store transaction.
func (s *ReservationService) SetStatus(ctx context.Context, reservationID, actorID uint64, newStatus string) (*model.Reservation, error) {
    if !model.ValidReservationTransition(newStatus) {
        return nil, invalidf("invalid status %q", newStatus)
    }
    return s.store.SetStatus(ctx, reservationID, actorID, newStatus)
}

// ListByRecipient returns a recipient's reservations with listing and
// donor context.
func (s *ReservationService) ListByRecipient(ctx context.Context, recipientID uint64) ([]model.ReservationDetail, error) {
    return s.store.ListByRecipient(ctx, recipientID)
}

// ListForListing returns all reservations on a listing, for the
// donor-facing listing detail view.
func (s *ReservationService) ListForListing(ctx context.Context, listingID uint64) ([]model.Reservation, error) {
    return s.store.ListByListing(ctx, listingID)
}
