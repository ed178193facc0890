package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/foodbridge/foodshare/internal/model"
)

// ReservationRepo provides the reservation state machine over the
// reservations and food_listings tables.  Stock movements only ever
// happen inside transactions that hold the listing row lock, which is
// what keeps quantity_kg from going negative under concurrent
// reservation attempts.  All timestamp fields are stored in UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// reload queries back the full reservation row to populate generated
// timestamps and defaults.
func (r *ReservationRepo) reload(ctx context.Context, q interface {
    QueryRowContext(context.Context, string, ...any) *sql.Row
}, reservationID uint64) (*model.Reservation, error) {
    const sel = `SELECT reservation_id, listing_id, recipient_id, quantity_reserved,
                        status, pickup_time, created_at, updated_at
                 FROM reservations WHERE reservation_id = ?`
    var res model.Reservation
    err := q.QueryRowContext(ctx, sel, reservationID).Scan(
        &res.ID, &res.ListingID, &res.RecipientID, &res.QuantityReserved,
        &res.Status, &res.PickupTime, &res.CreatedAt, &res.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    return &res, nil
}

// Reserve atomically claims quantity from a listing.  Within a single
// transaction it locks the listing row (serializing concurrent attempts
// on the same listing), validates availability and requested quantity,
// inserts a pending reservation, and decrements the listing's stock,
// flipping the listing to reserved when the remainder hits zero.  On
// any failure the transaction rolls back and no partial mutation is
// visible.
//
// A second concurrent attempt blocks on the row lock until the first
// commits, then sees the decremented quantity before deciding, so two
// requests whose quantities sum past the stock can never both succeed.
func (r *ReservationRepo) Reserve(ctx context.Context, listingID, recipientID uint64, quantityKg float64, pickupTime time.Time) (*model.Reservation, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // Lock the listing row; only available listings are reservable.
    const lock = `SELECT quantity_kg FROM food_listings
                  WHERE listing_id = ? AND status = 'available' FOR UPDATE`
    var available float64
    if err := tx.QueryRowContext(ctx, lock, listingID).Scan(&available); err != nil {
        if err == sql.ErrNoRows {
            return nil, ErrNotAvailable
        }
        return nil, err
    }
    if quantityKg > available {
        return nil, ErrOverRequested
    }

    const ins = `INSERT INTO reservations
                 (listing_id, recipient_id, quantity_reserved, status, pickup_time)
                 VALUES (?, ?, ?, 'pending', ?)`
    res, err := tx.ExecContext(ctx, ins, listingID, recipientID, quantityKg, pickupTime)
    if err != nil {
        return nil, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return nil, err
    }

    // quantity_kg is DECIMAL, so the subtraction is exact and remaining
    // hits 0 precisely when the listing is drained.
    remaining := available - quantityKg
    status := model.ListingAvailable
    if remaining == 0 {
        status = model.ListingReserved
    }
    const upd = `UPDATE food_listings
                 SET quantity_kg = ?, status = ?, updated_at = CURRENT_TIMESTAMP
                 WHERE listing_id = ?`
    if _, err := tx.ExecContext(ctx, upd, remaining, status, listingID); err != nil {
        return nil, err
    }

    created, err := r.reload(ctx, tx, uint64(id))
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return created, nil
}

// SetStatus transitions a reservation to accepted, declined or
// completed.  The actor must be the listing's donor or the
// reservation's recipient (ErrForbidden otherwise).  Re-applying the
// current status is ErrConflict; in particular a reservation cannot be
// declined twice, which would replenish the listing twice.  Declining
// hands quantity_reserved back to the listing and forces it available;
// accept and complete touch only the reservation row.
func (r *ReservationRepo) SetStatus(ctx context.Context, reservationID, actorID uint64, newStatus string) (*model.Reservation, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // Lock the reservation and its listing together: the decline path
    // mutates listing stock.
    const sel = `SELECT res.recipient_id, res.listing_id, res.quantity_reserved, res.status,
                        fl.donor_id
                 FROM reservations res
                 JOIN food_listings fl ON fl.listing_id = res.listing_id
                 WHERE res.reservation_id = ? FOR UPDATE`
    var recipientID, listingID, donorID uint64
    var quantityReserved float64
    var current string
    err = tx.QueryRowContext(ctx, sel, reservationID).Scan(
        &recipientID, &listingID, &quantityReserved, &current, &donorID)
    if err != nil {
        if err == sql.ErrNoRows {
            return nil, ErrReservationNotFound
        }
        return nil, err
    }
    if actorID != donorID && actorID != recipientID {
        return nil, ErrForbidden
    }
    if current == newStatus {
        return nil, ErrConflict
    }

    const upd = `UPDATE reservations
                 SET status = ?, updated_at = CURRENT_TIMESTAMP
                 WHERE reservation_id = ?`
    if _, err := tx.ExecContext(ctx, upd, newStatus, reservationID); err != nil {
        return nil, err
    }

    if newStatus == model.ReservationDeclined {
        // Reverse the reserve-time decrement for this reservation's
        // share and reopen the listing.
        const replenish = `UPDATE food_listings
                           SET quantity_kg = quantity_kg + ?, status = 'available',
                               updated_at = CURRENT_TIMESTAMP
                           WHERE listing_id = ?`
        if _, err := tx.ExecContext(ctx, replenish, quantityReserved, listingID); err != nil {
            return nil, err
        }
    }

    updated, err := r.reload(ctx, tx, reservationID)
    if err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return updated, nil
}

// ListByRecipient returns all reservations made by a recipient, newest
// first, joined with the claimed listing's title, donor name and pickup
// address.
func (r *ReservationRepo) ListByRecipient(ctx context.Context, recipientID uint64) ([]model.ReservationDetail, error) {
    const q = `SELECT res.reservation_id, res.listing_id, res.recipient_id,
                      res.quantity_reserved, res.status, res.pickup_time,
                      res.created_at, res.updated_at,
                      fl.title, fl.description,
                      u.name AS donor_name,
                      a.street_address, a.city, a.state
               FROM reservations res
               JOIN food_listings fl ON fl.listing_id = res.listing_id
               JOIN users u          ON u.user_id     = fl.donor_id
               JOIN addresses a      ON a.address_id  = fl.address_id
               WHERE res.recipient_id = ?
               ORDER BY res.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, recipientID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.ReservationDetail, 0)
    for rows.Next() {
        var d model.ReservationDetail
        if err := rows.Scan(
            &d.ID, &d.ListingID, &d.RecipientID,
            &d.QuantityReserved, &d.Status, &d.PickupTime,
            &d.CreatedAt, &d.UpdatedAt,
            &d.ListingTitle, &d.ListingDescription,
            &d.DonorName,
            &d.StreetAddress, &d.City, &d.State,
        ); err != nil {
            return nil, err
        }
        out = append(out, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// ListByListing returns every reservation placed against a listing,
// newest first.  Used by the listing detail view, which only the owning
// donor may see in full.
func (r *ReservationRepo) ListByListing(ctx context.Context, listingID uint64) ([]model.Reservation, error) {
    const q = `SELECT reservation_id, listing_id, recipient_id, quantity_reserved,
                      status, pickup_time, created_at, updated_at
               FROM reservations
               WHERE listing_id = ?
               ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, listingID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Reservation, 0)
    for rows.Next() {
        var res model.Reservation
        if err := rows.Scan(
            &res.ID, &res.ListingID, &res.RecipientID, &res.QuantityReserved,
            &res.Status, &res.PickupTime, &res.CreatedAt, &res.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        out = append(out, res)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
