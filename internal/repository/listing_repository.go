package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/foodbridge/foodshare/internal/model"
)

// ListingRepo provides persistence for food listings.  The food_listings
// row is the authoritative record for quantity and status; every search
// result is re-resolved through this repository before it reaches a
// client.  All timestamp fields are stored in UTC.
type ListingRepo struct {
    db *sql.DB
}

// NewListingRepo returns a new ListingRepo bound to the given database.
func NewListingRepo(db *sql.DB) *ListingRepo { return &ListingRepo{db: db} }

// DB exposes the underlying pool for callers that need to open their
// own transactions.
func (r *ListingRepo) DB() *sql.DB { return r.db }

// detailColumns is the joined projection shared by every query that
// returns a ListingDetail.
const detailColumns = `fl.listing_id, fl.donor_id, fl.address_id, fl.category_id,
           fl.title, fl.description, fl.quantity_kg, fl.feeds_people,
           fl.best_before, fl.status, fl.created_at, fl.updated_at,
           u.name AS donor_name, fc.name AS category_name,
           a.city, a.state, a.latitude, a.longitude`

const detailJoins = ` FROM food_listings fl
           JOIN users u            ON u.user_id      = fl.donor_id
           JOIN food_categories fc ON fc.category_id = fl.category_id
           JOIN addresses a        ON a.address_id   = fl.address_id`

// scanDetail reads one joined row into a ListingDetail.  Latitude and
// longitude are nullable; the mapper downstream treats their absence as
// "no geo point".
func scanDetail(row interface{ Scan(...any) error }) (*model.ListingDetail, error) {
    var d model.ListingDetail
    var lat, lon sql.NullFloat64
    err := row.Scan(
        &d.ID, &d.DonorID, &d.AddressID, &d.CategoryID,
        &d.Title, &d.Description, &d.QuantityKg, &d.FeedsPeople,
        &d.BestBefore, &d.Status, &d.CreatedAt, &d.UpdatedAt,
        &d.DonorName, &d.CategoryName,
        &d.City, &d.State, &lat, &lon,
    )
    if err != nil {
        return nil, err
    }
    if lat.Valid {
        v := lat.Float64
        d.Latitude = &v
    }
    if lon.Valid {
        v := lon.Float64
        d.Longitude = &v
    }
    return &d, nil
}

// AddressBelongsTo reports whether the address exists and is owned by
// the given user.  Listings may only point at their donor's addresses.
func (r *ListingRepo) AddressBelongsTo(ctx context.Context, addressID, userID uint64) (bool, error) {
    const q = `SELECT 1 FROM addresses WHERE address_id = ? AND user_id = ?`
    var one int
    err := r.db.QueryRowContext(ctx, q, addressID, userID).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// Create inserts a new available listing and returns the joined detail
// row for the freshly created record.
func (r *ListingRepo) Create(ctx context.Context, in *model.NewListing) (*model.ListingDetail, error) {
    const q = `INSERT INTO food_listings
               (donor_id, address_id, category_id, title, description,
                quantity_kg, feeds_people, best_before, status)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'available')`
    res, err := r.db.ExecContext(ctx, q,
        in.DonorID, in.AddressID, in.CategoryID, in.Title, in.Description,
        in.QuantityKg, in.FeedsPeople, in.BestBefore)
    if err != nil {
        return nil, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return nil, err
    }
    return r.GetDetail(ctx, uint64(id))
}

// GetDetail returns one listing joined with donor, category and address
// information.  It returns ErrListingNotFound when no row exists.
func (r *ListingRepo) GetDetail(ctx context.Context, listingID uint64) (*model.ListingDetail, error) {
    q := `SELECT ` + detailColumns + detailJoins + ` WHERE fl.listing_id = ?`
    d, err := scanDetail(r.db.QueryRowContext(ctx, q, listingID))
    if err == sql.ErrNoRows {
        return nil, ErrListingNotFound
    }
    if err != nil {
        return nil, err
    }
    return d, nil
}

// ListAvailable returns every listing currently in the available state
// with its joins.  The index resync walks this at startup to rebuild
// the search mirror from authoritative rows.
func (r *ListingRepo) ListAvailable(ctx context.Context) ([]model.ListingDetail, error) {
    q := `SELECT ` + detailColumns + detailJoins + ` WHERE fl.status = 'available'`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.ListingDetail, 0)
    for rows.Next() {
        d, err := scanDetail(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// FetchRanked re-resolves an ordered set of listing IDs coming from the
// search index against authoritative rows and decides the final order.
// When text is non-empty the store's own full-text rank
// (MATCH ... AGAINST over title and description) orders the results
// descending, with the index's positional order as the tie-break;
// otherwise the index order is preserved verbatim via FIELD().  IDs the
// store no longer recognises simply drop out of the result.
func (r *ListingRepo) FetchRanked(ctx context.Context, ids []uint64, text string) ([]model.ListingDetail, error) {
    if len(ids) == 0 {
        return []model.ListingDetail{}, nil
    }
    placeholders := strings.Repeat("?,", len(ids))
    placeholders = placeholders[:len(placeholders)-1]

    q := `SELECT ` + detailColumns + `,
           CASE WHEN ? <> ''
                THEN MATCH(fl.title, fl.description) AGAINST (? IN NATURAL LANGUAGE MODE)
                ELSE 0
           END AS relevance` + detailJoins + `
           WHERE fl.listing_id IN (` + placeholders + `)
           ORDER BY relevance DESC, FIELD(fl.listing_id, ` + placeholders + `)`

    args := make([]any, 0, 2+2*len(ids))
    args = append(args, text, text)
    for _, id := range ids {
        args = append(args, id)
    }
    for _, id := range ids {
        args = append(args, id)
    }

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.ListingDetail, 0, len(ids))
    for rows.Next() {
        var d model.ListingDetail
        var lat, lon sql.NullFloat64
        var relevance float64
        if err := rows.Scan(
            &d.ID, &d.DonorID, &d.AddressID, &d.CategoryID,
            &d.Title, &d.Description, &d.QuantityKg, &d.FeedsPeople,
            &d.BestBefore, &d.Status, &d.CreatedAt, &d.UpdatedAt,
            &d.DonorName, &d.CategoryName,
            &d.City, &d.State, &lat, &lon,
            &relevance,
        ); err != nil {
            return nil, err
        }
        if lat.Valid {
            v := lat.Float64
            d.Latitude = &v
        }
        if lon.Valid {
            v := lon.Float64
            d.Longitude = &v
        }
        out = append(out, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// activeReservationCountTx counts pending or accepted reservations on a
// listing within the caller's transaction.
func activeReservationCountTx(ctx context.Context, tx *sql.Tx, listingID uint64) (int64, error) {
    const q = `SELECT COUNT(*) FROM reservations
               WHERE listing_id = ? AND status IN ('pending', 'accepted')`
    var n int64
    err := tx.QueryRowContext(ctx, q, listingID).Scan(&n)
    return n, err
}

// Update replaces a listing's caller-editable fields.  It verifies that
// the listing belongs to the donor and, when active reservations exist,
// refuses quantity reductions with ErrConflict: shrinking the pool
// below what reservations already claimed would let stock go negative
// on decline replenishment.  The whole operation runs in one
// transaction with the row locked.
func (r *ListingRepo) Update(ctx context.Context, listingID, donorID uint64, in *model.ListingUpdate) (*model.ListingDetail, error) {
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

    const sel = `SELECT quantity_kg FROM food_listings
                 WHERE listing_id = ? AND donor_id = ? FOR UPDATE`
    var current float64
    if err := tx.QueryRowContext(ctx, sel, listingID, donorID).Scan(&current); err != nil {
        if err == sql.ErrNoRows {
            return nil, ErrListingNotFound
        }
        return nil, err
    }

    if in.QuantityKg < current {
        active, err := activeReservationCountTx(ctx, tx, listingID)
        if err != nil {
            return nil, err
        }
        if active > 0 {
            return nil, ErrConflict
        }
    }

    const upd = `UPDATE food_listings
                 SET title = ?, description = ?, category_id = ?,
                     quantity_kg = ?, feeds_people = ?, best_before = ?,
                     address_id = ?, updated_at = CURRENT_TIMESTAMP
                 WHERE listing_id = ? AND donor_id = ?`
    if _, err := tx.ExecContext(ctx, upd,
        in.Title, in.Description, in.CategoryID,
        in.QuantityKg, in.FeedsPeople, in.BestBefore,
        in.AddressID, listingID, donorID); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return r.GetDetail(ctx, listingID)
}

// SoftDelete marks a donor's listing expired.  Listings with active
// reservations cannot be deleted (ErrConflict); a listing that does not
// exist or belongs to another donor yields ErrListingNotFound.  The
// search document removal happens outside this transaction, after
// commit.
func (r *ListingRepo) SoftDelete(ctx context.Context, listingID, donorID uint64) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    active, err := activeReservationCountTx(ctx, tx, listingID)
    if err != nil {
        return err
    }
    if active > 0 {
        return ErrConflict
    }

    const q = `UPDATE food_listings
               SET status = 'expired', updated_at = CURRENT_TIMESTAMP
               WHERE listing_id = ? AND donor_id = ?`
    res, err := tx.ExecContext(ctx, q, listingID, donorID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrListingNotFound
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// ListByDonor returns all listings posted by a donor, newest first,
// each annotated with how many reservations have been placed on it.
func (r *ListingRepo) ListByDonor(ctx context.Context, donorID uint64) ([]model.DonorListing, error) {
    const q = `SELECT fl.listing_id, fl.donor_id, fl.address_id, fl.category_id,
                      fl.title, fl.description, fl.quantity_kg, fl.feeds_people,
                      fl.best_before, fl.status, fl.created_at, fl.updated_at,
                      fc.name AS category_name, a.city, a.state,
                      COUNT(res.reservation_id) AS reservation_count
               FROM food_listings fl
               JOIN food_categories fc ON fc.category_id = fl.category_id
               JOIN addresses a        ON a.address_id   = fl.address_id
               LEFT JOIN reservations res ON res.listing_id = fl.listing_id
               WHERE fl.donor_id = ?
               GROUP BY fl.listing_id, fc.name, a.city, a.state
               ORDER BY fl.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, donorID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.DonorListing, 0)
    for rows.Next() {
        var d model.DonorListing
        if err := rows.Scan(
            &d.ID, &d.DonorID, &d.AddressID, &d.CategoryID,
            &d.Title, &d.Description, &d.QuantityKg, &d.FeedsPeople,
            &d.BestBefore, &d.Status, &d.CreatedAt, &d.UpdatedAt,
            &d.CategoryName, &d.City, &d.State,
            &d.ReservationCount,
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
