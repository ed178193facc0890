package repository

import (
    "context"
    "database/sql"

    "github.com/foodbridge/foodshare/internal/model"
)

// LookupRepo serves the small reference tables: food categories and a
// user's saved addresses.
type LookupRepo struct {
    db *sql.DB
}

// NewLookupRepo returns a new LookupRepo bound to the given database.
func NewLookupRepo(db *sql.DB) *LookupRepo { return &LookupRepo{db: db} }

// Categories returns all food categories ordered by name.
func (r *LookupRepo) Categories(ctx context.Context) ([]model.Category, error) {
    const q = `SELECT category_id, name FROM food_categories ORDER BY name`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Category, 0)
    for rows.Next() {
        var c model.Category
        if err := rows.Scan(&c.ID, &c.Name); err != nil {
            return nil, err
        }
        out = append(out, c)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// AddressesByUser returns a user's addresses, default address first.
func (r *LookupRepo) AddressesByUser(ctx context.Context, userID uint64) ([]model.Address, error) {
    const q = `SELECT address_id, user_id, street_address, city, state,
                      latitude, longitude, is_default, created_at
               FROM addresses
               WHERE user_id = ?
               ORDER BY is_default DESC, created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Address, 0)
    for rows.Next() {
        var a model.Address
        var lat, lon sql.NullFloat64
        if err := rows.Scan(
            &a.ID, &a.UserID, &a.StreetAddress, &a.City, &a.State,
            &lat, &lon, &a.IsDefault, &a.CreatedAt,
        ); err != nil {
            return nil, err
        }
        if lat.Valid {
            v := lat.Float64
            a.Latitude = &v
        }
        if lon.Valid {
            v := lon.Float64
            a.Longitude = &v
        }
        out = append(out, a)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}
