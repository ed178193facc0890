package search

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/foodbridge/foodshare/internal/model"
)

func fptr(f float64) *float64 { return &f }

func boolClause(t *testing.T, body map[string]any) map[string]any {
    t.Helper()
    q, ok := body["query"].(map[string]any)
    require.True(t, ok)
    b, ok := q["bool"].(map[string]any)
    require.True(t, ok)
    return b
}

func TestBuildSearchBodyBrowseDefaults(t *testing.T) {
    body := buildSearchBody(&Criteria{})

    b := boolClause(t, body)
    must := b["must"].([]any)
    require.Len(t, must, 1)
    term := must[0].(map[string]any)["term"].(map[string]any)
    assert.Equal(t, model.ListingAvailable, term["status"])

    assert.Empty(t, b["filter"])
    assert.Equal(t, defaultSize, body["size"])
    assert.Equal(t, true, body["track_scores"])

    // browsing without text must not drop weak hits or a sort clause
    _, hasMin := body["min_score"]
    assert.False(t, hasMin)
    _, hasSort := body["sort"]
    assert.False(t, hasSort)
}

func TestBuildSearchBodyTextQuery(t *testing.T) {
    body := buildSearchBody(&Criteria{Text: "sourdough bread"})

    b := boolClause(t, body)
    must := b["must"].([]any)
    require.Len(t, must, 2)
    mm := must[1].(map[string]any)["multi_match"].(map[string]any)
    assert.Equal(t, "sourdough bread", mm["query"])
    assert.Equal(t, []string{"title^3", "description^2", "category_name"}, mm["fields"])
    assert.Equal(t, "best_fields", mm["type"])
    assert.Equal(t, "AUTO", mm["fuzziness"])
    assert.Equal(t, "or", mm["operator"])

    assert.Equal(t, minTextScore, body["min_score"])
}

func TestBuildSearchBodyGeoFilter(t *testing.T) {
    body := buildSearchBody(&Criteria{Latitude: fptr(40.7), Longitude: fptr(-74.0)})

    b := boolClause(t, body)
    filter := b["filter"].([]any)
    require.Len(t, filter, 1)
    gd := filter[0].(map[string]any)["geo_distance"].(map[string]any)
    assert.Equal(t, "10km", gd["distance"]) // default radius
    loc := gd["location"].(map[string]any)
    assert.Equal(t, 40.7, loc["lat"])
    assert.Equal(t, -74.0, loc["lon"])
}

func TestBuildSearchBodyExplicitRadius(t *testing.T) {
    body := buildSearchBody(&Criteria{Latitude: fptr(1), Longitude: fptr(2), RadiusKm: 2.5})

    b := boolClause(t, body)
    gd := b["filter"].([]any)[0].(map[string]any)["geo_distance"].(map[string]any)
    assert.Equal(t, "2.5km", gd["distance"])
}

func TestBuildSearchBodyCategoryAndQuantity(t *testing.T) {
    body := buildSearchBody(&Criteria{
        Category:    "Baked Goods",
        MinQuantity: fptr(2),
        MaxQuantity: fptr(10),
    })

    b := boolClause(t, body)
    filter := b["filter"].([]any)
    require.Len(t, filter, 2)

    term := filter[0].(map[string]any)["term"].(map[string]any)
    assert.Equal(t, "Baked Goods", term["category_name.keyword"])

    rng := filter[1].(map[string]any)["range"].(map[string]any)["quantity_kg"].(map[string]any)
    assert.Equal(t, 2.0, rng["gte"])
    assert.Equal(t, 10.0, rng["lte"])
}

func TestBuildSearchBodyOpenEndedQuantity(t *testing.T) {
    body := buildSearchBody(&Criteria{MinQuantity: fptr(5)})

    b := boolClause(t, body)
    rng := b["filter"].([]any)[0].(map[string]any)["range"].(map[string]any)["quantity_kg"].(map[string]any)
    assert.Equal(t, 5.0, rng["gte"])
    _, hasLte := rng["lte"]
    assert.False(t, hasLte)
}

func TestBuildSearchBodySortClauses(t *testing.T) {
    // distance sort requires coordinates
    body := buildSearchBody(&Criteria{Sort: SortDistance, Latitude: fptr(51.5), Longitude: fptr(-0.1)})
    sort := body["sort"].([]any)
    require.Len(t, sort, 1)
    gd := sort[0].(map[string]any)["_geo_distance"].(map[string]any)
    assert.Equal(t, "asc", gd["order"])
    assert.Equal(t, "km", gd["unit"])

    // distance sort without coordinates degrades to score order
    body = buildSearchBody(&Criteria{Sort: SortDistance})
    _, hasSort := body["sort"]
    assert.False(t, hasSort)

    // soonest expiry first
    body = buildSearchBody(&Criteria{Sort: SortBestBefore})
    sort = body["sort"].([]any)
    assert.Equal(t, map[string]any{"best_before": "asc"}, sort[0])

    // relevance leaves ordering to the score
    body = buildSearchBody(&Criteria{Sort: SortRelevance, Text: "rice"})
    _, hasSort = body["sort"]
    assert.False(t, hasSort)
}

func TestBuildSearchBodySizeCap(t *testing.T) {
    body := buildSearchBody(&Criteria{Size: 7})
    assert.Equal(t, 7, body["size"])

    body = buildSearchBody(&Criteria{Size: -3})
    assert.Equal(t, defaultSize, body["size"])
}

func TestResultIDsPreservesOrder(t *testing.T) {
    r := &Result{Hits: []Hit{{ID: 9, Score: 3.1}, {ID: 2, Score: 2.2}, {ID: 14, Score: 0.4}}}
    assert.Equal(t, []uint64{9, 2, 14}, r.IDs())

    empty := &Result{}
    assert.Empty(t, empty.IDs())
}
