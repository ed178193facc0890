package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/foodbridge/foodshare/internal/model"
)

// Sort orders accepted by Search.  Relevance is the default when a text
// query is given; best-before otherwise.
const (
	SortDistance   = "distance"
	SortBestBefore = "best_before"
	SortRelevance  = "relevance"
)

// DefaultRadiusKm bounds a geo search when the caller supplies
// coordinates without a radius.
const DefaultRadiusKm = 10

// defaultSize caps one page of index hits.
const defaultSize = 50

// minTextScore suppresses very weak fuzzy matches.  Applied only when a
// text query is present; browsing without text must return everything.
const minTextScore = 0.3

// Criteria is a structured search request.  Pointer fields distinguish
// "not supplied" from zero values.
type Criteria struct {
	Text        string
	Latitude    *float64
	Longitude   *float64
	RadiusKm    float64
	Category    string
	MinQuantity *float64
	MaxQuantity *float64
	Sort        string
	Size        int
}

// hasGeo reports whether both coordinates were supplied.
func (cr *Criteria) hasGeo() bool {
	return cr.Latitude != nil && cr.Longitude != nil
}

// Hit is one index match: the listing ID and the relevance score the
// index assigned it.  Scores are advisory; final ordering is decided
// during store re-resolution.
type Hit struct {
	ID    uint64
	Score float64
}

// Result carries the ranked listing IDs for a query plus the total
// match count (which may exceed the returned page).
type Result struct {
	Total int64
	Hits  []Hit
}

// IDs returns the matched listing IDs preserving index order.
func (r *Result) IDs() []uint64 {
	ids := make([]uint64, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.ID
	}
	return ids
}

// buildSearchBody assembles the bool query for a criteria set:
// status=available always in must, the fuzzy multi-field text match in
// must when text is present, and every structural constraint as a
// non-scoring filter so it cannot distort relevance.
func buildSearchBody(cr *Criteria) map[string]any {
	must := []any{
		map[string]any{"term": map[string]any{"status": model.ListingAvailable}},
	}
	if cr.Text != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":     cr.Text,
				"fields":    []string{"title^3", "description^2", "category_name"},
				"type":      "best_fields",
				"fuzziness": "AUTO",
				"operator":  "or",
			},
		})
	}

	filter := []any{}
	if cr.hasGeo() {
		radius := cr.RadiusKm
		if radius <= 0 {
			radius = DefaultRadiusKm
		}
		filter = append(filter, map[string]any{
			"geo_distance": map[string]any{
				"distance": strconv.FormatFloat(radius, 'f', -1, 64) + "km",
				"location": map[string]any{"lat": *cr.Latitude, "lon": *cr.Longitude},
			},
		})
	}
	if cr.Category != "" {
		filter = append(filter, map[string]any{
			"term": map[string]any{"category_name.keyword": cr.Category},
		})
	}
	if cr.MinQuantity != nil || cr.MaxQuantity != nil {
		rng := map[string]any{}
		if cr.MinQuantity != nil {
			rng["gte"] = *cr.MinQuantity
		}
		if cr.MaxQuantity != nil {
			rng["lte"] = *cr.MaxQuantity
		}
		filter = append(filter, map[string]any{
			"range": map[string]any{"quantity_kg": rng},
		})
	}

	size := cr.Size
	if size <= 0 {
		size = defaultSize
	}
	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must":   must,
				"filter": filter,
			},
		},
		"track_scores": true,
		"size":         size,
	}
	if cr.Text != "" {
		body["min_score"] = minTextScore
	}

	// Geo and date sorts are decided here; relevance stays score-ordered
	// and gets its final order from the store re-fetch.
	switch {
	case cr.Sort == SortDistance && cr.hasGeo():
		body["sort"] = []any{map[string]any{
			"_geo_distance": map[string]any{
				"location": map[string]any{"lat": *cr.Latitude, "lon": *cr.Longitude},
				"order":    "asc",
				"unit":     "km",
			},
		}}
	case cr.Sort == SortBestBefore:
		body["sort"] = []any{map[string]any{"best_before": "asc"}}
	}
	return body
}

// esSearchResponse is the slice of the search response we consume.
type esSearchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID    string   `json:"_id"`
			Score *float64 `json:"_score"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search executes the criteria against the index and returns the ranked
// listing IDs with the total match count.  The order of Hits encodes
// the index's relevance/geo/date ordering and must be preserved by
// callers until the store re-resolution decides the final order.
func (c *Client) Search(ctx context.Context, cr *Criteria) (*Result, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(buildSearchBody(cr)); err != nil {
		return nil, err
	}
	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(&buf),
		c.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("search: query request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, readError("query", res.Status(), res.Body)
	}

	var parsed esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}
	out := &Result{Total: parsed.Hits.Total.Value, Hits: make([]Hit, 0, len(parsed.Hits.Hits))}
	for _, h := range parsed.Hits.Hits {
		id, err := strconv.ParseUint(h.ID, 10, 64)
		if err != nil {
			// A foreign document in the index is drift, not a query failure.
			continue
		}
		score := 0.0
		if h.Score != nil {
			score = *h.Score
		}
		out.Hits = append(out.Hits, Hit{ID: id, Score: score})
	}
	return out, nil
}
