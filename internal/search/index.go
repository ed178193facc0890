package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/foodbridge/foodshare/internal/model"
)

// Setup ensures the listings index exists with its analyzer and field
// mappings.  It is idempotent and safe to call on every startup: an
// existing index is left untouched.
func (c *Client) Setup(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index},
		c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: index exists check: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("search: index exists check: unexpected status %s", res.Status())
	}

	cres, err := c.es.Indices.Create(c.index,
		c.es.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping))),
		c.es.Indices.Create.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: create index: %w", err)
	}
	defer cres.Body.Close()
	if cres.IsError() {
		return readError("create index", cres.Status(), cres.Body)
	}
	return nil
}

// Index upserts a single listing document keyed by listing ID.  The
// write is refreshed immediately so the document is visible to the very
// next search; a caller may search right after creating a listing.
func (c *Client) Index(ctx context.Context, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	res, err := c.es.Index(c.index, bytes.NewReader(body),
		c.es.Index.WithDocumentID(strconv.FormatUint(doc.ListingID, 10)),
		c.es.Index.WithRefresh("true"),
		c.es.Index.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: index request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return readError("index", res.Status(), res.Body)
	}
	return nil
}

// Delete removes a listing's document.  A missing document is not an
// error: a listing that was never available was never indexed.
func (c *Client) Delete(ctx context.Context, listingID uint64) error {
	res, err := c.es.Delete(c.index, strconv.FormatUint(listingID, 10),
		c.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: delete request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return readError("delete", res.Status(), res.Body)
	}
	return nil
}

// Resync re-indexes every currently-available listing, repairing any
// divergence accumulated while the process was down.  A failure to
// index one document is logged and counted but does not abort the rest
// of the sweep; the returned count lets the caller surface drift.
func (c *Client) Resync(ctx context.Context, listings []model.ListingDetail) (failed int, err error) {
	// An unreachable index is a hard failure; per-document trouble is not.
	pres, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("search: resync: index unreachable: %w", err)
	}
	pres.Body.Close()

	for i := range listings {
		if err := c.Index(ctx, MapListing(&listings[i])); err != nil {
			log.Printf("search: resync: listing %d: %v", listings[i].ID, err)
			failed++
		}
	}
	log.Printf("search: resync: %d listings indexed, %d failed", len(listings)-failed, failed)
	return failed, nil
}
