// Package search wraps the Elasticsearch node that mirrors food
// listings for text and geo queries.  The relational store remains the
// source of truth; documents here are a read-optimised projection keyed
// by listing ID and are fully reconstructible via Resync.
package search

import (
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
)

// Client wraps the Elasticsearch client with listing-level operations.
type Client struct {
	es    *elasticsearch.Client
	index string
}

// New creates a search client pointed at the given node URL, writing to
// the named index.
func New(url, index string) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
	})
	if err != nil {
		return nil, fmt.Errorf("search: create client: %w", err)
	}
	return &Client{es: es, index: index}, nil
}

// readError drains a response body into an error value.  The body is
// included because Elasticsearch reports mapping and parse problems
// there rather than in the status line.
func readError(op, status string, body io.Reader) error {
	b, _ := io.ReadAll(body)
	return fmt.Errorf("search: %s error [%s]: %s", op, status, b)
}
