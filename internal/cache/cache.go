// Package cache memoizes raw Open Library responses by the exact query triple. Entries are never
// evicted or invalidated; they live as long as the process does.
package cache

import (
	"context"
	"strconv"
	"strings"

	"openlibrary-explorer/internal/models"
)

// ResponseCache stores raw search response bodies.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte) error
	Close() error
}

// Key returns the memoization key for a query: phrase text, match limit and facet parameter.
// The top-words setting does not change the response and is not part of the key.
func Key(query models.Query) string {
	return strings.Join([]string{query.Phrase(), strconv.Itoa(query.Limit), query.Facet.Param()}, "\x1f")
}
