// Package store persists aggregate query statistics built from search events.
package store

import (
	"context"
	"time"

	"openlibrary-explorer/internal/models"
)

// StatsStore records search events and answers popularity queries.
type StatsStore interface {
	// MarkSeen claims a request ID; false means the event was already counted.
	MarkSeen(ctx context.Context, requestID string, ttl time.Duration) (bool, error)
	Record(ctx context.Context, event models.SearchEvent) error
	Stats(ctx context.Context, n int) (models.QueryStats, error)
	Close() error
}
