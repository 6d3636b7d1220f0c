// Package contentstore defines the content-item lookup the embedding
// pipeline uses to resolve a ContentEvent into its body.
package contentstore

import (
	"context"

	"github.com/nevindra/ragforge"
)

// Store fetches content bodies by id.
type Store interface {
	// Get returns the ContentItem for id. ok is false if no such item
	// exists; callers should treat that the same as an empty/deleted item
	// (skip with warning, no DLQ).
	Get(ctx context.Context, id string) (item ragforge.ContentItem, ok bool, err error)
}
