// Package treecache caches rendered org chart payloads under string keys,
// grouped by tags so one mutation can invalidate every dependent entry.
//
// Two backends share the Cache interface: Memory for a single process and
// Redis when several instances serve the same chart. Both keep a version
// token that changes on every invalidation; handlers use it as an ETag.
//
// Every entry is pinned to the version that was current when its payload
// was read from the store. Get serves only entries pinned to the current
// version, so a payload read before a write can never outlive the
// invalidation that followed it.
package treecache

import (
	"context"
	"time"
)

// Tag groups every cached org chart payload.
const Tag = "org-chart"

// DefaultTTL bounds how long an entry is served without invalidation.
const DefaultTTL = 300 * time.Second

// ListKey caches the flat node list.
const ListKey = "org-chart:list"

// Cache stores payloads by key.
type Cache interface {
	// Get returns the payload for key; ok is false on a miss, an expired
	// entry, or an entry pinned to an older version.
	Get(ctx context.Context, key string) (val []byte, ok bool, err error)
	// Set stores val under key, pinned to version, and records it under
	// each tag. Nothing is stored when the version has moved on since the
	// caller read it; stored reports which happened.
	Set(ctx context.Context, key, version string, val []byte, tags ...string) (stored bool, err error)
	// Invalidate drops a single key.
	Invalidate(ctx context.Context, key string) error
	// InvalidateTag drops every key recorded under tag and rotates the version.
	InvalidateTag(ctx context.Context, tag string) error
	// Version returns the current version token.
	Version(ctx context.Context) (string, error)
}
