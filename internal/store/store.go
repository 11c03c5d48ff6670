// Package store provides the document store interfaces and implementations
// backing the insight feed.
package store

import (
	"context"
	"time"
)

// Collection and ordering used by the insight feed.
const (
	DefaultCollection = "daily_insights"
	DefaultOrderField = "timestamp"
	DefaultLimit      = 20
)

// Document is a raw document as delivered by a store.
type Document struct {
	ID   string
	Data map[string]interface{}
}

// Snapshot is the complete, ordered result set of a live query at one point
// in time. It is never a diff.
type Snapshot struct {
	Documents []Document
	ReadTime  time.Time
}

// Size returns the number of documents in the snapshot.
func (s *Snapshot) Size() int {
	if s == nil {
		return 0
	}
	return len(s.Documents)
}

// Query describes a live query against a collection.
type Query struct {
	Collection string
	OrderBy    string
	Descending bool
	Limit      int
}

// DefaultQuery returns the daily_insights query: newest first, 20 documents.
func DefaultQuery() Query {
	return Query{
		Collection: DefaultCollection,
		OrderBy:    DefaultOrderField,
		Descending: true,
		Limit:      DefaultLimit,
	}
}

// SnapshotIterator yields snapshots of a live query.
//
// Next blocks until the next snapshot is available. It returns
// errors.ErrSubscriptionClosed once the iterator has been stopped or its
// context is done. Any other error is a listener failure; whether later
// calls can recover depends on the backend.
type SnapshotIterator interface {
	Next() (*Snapshot, error)
	Stop()
}

// InsightStore opens live queries.
type InsightStore interface {
	// Snapshots starts a live query. The first call to Next on the returned
	// iterator yields the initial result set.
	Snapshots(ctx context.Context, q Query) (SnapshotIterator, error)
	// Close releases the store client.
	Close() error
}

// Writer is implemented by stores that accept writes from this process.
// It exists for local development seeding; the production store is read-only
// from the dashboard's point of view.
type Writer interface {
	Add(ctx context.Context, collection string, data map[string]interface{}) (string, error)
	Put(ctx context.Context, collection, id string, data map[string]interface{}) error
	Delete(ctx context.Context, collection, id string) error
}
