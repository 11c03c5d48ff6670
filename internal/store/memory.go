package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "insights-dashboard/internal/errors"
)

// MemoryStore is an in-process InsightStore. Every write produces a new
// snapshot for every open listener on the written collection.
type MemoryStore struct {
	mu        sync.Mutex
	docs      map[string]map[string]map[string]interface{} // collection -> id -> data
	listeners map[*memoryIterator]struct{}
	closed    bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:      make(map[string]map[string]map[string]interface{}),
		listeners: make(map[*memoryIterator]struct{}),
	}
}

// Snapshots implements InsightStore.
func (m *MemoryStore) Snapshots(ctx context.Context, q Query) (SnapshotIterator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, apperrors.ErrStoreUnavailable
	}

	ctx, cancel := context.WithCancel(ctx)
	it := &memoryIterator{
		store:  m,
		query:  q,
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
		dirty:  true,
	}
	m.listeners[it] = struct{}{}
	return it, nil
}

// Add stores data under a generated id.
func (m *MemoryStore) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	id := uuid.NewString()
	return id, m.Put(ctx, collection, id, data)
}

// Put stores data under id, replacing any previous document.
func (m *MemoryStore) Put(ctx context.Context, collection, id string, data map[string]interface{}) error {
	if id == "" {
		return apperrors.NewValidationError("id", id, "document id must not be empty")
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return apperrors.ErrStoreUnavailable
	}
	coll, ok := m.docs[collection]
	if !ok {
		coll = make(map[string]map[string]interface{})
		m.docs[collection] = coll
	}
	coll[id] = cloneData(data)
	m.mu.Unlock()

	m.touch(collection, nil)
	return nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	if coll, ok := m.docs[collection]; ok {
		delete(coll, id)
	}
	m.mu.Unlock()

	m.touch(collection, nil)
	return nil
}

// Fail delivers err to every listener on collection as a listener failure.
// The listeners stay open and recover on the next write.
func (m *MemoryStore) Fail(collection string, err error) {
	m.touch(collection, err)
}

// ListenerCount returns the number of open listeners.
func (m *MemoryStore) ListenerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

// Close stops all listeners.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.closed = true
	listeners := make([]*memoryIterator, 0, len(m.listeners))
	for it := range m.listeners {
		listeners = append(listeners, it)
	}
	m.mu.Unlock()

	for _, it := range listeners {
		it.Stop()
	}
	return nil
}

func (m *MemoryStore) touch(collection string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for it := range m.listeners {
		if it.query.Collection != collection {
			continue
		}
		it.mark(err)
	}
}

func (m *MemoryStore) query(q Query) []Document {
	m.mu.Lock()
	defer m.mu.Unlock()

	coll := m.docs[q.Collection]
	docs := make([]Document, 0, len(coll))
	for id, data := range coll {
		docs = append(docs, Document{ID: id, Data: cloneData(data)})
	}
	return orderDocuments(docs, q)
}

func (m *MemoryStore) remove(it *memoryIterator) {
	m.mu.Lock()
	delete(m.listeners, it)
	m.mu.Unlock()
}

type memoryIterator struct {
	store  *MemoryStore
	query  Query
	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}

	mu      sync.Mutex
	dirty   bool
	pending []error
	once    sync.Once
}

func (it *memoryIterator) mark(err error) {
	it.mu.Lock()
	if err != nil {
		it.pending = append(it.pending, err)
	} else {
		it.dirty = true
	}
	it.mu.Unlock()

	select {
	case it.wake <- struct{}{}:
	default:
	}
}

// Next implements SnapshotIterator.
func (it *memoryIterator) Next() (*Snapshot, error) {
	for {
		if it.ctx.Err() != nil {
			return nil, apperrors.ErrSubscriptionClosed
		}

		it.mu.Lock()
		if len(it.pending) > 0 {
			err := it.pending[0]
			it.pending = it.pending[1:]
			it.mu.Unlock()
			return nil, err
		}
		dirty := it.dirty
		it.dirty = false
		it.mu.Unlock()

		if dirty {
			return &Snapshot{
				Documents: it.store.query(it.query),
				ReadTime:  time.Now(),
			}, nil
		}

		select {
		case <-it.ctx.Done():
			return nil, apperrors.ErrSubscriptionClosed
		case <-it.wake:
		}
	}
}

// Stop implements SnapshotIterator.
func (it *memoryIterator) Stop() {
	it.once.Do(func() {
		it.cancel()
		it.store.remove(it)
	})
}

// orderDocuments sorts docs by the query's order field and applies the limit.
// Documents without the order field are excluded, matching a Firestore
// orderBy query.
func orderDocuments(docs []Document, q Query) []Document {
	if q.OrderBy != "" {
		kept := docs[:0]
		for _, d := range docs {
			if _, ok := orderValue(d.Data[q.OrderBy]); ok {
				kept = append(kept, d)
			}
		}
		docs = kept

		sort.SliceStable(docs, func(i, j int) bool {
			a, _ := orderValue(docs[i].Data[q.OrderBy])
			b, _ := orderValue(docs[j].Data[q.OrderBy])
			if a == b {
				return docs[i].ID < docs[j].ID
			}
			if q.Descending {
				return a > b
			}
			return a < b
		})
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs
}

func orderValue(v interface{}) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), true
	default:
		return fmt.Sprint(t), true
	}
}

func cloneData(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
