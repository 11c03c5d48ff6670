package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/goleak"

	apperrors "insights-dashboard/internal/errors"
	"insights-dashboard/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if !ok {
			t.Fatal("events channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event within 2s")
	}
	return Event{}
}

func TestInitialLoadThenUpdates(t *testing.T) {
	ms := store.NewMemoryStore()
	defer ms.Close()
	ctx := context.Background()
	_ = ms.Put(ctx, store.DefaultCollection, "a", map[string]interface{}{"timestamp": "2025-01-01T00:00:00Z"})

	sub, err := Subscribe(ctx, ms, store.DefaultQuery(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	first := receive(t, sub)
	if first.IsError() || first.Seq != 1 || first.Snapshot.Size() != 1 {
		t.Fatalf("first event = %+v", first)
	}

	_ = ms.Put(ctx, store.DefaultCollection, "b", map[string]interface{}{"timestamp": "2025-01-02T00:00:00Z"})
	second := receive(t, sub)
	if second.Seq != 2 || second.Snapshot.Size() != 2 {
		t.Fatalf("second event = %+v", second)
	}
	if second.Snapshot.Documents[0].ID != "b" {
		t.Errorf("newest document = %s, want b", second.Snapshot.Documents[0].ID)
	}
}

func TestListenerFailureIsAnEvent(t *testing.T) {
	ms := store.NewMemoryStore()
	defer ms.Close()

	sub, err := Subscribe(context.Background(), ms, store.DefaultQuery(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()
	receive(t, sub)

	ms.Fail(store.DefaultCollection, errors.New("permission denied"))
	ev := receive(t, sub)
	if !ev.IsError() || ev.Snapshot != nil {
		t.Fatalf("expected error event, got %+v", ev)
	}
	var subErr *apperrors.SubscriptionError
	if !apperrors.As(ev.Err, &subErr) || subErr.Collection != store.DefaultCollection {
		t.Errorf("err = %v, want SubscriptionError on %s", ev.Err, store.DefaultCollection)
	}
}

type failingStore struct{}

func (failingStore) Snapshots(context.Context, store.Query) (store.SnapshotIterator, error) {
	return nil, errors.New("unreachable")
}

func (failingStore) Close() error { return nil }

func TestSubscribeFailsWhenListenerCannotStart(t *testing.T) {
	sub, err := Subscribe(context.Background(), failingStore{}, store.DefaultQuery(), zerolog.Nop())
	if sub != nil || err == nil {
		t.Fatalf("Subscribe = %v, %v", sub, err)
	}
	var subErr *apperrors.SubscriptionError
	if !apperrors.As(err, &subErr) {
		t.Errorf("err = %T, want *SubscriptionError", err)
	}
}

// errorFirstIterator fails before its first snapshot, then recovers.
type errorFirstIterator struct {
	calls int
	stop  chan struct{}
}

func (it *errorFirstIterator) Next() (*store.Snapshot, error) {
	it.calls++
	switch it.calls {
	case 1:
		return nil, errors.New("missing index")
	case 2:
		return &store.Snapshot{}, nil
	}
	<-it.stop
	return nil, apperrors.ErrSubscriptionClosed
}

func (it *errorFirstIterator) Stop() {
	select {
	case <-it.stop:
	default:
		close(it.stop)
	}
}

type iteratorStore struct{ it store.SnapshotIterator }

func (s iteratorStore) Snapshots(context.Context, store.Query) (store.SnapshotIterator, error) {
	return s.it, nil
}

func (iteratorStore) Close() error { return nil }

func TestErrorBeforeFirstSnapshot(t *testing.T) {
	it := &errorFirstIterator{stop: make(chan struct{})}
	sub, err := Subscribe(context.Background(), iteratorStore{it}, store.DefaultQuery(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	if ev := receive(t, sub); !ev.IsError() || ev.Seq != 1 {
		t.Errorf("first event = %+v, want error", ev)
	}
	if ev := receive(t, sub); ev.IsError() || ev.Seq != 2 {
		t.Errorf("second event = %+v, want snapshot", ev)
	}
}

func TestCloseIsIdempotentAndClosesEvents(t *testing.T) {
	ms := store.NewMemoryStore()
	defer ms.Close()

	sub, err := Subscribe(context.Background(), ms, store.DefaultQuery(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}

	// The initial event is never read; Close must not block on it.
	time.Sleep(10 * time.Millisecond)
	sub.Close()
	sub.Close()

	for range sub.Events() {
	}
	if ms.ListenerCount() != 0 {
		t.Errorf("listeners = %d after Close", ms.ListenerCount())
	}
}

func TestContextCancelStopsSubscription(t *testing.T) {
	ms := store.NewMemoryStore()
	defer ms.Close()
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := Subscribe(ctx, ms, store.DefaultQuery(), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	receive(t, sub)

	cancel()
	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("expected closed channel after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed after cancel")
	}
	sub.Close()
}
