// Package feed turns a live store query into a cancellable stream of
// snapshot-or-error events.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "insights-dashboard/internal/errors"
	"insights-dashboard/internal/logging"
	"insights-dashboard/internal/store"
)

// Event is exactly one of a complete snapshot or a subscription error.
type Event struct {
	Snapshot *store.Snapshot
	Err      error
	// Seq numbers events of one subscription, starting at 1.
	Seq        uint64
	ReceivedAt time.Time
}

// IsError reports whether the event carries a failure.
func (e Event) IsError() bool {
	return e.Err != nil
}

// Subscription is a live query owned by one consumer.
type Subscription struct {
	ID    string
	query store.Query

	events chan Event
	cancel context.CancelFunc
	iter   store.SnapshotIterator
	logger zerolog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// Subscribe opens a live query and starts delivering events. The first event
// is the initial load. It returns an error only when the listener cannot be
// established; later failures arrive as events.
func Subscribe(ctx context.Context, s store.InsightStore, q store.Query, logger zerolog.Logger) (*Subscription, error) {
	id := uuid.NewString()
	logger = logging.WithSubscription(logging.WithComponent(logger, "feed"), q.Collection, id)

	ctx, cancel := context.WithCancel(ctx)
	iter, err := s.Snapshots(ctx, q)
	if err != nil {
		cancel()
		return nil, apperrors.NewSubscriptionError(q.Collection, err)
	}

	sub := &Subscription{
		ID:     id,
		query:  q,
		events: make(chan Event),
		cancel: cancel,
		iter:   iter,
		logger: logger,
		done:   make(chan struct{}),
	}

	go sub.pump(ctx)

	logger.Debug().
		Str("order_by", q.OrderBy).
		Bool("descending", q.Descending).
		Int("limit", q.Limit).
		Msg("Subscription opened")

	return sub, nil
}

// Events returns the event channel. It is closed after Close.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Query returns the live query of this subscription.
func (s *Subscription) Query() store.Query {
	return s.query
}

// Close releases the listener. It is safe to call more than once and from
// any goroutine; it returns after the pump has stopped.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.iter.Stop()
		<-s.done
		s.logger.Debug().Msg("Subscription closed")
	})
}

// pump forwards iterator results in order, one at a time.
func (s *Subscription) pump(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)

	var seq uint64
	for {
		snap, err := s.iter.Next()
		if apperrors.Is(err, apperrors.ErrSubscriptionClosed) {
			return
		}

		seq++
		ev := Event{Seq: seq, ReceivedAt: time.Now()}
		if err != nil {
			ev.Err = apperrors.NewSubscriptionError(s.query.Collection, err)
			logging.LogFeedError(s.logger, seq, err)
		} else {
			ev.Snapshot = snap
			logging.LogSnapshot(s.logger, seq, snap.Size())
		}

		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}
