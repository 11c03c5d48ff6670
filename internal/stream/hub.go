// Package stream distributes dashboard state to live viewers.
package stream

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"insights-dashboard/internal/dashboard"
)

// Hub fans dashboard states out to many subscribers. Each subscriber holds at
// most one pending state: a slow subscriber skips intermediate states and
// always sees the newest one next.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	latest      dashboard.State
	hasLatest   bool
	stopped     bool

	consumers   []Consumer
	consumersMu sync.RWMutex

	// Metrics
	published uint64
	delivered uint64
	replaced  uint64
	metricsMu sync.RWMutex
}

// Subscriber represents a channel subscriber with metadata.
type Subscriber struct {
	ID      string
	Channel chan dashboard.State
	// Replaced counts states overwritten before the subscriber read them.
	Replaced  int
	CreatedAt time.Time
}

// HubMetrics contains hub counters.
type HubMetrics struct {
	Published   uint64
	Delivered   uint64
	Replaced    uint64
	Subscribers int
}

// NewHub creates a new hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]*Subscriber),
	}
}

// Subscribe registers a subscriber and returns its channel. If a state has
// been published already, it is pending on the channel immediately. An empty
// id gets a generated one. Subscribing to a stopped hub returns a closed
// channel.
func (h *Hub) Subscribe(id string) (string, <-chan dashboard.State) {
	if id == "" {
		id = uuid.NewString()
	}
	ch := make(chan dashboard.State, 1)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		close(ch)
		return id, ch
	}
	if old, ok := h.subscribers[id]; ok {
		close(old.Channel)
	}
	h.subscribers[id] = &Subscriber{ID: id, Channel: ch, CreatedAt: time.Now()}
	if h.hasLatest {
		ch <- h.latest
	}
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, ok := h.subscribers[id]; ok {
		close(sub.Channel)
		delete(h.subscribers, id)
	}
}

// Publish records state as the latest and offers it to every subscriber
// without blocking.
func (h *Hub) Publish(state dashboard.State) {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.latest = state
	h.hasLatest = true

	var delivered, replaced uint64
	for _, sub := range h.subscribers {
		select {
		case <-sub.Channel:
			sub.Replaced++
			replaced++
		default:
		}
		sub.Channel <- state
		delivered++
	}
	h.mu.Unlock()

	h.metricsMu.Lock()
	h.published++
	h.delivered += delivered
	h.replaced += replaced
	h.metricsMu.Unlock()

	h.notifyConsumers(state)
}

// Latest returns the most recently published state.
func (h *Hub) Latest() (dashboard.State, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest, h.hasLatest
}

// Stop closes all subscriber channels. Later publishes are ignored.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return
	}
	h.stopped = true
	for id, sub := range h.subscribers {
		close(sub.Channel)
		delete(h.subscribers, id)
	}
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Metrics returns hub metrics.
func (h *Hub) Metrics() HubMetrics {
	h.metricsMu.RLock()
	defer h.metricsMu.RUnlock()

	return HubMetrics{
		Published:   h.published,
		Delivered:   h.delivered,
		Replaced:    h.replaced,
		Subscribers: h.SubscriberCount(),
	}
}

// Consumer is notified synchronously of every published state.
type Consumer interface {
	OnState(state dashboard.State)
}

// ConsumerFunc adapts a function to Consumer.
type ConsumerFunc func(state dashboard.State)

// OnState implements Consumer.
func (f ConsumerFunc) OnState(state dashboard.State) {
	f(state)
}

// RegisterConsumer adds a consumer.
func (h *Hub) RegisterConsumer(consumer Consumer) {
	h.consumersMu.Lock()
	h.consumers = append(h.consumers, consumer)
	h.consumersMu.Unlock()
}

// notifyConsumers calls consumers in registration order, outside the
// subscriber lock.
func (h *Hub) notifyConsumers(state dashboard.State) {
	h.consumersMu.RLock()
	consumers := make([]Consumer, len(h.consumers))
	copy(consumers, h.consumers)
	h.consumersMu.RUnlock()

	for _, consumer := range consumers {
		consumer.OnState(state)
	}
}
