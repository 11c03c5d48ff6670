package stream

import (
	"context"

	"insights-dashboard/internal/dashboard"
	"insights-dashboard/internal/feed"
)

// Drive folds feed events into model and publishes every resulting state.
// It publishes the model's current state first, so viewers see Loading
// before the initial snapshot. Drive is the model's only owner while it
// runs; it returns when events is closed or ctx is done.
func Drive(ctx context.Context, events <-chan feed.Event, model *dashboard.Model, hub *Hub) error {
	hub.Publish(model.State())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			hub.Publish(model.Apply(ev))
		}
	}
}
