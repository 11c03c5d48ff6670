package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"insights-dashboard/internal/dashboard"
	apperrors "insights-dashboard/internal/errors"
	"insights-dashboard/internal/feed"
	"insights-dashboard/internal/store"
)

// signalContext returns the command context, cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// startFeed opens the store, seeds it from seedPath when given and opens the
// live query. cleanup closes the subscription, then the store.
func (a *App) startFeed(ctx context.Context, seedPath string) (*feed.Subscription, func(), error) {
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	if seedPath != "" {
		docs, err := loadDocuments(seedPath)
		if err != nil {
			st.Close()
			return nil, nil, err
		}
		ids, err := writeDocuments(ctx, st, a.query().Collection, docs, time.Now())
		if err != nil {
			st.Close()
			return nil, nil, err
		}
		a.Logger.Info().Int("documents", len(ids)).Str("file", seedPath).Msg("Seeded store")
	}

	sub, err := feed.Subscribe(ctx, st, a.query(), a.Logger)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	cleanup := func() {
		sub.Close()
		if err := st.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Closing store failed")
		}
	}
	return sub, cleanup, nil
}

// firstState returns the dashboard state after the first feed event. A
// failed first event is returned as both the state and the error.
func (a *App) firstState(ctx context.Context, seedPath string) (dashboard.State, error) {
	sub, cleanup, err := a.startFeed(ctx, seedPath)
	if err != nil {
		return dashboard.State{}, err
	}
	defer cleanup()

	model := dashboard.NewModel(a.Config.Feed.Limit, a.Logger)
	select {
	case ev, ok := <-sub.Events():
		if !ok {
			return model.State(), apperrors.ErrSubscriptionClosed
		}
		state := model.Apply(ev)
		if state.Phase == dashboard.PhaseError {
			return state, state.Err
		}
		return state, nil
	case <-ctx.Done():
		return model.State(), ctx.Err()
	}
}

// loadDocuments reads a JSON file holding one document or an array of
// documents.
func loadDocuments(path string) ([]map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, apperrors.NewValidationError("file", path, "no documents")
	}

	if trimmed[0] == '[' {
		var docs []map[string]interface{}
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, apperrors.Wrapf(err, "decoding %s", path)
		}
		return docs, nil
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, apperrors.Wrapf(err, "decoding %s", path)
	}
	return []map[string]interface{}{doc}, nil
}

// writeDocuments stores docs in collection. A string "id" field selects the
// document id; documents without a timestamp are stamped with now.
func writeDocuments(ctx context.Context, st store.InsightStore, collection string, docs []map[string]interface{}, now time.Time) ([]string, error) {
	w, ok := st.(store.Writer)
	if !ok {
		return nil, apperrors.ErrReadOnlyStore
	}

	ids := make([]string, 0, len(docs))
	for i, doc := range docs {
		data := make(map[string]interface{}, len(doc))
		for k, v := range doc {
			data[k] = v
		}
		if _, ok := data[store.DefaultOrderField]; !ok {
			data[store.DefaultOrderField] = now.UTC().Format(time.RFC3339)
		}

		id, _ := data["id"].(string)
		delete(data, "id")

		if id != "" {
			if err := w.Put(ctx, collection, id, data); err != nil {
				return ids, fmt.Errorf("writing document %d: %w", i, err)
			}
		} else {
			newID, err := w.Add(ctx, collection, data)
			if err != nil {
				return ids, fmt.Errorf("writing document %d: %w", i, err)
			}
			id = newID
		}
		ids = append(ids, id)
	}
	return ids, nil
}
