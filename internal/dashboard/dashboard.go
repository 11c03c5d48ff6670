// Package dashboard holds the view state derived from the insight feed.
//
// A Model is owned by exactly one goroutine, the one draining the feed
// subscription. It produces immutable State values that renderers and other
// goroutines may read freely.
package dashboard

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	apperrors "insights-dashboard/internal/errors"
	"insights-dashboard/internal/feed"
	"insights-dashboard/internal/logging"
	"insights-dashboard/internal/mapper"
	"insights-dashboard/internal/models"
	"insights-dashboard/internal/store"
)

// Phase is the top-level view state.
type Phase int

const (
	// PhaseLoading means no event has arrived yet.
	PhaseLoading Phase = iota
	// PhaseError means the latest event was a failure.
	PhaseError
	// PhaseReady means the latest event was a successfully mapped snapshot.
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseError:
		return "error"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// State is an immutable view of the dashboard.
type State struct {
	Phase   Phase
	Err     error
	Records []models.InsightRecord
	// Version increments on every applied event.
	Version   uint64
	UpdatedAt time.Time
}

// IsEmpty reports whether the state is Ready with zero records.
func (s State) IsEmpty() bool {
	return s.Phase == PhaseReady && len(s.Records) == 0
}

// IsPopulated reports whether the state is Ready with at least one record.
func (s State) IsPopulated() bool {
	return s.Phase == PhaseReady && len(s.Records) > 0
}

// Newest returns the first record, if any.
func (s State) Newest() (models.InsightRecord, bool) {
	if !s.IsPopulated() {
		return models.InsightRecord{}, false
	}
	return s.Records[0], true
}

// Find returns the record with the given id.
func (s State) Find(id string) (models.InsightRecord, bool) {
	for _, r := range s.Records {
		if r.ID == id {
			return r, true
		}
	}
	return models.InsightRecord{}, false
}

// Model reduces feed events into State.
type Model struct {
	limit  int
	state  State
	logger zerolog.Logger
}

// NewModel creates a model in the Loading phase. limit caps the number of
// records kept; values <= 0 use the store default.
func NewModel(limit int, logger zerolog.Logger) *Model {
	if limit <= 0 {
		limit = store.DefaultLimit
	}
	return &Model{
		limit:  limit,
		state:  State{Phase: PhaseLoading},
		logger: logging.WithComponent(logger, "dashboard"),
	}
}

// State returns the current state.
func (m *Model) State() State {
	return m.state
}

// Apply folds one feed event into the model and returns the new state.
// A snapshot replaces all previous records; an error replaces them with
// nothing until the next good snapshot.
func (m *Model) Apply(ev feed.Event) State {
	prev := m.state.Phase
	next := State{
		Version:   m.state.Version + 1,
		UpdatedAt: ev.ReceivedAt,
	}
	if next.UpdatedAt.IsZero() {
		next.UpdatedAt = time.Now()
	}

	if ev.Err != nil {
		next.Phase = PhaseError
		next.Err = ev.Err
	} else {
		records, err := mapper.MapSnapshot(ev.Snapshot)
		if err != nil {
			next.Phase = PhaseError
			next.Err = err
			m.logger.Error().Err(err).Uint64("seq", ev.Seq).Msg("Discarding snapshot")
		} else {
			next.Phase = PhaseReady
			next.Records = Arrange(records, m.limit)
		}
	}

	m.state = next
	if prev != next.Phase {
		logging.LogStateChange(m.logger, prev.String(), next.Phase.String(), len(next.Records))
	}
	return next
}

// ErrorMessage returns the user-facing description of the current error.
func (s State) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	var mapErr *apperrors.MappingError
	if apperrors.As(s.Err, &mapErr) {
		return "Failed to load insights"
	}
	return "Real-time listener error: " + rootMessage(s.Err)
}

func rootMessage(err error) string {
	var subErr *apperrors.SubscriptionError
	if apperrors.As(err, &subErr) && subErr.Err != nil {
		return subErr.Err.Error()
	}
	return err.Error()
}

// Arrange sorts records newest first and truncates to limit. Records with a
// parseable timestamp come first ordered by instant; the rest follow ordered
// by their raw value. Ties keep store order.
func Arrange(records []models.InsightRecord, limit int) []models.InsightRecord {
	type keyed struct {
		rec models.InsightRecord
		key sortKey
	}

	items := make([]keyed, len(records))
	for i, r := range records {
		items[i] = keyed{rec: r, key: newSortKey(r.Timestamp)}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].key.newerThan(items[j].key)
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	sorted := make([]models.InsightRecord, len(items))
	for i, it := range items {
		sorted[i] = it.rec
	}
	return sorted
}

type sortKey struct {
	parsed bool
	at     time.Time
	raw    string
}

func newSortKey(raw string) sortKey {
	if t, ok := ParseTimestamp(raw); ok {
		return sortKey{parsed: true, at: t, raw: raw}
	}
	return sortKey{raw: raw}
}

func (k sortKey) newerThan(o sortKey) bool {
	if k.parsed != o.parsed {
		return k.parsed
	}
	if k.parsed {
		return k.at.After(o.at)
	}
	return k.raw > o.raw
}

// timestampLayouts are tried in order. Naive layouts are read as UTC, which
// is what the backend writes.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats seen in insight documents.
func ParseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
