package dashboard_test

import (
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"insights-dashboard/internal/dashboard"
	apperrors "insights-dashboard/internal/errors"
	"insights-dashboard/internal/feed"
	"insights-dashboard/internal/models"
	"insights-dashboard/internal/render"
	"insights-dashboard/internal/store"
)

func snapshotEvent(seq uint64, docs ...store.Document) feed.Event {
	return feed.Event{Seq: seq, Snapshot: &store.Snapshot{Documents: docs}, ReceivedAt: time.Now()}
}

func doc(id, ts string, data map[string]interface{}) store.Document {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["timestamp"] = ts
	return store.Document{ID: id, Data: data}
}

func newRenderer() *render.Renderer {
	return render.NewRenderer(render.Options{Locale: "he-IL", Location: time.UTC})
}

func TestStartsLoading(t *testing.T) {
	m := dashboard.NewModel(0, zerolog.Nop())
	if st := m.State(); st.Phase != dashboard.PhaseLoading || st.Version != 0 {
		t.Errorf("initial state = %+v", st)
	}
}

func TestSingleLegacySnapshot(t *testing.T) {
	m := dashboard.NewModel(0, zerolog.Nop())
	st := m.Apply(snapshotEvent(1, doc("a", "2025-01-02T10:00:00Z", map[string]interface{}{"message": "hello"})))

	if !st.IsPopulated() || len(st.Records) != 1 {
		t.Fatalf("state = %+v", st)
	}

	root := newRenderer().Render(st)
	cards := root.FindAll(render.KindCard)
	if len(cards) != 1 {
		t.Fatalf("cards = %d", len(cards))
	}
	if cards[0].Find(render.KindBadge) == nil {
		t.Error("single card must carry the newest badge")
	}
	pre := cards[0].Find(render.KindPre)
	if pre == nil || pre.Text != "hello" {
		t.Errorf("legacy block = %+v", pre)
	}
	if cards[0].Find(render.KindSection) != nil {
		t.Error("legacy card must not render sections")
	}
}

func TestStructuredAndEmptyRecords(t *testing.T) {
	m := dashboard.NewModel(0, zerolog.Nop())
	st := m.Apply(snapshotEvent(1,
		doc("a", "2025-01-02T10:00:00Z", nil),
		doc("b", "2025-01-03T10:00:00Z", map[string]interface{}{
			"recommendations": []interface{}{map[string]interface{}{"symbol": "AAPL", "action": "BUY"}},
		}),
	))

	if st.Records[0].ID != "b" || st.Records[1].ID != "a" {
		t.Fatalf("order = %s, %s", st.Records[0].ID, st.Records[1].ID)
	}

	cards := newRenderer().Render(st).FindAll(render.KindCard)
	if len(cards) != 2 {
		t.Fatalf("cards = %d", len(cards))
	}
	items := cards[0].FindAll(render.KindItem)
	if len(items) != 1 || items[0].Text != "AAPL" || items[0].Tone != render.ToneSuccess {
		t.Errorf("recommendation items = %+v", items)
	}
	if cards[1].Find(render.KindSection) != nil || cards[1].Find(render.KindPre) != nil {
		t.Error("record without content must render metadata only")
	}
}

func TestErrorBeforeFirstSnapshot(t *testing.T) {
	m := dashboard.NewModel(0, zerolog.Nop())
	st := m.Apply(feed.Event{Seq: 1, Err: apperrors.NewSubscriptionError("daily_insights", errors.New("permission denied"))})

	if st.Phase != dashboard.PhaseError || st.IsEmpty() {
		t.Fatalf("state = %+v", st)
	}
	if got := st.ErrorMessage(); got != "Real-time listener error: permission denied" {
		t.Errorf("message = %q", got)
	}
	if newRenderer().Render(st).Find(render.KindEmpty) != nil {
		t.Error("error must not render as the empty state")
	}
}

func TestRecoversAfterError(t *testing.T) {
	m := dashboard.NewModel(0, zerolog.Nop())
	m.Apply(snapshotEvent(1, doc("a", "2025-01-01T00:00:00Z", map[string]interface{}{"message": "x"})))
	m.Apply(feed.Event{Seq: 2, Err: errors.New("network")})
	if st := m.State(); st.Phase != dashboard.PhaseError || len(st.Records) != 0 {
		t.Fatalf("error state kept records: %+v", st)
	}

	st := m.Apply(snapshotEvent(3))
	if !st.IsEmpty() || st.Version != 3 {
		t.Errorf("after recovery = %+v", st)
	}
}

func TestMappingErrorDiscardsSnapshot(t *testing.T) {
	m := dashboard.NewModel(0, zerolog.Nop())
	st := m.Apply(snapshotEvent(1,
		doc("good", "2025-01-01T00:00:00Z", map[string]interface{}{"message": "ok"}),
		doc("bad", "2025-01-02T00:00:00Z", map[string]interface{}{"alerts": "nope"}),
	))

	if st.Phase != dashboard.PhaseError || len(st.Records) != 0 {
		t.Fatalf("state = %+v", st)
	}
	if st.ErrorMessage() != "Failed to load insights" {
		t.Errorf("message = %q", st.ErrorMessage())
	}
}

func TestUnparsableTimestampsSortLast(t *testing.T) {
	records := []models.InsightRecord{
		{ID: "raw-b", Timestamp: "b-not-a-date"},
		{ID: "old", Timestamp: "2024-01-01T00:00:00Z"},
		{ID: "raw-a", Timestamp: "a-not-a-date"},
		{ID: "new", Timestamp: "2025-01-01T00:00:00+02:00"},
		{ID: "naive", Timestamp: "2024-06-01T12:00:00"},
	}
	got := dashboard.Arrange(records, 0)
	want := []string{"new", "naive", "old", "raw-b", "raw-a"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d = %s, want %s (all: %v)", i, got[i].ID, id, got)
		}
	}
}

func TestParseTimestamp(t *testing.T) {
	cases := map[string]bool{
		"2025-01-15T09:30:00Z":          true,
		"2025-01-15T09:30:00.123+02:00": true,
		"2025-01-15T09:30:00.123456":    true,
		"2025-01-15 09:30:00":           true,
		"2025-01-15":                    true,
		"":                              false,
		"15/01/2025":                    false,
	}
	for raw, ok := range cases {
		if _, got := dashboard.ParseTimestamp(raw); got != ok {
			t.Errorf("ParseTimestamp(%q) ok = %v, want %v", raw, got, ok)
		}
	}
}

// Property: for any snapshot, the state holds min(n, limit) records sorted
// by timestamp descending, and only the first card carries the badge.
func TestProperty_SnapshotOrderingAndTruncation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)
	renderer := newRenderer()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	properties.Property("records are newest first and truncated to the limit", prop.ForAll(
		func(offsets []int, limit int) bool {
			docs := make([]store.Document, len(offsets))
			for i, off := range offsets {
				ts := base.Add(time.Duration(off) * time.Second).Format(time.RFC3339)
				docs[i] = doc(fmt.Sprintf("d%d", i), ts, map[string]interface{}{"message": "m"})
			}

			m := dashboard.NewModel(limit, zerolog.Nop())
			st := m.Apply(snapshotEvent(1, docs...))

			want := len(docs)
			if want > limit {
				want = limit
			}
			if len(st.Records) != want {
				return false
			}

			sorted := sort.SliceIsSorted(st.Records, func(i, j int) bool {
				a, _ := dashboard.ParseTimestamp(st.Records[i].Timestamp)
				b, _ := dashboard.ParseTimestamp(st.Records[j].Timestamp)
				return a.After(b)
			})
			if !sorted {
				return false
			}

			cards := renderer.Render(st).FindAll(render.KindCard)
			if len(cards) != want {
				return false
			}
			for i, c := range cards {
				if (c.Find(render.KindBadge) != nil) != (i == 0) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1_000_000)),
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}
