package render

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"insights-dashboard/internal/dashboard"
	apperrors "insights-dashboard/internal/errors"
	"insights-dashboard/internal/models"
)

func newTestRenderer() *Renderer {
	return NewRenderer(Options{Locale: "he-IL", Location: time.UTC})
}

func ready(records ...models.InsightRecord) dashboard.State {
	return dashboard.State{Phase: dashboard.PhaseReady, Records: records}
}

func TestRenderLoading(t *testing.T) {
	root := newTestRenderer().Render(dashboard.State{Phase: dashboard.PhaseLoading})

	loading := root.Find(KindLoading)
	if loading == nil {
		t.Fatal("expected a loading node")
	}
	if loading.Text != LoadingText {
		t.Errorf("loading text = %q", loading.Text)
	}
	if root.Find(KindCard) != nil || root.Find(KindHeader) != nil {
		t.Error("loading page must not show cards or header")
	}
}

func TestRenderListenerError(t *testing.T) {
	state := dashboard.State{
		Phase: dashboard.PhaseError,
		Err:   apperrors.NewSubscriptionError("daily_insights", errors.New("permission denied")),
	}
	root := newTestRenderer().Render(state)

	errNode := root.Find(KindError)
	if errNode == nil {
		t.Fatal("expected an error node")
	}
	want := ErrorPrefix + "Real-time listener error: permission denied"
	if errNode.Text != want {
		t.Errorf("error text = %q, want %q", errNode.Text, want)
	}
	hint := errNode.Find(KindHint)
	if hint == nil || hint.Text != RefreshHint {
		t.Errorf("expected refresh hint, got %+v", hint)
	}
}

func TestRenderMappingError(t *testing.T) {
	state := dashboard.State{
		Phase: dashboard.PhaseError,
		Err:   apperrors.NewMappingError("doc1", "recommendations", errors.New("bad shape")),
	}
	root := newTestRenderer().Render(state)
	if got := root.Find(KindError).Text; got != ErrorPrefix+"Failed to load insights" {
		t.Errorf("error text = %q", got)
	}
}

func TestRenderEmpty(t *testing.T) {
	root := newTestRenderer().Render(ready())

	if root.Find(KindHeader) == nil {
		t.Error("empty page keeps the header")
	}
	empty := root.Find(KindEmpty)
	if empty == nil || empty.Text != EmptyText {
		t.Fatalf("expected empty node, got %+v", empty)
	}
	if root.Find(KindStats) != nil {
		t.Error("empty page must not show stats")
	}
}

func TestRenderPopulated(t *testing.T) {
	records := []models.InsightRecord{
		{ID: "a", Timestamp: "2025-01-12T14:30:00Z", Body: models.LegacyBody{Message: "first"}},
		{ID: "", Timestamp: "2025-01-11T09:05:00Z", Body: models.LegacyBody{Message: "second"}},
		{ID: "c", Timestamp: "garbage", Body: models.StructuredBody{}},
	}
	root := newTestRenderer().Render(ready(records...))

	stats := root.Find(KindStats)
	if stats == nil || stats.Text != "מציג 3 תובנות (החדשות ביותר קודם)" {
		t.Fatalf("stats = %+v", stats)
	}

	cards := root.FindAll(KindCard)
	if len(cards) != 3 {
		t.Fatalf("expected 3 cards, got %d", len(cards))
	}
	wantKeys := []string{"a", "idx-1", "c"}
	for i, c := range cards {
		if c.Key != wantKeys[i] {
			t.Errorf("card %d key = %q, want %q", i, c.Key, wantKeys[i])
		}
		hasBadge := len(c.FindAll(KindBadge)) > 0
		if hasBadge != (i == 0) {
			t.Errorf("card %d badge = %v", i, hasBadge)
		}
	}

	if got := cards[2].Find(KindMeta).Text; got != "garbage" {
		t.Errorf("unparsable timestamp should render raw, got %q", got)
	}
}

func TestCardLegacy(t *testing.T) {
	rec := models.InsightRecord{
		ID:        "doc1",
		Timestamp: "2025-01-12T14:30:00Z",
		Meta:      models.Metadata{Currency: "ILS", Title: "Daily"},
		Body:      models.LegacyBody{Message: "line one\nline two"},
	}

	got := newTestRenderer().Card(rec, 1)
	want := &Node{
		Kind: KindCard,
		Key:  "doc1",
		Children: []*Node{
			{Kind: KindMeta, Text: "12.01.2025, 14:30", Children: []*Node{
				{Kind: KindField, Key: "currency", Label: labelCurrency, Text: "ILS"},
			}},
			{Kind: KindTitle, Text: "Daily"},
			{Kind: KindPre, Text: "line one\nline two"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("legacy card mismatch (-want +got):\n%s", diff)
	}
}

func TestStructuredSectionsOmittedWhenEmpty(t *testing.T) {
	rec := models.InsightRecord{
		ID: "x",
		Body: models.StructuredBody{
			MarketOverview:  &models.MarketOverview{},
			Recommendations: []models.Recommendation{},
			RiskManagement:  &models.RiskManagement{},
			Alerts:          []models.Alert{{Type: "חדשות", Symbol: "TSLA", Priority: "גבוה", Urgency: "דחוף"}},
		},
	}
	card := newTestRenderer().Card(rec, 0)

	sections := card.FindAll(KindSection)
	if len(sections) != 1 || sections[0].Key != "alerts" {
		t.Fatalf("expected only the alerts section, got %d", len(sections))
	}

	item := sections[0].FindKey("alert-0")
	if item.Icon != "📰" || item.Tone != ToneDanger {
		t.Errorf("alert style = %q %q", item.Icon, item.Tone)
	}
	if !strings.Contains(item.Text, "🚨 דחוף") {
		t.Errorf("alert heading = %q", item.Text)
	}
	if msg := item.FindKey("message"); msg.Text != NotDefined {
		t.Errorf("missing message should show placeholder, got %q", msg.Text)
	}
}

func TestRecommendationRendering(t *testing.T) {
	rec := models.InsightRecord{
		ID: "x",
		Body: models.StructuredBody{
			Recommendations: []models.Recommendation{
				{Symbol: "AAPL", Action: "BUY", CurrentPrice: "190", TargetPrice: "220"},
				{Symbol: "TEVA", Action: "למכור"},
				{Action: "something"},
			},
		},
	}
	sec := newTestRenderer().Card(rec, 0).FindKey("recommendations")
	if sec == nil {
		t.Fatal("expected recommendations section")
	}
	if sec.Label != SectionRecommendations {
		t.Errorf("section label = %q", sec.Label)
	}

	tests := []struct {
		key    string
		symbol string
		tone   Tone
	}{
		{"rec-0", "AAPL", ToneSuccess},
		{"rec-1", "TEVA", ToneDanger},
		{"rec-2", NotDefined, ToneNeutral},
	}
	for _, tt := range tests {
		item := sec.FindKey(tt.key)
		if item.Text != tt.symbol || item.Tone != tt.tone {
			t.Errorf("%s = %q/%q, want %q/%q", tt.key, item.Text, item.Tone, tt.symbol, tt.tone)
		}
	}

	if price := sec.FindKey("rec-0").FindKey("price"); price.Text != "190 → 220" {
		t.Errorf("price = %q", price.Text)
	}
	if stop := sec.FindKey("rec-1").FindKey("stop_loss"); stop.Text != NotDefined {
		t.Errorf("stop loss placeholder = %q", stop.Text)
	}
}

func TestMarketOverviewAndRisk(t *testing.T) {
	rec := models.InsightRecord{
		Body: models.StructuredBody{
			MarketOverview: &models.MarketOverview{Sentiment: "חיובי"},
			RiskManagement: &models.RiskManagement{CurrentRisk: "נמוך", StopLossLevels: []string{"AAPL 180"}},
		},
	}
	card := newTestRenderer().Card(rec, 0)

	mo := card.FindKey("market_overview")
	if mo == nil || mo.Tone != ToneSuccess {
		t.Fatalf("market overview = %+v", mo)
	}
	if summary := mo.FindKey("summary"); summary.Text != NoSummary {
		t.Errorf("summary placeholder = %q", summary.Text)
	}
	if trending := mo.FindKey("trending_sectors"); trending.Find(KindHint) == nil {
		t.Error("trending sectors should show the empty hint")
	}
	if mo.FindKey("key_events") != nil || mo.FindKey("action_items") != nil {
		t.Error("empty key events and action items are omitted")
	}

	risk := card.FindKey("risk_management")
	if risk == nil || risk.Tone != ToneSuccess {
		t.Fatalf("risk = %+v", risk)
	}
	if exp := risk.FindKey("explanation"); exp.Text != NoExplanation {
		t.Errorf("explanation placeholder = %q", exp.Text)
	}
	if levels := risk.FindKey("stop_loss_levels"); len(levels.FindAll(KindItem)) != 1 {
		t.Error("expected one stop loss level")
	}
}

func TestRenderIsPure(t *testing.T) {
	r := newTestRenderer()
	state := ready(models.InsightRecord{ID: "a", Body: models.LegacyBody{Message: "m"}})
	if diff := cmp.Diff(r.Render(state), r.Render(state)); diff != "" {
		t.Errorf("render is not deterministic:\n%s", diff)
	}
}

func TestEarlyAndAfternoonShapes(t *testing.T) {
	rec := models.InsightRecord{
		Body: models.StructuredBody{
			MarketOverview: &models.MarketOverview{
				Sentiment:           "bullish",
				KeyEvents:           []models.KeyEvent{{Event: "תיאור קצר"}},
				ChangesSinceMorning: "הנאסד\"ק עלה",
			},
			SectorAnalysis: []models.SectorAnalysis{{Sector: "AI/Technology", Status: "BEARISH", Recommendation: "AVOID"}},
			Alerts:         []models.Alert{{Title: "כותרת", Description: "תיאור מפורט", Priority: "high"}},
			RiskManagement: &models.RiskManagement{CurrentRisk: "HIGH", Recommendations: []string{"לגדר", "לצמצם"}},
		},
	}
	card := newTestRenderer().Card(rec, 0)

	mo := card.FindKey("market_overview")
	if mo.Tone != ToneSuccess {
		t.Errorf("bullish sentiment tone = %q", mo.Tone)
	}
	if changes := mo.FindKey("changes_since_morning"); changes == nil || changes.Text != "הנאסד\"ק עלה" {
		t.Errorf("changes since morning = %+v", changes)
	}
	if ev := mo.FindKey("event-0"); ev == nil || ev.Text != "תיאור קצר" {
		t.Errorf("key event = %+v", ev)
	}

	if sector := card.FindKey("sector-0"); sector.Tone != ToneDanger {
		t.Errorf("bearish sector tone = %q", sector.Tone)
	}

	alert := card.FindKey("alert-0")
	if msg := alert.FindKey("message"); msg.Text != "כותרת: תיאור מפורט" {
		t.Errorf("alert message = %q", msg.Text)
	}
	if alert.Tone != ToneDanger {
		t.Errorf("alert tone = %q", alert.Tone)
	}

	riskList := card.FindKey("risk_recommendations")
	if riskList == nil || len(riskList.FindAll(KindItem)) != 2 {
		t.Errorf("risk recommendations = %+v", riskList)
	}
}
