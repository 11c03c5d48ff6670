package render

import (
	"bytes"
	"strings"
	"testing"

	"insights-dashboard/internal/models"
)

func TestHTMLPage(t *testing.T) {
	h, err := NewHTML("he")
	if err != nil {
		t.Fatalf("NewHTML: %v", err)
	}

	root := newTestRenderer().Render(ready(models.InsightRecord{
		ID:   "doc1",
		Meta: models.Metadata{Title: `<script>alert("x")</script>Morning`},
		Body: models.LegacyBody{Message: "AAPL <b>up</b> & TSLA down"},
	}))

	var buf bytes.Buffer
	if err := h.Page(&buf, root, "/events"); err != nil {
		t.Fatalf("Page: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`dir="rtl"`,
		`lang="he"`,
		`data-key="doc1"`,
		"<pre class=\"pre\">",
		"AAPL <b>up</b> &amp; TSLA down",
		"&lt;script&gt;",
		"Morning",
		"EventSource",
		PageTitle,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("page is missing %q", want)
		}
	}
	if strings.Contains(out, "<script>alert") {
		t.Error("document text must be escaped")
	}
}

func TestHTMLKeepsAngleBracketText(t *testing.T) {
	h, err := NewHTML("he")
	if err != nil {
		t.Fatalf("NewHTML: %v", err)
	}

	tests := []struct {
		name string
		body models.Body
		want string
	}{
		{
			name: "field text",
			body: models.StructuredBody{
				Recommendations: []models.Recommendation{{Symbol: "NVDA", Action: "לקנות", Reason: "מחיר <יעד> 150"}},
			},
			want: "מחיר &lt;יעד&gt; 150",
		},
		{
			name: "plain message",
			body: models.LegacyBody{Message: "price <target> above 150"},
			want: "price &lt;target&gt; above 150",
		},
		{
			name: "formatted message",
			body: models.LegacyBody{Message: `<strong>NVDA</strong><br><img src=x onerror="alert(1)">`},
			want: "<strong>NVDA</strong><br>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			card := newTestRenderer().Card(models.InsightRecord{ID: "x", Body: tt.body}, 0)
			out, err := h.FragmentString(card)
			if err != nil {
				t.Fatalf("FragmentString: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("fragment is missing %q:\n%s", tt.want, out)
			}
			if strings.Contains(out, "onerror") || strings.Contains(out, "<img") {
				t.Error("unsafe markup must be removed")
			}
		})
	}
}

func TestHTMLPageWithoutEvents(t *testing.T) {
	h, err := NewHTML("")
	if err != nil {
		t.Fatalf("NewHTML: %v", err)
	}
	var buf bytes.Buffer
	if err := h.Page(&buf, newTestRenderer().Render(ready()), ""); err != nil {
		t.Fatalf("Page: %v", err)
	}
	if strings.Contains(buf.String(), "EventSource") {
		t.Error("static page must not subscribe to events")
	}
	if !strings.Contains(buf.String(), EmptyText) {
		t.Error("expected the empty state text")
	}
}

func TestHTMLFragmentTones(t *testing.T) {
	h, err := NewHTML("he")
	if err != nil {
		t.Fatalf("NewHTML: %v", err)
	}
	card := newTestRenderer().Card(models.InsightRecord{
		ID: "x",
		Body: models.StructuredBody{
			Recommendations: []models.Recommendation{{Symbol: "NVDA", Action: "לקנות"}},
		},
	}, 0)

	out, err := h.FragmentString(card)
	if err != nil {
		t.Fatalf("FragmentString: %v", err)
	}
	if strings.Contains(out, "<html") {
		t.Error("fragment must not contain the document wrapper")
	}
	if !strings.Contains(out, "tone-success") {
		t.Error("buy recommendation should carry the success tone")
	}
	if !strings.Contains(out, SectionRecommendations) {
		t.Error("expected the recommendations header")
	}
}
