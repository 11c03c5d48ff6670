package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"insights-dashboard/internal/dashboard"
	apperrors "insights-dashboard/internal/errors"
	"insights-dashboard/internal/models"
	"insights-dashboard/internal/render"
	"insights-dashboard/internal/stream"
)

func newTestServer(t *testing.T) (*Server, *stream.Hub) {
	t.Helper()
	html, err := render.NewHTML("he")
	if err != nil {
		t.Fatalf("NewHTML: %v", err)
	}
	hub := stream.NewHub()
	t.Cleanup(hub.Stop)
	renderer := render.NewRenderer(render.Options{Locale: "he-IL", Location: time.UTC})
	srv := New(Config{Heartbeat: time.Hour, Limit: 20}, hub, renderer, html, zerolog.Nop())
	return srv, hub
}

func readyState() dashboard.State {
	return dashboard.State{
		Phase:   dashboard.PhaseReady,
		Version: 2,
		Records: []models.InsightRecord{
			{
				ID:        "b",
				Timestamp: "2025-01-03T10:00:00Z",
				Body: models.StructuredBody{
					Recommendations: []models.Recommendation{{Symbol: "AAPL", Action: "BUY"}},
				},
				Extra: map[string]interface{}{"priority": "high"},
			},
			{ID: "a", Timestamp: "2025-01-02T10:00:00Z", Body: models.LegacyBody{Message: "hello"}},
		},
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	h.ServeHTTP(rec, req)
	return rec
}

func TestPageBeforeFirstState(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv.Handler(), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), render.LoadingText) {
		t.Error("page should show the loading state")
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
}

func TestPageReady(t *testing.T) {
	srv, hub := newTestServer(t)
	hub.Publish(readyState())

	body := get(t, srv.Handler(), "/").Body.String()
	for _, want := range []string{"hello", "AAPL", `data-key="b"`, EventsPath} {
		if !strings.Contains(body, want) {
			t.Errorf("page is missing %q", want)
		}
	}
}

func TestRecentInsights(t *testing.T) {
	srv, hub := newTestServer(t)
	hub.Publish(readyState())

	rec := get(t, srv.Handler(), "/api/insights/recent?limit=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status   string                   `json:"status"`
		Count    int                      `json:"count"`
		Insights []map[string]interface{} `json:"insights"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "success" || resp.Count != 1 || len(resp.Insights) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	doc := resp.Insights[0]
	if doc["id"] != "b" || doc["priority"] != "high" {
		t.Errorf("unexpected insight %v", doc)
	}
	if _, ok := doc["message"]; ok {
		t.Error("structured insight must not gain a message field")
	}
}

func TestRecentInsightsRejectsBadLimit(t *testing.T) {
	srv, hub := newTestServer(t)
	hub.Publish(readyState())

	for _, q := range []string{"0", "21", "abc"} {
		rec := get(t, srv.Handler(), "/api/insights/recent?limit="+q)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d", q, rec.Code)
		}
	}
}

func TestRecentInsightsInErrorState(t *testing.T) {
	srv, hub := newTestServer(t)
	hub.Publish(dashboard.State{
		Phase: dashboard.PhaseError,
		Err:   apperrors.NewSubscriptionError("daily_insights", errors.New("denied")),
	})

	rec := get(t, srv.Handler(), "/api/insights/recent")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Real-time listener error: denied") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRecommendationContext(t *testing.T) {
	srv, hub := newTestServer(t)
	hub.Publish(readyState())

	rec := get(t, srv.Handler(), "/api/insights/b/recommendations/0/context")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "📈 Stock: AAPL") {
		t.Errorf("body = %q", rec.Body.String())
	}

	for _, path := range []string{
		"/api/insights/b/recommendations/1/context",
		"/api/insights/a/recommendations/0/context",
		"/api/insights/zzz/recommendations/0/context",
	} {
		if code := get(t, srv.Handler(), path).Code; code != http.StatusNotFound {
			t.Errorf("%s: status = %d", path, code)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv, hub := newTestServer(t)
	hub.Publish(readyState())

	rec := get(t, srv.Handler(), "/health")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"phase":"ready"`) {
		t.Errorf("health = %d %s", rec.Code, rec.Body.String())
	}

	rec = get(t, srv.Handler(), "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "insights_") {
		t.Errorf("metrics = %d", rec.Code)
	}
}

func TestEventsStreamsCurrentState(t *testing.T) {
	srv, hub := newTestServer(t)
	hub.Publish(readyState())

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+EventsPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("content type = %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var sawEvent, sawData bool
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event:") && strings.Contains(line, "state") {
			sawEvent = true
		}
		if sawEvent && strings.HasPrefix(line, "data:") && strings.Contains(line, "hello") {
			sawData = true
			break
		}
	}
	if !sawEvent || !sawData {
		t.Errorf("did not receive a state event (event=%v data=%v)", sawEvent, sawData)
	}
}
