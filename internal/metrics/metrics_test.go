package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	m := New()
	m.RecordHTTPRequest(http.MethodGet, "/videos/:id", http.StatusOK, 15*time.Millisecond)
	m.RecordHTTPRequest(http.MethodGet, "/videos/:id", http.StatusOK, 5*time.Millisecond)
	m.RecordHTTPRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	if got := testutil.ToFloat64(m.HTTPRequestTotal.WithLabelValues(http.MethodGet, "/videos/:id", "200")); got != 2 {
		t.Fatalf("expected two requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequestTotal.WithLabelValues(http.MethodGet, "unmatched", "404")); got != 1 {
		t.Fatalf("expected unmatched route label, got %v", got)
	}
}

func TestRecordSearchAndRealtime(t *testing.T) {
	m := New()
	m.RecordSearch(2*time.Millisecond, 7)
	m.RecordRateLimited()
	m.RecordRealtimeEvent("video-reaction", true)
	m.RecordRealtimeEvent("video-reaction", false)
	m.RecordCatalogError("like_video", "video_not_found")

	if got := testutil.ToFloat64(m.SearchQueryTotal); got != 1 {
		t.Fatalf("expected one search, got %v", got)
	}
	if got := testutil.ToFloat64(m.SearchRateLimited); got != 1 {
		t.Fatalf("expected one rate-limited search, got %v", got)
	}
	if got := testutil.ToFloat64(m.RealtimeEventTotal.WithLabelValues("video-reaction", "dropped")); got != 1 {
		t.Fatalf("expected one dropped event, got %v", got)
	}
	if got := testutil.ToFloat64(m.CatalogErrorTotal.WithLabelValues("like_video", "video_not_found")); got != 1 {
		t.Fatalf("expected one catalog error, got %v", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.RecordSearch(time.Millisecond, 1)

	recorder := httptest.NewRecorder()
	m.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", recorder.Code)
	}
	body, _ := io.ReadAll(recorder.Body)
	if !strings.Contains(string(body), "clipstore_search_queries_total 1") {
		t.Fatalf("expected search counter in exposition, got %s", body)
	}
}

func TestNewUsesIndependentRegistries(t *testing.T) {
	first := New()
	second := New()
	first.RecordRateLimited()
	if got := testutil.ToFloat64(second.SearchRateLimited); got != 0 {
		t.Fatalf("registries must not share state, got %v", got)
	}
}
