package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type mockUsers struct{}

func (m *mockUsers) Count() int { return 12 }

type mockCleaner struct{}

func (m *mockCleaner) LastCleanup() (int, time.Time) { return 5, time.Unix(1700000000, 0) }

func TestMetricsHandler(t *testing.T) {
	c := NewCollector(&mockUsers{}, &mockCleaner{})
	c.ObserveRequest(200)
	c.ObserveRequest(201)
	c.ObserveRequest(404)
	c.ObserveLogin(true)
	c.ObserveLogin(false)
	c.ObserveLogin(false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil)
	w := httptest.NewRecorder()

	c.Handler().ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	body := w.Body.String()

	checks := []string{
		`inkwell_http_requests_total 3`,
		`inkwell_http_responses_total{class="2xx"} 2`,
		`inkwell_http_responses_total{class="4xx"} 1`,
		`inkwell_logins_total{outcome="success"} 1`,
		`inkwell_logins_total{outcome="failure"} 2`,
		`inkwell_users_registered 12`,
		`inkwell_sessions_cleaned 5`,
		`inkwell_sessions_cleanup_timestamp_seconds 1700000000`,
		`inkwell_uptime_seconds`,
	}

	for _, check := range checks {
		if !strings.Contains(body, check) {
			t.Errorf("missing metric: %s\nbody:\n%s", check, body)
		}
	}

	ct := w.Header().Get("Content-Type")
	if !strings.Contains(ct, "text/plain") {
		t.Errorf("expected text/plain content-type, got %s", ct)
	}
}

func TestMetricsZeroState(t *testing.T) {
	c := NewCollector(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil)
	w := httptest.NewRecorder()

	c.Handler().ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, `inkwell_http_requests_total 0`) {
		t.Error("expected zero request count")
	}
	if strings.Contains(body, `inkwell_users_registered`) {
		t.Error("user gauge should be omitted without a source")
	}
}
