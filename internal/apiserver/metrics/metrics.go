// Package metrics provides Prometheus-compatible metrics for the API server.
package metrics

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// UserCounter provides account totals.
type UserCounter interface {
	Count() int
}

// SessionCleaner reports the result of the last cleanup run.
type SessionCleaner interface {
	LastCleanup() (removed int, at time.Time)
}

// Collector holds references to all stat sources and the request counters
// maintained by the HTTP layer.
type Collector struct {
	users     UserCounter
	cleaner   SessionCleaner
	startTime time.Time

	requests atomic.Int64

	mu       sync.Mutex
	byStatus map[int]int64
	logins   struct {
		success int64
		failure int64
	}
}

// NewCollector creates a metrics collector.
func NewCollector(users UserCounter, cleaner SessionCleaner) *Collector {
	return &Collector{
		users:     users,
		cleaner:   cleaner,
		startTime: time.Now(),
		byStatus:  make(map[int]int64),
	}
}

// ObserveRequest records a served request and its status class.
func (c *Collector) ObserveRequest(status int) {
	c.requests.Add(1)
	c.mu.Lock()
	c.byStatus[status/100*100]++
	c.mu.Unlock()
}

// ObserveLogin records a login attempt outcome.
func (c *Collector) ObserveLogin(success bool) {
	c.mu.Lock()
	if success {
		c.logins.success++
	} else {
		c.logins.failure++
	}
	c.mu.Unlock()
}

// Handler returns an HTTP handler that serves Prometheus text format.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		var b strings.Builder

		b.WriteString("# HELP inkwell_http_requests_total Total HTTP requests served.\n")
		b.WriteString("# TYPE inkwell_http_requests_total counter\n")
		fmt.Fprintf(&b, "inkwell_http_requests_total %d\n", c.requests.Load())

		c.mu.Lock()
		b.WriteString("# HELP inkwell_http_responses_total HTTP responses by status class.\n")
		b.WriteString("# TYPE inkwell_http_responses_total counter\n")
		for _, class := range []int{200, 300, 400, 500} {
			fmt.Fprintf(&b, "inkwell_http_responses_total{class=\"%dxx\"} %d\n", class/100, c.byStatus[class])
		}

		b.WriteString("# HELP inkwell_logins_total Login attempts by outcome.\n")
		b.WriteString("# TYPE inkwell_logins_total counter\n")
		fmt.Fprintf(&b, "inkwell_logins_total{outcome=%q} %d\n", "success", c.logins.success)
		fmt.Fprintf(&b, "inkwell_logins_total{outcome=%q} %d\n", "failure", c.logins.failure)
		c.mu.Unlock()

		if c.users != nil {
			b.WriteString("# HELP inkwell_users_registered Total registered accounts.\n")
			b.WriteString("# TYPE inkwell_users_registered gauge\n")
			fmt.Fprintf(&b, "inkwell_users_registered %d\n", c.users.Count())
		}

		if c.cleaner != nil {
			removed, at := c.cleaner.LastCleanup()
			b.WriteString("# HELP inkwell_sessions_cleaned Sessions removed by the last cleanup run.\n")
			b.WriteString("# TYPE inkwell_sessions_cleaned gauge\n")
			fmt.Fprintf(&b, "inkwell_sessions_cleaned %d\n", removed)
			if !at.IsZero() {
				b.WriteString("# HELP inkwell_sessions_cleanup_timestamp_seconds Unix time of the last cleanup run.\n")
				b.WriteString("# TYPE inkwell_sessions_cleanup_timestamp_seconds gauge\n")
				fmt.Fprintf(&b, "inkwell_sessions_cleanup_timestamp_seconds %d\n", at.Unix())
			}
		}

		b.WriteString("# HELP inkwell_uptime_seconds API server uptime in seconds.\n")
		b.WriteString("# TYPE inkwell_uptime_seconds gauge\n")
		fmt.Fprintf(&b, "inkwell_uptime_seconds %.0f\n", time.Since(c.startTime).Seconds())

		_, _ = w.Write([]byte(b.String()))
	}
}
