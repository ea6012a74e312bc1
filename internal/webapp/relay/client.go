// Package relay forwards data operations from the web front-end to the API
// service. Each browser request binds its own Exchange; cookies travel to
// the API verbatim and every Set-Cookie the API issues is mirrored back to
// the browser with hardened attributes.
package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/inkwell-web/inkwell/internal/telemetry"
)

// CookieLifetime is the fixed expiry window applied to every cookie
// mirrored onto the browser response.
const CookieLifetime = 2 * time.Hour

// DefaultTimeout bounds a single relayed call.
const DefaultTimeout = 30 * time.Second

// Client is the shared, long-lived relay client. It carries the pooled
// transport and base URL only; per-request state lives in Exchange.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *Metrics
}

// NewClient builds a relay client for the API at baseURL.
func NewClient(baseURL string, timeout time.Duration, metrics *Metrics) (*Client, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			// Relayed responses must surface to the browser as-is,
			// including redirects the API might issue.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		metrics: metrics,
	}, nil
}

// Bind creates a request-scoped Exchange for one browser request. The
// Exchange must not outlive the request or be shared between requests.
func (c *Client) Bind(w http.ResponseWriter, r *http.Request) *Exchange {
	return &Exchange{client: c, w: w, r: r}
}

// Exchange relays calls for a single browser request.
type Exchange struct {
	client *Client
	w      http.ResponseWriter
	r      *http.Request
}

// Error is a non-2xx upstream response.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api responded %d: %s", e.StatusCode, e.Body)
}

// Get relays a GET and decodes the response into out. An empty success body
// leaves out at its zero value.
func (e *Exchange) Get(path string, out any) error {
	return e.do(http.MethodGet, path, nil, out)
}

// Post relays a POST with a JSON body.
func (e *Exchange) Post(path string, body, out any) error {
	return e.do(http.MethodPost, path, body, out)
}

// Put relays a PUT with a JSON body.
func (e *Exchange) Put(path string, body, out any) error {
	return e.do(http.MethodPut, path, body, out)
}

// Delete relays a DELETE and reports whether the API accepted it.
func (e *Exchange) Delete(path string) (bool, error) {
	if err := e.do(http.MethodDelete, path, nil, nil); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Exchange) do(method, path string, body, out any) error {
	ctx, span := telemetry.StartRelaySpan(e.r.Context(), method, path)
	start := time.Now()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			telemetry.EndRelaySpan(span, 0, err)
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, e.client.baseURL+path, reader)
	if err != nil {
		telemetry.EndRelaySpan(span, 0, err)
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Forward the browser's cookies to the API unchanged. The API's own
	// session cookie rides along with any others.
	for _, c := range e.r.Cookies() {
		req.AddCookie(c)
	}

	resp, err := e.client.httpClient.Do(req)
	if err != nil {
		e.client.observe(method, "transport_error", time.Since(start))
		telemetry.EndRelaySpan(span, 0, err)
		return fmt.Errorf("relay %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	// Mirror upstream cookies onto the browser response whether the call
	// succeeded or not, so logout and session expiry propagate.
	e.mirrorCookies(resp)

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		e.client.observe(method, "read_error", time.Since(start))
		telemetry.EndRelaySpan(span, resp.StatusCode, err)
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e.client.observe(method, "upstream_error", time.Since(start))
		telemetry.EndRelaySpan(span, resp.StatusCode, nil)
		return &Error{StatusCode: resp.StatusCode, Body: string(data)}
	}

	e.client.observe(method, "success", time.Since(start))
	telemetry.EndRelaySpan(span, resp.StatusCode, nil)

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (e *Exchange) mirrorCookies(resp *http.Response) {
	for _, c := range resp.Cookies() {
		mirrored := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
			Expires:  time.Now().Add(CookieLifetime),
			MaxAge:   int(CookieLifetime.Seconds()),
		}
		// Deletions keep their negative max-age so the browser drops them.
		if c.MaxAge < 0 {
			mirrored.MaxAge = -1
			mirrored.Expires = time.Unix(0, 0)
		}
		http.SetCookie(e.w, mirrored)
	}
}

func (c *Client) observe(method, outcome string, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.Observe(method, outcome, elapsed)
}
