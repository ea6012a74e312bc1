package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"

	"github.com/inkwell-web/inkwell/internal/apiserver/auth"
	"github.com/inkwell-web/inkwell/internal/apiserver/config"
	"github.com/inkwell-web/inkwell/internal/apiserver/users"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.SessionLifetime = time.Hour
	cfg.RateLimit.LoginPerMinute = 100

	srv, err := New(cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(srv.Close)
	return srv
}

func (s *Server) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, srv *Server, email string) *http.Cookie {
	t.Helper()

	rec := srv.do(t, http.MethodPost, "/api/v1/users", map[string]string{
		"userName": "writer",
		"email":    email,
		"password": "long-enough-pass",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}

	return login(t, srv, email, "long-enough-pass")
}

func login(t *testing.T, srv *Server, email, password string) *http.Cookie {
	t.Helper()

	rec := srv.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}

	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie in login response")
	return nil
}

func promote(t *testing.T, srv *Server, email, role string) {
	t.Helper()

	u, err := srv.userStore.GetByEmail(email)
	if err != nil {
		t.Fatal(err)
	}
	if err := srv.userStore.UpdateRole(u.ID, role); err != nil {
		t.Fatal(err)
	}
	// Sessions cache the role at validation time only, so a fresh request
	// sees the new role immediately.
}

func TestHealthzAndVersionArePublic(t *testing.T) {
	srv := newTestServer(t)

	if rec := srv.do(t, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	if rec := srv.do(t, http.MethodGet, "/version", nil); rec.Code != http.StatusOK {
		t.Fatalf("version: %d", rec.Code)
	}
}

func TestRequestSpanPerRequest(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	srv := newTestServer(t)
	srv.do(t, http.MethodGet, "/healthz", nil)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "http.request" {
		t.Fatalf("span name = %q, want %q", spans[0].Name, "http.request")
	}

	var path string
	var status int64
	for _, a := range spans[0].Attributes {
		switch string(a.Key) {
		case "inkwell.http.path":
			path = a.Value.AsString()
		case "inkwell.http.status":
			status = a.Value.AsInt64()
		}
	}
	if path != "/healthz" {
		t.Errorf("path attribute = %q", path)
	}
	if status != http.StatusOK {
		t.Errorf("status attribute = %d", status)
	}
}

func TestLoginFlow(t *testing.T) {
	srv := newTestServer(t)
	cookie := registerAndLogin(t, srv, "w@example.com")

	rec := srv.do(t, http.MethodGet, "/api/v1/auth/profile", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile: %d %s", rec.Code, rec.Body.String())
	}

	var profile map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatal(err)
	}
	if profile["email"] != "w@example.com" {
		t.Fatalf("unexpected profile: %v", profile)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "w@example.com")

	rec := srv.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "w@example.com",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName && c.Value != "" {
			t.Fatal("failed login must not set a session cookie")
		}
	}
}

func TestLoginValidationErrors(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Errors) != 2 {
		t.Fatalf("expected both field errors, got %v", body.Errors)
	}
}

func TestLoginRateLimited(t *testing.T) {
	srv := newTestServer(t)
	srv.loginLimiter = auth.NewRateLimiter(2, time.Minute)

	body := map[string]string{"email": "x@example.com", "password": "whatever1"}
	srv.do(t, http.MethodPost, "/api/v1/auth/login", body)
	srv.do(t, http.MethodPost, "/api/v1/auth/login", body)

	rec := srv.do(t, http.MethodPost, "/api/v1/auth/login", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	srv := newTestServer(t)
	cookie := registerAndLogin(t, srv, "w@example.com")

	rec := srv.do(t, http.MethodPost, "/api/v1/auth/logout", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: %d", rec.Code)
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("logout should expire the session cookie")
	}

	if rec := srv.do(t, http.MethodGet, "/api/v1/auth/profile", nil, cookie); rec.Code != http.StatusUnauthorized {
		t.Fatalf("old session should be rejected, got %d", rec.Code)
	}
}

func TestDisabledUserLockedOut(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "w@example.com")

	u, err := srv.userStore.GetByEmail("w@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := srv.userStore.SetEnabled(u.ID, false); err != nil {
		t.Fatal(err)
	}

	rec := srv.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "w@example.com",
		"password": "long-enough-pass",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for disabled account, got %d", rec.Code)
	}
}

func TestArticleCRUDOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	owner := registerAndLogin(t, srv, "owner@example.com")
	other := registerAndLogin(t, srv, "other@example.com")

	rec := srv.do(t, http.MethodPost, "/api/v1/articles", map[string]string{
		"title":   "Hello",
		"content": "World",
	}, owner)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}

	var created struct {
		ID       int64  `json:"id"`
		AuthorID string `json:"authorId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.AuthorID == "" {
		t.Fatal("author should be stamped from the session")
	}

	if rec := srv.do(t, http.MethodGet, "/api/v1/articles/latest?start=0&count=5", nil, owner); rec.Code != http.StatusOK {
		t.Fatalf("latest: %d", rec.Code)
	}
	if rec := srv.do(t, http.MethodGet, "/api/v1/articles?title=Hel", nil, owner); rec.Code != http.StatusOK {
		t.Fatalf("search: %d", rec.Code)
	}

	// Foreign user cannot delete.
	if rec := srv.do(t, http.MethodDelete, "/api/v1/articles/1", nil, other); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign delete should be 403, got %d", rec.Code)
	}
	if rec := srv.do(t, http.MethodDelete, "/api/v1/articles/1", nil, owner); rec.Code != http.StatusNoContent {
		t.Fatalf("owner delete: %d", rec.Code)
	}
	if rec := srv.do(t, http.MethodGet, "/api/v1/articles/1", nil, owner); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestAdminUserManagement(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "admin@example.com")
	promote(t, srv, "admin@example.com", users.RoleAdministrator)
	admin := login(t, srv, "admin@example.com", "long-enough-pass")
	target := registerAndLogin(t, srv, "target@example.com")

	u, err := srv.userStore.GetByEmail("target@example.com")
	if err != nil {
		t.Fatal(err)
	}

	rec := srv.do(t, http.MethodPut, "/api/v1/users/"+u.ID+"/role", map[string]string{
		"role": users.RoleModerator,
	}, admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("role change: %d %s", rec.Code, rec.Body.String())
	}

	// Role change revokes the target's sessions.
	if rec := srv.do(t, http.MethodGet, "/api/v1/auth/profile", nil, target); rec.Code != http.StatusUnauthorized {
		t.Fatalf("target session should be revoked after role change, got %d", rec.Code)
	}

	if rec := srv.do(t, http.MethodDelete, "/api/v1/users/"+u.ID, nil, admin); rec.Code != http.StatusNoContent {
		t.Fatalf("admin delete user: %d %s", rec.Code, rec.Body.String())
	}
}

func TestUserFieldUpdate(t *testing.T) {
	srv := newTestServer(t)
	cookie := registerAndLogin(t, srv, "w@example.com")

	u, err := srv.userStore.GetByEmail("w@example.com")
	if err != nil {
		t.Fatal(err)
	}

	rec := srv.do(t, http.MethodPut, "/api/v1/users/"+u.ID, map[string]string{
		"firstName": "Ada",
		"birthDate": "1815-12-10",
	}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("field update: %d %s", rec.Code, rec.Body.String())
	}

	var updated users.User
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatal(err)
	}
	if updated.FirstName != "Ada" || updated.BirthDate != "1815-12-10" {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.UserName != "writer" {
		t.Fatalf("untouched field changed: %q", updated.UserName)
	}
}

func TestBootstrapAdminEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/v1/users/admin", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("bootstrap: %d %s", rec.Code, rec.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["password"] == "" {
		t.Fatal("bootstrap should return the generated password")
	}

	login(t, srv, body["email"], body["password"])

	if rec := srv.do(t, http.MethodPost, "/api/v1/users/admin", nil); rec.Code != http.StatusConflict {
		t.Fatalf("second bootstrap should be 409, got %d", rec.Code)
	}
}

func TestTagAndRoleEndpoints(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "mod@example.com")
	promote(t, srv, "mod@example.com", users.RoleModerator)
	mod := login(t, srv, "mod@example.com", "long-enough-pass")

	rec := srv.do(t, http.MethodPost, "/api/v1/tags", map[string]string{"name": "golang"}, mod)
	if rec.Code != http.StatusCreated {
		t.Fatalf("tag create: %d %s", rec.Code, rec.Body.String())
	}
	if rec := srv.do(t, http.MethodGet, "/api/v1/tags/by-name?name=golang", nil, mod); rec.Code != http.StatusOK {
		t.Fatalf("tag by name: %d", rec.Code)
	}

	// Roles are admin-only; a moderator gets 403.
	if rec := srv.do(t, http.MethodGet, "/api/v1/roles", nil, mod); rec.Code != http.StatusForbidden {
		t.Fatalf("moderator role list should be 403, got %d", rec.Code)
	}
}
