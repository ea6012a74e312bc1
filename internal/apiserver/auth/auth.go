// Package auth authenticates API requests from the session cookie and
// exposes the caller's identity through the request context.
package auth

import (
	"context"
	"net/http"
	"strings"
)

// SessionCookieName is the browser cookie carrying the API session token.
const SessionCookieName = "inkwell_session"

type contextKey string

const userContextKey contextKey = "user"

// AuthenticatedUser is stored in request context for authenticated callers.
type AuthenticatedUser struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// SessionValidator resolves a session token to the user identity behind it.
type SessionValidator interface {
	Validate(token string) (*AuthenticatedUser, error)
}

// UserFromContext retrieves the authenticated user from request context.
func UserFromContext(ctx context.Context) *AuthenticatedUser {
	user, _ := ctx.Value(userContextKey).(*AuthenticatedUser)
	return user
}

// WithUser returns a context carrying the authenticated user. Handler tests
// use this to simulate an authenticated request.
func WithUser(ctx context.Context, user *AuthenticatedUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// IsAuthenticated reports whether the request carries a valid identity.
func IsAuthenticated(ctx context.Context) bool {
	return UserFromContext(ctx) != nil
}

// Middleware enforces deny-by-default session auth. Paths in skipPaths are
// served anonymously; a trailing "*" marks a prefix match.
type Middleware struct {
	validator  SessionValidator
	skipExact  map[string]bool
	skipPrefix []string
}

// NewMiddleware builds auth middleware with the given anonymous paths.
func NewMiddleware(validator SessionValidator, skipPaths []string) *Middleware {
	skipExact := make(map[string]bool, len(skipPaths))
	skipPrefix := make([]string, 0)
	for _, p := range skipPaths {
		if strings.HasSuffix(p, "*") {
			skipPrefix = append(skipPrefix, strings.TrimSuffix(p, "*"))
			continue
		}
		skipExact[p] = true
	}

	return &Middleware{
		validator:  validator,
		skipExact:  skipExact,
		skipPrefix: skipPrefix,
	}
}

// Wrap returns the wrapped HTTP handler.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.shouldSkip(r.URL.Path) {
			// Anonymous paths still get an identity when a valid cookie
			// is present, so login-optional handlers can see the caller.
			if user := m.resolve(r); user != nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
			return
		}

		user := m.resolve(r)
		if user == nil {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"errors":["authentication required"]}`, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func (m *Middleware) shouldSkip(path string) bool {
	if m.skipExact[path] {
		return true
	}
	for _, p := range m.skipPrefix {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (m *Middleware) resolve(r *http.Request) *AuthenticatedUser {
	if m.validator == nil {
		return nil
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return nil
	}

	user, err := m.validator.Validate(cookie.Value)
	if err != nil {
		return nil
	}
	return user
}
