// Package localauth manages the web front-end's own identity cookie. The
// cookie is independent of the API session: it carries a signed principal
// the view layer uses to render role-aware pages without an API round trip.
package localauth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/inkwell-web/inkwell/internal/shared/signing"
)

// IdentityCookieName is the front-end's own identity cookie.
const IdentityCookieName = "inkwell_identity"

// DefaultLifetime is how long a minted identity stays valid.
const DefaultLifetime = 2 * time.Hour

// DefaultRole is assumed when the API reports no role for a user.
const DefaultRole = "User"

var (
	ErrNoIdentity      = errors.New("no identity cookie")
	ErrInvalidIdentity = errors.New("invalid identity cookie")
	ErrExpired         = errors.New("identity expired")
)

// Principal is the signed identity the front-end trusts between requests.
// ID is the API's user id; the view layer compares it against resource
// owners to offer users their own edit controls.
type Principal struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsAdministrator reports whether the principal holds the Administrator role.
func (p *Principal) IsAdministrator() bool {
	return p.Role == "Administrator"
}

// IsElevated reports whether the principal may moderate content.
func (p *Principal) IsElevated() bool {
	return p.Role == "Administrator" || p.Role == "Moderator"
}

// Manager mints, reads, and clears identity cookies.
type Manager struct {
	signer   *signing.Signer
	lifetime time.Duration
}

// NewManager creates a manager signing identities with key.
func NewManager(key []byte, lifetime time.Duration) (*Manager, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("identity signing key is required")
	}
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &Manager{signer: signing.NewSigner(key), lifetime: lifetime}, nil
}

// Issue mints a signed identity cookie for the user. An empty role falls
// back to DefaultRole.
func (m *Manager) Issue(w http.ResponseWriter, id, name, email, role string) (*Principal, error) {
	if role == "" {
		role = DefaultRole
	}
	p := &Principal{
		ID:        id,
		Name:      name,
		Email:     email,
		Role:      role,
		ExpiresAt: time.Now().Add(m.lifetime),
	}

	value, err := m.encode(p)
	if err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     IdentityCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		Expires:  p.ExpiresAt,
		MaxAge:   int(m.lifetime.Seconds()),
	})
	return p, nil
}

// Read returns the verified principal from the request, or an error when
// the cookie is absent, tampered with, or expired.
func (m *Manager) Read(r *http.Request) (*Principal, error) {
	c, err := r.Cookie(IdentityCookieName)
	if err != nil {
		return nil, ErrNoIdentity
	}
	return m.decode(c.Value)
}

// Clear expires the identity cookie on the browser.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     IdentityCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

func (m *Manager) encode(p *Principal) (string, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode principal: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + m.signer.SignBytes(payload), nil
}

func (m *Manager) decode(value string) (*Principal, error) {
	encoded, signature, found := strings.Cut(value, ".")
	if !found {
		return nil, ErrInvalidIdentity
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidIdentity
	}
	if !m.signer.VerifyBytes(payload, signature) {
		return nil, ErrInvalidIdentity
	}

	var p Principal
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, ErrInvalidIdentity
	}
	if time.Now().After(p.ExpiresAt) {
		return nil, ErrExpired
	}
	return &p, nil
}
