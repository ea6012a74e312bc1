// Package flash carries one-shot notices between redirects. A notice is
// written as a short-lived cookie and consumed on the first read.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

// CookieName is the toast cookie.
const CookieName = "inkwell_flash"

// Kinds of notice, used by templates to pick styling.
const (
	KindInfo    = "info"
	KindSuccess = "success"
	KindError   = "error"
)

// Message is a one-shot notice shown on the next rendered page.
type Message struct {
	Text string `json:"message"`
	Kind string `json:"kind"`
}

// Set queues a notice for the next page load.
func Set(w http.ResponseWriter, text, kind string) {
	if kind == "" {
		kind = KindInfo
	}
	payload, err := json.Marshal(Message{Text: text, Kind: kind})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    base64.RawURLEncoding.EncodeToString(payload),
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int((5 * time.Minute).Seconds()),
	})
}

// Pop returns the queued notice, if any, and expires its cookie so it is
// shown exactly once. A malformed cookie is dropped silently.
func Pop(w http.ResponseWriter, r *http.Request) (Message, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return Message{}, false
	}
	expire(w)

	payload, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return Message{}, false
	}
	var m Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return Message{}, false
	}
	return m, true
}

func expire(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
