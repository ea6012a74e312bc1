package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/inkwell-web/inkwell/internal/webapp/flash"
)

// Cookies cleared on logout alongside the identity cookie. The session
// cookie belongs to the API but lives on this origin via the relay mirror.
var logoutCookieNames = []string{"inkwell_session", "auth", "token"}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", map[string]any{"Title": "Inkwell", "Email": ""})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	// Form validation happens locally; the API is only consulted once
	// both fields are present.
	var fieldErrs []string
	if email == "" {
		fieldErrs = append(fieldErrs, "email is required")
	}
	if password == "" {
		fieldErrs = append(fieldErrs, "password is required")
	}
	if len(fieldErrs) > 0 {
		s.render(w, r, "index.html", map[string]any{
			"Title":  "Inkwell",
			"Errors": fieldErrs,
			"Email":  email,
		})
		return
	}

	ex := s.relay.Bind(w, r)
	var result loginResult
	if err := ex.Post("/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &result); err != nil {
		s.log.Info("Login rejected", "email", email, "reason", err.Error())
		s.render(w, r, "index.html", map[string]any{
			"Title": "Inkwell",
			"Flash": flash.Message{Text: relayErrorMessage(err), Kind: flash.KindError},
			"Email": email,
		})
		return
	}

	if _, err := s.identity.Issue(w, result.ID, result.UserName, result.Email, result.Role); err != nil {
		s.log.Error(err, "Issue identity cookie")
		s.render(w, r, "index.html", map[string]any{
			"Title": "Inkwell",
			"Flash": flash.Message{Text: "sign-in failed, try again", Kind: flash.KindError},
			"Email": email,
		})
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "register.html", map[string]any{
		"Title": "Register",
		"Form":  map[string]string{},
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	form := map[string]string{
		"userName":   strings.TrimSpace(r.FormValue("userName")),
		"email":      strings.TrimSpace(r.FormValue("email")),
		"password":   r.FormValue("password"),
		"firstName":  strings.TrimSpace(r.FormValue("firstName")),
		"lastName":   strings.TrimSpace(r.FormValue("lastName")),
		"fatherName": strings.TrimSpace(r.FormValue("fatherName")),
		"birthDate":  strings.TrimSpace(r.FormValue("birthDate")),
	}

	var fieldErrs []string
	if form["userName"] == "" {
		fieldErrs = append(fieldErrs, "user name is required")
	}
	if form["email"] == "" {
		fieldErrs = append(fieldErrs, "email is required")
	}
	if form["password"] == "" {
		fieldErrs = append(fieldErrs, "password is required")
	}
	if len(fieldErrs) > 0 {
		s.render(w, r, "register.html", map[string]any{
			"Title":  "Register",
			"Errors": fieldErrs,
			"Form":   form,
		})
		return
	}

	ex := s.relay.Bind(w, r)
	if err := ex.Post("/api/v1/users", form, nil); err != nil {
		s.render(w, r, "register.html", map[string]any{
			"Title": "Register",
			"Flash": flash.Message{Text: relayErrorMessage(err), Kind: flash.KindError},
			"Form":  form,
		})
		return
	}

	s.flashAndRedirect(w, r, "account created, you can sign in now", flash.KindSuccess, "/")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Best effort: a dead API must not keep the visitor signed in locally.
	ex := s.relay.Bind(w, r)
	if err := ex.Post("/api/v1/auth/logout", nil, nil); err != nil {
		s.log.Info("Upstream logout failed", "reason", err.Error())
		flash.Set(w, "signed out locally; the service could not be reached", flash.KindInfo)
	}

	s.identity.Clear(w)
	for _, name := range logoutCookieNames {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
		})
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
