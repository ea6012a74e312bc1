package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-web/inkwell/internal/apiserver/auth"
	"github.com/inkwell-web/inkwell/internal/apiserver/users"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.loginLimiter.Allow(auth.ClientKey(r)) {
		w.Header().Set("Retry-After", "60")
		writeJSONError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var fieldErrs []string
	if strings.TrimSpace(req.Email) == "" {
		fieldErrs = append(fieldErrs, "email is required")
	}
	if req.Password == "" {
		fieldErrs = append(fieldErrs, "password is required")
	}
	if len(fieldErrs) > 0 {
		writeJSONError(w, http.StatusBadRequest, fieldErrs...)
		return
	}

	u, err := s.userStore.Authenticate(req.Email, req.Password)
	if err != nil {
		s.collector.ObserveLogin(false)
		if errors.Is(err, users.ErrDisabled) {
			writeJSONError(w, http.StatusUnauthorized, "account is locked out")
			return
		}
		writeJSONError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	sess, err := s.sessionStore.Create(u.ID)
	if err != nil {
		s.logger.Error("create session", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.collector.ObserveLogin(true)
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		Expires:  sess.ExpiresAt,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(loginResponse{
		ID:       u.ID,
		UserName: u.UserName,
		Email:    u.Email,
		Role:     u.Role,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil && cookie.Value != "" {
		if err := s.sessionStore.Delete(cookie.Value); err != nil {
			s.logger.Warn("delete session", zap.Error(err))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"userName": user.UserName,
		"email":    user.Email,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeJSONError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	writeResult(w, s.userSvc.Get(user.ID))
}
