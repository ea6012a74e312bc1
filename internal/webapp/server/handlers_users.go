package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/inkwell-web/inkwell/internal/webapp/flash"
)

const usersPerPage = 10

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	ex := s.relay.Bind(w, r)

	var all []apiUser
	if err := ex.Get("/api/v1/users", &all); err != nil {
		s.flashAndRedirect(w, r, relayErrorMessage(err), flash.KindError, "/")
		return
	}

	page := pageParam(r)
	start := (page - 1) * usersPerPage
	if start > len(all) {
		start = len(all)
	}
	end := start + usersPerPage
	if end > len(all) {
		end = len(all)
	}

	s.render(w, r, "users.html", map[string]any{
		"Title":    "Users",
		"Users":    all[start:end],
		"Total":    len(all),
		"Page":     page,
		"PrevPage": page - 1,
		"NextPage": page + 1,
		"HasPrev":  page > 1,
		"HasNext":  end < len(all),
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	ex := s.relay.Bind(w, r)

	var me apiUser
	if err := ex.Get("/api/v1/users/me", &me); err != nil {
		s.flashAndRedirect(w, r, relayErrorMessage(err), flash.KindError, "/")
		return
	}

	s.render(w, r, "profile.html", map[string]any{
		"Title": "Profile",
		"User":  me,
	})
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	ex := s.relay.Bind(w, r)

	var me apiUser
	if err := ex.Get("/api/v1/users/me", &me); err != nil {
		s.flashAndRedirect(w, r, relayErrorMessage(err), flash.KindError, "/")
		return
	}

	update := userFieldUpdate{}
	if v := strings.TrimSpace(r.FormValue("userName")); v != "" && v != me.UserName {
		update.UserName = &v
	}
	if v := strings.TrimSpace(r.FormValue("firstName")); v != me.FirstName {
		update.FirstName = &v
	}
	if v := strings.TrimSpace(r.FormValue("lastName")); v != me.LastName {
		update.LastName = &v
	}
	if v := strings.TrimSpace(r.FormValue("fatherName")); v != me.FatherName {
		update.FatherName = &v
	}
	if v := strings.TrimSpace(r.FormValue("birthDate")); v != me.BirthDate {
		update.BirthDate = &v
	}

	if update == (userFieldUpdate{}) {
		s.flashAndRedirect(w, r, "nothing to update", flash.KindInfo, "/profile")
		return
	}

	if err := ex.Put("/api/v1/users/"+url.PathEscape(me.ID), update, nil); err != nil {
		s.flashAndRedirect(w, r, relayErrorMessage(err), flash.KindError, "/profile")
		return
	}

	// The identity cookie carries the user name; refresh it so the header
	// shows the new name right away.
	p := principalFromContext(r.Context())
	if update.UserName != nil && p != nil {
		if _, err := s.identity.Issue(w, p.ID, *update.UserName, p.Email, p.Role); err != nil {
			s.log.Error(err, "Refresh identity cookie")
		}
	}

	s.flashAndRedirect(w, r, "profile updated", flash.KindSuccess, "/profile")
}
