package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/inkwell-web/inkwell/internal/apiserver/auth"
	"github.com/inkwell-web/inkwell/internal/apiserver/users"
)

type registerRequest struct {
	UserName   string `json:"userName"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	FatherName string `json:"fatherName"`
	BirthDate  string `json:"birthDate"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.userSvc.List())
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res := s.userSvc.Register(users.NewUser{
		UserName:   req.UserName,
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		FatherName: req.FatherName,
		BirthDate:  req.BirthDate,
	})
	if res.Success {
		w.Header().Set("Location", "/api/v1/users/"+res.Data.ID)
	}
	writeResult(w, res)
}

// handleBootstrapAdmin creates the initial administrator with a generated
// password. The password appears in this response only.
func (s *Server) handleBootstrapAdmin(w http.ResponseWriter, r *http.Request) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	password := hex.EncodeToString(raw)

	res := s.userSvc.BootstrapAdmin(password)
	if !res.Success {
		writeJSONError(w, res.StatusCode, res.Errors...)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"id":       res.Data.ID,
		"email":    res.Data.Email,
		"password": password,
	})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.userSvc.Get(r.PathValue("id")))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var upd users.FieldUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}

	caller := auth.UserFromContext(r.Context())
	writeResult(w, s.userSvc.Update(caller, r.PathValue("id"), upd))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	writeResult(w, s.userSvc.Delete(caller, r.PathValue("id")))
}

func (s *Server) handleUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role string `json:"role"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	caller := auth.UserFromContext(r.Context())
	writeResult(w, s.userSvc.UpdateRole(caller, r.PathValue("id"), req.Role))
}
