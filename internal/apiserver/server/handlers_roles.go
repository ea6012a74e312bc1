package server

import (
	"net/http"

	"github.com/inkwell-web/inkwell/internal/apiserver/auth"
)

type roleRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListRoles(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	writeResult(w, s.roleSvc.List(caller))
}

func (s *Server) handleGetRole(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	writeResult(w, s.roleSvc.Get(caller, r.PathValue("id")))
}

func (s *Server) handleRoleByName(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	writeResult(w, s.roleSvc.GetByName(caller, r.PathValue("name")))
}

func (s *Server) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	caller := auth.UserFromContext(r.Context())
	writeResult(w, s.roleSvc.Create(caller, req.Name))
}

func (s *Server) handleRenameRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	caller := auth.UserFromContext(r.Context())
	writeResult(w, s.roleSvc.Rename(caller, r.PathValue("id"), req.Name))
}

func (s *Server) handleDeleteRole(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	writeResult(w, s.roleSvc.Delete(caller, r.PathValue("id")))
}
