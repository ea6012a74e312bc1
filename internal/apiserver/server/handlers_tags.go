package server

import (
	"net/http"

	"github.com/inkwell-web/inkwell/internal/apiserver/auth"
)

type tagRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	caller := auth.UserFromContext(r.Context())
	writeResult(w, s.tagSvc.Create(caller, req.Name))
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.tagSvc.GetAll())
}

func (s *Server) handleTagByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "name query parameter is required")
		return
	}
	writeResult(w, s.tagSvc.FindByName(name))
}

func (s *Server) handleGetTag(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.tagSvc.Get(r.PathValue("id")))
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	caller := auth.UserFromContext(r.Context())
	writeResult(w, s.tagSvc.Update(caller, r.PathValue("id"), req.Name))
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	writeResult(w, s.tagSvc.Delete(caller, r.PathValue("id")))
}
