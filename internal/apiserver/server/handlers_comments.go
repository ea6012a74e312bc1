package server

import (
	"net/http"
	"strconv"

	"github.com/inkwell-web/inkwell/internal/apiserver/auth"
)

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ArticleID int64  `json:"articleId"`
		Message   string `json:"message"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	caller := auth.UserFromContext(r.Context())
	writeResult(w, s.commentSvc.Add(caller, req.ArticleID, req.Message))
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	articleID, err := strconv.ParseInt(r.URL.Query().Get("article"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "article query parameter is required")
		return
	}
	count, _ := strconv.Atoi(r.URL.Query().Get("count"))

	writeResult(w, s.commentSvc.ListByArticle(articleID, count))
}

func (s *Server) handleGetComment(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.commentSvc.Get(r.PathValue("id")))
}

func (s *Server) handleEditComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	caller := auth.UserFromContext(r.Context())
	writeResult(w, s.commentSvc.Edit(caller, r.PathValue("id"), req.Message))
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	caller := auth.UserFromContext(r.Context())
	writeResult(w, s.commentSvc.Delete(caller, r.PathValue("id")))
}
