package server

import (
	"net/http"
	"strconv"

	"github.com/inkwell-web/inkwell/internal/apiserver/auth"
)

type articleRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func articleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid article id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	caller := auth.UserFromContext(r.Context())
	writeResult(w, s.articleSvc.Create(caller, req.Title, req.Content))
}

func (s *Server) handleSearchArticles(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.articleSvc.FindByTitle(r.URL.Query().Get("title")))
}

func (s *Server) handleLatestArticles(w http.ResponseWriter, r *http.Request) {
	start, _ := strconv.Atoi(r.URL.Query().Get("start"))
	count, _ := strconv.Atoi(r.URL.Query().Get("count"))
	writeResult(w, s.articleSvc.Latest(start, count))
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}
	writeResult(w, s.articleSvc.Get(id))
}

func (s *Server) handleArticlesByAuthor(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.articleSvc.ByAuthor(r.PathValue("authorId")))
}

func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}

	var req articleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	caller := auth.UserFromContext(r.Context())
	writeResult(w, s.articleSvc.Update(caller, id, req.Title, req.Content))
}

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := articleID(w, r)
	if !ok {
		return
	}

	caller := auth.UserFromContext(r.Context())
	writeResult(w, s.articleSvc.Delete(caller, id))
}
