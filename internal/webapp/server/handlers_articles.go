package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/inkwell-web/inkwell/internal/webapp/flash"
)

const articlesPerPage = 10

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	ex := s.relay.Bind(w, r)

	search := strings.TrimSpace(r.URL.Query().Get("q"))
	page := pageParam(r)

	var articles []apiArticle
	var err error
	if search != "" {
		err = ex.Get("/api/v1/articles?title="+url.QueryEscape(search), &articles)
	} else {
		start := (page - 1) * articlesPerPage
		err = ex.Get(fmt.Sprintf("/api/v1/articles/latest?start=%d&count=%d", start, articlesPerPage), &articles)
	}
	if err != nil {
		s.flashAndRedirect(w, r, relayErrorMessage(err), flash.KindError, "/")
		return
	}

	s.render(w, r, "articles.html", map[string]any{
		"Title":    "Articles",
		"Articles": articles,
		"Search":   search,
		"Page":     page,
		"PrevPage": page - 1,
		"NextPage": page + 1,
		"HasPrev":  search == "" && page > 1,
		"HasNext":  search == "" && len(articles) == articlesPerPage,
	})
}

func (s *Server) handleArticleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ex := s.relay.Bind(w, r)

	var article apiArticle
	if err := ex.Get("/api/v1/articles/"+url.PathEscape(id), &article); err != nil {
		s.flashAndRedirect(w, r, relayErrorMessage(err), flash.KindError, "/articles")
		return
	}

	var comments []apiComment
	if err := ex.Get("/api/v1/comments?article="+url.QueryEscape(id), &comments); err != nil {
		s.log.Info("Comments unavailable", "article", id, "reason", err.Error())
	}

	// Elevated roles moderate anything; authors keep control of their own
	// articles.
	p := principalFromContext(r.Context())
	s.render(w, r, "article-detail.html", map[string]any{
		"Title":      article.Title,
		"Article":    article,
		"Comments":   comments,
		"CanEdit":    p != nil && (p.IsElevated() || (p.ID != "" && p.ID == article.AuthorID)),
		"WasUpdated": article.UpdatedAt.After(article.CreatedAt),
	})
}

func (s *Server) handleArticleCreate(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.FormValue("title"))
	content := strings.TrimSpace(r.FormValue("content"))
	if title == "" || content == "" {
		s.flashAndRedirect(w, r, "title and content are required", flash.KindError, "/articles")
		return
	}

	ex := s.relay.Bind(w, r)
	var created apiArticle
	if err := ex.Post("/api/v1/articles", map[string]string{
		"title":   title,
		"content": content,
	}, &created); err != nil {
		s.flashAndRedirect(w, r, relayErrorMessage(err), flash.KindError, "/articles")
		return
	}

	s.flashAndRedirect(w, r, "article published", flash.KindSuccess,
		fmt.Sprintf("/articles/%d", created.ID))
}

func (s *Server) handleArticleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	title := strings.TrimSpace(r.FormValue("title"))
	content := strings.TrimSpace(r.FormValue("content"))
	if title == "" || content == "" {
		s.flashAndRedirect(w, r, "title and content are required", flash.KindError, "/articles/"+url.PathEscape(id))
		return
	}

	ex := s.relay.Bind(w, r)
	if err := ex.Put("/api/v1/articles/"+url.PathEscape(id), map[string]string{
		"title":   title,
		"content": content,
	}, nil); err != nil {
		s.flashAndRedirect(w, r, relayErrorMessage(err), flash.KindError, "/articles/"+url.PathEscape(id))
		return
	}

	s.flashAndRedirect(w, r, "article updated", flash.KindSuccess, "/articles/"+url.PathEscape(id))
}

func (s *Server) handleArticleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	ex := s.relay.Bind(w, r)
	if _, err := ex.Delete("/api/v1/articles/" + url.PathEscape(id)); err != nil {
		s.flashAndRedirect(w, r, relayErrorMessage(err), flash.KindError, "/articles/"+url.PathEscape(id))
		return
	}

	s.flashAndRedirect(w, r, "article deleted", flash.KindSuccess, "/articles")
}

func (s *Server) handleCommentAdd(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	back := "/articles/" + url.PathEscape(id)

	message := strings.TrimSpace(r.FormValue("message"))
	if message == "" {
		s.flashAndRedirect(w, r, "comment message is required", flash.KindError, back)
		return
	}

	articleID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		s.flashAndRedirect(w, r, "invalid article", flash.KindError, "/articles")
		return
	}

	ex := s.relay.Bind(w, r)
	if err := ex.Post("/api/v1/comments", map[string]any{
		"articleId": articleID,
		"message":   message,
	}, nil); err != nil {
		s.flashAndRedirect(w, r, relayErrorMessage(err), flash.KindError, back)
		return
	}

	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (s *Server) handleCommentDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	back := "/articles"
	if articleID := strings.TrimSpace(r.FormValue("articleId")); articleID != "" {
		back = "/articles/" + url.PathEscape(articleID)
	}

	ex := s.relay.Bind(w, r)
	if _, err := ex.Delete("/api/v1/comments/" + url.PathEscape(id)); err != nil {
		s.flashAndRedirect(w, r, relayErrorMessage(err), flash.KindError, back)
		return
	}

	http.Redirect(w, r, back, http.StatusSeeOther)
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
