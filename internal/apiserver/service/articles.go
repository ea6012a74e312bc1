package service

import (
	"errors"

	"github.com/inkwell-web/inkwell/internal/apiserver/articles"
	"github.com/inkwell-web/inkwell/internal/apiserver/auth"
	"github.com/inkwell-web/inkwell/internal/apiserver/comments"
)

// Articles implements article operations with ownership rules: authors edit
// their own articles, Administrator and Moderator edit anything.
type Articles struct {
	store    *articles.Store
	comments *comments.Store
}

// NewArticles builds the articles service. comments may be nil; when set,
// deleting an article also drops its comments.
func NewArticles(store *articles.Store, comments *comments.Store) *Articles {
	return &Articles{store: store, comments: comments}
}

// Create stores a new article authored by the caller.
func (s *Articles) Create(caller *auth.AuthenticatedUser, title, content string) Result[*articles.Article] {
	if caller == nil {
		return Unauthorized[*articles.Article]("authentication required")
	}

	a, err := s.store.Create(title, content, caller.ID)
	if err != nil {
		return Invalid[*articles.Article](err.Error())
	}
	return Created(a)
}

// Get fetches one article.
func (s *Articles) Get(id int64) Result[*articles.Article] {
	a, err := s.store.FindByID(id)
	if err != nil {
		if errors.Is(err, articles.ErrNotFound) {
			return NotFound[*articles.Article]("article not found")
		}
		return Internal[*articles.Article]()
	}
	return OK(a)
}

// FindByTitle returns articles matching a title fragment, possibly empty.
func (s *Articles) FindByTitle(fragment string) Result[[]articles.Article] {
	list, err := s.store.FindByTitle(fragment)
	if err != nil {
		return Internal[[]articles.Article]()
	}
	return OK(list)
}

// Latest returns a page of the newest articles.
func (s *Articles) Latest(start, count int) Result[[]articles.Article] {
	list, err := s.store.Latest(start, count)
	if err != nil {
		return Internal[[]articles.Article]()
	}
	return OK(list)
}

// ByAuthor returns an author's articles.
func (s *Articles) ByAuthor(authorID string) Result[[]articles.Article] {
	list, err := s.store.ByAuthor(authorID)
	if err != nil {
		return Internal[[]articles.Article]()
	}
	return OK(list)
}

// Update edits an article, owner or elevated role only.
func (s *Articles) Update(caller *auth.AuthenticatedUser, id int64, title, content string) Result[*articles.Article] {
	a, err := s.store.FindByID(id)
	if err != nil {
		if errors.Is(err, articles.ErrNotFound) {
			return NotFound[*articles.Article]("article not found")
		}
		return Internal[*articles.Article]()
	}
	if !auth.CanModify(caller, a.AuthorID) {
		return Forbidden[*articles.Article]("not the article author")
	}

	updated, err := s.store.Update(id, title, content)
	if err != nil {
		return Invalid[*articles.Article](err.Error())
	}
	return OK(updated)
}

// Delete removes an article and its comments, owner or elevated role only.
func (s *Articles) Delete(caller *auth.AuthenticatedUser, id int64) Result[struct{}] {
	a, err := s.store.FindByID(id)
	if err != nil {
		if errors.Is(err, articles.ErrNotFound) {
			return NotFound[struct{}]("article not found")
		}
		return Internal[struct{}]()
	}
	if !auth.CanModify(caller, a.AuthorID) {
		return Forbidden[struct{}]("not the article author")
	}

	if err := s.store.Delete(id); err != nil {
		return Internal[struct{}]()
	}
	if s.comments != nil {
		_ = s.comments.DeleteByArticle(id)
	}
	return NoContent[struct{}]()
}
