package service

import (
	"errors"

	"github.com/inkwell-web/inkwell/internal/apiserver/articles"
	"github.com/inkwell-web/inkwell/internal/apiserver/auth"
	"github.com/inkwell-web/inkwell/internal/apiserver/comments"
	"github.com/inkwell-web/inkwell/internal/apiserver/users"
)

// Comments implements comment operations. Authors edit their own comments;
// elevated roles may edit any, but only the owner or an Administrator may
// delete.
type Comments struct {
	store    *comments.Store
	articles *articles.Store
}

// NewComments builds the comments service. articles may be nil; when set,
// Add verifies the target article exists.
func NewComments(store *comments.Store, articles *articles.Store) *Comments {
	return &Comments{store: store, articles: articles}
}

// Add stores a new comment authored by the caller.
func (s *Comments) Add(caller *auth.AuthenticatedUser, articleID int64, message string) Result[*comments.Comment] {
	if caller == nil {
		return Unauthorized[*comments.Comment]("authentication required")
	}

	if s.articles != nil {
		if _, err := s.articles.FindByID(articleID); err != nil {
			if errors.Is(err, articles.ErrNotFound) {
				return NotFound[*comments.Comment]("article not found")
			}
			return Internal[*comments.Comment]()
		}
	}

	c, err := s.store.Add(articleID, message, caller.ID)
	if err != nil {
		return Invalid[*comments.Comment](err.Error())
	}
	return Created(c)
}

// Get fetches one comment.
func (s *Comments) Get(id string) Result[*comments.Comment] {
	c, err := s.store.GetByID(id)
	if err != nil {
		if errors.Is(err, comments.ErrNotFound) {
			return NotFound[*comments.Comment]("comment not found")
		}
		return Internal[*comments.Comment]()
	}
	return OK(c)
}

// ListByArticle returns up to count comments on an article.
func (s *Comments) ListByArticle(articleID int64, count int) Result[[]comments.Comment] {
	list, err := s.store.ListByArticle(articleID, count)
	if err != nil {
		return Internal[[]comments.Comment]()
	}
	return OK(list)
}

// Edit replaces a comment's message, owner or elevated role only.
func (s *Comments) Edit(caller *auth.AuthenticatedUser, id, message string) Result[*comments.Comment] {
	c, err := s.store.GetByID(id)
	if err != nil {
		if errors.Is(err, comments.ErrNotFound) {
			return NotFound[*comments.Comment]("comment not found")
		}
		return Internal[*comments.Comment]()
	}
	if !auth.CanModify(caller, c.AuthorID) {
		return Forbidden[*comments.Comment]("not the comment author")
	}

	edited, err := s.store.Edit(id, message)
	if err != nil {
		return Invalid[*comments.Comment](err.Error())
	}
	return OK(edited)
}

// Delete removes a comment. Moderators may edit but not delete foreign
// comments; deletion is owner or Administrator.
func (s *Comments) Delete(caller *auth.AuthenticatedUser, id string) Result[struct{}] {
	c, err := s.store.GetByID(id)
	if err != nil {
		if errors.Is(err, comments.ErrNotFound) {
			return NotFound[struct{}]("comment not found")
		}
		return Internal[struct{}]()
	}
	if caller == nil || (caller.ID != c.AuthorID && caller.Role != users.RoleAdministrator) {
		return Forbidden[struct{}]("not the comment author")
	}

	if err := s.store.Delete(id); err != nil {
		return Internal[struct{}]()
	}
	return NoContent[struct{}]()
}
