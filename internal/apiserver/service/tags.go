package service

import (
	"errors"

	"github.com/inkwell-web/inkwell/internal/apiserver/auth"
	"github.com/inkwell-web/inkwell/internal/apiserver/tags"
)

// Tags implements tag catalog operations. Any authenticated user may read;
// writes require an elevated role.
type Tags struct {
	store *tags.Store
}

// NewTags builds the tags service.
func NewTags(store *tags.Store) *Tags {
	return &Tags{store: store}
}

// Create adds a tag, elevated roles only.
func (s *Tags) Create(caller *auth.AuthenticatedUser, name string) Result[*tags.Tag] {
	if !auth.IsElevated(caller) {
		return Forbidden[*tags.Tag]("moderator role required")
	}

	t, err := s.store.Create(name)
	if err != nil {
		if errors.Is(err, tags.ErrNameTaken) {
			return Invalid[*tags.Tag]("tag name already exists")
		}
		return Invalid[*tags.Tag](err.Error())
	}
	return Created(t)
}

// Get fetches one tag.
func (s *Tags) Get(id string) Result[*tags.Tag] {
	t, err := s.store.GetByID(id)
	if err != nil {
		if errors.Is(err, tags.ErrNotFound) {
			return NotFound[*tags.Tag]("tag not found")
		}
		return Internal[*tags.Tag]()
	}
	return OK(t)
}

// FindByName fetches a tag by its exact name.
func (s *Tags) FindByName(name string) Result[*tags.Tag] {
	t, err := s.store.FindByName(name)
	if err != nil {
		if errors.Is(err, tags.ErrNotFound) {
			return NotFound[*tags.Tag]("tag not found")
		}
		return Internal[*tags.Tag]()
	}
	return OK(t)
}

// GetAll returns every tag.
func (s *Tags) GetAll() Result[[]tags.Tag] {
	list, err := s.store.GetAll()
	if err != nil {
		return Internal[[]tags.Tag]()
	}
	return OK(list)
}

// Update renames a tag, elevated roles only.
func (s *Tags) Update(caller *auth.AuthenticatedUser, id, name string) Result[*tags.Tag] {
	if !auth.IsElevated(caller) {
		return Forbidden[*tags.Tag]("moderator role required")
	}

	t, err := s.store.Update(id, name)
	if err != nil {
		switch {
		case errors.Is(err, tags.ErrNotFound):
			return NotFound[*tags.Tag]("tag not found")
		case errors.Is(err, tags.ErrNameTaken):
			return Invalid[*tags.Tag]("tag name already exists")
		default:
			return Invalid[*tags.Tag](err.Error())
		}
	}
	return OK(t)
}

// Delete removes a tag, elevated roles only.
func (s *Tags) Delete(caller *auth.AuthenticatedUser, id string) Result[struct{}] {
	if !auth.IsElevated(caller) {
		return Forbidden[struct{}]("moderator role required")
	}

	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, tags.ErrNotFound) {
			return NotFound[struct{}]("tag not found")
		}
		return Internal[struct{}]()
	}
	return NoContent[struct{}]()
}
