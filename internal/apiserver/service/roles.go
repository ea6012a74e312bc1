package service

import (
	"errors"

	"github.com/inkwell-web/inkwell/internal/apiserver/auth"
	"github.com/inkwell-web/inkwell/internal/apiserver/roles"
)

// Roles implements role catalog operations, administrators only.
type Roles struct {
	store *roles.Store
}

// NewRoles builds the roles service.
func NewRoles(store *roles.Store) *Roles {
	return &Roles{store: store}
}

// Create adds a custom role.
func (s *Roles) Create(caller *auth.AuthenticatedUser, name string) Result[*roles.Role] {
	if !auth.IsAdmin(caller) {
		return Forbidden[*roles.Role]("administrator role required")
	}

	r, err := s.store.Create(name)
	if err != nil {
		if errors.Is(err, roles.ErrNameTaken) {
			return Invalid[*roles.Role]("role name already exists")
		}
		return Invalid[*roles.Role](err.Error())
	}
	return Created(r)
}

// Get fetches one role.
func (s *Roles) Get(caller *auth.AuthenticatedUser, id string) Result[*roles.Role] {
	if !auth.IsAdmin(caller) {
		return Forbidden[*roles.Role]("administrator role required")
	}

	r, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, roles.ErrNotFound) {
			return NotFound[*roles.Role]("role not found")
		}
		return Internal[*roles.Role]()
	}
	return OK(r)
}

// GetByName fetches a role by name.
func (s *Roles) GetByName(caller *auth.AuthenticatedUser, name string) Result[*roles.Role] {
	if !auth.IsAdmin(caller) {
		return Forbidden[*roles.Role]("administrator role required")
	}

	r, err := s.store.GetByName(name)
	if err != nil {
		if errors.Is(err, roles.ErrNotFound) {
			return NotFound[*roles.Role]("role not found")
		}
		return Internal[*roles.Role]()
	}
	return OK(r)
}

// List returns all roles.
func (s *Roles) List(caller *auth.AuthenticatedUser) Result[[]roles.Role] {
	if !auth.IsAdmin(caller) {
		return Forbidden[[]roles.Role]("administrator role required")
	}

	list, err := s.store.List()
	if err != nil {
		return Internal[[]roles.Role]()
	}
	return OK(list)
}

// Rename changes a custom role's name. Built-in roles are rejected.
func (s *Roles) Rename(caller *auth.AuthenticatedUser, id, name string) Result[*roles.Role] {
	if !auth.IsAdmin(caller) {
		return Forbidden[*roles.Role]("administrator role required")
	}

	r, err := s.store.Rename(id, name)
	if err != nil {
		switch {
		case errors.Is(err, roles.ErrNotFound):
			return NotFound[*roles.Role]("role not found")
		case errors.Is(err, roles.ErrBuiltIn):
			return Invalid[*roles.Role]("built-in role cannot be renamed")
		case errors.Is(err, roles.ErrNameTaken):
			return Invalid[*roles.Role]("role name already exists")
		default:
			return Invalid[*roles.Role](err.Error())
		}
	}
	return OK(r)
}

// Delete removes a custom role. Built-in roles are rejected.
func (s *Roles) Delete(caller *auth.AuthenticatedUser, id string) Result[struct{}] {
	if !auth.IsAdmin(caller) {
		return Forbidden[struct{}]("administrator role required")
	}

	if err := s.store.Delete(id); err != nil {
		switch {
		case errors.Is(err, roles.ErrNotFound):
			return NotFound[struct{}]("role not found")
		case errors.Is(err, roles.ErrBuiltIn):
			return Invalid[struct{}]("built-in role cannot be deleted")
		default:
			return Internal[struct{}]()
		}
	}
	return NoContent[struct{}]()
}
