package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/inkwell-web/inkwell/internal/apiserver/auth"
	"github.com/inkwell-web/inkwell/internal/apiserver/users"
)

// AdminEmail is the bootstrap administrator account.
const AdminEmail = "admin@example.com"

// SessionRevoker invalidates all sessions for a user, used when the account
// is deleted or its role changes.
type SessionRevoker interface {
	DeleteByUser(userID string) error
}

// Users implements user account operations over the users store.
type Users struct {
	store    *users.Store
	sessions SessionRevoker
}

// NewUsers builds the users service. sessions may be nil in tests.
func NewUsers(store *users.Store, sessions SessionRevoker) *Users {
	return &Users{store: store, sessions: sessions}
}

// Register creates a regular account.
func (s *Users) Register(nu users.NewUser) Result[*users.User] {
	u, err := s.store.Create(nu)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrEmailTaken):
			return Invalid[*users.User]("email already registered")
		case errors.Is(err, users.ErrInvalidRole):
			return Internal[*users.User]()
		default:
			return Invalid[*users.User](err.Error())
		}
	}
	return Created(u)
}

// BootstrapAdmin creates the initial administrator if no admin exists yet.
// The generated password is returned exactly once; repeat calls are rejected.
func (s *Users) BootstrapAdmin(password string) Result[*users.User] {
	list, err := s.store.List()
	if err != nil {
		return Internal[*users.User]()
	}
	for _, u := range list {
		if u.Role == users.RoleAdministrator {
			return Fail[*users.User](http.StatusConflict, "administrator already exists")
		}
	}

	u, err := s.store.CreateWithRole(users.NewUser{
		UserName: "admin",
		Email:    AdminEmail,
		Password: password,
	}, users.RoleAdministrator)
	if err != nil {
		return Invalid[*users.User](err.Error())
	}
	return Created(u)
}

// Get fetches one account.
func (s *Users) Get(id string) Result[*users.User] {
	u, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return NotFound[*users.User]("user not found")
		}
		return Internal[*users.User]()
	}
	return OK(u)
}

// List returns all accounts.
func (s *Users) List() Result[[]users.User] {
	list, err := s.store.List()
	if err != nil {
		return Internal[[]users.User]()
	}
	return OK(list)
}

// Update applies a partial profile update. Owners may edit themselves;
// administrators may edit anyone.
func (s *Users) Update(caller *auth.AuthenticatedUser, id string, upd users.FieldUpdate) Result[*users.User] {
	if caller == nil {
		return Unauthorized[*users.User]("authentication required")
	}
	if caller.ID != id && !auth.IsAdmin(caller) {
		return Forbidden[*users.User]("cannot edit another user's profile")
	}

	u, err := s.store.UpdateFields(id, upd)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return NotFound[*users.User]("user not found")
		}
		return Invalid[*users.User](err.Error())
	}
	return OK(u)
}

// UpdateRole changes an account's role, administrators only. Existing
// sessions for the account are revoked so the new role takes effect.
func (s *Users) UpdateRole(caller *auth.AuthenticatedUser, id, role string) Result[*users.User] {
	if !auth.IsAdmin(caller) {
		return Forbidden[*users.User]("administrator role required")
	}

	if err := s.store.UpdateRole(id, role); err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			return NotFound[*users.User]("user not found")
		case errors.Is(err, users.ErrInvalidRole):
			return Invalid[*users.User](fmt.Sprintf("unknown role %q", role))
		default:
			return Internal[*users.User]()
		}
	}

	if s.sessions != nil {
		_ = s.sessions.DeleteByUser(id)
	}
	return s.Get(id)
}

// Delete removes an account and revokes its sessions, administrators only.
func (s *Users) Delete(caller *auth.AuthenticatedUser, id string) Result[struct{}] {
	if !auth.IsAdmin(caller) {
		return Forbidden[struct{}]("administrator role required")
	}

	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return NotFound[struct{}]("user not found")
		}
		return Internal[struct{}]()
	}

	if s.sessions != nil {
		_ = s.sessions.DeleteByUser(id)
	}
	return NoContent[struct{}]()
}
