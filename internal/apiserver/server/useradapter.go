package server

import (
	"github.com/inkwell-web/inkwell/internal/apiserver/auth"
	"github.com/inkwell-web/inkwell/internal/apiserver/session"
	"github.com/inkwell-web/inkwell/internal/apiserver/users"
)

// sessionUserValidator resolves a session token to the account behind it,
// bridging the session store into the auth middleware.
type sessionUserValidator struct {
	sessions *session.Store
	users    *users.Store
}

func (v *sessionUserValidator) Validate(token string) (*auth.AuthenticatedUser, error) {
	sess, err := v.sessions.Validate(token)
	if err != nil {
		return nil, err
	}

	u, err := v.users.Get(sess.UserID)
	if err != nil {
		return nil, err
	}
	if !u.Enabled {
		return nil, users.ErrDisabled
	}

	return &auth.AuthenticatedUser{
		ID:       u.ID,
		UserName: u.UserName,
		Email:    u.Email,
		Role:     u.Role,
	}, nil
}
