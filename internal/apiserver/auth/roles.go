package auth

import "github.com/inkwell-web/inkwell/internal/apiserver/users"

// IsAdmin reports whether the caller holds the Administrator role.
func IsAdmin(user *AuthenticatedUser) bool {
	return user != nil && user.Role == users.RoleAdministrator
}

// IsElevated reports whether the caller may act on content they do not own.
func IsElevated(user *AuthenticatedUser) bool {
	if user == nil {
		return false
	}
	return user.Role == users.RoleAdministrator || user.Role == users.RoleModerator
}

// CanModify reports whether the caller may edit or delete a resource owned
// by ownerID.
func CanModify(user *AuthenticatedUser, ownerID string) bool {
	if user == nil {
		return false
	}
	return user.ID == ownerID || IsElevated(user)
}
