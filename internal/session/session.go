// Package session defines the authenticated-user value threaded through the
// lifecycle engine. Operations receive it explicitly instead of reading a
// process-wide singleton, which keeps the engine testable without a login.
package session

import "medisync/internal/models"

// Session identifies the acting user for a lifecycle operation.
type Session struct {
	UserID int64
	Name   string
	Role   models.Role
}

// Valid reports whether the session carries an authenticated user.
func (s Session) Valid() bool {
	return s.UserID != 0
}

// Is reports whether the session's user holds the given role.
func (s Session) Is(role models.Role) bool {
	return s.Role == role
}
