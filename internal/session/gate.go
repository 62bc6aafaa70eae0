// Package session holds the signed-in user, the client-side role gate and the
// per-session state (cart snapshot, pending operations).
package session

import (
	"errors"
	"fmt"

	"storefront/internal/domain"
)

// Action is an operation that is authorized before any network call.
type Action string

const (
	ActionReadCart         Action = "read-cart"
	ActionMutateCart       Action = "mutate-cart"
	ActionAdminWrite       Action = "admin-write"
	ActionAdminDelete      Action = "admin-delete"
	ActionAdminReadProfile Action = "admin-read-profile"
	ActionAdminRead        Action = "admin-read"
)

var (
	ErrUnauthenticated = errors.New("you must be logged in")
	ErrUnauthorized    = errors.New("not authorized")
)

// Authorize checks u against a. It returns ErrUnauthenticated when there is no
// user and ErrUnauthorized when the role is insufficient. The gate only saves
// round trips; the service enforces authorization on its own.
func Authorize(u *domain.User, a Action) error {
	if u == nil {
		return ErrUnauthenticated
	}
	switch a {
	case ActionReadCart, ActionMutateCart:
		return nil
	case ActionAdminWrite, ActionAdminDelete, ActionAdminReadProfile, ActionAdminRead:
		if domain.RoleOf(u) != domain.RoleAdmin {
			return ErrUnauthorized
		}
		return nil
	}
	return fmt.Errorf("%w: unknown action %q", ErrUnauthorized, a)
}

// Allowed is the boolean form of Authorize.
func Allowed(u *domain.User, a Action) bool {
	return Authorize(u, a) == nil
}
