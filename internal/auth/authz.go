package auth

import (
	"github.com/coursebank/courseapi/internal/domain/course"
	"github.com/coursebank/courseapi/internal/domain/user"
)

type Decision int

const (
	Deny Decision = iota
	Allow
)

// Authorize decides whether the principal may mutate the course. Ownership is
// the only authorization relation in the system: no roles, no admin override.
// Pure function; must run before any write, never after.
func Authorize(principal user.User, c course.Course) Decision {
	if c.OwnerID == principal.ID {
		return Allow
	}

	return Deny
}
