package portal

import (
	"errors"

	"github.com/biointellect/caregate/pkg/roles"
)

// ErrNoResetPending is returned when a password change is attempted
// outside a forced reset.
var ErrNoResetPending = errors.New("no password reset is pending")

// RoleMismatchError means the authenticated identity's role does not
// match the portal the user signed in through. The external session
// has already been revoked by the time this error surfaces.
type RoleMismatchError struct {
	// Portal is the role class of the entry point used.
	Portal roles.Role
	// Actual is the canonical role the identity actually carries.
	Actual roles.Role
}

func (e *RoleMismatchError) Error() string {
	if e.Actual == roles.RolePatient {
		return "this portal is for clinical staff; please sign in through the patient portal"
	}
	return "staff accounts must sign in through the staff portal"
}
