package roles

import "fmt"

// InvalidRoleError reports a role string with no canonical mapping.
// It is always fatal to the operation that produced it; callers must
// surface it rather than fall back to a default role.
type InvalidRoleError struct {
	Input string
}

func (e *InvalidRoleError) Error() string {
	return fmt.Sprintf("unrecognized role %q", e.Input)
}

// ValidationError reports malformed or missing sign-up input. It is
// recovered locally and shown as a field-level message; it is never a
// security event.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
