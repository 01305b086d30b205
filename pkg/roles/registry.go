package roles

import "strings"

// aliases maps every accepted role spelling to its canonical role.
// Clinician sub-specialties collapse to doctor; the specialty code is
// preserved separately in metadata and the backing table.
var aliases = map[string]Role{
	"super_admin":          RoleSuperAdmin,
	"superadmin":           RoleSuperAdmin,
	"admin":                RoleAdministrator,
	"administrator":        RoleAdministrator,
	"mini_administrator":   RoleAdministrator,
	"doctor":               RoleDoctor,
	"physician":            RoleDoctor,
	"cardiologist":         RoleDoctor,
	"neurologist":          RoleDoctor,
	"radiologist":          RoleDoctor,
	"oncologist":           RoleDoctor,
	"pediatrician":         RoleDoctor,
	"general_practitioner": RoleDoctor,
	"surgeon":              RoleDoctor,
	"nurse":                RoleNurse,
	"patient":              RolePatient,
}

// Normalize maps an arbitrary role string to its canonical role. The
// lookup is case-insensitive. An unrecognized string returns an
// *InvalidRoleError; Normalize never guesses a default.
func Normalize(input string) (Role, error) {
	key := strings.ToLower(strings.TrimSpace(input))
	if role, ok := aliases[key]; ok {
		return role, nil
	}
	return "", &InvalidRoleError{Input: input}
}

// Aliases returns every accepted role spelling. The result is a copy;
// the registry itself is immutable after process start.
func Aliases() []string {
	out := make([]string, 0, len(aliases))
	for alias := range aliases {
		out = append(out, alias)
	}
	return out
}

// backing holds the per-role backing configuration. super_admin shares
// the administrators table.
var backing = map[Role]BackingConfig{
	RolePatient: {
		Table:     "patients",
		Columns:   []string{"id", "user_id", "first_name", "last_name", "email", "phone", "mrn", "date_of_birth", "is_active"},
		Transform: transformFor(RolePatient, []string{"mrn", "date_of_birth", "is_active"}),
	},
	RoleDoctor: {
		Table:     "doctors",
		Columns:   []string{"id", "user_id", "first_name", "last_name", "email", "phone", "license_number", "specialty", "is_active"},
		Transform: transformFor(RoleDoctor, []string{"license_number", "specialty", "is_active"}),
	},
	RoleNurse: {
		Table:     "nurses",
		Columns:   []string{"id", "user_id", "first_name", "last_name", "email", "phone", "license_number", "is_active"},
		Transform: transformFor(RoleNurse, []string{"license_number", "is_active"}),
	},
	RoleAdministrator: {
		Table:     "administrators",
		Columns:   []string{"id", "user_id", "first_name", "last_name", "email", "phone", "department", "is_active"},
		Transform: transformFor(RoleAdministrator, []string{"department", "is_active"}),
	},
	RoleSuperAdmin: {
		Table:     "administrators",
		Columns:   []string{"id", "user_id", "first_name", "last_name", "email", "phone", "department", "is_active"},
		Transform: transformFor(RoleSuperAdmin, []string{"department", "is_active"}),
	},
}

// ConfigFor returns the backing configuration for a canonical role. It
// is total over the canonical set: once Normalize has succeeded there
// is no failure case, so an unknown role here is a programming error.
func ConfigFor(role Role) BackingConfig {
	cfg, ok := backing[role]
	if !ok {
		panic("roles: no backing config for role " + string(role))
	}
	return cfg
}

// transformFor builds the row-to-Profile transform for a role. Common
// identity fields are lifted into the Profile; the named extras are
// carried in Fields.
func transformFor(role Role, extras []string) func(Row) *Profile {
	return func(row Row) *Profile {
		p := &Profile{
			ID:           rowString(row, "id"),
			PrincipalID:  rowString(row, "user_id"),
			Email:        rowString(row, "email"),
			Phone:        rowString(row, "phone"),
			Role:         role,
			HospitalName: rowString(row, "hospital_name"),
			Fields:       make(map[string]interface{}, len(extras)),
		}
		first := rowString(row, "first_name")
		last := rowString(row, "last_name")
		p.FullName = strings.TrimSpace(first + " " + last)
		for _, key := range extras {
			if v, ok := row[key]; ok && v != nil {
				p.Fields[key] = v
			}
		}
		return p
	}
}

func rowString(row Row, key string) string {
	if v, ok := row[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
