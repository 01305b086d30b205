package roles

// Role is a canonical application role. All role strings accepted from
// sign-up forms or identity-provider claims are normalized into this
// closed set before any other component sees them.
type Role string

const (
	RoleSuperAdmin    Role = "super_admin"
	RoleAdministrator Role = "administrator"
	RoleDoctor        Role = "doctor"
	RoleNurse         Role = "nurse"
	RolePatient       Role = "patient"
)

// Canonical lists every recognized canonical role.
var Canonical = []Role{
	RoleSuperAdmin,
	RoleAdministrator,
	RoleDoctor,
	RoleNurse,
	RolePatient,
}

// IsStaff reports whether the role belongs to the staff portal class.
// Everything except patient is staff.
func (r Role) IsStaff() bool {
	return r != RolePatient && r.Valid()
}

// Valid reports whether r is a member of the canonical set.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdministrator, RoleDoctor, RoleNurse, RolePatient:
		return true
	}
	return false
}

// Row is a single backing-table row as returned by the directory,
// keyed by column name.
type Row map[string]interface{}

// Profile is the normalized application-level view of a user, produced
// by the identity resolver and owned by the session afterwards. It is
// replaced wholesale on refresh, never partially mutated.
type Profile struct {
	ID           string                 `json:"id"`
	PrincipalID  string                 `json:"principal_id"`
	FullName     string                 `json:"full_name"`
	Email        string                 `json:"email,omitempty"`
	Phone        string                 `json:"phone,omitempty"`
	Role         Role                   `json:"role"`
	HospitalName string                 `json:"hospital_name,omitempty"`
	Fields       map[string]interface{} `json:"fields,omitempty"`
}

// BackingConfig describes how a canonical role materializes a Profile:
// which table holds it, which columns to select, and how a row becomes
// a Profile. Built once at process start, immutable afterwards.
type BackingConfig struct {
	// Table is the role's backing table.
	Table string
	// Columns are the table columns selected for profile resolution,
	// in addition to the hospital display-name join.
	Columns []string
	// Transform converts a backing-table row into a normalized Profile.
	Transform func(Row) *Profile
}

// Metadata is the identity-provider metadata payload attached to an
// account at sign-up time. The provider stores it opaquely; the role
// claim inside it drives profile resolution on later sign-ins.
type Metadata struct {
	Role              Role   `json:"role"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	FullName          string `json:"full_name"`
	Phone             string `json:"phone,omitempty"`
	HospitalID        string `json:"hospital_id,omitempty"`
	LicenseNumber     string `json:"license_number,omitempty"`
	Specialty         string `json:"specialty,omitempty"`
	Department        string `json:"department,omitempty"`
	MustResetPassword bool   `json:"must_reset_password,omitempty"`
}

// SignUpInput carries the fields collected by the registration forms.
// One typed struct replaces the free-form key merging the portals used
// to do; a missing field is a validation error, not a silently absent
// column.
type SignUpInput struct {
	Email         string
	Password      string
	Role          string
	FirstName     string
	LastName      string
	Phone         string
	HospitalID    string
	HospitalCode  string
	LicenseNumber string
	Specialty     string
	Department    string
	DateOfBirth   string
}
