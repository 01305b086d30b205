package roles

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// fallbackHospitalCode is used for MRN generation when the patient has
// no hospital affiliation.
const fallbackHospitalCode = "GEN"

// BuildAuthMetadata assembles the identity-provider metadata payload
// for a sign-up. It normalizes the role, computes the display name and
// validates role-mandatory fields. Pure: no I/O, no clock.
func BuildAuthMetadata(in SignUpInput) (Metadata, error) {
	role, err := Normalize(in.Role)
	if err != nil {
		return Metadata{}, err
	}

	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	fullName := strings.TrimSpace(first + " " + last)
	if len(fullName) < 2 {
		return Metadata{}, &ValidationError{Field: "name", Reason: "display name must be at least 2 characters"}
	}

	if role == RoleDoctor && strings.TrimSpace(in.LicenseNumber) == "" {
		return Metadata{}, &ValidationError{Field: "license_number", Reason: "license number is required for doctors"}
	}

	md := Metadata{
		Role:       role,
		FirstName:  first,
		LastName:   last,
		FullName:   fullName,
		Phone:      strings.TrimSpace(in.Phone),
		HospitalID: NormalizeHospitalRef(in.HospitalID),
	}

	switch role {
	case RoleDoctor:
		md.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
		md.Specialty = strings.ToLower(strings.TrimSpace(in.Specialty))
	case RoleNurse:
		md.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
	case RoleAdministrator, RoleSuperAdmin:
		md.Department = strings.TrimSpace(in.Department)
	}

	return md, nil
}

// BuildProfileRecord maps sign-up input to backing-table column values
// for the role's table. Unlike BuildAuthMetadata it is tolerant: an
// unrecognized role yields an empty record, because profile insertion
// is a best-effort persistence step, not a security boundary.
func BuildProfileRecord(in SignUpInput) map[string]string {
	role, err := Normalize(in.Role)
	if err != nil {
		return map[string]string{}
	}

	record := map[string]string{
		"first_name": strings.TrimSpace(in.FirstName),
		"last_name":  strings.TrimSpace(in.LastName),
		"email":      strings.TrimSpace(in.Email),
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		record["phone"] = phone
	}
	if hospitalID := NormalizeHospitalRef(in.HospitalID); hospitalID != "" {
		record["hospital_id"] = hospitalID
	}

	switch role {
	case RolePatient:
		record["mrn"] = GenerateMRN(in.HospitalCode, time.Now())
		if dob := strings.TrimSpace(in.DateOfBirth); dob != "" {
			record["date_of_birth"] = dob
		}
	case RoleDoctor:
		record["license_number"] = strings.TrimSpace(in.LicenseNumber)
		if specialty := strings.TrimSpace(in.Specialty); specialty != "" {
			record["specialty"] = strings.ToLower(specialty)
		}
	case RoleNurse:
		if license := strings.TrimSpace(in.LicenseNumber); license != "" {
			record["license_number"] = license
		}
	case RoleAdministrator, RoleSuperAdmin:
		if dept := strings.TrimSpace(in.Department); dept != "" {
			record["department"] = dept
		}
	}

	return record
}

// NormalizeHospitalRef validates a hospital reference. Registration
// forms are known to submit placeholder strings ("main", "hospital-1")
// where a real row reference is expected; forwarding those would break
// the backing store's referential constraints. Anything that does not
// parse as a UUID is treated as no hospital.
func NormalizeHospitalRef(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if _, err := uuid.Parse(id); err != nil {
		return ""
	}
	return id
}

// GenerateMRN produces a medical record number of the form
// <hospitalCode><yy><6 digits>, e.g. GEN26042917.
func GenerateMRN(hospitalCode string, now time.Time) string {
	code := strings.ToUpper(strings.TrimSpace(hospitalCode))
	if code == "" {
		code = fallbackHospitalCode
	}
	seq := uuid.New().ID() % 1000000
	return fmt.Sprintf("%s%s%06d", code, now.Format("06"), seq)
}
