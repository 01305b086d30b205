package roles

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAuthMetadata_RoundTrip(t *testing.T) {
	// The role written into metadata must normalize back to the same
	// canonical role that went in.
	inputs := []string{"patient", "DOCTOR", "cardiologist", "admin", "nurse", "super_admin"}

	for _, raw := range inputs {
		want, err := Normalize(raw)
		require.NoError(t, err)

		in := SignUpInput{
			Role:          raw,
			FirstName:     "Lea",
			LastName:      "Marchand",
			LicenseNumber: "MD-1",
		}
		md, err := BuildAuthMetadata(in)
		require.NoError(t, err, "role %q", raw)

		got, err := Normalize(string(md.Role))
		require.NoError(t, err)
		assert.Equal(t, want, got, "role %q", raw)
	}
}

func TestBuildAuthMetadata_DoctorRequiresLicense(t *testing.T) {
	_, err := BuildAuthMetadata(SignUpInput{
		Role:      "doctor",
		FirstName: "Yara",
		LastName:  "Saleh",
	})
	require.Error(t, err)

	var validation *ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "license_number", validation.Field)
}

func TestBuildAuthMetadata_ShortNameRejected(t *testing.T) {
	_, err := BuildAuthMetadata(SignUpInput{Role: "patient", FirstName: "A"})
	require.Error(t, err)

	var validation *ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, "name", validation.Field)
}

func TestBuildAuthMetadata_UnknownRoleFails(t *testing.T) {
	_, err := BuildAuthMetadata(SignUpInput{Role: "astronaut", FirstName: "Max", LastName: "Webb"})

	var invalidRole *InvalidRoleError
	require.True(t, errors.As(err, &invalidRole))
}

func TestBuildAuthMetadata_PlaceholderHospitalDropped(t *testing.T) {
	md, err := BuildAuthMetadata(SignUpInput{
		Role:       "patient",
		FirstName:  "Omar",
		LastName:   "Aziz",
		HospitalID: "main-hospital",
	})
	require.NoError(t, err)
	assert.Empty(t, md.HospitalID, "placeholder hospital ids must not be forwarded")

	wellFormed := uuid.NewString()
	md, err = BuildAuthMetadata(SignUpInput{
		Role:       "patient",
		FirstName:  "Omar",
		LastName:   "Aziz",
		HospitalID: wellFormed,
	})
	require.NoError(t, err)
	assert.Equal(t, wellFormed, md.HospitalID)
}

func TestBuildAuthMetadata_SpecialtyCollapsesToDoctor(t *testing.T) {
	md, err := BuildAuthMetadata(SignUpInput{
		Role:          "Cardiologist",
		FirstName:     "Nadia",
		LastName:      "Kteily",
		LicenseNumber: "MD-77",
		Specialty:     "Cardiologist",
	})
	require.NoError(t, err)
	assert.Equal(t, RoleDoctor, md.Role)
	assert.Equal(t, "cardiologist", md.Specialty)
}

func TestBuildProfileRecord_PerRoleColumns(t *testing.T) {
	hospitalID := uuid.NewString()

	doctor := BuildProfileRecord(SignUpInput{
		Role:          "doctor",
		Email:         "doc@example.org",
		FirstName:     "Amina",
		LastName:      "Hassan",
		Phone:         "555-0100",
		HospitalID:    hospitalID,
		LicenseNumber: "MD-9281",
		Specialty:     "Oncologist",
	})
	assert.Equal(t, "Amina", doctor["first_name"])
	assert.Equal(t, "MD-9281", doctor["license_number"])
	assert.Equal(t, "oncologist", doctor["specialty"])
	assert.Equal(t, hospitalID, doctor["hospital_id"])

	patient := BuildProfileRecord(SignUpInput{
		Role:         "patient",
		Email:        "pat@example.org",
		FirstName:    "Omar",
		LastName:     "Aziz",
		HospitalCode: "CEN",
		DateOfBirth:  "1990-04-02",
	})
	assert.Equal(t, "1990-04-02", patient["date_of_birth"])
	assert.Contains(t, patient, "mrn")
	assert.True(t, len(patient["mrn"]) >= len("CEN26000000"))
	_, hasHospital := patient["hospital_id"]
	assert.False(t, hasHospital)
}

func TestBuildProfileRecord_UnknownRoleIsEmpty(t *testing.T) {
	record := BuildProfileRecord(SignUpInput{Role: "astronaut", FirstName: "Max"})
	assert.Empty(t, record)
}

func TestGenerateMRN_Format(t *testing.T) {
	now := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)

	mrn := GenerateMRN("cen", now)
	assert.Len(t, mrn, 11)
	assert.Equal(t, "CEN26", mrn[:5])

	fallback := GenerateMRN("", now)
	assert.Equal(t, "GEN26", fallback[:5])
}
