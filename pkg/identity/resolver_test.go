package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biointellect/caregate/pkg/roles"
)

func doctorColumns() []string {
	cfg := roles.ConfigFor(roles.RoleDoctor)
	return append(append([]string{}, cfg.Columns...), "hospital_name")
}

func TestPostgresDirectory_SingleRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(doctorColumns()).AddRow(
		"d-1", "u-1", "Amina", "Hassan", "amina@example.org", "555-0100",
		"MD-9281", "cardiologist", "true", "Central Hospital",
	)
	mock.ExpectQuery("SELECT (.+) FROM doctors p LEFT JOIN hospitals h").
		WithArgs("u-1").
		WillReturnRows(rows)

	dir := NewPostgresDirectory(db)
	resolver := NewResolver(dir, nil)

	profile, err := resolver.Resolve(context.Background(), "u-1", roles.RoleDoctor)
	require.NoError(t, err)

	assert.Equal(t, "d-1", profile.ID)
	assert.Equal(t, "u-1", profile.PrincipalID)
	assert.Equal(t, "Amina Hassan", profile.FullName)
	assert.Equal(t, roles.RoleDoctor, profile.Role)
	assert.Equal(t, "Central Hospital", profile.HospitalName)
	assert.Equal(t, "MD-9281", profile.Fields["license_number"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDirectory_ZeroRowsIsProfileMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM patients p LEFT JOIN hospitals h").
		WithArgs("u-gone").
		WillReturnRows(sqlmock.NewRows(append(roles.ConfigFor(roles.RolePatient).Columns, "hospital_name")))

	dir := NewPostgresDirectory(db)
	resolver := NewResolver(dir, nil)

	_, err = resolver.Resolve(context.Background(), "u-gone", roles.RolePatient)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProfileMissing))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDirectory_DuplicateRowsFail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(doctorColumns()).
		AddRow("d-1", "u-1", "Amina", "Hassan", "a@example.org", "", "MD-1", "", "true", "").
		AddRow("d-2", "u-1", "Amina", "Hassan", "a@example.org", "", "MD-2", "", "true", "")
	mock.ExpectQuery("SELECT (.+) FROM doctors p LEFT JOIN hospitals h").
		WithArgs("u-1").
		WillReturnRows(rows)

	dir := NewPostgresDirectory(db)

	_, err = dir.FindProfile(context.Background(), roles.ConfigFor(roles.RoleDoctor), "u-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateProfile), "duplicates must fail, never pick arbitrarily")
}

func TestPostgresDirectory_NullColumnsTolerated(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows(doctorColumns()).AddRow(
		"d-1", "u-1", "Amina", "Hassan", nil, nil, "MD-9281", nil, "true", nil,
	)
	mock.ExpectQuery("SELECT (.+) FROM doctors p LEFT JOIN hospitals h").
		WithArgs("u-1").
		WillReturnRows(rows)

	dir := NewPostgresDirectory(db)
	row, err := dir.FindProfile(context.Background(), roles.ConfigFor(roles.RoleDoctor), "u-1")
	require.NoError(t, err)

	_, hasEmail := row["email"]
	assert.False(t, hasEmail, "NULL columns are omitted from the row")
	assert.Equal(t, "MD-9281", row["license_number"])
}

func TestResolver_EmptyPrincipal(t *testing.T) {
	resolver := NewResolver(nil, nil)
	_, err := resolver.Resolve(context.Background(), "", roles.RolePatient)
	assert.True(t, errors.Is(err, ErrProfileMissing))
}
