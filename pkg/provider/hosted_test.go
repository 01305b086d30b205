package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biointellect/caregate/pkg/roles"
)

func signAccessToken(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u-1",
		"user_metadata": map[string]interface{}{
			"role": role,
		},
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestHostedProvider_SignInWithPassword(t *testing.T) {
	accessToken := signAccessToken(t, "doctor")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.Equal(t, "/auth/v1/token", r.URL.Path)
		require.Equal(t, "password", r.URL.Query().Get("grant_type"))
		require.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "good-pw" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error_description": "Invalid login credentials"})
			return
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": "refresh-1",
			"expires_in":    3600,
			"user": map[string]interface{}{
				"id":    "u-1",
				"email": "amina@example.org",
				"user_metadata": map[string]interface{}{
					"role":                "doctor",
					"must_reset_password": true,
				},
			},
		})
	}))
	defer srv.Close()

	p := NewHostedProvider(srv.URL, "anon-key", time.Second, nil)

	principal, tokens, err := p.SignInWithPassword(context.Background(), "amina@example.org", "good-pw")
	require.NoError(t, err)
	assert.Equal(t, "u-1", principal.ID)
	assert.Equal(t, "doctor", principal.RoleClaim)
	assert.True(t, principal.MustResetPassword)
	assert.Equal(t, accessToken, tokens.AccessToken)
	assert.Equal(t, "refresh-1", tokens.RefreshToken)

	_, _, err = p.SignInWithPassword(context.Background(), "amina@example.org", "bad-pw")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "Invalid login credentials", provErr.Message)
}

func TestHostedProvider_RoleClaimFallsBackToToken(t *testing.T) {
	// Some deployments return a bare user object without metadata; the
	// role then comes from the JWT claims.
	accessToken := signAccessToken(t, "nurse")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": "refresh-1",
			"expires_in":    3600,
			"user":          map[string]interface{}{"id": "u-2", "email": "n@example.org"},
		})
	}))
	defer srv.Close()

	p := NewHostedProvider(srv.URL, "anon-key", time.Second, nil)
	principal, _, err := p.SignInWithPassword(context.Background(), "n@example.org", "pw")
	require.NoError(t, err)
	assert.Equal(t, "nurse", principal.RoleClaim)
}

func TestHostedProvider_GetUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.Equal(t, "/auth/v1/user", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer valid-token" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"msg": "invalid JWT"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":            "u-1",
			"email":         "amina@example.org",
			"user_metadata": map[string]interface{}{"role": "doctor"},
		})
	}))
	defer srv.Close()

	p := NewHostedProvider(srv.URL, "anon-key", time.Second, nil)

	principal, err := p.GetUser(context.Background(), "valid-token")
	require.NoError(t, err)
	assert.Equal(t, "doctor", principal.RoleClaim)

	_, err = p.GetUser(context.Background(), "stale-token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionExpired))
}

func TestHostedProvider_SignUpSendsMetadata(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.Equal(t, "/auth/v1/signup", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "u-9", "email": "new@example.org"})
	}))
	defer srv.Close()

	p := NewHostedProvider(srv.URL, "anon-key", time.Second, nil)
	md := roles.Metadata{Role: roles.RolePatient, FirstName: "Omar", LastName: "Aziz", FullName: "Omar Aziz"}

	principal, err := p.SignUp(context.Background(), "new@example.org", "pw-123456", md)
	require.NoError(t, err)
	assert.Equal(t, "u-9", principal.ID)

	data, ok := received["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "patient", data["role"])
	assert.Equal(t, "Omar Aziz", data["full_name"])
}

func TestHostedProvider_SignOutToleratesStaleToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewHostedProvider(srv.URL, "anon-key", time.Second, nil)
	assert.NoError(t, p.SignOut(context.Background(), "already-dead"))
}
