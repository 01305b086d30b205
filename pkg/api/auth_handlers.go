package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/biointellect/caregate/pkg/httputil"
	"github.com/biointellect/caregate/pkg/identity"
	"github.com/biointellect/caregate/pkg/portal"
	"github.com/biointellect/caregate/pkg/provider"
	"github.com/biointellect/caregate/pkg/roles"
)

// AuthHandlers provides the authentication API endpoints
type AuthHandlers struct {
	manager *portal.Manager
	log     logrus.FieldLogger
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(manager *portal.Manager, log logrus.FieldLogger) *AuthHandlers {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuthHandlers{
		manager: manager,
		log:     log,
	}
}

// RegisterRoutes registers authentication API routes
func (h *AuthHandlers) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/auth/signup", h.signUp).Methods("POST")
	r.HandleFunc("/api/v1/auth/signin", h.signIn).Methods("POST")
	r.HandleFunc("/api/v1/auth/signout", h.signOut).Methods("POST")
	r.HandleFunc("/api/v1/auth/me", h.me).Methods("GET")
	r.HandleFunc("/api/v1/auth/password", h.changePassword).Methods("PUT")
	r.HandleFunc("/api/v1/auth/password-reset-request", h.requestPasswordReset).Methods("POST")
}

type signUpRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	Role          string `json:"role"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Phone         string `json:"phone,omitempty"`
	HospitalID    string `json:"hospital_id,omitempty"`
	HospitalCode  string `json:"hospital_code,omitempty"`
	DateOfBirth   string `json:"date_of_birth,omitempty"`
	LicenseNumber string `json:"license_number,omitempty"`
	Specialty     string `json:"specialty,omitempty"`
	Department    string `json:"department,omitempty"`
}

// signUp handles POST /api/v1/auth/signup
// Provisions a new account without starting a session.
func (h *AuthHandlers) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	err := h.manager.SignUp(r.Context(), roles.SignUpInput{
		Email:         req.Email,
		Password:      req.Password,
		Role:          req.Role,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Phone:         req.Phone,
		HospitalID:    req.HospitalID,
		HospitalCode:  req.HospitalCode,
		DateOfBirth:   req.DateOfBirth,
		LicenseNumber: req.LicenseNumber,
		Specialty:     req.Specialty,
		Department:    req.Department,
	})
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	httputil.WriteCreated(w, map[string]string{"email": req.Email})
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Portal   string `json:"portal,omitempty"`
}

type sessionResponse struct {
	State   string         `json:"state"`
	Profile *roles.Profile `json:"profile,omitempty"`
	Role    string         `json:"role,omitempty"`
	Email   string         `json:"email,omitempty"`
}

// signIn handles POST /api/v1/auth/signin
// The portal field names the surface the user signed in through and
// is enforced against the account's resolved role.
func (h *AuthHandlers) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := h.manager.SignIn(r.Context(), req.Email, req.Password, req.Portal); err != nil {
		h.writeAuthError(w, err)
		return
	}

	httputil.WriteOK(w, h.sessionBody())
}

// signOut handles POST /api/v1/auth/signout
// Always succeeds: local state is cleared even when remote revocation fails.
func (h *AuthHandlers) signOut(w http.ResponseWriter, r *http.Request) {
	h.manager.SignOut(r.Context())
	httputil.WriteOK(w, map[string]string{"state": string(portal.StateUnauthenticated)})
}

// me handles GET /api/v1/auth/me
func (h *AuthHandlers) me(w http.ResponseWriter, r *http.Request) {
	if !h.manager.IsAuthenticated() && h.manager.StateNow() != portal.StateForcedReset {
		httputil.WriteUnauthorized(w, "not signed in")
		return
	}
	httputil.WriteOK(w, h.sessionBody())
}

type changePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// changePassword handles PUT /api/v1/auth/password
// Completes a forced password reset.
func (h *AuthHandlers) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.NewPassword == "" {
		httputil.WriteBadRequest(w, "new_password is required")
		return
	}

	if err := h.manager.CompleteForcedReset(r.Context(), req.NewPassword); err != nil {
		h.writeAuthError(w, err)
		return
	}

	httputil.WriteOK(w, h.sessionBody())
}

type passwordResetRequest struct {
	Email      string `json:"email"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

// requestPasswordReset handles POST /api/v1/auth/password-reset-request
// Always returns 200 regardless of whether the email exists.
func (h *AuthHandlers) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Email == "" {
		httputil.WriteBadRequest(w, "email is required")
		return
	}

	h.manager.RequestPasswordReset(r.Context(), req.Email, req.RedirectTo)
	httputil.WriteOK(w, map[string]string{
		"message": "if an account exists for that email, a reset link has been sent",
	})
}

func (h *AuthHandlers) sessionBody() sessionResponse {
	return sessionResponse{
		State:   string(h.manager.StateNow()),
		Profile: h.manager.CurrentUser(),
		Role:    string(h.manager.UserRole()),
		Email:   h.manager.CurrentEmail(),
	}
}

// writeAuthError maps domain errors onto HTTP status codes
func (h *AuthHandlers) writeAuthError(w http.ResponseWriter, err error) {
	var validationErr *roles.ValidationError
	var invalidRole *roles.InvalidRoleError
	var mismatch *portal.RoleMismatchError

	switch {
	case errors.As(err, &validationErr), errors.As(err, &invalidRole):
		httputil.WriteBadRequest(w, err.Error())
	case errors.As(err, &mismatch):
		httputil.WriteForbidden(w, err.Error())
	case errors.Is(err, portal.ErrNoResetPending):
		httputil.WriteBadRequest(w, err.Error())
	case errors.Is(err, identity.ErrProfileMissing):
		httputil.WriteForbidden(w, err.Error())
	case errors.Is(err, provider.ErrInvalidCredentials):
		httputil.WriteUnauthorized(w, err.Error())
	case errors.Is(err, provider.ErrSessionExpired):
		httputil.WriteUnauthorized(w, err.Error())
	default:
		h.log.WithError(err).Error("auth request failed")
		httputil.WriteInternalError(w)
	}
}
