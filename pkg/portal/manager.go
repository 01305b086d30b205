package portal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/biointellect/caregate/pkg/identity"
	"github.com/biointellect/caregate/pkg/metrics"
	"github.com/biointellect/caregate/pkg/provider"
	"github.com/biointellect/caregate/pkg/refdata"
	"github.com/biointellect/caregate/pkg/roles"
	"github.com/biointellect/caregate/pkg/session"
)

// State is the session lifecycle state.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
	StateForcedReset     State = "forced_reset"
)

const (
	// DefaultIdleTimeout is the inactivity threshold after which a
	// session is signed out.
	DefaultIdleTimeout = 15 * time.Minute
	// DefaultSweepInterval is how often the watchdog checks.
	DefaultSweepInterval = time.Minute
)

// Config tunes a Manager. Zero values take the defaults above.
type Config struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Manager owns the sign-in / sign-up / sign-out / restore /
// forced-reset flows, enforces portal role fencing and runs the
// inactivity watchdog. Exactly one session is live per Manager.
type Manager struct {
	provider provider.IdentityProvider
	resolver *identity.Resolver
	sessions *session.Store
	refdata  *refdata.Cache
	log      logrus.FieldLogger

	now           func() time.Time
	idleTimeout   time.Duration
	sweepInterval time.Duration

	mu       sync.Mutex
	state    State
	current  *session.Session
	selected roles.Role
	lastErr  error
}

// NewManager wires a Manager from its collaborators.
func NewManager(p provider.IdentityProvider, r *identity.Resolver, s *session.Store, rd *refdata.Cache, log logrus.FieldLogger, cfg Config) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		provider:      p,
		resolver:      r,
		sessions:      s,
		refdata:       rd,
		log:           log.WithField("component", "portal"),
		now:           cfg.Now,
		idleTimeout:   cfg.IdleTimeout,
		sweepInterval: cfg.SweepInterval,
		state:         StateUnauthenticated,
	}
}

// RestoreSession verifies a persisted session on start-up. It never
// returns an error: any verification failure clears the store and
// leaves the manager Unauthenticated.
func (m *Manager) RestoreSession(ctx context.Context) {
	sess, err := m.sessions.Load(ctx)
	if err != nil || sess == nil {
		if err != nil {
			m.log.WithError(err).Warn("could not read persisted session")
		}
		m.toUnauthenticated(ctx, false)
		return
	}

	principal, err := m.provider.GetUser(ctx, sess.AccessToken)
	if err != nil && sess.RefreshToken != "" {
		// The access token may simply have expired; try the refresh
		// token before giving up.
		if tokens, refreshErr := m.provider.RefreshSession(ctx, sess.RefreshToken); refreshErr == nil {
			sess.AccessToken = tokens.AccessToken
			sess.RefreshToken = tokens.RefreshToken
			principal, err = m.provider.GetUser(ctx, sess.AccessToken)
		}
	}
	if err != nil {
		m.log.WithError(err).Info("persisted session no longer valid")
		m.toUnauthenticated(ctx, true)
		return
	}

	role, err := roles.Normalize(principal.RoleClaim)
	if err != nil {
		m.log.WithError(err).Warn("persisted session carries an unusable role claim")
		m.toUnauthenticated(ctx, true)
		return
	}

	profile, err := m.resolver.Resolve(ctx, principal.ID, role)
	if err != nil {
		m.log.WithError(err).Warn("profile resolution failed during restore")
		m.revokeQuietly(ctx, sess.AccessToken)
		m.toUnauthenticated(ctx, true)
		return
	}

	sess.Role = role
	sess.Profile = profile
	sess.MustResetPassword = principal.MustResetPassword
	sess.LastActivity = m.now()
	if err := m.sessions.Save(ctx, sess); err != nil {
		m.log.WithError(err).Warn("could not persist restored session")
	}

	m.mu.Lock()
	m.current = sess
	if sess.MustResetPassword {
		m.state = StateForcedReset
	} else {
		m.state = StateAuthenticated
	}
	m.mu.Unlock()
	m.log.WithField("role", role).Info("session restored")
}

// SelectRole records the portal the user entered through, for sign-ins
// that do not name one explicitly. Unrecognized roles are rejected.
func (m *Manager) SelectRole(input string) error {
	role, err := roles.Normalize(input)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.selected = role
	m.mu.Unlock()
	return nil
}

// SignIn authenticates against the external provider and resolves the
// clinical profile. intendedRole names the portal the user entered
// through; when empty, the role recorded by SelectRole applies, and
// with neither set fencing is skipped. A role-class mismatch revokes
// the external session before the error surfaces.
func (m *Manager) SignIn(ctx context.Context, email, password, intendedRole string) error {
	if intendedRole == "" {
		m.mu.Lock()
		intendedRole = string(m.selected)
		m.mu.Unlock()
	}
	m.setState(StateAuthenticating)

	principal, tokens, err := m.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		metrics.SignInTotal.WithLabelValues(outcomeFor(err)).Inc()
		return m.fail(rewriteCredentialError(intendedRole, err))
	}

	role, err := roles.Normalize(principal.RoleClaim)
	if err != nil {
		m.revokeQuietly(ctx, tokens.AccessToken)
		metrics.SignInTotal.WithLabelValues("invalid_role").Inc()
		return m.fail(err)
	}

	if intendedRole != "" {
		portalRole, err := roles.Normalize(intendedRole)
		if err != nil {
			m.revokeQuietly(ctx, tokens.AccessToken)
			return m.fail(err)
		}
		if portalRole.IsStaff() != role.IsStaff() {
			m.revokeQuietly(ctx, tokens.AccessToken)
			if err := m.sessions.Clear(ctx); err != nil {
				m.log.WithError(err).Warn("could not clear session after role mismatch")
			}
			portalClass := "patient"
			if portalRole.IsStaff() {
				portalClass = "staff"
			}
			metrics.SignInTotal.WithLabelValues("role_mismatch").Inc()
			metrics.RoleMismatchTotal.WithLabelValues(portalClass).Inc()
			m.log.WithFields(logrus.Fields{
				"portal": portalRole,
				"actual": role,
			}).Warn("sign-in rejected: portal role mismatch")
			return m.fail(&RoleMismatchError{Portal: portalRole, Actual: role})
		}
	}

	profile, err := m.resolver.Resolve(ctx, principal.ID, role)
	if err != nil {
		// An authenticated identity without a clinical record must not
		// proceed; revoke and deny.
		m.revokeQuietly(ctx, tokens.AccessToken)
		if clearErr := m.sessions.Clear(ctx); clearErr != nil {
			m.log.WithError(clearErr).Warn("could not clear session after failed resolution")
		}
		metrics.SignInTotal.WithLabelValues("profile_missing").Inc()
		return m.fail(err)
	}

	sess := &session.Session{
		PrincipalID:       principal.ID,
		Email:             principal.Email,
		Role:              role,
		Profile:           profile,
		AccessToken:       tokens.AccessToken,
		RefreshToken:      tokens.RefreshToken,
		MustResetPassword: principal.MustResetPassword,
		LastActivity:      m.now(),
	}
	if err := m.sessions.Save(ctx, sess); err != nil {
		m.log.WithError(err).Warn("could not persist session; continuing in-memory")
	}

	m.mu.Lock()
	m.current = sess
	m.lastErr = nil
	if sess.MustResetPassword {
		m.state = StateForcedReset
	} else {
		m.state = StateAuthenticated
	}
	outcome := "success"
	if sess.MustResetPassword {
		outcome = "forced_reset"
	}
	m.mu.Unlock()

	metrics.SignInTotal.WithLabelValues(outcome).Inc()
	m.log.WithFields(logrus.Fields{"role": role, "forced_reset": sess.MustResetPassword}).Info("sign-in complete")
	return nil
}

// SignUp provisions an account with the external provider. It is not a
// login: the created account still needs email verification before its
// first sign-in, so no state transition happens here.
func (m *Manager) SignUp(ctx context.Context, in roles.SignUpInput) error {
	md, err := roles.BuildAuthMetadata(in)
	if err != nil {
		return err
	}
	if _, err := m.provider.SignUp(ctx, in.Email, in.Password, md); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	m.log.WithField("role", md.Role).Info("account provisioned")
	return nil
}

// PatientRegistration is the patient sign-up form.
type PatientRegistration struct {
	Email        string
	Password     string
	FirstName    string
	LastName     string
	Phone        string
	HospitalID   string
	HospitalCode string
	DateOfBirth  string
}

// RegisterPatient provisions a patient account.
func (m *Manager) RegisterPatient(ctx context.Context, in PatientRegistration) error {
	return m.SignUp(ctx, roles.SignUpInput{
		Email:        in.Email,
		Password:     in.Password,
		Role:         string(roles.RolePatient),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		HospitalID:   in.HospitalID,
		HospitalCode: in.HospitalCode,
		DateOfBirth:  in.DateOfBirth,
	})
}

// DoctorRegistration is the doctor sign-up form.
type DoctorRegistration struct {
	Email         string
	Password      string
	FirstName     string
	LastName      string
	Phone         string
	HospitalID    string
	LicenseNumber string
	Specialty     string
}

// RegisterDoctor provisions a doctor account.
func (m *Manager) RegisterDoctor(ctx context.Context, in DoctorRegistration) error {
	return m.SignUp(ctx, roles.SignUpInput{
		Email:         in.Email,
		Password:      in.Password,
		Role:          string(roles.RoleDoctor),
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Phone:         in.Phone,
		HospitalID:    in.HospitalID,
		LicenseNumber: in.LicenseNumber,
		Specialty:     in.Specialty,
	})
}

// AdminRegistration is the administrator sign-up form.
type AdminRegistration struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Phone      string
	HospitalID string
	Department string
}

// RegisterAdmin provisions an administrator account.
func (m *Manager) RegisterAdmin(ctx context.Context, in AdminRegistration) error {
	return m.SignUp(ctx, roles.SignUpInput{
		Email:      in.Email,
		Password:   in.Password,
		Role:       string(roles.RoleAdministrator),
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Phone:      in.Phone,
		HospitalID: in.HospitalID,
		Department: in.Department,
	})
}

// SignOut revokes the external session and clears local state. Local
// logout always succeeds, even when revocation fails: a user must
// never be stuck appearing logged in.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	token := ""
	if m.current != nil {
		token = m.current.AccessToken
	}
	m.mu.Unlock()

	if token != "" {
		if err := m.provider.SignOut(ctx, token); err != nil {
			m.log.WithError(err).Warn("provider revocation failed; clearing local session anyway")
		}
	}
	m.toUnauthenticated(ctx, true)
	m.log.Info("signed out")
}

// CompleteForcedReset updates the password and promotes the session
// from ForcedPasswordReset to Authenticated.
func (m *Manager) CompleteForcedReset(ctx context.Context, newPassword string) error {
	m.mu.Lock()
	if m.state != StateForcedReset || m.current == nil {
		m.mu.Unlock()
		return ErrNoResetPending
	}
	token := m.current.AccessToken
	m.mu.Unlock()

	if err := m.provider.UpdatePassword(ctx, token, newPassword); err != nil {
		return fmt.Errorf("password update failed: %w", err)
	}

	m.mu.Lock()
	m.current.MustResetPassword = false
	m.current.LastActivity = m.now()
	m.state = StateAuthenticated
	sess := m.current
	m.mu.Unlock()

	if err := m.sessions.Save(ctx, sess); err != nil {
		m.log.WithError(err).Warn("could not persist session after password reset")
	}
	m.log.Info("forced password reset completed")
	return nil
}

// RequestPasswordReset asks the provider to send a reset email. It
// never reveals whether the account exists.
func (m *Manager) RequestPasswordReset(ctx context.Context, email, redirectTo string) {
	if err := m.provider.ResetPasswordForEmail(ctx, email, redirectTo); err != nil {
		m.log.WithError(err).Warn("password reset request failed")
	}
}

// RecordActivity marks the session active now. Called on every user
// interaction while a session is live; the timestamp update is
// immediate, not debounced, so the inactivity timeout is a true idle
// threshold.
func (m *Manager) RecordActivity(ctx context.Context) {
	m.mu.Lock()
	live := m.state == StateAuthenticated || m.state == StateForcedReset
	if live && m.current != nil {
		m.current.LastActivity = m.now()
	}
	m.mu.Unlock()
	if !live {
		return
	}
	if err := m.sessions.TouchActivity(ctx, m.now()); err != nil {
		m.log.WithError(err).Warn("could not persist activity timestamp")
	}
}

// RunWatchdog runs the inactivity sweep until ctx is cancelled.
func (m *Manager) RunWatchdog(ctx context.Context) {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

// sweep signs the session out when it has been idle past the
// threshold. After the sign-out the state is Unauthenticated, so a
// breach fires exactly once.
func (m *Manager) sweep(ctx context.Context) {
	m.mu.Lock()
	live := (m.state == StateAuthenticated || m.state == StateForcedReset) && m.current != nil
	var idle time.Duration
	if live {
		idle = m.now().Sub(m.current.LastActivity)
	}
	m.mu.Unlock()

	if !live || idle <= m.idleTimeout {
		return
	}

	m.log.WithField("idle", idle.Round(time.Second)).Info("inactivity timeout reached; signing out")
	metrics.IdleSignOutTotal.Inc()
	m.SignOut(ctx)
}

// --- published state -------------------------------------------------

// StateNow returns the current lifecycle state.
func (m *Manager) StateNow() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentUser returns the live session's profile, or nil.
func (m *Manager) CurrentUser() *roles.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	return m.current.Profile
}

// CurrentEmail returns the live session's email, or "".
func (m *Manager) CurrentEmail() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.Email
}

// UserRole returns the live session's canonical role, or "".
func (m *Manager) UserRole() roles.Role {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.Role
}

// IsAuthenticated reports whether the session has full privileges. A
// session gated behind a forced password reset is not authenticated.
func (m *Manager) IsAuthenticated() bool {
	return m.StateNow() == StateAuthenticated
}

// IsLoading reports whether a sign-in is in flight.
func (m *Manager) IsLoading() bool {
	return m.StateNow() == StateAuthenticating
}

// MustResetPassword reports whether the session is gated behind a
// forced password reset.
func (m *Manager) MustResetPassword() bool {
	return m.StateNow() == StateForcedReset
}

// Err returns the last sign-in error, if any.
func (m *Manager) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// ClearError discards the last sign-in error.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastErr = nil
}

// FetchCountries returns the cached country list.
func (m *Manager) FetchCountries(ctx context.Context) []refdata.Country {
	return m.refdata.Countries(ctx)
}

// FetchRegions returns the cached regions for a country.
func (m *Manager) FetchRegions(ctx context.Context, countryKey string) []refdata.Region {
	return m.refdata.RegionsFor(ctx, countryKey)
}

// FetchHospitals returns the cached hospitals for a region, or the
// global list for an empty key.
func (m *Manager) FetchHospitals(ctx context.Context, regionKey string) []refdata.Hospital {
	return m.refdata.HospitalsFor(ctx, regionKey)
}

// --- internals --------------------------------------------------------

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// fail records the error and lands Unauthenticated.
func (m *Manager) fail(err error) error {
	m.mu.Lock()
	m.state = StateUnauthenticated
	m.current = nil
	m.lastErr = err
	m.mu.Unlock()
	return err
}

// toUnauthenticated resets in-memory state and, when clear is set,
// wipes the persisted session.
func (m *Manager) toUnauthenticated(ctx context.Context, clear bool) {
	if clear {
		if err := m.sessions.Clear(ctx); err != nil {
			m.log.WithError(err).Warn("could not clear persisted session")
		}
	}
	m.mu.Lock()
	m.state = StateUnauthenticated
	m.current = nil
	m.mu.Unlock()
}

func (m *Manager) revokeQuietly(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := m.provider.SignOut(ctx, token); err != nil {
		m.log.WithError(err).Warn("could not revoke external session")
	}
}

func outcomeFor(err error) string {
	if errors.Is(err, provider.ErrInvalidCredentials) {
		return "invalid_credentials"
	}
	return "error"
}

// rewriteCredentialError maps the provider's generic rejection into a
// portal-appropriate message while keeping the classification in the
// error chain.
func rewriteCredentialError(intendedRole string, err error) error {
	if !errors.Is(err, provider.ErrInvalidCredentials) {
		return err
	}
	portalRole, normErr := roles.Normalize(intendedRole)
	if normErr == nil && portalRole.IsStaff() {
		return fmt.Errorf("we couldn't verify those staff credentials; check your email and password: %w", provider.ErrInvalidCredentials)
	}
	return fmt.Errorf("we couldn't verify those patient portal credentials; check your email and password: %w", provider.ErrInvalidCredentials)
}
