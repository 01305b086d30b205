package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/biointellect/caregate/pkg/roles"
)

// ErrInvalidCredentials classifies authentication rejections so the
// portal layer can rewrite them into portal-appropriate messages.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrSessionExpired classifies token verification failures during
// session restore.
var ErrSessionExpired = errors.New("session expired or invalid")

// Principal is an authenticated identity as returned by the external
// provider, prior to application-level profile resolution.
type Principal struct {
	ID                string
	Email             string
	RoleClaim         string
	MustResetPassword bool
	Metadata          map[string]interface{}
}

// Tokens are the provider-issued session tokens.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// ProviderError wraps a failure talking to the external identity
// provider. Message is safe to show; Err carries the classification
// and cause.
type ProviderError struct {
	Op      string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IdentityProvider is the capability set of the external identity
// provider. One auth session manager is parameterized by this
// interface; implementations are swapped per deployment instead of
// maintaining parallel managers.
type IdentityProvider interface {
	// SignUp provisions an account with the given metadata embedded
	// for later profile resolution. It does not create a session.
	SignUp(ctx context.Context, email, password string, md roles.Metadata) (*Principal, error)

	// SignInWithPassword authenticates and returns the principal plus
	// session tokens.
	SignInWithPassword(ctx context.Context, email, password string) (*Principal, *Tokens, error)

	// SignOut revokes the session behind the access token.
	SignOut(ctx context.Context, accessToken string) error

	// GetUser verifies an access token and returns its principal.
	GetUser(ctx context.Context, accessToken string) (*Principal, error)

	// RefreshSession exchanges a refresh token for fresh tokens.
	RefreshSession(ctx context.Context, refreshToken string) (*Tokens, error)

	// UpdatePassword changes the password of the token's account.
	UpdatePassword(ctx context.Context, accessToken, newPassword string) error

	// ResetPasswordForEmail requests a password-reset email. It must
	// not reveal whether the account exists.
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
}
