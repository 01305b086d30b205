package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/biointellect/caregate/pkg/roles"
)

// userPayload is the provider's wire representation of an account.
type userPayload struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
}

// tokenPayload is the provider's token-grant response.
type tokenPayload struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"`
	User         userPayload `json:"user"`
}

// errorPayload is the provider's error body.
type errorPayload struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
	Msg         string `json:"msg"`
}

func (e errorPayload) message() string {
	switch {
	case e.Description != "":
		return e.Description
	case e.Msg != "":
		return e.Msg
	case e.Error != "":
		return e.Error
	}
	return "provider request failed"
}

// HostedProvider talks to the hosted identity service's REST API.
type HostedProvider struct {
	client *resty.Client
	log    logrus.FieldLogger
}

// NewHostedProvider creates a client for the hosted identity service.
// apiKey is sent on every request; per-session access tokens are
// passed per call.
func NewHostedProvider(baseURL, apiKey string, timeout time.Duration, log logrus.FieldLogger) *HostedProvider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("apikey", apiKey)

	return &HostedProvider{client: client, log: log.WithField("component", "provider")}
}

// SignUp implements IdentityProvider.
func (p *HostedProvider) SignUp(ctx context.Context, email, password string, md roles.Metadata) (*Principal, error) {
	var user userPayload
	var apiErr errorPayload
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"email":    email,
			"password": password,
			"data":     md,
		}).
		SetResult(&user).
		SetError(&apiErr).
		Post("/auth/v1/signup")
	if err != nil {
		return nil, &ProviderError{Op: "signup", Message: "identity service unreachable", Err: err}
	}
	if resp.IsError() {
		return nil, &ProviderError{Op: "signup", Message: apiErr.message(), Err: fmt.Errorf("status %d", resp.StatusCode())}
	}
	return principalFromUser(user, ""), nil
}

// SignInWithPassword implements IdentityProvider.
func (p *HostedProvider) SignInWithPassword(ctx context.Context, email, password string) (*Principal, *Tokens, error) {
	var grant tokenPayload
	var apiErr errorPayload
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&grant).
		SetError(&apiErr).
		Post("/auth/v1/token")
	if err != nil {
		return nil, nil, &ProviderError{Op: "signin", Message: "identity service unreachable", Err: err}
	}
	if resp.StatusCode() == 400 || resp.StatusCode() == 401 {
		return nil, nil, &ProviderError{Op: "signin", Message: apiErr.message(), Err: ErrInvalidCredentials}
	}
	if resp.IsError() {
		return nil, nil, &ProviderError{Op: "signin", Message: apiErr.message(), Err: fmt.Errorf("status %d", resp.StatusCode())}
	}

	tokens := &Tokens{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(grant.ExpiresIn) * time.Second),
	}
	return principalFromUser(grant.User, grant.AccessToken), tokens, nil
}

// SignOut implements IdentityProvider.
func (p *HostedProvider) SignOut(ctx context.Context, accessToken string) error {
	var apiErr errorPayload
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetError(&apiErr).
		Post("/auth/v1/logout")
	if err != nil {
		return &ProviderError{Op: "signout", Message: "identity service unreachable", Err: err}
	}
	// An already-invalid token is as signed out as it gets.
	if resp.IsError() && resp.StatusCode() != 401 {
		return &ProviderError{Op: "signout", Message: apiErr.message(), Err: fmt.Errorf("status %d", resp.StatusCode())}
	}
	return nil
}

// GetUser implements IdentityProvider.
func (p *HostedProvider) GetUser(ctx context.Context, accessToken string) (*Principal, error) {
	var user userPayload
	var apiErr errorPayload
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&user).
		SetError(&apiErr).
		Get("/auth/v1/user")
	if err != nil {
		return nil, &ProviderError{Op: "get_user", Message: "identity service unreachable", Err: err}
	}
	if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
		return nil, &ProviderError{Op: "get_user", Message: apiErr.message(), Err: ErrSessionExpired}
	}
	if resp.IsError() {
		return nil, &ProviderError{Op: "get_user", Message: apiErr.message(), Err: fmt.Errorf("status %d", resp.StatusCode())}
	}
	return principalFromUser(user, accessToken), nil
}

// RefreshSession implements IdentityProvider.
func (p *HostedProvider) RefreshSession(ctx context.Context, refreshToken string) (*Tokens, error) {
	var grant tokenPayload
	var apiErr errorPayload
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "refresh_token").
		SetBody(map[string]string{"refresh_token": refreshToken}).
		SetResult(&grant).
		SetError(&apiErr).
		Post("/auth/v1/token")
	if err != nil {
		return nil, &ProviderError{Op: "refresh", Message: "identity service unreachable", Err: err}
	}
	if resp.IsError() {
		return nil, &ProviderError{Op: "refresh", Message: apiErr.message(), Err: ErrSessionExpired}
	}
	return &Tokens{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(grant.ExpiresIn) * time.Second),
	}, nil
}

// UpdatePassword implements IdentityProvider. The must-reset marker is
// cleared in the same call so a crash between the two writes cannot
// leave the account wedged in forced-reset.
func (p *HostedProvider) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	var apiErr errorPayload
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetBody(map[string]interface{}{
			"password": newPassword,
			"data":     map[string]interface{}{"must_reset_password": false},
		}).
		SetError(&apiErr).
		Put("/auth/v1/user")
	if err != nil {
		return &ProviderError{Op: "update_password", Message: "identity service unreachable", Err: err}
	}
	if resp.IsError() {
		return &ProviderError{Op: "update_password", Message: apiErr.message(), Err: fmt.Errorf("status %d", resp.StatusCode())}
	}
	return nil
}

// ResetPasswordForEmail implements IdentityProvider.
func (p *HostedProvider) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	var apiErr errorPayload
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email}).
		SetQueryParam("redirect_to", redirectTo).
		SetError(&apiErr).
		Post("/auth/v1/recover")
	if err != nil {
		return &ProviderError{Op: "recover", Message: "identity service unreachable", Err: err}
	}
	if resp.IsError() {
		return &ProviderError{Op: "recover", Message: apiErr.message(), Err: fmt.Errorf("status %d", resp.StatusCode())}
	}
	return nil
}

// principalFromUser builds a Principal from the wire user, falling
// back to the access token's claims when the payload carries no role.
// The unverified parse is deliberate: the claim is advisory routing
// data here, the provider has already authenticated the token.
func principalFromUser(user userPayload, accessToken string) *Principal {
	p := &Principal{
		ID:       user.ID,
		Email:    user.Email,
		Metadata: user.UserMetadata,
	}
	if md := user.UserMetadata; md != nil {
		if role, ok := md["role"].(string); ok {
			p.RoleClaim = role
		}
		if reset, ok := md["must_reset_password"].(bool); ok {
			p.MustResetPassword = reset
		}
	}
	if p.RoleClaim == "" && accessToken != "" {
		p.RoleClaim = roleClaimFromToken(accessToken)
	}
	return p
}

// roleClaimFromToken extracts the role from a JWT access token's
// user_metadata claim without verifying the signature.
func roleClaimFromToken(accessToken string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return ""
	}
	md, ok := claims["user_metadata"].(map[string]interface{})
	if !ok {
		return ""
	}
	role, _ := md["role"].(string)
	return role
}
