package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/biointellect/caregate/pkg/roles"
)

type localAccount struct {
	id        string
	email     string
	hash      []byte
	metadata  roles.Metadata
	mustReset bool
}

// LocalProvider is an in-memory identity provider for development and
// tests. Accounts live for the lifetime of the process; passwords are
// bcrypt-hashed.
type LocalProvider struct {
	mu       sync.Mutex
	accounts map[string]*localAccount // keyed by email
	access   map[string]string        // access token -> account id
	refresh  map[string]string        // refresh token -> account id
}

// NewLocalProvider creates an empty local provider.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{
		accounts: make(map[string]*localAccount),
		access:   make(map[string]string),
		refresh:  make(map[string]string),
	}
}

// Seed registers an account directly, bypassing validation. Test and
// bootstrap helper.
func (p *LocalProvider) Seed(email, password string, md roles.Metadata, mustReset bool) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts[email] = &localAccount{
		id:        uuid.NewString(),
		email:     email,
		hash:      hash,
		metadata:  md,
		mustReset: mustReset,
	}
	return nil
}

// SignUp implements IdentityProvider.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string, md roles.Metadata) (*Principal, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, &ProviderError{Op: "signup", Message: "failed to hash password", Err: err}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[email]; exists {
		return nil, &ProviderError{Op: "signup", Message: "an account with this email already exists"}
	}

	account := &localAccount{
		id:       uuid.NewString(),
		email:    email,
		hash:     hash,
		metadata: md,
	}
	p.accounts[email] = account
	return p.principalLocked(account), nil
}

// SignInWithPassword implements IdentityProvider.
func (p *LocalProvider) SignInWithPassword(ctx context.Context, email, password string) (*Principal, *Tokens, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	account, ok := p.accounts[email]
	if !ok {
		return nil, nil, &ProviderError{Op: "signin", Message: "invalid login credentials", Err: ErrInvalidCredentials}
	}
	if err := bcrypt.CompareHashAndPassword(account.hash, []byte(password)); err != nil {
		return nil, nil, &ProviderError{Op: "signin", Message: "invalid login credentials", Err: ErrInvalidCredentials}
	}

	tokens := &Tokens{
		AccessToken:  uuid.NewString(),
		RefreshToken: uuid.NewString(),
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	p.access[tokens.AccessToken] = account.id
	p.refresh[tokens.RefreshToken] = account.id
	return p.principalLocked(account), tokens, nil
}

// SignOut implements IdentityProvider.
func (p *LocalProvider) SignOut(ctx context.Context, accessToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.access, accessToken)
	return nil
}

// GetUser implements IdentityProvider.
func (p *LocalProvider) GetUser(ctx context.Context, accessToken string) (*Principal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	account := p.accountByTokenLocked(p.access, accessToken)
	if account == nil {
		return nil, &ProviderError{Op: "get_user", Message: "invalid or expired token", Err: ErrSessionExpired}
	}
	return p.principalLocked(account), nil
}

// RefreshSession implements IdentityProvider.
func (p *LocalProvider) RefreshSession(ctx context.Context, refreshToken string) (*Tokens, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	account := p.accountByTokenLocked(p.refresh, refreshToken)
	if account == nil {
		return nil, &ProviderError{Op: "refresh", Message: "invalid refresh token", Err: ErrSessionExpired}
	}

	delete(p.refresh, refreshToken)
	tokens := &Tokens{
		AccessToken:  uuid.NewString(),
		RefreshToken: uuid.NewString(),
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	p.access[tokens.AccessToken] = account.id
	p.refresh[tokens.RefreshToken] = account.id
	return tokens, nil
}

// UpdatePassword implements IdentityProvider. Clears the must-reset
// marker on success.
func (p *LocalProvider) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return &ProviderError{Op: "update_password", Message: "failed to hash password", Err: err}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	account := p.accountByTokenLocked(p.access, accessToken)
	if account == nil {
		return &ProviderError{Op: "update_password", Message: "invalid or expired token", Err: ErrSessionExpired}
	}
	account.hash = hash
	account.mustReset = false
	account.metadata.MustResetPassword = false
	return nil
}

// ResetPasswordForEmail implements IdentityProvider. Always succeeds so
// account existence is never revealed.
func (p *LocalProvider) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	return nil
}

func (p *LocalProvider) accountByTokenLocked(tokens map[string]string, token string) *localAccount {
	id, ok := tokens[token]
	if !ok {
		return nil
	}
	for _, account := range p.accounts {
		if account.id == id {
			return account
		}
	}
	return nil
}

func (p *LocalProvider) principalLocked(account *localAccount) *Principal {
	return &Principal{
		ID:                account.id,
		Email:             account.email,
		RoleClaim:         string(account.metadata.Role),
		MustResetPassword: account.mustReset || account.metadata.MustResetPassword,
		Metadata: map[string]interface{}{
			"role":      string(account.metadata.Role),
			"full_name": account.metadata.FullName,
		},
	}
}
