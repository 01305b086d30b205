package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/biointellect/caregate/pkg/roles"
)

// ErrProfileMissing means an authenticated principal has no matching
// clinical record. This is a security-relevant inconsistency: the
// caller must revoke the external session and deny access, never
// retry automatically.
var ErrProfileMissing = errors.New("no profile found for authenticated principal")

// ErrDuplicateProfile means the backing table holds more than one row
// for a principal. Resolution fails rather than picking one.
var ErrDuplicateProfile = errors.New("multiple profiles found for principal")

// Resolver turns an authenticated principal into a normalized Profile
// by querying the role's backing table and applying the role's
// transform.
type Resolver struct {
	dir Directory
	log logrus.FieldLogger
}

// NewResolver creates a resolver over a directory.
func NewResolver(dir Directory, log logrus.FieldLogger) *Resolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{dir: dir, log: log.WithField("component", "identity")}
}

// Resolve looks up the profile for a principal whose role claim has
// already been normalized. At most one profile is ever returned.
func (r *Resolver) Resolve(ctx context.Context, principalID string, role roles.Role) (*roles.Profile, error) {
	if principalID == "" {
		return nil, fmt.Errorf("principal id is empty: %w", ErrProfileMissing)
	}

	cfg := roles.ConfigFor(role)
	row, err := r.dir.FindProfile(ctx, cfg, principalID)
	if err != nil {
		if errors.Is(err, ErrProfileMissing) {
			r.log.WithFields(logrus.Fields{
				"principal": principalID,
				"role":      role,
			}).Warn("authenticated principal has no clinical profile")
		}
		return nil, err
	}

	profile := cfg.Transform(row)
	profile.Role = role
	if profile.PrincipalID == "" {
		profile.PrincipalID = principalID
	}
	return profile, nil
}
