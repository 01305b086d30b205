package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/biointellect/caregate/pkg/roles"
)

// Session is the single live session of a running portal instance.
type Session struct {
	PrincipalID       string         `json:"principal_id"`
	Email             string         `json:"email"`
	Role              roles.Role     `json:"role"`
	Profile           *roles.Profile `json:"profile,omitempty"`
	AccessToken       string         `json:"-"`
	RefreshToken      string         `json:"-"`
	MustResetPassword bool           `json:"-"`
	LastActivity      time.Time      `json:"-"`
}

// Store persists the session across restarts through a KV surface.
// Each fragment lives under its own key so Clear can remove every
// trace of a logged-out session.
type Store struct {
	kv     KV
	prefix string
	log    logrus.FieldLogger
}

// NewStore creates a session store. prefix namespaces the keys; the
// empty string defaults to "caregate".
func NewStore(kv KV, prefix string, log logrus.FieldLogger) *Store {
	if prefix == "" {
		prefix = "caregate"
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{
		kv:     kv,
		prefix: prefix,
		log:    log.WithField("component", "session"),
	}
}

func (s *Store) userKey() string     { return s.prefix + ":session:user" }
func (s *Store) roleKey() string     { return s.prefix + ":session:role" }
func (s *Store) accessKey() string   { return s.prefix + ":session:access_token" }
func (s *Store) refreshKey() string  { return s.prefix + ":session:refresh_token" }
func (s *Store) activityKey() string { return s.prefix + ":session:last_activity" }
func (s *Store) resetKey() string    { return s.prefix + ":session:must_reset" }

func (s *Store) allKeys() []string {
	return []string{
		s.userKey(), s.roleKey(), s.accessKey(),
		s.refreshKey(), s.activityKey(), s.resetKey(),
	}
}

// Load reads the persisted session. It returns nil when no session is
// stored; a malformed payload is treated as absent, cleared
// best-effort, and never surfaces as an error to the caller.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	blob, ok, err := s.kv.Get(ctx, s.userKey())
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal([]byte(blob), &sess); err != nil {
		s.log.WithError(err).Warn("discarding malformed persisted session")
		_ = s.Clear(ctx)
		return nil, nil
	}
	if sess.PrincipalID == "" || !sess.Role.Valid() {
		s.log.Warn("discarding incomplete persisted session")
		_ = s.Clear(ctx)
		return nil, nil
	}

	if token, ok, _ := s.kv.Get(ctx, s.accessKey()); ok {
		sess.AccessToken = token
	}
	if token, ok, _ := s.kv.Get(ctx, s.refreshKey()); ok {
		sess.RefreshToken = token
	}
	if flag, ok, _ := s.kv.Get(ctx, s.resetKey()); ok {
		sess.MustResetPassword = flag == "true"
	}
	if raw, ok, _ := s.kv.Get(ctx, s.activityKey()); ok {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			sess.LastActivity = ts
		}
	}

	return &sess, nil
}

// Save persists every session fragment. Idempotent.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	blob, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.kv.Set(ctx, s.userKey(), string(blob)); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.roleKey(), string(sess.Role)); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.accessKey(), sess.AccessToken); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.refreshKey(), sess.RefreshToken); err != nil {
		return err
	}
	mustReset := "false"
	if sess.MustResetPassword {
		mustReset = "true"
	}
	if err := s.kv.Set(ctx, s.resetKey(), mustReset); err != nil {
		return err
	}
	return s.TouchActivity(ctx, sess.LastActivity)
}

// Clear removes every persisted session key so no stale fragment can
// be read back after logout. Idempotent.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Del(ctx, s.allKeys()...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// TouchActivity records the given time as the session's last activity.
func (s *Store) TouchActivity(ctx context.Context, at time.Time) error {
	if at.IsZero() {
		at = time.Now()
	}
	if err := s.kv.Set(ctx, s.activityKey(), at.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}
