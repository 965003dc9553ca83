package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/calebmoura/lumiere-gateway/pkg/config"
	pkgerrors "github.com/calebmoura/lumiere-gateway/pkg/errors"
	"github.com/calebmoura/lumiere-gateway/pkg/logger"
	pkgredis "github.com/calebmoura/lumiere-gateway/pkg/redis"
	"github.com/calebmoura/lumiere-gateway/pkg/upstream"
	"github.com/google/uuid"
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SessionKey(sessionID string) string
}

type credentialExchanger interface {
	Login(ctx context.Context, email, password string) (*upstream.LoginResult, error)
	Profile(ctx context.Context, token string) (*upstream.User, error)
}

// Service manages storefront sessions and their upstream tokens.
type Service interface {
	Create(ctx context.Context) (*Session, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	Login(ctx context.Context, sessionID, email, password string) (*Session, error)
	Logout(ctx context.Context, sessionID string) error
	Profile(ctx context.Context, sess *Session) (*upstream.User, error)
	// ValidToken returns the session's bearer token, clearing it first when
	// the exp claim already passed (same observable effect as an upstream 401).
	ValidToken(ctx context.Context, sess *Session) (string, error)
	// ClearToken drops the stored token but keeps the session; callers decide
	// navigation. This is the 401 handler target.
	ClearToken(ctx context.Context, sessionID string) error
}

type service struct {
	store    sessionStore
	upstream credentialExchanger
	ttl      time.Duration
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams wires the auth service.
type ServiceParams struct {
	Store    sessionStore
	Upstream credentialExchanger
	Config   config.SessionConfig
	Logger   *logger.Logger
}

// NewService builds the session service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if params.Upstream == nil {
		return nil, fmt.Errorf("upstream client required")
	}
	if params.Config.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &service{
		store:    params.Store,
		upstream: params.Upstream,
		ttl:      params.Config.TTL,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

// Create starts an anonymous session; login attaches a token later.
func (s *service) Create(ctx context.Context) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: s.now().UTC(),
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *service) Get(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	raw, err := s.store.Get(ctx, s.store.SessionKey(sessionID))
	if err != nil {
		if errors.Is(err, pkgredis.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown or expired session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode session")
	}
	return &sess, nil
}

// Login exchanges credentials with the upstream and stores the returned
// bearer token on the session.
func (s *service) Login(ctx context.Context, sessionID, email, password string) (*Session, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result, err := s.upstream.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	sess.Token = result.Token
	sess.UserID = result.User.ID
	sess.Email = result.User.Email
	sess.Name = result.User.Name
	sess.Role = result.User.Role
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.store.Del(ctx, s.store.SessionKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Profile(ctx context.Context, sess *Session) (*upstream.User, error) {
	token, err := s.ValidToken(ctx, sess)
	if err != nil {
		return nil, err
	}
	return s.upstream.Profile(ctx, token)
}

func (s *service) ValidToken(ctx context.Context, sess *Session) (string, error) {
	if !sess.Authenticated() {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if tokenExpired(sess.Token, s.now()) {
		if err := s.ClearToken(ctx, sess.ID); err != nil && s.logg != nil {
			s.logg.Error(ctx, "session.clear_expired_token", err)
		}
		sess.Token = ""
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
	}
	return sess.Token, nil
}

func (s *service) ClearToken(ctx context.Context, sessionID string) error {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.Token == "" {
		return nil
	}
	sess.Token = ""
	return s.save(ctx, sess)
}

func (s *service) save(ctx context.Context, sess *Session) error {
	encoded, err := json.Marshal(sess)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode session")
	}
	if err := s.store.Set(ctx, s.store.SessionKey(sess.ID), string(encoded), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}
	return nil
}
