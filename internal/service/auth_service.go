package service

import (
	"context"
	"errors"
	"time"

	"go-catalogue-ws/internal/identity"
	"go-catalogue-ws/internal/model"
	"go-catalogue-ws/internal/remote"
	"go-catalogue-ws/pkg/jwt"

	"go.uber.org/zap"
)

var ErrNoSession = errors.New("no active session")

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	SignUp(ctx context.Context, req SignUpRequest) (*LoginResponse, error)
	// Logout ends the session and rejects tokenID from then on.
	Logout(uid, tokenID string, expires time.Time)
	Refresh(ctx context.Context, uid string) (identity.Snapshot, error)
	// Resolve returns the identity of an authenticated session, waiting a
	// bounded time for its first resolution. A signed out token gets
	// identity.ErrSessionRevoked.
	Resolve(ctx context.Context, s model.Session, tokenID string) (identity.Snapshot, error)
}

type SignUpRequest struct {
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,min=6"`
	Name     string     `json:"name" validate:"required,notblank"`
	Role     model.Role `json:"role"`
}

type LoginResponse struct {
	Token        string               `json:"token"`
	User         identity.Snapshot    `json:"user"`
	Privileges   []string             `json:"privileges"`
	Registration *remote.AppendResult `json:"registration,omitempty"`
}

type authService struct {
	provider    identity.Provider
	registry    *identity.Registry
	resolveWait time.Duration
	log         *zap.Logger
}

func NewAuthService(provider identity.Provider, registry *identity.Registry, resolveWait time.Duration, log *zap.Logger) AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{provider: provider, registry: registry, resolveWait: resolveWait, log: log}
}

// await waits for ready, the context or the resolve budget, whichever
// comes first. Resolution keeps running in the background either way.
func (s *authService) await(ctx context.Context, ready <-chan struct{}) {
	timer := time.NewTimer(s.resolveWait)
	defer timer.Stop()
	select {
	case <-ready:
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (s *authService) respond(sess model.Session, snap identity.Snapshot) (*LoginResponse, error) {
	token, err := jwt.GenerateToken(sess.UID, sess.Email)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}
	return &LoginResponse{
		Token:      token,
		User:       snap,
		Privileges: snap.Capabilities.Codes(),
	}, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	sess, err := s.provider.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	r, ready := s.registry.SignIn(sess)
	s.await(ctx, ready)

	snap := r.Snapshot()
	s.log.Info("user signed in", zap.String("uid", sess.UID), zap.String("state", string(snap.State)), zap.String("role", string(snap.Role)))
	return s.respond(sess, snap)
}

func (s *authService) SignUp(ctx context.Context, req SignUpRequest) (*LoginResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	sess, err := s.provider.Register(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	r, result, ready := s.registry.SignUp(ctx, sess, req.Name, req.Role)
	s.await(ctx, ready)

	resp, err := s.respond(sess, r.Snapshot())
	if err != nil {
		return nil, err
	}
	resp.Registration = &result
	return resp, nil
}

func (s *authService) Logout(uid, tokenID string, expires time.Time) {
	s.registry.Revoke(uid, tokenID, expires)
	s.log.Info("user signed out", zap.String("uid", uid))
}

func (s *authService) Refresh(ctx context.Context, uid string) (identity.Snapshot, error) {
	r, ok := s.registry.Lookup(uid)
	if !ok {
		return identity.Snapshot{}, ErrNoSession
	}
	s.await(ctx, r.Refresh())
	return r.Snapshot(), nil
}

func (s *authService) Resolve(ctx context.Context, sess model.Session, tokenID string) (identity.Snapshot, error) {
	r, ready, err := s.registry.Resolver(sess, tokenID)
	if err != nil {
		return identity.Snapshot{}, err
	}
	s.await(ctx, ready)
	return r.Snapshot(), nil
}
