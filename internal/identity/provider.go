package identity

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go-catalogue-ws/internal/model"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

const minPasswordLength = 6

// Provider verifies credentials. Production deployments put an external
// identity provider behind it.
type Provider interface {
	Register(ctx context.Context, email, password string) (model.Session, error)
	Authenticate(ctx context.Context, email, password string) (model.Session, error)
}

type credential struct {
	uid  string
	hash []byte
}

// LocalProvider keeps bcrypt-hashed credentials in memory.
type LocalProvider struct {
	cost    int
	mu      sync.RWMutex
	byEmail map[string]credential
}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{cost: bcrypt.DefaultCost, byEmail: make(map[string]credential)}
}

func (p *LocalProvider) Register(_ context.Context, email, password string) (model.Session, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return model.Session{}, ErrInvalidCredentials
	}
	if len(password) < minPasswordLength {
		return model.Session{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return model.Session{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.byEmail[email]; exists {
		return model.Session{}, ErrEmailTaken
	}
	c := credential{uid: uuid.NewString(), hash: hash}
	p.byEmail[email] = c
	return model.Session{UID: c.uid, Email: email}, nil
}

func (p *LocalProvider) Authenticate(_ context.Context, email, password string) (model.Session, error) {
	email = normalizeEmail(email)
	p.mu.RLock()
	c, ok := p.byEmail[email]
	p.mu.RUnlock()
	if !ok {
		return model.Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(c.hash, []byte(password)); err != nil {
		return model.Session{}, ErrInvalidCredentials
	}
	return model.Session{UID: c.uid, Email: email}, nil
}
