package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-catalogue-ws/internal/model"
	"go-catalogue-ws/internal/remote"
	"go-catalogue-ws/pkg/jwt"

	"go.uber.org/zap"
)

var ErrSessionRevoked = errors.New("session has been signed out")

// pruneEvery spaces out sweeps of idle entries and expired revocations.
const pruneEvery = time.Minute

type entry struct {
	resolver *Resolver
	ready    <-chan struct{}
	lastSeen time.Time
}

// Registry holds one Resolver per authenticated principal, keyed by uid,
// and the ids of tokens that were signed out before they expired.
//
// An entry not used for longer than the token lifetime is evicted: every
// token that could still reach it has expired by then.
type Registry struct {
	dir     Directory
	timeout time.Duration
	idle    time.Duration
	log     *zap.Logger
	now     func() time.Time

	mu        sync.Mutex
	entries   map[string]entry
	revoked   map[string]time.Time // token id -> token expiry
	lastPrune time.Time
}

func NewRegistry(dir Directory, timeout time.Duration, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		dir:     dir,
		timeout: timeout,
		idle:    jwt.TokenTTL,
		log:     log,
		now:     time.Now,
		entries: make(map[string]entry),
		revoked: make(map[string]time.Time),
	}
}

// Resolver returns the session's resolver, creating it and starting
// sign-in on first use. ready is closed once the first resolution of that
// resolver finished. A token id that was revoked gets ErrSessionRevoked
// and no resolver.
func (g *Registry) Resolver(s model.Session, tokenID string) (*Resolver, <-chan struct{}, error) {
	g.mu.Lock()
	now := g.now()
	evicted := g.pruneLocked(now)
	defer func() {
		g.mu.Unlock()
		signOut(evicted)
	}()

	if _, ok := g.revoked[tokenID]; ok && tokenID != "" {
		return nil, nil, ErrSessionRevoked
	}
	if e, ok := g.entries[s.UID]; ok {
		e.lastSeen = now
		g.entries[s.UID] = e
		return e.resolver, e.ready, nil
	}
	r := NewResolver(g.dir, g.timeout, g.log)
	ready := r.SignIn(s)
	g.entries[s.UID] = entry{resolver: r, ready: ready, lastSeen: now}
	return r, ready, nil
}

// SignIn installs a fresh resolver for s and starts resolving it. A
// resolver left from an older login of the same principal is signed out.
func (g *Registry) SignIn(s model.Session) (*Resolver, <-chan struct{}) {
	r := NewResolver(g.dir, g.timeout, g.log)
	ready := r.SignIn(s)
	g.install(s.UID, entry{resolver: r, ready: ready})
	return r, ready
}

// SignUp registers s in the directory and signs it in like SignIn.
func (g *Registry) SignUp(ctx context.Context, s model.Session, name string, role model.Role) (*Resolver, remote.AppendResult, <-chan struct{}) {
	r := NewResolver(g.dir, g.timeout, g.log)
	result, ready := r.SignUp(ctx, s, name, role)
	g.install(s.UID, entry{resolver: r, ready: ready})
	return r, result, ready
}

func (g *Registry) install(uid string, e entry) {
	g.mu.Lock()
	now := g.now()
	evicted := g.pruneLocked(now)
	if old, ok := g.entries[uid]; ok {
		evicted = append(evicted, old.resolver)
	}
	e.lastSeen = now
	g.entries[uid] = e
	g.mu.Unlock()
	signOut(evicted)
}

// Lookup returns an existing resolver without creating one.
func (g *Registry) Lookup(uid string) (*Resolver, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.entries[uid]
	return e.resolver, ok
}

// Drop signs the principal out and forgets it.
func (g *Registry) Drop(uid string) {
	g.mu.Lock()
	e, ok := g.entries[uid]
	delete(g.entries, uid)
	g.mu.Unlock()
	if ok {
		e.resolver.SignOut()
	}
}

// Revoke signs the principal out and rejects tokenID until it expires.
func (g *Registry) Revoke(uid, tokenID string, expires time.Time) {
	if tokenID != "" {
		g.mu.Lock()
		g.revoked[tokenID] = expires
		g.mu.Unlock()
	}
	g.Drop(uid)
}

func (g *Registry) Revoked(tokenID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.revoked[tokenID]
	return ok
}

func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// pruneLocked drops idle entries and revocations of expired tokens. The
// evicted resolvers are returned for signing out after the lock is
// released.
func (g *Registry) pruneLocked(now time.Time) []*Resolver {
	if now.Sub(g.lastPrune) < pruneEvery {
		return nil
	}
	g.lastPrune = now

	var evicted []*Resolver
	for uid, e := range g.entries {
		if now.Sub(e.lastSeen) > g.idle {
			evicted = append(evicted, e.resolver)
			delete(g.entries, uid)
		}
	}
	for id, exp := range g.revoked {
		if now.After(exp) {
			delete(g.revoked, id)
		}
	}
	if len(evicted) > 0 {
		g.log.Debug("evicted idle sessions", zap.Int("count", len(evicted)))
	}
	return evicted
}

func signOut(resolvers []*Resolver) {
	for _, r := range resolvers {
		r.SignOut()
	}
}
