// Package identity turns authenticated sessions into role claims by
// consulting the user directory.
package identity

import (
	"context"
	"sync"
	"time"

	"go-catalogue-ws/internal/model"
	"go-catalogue-ws/internal/remote"
	"go-catalogue-ws/pkg/metrics"

	"go.uber.org/zap"
)

// State of a Resolver.
type State string

const (
	StateUnresolved      State = "unresolved"
	StateResolving       State = "resolving"
	StateResolved        State = "resolved"
	StateResolvedDefault State = "resolved-default"
)

// Snapshot is a consistent view of a Resolver. Role is the default role
// unless State is StateResolved.
type Snapshot struct {
	State        State              `json:"state"`
	UID          string             `json:"uid,omitempty"`
	Email        string             `json:"email,omitempty"`
	Name         string             `json:"name,omitempty"`
	Role         model.Role         `json:"role"`
	Capabilities model.Capabilities `json:"capabilities"`
}

// Resolver is the identity state machine of one session:
//
//	unresolved -> resolving -> resolved | resolved-default
//
// Lookups run in the background. Results of a lookup started before the
// latest SignIn or SignOut are discarded; overlapping lookups of the same
// session apply in completion order.
type Resolver struct {
	dir     Directory
	log     *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	state   State
	session model.Session
	role    model.Role
	name    string
	epoch   uint64
}

// NewResolver returns an unresolved resolver. timeout bounds each lookup;
// zero means no bound beyond the transport's own.
func NewResolver(dir Directory, timeout time.Duration, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		dir:     dir,
		log:     log,
		timeout: timeout,
		state:   StateUnresolved,
		role:    model.DefaultRole,
	}
}

// SignIn starts resolving s. The returned channel is closed once the
// lookup result was applied or discarded.
func (r *Resolver) SignIn(s model.Session) <-chan struct{} {
	if !s.Valid() {
		r.SignOut()
		return closedChan()
	}

	r.mu.Lock()
	r.epoch++
	epoch := r.epoch
	r.session = s
	r.state = StateResolving
	r.role = model.DefaultRole
	r.name = ""
	r.mu.Unlock()

	return r.lookup(epoch, s.Email, false)
}

// SignUp registers the session in the directory, then signs in. The
// registration is best effort: its outcome is returned for reporting and
// a failure never prevents the sign-in.
func (r *Resolver) SignUp(ctx context.Context, s model.Session, name string, role model.Role) (remote.AppendResult, <-chan struct{}) {
	user := model.DirectoryUser{
		UID:       s.UID,
		Email:     normalizeEmail(s.Email),
		Name:      name,
		Role:      SignUpRole(role),
		CreatedAt: time.Now().UTC(),
	}
	result, err := r.dir.Register(ctx, user)
	if err != nil {
		r.log.Warn("directory registration failed", zap.String("email", user.Email), zap.Error(err))
		result = remote.AppendResult{Confirmed: false, Message: err.Error()}
	} else if !result.Confirmed {
		r.log.Info("directory registration not confirmed", zap.String("email", user.Email), zap.String("message", result.Message))
	}
	return result, r.SignIn(s)
}

// SignUpRole is the role a user may claim for themselves. Admin is never
// self-assigned.
func SignUpRole(role model.Role) model.Role {
	if role == model.RoleRetailer {
		return model.RoleRetailer
	}
	return model.RoleCustomer
}

// SignOut clears the session. A lookup still in flight is discarded.
func (r *Resolver) SignOut() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch++
	r.session = model.Session{}
	r.state = StateUnresolved
	r.role = model.DefaultRole
	r.name = ""
}

// Refresh repeats the lookup for the current session to pick up a role
// changed out of band, bypassing any directory cache. The current role
// stays in effect until the new result arrives. Without a session it is a
// no-op.
func (r *Resolver) Refresh() <-chan struct{} {
	r.mu.Lock()
	if !r.session.Valid() {
		r.mu.Unlock()
		return closedChan()
	}
	epoch := r.epoch
	email := r.session.Email
	r.mu.Unlock()

	return r.lookup(epoch, email, true)
}

func (r *Resolver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	role := model.DefaultRole
	if r.state == StateResolved {
		role = r.role
	}
	return Snapshot{
		State:        r.state,
		UID:          r.session.UID,
		Email:        r.session.Email,
		Name:         r.name,
		Role:         role,
		Capabilities: model.CapabilitiesFor(role),
	}
}

func (r *Resolver) lookup(epoch uint64, email string, fresh bool) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		ctx := context.Background()
		if r.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}

		lookup := r.dir.Lookup
		if fl, ok := r.dir.(freshLooker); ok && fresh {
			lookup = fl.LookupFresh
		}
		user, found, err := lookup(ctx, email)
		if err != nil {
			r.log.Debug("directory lookup failed, using default role", zap.String("email", email), zap.Error(err))
		}
		r.apply(epoch, user, found && err == nil)
	}()
	return done
}

func (r *Resolver) apply(epoch uint64, user model.DirectoryUser, found bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if epoch != r.epoch {
		return
	}
	if found {
		r.state = StateResolved
		r.role = model.ParseRole(string(user.Role))
		r.name = user.Name
	} else {
		r.state = StateResolvedDefault
		r.role = model.DefaultRole
		r.name = ""
	}
	metrics.RecordResolution(string(r.state))
}

func closedChan() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
