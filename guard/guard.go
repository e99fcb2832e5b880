package guard

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/readcomp/internal/errors"
	"github.com/jrsteele09/readcomp/sessions"
	"github.com/jrsteele09/readcomp/token"
	"github.com/rs/zerolog"
)

// State of a guarded mount.
type State int

const (
	Checking State = iota
	Authenticated
	Redirecting
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Authenticated:
		return "authenticated"
	case Redirecting:
		return "redirecting"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Redirect reasons passed to the navigator.
const (
	ReasonNoSession      = "no session"
	ReasonMalformedToken = "malformed token"
	ReasonTokenExpired   = "token expired"
	ReasonSessionExpired = "session expired"
)

// Navigator moves the user to the login screen.
type Navigator interface {
	RedirectToLogin(ctx context.Context, reason string)
}

type NavigatorFunc func(ctx context.Context, reason string)

func (f NavigatorFunc) RedirectToLogin(ctx context.Context, reason string) {
	f(ctx, reason)
}

// Guard decides whether a protected screen may mount.
type Guard struct {
	store        sessions.Store
	navigator    Navigator
	elevatedRole string
	logger       zerolog.Logger
}

type Option func(*Guard)

func WithElevatedRole(role string) Option {
	return func(g *Guard) {
		if role != "" {
			g.elevatedRole = role
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(g *Guard) {
		g.logger = logger
	}
}

const DefaultElevatedRole = "TEACHER"

func New(store sessions.Store, navigator Navigator, options ...Option) *Guard {
	g := &Guard{
		store:        store,
		navigator:    navigator,
		elevatedRole: DefaultElevatedRole,
		logger:       zerolog.Nop(),
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Mount runs the check for one screen mount. The returned mount is either
// Authenticated or Redirecting; a redirecting mount must not fetch.
func (g *Guard) Mount(ctx context.Context) *Mount {
	m := &Mount{state: Checking}

	sess, ok, err := g.store.Read()
	if err != nil {
		g.logger.Err(err).Msg("reading session")
		g.clear()
		return g.redirect(ctx, m, ReasonNoSession)
	}
	if !ok || sess.AccessToken == "" {
		return g.redirect(ctx, m, ReasonNoSession)
	}

	claims, err := token.Decode(sess.AccessToken)
	if err != nil {
		g.logger.Warn().Err(err).Msg("stored access token cannot be decoded")
		g.clear()
		return g.redirect(ctx, m, ReasonMalformedToken)
	}
	if !claims.Valid(token.NowTimeFunc()) {
		g.clear()
		return g.redirect(ctx, m, ReasonTokenExpired)
	}

	role := sess.Role
	if role == "" {
		role = claims.Role
	}

	m.mu.Lock()
	m.state = Authenticated
	m.session = sess
	m.claims = claims
	m.role = role
	m.mu.Unlock()
	return m
}

// RequireSession is Mount for callers that only need the outcome.
func (g *Guard) RequireSession(ctx context.Context) (*Mount, error) {
	m := g.Mount(ctx)
	if m.State() != Authenticated {
		return m, fmt.Errorf("%w: %s", errors.ErrRedirected, m.Reason())
	}
	return m, nil
}

// SessionExpired is called by the API client after it has already cleared
// the store.
func (g *Guard) SessionExpired(ctx context.Context) {
	g.navigator.RedirectToLogin(ctx, ReasonSessionExpired)
}

// IsElevated reports whether role may see the admin entry.
func (g *Guard) IsElevated(role string) bool {
	return role != "" && role == g.elevatedRole
}

func (g *Guard) ElevatedRole() string {
	return g.elevatedRole
}

func (g *Guard) clear() {
	if err := g.store.Clear(); err != nil {
		g.logger.Err(err).Msg("clearing session")
	}
}

func (g *Guard) redirect(ctx context.Context, m *Mount, reason string) *Mount {
	m.mu.Lock()
	m.state = Redirecting
	m.reason = reason
	m.mu.Unlock()
	g.navigator.RedirectToLogin(ctx, reason)
	return m
}

// Mount is the outcome of one guard check.
type Mount struct {
	mu      sync.Mutex
	state   State
	reason  string
	session sessions.Session
	claims  *token.Claims
	role    string
}

func (m *Mount) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mount) Reason() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reason
}

// Session returns the session and its decoded claims. ok is false unless
// the mount is Authenticated.
func (m *Mount) Session() (sessions.Session, *token.Claims, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Authenticated {
		return sessions.Session{}, nil, false
	}
	return m.session, m.claims, true
}

// Role is the cached login role, or the token's role claim.
func (m *Mount) Role() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.role
}
