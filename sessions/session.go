package sessions

import (
	"github.com/jrsteele09/readcomp/internal/errors"
)

// Well-known keys of the persisted session document.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyRole         = "role"
	KeyGeneration   = "generation"
)

// ErrSessionCleared is returned by ReplaceAccess when the session it was
// asked to update has been cleared or replaced in the meantime.
var ErrSessionCleared = errors.ErrSessionCleared

// Session is the persisted client credential pair plus the cached role.
// Tokens are opaque to the store; nothing here interprets expiry.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Role         string `json:"role,omitempty"`

	// Generation changes on every Save and Clear. A refresh remembers the
	// generation it started from so a concurrent logout cannot be undone.
	Generation uint64 `json:"generation"`
}

// HasRefreshToken reports whether a refresh can be attempted.
func (s Session) HasRefreshToken() bool {
	return s.RefreshToken != ""
}

// Store holds the one current session. Implementations must be safe for
// concurrent use.
type Store interface {
	// Save overwrites both tokens without validation and drops the cached role.
	Save(accessToken, refreshToken string) error
	// SaveRole caches the role returned at login alongside the tokens.
	SaveRole(role string) error
	// Read returns the stored values verbatim; ok is false when no session exists.
	Read() (session Session, ok bool, err error)
	// Clear removes both tokens and the role. Clearing an empty store is a no-op.
	Clear() error
	// ReplaceAccess swaps in a refreshed access token if the store is still
	// at generation; otherwise it returns ErrSessionCleared and writes nothing.
	ReplaceAccess(generation uint64, accessToken string) error
}
