package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jrsteele09/readcomp/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Config is the subset of the dev server configuration the manager needs.
type Config interface {
	GetRefreshTokenLength() int
	GetRefreshTokenExpiry() time.Duration
}

// Manager issues opaque refresh tokens and checks them on /api/token/refresh/.
type Manager struct {
	repo   Repo
	config Config
}

func NewManager(repo Repo, cfg Config) *Manager {
	return &Manager{
		repo:   repo,
		config: cfg,
	}
}

// Issue creates a new grant for userID. Earlier grants stay valid so a user
// can be signed in from several clients.
func (m *Manager) Issue(userID int) (string, error) {
	raw := make([]byte, m.config.GetRefreshTokenLength())
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("Manager.Issue random: %w", err)
	}

	now := NowTimeFunc()
	grant := &Grant{
		Token:     hex.EncodeToString(raw),
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.config.GetRefreshTokenExpiry()),
	}
	if err := m.repo.Save(grant); err != nil {
		return "", fmt.Errorf("Manager.Issue save: %w", err)
	}
	return grant.Token, nil
}

// Validate returns the grant behind token when it exists and has not expired.
// Expired grants are removed.
func (m *Manager) Validate(token string) (*Grant, error) {
	grant, err := m.repo.Get(token)
	if err != nil {
		return nil, errors.ErrInvalidRefreshToken
	}
	if !NowTimeFunc().Before(grant.ExpiresAt) {
		_ = m.repo.Delete(token)
		return nil, errors.ErrRefreshTokenExpired
	}
	return grant, nil
}

func (m *Manager) Revoke(token string) error {
	return m.repo.Delete(token)
}

// RevokeUser signs userID out everywhere.
func (m *Manager) RevokeUser(userID int) (int, error) {
	return m.repo.DeleteForUser(userID)
}
