package storefakes

import (
	"sync"

	"github.com/jrsteele09/readcomp/sessions"
)

var _ sessions.Store = (*MemoryStore)(nil)

// MemoryStore is an in-process sessions.Store with the same semantics as
// the file store. It also counts calls so tests can assert on them.
type MemoryStore struct {
	session sessions.Session
	lock    sync.Mutex

	Clears   int
	Replaces int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWith returns a store already holding access and refresh.
func NewMemoryStoreWith(accessToken, refreshToken string) *MemoryStore {
	m := NewMemoryStore()
	_ = m.Save(accessToken, refreshToken)
	return m
}

func (m *MemoryStore) Save(accessToken, refreshToken string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.session = sessions.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Generation:   m.session.Generation + 1,
	}
	return nil
}

func (m *MemoryStore) SaveRole(role string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.session.Role = role
	return nil
}

func (m *MemoryStore) Read() (sessions.Session, bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.session.AccessToken == "" && m.session.RefreshToken == "" {
		return sessions.Session{}, false, nil
	}
	return m.session, true, nil
}

func (m *MemoryStore) Clear() error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.Clears++
	if m.session.AccessToken == "" && m.session.RefreshToken == "" && m.session.Role == "" {
		return nil
	}
	m.session = sessions.Session{Generation: m.session.Generation + 1}
	return nil
}

func (m *MemoryStore) ReplaceAccess(generation uint64, accessToken string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if m.session.Generation != generation || m.session.RefreshToken == "" {
		return sessions.ErrSessionCleared
	}
	m.Replaces++
	m.session.AccessToken = accessToken
	return nil
}
