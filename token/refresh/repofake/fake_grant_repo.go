package refreshrepofake

import (
	"sync"

	"github.com/jrsteele09/readcomp/internal/errors"
	"github.com/jrsteele09/readcomp/token/refresh"
)

var _ refresh.Repo = (*FakeGrantRepo)(nil)

// FakeGrantRepo keeps refresh grants in memory. The dev server uses it as its
// only store.
type FakeGrantRepo struct {
	mu     sync.RWMutex
	grants map[string]refresh.Grant
	byUser map[int]map[string]struct{}
}

func NewFakeGrantRepo() *FakeGrantRepo {
	return &FakeGrantRepo{
		grants: make(map[string]refresh.Grant),
		byUser: make(map[int]map[string]struct{}),
	}
}

func (r *FakeGrantRepo) Save(grant *refresh.Grant) error {
	if grant == nil || grant.Token == "" {
		return errors.ErrInvalidRefreshToken
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.grants[grant.Token] = *grant
	tokens, ok := r.byUser[grant.UserID]
	if !ok {
		tokens = make(map[string]struct{})
		r.byUser[grant.UserID] = tokens
	}
	tokens[grant.Token] = struct{}{}
	return nil
}

func (r *FakeGrantRepo) Get(token string) (*refresh.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	grant, ok := r.grants[token]
	if !ok {
		return nil, errors.ErrNotFound
	}
	return &grant, nil
}

func (r *FakeGrantRepo) Delete(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	grant, ok := r.grants[token]
	if !ok {
		return errors.ErrNotFound
	}
	delete(r.grants, token)
	if tokens := r.byUser[grant.UserID]; tokens != nil {
		delete(tokens, token)
		if len(tokens) == 0 {
			delete(r.byUser, grant.UserID)
		}
	}
	return nil
}

// DeleteForUser drops every grant held by userID and reports how many went.
func (r *FakeGrantRepo) DeleteForUser(userID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokens := r.byUser[userID]
	for tok := range tokens {
		delete(r.grants, tok)
	}
	delete(r.byUser, userID)
	return len(tokens), nil
}

// Count returns the number of live grants for userID.
func (r *FakeGrantRepo) Count(userID int) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID])
}
