package fakeuserrepo

import (
	"strings"
	"sync"

	"github.com/jrsteele09/readcomp/internal/errors"
	"github.com/jrsteele09/readcomp/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users     map[int]*users.User
	usernames map[string]int // lower-cased username to user id
	emails    map[string]int // lower-cased email to user id
	nextID    int
	lock      sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:     make(map[int]*users.User),
		usernames: make(map[string]int),
		emails:    make(map[string]int),
	}
}

func (ur *FakeUserRepo) Create(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.usernames[strings.ToLower(user.Username)]; ok {
		return errors.Wrapf(errors.ErrAlreadyExists, "username %s", user.Username)
	}
	if user.Email != "" {
		if _, ok := ur.emails[strings.ToLower(user.Email)]; ok {
			return errors.Wrapf(errors.ErrAlreadyExists, "email %s", user.Email)
		}
	}

	ur.nextID++
	user.ID = ur.nextID
	ur.store(user)
	return nil
}

func (ur *FakeUserRepo) Update(user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	existing, ok := ur.users[user.ID]
	if !ok {
		return errors.ErrUserNotFound
	}
	delete(ur.usernames, strings.ToLower(existing.Username))
	delete(ur.emails, strings.ToLower(existing.Email))
	ur.store(user)
	return nil
}

func (ur *FakeUserRepo) store(user *users.User) {
	stored := *user
	ur.users[user.ID] = &stored
	ur.usernames[strings.ToLower(user.Username)] = user.ID
	if user.Email != "" {
		ur.emails[strings.ToLower(user.Email)] = user.ID
	}
}

func (ur *FakeUserRepo) GetByID(id int) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[id]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	found := *u
	return &found, nil
}

func (ur *FakeUserRepo) GetByUsername(username string) (*users.User, error) {
	ur.lock.RLock()
	id, ok := ur.usernames[strings.ToLower(username)]
	ur.lock.RUnlock()
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	return ur.GetByID(id)
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.User, error) {
	ur.lock.RLock()
	id, ok := ur.emails[strings.ToLower(email)]
	ur.lock.RUnlock()
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	return ur.GetByID(id)
}

func (ur *FakeUserRepo) SetVerified(id int, verified bool) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return errors.ErrUserNotFound
	}
	u.Verified = verified
	if verified {
		u.VerifyToken = ""
	}
	return nil
}
