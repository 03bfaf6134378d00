package fakeuserrepo

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/storefront-sessions/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[string]*users.Principal
	emailIds map[string]string // email to principal id
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.Principal),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(_ context.Context, principal *users.Principal) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if principal.ID == "" {
		principal.ID = uuid.New().String()
	}
	stored := *principal
	ur.users[principal.ID] = &stored
	ur.emailIds[strings.ToLower(principal.Email)] = principal.ID
	return nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.Principal, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[strings.ToLower(email)]
	if !ok {
		return nil, users.ErrNotFound
	}
	p := *ur.users[id]
	return &p, nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.Principal, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	stored, ok := ur.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	p := *stored
	return &p, nil
}

// Delete removes a principal; used by tests to simulate a deleted account
func (ur *FakeUserRepo) Delete(id string) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if p, ok := ur.users[id]; ok {
		delete(ur.emailIds, strings.ToLower(p.Email))
		delete(ur.users, id)
	}
}
