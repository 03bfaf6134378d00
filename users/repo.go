package users

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups when no principal matches
var ErrNotFound = errors.New("principal not found")

// PrincipalRepo is the read side the session layer needs
type PrincipalRepo interface {
	GetByID(ctx context.Context, id string) (*Principal, error)
	GetByEmail(ctx context.Context, email string) (*Principal, error)
}

type Repo interface {
	PrincipalRepo
	Upsert(ctx context.Context, principal *Principal) error
}
