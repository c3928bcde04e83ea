package yggdrasil

import (
	"context"
	"database/sql"
	"errors"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users reads accounts. Accounts are provisioned out-of-band, so the bespoke
// surface is lookup only; the embedded generic repository covers maintenance
// tooling.
type Users interface {
	repository.Repository[*User]

	GetByCredentials(ctx context.Context, email, password string) (*User, error)
	GetByCredentialsTx(ctx context.Context, tx bun.IDB, email, password string) (*User, error)
	GetByUserIDTx(ctx context.Context, tx bun.IDB, id int64) (*User, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			id, err := uuid.FromBytes(u.UUID)
			if err != nil {
				return uuid.Nil
			}
			return id
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.UUID = id[:]
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (r *users) GetByCredentials(ctx context.Context, email, password string) (*User, error) {
	return r.GetByCredentialsTx(ctx, r.db, email, password)
}

// GetByCredentialsTx matches an account by email and password equality. The
// password is part of the match predicate, not a separate verification step;
// absence of a match is reported as nil, not an error.
func (r *users) GetByCredentialsTx(ctx context.Context, tx bun.IDB, email, password string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Relation("Profiles").
		Where("?TableAlias.email = ?", email).
		Where("?TableAlias.password = ?", password).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// GetByUserIDTx resolves an account by its row id. Named apart from the
// generic repository's uuid-keyed GetByIDTx, which the embedded interface
// already provides.
func (r *users) GetByUserIDTx(ctx context.Context, tx bun.IDB, id int64) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Relation("Profiles").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}
