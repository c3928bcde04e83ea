package yggdrasil

import (
	"context"
	"database/sql"
	"errors"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profiles resolves in-game identities. Finders load the skin and cape
// relations because every caller that resolves a profile also presents it.
// Absence is reported as nil, not an error; callers decide what a missing
// profile means.
type Profiles interface {
	repository.Repository[*Profile]

	GetByDisplayNameTx(ctx context.Context, tx bun.IDB, displayName string) (*Profile, error)
	GetByUUIDTx(ctx context.Context, tx bun.IDB, id []byte) (*Profile, error)
	ListByOwnerTx(ctx context.Context, tx bun.IDB, ownerID int64) ([]*Profile, error)
}

type profiles struct {
	repository.Repository[*Profile]
	db *bun.DB
}

var _ Profiles = (*profiles)(nil)

func NewProfilesRepository(db *bun.DB) Profiles {
	repo := repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			id, err := uuid.FromBytes(p.UUID)
			if err != nil {
				return uuid.Nil
			}
			return id
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.UUID = id[:]
			}
		},
		GetIdentifier: func() string {
			return "display_name"
		},
	})

	return &profiles{
		Repository: repo,
		db:         db,
	}
}

func (r *profiles) GetByDisplayNameTx(ctx context.Context, tx bun.IDB, displayName string) (*Profile, error) {
	record := &Profile{}
	err := tx.NewSelect().
		Model(record).
		Relation("Skin").
		Relation("Cape").
		Where("?TableAlias.display_name = ?", displayName).
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

func (r *profiles) GetByUUIDTx(ctx context.Context, tx bun.IDB, id []byte) (*Profile, error) {
	if len(id) == 0 {
		return nil, nil
	}

	record := &Profile{}
	err := tx.NewSelect().
		Model(record).
		Relation("Skin").
		Relation("Cape").
		Where("?TableAlias.uuid = ?", id).
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

func (r *profiles) ListByOwnerTx(ctx context.Context, tx bun.IDB, ownerID int64) ([]*Profile, error) {
	var records []*Profile
	err := tx.NewSelect().
		Model(&records).
		Relation("Skin").
		Relation("Cape").
		Where("?TableAlias.owner_id = ?", ownerID).
		OrderExpr("?TableAlias.id ASC").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*Profile{}, nil
		}
		return nil, err
	}
	return records, nil
}
