package yggdrasil

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
)

// Tokens persists issued session credentials. Everything here takes an
// explicit bun.IDB because token reads and writes only make sense inside the
// transaction that owns the login or refresh.
type Tokens interface {
	GetByAccessTokenTx(ctx context.Context, tx bun.IDB, accessToken, clientToken string) (*Token, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Token) (*Token, error)
	UpdateStatusTx(ctx context.Context, tx bun.IDB, id int64, status TokenStatus) error
	ListByOwnerAndStatusTx(ctx context.Context, tx bun.IDB, ownerID int64, status TokenStatus) ([]*Token, error)
	ListOwnerIDsTx(ctx context.Context, tx bun.IDB) ([]int64, error)
	DeleteByAccessTokenTx(ctx context.Context, tx bun.IDB, accessToken string) error
	DeleteByOwnerTx(ctx context.Context, tx bun.IDB, ownerID int64) error
}

type tokens struct {
	db *bun.DB
}

var _ Tokens = (*tokens)(nil)

func NewTokensRepository(db *bun.DB) Tokens {
	return &tokens{db: db}
}

// GetByAccessTokenTx resolves a token by access token, narrowed by client
// token when the caller supplies one. Multiple historic rows may share an
// access-token value only across distinct client tokens, so the bare lookup
// takes the first match. Absence is reported as nil.
func (r *tokens) GetByAccessTokenTx(ctx context.Context, tx bun.IDB, accessToken, clientToken string) (*Token, error) {
	record := &Token{}
	q := tx.NewSelect().
		Model(record).
		Relation("Owner").
		Relation("Profile").
		Relation("Profile.Skin").
		Relation("Profile.Cape").
		Where("?TableAlias.access_token = ?", accessToken)

	if clientToken != "" {
		q = q.Where("?TableAlias.client_token = ?", clientToken)
	}

	err := q.Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func (r *tokens) CreateTx(ctx context.Context, tx bun.IDB, record *Token) (*Token, error) {
	if record.Status == "" {
		record.Status = TokenAvailable
	}

	_, err := tx.NewInsert().
		Model(record).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *tokens) UpdateStatusTx(ctx context.Context, tx bun.IDB, id int64, status TokenStatus) error {
	_, err := tx.NewUpdate().
		Model((*Token)(nil)).
		Set("status = ?", status).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// ListByOwnerAndStatusTx returns the account's tokens in newest-first order,
// the order the lifecycle walk consumes the ceiling in.
func (r *tokens) ListByOwnerAndStatusTx(ctx context.Context, tx bun.IDB, ownerID int64, status TokenStatus) ([]*Token, error) {
	var records []*Token
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.owner_id = ?", ownerID).
		Where("?TableAlias.status = ?", status).
		OrderExpr("?TableAlias.created_at DESC, ?TableAlias.id DESC").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []*Token{}, nil
		}
		return nil, err
	}
	return records, nil
}

// ListOwnerIDsTx returns every account id that currently holds at least one
// token row, for maintenance sweeps.
func (r *tokens) ListOwnerIDsTx(ctx context.Context, tx bun.IDB) ([]int64, error) {
	var ids []int64
	err := tx.NewSelect().
		Model((*Token)(nil)).
		ColumnExpr("DISTINCT ?TableAlias.owner_id").
		Scan(ctx, &ids)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []int64{}, nil
		}
		return nil, err
	}
	return ids, nil
}

func (r *tokens) DeleteByAccessTokenTx(ctx context.Context, tx bun.IDB, accessToken string) error {
	_, err := tx.NewDelete().
		Model((*Token)(nil)).
		Where("access_token = ?", accessToken).
		Exec(ctx)
	return err
}

func (r *tokens) DeleteByOwnerTx(ctx context.Context, tx bun.IDB, ownerID int64) error {
	_, err := tx.NewDelete().
		Model((*Token)(nil)).
		Where("owner_id = ?", ownerID).
		Exec(ctx)
	return err
}
