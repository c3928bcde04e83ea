package yggdrasil

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
)

// AccountSettings reads per-account policy overrides. A missing row means
// the process-wide defaults apply, so absence is nil, not an error.
type AccountSettings interface {
	GetByUserTx(ctx context.Context, tx bun.IDB, userID int64) (*AccountSetting, error)
}

type accountSettings struct {
	db *bun.DB
}

var _ AccountSettings = (*accountSettings)(nil)

func NewAccountSettingsRepository(db *bun.DB) AccountSettings {
	return &accountSettings{db: db}
}

func (r *accountSettings) GetByUserTx(ctx context.Context, tx bun.IDB, userID int64) (*AccountSetting, error) {
	record := &AccountSetting{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
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
