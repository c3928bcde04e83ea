package yggdrasil

import (
	"context"

	"github.com/uptrace/bun"
)

// CreateSchema creates the service tables when they do not exist yet.
// Dependency order matters: profiles reference textures and users, tokens
// reference both.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*Texture)(nil),
		(*User)(nil),
		(*Profile)(nil),
		(*Token)(nil),
		(*AccountSetting)(nil),
	}

	for _, model := range models {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	return nil
}
