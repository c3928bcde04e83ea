package yggdrasil_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	yggdrasil "github.com/goliatone/go-yggdrasil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

func setupDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, yggdrasil.CreateSchema(context.Background(), db))

	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})

	return db
}

func seedUser(t *testing.T, db *bun.DB, email, password string) *yggdrasil.User {
	t.Helper()

	id := uuid.New()
	record := &yggdrasil.User{
		Email:    email,
		Password: password,
		UUID:     id[:],
	}

	_, err := db.NewInsert().Model(record).Exec(context.Background())
	require.NoError(t, err)
	return record
}

func seedTexture(t *testing.T, db *bun.DB, hash []byte, model yggdrasil.SkinModel) *yggdrasil.Texture {
	t.Helper()

	record := &yggdrasil.Texture{
		Hash:  hash,
		Model: model,
	}

	_, err := db.NewInsert().Model(record).Exec(context.Background())
	require.NoError(t, err)
	return record
}

func seedProfile(t *testing.T, db *bun.DB, owner *yggdrasil.User, name string, kind yggdrasil.UploadableKind, skin, cape *yggdrasil.Texture) *yggdrasil.Profile {
	t.Helper()

	id := uuid.New()
	record := &yggdrasil.Profile{
		DisplayName: name,
		UUID:        id[:],
		OwnerID:     owner.ID,
		Uploadable:  kind,
	}
	if skin != nil {
		record.SkinID = &skin.ID
		record.Skin = skin
	}
	if cape != nil {
		record.CapeID = &cape.ID
		record.Cape = cape
	}

	_, err := db.NewInsert().Model(record).Exec(context.Background())
	require.NoError(t, err)
	return record
}

func seedToken(t *testing.T, db *bun.DB, owner *yggdrasil.User, profile *yggdrasil.Profile, access, client string, status yggdrasil.TokenStatus, createdAt time.Time) *yggdrasil.Token {
	t.Helper()

	record := &yggdrasil.Token{
		AccessToken: access,
		ClientToken: client,
		OwnerID:     owner.ID,
		Status:      status,
		CreatedAt:   createdAt,
	}
	if profile != nil {
		record.ProfileID = &profile.ID
	}

	_, err := db.NewInsert().Model(record).Exec(context.Background())
	require.NoError(t, err)
	return record
}

func seedSetting(t *testing.T, db *bun.DB, owner *yggdrasil.User, maxTokens, refreshSec, invalidSec int64) {
	t.Helper()

	record := &yggdrasil.AccountSetting{
		UserID:         owner.ID,
		MaxTokens:      maxTokens,
		NeedRefreshSec: refreshSec,
		InvalidSec:     invalidSec,
	}

	_, err := db.NewInsert().Model(record).Exec(context.Background())
	require.NoError(t, err)
}

func tokenStatus(t *testing.T, db *bun.DB, id int64) yggdrasil.TokenStatus {
	t.Helper()

	record := &yggdrasil.Token{}
	err := db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Scan(context.Background())
	require.NoError(t, err)
	return record.Status
}

func countTokens(t *testing.T, db *bun.DB, ownerID int64) int {
	t.Helper()

	n, err := db.NewSelect().
		Model((*yggdrasil.Token)(nil)).
		Where("?TableAlias.owner_id = ?", ownerID).
		Count(context.Background())
	require.NoError(t, err)
	return n
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
