package yggdrasil_test

import (
	"context"
	"testing"

	yggdrasil "github.com/goliatone/go-yggdrasil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetByUserIDTx(t *testing.T) {
	db := setupDB(t)
	repo := yggdrasil.NewRepositoryManager(db)

	owner := seedUser(t, db, "steve@example.com", "hunter2")
	seedProfile(t, db, owner, "hero", yggdrasil.UploadableNone, nil, nil)

	user, err := repo.Users().GetByUserIDTx(context.Background(), db, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "steve@example.com", user.Email)
	assert.Len(t, user.Profiles, 1)

	missing, err := repo.Users().GetByUserIDTx(context.Background(), db, owner.ID+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
