package metadata

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/ustory/internal/client/sqlitetest"
	"github.com/dmitrijs2005/ustory/internal/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_AbsentKey(t *testing.T) {
	r := NewSQLiteRepository(sqlitetest.New(t))

	v, found, err := r.Get(context.Background(), "token")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, v)
}

func TestSet_UpsertAndEmptyValue(t *testing.T) {
	r := NewSQLiteRepository(sqlitetest.New(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "token", []byte("old")))
	require.NoError(t, r.Set(ctx, "token", []byte("new")))
	v, found, err := r.Get(ctx, "token")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("new"), v)

	// nil is stored as an empty value, distinguishable from an absent key.
	require.NoError(t, r.Set(ctx, "name", nil))
	_, found, err = r.Get(ctx, "name")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestSetManyInTx_RollsBackTogether(t *testing.T) {
	db := sqlitetest.New(t)
	ctx := context.Background()

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := NewSQLiteRepository(tx).SetMany(ctx, map[string][]byte{
			"token": []byte("t"), "user_id": []byte("u"),
		}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	m, err := NewSQLiteRepository(db).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestDeleteAndList(t *testing.T) {
	r := NewSQLiteRepository(sqlitetest.New(t))
	ctx := context.Background()

	require.NoError(t, r.SetMany(ctx, map[string][]byte{
		"token": {0x01}, "user_id": {0x02}, "name": {0x03},
	}))
	require.NoError(t, r.Delete(ctx, "token", "user_id", "missing"))

	m, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"name": {0x03}}, m)
}

func TestDBErrorsWrapped(t *testing.T) {
	db := sqlitetest.New(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, _, err := r.Get(ctx, "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get metadata[k]")

	err = r.Set(ctx, "k", []byte("v"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to set metadata[k]")

	err = r.Delete(ctx, "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete metadata[k]")

	_, err = r.List(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list metadata")
}
