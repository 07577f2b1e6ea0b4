package favorites

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/dmitrijs2005/ustory/internal/client/sqlitetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutExistsDelete(t *testing.T) {
	r := NewSQLiteRepository(sqlitetest.New(t))
	ctx := context.Background()

	ok, err := r.Exists(ctx, "story-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Put(ctx, models.Favorite{ID: "story-1", Name: "Anonim", CreatedAt: time.Now()}))
	ok, err = r.Exists(ctx, "story-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, r.Delete(ctx, "story-1"))
	require.NoError(t, r.Delete(ctx, "story-1"))
	ok, err = r.Exists(ctx, "story-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetAll_NewestFirstWithLocation(t *testing.T) {
	r := NewSQLiteRepository(sqlitetest.New(t))
	ctx := context.Background()
	base := time.Date(2026, 5, 5, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.Put(ctx, models.Favorite{ID: "a", Name: "A", CreatedAt: base}))
	require.NoError(t, r.Put(ctx, models.Favorite{ID: "b", Name: "B", CreatedAt: base.Add(time.Hour),
		Lat: models.Float(1.5), Lon: models.Float(-2.5)}))

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)
	require.NotNil(t, all[0].Lat)
	assert.InDelta(t, 1.5, *all[0].Lat, 1e-9)
	assert.InDelta(t, -2.5, *all[0].Lon, 1e-9)
	assert.Nil(t, all[1].Lat)
}

func TestPut_Upserts(t *testing.T) {
	r := NewSQLiteRepository(sqlitetest.New(t))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, r.Put(ctx, models.Favorite{ID: "a", Name: "old", CreatedAt: now}))
	require.NoError(t, r.Put(ctx, models.Favorite{ID: "a", Name: "new", CreatedAt: now}))

	all, err := r.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "new", all[0].Name)
}

func TestDBErrorsWrapped(t *testing.T) {
	db := sqlitetest.New(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := r.Exists(ctx, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to look up favorite x")

	err = r.Delete(ctx, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete favorite x")
}
