package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/dmitrijs2005/ustory/internal/common"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "ustory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleStories() []models.Story {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	return []models.Story{
		{ID: "story-a", Name: "Ayu", Description: "morning", PhotoURL: "https://x/a.jpg", CreatedAt: base},
		{ID: "story-b", Name: "Budi", Description: "noon", CreatedAt: base.Add(3 * time.Hour),
			Lat: models.Float(-6.9), Lon: models.Float(107.6)},
		{ID: "story-c", Name: "Citra", Description: "night", CreatedAt: base.Add(12 * time.Hour)},
	}
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ustory.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.PutPending(ctx, models.PendingStory{TempID: 1, Description: "kept", CreatedAt: time.Now()}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	list, err := s.GetAllPending(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "kept", list[0].Description)
}

func TestReplaceAllStories_RoundTripMultiset(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAllStories(ctx, []models.Story{{ID: "stale", CreatedAt: time.Now()}}))

	want := sampleStories()
	require.NoError(t, s.ReplaceAllStories(ctx, want))

	got, err := s.GetAllStories(ctx)
	require.NoError(t, err)
	byID := cmpopts.SortSlices(func(a, b models.Story) bool { return a.ID < b.ID })
	if diff := cmp.Diff(want, got, byID); diff != "" {
		t.Fatalf("stories mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, s.ReplaceAllStories(ctx, nil))
	got, err = s.GetAllStories(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReplaceAllStories_FailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := &Store{db: db, now: time.Now}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM stories").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO stories").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO stories").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = s.ReplaceAllStories(context.Background(), sampleStories())
	require.ErrorIs(t, err, common.ErrStorage)
	assert.Contains(t, err.Error(), "disk full")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceAllStories_CancelledKeepsOldContents(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	old := sampleStories()
	require.NoError(t, s.ReplaceAllStories(ctx, old))

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	err := s.ReplaceAllStories(cctx, []models.Story{{ID: "new", CreatedAt: time.Now()}})
	require.Error(t, err)

	got, err := s.GetAllStories(ctx)
	require.NoError(t, err)
	assert.Len(t, got, len(old))
}

func TestDeleteStory_Idempotent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceAllStories(ctx, sampleStories()))

	require.NoError(t, s.DeleteStory(ctx, "story-b"))
	require.NoError(t, s.DeleteStory(ctx, "story-b"))

	_, err := s.GetStory(ctx, "story-b")
	require.ErrorIs(t, err, common.ErrNotFound)

	st, err := s.GetStory(ctx, "story-a")
	require.NoError(t, err)
	assert.Equal(t, "Ayu", st.Name)
}

func TestDeletePending_TwiceLeavesCollectionUnchanged(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.PutPending(ctx, models.PendingStory{TempID: 1, Description: "one", CreatedAt: now}))
	require.NoError(t, s.PutPending(ctx, models.PendingStory{TempID: 2, Description: "two", CreatedAt: now}))

	require.NoError(t, s.DeletePending(ctx, 1))
	before, err := s.GetAllPending(ctx)
	require.NoError(t, err)

	require.NoError(t, s.DeletePending(ctx, 1))
	after, err := s.GetAllPending(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Fatalf("second delete changed the queue (-before +after):\n%s", diff)
	}

	n, err := s.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPutFavorite_NormalizesDefaults(t *testing.T) {
	s := openStore(t)
	fixed := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	require.NoError(t, s.PutFavorite(ctx, models.Favorite{ID: "story-x"}))

	ok, err := s.HasFavorite(ctx, "story-x")
	require.NoError(t, err)
	assert.True(t, ok)

	all, err := s.GetAllFavorites(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, models.DefaultFavoriteName, all[0].Name)
	assert.Equal(t, "", all[0].Description)
	assert.Nil(t, all[0].Lat)
	assert.True(t, fixed.Equal(all[0].CreatedAt))

	require.NoError(t, s.RemoveFavorite(ctx, "story-x"))
	require.NoError(t, s.RemoveFavorite(ctx, "story-x"))
	ok, err = s.HasFavorite(ctx, "story-x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFavoritesIndependentOfStories(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	list := sampleStories()
	require.NoError(t, s.ReplaceAllStories(ctx, list))
	require.NoError(t, s.PutFavorite(ctx, models.Favorite(list[0])))

	require.NoError(t, s.ReplaceAllStories(ctx, nil))

	ok, err := s.HasFavorite(ctx, list[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMeta(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetMeta(ctx, map[string][]byte{"token": []byte("abc"), "name": []byte("Dimas")}))
	v, found, err := s.GetMeta(ctx, "token")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("abc"), v)

	require.NoError(t, s.DeleteMeta(ctx, "token", "name"))
	_, found, err = s.GetMeta(ctx, "token")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClosedStore_ReportsStorageError(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Close())

	_, err := s.GetAllPending(ctx)
	require.ErrorIs(t, err, common.ErrStorage)

	err = s.PutPending(ctx, models.PendingStory{TempID: 1, Description: "x", CreatedAt: time.Now()})
	require.ErrorIs(t, err, common.ErrStorage)

	require.ErrorIs(t, s.Ping(ctx), common.ErrStorage)
}
