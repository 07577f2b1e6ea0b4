// Package storage is the durable local store of the UStory client.
//
// A Store owns one SQLite database with four collections: the cache of
// confirmed stories, the queue of pending writes, the user's favorites and a
// small metadata table. Every mutating operation runs inside dbx.WithTx so a
// failure leaves no partial write visible. Failures are reported wrapped
// with common.ErrStorage.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/ustory/internal/client/migrations"
	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/dmitrijs2005/ustory/internal/client/repositories/favorites"
	"github.com/dmitrijs2005/ustory/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/ustory/internal/client/repositories/pending"
	"github.com/dmitrijs2005/ustory/internal/client/repositories/stories"
	"github.com/dmitrijs2005/ustory/internal/common"
	"github.com/dmitrijs2005/ustory/internal/dbx"
	"github.com/dmitrijs2005/ustory/internal/filex"

	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies pending
// migrations. Opening an existing database is idempotent.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, common.StorageFailure("open", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.StorageFailure("open", err)
	}
	s, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already opened database and migrates it.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	// One connection serializes writers; SQLite would otherwise report
	// SQLITE_BUSY under concurrent transactions.
	db.SetMaxOpenConns(1)
	if _, err := migrations.Up(ctx, db); err != nil {
		return nil, common.StorageFailure("migrate", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// write runs fn in a transaction and tags any error with op.
func (s *Store) write(ctx context.Context, op string, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if err := dbx.WithTx(ctx, s.db, nil, fn); err != nil {
		return common.StorageFailure(op, err)
	}
	return nil
}

// ReplaceAllStories swaps the whole story cache for list. Readers see either
// the old or the new contents, never a mix.
func (s *Store) ReplaceAllStories(ctx context.Context, list []models.Story) error {
	return s.write(ctx, "replace stories", func(ctx context.Context, tx dbx.DBTX) error {
		repo := stories.NewSQLiteRepository(tx)
		if err := repo.Clear(ctx); err != nil {
			return err
		}
		for _, st := range list {
			if err := repo.Put(ctx, st); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetAllStories(ctx context.Context) ([]models.Story, error) {
	list, err := stories.NewSQLiteRepository(s.db).GetAll(ctx)
	if err != nil {
		return nil, common.StorageFailure("get stories", err)
	}
	return list, nil
}

// GetStory returns common.ErrNotFound when id is not cached.
func (s *Store) GetStory(ctx context.Context, id string) (*models.Story, error) {
	st, err := stories.NewSQLiteRepository(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, common.StorageFailure("get story", err)
	}
	return st, nil
}

func (s *Store) DeleteStory(ctx context.Context, id string) error {
	return s.write(ctx, "delete story", func(ctx context.Context, tx dbx.DBTX) error {
		return stories.NewSQLiteRepository(tx).DeleteByID(ctx, id)
	})
}

// PutPending upserts p by its TempID.
func (s *Store) PutPending(ctx context.Context, p models.PendingStory) error {
	return s.write(ctx, "put pending", func(ctx context.Context, tx dbx.DBTX) error {
		return pending.NewSQLiteRepository(tx).Put(ctx, p)
	})
}

func (s *Store) GetAllPending(ctx context.Context) ([]models.PendingStory, error) {
	list, err := pending.NewSQLiteRepository(s.db).GetAll(ctx)
	if err != nil {
		return nil, common.StorageFailure("get pending", err)
	}
	return list, nil
}

func (s *Store) DeletePending(ctx context.Context, tempID int64) error {
	return s.write(ctx, "delete pending", func(ctx context.Context, tx dbx.DBTX) error {
		return pending.NewSQLiteRepository(tx).DeleteByID(ctx, tempID)
	})
}

func (s *Store) CountPending(ctx context.Context) (int, error) {
	n, err := pending.NewSQLiteRepository(s.db).Count(ctx)
	if err != nil {
		return 0, common.StorageFailure("count pending", err)
	}
	return n, nil
}

// PutFavorite stores a copy of f with missing fields set to their defaults.
func (s *Store) PutFavorite(ctx context.Context, f models.Favorite) error {
	f = models.NormalizeFavorite(f, s.now())
	return s.write(ctx, "put favorite", func(ctx context.Context, tx dbx.DBTX) error {
		return favorites.NewSQLiteRepository(tx).Put(ctx, f)
	})
}

func (s *Store) RemoveFavorite(ctx context.Context, id string) error {
	return s.write(ctx, "remove favorite", func(ctx context.Context, tx dbx.DBTX) error {
		return favorites.NewSQLiteRepository(tx).Delete(ctx, id)
	})
}

func (s *Store) GetAllFavorites(ctx context.Context) ([]models.Favorite, error) {
	list, err := favorites.NewSQLiteRepository(s.db).GetAll(ctx)
	if err != nil {
		return nil, common.StorageFailure("get favorites", err)
	}
	return list, nil
}

func (s *Store) HasFavorite(ctx context.Context, id string) (bool, error) {
	ok, err := favorites.NewSQLiteRepository(s.db).Exists(ctx, id)
	if err != nil {
		return false, common.StorageFailure("has favorite", err)
	}
	return ok, nil
}

// GetMeta reads one metadata value; found is false for an absent key.
func (s *Store) GetMeta(ctx context.Context, key string) (value []byte, found bool, err error) {
	value, found, err = metadata.NewSQLiteRepository(s.db).Get(ctx, key)
	if err != nil {
		return nil, false, common.StorageFailure("get metadata", err)
	}
	return value, found, nil
}

// SetMeta writes all pairs atomically.
func (s *Store) SetMeta(ctx context.Context, pairs map[string][]byte) error {
	return s.write(ctx, "set metadata", func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).SetMany(ctx, pairs)
	})
}

func (s *Store) DeleteMeta(ctx context.Context, keys ...string) error {
	return s.write(ctx, "delete metadata", func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).Delete(ctx, keys...)
	})
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return common.StorageFailure("ping", s.db.PingContext(ctx))
}
