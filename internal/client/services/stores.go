package services

import (
	"context"

	"github.com/dmitrijs2005/ustory/internal/client/models"
)

// PendingStore is the pending-write collection.
type PendingStore interface {
	PutPending(ctx context.Context, p models.PendingStory) error
	GetAllPending(ctx context.Context) ([]models.PendingStory, error)
	DeletePending(ctx context.Context, tempID int64) error
}

// StoryStore is the confirmed-story cache plus favorites.
type StoryStore interface {
	ReplaceAllStories(ctx context.Context, list []models.Story) error
	GetAllStories(ctx context.Context) ([]models.Story, error)
	GetStory(ctx context.Context, id string) (*models.Story, error)
	DeleteStory(ctx context.Context, id string) error

	PutFavorite(ctx context.Context, f models.Favorite) error
	RemoveFavorite(ctx context.Context, id string) error
	GetAllFavorites(ctx context.Context) ([]models.Favorite, error)
	HasFavorite(ctx context.Context, id string) (bool, error)
}

// MetaStore is the key/value metadata collection.
type MetaStore interface {
	GetMeta(ctx context.Context, key string) ([]byte, bool, error)
	SetMeta(ctx context.Context, pairs map[string][]byte) error
	DeleteMeta(ctx context.Context, keys ...string) error
}
