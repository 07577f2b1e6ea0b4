package stories

import (
	"context"

	"github.com/dmitrijs2005/ustory/internal/client/models"
)

// Repository describes storage operations for confirmed stories.
type Repository interface {
	// Put inserts a story or replaces the stored one with the same ID.
	Put(ctx context.Context, s models.Story) error

	// Clear removes every story.
	Clear(ctx context.Context) error

	// GetAll returns all cached stories, newest first.
	GetAll(ctx context.Context) ([]models.Story, error)

	// GetByID returns one story or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Story, error)

	// DeleteByID removes a story. Deleting an absent id is not an error.
	DeleteByID(ctx context.Context, id string) error
}
