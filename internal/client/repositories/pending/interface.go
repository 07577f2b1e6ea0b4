package pending

import (
	"context"

	"github.com/dmitrijs2005/ustory/internal/client/models"
)

type Repository interface {
	Put(ctx context.Context, p models.PendingStory) error
	GetAll(ctx context.Context) ([]models.PendingStory, error)
	// GetByID returns common.ErrNotFound for an unknown temp id.
	GetByID(ctx context.Context, tempID int64) (*models.PendingStory, error)
	DeleteByID(ctx context.Context, tempID int64) error
	Count(ctx context.Context) (int, error)
}
