// Package favorites persists stories the user bookmarked. Entries are
// independent copies, so removing a story from the feed cache leaves the
// bookmark intact.
package favorites

import (
	"context"

	"github.com/dmitrijs2005/ustory/internal/client/models"
)

type Repository interface {
	Put(ctx context.Context, f models.Favorite) error
	Delete(ctx context.Context, id string) error
	GetAll(ctx context.Context) ([]models.Favorite, error)
	Exists(ctx context.Context, id string) (bool, error)
}
