package client

import (
	"context"

	"github.com/dmitrijs2005/ustory/internal/client/models"
)

// Client is the remote story API.
type Client interface {
	Register(ctx context.Context, name, email, password string) error
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Ping(ctx context.Context) error

	ListStories(ctx context.Context, withLocation bool) ([]models.Story, error)
	GetStory(ctx context.Context, id string) (*models.Story, error)
	CreateStory(ctx context.Context, s models.NewStory) error
	DeleteStory(ctx context.Context, id string) error

	Subscribe(ctx context.Context, sub models.PushSubscription) error
	Unsubscribe(ctx context.Context, endpoint string) error
}

// TokenSource yields the bearer token of the current session. It returns
// common.ErrNoToken when nobody is signed in.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}
