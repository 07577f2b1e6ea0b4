package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ustory/internal/client/client"
	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/dmitrijs2005/ustory/internal/common"
	"github.com/dmitrijs2005/ustory/internal/logging"
)

// Feed is the result of a refresh. FromCache is set when the list comes from
// the local store because the API could not be reached; Err then holds the
// reason.
type Feed struct {
	Stories   []models.Story
	FromCache bool
	Err       error
}

type StoryService struct {
	client client.Client
	store  StoryStore
	log    logging.Logger
}

func NewStoryService(client client.Client, store StoryStore, log logging.Logger) *StoryService {
	return &StoryService{client: client, store: store, log: log}
}

// Refresh fetches the story list. A fresh list replaces the local cache; on
// any remote failure the cached list is returned instead and the cache is
// left untouched.
func (s *StoryService) Refresh(ctx context.Context, withLocation bool) (*Feed, error) {
	list, err := s.client.ListStories(ctx, withLocation)
	if err == nil {
		if serr := s.store.ReplaceAllStories(ctx, list); serr != nil {
			s.log.Warn(ctx, "story cache not updated", "error", serr)
		}
		return &Feed{Stories: list}, nil
	}

	s.log.Warn(ctx, "fetch stories failed, using local cache", "error", err)
	cached, cerr := s.store.GetAllStories(ctx)
	if cerr != nil {
		return nil, errors.Join(err, cerr)
	}
	return &Feed{Stories: cached, FromCache: true, Err: err}, nil
}

func (s *StoryService) Cached(ctx context.Context) ([]models.Story, error) {
	return s.store.GetAllStories(ctx)
}

// Forget removes a story from the local cache only.
func (s *StoryService) Forget(ctx context.Context, id string) error {
	return s.store.DeleteStory(ctx, id)
}

// ToggleFavorite bookmarks the cached story id, or removes the bookmark if
// it already exists. It reports the new state.
func (s *StoryService) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	fav, err := s.store.HasFavorite(ctx, id)
	if err != nil {
		return false, err
	}
	if fav {
		return false, s.store.RemoveFavorite(ctx, id)
	}
	return true, s.AddFavorite(ctx, id)
}

// AddFavorite copies the cached story id into favorites.
func (s *StoryService) AddFavorite(ctx context.Context, id string) error {
	st, err := s.store.GetStory(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("story %s is not in the local cache: %w", id, err)
		}
		return err
	}
	return s.store.PutFavorite(ctx, models.Favorite(*st))
}

func (s *StoryService) RemoveFavorite(ctx context.Context, id string) error {
	return s.store.RemoveFavorite(ctx, id)
}

func (s *StoryService) Favorites(ctx context.Context) ([]models.Favorite, error) {
	return s.store.GetAllFavorites(ctx)
}
