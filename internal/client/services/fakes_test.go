package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/dmitrijs2005/ustory/internal/client/storage"
	"github.com/dmitrijs2005/ustory/internal/common"
	"github.com/stretchr/testify/require"
)

var errNetDown = errors.New("dial tcp: connection refused")

func newStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "ustory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) {
	if s == "" {
		return "", common.ErrNoToken
	}
	return string(s), nil
}

// fakeAPI implements client.Client. createErr decides the outcome of the
// n-th CreateStory call (0-based); nil means success.
type fakeAPI struct {
	mu        sync.Mutex
	created   []models.NewStory
	calls     int
	createErr func(n int, s models.NewStory) error
	onCreate  func()

	list    []models.Story
	listErr error

	session  *models.Session
	loginErr error
	pingErr  error
}

func (f *fakeAPI) CreateStory(ctx context.Context, s models.NewStory) error {
	if f.onCreate != nil {
		f.onCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.calls
	f.calls++
	if f.createErr != nil {
		if err := f.createErr(n, s); err != nil {
			return err
		}
	}
	f.created = append(f.created, s)
	return nil
}

func (f *fakeAPI) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeAPI) Register(ctx context.Context, name, email, password string) error { return nil }

func (f *fakeAPI) Login(ctx context.Context, email, password string) (*models.Session, error) {
	return f.session, f.loginErr
}

func (f *fakeAPI) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeAPI) ListStories(ctx context.Context, withLocation bool) ([]models.Story, error) {
	return f.list, f.listErr
}

func (f *fakeAPI) GetStory(ctx context.Context, id string) (*models.Story, error) {
	return nil, common.ErrNotFound
}

func (f *fakeAPI) DeleteStory(ctx context.Context, id string) error { return nil }

func (f *fakeAPI) Subscribe(ctx context.Context, sub models.PushSubscription) error { return nil }

func (f *fakeAPI) Unsubscribe(ctx context.Context, endpoint string) error { return nil }
