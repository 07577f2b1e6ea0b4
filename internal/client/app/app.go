package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/ustory/internal/client/cachepolicy"
	"github.com/dmitrijs2005/ustory/internal/client/client"
	"github.com/dmitrijs2005/ustory/internal/client/config"
	"github.com/dmitrijs2005/ustory/internal/client/push"
	"github.com/dmitrijs2005/ustory/internal/client/services"
	"github.com/dmitrijs2005/ustory/internal/client/shell"
	"github.com/dmitrijs2005/ustory/internal/client/storage"
	"github.com/dmitrijs2005/ustory/internal/logging"
)

// ErrNoCache is returned by Serve when the request cache could not be
// opened, usually because another process holds it.
var ErrNoCache = errors.New("request cache unavailable")

type App struct {
	cfg      *config.Config
	log      logging.Logger
	store    *storage.Store
	cache    *cachepolicy.BoltStorage
	policy   *cachepolicy.Policy
	api      *client.HTTPClient
	registry *Registry

	Sessions  *services.Sessions
	Auth      services.AuthService
	Queue     *services.Queue
	Syncer    *services.Syncer
	Stories   *services.StoryService
	Submitter *services.Submitter
	Hub       *push.Hub
	Watcher   *Watcher
}

// New opens the local databases and wires the services. If the request
// cache is locked by another process the API is reached directly and Serve
// is unavailable.
func New(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	origin, err := url.Parse(cfg.AppOrigin)
	if err != nil || origin.Host == "" {
		return nil, fmt.Errorf("invalid app origin %q", cfg.AppOrigin)
	}

	store, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	a := &App{cfg: cfg, log: log, store: store, registry: NewRegistry(), Hub: push.NewHub()}

	var transport http.RoundTripper = http.DefaultTransport
	cache, err := cachepolicy.OpenBolt(cfg.CachePath)
	if err != nil {
		log.Warn(ctx, "request cache unavailable, going to the network directly", "path", cfg.CachePath, "error", err)
	} else {
		upstream := &shell.OriginTransport{Origin: origin, Handler: shell.Files(cfg.StaticDir), Next: http.DefaultTransport}
		policy, err := cachepolicy.New(policyConfig(cfg), cache, upstream, log.With("component", "cache"))
		if err != nil {
			_ = cache.Close()
			_ = store.Close()
			return nil, err
		}
		a.cache, a.policy = cache, policy
		transport = policy
	}

	a.Sessions = services.NewSessions(store)
	a.api = client.NewHTTPClient(cfg.APIBaseURL, transport, a.Sessions)
	a.Auth = services.NewAuthService(a.api, a.Sessions)
	a.Queue = services.NewQueue(store, log.With("component", "queue"))
	a.Syncer = services.NewSyncer(store, a.api, a.Sessions, log.With("component", "sync"))
	a.Stories = services.NewStoryService(a.api, store, log.With("component", "stories"))
	a.Submitter = services.NewSubmitter(a.api, a.Queue, log.With("component", "submit"))
	a.Watcher = NewWatcher(a.api, a.syncOnReconnect, log.With("component", "watcher"))
	return a, nil
}

func policyConfig(cfg *config.Config) cachepolicy.Config {
	pc := cachepolicy.DefaultConfig()
	pc.AppOrigin = cfg.AppOrigin
	pc.APIBaseURL = cfg.APIBaseURL
	pc.AppShellCache = cfg.AppShellCache
	pc.RuntimeCache = cfg.RuntimeCache
	pc.PrecacheURLs = cfg.PrecacheURLs
	pc.FallbackImage = cfg.FallbackImage
	pc.DevMode = cfg.DevMode
	return pc
}

// Subscriber returns a push subscriber that answers permission checks with
// perm.
func (a *App) Subscriber(perm push.PermissionFunc) *push.Subscriber {
	return push.NewSubscriber(a.api, a.store, perm, a.log.With("component", "push"))
}

// PendingCount is the number of queued stories.
func (a *App) PendingCount(ctx context.Context) (int, error) {
	return a.store.CountPending(ctx)
}

func (a *App) Close() error {
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	errs = append(errs, a.store.Close())
	return errors.Join(errs...)
}

func (a *App) syncOnReconnect(ctx context.Context) {
	res := a.Syncer.SyncPending(ctx)
	a.log.Info(ctx, "sync after reconnect", "synced", res.Synced, "total", res.Total, "error", res.Error)
}

// startCache precaches the app shell and drops stale cache generations.
func (a *App) startCache(ctx context.Context) error {
	if _, err := a.policy.Install(ctx); err != nil {
		return fmt.Errorf("install cache: %w", err)
	}
	if _, err := a.policy.Activate(ctx); err != nil {
		return fmt.Errorf("activate cache: %w", err)
	}
	return nil
}

// Serve listens on the configured address and runs until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.ListenAddr)
	if err != nil {
		return err
	}
	return a.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener, which it closes.
func (a *App) ServeListener(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	if a.policy == nil {
		return ErrNoCache
	}

	if _, err := a.registry.InitOnce(KeyCacheWorker, func() error { return a.startCache(ctx) }); err != nil {
		return err
	}

	res := a.Syncer.SyncPending(ctx)
	a.log.Info(ctx, "cold-start sync", "synced", res.Synced, "total", res.Total, "error", res.Error)

	// Background workers live as long as this call, so an early return
	// below stops them before waiting.
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	_, _ = a.registry.InitOnce(KeyWatcher, func() error {
		a.Watcher.Check(ctx)
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Watcher.Run(ctx, a.cfg.OnlineCheckInterval)
		}()
		return nil
	})

	var handler http.Handler
	ran, err := a.registry.InitOnce(KeyMessageListener, func() error {
		bridge, err := push.NewBridge(a.cfg.AppOrigin, push.LogNotifier{Log: a.log}, a.Hub, a.log.With("component", "push"))
		if err != nil {
			return err
		}
		srv, err := shell.New(shell.Options{
			AppOrigin:   a.cfg.AppOrigin,
			APIBaseURL:  a.cfg.APIBaseURL,
			Transport:   a.policy,
			Hub:         a.Hub,
			Bridge:      bridge,
			Subscribers: a.Subscriber,
			Log:         a.log.With("component", "shell"),
		})
		handler = srv
		return err
	})
	if err != nil {
		return err
	}
	if !ran {
		return errors.New("app shell is already being served")
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	a.log.Info(ctx, "serving app shell", "addr", ln.Addr().String(), "origin", a.cfg.AppOrigin)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	}
}
