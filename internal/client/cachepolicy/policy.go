package cachepolicy

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/ustory/internal/logging"
)

// Config names the hosts, paths and cache generations the policy works with.
type Config struct {
	// AppOrigin is the origin the app shell is served from.
	AppOrigin string
	// APIBaseURL is the story API root; its host and its path + "/stories"
	// select the cache-first and network-first classes.
	APIBaseURL string

	AppShellCache string
	RuntimeCache  string

	PrecacheURLs  []string
	ShellDocument string
	FallbackImage string
	// SelfPath is never intercepted.
	SelfPath string
	DevMode  bool
}

func DefaultConfig() Config {
	return Config{
		AppOrigin:     "http://127.0.0.1:8080",
		APIBaseURL:    "https://story-api.dicoding.dev/v1",
		AppShellCache: "ustory-static-v1",
		RuntimeCache:  "ustory-runtime-v1",
		PrecacheURLs: []string{
			"/", "/index.html", "/images/logo.png", "/images/favicon.png", "/manifest.webmanifest",
		},
		ShellDocument: "/index.html",
		FallbackImage: "/images/logo.png",
		SelfPath:      "/sw.js",
	}
}

var offlineJSON = []byte(`{"offline":true}`)

const offlineHTML = "<h1>Offline</h1>"

// Policy is an http.RoundTripper applying the caching strategies on top of
// the next transport.
type Policy struct {
	cfg   Config
	store Storage
	next  http.RoundTripper
	log   logging.Logger
	now   func() time.Time

	origin    *url.URL
	apiHost   string
	apiPrefix string
}

// New returns a policy over next. A nil next means http.DefaultTransport.
func New(cfg Config, store Storage, next http.RoundTripper, log logging.Logger) (*Policy, error) {
	origin, err := url.Parse(cfg.AppOrigin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("invalid app origin %q", cfg.AppOrigin)
	}
	api, err := url.Parse(cfg.APIBaseURL)
	if err != nil || api.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", cfg.APIBaseURL)
	}
	if cfg.AppShellCache == "" || cfg.RuntimeCache == "" || cfg.AppShellCache == cfg.RuntimeCache {
		return nil, fmt.Errorf("cache generation names must be set and distinct")
	}
	if next == nil {
		next = http.DefaultTransport
	}
	return &Policy{
		cfg:       cfg,
		store:     store,
		next:      next,
		log:       log,
		now:       time.Now,
		origin:    origin,
		apiHost:   api.Hostname(),
		apiPrefix: strings.TrimRight(api.Path, "/") + "/stories",
	}, nil
}

func (p *Policy) RoundTrip(req *http.Request) (*http.Response, error) {
	strategy := p.Classify(req)
	p.log.Debug(req.Context(), "request classified", "url", req.URL.String(), "strategy", strategy.String())

	switch strategy {
	case CacheFirst:
		return p.cacheFirst(req)
	case NetworkFirst:
		return p.networkFirst(req)
	case Navigation:
		return p.navigation(req)
	case SameOrigin:
		return p.sameOriginFetch(req)
	default:
		return p.next.RoundTrip(req)
	}
}

// resolve turns an app-relative path into an absolute URL on the app origin.
func (p *Policy) resolve(ref string) string {
	u, err := p.origin.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

func (p *Policy) cacheFirst(req *http.Request) (*http.Response, error) {
	if resp := p.fromCache(req, p.cfg.RuntimeCache); resp != nil {
		return resp, nil
	}
	if resp, err := p.fetchAndKeep(req, p.cfg.RuntimeCache); err == nil {
		return resp, nil
	}
	if p.cfg.FallbackImage != "" {
		if snap := p.match(req.Context(), p.resolve(p.cfg.FallbackImage)); snap != nil {
			return snap.response(req, SourceFallback), nil
		}
	}
	return synthesize(req, http.StatusGatewayTimeout, "", nil), nil
}

func (p *Policy) networkFirst(req *http.Request) (*http.Response, error) {
	resp, err := p.fetchAndKeep(req, p.cfg.RuntimeCache)
	if err == nil {
		return resp, nil
	}
	if snap := p.match(req.Context(), req.URL.String()); snap != nil {
		return snap.response(req, SourceCache), nil
	}
	return synthesize(req, http.StatusOK, "application/json", offlineJSON), nil
}

func (p *Policy) navigation(req *http.Request) (*http.Response, error) {
	resp, err := p.next.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	p.log.Info(req.Context(), "navigation offline, serving app shell", "url", req.URL.String(), "error", err)
	if snap := p.match(req.Context(), p.resolve(p.cfg.ShellDocument)); snap != nil {
		return snap.response(req, SourceCache), nil
	}
	return synthesize(req, http.StatusOK, "text/html; charset=utf-8", []byte(offlineHTML)), nil
}

func (p *Policy) sameOriginFetch(req *http.Request) (*http.Response, error) {
	if resp := p.fromCache(req, p.cfg.RuntimeCache); resp != nil {
		return resp, nil
	}
	if resp, err := p.fetchAndKeep(req, p.cfg.RuntimeCache); err == nil {
		return resp, nil
	}
	return synthesize(req, http.StatusGatewayTimeout, "", nil), nil
}

func (p *Policy) fromCache(req *http.Request, cache string) *http.Response {
	snap, err := p.store.Get(cache, cacheKey(http.MethodGet, req.URL.String()))
	if err != nil {
		p.log.Warn(req.Context(), "cache read failed", "cache", cache, "url", req.URL.String(), "error", err)
		return nil
	}
	if snap == nil {
		return nil
	}
	return snap.response(req, SourceCache)
}

func (p *Policy) match(ctx context.Context, rawURL string) *Snapshot {
	snap, err := p.store.Match(cacheKey(http.MethodGet, rawURL))
	if err != nil {
		p.log.Warn(ctx, "cache match failed", "url", rawURL, "error", err)
		return nil
	}
	return snap
}

// fetchAndKeep sends req and stores a copy of a 2xx answer in cache. A
// non-2xx answer is returned but not stored. Only transport failures are
// errors.
func (p *Policy) fetchAndKeep(req *http.Request, cache string) (*http.Response, error) {
	resp, err := p.next.RoundTrip(req)
	if err != nil {
		p.log.Debug(req.Context(), "network failed", "url", req.URL.String(), "error", err)
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, nil
	}
	if resp.Request == nil {
		resp.Request = req
	}

	snap, resp, err := snapshotOf(resp, p.now())
	if err != nil {
		return nil, err
	}
	if err := p.store.Put(cache, cacheKey(http.MethodGet, req.URL.String()), snap); err != nil {
		p.log.Warn(req.Context(), "cache write failed", "cache", cache, "url", req.URL.String(), "error", err)
	}
	return resp, nil
}
