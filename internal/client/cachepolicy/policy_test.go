package cachepolicy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/ustory/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOffline = errors.New("network is unreachable")

// fakeNet answers from a URL→body map and counts requests. With down set,
// every request fails.
type fakeNet struct {
	mu     sync.Mutex
	down   bool
	bodies map[string]string
	status map[string]int
	calls  map[string]int
}

func newFakeNet() *fakeNet {
	return &fakeNet{bodies: map[string]string{}, status: map[string]int{}, calls: map[string]int{}}
}

func (f *fakeNet) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := req.URL.String()
	f.calls[u]++
	if f.down {
		return nil, errOffline
	}
	body, ok := f.bodies[u]
	code := http.StatusOK
	if c, set := f.status[u]; set {
		code = c
	} else if !ok {
		code = http.StatusNotFound
	}
	return &http.Response{
		StatusCode: code,
		Header:     http.Header{"Content-Type": {"text/plain"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}, nil
}

func (f *fakeNet) setDown(v bool) {
	f.mu.Lock()
	f.down = v
	f.mu.Unlock()
}

func (f *fakeNet) count(u string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[u]
}

const (
	apiImage = "https://story-api.dicoding.dev/images/stories/photo-1.jpg"
	apiList  = "https://story-api.dicoding.dev/v1/stories?location=1"
	appRoot  = "http://127.0.0.1:8080"
)

func newPolicy(t *testing.T, cfg Config) (*Policy, *fakeNet, *BoltStorage) {
	t.Helper()
	store, err := OpenBolt(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	net := newFakeNet()
	p, err := New(cfg, store, net, logging.Nop())
	require.NoError(t, err)
	return p, net, store
}

func get(t *testing.T, rt http.RoundTripper, u string, hdr map[string]string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, u, nil)
	require.NoError(t, err)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

var image = map[string]string{HeaderFetchDest: "image"}

func TestClassify(t *testing.T) {
	p, _, _ := newPolicy(t, DefaultConfig())
	dev := DefaultConfig()
	dev.DevMode = true
	pd, _, _ := newPolicy(t, dev)

	tests := []struct {
		name   string
		policy *Policy
		method string
		url    string
		hdr    map[string]string
		want   Strategy
	}{
		{"post is never intercepted", p, http.MethodPost, "https://story-api.dicoding.dev/v1/stories", nil, Passthrough},
		{"own script", p, http.MethodGet, appRoot + "/sw.js", nil, Bypass},
		{"hot update outside dev mode", p, http.MethodGet, appRoot + "/main.hot-update.js", nil, SameOrigin},
		{"hot update in dev mode", pd, http.MethodGet, appRoot + "/main.hot-update.js", nil, Bypass},
		{"webpack channel", pd, http.MethodGet, appRoot + "/__webpack_hmr", nil, Bypass},
		{"ws exact", pd, http.MethodGet, appRoot + "/ws", nil, Bypass},
		{"ws prefix only", pd, http.MethodGet, appRoot + "/wsx", nil, SameOrigin},
		{"event stream", pd, http.MethodGet, appRoot + "/events", map[string]string{"Accept": "text/event-stream"}, Bypass},
		{"api image", p, http.MethodGet, apiImage, image, CacheFirst},
		{"api image without destination", p, http.MethodGet, apiImage, nil, Passthrough},
		{"api list", p, http.MethodGet, apiList, nil, NetworkFirst},
		{"api list even as image", p, http.MethodGet, apiList, image, CacheFirst},
		{"api login is not listing", p, http.MethodGet, "https://story-api.dicoding.dev/v1/login", nil, Passthrough},
		{"navigation", p, http.MethodGet, appRoot + "/#/add", map[string]string{HeaderFetchMode: "navigate"}, Navigation},
		{"cross-origin navigation", p, http.MethodGet, "https://example.com/", map[string]string{HeaderFetchMode: "navigate"}, Navigation},
		{"same-origin asset", p, http.MethodGet, appRoot + "/app.css", nil, SameOrigin},
		{"third-party asset", p, http.MethodGet, "https://unpkg.com/leaflet.css", nil, Passthrough},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, tt.url, nil)
			require.NoError(t, err)
			for k, v := range tt.hdr {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, tt.policy.Classify(req))
		})
	}
}

func TestCacheFirst_HitSkipsNetwork(t *testing.T) {
	p, net, _ := newPolicy(t, DefaultConfig())
	net.bodies[apiImage] = "jpeg-bytes"

	_, body := get(t, p, apiImage, image)
	assert.Equal(t, "jpeg-bytes", body)
	require.Equal(t, 1, net.count(apiImage))

	resp, body := get(t, p, apiImage, image)
	assert.Equal(t, "jpeg-bytes", body)
	assert.Equal(t, SourceCache, resp.Header.Get(HeaderSource))
	assert.Equal(t, 1, net.count(apiImage), "cache hit must not touch the network")
}

func TestCacheFirst_FallbackImageThen504(t *testing.T) {
	p, net, store := newPolicy(t, DefaultConfig())
	net.setDown(true)

	resp, body := get(t, p, apiImage, image)
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	assert.Empty(t, body)

	require.NoError(t, store.Put("ustory-static-v1", cacheKey(http.MethodGet, appRoot+"/images/logo.png"),
		&Snapshot{Status: 200, Header: http.Header{"Content-Type": {"image/png"}}, Body: []byte("logo")}))

	resp, body = get(t, p, apiImage, image)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "logo", body)
	assert.Equal(t, SourceFallback, resp.Header.Get(HeaderSource))
}

func TestNetworkFirst_AlwaysTriesNetworkEvenWhenCached(t *testing.T) {
	p, net, _ := newPolicy(t, DefaultConfig())
	net.bodies[apiList] = `{"listStory":[1]}`

	_, body := get(t, p, apiList, nil)
	assert.Equal(t, `{"listStory":[1]}`, body)

	net.bodies[apiList] = `{"listStory":[1,2]}`
	_, body = get(t, p, apiList, nil)
	assert.Equal(t, `{"listStory":[1,2]}`, body)
	assert.Equal(t, 2, net.count(apiList))

	net.setDown(true)
	resp, body := get(t, p, apiList, nil)
	assert.Equal(t, `{"listStory":[1,2]}`, body, "offline serves the last good copy")
	assert.Equal(t, SourceCache, resp.Header.Get(HeaderSource))
	assert.Equal(t, 3, net.count(apiList))
}

func TestNetworkFirst_OfflineWithoutCache(t *testing.T) {
	p, net, _ := newPolicy(t, DefaultConfig())
	net.setDown(true)

	resp, body := get(t, p, apiList, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"offline":true}`, body)
}

func TestNetworkFirst_ErrorStatusNotCached(t *testing.T) {
	p, net, store := newPolicy(t, DefaultConfig())
	net.status[apiList] = http.StatusInternalServerError

	resp, _ := get(t, p, apiList, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	snap, err := store.Get("ustory-runtime-v1", cacheKey(http.MethodGet, apiList))
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestNavigation_OfflineServesShell(t *testing.T) {
	p, net, store := newPolicy(t, DefaultConfig())
	nav := map[string]string{HeaderFetchMode: "navigate"}
	net.setDown(true)

	resp, body := get(t, p, appRoot+"/", nav)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<h1>Offline</h1>", body)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	require.NoError(t, store.Put("ustory-static-v1", cacheKey(http.MethodGet, appRoot+"/index.html"),
		&Snapshot{Status: 200, Body: []byte("<html>shell</html>")}))
	_, body = get(t, p, appRoot+"/about", nav)
	assert.Equal(t, "<html>shell</html>", body)
}

func TestSameOrigin_CacheThenNetworkThen504(t *testing.T) {
	p, net, _ := newPolicy(t, DefaultConfig())
	asset := appRoot + "/app.js"
	net.bodies[asset] = "console.log(1)"

	_, body := get(t, p, asset, nil)
	assert.Equal(t, "console.log(1)", body)
	net.setDown(true)
	_, body = get(t, p, asset, nil)
	assert.Equal(t, "console.log(1)", body)
	assert.Equal(t, 1, net.count(asset))

	resp, _ := get(t, p, appRoot+"/other.js", nil)
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}

func TestInstall_SkipsFailures(t *testing.T) {
	p, net, store := newPolicy(t, DefaultConfig())
	net.bodies[appRoot+"/"] = "root"
	net.bodies[appRoot+"/index.html"] = "shell"
	net.bodies[appRoot+"/images/logo.png"] = "logo"

	stored, err := p.Install(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stored)

	snap, err := store.Get("ustory-static-v1", cacheKey(http.MethodGet, appRoot+"/index.html"))
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, "shell", string(snap.Body))

	missing, err := store.Get("ustory-static-v1", cacheKey(http.MethodGet, appRoot+"/manifest.webmanifest"))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestActivate_RotatesGenerations(t *testing.T) {
	old := DefaultConfig()
	p, net, store := newPolicy(t, old)
	net.bodies[appRoot+"/index.html"] = "shell"
	_, err := p.Install(context.Background())
	require.NoError(t, err)
	net.bodies[apiList] = "[]"
	get(t, p, apiList, nil)
	require.NoError(t, store.Put("someone-else-v0", "GET x", &Snapshot{Status: 200}))

	next := old
	next.AppShellCache = "ustory-static-v2"
	next.RuntimeCache = "ustory-runtime-v2"
	p2, err := New(next, store, net, logging.Nop())
	require.NoError(t, err)
	_, err = p2.Install(context.Background())
	require.NoError(t, err)

	purged, err := p2.Activate(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ustory-static-v1", "ustory-runtime-v1", "someone-else-v0"}, purged)

	names, err := store.Caches()
	require.NoError(t, err)
	assert.Equal(t, []string{"ustory-static-v2"}, names, "runtime v2 has not been written yet")

	get(t, p2, apiList, nil)
	names, err = store.Caches()
	require.NoError(t, err)
	assert.Equal(t, []string{"ustory-runtime-v2", "ustory-static-v2"}, names)
}

func TestNew_ValidatesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RuntimeCache = cfg.AppShellCache
	_, err := New(cfg, nil, nil, logging.Nop())
	require.Error(t, err)

	cfg = DefaultConfig()
	cfg.AppOrigin = "not a url"
	_, err = New(cfg, nil, nil, logging.Nop())
	require.Error(t, err)
}
