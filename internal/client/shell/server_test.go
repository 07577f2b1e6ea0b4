package shell

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/dmitrijs2005/ustory/internal/client/push"
	"github.com/dmitrijs2005/ustory/internal/client/storage"
	"github.com/dmitrijs2005/ustory/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const origin = "http://127.0.0.1:8080"

type fakeSubAPI struct {
	mu  sync.Mutex
	err error
	got []models.PushSubscription
}

func (f *fakeSubAPI) Subscribe(_ context.Context, sub models.PushSubscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, sub)
	return f.err
}

func (f *fakeSubAPI) Unsubscribe(context.Context, string) error { return nil }

func (f *fakeSubAPI) calls() []models.PushSubscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.PushSubscription(nil), f.got...)
}

type fixture struct {
	srv *httptest.Server
	hub *push.Hub
	api *fakeSubAPI
	dir string
}

func newFixture(t *testing.T, apiBase string) *fixture {
	t.Helper()
	if apiBase == "" {
		apiBase = "http://api.invalid/v1"
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>UStory</h1>"), 0o600))

	store, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "ustory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	hub := push.NewHub()
	log := logging.Nop()
	bridge, err := push.NewBridge(origin, push.LogNotifier{Log: log}, hub, log)
	require.NoError(t, err)

	api := &fakeSubAPI{}
	o, _ := url.Parse(origin)
	s, err := New(Options{
		AppOrigin:  origin,
		APIBaseURL: apiBase,
		Transport:  &OriginTransport{Origin: o, Handler: Files(dir)},
		Hub:        hub,
		Bridge:     bridge,
		Subscribers: func(perm push.PermissionFunc) *push.Subscriber {
			return push.NewSubscriber(api, store, perm, log)
		},
		Log: log,
	})
	require.NoError(t, err)

	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return &fixture{srv: ts, hub: hub, api: api, dir: dir}
}

func get(t *testing.T, u string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func post(t *testing.T, u, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(u, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestServer_WorkerScript(t *testing.T) {
	f := newFixture(t, "")

	resp, body := get(t, f.srv.URL+"/sw.js")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Service-Worker-Allowed"))
	assert.Contains(t, body, "notificationclick")
}

func TestServer_ServesOriginFiles(t *testing.T) {
	f := newFixture(t, "")

	for _, p := range []string{"/", "/index.html"} {
		resp, body := get(t, f.srv.URL+p)
		assert.Equal(t, http.StatusOK, resp.StatusCode, p)
		assert.Equal(t, "<h1>UStory</h1>", body, p)
	}

	resp, _ := get(t, f.srv.URL+"/images/missing.png")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ProxiesAPI(t *testing.T) {
	var gotPath string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		_, _ = io.WriteString(w, `{"error":false,"listStory":[]}`)
	}))
	defer api.Close()

	f := newFixture(t, api.URL+"/v1")
	resp, body := get(t, f.srv.URL+"/api/stories?location=1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/v1/stories?location=1", gotPath)
	assert.Contains(t, body, "listStory")
}

func TestServer_ClickIsStreamedToMatchingPage(t *testing.T) {
	f := newFixture(t, "")

	resp, err := http.Get(f.srv.URL + "/__events?url=" + url.QueryEscape("/#/stories/1"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool {
		ws, _ := f.hub.Windows(context.Background())
		return len(ws) == 1
	}, 2*time.Second, 10*time.Millisecond)

	lines := make(chan string, 4)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if strings.HasPrefix(sc.Text(), "data: ") {
				lines <- sc.Text()
			}
		}
	}()

	click := post(t, f.srv.URL+"/__push/click", `{"options":{"data":{"url":"/#/stories/1"}}}`)
	assert.Equal(t, http.StatusAccepted, click.StatusCode)

	select {
	case line := <-lines:
		assert.Equal(t, `data: {"type":"PUSH_CLICK","url":"/#/stories/1"}`, line)
	case <-time.After(2 * time.Second):
		t.Fatal("no message on the event stream")
	}
}

func TestServer_ClickWithoutPageConflicts(t *testing.T) {
	f := newFixture(t, "")
	resp := post(t, f.srv.URL+"/__push/click", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestServer_PushAndChange(t *testing.T) {
	f := newFixture(t, "")
	assert.Equal(t, http.StatusAccepted, post(t, f.srv.URL+"/__push", "Ada story baru").StatusCode)
	assert.Equal(t, http.StatusAccepted, post(t, f.srv.URL+"/__push/change", "").StatusCode)
}

func TestServer_Subscribe(t *testing.T) {
	f := newFixture(t, "")
	sub := `{"endpoint":"https://push.example/1","keys":{"p256dh":"p","auth":"a"}}`

	resp := post(t, f.srv.URL+"/__push/subscribe", `{"permission":"denied","subscription":`+sub+`}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, f.api.calls())

	resp = post(t, f.srv.URL+"/__push/subscribe", `{"permission":"granted","subscription":{}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, f.srv.URL+"/__push/subscribe", `{"permission":"granted","subscription":`+sub+`}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"synced":true}`, string(body))
	got := f.api.calls()
	require.Len(t, got, 1)
	assert.Equal(t, "https://push.example/1", got[0].Endpoint)

	st, body2 := get(t, f.srv.URL+"/__push/status?permission=granted")
	assert.Equal(t, http.StatusOK, st.StatusCode)
	assert.JSONEq(t, `{"permission":"granted","subscribed":true,"endpoint":"https://push.example/1"}`, body2)

	resp = post(t, f.srv.URL+"/__push/unsubscribe", "")
	body, _ = io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"unsubscribed":true}`, string(body))
}

func TestOriginTransport_ForwardsOtherHosts(t *testing.T) {
	o, _ := url.Parse(origin)
	next := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("next called for " + r.URL.Host)
	})
	tr := &OriginTransport{Origin: o, Handler: http.NotFoundHandler(), Next: next}

	req := httptest.NewRequest(http.MethodGet, "http://elsewhere.test/x", nil)
	_, err := tr.RoundTrip(req)
	require.EqualError(t, err, "next called for elsewhere.test")

	req = httptest.NewRequest(http.MethodGet, origin+"/x", nil)
	resp, err := tr.RoundTrip(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Same(t, req, resp.Request)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
