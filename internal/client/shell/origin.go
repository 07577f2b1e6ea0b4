package shell

import (
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path"
	"strings"
)

// OriginTransport answers requests for Origin from Handler in process and
// sends everything else to Next.
type OriginTransport struct {
	Origin  *url.URL
	Handler http.Handler
	Next    http.RoundTripper
}

func (t *OriginTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != t.Origin.Scheme || req.URL.Host != t.Origin.Host {
		next := t.Next
		if next == nil {
			next = http.DefaultTransport
		}
		return next.RoundTrip(req)
	}
	if err := req.Context().Err(); err != nil {
		return nil, err
	}

	rec := httptest.NewRecorder()
	t.Handler.ServeHTTP(rec, req)
	resp := rec.Result()
	resp.Request = req
	return resp, nil
}

// Files serves the files under root. A path ending in "/" serves its
// index.html, and /index.html is served as is rather than redirected.
func Files(root string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		name := path.Clean("/" + r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/") {
			name = path.Join(name, "index.html")
		}

		f, err := http.Dir(root).Open(name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrPermission) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}
