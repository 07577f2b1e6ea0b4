package cachepolicy

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Snapshot is a stored response.
type Snapshot struct {
	URL      string      `json:"url"`
	Status   int         `json:"status"`
	Header   http.Header `json:"header"`
	Body     []byte      `json:"body"`
	StoredAt time.Time   `json:"storedAt"`
}

// cacheKey identifies a request inside a generation.
func cacheKey(method, url string) string {
	return method + " " + url
}

// snapshotOf reads resp fully and returns a snapshot plus a replacement
// response whose body can still be read by the caller.
func snapshotOf(resp *http.Response, now time.Time) (*Snapshot, *http.Response, error) {
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))

	snap := &Snapshot{
		URL:      resp.Request.URL.String(),
		Status:   resp.StatusCode,
		Header:   resp.Header.Clone(),
		Body:     body,
		StoredAt: now.UTC(),
	}
	return snap, resp, nil
}

// response rebuilds an *http.Response for req from s.
func (s *Snapshot) response(req *http.Request, source string) *http.Response {
	h := s.Header.Clone()
	if h == nil {
		h = http.Header{}
	}
	h.Set(HeaderSource, source)
	h.Set("Content-Length", strconv.Itoa(len(s.Body)))
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", s.Status, http.StatusText(s.Status)),
		StatusCode:    s.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(bytes.NewReader(s.Body)),
		ContentLength: int64(len(s.Body)),
		Request:       req,
	}
}

// HeaderSource tells where a response produced by the policy came from.
const HeaderSource = "X-Ustory-Source"

const (
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

// synthesize builds a response that never touched the network.
func synthesize(req *http.Request, status int, contentType string, body []byte) *http.Response {
	s := &Snapshot{Status: status, Header: http.Header{}, Body: body}
	if contentType != "" {
		s.Header.Set("Content-Type", contentType)
	}
	return s.response(req, SourceFallback)
}
