package cachepolicy

import (
	"net/http"
	"strings"
)

// Strategy is the caching class of a request.
type Strategy int

const (
	Passthrough Strategy = iota
	Bypass
	CacheFirst
	NetworkFirst
	Navigation
	SameOrigin
)

func (s Strategy) String() string {
	switch s {
	case Bypass:
		return "bypass"
	case CacheFirst:
		return "cache-first"
	case NetworkFirst:
		return "network-first"
	case Navigation:
		return "navigation"
	case SameOrigin:
		return "same-origin"
	default:
		return "passthrough"
	}
}

// Browser fetch metadata headers carrying the request destination and mode.
const (
	HeaderFetchDest = "Sec-Fetch-Dest"
	HeaderFetchMode = "Sec-Fetch-Mode"
)

// Classify returns the strategy for req.
func (p *Policy) Classify(req *http.Request) Strategy {
	if req.Method != http.MethodGet {
		return Passthrough
	}
	u := req.URL

	if p.isBypass(req) {
		return Bypass
	}
	if strings.EqualFold(req.Header.Get(HeaderFetchDest), "image") && u.Hostname() == p.apiHost {
		return CacheFirst
	}
	if u.Hostname() == p.apiHost && strings.HasPrefix(u.Path, p.apiPrefix) {
		return NetworkFirst
	}
	if strings.EqualFold(req.Header.Get(HeaderFetchMode), "navigate") {
		return Navigation
	}
	if p.sameOrigin(req) {
		return SameOrigin
	}
	return Passthrough
}

func (p *Policy) isBypass(req *http.Request) bool {
	path := req.URL.Path
	if path == p.cfg.SelfPath {
		return true
	}
	if !p.cfg.DevMode {
		return false
	}
	return strings.Contains(path, "hot-update") ||
		strings.Contains(path, "sockjs") ||
		strings.HasPrefix(path, "/__webpack") ||
		strings.HasPrefix(path, "/webpack") ||
		strings.HasPrefix(path, "/hmr") ||
		path == "/ws" ||
		strings.Contains(req.Header.Get("Accept"), "text/event-stream")
}

func (p *Policy) sameOrigin(req *http.Request) bool {
	return strings.EqualFold(req.URL.Scheme, p.origin.Scheme) && strings.EqualFold(req.URL.Host, p.origin.Host)
}
