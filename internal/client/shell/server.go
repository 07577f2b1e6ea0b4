package shell

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/dmitrijs2005/ustory/internal/client/push"
	"github.com/dmitrijs2005/ustory/internal/common"
	"github.com/dmitrijs2005/ustory/internal/logging"
)

//go:embed sw.js
var workerScript []byte

const (
	// APIPrefix is the path under which the story API is proxied.
	APIPrefix  = "/api"
	maxPayload = 64 << 10
)

// Subscribers builds a push subscriber answering permission checks with
// perm.
type Subscribers func(perm push.PermissionFunc) *push.Subscriber

type Options struct {
	AppOrigin  string
	APIBaseURL string
	// SelfPath is where the worker script is served.
	SelfPath string
	// Transport carries proxied requests, normally the request-cache
	// policy.
	Transport   http.RoundTripper
	Hub         *push.Hub
	Bridge      *push.Bridge
	Subscribers Subscribers
	Log         logging.Logger
}

type Server struct {
	opts   Options
	origin *url.URL
	mux    *http.ServeMux
}

func New(opts Options) (*Server, error) {
	origin, err := url.Parse(opts.AppOrigin)
	if err != nil || origin.Host == "" {
		return nil, errors.New("invalid app origin " + opts.AppOrigin)
	}
	api, err := url.Parse(opts.APIBaseURL)
	if err != nil || api.Host == "" {
		return nil, errors.New("invalid api base url " + opts.APIBaseURL)
	}
	if opts.SelfPath == "" {
		opts.SelfPath = "/sw.js"
	}

	s := &Server{opts: opts, origin: origin, mux: http.NewServeMux()}

	s.mux.HandleFunc("GET "+opts.SelfPath, s.handleWorker)
	s.mux.HandleFunc("GET /__events", s.handleEvents)
	s.mux.HandleFunc("POST /__push", s.handlePush)
	s.mux.HandleFunc("POST /__push/click", s.handleClick)
	s.mux.HandleFunc("POST /__push/change", s.handleChange)
	s.mux.HandleFunc("POST /__push/subscribe", s.handleSubscribe)
	s.mux.HandleFunc("POST /__push/unsubscribe", s.handleUnsubscribe)
	s.mux.HandleFunc("GET /__push/status", s.handleStatus)
	s.mux.Handle(APIPrefix+"/", s.proxy(api, APIPrefix))
	s.mux.Handle("/", s.proxy(origin, ""))
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) proxy(target *url.URL, strip string) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			if strip != "" {
				pr.Out.URL.Path = strings.TrimPrefix(pr.Out.URL.Path, strip)
				pr.Out.URL.RawPath = ""
			}
			pr.SetURL(target)
		},
		Transport: s.opts.Transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.opts.Log.Warn(r.Context(), "proxy failed", "url", r.URL.String(), "error", err)
			w.WriteHeader(http.StatusBadGateway)
		},
	}
}

func (s *Server) handleWorker(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Service-Worker-Allowed", "/")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(workerScript)
}

// handleEvents attaches the calling page to the hub as a window showing the
// url query parameter and streams its messages until the client leaves.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	page := r.URL.Query().Get("url")
	if page == "" {
		page = "/"
	}
	abs, err := s.origin.Parse(page)
	if err != nil {
		http.Error(w, "bad url", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	_, detach := s.opts.Hub.Attach(abs.String(), w, flusher.Flush)
	defer detach()
	<-r.Context().Done()
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayload))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.opts.Bridge.HandlePush(r.Context(), payload); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayload))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.opts.Bridge.HandleClick(r.Context(), push.Normalize(payload)); err != nil {
		if errors.Is(err, push.ErrNoWindow) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleChange(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Bridge.HandleSubscriptionChange(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type subscribeRequest struct {
	Permission   push.Permission         `json:"permission"`
	Subscription models.PushSubscription `json:"subscription"`
}

func reported(p push.Permission) push.PermissionFunc {
	return func(context.Context) (push.Permission, error) { return p, nil }
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxPayload)).Decode(&req); err != nil {
		http.Error(w, "invalid subscription", http.StatusBadRequest)
		return
	}
	if req.Subscription.Endpoint == "" {
		http.Error(w, "endpoint is required", http.StatusBadRequest)
		return
	}

	synced, err := s.opts.Subscribers(reported(req.Permission)).Subscribe(r.Context(), req.Subscription)
	if err != nil {
		if errors.Is(err, common.ErrPermission) {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"synced": synced})
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	had, err := s.opts.Subscribers(push.Granted).Unsubscribe(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"unsubscribed": had})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	perm := push.Permission(r.URL.Query().Get("permission"))
	if perm == "" {
		perm = push.PermissionDefault
	}
	st, err := s.opts.Subscribers(reported(perm)).Status(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.opts.Log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
