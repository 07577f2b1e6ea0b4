package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/ustory/internal/client/models"
	"github.com/dmitrijs2005/ustory/internal/common"
)

const IdempotencyKeyHeader = "Idempotency-Key"

// HTTPClient implements Client over the story REST API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// NewHTTPClient returns a client for the API rooted at baseURL
// (e.g. https://story-api.dicoding.dev/v1). A nil transport means
// http.DefaultTransport.
func NewHTTPClient(baseURL string, transport http.RoundTripper, tokens TokenSource) *HTTPClient {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Transport: transport},
		tokens:  tokens,
	}
}

func (c *HTTPClient) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *HTTPClient) authorize(ctx context.Context, req *http.Request) error {
	if c.tokens == nil {
		return common.ErrNoToken
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// do sends req and decodes the API envelope.
func (c *HTTPClient) do(ctx context.Context, req *http.Request, auth bool) (*envelope, error) {
	return c.roundTrip(ctx, req, auth, true)
}

// send is do for calls that only need the status. Any 2xx succeeds whatever
// the body holds.
func (c *HTTPClient) send(ctx context.Context, req *http.Request, auth bool) error {
	_, err := c.roundTrip(ctx, req, auth, false)
	return err
}

func (c *HTTPClient) roundTrip(ctx context.Context, req *http.Request, auth, strict bool) (*envelope, error) {
	if auth {
		if err := c.authorize(ctx, req); err != nil {
			return nil, err
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	return decodeResponse(resp, strict)
}

func (c *HTTPClient) newJSONRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path, nil), body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in any, auth bool) (*envelope, error) {
	req, err := c.newJSONRequest(ctx, method, path, in)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req, auth)
}

func (c *HTTPClient) sendJSON(ctx context.Context, method, path string, in any, auth bool) error {
	req, err := c.newJSONRequest(ctx, method, path, in)
	if err != nil {
		return err
	}
	return c.send(ctx, req, auth)
}

func (c *HTTPClient) Register(ctx context.Context, name, email, password string) error {
	in := map[string]string{"name": name, "email": email, "password": password}
	if err := c.sendJSON(ctx, http.MethodPost, "/register", in, false); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.Session, error) {
	in := map[string]string{"email": email, "password": password}
	env, err := c.doJSON(ctx, http.MethodPost, "/login", in, false)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if env.LoginResult == nil || env.LoginResult.Token == "" {
		return nil, fmt.Errorf("login: response has no token")
	}
	return env.LoginResult, nil
}

// Ping reports whether the API host answers at all. Any HTTP status counts
// as reachable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *HTTPClient) ListStories(ctx context.Context, withLocation bool) ([]models.Story, error) {
	var q url.Values
	if withLocation {
		q = url.Values{"location": {"1"}}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/stories", q), nil)
	if err != nil {
		return nil, err
	}
	env, err := c.do(ctx, req, true)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	if env.ListStory == nil {
		return []models.Story{}, nil
	}
	return env.ListStory, nil
}

func (c *HTTPClient) GetStory(ctx context.Context, id string) (*models.Story, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/stories/"+url.PathEscape(id), nil), nil)
	if err != nil {
		return nil, err
	}
	env, err := c.do(ctx, req, true)
	if err != nil {
		return nil, fmt.Errorf("get story %s: %w", id, err)
	}
	if env.Story == nil {
		return nil, fmt.Errorf("get story %s: %w", id, common.ErrNotFound)
	}
	return env.Story, nil
}

// CreateStory uploads s as a multipart form. Coordinates are sent only when
// set.
func (c *HTTPClient) CreateStory(ctx context.Context, s models.NewStory) error {
	body, contentType, err := encodeStoryForm(s)
	if err != nil {
		return fmt.Errorf("create story: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/stories", nil), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	if s.IdempotencyKey != "" {
		req.Header.Set(IdempotencyKeyHeader, s.IdempotencyKey)
	}
	if err := c.send(ctx, req, true); err != nil {
		return fmt.Errorf("create story: %w", err)
	}
	return nil
}

func (c *HTTPClient) DeleteStory(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.url("/stories/"+url.PathEscape(id), nil), nil)
	if err != nil {
		return err
	}
	if err := c.send(ctx, req, true); err != nil {
		return fmt.Errorf("delete story %s: %w", id, err)
	}
	return nil
}

func (c *HTTPClient) Subscribe(ctx context.Context, sub models.PushSubscription) error {
	if err := c.sendJSON(ctx, http.MethodPost, "/notifications/subscribe", sub, true); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

func (c *HTTPClient) Unsubscribe(ctx context.Context, endpoint string) error {
	in := map[string]string{"endpoint": endpoint}
	if err := c.sendJSON(ctx, http.MethodDelete, "/notifications/subscribe", in, true); err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	return nil
}

func encodeStoryForm(s models.NewStory) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("description", s.Description); err != nil {
		return nil, "", err
	}
	if s.Lat != nil {
		if err := w.WriteField("lat", strconv.FormatFloat(*s.Lat, 'f', -1, 64)); err != nil {
			return nil, "", err
		}
	}
	if s.Lon != nil {
		if err := w.WriteField("lon", strconv.FormatFloat(*s.Lon, 'f', -1, 64)); err != nil {
			return nil, "", err
		}
	}

	if s.Photo != nil {
		name := s.PhotoName
		if name == "" {
			name = "photo.jpg"
		}
		ctype := s.PhotoType
		if ctype == "" {
			ctype = "image/jpeg"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename=%q`, name))
		h.Set("Content-Type", ctype)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(s.Photo); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
