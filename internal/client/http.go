// Package client makes the REST calls the console needs next to the ping
// socket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/abemar/pingconsole/internal/routes"
)

// ErrUnauthorized is returned when the backend rejects the credentials.
var ErrUnauthorized = errors.New("client: unauthorized")

// HTTPClient makes REST calls to the ping backend.
type HTTPClient struct {
	baseURL string
	token   string
	cookie  *http.Cookie
	routes  routes.Resolver
	client  *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithSessionCookie sends the named cookie on every request.
func WithSessionCookie(name, value string) Option {
	return func(c *HTTPClient) {
		if name != "" {
			c.cookie = &http.Cookie{Name: name, Value: value}
		}
	}
}

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// NewHTTPClient creates a client targeting the given base URL (e.g. "http://127.0.0.1:1337").
func NewHTTPClient(baseURL, token string, r routes.Resolver, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		token:   token,
		routes:  r,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckAuthentication asks the backend whether the current credentials are
// still valid. It returns ErrUnauthorized on 401 or 403.
func (c *HTTPClient) CheckAuthentication(ctx context.Context) error {
	return c.post(ctx, c.routes.GetRoute(routes.AuthCheck), struct{}{}, nil)
}

func (c *HTTPClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("POST %s: %w", path, ErrUnauthorized)
	case resp.StatusCode >= 300:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("POST %s: %d %s", path, resp.StatusCode, string(respBody))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
}
