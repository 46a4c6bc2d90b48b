// Package httpclient is a small JSON client for external REST APIs. GET
// responses are cached in memory according to their Cache-Control headers.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
	"github.com/gregjones/httpcache"
)

const (
	defaultTimeout         = 10 * time.Second
	responseBodyReadLimit  = 1 << 20
	errorBodyReadLimit     = 1024
	contentTypeJSON        = "application/json"
	noContentSuccessResult = `{"success":true}`
)

var errBaseURLRequired = errors.New("http client base url is required")

// StatusError is returned for non-2xx responses. Message carries the
// server's "message" field when it sent one.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// Client issues JSON requests relative to a base URL.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default caching HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds every request issued by the client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL: trimmed,
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: httpcache.NewTransport(httpcache.NewMemoryCache()),
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

func (c *Client) Get(ctx context.Context, endpoint string, dest any) error {
	return c.Do(ctx, http.MethodGet, endpoint, nil, dest)
}

func (c *Client) Post(ctx context.Context, endpoint string, body, dest any) error {
	return c.Do(ctx, http.MethodPost, endpoint, body, dest)
}

func (c *Client) Put(ctx context.Context, endpoint string, body, dest any) error {
	return c.Do(ctx, http.MethodPut, endpoint, body, dest)
}

func (c *Client) Delete(ctx context.Context, endpoint string, dest any) error {
	return c.Do(ctx, http.MethodDelete, endpoint, nil, dest)
}

// Do sends body as JSON and decodes the response into dest when dest is
// non-nil. A 204 response decodes as {"success":true}.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, dest any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "http client not configured")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(endpoint), reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build request")
	}
	req.Header.Set("Accept", contentTypeJSON)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("%s %s failed", method, endpoint))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := readStatusError(resp)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, statusErr, statusErr.Message)
	}

	if resp.StatusCode == http.StatusNoContent {
		return decode([]byte(noContentSuccessResult), dest)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read response body")
	}
	return decode(raw, dest)
}

func readStatusError(resp *http.Response) *StatusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && strings.TrimSpace(payload.Message) != "" {
		return &StatusError{Status: resp.StatusCode, Message: payload.Message}
	}
	return &StatusError{Status: resp.StatusCode, Message: fmt.Sprintf("HTTP error! Status: %d", resp.StatusCode)}
}

func decode(raw []byte, dest any) error {
	if dest == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response body")
	}
	return nil
}

func (c *Client) buildURL(endpoint string) string {
	return fmt.Sprintf("%s/%s", c.baseURL, strings.TrimLeft(endpoint, "/"))
}
