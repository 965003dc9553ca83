// Package upstream is the typed client for the commerce API that owns the
// catalog, orders, auth and payments. The gateway never persists any of that
// data itself; it only attaches the session's bearer token and normalizes the
// API's error bodies into pkg/errors codes.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/calebmoura/lumiere-gateway/pkg/config"
	pkgerrors "github.com/calebmoura/lumiere-gateway/pkg/errors"
	"github.com/calebmoura/lumiere-gateway/pkg/logger"
	"github.com/sethvargo/go-retry"
)

// Client talks to the upstream commerce API.
type Client struct {
	baseURL       *url.URL
	httpClient    *http.Client
	logg          *logger.Logger
	retryAttempts uint64
	retryBackoff  retry.Backoff

	// onUnauthorized fires when the upstream answers 401 so the owning
	// session can drop its stored token. It never redirects; callers decide
	// navigation.
	onUnauthorized func(context.Context)
}

// Option customizes the client.
type Option func(*Client)

// WithUnauthorizedHook installs the 401 callback.
func WithUnauthorizedHook(fn func(context.Context)) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// WithHTTPClient overrides the underlying HTTP client (used in tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New builds an upstream client from configuration.
func New(cfg config.UpstreamConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing upstream base url: %w", err)
	}

	client := &Client{
		baseURL:       parsed,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		logg:          logg,
		retryAttempts: cfg.RetryAttempts,
		retryBackoff:  retry.NewFibonacci(cfg.RetryBase),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Ping verifies the upstream is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.get(ctx, "/health", "", nil, nil)
}

// errorBody is the upstream's error payload; Message is shown to shoppers
// verbatim.
type errorBody struct {
	Message string `json:"message"`
}

func (c *Client) get(ctx context.Context, path, token string, query url.Values, out any) error {
	attempts := c.retryAttempts
	if attempts == 0 {
		return c.do(ctx, http.MethodGet, path, token, query, nil, out)
	}

	backoff := retry.WithMaxRetries(attempts, c.retryBackoff)
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.do(ctx, http.MethodGet, path, token, query, nil, out)
		if err == nil {
			return nil
		}
		if typed := pkgerrors.As(err); typed != nil && pkgerrors.MetadataFor(typed.Code()).Retryable {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (c *Client) do(ctx context.Context, method, path, token string, query url.Values, body, out any) error {
	target := *c.baseURL
	target.Path = strings.TrimRight(target.Path, "/") + path
	if query != nil {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode upstream request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upstream request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upstream unreachable")
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode upstream response")
		}
		return nil
	}

	return c.errorFromResponse(ctx, resp)
}

func (c *Client) errorFromResponse(ctx context.Context, resp *http.Response) error {
	var parsed errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &parsed)
	}
	message := strings.TrimSpace(parsed.Message)
	if message == "" {
		message = fmt.Sprintf("upstream returned status %d", resp.StatusCode)
	}

	if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}

	return pkgerrors.New(codeForStatus(resp.StatusCode), message).
		WithDetails(map[string]any{"upstream_status": resp.StatusCode})
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	}
	if status >= 500 {
		return pkgerrors.CodeUpstream
	}
	return pkgerrors.CodeUpstream
}
