package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Makepad-fr/portal/internal/logging"
)

const (
	defaultTimeout  = 15 * time.Second
	requestIDHeader = "X-Request-ID"
)

// Client issues calls against the portal REST backend and unwraps its
// {success, data, message, errors} envelope.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   string
}

type Option func(*Client)

// WithHTTPClient replaces the default traced client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, goerr.Wrap(ErrInvalidBaseURL, err.Error(), goerr.V("base_url", baseURL))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, goerr.Wrap(ErrInvalidBaseURL, "scheme must be http or https", goerr.V("base_url", baseURL))
	}

	c := &Client{
		baseURL: u,
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return goerr.Wrap(err, "failed to encode request body", goerr.V("path", path))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return goerr.Wrap(err, "failed to build request", goerr.V("path", path))
	}
	reqID := uuid.NewString()
	req.Header.Set(requestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	logger := logging.From(ctx).With("method", method, "path", path, "request_id", reqID)
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("request failed", "error", err.Error())
		return &Error{Method: method, Path: path, Err: err}
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err.Error())
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Method: method, Path: path, Status: resp.StatusCode, Err: err}
	}
	logger.Debug("request done", "status", resp.StatusCode, "elapsed", time.Since(started).String())

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return &Error{Method: method, Path: path, Status: resp.StatusCode,
				Err: goerr.Wrap(err, "malformed response envelope")}
		}
	}

	failed := resp.StatusCode >= 300 || (env.Success != nil && !*env.Success)
	if failed {
		apiErr := &Error{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: env.Message,
			Fields:  decodeFieldErrors(env.Errors),
		}
		if apiErr.IsValidation() {
			logger.Warn("validation failure", "status", resp.StatusCode, "fields", apiErr.Fields)
		}
		return apiErr
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Method: method, Path: path, Status: resp.StatusCode,
			Err: goerr.Wrap(err, "failed to decode response data")}
	}
	return nil
}

// decodeFieldErrors accepts either {"field": "msg"} or
// [{"field"|"path"|"param": ..., "message"|"msg": ...}].
func decodeFieldErrors(raw json.RawMessage) map[string]string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var asMap map[string]string
	if err := json.Unmarshal(raw, &asMap); err == nil {
		if len(asMap) == 0 {
			return nil
		}
		return asMap
	}

	var asList []struct {
		Field   string `json:"field"`
		Path    string `json:"path"`
		Param   string `json:"param"`
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &asList); err != nil {
		return nil
	}
	fields := make(map[string]string, len(asList))
	for _, e := range asList {
		name := firstNonEmpty(e.Field, e.Path, e.Param)
		if name == "" {
			continue
		}
		fields[name] = firstNonEmpty(e.Message, e.Msg)
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
