// Package api is the HTTP client for the project section endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"plansheet-cli/internal/model"
)

const (
	HeaderCSRF          = "X-CSRFToken"
	HeaderRequestedWith = "X-Requested-With"
)

// Client talks to one server on behalf of one project. It is safe for
// concurrent use once constructed.
type Client struct {
	base      *url.URL
	projectID string
	token     string
	cookie    string
	timeout   time.Duration
	http      *http.Client
	log       *slog.Logger
}

type Option func(*Client)

// WithToken sets the anti-forgery token sent on every mutating request.
func WithToken(token string) Option { return func(c *Client) { c.token = token } }

// WithCookie forwards a raw Cookie header (usually the session cookie).
func WithCookie(cookie string) Option { return func(c *Client) { c.cookie = cookie } }

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout bounds each request. Zero leaves the transport default.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func New(baseURL, projectID string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("api: server url is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("api: parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api: unsupported scheme %q", u.Scheme)
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, errors.New("api: project id is required")
	}
	c := &Client{
		base:      u,
		projectID: projectID,
		http:      http.DefaultClient,
		log:       slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) ProjectID() string { return c.projectID }

// SectionPath is the read endpoint of a section.
func (c *Client) SectionPath(key string) string {
	return "/projects/" + url.PathEscape(c.projectID) + "/sections/" + url.PathEscape(key) + "/"
}

// RowsPath is the row collection endpoint used for creates.
func (c *Client) RowsPath(key string) string {
	return c.SectionPath(key) + "rows"
}

// RowPath is the endpoint of a single persisted row.
func (c *Client) RowPath(key, rowID string) string {
	return c.RowsPath(key) + "/" + url.PathEscape(rowID) + "/"
}

// MutationResult is the server's answer to a successful create or update.
type MutationResult struct {
	ID  string
	Row model.RowRecord
}

func (c *Client) FetchSection(ctx context.Context, key string) (model.SectionPayload, error) {
	var p model.SectionPayload
	body, err := c.do(ctx, http.MethodGet, c.SectionPath(key), nil)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return p, fmt.Errorf("decode section %q: %w", key, err)
	}
	return p, nil
}

func (c *Client) CreateRow(ctx context.Context, key string, values map[string]string) (MutationResult, error) {
	return c.save(ctx, http.MethodPost, c.RowsPath(key), values)
}

func (c *Client) UpdateRow(ctx context.Context, key, rowID string, values map[string]string) (MutationResult, error) {
	if strings.TrimSpace(rowID) == "" {
		return MutationResult{}, errors.New("api: row id is required for update")
	}
	return c.save(ctx, http.MethodPut, c.RowPath(key, rowID), values)
}

func (c *Client) DeleteRow(ctx context.Context, key, rowID string) error {
	if strings.TrimSpace(rowID) == "" {
		return errors.New("api: row id is required for delete")
	}
	_, err := c.do(ctx, http.MethodDelete, c.RowPath(key, rowID), nil)
	return err
}

type saveResponse struct {
	Success bool            `json:"success"`
	ID      model.Value     `json:"id"`
	Row     model.RowRecord `json:"row"`
}

func (c *Client) save(ctx context.Context, method, path string, values map[string]string) (MutationResult, error) {
	if values == nil {
		values = map[string]string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return MutationResult{}, fmt.Errorf("encode row: %w", err)
	}
	body, err := c.do(ctx, method, path, raw)
	if err != nil {
		return MutationResult{}, err
	}
	var resp saveResponse
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			return MutationResult{}, fmt.Errorf("decode save response: %w", err)
		}
	}
	res := MutationResult{ID: resp.ID.Text(), Row: resp.Row}
	if res.ID == "" {
		res.ID, _ = resp.Row.ID()
	}
	return res, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := c.base.JoinPath(path)

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestedWith, "XMLHttpRequest")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		// An absent token is still sent; rejecting it is the server's call.
		req.Header.Set(HeaderCSRF, c.token)
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", u.Path, "err", err)
		return nil, fmt.Errorf("%s %s: %w", method, u.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, u.Path, err)
	}
	c.log.Debug("request", "method", method, "path", u.Path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, responseError(method, u.Path, resp.StatusCode, data)
	}
	return data, nil
}
