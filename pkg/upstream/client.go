package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/novaflow/console/pkg/observability"
)

// Client is the shared base client for the platform API
type Client struct {
	baseURL string
	http    *http.Client
	metrics *observability.Metrics
}

// NewClient creates a base client. metrics may be nil.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("upstream base URL is required")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		metrics: metrics,
	}, nil
}

// CallOpts describe one upstream call for metrics labelling
type CallOpts struct {
	Resource  string
	Operation string
	// DomainID scopes the call to a tenant when non-zero
	DomainID int64
}

// Do performs an upstream request. body may be nil; out may be nil when the
// response carries no payload of interest.
func (c *Client) Do(ctx context.Context, method, path, token string, body, out interface{}, opts CallOpts) error {
	u := c.baseURL + path
	if opts.DomainID != 0 {
		q := url.Values{"domainId": []string{strconv.FormatInt(opts.DomainID, 10)}}
		if strings.Contains(u, "?") {
			u += "&" + q.Encode()
		} else {
			u += "?" + q.Encode()
		}
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.ObserveUpstream(opts.Resource, opts.Operation, resp.StatusCode, time.Since(start))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode upstream response: %w", err)
		}
	}
	return nil
}

// Get issues a GET request
func (c *Client) Get(ctx context.Context, path, token string, out interface{}, opts CallOpts) error {
	return c.Do(ctx, http.MethodGet, path, token, nil, out, opts)
}

// Post issues a POST request
func (c *Client) Post(ctx context.Context, path, token string, body, out interface{}, opts CallOpts) error {
	return c.Do(ctx, http.MethodPost, path, token, body, out, opts)
}

// Put issues a PUT request
func (c *Client) Put(ctx context.Context, path, token string, body, out interface{}, opts CallOpts) error {
	return c.Do(ctx, http.MethodPut, path, token, body, out, opts)
}

// Delete issues a DELETE request
func (c *Client) Delete(ctx context.Context, path, token string, opts CallOpts) error {
	return c.Do(ctx, http.MethodDelete, path, token, nil, nil, opts)
}
