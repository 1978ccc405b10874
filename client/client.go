// Package client provides a Go client for a remote Harvest instance
// over its HTTP API.
//
// Usage:
//
//	c := client.New("https://harvest.example.com",
//	    client.WithIdentity("user-123", "org_admin"),
//	)
//
//	ack, err := c.Trigger(ctx, "full", nil)
//	status, err := c.Status(ctx, ack.CollectionID)
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xraph/harvest"
	"github.com/xraph/harvest/api"
	"github.com/xraph/harvest/collection"
)

// Client talks to a remote Harvest server.
type Client struct {
	baseURL string
	http    *http.Client
	subject string
	role    string
	logger  *slog.Logger
}

// New creates a client for the Harvest server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Trigger starts a collection run and returns its acknowledgement.
func (c *Client) Trigger(ctx context.Context, collectionType string, services []string) (*api.TriggerResponse, error) {
	body := api.TriggerRequest{
		CollectionType: collectionType,
		Services:       services,
	}

	var resp api.TriggerResponse
	if err := c.do(ctx, http.MethodPost, "/v1/collections", body, &resp, mapTriggerStatus); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status returns the current status projection of a run.
func (c *Client) Status(ctx context.Context, collectionID string) (*collection.StatusView, error) {
	var resp collection.StatusView
	path := "/v1/collections/" + url.PathEscape(collectionID) + "/status"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, mapReadStatus); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Results returns the results summary of a completed run. Fails with
// harvest.ErrNotReady while the run is still active.
func (c *Client) Results(ctx context.Context, collectionID string) (*collection.ResultsView, error) {
	var resp collection.ResultsView
	path := "/v1/collections/" + url.PathEscape(collectionID) + "/results"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, mapResultsStatus); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cancel cancels an active run. Cancelling an already-cancelled run
// succeeds; a completed run fails with harvest.ErrAlreadyTerminal.
func (c *Client) Cancel(ctx context.Context, collectionID string) error {
	path := "/v1/collections/" + url.PathEscape(collectionID) + "/cancel"
	return c.do(ctx, http.MethodPost, path, nil, nil, mapCancelStatus)
}

// List returns runs in the given state.
func (c *Client) List(ctx context.Context, state string, limit, offset int) ([]*collection.Run, error) {
	q := url.Values{}
	if state != "" {
		q.Set("state", state)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}

	path := "/v1/collections"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var runs []*collection.Run
	if err := c.do(ctx, http.MethodGet, path, nil, &runs, mapReadStatus); err != nil {
		return nil, err
	}
	return runs, nil
}

// Counts returns run counts grouped by state.
func (c *Client) Counts(ctx context.Context) (*api.CountsResponse, error) {
	var resp api.CountsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/collections/counts", nil, &resp, mapReadStatus); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do performs one request, decoding a JSON response into out when out
// is non-nil. Non-2xx statuses map to harvest sentinel errors through
// mapStatus.
func (c *Client) do(ctx context.Context, method, path string, body, out any, mapStatus func(int, string) error) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("harvest/client: marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("harvest/client: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.subject != "" {
		req.Header.Set("X-User-ID", c.subject)
	}
	if c.role != "" {
		req.Header.Set("X-User-Role", c.role)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("harvest/client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck // nothing to do with a close error on a read body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10)) //nolint:errcheck // best-effort error body
		return mapStatus(resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("harvest/client: decode response: %w", err)
	}
	return nil
}

// ── status mapping ──

// mapTriggerStatus maps trigger failures to sentinel errors.
func mapTriggerStatus(status int, msg string) error {
	switch status {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", harvest.ErrValidation, msg)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", harvest.ErrQuotaExceeded, msg)
	default:
		return httpError(status, msg)
	}
}

// mapReadStatus maps status/list failures to sentinel errors.
func mapReadStatus(status int, msg string) error {
	switch status {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", harvest.ErrValidation, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", harvest.ErrRunNotFound, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", harvest.ErrForbidden, msg)
	default:
		return httpError(status, msg)
	}
}

// mapResultsStatus adds the 409 → ErrNotReady mapping for the results
// endpoint.
func mapResultsStatus(status int, msg string) error {
	if status == http.StatusConflict {
		return fmt.Errorf("%w: %s", harvest.ErrNotReady, msg)
	}
	return mapReadStatus(status, msg)
}

// mapCancelStatus adds the 409 → ErrAlreadyTerminal mapping for the
// cancel endpoint.
func mapCancelStatus(status int, msg string) error {
	if status == http.StatusConflict {
		return fmt.Errorf("%w: %s", harvest.ErrAlreadyTerminal, msg)
	}
	return mapReadStatus(status, msg)
}

func httpError(status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
	}
	return fmt.Errorf("harvest/client: HTTP %d: %s", status, msg)
}
