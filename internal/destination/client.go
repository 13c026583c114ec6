package destination

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultBaseURL is the public Destination API.
const DefaultBaseURL = "https://playground-014-backend.vercel.app/api"

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
}

// Client talks to the remote Destination API.
// It never retries and sets no timeout of its own; callers bound requests with ctx.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient constructs a Client for the API rooted at baseURL.
func NewClient(baseURL string) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{})
}

// NewClientWithHTTP constructs a Client with a custom http.Client (for tests).
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: hc}
}

// ListDestinations handles GET /get-destinations.
func (c *Client) ListDestinations(ctx context.Context) ([]Destination, error) {
	var out []Destination
	if err := c.do(ctx, http.MethodGet, "/get-destinations", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Destination{}
	}
	return out, nil
}

// GetDestination handles GET /get-destination/{id}.
func (c *Client) GetDestination(ctx context.Context, id string) (*Destination, error) {
	var out Destination
	if err := c.do(ctx, http.MethodGet, "/get-destination/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateDestination handles POST /post-destination. The returned record carries the server-assigned ID.
func (c *Client) CreateDestination(ctx context.Context, d Destination) (*Destination, error) {
	d.ID = ""
	var out Destination
	if err := c.do(ctx, http.MethodPost, "/post-destination", d, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDestination handles PUT /put-destination/{id}.
func (c *Client) UpdateDestination(ctx context.Context, id string, d Destination) (*Destination, error) {
	var out Destination
	if err := c.do(ctx, http.MethodPut, "/put-destination/"+url.PathEscape(id), d, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDestination handles DELETE /delete-destination/{id}. The response body is ignored.
func (c *Client) DeleteDestination(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/delete-destination/"+url.PathEscape(id), nil, nil)
}

// do sends a request with an optional JSON body and decodes a JSON response into dst.
// A nil dst discards the response body.
func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	endpoint := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request for %s: %w", endpoint, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, URL: endpoint, StatusCode: resp.StatusCode}
	}

	if dst == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", endpoint, err)
	}

	return nil
}
