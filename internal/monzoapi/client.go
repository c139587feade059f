package monzoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.monzo.com"

// Client is a minimal Monzo API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a client using the default Monzo API base URL.
func New(token string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewWithBaseURL creates a client with a custom base URL.
// Intended for tests and local stubs.
func NewWithBaseURL(token, baseURL string) *Client {
	c := New(token)
	c.baseURL = baseURL
	return c
}

// APIError is a non-2xx response decoded from Monzo's error body.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("monzo api error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("monzo api error (status %d)", e.StatusCode)
}

// Unauthorized reports whether the error was a 401, i.e. the token is invalid.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// WhoAmI calls GET /ping/whoami and returns an error unless the token is
// accepted and the response reports authenticated.
func (c *Client) WhoAmI(ctx context.Context) error {
	var out struct {
		Authenticated bool   `json:"authenticated"`
		UserID        string `json:"user_id"`
	}
	if err := c.get(ctx, "/ping/whoami", nil, &out); err != nil {
		return err
	}
	if !out.Authenticated {
		return fmt.Errorf("monzo token is not authenticated")
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		// Monzo error bodies are best effort; the status code alone is enough.
		_ = json.Unmarshal(body, apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
