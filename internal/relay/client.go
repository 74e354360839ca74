// Package relay invokes the backend functions that exchange OAuth codes
// with Strava and forward activities to it.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"climbd/internal/activity"
)

// Function names and the header carrying the Strava access token.
const (
	FunctionAuth      = "auth"
	FunctionUpload    = "upload"
	AccessTokenHeader = "x-strava-access-token"
)

// ErrMalformedResponse is returned when a successful response cannot be
// used.
var ErrMalformedResponse = errors.New("malformed relay response")

// Client calls functions hosted under {baseURL}/functions/v1/.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient returns a Client. A nil httpClient means http.DefaultClient,
// which has no timeout.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

// Auth exchanges an authorization code for Strava tokens.
func (c *Client) Auth(ctx context.Context, code, redirectURI string) (TokenResponse, error) {
	var resp TokenResponse
	err := c.Invoke(ctx, FunctionAuth, nil, AuthRequest{Code: code, RedirectURI: redirectURI}, &resp)
	if err != nil {
		return TokenResponse{}, err
	}
	if err := resp.validate(); err != nil {
		return TokenResponse{}, err
	}
	return resp, nil
}

// Upload submits an activity on behalf of the holder of accessToken.
func (c *Client) Upload(ctx context.Context, accessToken string, a activity.Activity) error {
	headers := map[string]string{AccessTokenHeader: accessToken}
	return c.Invoke(ctx, FunctionUpload, headers, a, nil)
}

// Invoke posts body as JSON to the named function and decodes a 2xx
// response into out when out is non-nil. A non-2xx response with a JSON
// body is returned as *HTTPError.
func (c *Client) Invoke(ctx context.Context, function string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", function, err)
	}

	url := c.baseURL + "/functions/v1/" + function
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("apikey", c.apiKey)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to invoke %s: %w", function, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", function, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newHTTPError(function, resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, function, err)
	}
	return nil
}
