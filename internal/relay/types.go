package relay

import (
	"encoding/json"
	"fmt"
)

// AuthRequest is the body of the auth function.
type AuthRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirectUri"`
}

// TokenResponse mirrors the Strava OAuth token response relayed back by
// the auth function.
type TokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresAt    json.Number `json:"expires_at"`
}

func (r TokenResponse) validate() error {
	switch {
	case r.AccessToken == "":
		return fmt.Errorf("%w: missing access_token", ErrMalformedResponse)
	case r.RefreshToken == "":
		return fmt.Errorf("%w: missing refresh_token", ErrMalformedResponse)
	case r.ExpiresAt == "":
		return fmt.Errorf("%w: missing expires_at", ErrMalformedResponse)
	}
	return nil
}

// HTTPError is a rejection reported by a relay function: a non-2xx status
// with a JSON body.
type HTTPError struct {
	Function   string
	StatusCode int
	// Message is the body's "message" field, possibly empty.
	Message string
	Body    json.RawMessage
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("relay %s returned status %d", e.Function, e.StatusCode)
	}
	return fmt.Sprintf("relay %s returned status %d: %s", e.Function, e.StatusCode, e.Message)
}

// newHTTPError parses an error body. Bodies that are not JSON are not a
// structured rejection and come back as a plain error.
func newHTTPError(function string, status int, body []byte) error {
	var parsed struct {
		Message any `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("relay %s returned status %d with unreadable body: %w", function, status, err)
	}

	var message string
	switch m := parsed.Message.(type) {
	case nil:
	case string:
		message = m
	default:
		encoded, _ := json.Marshal(m)
		message = string(encoded)
	}

	return &HTTPError{
		Function:   function,
		StatusCode: status,
		Message:    message,
		Body:       json.RawMessage(body),
	}
}
