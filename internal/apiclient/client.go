// Package apiclient talks to the public endpoints of the backend on behalf of
// the push worker and the opt-in page.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"webpush-saas/internal/wire"
)

// APIError is a non-2xx answer from the backend. Reason and Message carry
// the "error" and "message" fields of the body.
type APIError struct {
	Status  int
	Reason  string
	Message string
}

func (e *APIError) Error() string {
	text := e.text()
	if text == "" {
		return fmt.Sprintf("backend responded %d", e.Status)
	}
	return fmt.Sprintf("backend responded %d: %s", e.Status, text)
}

func (e *APIError) text() string {
	return wire.ErrorBody{Error: e.Reason, Message: e.Message}.Text()
}

// BackendMessage returns the text the backend attached to err, preferring
// the "error" field over "message".
func BackendMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.text()
	}
	return ""
}

// BodyMessage returns only the "message" field the backend attached to err.
func BodyMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// StatusCode returns the HTTP status of an APIError, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Client is safe for concurrent use.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for the API rooted at base, e.g. http://localhost:3000/api.
func New(base string, timeout time.Duration) *Client {
	return NewWithHTTPClient(base, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient creates a client using the given transport.
func NewWithHTTPClient(base string, hc *http.Client) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: hc,
	}
}

// Base returns the API root the client was built with.
func (c *Client) Base() string {
	return c.base
}

// VAPIDPublicKey fetches the application server key (base64url).
func (c *Client) VAPIDPublicKey(ctx context.Context) (string, error) {
	var resp wire.Envelope[wire.VAPIDKey]
	if err := c.do(ctx, http.MethodGet, "/public/vapid", nil, &resp); err != nil {
		return "", err
	}
	if resp.Data.PublicKey == "" {
		return "", errors.New("backend returned an empty vapid public key")
	}
	return resp.Data.PublicKey, nil
}

// OptInLink fetches the configuration of an opt-in link.
func (c *Client) OptInLink(ctx context.Context, token string) (*wire.OptInLink, error) {
	var resp wire.Envelope[wire.OptInLink]
	if err := c.do(ctx, http.MethodGet, "/opt-in/"+url.PathEscape(token), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// SubmitOptIn registers a contact, and its subscription when present.
func (c *Client) SubmitOptIn(ctx context.Context, token string, req wire.SubscriptionRequest) (*wire.OptInResult, error) {
	var resp wire.Envelope[wire.OptInResult]
	if err := c.do(ctx, http.MethodPost, "/opt-in/"+url.PathEscape(token), req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// TrackDelivered posts a delivery receipt. The response body is ignored.
func (c *Client) TrackDelivered(ctx context.Context, notificationID string, req wire.TrackingRequest) error {
	return c.do(ctx, http.MethodPost, trackingPath(notificationID, "delivered"), req, nil)
}

// TrackClicked posts a click receipt and returns the decoded response body.
func (c *Client) TrackClicked(ctx context.Context, notificationID string, req wire.TrackingRequest) (map[string]any, error) {
	var body map[string]any
	if err := c.do(ctx, http.MethodPost, trackingPath(notificationID, "clicked"), req, &body); err != nil {
		return nil, err
	}
	return body, nil
}

func trackingPath(notificationID, kind string) string {
	return "/public/notifications/" + url.PathEscape(notificationID) + "/" + kind
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb wire.ErrorBody
		_ = json.Unmarshal(raw, &eb)
		return &APIError{Status: resp.StatusCode, Reason: eb.Error, Message: eb.Message}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
