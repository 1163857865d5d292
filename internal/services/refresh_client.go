package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/desertthunder/scanplay/internal/models"
	"github.com/desertthunder/scanplay/internal/shared"
)

// RefreshClient calls the server's refresh endpoint the way the page's background timer does.
//
// The session cookie travels in the client's cookie jar; the refresh token itself is never visible here.
type RefreshClient struct {
	endpoint   string
	httpClient *http.Client
}

// NewRefreshClient creates a client for baseURL. The http client must carry a jar holding the session cookie.
func NewRefreshClient(baseURL string, client *http.Client) *RefreshClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &RefreshClient{
		endpoint:   strings.TrimRight(baseURL, "/") + shared.RefreshPath,
		httpClient: client,
	}
}

// SessionJar returns a cookie jar pre-loaded with a session cookie for baseURL.
func SessionJar(baseURL, name, value string) (http.CookieJar, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: base url: %v", shared.ErrInvalidArgument, err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	jar.SetCookies(u, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
	return jar, nil
}

// Refresh asks the server for a new access token.
func (c *RefreshClient) Refresh(ctx context.Context) (*models.AccessResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUpstreamRefresh, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", shared.ErrNoSession, errorText(body))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrUpstreamRefresh, resp.StatusCode, errorText(body))
	}

	var access models.AccessResponse
	if err := json.Unmarshal(body, &access); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if access.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", shared.ErrUpstreamRefresh)
	}
	return &access, nil
}

// errorText pulls the error field out of a JSON error body, or returns the raw body.
func errorText(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}
