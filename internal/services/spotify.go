// Spotify Web API client used for catalog lookups, tier resolution and playback commands.
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

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

	"github.com/desertthunder/scanplay/internal/models"
	"github.com/desertthunder/scanplay/internal/shared"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// maxErrorBody caps how much of an error response is kept for diagnostics.
	maxErrorBody = 4096
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Product     string         `json:"product"` // premium, free, etc.
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	Explicit   bool            `json:"explicit"`
	PreviewURL *string         `json:"preview_url"`
	URI        string          `json:"uri"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
	URI    string         `json:"uri"`
}

// SpotifyDevice represents a Spotify Connect device.
type SpotifyDevice struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	IsActive         bool   `json:"is_active"`
	IsRestricted     bool   `json:"is_restricted"`
	IsPrivateSession bool   `json:"is_private_session"`
}

type playRequest struct {
	URIs []string `json:"uris"`
}

// APIError is a non-success response from the Web API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("spotify API error: status %d: %s", e.Status, e.Body)
}

// Reference converts the API track into the controller's [models.TrackReference].
func (t *SpotifyTrack) Reference() *models.TrackReference {
	ref := &models.TrackReference{
		ID:    t.ID,
		Name:  t.Name,
		Album: t.Album.Name,
		URI:   t.URI,
	}
	for _, a := range t.Artists {
		ref.Artists = append(ref.Artists, a.Name)
	}
	if len(t.Album.Images) > 0 {
		ref.ImageURL = t.Album.Images[0].URL
	}
	if t.PreviewURL != nil {
		ref.PreviewURL = *t.PreviewURL
	}
	return ref
}

// SpotifyService calls the Spotify Web API on behalf of whichever access token the caller holds.
//
// It stores no credentials: every method takes the bearer token of the session it serves.
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyService creates a Web API client. An empty baseURL targets the public API.
func NewSpotifyService(baseURL string, client *http.Client) *SpotifyService {
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &SpotifyService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated HTTP request to the Spotify API and returns the response status.
func (s *SpotifyService) doRequest(ctx context.Context, token, method, endpoint string, body, result any) (int, error) {
	if token == "" {
		return 0, shared.ErrNotAuthenticated
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context, token string) (*SpotifyUser, error) {
	var user SpotifyUser
	if _, err := s.doRequest(ctx, token, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Profile retrieves the fields of the user profile that determine the subscription tier.
func (s *SpotifyService) Profile(ctx context.Context, token string) (*models.Profile, error) {
	user, err := s.UserProfile(ctx, token)
	if err != nil {
		return nil, err
	}
	return &models.Profile{ID: user.ID, DisplayName: user.DisplayName, Product: user.Product}, nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, token, trackID string) (*models.TrackReference, error) {
	if trackID == "" {
		return nil, fmt.Errorf("%w: empty track id", shared.ErrLookup)
	}

	var track SpotifyTrack
	endpoint := "/tracks/" + url.PathEscape(trackID)
	if _, err := s.doRequest(ctx, token, http.MethodGet, endpoint, nil, &track); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrLookup, err)
	}
	if track.ID == "" {
		return nil, fmt.Errorf("%w: catalog returned no track for %s", shared.ErrLookup, trackID)
	}
	return track.Reference(), nil
}

// Play starts playback of trackURI on the given device.
//
// Only 204 No Content counts as success; any other response is a [shared.ErrPlayback].
func (s *SpotifyService) Play(ctx context.Context, token, deviceID, trackURI string) error {
	endpoint := "/me/player/play"
	if deviceID != "" {
		endpoint += "?device_id=" + url.QueryEscape(deviceID)
	}

	status, err := s.doRequest(ctx, token, http.MethodPut, endpoint, playRequest{URIs: []string{trackURI}}, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("%w: %w", shared.ErrPlayback, err)
		}
		return err
	}
	if status != http.StatusNoContent {
		return fmt.Errorf("%w: unexpected status %d", shared.ErrPlayback, status)
	}
	return nil
}

// Devices lists the user's available Spotify Connect devices.
func (s *SpotifyService) Devices(ctx context.Context, token string) ([]models.Device, error) {
	var response struct {
		Devices []SpotifyDevice `json:"devices"`
	}

	if _, err := s.doRequest(ctx, token, http.MethodGet, "/me/player/devices", nil, &response); err != nil {
		return nil, err
	}

	devices := make([]models.Device, 0, len(response.Devices))
	for _, d := range response.Devices {
		if d.ID == "" || d.IsRestricted {
			continue
		}
		devices = append(devices, models.Device{ID: d.ID, Name: d.Name, Type: d.Type, Active: d.IsActive})
	}
	return devices, nil
}
