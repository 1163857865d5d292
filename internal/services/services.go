// package services defines clients for the identity provider and the Spotify Web API
package services

import (
	"context"

	"github.com/desertthunder/scanplay/internal/models"
)

// TokenService converts authorization grants and refresh tokens into credential pairs.
type TokenService interface {
	// AuthURL builds the provider's authorization URL carrying state.
	AuthURL(state string) string

	// Exchange trades a single-use authorization code for a credential pair.
	Exchange(ctx context.Context, code string) (*models.CredentialPair, error)

	// Refresh mints a new access token. A non-empty RefreshToken in the result means the provider rotated it.
	Refresh(ctx context.Context, refreshToken string) (*models.CredentialPair, error)
}

// Catalog resolves tracks, profiles and playback for a given access token.
type Catalog interface {
	Track(ctx context.Context, token, trackID string) (*models.TrackReference, error)
	Profile(ctx context.Context, token string) (*models.Profile, error)
	Play(ctx context.Context, token, deviceID, trackURI string) error
	Devices(ctx context.Context, token string) ([]models.Device, error)
}

var (
	_ TokenService = (*Exchanger)(nil)
	_ Catalog      = (*SpotifyService)(nil)
)
