package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileTier(t *testing.T) {
	tc := []struct {
		name    string
		profile *Profile
		want    Tier
	}{
		{name: "premium", profile: &Profile{Product: "premium"}, want: TierPremium},
		{name: "premium any case", profile: &Profile{Product: "Premium"}, want: TierPremium},
		{name: "free", profile: &Profile{Product: "free"}, want: TierFree},
		{name: "open", profile: &Profile{Product: "open"}, want: TierFree},
		{name: "missing product", profile: &Profile{}, want: TierFree},
		{name: "nil profile", profile: nil, want: TierFree},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.profile.Tier())
		})
	}
}

func TestCredentialPair(t *testing.T) {
	pair := CredentialPair{
		AccessToken:  "AT2",
		RefreshToken: "RT2",
		ExpiresIn:    3600,
		Scope:        "streaming user-read-email",
		TokenType:    "Bearer",
	}

	t.Run("Scopes", func(t *testing.T) {
		assert.Equal(t, []string{"streaming", "user-read-email"}, pair.Scopes())
	})

	t.Run("Access never carries the refresh token", func(t *testing.T) {
		data, err := json.Marshal(pair.Access())
		require.NoError(t, err)
		assert.JSONEq(t, `{"access_token":"AT2","expires_in":3600,"scope":"streaming user-read-email","token_type":"Bearer"}`, string(data))
	})
}

func TestTrackReference(t *testing.T) {
	track := &TrackReference{Name: "Song", Artists: []string{"A", "B"}}

	assert.Equal(t, "A, B", track.ArtistLine())
	assert.Equal(t, "A, B - Song", track.String())
	assert.False(t, track.HasPreview())

	track.PreviewURL = "https://p.scdn.co/mp3-preview/x"
	assert.True(t, track.HasPreview())
	assert.Equal(t, "premium", TierPremium.String())
	assert.Equal(t, "unknown", TierUnknown.String())
}
