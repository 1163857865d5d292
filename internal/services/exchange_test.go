package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/desertthunder/scanplay/internal/shared"
	tu "github.com/desertthunder/scanplay/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestExchanger(t *testing.T, provider *tu.FakeProvider) *Exchanger {
	t.Helper()
	ex, err := NewExchanger(ExchangerOptions{
		ClientID:     "test_client_id",
		ClientSecret: "test_client_secret",
		RedirectURI:  "http://127.0.0.1:3000/api/callback",
		AuthURL:      provider.AuthURL(),
		TokenURL:     provider.TokenURL(),
	})
	require.NoError(t, err)
	return ex
}

func TestExchanger(t *testing.T) {
	t.Run("NewExchanger", func(t *testing.T) {
		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewExchanger(ExchangerOptions{ClientSecret: "secret"})
			assert.ErrorIs(t, err, shared.ErrMissingCredentials)
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewExchanger(ExchangerOptions{ClientID: "id"})
			assert.ErrorIs(t, err, shared.ErrMissingCredentials)
		})

		t.Run("Defaults to Spotify endpoints and scopes", func(t *testing.T) {
			ex, err := NewExchanger(ExchangerOptions{ClientID: "id", ClientSecret: "secret"})
			require.NoError(t, err)

			cfg := ex.OAuthConfig()
			assert.Equal(t, spotifyTokenURL, cfg.Endpoint.TokenURL)
			assert.Equal(t, oauth2.AuthStyleInParams, cfg.Endpoint.AuthStyle)
			assert.Equal(t, shared.DefaultScopes, cfg.Scopes)
		})
	})

	t.Run("AuthURL", func(t *testing.T) {
		ex, err := NewExchanger(ExchangerOptions{
			ClientID:     "test_client_id",
			ClientSecret: "test_client_secret",
			RedirectURI:  "http://127.0.0.1:3000/api/callback",
		})
		require.NoError(t, err)

		u, err := url.Parse(ex.AuthURL("test_state"))
		require.NoError(t, err)

		q := u.Query()
		assert.Equal(t, "accounts.spotify.com", u.Host)
		assert.Equal(t, "code", q.Get("response_type"))
		assert.Equal(t, "test_client_id", q.Get("client_id"))
		assert.Equal(t, "test_state", q.Get("state"))
		assert.Equal(t, "true", q.Get("show_dialog"))
		assert.Equal(t, "http://127.0.0.1:3000/api/callback", q.Get("redirect_uri"))
		assert.Equal(t, "streaming user-read-email user-read-private user-modify-playback-state user-read-playback-state user-read-currently-playing", q.Get("scope"))
	})

	t.Run("Exchange", func(t *testing.T) {
		t.Run("returns the full credential pair", func(t *testing.T) {
			provider := tu.NewFakeProvider(t)
			ex := newTestExchanger(t, provider)

			pair, err := ex.Exchange(context.Background(), "abc123")
			require.NoError(t, err)

			assert.Equal(t, "AT1", pair.AccessToken)
			assert.Equal(t, "RT1", pair.RefreshToken)
			assert.Equal(t, 3600, pair.ExpiresIn)
			assert.Equal(t, "streaming", pair.Scope)
			assert.Equal(t, "Bearer", pair.TokenType)

			reqs := provider.TokenRequests()
			require.Len(t, reqs, 1)
			assert.Equal(t, "authorization_code", reqs[0].Get("grant_type"))
			assert.Equal(t, "abc123", reqs[0].Get("code"))
			assert.Equal(t, "http://127.0.0.1:3000/api/callback", reqs[0].Get("redirect_uri"))
			assert.Equal(t, "test_client_id", reqs[0].Get("client_id"))
			assert.Equal(t, "test_client_secret", reqs[0].Get("client_secret"))
		})

		t.Run("empty code never calls the provider", func(t *testing.T) {
			provider := tu.NewFakeProvider(t)
			ex := newTestExchanger(t, provider)

			_, err := ex.Exchange(context.Background(), "  ")
			assert.ErrorIs(t, err, shared.ErrMissingGrant)
			assert.Zero(t, provider.Calls("/api/token"))
		})

		t.Run("upstream rejection keeps status and body", func(t *testing.T) {
			provider := tu.NewFakeProvider(t)
			provider.SetToken(http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Invalid authorization code"}`)
			ex := newTestExchanger(t, provider)

			_, err := ex.Exchange(context.Background(), "used-code")
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrUpstreamExchange)

			var upErr *UpstreamError
			require.True(t, errors.As(err, &upErr))
			assert.Equal(t, "exchange", upErr.Op)
			assert.Equal(t, http.StatusBadRequest, upErr.Status)
			assert.Contains(t, upErr.Body, "Invalid authorization code")

			var retrieveErr *oauth2.RetrieveError
			assert.True(t, errors.As(err, &retrieveErr), "transport error stays reachable")
			assert.Len(t, provider.TokenRequests(), 1, "no automatic retry")
		})

		t.Run("uses injected http client", func(t *testing.T) {
			ex, err := NewExchanger(ExchangerOptions{
				ClientID:     "id",
				ClientSecret: "secret",
				TokenURL:     "http://provider.invalid/api/token",
				HTTPClient:   &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("dial refused"))},
			})
			require.NoError(t, err)

			_, err = ex.Exchange(context.Background(), "abc")
			var upErr *UpstreamError
			require.True(t, errors.As(err, &upErr))
			assert.Zero(t, upErr.Status)
			assert.Contains(t, upErr.Error(), "dial refused")
		})
	})

	t.Run("Refresh", func(t *testing.T) {
		t.Run("without rotation the refresh token is empty", func(t *testing.T) {
			provider := tu.NewFakeProvider(t)
			provider.SetToken(http.StatusOK, `{"access_token":"AT2","expires_in":3600,"scope":"streaming","token_type":"Bearer"}`)
			ex := newTestExchanger(t, provider)

			pair, err := ex.Refresh(context.Background(), "RT1")
			require.NoError(t, err)

			assert.Equal(t, "AT2", pair.AccessToken)
			assert.Empty(t, pair.RefreshToken)
			assert.Equal(t, 3600, pair.ExpiresIn)

			reqs := provider.TokenRequests()
			require.Len(t, reqs, 1)
			assert.Equal(t, "refresh_token", reqs[0].Get("grant_type"))
			assert.Equal(t, "RT1", reqs[0].Get("refresh_token"))
		})

		t.Run("rotation returns the new refresh token", func(t *testing.T) {
			provider := tu.NewFakeProvider(t)
			provider.SetToken(http.StatusOK, `{"access_token":"AT2","refresh_token":"RT2","expires_in":3600,"scope":"streaming","token_type":"Bearer"}`)
			ex := newTestExchanger(t, provider)

			pair, err := ex.Refresh(context.Background(), "RT1")
			require.NoError(t, err)
			assert.Equal(t, "RT2", pair.RefreshToken)
		})

		t.Run("missing refresh token", func(t *testing.T) {
			provider := tu.NewFakeProvider(t)
			ex := newTestExchanger(t, provider)

			_, err := ex.Refresh(context.Background(), "")
			assert.ErrorIs(t, err, shared.ErrNoSession)
			assert.Zero(t, provider.Calls("/api/token"))
		})

		t.Run("upstream rejection", func(t *testing.T) {
			provider := tu.NewFakeProvider(t)
			provider.SetToken(http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Refresh token revoked"}`)
			ex := newTestExchanger(t, provider)

			_, err := ex.Refresh(context.Background(), "RT1")
			assert.ErrorIs(t, err, shared.ErrUpstreamRefresh)

			var upErr *UpstreamError
			require.True(t, errors.As(err, &upErr))
			assert.Equal(t, "refresh", upErr.Op)
			assert.Contains(t, upErr.Body, "Refresh token revoked")
		})
	})
}
