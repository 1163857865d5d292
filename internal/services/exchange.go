package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/scanplay/internal/models"
	"github.com/desertthunder/scanplay/internal/shared"
	"golang.org/x/oauth2"
)

// ExchangerOptions configures an [Exchanger].
//
// AuthURL and TokenURL default to Spotify's accounts service.
type ExchangerOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string
	AuthURL      string
	TokenURL     string
	HTTPClient   *http.Client
}

// UpstreamError reports a token endpoint failure with the provider's own status and body text.
type UpstreamError struct {
	Op     string // exchange or refresh
	Status int    // zero when the request never got a response
	Body   string

	kind error
	err  error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%v: %s", e.kind, e.Body)
	}
	return fmt.Sprintf("%v: status %d: %s", e.kind, e.Status, e.Body)
}

// Unwrap exposes both the sentinel kind and the underlying transport error.
func (e *UpstreamError) Unwrap() []error {
	return []error{e.kind, e.err}
}

// Exchanger converts authorization grants and refresh tokens into credential pairs.
//
// It is stateless: the refresh token is always supplied by the caller, which reads it from the session cookie.
type Exchanger struct {
	config *oauth2.Config
	client *http.Client
}

// NewExchanger creates an Exchanger for the configured client credentials.
func NewExchanger(opts ExchangerOptions) (*Exchanger, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}
	if opts.AuthURL == "" {
		opts.AuthURL = spotifyAuthURL
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}
	if len(opts.Scopes) == 0 {
		opts.Scopes = shared.DefaultScopes
	}

	config := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		RedirectURL:  opts.RedirectURI,
		Scopes:       opts.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   opts.AuthURL,
			TokenURL:  opts.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	return &Exchanger{config: config, client: opts.HTTPClient}, nil
}

// OAuthConfig exposes the underlying [oauth2.Config].
func (e *Exchanger) OAuthConfig() *oauth2.Config {
	return e.config
}

// AuthURL returns the authorization URL for the given anti-forgery state.
//
// The consent dialog is always shown so users can switch accounts.
func (e *Exchanger) AuthURL(state string) string {
	return e.config.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// Exchange trades an authorization code for a credential pair. Failures are never retried.
func (e *Exchanger) Exchange(ctx context.Context, code string) (*models.CredentialPair, error) {
	if strings.TrimSpace(code) == "" {
		return nil, shared.ErrMissingGrant
	}

	token, err := e.config.Exchange(e.context(ctx), code)
	if err != nil {
		return nil, upstreamError("exchange", shared.ErrUpstreamExchange, err)
	}

	return credentialPair(token), nil
}

// Refresh mints a new access token from refreshToken.
//
// The returned pair carries a refresh token only when the provider rotated it; callers must then replace the stored one.
func (e *Exchanger) Refresh(ctx context.Context, refreshToken string) (*models.CredentialPair, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoSession
	}

	source := e.config.TokenSource(e.context(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, upstreamError("refresh", shared.ErrUpstreamRefresh, err)
	}

	pair := credentialPair(token)
	if pair.RefreshToken == refreshToken {
		pair.RefreshToken = ""
	}
	return pair, nil
}

func (e *Exchanger) context(ctx context.Context) context.Context {
	if e.client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, e.client)
}

func upstreamError(op string, kind, err error) *UpstreamError {
	upErr := &UpstreamError{Op: op, kind: kind, err: err, Body: err.Error()}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		upErr.Body = strings.TrimSpace(string(retrieveErr.Body))
		if retrieveErr.Response != nil {
			upErr.Status = retrieveErr.Response.StatusCode
		}
	}
	return upErr
}

func credentialPair(token *oauth2.Token) *models.CredentialPair {
	pair := &models.CredentialPair{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    expiresIn(token),
		TokenType:    token.TokenType,
	}
	if scope, ok := token.Extra("scope").(string); ok {
		pair.Scope = scope
	}
	return pair
}

// expiresIn reads the wire value of expires_in, falling back to the computed expiry.
func expiresIn(token *oauth2.Token) int {
	switch v := token.Extra("expires_in").(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	if token.Expiry.IsZero() {
		return 0
	}
	return int(time.Until(token.Expiry).Round(time.Second).Seconds())
}
