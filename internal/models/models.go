// package models defines the data model for the scan-to-play service
package models

import (
	"fmt"
	"strings"
)

// CredentialPair is the result of a successful exchange or refresh.
//
// RefreshToken is empty after a refresh in which the provider did not rotate the token.
type CredentialPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
}

// Scopes splits the space-delimited scope string.
func (c CredentialPair) Scopes() []string {
	return strings.Fields(c.Scope)
}

// Access returns the fields of the pair that may be handed to the page.
func (c CredentialPair) Access() AccessResponse {
	return AccessResponse{
		AccessToken: c.AccessToken,
		ExpiresIn:   c.ExpiresIn,
		Scope:       c.Scope,
		TokenType:   c.TokenType,
	}
}

// AccessResponse is the JSON body of a successful refresh.
type AccessResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
	TokenType   string `json:"token_type"`
}

// Tier is the subscription capability of the account.
type Tier int

const (
	TierUnknown Tier = iota
	TierFree
	TierPremium
)

func (t Tier) String() string {
	switch t {
	case TierFree:
		return "free"
	case TierPremium:
		return "premium"
	default:
		return "unknown"
	}
}

// Profile is the subset of the account profile the controller needs.
type Profile struct {
	ID          string
	DisplayName string
	Product     string // premium, free, open
}

// Tier derives the subscription tier; anything other than premium is free.
func (p *Profile) Tier() Tier {
	if p != nil && strings.EqualFold(p.Product, "premium") {
		return TierPremium
	}
	return TierFree
}

// TrackReference is a scanned identifier resolved against the catalog.
type TrackReference struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	ImageURL   string   `json:"image,omitempty"`
	URI        string   `json:"uri"`
	PreviewURL string   `json:"preview_url,omitempty"`
}

// ArtistLine joins the artists in credit order.
func (t *TrackReference) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// HasPreview reports whether a 30 second preview asset exists.
func (t *TrackReference) HasPreview() bool {
	return t != nil && t.PreviewURL != ""
}

func (t *TrackReference) String() string {
	return fmt.Sprintf("%s - %s", t.ArtistLine(), t.Name)
}

// Device is a playback endpoint for the authenticated user.
type Device struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Active bool   `json:"is_active"`
}
